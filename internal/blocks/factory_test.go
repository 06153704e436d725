package blocks_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-blockdoc/internal/blocks"
)

func sequentialIDs(prefix string) blocks.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newFactory() *blocks.Factory {
	return blocks.NewFactory(blocks.WithIDGenerator(sequentialIDs("id")))
}

func TestFactoryCreateHeadingDefaults(t *testing.T) {
	f := newFactory()

	block, err := f.Create(blocks.TypeHeading, nil)
	if err != nil {
		t.Fatalf("create heading: %v", err)
	}
	if block.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if block.Type != blocks.TypeHeading || block.Order != 0 || !block.IsVisible {
		t.Fatalf("unexpected envelope %+v", block)
	}
	heading, ok := block.Data.(*blocks.HeadingData)
	if !ok {
		t.Fatalf("expected *HeadingData got %T", block.Data)
	}
	if heading.Level != 2 || heading.Text != "" {
		t.Fatalf("expected level 2 and empty text got %+v", heading)
	}
}

func TestFactoryCreateUnknownType(t *testing.T) {
	f := newFactory()

	_, err := f.Create(blocks.Type("video"), nil)
	if !errors.Is(err, blocks.ErrUnknownBlockType) {
		t.Fatalf("expected ErrUnknownBlockType got %v", err)
	}
	var typed *blocks.UnknownTypeError
	if !errors.As(err, &typed) || typed.Type != "video" {
		t.Fatalf("expected UnknownTypeError for video got %v", err)
	}
}

func TestFactoryDefaultsConformToSchemas(t *testing.T) {
	f := newFactory()
	for _, typ := range blocks.AllTypes() {
		block, err := f.Create(typ, nil)
		if err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
		if block.Data.Type() != typ {
			t.Fatalf("expected payload %s got %s", typ, block.Data.Type())
		}
		if err := f.Registry().Validate(block.Data); err != nil {
			t.Fatalf("default %s payload rejected: %v", typ, err)
		}
	}
}

func TestFactorySeedsNestedRecords(t *testing.T) {
	f := newFactory()

	itinerary, err := f.Create(blocks.TypeItinerary, nil)
	if err != nil {
		t.Fatalf("create itinerary: %v", err)
	}
	days := itinerary.Data.(*blocks.ItineraryData).Days
	if len(days) != 1 || days[0].DayNumber != 1 || days[0].ID == "" {
		t.Fatalf("expected one identified day numbered 1 got %+v", days)
	}

	flight, err := f.Create(blocks.TypeFlight, nil)
	if err != nil {
		t.Fatalf("create flight: %v", err)
	}
	if segments := flight.Data.(*blocks.FlightData).Segments; len(segments) != 1 || segments[0].ID == "" {
		t.Fatalf("expected one identified segment got %+v", segments)
	}

	services, err := f.Create(blocks.TypeServices, nil)
	if err != nil {
		t.Fatalf("create services: %v", err)
	}
	data := services.Data.(*blocks.ServicesData)
	if data.Includes == nil || len(data.Includes) != 0 || data.Excludes == nil || len(data.Excludes) != 0 {
		t.Fatalf("expected empty non-nil lists got %+v", data)
	}

	gallery, err := f.Create(blocks.TypeGallery, nil)
	if err != nil {
		t.Fatalf("create gallery: %v", err)
	}
	if images := gallery.Data.(*blocks.GalleryData).Images; images == nil || len(images) != 0 {
		t.Fatalf("expected empty image list got %+v", images)
	}

	price, err := f.Create(blocks.TypePrice, nil)
	if err != nil {
		t.Fatalf("create price: %v", err)
	}
	priceData := price.Data.(*blocks.PriceData)
	if priceData.Currency != "EUR" || priceData.PriceType != blocks.PriceTypePerPerson || len(priceData.Options) != 0 {
		t.Fatalf("unexpected price defaults %+v", priceData)
	}
}

func TestFactoryCreateWithData(t *testing.T) {
	f := newFactory()

	block, err := f.Create(blocks.TypeHeading, map[string]any{"text": "Day one", "level": 1})
	if err != nil {
		t.Fatalf("create heading: %v", err)
	}
	heading := block.Data.(*blocks.HeadingData)
	if heading.Text != "Day one" || heading.Level != 1 {
		t.Fatalf("expected merged data got %+v", heading)
	}
}

func TestFactoryDuplicateIsIndependent(t *testing.T) {
	f := newFactory()

	original, err := f.Create(blocks.TypeItinerary, map[string]any{
		"title": "Kenya",
		"days": []map[string]any{
			{"id": "day-a", "dayNumber": 1, "title": "Nairobi", "activities": []string{"arrival"}},
			{"id": "day-b", "dayNumber": 2, "title": "Masai Mara", "activities": []string{"safari"}},
		},
	})
	if err != nil {
		t.Fatalf("create itinerary: %v", err)
	}

	dup := f.Duplicate(original, 4)
	if dup.ID == original.ID {
		t.Fatalf("expected new id for duplicate")
	}
	if dup.Order != 4 {
		t.Fatalf("expected order 4 got %d", dup.Order)
	}

	origDays := original.Data.(*blocks.ItineraryData).Days
	dupDays := dup.Data.(*blocks.ItineraryData).Days
	for i := range dupDays {
		if dupDays[i].ID == origDays[i].ID {
			t.Fatalf("expected day %d id to be regenerated", i)
		}
	}

	dupDays[0].Title = "changed"
	dupDays[0].Activities[0] = "changed"
	dupDays[1].Activities = append(dupDays[1].Activities, "extra")

	if origDays[0].Title != "Nairobi" || origDays[0].Activities[0] != "arrival" {
		t.Fatalf("duplicate mutation leaked into original: %+v", origDays[0])
	}
	if len(origDays[1].Activities) != 1 {
		t.Fatalf("duplicate append leaked into original: %+v", origDays[1])
	}
}

func TestFactoryMerge(t *testing.T) {
	f := newFactory()
	block, err := f.Create(blocks.TypeHeading, nil)
	if err != nil {
		t.Fatalf("create heading: %v", err)
	}

	updated, ignored, err := f.Merge(block, map[string]any{"text": "Welcome", "bogus": true})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(ignored) != 1 || ignored[0] != "bogus" {
		t.Fatalf("expected bogus to be ignored got %v", ignored)
	}
	heading := updated.Data.(*blocks.HeadingData)
	if heading.Text != "Welcome" || heading.Level != 2 {
		t.Fatalf("expected text merged and level kept got %+v", heading)
	}
	if updated.ID != block.ID || updated.Type != block.Type {
		t.Fatalf("merge must not touch the envelope")
	}
	if block.Data.(*blocks.HeadingData).Text != "" {
		t.Fatalf("merge must not mutate the input block")
	}
}

func TestFactoryMergeRejectsBadValues(t *testing.T) {
	f := newFactory()
	block, err := f.Create(blocks.TypeHeading, nil)
	if err != nil {
		t.Fatalf("create heading: %v", err)
	}

	if _, _, err := f.Merge(block, map[string]any{"level": "big"}); !errors.Is(err, blocks.ErrInvalidPatch) {
		t.Fatalf("expected ErrInvalidPatch got %v", err)
	}
	if _, _, err := f.Merge(block, map[string]any{"level": 9}); !errors.Is(err, blocks.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload got %v", err)
	}
}

func TestFactoryMergeIgnoresUploadBookkeeping(t *testing.T) {
	f := newFactory()
	block, err := f.Create(blocks.TypeImage, nil)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}

	updated, ignored, err := f.Merge(block, map[string]any{"alt": "Lake", "isUploading": true})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(ignored) != 1 || ignored[0] != "isUploading" {
		t.Fatalf("expected isUploading ignored got %v", ignored)
	}
	image := updated.Data.(*blocks.ImageData)
	if image.Alt != "Lake" || image.IsUploading {
		t.Fatalf("unexpected image %+v", image)
	}
}

func TestFactoryMergeAssignsMissingNestedIDs(t *testing.T) {
	f := newFactory()
	block, err := f.Create(blocks.TypePrice, nil)
	if err != nil {
		t.Fatalf("create price: %v", err)
	}

	updated, _, err := f.Merge(block, map[string]any{
		"options": []map[string]any{
			{"name": "Single room", "price": 120},
			{"id": "opt-1", "name": "Upgrade", "price": 80},
			{"id": "opt-1", "name": "Late checkout", "price": 30},
		},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	options := updated.Data.(*blocks.PriceData).Options
	seen := map[string]bool{}
	for _, option := range options {
		if option.ID == "" || seen[option.ID] {
			t.Fatalf("expected unique option ids got %+v", options)
		}
		seen[option.ID] = true
	}
	if options[1].ID != "opt-1" {
		t.Fatalf("expected first opt-1 to keep its id got %q", options[1].ID)
	}
}

func TestFactoryMergeOpaqueIsNoop(t *testing.T) {
	f := newFactory()
	block := blocks.Block{
		ID:        "x",
		Type:      "video",
		IsVisible: true,
		Data:      &blocks.Opaque{Tag: "video", Raw: []byte(`{"src":"a.mp4"}`)},
	}

	updated, ignored, err := f.Merge(block, map[string]any{"src": "b.mp4"})
	if err != nil {
		t.Fatalf("merge opaque: %v", err)
	}
	if len(ignored) != 1 {
		t.Fatalf("expected patch to be ignored got %v", ignored)
	}
	if string(updated.Data.(*blocks.Opaque).Raw) != `{"src":"a.mp4"}` {
		t.Fatalf("opaque payload changed")
	}
}

func TestRegistryPaletteOrder(t *testing.T) {
	palette := blocks.DefaultRegistry().Palette()
	types := blocks.AllTypes()
	if len(palette) != len(types) {
		t.Fatalf("expected %d palette entries got %d", len(types), len(palette))
	}
	for i, def := range palette {
		if def.Type != types[i] {
			t.Fatalf("palette[%d]: expected %s got %s", i, types[i], def.Type)
		}
		if def.Label == "" || def.Icon == "" {
			t.Fatalf("palette entry %s missing label or icon", def.Type)
		}
	}
}

func TestRegistryRejectsMismatchedDefinition(t *testing.T) {
	reg := blocks.NewRegistry()
	err := reg.Register(blocks.Definition{
		Type: blocks.TypeText,
		New:  func() blocks.Data { return &blocks.HeadingData{} },
	})
	if !errors.Is(err, blocks.ErrDefinitionInvalid) {
		t.Fatalf("expected ErrDefinitionInvalid got %v", err)
	}
}

func TestRenormalize(t *testing.T) {
	doc := blocks.Document{{ID: "a", Order: 7}, {ID: "b", Order: 7}, {ID: "c", Order: -1}}
	blocks.Renormalize(doc)
	for i, block := range doc {
		if block.Order != i {
			t.Fatalf("block %s: expected order %d got %d", block.ID, i, block.Order)
		}
	}
}
