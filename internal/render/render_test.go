package render

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-blockdoc/internal/blocks"
)

func sampleDoc() blocks.Document {
	return blocks.Document{
		{ID: "c", Type: blocks.TypeText, Order: 2, IsVisible: true, Data: &blocks.TextData{Content: "third"}},
		{ID: "a", Type: blocks.TypeHeading, Order: 0, IsVisible: true, Data: &blocks.HeadingData{Text: "First", Level: 2}},
		{ID: "b", Type: blocks.TypeText, Order: 1, IsVisible: false, Data: &blocks.TextData{Content: "hidden"}},
		{ID: "d", Type: "poll", Order: 3, IsVisible: true, Data: &blocks.Opaque{Tag: "poll", Raw: json.RawMessage(`{"q":"?"}`)}},
	}
}

func TestPrepareFiltersAndSorts(t *testing.T) {
	doc := sampleDoc()

	public := Prepare(doc, ModePublic)
	if got := strings.Join(public.IDs(), ","); got != "a,c,d" {
		t.Fatalf("expected a,c,d got %s", got)
	}

	edit := Prepare(doc, ModeEdit)
	if got := strings.Join(edit.IDs(), ","); got != "a,b,c,d" {
		t.Fatalf("expected a,b,c,d got %s", got)
	}

	if doc[0].ID != "c" {
		t.Fatalf("expected input to keep its order")
	}
	edit[0].Data.(*blocks.HeadingData).Text = "changed"
	if doc[1].Data.(*blocks.HeadingData).Text != "First" {
		t.Fatalf("expected prepared blocks to be copies")
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode(" EDIT ") != ModeEdit {
		t.Fatalf("expected edit mode")
	}
	if ParseMode("") != ModePublic || ParseMode("print") != ModePublic {
		t.Fatalf("expected public mode by default")
	}
}

func TestRendererSkipsUnknownTypes(t *testing.T) {
	r := New(WithSeparator("|"))
	called := map[string]bool{}
	fn := func(_ context.Context, block blocks.Block, _ Mode) (string, error) {
		called[block.ID] = true
		return block.ID, nil
	}
	if err := r.Register(blocks.TypeText, fn); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(blocks.TypeHeading, fn); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("poll", fn); err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := r.Render(context.Background(), sampleDoc(), ModePublic)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "a|c" {
		t.Fatalf("expected a|c got %q", out)
	}
	if called["d"] {
		t.Fatalf("expected opaque block to be skipped even with a registered func")
	}
}

func TestRendererRegisterValidation(t *testing.T) {
	r := New()
	if err := r.Register("", func(context.Context, blocks.Block, Mode) (string, error) { return "", nil }); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired got %v", err)
	}
	if err := r.Register(blocks.TypeText, nil); !errors.Is(err, ErrFuncRequired) {
		t.Fatalf("expected ErrFuncRequired got %v", err)
	}
	if r.Has(blocks.TypeText) {
		t.Fatalf("expected no func registered")
	}
}

func TestRendererPropagatesBlockErrors(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	_ = r.Register(blocks.TypeText, func(context.Context, blocks.Block, Mode) (string, error) { return "", boom })

	if _, err := r.Render(context.Background(), sampleDoc(), ModePublic); !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
}

func TestRendererHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Render(ctx, sampleDoc(), ModePublic); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
}
