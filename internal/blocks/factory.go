package blocks

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithRegistry swaps the variant registry.
func WithRegistry(reg *Registry) FactoryOption {
	return func(f *Factory) {
		if reg != nil {
			f.registry = reg
		}
	}
}

// WithIDGenerator overrides how block and nested record ids are minted.
func WithIDGenerator(generator IDGenerator) FactoryOption {
	return func(f *Factory) {
		if generator != nil {
			f.ids = generator
		}
	}
}

// Factory builds blocks with type-correct defaults and deep-duplicates them.
type Factory struct {
	registry *Registry
	ids      IDGenerator
}

// NewFactory returns a factory over the default registry minting UUIDs.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		registry: DefaultRegistry(),
		ids:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Registry exposes the registry backing the factory.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// NewID mints an identifier with the factory's generator.
func (f *Factory) NewID() string {
	return f.ids()
}

// Create builds a visible block of type t at order 0. When data is given it
// is merged over the defaults with the same rules as Merge. An unknown t
// fails with *UnknownTypeError.
func (f *Factory) Create(t Type, data map[string]any) (Block, error) {
	def, ok := f.registry.Lookup(t)
	if !ok {
		return Block{}, &UnknownTypeError{Type: t}
	}
	payload := def.New()
	payload.settle(f.ids, true)

	if len(data) > 0 {
		merged, _, err := f.mergeData(def, payload, data)
		if err != nil {
			return Block{}, err
		}
		payload = merged
	}

	return Block{
		ID:        f.ids(),
		Type:      t,
		IsVisible: true,
		Data:      payload,
	}, nil
}

// Duplicate deep-copies block under a new id, giving every nested record a
// new id too so the copy shares nothing with the original. In-flight upload
// placeholders are not copied: their upload reconciles the original only.
// Order is set to insertAfterOrder; the caller renormalizes.
func (f *Factory) Duplicate(block Block, insertAfterOrder int) Block {
	out := WithoutPendingUploads(block).Clone()
	if out.Data != nil {
		out.Data.settle(f.ids, true)
	}
	out.ID = f.ids()
	out.Order = insertAfterOrder
	return out
}

// Merge shallow-merges patch into the block payload and returns the updated
// block plus the patch keys that were ignored because the variant does not
// define them. Values of the wrong shape fail with ErrInvalidPatch, and
// values the schema rejects fail with ErrInvalidPayload. Opaque blocks are
// returned unchanged.
func (f *Factory) Merge(block Block, patch map[string]any) (Block, []string, error) {
	if block.Data == nil {
		return block, nil, fmt.Errorf("%w: block %s has no payload", ErrInvalidPatch, block.ID)
	}
	if _, opaque := block.Data.(*Opaque); opaque {
		return block, sortedKeys(patch), nil
	}
	def, ok := f.registry.Lookup(block.Type)
	if !ok {
		return block, nil, &UnknownTypeError{Type: block.Type}
	}
	merged, ignored, err := f.mergeData(def, block.Data, patch)
	if err != nil {
		return block, ignored, err
	}
	block.Data = merged
	return block, ignored, nil
}

func (f *Factory) mergeData(def Definition, current Data, patch map[string]any) (Data, []string, error) {
	base, err := toGeneric(current)
	if err != nil {
		return nil, nil, err
	}
	known := map[string]struct{}{}
	if properties, ok := def.Schema["properties"].(map[string]any); ok {
		for key := range properties {
			known[key] = struct{}{}
		}
	}

	var ignored []string
	for key, value := range patch {
		if _, ok := known[key]; !ok || isTransientKey(key) {
			ignored = append(ignored, key)
			continue
		}
		base[key] = value
	}
	sort.Strings(ignored)

	raw, err := json.Marshal(base)
	if err != nil {
		return nil, ignored, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	next := def.New()
	zeroPayload(next)
	if err := json.Unmarshal(raw, next); err != nil {
		return nil, ignored, fmt.Errorf("%w: %s: %v", ErrInvalidPatch, def.Type, err)
	}
	next.settle(f.ids, false)
	if err := f.registry.Validate(next); err != nil {
		return nil, ignored, err
	}
	return next, ignored, nil
}

// Upload bookkeeping is owned by the upload hooks, never by edits.
func isTransientKey(key string) bool {
	switch key {
	case "isUploading", "uploadId", "previewUrl":
		return true
	}
	return false
}

// zeroPayload clears a freshly built default so decoding replaces rather than
// appends to seeded slices.
func zeroPayload(data Data) {
	switch d := data.(type) {
	case *ItineraryData:
		*d = ItineraryData{}
	case *ServicesData:
		*d = ServicesData{}
	case *PriceData:
		*d = PriceData{}
	case *GalleryData:
		*d = GalleryData{}
	case *FlightData:
		*d = FlightData{}
	case *CancellationPolicyData:
		*d = CancellationPolicyData{}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
