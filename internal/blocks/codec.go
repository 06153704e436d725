package blocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type blockEnvelope struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Order     int             `json:"order"`
	IsVisible bool            `json:"isVisible"`
	Data      json.RawMessage `json:"data"`
}

// MarshalJSON writes the serialized block shape shared by every renderer:
// {id, type, order, isVisible, data}.
func (b Block) MarshalJSON() ([]byte, error) {
	var data json.RawMessage
	switch payload := b.Data.(type) {
	case nil:
		data = json.RawMessage("{}")
	case *Opaque:
		data = payload.Raw
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("blocks: encode %s payload: %w", b.Type, err)
		}
		data = raw
	}
	return json.Marshal(blockEnvelope{
		ID:        b.ID,
		Type:      b.Type,
		Order:     b.Order,
		IsVisible: b.IsVisible,
		Data:      data,
	})
}

// UnmarshalJSON decodes a block using the default registry. Unknown types are
// kept as *Opaque. Keys a variant does not define are dropped.
func (b *Block) UnmarshalJSON(raw []byte) error {
	decoded, err := decodeBlock(DefaultRegistry(), raw)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

func decodeBlock(reg *Registry, raw []byte) (Block, error) {
	var env blockEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Block{}, fmt.Errorf("blocks: decode block: %w", err)
	}
	block := Block{
		ID:        env.ID,
		Type:      env.Type,
		Order:     env.Order,
		IsVisible: env.IsVisible,
	}

	def, ok := reg.Lookup(env.Type)
	if !ok {
		block.Data = &Opaque{Tag: env.Type, Raw: bytes.Clone(env.Data)}
		return block, nil
	}

	payload := def.New()
	if len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		zeroPayload(payload)
		if err := json.Unmarshal(env.Data, payload); err != nil {
			return Block{}, fmt.Errorf("blocks: decode %s payload for block %q: %w", env.Type, env.ID, err)
		}
	}
	payload.settle(nil, false)
	block.Data = payload
	return block, nil
}

// DecodeOption tunes DecodeDocument.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	registry *Registry
	strict   bool
}

// DecodeWithRegistry decodes against reg instead of the default registry.
func DecodeWithRegistry(reg *Registry) DecodeOption {
	return func(o *decodeOptions) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// DecodeStrict validates every known payload against its variant schema.
func DecodeStrict(strict bool) DecodeOption {
	return func(o *decodeOptions) {
		o.strict = strict
	}
}

// DecodeDocument parses the serialized document array. Order values are
// taken as given; callers load the result through the store, which
// renormalizes.
func DecodeDocument(raw []byte, opts ...DecodeOption) (Document, error) {
	options := decodeOptions{registry: DefaultRegistry()}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("blocks: decode document: %w", err)
	}
	doc := make(Document, 0, len(items))
	var errs []error
	for i, item := range items {
		block, err := decodeBlock(options.registry, item)
		if err != nil {
			return nil, fmt.Errorf("blocks: document[%d]: %w", i, err)
		}
		if options.strict {
			if err := options.registry.Validate(block.Data); err != nil {
				errs = append(errs, fmt.Errorf("document[%d]: %w", i, err))
			}
		}
		doc = append(doc, block)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc, nil
}

// EncodeDocument serializes doc sorted by order. Nil encodes as [].
func EncodeDocument(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	return json.Marshal(doc.Sorted())
}

// Validate checks the document invariants: unique non-empty ids, order values
// 0..n-1 matching array position, payload variant matching the type tag, and
// known payloads conforming to their schema.
func (d Document) Validate(reg *Registry) error {
	if reg == nil {
		reg = DefaultRegistry()
	}
	var errs []error
	seen := make(map[string]int, len(d))
	for i, block := range d {
		if block.ID == "" {
			errs = append(errs, fmt.Errorf("block[%d]: empty id", i))
		} else if prev, dup := seen[block.ID]; dup {
			errs = append(errs, fmt.Errorf("block[%d]: id %q already used by block[%d]", i, block.ID, prev))
		} else {
			seen[block.ID] = i
		}
		if block.Order != i {
			errs = append(errs, fmt.Errorf("block[%d]: order %d does not match position", i, block.Order))
		}
		if block.Data == nil {
			errs = append(errs, fmt.Errorf("block[%d]: missing payload", i))
			continue
		}
		if block.Data.Type() != block.Type {
			errs = append(errs, fmt.Errorf("block[%d]: payload %s does not match type %s", i, block.Data.Type(), block.Type))
			continue
		}
		if err := reg.Validate(block.Data); err != nil {
			errs = append(errs, fmt.Errorf("block[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDocumentInvalid, errors.Join(errs...))
	}
	return nil
}
