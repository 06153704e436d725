package blocks

import (
	"encoding/json"
	"slices"
	"sort"
)

// Type is the variant tag of a block. The set of known tags is closed; see
// AllTypes.
type Type string

const (
	TypeText               Type = "text"
	TypeHeading            Type = "heading"
	TypeItinerary          Type = "itinerary"
	TypeServices           Type = "services"
	TypePrice              Type = "price"
	TypeImage              Type = "image"
	TypeGallery            Type = "gallery"
	TypeFile               Type = "file"
	TypeAccommodation      Type = "accommodation"
	TypeActivity           Type = "activity"
	TypeTransport          Type = "transport"
	TypeFlight             Type = "flight"
	TypeFood               Type = "food"
	TypeCancellationPolicy Type = "cancellation_policy"
)

// AllTypes lists every known variant in palette order.
func AllTypes() []Type {
	return []Type{
		TypeHeading,
		TypeText,
		TypeImage,
		TypeGallery,
		TypeFile,
		TypeItinerary,
		TypeServices,
		TypePrice,
		TypeAccommodation,
		TypeActivity,
		TypeTransport,
		TypeFlight,
		TypeFood,
		TypeCancellationPolicy,
	}
}

// IDGenerator produces opaque unique identifiers for blocks and nested records.
type IDGenerator func() string

// Data is the variant payload of a block. It is implemented only by the
// payload types of this package, so the payload always matches the tag
// returned by Type.
type Data interface {
	Type() Type
	clone() Data
	settle(next IDGenerator, fresh bool)
}

// Block is one typed, ordered, visibility-flagged unit of page content.
type Block struct {
	ID        string
	Type      Type
	Order     int
	IsVisible bool
	Data      Data
}

// Known reports whether the block carries a variant this build understands.
func (b Block) Known() bool {
	_, opaque := b.Data.(*Opaque)
	return b.Data != nil && !opaque
}

// Clone returns a deep copy of b keeping every id.
func (b Block) Clone() Block {
	if b.Data != nil {
		b.Data = b.Data.clone()
	}
	return b
}

// Document is the ordered collection of blocks belonging to one page.
type Document []Block

// Clone deep-copies every block.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, block := range d {
		out[i] = block.Clone()
	}
	return out
}

// IndexOf returns the array position of id, or -1.
func (d Document) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(d, func(b Block) bool { return b.ID == id })
}

// Find returns the block with id.
func (d Document) Find(id string) (Block, bool) {
	idx := d.IndexOf(id)
	if idx < 0 {
		return Block{}, false
	}
	return d[idx], true
}

// IDs returns the block ids in array order.
func (d Document) IDs() []string {
	out := make([]string, len(d))
	for i, block := range d {
		out[i] = block.ID
	}
	return out
}

// Sorted returns a shallow copy ordered by Order ascending. Ties keep their
// array order.
func (d Document) Sorted() Document {
	out := slices.Clone(d)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Renormalize assigns Order = index to every block in place. It is the only
// place order values are computed.
func Renormalize(doc Document) Document {
	for i := range doc {
		doc[i].Order = i
	}
	return doc
}

// Opaque keeps a block whose type this build does not know. The raw payload
// is preserved so saving a document never drops a newer variant.
type Opaque struct {
	Tag Type
	Raw json.RawMessage
}

func (o *Opaque) Type() Type { return o.Tag }

func (o *Opaque) clone() Data {
	return &Opaque{Tag: o.Tag, Raw: slices.Clone(o.Raw)}
}

func (o *Opaque) settle(IDGenerator, bool) {}
