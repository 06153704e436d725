package blocks

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-blockdoc/internal/validation"
)

// Definition describes one block variant: how the palette shows it, the
// default payload the factory seeds, and the JSON schema its payload obeys.
type Definition struct {
	Type        Type
	Label       string
	Description string
	Icon        string
	Category    string
	Schema      map[string]any
	// New returns the variant's default payload. Nested records are returned
	// without ids; the factory assigns them.
	New func() Data
}

// Registry stores variant definitions and their compiled schemas.
type Registry struct {
	mu       sync.RWMutex
	entries  map[Type]Definition
	order    []Type
	compiled map[Type]*validation.Schema
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[Type]Definition),
		compiled: make(map[Type]*validation.Schema),
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the registry holding every built-in variant.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		reg := NewRegistry()
		for _, def := range builtinDefinitions() {
			if err := reg.Register(def); err != nil {
				panic(err)
			}
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Register records a definition. Registering the same type twice replaces the
// definition but keeps its palette position.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return ErrRegistryRequired
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return fmt.Errorf("%w: empty type", ErrDefinitionInvalid)
	}
	if def.New == nil {
		return fmt.Errorf("%w: %s has no default payload", ErrDefinitionInvalid, def.Type)
	}
	if sample := def.New(); sample == nil || sample.Type() != def.Type {
		return fmt.Errorf("%w: %s default payload has the wrong variant", ErrDefinitionInvalid, def.Type)
	}
	compiled, err := validation.Compile(def.Schema)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDefinitionInvalid, def.Type, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.entries[def.Type] = def
	r.compiled[def.Type] = compiled
	return nil
}

// Lookup returns the definition for t.
func (r *Registry) Lookup(t Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.entries[t]
	return def, ok
}

// Known reports whether t is a registered variant.
func (r *Registry) Known(t Type) bool {
	_, ok := r.Lookup(t)
	return ok
}

// Palette returns every definition in registration order, which is the order
// the component palette lists them.
func (r *Registry) Palette() []Definition {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.entries[t])
	}
	return out
}

// Validate checks a payload against its variant schema. Opaque payloads are
// not validated.
func (r *Registry) Validate(data Data) error {
	if data == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidPayload)
	}
	if _, opaque := data.(*Opaque); opaque {
		return nil
	}
	r.mu.RLock()
	compiled, ok := r.compiled[data.Type()]
	r.mu.RUnlock()
	if !ok {
		return &UnknownTypeError{Type: data.Type()}
	}
	generic, err := toGeneric(data)
	if err != nil {
		return err
	}
	if err := compiled.Validate(generic); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, data.Type(), err)
	}
	return nil
}

// toGeneric round-trips a payload through JSON so schema validation sees the
// serialized shape.
func toGeneric(data Data) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}
