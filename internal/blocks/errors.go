package blocks

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownBlockType  = errors.New("blocks: unknown block type")
	ErrInvalidPatch      = errors.New("blocks: invalid data patch")
	ErrInvalidPayload    = errors.New("blocks: payload does not match variant schema")
	ErrNotUploadable     = errors.New("blocks: block type does not accept uploads")
	ErrDefinitionInvalid = errors.New("blocks: invalid definition")
	ErrRegistryRequired  = errors.New("blocks: registry required")
	ErrDocumentInvalid   = errors.New("blocks: document invariants violated")
)

// UnknownTypeError reports a variant tag outside the known set. Creating such
// a block is a programming or data error, never a stale reference.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("blocks: unknown block type %q", string(e.Type))
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownBlockType
}
