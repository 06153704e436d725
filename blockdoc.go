package blockdoc

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	documentscmd "github.com/goliatone/go-blockdoc/internal/commands/documents"
	"github.com/goliatone/go-blockdoc/internal/di"
	"github.com/goliatone/go-blockdoc/internal/editor"
	"github.com/goliatone/go-blockdoc/internal/markdown"
	"github.com/goliatone/go-blockdoc/internal/render"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// Block exports the block model.
type Block = blocks.Block

// Document exports the ordered block collection.
type Document = blocks.Document

// BlockType exports the variant tag.
type BlockType = blocks.Type

// Definition exports palette and schema metadata for one variant.
type Definition = blocks.Definition

// Action exports the editor action contract.
type Action = editor.Action

// State exports the editor state snapshot.
type State = editor.State

// Result exports the outcome of one dispatched action.
type Result = editor.Result

// RenderMode exports the consumer mode.
type RenderMode = render.Mode

const (
	RenderPublic = render.ModePublic
	RenderEdit   = render.ModeEdit
)

// Imported exports a markdown import result.
type Imported = markdown.Imported

// Module is the top level block document façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI
// overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Factory returns the block factory.
func (m *Module) Factory() *blocks.Factory {
	return m.container.Factory()
}

// Palette lists the insertable variants in palette order.
func (m *Module) Palette() []Definition {
	return m.container.Factory().Registry().Palette()
}

// Decode parses a serialized document, validating payloads when
// Validation.StrictSchemas is set.
func (m *Module) Decode(raw []byte) (Document, error) {
	return blocks.DecodeDocument(raw, m.container.DecodeOptions()...)
}

// Encode serializes doc in order.
func (m *Module) Encode(doc Document) ([]byte, error) {
	return blocks.EncodeDocument(doc)
}

// Import converts a markdown source into a document.
func (m *Module) Import(path string, source []byte) (*Imported, error) {
	return m.container.Importer().Import(path, source)
}

// Render draws doc with the configured renderer.
func (m *Module) Render(ctx context.Context, doc Document, mode RenderMode) (string, error) {
	return m.container.Renderer().Render(ctx, doc, mode)
}

// Commands builds the document command handlers. fsys backs directory
// imports and output receives rendered documents; either may be nil when
// the matching command is not used.
func (m *Module) Commands(reg documentscmd.CommandRegistry, fsys fs.FS, output documentscmd.RenderOutput) (*documentscmd.HandlerSet, error) {
	return documentscmd.RegisterDocumentCommands(reg, documentscmd.Dependencies{
		Importer:      m.container.Importer(),
		FS:            fsys,
		Factory:       m.container.Factory(),
		Renderer:      m.container.Renderer(),
		Saver:         m.container.DocumentSaver(),
		Output:        output,
		StrictSchemas: m.container.Config.Validation.StrictSchemas,
	}, m.container.LoggerProvider())
}

// LoggerProvider returns the configured provider, nil when logging is off.
func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.container.LoggerProvider()
}
