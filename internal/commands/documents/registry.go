package documentscmd

import (
	"io/fs"

	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/commands"
	"github.com/goliatone/go-blockdoc/internal/markdown"
	"github.com/goliatone/go-blockdoc/internal/render"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Dependencies are the collaborators the document handlers need. Handlers
// whose dependency is missing fail on execution, not on registration.
type Dependencies struct {
	Importer      *markdown.Importer
	FS            fs.FS
	Factory       *blocks.Factory
	Renderer      *render.Renderer
	Saver         interfaces.DocumentSaver
	Output        RenderOutput
	StrictSchemas bool
}

// HandlerSet groups the handlers built by RegisterDocumentCommands.
type HandlerSet struct {
	Import          *ImportMarkdownHandler
	ImportDirectory *ImportMarkdownDirectoryHandler
	Normalize       *NormalizeDocumentHandler
	Render          *RenderDocumentHandler
}

// RegisterDocumentCommands builds the document handlers and registers them
// with reg when it is not nil.
func RegisterDocumentCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	logger := commands.CommandLogger(provider, "documents")

	var registry *blocks.Registry
	if deps.Factory != nil {
		registry = deps.Factory.Registry()
	}

	set := &HandlerSet{
		Import:          NewImportMarkdownHandler(deps.Importer, deps.Saver, logger),
		ImportDirectory: NewImportMarkdownDirectoryHandler(deps.Importer, deps.FS, deps.Saver, logger),
		Normalize:       NewNormalizeDocumentHandler(deps.Factory, deps.Saver, deps.StrictSchemas, logger),
		Render:          NewRenderDocumentHandler(deps.Renderer, registry, deps.Output, logger),
	}

	if reg != nil {
		for _, handler := range []any{set.Import, set.ImportDirectory, set.Normalize, set.Render} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Subscribe routes the document messages sent through the go-command
// dispatcher to set. The returned func removes the subscriptions.
func Subscribe(set *HandlerSet) func() {
	if set == nil {
		return func() {}
	}
	subs := []interface{ Unsubscribe() }{
		dispatcher.SubscribeCommand(set.Import),
		dispatcher.SubscribeCommand(set.ImportDirectory),
		dispatcher.SubscribeCommand(set.Normalize),
		dispatcher.SubscribeCommand(set.Render),
	}
	return func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
}
