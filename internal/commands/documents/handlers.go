package documentscmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/commands"
	"github.com/goliatone/go-blockdoc/internal/editor"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/internal/markdown"
	"github.com/goliatone/go-blockdoc/internal/render"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

const (
	importOperation          = "documents.import_markdown"
	importDirectoryOperation = "documents.import_markdown_directory"
	normalizeOperation       = "documents.normalize"
	renderOperation          = "documents.render"
)

var (
	ErrImporterRequired = errors.New("documents command: markdown importer required")
	ErrSaverRequired    = errors.New("documents command: document saver required")
	ErrRendererRequired = errors.New("documents command: renderer required")
	ErrOutputRequired   = errors.New("documents command: render output required")
	ErrFSRequired       = errors.New("documents command: filesystem required")
)

var (
	_ command.Commander[ImportMarkdownCommand]          = (*ImportMarkdownHandler)(nil)
	_ command.Commander[ImportMarkdownDirectoryCommand] = (*ImportMarkdownDirectoryHandler)(nil)
	_ command.Commander[NormalizeDocumentCommand]       = (*NormalizeDocumentHandler)(nil)
	_ command.Commander[RenderDocumentCommand]          = (*RenderDocumentHandler)(nil)
)

// RenderOutput receives rendered documents.
type RenderOutput interface {
	WriteRendered(ctx context.Context, key string, html string) error
}

// RenderOutputFunc adapts a function to RenderOutput.
type RenderOutputFunc func(ctx context.Context, key string, html string) error

func (fn RenderOutputFunc) WriteRendered(ctx context.Context, key string, html string) error {
	return fn(ctx, key, html)
}

// ImportMarkdownHandler imports a single markdown source.
type ImportMarkdownHandler struct {
	inner *commands.Handler[ImportMarkdownCommand]
}

// NewImportMarkdownHandler binds importer and saver.
func NewImportMarkdownHandler(importer *markdown.Importer, saver interfaces.DocumentSaver, logger interfaces.Logger, opts ...commands.HandlerOption[ImportMarkdownCommand]) *ImportMarkdownHandler {
	logger = logging.Ensure(logger)
	exec := func(ctx context.Context, msg ImportMarkdownCommand) error {
		if importer == nil {
			return ErrImporterRequired
		}
		if saver == nil {
			return ErrSaverRequired
		}
		imported, err := importer.Import(msg.Path, msg.Source)
		if err != nil {
			return err
		}
		return saveImported(ctx, saver, logger, imported)
	}

	handlerOpts := []commands.HandlerOption[ImportMarkdownCommand]{
		commands.WithLogger[ImportMarkdownCommand](logger),
		commands.WithOperation[ImportMarkdownCommand](importOperation),
		commands.WithMessageFields(func(msg ImportMarkdownCommand) map[string]any {
			return map[string]any{"path": msg.Path, "bytes": len(msg.Source)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportMarkdownCommand](logger)),
	}
	return &ImportMarkdownHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[ImportMarkdownCommand].
func (h *ImportMarkdownHandler) Execute(ctx context.Context, msg ImportMarkdownCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportMarkdownDirectoryHandler imports every markdown file of a directory.
type ImportMarkdownDirectoryHandler struct {
	inner *commands.Handler[ImportMarkdownDirectoryCommand]
}

// NewImportMarkdownDirectoryHandler resolves Directory inside fsys.
func NewImportMarkdownDirectoryHandler(importer *markdown.Importer, fsys fs.FS, saver interfaces.DocumentSaver, logger interfaces.Logger, opts ...commands.HandlerOption[ImportMarkdownDirectoryCommand]) *ImportMarkdownDirectoryHandler {
	logger = logging.Ensure(logger)
	exec := func(ctx context.Context, msg ImportMarkdownDirectoryCommand) error {
		switch {
		case importer == nil:
			return ErrImporterRequired
		case saver == nil:
			return ErrSaverRequired
		case fsys == nil:
			return ErrFSRequired
		}
		imported, err := importer.ImportFS(ctx, fsys, msg.Directory, msg.Pattern)
		if err != nil {
			return err
		}
		for _, doc := range imported {
			if err := saveImported(ctx, saver, logger, doc); err != nil {
				return fmt.Errorf("%s: %w", doc.Path, err)
			}
		}
		logging.WithFields(logger, map[string]any{
			"directory": msg.Directory,
			"documents": len(imported),
		}).Info("documents.command.import_markdown_directory.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportMarkdownDirectoryCommand]{
		commands.WithLogger[ImportMarkdownDirectoryCommand](logger),
		commands.WithOperation[ImportMarkdownDirectoryCommand](importDirectoryOperation),
		commands.WithMessageFields(func(msg ImportMarkdownDirectoryCommand) map[string]any {
			fields := map[string]any{"directory": msg.Directory}
			if msg.Pattern != "" {
				fields["pattern"] = msg.Pattern
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportMarkdownDirectoryCommand](logger)),
	}
	return &ImportMarkdownDirectoryHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[ImportMarkdownDirectoryCommand].
func (h *ImportMarkdownDirectoryHandler) Execute(ctx context.Context, msg ImportMarkdownDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

// NormalizeDocumentHandler loads a document through an editor store and
// saves the normalized encoding.
type NormalizeDocumentHandler struct {
	inner *commands.Handler[NormalizeDocumentCommand]
}

// NewNormalizeDocumentHandler validates payload schemas on load when strict
// is set.
func NewNormalizeDocumentHandler(factory *blocks.Factory, saver interfaces.DocumentSaver, strict bool, logger interfaces.Logger, opts ...commands.HandlerOption[NormalizeDocumentCommand]) *NormalizeDocumentHandler {
	logger = logging.Ensure(logger)
	if factory == nil {
		factory = blocks.NewFactory()
	}
	exec := func(ctx context.Context, msg NormalizeDocumentCommand) error {
		if saver == nil {
			return ErrSaverRequired
		}
		store := editor.NewStore(
			editor.WithFactory(factory),
			editor.WithDocumentKey(msg.Key),
			editor.WithLogger(logger),
		)
		if err := store.Load(ctx, msg.Document, blocks.DecodeStrict(strict)); err != nil {
			return err
		}
		if strict {
			if err := store.Document().Validate(factory.Registry()); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "normalized document is invalid").
					WithTextCode("DOCUMENT_INVALID")
			}
		}
		return store.Save(ctx, saver)
	}

	handlerOpts := []commands.HandlerOption[NormalizeDocumentCommand]{
		commands.WithLogger[NormalizeDocumentCommand](logger),
		commands.WithOperation[NormalizeDocumentCommand](normalizeOperation),
		commands.WithMessageFields(func(msg NormalizeDocumentCommand) map[string]any {
			return map[string]any{"document": msg.Key, "strict": strict}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[NormalizeDocumentCommand](logger)),
	}
	return &NormalizeDocumentHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[NormalizeDocumentCommand].
func (h *NormalizeDocumentHandler) Execute(ctx context.Context, msg NormalizeDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RenderDocumentHandler renders a serialized document.
type RenderDocumentHandler struct {
	inner *commands.Handler[RenderDocumentCommand]
}

// NewRenderDocumentHandler decodes leniently: unknown variants render as
// nothing rather than failing the document.
func NewRenderDocumentHandler(renderer *render.Renderer, registry *blocks.Registry, output RenderOutput, logger interfaces.Logger, opts ...commands.HandlerOption[RenderDocumentCommand]) *RenderDocumentHandler {
	logger = logging.Ensure(logger)
	exec := func(ctx context.Context, msg RenderDocumentCommand) error {
		if renderer == nil {
			return ErrRendererRequired
		}
		if output == nil {
			return ErrOutputRequired
		}
		doc, err := blocks.DecodeDocument(msg.Document, blocks.DecodeWithRegistry(registry))
		if err != nil {
			return err
		}
		html, err := renderer.Render(ctx, doc, render.ParseMode(msg.Mode))
		if err != nil {
			return err
		}
		return output.WriteRendered(ctx, msg.Key, html)
	}

	handlerOpts := []commands.HandlerOption[RenderDocumentCommand]{
		commands.WithLogger[RenderDocumentCommand](logger),
		commands.WithOperation[RenderDocumentCommand](renderOperation),
		commands.WithMessageFields(func(msg RenderDocumentCommand) map[string]any {
			return map[string]any{"document": msg.Key, "mode": string(render.ParseMode(msg.Mode))}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RenderDocumentCommand](logger)),
	}
	return &RenderDocumentHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[RenderDocumentCommand].
func (h *RenderDocumentHandler) Execute(ctx context.Context, msg RenderDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

func saveImported(ctx context.Context, saver interfaces.DocumentSaver, logger interfaces.Logger, imported *markdown.Imported) error {
	payload, err := blocks.EncodeDocument(imported.Blocks)
	if err != nil {
		return err
	}
	if err := saver.SaveDocument(ctx, imported.Key, payload); err != nil {
		return err
	}
	logging.WithDocument(logger, imported.Key, "").Debug("documents.command.import_markdown.saved", "blocks", len(imported.Blocks))
	return nil
}
