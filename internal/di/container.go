package di

import (
	"fmt"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/internal/logging/gologger"
	"github.com/goliatone/go-blockdoc/internal/markdown"
	"github.com/goliatone/go-blockdoc/internal/render"
	"github.com/goliatone/go-blockdoc/internal/runtimeconfig"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// Container wires the block document services from configuration. Options
// override individual collaborators; anything not supplied is built from
// the config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	registry       *blocks.Registry
	ids            blocks.IDGenerator
	factory        *blocks.Factory
	parser         *markdown.GoldmarkParser
	importer       *markdown.Importer
	renderer       *render.Renderer
	uploader       interfaces.Uploader
	saver          interfaces.DocumentSaver
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Logging.Provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithRegistry replaces the built-in variant registry.
func WithRegistry(reg *blocks.Registry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithIDGenerator overrides block id generation.
func WithIDGenerator(ids blocks.IDGenerator) Option {
	return func(c *Container) {
		c.ids = ids
	}
}

// WithUploader sets the storage collaborator for upload-backed blocks.
func WithUploader(uploader interfaces.Uploader) Option {
	return func(c *Container) {
		c.uploader = uploader
	}
}

// WithDocumentSaver sets the persistence collaborator.
func WithDocumentSaver(saver interfaces.DocumentSaver) Option {
	return func(c *Container) {
		c.saver = saver
	}
}

// WithRenderer replaces the reference HTML renderer.
func WithRenderer(renderer *render.Renderer) Option {
	return func(c *Container) {
		c.renderer = renderer
	}
}

// NewContainer validates cfg and builds the services.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureFactory()
	c.configureMarkdown()
	if err := c.configureRenderer(); err != nil {
		return nil, err
	}

	logging.ModuleLogger(c.loggerProvider, logging.RootModule).Info("container.configured",
		"logging_provider", runtimeconfig.NormalizeProvider(cfg.Logging.Provider),
		"strict_schemas", cfg.Validation.StrictSchemas,
		"upload_timeout", cfg.Uploads.Timeout.String(),
		"variants", len(c.factory.Registry().Palette()),
		"uploader", c.uploader != nil,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	if runtimeconfig.NormalizeProvider(c.Config.Logging.Provider) != runtimeconfig.LoggingProviderGoLogger {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return fmt.Errorf("di: configure logger provider: %w", err)
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureFactory() {
	var opts []blocks.FactoryOption
	if c.registry != nil {
		opts = append(opts, blocks.WithRegistry(c.registry))
	}
	if c.ids != nil {
		opts = append(opts, blocks.WithIDGenerator(c.ids))
	}
	c.factory = blocks.NewFactory(opts...)
}

func (c *Container) configureMarkdown() {
	c.parser = markdown.NewGoldmarkParser(c.Config.Markdown.ParseOptions())
	c.importer = markdown.NewImporter(
		markdown.WithParser(c.parser),
		markdown.WithLogger(c.Logger(logging.MarkdownModule)),
	)
}

func (c *Container) configureRenderer() error {
	if c.renderer != nil {
		return nil
	}
	opts := render.HTMLOptions{
		HeadingAnchors: c.Config.Render.HeadingAnchors,
		Logger:         c.Logger(logging.RenderModule),
	}
	if c.Config.Render.MarkdownText {
		opts.Markdown = c.parser
	}
	renderer, err := render.NewHTMLRenderer(opts)
	if err != nil {
		return err
	}
	c.renderer = renderer
	return nil
}

// LoggerProvider returns the configured provider, nil when logging is off.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module-scoped logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// Factory returns the block factory.
func (c *Container) Factory() *blocks.Factory {
	return c.factory
}

// Parser returns the goldmark parser shared by import and rendering.
func (c *Container) Parser() *markdown.GoldmarkParser {
	return c.parser
}

// Importer returns the markdown importer.
func (c *Container) Importer() *markdown.Importer {
	return c.importer
}

// Renderer returns the document renderer.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// Uploader returns the upload collaborator, nil when none was supplied.
func (c *Container) Uploader() interfaces.Uploader {
	return c.uploader
}

// DocumentSaver returns the persistence collaborator, nil when none was
// supplied.
func (c *Container) DocumentSaver() interfaces.DocumentSaver {
	return c.saver
}

// DecodeOptions returns the decode options implied by the config.
func (c *Container) DecodeOptions() []blocks.DecodeOption {
	return []blocks.DecodeOption{
		blocks.DecodeWithRegistry(c.factory.Registry()),
		blocks.DecodeStrict(c.Config.Validation.StrictSchemas),
	}
}
