package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-blockdoc/internal/markdown"
)

var ErrLoggingProviderRequired = errors.New("blockdoc config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("blockdoc config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blockdoc config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blockdoc config: logging format is invalid")

// ErrUploadTimeoutInvalid rejects negative upload deadlines.
var ErrUploadTimeoutInvalid = errors.New("blockdoc config: upload timeout must be zero or positive")

// ErrMarkdownExtensionUnknown flags extension names goldmark does not provide.
var ErrMarkdownExtensionUnknown = errors.New("blockdoc config: markdown extension is unknown")

const (
	LoggingProviderNoop     = "noop"
	LoggingProviderGoLogger = "gologger"
)

// Config aggregates the knobs of the block document module.
type Config struct {
	Logging    LoggingConfig
	Validation ValidationConfig
	Uploads    UploadsConfig
	Markdown   MarkdownConfig
	Render     RenderConfig
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// ValidationConfig controls payload schema checks when documents are loaded.
type ValidationConfig struct {
	// StrictSchemas rejects loaded documents whose payloads fail their
	// variant schema. When false such payloads are kept as decoded.
	StrictSchemas bool
}

// UploadsConfig captures upload behaviour.
type UploadsConfig struct {
	// Timeout bounds each upload. Zero waits for the uploader indefinitely.
	Timeout time.Duration
}

// MarkdownConfig mirrors markdown.ParseOptions.
type MarkdownConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// RenderConfig toggles features of the reference HTML renderer.
type RenderConfig struct {
	HeadingAnchors bool
	MarkdownText   bool
}

// DefaultConfig returns the defaults used by the CLI and the module facade.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Provider: LoggingProviderNoop,
			Level:    "info",
		},
		Validation: ValidationConfig{
			StrictSchemas: true,
		},
		Uploads: UploadsConfig{
			Timeout: 2 * time.Minute,
		},
		Markdown: MarkdownConfig{
			SafeMode: true,
		},
		Render: RenderConfig{
			HeadingAnchors: true,
			MarkdownText:   true,
		},
	}
}

// ParseOptions converts the markdown section for the goldmark parser.
func (cfg MarkdownConfig) ParseOptions() markdown.ParseOptions {
	return markdown.ParseOptions{
		Extensions: append([]string(nil), cfg.Extensions...),
		HardWraps:  cfg.HardWraps,
		SafeMode:   cfg.SafeMode,
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	provider := NormalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == LoggingProviderGoLogger {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	if cfg.Uploads.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrUploadTimeoutInvalid, cfg.Uploads.Timeout)
	}
	for _, ext := range cfg.Markdown.Extensions {
		if !markdown.KnownExtension(ext) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, ext)
		}
	}
	return nil
}

// NormalizeProvider lower-cases and trims a provider name.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case LoggingProviderNoop, LoggingProviderGoLogger:
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
