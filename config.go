package blockdoc

import "github.com/goliatone/go-blockdoc/internal/runtimeconfig"

var (
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
	ErrUploadTimeoutInvalid     = runtimeconfig.ErrUploadTimeoutInvalid
	ErrMarkdownExtensionUnknown = runtimeconfig.ErrMarkdownExtensionUnknown
)

type (
	Config           = runtimeconfig.Config
	LoggingConfig    = runtimeconfig.LoggingConfig
	ValidationConfig = runtimeconfig.ValidationConfig
	UploadsConfig    = runtimeconfig.UploadsConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	RenderConfig     = runtimeconfig.RenderConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
