package logging

import (
	"context"

	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

const (
	RootModule     = "blockdoc"
	EditorModule   = "blockdoc.editor"
	DragModule     = "blockdoc.dnd"
	UploadsModule  = "blockdoc.uploads"
	RenderModule   = "blockdoc.render"
	MarkdownModule = "blockdoc.markdown"
	commandsModule = "blockdoc.commands"
)

// ModuleLogger returns a logger scoped to module. A nil provider, or one that
// returns nil, yields the no-op logger. The module name is attached as the
// "module" field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = RootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// EditorLogger returns the logger namespace used by block stores.
func EditorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, EditorModule)
}

// UploadsLogger returns the logger namespace used by upload reconciliation.
func UploadsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, UploadsModule)
}

// CommandsLogger returns a logger for a command group, e.g. "documents".
func CommandsLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	if group == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+group)
}

// Ensure returns logger, or the no-op logger when logger is nil.
func Ensure(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
