package commands

import (
	"strings"

	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// CommandLogger returns the logger for a command group with the fields every
// command entry carries.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.CommandsLogger(provider, name), map[string]any{
		"component":     "command",
		"command_group": name,
	})
}
