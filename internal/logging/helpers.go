package logging

import (
	"maps"
	"strings"

	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// WithFields attaches structured fields when logger implements
// interfaces.FieldsLogger. Other loggers are returned unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// WithDocument tags logger with the document key and, when set, a block id.
// Empty values are skipped.
func WithDocument(logger interfaces.Logger, documentKey, blockID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(documentKey); trimmed != "" {
		fields["document"] = trimmed
	}
	if trimmed := strings.TrimSpace(blockID); trimmed != "" {
		fields["block_id"] = trimmed
	}
	return WithFields(logger, fields)
}
