package documentscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blockdoc/internal/render"
)

const (
	importMarkdownMessageType          = "blockdoc.documents.import_markdown"
	importMarkdownDirectoryMessageType = "blockdoc.documents.import_markdown_directory"
	normalizeDocumentMessageType       = "blockdoc.documents.normalize"
	renderDocumentMessageType          = "blockdoc.documents.render"
)

// ImportMarkdownCommand converts one markdown file into a block document and
// hands the serialized result to the document saver.
type ImportMarkdownCommand struct {
	// Path names the source; its base name keys the document when the
	// frontmatter has no slug.
	Path   string `json:"path"`
	Source []byte `json:"source"`
}

// Type implements command.Message.
func (ImportMarkdownCommand) Type() string { return importMarkdownMessageType }

// Validate ensures a path and some source are present.
func (cmd ImportMarkdownCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(notBlank("blockdoc.documents.import_markdown.path_required", "path is required"))),
		validation.Field(&cmd.Source, validation.Required),
	)
}

// ImportMarkdownDirectoryCommand imports every file matching Pattern below
// Directory.
type ImportMarkdownDirectoryCommand struct {
	Directory string `json:"directory"`
	// Pattern matches file base names. Empty means "*.md".
	Pattern string `json:"pattern,omitempty"`
}

// Type implements command.Message.
func (ImportMarkdownDirectoryCommand) Type() string { return importMarkdownDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportMarkdownDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(notBlank("blockdoc.documents.import_markdown_directory.directory_required", "directory is required"))),
	)
}

// NormalizeDocumentCommand decodes a serialized document, renumbers its
// order values, replaces missing or repeated ids, validates it and saves the
// re-encoded result under Key.
type NormalizeDocumentCommand struct {
	Key      string `json:"key"`
	Document []byte `json:"document"`
}

// Type implements command.Message.
func (NormalizeDocumentCommand) Type() string { return normalizeDocumentMessageType }

// Validate ensures the key and payload are present.
func (cmd NormalizeDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Key, validation.Required, validation.By(notBlank("blockdoc.documents.normalize.key_required", "key is required"))),
		validation.Field(&cmd.Document, validation.Required),
	)
}

// RenderDocumentCommand renders a serialized document to HTML.
type RenderDocumentCommand struct {
	Key      string `json:"key"`
	Document []byte `json:"document"`
	// Mode is "public" (default) or "edit".
	Mode string `json:"mode,omitempty"`
}

// Type implements command.Message.
func (RenderDocumentCommand) Type() string { return renderDocumentMessageType }

// Validate ensures the payload is present and the mode is known.
func (cmd RenderDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Key, validation.Required),
		validation.Field(&cmd.Document, validation.Required),
		validation.Field(&cmd.Mode, validation.In("", string(render.ModePublic), string(render.ModeEdit))),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
