package editor

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-blockdoc/internal/blocks"
	command "github.com/goliatone/go-command"
)

const (
	setBlocksMessageType        = "blockdoc.editor.set_blocks"
	addBlockMessageType         = "blockdoc.editor.add_block"
	updateBlockMessageType      = "blockdoc.editor.update_block"
	deleteBlockMessageType      = "blockdoc.editor.delete_block"
	duplicateBlockMessageType   = "blockdoc.editor.duplicate_block"
	moveBlockMessageType        = "blockdoc.editor.move_block"
	toggleVisibilityMessageType = "blockdoc.editor.toggle_visibility"
	selectBlockMessageType      = "blockdoc.editor.select_block"
	setEditingBlockMessageType  = "blockdoc.editor.set_editing_block"
	markCleanMessageType        = "blockdoc.editor.mark_clean"
	stageUploadMessageType      = "blockdoc.editor.stage_upload"
	commitUploadMessageType     = "blockdoc.editor.commit_upload"
	rollbackUploadMessageType   = "blockdoc.editor.rollback_upload"
)

// Action is one member of the closed set of store operations. Every action is
// a go-command message; actions with payload constraints implement Validate.
type Action interface {
	command.Message
}

// SetBlocks replaces the whole document, typically on load. Order values are
// recomputed from list position.
type SetBlocks struct {
	Blocks blocks.Document `json:"blocks"`
}

// Type implements command.Message.
func (SetBlocks) Type() string { return setBlocksMessageType }

// AddBlock inserts a new block of BlockType after AfterID, or at the end when
// AfterID is empty or stale. Data is merged over the variant defaults.
type AddBlock struct {
	BlockType blocks.Type    `json:"block_type"`
	AfterID   string         `json:"after_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Type implements command.Message.
func (AddBlock) Type() string { return addBlockMessageType }

// Validate ensures a block type is named before the reducer runs.
func (cmd AddBlock) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.BlockType, validation.By(func(value any) error {
			if strings.TrimSpace(string(value.(blocks.Type))) == "" {
				return validation.NewError("blockdoc.editor.add_block.type_required", "block type is required")
			}
			return nil
		})),
	)
}

// UpdateBlock shallow-merges Patch into the data of block ID.
type UpdateBlock struct {
	ID    string         `json:"id"`
	Patch map[string]any `json:"patch"`
}

// Type implements command.Message.
func (UpdateBlock) Type() string { return updateBlockMessageType }

// DeleteBlock removes block ID.
type DeleteBlock struct {
	ID string `json:"id"`
}

// Type implements command.Message.
func (DeleteBlock) Type() string { return deleteBlockMessageType }

// DuplicateBlock inserts a deep copy of block ID right after it.
type DuplicateBlock struct {
	ID string `json:"id"`
}

// Type implements command.Message.
func (DuplicateBlock) Type() string { return duplicateBlockMessageType }

// MoveBlock removes ActiveID and reinserts it at OverID's position.
type MoveBlock struct {
	ActiveID string `json:"active_id"`
	OverID   string `json:"over_id"`
}

// Type implements command.Message.
func (MoveBlock) Type() string { return moveBlockMessageType }

// ToggleVisibility flips the visibility of block ID.
type ToggleVisibility struct {
	ID string `json:"id"`
}

// Type implements command.Message.
func (ToggleVisibility) Type() string { return toggleVisibilityMessageType }

// SelectBlock sets the selected block. An empty ID clears the selection.
type SelectBlock struct {
	ID string `json:"id,omitempty"`
}

// Type implements command.Message.
func (SelectBlock) Type() string { return selectBlockMessageType }

// SetEditingBlock sets the block whose editor is open and selects it. An
// empty ID closes the editor and leaves the selection alone.
type SetEditingBlock struct {
	ID string `json:"id,omitempty"`
}

// Type implements command.Message.
func (SetEditingBlock) Type() string { return setEditingBlockMessageType }

// MarkClean clears the dirty flag after an external save.
type MarkClean struct{}

// Type implements command.Message.
func (MarkClean) Type() string { return markCleanMessageType }

// StageUpload puts the placeholder for UploadID into block BlockID.
type StageUpload struct {
	BlockID  string               `json:"block_id"`
	UploadID string               `json:"upload_id"`
	Preview  blocks.UploadPreview `json:"preview"`
}

// Type implements command.Message.
func (StageUpload) Type() string { return stageUploadMessageType }

// Validate requires the upload id the placeholder is keyed by.
func (cmd StageUpload) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.UploadID, validation.Required.ErrorObject(
			validation.NewError("blockdoc.editor.stage_upload.upload_id_required", "upload id is required"),
		)),
	)
}

// CommitUpload swaps the UploadID placeholder in BlockID for Result.
type CommitUpload struct {
	BlockID  string               `json:"block_id"`
	UploadID string               `json:"upload_id"`
	Result   blocks.UploadOutcome `json:"result"`
}

// Type implements command.Message.
func (CommitUpload) Type() string { return commitUploadMessageType }

// Validate requires the upload id and the permanent URL.
func (cmd CommitUpload) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.UploadID, validation.Required),
		validation.Field(&cmd.Result, validation.By(func(value any) error {
			if strings.TrimSpace(value.(blocks.UploadOutcome).URL) == "" {
				return validation.NewError("blockdoc.editor.commit_upload.url_required", "upload result url is required")
			}
			return nil
		})),
	)
}

// RollbackUpload discards the UploadID placeholder in BlockID.
type RollbackUpload struct {
	BlockID  string `json:"block_id"`
	UploadID string `json:"upload_id"`
}

// Type implements command.Message.
func (RollbackUpload) Type() string { return rollbackUploadMessageType }

// Validate requires the upload id.
func (cmd RollbackUpload) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.UploadID, validation.Required),
	)
}
