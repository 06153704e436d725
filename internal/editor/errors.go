package editor

import (
	"context"
	"errors"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	goerrors "github.com/goliatone/go-errors"
)

const (
	actionValidationCode = "EDITOR_ACTION_INVALID"
	unknownBlockTypeCode = "UNKNOWN_BLOCK_TYPE"
	invalidBlockDataCode = "INVALID_BLOCK_DATA"
	notUploadableCode    = "BLOCK_NOT_UPLOADABLE"
	unknownActionCode    = "EDITOR_UNKNOWN_ACTION"
	contextErrorCode     = "EDITOR_CONTEXT_ERROR"
	saveFailedCode       = "EDITOR_SAVE_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "editor action validation failed").
		WithTextCode(actionValidationCode)
}

// wrapReduceError categorises reducer failures. Impossible variants and
// rejected data are caller errors; anything else is a command failure.
func wrapReduceError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, blocks.ErrUnknownBlockType):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "unknown block type").
			WithTextCode(unknownBlockTypeCode)
	case errors.Is(err, blocks.ErrInvalidPatch), errors.Is(err, blocks.ErrInvalidPayload):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "block data rejected").
			WithTextCode(invalidBlockDataCode)
	case errors.Is(err, blocks.ErrNotUploadable):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "block does not accept uploads").
			WithTextCode(notUploadableCode)
	case errors.Is(err, ErrUnknownAction):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "unknown editor action").
			WithTextCode(unknownActionCode)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "editor action failed")
	}
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	msg := "editor context error"
	switch {
	case errors.Is(err, context.Canceled):
		msg = "editor dispatch cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "editor dispatch deadline exceeded"
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msg).WithTextCode(contextErrorCode)
}

func wrapSaveError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "document save failed").
		WithTextCode(saveFailedCode)
}
