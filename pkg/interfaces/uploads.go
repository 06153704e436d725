package interfaces

import (
	"context"
	"io"
)

// UploadFile describes a file picked by the editor user. Preview is a local
// reference (object URL, data URI, temp path) shown while the upload runs.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Preview     string
	Body        io.Reader
}

// UploadSlot identifies where an uploaded file will land inside a document.
type UploadSlot struct {
	DocumentKey string
	BlockID     string
	BlockType   string
	UploadID    string
}

// UploadResult is what a storage collaborator returns once a file is stored.
type UploadResult struct {
	URL  string
	Size int64
	Name string
}

// Uploader stores files for upload-backed blocks (image, gallery, file).
// Implementations may complete calls in any order.
type Uploader interface {
	Upload(ctx context.Context, file UploadFile, slot UploadSlot) (UploadResult, error)
}
