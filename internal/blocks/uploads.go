package blocks

import "fmt"

// UploadPreview is what the block shows while a file is still uploading.
type UploadPreview struct {
	URL  string
	Name string
	Size int64
}

// UploadOutcome is the permanent location of a finished upload.
type UploadOutcome struct {
	URL  string
	Name string
	Size int64
}

// Uploadable reports whether blocks of type t accept file uploads.
func Uploadable(t Type) bool {
	switch t {
	case TypeImage, TypeGallery, TypeFile:
		return true
	}
	return false
}

// StageUpload marks block as receiving the upload identified by uploadID.
// Image and file blocks replace their payload with the placeholder; galleries
// append a placeholder image whose id is uploadID.
func StageUpload(block Block, uploadID string, preview UploadPreview) (Block, error) {
	if uploadID == "" {
		return block, fmt.Errorf("%w: empty upload id", ErrInvalidPatch)
	}
	out := block.Clone()
	switch data := out.Data.(type) {
	case *ImageData:
		data.URL = ""
		data.PreviewURL = preview.URL
		data.Name = preview.Name
		data.Size = preview.Size
		data.UploadID = uploadID
		data.IsUploading = true
	case *FileData:
		data.URL = ""
		data.Name = preview.Name
		data.Size = preview.Size
		data.UploadID = uploadID
		data.IsUploading = true
	case *GalleryData:
		data.Images = append(data.Images, GalleryImage{
			ID:          uploadID,
			Name:        preview.Name,
			Size:        preview.Size,
			PreviewURL:  preview.URL,
			IsUploading: true,
		})
	default:
		return block, fmt.Errorf("%w: %s", ErrNotUploadable, block.Type)
	}
	return out, nil
}

// CommitUpload swaps the placeholder for the permanent URL. It returns false
// when block no longer carries the placeholder for uploadID, in which case
// the result is stale and block is returned unchanged.
func CommitUpload(block Block, uploadID string, result UploadOutcome) (Block, bool) {
	out := block.Clone()
	switch data := out.Data.(type) {
	case *ImageData:
		if data.UploadID != uploadID || !data.IsUploading {
			return block, false
		}
		data.URL = result.URL
		data.Name = firstNonEmpty(result.Name, data.Name)
		data.Size = firstPositive(result.Size, data.Size)
		data.PreviewURL = ""
		data.UploadID = ""
		data.IsUploading = false
	case *FileData:
		if data.UploadID != uploadID || !data.IsUploading {
			return block, false
		}
		data.URL = result.URL
		data.Name = firstNonEmpty(result.Name, data.Name)
		data.Size = firstPositive(result.Size, data.Size)
		data.UploadID = ""
		data.IsUploading = false
	case *GalleryData:
		idx := galleryPlaceholder(data, uploadID)
		if idx < 0 {
			return block, false
		}
		image := &data.Images[idx]
		image.URL = result.URL
		image.Name = firstNonEmpty(result.Name, image.Name)
		image.Size = firstPositive(result.Size, image.Size)
		image.PreviewURL = ""
		image.IsUploading = false
	default:
		return block, false
	}
	return out, true
}

// RollbackUpload discards the placeholder for uploadID. Image and file blocks
// return to their empty state; galleries drop only the placeholder image.
func RollbackUpload(block Block, uploadID string) (Block, bool) {
	out := block.Clone()
	switch data := out.Data.(type) {
	case *ImageData:
		if data.UploadID != uploadID || !data.IsUploading {
			return block, false
		}
		*data = ImageData{}
	case *FileData:
		if data.UploadID != uploadID || !data.IsUploading {
			return block, false
		}
		*data = FileData{}
	case *GalleryData:
		idx := galleryPlaceholder(data, uploadID)
		if idx < 0 {
			return block, false
		}
		data.Images = append(data.Images[:idx], data.Images[idx+1:]...)
	default:
		return block, false
	}
	return out, true
}

// WithoutPendingUploads returns block minus its in-flight placeholders.
// Image and file blocks waiting on an upload return to their empty state;
// galleries drop only the images still uploading. Blocks with nothing
// pending are returned as is.
func WithoutPendingUploads(block Block) Block {
	if !hasPendingUpload(block.Data) {
		return block
	}
	out := block.Clone()
	switch data := out.Data.(type) {
	case *ImageData:
		*data = ImageData{}
	case *FileData:
		*data = FileData{}
	case *GalleryData:
		kept := data.Images[:0]
		for _, image := range data.Images {
			if !image.IsUploading {
				kept = append(kept, image)
			}
		}
		data.Images = kept
	}
	return out
}

// WithoutPendingUploads deep-copies d with WithoutPendingUploads applied to
// every block.
func (d Document) WithoutPendingUploads() Document {
	out := make(Document, len(d))
	for i, block := range d {
		out[i] = WithoutPendingUploads(block.Clone())
	}
	return out
}

func hasPendingUpload(data Data) bool {
	switch data := data.(type) {
	case *ImageData:
		return data.IsUploading
	case *FileData:
		return data.IsUploading
	case *GalleryData:
		for _, image := range data.Images {
			if image.IsUploading {
				return true
			}
		}
	}
	return false
}

func galleryPlaceholder(data *GalleryData, uploadID string) int {
	for i, image := range data.Images {
		if image.ID == uploadID && image.IsUploading {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
