package interfaces

import "context"

// DocumentSaver persists a serialized block document. The payload is the JSON
// array consumed by the editor canvas, the public renderer, and the PDF
// exporter.
type DocumentSaver interface {
	SaveDocument(ctx context.Context, key string, payload []byte) error
}
