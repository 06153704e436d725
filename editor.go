package blockdoc

import (
	"context"
	"errors"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/dnd"
	"github.com/goliatone/go-blockdoc/internal/editor"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/internal/render"
	"github.com/goliatone/go-blockdoc/internal/uploads"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// ErrUploadsDisabled is returned by upload calls on an editor built without
// an uploader.
var ErrUploadsDisabled = errors.New("blockdoc: no uploader configured")

// EditorOption configures one editor session.
type EditorOption func(*editorOptions)

type editorOptions struct {
	onFailure func(uploads.Failure)
	initial   blocks.Document
}

// WithUploadFailureHook receives uploads that were rolled back.
func WithUploadFailureHook(fn func(uploads.Failure)) EditorOption {
	return func(o *editorOptions) {
		o.onFailure = fn
	}
}

// WithDocument seeds the editor with doc.
func WithDocument(doc Document) EditorOption {
	return func(o *editorOptions) {
		o.initial = doc
	}
}

// Editor is one editing session over a document: the block store, the drag
// coordinator feeding it, and the upload manager reconciling into it.
type Editor struct {
	store    *editor.Store
	drag     *dnd.Coordinator
	uploads  *uploads.Manager
	renderer *render.Renderer
	saver    interfaces.DocumentSaver
	decode   []blocks.DecodeOption
}

// NewEditor opens a session for the document identified by key.
func (m *Module) NewEditor(key string, opts ...EditorOption) (*Editor, error) {
	options := editorOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	c := m.container
	store := editor.NewStore(
		editor.WithFactory(c.Factory()),
		editor.WithDocumentKey(key),
		editor.WithLogger(c.Logger(logging.EditorModule)),
		editor.WithInitialDocument(options.initial),
	)
	e := &Editor{
		store:    store,
		drag:     dnd.NewCoordinator(logging.WithDocument(c.Logger(logging.DragModule), key, "")),
		renderer: c.Renderer(),
		saver:    c.DocumentSaver(),
		decode:   c.DecodeOptions(),
	}

	if uploader := c.Uploader(); uploader != nil {
		manager, err := uploads.NewManager(store, uploader,
			uploads.WithTimeout(c.Config.Uploads.Timeout),
			uploads.WithLogger(c.Logger(logging.UploadsModule)),
			uploads.WithOnFailure(options.onFailure),
		)
		if err != nil {
			return nil, err
		}
		e.uploads = manager
	}
	return e, nil
}

// Store returns the block store.
func (e *Editor) Store() *editor.Store {
	return e.store
}

// Drag returns the drag coordinator.
func (e *Editor) Drag() *dnd.Coordinator {
	return e.drag
}

// Uploads returns the upload manager, nil without an uploader.
func (e *Editor) Uploads() *uploads.Manager {
	return e.uploads
}

// Dispatch applies action to the document.
func (e *Editor) Dispatch(ctx context.Context, action Action) (Result, error) {
	return e.store.Dispatch(ctx, action)
}

// State returns a snapshot of the editor state.
func (e *Editor) State() State {
	return e.store.State()
}

// Document returns a snapshot of the blocks in order.
func (e *Editor) Document() Document {
	return e.store.Document()
}

// Subscribe registers fn for every applied action.
func (e *Editor) Subscribe(fn editor.Listener) func() {
	return e.store.Subscribe(fn)
}

// HandleDrag feeds a pointer event to the coordinator and applies the drop,
// if the event completed one.
func (e *Editor) HandleDrag(ctx context.Context, event dnd.Event) (dnd.Resolution, Result, error) {
	res, err := e.drag.Handle(event)
	if err != nil {
		return res, Result{}, err
	}
	result, err := dnd.Apply(ctx, e.store, res)
	return res, result, err
}

// Upload starts an upload into an existing image, gallery or file block.
func (e *Editor) Upload(ctx context.Context, blockID string, file interfaces.UploadFile) (string, error) {
	if e.uploads == nil {
		return "", ErrUploadsDisabled
	}
	return e.uploads.Start(ctx, blockID, file)
}

// InsertUpload adds a block of type t after afterID and uploads into it.
func (e *Editor) InsertUpload(ctx context.Context, t BlockType, afterID string, file interfaces.UploadFile) (string, string, error) {
	if e.uploads == nil {
		return "", "", ErrUploadsDisabled
	}
	return e.uploads.InsertAndStart(ctx, t, afterID, file)
}

// WaitUploads blocks until every started upload is reconciled.
func (e *Editor) WaitUploads() {
	if e.uploads != nil {
		e.uploads.Wait()
	}
}

// Load replaces the document with a serialized one.
func (e *Editor) Load(ctx context.Context, raw []byte) error {
	return e.store.Load(ctx, raw, e.decode...)
}

// Save persists the document through the module's document saver.
func (e *Editor) Save(ctx context.Context) error {
	return e.store.Save(ctx, e.saver)
}

// Render draws the current document.
func (e *Editor) Render(ctx context.Context, mode RenderMode) (string, error) {
	return e.renderer.Render(ctx, e.store.Document(), mode)
}
