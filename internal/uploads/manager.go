package uploads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/editor"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	ErrStoreRequired    = errors.New("uploads: store required")
	ErrUploaderRequired = errors.New("uploads: uploader required")
	ErrBlockNotFound    = errors.New("uploads: block not found")
	ErrEmptyResult      = errors.New("uploads: uploader returned no url")
	ErrPlaceholderGone  = errors.New("uploads: placeholder no longer in document")
)

// Phase is the lifecycle of one upload: pending until the uploader answers,
// then committed or rolled back. There is no way back to pending.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseCommitted  Phase = "committed"
	PhaseRolledBack Phase = "rolled_back"
)

// Upload is the record kept for one in-flight or finished upload.
type Upload struct {
	ID         string
	BlockID    string
	BlockType  blocks.Type
	FileName   string
	Phase      Phase
	URL        string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failure is reported when an upload is rolled back because the uploader or
// the reconciliation failed.
type Failure struct {
	Upload Upload
	Err    error
}

// Store is the slice of the editor store the manager needs.
type Store interface {
	Key() string
	Document() blocks.Document
	Dispatch(ctx context.Context, action editor.Action) (editor.Result, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds each upload. Zero disables the deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout < 0 {
			timeout = 0
		}
		m.timeout = timeout
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.Ensure(logger)
	}
}

// WithOnFailure registers the hook the UI uses to surface failed uploads.
func WithOnFailure(fn func(Failure)) Option {
	return func(m *Manager) {
		m.onFailure = fn
	}
}

// WithIDGenerator overrides how temporary upload ids are minted.
func WithIDGenerator(generator blocks.IDGenerator) Option {
	return func(m *Manager) {
		if generator != nil {
			m.ids = generator
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager runs uploads for image, gallery and file blocks. Each upload puts
// a placeholder into the document right away and reconciles it when the
// uploader answers, in whatever order answers arrive.
type Manager struct {
	store     Store
	uploader  interfaces.Uploader
	logger    interfaces.Logger
	timeout   time.Duration
	onFailure func(Failure)
	ids       blocks.IDGenerator
	now       func() time.Time

	mu      sync.Mutex
	uploads map[string]*Upload
	order   []string
	wg      sync.WaitGroup
}

// NewManager wires a manager to store and uploader.
func NewManager(store Store, uploader interfaces.Uploader, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if uploader == nil {
		return nil, ErrUploaderRequired
	}
	m := &Manager{
		store:    store,
		uploader: uploader,
		logger:   logging.NoOp(),
		ids:      uuid.NewString,
		now:      time.Now,
		uploads:  make(map[string]*Upload),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Start stages a placeholder for file in block blockID and uploads it in the
// background. The returned id keys the placeholder. Cancelling ctx does not
// abort the upload.
func (m *Manager) Start(ctx context.Context, blockID string, file interfaces.UploadFile) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	block, ok := m.store.Document().Find(blockID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	if !blocks.Uploadable(block.Type) {
		return "", fmt.Errorf("%w: %s", blocks.ErrNotUploadable, block.Type)
	}

	uploadID := m.ids()
	result, err := m.store.Dispatch(ctx, editor.StageUpload{
		BlockID:  blockID,
		UploadID: uploadID,
		Preview: blocks.UploadPreview{
			URL:  file.Preview,
			Name: file.Name,
			Size: file.Size,
		},
	})
	if err != nil {
		return "", err
	}
	if result.Stale {
		return "", fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	upload := &Upload{
		ID:        uploadID,
		BlockID:   blockID,
		BlockType: block.Type,
		FileName:  file.Name,
		Phase:     PhasePending,
		StartedAt: m.now(),
	}
	m.mu.Lock()
	m.uploads[uploadID] = upload
	m.order = append(m.order, uploadID)
	m.mu.Unlock()

	logging.WithDocument(m.logger, m.store.Key(), blockID).Debug("uploads.upload.started", "upload_id", uploadID, "file", file.Name)

	slot := interfaces.UploadSlot{
		DocumentKey: m.store.Key(),
		BlockID:     blockID,
		BlockType:   string(block.Type),
		UploadID:    uploadID,
	}
	m.wg.Add(1)
	go m.run(context.WithoutCancel(ctx), slot, file)
	return uploadID, nil
}

// InsertAndStart adds a block of type t after afterID and starts the upload
// into it. If the upload cannot start the new block is removed again.
func (m *Manager) InsertAndStart(ctx context.Context, t blocks.Type, afterID string, file interfaces.UploadFile) (string, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !blocks.Uploadable(t) {
		return "", "", fmt.Errorf("%w: %s", blocks.ErrNotUploadable, t)
	}
	added, err := m.store.Dispatch(ctx, editor.AddBlock{BlockType: t, AfterID: afterID})
	if err != nil {
		return "", "", err
	}
	uploadID, err := m.Start(ctx, added.BlockID, file)
	if err != nil {
		if _, derr := m.store.Dispatch(ctx, editor.DeleteBlock{ID: added.BlockID}); derr != nil {
			err = errors.Join(err, derr)
		}
		return "", "", err
	}
	return added.BlockID, uploadID, nil
}

func (m *Manager) run(ctx context.Context, slot interfaces.UploadSlot, file interfaces.UploadFile) {
	defer m.wg.Done()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	logger := logging.WithDocument(m.logger, slot.DocumentKey, slot.BlockID)

	result, err := m.uploader.Upload(ctx, file, slot)
	if err == nil && strings.TrimSpace(result.URL) == "" {
		err = ErrEmptyResult
	}
	if err != nil {
		m.rollback(ctx, slot, err, logger)
		return
	}

	outcome, derr := m.store.Dispatch(ctx, editor.CommitUpload{
		BlockID:  slot.BlockID,
		UploadID: slot.UploadID,
		Result:   blocks.UploadOutcome{URL: result.URL, Name: result.Name, Size: result.Size},
	})
	switch {
	case derr != nil:
		m.rollback(ctx, slot, derr, logger)
	case outcome.Stale:
		m.finish(slot.UploadID, PhaseRolledBack, "", ErrPlaceholderGone)
		logger.Debug("uploads.upload.stale", "upload_id", slot.UploadID)
	default:
		m.finish(slot.UploadID, PhaseCommitted, result.URL, nil)
		logger.Info("uploads.upload.committed", "upload_id", slot.UploadID, "url", result.URL, "size", result.Size)
	}
}

func (m *Manager) rollback(ctx context.Context, slot interfaces.UploadSlot, cause error, logger interfaces.Logger) {
	if _, err := m.store.Dispatch(context.WithoutCancel(ctx), editor.RollbackUpload{
		BlockID:  slot.BlockID,
		UploadID: slot.UploadID,
	}); err != nil {
		cause = errors.Join(cause, err)
	}
	upload := m.finish(slot.UploadID, PhaseRolledBack, "", cause)
	logger.Warn("uploads.upload.failed", "upload_id", slot.UploadID, "error", cause)
	if m.onFailure != nil {
		m.onFailure(Failure{Upload: upload, Err: cause})
	}
}

func (m *Manager) finish(uploadID string, phase Phase, url string, err error) Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	upload, ok := m.uploads[uploadID]
	if !ok {
		return Upload{ID: uploadID, Phase: phase, Err: err}
	}
	if upload.Phase == PhasePending {
		upload.Phase = phase
		upload.URL = url
		upload.Err = err
		upload.FinishedAt = m.now()
	}
	return *upload
}

// Wait blocks until every started upload has been reconciled.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Get returns the record for uploadID.
func (m *Manager) Get(uploadID string) (Upload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	upload, ok := m.uploads[uploadID]
	if !ok {
		return Upload{}, false
	}
	return *upload, true
}

// Uploads returns every upload in start order.
func (m *Manager) Uploads() []Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Upload, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.uploads[id])
	}
	return out
}

// Pending counts uploads still waiting on the uploader.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, upload := range m.uploads {
		if upload.Phase == PhasePending {
			n++
		}
	}
	return n
}
