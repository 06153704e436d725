package editor

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

var ErrSaverRequired = errors.New("editor: document saver required")

// Listener observes every applied action with the resulting state.
type Listener func(state State, result Result)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFactory sets the factory used to create and duplicate blocks.
func WithFactory(factory *blocks.Factory) StoreOption {
	return func(s *Store) {
		if factory != nil {
			s.reducer = NewReducer(factory)
		}
	}
}

// WithLogger injects the store logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logging.Ensure(logger)
	}
}

// WithDocumentKey names the document; the key is logged and passed to savers.
func WithDocumentKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithInitialDocument loads doc as if SetBlocks had been dispatched.
func WithInitialDocument(doc blocks.Document) StoreOption {
	return func(s *Store) {
		s.initial = doc
	}
}

// Store owns one document. Dispatch is the only way to change it and calls
// are serialized. Listeners run after the lock is released, so they may
// dispatch themselves, and they observe states in the order they were
// produced: a dispatch landing while another goroutine is notifying is queued
// behind it and delivered by that goroutine.
type Store struct {
	mu         sync.Mutex
	reducer    *Reducer
	logger     interfaces.Logger
	key        string
	initial    blocks.Document
	state      State
	revision   uint64
	listeners  map[uint64]Listener
	nextID     uint64
	pending    []notification
	delivering bool
}

type notification struct {
	state     State
	result    Result
	listeners []Listener
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		logger:    logging.NoOp(),
		listeners: make(map[uint64]Listener),
		state:     State{Blocks: blocks.Document{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.reducer == nil {
		s.reducer = NewReducer(nil)
	}
	s.logger = logging.WithDocument(s.logger, s.key, "")
	if s.initial != nil {
		next, _, _ := s.reducer.Reduce(s.state, SetBlocks{Blocks: s.initial})
		s.state = next
		s.initial = nil
	}
	return s
}

// Key returns the document key.
func (s *Store) Key() string {
	return s.key
}

// Factory exposes the block factory backing the store.
func (s *Store) Factory() *blocks.Factory {
	return s.reducer.Factory()
}

// Dispatch validates and applies action. Stale references are not errors;
// they come back as Result.Stale with the state untouched.
func (s *Store) Dispatch(ctx context.Context, action Action) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, wrapContextError(err)
	}
	if action == nil {
		return Result{}, wrapReduceError(ErrUnknownAction)
	}
	if err := command.ValidateMessage(action); err != nil {
		s.logger.Warn("editor.dispatch.invalid", "action", action.Type(), "error", err)
		return Result{}, wrapValidationError(err)
	}

	s.mu.Lock()
	next, result, err := s.reducer.Reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("editor.dispatch.failed", "action", action.Type(), "error", err)
		return result, wrapReduceError(err)
	}
	s.state = next
	if result.Changed {
		s.revision++
	}
	deliver := s.enqueueLocked(result)
	s.mu.Unlock()

	switch {
	case result.Stale:
		s.logger.Debug("editor.dispatch.stale_reference", "action", action.Type(), "block_id", result.BlockID)
	case len(result.Ignored) > 0:
		s.logger.Debug("editor.dispatch.applied", "action", action.Type(), "block_id", result.BlockID, "changed", result.Changed, "ignored", result.Ignored)
	default:
		s.logger.Debug("editor.dispatch.applied", "action", action.Type(), "block_id", result.BlockID, "changed", result.Changed)
	}

	if deliver {
		s.drain()
	}
	return result, nil
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Document returns a deep copy of the blocks in order.
func (s *Store) Document() blocks.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Blocks.Clone()
}

// Dirty reports unsaved document changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Dirty
}

// Revision counts applied document changes.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Encode serializes the current document.
func (s *Store) Encode() ([]byte, error) {
	return blocks.EncodeDocument(s.Document())
}

// Load decodes raw and replaces the document with it. Blocks are taken in
// their serialized order values, then renumbered.
func (s *Store) Load(ctx context.Context, raw []byte, opts ...blocks.DecodeOption) error {
	opts = append([]blocks.DecodeOption{blocks.DecodeWithRegistry(s.Factory().Registry())}, opts...)
	doc, err := blocks.DecodeDocument(raw, opts...)
	if err != nil {
		return wrapReduceError(errors.Join(blocks.ErrInvalidPayload, err))
	}
	_, err = s.Dispatch(ctx, SetBlocks{Blocks: doc.Sorted()})
	return err
}

// Save hands the serialized document to saver. Upload placeholders still in
// flight are left out of the payload since nothing could reconcile them after
// a reload; their block is saved in its pre-upload empty state. The store is
// marked clean only when no document change landed while the save was in
// flight, so a commit arriving later keeps it dirty.
func (s *Store) Save(ctx context.Context, saver interfaces.DocumentSaver) error {
	if saver == nil {
		return wrapSaveError(ErrSaverRequired)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	doc := s.state.Blocks.WithoutPendingUploads()
	revision := s.revision
	s.mu.Unlock()

	payload, err := blocks.EncodeDocument(doc)
	if err != nil {
		return wrapSaveError(err)
	}
	if err := saver.SaveDocument(ctx, s.key, payload); err != nil {
		s.logger.Error("editor.save.failed", "error", err)
		return wrapSaveError(err)
	}

	s.mu.Lock()
	if s.revision != revision {
		s.mu.Unlock()
		s.logger.Debug("editor.save.superseded", "revision", revision)
		return nil
	}
	next, result, _ := s.reducer.Reduce(s.state, MarkClean{})
	s.state = next
	deliver := s.enqueueLocked(result)
	s.mu.Unlock()

	s.logger.Info("editor.save.completed", "revision", revision, "blocks", len(doc))
	if deliver {
		s.drain()
	}
	return nil
}

// enqueueLocked queues the current state for the listeners and reports
// whether the caller must deliver it. s.mu must be held.
func (s *Store) enqueueLocked(result Result) bool {
	listeners := s.snapshotListeners()
	if len(listeners) == 0 && !s.delivering {
		return false
	}
	s.pending = append(s.pending, notification{
		state:     s.state.Clone(),
		result:    result,
		listeners: listeners,
	})
	if s.delivering {
		return false
	}
	s.delivering = true
	return true
}

// drain delivers queued notifications until the queue is empty. A panicking
// listener drops the rest of the queue so later dispatches can deliver again.
func (s *Store) drain() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.pending = nil
			s.delivering = false
			s.mu.Unlock()
			panic(r)
		}
	}()
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending[0] = notification{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, listener := range next.listeners {
			listener(next.state, next.result)
		}
	}
}

func (s *Store) snapshotListeners() []Listener {
	if len(s.listeners) == 0 {
		return nil
	}
	ids := slices.Sorted(maps.Keys(s.listeners))
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}
