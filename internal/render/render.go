package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

var (
	ErrFuncRequired = errors.New("render: render func required")
	ErrTypeRequired = errors.New("render: block type required")
)

// Mode selects which blocks a consumer shows.
type Mode string

const (
	// ModePublic shows visible blocks only.
	ModePublic Mode = "public"
	// ModeEdit shows every block so hidden ones stay editable.
	ModeEdit Mode = "edit"
)

// ParseMode maps a flag value onto a Mode. Anything but "edit" is public.
func ParseMode(value string) Mode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModeEdit)) {
		return ModeEdit
	}
	return ModePublic
}

// Prepare returns the blocks a consumer should draw, in draw order: hidden
// blocks are dropped outside edit mode and the rest are sorted by Order.
// The input is not modified.
func Prepare(doc blocks.Document, mode Mode) blocks.Document {
	out := make(blocks.Document, 0, len(doc))
	for _, block := range doc.Sorted() {
		if mode != ModeEdit && !block.IsVisible {
			continue
		}
		out = append(out, block.Clone())
	}
	return out
}

// Func renders one block. It is only called for known variants.
type Func func(ctx context.Context, block blocks.Block, mode Mode) (string, error)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		r.logger = logging.Ensure(logger)
	}
}

// WithSeparator sets the string placed between rendered blocks.
func WithSeparator(sep string) Option {
	return func(r *Renderer) {
		r.separator = sep
	}
}

// Renderer dispatches each prepared block to the func registered for its
// type. Blocks without a func, including opaque ones, render as nothing.
type Renderer struct {
	mu        sync.RWMutex
	funcs     map[blocks.Type]Func
	logger    interfaces.Logger
	separator string
}

// New returns an empty renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		funcs:     make(map[blocks.Type]Func),
		logger:    logging.NoOp(),
		separator: "\n",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register installs fn for t, replacing any previous func.
func (r *Renderer) Register(t blocks.Type, fn Func) error {
	if strings.TrimSpace(string(t)) == "" {
		return ErrTypeRequired
	}
	if fn == nil {
		return ErrFuncRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[t] = fn
	return nil
}

// Has reports whether t has a render func.
func (r *Renderer) Has(t blocks.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[t]
	return ok
}

// Render draws doc for mode. A failing block aborts the whole render.
func (r *Renderer) Render(ctx context.Context, doc blocks.Document, mode Mode) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var parts []string
	skipped := 0
	for _, block := range Prepare(doc, mode) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fn := r.lookup(block)
		if fn == nil {
			skipped++
			r.logger.Debug("render.block.skipped", "block_id", block.ID, "block_type", block.Type)
			continue
		}
		out, err := fn(ctx, block, mode)
		if err != nil {
			return "", fmt.Errorf("render block %s (%s): %w", block.ID, block.Type, err)
		}
		if out != "" {
			parts = append(parts, out)
		}
	}
	r.logger.Debug("render.document.completed", "mode", mode, "blocks", len(parts), "skipped", skipped)
	return strings.Join(parts, r.separator), nil
}

func (r *Renderer) lookup(block blocks.Block) Func {
	if !block.Known() {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.funcs[block.Type]
}
