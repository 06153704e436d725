package dnd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/editor"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

var (
	ErrDragInProgress = errors.New("dnd: drag already in progress")
	ErrNotDragging    = errors.New("dnd: no drag in progress")
	ErrInvalidSource  = errors.New("dnd: invalid drag source")
	ErrUnknownEvent   = errors.New("dnd: unknown event")
)

// Phase is the coordinator state. Dropped and cancelled are reported through
// Resolution; the coordinator itself is back to idle once a drag ends.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDragging  Phase = "dragging"
	PhaseDropped   Phase = "dropped"
	PhaseCancelled Phase = "cancelled"
)

// SourceKind tells palette entries from existing blocks.
type SourceKind string

const (
	SourcePalette SourceKind = "palette"
	SourceBlock   SourceKind = "block"
)

// Source is what is being dragged.
type Source struct {
	Kind      SourceKind
	BlockType blocks.Type
	BlockID   string
}

// PaletteSource drags a new block of type t out of the component palette.
func PaletteSource(t blocks.Type) Source {
	return Source{Kind: SourcePalette, BlockType: t}
}

// BlockSource drags the existing block id.
func BlockSource(id string) Source {
	return Source{Kind: SourceBlock, BlockID: id}
}

func (s Source) validate() error {
	switch s.Kind {
	case SourcePalette:
		if s.BlockType == "" {
			return fmt.Errorf("%w: palette source without block type", ErrInvalidSource)
		}
	case SourceBlock:
		if s.BlockID == "" {
			return fmt.Errorf("%w: block source without id", ErrInvalidSource)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidSource, s.Kind)
	}
	return nil
}

// TargetKind classifies what is under the pointer.
type TargetKind string

const (
	TargetNone     TargetKind = ""
	TargetBlock    TargetKind = "block"
	TargetDropZone TargetKind = "drop_zone"
)

// Target is the drop candidate under the pointer. The zero value means the
// pointer is outside every drop area.
type Target struct {
	Kind    TargetKind
	BlockID string
}

// BlockTarget is the block currently under the pointer.
func BlockTarget(id string) Target {
	if id == "" {
		return Target{}
	}
	return Target{Kind: TargetBlock, BlockID: id}
}

// DropZone is the sentinel target for the end of the document.
func DropZone() Target {
	return Target{Kind: TargetDropZone}
}

// Event is a pointer gesture fed to the coordinator.
type Event interface {
	dragEvent()
}

// DragStart begins a drag from Source.
type DragStart struct{ Source Source }

// DragOver reports the target under the pointer while dragging. The hovered
// target only feeds Active for drop indicators; it never decides the drop.
type DragOver struct{ Over Target }

// DragEnd releases the pointer over Over, which alone resolves the drop. A
// zero Over is a release outside every drop area and cancels, whatever was
// hovered last.
type DragEnd struct{ Over Target }

// DragCancel aborts the drag, e.g. on escape.
type DragCancel struct{}

func (DragStart) dragEvent()  {}
func (DragOver) dragEvent()   {}
func (DragEnd) dragEvent()    {}
func (DragCancel) dragEvent() {}

// Resolution is the outcome of one event. Action is set only for a drop that
// maps to a store operation.
type Resolution struct {
	Phase  Phase
	Action editor.Action
}

// Dispatcher applies editor actions; *editor.Store satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, action editor.Action) (editor.Result, error)
}

// Coordinator translates drag gestures into store actions. It never touches
// the document and forgets the source once a drag ends.
type Coordinator struct {
	mu     sync.Mutex
	phase  Phase
	source Source
	over   Target
	logger interfaces.Logger
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator(logger interfaces.Logger) *Coordinator {
	return &Coordinator{
		phase:  PhaseIdle,
		logger: logging.Ensure(logger),
	}
}

// Phase returns idle or dragging.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Active returns the drag source and the hovered target while dragging.
func (c *Coordinator) Active() (Source, Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseDragging {
		return Source{}, Target{}, false
	}
	return c.source, c.over, true
}

// Handle advances the state machine.
func (c *Coordinator) Handle(event Event) (Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := event.(type) {
	case DragStart:
		if c.phase == PhaseDragging {
			return Resolution{Phase: c.phase}, ErrDragInProgress
		}
		if err := e.Source.validate(); err != nil {
			return Resolution{Phase: c.phase}, err
		}
		c.phase = PhaseDragging
		c.source = e.Source
		c.over = Target{}
		c.logger.Debug("dnd.drag.started", "source", e.Source.Kind, "block_type", e.Source.BlockType, "block_id", e.Source.BlockID)
		return Resolution{Phase: PhaseDragging}, nil

	case DragOver:
		if c.phase != PhaseDragging {
			return Resolution{Phase: c.phase}, ErrNotDragging
		}
		c.over = e.Over
		return Resolution{Phase: PhaseDragging}, nil

	case DragEnd:
		if c.phase != PhaseDragging {
			return Resolution{Phase: c.phase}, ErrNotDragging
		}
		action := resolve(c.source, e.Over)
		c.reset()
		if action == nil {
			c.logger.Debug("dnd.drag.cancelled", "reason", "no_valid_target")
			return Resolution{Phase: PhaseCancelled}, nil
		}
		c.logger.Debug("dnd.drag.dropped", "action", action.Type())
		return Resolution{Phase: PhaseDropped, Action: action}, nil

	case DragCancel:
		if c.phase != PhaseDragging {
			return Resolution{Phase: PhaseIdle}, nil
		}
		c.reset()
		c.logger.Debug("dnd.drag.cancelled", "reason", "cancelled")
		return Resolution{Phase: PhaseCancelled}, nil

	default:
		return Resolution{Phase: c.phase}, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

func (c *Coordinator) reset() {
	c.phase = PhaseIdle
	c.source = Source{}
	c.over = Target{}
}

// resolve implements the drop table. A nil action means the drag is
// cancelled.
func resolve(source Source, target Target) editor.Action {
	switch source.Kind {
	case SourcePalette:
		switch target.Kind {
		case TargetBlock:
			return editor.AddBlock{BlockType: source.BlockType, AfterID: target.BlockID}
		case TargetDropZone:
			return editor.AddBlock{BlockType: source.BlockType}
		}
	case SourceBlock:
		if target.Kind == TargetBlock && target.BlockID != source.BlockID {
			return editor.MoveBlock{ActiveID: source.BlockID, OverID: target.BlockID}
		}
	}
	return nil
}

// Apply dispatches the resolution's action, if any. A drop is applied
// unconditionally; a target deleted mid-drag surfaces as a stale result.
func Apply(ctx context.Context, dispatcher Dispatcher, res Resolution) (editor.Result, error) {
	if res.Action == nil || dispatcher == nil {
		return editor.Result{}, nil
	}
	return dispatcher.Dispatch(ctx, res.Action)
}
