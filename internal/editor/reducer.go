package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/goliatone/go-blockdoc/internal/blocks"
)

var (
	ErrUnknownAction   = errors.New("editor: unknown action")
	ErrFactoryRequired = errors.New("editor: block factory required")
)

// State is the store snapshot: the document plus transient UI state.
// SelectedBlockID and EditingBlockID are never serialized.
type State struct {
	Blocks          blocks.Document
	SelectedBlockID string
	EditingBlockID  string
	Dirty           bool
}

// Clone deep-copies the state.
func (s State) Clone() State {
	s.Blocks = s.Blocks.Clone()
	return s
}

// Selected returns the selected block, if any.
func (s State) Selected() (blocks.Block, bool) {
	return s.Blocks.Find(s.SelectedBlockID)
}

// Result describes what an action did.
type Result struct {
	// Changed reports a document change; selection-only actions leave it false.
	Changed bool
	// Stale is set when the action addressed a block that no longer exists.
	Stale bool
	// BlockID is the created, duplicated or addressed block.
	BlockID string
	// Ignored lists patch keys the variant does not define.
	Ignored []string
}

// Reducer applies actions to states. It never mutates its input state.
type Reducer struct {
	factory *blocks.Factory
}

// NewReducer builds a reducer that creates blocks with factory.
func NewReducer(factory *blocks.Factory) *Reducer {
	if factory == nil {
		factory = blocks.NewFactory()
	}
	return &Reducer{factory: factory}
}

// Factory exposes the block factory.
func (r *Reducer) Factory() *blocks.Factory {
	return r.factory
}

// Reduce returns the state produced by action. Actions addressed to a missing
// block are no-ops reported through Result.Stale. Errors leave the state
// unchanged and are returned only for impossible variants, rejected data and
// unknown actions.
func (r *Reducer) Reduce(state State, action Action) (State, Result, error) {
	switch a := action.(type) {
	case SetBlocks:
		return r.setBlocks(state, a)
	case AddBlock:
		return r.addBlock(state, a)
	case UpdateBlock:
		return r.updateBlock(state, a)
	case DeleteBlock:
		return deleteBlock(state, a)
	case DuplicateBlock:
		return r.duplicateBlock(state, a)
	case MoveBlock:
		return moveBlock(state, a)
	case ToggleVisibility:
		return toggleVisibility(state, a)
	case SelectBlock:
		return selectBlock(state, a)
	case SetEditingBlock:
		return setEditingBlock(state, a)
	case MarkClean:
		state.Dirty = false
		return state, Result{}, nil
	case StageUpload:
		return stageUpload(state, a)
	case CommitUpload:
		return reconcileUpload(state, a.BlockID, func(b blocks.Block) (blocks.Block, bool) {
			return blocks.CommitUpload(b, a.UploadID, a.Result)
		})
	case RollbackUpload:
		return reconcileUpload(state, a.BlockID, func(b blocks.Block) (blocks.Block, bool) {
			return blocks.RollbackUpload(b, a.UploadID)
		})
	case nil:
		return state, Result{}, fmt.Errorf("%w: nil", ErrUnknownAction)
	default:
		return state, Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, action.Type())
	}
}

// setBlocks loads a document. Empty or repeated ids are replaced, missing
// payloads get the variant defaults, and a payload whose variant disagrees
// with the type tag wins over the tag.
func (r *Reducer) setBlocks(state State, a SetBlocks) (State, Result, error) {
	doc := make(blocks.Document, 0, len(a.Blocks))
	seen := make(map[string]struct{}, len(a.Blocks))
	for _, block := range a.Blocks {
		block = block.Clone()
		if _, dup := seen[block.ID]; block.ID == "" || dup {
			block.ID = r.factory.NewID()
		}
		seen[block.ID] = struct{}{}

		switch {
		case block.Data == nil:
			fresh, err := r.factory.Create(block.Type, nil)
			if err != nil {
				block.Data = &blocks.Opaque{Tag: block.Type}
			} else {
				block.Data = fresh.Data
			}
		case block.Data.Type() != block.Type:
			block.Type = block.Data.Type()
		}
		doc = append(doc, block)
	}
	blocks.Renormalize(doc)

	next := State{Blocks: doc}
	if doc.IndexOf(state.SelectedBlockID) >= 0 {
		next.SelectedBlockID = state.SelectedBlockID
	}
	if doc.IndexOf(state.EditingBlockID) >= 0 {
		next.EditingBlockID = state.EditingBlockID
	}
	return next, Result{Changed: true}, nil
}

func (r *Reducer) addBlock(state State, a AddBlock) (State, Result, error) {
	block, err := r.factory.Create(a.BlockType, a.Data)
	if err != nil {
		return state, Result{}, err
	}

	at := len(state.Blocks)
	if idx := state.Blocks.IndexOf(a.AfterID); idx >= 0 {
		at = idx + 1
	}
	block.Order = at

	state.Blocks = blocks.Renormalize(slices.Insert(slices.Clone(state.Blocks), at, block))
	state.SelectedBlockID = block.ID
	state.EditingBlockID = block.ID
	state.Dirty = true
	return state, Result{Changed: true, BlockID: block.ID}, nil
}

func (r *Reducer) updateBlock(state State, a UpdateBlock) (State, Result, error) {
	idx := state.Blocks.IndexOf(a.ID)
	if idx < 0 {
		return state, Result{Stale: true, BlockID: a.ID}, nil
	}
	if len(a.Patch) == 0 {
		return state, Result{BlockID: a.ID}, nil
	}

	updated, ignored, err := r.factory.Merge(state.Blocks[idx], a.Patch)
	if err != nil {
		return state, Result{BlockID: a.ID, Ignored: ignored}, err
	}
	if len(ignored) == len(a.Patch) {
		return state, Result{BlockID: a.ID, Ignored: ignored}, nil
	}

	state.Blocks = slices.Clone(state.Blocks)
	state.Blocks[idx] = updated
	state.Dirty = true
	return state, Result{Changed: true, BlockID: a.ID, Ignored: ignored}, nil
}

func deleteBlock(state State, a DeleteBlock) (State, Result, error) {
	idx := state.Blocks.IndexOf(a.ID)
	if idx < 0 {
		return state, Result{Stale: true, BlockID: a.ID}, nil
	}

	state.Blocks = blocks.Renormalize(slices.Delete(slices.Clone(state.Blocks), idx, idx+1))
	if state.SelectedBlockID == a.ID {
		state.SelectedBlockID = ""
	}
	if state.EditingBlockID == a.ID {
		state.EditingBlockID = ""
	}
	state.Dirty = true
	return state, Result{Changed: true, BlockID: a.ID}, nil
}

func (r *Reducer) duplicateBlock(state State, a DuplicateBlock) (State, Result, error) {
	idx := state.Blocks.IndexOf(a.ID)
	if idx < 0 {
		return state, Result{Stale: true, BlockID: a.ID}, nil
	}

	source := state.Blocks[idx]
	dup := r.factory.Duplicate(source, source.Order+1)

	state.Blocks = blocks.Renormalize(slices.Insert(slices.Clone(state.Blocks), idx+1, dup))
	state.SelectedBlockID = dup.ID
	state.Dirty = true
	return state, Result{Changed: true, BlockID: dup.ID}, nil
}

// moveBlock is an array splice-move: the active block is removed and
// reinserted at the index the over block had before the removal.
func moveBlock(state State, a MoveBlock) (State, Result, error) {
	if a.ActiveID == a.OverID && a.ActiveID != "" {
		return state, Result{BlockID: a.ActiveID}, nil
	}
	from := state.Blocks.IndexOf(a.ActiveID)
	to := state.Blocks.IndexOf(a.OverID)
	if from < 0 || to < 0 {
		return state, Result{Stale: true, BlockID: a.ActiveID}, nil
	}

	moved := state.Blocks[from]
	doc := slices.Delete(slices.Clone(state.Blocks), from, from+1)
	state.Blocks = blocks.Renormalize(slices.Insert(doc, to, moved))
	state.Dirty = true
	return state, Result{Changed: true, BlockID: a.ActiveID}, nil
}

func toggleVisibility(state State, a ToggleVisibility) (State, Result, error) {
	idx := state.Blocks.IndexOf(a.ID)
	if idx < 0 {
		return state, Result{Stale: true, BlockID: a.ID}, nil
	}

	state.Blocks = slices.Clone(state.Blocks)
	state.Blocks[idx].IsVisible = !state.Blocks[idx].IsVisible
	state.Dirty = true
	return state, Result{Changed: true, BlockID: a.ID}, nil
}

func selectBlock(state State, a SelectBlock) (State, Result, error) {
	if a.ID == "" {
		state.SelectedBlockID = ""
		return state, Result{}, nil
	}
	if state.Blocks.IndexOf(a.ID) < 0 {
		return state, Result{Stale: true, BlockID: a.ID}, nil
	}
	state.SelectedBlockID = a.ID
	return state, Result{BlockID: a.ID}, nil
}

func setEditingBlock(state State, a SetEditingBlock) (State, Result, error) {
	if a.ID == "" {
		state.EditingBlockID = ""
		return state, Result{}, nil
	}
	if state.Blocks.IndexOf(a.ID) < 0 {
		return state, Result{Stale: true, BlockID: a.ID}, nil
	}
	state.EditingBlockID = a.ID
	state.SelectedBlockID = a.ID
	return state, Result{BlockID: a.ID}, nil
}

func stageUpload(state State, a StageUpload) (State, Result, error) {
	idx := state.Blocks.IndexOf(a.BlockID)
	if idx < 0 {
		return state, Result{Stale: true, BlockID: a.BlockID}, nil
	}

	staged, err := blocks.StageUpload(state.Blocks[idx], a.UploadID, a.Preview)
	if err != nil {
		return state, Result{BlockID: a.BlockID}, err
	}
	state.Blocks = slices.Clone(state.Blocks)
	state.Blocks[idx] = staged
	state.Dirty = true
	return state, Result{Changed: true, BlockID: a.BlockID}, nil
}

func reconcileUpload(state State, blockID string, apply func(blocks.Block) (blocks.Block, bool)) (State, Result, error) {
	idx := state.Blocks.IndexOf(blockID)
	if idx < 0 {
		return state, Result{Stale: true, BlockID: blockID}, nil
	}

	updated, ok := apply(state.Blocks[idx])
	if !ok {
		return state, Result{Stale: true, BlockID: blockID}, nil
	}
	state.Blocks = slices.Clone(state.Blocks)
	state.Blocks[idx] = updated
	state.Dirty = true
	return state, Result{Changed: true, BlockID: blockID}, nil
}
