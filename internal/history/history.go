// Package history manages undo and redo for a document. Edits are
// recorded as replace operations and bundled into groups, so one undo
// reverses everything a single user action did, including the edits a
// multi-cursor operation applied at every caret.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
)

var (
	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("history: nothing to undo")
	// ErrNothingToRedo is returned when the redo stack is empty.
	ErrNothingToRedo = errors.New("history: nothing to redo")
	// ErrNoOpenGroup is returned by Commit or Cancel without Begin.
	ErrNoOpenGroup = errors.New("history: no open group")
)

// Operation is one recorded replace: at Offset, Removed was replaced
// by Added. Offsets are relative to the document state just before
// the operation ran, so a group undoes cleanly in reverse order.
type Operation struct {
	Offset  int
	Removed string
	Added   string
}

// undo reverses the operation against the document.
func (op Operation) undo(doc *document.Document) error {
	return doc.Replace(op.Offset, len(op.Added), op.Removed)
}

// redo reapplies the operation against the document.
func (op Operation) redo(doc *document.Document) error {
	return doc.Replace(op.Offset, len(op.Removed), op.Added)
}

// group is one undo unit: the operations of a single user action plus
// the cursor states on either side of it.
type group struct {
	name      string
	ops       []Operation
	before    *cursor.MultiCursor
	after     *cursor.MultiCursor
	timestamp time.Time
}

// History holds the undo and redo stacks for one document.
type History struct {
	mu         sync.Mutex
	undoStack  []*group
	redoStack  []*group
	open       *group
	maxEntries int
}

// New creates a history with a bounded undo depth.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &History{maxEntries: maxEntries}
}

// Begin opens a group. The cursor state is snapshotted for restore on
// undo; nil is allowed when the caller tracks no cursors.
func (h *History) Begin(name string, before *cursor.MultiCursor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g := &group{name: name, timestamp: time.Now()}
	if before != nil {
		g.before = before.Clone()
	}
	h.open = g
}

// Record adds an operation to the open group. Without an open group
// the operation becomes its own single-op group.
func (h *History) Record(op Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open != nil {
		h.open.ops = append(h.open.ops, op)
		return
	}
	h.pushLocked(&group{ops: []Operation{op}, timestamp: time.Now()})
}

// Commit closes the open group and pushes it onto the undo stack. An
// empty group is discarded.
func (h *History) Commit(after *cursor.MultiCursor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open == nil {
		return ErrNoOpenGroup
	}
	g := h.open
	h.open = nil
	if len(g.ops) == 0 {
		return nil
	}
	if after != nil {
		g.after = after.Clone()
	}
	h.pushLocked(g)
	return nil
}

// Cancel discards the open group. Operations already applied to the
// document stay applied but become non-undoable.
func (h *History) Cancel() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.open == nil {
		return ErrNoOpenGroup
	}
	h.open = nil
	return nil
}

// Transaction runs fn inside a group, committing on success and
// cancelling on error.
func (h *History) Transaction(name string, before *cursor.MultiCursor, fn func() (*cursor.MultiCursor, error)) error {
	h.Begin(name, before)
	after, err := fn()
	if err != nil {
		h.Cancel()
		return err
	}
	return h.Commit(after)
}

func (h *History) pushLocked(g *group) {
	h.undoStack = append(h.undoStack, g)
	h.redoStack = nil
	if len(h.undoStack) > h.maxEntries {
		h.undoStack = h.undoStack[len(h.undoStack)-h.maxEntries:]
	}
}

// Undo reverses the most recent group, operations in reverse order,
// and returns the cursor state from before that group (nil when none
// was recorded).
func (h *History) Undo(doc *document.Document) (*cursor.MultiCursor, error) {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToUndo
	}
	g := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.mu.Unlock()

	for i := len(g.ops) - 1; i >= 0; i-- {
		if err := g.ops[i].undo(doc); err != nil {
			h.mu.Lock()
			h.undoStack = append(h.undoStack, g)
			h.mu.Unlock()
			return nil, err
		}
	}

	h.mu.Lock()
	h.redoStack = append(h.redoStack, g)
	h.mu.Unlock()

	if g.before == nil {
		return nil, nil
	}
	return g.before.Clone(), nil
}

// Redo reapplies the most recently undone group and returns the
// cursor state from after it (nil when none was recorded).
func (h *History) Redo(doc *document.Document) (*cursor.MultiCursor, error) {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToRedo
	}
	g := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	for i, op := range g.ops {
		if err := op.redo(doc); err != nil {
			// Roll the partial redo back before restoring the stack.
			for j := i - 1; j >= 0; j-- {
				_ = g.ops[j].undo(doc)
			}
			h.mu.Lock()
			h.redoStack = append(h.redoStack, g)
			h.mu.Unlock()
			return nil, err
		}
	}

	h.mu.Lock()
	h.undoStack = append(h.undoStack, g)
	h.mu.Unlock()

	if g.after == nil {
		return nil, nil
	}
	return g.after.Clone(), nil
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the undo stack depth.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// Clear drops both stacks and any open group.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
	h.open = nil
}
