package history

import (
	"testing"

	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
)

// apply runs the operation against the document and records it.
func apply(t *testing.T, h *History, doc *document.Document, op Operation) {
	t.Helper()
	if err := doc.Replace(op.Offset, len(op.Removed), op.Added); err != nil {
		t.Fatalf("replace: %v", err)
	}
	h.Record(op)
}

func TestUndoRedoSingleEdit(t *testing.T) {
	doc := document.FromString("hello\n")
	h := New(0)
	apply(t, h, doc, Operation{Offset: 5, Added: " world"})
	if doc.Text() != "hello world\n" {
		t.Fatalf("text = %q", doc.Text())
	}

	if _, err := h.Undo(doc); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if doc.Text() != "hello\n" {
		t.Fatalf("after undo text = %q", doc.Text())
	}

	if _, err := h.Redo(doc); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if doc.Text() != "hello world\n" {
		t.Fatalf("after redo text = %q", doc.Text())
	}
}

func TestUndoEmpty(t *testing.T) {
	h := New(0)
	doc := document.FromString("")
	if _, err := h.Undo(doc); err != ErrNothingToUndo {
		t.Fatalf("err = %v, want ErrNothingToUndo", err)
	}
	if _, err := h.Redo(doc); err != ErrNothingToRedo {
		t.Fatalf("err = %v, want ErrNothingToRedo", err)
	}
}

// A grouped multi-caret insert must undo as one unit.
func TestGroupUndoesAsOneUnit(t *testing.T) {
	doc := document.FromString("abcdef\n")
	h := New(0)
	before := cursor.FromCursors(
		cursor.At(document.Point{Line: 0, Column: 0}),
		cursor.At(document.Point{Line: 0, Column: 3}),
	)

	h.Begin("insert", before)
	// Two carets typing "X": offsets recorded at application time.
	apply(t, h, doc, Operation{Offset: 0, Added: "X"})
	apply(t, h, doc, Operation{Offset: 4, Added: "X"})
	after := cursor.FromCursors(
		cursor.At(document.Point{Line: 0, Column: 1}),
		cursor.At(document.Point{Line: 0, Column: 5}),
	)
	if err := h.Commit(after); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if doc.Text() != "XabcXdef\n" {
		t.Fatalf("text = %q", doc.Text())
	}

	restored, err := h.Undo(doc)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if doc.Text() != "abcdef\n" {
		t.Fatalf("one undo must reverse both carets, text = %q", doc.Text())
	}
	if restored == nil || restored.Count() != 2 {
		t.Fatalf("restored cursors = %v", restored)
	}
	if got := restored.Cursors()[1].Position; got != (document.Point{Line: 0, Column: 3}) {
		t.Fatalf("second cursor = %v", got)
	}

	restored, err = h.Redo(doc)
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	if doc.Text() != "XabcXdef\n" {
		t.Fatalf("after redo text = %q", doc.Text())
	}
	if restored == nil || restored.Cursors()[1].Position.Column != 5 {
		t.Fatalf("redo cursors = %v", restored)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	doc := document.FromString("a\n")
	h := New(0)
	apply(t, h, doc, Operation{Offset: 1, Added: "b"})
	if _, err := h.Undo(doc); err != nil {
		t.Fatalf("undo: %v", err)
	}
	apply(t, h, doc, Operation{Offset: 1, Added: "c"})
	if h.CanRedo() {
		t.Fatal("redo stack must be cleared by a fresh edit")
	}
}

func TestCancelDiscardsGroup(t *testing.T) {
	doc := document.FromString("a\n")
	h := New(0)
	h.Begin("edit", nil)
	apply(t, h, doc, Operation{Offset: 1, Added: "b"})
	if err := h.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if h.CanUndo() {
		t.Fatal("cancelled group must not be undoable")
	}
	if err := h.Cancel(); err != ErrNoOpenGroup {
		t.Fatalf("second cancel err = %v", err)
	}
}

func TestEmptyGroupDiscarded(t *testing.T) {
	h := New(0)
	h.Begin("noop", nil)
	if err := h.Commit(nil); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if h.CanUndo() {
		t.Fatal("empty group pushed")
	}
}

func TestTransaction(t *testing.T) {
	doc := document.FromString("x\n")
	h := New(0)
	err := h.Transaction("t", nil, func() (*cursor.MultiCursor, error) {
		if err := doc.Insert(1, "y"); err != nil {
			return nil, err
		}
		h.Record(Operation{Offset: 1, Added: "y"})
		return nil, nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if h.UndoCount() != 1 {
		t.Fatalf("undo count = %d", h.UndoCount())
	}
}

func TestMaxEntries(t *testing.T) {
	doc := document.FromString("\n")
	h := New(2)
	for i := 0; i < 5; i++ {
		apply(t, h, doc, Operation{Offset: 0, Added: "a"})
	}
	if h.UndoCount() != 2 {
		t.Fatalf("undo count = %d, want 2", h.UndoCount())
	}
}

func TestRemovalUndo(t *testing.T) {
	doc := document.FromString("one two\n")
	h := New(0)
	apply(t, h, doc, Operation{Offset: 3, Removed: " two"})
	if doc.Text() != "one\n" {
		t.Fatalf("text = %q", doc.Text())
	}
	if _, err := h.Undo(doc); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if doc.Text() != "one two\n" {
		t.Fatalf("after undo text = %q", doc.Text())
	}
}
