// Package cursor implements the multi-cursor controller: an ordered,
// de-duplicated set of (anchor, position) pairs that applies movement
// and editing operations to every cursor at once.
package cursor

import (
	"fmt"

	"github.com/dshills/textcore/internal/document"
	"github.com/dshills/textcore/internal/indent"
)

// Point is an alias for document.Point for convenience.
type Point = document.Point

// Cursor is one insertion point with an optional selection.
// Cursor is an immutable value type. The selection is the half-open
// range between anchor and position; when they are equal the cursor
// is a plain caret.
type Cursor struct {
	Anchor   Point
	Position Point
}

// At creates a caret without a selection.
func At(p Point) Cursor {
	return Cursor{Anchor: p, Position: p}
}

// Select creates a cursor with a selection from anchor to position.
func Select(anchor, position Point) Cursor {
	return Cursor{Anchor: anchor, Position: position}
}

// HasSelection reports whether the cursor selects any text.
func (c Cursor) HasSelection() bool {
	return c.Anchor != c.Position
}

// Start returns the earlier of anchor and position.
func (c Cursor) Start() Point {
	if c.Position.Before(c.Anchor) {
		return c.Position
	}
	return c.Anchor
}

// End returns the later of anchor and position.
func (c Cursor) End() Point {
	if c.Position.Before(c.Anchor) {
		return c.Anchor
	}
	return c.Position
}

// Reversed reports whether the position precedes the anchor.
func (c Cursor) Reversed() bool {
	return c.Position.Before(c.Anchor)
}

// Collapse returns a caret at the cursor's position.
func (c Cursor) Collapse() Cursor {
	return At(c.Position)
}

// Overlaps reports whether two cursors' ranges intersect or touch.
// Two carets at the same point overlap; a caret strictly inside a
// selection overlaps it.
func (c Cursor) Overlaps(other Cursor) bool {
	if !c.HasSelection() && !other.HasSelection() {
		return c.Position == other.Position
	}
	return !(c.End().Compare(other.Start()) <= 0 || other.End().Compare(c.Start()) <= 0)
}

// Merge returns the union of two overlapping cursors. The direction
// (anchor before or after position) is taken from the receiver, which
// normalization arranges to be the earlier cursor in sort order.
func (c Cursor) Merge(other Cursor) Cursor {
	start, end := c.Start(), c.End()
	if other.Start().Before(start) {
		start = other.Start()
	}
	if end.Before(other.End()) {
		end = other.End()
	}
	if c.Reversed() {
		return Cursor{Anchor: end, Position: start}
	}
	return Cursor{Anchor: start, Position: end}
}

// Clamp returns the cursor constrained to valid document positions.
func (c Cursor) Clamp(doc *document.Document) Cursor {
	return Cursor{
		Anchor:   doc.ClampPoint(c.Anchor),
		Position: doc.ClampPoint(c.Position),
	}
}

// VisualColumn returns the display column of the cursor position,
// expanding tabs and wide runes per the tab settings.
func (c Cursor) VisualColumn(doc *document.Document, ts indent.TabSettings) int {
	text := doc.LineText(c.Position.Line)
	col := c.Position.Column
	if col > len(text) {
		col = len(text)
	}
	return ts.ColumnAt(text, col)
}

// String returns a printable form for debugging.
func (c Cursor) String() string {
	if !c.HasSelection() {
		return fmt.Sprintf("Cursor(%s)", c.Position)
	}
	return fmt.Sprintf("Cursor(%s..%s)", c.Anchor, c.Position)
}
