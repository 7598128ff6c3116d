package cursor

import (
	"sort"

	"github.com/dshills/textcore/internal/document"
)

// MultiCursor is a normalized, ordered set of cursors. After every
// mutating operation no two selections overlap, duplicate carets are
// collapsed, and exactly one cursor is the main one.
type MultiCursor struct {
	cursors []Cursor
	main    int
}

// New creates a multi-cursor with a single caret.
func New(p Point) *MultiCursor {
	return &MultiCursor{cursors: []Cursor{At(p)}}
}

// FromCursors creates a normalized multi-cursor from arbitrary
// cursors. The first cursor becomes the main one.
func FromCursors(cursors ...Cursor) *MultiCursor {
	if len(cursors) == 0 {
		return New(Point{})
	}
	mc := &MultiCursor{cursors: append([]Cursor(nil), cursors...)}
	mc.Normalize()
	return mc
}

// Clone returns an independent copy, main cursor included.
func (mc *MultiCursor) Clone() *MultiCursor {
	return &MultiCursor{cursors: mc.Cursors(), main: mc.main}
}

// Count returns the number of cursors.
func (mc *MultiCursor) Count() int { return len(mc.cursors) }

// IsMulti reports whether more than one cursor is active.
func (mc *MultiCursor) IsMulti() bool { return len(mc.cursors) > 1 }

// Cursors returns a copy of the cursors in document order.
func (mc *MultiCursor) Cursors() []Cursor {
	out := make([]Cursor, len(mc.cursors))
	copy(out, mc.cursors)
	return out
}

// Main returns the main cursor.
func (mc *MultiCursor) Main() Cursor {
	return mc.cursors[mc.main]
}

// SetMain makes the cursor at the given index the main one.
func (mc *MultiCursor) SetMain(index int) {
	if index >= 0 && index < len(mc.cursors) {
		mc.main = index
	}
}

// Add inserts another cursor, which becomes the main one.
func (mc *MultiCursor) Add(c Cursor) {
	mc.cursors = append(mc.cursors, c)
	mc.main = len(mc.cursors) - 1
	mc.Normalize()
}

// CollapseToMain drops all cursors except the main one.
func (mc *MultiCursor) CollapseToMain() {
	main := mc.Main()
	mc.cursors = []Cursor{main}
	mc.main = 0
}

// ClearSelections collapses every cursor to a caret at its position.
func (mc *MultiCursor) ClearSelections() {
	for i := range mc.cursors {
		mc.cursors[i] = mc.cursors[i].Collapse()
	}
	mc.Normalize()
}

// HasSelection reports whether any cursor selects text.
func (mc *MultiCursor) HasSelection() bool {
	for _, c := range mc.cursors {
		if c.HasSelection() {
			return true
		}
	}
	return false
}

// Clamp constrains every cursor to valid positions. Used when a
// programmatic edit removed lines a cursor was sitting on.
func (mc *MultiCursor) Clamp(doc *document.Document) {
	for i := range mc.cursors {
		mc.cursors[i] = mc.cursors[i].Clamp(doc)
	}
	mc.Normalize()
}

// Normalize sorts cursors by start position and merges overlapping
// pairs. The main cursor follows its position through the merge.
// Normalizing an already normalized set changes nothing.
func (mc *MultiCursor) Normalize() {
	if len(mc.cursors) == 0 {
		mc.cursors = []Cursor{At(Point{})}
		mc.main = 0
		return
	}

	mainPos := mc.Main().Position

	sort.SliceStable(mc.cursors, func(i, j int) bool {
		si, sj := mc.cursors[i].Start(), mc.cursors[j].Start()
		if si != sj {
			return si.Before(sj)
		}
		// Equal starts: wider selection first so merging absorbs
		// the narrower one.
		return mc.cursors[j].End().Before(mc.cursors[i].End())
	})

	merged := mc.cursors[:1]
	for _, c := range mc.cursors[1:] {
		last := &merged[len(merged)-1]
		if last.Overlaps(c) {
			*last = last.Merge(c)
		} else {
			merged = append(merged, c)
		}
	}
	mc.cursors = merged

	mc.main = 0
	for i, c := range mc.cursors {
		if c.Start().Compare(mainPos) <= 0 && mainPos.Compare(c.End()) <= 0 {
			mc.main = i
			break
		}
	}
}
