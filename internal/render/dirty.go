package render

import (
	"sync"

	"github.com/dshills/textcore/internal/document"
)

// DirtyTracker accumulates lines needing a repaint between frames.
// Edits that add or remove lines shift everything below, so those
// force a full redraw from the first edited line.
type DirtyTracker struct {
	mu    sync.Mutex
	lines map[int]struct{}
	full  bool
	from  int
	max   int
}

// NewDirtyTracker creates a tracker that degrades to a full redraw
// once more than max individual lines are dirty.
func NewDirtyTracker(max int) *DirtyTracker {
	if max <= 0 {
		max = 256
	}
	return &DirtyTracker{lines: make(map[int]struct{}), max: max}
}

// MarkLine marks one line dirty.
func (t *DirtyTracker) MarkLine(line int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.full {
		return
	}
	t.lines[line] = struct{}{}
	if len(t.lines) > t.max {
		t.full = true
		t.from = 0
	}
}

// MarkChange marks the lines touched by a document change. A change
// in line structure dirties everything from its first line down.
func (t *DirtyTracker) MarkChange(c document.Change) {
	if c.LinesAdded > 0 || c.LinesRemoved > 0 {
		t.MarkFrom(c.FirstLine)
		return
	}
	t.MarkLine(c.FirstLine)
}

// MarkFrom marks every line at or below the given one dirty.
func (t *DirtyTracker) MarkFrom(line int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.full {
		if line < t.from {
			t.from = line
		}
		return
	}
	t.full = true
	t.from = line
	for l := range t.lines {
		if l < t.from {
			t.from = l
		}
	}
	t.lines = make(map[int]struct{})
}

// MarkAll forces a full redraw.
func (t *DirtyTracker) MarkAll() { t.MarkFrom(0) }

// Flush returns the dirty state and resets the tracker. When full is
// true everything from line from downward needs repainting and the
// lines slice is nil; otherwise lines holds the individual dirty
// lines in no particular order.
func (t *DirtyTracker) Flush() (full bool, from int, lines []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	full, from = t.full, t.from
	if !full {
		lines = make([]int, 0, len(t.lines))
		for l := range t.lines {
			lines = append(lines, l)
		}
	}
	t.full = false
	t.from = 0
	t.lines = make(map[int]struct{})
	return full, from, lines
}

// IsDirty reports whether anything needs repainting.
func (t *DirtyTracker) IsDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.full || len(t.lines) > 0
}
