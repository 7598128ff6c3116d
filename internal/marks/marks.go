// Package marks keeps line-attached annotations such as bookmarks,
// breakpoints, and diagnostics. Marks reference lines weakly, by line
// number plus a generation counter, and are renumbered as edits insert
// or remove lines above them. A mark whose line is removed is moved to
// the nearest surviving line and flagged as displaced rather than
// dropped.
package marks

import (
	"errors"
	"sort"
	"sync"

	"github.com/dshills/textcore/internal/document"
)

var (
	// ErrMarkNotFound is returned when removing an unknown mark.
	ErrMarkNotFound = errors.New("marks: mark not found")
	// ErrInvalidLine is returned for marks placed outside the document.
	ErrInvalidLine = errors.New("marks: line out of range")
)

// Kind classifies a mark.
type Kind int

const (
	Bookmark Kind = iota
	Breakpoint
	Diagnostic
)

func (k Kind) String() string {
	switch k {
	case Bookmark:
		return "bookmark"
	case Breakpoint:
		return "breakpoint"
	case Diagnostic:
		return "diagnostic"
	}
	return "unknown"
}

// ID identifies a mark for the lifetime of its registry.
type ID int64

// Mark is a line annotation. Line and Generation form the weak line
// reference; Displaced is set when the original line no longer exists.
type Mark struct {
	ID         ID
	Kind       Kind
	Line       int
	Generation int64
	Displaced  bool
	Text       string
}

// Registry tracks marks for one document and renumbers them on edits.
type Registry struct {
	mu         sync.Mutex
	doc        *document.Document
	marks      map[ID]*Mark
	nextID     ID
	generation int64
}

// NewRegistry creates a registry and subscribes it to the document's
// change notifications.
func NewRegistry(doc *document.Document) *Registry {
	r := &Registry{doc: doc, marks: make(map[ID]*Mark), nextID: 1}
	doc.OnChange(r.apply)
	return r
}

// Add attaches a mark to a line and returns its identifier.
func (r *Registry) Add(line int, kind Kind, text string) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if line < 0 || line >= r.doc.LineCount() {
		return 0, ErrInvalidLine
	}
	id := r.nextID
	r.nextID++
	r.marks[id] = &Mark{
		ID:         id,
		Kind:       kind,
		Line:       line,
		Generation: r.generation,
		Text:       text,
	}
	return id, nil
}

// Remove deletes a mark by identifier.
func (r *Registry) Remove(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.marks[id]; !ok {
		return ErrMarkNotFound
	}
	delete(r.marks, id)
	return nil
}

// At returns the marks attached to a line, ordered by identifier.
func (r *Registry) At(line int) []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Mark
	for _, m := range r.marks {
		if m.Line == line {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every mark ordered by line, then identifier.
func (r *Registry) All() []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mark, 0, len(r.marks))
	for _, m := range r.marks {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns a mark by identifier.
func (r *Registry) Get(id ID) (Mark, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.marks[id]
	if !ok {
		return Mark{}, false
	}
	return *m, true
}

// ClearDisplaced drops the displaced flag of a mark, accepting its
// current line as the new anchor.
func (r *Registry) ClearDisplaced(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.marks[id]
	if !ok {
		return ErrMarkNotFound
	}
	m.Displaced = false
	m.Generation = r.generation
	return nil
}

// apply renumbers marks for one document change. Marks below an
// insertion shift down, marks below a removal shift up, and marks on
// removed lines land on the nearest surviving line with the displaced
// flag set.
func (r *Registry) apply(c document.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++

	switch {
	case c.LinesAdded > 0:
		for _, m := range r.marks {
			if m.Line > c.FirstLine {
				m.Line += c.LinesAdded
			}
		}
	case c.LinesRemoved > 0:
		lastRemoved := c.FirstLine + c.LinesRemoved
		for _, m := range r.marks {
			switch {
			case m.Line > lastRemoved:
				m.Line -= c.LinesRemoved
			case m.Line > c.FirstLine:
				// The mark's line is gone. The first line of the
				// change survives the merge, so it is the nearest.
				m.Line = c.FirstLine
				m.Displaced = true
				m.Generation = r.generation
			}
		}
	}

	last := r.doc.LineCount() - 1
	for _, m := range r.marks {
		if m.Line > last {
			m.Line = last
			m.Displaced = true
			m.Generation = r.generation
		}
	}
}
