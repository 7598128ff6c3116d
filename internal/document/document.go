// Package document implements the line-based document model: an ordered
// sequence of Lines with embedded per-line metadata, monotonic revision
// numbers, and edit primitives that emit a single change notification
// per mutating call.
package document

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Errors returned by document operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrLineOutOfRange   = errors.New("line index out of range")
)

// Change describes one applied edit as an absolute character range:
// Removed bytes were deleted at Offset, then Added bytes inserted.
// FirstLine is the index of the first edited line; LinesRemoved and
// LinesAdded describe how the line structure changed.
type Change struct {
	Offset       int
	Removed      int
	Added        int
	FirstLine    int
	LinesRemoved int
	LinesAdded   int
}

// ChangeHandler receives change notifications after each edit.
type ChangeHandler func(Change)

// Document owns an ordered sequence of lines. A document always
// contains at least one (possibly empty) line. Documents are not safe
// for concurrent mutation; a single owner goroutine drives all edits.
type Document struct {
	id            uuid.UUID
	lines         []*Line
	revision      int64
	savedRevision int64
	handlers      []ChangeHandler
}

// New creates an empty document with a single blank line.
func New() *Document {
	return &Document{
		id:    uuid.New(),
		lines: []*Line{{}},
	}
}

// FromString creates a document from initial content. Line endings are
// normalized to LF.
func FromString(text string) *Document {
	d := New()
	d.lines = splitLines(normalize(text))
	return d
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func splitLines(text string) []*Line {
	parts := strings.Split(text, "\n")
	lines := make([]*Line, len(parts))
	for i, p := range parts {
		lines[i] = &Line{text: p}
	}
	return lines
}

// ID returns the document's unique identity.
func (d *Document) ID() uuid.UUID { return d.id }

// Revision returns the current document revision. It increments on
// every successful edit and never decreases.
func (d *Document) Revision() int64 { return d.revision }

// LineCount returns the number of lines. Always at least one.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns the line at index i, or nil when out of range.
func (d *Document) Line(i int) *Line {
	if i < 0 || i >= len(d.lines) {
		return nil
	}
	return d.lines[i]
}

// LineText returns the text of line i, or the empty string when out of
// range.
func (d *Document) LineText(i int) string {
	if l := d.Line(i); l != nil {
		return l.text
	}
	return ""
}

// Text returns the full document content.
func (d *Document) Text() string {
	parts := make([]string, len(d.lines))
	for i, l := range d.lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

// Len returns the total content length in bytes, counting one byte per
// line separator.
func (d *Document) Len() int {
	n := len(d.lines) - 1
	for _, l := range d.lines {
		n += len(l.text)
	}
	return n
}

// LineStartOffset returns the absolute byte offset of the start of line
// i. Offsets are derived by summing preceding line lengths, never
// cached, so they are always consistent after edits.
func (d *Document) LineStartOffset(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(d.lines) {
		i = len(d.lines) - 1
	}
	offset := 0
	for j := 0; j < i; j++ {
		offset += len(d.lines[j].text) + 1
	}
	return offset
}

// OffsetToPoint converts an absolute byte offset to a line/column
// point. Out-of-range offsets clamp to the document bounds.
func (d *Document) OffsetToPoint(offset int) Point {
	if offset < 0 {
		return Point{}
	}
	for i, l := range d.lines {
		if offset <= len(l.text) {
			return Point{Line: i, Column: offset}
		}
		offset -= len(l.text) + 1
	}
	last := len(d.lines) - 1
	return Point{Line: last, Column: len(d.lines[last].text)}
}

// PointToOffset converts a point to an absolute byte offset. The point
// is clamped to valid positions first.
func (d *Document) PointToOffset(p Point) int {
	p = d.ClampPoint(p)
	return d.LineStartOffset(p.Line) + p.Column
}

// ClampPoint clamps a point to the nearest valid position.
func (d *Document) ClampPoint(p Point) Point {
	if p.Line < 0 {
		return Point{}
	}
	if p.Line >= len(d.lines) {
		last := len(d.lines) - 1
		return Point{Line: last, Column: len(d.lines[last].text)}
	}
	if p.Column < 0 {
		p.Column = 0
	}
	if max := len(d.lines[p.Line].text); p.Column > max {
		p.Column = max
	}
	return p
}

// OnChange registers a handler invoked synchronously after every edit.
func (d *Document) OnChange(h ChangeHandler) {
	d.handlers = append(d.handlers, h)
}

func (d *Document) notify(c Change) {
	for _, h := range d.handlers {
		h(c)
	}
}

// touch stamps line i with the current revision.
func (d *Document) touch(i int) {
	d.lines[i].data.revision = d.revision
}

// Insert inserts text at the given absolute byte offset. Text
// containing line separators splits the target line consistently: each
// new line receives a copy of the split line's derived state, marked
// dirty. Emits a single change notification.
func (d *Document) Insert(offset int, text string) error {
	if offset < 0 || offset > d.Len() {
		return ErrOffsetOutOfRange
	}
	if text == "" {
		return nil
	}
	text = normalize(text)

	p := d.OffsetToPoint(offset)
	line := d.lines[p.Line]
	head, tail := line.text[:p.Column], line.text[p.Column:]

	d.revision++

	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		line.text = head + text + tail
		d.touch(p.Line)
		d.notify(Change{Offset: offset, Added: len(text), FirstLine: p.Line})
		return nil
	}

	line.text = head + parts[0]
	added := make([]*Line, len(parts)-1)
	for i, part := range parts[1:] {
		nl := &Line{text: part}
		nl.data.copyStateFrom(&line.data)
		nl.data.revision = d.revision
		added[i] = nl
	}
	added[len(added)-1].text += tail

	d.lines = append(d.lines[:p.Line+1], append(added, d.lines[p.Line+1:]...)...)
	d.touch(p.Line)

	d.notify(Change{
		Offset:     offset,
		Added:      len(text),
		FirstLine:  p.Line,
		LinesAdded: len(parts) - 1,
	})
	return nil
}

// Remove deletes length bytes starting at the given absolute offset.
// Metadata of removed lines is discarded; when the removal crosses line
// boundaries the surviving merged line keeps the first line's metadata,
// marked dirty. Emits a single change notification.
func (d *Document) Remove(offset, length int) error {
	if length < 0 {
		return ErrRangeInvalid
	}
	if offset < 0 || offset+length > d.Len() {
		return ErrOffsetOutOfRange
	}
	if length == 0 {
		return nil
	}

	start := d.OffsetToPoint(offset)
	end := d.OffsetToPoint(offset + length)
	first := d.lines[start.Line]

	d.revision++

	if start.Line == end.Line {
		first.text = first.text[:start.Column] + first.text[end.Column:]
		d.touch(start.Line)
		d.notify(Change{Offset: offset, Removed: length, FirstLine: start.Line})
		return nil
	}

	last := d.lines[end.Line]
	first.text = first.text[:start.Column] + last.text[end.Column:]
	d.lines = append(d.lines[:start.Line+1], d.lines[end.Line+1:]...)
	d.touch(start.Line)

	d.notify(Change{
		Offset:       offset,
		Removed:      length,
		FirstLine:    start.Line,
		LinesRemoved: end.Line - start.Line,
	})
	return nil
}

// Replace removes length bytes at offset and inserts text in their
// place. Emits two change notifications (remove then insert); callers
// needing atomic grouping wrap the pair in a history edit group.
func (d *Document) Replace(offset, length int, text string) error {
	if err := d.Remove(offset, length); err != nil {
		return err
	}
	return d.Insert(offset, text)
}

// TextRange returns the content of the absolute byte range [start, end).
func (d *Document) TextRange(start, end int) string {
	if start < 0 {
		start = 0
	}
	if max := d.Len(); end > max {
		end = max
	}
	if start >= end {
		return ""
	}
	text := d.Text()
	return text[start:end]
}

// Load replaces the entire content, reacting to an external reload.
// All per-line metadata is discarded and a whole-document change is
// emitted.
func (d *Document) Load(text string) {
	oldLen := d.Len()
	oldLines := len(d.lines)
	d.revision++
	d.lines = splitLines(normalize(text))
	for i := range d.lines {
		d.touch(i)
	}
	d.notify(Change{
		Removed:      oldLen,
		Added:        d.Len(),
		LinesRemoved: oldLines - 1,
		LinesAdded:   len(d.lines) - 1,
	})
}

// MarkSaved snapshots the current revision as the saved state. Per-line
// modification queries compare against this snapshot.
func (d *Document) MarkSaved() {
	d.savedRevision = d.revision
}

// IsModified reports whether the document changed since the last save.
func (d *Document) IsModified() bool {
	return d.revision > d.savedRevision
}

// IsLineModified reports whether line i was touched since the last
// save, not merely whether the document as a whole changed.
func (d *Document) IsLineModified(i int) bool {
	if l := d.Line(i); l != nil {
		return l.data.revision > d.savedRevision
	}
	return false
}

// Metadata accessors. Metadata lives on the Line record, so these
// follow line identity across edits above them for free.

// SetFoldIndent sets the fold nesting depth of line i.
func (d *Document) SetFoldIndent(i, indent int) {
	if l := d.Line(i); l != nil {
		l.data.foldIndent = indent
	}
}

// FoldIndent returns the fold nesting depth of line i.
func (d *Document) FoldIndent(i int) int {
	if l := d.Line(i); l != nil {
		return l.data.foldIndent
	}
	return 0
}

// SetLexerState stores the opaque highlighter end state for line i.
func (d *Document) SetLexerState(i int, state any) {
	if l := d.Line(i); l != nil {
		l.data.lexerState = state
	}
}

// LexerState returns the opaque highlighter end state of line i.
func (d *Document) LexerState(i int) any {
	if l := d.Line(i); l != nil {
		return l.data.lexerState
	}
	return nil
}

// SetParentheses replaces the bracket inventory of line i.
func (d *Document) SetParentheses(i int, ps Parentheses) {
	if l := d.Line(i); l != nil {
		l.data.parens = ps
	}
}

// Parentheses returns the bracket inventory of line i.
func (d *Document) Parentheses(i int) Parentheses {
	if l := d.Line(i); l != nil {
		return l.data.parens
	}
	return nil
}

// SetFolded marks line i as a collapsed (or expanded) fold anchor.
func (d *Document) SetFolded(i int, folded bool) {
	if l := d.Line(i); l != nil {
		l.data.folded = folded
	}
}

// SetHidden sets line i's visibility. A hidden line always has an
// ancestor line with folded set; the fold engine maintains this.
func (d *Document) SetHidden(i int, hidden bool) {
	if l := d.Line(i); l != nil {
		l.data.hidden = hidden
	}
}

// SetIfdefedOut flags line i as preprocessor-disabled. Returns true if
// the flag changed.
func (d *Document) SetIfdefedOut(i int) bool {
	if l := d.Line(i); l != nil && !l.data.ifdefedOut {
		l.data.ifdefedOut = true
		return true
	}
	return false
}

// ClearIfdefedOut clears the preprocessor-disabled flag of line i.
// Returns true if the flag changed.
func (d *Document) ClearIfdefedOut(i int) bool {
	if l := d.Line(i); l != nil && l.data.ifdefedOut {
		l.data.ifdefedOut = false
		return true
	}
	return false
}

// SetFoldedText sets the replacement text shown when a region anchored
// at line i is collapsed.
func (d *Document) SetFoldedText(i int, text string) {
	if l := d.Line(i); l != nil {
		l.data.foldedText = text
	}
}
