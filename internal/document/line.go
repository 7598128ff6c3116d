package document

import "sort"

// ParenKind distinguishes opening from closing bracket characters.
type ParenKind uint8

const (
	// ParenOpen marks an opening bracket or quote-like character.
	ParenOpen ParenKind = iota
	// ParenClose marks a closing bracket or quote-like character.
	ParenClose
)

// String returns the string representation of the kind.
func (k ParenKind) String() string {
	if k == ParenClose {
		return "close"
	}
	return "open"
}

// Parenthesis records one bracket-like character found on a line.
// Pos is the byte offset within the line.
type Parenthesis struct {
	Pos  int
	Char rune
	Kind ParenKind
}

// Parentheses is a line's bracket inventory, ordered by position.
type Parentheses []Parenthesis

// InsertSorted inserts elem keeping the list ordered by position.
func (ps Parentheses) InsertSorted(elem Parenthesis) Parentheses {
	i := sort.Search(len(ps), func(i int) bool { return ps[i].Pos >= elem.Pos })
	ps = append(ps, Parenthesis{})
	copy(ps[i+1:], ps[i:])
	ps[i] = elem
	return ps
}

// BraceDepthDelta returns the net change in brace nesting across the
// inventory. Only scope-forming characters count.
func (ps Parentheses) BraceDepthDelta() int {
	delta := 0
	for _, p := range ps {
		switch p.Char {
		case '{', '[':
			delta++
		case '}', ']':
			delta--
		}
	}
	return delta
}

// MinBraceDepth returns the lowest running brace depth reached while
// scanning the inventory left to right, starting from zero. The result
// is never positive. A line that closes a scope before reopening one
// (e.g. "} else {") reports -1 even though its net delta is zero.
func (ps Parentheses) MinBraceDepth() int {
	depth, minDepth := 0, 0
	for _, p := range ps {
		switch p.Char {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth < minDepth {
				minDepth = depth
			}
		}
	}
	return minDepth
}

// Equal reports whether two inventories are identical.
func (ps Parentheses) Equal(other Parentheses) bool {
	if len(ps) != len(other) {
		return false
	}
	for i := range ps {
		if ps[i] != other[i] {
			return false
		}
	}
	return true
}

// LineData is the per-line metadata blob: highlighter end state, fold
// topology, bracket inventory, and revision bookkeeping. It is embedded
// directly in the Line record so metadata never needs remapping when
// lines above are inserted or removed.
type LineData struct {
	foldIndent int
	lexerState any
	parens     Parentheses
	revision   int64
	folded     bool
	hidden     bool
	ifdefedOut bool
	foldedText string
}

// Line is one logical line of the document, without its trailing
// newline. Lines are owned exclusively by the Document and destroyed
// when merged or removed.
type Line struct {
	text string
	data LineData
}

// Text returns the line's content.
func (l *Line) Text() string { return l.text }

// Len returns the content length in bytes, excluding the newline.
func (l *Line) Len() int { return len(l.text) }

// FoldIndent returns the line's fold nesting depth.
func (l *Line) FoldIndent() int { return l.data.foldIndent }

// LexerState returns the opaque highlighter end state for the line, or
// nil if the line has not been highlighted.
func (l *Line) LexerState() any { return l.data.lexerState }

// Parentheses returns the line's bracket inventory.
func (l *Line) Parentheses() Parentheses { return l.data.parens }

// HasParentheses reports whether the line has any bracket inventory.
func (l *Line) HasParentheses() bool { return len(l.data.parens) > 0 }

// Revision returns the document revision at which this line was last
// touched or reconciled.
func (l *Line) Revision() int64 { return l.data.revision }

// Folded reports whether the line is a collapsed fold anchor.
func (l *Line) Folded() bool { return l.data.folded }

// Hidden reports whether the line is hidden beneath a folded ancestor.
// A folded anchor line itself is never hidden.
func (l *Line) Hidden() bool { return l.data.hidden }

// IfdefedOut reports whether the line sits inside a preprocessor-
// disabled region. Such lines are excluded from bracket counting.
func (l *Line) IfdefedOut() bool { return l.data.ifdefedOut }

// FoldedText returns the replacement text shown for a collapsed region
// anchored at this line, or the empty string for the default ellipsis.
func (l *Line) FoldedText() string { return l.data.foldedText }

// copyStateFrom copies derived metadata from src when a line is split.
// Marks are not copied; fold flags reset so the validator can rebuild
// them from the new topology.
func (d *LineData) copyStateFrom(src *LineData) {
	d.foldIndent = src.foldIndent
	d.lexerState = src.lexerState
	d.ifdefedOut = src.ifdefedOut
	d.parens = nil
	d.folded = false
	d.hidden = src.hidden
}
