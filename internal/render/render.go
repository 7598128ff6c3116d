// Package render turns document state into logical paint
// instructions: per visible line, the styled text segments plus the
// decorations a backend draws over them (cursors, selections, fold
// placeholders, matching parentheses, gutter marks). It knows nothing
// about terminals or pixels; cmd/textcore maps its output onto a
// concrete screen.
package render

import (
	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
	"github.com/dshills/textcore/internal/fold"
	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/marks"
)

// Segment is a run of line text drawn in one style.
type Segment struct {
	Text  string
	Type  highlight.TokenType
	Style highlight.Style
}

// ColSpan is a half-open column range within a line.
type ColSpan struct {
	Start, End int
}

// ParenDecor marks one bracket column for match highlighting.
type ParenDecor struct {
	Col      int
	Mismatch bool
}

// LinePaint is everything a backend needs to draw one visible line.
type LinePaint struct {
	Line        int
	Text        string
	Segments    []Segment
	Folded      bool
	Placeholder string
	Current     bool
	CursorCols  []int
	Selections  []ColSpan
	Parens      []ParenDecor
	Marks       []marks.Kind
}

// View assembles paint instructions from the core components.
type View struct {
	doc     *document.Document
	hl      *highlight.Highlighter
	folds   *fold.Engine
	marks   *marks.Registry
	theme   *highlight.Theme
	display config.DisplaySettings
}

// NewView creates a view. The marks registry may be nil.
func NewView(doc *document.Document, hl *highlight.Highlighter, folds *fold.Engine, reg *marks.Registry, theme *highlight.Theme, display config.DisplaySettings) *View {
	if theme == nil {
		theme = highlight.DefaultTheme()
	}
	v := &View{doc: doc, hl: hl, folds: folds, marks: reg, theme: theme, display: display}
	hl.SetShowWhitespace(display.VisualizeWhitespace)
	return v
}

// SetDisplay swaps the display settings.
func (v *View) SetDisplay(d config.DisplaySettings) {
	v.display = d
	v.hl.SetShowWhitespace(d.VisualizeWhitespace)
}

// Theme returns the active theme.
func (v *View) Theme() *highlight.Theme { return v.theme }

// SetTheme replaces the active theme.
func (v *View) SetTheme(t *highlight.Theme) {
	if t != nil {
		v.theme = t
	}
}

// Paint renders up to height visible lines starting at the first
// visible line at or after top, applying the cursors' carets and
// selections.
func (v *View) Paint(top, height int, mc *cursor.MultiCursor) []LinePaint {
	if height <= 0 {
		return nil
	}
	line := top
	if line < 0 {
		line = 0
	}
	if rec := v.doc.Line(line); rec != nil && rec.Hidden() {
		line = v.folds.NextVisible(line)
	}

	mainLine := -1
	if mc != nil {
		mainLine = mc.Main().Position.Line
	}

	out := make([]LinePaint, 0, height)
	for len(out) < height && line < v.doc.LineCount() {
		out = append(out, v.paintLine(line, mainLine, mc))
		next := v.folds.NextVisible(line)
		if next == line {
			break
		}
		line = next
	}
	return out
}

// paintLine builds the paint record for one line.
func (v *View) paintLine(line, mainLine int, mc *cursor.MultiCursor) LinePaint {
	text := v.doc.LineText(line)
	lp := LinePaint{
		Line:    line,
		Text:    text,
		Current: v.display.HighlightCurrentLine && line == mainLine,
	}

	lp.Segments = v.segments(line, text)

	if rec := v.doc.Line(line); rec != nil && rec.Folded() {
		lp.Folded = true
		lp.Placeholder = v.folds.Placeholder(line)
	}

	if mc != nil {
		for _, c := range mc.Cursors() {
			if c.Position.Line == line {
				lp.CursorCols = append(lp.CursorCols, c.Position.Column)
			}
			if s := selectionOnLine(c, line, len(text)); s != nil {
				lp.Selections = append(lp.Selections, *s)
			}
		}
		if v.display.HighlightMatchingParen && mc.Main().Position.Line == line {
			lp.Parens = v.parenDecors(mc.Main().Position)
		}
	}

	if v.marks != nil {
		for _, m := range v.marks.At(line) {
			lp.Marks = append(lp.Marks, m.Kind)
		}
	}
	return lp
}

// segments splits the line text along its styled spans. Gaps between
// spans come out with the default style.
func (v *View) segments(line int, text string) []Segment {
	spans := v.hl.SpansForLine(line)
	var segs []Segment
	col := 0
	emit := func(end int, tt highlight.TokenType) {
		if end <= col || col >= len(text) {
			return
		}
		if end > len(text) {
			end = len(text)
		}
		segs = append(segs, Segment{
			Text:  text[col:end],
			Type:  tt,
			Style: v.theme.StyleFor(tt),
		})
		col = end
	}
	for _, sp := range spans {
		if sp.StartCol > col {
			emit(sp.StartCol, highlight.TokenNone)
		}
		emit(sp.EndCol, sp.Type)
	}
	emit(len(text), highlight.TokenNone)
	return segs
}

// selectionOnLine clips a cursor's selection to one line.
func selectionOnLine(c cursor.Cursor, line, lineLen int) *ColSpan {
	if !c.HasSelection() {
		return nil
	}
	start, end := c.Start(), c.End()
	if line < start.Line || line > end.Line {
		return nil
	}
	s := ColSpan{Start: 0, End: lineLen}
	if line == start.Line {
		s.Start = start.Column
	}
	if line == end.Line {
		s.End = end.Column
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return &s
}

// parenDecors highlights the bracket at the caret and its match. An
// unmatched bracket gets the mismatch decoration.
func (v *View) parenDecors(pos document.Point) []ParenDecor {
	at, ok := parenAt(v.doc, pos)
	if !ok {
		return nil
	}
	match, found := MatchParen(v.doc, document.Point{Line: pos.Line, Column: at.Pos})
	if !found {
		return []ParenDecor{{Col: at.Pos, Mismatch: true}}
	}
	decors := []ParenDecor{{Col: at.Pos}}
	if match.Line == pos.Line {
		decors = append(decors, ParenDecor{Col: match.Column})
	}
	return decors
}

// parenAt finds a bracket touching the caret: at the caret column, or
// just before it.
func parenAt(doc *document.Document, pos document.Point) (document.Parenthesis, bool) {
	for _, p := range doc.Parentheses(pos.Line) {
		if p.Pos == pos.Column || p.Pos == pos.Column-1 {
			return p, true
		}
	}
	return document.Parenthesis{}, false
}

// MatchParen finds the bracket matching the one at the position,
// scanning the per-line inventories. The bool result reports whether
// a match exists.
func MatchParen(doc *document.Document, pos document.Point) (document.Point, bool) {
	var target document.Parenthesis
	found := false
	for _, p := range doc.Parentheses(pos.Line) {
		if p.Pos == pos.Column {
			target = p
			found = true
			break
		}
	}
	if !found {
		return document.Point{}, false
	}

	open, closer := partner(target.Char)
	if open == 0 {
		return document.Point{}, false
	}

	if target.Kind == document.ParenOpen {
		depth := 0
		for line := pos.Line; line < doc.LineCount(); line++ {
			for _, p := range doc.Parentheses(line) {
				if line == pos.Line && p.Pos <= pos.Column {
					continue
				}
				switch p.Char {
				case open:
					depth++
				case closer:
					if depth == 0 {
						return document.Point{Line: line, Column: p.Pos}, true
					}
					depth--
				}
			}
		}
		return document.Point{}, false
	}

	depth := 0
	for line := pos.Line; line >= 0; line-- {
		parens := doc.Parentheses(line)
		for i := len(parens) - 1; i >= 0; i-- {
			p := parens[i]
			if line == pos.Line && p.Pos >= pos.Column {
				continue
			}
			switch p.Char {
			case closer:
				depth++
			case open:
				if depth == 0 {
					return document.Point{Line: line, Column: p.Pos}, true
				}
				depth--
			}
		}
	}
	return document.Point{}, false
}

// partner returns the open and close runes of the pair a bracket rune
// belongs to, or zeros for a non-bracket.
func partner(ch rune) (open, closer rune) {
	switch ch {
	case '(', ')':
		return '(', ')'
	case '[', ']':
		return '[', ']'
	case '{', '}':
		return '{', '}'
	}
	return 0, 0
}
