package highlight

import (
	"unicode/utf8"

	"github.com/dshills/textcore/internal/document"
)

// Highlighter drives incremental highlighting over a document. Edits
// trigger a pass that starts at the first edited line and continues
// until line metadata stops changing, so an edit inside a function
// body does not retokenize the whole file.
//
// Each pass stores three things per line on the document: the engine
// state at the line's end, the bracket inventory, and the folding
// indent. Styled spans are produced lazily through SpansForLine and
// cached per line.
type Highlighter struct {
	doc    *document.Document
	engine Engine

	showWhitespace bool

	cache    map[int]cachedSpans
	maxCache int
}

// cachedSpans holds styled spans for one line, valid while the line's
// revision is unchanged.
type cachedSpans struct {
	revision int64
	spans    []Span
}

// New creates a highlighter for a document. With a nil engine, lines
// get no styled spans but bracket inventories and folding indents are
// still maintained, so folding and bracket matching keep working on
// file types without a lexer.
func New(doc *document.Document, engine Engine) *Highlighter {
	return &Highlighter{
		doc:      doc,
		engine:   engine,
		cache:    make(map[int]cachedSpans),
		maxCache: 2000,
	}
}

// SetEngine swaps the active engine and rescans the document.
func (h *Highlighter) SetEngine(engine Engine) {
	h.engine = engine
	h.RehighlightAll()
}

// Engine returns the active engine, which may be nil.
func (h *Highlighter) Engine() Engine { return h.engine }

// SetShowWhitespace toggles whitespace spans in SpansForLine output.
func (h *Highlighter) SetShowWhitespace(on bool) {
	if h.showWhitespace != on {
		h.showWhitespace = on
		h.cache = make(map[int]cachedSpans)
	}
}

// RehighlightAll rescans every line.
func (h *Highlighter) RehighlightAll() {
	h.cache = make(map[int]cachedSpans)
	h.process(0, h.doc.LineCount())
}

// Apply reacts to a document change. It rescans from the first edited
// line and reports the half-open line range whose metadata or spans
// may have changed.
func (h *Highlighter) Apply(c document.Change) (first, last int) {
	// Shifted line numbers invalidate every cached line at or after
	// the edit.
	for line := range h.cache {
		if line >= c.FirstLine {
			delete(h.cache, line)
		}
	}

	minLines := 1 + c.LinesAdded
	return c.FirstLine, h.process(c.FirstLine, minLines)
}

// process rescans lines starting at first. At least minLines lines are
// scanned; beyond that the pass stops at the first line whose stored
// end state and folding indent match the recomputed values, because
// every following line would come out identical.
func (h *Highlighter) process(first, minLines int) int {
	total := h.doc.LineCount()
	if first >= total {
		return total
	}

	state := h.stateBefore(first)
	depth := h.depthBefore(first)

	line := first
	for ; line < total; line++ {
		text := h.doc.LineText(line)

		var spans []Span
		endState := state
		if h.engine != nil {
			spans, endState = h.engine.HighlightLine(text, state)
		}

		parens := scanParens(text, spans)
		foldIndent := depth + parens.MinBraceDepth()
		if foldIndent < 0 {
			foldIndent = 0
		}

		scanned := line - first + 1
		if scanned > minLines &&
			sameState(h.doc.LexerState(line), endState) &&
			h.doc.FoldIndent(line) == foldIndent &&
			h.doc.Parentheses(line).Equal(parens) {
			// Stable again; everything below is unaffected.
			return line
		}

		h.doc.SetLexerState(line, endState)
		h.doc.SetParentheses(line, parens)
		h.doc.SetFoldIndent(line, foldIndent)
		delete(h.cache, line)

		state = endState
		depth += parens.BraceDepthDelta()
		if depth < 0 {
			depth = 0
		}
	}
	return line
}

// stateBefore returns the engine state carried into a line.
func (h *Highlighter) stateBefore(line int) LexerState {
	if line == 0 {
		return StateNormal
	}
	if s, ok := h.doc.LexerState(line - 1).(LexerState); ok {
		return s
	}
	return StateNormal
}

// depthBefore reconstructs the bracket nesting depth at the start of a
// line from the previous line's stored metadata. The folding indent of
// a line is its entry depth plus the lowest depth dip inside it, so
// the entry depth falls out by subtraction.
func (h *Highlighter) depthBefore(line int) int {
	if line == 0 {
		return 0
	}
	prev := line - 1
	parens := h.doc.Parentheses(prev)
	depth := h.doc.FoldIndent(prev) - parens.MinBraceDepth() + parens.BraceDepthDelta()
	if depth < 0 {
		depth = 0
	}
	return depth
}

// SpansForLine returns the styled spans for a line, computing and
// caching them on demand.
func (h *Highlighter) SpansForLine(line int) []Span {
	rec := h.doc.Line(line)
	if rec == nil {
		return nil
	}
	if cached, ok := h.cache[line]; ok && cached.revision == rec.Revision() {
		return cached.spans
	}

	var spans []Span
	if rec.IfdefedOut() {
		spans = []Span{{Type: TokenDisabledCode, StartCol: 0, EndCol: rec.Len()}}
	} else if h.engine != nil {
		spans, _ = h.engine.HighlightLine(rec.Text(), h.stateBefore(line))
	}
	if h.showWhitespace {
		spans = appendWhitespaceSpans(spans, rec.Text())
	}

	if len(h.cache) >= h.maxCache {
		h.evict()
	}
	h.cache[line] = cachedSpans{revision: rec.Revision(), spans: spans}
	return spans
}

// evict drops about a quarter of the cached lines.
func (h *Highlighter) evict() {
	toRemove := len(h.cache) / 4
	if toRemove < 16 {
		toRemove = 16
	}
	for line := range h.cache {
		delete(h.cache, line)
		toRemove--
		if toRemove == 0 {
			break
		}
	}
}

func sameState(stored any, computed LexerState) bool {
	s, ok := stored.(LexerState)
	return ok && s == computed
}

// scanParens builds the bracket inventory for a line. Brackets inside
// comment or string spans do not count.
func scanParens(text string, spans []Span) document.Parentheses {
	var parens document.Parentheses
	for i := 0; i < len(text); i++ {
		var kind document.ParenKind
		switch text[i] {
		case '(', '{', '[':
			kind = document.ParenOpen
		case ')', '}', ']':
			kind = document.ParenClose
		default:
			continue
		}
		if span, ok := SpanAt(spans, i); ok && span.Type.IsLiteral() {
			continue
		}
		parens = append(parens, document.Parenthesis{
			Pos:  i,
			Char: rune(text[i]),
			Kind: kind,
		})
	}
	return parens
}

// appendWhitespaceSpans adds spans marking tabs and trailing spaces.
func appendWhitespaceSpans(spans []Span, text string) []Span {
	for i := 0; i < len(text); i++ {
		if text[i] == '\t' {
			spans = append(spans, Span{Type: TokenWhitespace, StartCol: i, EndCol: i + 1})
		}
	}
	trail := len(text)
	for trail > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:trail])
		if r != ' ' && r != '\t' {
			break
		}
		trail -= size
	}
	if trail < len(text) {
		spans = append(spans, Span{Type: TokenWhitespace, StartCol: trail, EndCol: len(text)})
	}
	return spans
}
