// Package autocomplete decides how typed brackets and quotes behave:
// whether a closing character is inserted automatically, whether a
// typed closer skips over an existing one, and whether backspace after
// an auto-inserted pair removes both characters as one unit.
//
// The acceptance rule for brackets is a local error-count heuristic,
// not strict stack matching: a typed bracket that reduces the number
// of mismatches inside the enclosing brace block suppresses
// auto-insertion, because the user is evidently repairing existing
// code rather than opening a new pair.
package autocomplete

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/document"
)

// BalancePolicy selects the acceptance rule for bracket auto-insertion.
type BalancePolicy int

const (
	// PolicyErrorDelta suppresses auto-insertion when the typed
	// bracket reduces the enclosing block's mismatch count.
	PolicyErrorDelta BalancePolicy = iota
	// PolicyAlways always auto-inserts when the context allows it.
	PolicyAlways
	// PolicyNever disables bracket auto-insertion entirely.
	PolicyNever
)

// Settings controls the completer's behavior.
type Settings struct {
	AutoInsertBrackets bool
	SurroundBrackets   bool
	AutoInsertQuotes   bool
	SurroundQuotes     bool
	OverwriteClosing   bool
	Policy             BalancePolicy
}

// DefaultSettings enables everything with the error-delta policy.
func DefaultSettings() Settings {
	return Settings{
		AutoInsertBrackets: true,
		SurroundBrackets:   true,
		AutoInsertQuotes:   true,
		SurroundQuotes:     true,
		Policy:             PolicyErrorDelta,
	}
}

// ContextFunc reports a property of a document position, typically
// derived from the highlighter's styled spans.
type ContextFunc func(p document.Point) bool

// Completer implements bracket and quote completion over a document.
type Completer struct {
	doc      *document.Document
	settings Settings

	// IsInComment and IsInString gate completion by lexical context.
	// Nil predicates mean "never", which disables the gating.
	IsInComment ContextFunc
	IsInString  ContextFunc

	// set when Enter after '{' auto-closed the block, consumed by the
	// next typed '}'.
	allowSkipBlockEnd bool
}

// New creates a completer over a document.
func New(doc *document.Document, settings Settings) *Completer {
	return &Completer{doc: doc, settings: settings}
}

// Settings returns the active settings.
func (c *Completer) Settings() Settings { return c.settings }

// SetSettings replaces the active settings.
func (c *Completer) SetSettings(s Settings) { c.settings = s }

// Result describes what a typed character should do.
type Result struct {
	// AutoText is inserted after the typed text with the caret kept
	// before it (the auto-inserted closer).
	AutoText string
	// Skipped is how many existing characters the caret moves over
	// instead of inserting anything.
	Skipped int
	// Surround, when non-empty, replaces the whole selection.
	Surround string
}

// countBracket feeds one character into a running mismatch count.
// Closers without a matching opener accumulate as errors; openers
// without closers remain in stillOpen.
func countBracket(open, closer byte, ch byte, errors, stillOpen *int) {
	if ch == open {
		*stillOpen++
	} else if ch == closer {
		*stillOpen--
	}
	if *stillOpen < 0 {
		*errors -= *stillOpen
		*stillOpen = 0
	}
}

// countBrackets counts mismatches of one bracket pair over the
// document offset range [from, end), using the per-line bracket
// inventories so brackets inside strings and comments are ignored.
// Preprocessor-disabled lines do not participate.
func (c *Completer) countBrackets(from, end int, open, closer byte, errors, stillOpen *int) {
	start := c.doc.OffsetToPoint(from)
	for line := start.Line; line < c.doc.LineCount(); line++ {
		lineStart := c.doc.LineStartOffset(line)
		if lineStart >= end {
			break
		}
		rec := c.doc.Line(line)
		if rec == nil || rec.IfdefedOut() {
			continue
		}
		for _, paren := range rec.Parentheses() {
			position := lineStart + paren.Pos
			if position < from || position >= end {
				continue
			}
			countBracket(open, closer, byte(paren.Char), errors, stillOpen)
		}
	}
}

// pairFor returns the open and closer characters of the pair a bracket
// belongs to.
func pairFor(ch byte) (open, closer byte, ok bool) {
	switch ch {
	case '(', ')':
		return '(', ')', true
	case '[', ']':
		return '[', ']', true
	case '{', '}':
		return '{', '}', true
	}
	return 0, 0, false
}

// blockBounds returns the offsets bounding the brace block enclosing
// the position: just past the nearest unmatched '{' above, and the
// nearest unmatched '}' below. Without either, the document bounds.
func (c *Completer) blockBounds(pos document.Point) (int, int) {
	offset := c.doc.PointToOffset(pos)

	start := 0
	depth := 0
scanBack:
	for line := pos.Line; line >= 0; line-- {
		parens := c.doc.Parentheses(line)
		lineStart := c.doc.LineStartOffset(line)
		for i := len(parens) - 1; i >= 0; i-- {
			p := parens[i]
			if lineStart+p.Pos >= offset {
				continue
			}
			switch p.Char {
			case '}':
				depth++
			case '{':
				if depth == 0 {
					start = lineStart + p.Pos + 1
					break scanBack
				}
				depth--
			}
		}
	}

	end := c.doc.Len()
	depth = 0
scanForward:
	for line := pos.Line; line < c.doc.LineCount(); line++ {
		lineStart := c.doc.LineStartOffset(line)
		for _, p := range c.doc.Parentheses(line) {
			if lineStart+p.Pos < offset {
				continue
			}
			switch p.Char {
			case '{':
				depth++
			case '}':
				if depth == 0 {
					end = lineStart + p.Pos
					break scanForward
				}
				depth--
			}
		}
	}

	return start, end
}

// fixesBracketsError reports whether inserting the character at the
// position reduces the mismatch count of its enclosing block. The
// comparison includes unclosed openers, so "(" typed in front of a
// stray ")" counts as a repair.
func (c *Completer) fixesBracketsError(typed byte, pos document.Point) bool {
	open, closer, ok := pairFor(typed)
	if !ok {
		return false
	}
	blockStart, blockEnd := c.blockBounds(pos)
	offset := c.doc.PointToOffset(pos)

	errors, stillOpen := 0, 0
	c.countBrackets(blockStart, blockEnd, open, closer, &errors, &stillOpen)
	before := errors + stillOpen

	errors, stillOpen = 0, 0
	c.countBrackets(blockStart, offset, open, closer, &errors, &stillOpen)
	countBracket(open, closer, typed, &errors, &stillOpen)
	c.countBrackets(offset, blockEnd, open, closer, &errors, &stillOpen)
	after := errors + stillOpen

	return after < before
}

// AutoComplete decides the effect of typing text at the caret.
// selection holds the currently selected text, empty when none.
func (c *Completer) AutoComplete(pos document.Point, typed string, selection string, skipChars bool) Result {
	checkBlockEnd := c.allowSkipBlockEnd
	c.allowSkipBlockEnd = false

	if selection != "" {
		if sur := c.surroundText(typed, selection); sur != "" {
			return Result{Surround: sur}
		}
		return Result{}
	}
	if typed == "" {
		return Result{}
	}

	ch := typed[0]
	lookAhead := c.charAt(pos)

	if c.settings.OverwriteClosing && len(typed) == 1 && lookAhead == ch {
		skipChars = true
	}

	if isQuote(ch) {
		if !c.settings.AutoInsertQuotes || c.inLiteral(pos) {
			return Result{}
		}
		return c.matchQuote(pos, ch, lookAhead, skipChars)
	}

	if isBracket(ch) {
		if !c.settings.AutoInsertBrackets || c.settings.Policy == PolicyNever {
			return Result{}
		}
		if c.inLiteral(pos) {
			return Result{}
		}
		if c.settings.Policy == PolicyErrorDelta && c.fixesBracketsError(ch, pos) {
			return Result{}
		}
		res := c.matchBracket(ch, lookAhead, skipChars)

		// A '}' typed right after Enter auto-closed the block skips
		// over the inserted closer, including interleaved whitespace.
		if checkBlockEnd && ch == '}' && skipChars && res.Skipped == 0 {
			offset := c.doc.PointToOffset(pos)
			skip := 0
			for offset+skip < c.doc.Len() {
				b := c.byteAt(offset + skip)
				if b == ' ' || b == '\t' || b == '\n' {
					skip++
					continue
				}
				if b == '}' {
					res.Skipped = skip + 1
				}
				break
			}
		}
		return res
	}

	return Result{}
}

// matchBracket produces the auto-insert or skip outcome for one typed
// bracket character.
func (c *Completer) matchBracket(ch, lookAhead byte, skipChars bool) Result {
	switch ch {
	case '(':
		return Result{AutoText: ")"}
	case '[':
		return Result{AutoText: "]"}
	case '{':
		return Result{}
	case ')', ']', '}':
		if skipChars && lookAhead == ch {
			return Result{Skipped: 1}
		}
	}
	return Result{}
}

// matchQuote produces the auto-insert or skip outcome for a typed
// quote character.
func (c *Completer) matchQuote(pos document.Point, ch, lookAhead byte, skipChars bool) Result {
	if skipChars && lookAhead == ch {
		return Result{Skipped: 1}
	}
	// Don't pair a quote glued to a word or another quote, as in
	// typing the second half of "it's".
	if isWordByte(lookAhead) || isQuote(lookAhead) {
		return Result{}
	}
	behind := c.charBefore(pos)
	if isWordByte(behind) || behind == ch {
		return Result{}
	}
	return Result{AutoText: string(ch)}
}

// AutoBackspace reports whether backspacing at the position should
// remove an empty bracket or quote pair as one unit, and deletes both
// characters when so.
func (c *Completer) AutoBackspace(pos document.Point) (bool, error) {
	if !c.settings.AutoInsertBrackets {
		return false, nil
	}
	offset := c.doc.PointToOffset(pos)
	if offset == 0 {
		return false, nil
	}

	lookAhead := c.byteAt(offset)
	lookBehind := c.byteAt(offset - 1)
	var lookFurtherBehind byte
	if offset >= 2 {
		lookFurtherBehind = c.byteAt(offset - 2)
	}

	// Deleting an opener that repairs a mismatch must not take the
	// closer with it.
	if lookBehind == '(' || lookBehind == '[' || lookBehind == '{' {
		open, closer, _ := pairFor(lookBehind)
		blockStart, blockEnd := c.blockBounds(pos)

		errors, stillOpen := 0, 0
		c.countBrackets(blockStart, blockEnd, open, closer, &errors, &stillOpen)
		before := errors + stillOpen

		errors, stillOpen = 0, 0
		c.countBrackets(blockStart, offset-1, open, closer, &errors, &stillOpen)
		c.countBrackets(offset, blockEnd, open, closer, &errors, &stillOpen)
		after := errors + stillOpen

		if after < before {
			return false, nil
		}
	}

	pair := lookBehind == '(' && lookAhead == ')' ||
		lookBehind == '[' && lookAhead == ']' ||
		lookBehind == '{' && lookAhead == '}' ||
		lookBehind == '"' && lookAhead == '"' && lookFurtherBehind != '\\' ||
		lookBehind == '\'' && lookAhead == '\'' && lookFurtherBehind != '\\'
	if !pair {
		return false, nil
	}
	if c.IsInComment != nil && c.IsInComment(pos) {
		return false, nil
	}

	if err := c.doc.Remove(offset-1, 2); err != nil {
		return false, err
	}
	return true, nil
}

// CloseBlockOnEnter decides whether pressing Enter right after '{'
// should also insert a closing brace. It returns the closer text
// (empty when none is wanted). The caller places it on its own line
// below the caret. A confirmed insertion arms skip-over for the next
// typed '}'.
func (c *Completer) CloseBlockOnEnter(pos document.Point) string {
	if !c.settings.AutoInsertBrackets || c.settings.Policy == PolicyNever {
		return ""
	}
	if c.charBefore(pos) != '{' {
		return ""
	}
	if c.inLiteral(pos) {
		return ""
	}

	// Only close when an extra opening brace actually exists: the
	// document must end at positive brace depth, or the rest of the
	// line already starts with the closer.
	rest := strings.TrimSpace(c.doc.LineText(pos.Line)[min(pos.Column, len(c.doc.LineText(pos.Line))):])
	if c.documentBraceDepth() <= 0 && (rest == "" || rest[0] != '}') {
		return ""
	}

	// An already indented next line means the block has a body the
	// user is about to extend, not an unclosed brace to repair.
	if c.isNextLineIndented(pos.Line) {
		return ""
	}

	c.allowSkipBlockEnd = true
	return "}"
}

// documentBraceDepth is the running brace depth at the end of the
// document, positive when openers outnumber closers.
func (c *Completer) documentBraceDepth() int {
	depth := 0
	for line := 0; line < c.doc.LineCount(); line++ {
		depth += c.doc.Parentheses(line).BraceDepthDelta()
		if depth < 0 {
			depth = 0
		}
	}
	return depth
}

// isNextLineIndented reports whether the first non-blank line below
// is indented deeper than the given line.
func (c *Completer) isNextLineIndented(line int) bool {
	indent := indentWidth(c.doc.LineText(line))
	for next := line + 1; next < c.doc.LineCount(); next++ {
		text := c.doc.LineText(next)
		if strings.TrimSpace(text) == "" {
			continue
		}
		return indentWidth(text) > indent
	}
	return false
}

func indentWidth(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return i
		}
	}
	return len(text)
}

// surroundText wraps a selection in the typed bracket or quote pair.
// Returns the full replacement for the selection.
func (c *Completer) surroundText(typed, selection string) string {
	if typed == "" {
		return ""
	}
	ch := typed[0]
	if isQuote(ch) {
		if !c.settings.SurroundQuotes {
			return ""
		}
		return string(ch) + selection + string(ch)
	}
	if !c.settings.SurroundBrackets {
		return ""
	}
	switch ch {
	case '(':
		return "(" + selection + ")"
	case '[':
		return "[" + selection + "]"
	case '{':
		if strings.Contains(selection, "\n") {
			// Multi-line selections get the braces on their own lines.
			body := selection
			if !strings.HasPrefix(body, "\n") {
				body = "\n" + body
			}
			if strings.HasSuffix(body, "\n") {
				return "{" + body + "}\n"
			}
			return "{" + body + "\n}"
		}
		return "{" + selection + "}"
	}
	return ""
}

// inLiteral reports whether the position sits inside a comment or
// string according to the context predicates.
func (c *Completer) inLiteral(pos document.Point) bool {
	if c.IsInComment != nil && c.IsInComment(pos) {
		return true
	}
	if c.IsInString != nil && c.IsInString(pos) {
		return true
	}
	return false
}

// charAt returns the byte at the position, 0 past the line end.
func (c *Completer) charAt(pos document.Point) byte {
	text := c.doc.LineText(pos.Line)
	if pos.Column < len(text) {
		return text[pos.Column]
	}
	return 0
}

// charBefore returns the byte before the position on the same line.
func (c *Completer) charBefore(pos document.Point) byte {
	text := c.doc.LineText(pos.Line)
	if pos.Column > 0 && pos.Column <= len(text) {
		return text[pos.Column-1]
	}
	return 0
}

// byteAt returns the document byte at the offset, '\n' on separators.
func (c *Completer) byteAt(offset int) byte {
	p := c.doc.OffsetToPoint(offset)
	text := c.doc.LineText(p.Line)
	if p.Column < len(text) {
		return text[p.Column]
	}
	if offset < c.doc.Len() {
		return '\n'
	}
	return 0
}

func isQuote(ch byte) bool {
	return ch == '"' || ch == '\'' || ch == '`'
}

func isBracket(ch byte) bool {
	switch ch {
	case '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

func isWordByte(ch byte) bool {
	if ch >= utf8.RuneSelf {
		return true
	}
	r := rune(ch)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
