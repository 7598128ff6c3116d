package highlight

import (
	"testing"

	"github.com/dshills/textcore/internal/document"
)

func spanOfType(spans []Span, tt TokenType) (Span, bool) {
	for _, s := range spans {
		if s.Type == tt {
			return s, true
		}
	}
	return Span{}, false
}

func TestRuleEngineLineComment(t *testing.T) {
	e := GoEngine()
	spans, state := e.HighlightLine(`x := 1 // note`, StateNormal)

	if state != StateNormal {
		t.Errorf("expected normal state, got %v", state)
	}
	comment, ok := spanOfType(spans, TokenComment)
	if !ok {
		t.Fatal("expected a comment span")
	}
	if comment.StartCol != 7 || comment.EndCol != 14 {
		t.Errorf("comment span = [%d,%d), want [7,14)", comment.StartCol, comment.EndCol)
	}
}

func TestRuleEngineBlockCommentSpansLines(t *testing.T) {
	e := GoEngine()

	_, state := e.HighlightLine("foo() /* begin", StateNormal)
	if state != StateBlockComment {
		t.Fatalf("expected block comment state, got %v", state)
	}

	spans, state := e.HighlightLine("all inside", state)
	if state != StateBlockComment {
		t.Errorf("state should persist over fully commented lines")
	}
	if len(spans) != 1 || spans[0].Type != TokenComment || spans[0].EndCol != 10 {
		t.Errorf("expected one comment span across the line, got %+v", spans)
	}

	spans, state = e.HighlightLine("end */ bar()", state)
	if state != StateNormal {
		t.Errorf("state should reset after the terminator")
	}
	comment, ok := spanOfType(spans, TokenComment)
	if !ok || comment.StartCol != 0 || comment.EndCol != 6 {
		t.Errorf("expected comment span [0,6), got %+v", spans)
	}
}

func TestRuleEngineKeywordsAndStrings(t *testing.T) {
	e := GoEngine()
	spans, _ := e.HighlightLine(`if s == "if" {`, StateNormal)

	kw, ok := spanOfType(spans, TokenKeywordControl)
	if !ok {
		t.Fatal("expected a control keyword span")
	}
	if kw.StartCol != 0 || kw.EndCol != 2 {
		t.Errorf("keyword span = [%d,%d), want [0,2)", kw.StartCol, kw.EndCol)
	}

	str, ok := spanOfType(spans, TokenString)
	if !ok {
		t.Fatal("expected a string span")
	}
	if str.StartCol != 8 || str.EndCol != 12 {
		t.Errorf("string span = [%d,%d), want [8,12)", str.StartCol, str.EndCol)
	}
}

func TestScanParensSkipsLiterals(t *testing.T) {
	e := GoEngine()
	line := `f("(") { // (`
	spans, _ := e.HighlightLine(line, StateNormal)

	parens := scanParens(line, spans)
	var chars []rune
	for _, p := range parens {
		chars = append(chars, p.Char)
	}
	if string(chars) != `(){` {
		t.Errorf("expected inventory (){ ignoring literals, got %q", string(chars))
	}
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	if _, ok := r.ByLanguage("go"); !ok {
		t.Error("go engine should be registered")
	}
	if _, ok := r.ByExtension(".go"); !ok {
		t.Error("extension .go should resolve")
	}
	if _, ok := r.ByExtension("go"); !ok {
		t.Error("extension without dot should resolve")
	}
	if _, ok := r.ByExtension(".xyz"); ok {
		t.Error("unknown extension should not resolve")
	}
}

func TestHighlighterStoresFoldIndents(t *testing.T) {
	doc := document.FromString("if (x) {\n  foo();\n}\n")
	h := New(doc, CEngine())
	h.RehighlightAll()

	want := []int{0, 1, 0, 0}
	for i, fi := range want {
		if got := doc.FoldIndent(i); got != fi {
			t.Errorf("line %d fold indent = %d, want %d", i, got, fi)
		}
	}
}

func TestHighlighterElseLineTakesOuterIndent(t *testing.T) {
	doc := document.FromString("if (x) {\n  a;\n} else {\n  b;\n}")
	h := New(doc, CEngine())
	h.RehighlightAll()

	// The "} else {" line dips back to depth 0 before reopening.
	if got := doc.FoldIndent(2); got != 0 {
		t.Errorf("else line fold indent = %d, want 0", got)
	}
	if got := doc.FoldIndent(3); got != 1 {
		t.Errorf("body fold indent = %d, want 1", got)
	}
}

func TestHighlighterPropagationStops(t *testing.T) {
	doc := document.FromString("a = 1;\nb = 2;\nc = 3;\nd = 4;")
	h := New(doc, CEngine())
	h.RehighlightAll()

	rev2 := doc.Line(2).Revision()

	var change document.Change
	doc.OnChange(func(c document.Change) { change = c })
	if err := doc.Insert(0, "x"); err != nil {
		t.Fatal(err)
	}
	first, last := h.Apply(change)

	if first != 0 {
		t.Errorf("pass should start at the edited line, got %d", first)
	}
	// Line 0's state and metadata settle immediately; the pass must
	// not reach line 2.
	if last > 2 {
		t.Errorf("pass should stop before line 2, stopped at %d", last)
	}
	if doc.Line(2).Revision() != rev2 {
		t.Error("untouched line metadata must not be rewritten")
	}
}

func TestHighlighterPropagatesOpenComment(t *testing.T) {
	doc := document.FromString("int x;\nint y;\nint z;")
	h := New(doc, CEngine())
	h.RehighlightAll()

	var change document.Change
	doc.OnChange(func(c document.Change) { change = c })
	if err := doc.Insert(0, "/* "); err != nil {
		t.Fatal(err)
	}
	_, last := h.Apply(change)

	if last != doc.LineCount() {
		t.Errorf("an unterminated comment must repaint to the end, stopped at %d", last)
	}
	for i := 0; i < doc.LineCount(); i++ {
		if doc.LexerState(i) != StateBlockComment {
			t.Errorf("line %d should carry the comment state", i)
		}
	}

	// Closing the comment restores the old states.
	if err := doc.Insert(3, "*/ "); err != nil {
		t.Fatal(err)
	}
	h.Apply(change)
	for i := 0; i < doc.LineCount(); i++ {
		if doc.LexerState(i) != StateNormal {
			t.Errorf("line %d should be back to normal state", i)
		}
	}
}

func TestSpansForLineUsesCache(t *testing.T) {
	doc := document.FromString("x := 1\ny := 2")
	h := New(doc, GoEngine())
	h.RehighlightAll()

	first := h.SpansForLine(0)
	again := h.SpansForLine(0)
	if len(first) == 0 {
		t.Fatal("expected spans for a numeric assignment")
	}
	if &first[0] != &again[0] {
		t.Error("second lookup should come from the cache")
	}
}

func TestSpansForLineIfdefedOut(t *testing.T) {
	doc := document.FromString("#if 0\ndead();\n#endif")
	h := New(doc, CEngine())
	h.RehighlightAll()
	doc.SetIfdefedOut(1)
	h.Apply(document.Change{FirstLine: 1})

	spans := h.SpansForLine(1)
	if len(spans) != 1 || spans[0].Type != TokenDisabledCode {
		t.Errorf("disabled line should get a single disabled span, got %+v", spans)
	}
}

func TestWhitespaceSpans(t *testing.T) {
	spans := appendWhitespaceSpans(nil, "\tx = 1;  ")

	if len(spans) != 2 {
		t.Fatalf("expected tab and trailing spans, got %+v", spans)
	}
	if spans[0].StartCol != 0 || spans[0].EndCol != 1 {
		t.Errorf("tab span = %+v", spans[0])
	}
	if spans[1].StartCol != 7 || spans[1].EndCol != 9 {
		t.Errorf("trailing span = %+v", spans[1])
	}
}

func TestTokenTypeFromString(t *testing.T) {
	if TokenTypeFromString("comment") != TokenComment {
		t.Error("exact name should resolve")
	}
	if TokenTypeFromString("comment.line.double-slash") != TokenComment {
		t.Error("hierarchical name should fall back to parent scope")
	}
	if TokenTypeFromString("nonsense") != TokenNone {
		t.Error("unknown name should map to TokenNone")
	}
}

func TestLuaEngine(t *testing.T) {
	script := `
lexer = {
    language = "shouty",
    extensions = { ".sh" },
    tokenize = function(line, state)
        local spans = {}
        if string.sub(line, 1, 1) == "#" then
            spans[1] = { type = "comment", from = 0, to = #line }
        end
        return spans, 0
    end,
}
`
	e, err := NewLuaEngine(script)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.Language() != "shouty" {
		t.Errorf("unexpected language %q", e.Language())
	}

	spans, state := e.HighlightLine("# hello", StateNormal)
	if state != StateNormal {
		t.Errorf("unexpected state %v", state)
	}
	if len(spans) != 1 || spans[0].Type != TokenComment || spans[0].EndCol != 7 {
		t.Errorf("unexpected spans %+v", spans)
	}

	if spans, _ := e.HighlightLine("plain", StateNormal); len(spans) != 0 {
		t.Errorf("expected no spans, got %+v", spans)
	}
}

func TestLuaEngineRejectsBadScripts(t *testing.T) {
	if _, err := NewLuaEngine(`x = 1`); err != ErrLuaNoLexer {
		t.Errorf("expected ErrLuaNoLexer, got %v", err)
	}
	if _, err := NewLuaEngine(`lexer = { language = "x" }`); err != ErrLuaNoTokenize {
		t.Errorf("expected ErrLuaNoTokenize, got %v", err)
	}
	if _, err := NewLuaEngine(`lexer = { tokenize = function() end }`); err != ErrLuaNoLanguage {
		t.Errorf("expected ErrLuaNoLanguage, got %v", err)
	}
}

func TestChromaEngine(t *testing.T) {
	e := NewChromaEngine("go")
	if e == nil {
		t.Fatal("chroma should know go")
	}

	spans, _ := e.HighlightLine("x := 42", StateNormal)
	num, ok := spanOfType(spans, TokenNumber)
	if !ok {
		t.Fatalf("expected a number span, got %+v", spans)
	}
	if num.StartCol != 5 || num.EndCol != 7 {
		t.Errorf("number span = [%d,%d), want [5,7)", num.StartCol, num.EndCol)
	}
}

func TestThemeStyleFallback(t *testing.T) {
	theme := DefaultTheme()

	styled := theme.StyleFor(TokenKeyword)
	if styled.Foreground == theme.Foreground {
		t.Error("keywords should not use the default foreground")
	}
	fallback := theme.StyleFor(tokenTypeCount)
	if fallback.Foreground != theme.Foreground {
		t.Error("unknown token types should fall back to the foreground")
	}
}
