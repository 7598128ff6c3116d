package render

import (
	"sort"
	"testing"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
	"github.com/dshills/textcore/internal/fold"
	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/marks"
)

func newView(t *testing.T, text string) (*document.Document, *View) {
	t.Helper()
	doc := document.FromString(text)
	h := highlight.New(doc, highlight.GoEngine())
	h.Apply(document.Change{FirstLine: 0, LinesAdded: doc.LineCount() - 1})
	doc.OnChange(func(c document.Change) { h.Apply(c) })
	folds := fold.NewEngine(doc)
	v := NewView(doc, h, folds, marks.NewRegistry(doc), nil, config.DefaultDisplaySettings())
	return doc, v
}

func TestPaintCoversText(t *testing.T) {
	_, v := newView(t, "func main() {\n\treturn\n}\n")
	mc := cursor.New(document.Point{})
	paints := v.Paint(0, 10, mc)
	if len(paints) < 3 {
		t.Fatalf("painted %d lines", len(paints))
	}
	joined := ""
	for _, seg := range paints[0].Segments {
		joined += seg.Text
	}
	if joined != "func main() {" {
		t.Fatalf("segments join to %q", joined)
	}
}

func TestPaintKeywordStyled(t *testing.T) {
	_, v := newView(t, "func main() {\n}\n")
	paints := v.Paint(0, 1, nil)
	found := false
	for _, seg := range paints[0].Segments {
		if seg.Text == "func" && seg.Type == highlight.TokenKeyword {
			found = true
		}
	}
	if !found {
		t.Fatal("func not painted as keyword")
	}
}

func TestPaintSkipsHiddenLines(t *testing.T) {
	doc, v := newView(t, "if a {\n\tb()\n\tc()\n}\n")
	fold.NewEngine(doc).Fold(0)
	paints := v.Paint(0, 10, nil)
	for _, p := range paints {
		if p.Line == 1 || p.Line == 2 {
			t.Fatalf("hidden line %d painted", p.Line)
		}
	}
	if !paints[0].Folded || paints[0].Placeholder == "" {
		t.Fatalf("anchor paint = %+v, want folded with placeholder", paints[0])
	}
}

func TestPaintCurrentLineAndCursor(t *testing.T) {
	_, v := newView(t, "aa\nbb\n")
	mc := cursor.New(document.Point{Line: 1, Column: 1})
	paints := v.Paint(0, 5, mc)
	if paints[0].Current {
		t.Fatal("line 0 marked current")
	}
	if !paints[1].Current {
		t.Fatal("line 1 not marked current")
	}
	if len(paints[1].CursorCols) != 1 || paints[1].CursorCols[0] != 1 {
		t.Fatalf("cursor cols = %v", paints[1].CursorCols)
	}
}

func TestPaintMultiLineSelection(t *testing.T) {
	_, v := newView(t, "aaaa\nbbbb\ncccc\n")
	mc := cursor.FromCursors(cursor.Select(
		document.Point{Line: 0, Column: 2},
		document.Point{Line: 2, Column: 1},
	))
	paints := v.Paint(0, 3, mc)
	if got := paints[0].Selections; len(got) != 1 || got[0] != (ColSpan{Start: 2, End: 4}) {
		t.Fatalf("line 0 selections = %v", got)
	}
	if got := paints[1].Selections; len(got) != 1 || got[0] != (ColSpan{Start: 0, End: 4}) {
		t.Fatalf("line 1 selections = %v", got)
	}
	if got := paints[2].Selections; len(got) != 1 || got[0] != (ColSpan{Start: 0, End: 1}) {
		t.Fatalf("line 2 selections = %v", got)
	}
}

func TestPaintGutterMarks(t *testing.T) {
	doc := document.FromString("a\nb\n")
	h := highlight.New(doc, nil)
	h.Apply(document.Change{FirstLine: 0, LinesAdded: doc.LineCount() - 1})
	reg := marks.NewRegistry(doc)
	reg.Add(1, marks.Breakpoint, "")
	v := NewView(doc, h, fold.NewEngine(doc), reg, nil, config.DefaultDisplaySettings())
	paints := v.Paint(0, 2, nil)
	if len(paints[1].Marks) != 1 || paints[1].Marks[0] != marks.Breakpoint {
		t.Fatalf("marks = %v", paints[1].Marks)
	}
}

func TestMatchParenAcrossLines(t *testing.T) {
	doc, _ := newView(t, "f(a,\n  b)\nx\n")
	match, ok := MatchParen(doc, document.Point{Line: 0, Column: 1})
	if !ok {
		t.Fatal("no match found")
	}
	if match != (document.Point{Line: 1, Column: 3}) {
		t.Fatalf("match = %v", match)
	}
	// And backwards from the closer.
	match, ok = MatchParen(doc, document.Point{Line: 1, Column: 3})
	if !ok || match != (document.Point{Line: 0, Column: 1}) {
		t.Fatalf("reverse match = %v ok=%v", match, ok)
	}
}

func TestMismatchDecor(t *testing.T) {
	_, v := newView(t, "f(x\n")
	mc := cursor.New(document.Point{Line: 0, Column: 2})
	paints := v.Paint(0, 1, mc)
	if len(paints[0].Parens) != 1 || !paints[0].Parens[0].Mismatch {
		t.Fatalf("paren decors = %v, want one mismatch", paints[0].Parens)
	}
}

func TestDirtyTrackerSingleLines(t *testing.T) {
	tr := NewDirtyTracker(0)
	tr.MarkChange(document.Change{FirstLine: 3})
	tr.MarkLine(7)
	full, _, lines := tr.Flush()
	if full {
		t.Fatal("unexpected full redraw")
	}
	sort.Ints(lines)
	if len(lines) != 2 || lines[0] != 3 || lines[1] != 7 {
		t.Fatalf("lines = %v", lines)
	}
	if tr.IsDirty() {
		t.Fatal("tracker dirty after flush")
	}
}

func TestDirtyTrackerStructuralChange(t *testing.T) {
	tr := NewDirtyTracker(0)
	tr.MarkLine(2)
	tr.MarkChange(document.Change{FirstLine: 5, LinesAdded: 1})
	full, from, _ := tr.Flush()
	if !full {
		t.Fatal("line insertion must force full redraw")
	}
	if from != 2 {
		t.Fatalf("from = %d, want the earliest dirty line", from)
	}
}

func TestDirtyTrackerOverflow(t *testing.T) {
	tr := NewDirtyTracker(4)
	for i := 0; i < 10; i++ {
		tr.MarkLine(i)
	}
	full, from, _ := tr.Flush()
	if !full || from != 0 {
		t.Fatalf("full=%v from=%d, want full from 0", full, from)
	}
}
