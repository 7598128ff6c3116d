package cursor

import (
	"testing"

	"github.com/dshills/textcore/internal/document"
)

func TestCursorStartEnd(t *testing.T) {
	c := Select(Point{Line: 1, Column: 4}, Point{Line: 0, Column: 2})

	if c.Start() != (Point{Line: 0, Column: 2}) {
		t.Errorf("Start() = %v", c.Start())
	}
	if c.End() != (Point{Line: 1, Column: 4}) {
		t.Errorf("End() = %v", c.End())
	}
	if !c.Reversed() {
		t.Error("position before anchor should report reversed")
	}
}

func TestCursorOverlaps(t *testing.T) {
	a := Select(Point{Line: 0, Column: 0}, Point{Line: 0, Column: 4})
	b := Select(Point{Line: 0, Column: 2}, Point{Line: 0, Column: 6})
	c := Select(Point{Line: 0, Column: 5}, Point{Line: 0, Column: 8})

	if !a.Overlaps(b) {
		t.Error("intersecting selections should overlap")
	}
	if a.Overlaps(c) {
		t.Error("disjoint selections should not overlap")
	}

	caret1, caret2 := At(Point{Line: 0, Column: 3}), At(Point{Line: 0, Column: 3})
	if !caret1.Overlaps(caret2) {
		t.Error("carets at the same point should collapse together")
	}
	if At(Point{Line: 0, Column: 4}).Overlaps(At(Point{Line: 0, Column: 5})) {
		t.Error("carets at different points are distinct")
	}
}

func TestMergeKeepsDirection(t *testing.T) {
	a := Select(Point{Line: 0, Column: 4}, Point{Line: 0, Column: 0}) // reversed
	b := Select(Point{Line: 0, Column: 2}, Point{Line: 0, Column: 6})

	m := a.Merge(b)
	if m.Start() != (Point{Line: 0, Column: 0}) || m.End() != (Point{Line: 0, Column: 6}) {
		t.Errorf("merged range = %v..%v", m.Start(), m.End())
	}
	if !m.Reversed() {
		t.Error("merge should keep the receiver's direction")
	}
}

func TestNormalizeMergesAndSorts(t *testing.T) {
	mc := FromCursors(
		Select(Point{Line: 0, Column: 5}, Point{Line: 0, Column: 9}),
		At(Point{Line: 0, Column: 1}),
		Select(Point{Line: 0, Column: 7}, Point{Line: 0, Column: 12}),
		At(Point{Line: 0, Column: 1}),
	)

	cursors := mc.Cursors()
	if len(cursors) != 2 {
		t.Fatalf("expected 2 cursors after normalization, got %d", len(cursors))
	}
	if cursors[0].Position != (Point{Line: 0, Column: 1}) {
		t.Errorf("first cursor = %v", cursors[0])
	}
	if cursors[1].Start() != (Point{Line: 0, Column: 5}) || cursors[1].End() != (Point{Line: 0, Column: 12}) {
		t.Errorf("overlapping selections should merge, got %v", cursors[1])
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	mc := FromCursors(
		Select(Point{Line: 0, Column: 3}, Point{Line: 0, Column: 8}),
		At(Point{Line: 1, Column: 0}),
		Select(Point{Line: 0, Column: 6}, Point{Line: 0, Column: 10}),
	)

	before := mc.Cursors()
	mc.Normalize()
	after := mc.Cursors()

	if len(before) != len(after) {
		t.Fatal("normalizing a normalized set changed the cursor count")
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("cursor %d changed: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestNormalizeOrderIndependent(t *testing.T) {
	a := Select(Point{Line: 0, Column: 0}, Point{Line: 0, Column: 4})
	b := Select(Point{Line: 0, Column: 3}, Point{Line: 0, Column: 7})
	c := At(Point{Line: 1, Column: 2})

	mc1 := FromCursors(a, b, c)
	mc2 := FromCursors(c, b, a)

	c1, c2 := mc1.Cursors(), mc2.Cursors()
	if len(c1) != len(c2) {
		t.Fatal("cursor counts differ by insertion order")
	}
	for i := range c1 {
		if c1[i].Start() != c2[i].Start() || c1[i].End() != c2[i].End() {
			t.Errorf("coverage differs at %d: %v vs %v", i, c1[i], c2[i])
		}
	}
}

func TestMainFollowsMerge(t *testing.T) {
	mc := New(Point{Line: 0, Column: 5})
	mc.Add(Select(Point{Line: 0, Column: 3}, Point{Line: 0, Column: 8}))

	// The added selection swallowed the caret; main follows it.
	if mc.Count() != 1 {
		t.Fatalf("expected a single merged cursor, got %d", mc.Count())
	}
	if mc.Main().Start() != (Point{Line: 0, Column: 3}) {
		t.Errorf("main = %v", mc.Main())
	}
}

func TestTwoCursorTyping(t *testing.T) {
	doc := document.FromString("abcdef")
	mc := FromCursors(At(Point{Line: 0, Column: 0}), At(Point{Line: 0, Column: 3}))

	if err := mc.InsertText(doc, "X"); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "XabcXdef" {
		t.Errorf("expected %q, got %q", "XabcXdef", doc.Text())
	}

	cursors := mc.Cursors()
	if cursors[0].Position != (Point{Line: 0, Column: 1}) {
		t.Errorf("first cursor = %v, want (0,1)", cursors[0].Position)
	}
	if cursors[1].Position != (Point{Line: 0, Column: 5}) {
		t.Errorf("second cursor = %v, want (0,5)", cursors[1].Position)
	}
}

func TestInsertReplacesSelections(t *testing.T) {
	doc := document.FromString("hello world")
	mc := FromCursors(
		Select(Point{Line: 0, Column: 0}, Point{Line: 0, Column: 5}),
		Select(Point{Line: 0, Column: 6}, Point{Line: 0, Column: 11}),
	)

	if err := mc.InsertText(doc, "x"); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "x x" {
		t.Errorf("expected %q, got %q", "x x", doc.Text())
	}
}

func TestNWayPaste(t *testing.T) {
	doc := document.FromString("a\nb")
	mc := FromCursors(At(Point{Line: 0, Column: 1}), At(Point{Line: 1, Column: 1}))

	// Two parts, two cursors: each gets its own.
	if err := mc.InsertText(doc, "1\n2"); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "a1\nb2" {
		t.Errorf("expected %q, got %q", "a1\nb2", doc.Text())
	}
}

func TestNWayPasteMismatchGivesFullText(t *testing.T) {
	doc := document.FromString("a\nb")
	mc := FromCursors(At(Point{Line: 0, Column: 1}), At(Point{Line: 1, Column: 1}))

	if err := mc.InsertText(doc, "1\n2\n3"); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "a1\n2\n3\nb1\n2\n3" {
		t.Errorf("expected full text at each cursor, got %q", doc.Text())
	}
}

func TestRemoveSelections(t *testing.T) {
	doc := document.FromString("one two three")
	mc := FromCursors(
		Select(Point{Line: 0, Column: 0}, Point{Line: 0, Column: 4}),
		Select(Point{Line: 0, Column: 8}, Point{Line: 0, Column: 13}),
	)

	if err := mc.RemoveSelections(doc); err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "two " {
		t.Errorf("expected %q, got %q", "two ", doc.Text())
	}
	for _, c := range mc.Cursors() {
		if c.HasSelection() {
			t.Error("cursors should collapse after removal")
		}
	}
}

func TestSelectedText(t *testing.T) {
	doc := document.FromString("one two three")
	mc := FromCursors(
		Select(Point{Line: 0, Column: 0}, Point{Line: 0, Column: 3}),
		Select(Point{Line: 0, Column: 4}, Point{Line: 0, Column: 7}),
	)

	if got := mc.SelectedText(doc); got != "one\ntwo" {
		t.Errorf("SelectedText = %q", got)
	}
}

func TestMoveRightStepsGraphemes(t *testing.T) {
	// "a" followed by a combining acute accent is one grapheme.
	doc := document.FromString("áb")
	mc := New(Point{Line: 0, Column: 0})

	mc.MoveAll(doc, OpRight, false)
	if got := mc.Main().Position.Column; got != 3 {
		t.Errorf("cursor should step over the full cluster, column = %d", got)
	}
	mc.MoveAll(doc, OpLeft, false)
	if got := mc.Main().Position.Column; got != 0 {
		t.Errorf("cursor should step back over the cluster, column = %d", got)
	}
}

func TestMoveAcrossLineBoundaries(t *testing.T) {
	doc := document.FromString("ab\ncd")
	mc := New(Point{Line: 0, Column: 2})

	mc.MoveAll(doc, OpRight, false)
	if mc.Main().Position != (Point{Line: 1, Column: 0}) {
		t.Errorf("right at line end should wrap, got %v", mc.Main().Position)
	}
	mc.MoveAll(doc, OpLeft, false)
	if mc.Main().Position != (Point{Line: 0, Column: 2}) {
		t.Errorf("left at line start should wrap back, got %v", mc.Main().Position)
	}
}

func TestMoveWithSelection(t *testing.T) {
	doc := document.FromString("abcdef")
	mc := New(Point{Line: 0, Column: 2})

	mc.MoveAll(doc, OpRight, true)
	main := mc.Main()
	if main.Anchor != (Point{Line: 0, Column: 2}) || main.Position != (Point{Line: 0, Column: 3}) {
		t.Errorf("selection should extend, got %v", main)
	}

	// Plain right collapses to the selection end.
	mc.MoveAll(doc, OpRight, false)
	main = mc.Main()
	if main.HasSelection() || main.Position != (Point{Line: 0, Column: 3}) {
		t.Errorf("plain move should collapse to selection edge, got %v", main)
	}
}

func TestWordMovement(t *testing.T) {
	doc := document.FromString("foo bar_baz  qux")
	mc := New(Point{Line: 0, Column: 0})

	mc.MoveAll(doc, OpWordRight, false)
	if got := mc.Main().Position.Column; got != 4 {
		t.Errorf("word right from start = %d, want 4", got)
	}
	mc.MoveAll(doc, OpWordRight, false)
	if got := mc.Main().Position.Column; got != 13 {
		t.Errorf("word right over identifier = %d, want 13", got)
	}
	mc.MoveAll(doc, OpWordLeft, false)
	if got := mc.Main().Position.Column; got != 4 {
		t.Errorf("word left = %d, want 4", got)
	}
}

func TestCursorsMergeWhenMovementCollides(t *testing.T) {
	doc := document.FromString("ab")
	mc := FromCursors(At(Point{Line: 0, Column: 1}), At(Point{Line: 0, Column: 2}))

	// Both end up at the line end.
	mc.MoveAll(doc, OpLineEnd, false)
	if mc.Count() != 1 {
		t.Errorf("colliding carets should merge, count = %d", mc.Count())
	}
}

func TestClampAfterExternalEdit(t *testing.T) {
	doc := document.FromString("one\ntwo\nthree")
	mc := New(Point{Line: 2, Column: 4})

	// The line under the cursor disappears.
	if err := doc.Remove(4, 9); err != nil {
		t.Fatal(err)
	}
	mc.Clamp(doc)

	main := mc.Main()
	if main.Position.Line >= doc.LineCount() {
		t.Errorf("cursor still on a removed line: %v", main.Position)
	}
	if main.Position != doc.ClampPoint(main.Position) {
		t.Errorf("cursor not clamped: %v", main.Position)
	}
}
