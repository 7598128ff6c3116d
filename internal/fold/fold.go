// Package fold derives foldable regions from the per-line folding
// indents maintained by the highlighter and controls line visibility.
// Regions are never stored; they are recomputed from the indents on
// demand, so they stay correct across edits for free.
package fold

import (
	"github.com/dshills/textcore/internal/document"
)

// DefaultPlaceholder is shown in place of a collapsed region when the
// anchor line has no replacement text of its own.
const DefaultPlaceholder = "..."

// Engine folds and unfolds regions of a document.
type Engine struct {
	doc *document.Document
}

// NewEngine creates a folding engine for a document.
func NewEngine(doc *document.Document) *Engine {
	return &Engine{doc: doc}
}

// CanFold reports whether a region is anchored at the given line,
// which is the case exactly when the next line nests deeper.
func (e *Engine) CanFold(line int) bool {
	if line < 0 || line+1 >= e.doc.LineCount() {
		return false
	}
	return e.doc.FoldIndent(line+1) > e.doc.FoldIndent(line)
}

// regionEnd returns the first line after the anchor whose indent
// returns to the anchor's level, which is the exclusive end of the
// region. The closing line itself stays visible.
func (e *Engine) regionEnd(anchor int) int {
	base := e.doc.FoldIndent(anchor)
	line := anchor + 1
	for line < e.doc.LineCount() && e.doc.FoldIndent(line) > base {
		line++
	}
	return line
}

// Fold collapses the region anchored at the given line, hiding every
// line nested under it. Lines without a region are left alone.
func (e *Engine) Fold(line int) {
	if !e.CanFold(line) {
		return
	}
	rec := e.doc.Line(line)
	if rec.Folded() {
		return
	}
	e.doc.SetFolded(line, true)
	end := e.regionEnd(line)
	for i := line + 1; i < end; i++ {
		e.doc.SetHidden(i, true)
	}
}

// Unfold expands the region anchored at the given line, revealing one
// nesting level. Regions folded inside it keep their own collapsed
// state and stay hidden below their own anchors.
func (e *Engine) Unfold(line int) {
	rec := e.doc.Line(line)
	if rec == nil || !rec.Folded() {
		return
	}
	e.doc.SetFolded(line, false)
	end := e.regionEnd(line)
	for i := line + 1; i < end; {
		e.doc.SetHidden(i, false)
		if e.doc.Line(i).Folded() {
			// Nested collapsed region: its anchor becomes visible,
			// its body stays hidden.
			i = e.regionEnd(i)
			continue
		}
		i++
	}
}

// Toggle folds the region at the line if expanded, unfolds otherwise.
func (e *Engine) Toggle(line int) {
	if rec := e.doc.Line(line); rec != nil && rec.Folded() {
		e.Unfold(line)
		return
	}
	e.Fold(line)
}

// FoldAll collapses every foldable region in the document.
func (e *Engine) FoldAll() {
	for line := 0; line < e.doc.LineCount(); line++ {
		if e.CanFold(line) {
			e.doc.SetFolded(line, true)
		}
	}
	// Visibility in one sweep: a line is hidden iff some ancestor
	// anchor above it is folded, which after FoldAll means any
	// nesting at all.
	for line := 0; line < e.doc.LineCount(); line++ {
		e.doc.SetHidden(line, e.hasFoldedAncestor(line))
	}
}

// UnfoldAll expands everything and clears all fold state.
func (e *Engine) UnfoldAll() {
	for line := 0; line < e.doc.LineCount(); line++ {
		e.doc.SetFolded(line, false)
		e.doc.SetHidden(line, false)
	}
}

// hasFoldedAncestor reports whether any enclosing anchor of the line
// is folded.
func (e *Engine) hasFoldedAncestor(line int) bool {
	indent := e.doc.FoldIndent(line)
	for i := line - 1; i >= 0; i-- {
		fi := e.doc.FoldIndent(i)
		if fi < indent {
			if e.doc.Line(i).Folded() {
				return true
			}
			indent = fi
			if indent == 0 {
				return false
			}
		}
	}
	return false
}

// FoldedLines returns the anchors of all collapsed regions, in order.
// This is the per-document fold state captured for session restore.
func (e *Engine) FoldedLines() []int {
	var lines []int
	for i := 0; i < e.doc.LineCount(); i++ {
		if e.doc.Line(i).Folded() {
			lines = append(lines, i)
		}
	}
	return lines
}

// RestoreFolds collapses the given anchors, outermost first so that
// nested fold state lands under its ancestors the way it was saved.
func (e *Engine) RestoreFolds(anchors []int) {
	for _, line := range anchors {
		e.Fold(line)
	}
}

// Placeholder returns the replacement text rendered for a collapsed
// region anchored at the line.
func (e *Engine) Placeholder(line int) string {
	if rec := e.doc.Line(line); rec != nil && rec.FoldedText() != "" {
		return rec.FoldedText()
	}
	return DefaultPlaceholder
}

// NextVisible returns the next visible line at or after the given
// line, or the line count if none remains.
func (e *Engine) NextVisible(line int) int {
	for line < e.doc.LineCount() {
		if rec := e.doc.Line(line); rec != nil && !rec.Hidden() {
			return line
		}
		line++
	}
	return e.doc.LineCount()
}

// PrevVisible returns the closest visible line at or before the given
// line, or -1 if none.
func (e *Engine) PrevVisible(line int) int {
	if line >= e.doc.LineCount() {
		line = e.doc.LineCount() - 1
	}
	for line >= 0 {
		if rec := e.doc.Line(line); rec != nil && !rec.Hidden() {
			return line
		}
		line--
	}
	return -1
}

// Validate repairs fold state after a highlighting pass over the given
// line range. Anchors whose region disappeared are expanded, and lines
// hidden without a folded ancestor are revealed.
func (e *Engine) Validate(first, last int) {
	if first < 0 {
		first = 0
	}
	if last > e.doc.LineCount() {
		last = e.doc.LineCount()
	}
	for line := first; line < last; line++ {
		rec := e.doc.Line(line)
		if rec == nil {
			continue
		}
		if rec.Folded() && !e.CanFold(line) {
			e.doc.SetFolded(line, false)
		}
		if rec.Hidden() && !e.hasFoldedAncestor(line) {
			e.doc.SetHidden(line, false)
		}
	}
}
