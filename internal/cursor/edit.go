package cursor

import (
	"strings"

	"github.com/dshills/textcore/internal/document"
)

// InsertText types text at every cursor. Active selections are
// replaced. With N cursors and text containing exactly N
// newline-delimited parts, each cursor receives its own part (the
// N-way paste rule); otherwise every cursor receives the full text.
//
// Edits are applied in left-to-right document order with the offset
// shift of earlier edits accounted for, so two cursors on one line
// both land correctly. Callers wanting a single undo step wrap the
// call in one history group.
func (mc *MultiCursor) InsertText(doc *document.Document, text string) error {
	parts := splitParts(text, len(mc.cursors))

	spans := mc.offsetSpans(doc)
	newOffsets := make([]int, len(spans))
	delta := 0
	for i, sp := range spans {
		start := sp.start + delta
		length := sp.end - sp.start
		if length > 0 {
			if err := doc.Remove(start, length); err != nil {
				return err
			}
		}
		if err := doc.Insert(start, parts[i]); err != nil {
			return err
		}
		newOffsets[i] = start + len(parts[i])
		delta += len(parts[i]) - length
	}

	for i, off := range newOffsets {
		p := doc.OffsetToPoint(off)
		mc.cursors[i] = At(p)
	}
	mc.Normalize()
	return nil
}

// RemoveSelections deletes the selected text of every cursor and
// collapses them to carets. Cursors without a selection are unchanged.
func (mc *MultiCursor) RemoveSelections(doc *document.Document) error {
	spans := mc.offsetSpans(doc)
	delta := 0
	newOffsets := make([]int, len(spans))
	for i, sp := range spans {
		start := sp.start + delta
		length := sp.end - sp.start
		if length > 0 {
			if err := doc.Remove(start, length); err != nil {
				return err
			}
			delta -= length
		}
		newOffsets[i] = start
	}

	for i, off := range newOffsets {
		mc.cursors[i] = At(doc.OffsetToPoint(off))
	}
	mc.Normalize()
	return nil
}

// SelectedText returns the text of every selection, in document
// order, joined with newlines. The inverse of the N-way paste rule.
func (mc *MultiCursor) SelectedText(doc *document.Document) string {
	parts := make([]string, 0, len(mc.cursors))
	for _, c := range mc.cursors {
		if !c.HasSelection() {
			continue
		}
		start := doc.PointToOffset(c.Start())
		end := doc.PointToOffset(c.End())
		parts = append(parts, doc.TextRange(start, end))
	}
	return strings.Join(parts, "\n")
}

type offsetSpan struct {
	start, end int
}

// offsetSpans converts the cursors' selection ranges to byte offsets
// against the current document, in document order.
func (mc *MultiCursor) offsetSpans(doc *document.Document) []offsetSpan {
	spans := make([]offsetSpan, len(mc.cursors))
	for i, c := range mc.cursors {
		spans[i] = offsetSpan{
			start: doc.PointToOffset(c.Start()),
			end:   doc.PointToOffset(c.End()),
		}
	}
	return spans
}

// splitParts implements the N-way paste rule.
func splitParts(text string, n int) []string {
	if n > 1 {
		if parts := strings.Split(text, "\n"); len(parts) == n {
			return parts
		}
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = text
	}
	return parts
}
