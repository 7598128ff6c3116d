package cursor

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/textcore/internal/document"
)

// Op identifies a cursor movement operation.
type Op int

// Movement operations understood by MoveAll.
const (
	OpLeft Op = iota
	OpRight
	OpUp
	OpDown
	OpLineStart
	OpLineEnd
	OpWordLeft
	OpWordRight
	OpDocStart
	OpDocEnd
)

// MoveAll applies a movement to every cursor. With keepSelection the
// anchors stay put and the move extends the selections; otherwise the
// cursors collapse to carets at the new positions. Horizontal moves
// step by grapheme cluster, not by byte or rune, so combining marks
// and emoji travel as one unit.
func (mc *MultiCursor) MoveAll(doc *document.Document, op Op, keepSelection bool) {
	for i := range mc.cursors {
		c := mc.cursors[i]

		// A plain horizontal move with an active selection collapses
		// to the selection edge first.
		if !keepSelection && c.HasSelection() && (op == OpLeft || op == OpRight) {
			if op == OpLeft {
				mc.cursors[i] = At(c.Start())
			} else {
				mc.cursors[i] = At(c.End())
			}
			continue
		}

		p := movePoint(doc, c.Position, op)
		if keepSelection {
			mc.cursors[i] = Cursor{Anchor: c.Anchor, Position: p}
		} else {
			mc.cursors[i] = At(p)
		}
	}
	mc.Normalize()
}

// movePoint computes one movement step from a position.
func movePoint(doc *document.Document, p Point, op Op) Point {
	text := doc.LineText(p.Line)
	switch op {
	case OpLeft:
		if p.Column > 0 {
			return Point{Line: p.Line, Column: prevBoundary(text, p.Column)}
		}
		if p.Line > 0 {
			return Point{Line: p.Line - 1, Column: len(doc.LineText(p.Line - 1))}
		}
		return p
	case OpRight:
		if p.Column < len(text) {
			return Point{Line: p.Line, Column: nextBoundary(text, p.Column)}
		}
		if p.Line+1 < doc.LineCount() {
			return Point{Line: p.Line + 1, Column: 0}
		}
		return p
	case OpUp:
		if p.Line == 0 {
			return Point{Line: 0, Column: 0}
		}
		return doc.ClampPoint(Point{Line: p.Line - 1, Column: p.Column})
	case OpDown:
		if p.Line+1 >= doc.LineCount() {
			return Point{Line: p.Line, Column: len(text)}
		}
		return doc.ClampPoint(Point{Line: p.Line + 1, Column: p.Column})
	case OpLineStart:
		return Point{Line: p.Line, Column: 0}
	case OpLineEnd:
		return Point{Line: p.Line, Column: len(text)}
	case OpWordLeft:
		return wordLeft(doc, p)
	case OpWordRight:
		return wordRight(doc, p)
	case OpDocStart:
		return Point{}
	case OpDocEnd:
		last := doc.LineCount() - 1
		return Point{Line: last, Column: len(doc.LineText(last))}
	}
	return p
}

// nextBoundary returns the byte offset of the grapheme boundary after
// col.
func nextBoundary(text string, col int) int {
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(text[col:], -1)
	return col + len(cluster)
}

// prevBoundary returns the byte offset of the grapheme boundary before
// col, found by walking clusters from the line start.
func prevBoundary(text string, col int) int {
	prev, pos := 0, 0
	state := -1
	rest := text
	for pos < col && len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		prev = pos
		pos += len(cluster)
	}
	return prev
}

func wordLeft(doc *document.Document, p Point) Point {
	if p.Column == 0 {
		if p.Line == 0 {
			return p
		}
		return Point{Line: p.Line - 1, Column: len(doc.LineText(p.Line - 1))}
	}
	text := doc.LineText(p.Line)
	col := p.Column
	for col > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:col])
		if !unicode.IsSpace(r) {
			break
		}
		col -= size
	}
	inWord := false
	for col > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:col])
		if isWordRune(r) {
			inWord = true
		} else if inWord {
			break
		} else {
			// Run of punctuation: stop at its start.
			col -= size
			for col > 0 {
				r, size = utf8.DecodeLastRuneInString(text[:col])
				if isWordRune(r) || unicode.IsSpace(r) {
					break
				}
				col -= size
			}
			return Point{Line: p.Line, Column: col}
		}
		col -= size
	}
	return Point{Line: p.Line, Column: col}
}

func wordRight(doc *document.Document, p Point) Point {
	text := doc.LineText(p.Line)
	if p.Column >= len(text) {
		if p.Line+1 >= doc.LineCount() {
			return p
		}
		return Point{Line: p.Line + 1, Column: 0}
	}
	col := p.Column
	r, size := utf8.DecodeRuneInString(text[col:])
	if isWordRune(r) {
		for col < len(text) {
			r, size = utf8.DecodeRuneInString(text[col:])
			if !isWordRune(r) {
				break
			}
			col += size
		}
	} else if !unicode.IsSpace(r) {
		for col < len(text) {
			r, size = utf8.DecodeRuneInString(text[col:])
			if isWordRune(r) || unicode.IsSpace(r) {
				break
			}
			col += size
		}
	}
	for col < len(text) {
		r, size = utf8.DecodeRuneInString(text[col:])
		if !unicode.IsSpace(r) {
			break
		}
		col += size
	}
	return Point{Line: p.Line, Column: col}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
