// Package indent provides tab/indentation settings and the indentation
// engine used when new lines are created or ranges are re-indented.
package indent

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// TabPolicy controls how indentation is written out.
type TabPolicy uint8

const (
	// SpacesOnly writes indentation using spaces exclusively.
	SpacesOnly TabPolicy = iota
	// TabsOnly writes indentation using tabs where possible.
	TabsOnly
	// Mixed guesses from surrounding lines; falls back to spaces.
	Mixed
)

// String returns the string representation of the tab policy.
func (p TabPolicy) String() string {
	switch p {
	case SpacesOnly:
		return "spaces"
	case TabsOnly:
		return "tabs"
	case Mixed:
		return "mixed"
	default:
		return "spaces"
	}
}

// TabSettings holds the tab and indentation configuration for a document.
// TabSettings is an immutable value type.
type TabSettings struct {
	Policy     TabPolicy
	TabSize    int
	IndentSize int
}

// DefaultTabSettings returns the default tab configuration.
func DefaultTabSettings() TabSettings {
	return TabSettings{
		Policy:     SpacesOnly,
		TabSize:    8,
		IndentSize: 4,
	}
}

// FirstNonSpace returns the byte index of the first non-whitespace rune,
// or len(text) if the line is blank.
func FirstNonSpace(text string) int {
	for i, r := range text {
		if !unicode.IsSpace(r) {
			return i
		}
	}
	return len(text)
}

// OnlySpace reports whether the line consists solely of whitespace.
func OnlySpace(text string) bool {
	return FirstNonSpace(text) == len(text)
}

// TrailingWhitespaces returns the number of trailing whitespace bytes.
func TrailingWhitespaces(text string) int {
	i := len(text)
	for i > 0 {
		r := rune(text[i-1])
		if r != ' ' && r != '\t' {
			break
		}
		i--
	}
	return len(text) - i
}

// ColumnAt converts a byte position within a line to a visual column,
// expanding tabs to the next tab stop and accounting for wide runes.
func (ts TabSettings) ColumnAt(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	column := 0
	for _, r := range text[:pos] {
		if r == '\t' {
			column = column - column%ts.TabSize + ts.TabSize
		} else {
			column += runewidth.RuneWidth(r)
		}
	}
	return column
}

// PositionAtColumn converts a visual column to a byte position within the
// line. If the column falls inside a tab expansion the tab's position is
// returned. Columns past the end of the line clamp to len(text).
func (ts TabSettings) PositionAtColumn(text string, column int) int {
	col := 0
	for i, r := range text {
		if col >= column {
			return i
		}
		if r == '\t' {
			col = col - col%ts.TabSize + ts.TabSize
		} else {
			col += runewidth.RuneWidth(r)
		}
	}
	return len(text)
}

// IndentationColumn returns the visual column of the first non-whitespace
// rune, i.e. the line's indentation depth in columns.
func (ts TabSettings) IndentationColumn(text string) int {
	return ts.ColumnAt(text, FirstNonSpace(text))
}

// IndentationPrefix returns the leading whitespace of the line.
func IndentationPrefix(text string) string {
	return text[:FirstNonSpace(text)]
}

// IndentationString builds the whitespace needed to reach targetColumn
// from startColumn under the current policy.
func (ts TabSettings) IndentationString(startColumn, targetColumn int) string {
	if targetColumn < startColumn {
		targetColumn = startColumn
	}
	if ts.Policy != TabsOnly {
		return strings.Repeat(" ", targetColumn-startColumn)
	}

	var b strings.Builder
	alignedStart := startColumn
	if startColumn != 0 {
		alignedStart = startColumn - startColumn%ts.TabSize + ts.TabSize
	}
	if alignedStart > startColumn && alignedStart <= targetColumn {
		b.WriteByte('\t')
		startColumn = alignedStart
	}
	tabs := (targetColumn - startColumn) / ts.TabSize
	b.WriteString(strings.Repeat("\t", tabs))
	b.WriteString(strings.Repeat(" ", targetColumn-startColumn-tabs*ts.TabSize))
	return b.String()
}

// IndentedColumn returns the next (or previous, when doIndent is false)
// indentation stop for the given column.
func (ts TabSettings) IndentedColumn(column int, doIndent bool) int {
	aligned := column / ts.IndentSize * ts.IndentSize
	if doIndent {
		return aligned + ts.IndentSize
	}
	if aligned < column {
		return aligned
	}
	if aligned-ts.IndentSize > 0 {
		return aligned - ts.IndentSize
	}
	return 0
}

// ReindentedLine rewrites the line's leading whitespace to newIndent
// columns, leaving the remainder of the line untouched.
func (ts TabSettings) ReindentedLine(text string, newIndent int) string {
	if newIndent < 0 {
		newIndent = 0
	}
	return ts.IndentationString(0, newIndent) + text[FirstNonSpace(text):]
}

// Equals reports whether two settings are identical.
func (ts TabSettings) Equals(other TabSettings) bool {
	return ts == other
}
