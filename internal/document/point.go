package document

import "fmt"

// Point is a line/column position. Both fields are 0-indexed; Column is
// a byte offset within the line. Points are derived from byte offsets
// on demand and never cached, so they cannot go stale across edits.
type Point struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Column != other.Column {
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p comes before other.
func (p Point) Before(other Point) bool { return p.Compare(other) < 0 }

// After reports whether p comes after other.
func (p Point) After(other Point) bool { return p.Compare(other) > 0 }
