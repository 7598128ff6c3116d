package indent

// Indenter computes target indentation columns for new or re-indented
// lines. Language-aware implementations are registered per language id;
// NormalIndenter is the fallback carry-forward policy.
type Indenter interface {
	// IndentFor returns the target indentation column for a line that
	// follows previousLine.
	IndentFor(previousLine string, ts TabSettings) int

	// IsElectric reports whether typing r should trigger an immediate
	// re-indent of the current line.
	IsElectric(r rune) bool
}

// NormalIndenter carries the previous line's indentation forward.
// A blank previous line yields column zero.
type NormalIndenter struct{}

// IndentFor implements Indenter.
func (NormalIndenter) IndentFor(previousLine string, ts TabSettings) int {
	if OnlySpace(previousLine) {
		return 0
	}
	return ts.IndentationColumn(previousLine)
}

// IsElectric implements Indenter. The normal indenter has no electric
// characters.
func (NormalIndenter) IsElectric(rune) bool { return false }

// BraceIndenter extends the carry-forward policy with brace awareness:
// a previous line ending in an opening brace indents one level deeper,
// and a typed closing brace re-indents the current line one level out.
type BraceIndenter struct{}

// IndentFor implements Indenter.
func (BraceIndenter) IndentFor(previousLine string, ts TabSettings) int {
	if OnlySpace(previousLine) {
		return 0
	}
	column := ts.IndentationColumn(previousLine)
	trimmed := previousLine[:len(previousLine)-TrailingWhitespaces(previousLine)]
	if len(trimmed) > 0 {
		switch trimmed[len(trimmed)-1] {
		case '{', '[', '(':
			return column + ts.IndentSize
		}
	}
	return column
}

// IsElectric implements Indenter.
func (BraceIndenter) IsElectric(r rune) bool {
	return r == '}' || r == ']' || r == ')'
}

// ElectricIndent returns the column a line should move to after an
// electric closing character was typed as its first printable rune:
// one indent level left of the previous line's indentation.
func ElectricIndent(previousLine string, ts TabSettings) int {
	column := ts.IndentationColumn(previousLine)
	if column >= ts.IndentSize {
		return column - ts.IndentSize
	}
	return 0
}
