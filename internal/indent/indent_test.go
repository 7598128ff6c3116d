package indent

import "testing"

func TestFirstNonSpace(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 3},
		{"\t\tfoo", 2},
		{"  foo  ", 2},
		{"foo", 0},
	}
	for _, tt := range tests {
		if got := FirstNonSpace(tt.text); got != tt.want {
			t.Errorf("FirstNonSpace(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestOnlySpace(t *testing.T) {
	if !OnlySpace("  \t ") {
		t.Error("whitespace-only line should report OnlySpace")
	}
	if OnlySpace(" x ") {
		t.Error("line with content should not report OnlySpace")
	}
}

func TestColumnAtExpandsTabs(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 4}

	if got := ts.ColumnAt("\tx", 1); got != 4 {
		t.Errorf("tab should expand to column 4, got %d", got)
	}
	if got := ts.ColumnAt("ab\tx", 3); got != 4 {
		t.Errorf("tab after two chars should land on column 4, got %d", got)
	}
	if got := ts.ColumnAt("abcd", 4); got != 4 {
		t.Errorf("plain text columns should match bytes, got %d", got)
	}
}

func TestPositionAtColumnRoundTrip(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 4}
	text := "\tab\tcd"

	for pos := 0; pos <= len(text); pos++ {
		col := ts.ColumnAt(text, pos)
		back := ts.PositionAtColumn(text, col)
		if ts.ColumnAt(text, back) != col {
			t.Errorf("pos %d: column %d did not round-trip (got pos %d)", pos, col, back)
		}
	}
}

func TestIndentationColumn(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 8, IndentSize: 4}

	if got := ts.IndentationColumn("    foo"); got != 4 {
		t.Errorf("expected indentation column 4, got %d", got)
	}
	if got := ts.IndentationColumn("\tfoo"); got != 8 {
		t.Errorf("expected indentation column 8 for tab, got %d", got)
	}
}

func TestIndentationStringSpaces(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 4}
	if got := ts.IndentationString(0, 6); got != "      " {
		t.Errorf("expected six spaces, got %q", got)
	}
}

func TestIndentationStringTabs(t *testing.T) {
	ts := TabSettings{Policy: TabsOnly, TabSize: 4, IndentSize: 4}
	if got := ts.IndentationString(0, 8); got != "\t\t" {
		t.Errorf("expected two tabs, got %q", got)
	}
	if got := ts.IndentationString(0, 6); got != "\t  " {
		t.Errorf("expected tab plus two spaces, got %q", got)
	}
}

func TestIndentedColumn(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 4}

	if got := ts.IndentedColumn(0, true); got != 4 {
		t.Errorf("indent from 0 should be 4, got %d", got)
	}
	if got := ts.IndentedColumn(6, true); got != 8 {
		t.Errorf("indent from 6 should align to 8, got %d", got)
	}
	if got := ts.IndentedColumn(6, false); got != 4 {
		t.Errorf("unindent from 6 should align to 4, got %d", got)
	}
	if got := ts.IndentedColumn(2, false); got != 0 {
		t.Errorf("unindent from 2 should clamp to 0, got %d", got)
	}
}

func TestReindentedLine(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 4}

	if got := ts.ReindentedLine("    foo", 2); got != "  foo" {
		t.Errorf("expected %q, got %q", "  foo", got)
	}
	if got := ts.ReindentedLine("foo", 4); got != "    foo" {
		t.Errorf("expected %q, got %q", "    foo", got)
	}
	if got := ts.ReindentedLine("  foo", -3); got != "foo" {
		t.Errorf("negative indent should clamp to 0, got %q", got)
	}
}

func TestNormalIndenterCarriesForward(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 2}
	var in NormalIndenter

	if got := in.IndentFor("  foo();", ts); got != 2 {
		t.Errorf("expected carry-forward indent 2, got %d", got)
	}
	if got := in.IndentFor("   ", ts); got != 0 {
		t.Errorf("blank previous line should indent to 0, got %d", got)
	}
}

func TestBraceIndenter(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 2}
	var in BraceIndenter

	if got := in.IndentFor("if (x) {", ts); got != 2 {
		t.Errorf("open brace should deepen indent to 2, got %d", got)
	}
	if got := in.IndentFor("  foo();", ts); got != 2 {
		t.Errorf("plain line should carry indent 2, got %d", got)
	}
	if got := in.IndentFor("if (x) {   ", ts); got != 2 {
		t.Errorf("trailing spaces after brace should not matter, got %d", got)
	}
	if !in.IsElectric('}') {
		t.Error("closing brace should be electric")
	}
	if in.IsElectric('a') {
		t.Error("letters are not electric")
	}
}

func TestElectricIndent(t *testing.T) {
	ts := TabSettings{Policy: SpacesOnly, TabSize: 4, IndentSize: 2}
	if got := ElectricIndent("  foo();", ts); got != 0 {
		t.Errorf("electric indent should step one level out, got %d", got)
	}
	if got := ElectricIndent("foo();", ts); got != 0 {
		t.Errorf("electric indent at column 0 stays 0, got %d", got)
	}
}
