package session

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/sjson"

	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
)

func TestRoundTrip(t *testing.T) {
	in := State{
		ScrollLine:   42,
		ScrollColumn: 7,
		Cursors: cursor.FromCursors(
			cursor.At(document.Point{Line: 3, Column: 1}),
			cursor.Select(document.Point{Line: 5, Column: 0}, document.Point{Line: 5, Column: 4}),
		),
		FoldedLines: []int{2, 10, 11},
	}
	blob, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ScrollLine != 42 || out.ScrollColumn != 7 {
		t.Fatalf("scroll = %d,%d", out.ScrollLine, out.ScrollColumn)
	}
	if !reflect.DeepEqual(out.FoldedLines, []int{2, 10, 11}) {
		t.Fatalf("folds = %v", out.FoldedLines)
	}
	if out.Cursors == nil || out.Cursors.Count() != 2 {
		t.Fatalf("cursors = %v", out.Cursors)
	}
	cs := out.Cursors.Cursors()
	if cs[0].Position != (document.Point{Line: 3, Column: 1}) || cs[0].HasSelection() {
		t.Fatalf("cursor 0 = %+v", cs[0])
	}
	if !cs[1].HasSelection() || cs[1].Anchor != (document.Point{Line: 5, Column: 0}) {
		t.Fatalf("cursor 1 = %+v", cs[1])
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("not json")); !errors.Is(err, ErrInvalidBlob) {
		t.Fatalf("err = %v, want ErrInvalidBlob", err)
	}
	if _, err := Decode([]byte(`{"scroll":{"line":1}}`)); !errors.Is(err, ErrInvalidBlob) {
		t.Fatalf("missing version err = %v, want ErrInvalidBlob", err)
	}
}

func TestDecodeNewerVersion(t *testing.T) {
	blob, _ := Encode(State{})
	blob, _ = sjson.SetBytes(blob, "version", Version+1)
	if _, err := Decode(blob); !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("err = %v, want ErrUnknownVersion", err)
	}
}

func TestDecodeMissingFields(t *testing.T) {
	s, err := Decode([]byte(`{"version":1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.ScrollLine != 0 || s.Cursors != nil || len(s.FoldedLines) != 0 {
		t.Fatalf("state = %+v, want zero values", s)
	}
}

// Unknown keys written by other tools must not break decoding.
func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	s, err := Decode([]byte(`{"version":1,"scroll":{"line":3},"theme":"dark"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.ScrollLine != 3 {
		t.Fatalf("scroll line = %d", s.ScrollLine)
	}
}
