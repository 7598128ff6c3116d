// Package session serializes per-editor view state into an opaque
// versioned blob: scroll position, cursors, and folded line numbers.
// The shell stores the blob and hands it back on reopen; the core
// never interprets blobs from newer versions.
package session

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
)

// Version is the current blob format version.
const Version = 1

var (
	// ErrInvalidBlob is returned for data that is not a session blob.
	ErrInvalidBlob = errors.New("session: invalid blob")
	// ErrUnknownVersion is returned for blobs written by a newer core.
	ErrUnknownVersion = errors.New("session: unknown blob version")
)

// State is the restorable view state of one editor.
type State struct {
	ScrollLine   int
	ScrollColumn int
	Cursors      *cursor.MultiCursor
	FoldedLines  []int
}

// Encode serializes the state into a versioned blob.
func Encode(s State) ([]byte, error) {
	blob := []byte(`{}`)
	var err error
	if blob, err = sjson.SetBytes(blob, "version", Version); err != nil {
		return nil, err
	}
	if blob, err = sjson.SetBytes(blob, "scroll.line", s.ScrollLine); err != nil {
		return nil, err
	}
	if blob, err = sjson.SetBytes(blob, "scroll.column", s.ScrollColumn); err != nil {
		return nil, err
	}

	if s.Cursors != nil {
		for i, c := range s.Cursors.Cursors() {
			base := fmt.Sprintf("cursors.%d", i)
			if blob, err = sjson.SetBytes(blob, base+".line", c.Position.Line); err != nil {
				return nil, err
			}
			if blob, err = sjson.SetBytes(blob, base+".column", c.Position.Column); err != nil {
				return nil, err
			}
			if c.HasSelection() {
				if blob, err = sjson.SetBytes(blob, base+".anchorLine", c.Anchor.Line); err != nil {
					return nil, err
				}
				if blob, err = sjson.SetBytes(blob, base+".anchorColumn", c.Anchor.Column); err != nil {
					return nil, err
				}
			}
		}
	}

	folds := s.FoldedLines
	if folds == nil {
		folds = []int{}
	}
	if blob, err = sjson.SetBytes(blob, "folds", folds); err != nil {
		return nil, err
	}
	return blob, nil
}

// Decode parses a blob back into view state. Fields absent from the
// blob keep their zero values; structurally invalid data and blobs
// from a newer version are errors.
func Decode(blob []byte) (State, error) {
	if !gjson.ValidBytes(blob) {
		return State{}, ErrInvalidBlob
	}
	root := gjson.ParseBytes(blob)
	version := root.Get("version")
	if !version.Exists() {
		return State{}, ErrInvalidBlob
	}
	if v := version.Int(); v != Version {
		return State{}, fmt.Errorf("%w: %d", ErrUnknownVersion, v)
	}

	var s State
	s.ScrollLine = int(root.Get("scroll.line").Int())
	s.ScrollColumn = int(root.Get("scroll.column").Int())

	var cursors []cursor.Cursor
	root.Get("cursors").ForEach(func(_, c gjson.Result) bool {
		pos := document.Point{
			Line:   int(c.Get("line").Int()),
			Column: int(c.Get("column").Int()),
		}
		if c.Get("anchorLine").Exists() {
			anchor := document.Point{
				Line:   int(c.Get("anchorLine").Int()),
				Column: int(c.Get("anchorColumn").Int()),
			}
			cursors = append(cursors, cursor.Select(anchor, pos))
		} else {
			cursors = append(cursors, cursor.At(pos))
		}
		return true
	})
	if len(cursors) > 0 {
		s.Cursors = cursor.FromCursors(cursors...)
	}

	root.Get("folds").ForEach(func(_, f gjson.Result) bool {
		s.FoldedLines = append(s.FoldedLines, int(f.Int()))
		return true
	})
	return s, nil
}
