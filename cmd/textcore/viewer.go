package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
	"github.com/dshills/textcore/internal/editor"
	"github.com/dshills/textcore/internal/event"
	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/marks"
	"github.com/dshills/textcore/internal/render"
)

// viewer owns the terminal screen and maps paint instructions onto it.
type viewer struct {
	ed       *editor.Editor
	view     *render.View
	dirty    *render.DirtyTracker
	screen   tcell.Screen
	theme    *highlight.Theme
	file     string
	readOnly bool
	tabSize  int
	foldCol  bool
	top      int
	leftCol  int
}

func newViewer(ed *editor.Editor, file string, cfg config.Config, readOnly bool) (*viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	theme := themeByName(cfg.Display.Theme)
	v := &viewer{
		ed:       ed,
		view:     render.NewView(ed.Document(), ed.Highlighter(), ed.Folds(), ed.Marks(), theme, cfg.Display),
		dirty:    render.NewDirtyTracker(256),
		screen:   screen,
		theme:    theme,
		file:     file,
		readOnly: readOnly,
		tabSize:  cfg.Tabs.TabSize,
		foldCol:  cfg.Display.DisplayFoldingMarkers,
	}
	ed.Document().OnChange(v.dirty.MarkChange)
	return v, nil
}

func themeByName(name string) *highlight.Theme {
	if name == "light" {
		return highlight.LightTheme()
	}
	return highlight.DefaultTheme()
}

// run drives the event loop until quit.
func (v *viewer) run() error {
	if err := v.screen.Init(); err != nil {
		return err
	}
	defer v.screen.Fini()

	v.restoreSession()
	v.draw()

	for {
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
			v.dirty.MarkAll()
		case *tcell.EventKey:
			quit, err := v.handleKey(ev)
			if err != nil {
				return err
			}
			if quit {
				v.saveSession()
				return nil
			}
		}
		v.draw()
	}
}

// handleKey dispatches one keystroke. The bool result requests quit.
func (v *viewer) handleKey(ev *tcell.EventKey) (bool, error) {
	shift := ev.Modifiers()&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return true, nil
	case tcell.KeyCtrlS:
		return false, v.save()
	case tcell.KeyCtrlZ:
		_ = v.ed.Undo()
	case tcell.KeyCtrlR:
		_ = v.ed.Redo()
	case tcell.KeyCtrlB:
		v.ed.JumpToMatchingBracket()
	case tcell.KeyCtrlD:
		v.addCaretBelow()
	case tcell.KeyCtrlT:
		v.toggleBookmark()
	case tcell.KeyF2:
		v.ed.ToggleFold(v.ed.MultiCursor().Main().Position.Line)
		v.dirty.MarkAll()
	case tcell.KeyF3:
		v.ed.FoldAll()
		v.dirty.MarkAll()
	case tcell.KeyF4:
		v.ed.UnfoldAll()
		v.dirty.MarkAll()
	case tcell.KeyF5:
		return false, v.reloadFile()
	case tcell.KeyEscape:
		mc := v.ed.MultiCursor()
		mc.CollapseToMain()
		mc.ClearSelections()
	case tcell.KeyUp:
		v.ed.Move(cursor.OpUp, shift)
	case tcell.KeyDown:
		v.ed.Move(cursor.OpDown, shift)
	case tcell.KeyLeft:
		v.ed.Move(cursor.OpLeft, shift)
	case tcell.KeyRight:
		v.ed.Move(cursor.OpRight, shift)
	case tcell.KeyHome:
		v.ed.Move(cursor.OpLineStart, shift)
	case tcell.KeyEnd:
		v.ed.Move(cursor.OpLineEnd, shift)
	case tcell.KeyPgUp:
		v.page(-1)
	case tcell.KeyPgDn:
		v.page(1)
	case tcell.KeyEnter:
		if !v.readOnly {
			return false, v.ed.InsertTyped("\n")
		}
	case tcell.KeyTab:
		if !v.readOnly {
			return false, v.ed.InsertTyped("\t")
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if !v.readOnly {
			return false, v.ed.Backspace()
		}
	case tcell.KeyRune:
		if !v.readOnly {
			return false, v.ed.InsertTyped(string(ev.Rune()))
		}
	}
	return false, nil
}

func (v *viewer) save() error {
	if v.file == "" || v.readOnly {
		return nil
	}
	return v.ed.Save(func(data []byte) error {
		return os.WriteFile(v.file, data, 0o644)
	})
}

// reloadFile re-reads the file from disk, as after an external change.
func (v *viewer) reloadFile() error {
	if v.file == "" {
		return nil
	}
	_ = v.ed.Bus().Publish(context.Background(), event.TopicReload, event.ReloadRequested{})
	data, err := os.ReadFile(v.file)
	if err != nil {
		return err
	}
	v.dirty.MarkAll()
	return v.ed.Reload(string(data))
}

// addCaretBelow places another caret one line down at the same column.
func (v *viewer) addCaretBelow() {
	mc := v.ed.MultiCursor()
	pos := mc.Main().Position
	line := pos.Line + 1
	if line >= v.ed.Document().LineCount() {
		return
	}
	col := pos.Column
	if n := len(v.ed.Document().LineText(line)); col > n {
		col = n
	}
	mc.Add(cursor.At(document.Point{Line: line, Column: col}))
}

func (v *viewer) toggleBookmark() {
	line := v.ed.MultiCursor().Main().Position.Line
	for _, m := range v.ed.Marks().At(line) {
		if m.Kind == marks.Bookmark {
			_ = v.ed.Marks().Remove(m.ID)
			v.dirty.MarkLine(line)
			return
		}
	}
	_, _ = v.ed.Marks().Add(line, marks.Bookmark, "")
	v.dirty.MarkLine(line)
}

// page moves the caret a screenful up or down through visible lines.
func (v *viewer) page(dir int) {
	_, h := v.screen.Size()
	rows := h - 1
	if rows < 1 {
		rows = 1
	}
	op := cursor.OpDown
	if dir < 0 {
		op = cursor.OpUp
	}
	for i := 0; i < rows; i++ {
		v.ed.Move(op, false)
	}
}

func (v *viewer) sessionPath() string {
	if v.file == "" {
		return ""
	}
	return v.file + ".textcore-session"
}

func (v *viewer) restoreSession() {
	path := v.sessionPath()
	if path == "" {
		return
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if line, col, err := v.ed.RestoreSession(blob); err == nil {
		v.top = line
		v.leftCol = col
	}
}

func (v *viewer) saveSession() {
	path := v.sessionPath()
	if path == "" {
		return
	}
	blob, err := v.ed.SessionState(v.top, v.leftCol)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, blob, 0o644)
}

// ensureVisible scrolls the viewport so the main caret stays on
// screen, walking visible lines so folds count as one row.
func (v *viewer) ensureVisible(rows int) {
	caret := v.ed.MultiCursor().Main().Position.Line
	if caret < v.top {
		v.top = caret
		v.dirty.MarkAll()
		return
	}
	folds := v.ed.Folds()
	for {
		row := 0
		line := v.top
		for line < caret && row < rows {
			line = folds.NextVisible(line)
			row++
		}
		if line >= caret && row < rows {
			return
		}
		next := folds.NextVisible(v.top)
		if next == v.top {
			return
		}
		v.top = next
		v.dirty.MarkAll()
	}
}

func (v *viewer) draw() {
	w, h := v.screen.Size()
	if w < 1 || h < 2 {
		return
	}
	rows := h - 1
	v.ensureVisible(rows)
	// Cursor movement needs a repaint even with no dirty lines, so
	// redraw unconditionally and keep the tracker drained.
	v.dirty.Flush()

	mc := v.ed.MultiCursor()
	doc := v.ed.Document()
	base := tcell.StyleDefault.
		Foreground(toTcell(v.theme.Foreground)).
		Background(toTcell(v.theme.Background))
	v.screen.Fill(' ', base)

	gutter := numWidth(doc.LineCount()) + 2
	paints := v.view.Paint(v.top, rows, mc)

	v.screen.HideCursor()
	for row, lp := range paints {
		v.drawLine(row, gutter, w, lp, mc, base)
	}
	v.drawStatus(h-1, w, mc)
	v.screen.Show()
}

func (v *viewer) drawLine(row, gutter, w int, lp render.LinePaint, mc *cursor.MultiCursor, base tcell.Style) {
	dim := base.Foreground(toTcell(v.theme.FoldMarker))

	// Line number, right aligned, with a mark glyph in front.
	num := fmt.Sprintf("%*d ", gutter-2, lp.Line+1)
	glyph := ' '
	for _, k := range lp.Marks {
		glyph = markGlyph(k)
	}
	v.screen.SetContent(0, row, glyph, nil, dim)
	for i, r := range num {
		v.screen.SetContent(1+i, row, r, nil, dim)
	}
	if v.foldCol {
		switch {
		case lp.Folded:
			v.screen.SetContent(gutter-1, row, '+', nil, dim)
		case v.ed.Folds().CanFold(lp.Line):
			v.screen.SetContent(gutter-1, row, '-', nil, dim)
		}
	}

	lineBG := toTcell(v.theme.Background)
	if lp.Current {
		lineBG = toTcell(v.theme.LineHighlight)
	}

	x := gutter
	byteCol := 0
	mainPos := mc.Main().Position
	for _, seg := range lp.Segments {
		segStyle := v.segStyle(seg, lineBG)
		for _, r := range seg.Text {
			st := segStyle
			if inSpans(lp.Selections, byteCol) {
				st = st.Background(toTcell(v.theme.Selection))
			}
			if d, ok := parenDecorAt(lp.Parens, byteCol); ok {
				st = st.Reverse(true)
				if d.Mismatch {
					st = st.Foreground(tcell.ColorRed)
				}
			}
			if lp.Line == mainPos.Line && byteCol == mainPos.Column {
				v.screen.ShowCursor(x, row)
			} else if caretAtCol(lp.CursorCols, byteCol) {
				st = st.Reverse(true)
			}
			if r == '\t' {
				next := x - gutter
				next = ((next/v.tabSize)+1)*v.tabSize + gutter
				for ; x < next && x < w; x++ {
					v.screen.SetContent(x, row, ' ', nil, st)
				}
			} else if x < w {
				v.screen.SetContent(x, row, r, nil, st)
				x += runewidth.RuneWidth(r)
			}
			byteCol += len(string(r))
		}
	}
	// Caret past the last byte of the line.
	if lp.Line == mainPos.Line && mainPos.Column >= byteCol {
		v.screen.ShowCursor(x, row)
	}
	if lp.Current {
		st := base.Background(lineBG)
		for fx := x; fx < w; fx++ {
			v.screen.SetContent(fx, row, ' ', nil, st)
		}
	}
	if lp.Folded && lp.Placeholder != "" {
		st := base.Foreground(toTcell(v.theme.FoldMarker))
		x = gutter + displayWidth(lp.Text, v.tabSize) + 1
		for _, r := range lp.Placeholder {
			if x >= w {
				break
			}
			v.screen.SetContent(x, row, r, nil, st)
			x += runewidth.RuneWidth(r)
		}
	}
}

func (v *viewer) drawStatus(row, w int, mc *cursor.MultiCursor) {
	st := tcell.StyleDefault.
		Foreground(toTcell(v.theme.Background)).
		Background(toTcell(v.theme.Foreground))

	name := v.file
	if name == "" {
		name = "[no file]"
	}
	mod := ""
	if v.ed.Document().IsModified() {
		mod = " [+]"
	}
	if v.readOnly {
		mod = " [RO]"
	}
	pos := mc.Main().Position
	extra := ""
	if mc.IsMulti() {
		extra = fmt.Sprintf("  %d carets", mc.Count())
	}
	text := fmt.Sprintf(" %s%s  Ln %d, Col %d%s  rev %d ",
		name, mod, pos.Line+1, pos.Column+1, extra, v.ed.Revision())
	if len(text) < w {
		text += strings.Repeat(" ", w-len(text))
	}
	x := 0
	for _, r := range text {
		if x >= w {
			break
		}
		v.screen.SetContent(x, row, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}

func (v *viewer) segStyle(seg render.Segment, bg tcell.Color) tcell.Style {
	st := tcell.StyleDefault.
		Foreground(toTcell(seg.Style.Foreground)).
		Background(bg)
	if seg.Style.HasBG {
		st = st.Background(toTcell(seg.Style.Background))
	}
	if seg.Style.Bold {
		st = st.Bold(true)
	}
	if seg.Style.Italic {
		st = st.Italic(true)
	}
	if seg.Style.Underline {
		st = st.Underline(true)
	}
	return st
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func markGlyph(k marks.Kind) rune {
	switch k {
	case marks.Bookmark:
		return '*'
	case marks.Breakpoint:
		return 'o'
	case marks.Diagnostic:
		return '!'
	}
	return ' '
}

func inSpans(spans []render.ColSpan, col int) bool {
	for _, s := range spans {
		if col >= s.Start && col < s.End {
			return true
		}
	}
	return false
}

func parenDecorAt(decors []render.ParenDecor, col int) (render.ParenDecor, bool) {
	for _, d := range decors {
		if d.Col == col {
			return d, true
		}
	}
	return render.ParenDecor{}, false
}

func caretAtCol(cols []int, col int) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}

func numWidth(n int) int {
	w := 1
	for n >= 10 {
		n /= 10
		w++
	}
	return w
}

func displayWidth(text string, tabSize int) int {
	w := 0
	for _, r := range text {
		if r == '\t' {
			w = ((w / tabSize) + 1) * tabSize
		} else {
			w += runewidth.RuneWidth(r)
		}
	}
	return w
}
