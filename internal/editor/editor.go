// Package editor is the facade over the core: it owns the document,
// the highlighter, folding, marks, multi-cursor state, history, and
// the auto-completer, and sequences them through the typing pipeline
// a shell drives with keystrokes.
package editor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/autocomplete"
	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/cursor"
	"github.com/dshills/textcore/internal/document"
	"github.com/dshills/textcore/internal/event"
	"github.com/dshills/textcore/internal/fold"
	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/history"
	"github.com/dshills/textcore/internal/indent"
	"github.com/dshills/textcore/internal/marks"
	"github.com/dshills/textcore/internal/render"
	"github.com/dshills/textcore/internal/session"
	"github.com/dshills/textcore/internal/work"
)

// ErrNoSelection is returned by selection-only operations when no
// cursor holds one.
var ErrNoSelection = errors.New("editor: no selection")

// Options configures a new editor.
type Options struct {
	// FileName selects the lexical engine by extension.
	FileName string
	// Language overrides extension-based engine selection.
	Language string
	Config   config.Config
	Complete autocomplete.Settings
	Registry *highlight.Registry
	Logger   *Logger
}

// DefaultOptions returns options with every subsystem enabled.
func DefaultOptions() Options {
	return Options{
		Config:   config.Default(),
		Complete: autocomplete.DefaultSettings(),
	}
}

// Editor composes the core components for one open document.
type Editor struct {
	doc       *document.Document
	hl        *highlight.Highlighter
	folds     *fold.Engine
	marks     *marks.Registry
	completer *autocomplete.Completer
	hist      *history.History
	bus       *event.Bus
	cursors   *cursor.MultiCursor
	indenter  indent.Indenter
	cfg       config.Config
	log       *Logger
}

// New creates an editor over initial text. A file type without a
// registered engine degrades to plain-text styling.
func New(text string, opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = NullLogger
	}
	reg := opts.Registry
	if reg == nil {
		reg = highlight.DefaultRegistry()
	}

	doc := document.FromString(text)
	engine := resolveEngine(reg, opts)
	hl := highlight.New(doc, engine)
	hl.SetShowWhitespace(opts.Config.Display.VisualizeWhitespace)

	e := &Editor{
		doc:      doc,
		hl:       hl,
		folds:    fold.NewEngine(doc),
		hist:     history.New(0),
		bus:      event.NewBus(),
		cursors:  cursor.New(document.Point{}),
		indenter: indenterFor(engine),
		cfg:      opts.Config,
		log:      opts.Logger.WithField("file", opts.FileName),
	}

	doc.OnChange(func(c document.Change) {
		first, last := e.hl.Apply(c)
		e.folds.Validate(first, last)
		_ = e.bus.Publish(context.Background(), event.TopicEdit, event.DocumentEdited{
			Change:   c,
			Revision: doc.Revision(),
		})
		_ = e.bus.Publish(context.Background(), event.TopicHighlight, event.HighlightDone{
			FirstLine: first,
			LastLine:  last,
		})
	})
	e.marks = marks.NewRegistry(doc)

	e.completer = autocomplete.New(doc, opts.Complete)
	e.completer.IsInComment = func(p document.Point) bool {
		sp, ok := highlight.SpanAt(e.hl.SpansForLine(p.Line), p.Column)
		return ok && sp.Type.IsComment()
	}
	e.completer.IsInString = func(p document.Point) bool {
		sp, ok := highlight.SpanAt(e.hl.SpansForLine(p.Line), p.Column)
		return ok && sp.Type.IsString()
	}

	hl.Apply(document.Change{FirstLine: 0, LinesAdded: doc.LineCount() - 1})

	if opts.Config.Display.AutoFoldFirstComment {
		e.foldFirstComment()
	}

	if engine != nil {
		e.log.Debug("editor opened, engine=%s lines=%d", engine.Language(), doc.LineCount())
	} else {
		e.log.Debug("editor opened, plain text, lines=%d", doc.LineCount())
	}
	return e
}

// resolveEngine picks the lexical engine once, at open time.
func resolveEngine(reg *highlight.Registry, opts Options) highlight.Engine {
	if opts.Language != "" {
		if eng, ok := reg.ByLanguage(opts.Language); ok {
			return eng
		}
	}
	if opts.FileName != "" {
		if eng, ok := reg.ByExtension(filepath.Ext(opts.FileName)); ok {
			return eng
		}
	}
	return nil
}

// indenterFor selects the indent strategy for the engine's language.
// Brace languages get the brace-aware indenter; everything else
// carries the previous line's indent forward.
func indenterFor(engine highlight.Engine) indent.Indenter {
	if engine == nil {
		return indent.NormalIndenter{}
	}
	switch engine.Language() {
	case "go", "c", "cpp", "java", "javascript", "rust":
		return indent.BraceIndenter{}
	}
	return indent.NormalIndenter{}
}

// foldFirstComment folds a leading file comment.
func (e *Editor) foldFirstComment() {
	spans := e.hl.SpansForLine(0)
	if len(spans) == 0 || !spans[0].Type.IsComment() {
		return
	}
	if e.folds.CanFold(0) {
		e.folds.Fold(0)
	}
}

// Document returns the underlying document.
func (e *Editor) Document() *document.Document { return e.doc }

// Highlighter returns the highlight driver.
func (e *Editor) Highlighter() *highlight.Highlighter { return e.hl }

// Folds returns the folding engine.
func (e *Editor) Folds() *fold.Engine { return e.folds }

// Marks returns the mark registry.
func (e *Editor) Marks() *marks.Registry { return e.marks }

// Bus returns the editor's event bus.
func (e *Editor) Bus() *event.Bus { return e.bus }

// History returns the undo history.
func (e *Editor) History() *history.History { return e.hist }

// Revision returns the document revision.
func (e *Editor) Revision() int64 { return e.doc.Revision() }

// MultiCursor returns the live cursor set.
func (e *Editor) MultiCursor() *cursor.MultiCursor { return e.cursors }

// SetMultiCursor replaces the cursor set, clamping to the document.
func (e *Editor) SetMultiCursor(mc *cursor.MultiCursor) {
	if mc == nil {
		return
	}
	mc.Clamp(e.doc)
	e.cursors = mc
}

// Move applies a movement operation to every cursor.
func (e *Editor) Move(op cursor.Op, keepSelection bool) {
	e.cursors.MoveAll(e.doc, op, keepSelection)
}

// InsertTyped runs the typing pipeline for text the user typed: the
// auto-completer may surround a selection, skip over an existing
// closer, or append one, and electric characters re-indent the line.
func (e *Editor) InsertTyped(text string) error {
	if text == "" {
		return nil
	}
	if text == "\n" {
		return e.NewLine()
	}

	if e.cursors.Count() == 1 {
		return e.typeSingle(text)
	}
	return e.insertAtCursors(e.partsFor(text))
}

// typeSingle handles the single-cursor typing path, where the
// auto-completer participates.
func (e *Editor) typeSingle(text string) error {
	c := e.cursors.Main()
	pos := c.Position

	selection := ""
	if c.HasSelection() {
		selection = e.cursors.SelectedText(e.doc)
	}

	res := e.completer.AutoComplete(pos, text, selection, true)

	if res.Surround != "" {
		return e.replaceSelection(c, res.Surround)
	}
	if res.Skipped > 0 {
		off := e.doc.PointToOffset(pos) + res.Skipped
		e.cursors = cursor.New(e.doc.OffsetToPoint(off))
		return nil
	}

	if selection != "" {
		return e.replaceSelection(c, text)
	}

	off := e.doc.PointToOffset(pos)
	e.hist.Begin("typing", e.cursors)
	if err := e.doc.Insert(off, text+res.AutoText); err != nil {
		e.hist.Cancel()
		return err
	}
	e.hist.Record(history.Operation{Offset: off, Added: text + res.AutoText})
	e.cursors = cursor.New(e.doc.OffsetToPoint(off + len(text)))

	// Electric characters re-indent inside the same undo group.
	if r, _ := utf8.DecodeRuneInString(text); e.indenter.IsElectric(r) {
		e.electricReindent()
	}
	return e.hist.Commit(e.cursors)
}

// replaceSelection swaps the cursor's selection for text, leaving the
// caret after it.
func (e *Editor) replaceSelection(c cursor.Cursor, text string) error {
	start := e.doc.PointToOffset(c.Start())
	end := e.doc.PointToOffset(c.End())
	removed := e.doc.TextRange(start, end)

	e.hist.Begin("replace", e.cursors)
	if err := e.doc.Replace(start, end-start, text); err != nil {
		e.hist.Cancel()
		return err
	}
	e.hist.Record(history.Operation{Offset: start, Removed: removed, Added: text})
	e.cursors = cursor.New(e.doc.OffsetToPoint(start + len(text)))
	return e.hist.Commit(e.cursors)
}

// electricReindent re-indents the current line after an electric
// closing character typed as its first printable character.
func (e *Editor) electricReindent() {
	pos := e.cursors.Main().Position
	line := pos.Line
	if line == 0 {
		return
	}
	text := e.doc.LineText(line)
	first := indent.FirstNonSpace(text)
	if first != pos.Column-1 {
		return
	}
	prev := e.doc.LineText(line - 1)
	target := indent.ElectricIndent(prev, e.cfg.Tabs)
	e.reindentLine(line, target)
}

// reindentLine rewrites one line's leading whitespace to the target
// column, shifting cursors on that line accordingly.
func (e *Editor) reindentLine(line, target int) {
	text := e.doc.LineText(line)
	newText := e.cfg.Tabs.ReindentedLine(text, target)
	if newText == text {
		return
	}
	prefixLen := indent.FirstNonSpace(text)
	newPrefixLen := indent.FirstNonSpace(newText)
	off := e.doc.LineStartOffset(line)
	if err := e.doc.Replace(off, prefixLen, newText[:newPrefixLen]); err != nil {
		return
	}
	e.hist.Record(history.Operation{
		Offset:  off,
		Removed: text[:prefixLen],
		Added:   newText[:newPrefixLen],
	})

	shift := newPrefixLen - prefixLen
	cs := e.cursors.Cursors()
	for i, c := range cs {
		if c.Position.Line == line && c.Position.Column >= prefixLen {
			c.Position.Column += shift
			c.Anchor = c.Position
			cs[i] = c
		}
	}
	e.cursors = cursor.FromCursors(cs...)
}

// NewLine inserts a line break at every caret with auto-indentation.
// With a single caret after an opening brace, the completer may add
// the closing brace on its own line below.
func (e *Editor) NewLine() error {
	if e.cursors.Count() > 1 {
		parts := make([]string, e.cursors.Count())
		for i, c := range e.cursors.Cursors() {
			parts[i] = "\n" + e.indentFor(c.Position)
		}
		return e.insertAtCursors(parts)
	}

	c := e.cursors.Main()
	if c.HasSelection() {
		if err := e.replaceSelection(c, ""); err != nil {
			return err
		}
		c = e.cursors.Main()
	}
	pos := c.Position
	closing := e.completer.CloseBlockOnEnter(pos)

	indentStr := e.indentFor(pos)
	ins := "\n" + indentStr
	caret := e.doc.PointToOffset(pos) + len(ins)
	if closing != "" {
		outer := e.cfg.Tabs.IndentationString(0, e.cfg.Tabs.IndentationColumn(e.doc.LineText(pos.Line)))
		ins += "\n" + outer + closing
	}

	off := e.doc.PointToOffset(pos)
	e.hist.Begin("newline", e.cursors)
	if err := e.doc.Insert(off, ins); err != nil {
		e.hist.Cancel()
		return err
	}
	e.hist.Record(history.Operation{Offset: off, Added: ins})
	e.cursors = cursor.New(e.doc.OffsetToPoint(caret))
	return e.hist.Commit(e.cursors)
}

// indentFor computes the indentation string for a line inserted after
// the position, from the text left of the caret.
func (e *Editor) indentFor(pos document.Point) string {
	text := e.doc.LineText(pos.Line)
	if pos.Column < len(text) {
		text = text[:pos.Column]
	}
	col := e.indenter.IndentFor(text, e.cfg.Tabs)
	return e.cfg.Tabs.IndentationString(0, col)
}

// Backspace deletes backwards at every caret. Selections are removed
// instead; an empty bracket or quote pair behind a lone caret is
// removed as a unit.
func (e *Editor) Backspace() error {
	if e.cursors.HasSelection() {
		return e.DeleteSelections()
	}
	if e.cursors.Count() == 1 {
		pos := e.cursors.Main().Position
		off := e.doc.PointToOffset(pos)
		if off == 0 {
			return nil
		}
		pairEnd := off + 1
		if pairEnd > e.doc.Len() {
			pairEnd = e.doc.Len()
		}
		pair := e.doc.TextRange(off-1, pairEnd)
		ok, err := e.completer.AutoBackspace(pos)
		if err != nil {
			return err
		}
		if ok {
			e.hist.Record(history.Operation{Offset: off - 1, Removed: pair})
			e.cursors = cursor.New(e.doc.OffsetToPoint(off - 1))
			return nil
		}
	}

	parts := make([]string, e.cursors.Count())
	cs := e.cursors.Cursors()
	spans := make([]cursor.Cursor, len(cs))
	for i, c := range cs {
		start := e.prevRuneOffset(c.Position)
		spans[i] = cursor.Select(e.doc.OffsetToPoint(start), c.Position)
		parts[i] = ""
	}
	e.cursors = cursor.FromCursors(spans...)
	return e.insertAtCursors(parts)
}

// prevRuneOffset is the offset of the rune (or separator) before the
// position.
func (e *Editor) prevRuneOffset(pos document.Point) int {
	off := e.doc.PointToOffset(pos)
	if off == 0 {
		return 0
	}
	if pos.Column == 0 {
		return off - 1
	}
	text := e.doc.LineText(pos.Line)[:pos.Column]
	_, size := utf8.DecodeLastRuneInString(text)
	return off - size
}

// DeleteSelections removes every cursor's selected text as one undo
// group.
func (e *Editor) DeleteSelections() error {
	if !e.cursors.HasSelection() {
		return ErrNoSelection
	}
	parts := make([]string, e.cursors.Count())
	return e.insertAtCursors(parts)
}

// partsFor distributes typed or pasted text across cursors: a
// clipboard with exactly one line per cursor gives each cursor its
// line, anything else is inserted whole at every caret.
func (e *Editor) partsFor(text string) []string {
	n := e.cursors.Count()
	parts := strings.Split(text, "\n")
	if n > 1 && len(parts) == n {
		return parts
	}
	out := make([]string, n)
	for i := range out {
		out[i] = text
	}
	return out
}

// insertAtCursors replaces every cursor's selection with its part, as
// one history group. Edits apply bottom-up so earlier offsets stay
// valid.
func (e *Editor) insertAtCursors(parts []string) error {
	cs := e.cursors.Cursors()
	if len(parts) != len(cs) {
		parts = append([]string(nil), parts...)
		for len(parts) < len(cs) {
			parts = append(parts, "")
		}
		parts = parts[:len(cs)]
	}

	type span struct{ start, end int }
	spans := make([]span, len(cs))
	for i, c := range cs {
		spans[i] = span{
			start: e.doc.PointToOffset(c.Start()),
			end:   e.doc.PointToOffset(c.End()),
		}
	}

	e.hist.Begin("edit", e.cursors)
	for i := len(cs) - 1; i >= 0; i-- {
		removed := e.doc.TextRange(spans[i].start, spans[i].end)
		if err := e.doc.Replace(spans[i].start, spans[i].end-spans[i].start, parts[i]); err != nil {
			e.hist.Cancel()
			return err
		}
		e.hist.Record(history.Operation{
			Offset:  spans[i].start,
			Removed: removed,
			Added:   parts[i],
		})
	}

	newCursors := make([]cursor.Cursor, len(cs))
	delta := 0
	for i := range cs {
		caret := spans[i].start + delta + len(parts[i])
		newCursors[i] = cursor.At(e.doc.OffsetToPoint(caret))
		delta += len(parts[i]) - (spans[i].end - spans[i].start)
	}
	e.cursors = cursor.FromCursors(newCursors...)
	return e.hist.Commit(e.cursors)
}

// Undo reverses the last edit group and restores its cursors.
func (e *Editor) Undo() error {
	mc, err := e.hist.Undo(e.doc)
	if err != nil {
		return err
	}
	if mc != nil {
		mc.Clamp(e.doc)
		e.cursors = mc
	} else {
		e.cursors.Clamp(e.doc)
	}
	return nil
}

// Redo reapplies the last undone edit group.
func (e *Editor) Redo() error {
	mc, err := e.hist.Redo(e.doc)
	if err != nil {
		return err
	}
	if mc != nil {
		mc.Clamp(e.doc)
		e.cursors = mc
	} else {
		e.cursors.Clamp(e.doc)
	}
	return nil
}

// ReindentLines shifts lines [first, last] by the delta that brings
// the first line to its computed indent, preserving relative
// indentation inside the range.
func (e *Editor) ReindentLines(first, last int) error {
	if first < 0 || last >= e.doc.LineCount() || first > last {
		return document.ErrLineOutOfRange
	}
	prev := ""
	if first > 0 {
		prev = e.doc.LineText(first - 1)
	}
	target := e.indenter.IndentFor(prev, e.cfg.Tabs)
	current := e.cfg.Tabs.IndentationColumn(e.doc.LineText(first))
	delta := target - current
	if delta == 0 {
		return nil
	}

	e.hist.Begin("reindent", e.cursors)
	for line := first; line <= last; line++ {
		text := e.doc.LineText(line)
		if indent.OnlySpace(text) {
			continue
		}
		col := e.cfg.Tabs.IndentationColumn(text) + delta
		if col < 0 {
			col = 0
		}
		e.reindentLine(line, col)
	}
	return e.hist.Commit(e.cursors)
}

// FoldAll folds every foldable region.
func (e *Editor) FoldAll() {
	e.folds.FoldAll()
	_ = e.bus.Publish(context.Background(), event.TopicFold, event.FoldChanged{Line: -1, Folded: true})
}

// UnfoldAll reveals everything.
func (e *Editor) UnfoldAll() {
	e.folds.UnfoldAll()
	_ = e.bus.Publish(context.Background(), event.TopicFold, event.FoldChanged{Line: -1, Folded: false})
}

// ToggleFold folds or unfolds the region at the line.
func (e *Editor) ToggleFold(line int) {
	e.folds.Toggle(line)
	folded := false
	if rec := e.doc.Line(line); rec != nil {
		folded = rec.Folded()
	}
	_ = e.bus.Publish(context.Background(), event.TopicFold, event.FoldChanged{Line: line, Folded: folded})
}

// MatchingBracket returns the position of the bracket matching the
// one at or before the main caret.
func (e *Editor) MatchingBracket() (document.Point, bool) {
	pos := e.cursors.Main().Position
	for _, p := range e.doc.Parentheses(pos.Line) {
		if p.Pos == pos.Column || p.Pos == pos.Column-1 {
			return render.MatchParen(e.doc, document.Point{Line: pos.Line, Column: p.Pos})
		}
	}
	return document.Point{}, false
}

// JumpToMatchingBracket moves the main caret to the matching bracket.
func (e *Editor) JumpToMatchingBracket() bool {
	match, ok := e.MatchingBracket()
	if !ok {
		return false
	}
	e.cursors = cursor.New(match)
	return true
}

// SetIfdefedOut marks lines [first, last] as disabled by the
// preprocessor. Affected lines are restyled.
func (e *Editor) SetIfdefedOut(first, last int) {
	for line := first; line <= last && line < e.doc.LineCount(); line++ {
		e.doc.SetIfdefedOut(line)
	}
}

// ClearIfdefedOut re-enables lines [first, last].
func (e *Editor) ClearIfdefedOut(first, last int) {
	for line := first; line <= last && line < e.doc.LineCount(); line++ {
		e.doc.ClearIfdefedOut(line)
	}
}

// Save hands the byte content outward and snapshots the saved
// revision on success.
func (e *Editor) Save(write func([]byte) error) error {
	if err := write([]byte(e.doc.Text())); err != nil {
		e.log.Error("save failed: %v", err)
		return err
	}
	e.doc.MarkSaved()
	e.log.Info("saved revision=%d", e.doc.Revision())
	return e.bus.Publish(context.Background(), event.TopicSave, event.DocumentSaved{
		Revision: e.doc.Revision(),
	})
}

// Reload replaces the document content, as after an external change.
// History is cleared; cursors clamp to the new content.
func (e *Editor) Reload(text string) error {
	e.doc.Load(text)
	e.hist.Clear()
	e.hl.RehighlightAll()
	e.cursors.Clamp(e.doc)
	e.log.Info("reloaded, lines=%d", e.doc.LineCount())
	return e.bus.Publish(context.Background(), event.TopicLoad, event.DocumentLoaded{
		Lines:    e.doc.LineCount(),
		Revision: e.doc.Revision(),
	})
}

// SessionState serializes the view state for session restore.
func (e *Editor) SessionState(scrollLine, scrollColumn int) ([]byte, error) {
	return session.Encode(session.State{
		ScrollLine:   scrollLine,
		ScrollColumn: scrollColumn,
		Cursors:      e.cursors,
		FoldedLines:  e.folds.FoldedLines(),
	})
}

// RestoreSession applies a previously saved session blob and returns
// the stored scroll position.
func (e *Editor) RestoreSession(blob []byte) (scrollLine, scrollColumn int, err error) {
	st, err := session.Decode(blob)
	if err != nil {
		return 0, 0, err
	}
	e.folds.RestoreFolds(st.FoldedLines)
	if st.Cursors != nil {
		st.Cursors.Clamp(e.doc)
		e.cursors = st.Cursors
	}
	return st.ScrollLine, st.ScrollColumn, nil
}

// Match is one search hit, spanning [Start, End) on a single line.
type Match struct {
	Start document.Point
	End   document.Point
}

// FindAll scans the whole document for a literal needle on a
// background pass and returns the matches in document order. The
// result slice is not updated by later edits.
func (e *Editor) FindAll(ctx context.Context, needle string) ([]Match, error) {
	if needle == "" {
		return nil, nil
	}
	var out []Match
	scan := work.StartScan(ctx, 0, e.doc.LineCount()-1, func(_ context.Context, line int) error {
		text := e.doc.LineText(line)
		from := 0
		for {
			i := strings.Index(text[from:], needle)
			if i < 0 {
				return nil
			}
			col := from + i
			out = append(out, Match{
				Start: document.Point{Line: line, Column: col},
				End:   document.Point{Line: line, Column: col + len(needle)},
			})
			from = col + len(needle)
		}
	})
	if err := scan.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
