package highlight

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Lua engine script errors.
var (
	ErrLuaNoLexer    = errors.New("highlight: script defines no lexer table")
	ErrLuaNoTokenize = errors.New("highlight: lexer table has no tokenize function")
	ErrLuaNoLanguage = errors.New("highlight: lexer table has no language name")
)

// LuaEngine runs a lexer written in Lua. The script must define a
// global table named "lexer":
//
//	lexer = {
//	    language = "ini",
//	    extensions = { ".ini", ".cfg" },
//	    tokenize = function(line, state)
//	        -- return spans, state
//	        return { { type = "comment", from = 0, to = #line } }, 0
//	    end,
//	}
//
// Span positions are 0-indexed byte columns, matching the rest of the
// highlighter. The state is an integer threaded across lines.
type LuaEngine struct {
	mu         sync.Mutex
	ls         *lua.LState
	tokenize   *lua.LFunction
	language   string
	extensions []string
}

// NewLuaEngine compiles a lexer script and validates its contract.
// The caller owns the engine and must Close it when done.
func NewLuaEngine(script string) (*LuaEngine, error) {
	ls := lua.NewState()
	if err := ls.DoString(script); err != nil {
		ls.Close()
		return nil, fmt.Errorf("highlight: lexer script: %w", err)
	}

	table, ok := ls.GetGlobal("lexer").(*lua.LTable)
	if !ok {
		ls.Close()
		return nil, ErrLuaNoLexer
	}

	language, ok := table.RawGetString("language").(lua.LString)
	if !ok || language == "" {
		ls.Close()
		return nil, ErrLuaNoLanguage
	}

	tokenize, ok := table.RawGetString("tokenize").(*lua.LFunction)
	if !ok {
		ls.Close()
		return nil, ErrLuaNoTokenize
	}

	var exts []string
	if t, ok := table.RawGetString("extensions").(*lua.LTable); ok {
		t.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				exts = append(exts, string(s))
			}
		})
	}

	return &LuaEngine{
		ls:         ls,
		tokenize:   tokenize,
		language:   string(language),
		extensions: exts,
	}, nil
}

// Close releases the underlying Lua state.
func (e *LuaEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ls != nil {
		e.ls.Close()
		e.ls = nil
	}
}

// Language returns the language declared by the script.
func (e *LuaEngine) Language() string { return e.language }

// FileExtensions returns the extensions declared by the script.
func (e *LuaEngine) FileExtensions() []string { return e.extensions }

// HighlightLine calls the script's tokenize function. A script error
// leaves the line unstyled rather than failing the whole pass.
func (e *LuaEngine) HighlightLine(line string, prevState LexerState) ([]Span, LexerState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ls == nil {
		return nil, prevState
	}

	top := e.ls.GetTop()
	e.ls.Push(e.tokenize)
	e.ls.Push(lua.LString(line))
	e.ls.Push(lua.LNumber(prevState))
	if err := e.ls.PCall(2, 2, nil); err != nil {
		e.ls.SetTop(top)
		return nil, StateNormal
	}

	spans := e.spansFromTable(e.ls.Get(top+1), len(line))
	state := StateNormal
	if n, ok := e.ls.Get(top + 2).(lua.LNumber); ok {
		state = LexerState(n)
	}
	e.ls.SetTop(top)
	return spans, state
}

// spansFromTable decodes the array of span tables returned by tokenize.
// Malformed entries are skipped.
func (e *LuaEngine) spansFromTable(lv lua.LValue, lineLen int) []Span {
	table, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}

	var spans []Span
	table.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		name, ok := entry.RawGetString("type").(lua.LString)
		if !ok {
			return
		}
		from, ok := entry.RawGetString("from").(lua.LNumber)
		if !ok {
			return
		}
		to, ok := entry.RawGetString("to").(lua.LNumber)
		if !ok {
			return
		}
		start, end := int(from), int(to)
		if start < 0 || end > lineLen || start >= end {
			return
		}
		tt := TokenTypeFromString(string(name))
		if tt == TokenNone {
			return
		}
		spans = append(spans, Span{Type: tt, StartCol: start, EndCol: end})
	})
	return spans
}
