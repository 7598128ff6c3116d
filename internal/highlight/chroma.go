package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// ChromaEngine adapts a chroma lexer to the Engine interface. Chroma
// lexers tokenize whole inputs, so the adapter feeds them single lines
// and approximates cross-line constructs with a small state machine
// for the common comment and string continuations.
type ChromaEngine struct {
	language   string
	extensions []string
	lexer      chroma.Lexer
}

// NewChromaEngine wraps a chroma lexer found by language name.
// Returns nil if chroma knows no such language.
func NewChromaEngine(language string) *ChromaEngine {
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	cfg := lexer.Config()
	exts := make([]string, 0, len(cfg.Filenames))
	for _, pattern := range cfg.Filenames {
		// Chroma filename globs are almost always "*.ext".
		if strings.HasPrefix(pattern, "*.") {
			exts = append(exts, pattern[1:])
		}
	}
	return &ChromaEngine{
		language:   strings.ToLower(cfg.Name),
		extensions: exts,
		lexer:      chroma.Coalesce(lexer),
	}
}

// ChromaEngineForFile wraps the chroma lexer matching a file name.
// Returns nil if no lexer matches.
func ChromaEngineForFile(filename string) *ChromaEngine {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return nil
	}
	cfg := lexer.Config()
	return &ChromaEngine{
		language: strings.ToLower(cfg.Name),
		lexer:    chroma.Coalesce(lexer),
	}
}

// Language returns the chroma lexer's language name.
func (e *ChromaEngine) Language() string { return e.language }

// FileExtensions returns the extensions claimed by the chroma lexer.
func (e *ChromaEngine) FileExtensions() []string { return e.extensions }

// Additional states used to resume multi-line constructs.
const (
	stateChromaComment LexerState = 100 + iota
	stateChromaString
)

// HighlightLine tokenizes one line with the wrapped chroma lexer.
func (e *ChromaEngine) HighlightLine(line string, prevState LexerState) ([]Span, LexerState) {
	switch prevState {
	case stateChromaComment:
		// Close the construct so the lexer starts inside it.
		if end := strings.Index(line, "*/"); end >= 0 {
			spans := []Span{{Type: TokenComment, StartCol: 0, EndCol: end + 2}}
			rest, state := e.HighlightLine(line[end+2:], StateNormal)
			for i := range rest {
				rest[i].StartCol += end + 2
				rest[i].EndCol += end + 2
			}
			return append(spans, rest...), state
		}
		return []Span{{Type: TokenComment, StartCol: 0, EndCol: len(line)}}, prevState
	case stateChromaString:
		if end := strings.Index(line, "`"); end >= 0 {
			spans := []Span{{Type: TokenString, StartCol: 0, EndCol: end + 1}}
			rest, state := e.HighlightLine(line[end+1:], StateNormal)
			for i := range rest {
				rest[i].StartCol += end + 1
				rest[i].EndCol += end + 1
			}
			return append(spans, rest...), state
		}
		return []Span{{Type: TokenString, StartCol: 0, EndCol: len(line)}}, prevState
	}

	iterator, err := e.lexer.Tokenise(nil, line)
	if err != nil {
		return nil, StateNormal
	}

	var spans []Span
	col := 0
	state := StateNormal
	for _, tok := range iterator.Tokens() {
		length := len(tok.Value)
		tt := tokenTypeFromChroma(tok.Type)
		if tt != TokenNone && length > 0 {
			spans = append(spans, Span{Type: tt, StartCol: col, EndCol: col + length})
		}
		col += length
	}

	// Detect constructs left open at end of line.
	if open, s := e.openConstruct(line, spans); open {
		state = s
	}
	return spans, state
}

// openConstruct checks whether the line ends inside a block comment or
// raw string that continues on the next line.
func (e *ChromaEngine) openConstruct(line string, spans []Span) (bool, LexerState) {
	if len(spans) == 0 {
		return false, StateNormal
	}
	last := spans[len(spans)-1]
	if last.EndCol != len(line) {
		return false, StateNormal
	}
	text := line[last.StartCol:last.EndCol]
	switch {
	case last.Type.IsComment() && strings.Contains(text, "/*") && !strings.HasSuffix(text, "*/"):
		return true, stateChromaComment
	case last.Type.IsString() && strings.HasPrefix(text, "`") && (len(text) == 1 || !strings.HasSuffix(text, "`")):
		return true, stateChromaString
	}
	return false, StateNormal
}

// tokenTypeFromChroma maps chroma token categories to our token types.
func tokenTypeFromChroma(t chroma.TokenType) TokenType {
	switch {
	case t.InCategory(chroma.Comment):
		if t == chroma.CommentSpecial {
			return TokenCommentDoc
		}
		if t == chroma.CommentPreproc || t == chroma.CommentPreprocFile {
			return TokenPreprocessor
		}
		return TokenComment
	case t == chroma.LiteralStringEscape:
		return TokenStringEscape
	case t.InSubCategory(chroma.LiteralString):
		return TokenString
	case t.InSubCategory(chroma.LiteralNumber):
		return TokenNumber
	case t == chroma.KeywordType:
		return TokenTypeName
	case t == chroma.KeywordConstant:
		return TokenConstant
	case t.InCategory(chroma.Keyword):
		return TokenKeyword
	case t.InCategory(chroma.Operator):
		return TokenOperator
	case t.InCategory(chroma.Punctuation):
		return TokenPunctuation
	case t == chroma.NameFunction:
		return TokenFunction
	case t == chroma.NameClass:
		return TokenTypeName
	case t == chroma.NameConstant:
		return TokenConstant
	case t.InCategory(chroma.Name):
		return TokenIdentifier
	case t.InCategory(chroma.Error):
		return TokenInvalid
	default:
		return TokenNone
	}
}
