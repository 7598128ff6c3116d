package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is a single regex highlighting rule.
type Rule struct {
	Pattern   *regexp.Regexp
	TokenType TokenType
}

// blockRule describes a construct that may span lines, like a block
// comment or a raw string.
type blockRule struct {
	start     string
	end       string
	tokenType TokenType
	state     LexerState
}

// RuleEngine is a regex and keyword driven Engine. It is deliberately
// approximate; exact grammars come from the chroma or Lua engines.
type RuleEngine struct {
	language    string
	extensions  []string
	lineComment string
	rules       []Rule
	keywords    map[string]TokenType
	blocks      []blockRule
}

// NewRuleEngine creates an empty rule engine for a language.
func NewRuleEngine(language string, extensions ...string) *RuleEngine {
	return &RuleEngine{
		language:   language,
		extensions: extensions,
		keywords:   make(map[string]TokenType),
	}
}

// Language returns the language name.
func (e *RuleEngine) Language() string { return e.language }

// FileExtensions returns the claimed file extensions.
func (e *RuleEngine) FileExtensions() []string { return e.extensions }

// AddRule appends a regex rule. Rules are tried in insertion order and
// never override text already claimed by an earlier rule.
func (e *RuleEngine) AddRule(pattern string, tokenType TokenType) *RuleEngine {
	e.rules = append(e.rules, Rule{
		Pattern:   regexp.MustCompile(pattern),
		TokenType: tokenType,
	})
	return e
}

// AddKeywords registers keywords with a token type.
func (e *RuleEngine) AddKeywords(tokenType TokenType, words ...string) *RuleEngine {
	for _, w := range words {
		e.keywords[w] = tokenType
	}
	return e
}

// SetLineComment sets the line comment leader (e.g. "//").
func (e *RuleEngine) SetLineComment(leader string) *RuleEngine {
	e.lineComment = leader
	return e
}

// AddBlock registers a multi-line construct.
func (e *RuleEngine) AddBlock(start, end string, tokenType TokenType, state LexerState) *RuleEngine {
	e.blocks = append(e.blocks, blockRule{start, end, tokenType, state})
	return e
}

// HighlightLine tokenizes one line, resuming any construct left open
// by the previous line.
func (e *RuleEngine) HighlightLine(line string, prevState LexerState) ([]Span, LexerState) {
	var spans []Span

	if prevState != StateNormal {
		rule, ok := e.blockForState(prevState)
		if !ok {
			// State from a different engine; start fresh.
			prevState = StateNormal
		} else {
			end := strings.Index(line, rule.end)
			if end < 0 {
				return []Span{{Type: rule.tokenType, StartCol: 0, EndCol: len(line)}}, prevState
			}
			stop := end + len(rule.end)
			spans = append(spans, Span{Type: rule.tokenType, StartCol: 0, EndCol: stop})
			rest, state := e.scan(line, stop)
			return append(spans, rest...), state
		}
	}

	return e.scan(line, 0)
}

func (e *RuleEngine) blockForState(state LexerState) (blockRule, bool) {
	for _, b := range e.blocks {
		if b.state == state {
			return b, true
		}
	}
	return blockRule{}, false
}

// scan tokenizes line[from:] in the normal state.
func (e *RuleEngine) scan(line string, from int) ([]Span, LexerState) {
	text := line[from:]
	covered := make([]bool, len(text))
	var spans []Span
	state := StateNormal

	// Line comments swallow the rest of the line.
	if e.lineComment != "" {
		if idx := e.uncoveredIndex(text, covered, e.lineComment); idx >= 0 {
			spans = append(spans, Span{Type: TokenComment, StartCol: idx, EndCol: len(text)})
			markCovered(covered, idx, len(text))
		}
	}

	// Block constructs starting on this line.
	for _, rule := range e.blocks {
		pos := 0
		for pos < len(text) {
			idx := e.uncoveredIndex(text[pos:], coveredTail(covered, pos), rule.start)
			if idx < 0 {
				break
			}
			idx += pos
			bodyStart := idx + len(rule.start)
			end := strings.Index(text[bodyStart:], rule.end)
			if end < 0 {
				spans = append(spans, Span{Type: rule.tokenType, StartCol: idx, EndCol: len(text)})
				markCovered(covered, idx, len(text))
				state = rule.state
				pos = len(text)
				break
			}
			stop := bodyStart + end + len(rule.end)
			spans = append(spans, Span{Type: rule.tokenType, StartCol: idx, EndCol: stop})
			markCovered(covered, idx, stop)
			pos = stop
		}
	}

	// Regex rules over whatever is left.
	for _, rule := range e.rules {
		for _, m := range rule.Pattern.FindAllStringIndex(text, -1) {
			if isCovered(covered, m[0], m[1]) {
				continue
			}
			spans = append(spans, Span{Type: rule.TokenType, StartCol: m[0], EndCol: m[1]})
			markCovered(covered, m[0], m[1])
		}
	}

	// Keywords and identifiers.
	spans = append(spans, e.scanWords(text, covered)...)

	for i := range spans {
		spans[i].StartCol += from
		spans[i].EndCol += from
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].StartCol < spans[j].StartCol })
	return spans, state
}

// scanWords emits keyword spans for uncovered identifier-like words.
func (e *RuleEngine) scanWords(text string, covered []bool) []Span {
	var spans []Span
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordStart(r) || covered[i] {
			i += size
			continue
		}
		start := i
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !isWordPart(r) {
				break
			}
			i += size
		}
		if tt, ok := e.keywords[text[start:i]]; ok && !isCovered(covered, start, i) {
			spans = append(spans, Span{Type: tt, StartCol: start, EndCol: i})
			markCovered(covered, start, i)
		}
	}
	return spans
}

func (e *RuleEngine) uncoveredIndex(text string, covered []bool, sub string) int {
	offset := 0
	for {
		idx := strings.Index(text[offset:], sub)
		if idx < 0 {
			return -1
		}
		idx += offset
		if !isCovered(covered, idx, idx+len(sub)) {
			return idx
		}
		offset = idx + 1
	}
}

func isCovered(covered []bool, start, end int) bool {
	for i := start; i < end && i < len(covered); i++ {
		if covered[i] {
			return true
		}
	}
	return false
}

func markCovered(covered []bool, start, end int) {
	for i := start; i < end && i < len(covered); i++ {
		covered[i] = true
	}
}

func coveredTail(covered []bool, from int) []bool {
	if from >= len(covered) {
		return nil
	}
	return covered[from:]
}

func isWordStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isWordPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

// GoEngine returns a rule engine for Go source.
func GoEngine() *RuleEngine {
	return NewRuleEngine("go", ".go").
		SetLineComment("//").
		AddBlock("/*", "*/", TokenComment, StateBlockComment).
		AddBlock("`", "`", TokenString, StateRawString).
		AddRule(`"(?:[^"\\]|\\.)*"`, TokenString).
		AddRule(`'(?:[^'\\]|\\.)*'`, TokenString).
		AddRule(`\b0[xX][0-9a-fA-F_]+\b|\b\d[\d_]*(?:\.\d+)?(?:[eE][+-]?\d+)?\b`, TokenNumber).
		AddKeywords(TokenKeywordControl,
			"if", "else", "for", "range", "switch", "case", "default",
			"return", "break", "continue", "goto", "fallthrough",
			"select", "defer", "go").
		AddKeywords(TokenKeyword,
			"func", "var", "const", "type", "struct", "interface",
			"map", "chan", "package", "import").
		AddKeywords(TokenConstant, "true", "false", "nil", "iota").
		AddKeywords(TokenTypeName,
			"int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
			"float32", "float64", "complex64", "complex128",
			"string", "bool", "byte", "rune", "error", "any")
}

// CEngine returns a rule engine covering C-family source.
func CEngine() *RuleEngine {
	return NewRuleEngine("c", ".c", ".h", ".cpp", ".hpp", ".cc").
		SetLineComment("//").
		AddBlock("/*", "*/", TokenComment, StateBlockComment).
		AddRule(`"(?:[^"\\]|\\.)*"`, TokenString).
		AddRule(`'(?:[^'\\]|\\.)'`, TokenString).
		AddRule(`^\s*#\s*\w+`, TokenPreprocessor).
		AddRule(`\b0[xX][0-9a-fA-F]+\b|\b\d+(?:\.\d+)?[uUlLfF]*\b`, TokenNumber).
		AddKeywords(TokenKeywordControl,
			"if", "else", "for", "while", "do", "switch", "case",
			"default", "return", "break", "continue", "goto").
		AddKeywords(TokenKeyword,
			"struct", "union", "enum", "typedef", "static", "extern",
			"const", "volatile", "inline", "sizeof", "class",
			"namespace", "template", "public", "private", "protected").
		AddKeywords(TokenTypeName,
			"void", "char", "short", "int", "long", "float", "double",
			"unsigned", "signed", "bool", "auto").
		AddKeywords(TokenConstant, "true", "false", "NULL", "nullptr")
}
