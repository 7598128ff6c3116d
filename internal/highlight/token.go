// Package highlight provides incremental syntax highlighting over a
// line-based document. Engines tokenize one line at a time and thread a
// lexer state across line boundaries so multi-line constructs survive
// partial rehighlighting.
package highlight

import "strings"

// TokenType represents the semantic type of a highlighted span.
type TokenType uint16

// Token types, loosely following TextMate scope naming.
const (
	TokenNone TokenType = iota

	TokenComment
	TokenCommentDoc
	TokenString
	TokenStringEscape
	TokenNumber
	TokenKeyword
	TokenKeywordControl
	TokenOperator
	TokenPunctuation
	TokenBracket
	TokenIdentifier
	TokenConstant
	TokenFunction
	TokenTypeName
	TokenPreprocessor
	TokenInvalid

	// Editor hints, not produced by lexers.
	TokenWhitespace
	TokenDisabledCode

	tokenTypeCount
)

// String returns the scope-style name of a token type.
func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// IsComment reports whether the token is a comment variant.
func (t TokenType) IsComment() bool {
	return t == TokenComment || t == TokenCommentDoc
}

// IsString reports whether the token is a string variant.
func (t TokenType) IsString() bool {
	return t == TokenString || t == TokenStringEscape
}

// IsLiteral reports whether the token body should be treated as opaque
// text. Bracket and parenthesis characters inside literal tokens do not
// count toward scope depth.
func (t TokenType) IsLiteral() bool {
	return t.IsComment() || t.IsString()
}

var tokenTypeNames = []string{
	TokenNone:           "none",
	TokenComment:        "comment",
	TokenCommentDoc:     "comment.doc",
	TokenString:         "string",
	TokenStringEscape:   "string.escape",
	TokenNumber:         "number",
	TokenKeyword:        "keyword",
	TokenKeywordControl: "keyword.control",
	TokenOperator:       "operator",
	TokenPunctuation:    "punctuation",
	TokenBracket:        "punctuation.bracket",
	TokenIdentifier:     "identifier",
	TokenConstant:       "constant",
	TokenFunction:       "function",
	TokenTypeName:       "type",
	TokenPreprocessor:   "preprocessor",
	TokenInvalid:        "invalid",
	TokenWhitespace:     "editor.whitespace",
	TokenDisabledCode:   "editor.disabled",
}

// TokenTypeFromString converts a scope-style name to a TokenType.
// Hierarchical names fall back to their parent scope, so "comment.line"
// resolves to TokenComment.
func TokenTypeFromString(scope string) TokenType {
	for scope != "" {
		if t, ok := scopeToToken[scope]; ok {
			return t
		}
		dot := strings.LastIndexByte(scope, '.')
		if dot < 0 {
			break
		}
		scope = scope[:dot]
	}
	return TokenNone
}

var scopeToToken = func() map[string]TokenType {
	m := make(map[string]TokenType, len(tokenTypeNames))
	for i, name := range tokenTypeNames {
		if name != "" {
			m[name] = TokenType(i)
		}
	}
	return m
}()

// Span is a half-open [StartCol, EndCol) byte range on a single line
// carrying one token type.
type Span struct {
	Type     TokenType
	StartCol int
	EndCol   int
}

// Len returns the byte length of the span.
func (s Span) Len() int { return s.EndCol - s.StartCol }

// Contains reports whether the byte column falls inside the span.
func (s Span) Contains(col int) bool {
	return col >= s.StartCol && col < s.EndCol
}

// LexerState is the per-line continuation state of an engine. Engines
// encode whatever they need in the integer; zero means "normal". Equal
// states at a line boundary mean every following line would tokenize
// identically, which is what lets rehighlighting stop early.
type LexerState int

// States used by the built-in rule engine. Engine implementations are
// free to define their own values beyond these.
const (
	StateNormal LexerState = iota
	StateBlockComment
	StateString
	StateRawString
)

// SpanAt returns the span covering the given byte column, if any.
// Spans are assumed sorted by StartCol.
func SpanAt(spans []Span, col int) (Span, bool) {
	for _, s := range spans {
		if s.Contains(col) {
			return s, true
		}
		if s.StartCol > col {
			break
		}
	}
	return Span{}, false
}
