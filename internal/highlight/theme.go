package highlight

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Style is the visual treatment of a token type.
type Style struct {
	Foreground colorful.Color
	Background colorful.Color
	HasBG      bool
	Bold       bool
	Italic     bool
	Underline  bool
}

// Theme maps token types to styles.
type Theme struct {
	Name          string
	Background    colorful.Color
	Foreground    colorful.Color
	Selection     colorful.Color
	LineHighlight colorful.Color
	FoldMarker    colorful.Color

	TokenStyles map[TokenType]Style
}

// StyleFor returns the style for a token type, falling back to the
// default foreground.
func (t *Theme) StyleFor(tokenType TokenType) Style {
	if s, ok := t.TokenStyles[tokenType]; ok {
		return s
	}
	return Style{Foreground: t.Foreground}
}

// DisabledStyle returns the dimmed style used for preprocessor-disabled
// code, derived by blending the foreground toward the background.
func (t *Theme) DisabledStyle() Style {
	return Style{Foreground: t.Foreground.BlendLab(t.Background, 0.55).Clamped()}
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// DefaultTheme returns a dark theme in the VS Code Dark+ family.
func DefaultTheme() *Theme {
	return &Theme{
		Name:          "default-dark",
		Background:    hex("#1e1e1e"),
		Foreground:    hex("#d4d4d4"),
		Selection:     hex("#264f78"),
		LineHighlight: hex("#282828"),
		FoldMarker:    hex("#808080"),
		TokenStyles: map[TokenType]Style{
			TokenComment:        {Foreground: hex("#6a9955"), Italic: true},
			TokenCommentDoc:     {Foreground: hex("#6a9955"), Italic: true, Bold: true},
			TokenString:         {Foreground: hex("#ce9178")},
			TokenStringEscape:   {Foreground: hex("#d7ba7d")},
			TokenNumber:         {Foreground: hex("#b5cea8")},
			TokenKeyword:        {Foreground: hex("#569cd6")},
			TokenKeywordControl: {Foreground: hex("#c586c0")},
			TokenOperator:       {Foreground: hex("#d4d4d4")},
			TokenPunctuation:    {Foreground: hex("#d4d4d4")},
			TokenBracket:        {Foreground: hex("#ffd700")},
			TokenConstant:       {Foreground: hex("#4fc1ff")},
			TokenFunction:       {Foreground: hex("#dcdcaa")},
			TokenTypeName:       {Foreground: hex("#4ec9b0")},
			TokenPreprocessor:   {Foreground: hex("#9b9b9b")},
			TokenInvalid:        {Foreground: hex("#f44747"), Underline: true},
			TokenWhitespace:     {Foreground: hex("#3e3e42")},
			TokenDisabledCode:   {Foreground: hex("#6e6e6e"), Italic: true},
		},
	}
}

// LightTheme returns a plain light theme.
func LightTheme() *Theme {
	return &Theme{
		Name:          "default-light",
		Background:    hex("#ffffff"),
		Foreground:    hex("#000000"),
		Selection:     hex("#add6ff"),
		LineHighlight: hex("#f3f3f3"),
		FoldMarker:    hex("#808080"),
		TokenStyles: map[TokenType]Style{
			TokenComment:        {Foreground: hex("#008000"), Italic: true},
			TokenCommentDoc:     {Foreground: hex("#008000"), Italic: true, Bold: true},
			TokenString:         {Foreground: hex("#a31515")},
			TokenStringEscape:   {Foreground: hex("#ee0000")},
			TokenNumber:         {Foreground: hex("#098658")},
			TokenKeyword:        {Foreground: hex("#0000ff")},
			TokenKeywordControl: {Foreground: hex("#af00db")},
			TokenBracket:        {Foreground: hex("#0431fa")},
			TokenConstant:       {Foreground: hex("#0070c1")},
			TokenFunction:       {Foreground: hex("#795e26")},
			TokenTypeName:       {Foreground: hex("#267f99")},
			TokenPreprocessor:   {Foreground: hex("#808080")},
			TokenInvalid:        {Foreground: hex("#cd3131"), Underline: true},
			TokenWhitespace:     {Foreground: hex("#d3d3d3")},
			TokenDisabledCode:   {Foreground: hex("#999999"), Italic: true},
		},
	}
}
