package highlight

import (
	"strings"
	"sync"
)

// Engine tokenizes source text one line at a time.
type Engine interface {
	// HighlightLine tokenizes a single line (without its trailing
	// newline). prevState is the state left by the previous line.
	// Returns the spans on the line and the state at its end.
	HighlightLine(line string, prevState LexerState) ([]Span, LexerState)

	// Language returns the language this engine handles.
	Language() string

	// FileExtensions returns the extensions this engine claims.
	FileExtensions() []string
}

// Registry maps languages and file extensions to engines.
type Registry struct {
	mu          sync.RWMutex
	byLanguage  map[string]Engine
	byExtension map[string]Engine
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]Engine),
		byExtension: make(map[string]Engine),
	}
}

// Register adds an engine, overriding any previous registration for
// the same language or extensions.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[strings.ToLower(e.Language())] = e
	for _, ext := range e.FileExtensions() {
		r.byExtension[normalizeExt(ext)] = e
	}
}

// ByLanguage returns the engine registered for a language.
func (r *Registry) ByLanguage(language string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byLanguage[strings.ToLower(language)]
	return e, ok
}

// ByExtension returns the engine registered for a file extension.
// The extension may be given with or without the leading dot.
func (r *Registry) ByExtension(ext string) (Engine, bool) {
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExtension[normalizeExt(ext)]
	return e, ok
}

// Languages returns all registered language names.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	return langs
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}

// DefaultRegistry returns a registry preloaded with the built-in rule
// engines.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(GoEngine())
	r.Register(CEngine())
	return r
}
