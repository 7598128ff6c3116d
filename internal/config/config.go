// Package config loads editor settings from TOML. Recognized keys map
// onto the settings structs; unknown keys are ignored so settings
// files shared with other tools or newer versions still load.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/textcore/internal/indent"
)

// DisplaySettings controls presentation concerns consumed by the
// render layer.
type DisplaySettings struct {
	HighlightCurrentLine   bool
	VisualizeWhitespace    bool
	HighlightMatchingParen bool
	AutoFoldFirstComment   bool
	DisplayFoldingMarkers  bool
	Theme                  string
}

// DefaultDisplaySettings returns the default display configuration.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		HighlightCurrentLine:   true,
		HighlightMatchingParen: true,
		DisplayFoldingMarkers:  true,
		Theme:                  "dark",
	}
}

// Config is the full recognized settings set.
type Config struct {
	Tabs    indent.TabSettings
	Display DisplaySettings
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tabs:    indent.DefaultTabSettings(),
		Display: DefaultDisplaySettings(),
	}
}

// fileSchema mirrors the TOML layout. Fields absent from the file
// keep the defaults; pointer fields distinguish "absent" from zero.
type fileSchema struct {
	Tabs struct {
		TabSize    *int    `toml:"tab_size"`
		IndentSize *int    `toml:"indent_size"`
		Policy     *string `toml:"policy"`
	} `toml:"tabs"`
	Display struct {
		HighlightCurrentLine   *bool   `toml:"highlight_current_line"`
		VisualizeWhitespace    *bool   `toml:"visualize_whitespace"`
		HighlightMatchingParen *bool   `toml:"highlight_matching_paren"`
		AutoFoldFirstComment   *bool   `toml:"auto_fold_first_comment"`
		DisplayFoldingMarkers  *bool   `toml:"display_folding_markers"`
		Theme                  *string `toml:"theme"`
	} `toml:"display"`
}

// Load reads a settings file. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFrom reads settings from a reader.
func LoadFrom(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML settings over the defaults.
func Parse(data []byte) (Config, error) {
	var schema fileSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return Config{}, fmt.Errorf("parsing settings: %w", err)
	}

	cfg := Default()
	if v := schema.Tabs.TabSize; v != nil && *v > 0 {
		cfg.Tabs.TabSize = *v
	}
	if v := schema.Tabs.IndentSize; v != nil && *v > 0 {
		cfg.Tabs.IndentSize = *v
	}
	if v := schema.Tabs.Policy; v != nil {
		if p, ok := parsePolicy(*v); ok {
			cfg.Tabs.Policy = p
		}
	}
	if v := schema.Display.HighlightCurrentLine; v != nil {
		cfg.Display.HighlightCurrentLine = *v
	}
	if v := schema.Display.VisualizeWhitespace; v != nil {
		cfg.Display.VisualizeWhitespace = *v
	}
	if v := schema.Display.HighlightMatchingParen; v != nil {
		cfg.Display.HighlightMatchingParen = *v
	}
	if v := schema.Display.AutoFoldFirstComment; v != nil {
		cfg.Display.AutoFoldFirstComment = *v
	}
	if v := schema.Display.DisplayFoldingMarkers; v != nil {
		cfg.Display.DisplayFoldingMarkers = *v
	}
	if v := schema.Display.Theme; v != nil {
		cfg.Display.Theme = *v
	}
	return cfg, nil
}

// parsePolicy maps the settings-file spelling onto a tab policy.
// Unrecognized spellings are ignored, like unknown keys.
func parsePolicy(s string) (indent.TabPolicy, bool) {
	switch s {
	case "spaces":
		return indent.SpacesOnly, true
	case "tabs":
		return indent.TabsOnly, true
	case "mixed":
		return indent.Mixed, true
	}
	return 0, false
}
