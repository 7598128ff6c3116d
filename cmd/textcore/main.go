// Package main is a terminal viewer for the textcore editing engine.
// It opens one file, runs the edit loop, and persists view state
// between runs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/editor"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	theme      string
	logLevel   string
	readOnly   bool
	file       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.theme != "" {
		cfg.Display.Theme = opts.theme
	}

	text := ""
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", opts.file, err)
			return 1
		}
		text = string(data)
	}

	log, closeLog, err := openLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	edOpts := editor.DefaultOptions()
	edOpts.FileName = opts.file
	edOpts.Config = cfg
	edOpts.Logger = log
	ed := editor.New(text, edOpts)

	v, err := newViewer(ed, opts.file, cfg, opts.readOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := v.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// openLogger writes debug output to a file so it does not corrupt the
// terminal screen. Levels above debug discard everything.
func openLogger(level string) (*editor.Logger, func(), error) {
	if level != "debug" {
		return editor.NullLogger, func() {}, nil
	}
	f, err := os.OpenFile("textcore.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return editor.NewLogger(editor.LogLevelDebug, f), func() { _ = f.Close() }, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to settings file")
	flag.StringVar(&opts.configPath, "c", defaultConfigPath(), "Path to settings file (shorthand)")
	flag.StringVar(&opts.theme, "theme", "", "Color theme (dark, light)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug disables nothing, anything else discards)")
	flag.BoolVar(&opts.readOnly, "readonly", false, "Open the file read-only")
	flag.BoolVar(&opts.readOnly, "R", false, "Open the file read-only (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Textcore - code editing engine viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: textcore [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+Q quit   Ctrl+S save   Ctrl+Z undo   Ctrl+R redo\n")
		fmt.Fprintf(os.Stderr, "  F2 toggle fold   F3 fold all   F4 unfold all   F5 reload\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+B jump to matching bracket   Ctrl+D add caret below   Esc single caret\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Textcore %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() > 0 {
		opts.file = flag.Arg(0)
	}
	return opts
}

// defaultConfigPath resolves the settings file under the user config
// directory. Load treats a missing file as defaults, so the path never
// has to exist.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "textcore.toml"
	}
	return dir + "/textcore/settings.toml"
}
