package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/term"

	"github.com/woozymasta/php2json"
)

// colorMode selects output highlighting.
type colorMode int

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

// parseColorMode parses the --color value.
func parseColorMode(s string) (colorMode, error) {
	switch s {
	case "", "auto":
		return colorAuto, nil
	case "always":
		return colorAlways, nil
	case "never":
		return colorNever, nil
	default:
		return colorAuto, fmt.Errorf("unknown color mode %q", s)
	}
}

// writeOutput writes rendered output, highlighting text formats on a terminal.
func writeOutput(w io.Writer, out []byte, format php2json.OutputFormat, color string) error {
	mode, err := parseColorMode(color)
	if err != nil {
		return err
	}

	if format == php2json.FormatCBOR || !shouldColor(w, mode) {
		_, err := w.Write(out)
		return err
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(out), string(format), "terminal256", "monokai"); err != nil {
		// Fall back to plain output.
		_, err := w.Write(out)
		return err
	}

	_, err = buf.WriteTo(w)
	return err
}

// shouldColor reports whether w gets highlighted output.
func shouldColor(w io.Writer, mode colorMode) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	}

	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newLogger creates the command logger. When w is a terminal it uses
// slog.TextHandler, otherwise slog.JSONHandler for machine-parseable output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		options.Level = slog.LevelDebug
	}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}

	return slog.New(slog.NewJSONHandler(w, options))
}
