package php2json

import (
	"log/slog"
)

// DecodeOptions controls decoding behavior.
type DecodeOptions struct {
	// Logger receives debug records about the decode pipeline (nil discards them).
	Logger *slog.Logger
	// Encoding is the text encoding wrapped around the serialized data (default is plain).
	Encoding Encoding
	// Compression is the compression applied to the serialized data after text decoding.
	Compression Compression
	// CharacterLengths slices s:/E: payloads by characters instead of bytes.
	// PHP writes byte lengths; some tools that re-encode payloads count characters instead.
	CharacterLengths bool
	// MaxDepth limits nesting of arrays and objects (default is DefaultMaxDepth).
	MaxDepth int
}

// DefaultMaxDepth is the nesting limit used when DecodeOptions.MaxDepth is not set.
const DefaultMaxDepth = 10000

// FormatOptions controls writer formatting.
type FormatOptions struct {
	// Format selects the output format (default is JSON).
	Format OutputFormat
	// Indent is the indentation string for nested containers (default is two spaces).
	// Ignored for CBOR.
	Indent string
	// Compact renders JSON on a single line without indentation.
	Compact bool
}

// normalize normalizes the DecodeOptions.
func (o *DecodeOptions) normalize() DecodeOptions {
	if o == nil {
		return DecodeOptions{Logger: slog.New(discardHandler{}), MaxDepth: DefaultMaxDepth}
	}

	out := *o
	if out.Logger == nil {
		out.Logger = slog.New(discardHandler{})
	}
	if out.MaxDepth <= 0 {
		out.MaxDepth = DefaultMaxDepth
	}

	return out
}

// normalize normalizes the FormatOptions.
func (o *FormatOptions) normalize() FormatOptions {
	if o == nil {
		return FormatOptions{Format: FormatJSON, Indent: "  "}
	}

	out := *o
	if out.Format == "" {
		out.Format = FormatJSON
	}
	if out.Indent == "" {
		out.Indent = "  "
	}

	return out
}
