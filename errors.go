package php2json

import "errors"

var (
	// ErrLex indicates a lexer failure.
	ErrLex = errors.New("lex error")

	// ErrParse indicates a parser failure.
	ErrParse = errors.New("parse error")

	// ErrInput indicates the input could not be pre-decoded (base64 or decompression).
	ErrInput = errors.New("input error")

	// ErrFormat indicates the value tree could not be rendered in the requested output format.
	ErrFormat = errors.New("format error")
)
