package php2json

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// tokenType represents a type of a token.
type tokenType int

// token types.
const (
	tokString      tokenType = iota // s:N:"...";
	tokEnum                         // E:N:"Class:Case";
	tokInt                          // i:N;
	tokFloat                        // d:N;
	tokBool                         // b:0; or b:1;
	tokNull                         // N;
	tokRecursion                    // r:N;
	tokArrayStart                   // a:N:
	tokObjectStart                  // O:N:"Class":M:
	tokLBrace                       // Left brace
	tokRBrace                       // Right brace
	tokPunct                        // Inert punctuation: ':' ';' '[' ']' ','
)

// token represents a token of serialized data.
type token struct {
	Str   string    // String payload, enum case, class name or punctuation
	Int   int64     // Integer value, reference index or container count
	Float float64   // Float value
	Type  tokenType // Type of the token
	Off   int       // Byte offset of the token
	Bool  bool      // Boolean value
}

// lexer represents a lexer over an in-memory serialized buffer.
type lexer struct {
	src   string // Input text
	chars bool   // Slice sized payloads by characters instead of bytes
}

// scanFunc tries to match one token at pos. It returns next == pos when
// the leading tag does not match.
type scanFunc func(l *lexer, pos int) (tok token, next int, err error)

// scanners in priority order. The cycle restarts from the top after every match.
var scanners = [...]scanFunc{
	(*lexer).scanString,
	(*lexer).scanNumber,
	(*lexer).scanBool,
	(*lexer).scanNull,
	(*lexer).scanRecursion,
	(*lexer).scanArray,
	(*lexer).scanObject,
	(*lexer).scanEnum,
}

// tokenize converts serialized text into a flat token sequence.
func tokenize(src string, opt DecodeOptions) ([]token, error) {
	l := &lexer{src: src, chars: opt.CharacterLengths}
	return l.run()
}

// run scans the whole input.
func (l *lexer) run() ([]token, error) {
	toks := make([]token, 0, len(l.src)/4)
	pos := 0

scan:
	for pos < len(l.src) {
		for _, scan := range scanners {
			tok, next, err := scan(l, pos)
			if err != nil {
				return nil, err
			}
			if next != pos {
				toks = append(toks, tok)
				pos = next
				continue scan
			}
		}

		// No scanner matched: whitespace or a structural delimiter.
		c := l.src[pos]
		switch c {
		case ' ', '\n', '\r', '\t':
		case '{':
			toks = append(toks, token{Type: tokLBrace, Str: "{", Off: pos})
		case '}':
			toks = append(toks, token{Type: tokRBrace, Str: "}", Off: pos})
		case ':', ';', '[', ']', ',':
			toks = append(toks, token{Type: tokPunct, Str: string(c), Off: pos})
		default:
			r, _ := utf8.DecodeRuneInString(l.src[pos:])
			return nil, l.errorf(pos, "unexpected character %q", r)
		}
		pos++
	}

	return toks, nil
}

// hasTag reports whether the input at pos starts with tag followed by sep.
func (l *lexer) hasTag(pos int, tag, sep byte) bool {
	return pos+1 < len(l.src) && l.src[pos] == tag && l.src[pos+1] == sep
}

// at returns the byte at pos, or 0 outside the input.
func (l *lexer) at(pos int) byte {
	if pos >= 0 && pos < len(l.src) {
		return l.src[pos]
	}

	return 0
}

// scanString scans s:<size>:"<payload>";
func (l *lexer) scanString(pos int) (token, int, error) {
	return l.scanSized(pos, 's', tokString, "string")
}

// scanEnum scans E:<size>:"<payload>";
func (l *lexer) scanEnum(pos int) (token, int, error) {
	return l.scanSized(pos, 'E', tokEnum, "enum")
}

// scanSized scans a size-prefixed quoted payload terminated by a semicolon.
func (l *lexer) scanSized(pos int, tag byte, typ tokenType, what string) (token, int, error) {
	if !l.hasTag(pos, tag, ':') {
		return token{}, pos, nil
	}

	size, p, ok := l.readSize(pos + 2)
	if !ok {
		return token{}, pos, l.errorf(pos, "expected %s size", what)
	}
	if l.at(p) != ':' {
		return token{}, pos, l.errorf(p, "expected ':' after %s size", what)
	}

	payload, p, err := l.readQuoted(p+1, size, what)
	if err != nil {
		return token{}, pos, err
	}
	if l.at(p) != ';' {
		return token{}, pos, l.errorf(p, "unterminated %s", what)
	}

	return token{Type: typ, Str: payload, Off: pos}, p + 1, nil
}

// readQuoted reads "<size units>" starting at the opening quote.
func (l *lexer) readQuoted(pos, size int, what string) (string, int, error) {
	if l.at(pos) != '"' {
		return "", pos, l.errorf(pos, "expected '\"' to open %s", what)
	}

	start := pos + 1
	end, ok := l.advance(start, size)
	if !ok || l.at(end) != '"' {
		return "", pos, l.errorf(pos, "%s not properly encoded or wrong %s size %d", what, what, size)
	}

	return l.src[start:end], end + 1, nil
}

// readUntilQuote reads "<text>" starting at the opening quote, ending at the next quote.
func (l *lexer) readUntilQuote(pos int) (string, int, error) {
	if l.at(pos) != '"' {
		return "", pos, l.errorf(pos, "expected '\"' to open class name")
	}

	start := pos + 1
	end := strings.IndexByte(l.src[start:], '"')
	if end < 0 {
		return "", pos, l.errorf(pos, "unterminated class name")
	}
	end += start

	return l.src[start:end], end + 1, nil
}

// advance moves size units forward from pos, in bytes or characters.
func (l *lexer) advance(pos, size int) (int, bool) {
	if !l.chars {
		if size > len(l.src)-pos {
			return pos, false
		}
		return pos + size, true
	}

	for ; size > 0; size-- {
		if pos >= len(l.src) {
			return pos, false
		}
		_, n := utf8.DecodeRuneInString(l.src[pos:])
		pos += n
	}

	return pos, true
}

// scanNumber scans i:<int>; and d:<float>;
func (l *lexer) scanNumber(pos int) (token, int, error) {
	isFloat := l.hasTag(pos, 'd', ':')
	if !isFloat && !l.hasTag(pos, 'i', ':') {
		return token{}, pos, nil
	}

	start := pos + 2
	if isFloat {
		if f, n, ok := l.specialFloat(start); ok {
			return token{Type: tokFloat, Float: f, Off: pos}, n, nil
		}
	}

	p := start
	for p < len(l.src) && isNumberChar(l.src[p], isFloat) {
		p++
	}
	if p == start {
		return token{}, pos, l.errorf(pos, "expected number")
	}
	if l.at(p) != ';' {
		return token{}, pos, l.errorf(p, "unterminated number")
	}

	lit := l.src[start:p]
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return token{}, pos, l.errorf(pos, "malformed float %q", lit)
		}

		return token{Type: tokFloat, Float: f, Off: pos}, p + 1, nil
	}

	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return token{}, pos, l.errorf(pos, "malformed integer %q", lit)
	}

	return token{Type: tokInt, Int: n, Off: pos}, p + 1, nil
}

// specialFloat matches the INF, -INF and NAN spellings PHP writes for non-finite floats.
func (l *lexer) specialFloat(pos int) (float64, int, bool) {
	rest := l.src[pos:]
	switch {
	case strings.HasPrefix(rest, "INF;"):
		return math.Inf(1), pos + 4, true
	case strings.HasPrefix(rest, "-INF;"):
		return math.Inf(-1), pos + 5, true
	case strings.HasPrefix(rest, "NAN;"):
		return math.NaN(), pos + 4, true
	}

	return 0, pos, false
}

// scanBool scans b:0; and b:1;
func (l *lexer) scanBool(pos int) (token, int, error) {
	if !l.hasTag(pos, 'b', ':') || l.at(pos+3) != ';' {
		return token{}, pos, nil
	}

	switch l.at(pos + 2) {
	case '0':
		return token{Type: tokBool, Bool: false, Off: pos}, pos + 4, nil
	case '1':
		return token{Type: tokBool, Bool: true, Off: pos}, pos + 4, nil
	}

	return token{}, pos, l.errorf(pos, "incorrect boolean value %q", l.src[pos+2])
}

// scanNull scans N;
func (l *lexer) scanNull(pos int) (token, int, error) {
	if !l.hasTag(pos, 'N', ';') {
		return token{}, pos, nil
	}

	return token{Type: tokNull, Off: pos}, pos + 2, nil
}

// scanRecursion scans r:<index>;
func (l *lexer) scanRecursion(pos int) (token, int, error) {
	if !l.hasTag(pos, 'r', ':') {
		return token{}, pos, nil
	}

	idx, p, ok := l.readSize(pos + 2)
	if !ok {
		return token{}, pos, l.errorf(pos, "expected recursion index")
	}
	if l.at(p) != ';' {
		return token{}, pos, l.errorf(p, "unterminated recursion marker")
	}

	return token{Type: tokRecursion, Int: int64(idx), Off: pos}, p + 1, nil
}

// scanArray scans the a:<count>: header. The opening brace is left in place.
func (l *lexer) scanArray(pos int) (token, int, error) {
	if !l.hasTag(pos, 'a', ':') {
		return token{}, pos, nil
	}

	count, p, ok := l.readSize(pos + 2)
	if !ok {
		return token{}, pos, l.errorf(pos, "expected array size")
	}
	if l.at(p) != ':' {
		return token{}, pos, l.errorf(p, "expected ':' after array size")
	}

	return token{Type: tokArrayStart, Int: int64(count), Off: pos}, p + 1, nil
}

// scanObject scans the O:<len>:"<class>":<count>: header. The opening brace is left in place.
func (l *lexer) scanObject(pos int) (token, int, error) {
	if !l.hasTag(pos, 'O', ':') {
		return token{}, pos, nil
	}

	_, p, ok := l.readSize(pos + 2)
	if !ok {
		return token{}, pos, l.errorf(pos, "expected class name size")
	}
	if l.at(p) != ':' {
		return token{}, pos, l.errorf(p, "expected ':' after class name size")
	}

	// The class name runs to the closing quote; its declared size is not trusted.
	name, p, err := l.readUntilQuote(p + 1)
	if err != nil {
		return token{}, pos, err
	}
	if l.at(p) != ':' {
		return token{}, pos, l.errorf(p, "expected ':' after class name")
	}

	count, p, ok := l.readSize(p + 1)
	if !ok {
		return token{}, pos, l.errorf(p, "expected member count")
	}
	if l.at(p) != ':' {
		return token{}, pos, l.errorf(p, "expected ':' after member count")
	}

	return token{Type: tokObjectStart, Str: name, Int: int64(count), Off: pos}, p + 1, nil
}

// readSize reads a run of decimal digits. ok is false when no digit was read.
func (l *lexer) readSize(pos int) (n int, next int, ok bool) {
	p := pos
	for p < len(l.src) && isDigit(l.src[p]) {
		p++
	}
	if p == pos {
		return 0, pos, false
	}

	n, err := strconv.Atoi(l.src[pos:p])
	if err != nil {
		return 0, pos, false
	}

	return n, p, true
}

// errorf formats an error message and returns an error.
func (l *lexer) errorf(pos int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s near %q", ErrLex, pos, fmt.Sprintf(format, args...), fragment(l.src, pos))
}

// fragment returns a short excerpt of src starting at pos.
func fragment(src string, pos int) string {
	const maxFragment = 24
	if pos >= len(src) {
		return ""
	}

	end := min(pos+maxFragment, len(src))
	return src[pos:end]
}

// isDigit checks if a character is a decimal digit.
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isNumberChar checks if a character is a valid part of a numeric literal.
func isNumberChar(c byte, float bool) bool {
	if isDigit(c) || c == '-' || c == '.' {
		return true
	}

	return float && (c == '+' || c == 'e' || c == 'E')
}
