package php2json

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// Unserialize decodes PHP-serialized data into a value tree.
//
// The result is one of string, int64, float64, bool, nil, []any, *Map,
// *Object or RecursionRef. Tokens left after the top-level value are ignored.
func Unserialize(data []byte, opt *DecodeOptions) (any, error) {
	dopt := opt.normalize()
	log := dopt.Logger

	raw, err := prepareInput(data, dopt)
	if err != nil {
		return nil, err
	}
	log.Debug("input prepared",
		"size", len(data),
		"decoded_size", len(raw),
		"encoding", dopt.Encoding.String(),
		"compression", dopt.Compression.String(),
	)

	src := string(raw)
	toks, err := tokenize(src, dopt)
	if err != nil {
		return nil, err
	}
	log.Debug("tokenized", "tokens", len(toks))

	p := newParser(toks, len(src), dopt.MaxDepth, log)
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if rest := len(toks) - p.pos; rest > 0 {
		log.Debug("ignoring trailing tokens", "count", rest)
	}

	return v, nil
}

// UnserializeString decodes a PHP-serialized string into a value tree.
func UnserializeString(s string, opt *DecodeOptions) (any, error) {
	return Unserialize([]byte(s), opt)
}

// Decode reads all of r and decodes it.
func Decode(r io.Reader, opt *DecodeOptions) (any, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return Unserialize(buf.Bytes(), opt)
}

// DecodeFile decodes serialized data from a file.
func DecodeFile(path string, opt *DecodeOptions) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Unserialize(b, opt)
}

// parser assembles a token sequence into a value tree.
type parser struct {
	log      *slog.Logger // Debug logger
	toks     []token      // Token sequence
	refs     []*Object    // Reference table, in opening order
	pos      int          // Cursor into toks
	end      int          // Input length, for end-of-input errors
	depth    int          // Open containers
	maxDepth int          // Nesting limit
}

// newParser creates a new parser over toks.
func newParser(toks []token, end, maxDepth int, log *slog.Logger) *parser {
	return &parser{toks: toks, end: end, maxDepth: maxDepth, log: log}
}

// descend opens a container at tok, failing past the nesting limit.
func (p *parser) descend(tok token) error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf(tok, "nesting depth exceeds %d", p.maxDepth)
	}

	return nil
}

// peek returns the token at the cursor without consuming it.
func (p *parser) peek() (token, error) {
	if p.pos >= len(p.toks) {
		return token{}, p.errorAt(p.end, "unexpected end of input")
	}

	return p.toks[p.pos], nil
}

// next returns the token at the cursor and advances.
func (p *parser) next() (token, error) {
	tok, err := p.peek()
	if err != nil {
		return tok, err
	}

	p.pos++
	return tok, nil
}

// expect consumes a token of the given type.
func (p *parser) expect(tt tokenType) (token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}

	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", tokenName(tt), describe(tok))
	}

	return tok, nil
}

// parseValue parses one value at the cursor.
func (p *parser) parseValue() (any, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case tokArrayStart:
		return p.parseArray()
	case tokObjectStart:
		return p.parseObject()
	}

	p.pos++
	switch tok.Type {
	case tokString, tokEnum:
		return tok.Str, nil
	case tokInt:
		return tok.Int, nil
	case tokFloat:
		return tok.Float, nil
	case tokBool:
		return tok.Bool, nil
	case tokNull:
		return nil, nil
	case tokRecursion:
		// Only object members are resolved against the reference table.
		return RecursionRef(tok.Int), nil
	default:
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
}

// parseArray parses a:N:{key;value...} into []any, or into *Map when any key is a string.
func (p *parser) parseArray() (any, error) {
	start, err := p.expect(tokArrayStart)
	if err != nil {
		return nil, err
	}
	if err := p.descend(start); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}

	assoc := false
	entries := make([]Entry, 0, clampHint(start.Int, len(p.toks)-p.pos))
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		if tok.Type == tokRBrace {
			p.skipCloser()
			break
		}

		// Array keys are integers or strings; enum cases count as strings.
		var key string
		switch tok.Type {
		case tokInt:
			key = strconv.FormatInt(tok.Int, 10)
		case tokString, tokEnum:
			key = tok.Str
			assoc = true
		default:
			return nil, p.errorf(tok, "incorrect array key, got %s", describe(tok))
		}

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Key: key, Value: v})
	}
	p.checkCount("array", start, len(entries))

	if assoc {
		m := NewMap(len(entries))
		for _, e := range entries {
			m.Set(e.Key, e.Value)
		}
		return m, nil
	}

	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e.Value
	}

	return list, nil
}

// parseObject parses O:N:"Class":M:{name;value...} into *Object.
func (p *parser) parseObject() (any, error) {
	start, err := p.expect(tokObjectStart)
	if err != nil {
		return nil, err
	}
	if err := p.descend(start); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}

	// Register before members are parsed so r:N; can point at this object.
	obj := newObject(start.Str)
	p.refs = append(p.refs, obj)

	members := 0
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		if tok.Type == tokRBrace {
			p.skipCloser()
			p.checkCount("object", start, members)
			return obj, nil
		}

		if tok.Type != tokString && tok.Type != tokEnum {
			return nil, p.errorf(tok, "wrong object key type, got %s", describe(tok))
		}

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		if ref, ok := v.(RecursionRef); ok {
			target, err := p.resolve(ref, tok)
			if err != nil {
				return nil, err
			}
			v = target
		}

		obj.Fields.Set(tok.Str, v)
		members++
	}
}

// resolve looks up a 1-based reference in the reference table.
func (p *parser) resolve(ref RecursionRef, at token) (*Object, error) {
	if ref < 1 || int(ref) > len(p.refs) {
		return nil, p.errorf(at, "reference %d out of range [1, %d]", ref, len(p.refs))
	}

	return p.refs[ref-1], nil
}

// checkCount logs containers whose declared size differs from what was read.
// The declared size is advisory; the closing brace ends a container.
func (p *parser) checkCount(what string, start token, actual int) {
	if start.Int != int64(actual) {
		p.log.Debug("declared size mismatch",
			"container", what,
			"offset", start.Off,
			"declared", start.Int,
			"actual", actual,
		)
	}
}

// skipCloser consumes an optional ';' after a closing brace.
func (p *parser) skipCloser() {
	if p.pos < len(p.toks) {
		if tok := p.toks[p.pos]; tok.Type == tokPunct && tok.Str == ";" {
			p.pos++
		}
	}
}

// errorf formats an error at the offset of tok.
func (p *parser) errorf(tok token, format string, args ...any) error {
	return p.errorAt(tok.Off, format, args...)
}

// errorAt formats an error at a byte offset.
func (p *parser) errorAt(off int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrParse, off, fmt.Sprintf(format, args...))
}

// clampHint bounds a declared container size by what the input can hold.
func clampHint(declared int64, remaining int) int {
	if declared < 0 {
		return 0
	}
	if declared > int64(remaining) {
		return remaining
	}

	return int(declared)
}

// tokenName returns the name of a token type.
func tokenName(tt tokenType) string {
	switch tt {
	case tokString:
		return "string"
	case tokEnum:
		return "enum"
	case tokInt:
		return "integer"
	case tokFloat:
		return "float"
	case tokBool:
		return "boolean"
	case tokNull:
		return "null"
	case tokRecursion:
		return "recursion marker"
	case tokArrayStart:
		return "array"
	case tokObjectStart:
		return "object"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	default:
		return "punctuation"
	}
}

// describe returns a short description of a token for error messages.
func describe(tok token) string {
	switch tok.Type {
	case tokString, tokEnum:
		return fmt.Sprintf("%s %q", tokenName(tok.Type), tok.Str)
	case tokInt, tokRecursion:
		return fmt.Sprintf("%s %d", tokenName(tok.Type), tok.Int)
	case tokFloat:
		return fmt.Sprintf("float %g", tok.Float)
	case tokBool:
		return fmt.Sprintf("boolean %t", tok.Bool)
	case tokObjectStart:
		return fmt.Sprintf("object %q", tok.Str)
	case tokPunct:
		return fmt.Sprintf("'%s'", tok.Str)
	default:
		return tokenName(tok.Type)
	}
}
