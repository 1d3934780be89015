package php2json

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// OutputFormat selects the rendering of a value tree.
type OutputFormat string

// Output formats.
const (
	FormatJSON OutputFormat = "json" // JSON, insertion order preserved
	FormatYAML OutputFormat = "yaml" // YAML, insertion order preserved
	FormatCBOR OutputFormat = "cbor" // CBOR, core deterministic encoding
)

// RefField is the field name used to render an unresolved RecursionRef.
const RefField = "_ref"

// ParseOutputFormat parses an output format name.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatCBOR:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q", ErrFormat, name)
	}
}

// Encode writes a value tree to w.
//
// Every container is written once per call. A container met again, either
// through a cycle or as a second reference to a shared object, is elided:
// the member is omitted from its map, or written as null inside a list.
func Encode(w io.Writer, v any, opt *FormatOptions) error {
	fopt := opt.normalize()

	switch fopt.Format {
	case FormatJSON:
		bw := bufio.NewWriter(w)
		jw := &jsonWriter{w: bw, indent: fopt.Indent, compact: fopt.Compact, guard: cycleGuard{}}
		if err := jw.writeValue(v); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		return bw.Flush()

	case FormatYAML:
		return encodeYAML(w, v, fopt)

	case FormatCBOR:
		return encodeCBOR(w, v)

	default:
		return fmt.Errorf("%w: unknown output format %q", ErrFormat, fopt.Format)
	}
}

// EncodeFile writes a value tree to a file.
func EncodeFile(path string, v any, opt *FormatOptions) error {
	b, err := Format(v, opt)
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o600)
}

// Format renders a value tree to bytes.
func Format(v any, opt *FormatOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, opt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// cycleGuard tracks the containers met during one traversal. The value is
// true while a container is on the current path and false once it is done.
type cycleGuard map[any]bool

// enter marks a container as being written. Scalars are ignored.
func (g cycleGuard) enter(v any) {
	if id, ok := containerID(v); ok {
		g[id] = true
	}
}

// leave takes a container off the path. It stays seen.
func (g cycleGuard) leave(v any) {
	if id, ok := containerID(v); ok {
		g[id] = false
	}
}

// onPath reports whether v is a container still being written.
func (g cycleGuard) onPath(v any) bool {
	id, ok := containerID(v)
	return ok && g[id]
}

// seen reports whether v is a container entered earlier in this traversal.
func (g cycleGuard) seen(v any) bool {
	id, ok := containerID(v)
	if !ok {
		return false
	}

	_, found := g[id]
	return found
}

// containerID returns the identity of containers that can be shared.
func containerID(v any) (any, bool) {
	switch x := v.(type) {
	case *Map:
		return x, x != nil
	case *Object:
		return x, x != nil
	default:
		return nil, false
	}
}

// jsonWriter writes a value tree as JSON.
type jsonWriter struct {
	w       *bufio.Writer // Writer to write to
	guard   cycleGuard    // Containers met so far
	indent  string        // Indentation string
	cache   []string      // Cache of indentation strings
	level   int           // Current nesting level
	compact bool          // Single-line output
}

// writeValue writes a value to the writer.
func (w *jsonWriter) writeValue(v any) error {
	switch x := v.(type) {
	case nil:
		return w.writeString("null")
	case bool:
		return w.writeString(strconv.FormatBool(x))
	case string:
		return w.writeQuoted(x)
	case int64:
		return w.writeString(strconv.FormatInt(x, 10))
	case int:
		return w.writeString(strconv.Itoa(x))
	case float64:
		return w.writeNumber(x)
	case RecursionRef:
		return w.writeEntries([]Entry{{Key: RefField, Value: int64(x)}})
	case []any:
		return w.writeList(x)
	case *Map:
		if x == nil {
			return w.writeString("null")
		}
		return w.writeContainer(x, x.Entries())
	case *Object:
		if x == nil {
			return w.writeString("null")
		}
		return w.writeContainer(x, x.Fields.Entries())
	default:
		return fmt.Errorf("%w: unsupported value type %T", ErrFormat, v)
	}
}

// writeContainer writes a map or object while it is marked on the path.
func (w *jsonWriter) writeContainer(c any, entries []Entry) error {
	w.guard.enter(c)
	defer w.guard.leave(c)

	return w.writeEntries(entries)
}

// writeEntries writes a JSON object, omitting members already written.
func (w *jsonWriter) writeEntries(entries []Entry) error {
	if err := w.writeString("{"); err != nil {
		return err
	}

	w.level++
	n := 0
	for _, e := range entries {
		if w.guard.seen(e.Value) {
			continue
		}
		if err := w.writeSeparator(n); err != nil {
			return err
		}
		if err := w.writeQuoted(e.Key); err != nil {
			return err
		}
		colon := ": "
		if w.compact {
			colon = ":"
		}
		if err := w.writeString(colon); err != nil {
			return err
		}
		if err := w.writeValue(e.Value); err != nil {
			return err
		}
		n++
	}
	w.level--

	return w.writeClose(n, "}")
}

// writeList writes a JSON array; elements already written become null.
func (w *jsonWriter) writeList(vals []any) error {
	if err := w.writeString("["); err != nil {
		return err
	}

	w.level++
	for i, v := range vals {
		if err := w.writeSeparator(i); err != nil {
			return err
		}
		if w.guard.seen(v) {
			v = nil
		}
		if err := w.writeValue(v); err != nil {
			return err
		}
	}
	w.level--

	return w.writeClose(len(vals), "]")
}

// writeSeparator writes the comma and line break before the n-th element.
func (w *jsonWriter) writeSeparator(n int) error {
	if n > 0 {
		if err := w.writeString(","); err != nil {
			return err
		}
	}

	return w.writeNewline()
}

// writeClose closes a container holding n elements.
func (w *jsonWriter) writeClose(n int, closer string) error {
	if n > 0 {
		if err := w.writeNewline(); err != nil {
			return err
		}
	}

	return w.writeString(closer)
}

// writeNewline breaks the line and indents to the current level.
func (w *jsonWriter) writeNewline() error {
	if w.compact {
		return nil
	}
	if err := w.writeString("\n"); err != nil {
		return err
	}

	return w.writeString(w.indentFor(w.level))
}

// writeNumber writes a float64 value the way encoding/json does; NaN and Inf become null.
func (w *jsonWriter) writeNumber(f float64) error {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		// JSON has no spelling for non-finite numbers.
		return w.writeString("null")
	}

	var buf [32]byte
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(buf[:0], f, format, -1, 64)
	if format == 'e' {
		// Trim e-07 to e-7.
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	_, err := w.w.Write(b)

	return err
}

// writeQuoted writes a JSON string literal.
func (w *jsonWriter) writeQuoted(s string) error {
	_, err := w.w.Write(appendQuoted(nil, s))
	return err
}

// writeString writes a string to the writer.
func (w *jsonWriter) writeString(s string) error {
	_, err := w.w.WriteString(s)
	return err
}

// indentFor returns the indentation for a nesting level.
func (w *jsonWriter) indentFor(level int) string {
	if level <= 0 {
		return ""
	}

	if len(w.cache) <= level {
		w.cache = append(w.cache, make([]string, level-len(w.cache)+1)...)
	}
	if w.cache[level] == "" {
		// Cache computed indentation for this level.
		w.cache[level] = strings.Repeat(w.indent, level)
	}

	return w.cache[level]
}

const hexDigits = "0123456789abcdef"

// appendQuoted appends s as a JSON string literal. Invalid UTF-8 is
// replaced with U+FFFD; HTML characters are left as is.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, "\ufffd"...)
			i += size
			start = i
			continue
		}
		if r == '\u2028' || r == '\u2029' {
			dst = append(dst, s[start:i]...)
			dst = append(dst, '\\', 'u', '2', '0', '2', hexDigits[r&0xf])
			i += size
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)

	return append(dst, '"')
}
