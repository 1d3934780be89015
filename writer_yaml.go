package php2json

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// encodeYAML writes a value tree as a YAML document.
func encodeYAML(w io.Writer, v any, opt FormatOptions) error {
	b := &yamlBuilder{guard: cycleGuard{}}
	node, err := b.node(v)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(max(len(opt.Indent), 2))
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("%w: yaml: %w", ErrFormat, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: yaml: %w", ErrFormat, err)
	}

	return nil
}

// yamlBuilder converts a value tree into yaml.Node form, keeping map order.
// Each container is emitted once.
type yamlBuilder struct {
	guard cycleGuard // Containers met so far
}

// node converts a single value.
func (b *yamlBuilder) node(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(x)), nil
	case string:
		return scalarNode("!!str", x), nil
	case int64:
		return scalarNode("!!int", strconv.FormatInt(x, 10)), nil
	case int:
		return scalarNode("!!int", strconv.Itoa(x)), nil
	case float64:
		return scalarNode("!!float", yamlFloat(x)), nil
	case RecursionRef:
		return b.mapping([]Entry{{Key: RefField, Value: int64(x)}})
	case []any:
		return b.sequence(x)
	case *Map:
		if x == nil {
			return scalarNode("!!null", "null"), nil
		}
		b.guard.enter(x)
		defer b.guard.leave(x)
		return b.mapping(x.Entries())
	case *Object:
		if x == nil {
			return scalarNode("!!null", "null"), nil
		}
		b.guard.enter(x)
		defer b.guard.leave(x)
		return b.mapping(x.Fields.Entries())
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrFormat, v)
	}
}

// mapping converts map entries, omitting members already emitted.
func (b *yamlBuilder) mapping(entries []Entry) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		if b.guard.seen(e.Value) {
			continue
		}
		val, err := b.node(e.Value)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, scalarNode("!!str", e.Key), val)
	}

	return n, nil
}

// sequence converts a list; elements already emitted become null.
func (b *yamlBuilder) sequence(vals []any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, len(vals))}
	for _, v := range vals {
		if b.guard.seen(v) {
			v = nil
		}
		val, err := b.node(v)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, val)
	}

	return n, nil
}

// scalarNode creates a tagged scalar node.
func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// yamlFloat formats a float using YAML spellings for non-finite values.
func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if f == math.Trunc(f) && !strings.ContainsAny(s, ".e") {
		// Keep whole floats distinguishable from integers.
		s += ".0"
	}

	return s
}
