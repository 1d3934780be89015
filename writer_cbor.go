package php2json

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite lengths.
// Map insertion order is not kept in CBOR output.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("php2json: CBOR encoder initialization failed: " + err.Error())
	}
}

// encodeCBOR writes a value tree as a single CBOR data item.
func encodeCBOR(w io.Writer, v any) error {
	plain, err := toPlain(v, cycleGuard{})
	if err != nil {
		return err
	}

	if err := cborEncMode.NewEncoder(w).Encode(plain); err != nil {
		return fmt.Errorf("%w: cbor: %w", ErrFormat, err)
	}

	return nil
}

// toPlain converts a value tree into map[string]any and []any. Containers
// met a second time are elided.
func toPlain(v any, guard cycleGuard) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int64, int, float64:
		return x, nil
	case RecursionRef:
		return map[string]any{RefField: int64(x)}, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			if guard.seen(e) {
				continue
			}
			pv, err := toPlain(e, guard)
			if err != nil {
				return nil, err
			}
			out[i] = pv
		}
		return out, nil
	case *Map:
		if x == nil {
			return nil, nil
		}
		return plainEntries(x, x.Entries(), guard)
	case *Object:
		if x == nil {
			return nil, nil
		}
		return plainEntries(x, x.Fields.Entries(), guard)
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrFormat, v)
	}
}

// plainEntries converts the entries of container c.
func plainEntries(c any, entries []Entry, guard cycleGuard) (map[string]any, error) {
	guard.enter(c)
	defer guard.leave(c)

	out := make(map[string]any, len(entries))
	for _, e := range entries {
		if guard.seen(e.Value) {
			continue
		}
		pv, err := toPlain(e.Value, guard)
		if err != nil {
			return nil, err
		}
		out[e.Key] = pv
	}

	return out, nil
}
