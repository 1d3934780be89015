package php2json

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
)

// serializeScalar encodes a scalar the way PHP's serialize() does.
func serializeScalar(t *testing.T, v any) string {
	t.Helper()

	switch x := v.(type) {
	case nil:
		return "N;"
	case bool:
		if x {
			return "b:1;"
		}
		return "b:0;"
	case int64:
		return "i:" + strconv.FormatInt(x, 10) + ";"
	case float64:
		return "d:" + strconv.FormatFloat(x, 'g', -1, 64) + ";"
	case string:
		return fmt.Sprintf(`s:%d:"%s";`, len(x), x)
	default:
		t.Fatalf("unsupported scalar %T", v)
		return ""
	}
}

// mustUnserialize decodes in or fails the test.
func mustUnserialize(t *testing.T, in string) any {
	t.Helper()

	v, err := UnserializeString(in, nil)
	if err != nil {
		t.Fatalf("unserialize %s: %v", in, err)
	}

	return v
}

// sharedChain serializes depth nested objects where each one holds its
// child twice: as member p and as a reference in member q.
func sharedChain(depth int) string {
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString(`O:1:"N":2:{s:1:"p";`)
	}
	b.WriteString(`O:1:"N":0:{}`)
	for i := depth - 1; i >= 0; i-- {
		fmt.Fprintf(&b, `s:1:"q";r:%d;}`, i+2)
	}

	return b.String()
}
