package php2json

import (
	"encoding/base64"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestUnserializeFixtures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{name: "string", in: `s:3:"foo";`, want: "foo"},
		{name: "int", in: `i:123;`, want: int64(123)},
		{name: "float", in: `d:0.25;`, want: 0.25},
		{name: "bool", in: `b:1;`, want: true},
		{name: "null", in: `N;`, want: nil},
		{name: "enum", in: `E:11:"Suit:Hearts";`, want: "Suit:Hearts"},
		{name: "indexed array", in: `a:2:{i:0;s:3:"foo";i:1;s:3:"bar";}`, want: []any{"foo", "bar"}},
		{name: "non-contiguous keys", in: `a:2:{i:5;s:1:"a";i:2;s:1:"b";}`, want: []any{"a", "b"}},
		{name: "empty array", in: `a:0:{}`, want: []any{}},
		{name: "nested arrays", in: `a:1:{i:0;a:2:{i:0;N;i:1;b:0;}}`, want: []any{[]any{nil, false}}},
		{name: "trailing whitespace", in: "i:1;\n", want: int64(1)},
		{name: "trailing tokens ignored", in: `i:1;i:2;`, want: int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnserializeString(tt.in, nil)
			if err != nil {
				t.Fatalf("unserialize: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestUnserializeAssociativeArray(t *testing.T) {
	got, err := UnserializeString(`a:1:{s:3:"key";i:42;}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	m, ok := got.(*Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", got)
	}
	if v, _ := m.Get("key"); v != int64(42) {
		t.Fatalf("key: got %#v", v)
	}
}

func TestUnserializeMixedKeys(t *testing.T) {
	got, err := UnserializeString(`a:3:{i:0;s:1:"a";s:1:"k";s:1:"b";i:1;s:1:"c";}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	m, ok := got.(*Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", got)
	}
	if keys := m.Keys(); !reflect.DeepEqual(keys, []string{"0", "k", "1"}) {
		t.Fatalf("keys: got %v", keys)
	}
}

func TestUnserializeDuplicateKeys(t *testing.T) {
	got, err := UnserializeString(`a:3:{s:1:"a";i:1;s:1:"b";i:2;s:1:"a";i:3;}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	m := got.(*Map)
	if keys := m.Keys(); !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Fatalf("keys: got %v", keys)
	}
	if v, _ := m.Get("a"); v != int64(3) {
		t.Fatalf("a: got %#v", v)
	}
}

func TestUnserializeObject(t *testing.T) {
	got, err := UnserializeString(`O:11:"MyClass":2:{s:3:"foo";s:3:"bar";s:3:"baz";i:123;}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	obj, ok := got.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", got)
	}
	if obj.Class != "MyClass" {
		t.Fatalf("class: got %q", obj.Class)
	}
	if keys := obj.Fields.Keys(); !reflect.DeepEqual(keys, []string{TypeField, "foo", "baz"}) {
		t.Fatalf("keys: got %v", keys)
	}
	if v, _ := obj.Get(TypeField); v != "MyClass" {
		t.Fatalf("_type: got %#v", v)
	}
	if v, _ := obj.Get("foo"); v != "bar" {
		t.Fatalf("foo: got %#v", v)
	}
	if v, _ := obj.Get("baz"); v != int64(123) {
		t.Fatalf("baz: got %#v", v)
	}
}

func TestUnserializeObjectTypeMember(t *testing.T) {
	got, err := UnserializeString(`O:1:"A":1:{s:5:"_type";s:1:"X";}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	obj := got.(*Object)
	if obj.Class != "A" {
		t.Fatalf("class: got %q", obj.Class)
	}
	if obj.Fields.Len() != 1 {
		t.Fatalf("expected the member to replace _type, got keys %v", obj.Fields.Keys())
	}
	if v, _ := obj.Get(TypeField); v != "X" {
		t.Fatalf("_type: got %#v", v)
	}
}

func TestUnserializeSelfReference(t *testing.T) {
	got, err := UnserializeString(`O:1:"A":1:{s:4:"self";r:1;}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	obj := got.(*Object)
	self, ok := obj.Get("self")
	if !ok {
		t.Fatalf("self member missing")
	}
	if self != any(obj) {
		t.Fatalf("self must be the same record, got %#v", self)
	}
}

func TestUnserializeAncestorReference(t *testing.T) {
	in := `O:4:"Node":2:{s:4:"name";s:4:"root";s:5:"child";O:4:"Node":2:{s:4:"name";s:4:"leaf";s:6:"parent";r:1;}}`
	got, err := UnserializeString(in, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	root := got.(*Object)
	childV, _ := root.Get("child")
	child := childV.(*Object)
	parent, _ := child.Get("parent")
	if parent != any(root) {
		t.Fatalf("parent must be the root record")
	}
}

func TestUnserializeSharedReference(t *testing.T) {
	got, err := UnserializeString(`O:1:"A":2:{s:1:"x";O:1:"B":0:{}s:1:"y";r:2;}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	obj := got.(*Object)
	x, _ := obj.Get("x")
	y, _ := obj.Get("y")
	if x != y {
		t.Fatalf("x and y must be the same record")
	}
}

func TestUnserializeEnumKeys(t *testing.T) {
	got := mustUnserialize(t, `a:1:{E:11:"Suit:Hearts";i:1;}`)
	m, ok := got.(*Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", got)
	}
	if v, _ := m.Get("Suit:Hearts"); v != int64(1) {
		t.Fatalf("array key: got %#v", v)
	}

	obj := mustUnserialize(t, `O:1:"A":1:{E:11:"Suit:Hearts";b:1;}`).(*Object)
	if v, _ := obj.Get("Suit:Hearts"); v != true {
		t.Fatalf("member: got %#v", v)
	}
}

func TestUnserializeMaxDepth(t *testing.T) {
	in := `a:1:{i:0;O:1:"A":1:{s:1:"x";a:0:{}}}`
	if _, err := UnserializeString(in, &DecodeOptions{MaxDepth: 3}); err != nil {
		t.Fatalf("depth 3: %v", err)
	}
	_, err := UnserializeString(in, &DecodeOptions{MaxDepth: 2})
	if !errors.Is(err, ErrParse) || !strings.Contains(err.Error(), "nesting depth") {
		t.Fatalf("expected depth error, got %v", err)
	}

	const levels = DefaultMaxDepth + 10
	deep := strings.Repeat("a:1:{i:0;", levels) + "N;" + strings.Repeat("}", levels)
	if _, err := UnserializeString(deep, nil); !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error for deep input, got %v", err)
	}
}

func TestUnserializeArrayRecursionUnresolved(t *testing.T) {
	got, err := UnserializeString(`O:1:"A":1:{s:4:"list";a:1:{i:0;r:1;}}`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	list, _ := got.(*Object).Get("list")
	if !reflect.DeepEqual(list, []any{RecursionRef(1)}) {
		t.Fatalf("list: got %#v", list)
	}

	top, err := UnserializeString(`r:4;`, nil)
	if err != nil {
		t.Fatalf("unserialize: %v", err)
	}
	if top != RecursionRef(4) {
		t.Fatalf("top: got %#v", top)
	}
}

func TestUnserializeParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty input", in: ``},
		{name: "whitespace only", in: " \n"},
		{name: "float array key", in: `a:1:{d:1.5;i:1;}`},
		{name: "null array key", in: `a:1:{N;i:1;}`},
		{name: "integer object key", in: `O:1:"A":1:{i:0;i:1;}`},
		{name: "reference out of range", in: `O:1:"A":1:{s:1:"x";r:2;}`},
		{name: "reference zero", in: `O:1:"A":1:{s:1:"x";r:0;}`},
		{name: "truncated array", in: `a:1:{i:0;`},
		{name: "truncated value", in: `a:1:{i:0;s:1:"x";`},
		{name: "truncated object", in: `O:1:"A":1:{s:1:"x";`},
		{name: "missing brace", in: `a:1:i:0;i:1;}`},
		{name: "stray closing brace", in: `}`},
		{name: "brace as value", in: `a:1:{i:0;}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnserializeString(tt.in, nil)
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
		})
	}
}

func TestUnserializeLexErrorsSurface(t *testing.T) {
	for _, in := range []string{`s:5:"ab";`, `b:2;`, `a:1:{i:0;x}`} {
		_, err := UnserializeString(in, nil)
		if !errors.Is(err, ErrLex) {
			t.Fatalf("%s: expected lex error, got %v", in, err)
		}
		if !strings.Contains(err.Error(), "offset") {
			t.Fatalf("%s: expected offset in error, got %v", in, err)
		}
	}
}

func TestUnserializeBase64(t *testing.T) {
	fixtures := []string{
		`a:2:{i:0;s:3:"foo";i:1;s:3:"bar";}`,
		`a:1:{s:3:"key";i:42;}`,
		`O:11:"MyClass":2:{s:3:"foo";s:3:"bar";s:3:"baz";i:123;}`,
		`s:3:"foo";`,
		`d:-1.5;`,
	}
	opt := &DecodeOptions{Encoding: EncodingBase64}

	for _, in := range fixtures {
		want, err := UnserializeString(in, nil)
		if err != nil {
			t.Fatalf("%s: plain: %v", in, err)
		}

		encoded := base64.StdEncoding.EncodeToString([]byte(in)) + "\n"
		got, err := UnserializeString(encoded, opt)
		if err != nil {
			t.Fatalf("%s: base64: %v", in, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: got %#v, want %#v", in, got, want)
		}
	}
}

func TestScalarRoundTrip(t *testing.T) {
	tests := []struct {
		value any
	}{
		{value: "hello"},
		{value: ""},
		{value: "multi\nline \"quoted\""},
		{value: "ünïcödé"},
		{value: int64(0)},
		{value: int64(-9223372036854775808)},
		{value: 3.25},
		{value: -0.001},
		{value: true},
		{value: false},
		{value: nil},
	}

	for _, tt := range tests {
		in := serializeScalar(t, tt.value)
		got, err := UnserializeString(in, nil)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != tt.value {
			t.Fatalf("%s: got %#v, want %#v", in, got, tt.value)
		}
	}
}

func TestDecodeFile(t *testing.T) {
	got, err := DecodeFile(filepath.Join("testdata", "session.txt"), nil)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	m := got.(*Map)
	userV, _ := m.Get("user")
	user, ok := userV.(*Object)
	if !ok || user.Class != "User" {
		t.Fatalf("user: got %#v", userV)
	}
	roles, _ := user.Get("roles")
	if !reflect.DeepEqual(roles, []any{"admin", "editor"}) {
		t.Fatalf("roles: got %#v", roles)
	}
	if v, _ := m.Get("expires"); v != 1700000000.5 {
		t.Fatalf("expires: got %#v", v)
	}
}

func TestDecodeReader(t *testing.T) {
	got, err := Decode(strings.NewReader(`a:1:{i:0;i:1;}`), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, []any{int64(1)}) {
		t.Fatalf("got %#v", got)
	}
}
