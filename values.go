package php2json

// TypeField is the synthetic field holding the class name of a decoded object.
const TypeField = "_type"

// RecursionRef is an r:N; marker that could not be resolved against the
// reference table. It is 1-based.
type RecursionRef int

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string // Member name or array key
	Value any    // Decoded value
}

// Map is an insertion-ordered string-keyed mapping. It represents PHP
// associative arrays and the fields of decoded objects.
type Map struct {
	entries []Entry        // Entries in insertion order
	index   map[string]int // Key to entries position
}

// NewMap creates an empty Map with room for n entries.
func NewMap(n int) *Map {
	return &Map{
		entries: make([]Entry, 0, n),
		index:   make(map[string]int, n),
	}
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v any) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = v
		return
	}

	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: v})
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}

	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}

	return out
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}

	return m.entries
}

// Object is a decoded PHP object record.
type Object struct {
	Class  string // Class name from the O: header
	Fields *Map   // Members, starting with the synthetic _type field
}

// newObject creates an object record with its _type field set.
func newObject(class string) *Object {
	o := &Object{Class: class, Fields: NewMap(4)}
	o.Fields.Set(TypeField, class)

	return o
}

// Get returns the member stored under name.
func (o *Object) Get(name string) (any, bool) {
	return o.Fields.Get(name)
}
