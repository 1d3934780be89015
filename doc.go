/*
Package php2json decodes data produced by PHP's serialize() into a generic
value tree and renders that tree as JSON, YAML or CBOR.

Decoding runs in two passes over an in-memory buffer: a lexer turns the
type-tagged text (s:, i:, d:, b:, N;, a:, O:, E:, r:) into tokens, and a
recursive-descent parser assembles arrays, maps and object records from them.
Objects are registered in a reference table when opened, so r:N; markers
inside object members resolve to the N-th decoded object, including the
enclosing one.

Decoded values are one of:

	string, int64, float64, bool, nil   scalars (E: enum cases decode to string)
	[]any                               arrays with integer keys only
	*Map                                arrays with at least one string key
	*Object                             objects; Fields starts with "_type"
	RecursionRef                        r:N; markers outside object members

Reader example:

	v, err := php2json.UnserializeString(`a:1:{s:3:"key";i:42;}`, nil)
	if err != nil {
		// handle error
	}

Base64 and compressed input:

	v, err := php2json.Unserialize(data, &php2json.DecodeOptions{
		Encoding:    php2json.EncodingBase64,
		Compression: php2json.CompressionAuto,
	})

Writer example:

	out, err := php2json.Format(v, &php2json.FormatOptions{Compact: true})
	if err != nil {
		// handle error
	}

Writers emit each object once per call and elide later references to it,
so self-referencing objects render without looping and shared objects do
not multiply the output.
*/
package php2json
