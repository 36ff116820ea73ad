package types

import (
	"bytes"

	"github.com/mailru/easyjson/jlexer"
)

// Member is a single key/value pair of a JSON object, with the value left undecoded.
type Member struct {
	Key   string
	Value []byte
}

// Object is a JSON object which remembers the order its keys appeared in.
// TERMite orders documents and entity types meaningfully, and a Go map would lose that.
type Object []Member

// DecodeObject reads a JSON object without decoding its values. A JSON null
// (or empty input) decodes to an empty Object.
func DecodeObject(data []byte) (Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	in := jlexer.Lexer{Data: data}
	if in.IsNull() {
		in.Skip()
		in.Consumed()
		return nil, in.Error()
	}

	var obj Object
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.String()
		in.WantColon()
		value := in.Raw()
		obj = append(obj, Member{Key: key, Value: value})
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return nil, err
	}
	return obj, nil
}

// Get returns the raw value for key, and whether it was present.
func (o Object) Get(key string) ([]byte, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Kind reports the first significant byte of a JSON document: '{', '[' or 0 for anything else.
func Kind(data []byte) byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	switch trimmed[0] {
	case '{', '[':
		return trimmed[0]
	}
	return 0
}

// IsNull is true for an absent or JSON null value.
func IsNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
