package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ShapeError is returned when a response matches none of the layouts a service is known to produce.
type ShapeError struct {
	Service string
	Keys    []string
}

func (e *ShapeError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("unrecognised %s response shape: expected a JSON object or array", e.Service)
	}
	return fmt.Sprintf("unrecognised %s response shape: top-level keys [%s]", e.Service, strings.Join(e.Keys, ", "))
}

// Flag is a boolean which TERMite sometimes sends as a string ("true"/"false").
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case string:
		*f = Flag(strings.EqualFold(t, "true"))
	case nil:
		*f = false
	default:
		return fmt.Errorf("cannot read %s as a boolean", string(b))
	}
	return nil
}

// ID is an identifier TERMite may send as a string or a number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*id = ID(t)
	case float64:
		*id = ID(strconv.FormatFloat(t, 'f', -1, 64))
	case nil:
		*id = ""
	default:
		return fmt.Errorf("cannot read %s as an identifier", string(b))
	}
	return nil
}

// docIDFields are tried in order to find the identifier of a doc.jsonx document.
var docIDFields = []string{"docID", "uri"}

// DocumentID is the identifier of the doc.jsonx document at position in the response.
// A document without a string docID or uri is identified by its position.
func DocumentID(metadata map[string]interface{}, position int) string {
	for _, field := range docIDFields {
		if id, ok := metadata[field].(string); ok {
			return id
		}
	}
	return strconv.Itoa(position)
}
