package texpress

import (
	"encoding/json"
	"fmt"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types"
)

const (
	MultiDocKey = "RESP_TEXPRESS"
	// DocArrayPatternsKey holds the pattern groups of each document in a doc.jsonx response.
	DocArrayPatternsKey = "texpressTags"
)

// Match is a single occurrence of a pattern.
type Match struct {
	PatternID        string                 `json:"pattern_id"`
	Conf             float64                `json:"conf"`
	Subsumed         types.Flag             `json:"subsumed"`
	OriginalFragment string                 `json:"originalFragment"`
	MatchEntities    []string               `json:"matchEntities"`
	Meta             map[string]interface{} `json:"meta"`
	Fields           map[string]interface{} `json:"-"`
}

func (m *Match) UnmarshalJSON(b []byte) error {
	type match Match
	var decoded match
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &decoded.Fields); err != nil {
		return err
	}
	*m = Match(decoded)
	return nil
}

// Group is a set of matches sharing one entity name lookup.
type Group struct {
	EntityNames map[string]string `json:"entityNames"`
	Matches     []Match           `json:"matches"`
}

type Pattern struct {
	ID     string
	Groups []Group
}

type Document struct {
	ID       string
	Metadata map[string]interface{}
	Patterns []Pattern
}

// Response is either MultiDoc or DocArray. A single document TExpress call
// is reported as a MultiDoc holding one document.
type Response interface {
	Shape() string
}

type MultiDoc struct {
	Documents []Document
}

type DocArray struct {
	Documents []Document
}

func (MultiDoc) Shape() string { return "json" }
func (DocArray) Shape() string { return "doc.jsonx" }

func Parse(data []byte) (Response, error) {
	switch types.Kind(data) {
	case '[':
		return parseDocArray(data)
	case '{':
	default:
		return nil, &types.ShapeError{Service: "texpress"}
	}

	obj, err := types.DecodeObject(data)
	if err != nil {
		return nil, err
	}

	raw, ok := obj.Get(MultiDocKey)
	if !ok {
		return nil, &types.ShapeError{Service: "texpress", Keys: obj.Keys()}
	}

	docs, err := types.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MultiDocKey, err)
	}
	res := MultiDoc{Documents: make([]Document, 0, len(docs))}
	for _, doc := range docs {
		patterns, err := parsePatterns(doc.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: document %s: %w", MultiDocKey, doc.Key, err)
		}
		res.Documents = append(res.Documents, Document{ID: doc.Key, Patterns: patterns})
	}
	return res, nil
}

func parsePatterns(data []byte) ([]Pattern, error) {
	obj, err := types.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	patterns := make([]Pattern, 0, len(obj))
	for _, m := range obj {
		var groups []Group
		if !types.IsNull(m.Value) {
			if err := json.Unmarshal(m.Value, &groups); err != nil {
				return nil, fmt.Errorf("pattern %s: %w", m.Key, err)
			}
		}
		patterns = append(patterns, Pattern{ID: m.Key, Groups: groups})
	}
	return patterns, nil
}

func parseDocArray(data []byte) (DocArray, error) {
	var docs []map[string]json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return DocArray{}, err
	}

	res := DocArray{Documents: make([]Document, 0, len(docs))}
	for i, doc := range docs {
		d := Document{Metadata: make(map[string]interface{}, len(doc))}
		for key, raw := range doc {
			if key == DocArrayPatternsKey {
				continue
			}
			var v interface{}
			if err := json.Unmarshal(raw, &v); err != nil {
				return DocArray{}, fmt.Errorf("document %d: %s: %w", i, key, err)
			}
			d.Metadata[key] = v
		}
		d.ID = types.DocumentID(d.Metadata, i)
		if raw, ok := doc[DocArrayPatternsKey]; ok {
			patterns, err := parsePatterns(raw)
			if err != nil {
				return DocArray{}, fmt.Errorf("document %d: %s: %w", i, DocArrayPatternsKey, err)
			}
			d.Patterns = patterns
		}
		res.Documents = append(res.Documents, d)
	}
	return res, nil
}
