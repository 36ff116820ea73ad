package termite

import (
	"encoding/json"
	"fmt"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types"
)

const (
	MultiDocKey  = "RESP_MULTIDOC_PAYLOAD"
	SingleDocKey = "RESP_PAYLOAD"
	// DocArrayHitsKey holds the hits of each document in a doc.jsonx response.
	DocArrayHitsKey = "termiteTags"
)

// Hit is a single entity hit as returned by TERMite. Fields holds every key of
// the hit, including the ones decoded into the typed fields.
type Hit struct {
	HitID        types.ID               `json:"hitID"`
	EntityType   string                 `json:"entityType"`
	Name         string                 `json:"name"`
	Score        float64                `json:"score"`
	NonAmbigSyns int                    `json:"nonambigsyns"`
	HitCount     int                    `json:"hitCount"`
	Subsume      []types.Flag           `json:"subsume"`
	Fields       map[string]interface{} `json:"-"`
}

func (h *Hit) UnmarshalJSON(b []byte) error {
	type hit Hit
	var decoded hit
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &decoded.Fields); err != nil {
		return err
	}
	*h = Hit(decoded)
	return nil
}

// Subsumed is true when any dictionary reported this hit as contained by a longer hit.
func (h Hit) Subsumed() bool {
	for _, s := range h.Subsume {
		if s {
			return true
		}
	}
	return false
}

// Block is the list of hits for one entity type.
type Block struct {
	EntityType string
	Hits       []Hit
}

type Document struct {
	ID     string
	Blocks []Block
}

// JSONXDocument is a self contained document from a doc.jsonx response.
type JSONXDocument struct {
	ID       string
	Metadata map[string]interface{}
	Hits     []Hit
}

// Response is one of SingleDoc, MultiDoc or DocArray.
type Response interface {
	Shape() string
}

type SingleDoc struct {
	Blocks []Block
}

type MultiDoc struct {
	Documents []Document
}

type DocArray struct {
	Documents []JSONXDocument
}

func (SingleDoc) Shape() string { return "json" }
func (MultiDoc) Shape() string  { return "multidoc json" }
func (DocArray) Shape() string  { return "doc.jsonx" }

// Parse decodes a TERMite entity response, working out which of the three layouts it is in.
// The multi document marker is checked before the single document marker.
func Parse(data []byte) (Response, error) {
	switch types.Kind(data) {
	case '[':
		return parseDocArray(data)
	case '{':
	default:
		return nil, &types.ShapeError{Service: "termite"}
	}

	obj, err := types.DecodeObject(data)
	if err != nil {
		return nil, err
	}

	if raw, ok := obj.Get(MultiDocKey); ok {
		docs, err := types.DecodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", MultiDocKey, err)
		}
		res := MultiDoc{Documents: make([]Document, 0, len(docs))}
		for _, doc := range docs {
			blocks, err := parseBlocks(doc.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: document %s: %w", MultiDocKey, doc.Key, err)
			}
			res.Documents = append(res.Documents, Document{ID: doc.Key, Blocks: blocks})
		}
		return res, nil
	}

	if raw, ok := obj.Get(SingleDocKey); ok {
		blocks, err := parseBlocks(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", SingleDocKey, err)
		}
		return SingleDoc{Blocks: blocks}, nil
	}

	return nil, &types.ShapeError{Service: "termite", Keys: obj.Keys()}
}

func parseBlocks(data []byte) ([]Block, error) {
	obj, err := types.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	blocks := make([]Block, 0, len(obj))
	for _, m := range obj {
		var hits []Hit
		if !types.IsNull(m.Value) {
			if err := json.Unmarshal(m.Value, &hits); err != nil {
				return nil, fmt.Errorf("entity type %s: %w", m.Key, err)
			}
		}
		blocks = append(blocks, Block{EntityType: m.Key, Hits: hits})
	}
	return blocks, nil
}

func parseDocArray(data []byte) (DocArray, error) {
	var docs []map[string]json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return DocArray{}, err
	}

	res := DocArray{Documents: make([]JSONXDocument, 0, len(docs))}
	for i, doc := range docs {
		jsonxDoc := JSONXDocument{Metadata: make(map[string]interface{}, len(doc))}
		for key, raw := range doc {
			if key == DocArrayHitsKey {
				continue
			}
			var v interface{}
			if err := json.Unmarshal(raw, &v); err != nil {
				return DocArray{}, fmt.Errorf("document %d: %s: %w", i, key, err)
			}
			jsonxDoc.Metadata[key] = v
		}
		jsonxDoc.ID = types.DocumentID(jsonxDoc.Metadata, i)
		if raw, ok := doc[DocArrayHitsKey]; ok && !types.IsNull(raw) {
			if err := json.Unmarshal(raw, &jsonxDoc.Hits); err != nil {
				return DocArray{}, fmt.Errorf("document %d: %s: %w", i, DocArrayHitsKey, err)
			}
		}
		res.Documents = append(res.Documents, jsonxDoc)
	}
	return res, nil
}

// DescribeResponse is the body of a tool.api describe call.
type DescribeResponse struct {
	ToolResult []struct {
		Name     string   `json:"name"`
		Mappings []string `json:"mappings"`
	} `json:"TOOL_RESULT"`
}

// EntityDetails is the subset of entity metadata most callers want.
type EntityDetails struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Name     string     `json:"name"`
	Mappings [][]string `json:"mappings"`
}
