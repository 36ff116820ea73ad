package annotation

import (
	"fmt"
)

const (
	DocIDColumn        = "docID"
	EntityTypeColumn   = "entityType"
	HitIDColumn        = "hitID"
	NameColumn         = "name"
	ScoreColumn        = "score"
	NonAmbigSynsColumn = "nonambigsyns"
	HitCountColumn     = "hitCount"

	PatternIDColumn        = "pattern_id"
	ConfColumn             = "conf"
	SubsumedColumn         = "subsumed"
	OriginalFragmentColumn = "originalFragment"
	MatchEntitiesColumn    = "matchEntities"
	EntityNamesColumn      = "entityNames"
)

// Record is one entity hit, flattened. Fields carries every other key TERMite
// sent for the hit (and, for doc.jsonx, the fields of the document it came from).
type Record struct {
	DocID        string                 `json:"docID"`
	EntityType   string                 `json:"entityType"`
	HitID        string                 `json:"hitID"`
	Name         string                 `json:"name"`
	Score        float64                `json:"score"`
	HitCount     int                    `json:"hitCount"`
	NonAmbigSyns int                    `json:"nonambigsyns"`
	Fields       map[string]interface{} `json:"fields,omitempty"`
}

// Key identifies the entity a record refers to. A hit id is only unique within its entity type.
func (r Record) Key() string {
	return Key(r.EntityType, r.HitID)
}

func Key(entityType, hitID string) string {
	return entityType + "$" + hitID
}

// Column looks up a named value. The typed fields take precedence over Fields.
func (r Record) Column(name string) (interface{}, bool) {
	switch name {
	case DocIDColumn:
		return r.DocID, true
	case EntityTypeColumn:
		return r.EntityType, true
	case HitIDColumn:
		return r.HitID, true
	case NameColumn:
		return r.Name, true
	case ScoreColumn:
		return r.Score, true
	case NonAmbigSynsColumn:
		return r.NonAmbigSyns, true
	case HitCountColumn:
		return r.HitCount, true
	}
	v, ok := r.Fields[name]
	return v, ok
}

// PatternRecord is one TExpress match, flattened. Any "meta" object on the
// match has been merged into Fields.
type PatternRecord struct {
	DocID            string                 `json:"docID"`
	PatternID        string                 `json:"pattern_id"`
	Conf             float64                `json:"conf"`
	Subsumed         bool                   `json:"subsumed"`
	OriginalFragment string                 `json:"originalFragment"`
	MatchEntities    []string               `json:"matchEntities"`
	EntityNames      map[string]string      `json:"entityNames"`
	Fields           map[string]interface{} `json:"fields,omitempty"`
}

func (p PatternRecord) Column(name string) (interface{}, bool) {
	switch name {
	case DocIDColumn:
		return p.DocID, true
	case PatternIDColumn:
		return p.PatternID, true
	case ConfColumn:
		return p.Conf, true
	case SubsumedColumn:
		return p.Subsumed, true
	case OriginalFragmentColumn:
		return p.OriginalFragment, true
	case MatchEntitiesColumn:
		return p.MatchEntities, true
	case EntityNamesColumn:
		return p.EntityNames, true
	}
	v, ok := p.Fields[name]
	return v, ok
}

// EntityInfo pairs each matched entity reference with its name as "ref#name".
// References missing from the name lookup get an empty name.
func (p PatternRecord) EntityInfo() []string {
	info := make([]string, len(p.MatchEntities))
	for i, ref := range p.MatchEntities {
		// an entity missing from EntityNames renders as "ref#", not "ref#None"
		info[i] = fmt.Sprintf("%s#%s", ref, p.EntityNames[ref])
	}
	return info
}

// PatternHit is the minimal view of a match.
type PatternHit struct {
	DocID            string   `json:"doc_id"`
	Entities         []string `json:"entities"`
	OriginalFragment string   `json:"original_fragment"`
	Conf             float64  `json:"conf"`
}

// PatternHits groups the minimal view of every record by pattern id, keeping record order within each pattern.
func PatternHits(records []PatternRecord) map[string][]PatternHit {
	res := make(map[string][]PatternHit)
	for _, r := range records {
		res[r.PatternID] = append(res[r.PatternID], PatternHit{
			DocID:            r.DocID,
			Entities:         r.EntityInfo(),
			OriginalFragment: r.OriginalFragment,
			Conf:             r.Conf,
		})
	}
	return res
}
