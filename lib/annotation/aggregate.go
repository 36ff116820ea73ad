package annotation

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// AggregatedHit summarises every record of one entity across documents.
type AggregatedHit struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	Name              string   `json:"name"`
	HitCount          int      `json:"hit_count"`
	MaxRelevanceScore float64  `json:"max_relevance_score"`
	DocIDs            []string `json:"doc_id"`
	DocCount          int      `json:"doc_count"`
}

// Aggregation maps entity keys (see Key) to their AggregatedHit, remembering insertion order.
type Aggregation struct {
	keys []string
	hits map[string]*AggregatedHit
}

func NewAggregation() *Aggregation {
	return &Aggregation{hits: make(map[string]*AggregatedHit)}
}

// Upsert merges a record into the aggregation. The first record of an entity
// seeds it; later records add to the hit count, raise the max score only when
// strictly greater, and count a document once however many records it contributes.
func (a *Aggregation) Upsert(r Record) {
	key := r.Key()
	hit, ok := a.hits[key]
	if !ok {
		a.keys = append(a.keys, key)
		a.hits[key] = &AggregatedHit{
			ID:                r.HitID,
			Type:              r.EntityType,
			Name:              r.Name,
			HitCount:          r.HitCount,
			MaxRelevanceScore: r.Score,
			DocIDs:            []string{r.DocID},
			DocCount:          1,
		}
		return
	}

	hit.HitCount += r.HitCount
	if r.Score > hit.MaxRelevanceScore {
		hit.MaxRelevanceScore = r.Score
	}
	for _, id := range hit.DocIDs {
		if id == r.DocID {
			return
		}
	}
	hit.DocIDs = append(hit.DocIDs, r.DocID)
	hit.DocCount++
}

func (a *Aggregation) Get(key string) (*AggregatedHit, bool) {
	hit, ok := a.hits[key]
	return hit, ok
}

func (a *Aggregation) Len() int {
	return len(a.keys)
}

func (a *Aggregation) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Hits returns the aggregated hits in the order their entities were first seen.
func (a *Aggregation) Hits() []*AggregatedHit {
	res := make([]*AggregatedHit, len(a.keys))
	for i, key := range a.keys {
		res[i] = a.hits[key]
	}
	return res
}

// MarshalJSON writes the aggregation as an object keyed by entity key, in insertion order.
func (a *Aggregation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(a.hits[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Aggregate merges the records whose entity type is one of entityTypes. No entity types means all of them.
func Aggregate(records []Record, entityTypes []string) *Aggregation {
	agg := NewAggregation()
	filter := NewTypeFilter(entityTypes)
	for _, r := range records {
		if filter.Allowed(r.EntityType) {
			agg.Upsert(r)
		}
	}
	return agg
}

// TypeFilter is a set of entity types. The empty filter allows every type.
type TypeFilter map[string]struct{}

func NewTypeFilter(entityTypes []string) TypeFilter {
	filter := make(TypeFilter, len(entityTypes))
	for _, t := range entityTypes {
		filter[t] = struct{}{}
	}
	return filter
}

func (f TypeFilter) Allowed(entityType string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[entityType]
	return ok
}

// ParseEntityTypes reads a comma separated list like "GENE, DRUG" as TERMite accepts it.
func ParseEntityTypes(s string) []string {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil
	}
	var res []string
	for _, t := range strings.Split(s, ",") {
		if t != "" {
			res = append(res, t)
		}
	}
	return res
}

// EntityKeys lists the distinct entity keys of records in the order they first appear.
func EntityKeys(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	var keys []string
	for _, r := range records {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

type Frequency struct {
	Key       string `json:"key"`
	Documents int    `json:"documents"`
}

// EntityFrequency counts the distinct documents each entity appears in, most frequent first.
// Entities with equal counts keep the order they were first seen in.
func EntityFrequency(records []Record) []Frequency {
	agg := NewAggregation()
	for _, r := range records {
		agg.Upsert(r)
	}
	res := make([]Frequency, 0, agg.Len())
	for _, key := range agg.keys {
		res = append(res, Frequency{Key: key, Documents: agg.hits[key].DocCount})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Documents > res[j].Documents
	})
	return res
}
