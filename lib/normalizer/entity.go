package normalizer

import (
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

// EntityOptions controls which entity hits survive normalisation.
type EntityOptions struct {
	// RejectAmbiguous drops hits with no unambiguous synonyms.
	RejectAmbiguous bool
	// ScoreCutoff is the lowest score kept.
	ScoreCutoff float64
	// RemoveSubsumed drops hits contained by a longer hit from another dictionary.
	RemoveSubsumed bool
}

func DefaultEntityOptions() EntityOptions {
	return EntityOptions{
		RejectAmbiguous: true,
		ScoreCutoff:     0,
		RemoveSubsumed:  true,
	}
}

// Keep applies the ambiguity, subsume and score filters, in that order.
func (o EntityOptions) Keep(hit termite.Hit) bool {
	if o.RejectAmbiguous && hit.NonAmbigSyns == 0 {
		return false
	}
	if o.RemoveSubsumed && hit.Subsumed() {
		return false
	}
	return hit.Score >= o.ScoreCutoff
}

// NormalizeEntities flattens a TERMite response into one record per surviving hit,
// in the order the hits appear in the response.
func NormalizeEntities(resp termite.Response, opts EntityOptions) []annotation.Record {
	records := []annotation.Record{}
	walkEntities(resp, opts, func(r annotation.Record) {
		records = append(records, r)
	})
	return records
}

// NormalizeEntityJSON parses a raw TERMite response and normalises it.
func NormalizeEntityJSON(data []byte, opts EntityOptions) ([]annotation.Record, error) {
	resp, err := termite.Parse(data)
	if err != nil {
		return nil, err
	}
	return NormalizeEntities(resp, opts), nil
}

// AggregateEntities normalises and aggregates in one pass. The result is the
// same as annotation.Aggregate(NormalizeEntities(resp, opts), entityTypes).
func AggregateEntities(resp termite.Response, entityTypes []string, opts EntityOptions) *annotation.Aggregation {
	agg := annotation.NewAggregation()
	filter := annotation.NewTypeFilter(entityTypes)
	walkEntities(resp, opts, func(r annotation.Record) {
		if filter.Allowed(r.EntityType) {
			agg.Upsert(r)
		}
	})
	return agg
}

func walkEntities(resp termite.Response, opts EntityOptions, onRecord func(annotation.Record)) {
	var kept, discarded int
	visit := func(docID, entityType string, docFields map[string]interface{}, hit termite.Hit) {
		if !opts.Keep(hit) {
			discarded++
			return
		}
		kept++
		onRecord(newRecord(docID, entityType, docFields, hit))
	}

	switch r := resp.(type) {
	case termite.MultiDoc:
		for _, doc := range r.Documents {
			for _, block := range doc.Blocks {
				for _, hit := range block.Hits {
					visit(doc.ID, block.EntityType, nil, hit)
				}
			}
		}
	case termite.SingleDoc:
		for _, block := range r.Blocks {
			for _, hit := range block.Hits {
				visit("", block.EntityType, nil, hit)
			}
		}
	case termite.DocArray:
		for _, doc := range r.Documents {
			for _, hit := range doc.Hits {
				visit(doc.ID, hit.EntityType, doc.Metadata, hit)
			}
		}
	case nil:
		return
	}

	log.Debug().
		Str("shape", resp.Shape()).
		Int("kept", kept).
		Int("discarded", discarded).
		Msg("normalised entity hits")
}

func newRecord(docID, entityType string, docFields map[string]interface{}, hit termite.Hit) annotation.Record {
	fields := make(map[string]interface{}, len(docFields)+len(hit.Fields))
	for k, v := range docFields {
		fields[k] = v
	}
	for k, v := range hit.Fields {
		fields[k] = v
	}
	return annotation.Record{
		DocID:        docID,
		EntityType:   entityType,
		HitID:        string(hit.HitID),
		Name:         hit.Name,
		Score:        hit.Score,
		HitCount:     hit.HitCount,
		NonAmbigSyns: hit.NonAmbigSyns,
		Fields:       fields,
	}
}
