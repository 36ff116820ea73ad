package normalizer

import (
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/texpress"
)

type PatternOptions struct {
	ScoreCutoff    float64
	RemoveSubsumed bool
}

func DefaultPatternOptions() PatternOptions {
	return PatternOptions{
		ScoreCutoff:    0,
		RemoveSubsumed: true,
	}
}

// Keep drops subsumed matches (when asked to) and matches scoring below the cutoff.
// A match scoring exactly the cutoff is kept.
func (o PatternOptions) Keep(match texpress.Match) bool {
	if o.RemoveSubsumed && bool(match.Subsumed) {
		return false
	}
	if match.Conf < o.ScoreCutoff {
		return false
	}
	return true
}

func NormalizePatterns(resp texpress.Response, opts PatternOptions) []annotation.PatternRecord {
	var docs []texpress.Document
	switch r := resp.(type) {
	case texpress.MultiDoc:
		docs = r.Documents
	case texpress.DocArray:
		docs = r.Documents
	case nil:
		return nil
	}

	records := []annotation.PatternRecord{}
	var discarded int
	for _, doc := range docs {
		for _, pattern := range doc.Patterns {
			for _, group := range pattern.Groups {
				for _, match := range group.Matches {
					if !opts.Keep(match) {
						discarded++
						continue
					}
					records = append(records, newPatternRecord(doc, pattern.ID, group, match))
				}
			}
		}
	}

	log.Debug().
		Str("shape", resp.Shape()).
		Int("kept", len(records)).
		Int("discarded", discarded).
		Msg("normalised pattern matches")

	return records
}

func NormalizePatternJSON(data []byte, opts PatternOptions) ([]annotation.PatternRecord, error) {
	resp, err := texpress.Parse(data)
	if err != nil {
		return nil, err
	}
	return NormalizePatterns(resp, opts), nil
}

func newPatternRecord(doc texpress.Document, patternID string, group texpress.Group, match texpress.Match) annotation.PatternRecord {
	fields := make(map[string]interface{}, len(doc.Metadata)+len(match.Fields)+len(match.Meta))
	for k, v := range doc.Metadata {
		fields[k] = v
	}
	for k, v := range match.Fields {
		fields[k] = v
	}
	delete(fields, "meta")
	for k, v := range match.Meta {
		fields[k] = v
	}

	// the match's own pattern id wins over the key it was grouped under
	if match.PatternID != "" {
		patternID = match.PatternID
	}

	return annotation.PatternRecord{
		DocID:            doc.ID,
		PatternID:        patternID,
		Conf:             match.Conf,
		Subsumed:         bool(match.Subsumed),
		OriginalFragment: match.OriginalFragment,
		MatchEntities:    match.MatchEntities,
		EntityNames:      group.EntityNames,
		Fields:           fields,
	}
}
