package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
)

const defaultBatchSize = 500

type ElasticsearchConfig struct {
	Host      string
	Port      int
	Index     string
	BatchSize int `mapstructure:"batch_size"`
}

// Exporter bulk indexes normalized hits so they can be searched outside TERMite.
type Exporter struct {
	*elasticsearch.Client
	index     string
	batchSize int
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func NewElasticsearchExporter(conf ElasticsearchConfig) (*Exporter, error) {
	if conf.Index == "" {
		return nil, errors.New("elasticsearch index is not set")
	}
	c, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("http://%s:%d", conf.Host, conf.Port)},
	})
	if err != nil {
		return nil, err
	}
	batchSize := conf.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Exporter{
		Client:    c,
		index:     conf.Index,
		batchSize: batchSize,
	}, nil
}

func (e *Exporter) Ready() bool {
	res, err := e.Info()
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == 200
}

// ExportRecords indexes one document per record and lets elasticsearch assign ids.
func (e *Exporter) ExportRecords(ctx context.Context, records []annotation.Record) (int, error) {
	docs := make([]document, len(records))
	for i, r := range records {
		docs[i] = document{source: r}
	}
	return e.export(ctx, docs)
}

func (e *Exporter) ExportPatterns(ctx context.Context, records []annotation.PatternRecord) (int, error) {
	docs := make([]document, len(records))
	for i, r := range records {
		docs[i] = document{source: r}
	}
	return e.export(ctx, docs)
}

// ExportAggregation indexes each aggregated hit under its type$hitID key, replacing earlier exports.
func (e *Exporter) ExportAggregation(ctx context.Context, agg *annotation.Aggregation) (int, error) {
	hits := agg.Hits()
	docs := make([]document, len(hits))
	for i, hit := range hits {
		docs[i] = document{id: annotation.Key(hit.Type, hit.ID), source: hit}
	}
	return e.export(ctx, docs)
}

type document struct {
	id     string
	source interface{}
}

func (e *Exporter) export(ctx context.Context, docs []document) (int, error) {
	indexed := 0
	for start := 0; start < len(docs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		n, err := e.bulk(ctx, docs[start:end])
		indexed += n
		if err != nil {
			return indexed, err
		}
	}
	log.Info().Str("index", e.index).Int("documents", indexed).Msg("exported to elasticsearch")
	return indexed, nil
}

func (e *Exporter) bulk(ctx context.Context, docs []document) (int, error) {
	buf := bytes.NewBuffer(nil)
	for _, doc := range docs {
		action := map[string]map[string]string{"index": {}}
		if doc.id != "" {
			action["index"]["_id"] = doc.id
		}
		meta, err := json.Marshal(action)
		if err != nil {
			return 0, err
		}
		source, err := json.Marshal(doc.source)
		if err != nil {
			return 0, err
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(source)
		buf.WriteByte('\n')
	}

	res, err := e.Bulk(buf, e.Bulk.WithContext(ctx), e.Bulk.WithIndex(e.index))
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, errors.New(res.String())
	}

	b, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return 0, err
	}
	var bulkRes bulkResponse
	if err := json.Unmarshal(b, &bulkRes); err != nil {
		return 0, err
	}

	if !bulkRes.Errors {
		return len(docs), nil
	}
	failed := 0
	var first error
	for _, item := range bulkRes.Items {
		for _, result := range item {
			if result.Status < 300 {
				continue
			}
			failed++
			if first == nil {
				first = fmt.Errorf("%s: %s", result.Error.Type, result.Error.Reason)
			}
		}
	}
	if failed == 0 {
		return len(docs), nil
	}
	return len(docs) - failed, fmt.Errorf("%d of %d documents failed to index, first error: %w", failed, len(docs), first)
}
