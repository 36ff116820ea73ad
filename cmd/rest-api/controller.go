package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/normalizer"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser"
	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/table"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/text"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

var errNoTermite = errors.New("termite url is not configured")

type controller struct {
	// client is nil when the service only normalizes posted responses.
	client    recogniser.Client
	blocklist *blocklist.Blocklist
}

func (c controller) Entities(body []byte, opts normalizer.EntityOptions) ([]annotation.Record, error) {
	records, err := normalizer.NormalizeEntityJSON(body, opts)
	if err != nil {
		return nil, responseError("termite", err)
	}
	return c.filter(records), nil
}

func (c controller) Aggregate(body []byte, entityTypes []string, opts normalizer.EntityOptions) (*annotation.Aggregation, error) {
	if c.blocklist != nil {
		records, err := c.Entities(body, opts)
		if err != nil {
			return nil, err
		}
		return annotation.Aggregate(records, entityTypes), nil
	}

	resp, err := termite.Parse(body)
	if err != nil {
		return nil, responseError("termite", err)
	}
	return normalizer.AggregateEntities(resp, entityTypes, opts), nil
}

func (c controller) Table(body []byte, opts normalizer.EntityOptions, extraColumns []string) (*table.Table, error) {
	records, err := c.Entities(body, opts)
	if err != nil {
		return nil, err
	}
	return tableResult(table.Project(records, extraColumns...))
}

func (c controller) Top(body []byte, opts normalizer.EntityOptions, rankOpts table.RankOptions) (*table.Table, error) {
	records, err := c.Entities(body, opts)
	if err != nil {
		return nil, err
	}
	return tableResult(table.Rank(records, rankOpts))
}

func (c controller) Patterns(body []byte, opts normalizer.PatternOptions) ([]annotation.PatternRecord, error) {
	records, err := normalizer.NormalizePatternJSON(body, opts)
	if err != nil {
		return nil, responseError("texpress", err)
	}
	return records, nil
}

func (c controller) PatternHits(body []byte, opts normalizer.PatternOptions) (map[string][]annotation.PatternHit, error) {
	records, err := c.Patterns(body, opts)
	if err != nil {
		return nil, err
	}
	return annotation.PatternHits(records), nil
}

func (c controller) PatternTable(body []byte, opts normalizer.PatternOptions, extraColumns []string) (*table.Table, error) {
	records, err := c.Patterns(body, opts)
	if err != nil {
		return nil, err
	}
	return tableResult(table.ProjectPatterns(records, extraColumns...))
}

// Annotate sends text (or HTML, converted to text first) to TERMite and normalizes the result.
func (c controller) Annotate(ctx context.Context, body []byte, contentType string, options map[string]string, opts normalizer.EntityOptions) ([]annotation.Record, error) {
	if c.client == nil {
		return nil, NewHttpError(http.StatusServiceUnavailable, errNoTermite)
	}

	content := string(body)
	if contentType == contentTypeHTML {
		var err error
		if content, err = text.HtmlToText(bytes.NewReader(body)); err != nil {
			return nil, NewHttpError(http.StatusBadRequest, err)
		}
	}

	req := http_recogniser.NewTermiteRequest()
	req.SetText(text.Normalize(content))
	req.SetOptions(options)
	req.SetRejectAmbiguous(opts.RejectAmbiguous)

	resp, err := c.client.Execute(ctx, req)
	if err != nil {
		return nil, termiteError(err)
	}
	log.Debug().Int("bytes", len(resp.Body)).Msg("termite responded")
	return c.Entities(resp.Body, opts)
}

func (c controller) EntityDetails(ctx context.Context, entityType, entityID string) (*termite.EntityDetails, error) {
	if c.client == nil {
		return nil, NewHttpError(http.StatusServiceUnavailable, errNoTermite)
	}
	details, err := c.client.GetEntityDetails(ctx, entityType, entityID)
	if err != nil {
		return nil, termiteError(err)
	}
	if details.Name == "" && len(details.Mappings) == 0 {
		return nil, NewHttpError(http.StatusNotFound, fmt.Errorf("entity %s:%s not found", entityType, entityID))
	}
	return details, nil
}

func (c controller) Autocomplete(ctx context.Context, term, vocab, taxon string) (json.RawMessage, error) {
	if c.client == nil {
		return nil, NewHttpError(http.StatusServiceUnavailable, errNoTermite)
	}
	res, err := c.client.Autocomplete(ctx, term, vocab, taxon)
	if errors.Is(err, http_recogniser.ErrInputTooShort) {
		return nil, NewHttpError(http.StatusBadRequest, err)
	} else if err != nil {
		return nil, termiteError(err)
	}
	return res, nil
}

func (c controller) filter(records []annotation.Record) []annotation.Record {
	if c.blocklist == nil {
		return records
	}
	return c.blocklist.FilterRecords(records)
}

// responseError maps a failure to read a posted response. Valid JSON in the wrong layout is unprocessable,
// anything else is a bad request.
func responseError(service string, err error) error {
	var shapeErr *types.ShapeError
	if errors.As(err, &shapeErr) {
		return NewHttpError(http.StatusUnprocessableEntity, err)
	}
	return NewHttpError(http.StatusBadRequest, fmt.Errorf("invalid %s response: %w", service, err))
}

func termiteError(err error) error {
	var statusErr *http_recogniser.StatusError
	if errors.As(err, &statusErr) {
		return NewHttpError(http.StatusBadGateway, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewHttpError(http.StatusGatewayTimeout, err)
	}
	return err
}

func tableResult(t *table.Table, err error) (*table.Table, error) {
	var missing *table.MissingColumnError
	if errors.As(err, &missing) {
		return nil, NewHttpError(http.StatusBadRequest, err)
	}
	return t, err
}
