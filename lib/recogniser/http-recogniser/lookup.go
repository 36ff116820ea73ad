package http_recogniser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

const minAutocompleteLength = 3

var ErrInputTooShort = errors.New("autocomplete input must be at least 3 characters")

// GetEntity returns TERMite's description of an entity.
func (c *Client) GetEntity(ctx context.Context, entityType, entityID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("t", "describe")
	query.Set("id", entityType+":"+entityID)

	req, err := c.newRequest(ctx, http.MethodGet, c.Url+"/toolkit/tool.api?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	b, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetEntityDetails returns the name and mappings of an entity. Each mapping is split on '|'.
func (c *Client) GetEntityDetails(ctx context.Context, entityType, entityID string) (*termite.EntityDetails, error) {
	key := cache.Key(entityType, entityID)
	if c.cache != nil {
		details, err := c.cache.Get(key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		} else if details != nil {
			return details, nil
		}
	}

	raw, err := c.GetEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	var describe termite.DescribeResponse
	if err := json.Unmarshal(raw, &describe); err != nil {
		return nil, err
	}

	details := &termite.EntityDetails{
		ID:       entityID,
		Type:     entityType,
		Mappings: [][]string{},
	}
	if len(describe.ToolResult) > 0 {
		result := describe.ToolResult[0]
		details.Name = result.Name
		for _, mapping := range result.Mappings {
			details.Mappings = append(details.Mappings, strings.Split(mapping, "|"))
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(key, details); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache store failed")
		}
	}
	return details, nil
}

// Autocomplete suggests entities of vocab starting with term. TERMite reads the taxon from the limit field.
func (c *Client) Autocomplete(ctx context.Context, term, vocab, taxon string) (json.RawMessage, error) {
	if utf8.RuneCountInString(term) < minAutocompleteLength {
		return nil, ErrInputTooShort
	}

	form := url.Values{}
	form.Set("term", term)
	form.Set("e", vocab)
	form.Set("limit", taxon)

	req, err := c.newRequest(ctx, http.MethodPost, c.Url+"/toolkit/autocomplete.api", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	b, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return b, nil
}
