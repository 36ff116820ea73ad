package recogniser

import (
	"context"
	"encoding/json"

	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

// Client is what the binaries need from TERMite. *http_recogniser.Client implements it.
type Client interface {
	Execute(ctx context.Context, req http_recogniser.Request) (*http_recogniser.Response, error)
	GetEntityDetails(ctx context.Context, entityType, entityID string) (*termite.EntityDetails, error)
	Autocomplete(ctx context.Context, term, vocab, taxon string) (json.RawMessage, error)
}

var _ Client = (*http_recogniser.Client)(nil)
