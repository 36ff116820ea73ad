package lib

import "net/http"

// HttpClient is satisfied by *http.Client. Clients take one so tests can swap in a mock.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}
