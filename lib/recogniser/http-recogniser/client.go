package http_recogniser

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/texpress"
)

var ErrNoUrl = errors.New("termite url is not set")

type Config struct {
	Url      string
	Username string
	Password string
	// Insecure skips TLS certificate verification.
	Insecure bool
	Timeout  time.Duration
}

type Client struct {
	Url        string
	httpClient lib.HttpClient
	username   string
	password   string
	cache      cache.Client
}

func NewClient(conf Config) (*Client, error) {
	if conf.Url == "" {
		return nil, ErrNoUrl
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if conf.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}

	return &Client{
		Url: strings.TrimSuffix(conf.Url, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   conf.Timeout,
		},
		username: conf.Username,
		password: conf.Password,
	}, nil
}

// WithCache caches entity details looked up by GetEntityDetails.
func (c *Client) WithCache(cacheClient cache.Client) *Client {
	c.cache = cacheClient
	return c
}

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("termite responded with status %d: %s", e.Code, e.Body)
}

// Response is the body returned by TERMite together with the output format that was requested.
type Response struct {
	Output string
	Body   []byte
}

func (r *Response) IsJSON() bool {
	switch r.Output {
	case "json", "doc.json", "doc.jsonx":
		return true
	}
	return false
}

func (r *Response) Entities() (termite.Response, error) {
	if !r.IsJSON() {
		return nil, fmt.Errorf("cannot parse entities from %s output", r.Output)
	}
	return termite.Parse(r.Body)
}

func (r *Response) Patterns() (texpress.Response, error) {
	if !r.IsJSON() {
		return nil, fmt.Errorf("cannot parse patterns from %s output", r.Output)
	}
	return texpress.Parse(r.Body)
}

// Execute posts req to the TERMite url.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := req.body()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	payload := req.Payload()
	log.Debug().
		Str("url", c.Url).
		Str("output", req.Output()).
		Str("opts", payload.Get("opts")).
		Int("text_length", len(payload.Get("text"))).
		Msg("sending request")

	b, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	return &Response{Output: req.Output(), Body: b}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return b, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}
