package http_recogniser

import (
	"context"
	"strconv"
)

// TermiteRequest builds a named entity recognition request.
type TermiteRequest struct {
	request
}

func NewTermiteRequest() *TermiteRequest {
	return &TermiteRequest{newRequest(map[string]string{"output": "json"})}
}

// SetOptions adds free-form TERMite options, e.g. {"fzy.minlen": "5"}.
func (t *TermiteRequest) SetOptions(options map[string]string) {
	t.setOptions(options)
}

// SetSubsume asks TERMite to mark hits that are contained in longer hits.
func (t *TermiteRequest) SetSubsume(subsume bool) {
	t.payload.Set("subsume", strconv.FormatBool(subsume))
}

func (t *TermiteRequest) SetRejectAmbiguous(reject bool) {
	t.appendOpts("rejectAmbig=" + strconv.FormatBool(reject))
}

// AnnotateText runs TERMite over text and returns the raw response.
func (c *Client) AnnotateText(ctx context.Context, text string, options map[string]string) (*Response, error) {
	req := NewTermiteRequest()
	req.SetText(text)
	req.SetOptions(options)
	return c.Execute(ctx, req)
}

// AnnotateFile uploads the file at path to TERMite.
func (c *Client) AnnotateFile(ctx context.Context, path string, options map[string]string) (*Response, error) {
	req := NewTermiteRequest()
	if err := req.SetBinaryFile(path); err != nil {
		return nil, err
	}
	req.SetOptions(options)
	return c.Execute(ctx, req)
}
