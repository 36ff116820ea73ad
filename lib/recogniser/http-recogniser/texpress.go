package http_recogniser

import (
	"context"
	"strconv"
)

// options TExpress reads from the form itself rather than from opts.
var texpressPayloadOptions = map[string]struct{}{
	"output":  {},
	"bundle":  {},
	"pattern": {},
	"method":  {},
}

// TexpressRequest builds a pattern matching request. TExpress runs inside TERMite,
// selected with method=texpress.
type TexpressRequest struct {
	request
}

func NewTexpressRequest() *TexpressRequest {
	return &TexpressRequest{newRequest(map[string]string{
		"output": "json",
		"method": "texpress",
	})}
}

// SetOptions sets output, bundle, pattern and method as form fields and adds everything else to opts.
func (t *TexpressRequest) SetOptions(options map[string]string) {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		if _, ok := texpressPayloadOptions[k]; ok {
			t.payload.Set(k, v)
			continue
		}
		opts[k] = v
	}
	t.setOptions(opts)
}

// SetSubsume allows matches to be subsumed by longer matches.
func (t *TexpressRequest) SetSubsume(subsume bool) {
	t.payload.Set("tx.subsumable", strconv.FormatBool(subsume))
}

func (t *TexpressRequest) SetAllowAmbiguous(allow bool) {
	t.appendOpts("tx.ambig=" + strconv.FormatBool(allow))
}

func (t *TexpressRequest) SetAlwaysAdd(entities string) {
	t.payload.Set("alwaysAdd", entities)
}

func (t *TexpressRequest) SetPivot(pivot string) {
	t.payload.Set("pivot", pivot)
}

func (t *TexpressRequest) SetTxGroups(groups string) {
	t.payload.Set("tx.groups", groups)
}

// SetBundle selects a server side bundle of patterns.
func (t *TexpressRequest) SetBundle(bundle string) {
	t.payload.Set("bundle", bundle)
}

// SetPattern sets an ad hoc pattern, e.g. ":(INDICATION):{0,5}:(GENE)".
func (t *TexpressRequest) SetPattern(pattern string) {
	t.payload.Set("pattern", pattern)
}

func (t *TexpressRequest) SetReverse(reverse bool) {
	v := strconv.FormatBool(reverse)
	t.prependOpts("reverse=" + v)
	t.payload.Set("reverse", v)
}

// TexpressText runs a pattern over text.
func (c *Client) TexpressText(ctx context.Context, text, pattern string, options map[string]string) (*Response, error) {
	req := NewTexpressRequest()
	req.SetText(text)
	if pattern != "" {
		req.SetPattern(pattern)
	}
	req.SetOptions(options)
	return c.Execute(ctx, req)
}

func (c *Client) TexpressFile(ctx context.Context, path, pattern string, options map[string]string) (*Response, error) {
	req := NewTexpressRequest()
	if err := req.SetBinaryFile(path); err != nil {
		return nil, err
	}
	if pattern != "" {
		req.SetPattern(pattern)
	}
	req.SetOptions(options)
	return c.Execute(ctx, req)
}
