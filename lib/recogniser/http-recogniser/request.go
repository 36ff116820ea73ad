package http_recogniser

import (
	"bytes"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Request is a TERMite or TExpress request ready to be executed.
type Request interface {
	// Payload is a copy of the form fields that will be sent.
	Payload() url.Values
	// Output is the requested output format.
	Output() string
	body() (io.Reader, string, error)
}

type binaryContent struct {
	name string
	data []byte
}

// request holds the settings shared by both services. Free-form options
// accumulate in the opts field as "key=value" pairs joined by '&'.
type request struct {
	payload url.Values
	content *binaryContent
}

func newRequest(defaults map[string]string) request {
	payload := url.Values{}
	for k, v := range defaults {
		payload.Set(k, v)
	}
	return request{payload: payload}
}

func (r *request) Payload() url.Values {
	payload := make(url.Values, len(r.payload))
	for k, v := range r.payload {
		payload[k] = append([]string(nil), v...)
	}
	return payload
}

func (r *request) Output() string {
	return r.payload.Get("output")
}

// Opts returns the accumulated options string.
func (r *request) Opts() string {
	return r.payload.Get("opts")
}

func (r *request) SetText(text string) {
	r.payload.Set("text", text)
}

// SetBinaryContent uploads the content of reader as a file called name.
func (r *request) SetBinaryContent(name string, reader io.Reader) error {
	data, err := ioutil.ReadAll(reader)
	if err != nil {
		return err
	}
	r.content = &binaryContent{name: name, data: data}
	return nil
}

func (r *request) SetBinaryFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.SetBinaryContent(filepath.Base(path), f)
}

func (r *request) SetEntities(entities string) {
	r.payload.Set("entities", entities)
}

func (r *request) SetInputFormat(format string) {
	r.payload.Set("format", format)
}

func (r *request) SetOutputFormat(output string) {
	r.payload.Set("output", output)
}

// SetFuzzy toggles fuzzy matching and promotes fuzzy hits when enabled.
func (r *request) SetFuzzy(fuzzy bool) {
	v := strconv.FormatBool(fuzzy)
	r.prependOpts("fzy.promote=" + v)
	r.payload.Set("fuzzy", v)
}

func (r *request) SetMaxDocs(n int) {
	r.payload.Set("maxDocs", strconv.Itoa(n))
}

// SetNoEmpty drops documents without hits from multi-document output.
func (r *request) SetNoEmpty(noEmpty bool) {
	r.payload.Set("noEmpty", strconv.FormatBool(noEmpty))
}

// setOptions prepends options to opts in key order.
func (r *request) setOptions(options map[string]string) {
	if len(options) == 0 {
		return
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + options[k]
	}
	r.prependOpts(strings.Join(pairs, "&"))
}

func (r *request) prependOpts(opt string) {
	if existing := r.Opts(); existing != "" {
		opt = opt + "&" + existing
	}
	r.payload.Set("opts", opt)
}

func (r *request) appendOpts(opt string) {
	if existing := r.Opts(); existing != "" {
		opt = existing + "&" + opt
	}
	r.payload.Set("opts", opt)
}

// body encodes the request as a form, or as multipart when there is a file to upload.
func (r *request) body() (io.Reader, string, error) {
	if r.content == nil {
		return strings.NewReader(r.payload.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(r.payload))
	for k := range r.payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range r.payload[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}

	part, err := w.CreateFormFile("binary", r.content.name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(r.content.data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
