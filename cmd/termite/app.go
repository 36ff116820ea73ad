package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/normalizer"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser"
	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/table"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/text"
)

const (
	serviceTermite  = "termite"
	serviceTexpress = "texpress"
)

type cliOptions struct {
	Service string

	// input, exactly one of these
	Text     string
	File     string
	HTML     string
	Response string

	// request
	Entities    string
	InputFormat string
	Output      string
	Options     map[string]string
	Fuzzy       bool
	Subsume     bool
	Pattern     string
	Bundle      string

	// normalisation
	RejectAmbiguous bool
	ScoreCutoff     float64
	KeepSubsumed    bool
	EntityTypes     string

	// presentation
	Aggregate bool
	Frequency bool
	Top       int
	Columns   []string
	CSV       string
	JSON      bool

	// lookups
	Describe     string
	Autocomplete string
	Vocab        string
	Taxon        string

	Export bool
}

type exporter interface {
	ExportRecords(ctx context.Context, records []annotation.Record) (int, error)
	ExportAggregation(ctx context.Context, agg *annotation.Aggregation) (int, error)
	ExportPatterns(ctx context.Context, records []annotation.PatternRecord) (int, error)
}

type app struct {
	client    recogniser.Client
	exporter  exporter
	blocklist *blocklist.Blocklist
	stdin     io.Reader
	out       io.Writer
}

// requestBuilder is the part of the request API both services share.
type requestBuilder interface {
	http_recogniser.Request
	SetText(text string)
	SetBinaryFile(path string) error
	SetEntities(entities string)
	SetInputFormat(format string)
	SetOutputFormat(output string)
	SetFuzzy(fuzzy bool)
	SetOptions(options map[string]string)
	SetSubsume(subsume bool)
}

var errNoTermite = errors.New("termite url is not configured")

func (a app) run(ctx context.Context, opts cliOptions) error {
	if a.client == nil && opts.Response == "" {
		return errNoTermite
	}

	switch {
	case opts.Describe != "":
		return a.describe(ctx, opts.Describe)
	case opts.Autocomplete != "":
		res, err := a.client.Autocomplete(ctx, opts.Autocomplete, opts.Vocab, opts.Taxon)
		if err != nil {
			return err
		}
		return a.writeJSON(res)
	}

	body, output, err := a.response(ctx, opts)
	if err != nil {
		return err
	}

	switch output {
	case "json", "doc.json", "doc.jsonx":
	default:
		// nothing to normalise, hand back what TERMite sent
		_, err := a.out.Write(body)
		return err
	}

	if opts.Service == serviceTexpress {
		return a.patterns(ctx, body, opts)
	}
	return a.entities(ctx, body, opts)
}

func (a app) describe(ctx context.Context, entity string) error {
	parts := strings.SplitN(entity, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("describe expects TYPE:ID, got %q", entity)
	}
	details, err := a.client.GetEntityDetails(ctx, parts[0], parts[1])
	if err != nil {
		return err
	}
	return a.writeJSON(details)
}

// response returns a saved response when one is given, otherwise it asks TERMite.
func (a app) response(ctx context.Context, opts cliOptions) ([]byte, string, error) {
	if opts.Response != "" {
		var b []byte
		var err error
		if opts.Response == "-" {
			b, err = ioutil.ReadAll(a.stdin)
		} else {
			b, err = ioutil.ReadFile(opts.Response)
		}
		return b, "json", err
	}

	req, err := a.request(opts)
	if err != nil {
		return nil, "", err
	}
	resp, err := a.client.Execute(ctx, req)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Output, nil
}

func (a app) request(opts cliOptions) (requestBuilder, error) {
	var req requestBuilder
	switch opts.Service {
	case serviceTermite, "":
		r := http_recogniser.NewTermiteRequest()
		r.SetRejectAmbiguous(opts.RejectAmbiguous)
		req = r
	case serviceTexpress:
		r := http_recogniser.NewTexpressRequest()
		if opts.Pattern != "" {
			r.SetPattern(opts.Pattern)
		}
		if opts.Bundle != "" {
			r.SetBundle(opts.Bundle)
		}
		req = r
	default:
		return nil, fmt.Errorf("unknown service %q", opts.Service)
	}

	inputs := 0
	for _, in := range []string{opts.Text, opts.File, opts.HTML} {
		if in != "" {
			inputs++
		}
	}
	if inputs != 1 {
		return nil, errors.New("exactly one of --text, --file, --html or --response is required")
	}

	switch {
	case opts.Text != "":
		req.SetText(text.Normalize(opts.Text))
	case opts.HTML != "":
		f, err := os.Open(opts.HTML)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		content, err := text.HtmlToText(f)
		if err != nil {
			return nil, err
		}
		req.SetText(text.Normalize(content))
	case opts.File != "":
		if err := req.SetBinaryFile(opts.File); err != nil {
			return nil, err
		}
	}

	if opts.Entities != "" {
		req.SetEntities(opts.Entities)
	}
	if opts.InputFormat != "" {
		req.SetInputFormat(opts.InputFormat)
	}
	if opts.Output != "" {
		req.SetOutputFormat(opts.Output)
	}
	if opts.Fuzzy {
		req.SetFuzzy(true)
	}
	req.SetSubsume(opts.Subsume)
	req.SetOptions(opts.Options)
	return req, nil
}

func (a app) entities(ctx context.Context, body []byte, opts cliOptions) error {
	records, err := normalizer.NormalizeEntityJSON(body, normalizer.EntityOptions{
		RejectAmbiguous: opts.RejectAmbiguous,
		ScoreCutoff:     opts.ScoreCutoff,
		RemoveSubsumed:  !opts.KeepSubsumed,
	})
	if err != nil {
		return err
	}
	if a.blocklist != nil {
		records = a.blocklist.FilterRecords(records)
	}
	entityTypes := annotation.ParseEntityTypes(opts.EntityTypes)

	switch {
	case opts.Aggregate:
		agg := annotation.Aggregate(records, entityTypes)
		if err := a.export(func() (int, error) { return a.exporter.ExportAggregation(ctx, agg) }); err != nil {
			return err
		}
		return a.writeJSON(agg)
	case opts.Frequency:
		freq := annotation.EntityFrequency(records)
		rows := make([][]interface{}, len(freq))
		for i, f := range freq {
			rows[i] = []interface{}{f.Key, f.Documents}
		}
		return a.writeTable(&table.Table{Columns: []string{"entity", "documents"}, Rows: rows}, opts)
	}

	if err := a.export(func() (int, error) { return a.exporter.ExportRecords(ctx, records) }); err != nil {
		return err
	}
	if opts.JSON {
		return a.writeJSON(records)
	}

	var t *table.Table
	if opts.Top > 0 {
		t, err = table.Rank(records, table.RankOptions{Columns: opts.Columns, Top: opts.Top, EntityTypes: entityTypes})
	} else {
		t, err = table.Project(records, opts.Columns...)
	}
	if err != nil {
		return err
	}
	return a.writeTable(t, opts)
}

func (a app) patterns(ctx context.Context, body []byte, opts cliOptions) error {
	records, err := normalizer.NormalizePatternJSON(body, normalizer.PatternOptions{
		ScoreCutoff:    opts.ScoreCutoff,
		RemoveSubsumed: !opts.KeepSubsumed,
	})
	if err != nil {
		return err
	}
	if err := a.export(func() (int, error) { return a.exporter.ExportPatterns(ctx, records) }); err != nil {
		return err
	}

	switch {
	case opts.Aggregate:
		return a.writeJSON(annotation.PatternHits(records))
	case opts.JSON:
		return a.writeJSON(records)
	}

	t, err := table.ProjectPatterns(records, opts.Columns...)
	if err != nil {
		return err
	}
	return a.writeTable(t, opts)
}

func (a app) export(do func() (int, error)) error {
	if a.exporter == nil {
		return nil
	}
	n, err := do()
	if err != nil {
		return fmt.Errorf("export failed after %d documents: %w", n, err)
	}
	log.Info().Int("documents", n).Msg("exported")
	return nil
}

func (a app) writeTable(t *table.Table, opts cliOptions) error {
	switch opts.CSV {
	case "":
		rendered, err := t.Render()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, rendered)
		return err
	case "-":
		return t.WriteCSV(a.out)
	}

	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return err
	}
	if err := ioutil.WriteFile(opts.CSV, buf.Bytes(), 0644); err != nil {
		return err
	}
	log.Info().Str("path", opts.CSV).Int("rows", len(t.Rows)).Msg("table written")
	return nil
}

func (a app) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
