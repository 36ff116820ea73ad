package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	mocks "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/gen/mocks/lib/recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

const docArrayResponse = `[
	{"docID": "pmid1", "title": "csf1", "termiteTags": [
		{"hitID": "CSF1", "entityType": "GENE", "name": "CSF1", "score": 4, "nonambigsyns": 2, "hitCount": 3,
		 "realSynList": ["csf1"], "totnosyns": 2, "frag_vector_array": ["1#0#4"], "subsume": [false]},
		{"hitID": "D001943", "entityType": "INDICATION", "name": "breast cancer", "score": 2, "nonambigsyns": 1, "hitCount": 1,
		 "realSynList": ["breast cancer"], "totnosyns": 5, "frag_vector_array": ["1#5#18"], "subsume": [false]}
	]},
	{"docID": "pmid2", "termiteTags": [
		{"hitID": "CSF1", "entityType": "GENE", "name": "CSF1", "score": 1, "nonambigsyns": 2, "hitCount": 1,
		 "realSynList": ["csf1"], "totnosyns": 2, "frag_vector_array": ["1#0#4"], "subsume": [true]}
	]}
]`

type fakeExporter struct {
	records []annotation.Record
	agg     *annotation.Aggregation
	pattern []annotation.PatternRecord
}

func (f *fakeExporter) ExportRecords(_ context.Context, records []annotation.Record) (int, error) {
	f.records = records
	return len(records), nil
}

func (f *fakeExporter) ExportAggregation(_ context.Context, agg *annotation.Aggregation) (int, error) {
	f.agg = agg
	return agg.Len(), nil
}

func (f *fakeExporter) ExportPatterns(_ context.Context, records []annotation.PatternRecord) (int, error) {
	f.pattern = records
	return len(records), nil
}

type appSuite struct {
	suite.Suite
	client *mocks.Client
	out    *bytes.Buffer
	app    app
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(appSuite))
}

func (s *appSuite) SetupTest() {
	s.client = &mocks.Client{}
	s.out = &bytes.Buffer{}
	s.app = app{client: s.client, out: s.out, stdin: strings.NewReader(docArrayResponse)}
}

func defaultOptions() cliOptions {
	return cliOptions{Service: serviceTermite, Output: "json", RejectAmbiguous: true, Subsume: true}
}

func (s *appSuite) TestSavedResponseToCSV() {
	opts := defaultOptions()
	opts.Response = "-"
	opts.CSV = "-"

	s.Require().NoError(s.app.run(context.Background(), opts))

	rows, err := csv.NewReader(s.out).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal([]string{"docID", "entityType", "hitID", "name", "score", "realSynList", "totnosyns", "nonambigsyns", "frag_vector_array", "hitCount"}, rows[0])
	s.Equal([]string{"pmid1", "GENE", "CSF1", "CSF1", "4", `["csf1"]`, "2", "2", `["1#0#4"]`, "3"}, rows[1])
	s.Equal("D001943", rows[2][2])
	s.client.AssertNotCalled(s.T(), "Execute", mock.Anything, mock.Anything)
}

func (s *appSuite) TestAnnotateAndAggregate() {
	var sent http_recogniser.Request
	s.client.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(http_recogniser.Request) }).
		Return(&http_recogniser.Response{Output: "doc.jsonx", Body: []byte(docArrayResponse)}, nil)

	exp := &fakeExporter{}
	s.app.exporter = exp

	opts := defaultOptions()
	opts.Text = "CSF1 in breast cancer"
	opts.Entities = "GENE,INDICATION"
	opts.Output = "doc.jsonx"
	opts.Aggregate = true
	opts.KeepSubsumed = true
	opts.EntityTypes = "GENE"

	s.Require().NoError(s.app.run(context.Background(), opts))

	payload := sent.Payload()
	s.Equal("CSF1 in breast cancer", payload.Get("text"))
	s.Equal("GENE,INDICATION", payload.Get("entities"))
	s.Equal("doc.jsonx", payload.Get("output"))
	s.Equal("true", payload.Get("subsume"))
	s.Equal("rejectAmbig=true", payload.Get("opts"))

	s.JSONEq(`{"GENE$CSF1": {"id": "CSF1", "type": "GENE", "name": "CSF1", "hit_count": 4, "max_relevance_score": 4,
		"doc_id": ["pmid1", "pmid2"], "doc_count": 2}}`, s.out.String())
	s.Require().NotNil(exp.agg)
	s.Equal([]string{"GENE$CSF1"}, exp.agg.Keys())
}

func (s *appSuite) TestTopHits() {
	opts := defaultOptions()
	opts.Response = "-"
	opts.Top = 1
	opts.Columns = []string{"hitID", "hitCount"}
	opts.CSV = "-"

	s.Require().NoError(s.app.run(context.Background(), opts))
	s.Equal("hitID,hitCount\nCSF1,3\n", s.out.String())
}

func (s *appSuite) TestFrequency() {
	opts := defaultOptions()
	opts.Response = "-"
	opts.Frequency = true
	opts.KeepSubsumed = true
	opts.CSV = "-"

	s.Require().NoError(s.app.run(context.Background(), opts))
	s.Equal("entity,documents\nGENE$CSF1,2\nINDICATION$D001943,1\n", s.out.String())
}

func (s *appSuite) TestRenderedTable() {
	opts := defaultOptions()
	opts.Response = "-"
	opts.Top = 5
	opts.Columns = []string{"hitID"}

	s.Require().NoError(s.app.run(context.Background(), opts))
	s.Contains(s.out.String(), "hitID")
	s.Contains(s.out.String(), "D001943")
}

func (s *appSuite) TestCSVFile() {
	path := filepath.Join(s.T().TempDir(), "hits.csv")
	opts := defaultOptions()
	opts.Response = "-"
	opts.CSV = path

	s.Require().NoError(s.app.run(context.Background(), opts))
	b, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(b), "docID,entityType"))
	s.Empty(s.out.String())
}

func (s *appSuite) TestMissingColumn() {
	opts := defaultOptions()
	opts.Response = "-"
	opts.Columns = []string{"kvp"}

	s.Error(s.app.run(context.Background(), opts))
}

func (s *appSuite) TestNonJSONOutputIsPassedThrough() {
	s.client.On("Execute", mock.Anything, mock.Anything).
		Return(&http_recogniser.Response{Output: "tsv", Body: []byte("a\tb\n")}, nil)

	opts := defaultOptions()
	opts.Text = "a"
	opts.Output = "tsv"
	s.Require().NoError(s.app.run(context.Background(), opts))
	s.Equal("a\tb\n", s.out.String())
}

func (s *appSuite) TestTexpress() {
	var sent http_recogniser.Request
	s.client.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(http_recogniser.Request) }).
		Return(&http_recogniser.Response{Output: "json", Body: []byte(`{"RESP_TEXPRESS": {"doc1": {"p": [{
			"entityNames": {"GENE$CSF1": "CSF1"},
			"matches": [{"pattern_id": "p", "conf": 1, "subsumed": false, "originalFragment": "CSF1", "matchEntities": ["GENE$CSF1"]}]
		}]}}}`)}, nil)

	opts := defaultOptions()
	opts.Service = serviceTexpress
	opts.Text = "CSF1"
	opts.Pattern = ":(GENE)"
	opts.Aggregate = true

	s.Require().NoError(s.app.run(context.Background(), opts))
	s.Equal("texpress", sent.Payload().Get("method"))
	s.Equal(":(GENE)", sent.Payload().Get("pattern"))
	s.JSONEq(`{"p": [{"doc_id": "doc1", "entities": ["GENE$CSF1#CSF1"], "original_fragment": "CSF1", "conf": 1}]}`, s.out.String())
}

func (s *appSuite) TestInputValidation() {
	tests := []struct {
		name string
		opts func(o *cliOptions)
	}{
		{name: "no input", opts: func(o *cliOptions) {}},
		{name: "two inputs", opts: func(o *cliOptions) { o.Text = "a"; o.HTML = "a.html" }},
		{name: "unknown service", opts: func(o *cliOptions) { o.Text = "a"; o.Service = "leadmine" }},
		{name: "bad describe", opts: func(o *cliOptions) { o.Describe = "GENE" }},
	}
	for _, tt := range tests {
		s.T().Log(tt.name)
		opts := defaultOptions()
		tt.opts(&opts)
		s.Error(s.app.run(context.Background(), opts), tt.name)
	}
	s.client.AssertNotCalled(s.T(), "Execute", mock.Anything, mock.Anything)
}

func (s *appSuite) TestDescribe() {
	s.client.On("GetEntityDetails", mock.Anything, "INDICATION", "D001943").
		Return(&termite.EntityDetails{ID: "D001943", Type: "INDICATION", Name: "Breast Neoplasms", Mappings: [][]string{}}, nil)

	opts := defaultOptions()
	opts.Describe = "INDICATION:D001943"
	s.Require().NoError(s.app.run(context.Background(), opts))

	var details termite.EntityDetails
	s.Require().NoError(json.Unmarshal(s.out.Bytes(), &details))
	s.Equal("Breast Neoplasms", details.Name)
}

func (s *appSuite) TestNoTermite() {
	s.app.client = nil
	opts := defaultOptions()
	opts.Text = "a"
	s.ErrorIs(s.app.run(context.Background(), opts), errNoTermite)

	// saved responses don't need TERMite
	opts = defaultOptions()
	opts.Response = "-"
	opts.JSON = true
	s.Require().NoError(s.app.run(context.Background(), opts))

	var records []annotation.Record
	s.Require().NoError(json.Unmarshal(s.out.Bytes(), &records))
	s.Len(records, 2)
}
