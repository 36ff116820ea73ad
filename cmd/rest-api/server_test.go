package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	mocks "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/gen/mocks/lib/recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/blocklist"
	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/table"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

const multiDocResponse = `{"RESP_MULTIDOC_PAYLOAD": {
	"doc1": {"GENE": [
		{"hitID": "A", "entityType": "GENE", "name": "gene a", "score": 3, "nonambigsyns": 1, "hitCount": 2,
		 "realSynList": ["a"], "totnosyns": 1, "frag_vector_array": ["1#0#1"], "subsume": [false]}
	]},
	"doc2": {"GENE": [
		{"hitID": "A", "entityType": "GENE", "name": "gene a", "score": 5, "nonambigsyns": 1, "hitCount": 1,
		 "realSynList": ["a"], "totnosyns": 1, "frag_vector_array": ["1#0#1"], "subsume": [false]},
		{"hitID": "B", "entityType": "GENE", "name": "gene b", "score": 1, "nonambigsyns": 0, "hitCount": 7,
		 "realSynList": ["b"], "totnosyns": 1, "frag_vector_array": ["1#0#1"], "subsume": [false]}
	],
	"DRUG": [
		{"hitID": "C", "entityType": "DRUG", "name": "drug c", "score": 2, "nonambigsyns": 2, "hitCount": 4,
		 "realSynList": ["c"], "totnosyns": 1, "frag_vector_array": ["1#0#1"], "subsume": [false]}
	]}
}}`

const texpressResponse = `{"RESP_TEXPRESS": {"doc1": {"biomarker": [{
	"entityNames": {"GENE$A": "gene a"},
	"matches": [{"pattern_id": "biomarker", "conf": 2, "subsumed": false, "originalFragment": "gene a", "matchEntities": ["GENE$A"]}]
}]}}}`

type serverSuite struct {
	suite.Suite
	client *mocks.Client
	router *gin.Engine
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(serverSuite))
}

func (s *serverSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.client = &mocks.Client{}
	s.router = gin.New()
	server{controller: controller{client: s.client}}.RegisterRoutes(s.router)
}

func (s *serverSuite) do(method, url, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *serverSuite) TestEntities() {
	tests := []struct {
		name     string
		url      string
		expected []string
	}{
		{name: "defaults reject ambiguous hits", url: "/entities", expected: []string{"GENE$A", "GENE$A", "DRUG$C"}},
		{name: "ambiguous hits kept", url: "/entities?reject_ambiguous=false", expected: []string{"GENE$A", "GENE$A", "GENE$B", "DRUG$C"}},
		{name: "score cutoff", url: "/entities?score_cutoff=3", expected: []string{"GENE$A", "GENE$A"}},
	}
	for _, tt := range tests {
		s.T().Log(tt.name)
		w := s.do(http.MethodPost, tt.url, "application/json", multiDocResponse)
		s.Require().Equal(http.StatusOK, w.Code, tt.name)

		var records []annotation.Record
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &records))
		var keys []string
		for _, r := range records {
			keys = append(keys, r.Key())
		}
		s.Equal(tt.expected, keys, tt.name)
	}
}

func (s *serverSuite) TestAggregate() {
	w := s.do(http.MethodPost, "/entities/aggregate?entity_types=GENE", "application/json", multiDocResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"GENE$A": {"id": "A", "type": "GENE", "name": "gene a", "hit_count": 3, "max_relevance_score": 5,
		"doc_id": ["doc1", "doc2"], "doc_count": 2}}`, w.Body.String())
}

func (s *serverSuite) TestAggregateWithBlocklist() {
	s.router = gin.New()
	server{controller: controller{blocklist: &blocklist.Blocklist{
		CaseInsensitive: map[string]bool{"gene a": true},
	}}}.RegisterRoutes(s.router)

	w := s.do(http.MethodPost, "/entities/aggregate", "application/json", multiDocResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"DRUG$C": {"id": "C", "type": "DRUG", "name": "drug c", "hit_count": 4, "max_relevance_score": 2,
		"doc_id": ["doc2"], "doc_count": 1}}`, w.Body.String())
}

func (s *serverSuite) TestTable() {
	w := s.do(http.MethodPost, "/entities/table", "application/json", multiDocResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	var t table.Table
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &t))
	s.Equal(table.DefaultColumns, t.Columns)
	s.Len(t.Rows, 3)

	w = s.do(http.MethodPost, "/entities/table?columns=dictSynList", "application/json", multiDocResponse)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "dictSynList")
}

func (s *serverSuite) TestTop() {
	w := s.do(http.MethodPost, "/entities/top?top=2&columns=hitID&columns=hitCount&reject_ambiguous=false", "application/json", multiDocResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"columns": ["hitID", "hitCount"], "rows": [["B", 7], ["C", 4]]}`, w.Body.String())

	w = s.do(http.MethodPost, "/entities/top?top=many", "application/json", multiDocResponse)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *serverSuite) TestPatterns() {
	w := s.do(http.MethodPost, "/patterns/hits", "application/json", texpressResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"biomarker": [{"doc_id": "doc1", "entities": ["GENE$A#gene a"], "original_fragment": "gene a", "conf": 2}]}`, w.Body.String())

	w = s.do(http.MethodPost, "/patterns/table", "application/json", texpressResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"columns": ["docID", "pattern_id", "conf", "originalFragment", "matchEntities"],
		"rows": [["doc1", "biomarker", 2, "gene a", ["GENE$A"]]]}`, w.Body.String())

	w = s.do(http.MethodPost, "/patterns?score_cutoff=3", "application/json", texpressResponse)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *serverSuite) TestBadBodies() {
	tests := []struct {
		name string
		url  string
		body string
		code int
	}{
		{name: "empty body", url: "/entities", body: "", code: http.StatusBadRequest},
		{name: "not json", url: "/entities", body: "<xml/>", code: http.StatusUnprocessableEntity},
		{name: "broken json", url: "/entities", body: `{"RESP_PAYLOAD": `, code: http.StatusBadRequest},
		{name: "unrecognised entity shape", url: "/entities", body: `{"something": {}}`, code: http.StatusUnprocessableEntity},
		{name: "entity response posted as patterns", url: "/patterns", body: multiDocResponse, code: http.StatusUnprocessableEntity},
		{name: "bad option", url: "/entities?keep_subsumed=maybe", body: multiDocResponse, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.T().Log(tt.name)
		w := s.do(http.MethodPost, tt.url, "application/json", tt.body)
		s.Equal(tt.code, w.Code, tt.name)
	}
}

func (s *serverSuite) TestAnnotate() {
	var sent http_recogniser.Request
	s.client.On("Execute", mock.Anything, mock.AnythingOfType("*http_recogniser.TermiteRequest")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(http_recogniser.Request) }).
		Return(&http_recogniser.Response{Output: "json", Body: []byte(multiDocResponse)}, nil)

	w := s.do(http.MethodPost, "/annotate?entities=GENE&score_cutoff=4", contentTypeHTML, "<p>gene <b>a</b></p><script>x</script>")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var records []annotation.Record
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &records))
	s.Require().Len(records, 1)
	s.Equal("doc2", records[0].DocID)

	payload := sent.Payload()
	s.Equal("gene a", payload.Get("text"))
	s.Equal("entities=GENE&rejectAmbig=true", payload.Get("opts"))

	w = s.do(http.MethodPost, "/annotate", "application/pdf", "%PDF")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *serverSuite) TestAnnotateTermiteDown() {
	s.client.On("Execute", mock.Anything, mock.Anything).
		Return(nil, &http_recogniser.StatusError{Code: http.StatusInternalServerError, Body: "boom"})

	w := s.do(http.MethodPost, "/annotate", contentTypeText, "gene a")
	s.Equal(http.StatusBadGateway, w.Code)
}

func (s *serverSuite) TestWithoutTermite() {
	s.router = gin.New()
	server{controller: controller{}}.RegisterRoutes(s.router)

	w := s.do(http.MethodGet, "/entity/GENE/A", "", "")
	s.Equal(http.StatusServiceUnavailable, w.Code)

	// posted responses are still normalized
	w = s.do(http.MethodPost, "/entities", "application/json", multiDocResponse)
	s.Equal(http.StatusOK, w.Code)
}

func (s *serverSuite) TestEntityDetails() {
	s.client.On("GetEntityDetails", mock.Anything, "GENE", "A").
		Return(&termite.EntityDetails{ID: "A", Type: "GENE", Name: "gene a", Mappings: [][]string{{"HGNC", "1"}}}, nil)
	s.client.On("GetEntityDetails", mock.Anything, "GENE", "NOPE").
		Return(&termite.EntityDetails{ID: "NOPE", Type: "GENE", Mappings: [][]string{}}, nil)

	w := s.do(http.MethodGet, "/entity/GENE/A", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"id": "A", "type": "GENE", "name": "gene a", "mappings": [["HGNC", "1"]]}`, w.Body.String())

	w = s.do(http.MethodGet, "/entity/GENE/NOPE", "", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *serverSuite) TestAutocomplete() {
	s.client.On("Autocomplete", mock.Anything, "bre", "INDICATION", "").
		Return(json.RawMessage(`[{"id": "D001943"}]`), nil)
	s.client.On("Autocomplete", mock.Anything, "br", "INDICATION", "").
		Return(nil, http_recogniser.ErrInputTooShort)
	s.client.On("Autocomplete", mock.Anything, "err", "INDICATION", "").
		Return(nil, errors.New("connection refused"))

	w := s.do(http.MethodGet, "/autocomplete?term=bre&vocab=INDICATION", "", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[{"id": "D001943"}]`, w.Body.String())

	w = s.do(http.MethodGet, "/autocomplete?term=br&vocab=INDICATION", "", "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/autocomplete?term=err&vocab=INDICATION", "", "")
	s.Equal(http.StatusInternalServerError, w.Code)

	w = s.do(http.MethodGet, "/autocomplete", "", "")
	s.Equal(http.StatusBadRequest, w.Code)
}
