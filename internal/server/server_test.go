package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncls-p/teapot-facts/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubChecker records the last call and returns a canned result.
type stubChecker struct {
	lastQuery     string
	lastContext   string
	lastDocuments []domain.Document
	result        domain.VerificationResult
}

func (s *stubChecker) CheckFact(_ context.Context, query, contextText string, documents []domain.Document) domain.VerificationResult {
	s.lastQuery = query
	s.lastContext = contextText
	s.lastDocuments = documents
	return s.result
}

// stubExtractor records the last call and returns a canned result.
type stubExtractor struct {
	lastSchema    domain.ExtractionSchema
	lastQuery     string
	lastContext   string
	lastDocuments []domain.Document
	result        domain.ExtractionResult
}

func (s *stubExtractor) Extract(_ context.Context, schema domain.ExtractionSchema, query, contextText string, documents []domain.Document) domain.ExtractionResult {
	s.lastSchema = schema
	s.lastQuery = query
	s.lastContext = contextText
	s.lastDocuments = documents
	return s.result
}

// stubStore is an in-memory DocumentStore.
type stubStore struct {
	documents []domain.Document
}

func (s *stubStore) IndexDocuments(documents []domain.Document) int {
	s.documents = append(s.documents, documents...)
	return len(s.documents)
}

func (s *stubStore) StoredDocuments() []domain.Document { return s.documents }

func (s *stubStore) ClearDocuments() int {
	removed := len(s.documents)
	s.documents = nil
	return removed
}

func okResult() domain.VerificationResult {
	return domain.VerificationResult{
		Factual:    true,
		Answer:     "The Eiffel Tower is 330 meters tall.",
		Confidence: 0.9,
		Sources:    []domain.SourceEntry{{Text: "The Eiffel Tower is 330 meters tall.", Metadata: map[string]any{}}},
	}
}

type testServer struct {
	router    *gin.Engine
	checker   *stubChecker
	extractor *stubExtractor
	store     *stubStore
}

func newTestServer() *testServer {
	checker := &stubChecker{result: okResult()}
	extractor := &stubExtractor{result: domain.ExtractionResult{Success: true, Data: map[string]any{"city": "Paris"}}}
	store := &stubStore{}
	srv := NewServer(checker, extractor, store, nil, Options{AllowedOrigins: []string{"*"}})
	return &testServer{
		router:    srv.Router(),
		checker:   checker,
		extractor: extractor,
		store:     store,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "teapot-llm", body["model"])
}

func TestFactCheck(t *testing.T) {
	t.Run("full request reaches the checker", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/fact-check", gin.H{
			"query":   "How tall is the Eiffel Tower?",
			"context": "The Eiffel Tower is 330 meters tall.",
			"documents": []gin.H{
				{"content": "doc one", "metadata": gin.H{"source": "a"}},
			},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "How tall is the Eiffel Tower?", ts.checker.lastQuery)
		assert.Equal(t, "The Eiffel Tower is 330 meters tall.", ts.checker.lastContext)
		require.Len(t, ts.checker.lastDocuments, 1)
		assert.Equal(t, "doc one", ts.checker.lastDocuments[0].Content)
		assert.Equal(t, map[string]any{"source": "a"}, ts.checker.lastDocuments[0].Metadata)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["factual"])
		assert.Equal(t, 0.9, body["confidence"])
	})

	t.Run("empty query still returns 200", func(t *testing.T) {
		ts := newTestServer()
		ts.checker.result = domain.NewErrorResult("query cannot be empty")

		rec := ts.do(t, http.MethodPost, "/fact-check", gin.H{"query": ""})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["factual"])
		assert.Equal(t, "query cannot be empty", body["error"])
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		ts := newTestServer()
		req := httptest.NewRequest(http.MethodPost, "/fact-check", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExtract(t *testing.T) {
	t.Run("fields build the schema", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/extract", gin.H{
			"context": "The Eiffel Tower is in Paris.",
			"fields": []gin.H{
				{"name": "city", "type": "string", "description": "the city"},
				{"name": "height", "type": "number"},
			},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, ts.extractor.lastSchema.Fields, 2)
		assert.Equal(t, domain.TypeString, ts.extractor.lastSchema.Fields[0].Type)
		assert.Equal(t, "the city", ts.extractor.lastSchema.Fields[0].Description)
		assert.Equal(t, domain.TypeNumber, ts.extractor.lastSchema.Fields[1].Type)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
	})

	t.Run("unknown field type falls back to string", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/extract", gin.H{
			"context": "c",
			"fields":  []gin.H{{"name": "x", "type": "decimal"}},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.TypeString, ts.extractor.lastSchema.Fields[0].Type)
	})

	t.Run("missing fields is a binding error", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/extract", gin.H{"context": "c"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate field names produce an error result", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/extract", gin.H{
			"context": "c",
			"fields": []gin.H{
				{"name": "x", "type": "string"},
				{"name": "x", "type": "number"},
			},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "duplicate field name")
	})
}

func TestCORS(t *testing.T) {
	t.Run("wildcard origin", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		ts := newTestServer()
		req := httptest.NewRequest(http.MethodOptions, "/fact-check", nil)
		req.Header.Set("Origin", "https://example.com")
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("explicit origin list", func(t *testing.T) {
		checker := &stubChecker{result: okResult()}
		srv := NewServer(checker, &stubExtractor{}, nil, nil,
			Options{AllowedOrigins: []string{"https://allowed.example"}})
		router := srv.Router()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://allowed.example")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://other.example")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
