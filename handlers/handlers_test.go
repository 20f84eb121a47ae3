package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omeshsingh/bnsp/models"
	"github.com/omeshsingh/bnsp/repository"
	"github.com/omeshsingh/bnsp/service"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByNumber(ctx context.Context, number string) (*models.Section, error) {
	args := m.Called(ctx, number)
	if s, ok := args.Get(0).(*models.Section); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListAll(ctx context.Context) ([]models.Section, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).([]models.Section); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) ([]models.SectionMetadata, error) {
	args := m.Called(ctx, query)
	if d, ok := args.Get(0).([]models.SectionMetadata); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	router    *gin.Engine
	store     *mockStore
	retriever *mockRetriever
	generator *mockGenerator
}

func newTestServer(t *testing.T, deps map[string]Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	ts := &testServer{
		store:     &mockStore{},
		retriever: &mockRetriever{},
		generator: &mockGenerator{},
	}

	sections := service.NewSectionService(service.WithSectionStore(ts.store))
	analysis := service.NewAnalysisService(
		service.WithRetriever(ts.retriever),
		service.WithGenerator(ts.generator),
	)

	log := zap.NewNop()
	r := gin.New()
	r.Use(Recovery(log), RequestID(), RequestLogger(log))
	r.NoRoute(NoRoute)
	RegisterRoutes(r, NewSectionHandler(sections), NewAnalysisHandler(analysis), NewHealthHandler(deps))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	ts.router = r
	return ts
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rr)
	assert.Equal(t, false, body["success"])
	return body["error"].(map[string]any)["code"].(string)
}

func TestSuggestSections_EmptyKeywords(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodPost, "/suggest-sections", map[string]any{"keywords": []string{}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	ts.store.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestSuggestSections_Ranked(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.store.On("ListAll", mock.Anything).Return([]models.Section{
		{Number: "1", Title: "Theft", Text: "t", Keywords: []string{"theft", "robbery"}, CrimeCategory: "Property"},
		{Number: "2", Title: "Murder", Text: "m", Keywords: []string{"murder"}, CrimeCategory: "Body"},
	}, nil)

	rr := ts.do(http.MethodPost, "/suggest-sections", map[string]any{"keywords": []string{"theft", "fraud"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{
		"bns_section_number": "1",
		"bns_section_title": "Theft",
		"bns_section_text": "t",
		"keywords": ["theft", "robbery"],
		"crime_category": "Property",
		"match_count": 1
	}]`, rr.Body.String())
}

func TestSuggestSections_MissingKeywords(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodPost, "/suggest-sections", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidRequest, errorCode(t, rr))
}

func TestSuggestSections_MalformedJSON(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodPost, "/suggest-sections", `{"keywords": [`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSuggestSections_StoreFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.store.On("ListAll", mock.Anything).Return(nil, errors.New("db down"))

	rr := ts.do(http.MethodPost, "/suggest-sections", map[string]any{"keywords": []string{"theft"}})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeUpstreamError, errorCode(t, rr))
}

func TestGetSection_RoundTrip(t *testing.T) {
	ts := newTestServer(t, nil)
	section := &models.Section{
		Number:        "64(1)",
		Title:         "Punishment for rape",
		Text:          "Whoever...",
		Keywords:      []string{"rape"},
		CrimeCategory: "Sexual offences",
	}
	ts.store.On("GetByNumber", mock.Anything, "64(1)").Return(section, nil)

	rr := ts.do(http.MethodGet, "/sections/64(1)", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.Section
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, *section, got)
}

func TestGetSection_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.store.On("GetByNumber", mock.Anything, "unknown-id").Return(nil, repository.ErrSectionNotFound)

	rr := ts.do(http.MethodGet, "/sections/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	body := decode(t, rr)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, CodeSectionNotFound, errBody["code"])
	assert.Contains(t, errBody["message"], "unknown-id")
}

func TestGetSection_StoreFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.store.On("GetByNumber", mock.Anything, "303").Return(nil, errors.New("timeout"))

	rr := ts.do(http.MethodGet, "/sections/303", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAnalyseDescription(t *testing.T) {
	ts := newTestServer(t, nil)
	docs := []models.SectionMetadata{
		{Number: "303", Title: "Theft", CrimeCategory: "Property", PageContent: "Section 303: Theft. Details: x"},
	}
	ts.retriever.On("Retrieve", mock.Anything, "my bike was stolen").Return(docs, nil)
	ts.generator.On("Generate", mock.Anything, mock.Anything).Return("Section 303 applies.", nil)

	rr := ts.do(http.MethodPost, "/analyse-description", map[string]any{"description": "my bike was stolen"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"analysis": "Section 303 applies.",
		"suggested_sections": [
			{"bns_section_number": "303", "bns_section_title": "Theft", "crime_category": "Property"}
		]
	}`, rr.Body.String())
}

func TestAnalyseDescription_MissingDescription(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, body := range []any{map[string]any{}, map[string]any{"description": "  "}} {
		rr := ts.do(http.MethodPost, "/analyse-description", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "description is required")
	}
	ts.retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
}

func TestAnalyseDescription_GenerationFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.retriever.On("Retrieve", mock.Anything, mock.Anything).Return([]models.SectionMetadata{{Number: "303"}}, nil)
	ts.generator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("model overloaded"))

	rr := ts.do(http.MethodPost, "/analyse-description", map[string]any{"description": "assault"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	body := decode(t, rr)
	assert.NotContains(t, body, "analysis")
	assert.Contains(t, body["error"].(map[string]any)["message"], "model overloaded")
}

func TestConvertIPCToBNS(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return bytes.HasPrefix([]byte(p), []byte("What is the crime"))
	})).Return("Punishment for theft", nil).Once()
	ts.retriever.On("Retrieve", mock.Anything, "Punishment for theft").Return([]models.SectionMetadata{{Number: "303"}}, nil)
	ts.generator.On("Generate", mock.Anything, mock.Anything).Return("BNS 303(2)", nil).Once()

	rr := ts.do(http.MethodPost, "/convert-ipc-to-bns", map[string]any{"ipc_section": "379"})
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "BNS 303(2)", body["analysis"])
	assert.Len(t, body["suggested_sections"], 1)
	ts.generator.AssertNumberOfCalls(t, "Generate", 2)
}

func TestConvertIPCToBNS_MissingIPCSection(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodPost, "/convert-ipc-to-bns", map[string]any{"description": "theft"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "ipc_section is required")
}

func TestHealthAndReady(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	ts := newTestServer(t, map[string]Pinger{"postgres": ok})
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/ready", nil).Code)

	ts = newTestServer(t, map[string]Pinger{"postgres": ok, "redis": down})
	rr := ts.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestMiddleware_RequestIDAndRecovery(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternalError, errorCode(t, rr))
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
}

func TestNoRoute(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(http.MethodGet, "/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rr))
}
