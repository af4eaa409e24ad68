package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/engine"
	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/model"
	"github.com/AlosedAG/market-creation/internal/scraper"
	"github.com/AlosedAG/market-creation/internal/service"
	"github.com/AlosedAG/market-creation/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLandscape struct {
	taxonomy       model.MarketTaxonomy
	taxonomyErr    error
	competitors    []model.CompetitorRecord
	gotDivisions   []string
	competitorRuns int
}

func (f *fakeLandscape) BuildTaxonomy(_ context.Context, _ string) (model.MarketTaxonomy, error) {
	return f.taxonomy, f.taxonomyErr
}

func (f *fakeLandscape) FindCompetitors(_ context.Context, _ string, divisions []string) ([]model.CompetitorRecord, error) {
	f.competitorRuns++
	f.gotDivisions = divisions
	return f.competitors, nil
}

type fakeUpdater struct {
	product model.ProductRecord
	err     error
}

func (f *fakeUpdater) UpdateCompany(_ context.Context, _ string, _ []string) (model.ProductRecord, error) {
	return f.product, f.err
}

func newResearchRouter(l Landscape, u CompanyUpdater) *gin.Engine {
	h := NewResearchHandler(l, u, 65*time.Second)
	r := gin.New()
	r.POST("/markets", h.CreateMarket)
	r.POST("/competitors", h.FindCompetitors)
	r.POST("/products", h.ExtractProduct)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateMarket(t *testing.T) {
	l := &fakeLandscape{
		taxonomy:    model.MarketTaxonomy{MarketName: "Chatbots", Divisions: []string{"SMS", "Voice"}},
		competitors: []model.CompetitorRecord{{CompanyName: "Acme"}},
	}
	r := newResearchRouter(l, &fakeUpdater{})

	w := postJSON(r, "/markets", `{"topic": "Chatbots"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp marketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"SMS", "Voice"}, resp.Taxonomy.Divisions)
	assert.Empty(t, resp.Competitors)
	assert.Zero(t, l.competitorRuns)

	w = postJSON(r, "/markets", `{"topic": "Chatbots", "search": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Acme", resp.Competitors[0].CompanyName)
	assert.Equal(t, []string{"SMS", "Voice"}, l.gotDivisions, "search runs over the taxonomy divisions")
}

func TestCreateMarket_BadRequest(t *testing.T) {
	r := newResearchRouter(&fakeLandscape{}, &fakeUpdater{})

	for _, body := range []string{`{}`, `not json`, `{"topic": 3}`} {
		w := postJSON(r, "/markets", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestFindCompetitors_EmptyIsOK(t *testing.T) {
	r := newResearchRouter(&fakeLandscape{competitors: []model.CompetitorRecord{}}, &fakeUpdater{})

	w := postJSON(r, "/competitors", `{"topic": "Chatbots", "divisions": ["SMS"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"competitors": []}`, w.Body.String())
}

func TestExtractProduct(t *testing.T) {
	r := newResearchRouter(&fakeLandscape{}, &fakeUpdater{product: model.ProductRecord{CompanyName: "Acme"}})

	w := postJSON(r, "/products", `{"url": "https://acme.example", "features": ["SSO"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"company_name":"Acme"`)
	assert.Contains(t, w.Body.String(), `"case_study_desc":null`)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		retryAfter string
	}{
		{"invalid input", fmt.Errorf("%w: url is required", service.ErrInvalidInput), http.StatusBadRequest, ""},
		{"exhausted", fmt.Errorf("extracting: %w after 15 attempts", engine.ErrExhaustedRetries), http.StatusServiceUnavailable, "65"},
		{"unreachable", fmt.Errorf("%w: https://acme.example: HTTP 404", scraper.ErrSiteUnreachable), http.StatusBadGateway, ""},
		{"malformed", fmt.Errorf("extracting: %w: unexpected end", engine.ErrMalformedResponse), http.StatusBadGateway, ""},
		{"fatal provider", &llm.ProviderError{Provider: "gemini", Kind: llm.KindFatal, StatusCode: 400, Err: errors.New("bad key")}, http.StatusBadGateway, ""},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResearchRouter(&fakeLandscape{}, &fakeUpdater{err: tt.err})

			w := postJSON(r, "/products", `{"url": "https://acme.example"}`)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			assert.NotContains(t, w.Body.String(), "bad key", "provider details stay server-side")
		})
	}
}

func TestAdminHandler(t *testing.T) {
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := storage.NewLLMCallRepository(db)

	for i, task := range []string{model.TaskAnalyzeMarket, model.TaskSearch, model.TaskSearch} {
		require.NoError(t, repo.Create(context.Background(), &model.LLMCall{
			RunID:     fmt.Sprintf("run-%d", i),
			Task:      task,
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			Attempts:  1,
			Success:   true,
			CreatedAt: time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC),
		}))
	}

	h := NewAdminHandler(repo, zap.NewNop())
	r := gin.New()
	r.GET("/stats", h.Stats)
	r.GET("/calls", h.Calls)
	r.GET("/calls/:run_id", h.Call)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total int64                 `json:"total"`
		Tasks []storage.TaskSummary `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats.Total)
	require.Len(t, stats.Tasks, 2)

	w = get("/calls?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-2")
	assert.NotContains(t, w.Body.String(), "run-0")

	assert.Equal(t, http.StatusBadRequest, get("/calls?limit=zero").Code)
	assert.Equal(t, http.StatusOK, get("/calls/run-0").Code)
	assert.Equal(t, http.StatusNotFound, get("/calls/nope").Code)
}

func TestAdminHandler_AuditDisabled(t *testing.T) {
	h := NewAdminHandler(nil, zap.NewNop())
	r := gin.New()
	r.GET("/stats", h.Stats)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", NewHealthHandler("gemini", "gemini-2.5-flash-lite").Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"market-creation","provider":"gemini","model":"gemini-2.5-flash-lite"}`, w.Body.String())
}
