package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/config"
	"github.com/influenceops/creatorscout/internal/profile"
	"github.com/influenceops/creatorscout/internal/recommend"
)

type fakeRecommender struct {
	recs      []recommend.Recommendation
	err       error
	lastBrief string
	lastTopN  int
	calls     int
}

func (f *fakeRecommender) Recommend(_ context.Context, briefText string, topN int) ([]recommend.Recommendation, error) {
	f.calls++
	f.lastBrief = briefText
	f.lastTopN = topN
	return f.recs, f.err
}

func (f *fakeRecommender) DefaultTopN() int { return 5 }

func newTestServer(rec *fakeRecommender, cfg config.Config) *Server {
	return NewServer(rec, cfg, zap.NewNop())
}

func TestRecommendReturnsShapedResults(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{recs: []recommend.Recommendation{
		{ID: "UC-a", Title: "A", Subscribers: profile.Int64Ptr(9000)},
		{ID: "IG:rider", Title: "rider", Subscribers: nil},
	}}
	server := newTestServer(rec, config.Config{})

	body := bytes.NewBufferString(`{"brief_text":"cycling vlog, at least 5k subscribers","top_n":2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", body)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "cycling vlog, at least 5k subscribers", rec.lastBrief)
	require.Equal(t, 2, rec.lastTopN)
	require.JSONEq(t, `{"recommendations":[
		{"id":"UC-a","title":"A","subs":9000},
		{"id":"IG:rider","title":"rider","subs":null}
	]}`, w.Body.String())
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecommendDefaultsTopN(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{}
	server := newTestServer(rec, config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(`{"brief_text":"cycling"}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 5, rec.lastTopN)
}

func TestRecommendExplicitZeroTopN(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{recs: []recommend.Recommendation{}}
	server := newTestServer(rec, config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(`{"brief_text":"cycling","top_n":0}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, rec.lastTopN)
	require.JSONEq(t, `{"recommendations":[]}`, w.Body.String())
}

func TestRecommendInvalidJSON(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRecommender{}, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString("{invalid"))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendMissingBrief(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{}
	server := newTestServer(rec, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(`{"top_n":3}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "brief_text required")
	require.Zero(t, rec.calls)
}

func TestRecommendDiscoveryFailureMapsToBadGateway(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{err: errors.New("live discovery: quota exhausted")}
	server := newTestServer(rec, config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(`{"brief_text":"cycling"}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAPIKeyGate(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Auth: config.AuthConfig{Enabled: true, APIKey: "secret"}}
	server := newTestServer(&fakeRecommender{}, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(`{"brief_text":"x"}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(`{"brief_text":"x"}`))
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Health endpoints stay open.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRecommender{}, config.Config{})
	req := httptest.NewRequest(http.MethodOptions, "/api/recommend", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRecommender{}, config.Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
	}
}
