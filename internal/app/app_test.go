package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repairguide/internal/config"
	"repairguide/internal/platform/ratelimit"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig(baseURL string) config.Config {
	var c config.Config
	c.Env = "dev"
	c.Gemini.APIKey = "AIzaTEST"
	c.Gemini.BaseURL = baseURL
	c.Gemini.Model = "test-model"
	c.Gemini.MaxAttempts = 3
	c.Gemini.Timeout = 5 * time.Second
	c.HTTP.Addr = "127.0.0.1:0"
	return c
}

func TestBuild_EndToEnd(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Tools Required\n* jack"}]},
			"groundingMetadata":{"groundingAttributions":[{"web":{"uri":"https://a.example","title":"A"}},{"web":{"uri":"https://no-title.example"}}]}}]}`)
	}))
	defer gemini.Close()

	a, err := build(testConfig(gemini.URL), quiet())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/instructions",
		strings.NewReader(`{"year":"2015","make":"Honda","model":"Civic","part":"alternator"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"instructions":"Tools Required\n* jack","sources":[{"uri":"https://a.example","title":"A"}]}`, w.Body.String())
	require.Equal(t, "/models/test-model:generateContent", gotPath)
	require.Equal(t, "AIzaTEST", gotKey)
	require.Contains(t, gotBody, "systemInstruction")
	require.Equal(t, []any{map[string]any{"google_search": map[string]any{}}}, gotBody["tools"])
}

func TestBuild_UpstreamFailure(t *testing.T) {
	var calls int
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gemini.Close()

	a, err := build(testConfig(gemini.URL), quiet())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/instructions",
		strings.NewReader(`{"year":"2015","make":"Honda","model":"Civic","part":"alternator"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, 1, calls, "500 is not retried")
}

func TestBuild_TrustedProxies(t *testing.T) {
	c := testConfig("http://127.0.0.1:1")
	c.HTTP.TrustedProxies = []string{"proxy.local"}
	_, err := build(c, quiet())
	require.Error(t, err)

	c.HTTP.TrustedProxies = []string{"10.0.0.0/8"}
	_, err = build(c, quiet())
	require.NoError(t, err)
}

func TestBuild_PruneJobRegistered(t *testing.T) {
	a, err := build(testConfig("http://127.0.0.1:1"), quiet())
	require.NoError(t, err)

	a.limiter.Allow("old-client")
	require.Equal(t, 1, a.limiter.Len())

	// idle threshold not reached yet
	require.NoError(t, a.sched.Trigger("prune rate limiters"))
	require.Equal(t, 1, a.limiter.Len())

	require.NoError(t, a.sched.Stop(context.Background()))
}

func TestPruneJob(t *testing.T) {
	l := ratelimit.New(0)
	l.Allow("a")
	l.Allow("b")
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, pruneJob(l, time.Millisecond, quiet())(context.Background()))
	require.Zero(t, l.Len())
}
