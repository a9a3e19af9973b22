package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isitdown/internal/config"
	"isitdown/internal/models"
	"isitdown/internal/pipeline"
)

type stubChecker struct {
	mu      sync.Mutex
	targets []models.RawTarget
	ctxErr  error
}

func (s *stubChecker) Check(ctx context.Context, raw models.RawTarget) models.PipelineResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, raw)
	s.ctxErr = ctx.Err()
	code := 200
	return models.PipelineResult{Target: string(raw), Success: true, IsSiteUp: true, HTTPCode: &code}
}

func TestAPICreateCheck(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		stub := &stubChecker{}
		router := NewRouter(stub, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/v1/checks", bytes.NewBufferString(`{"target": "  example.com  "}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		var resp models.PipelineResult
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.IsSiteUp)
		assert.Equal(t, 200, *resp.HTTPCode)
		assert.Equal(t, []models.RawTarget{"example.com"}, stub.targets, "target is trimmed")
	})

	t.Run("form body", func(t *testing.T) {
		stub := &stubChecker{}
		router := NewRouter(stub, zerolog.Nop())

		form := url.Values{"target": {"https://example.org"}}
		req := httptest.NewRequest(http.MethodPost, "/v1/checks", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []models.RawTarget{"https://example.org"}, stub.targets)
	})

	t.Run("empty target returns 400", func(t *testing.T) {
		stub := &stubChecker{}
		router := NewRouter(stub, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/v1/checks", bytes.NewBufferString(`{"target": "   "}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), emptyTargetMessage)
		assert.Empty(t, stub.targets)
	})

	t.Run("malformed json returns 400", func(t *testing.T) {
		router := NewRouter(&stubChecker{}, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/v1/checks", bytes.NewBufferString(`{"target":`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("client cancellation does not reach the check", func(t *testing.T) {
		stub := &stubChecker{}
		router := NewRouter(stub, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodPost, "/v1/checks", bytes.NewBufferString(`{"target": "example.com"}`)).WithContext(ctx)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.NoError(t, stub.ctxErr)
	})

	t.Run("wrong method", func(t *testing.T) {
		router := NewRouter(&stubChecker{}, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/v1/checks", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestAPICreateCheck_RejectedTargetIsAStructuredResult(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.Backend = config.BackendNative
	p, err := pipeline.FromConfig(cfg, zerolog.Nop())
	require.NoError(t, err)
	router := NewRouter(p, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/checks", bytes.NewBufferString(`{"target": "example.com; rm -rf /"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Blocked keyword detected: rm", resp["error"])
	assert.Equal(t, "validation", resp["error_kind"])
	assert.Nil(t, resp["return_code"])
	assert.Nil(t, resp["http_code"])
	assert.Equal(t, "", resp["command"])
}

func TestAPIEndToEndWithNativeBackend(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.Probe.Backend = config.BackendNative
	cfg.Probe.MaxTime = 2 * time.Second
	cfg.Probe.Deadline = 3 * time.Second
	p, err := pipeline.FromConfig(cfg, zerolog.Nop())
	require.NoError(t, err)
	router := NewRouter(p, zerolog.Nop())

	body, _ := json.Marshal(map[string]string{"target": upstream.URL})
	req := httptest.NewRequest(http.MethodPost, "/v1/checks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.PipelineResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.IsSiteUp)
	assert.Equal(t, 503, *resp.HTTPCode)
	assert.Equal(t, 0, *resp.ReturnCode)
	assert.Contains(t, resp.Output, "Status: 503")
}

func TestAPIHealthz(t *testing.T) {
	router := NewRouter(&stubChecker{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp healthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestServerStartAndShutdown(t *testing.T) {
	server := NewServer("0", &stubChecker{}, zerolog.Nop())
	errCh := server.Start()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	for err := range errCh {
		t.Fatalf("unexpected server error: %v", err)
	}
}
