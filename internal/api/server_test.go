package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/leapc/internal/engine"
	"github.com/leapstack-labs/leapc/internal/state"
	"github.com/leapstack-labs/leapc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func newTestEngine(t *testing.T, files map[string]string) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	e, err := engine.New(engine.Config{
		SourceDir: dir,
		StatePath: ":memory:",
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// Tokenizer
// =============================================================================

func TestHealth(t *testing.T) {
	s := NewServer(Config{Version: "1.2.3"})

	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.False(t, health.History)
}

func TestTokenize(t *testing.T) {
	s := NewServer(Config{Logger: testutil.NewTestLogger(t)})

	rec := do(t, s.Handler(), http.MethodPost, "/api/tokenize", `{"source": "x = x + 1\n"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[TokenizeResponse](t, rec)
	kinds := make([]string, len(resp.Tokens))
	for i, tok := range resp.Tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []string{"Ident", "=", "Ident", "+", "IntLit"}, kinds)
	assert.Equal(t, "1", resp.Tokens[4].Text)
	assert.Equal(t, uint32(8), resp.Tokens[4].Start)
	assert.Equal(t, 9, resp.Tokens[4].Column)
	assert.Equal(t, []string{"x"}, resp.Names)
	assert.NotNil(t, resp.Errors)
	assert.Empty(t, resp.Errors)
	assert.NotEmpty(t, resp.Hash)
}

func TestTokenize_ReportsErrors(t *testing.T) {
	s := NewServer(Config{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/tokenize", `{"source": "x = 1\ny = @\n"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TokenizeResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, LexError{
		Code:    "UnexpectedChar",
		Message: resp.Errors[0].Message,
		Start:   10,
		End:     11,
		Line:    2,
		Column:  5,
	}, resp.Errors[0])
	assert.Contains(t, resp.Errors[0].Message, "unexpected character")
}

func TestTokenize_Options(t *testing.T) {
	s := NewServer(Config{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/tokenize",
		`{"source": "e\u0301 = \u00e9\n", "normalize": true, "layout": true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TokenizeResponse](t, rec)
	assert.Equal(t, []string{"\u00e9"}, resp.Names, "both spellings intern to one name")
	assert.Equal(t, "Eof", resp.Tokens[len(resp.Tokens)-1].Kind)
}

func TestTokenize_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
	}{
		{"malformed json", "application/json", `{"source":`, http.StatusBadRequest, "invalid request"},
		{"unknown field", "application/json", `{"src": "x"}`, http.StatusBadRequest, "unknown field"},
		{"empty body", "application/json", ``, http.StatusBadRequest, "empty"},
		{"wrong content type", "text/plain", `{"source": "x"}`, http.StatusUnsupportedMediaType, ""},
		{"too large", "application/json", `{"source": "` + strings.Repeat("x", 64) + `"}`, http.StatusRequestEntityTooLarge, "exceeds 32 bytes"},
	}

	s := NewServer(Config{MaxBodyBytes: 32})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tokenize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()

			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Contains(t, decode[ErrorResponse](t, rec).Error, tt.wantError)
			}
		})
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewServer(Config{}).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/tokenize", "").Code)
}

// =============================================================================
// Checks and history
// =============================================================================

func TestHistoryDisabled(t *testing.T) {
	h := NewServer(Config{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "run history is disabled", decode[ErrorResponse](t, rec).Error)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/check", "").Code)
}

func TestCheckAndRuns(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		"a.leap": "x = 1\n",
		"b.leap": "y = @\n",
	})
	s := NewServer(Config{Engine: e, Logger: testutil.NewTestLogger(t)})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/check", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	check := decode[CheckResponse](t, rec)
	assert.Equal(t, state.RunStatusFailed, check.Status)
	assert.Equal(t, 2, check.Totals.Files)
	require.Len(t, check.Errors, 1)
	assert.Equal(t, FileError{
		Path:    "b.leap",
		Code:    "UnexpectedChar",
		Message: check.Errors[0].Message,
		Line:    1,
		Column:  5,
	}, check.Errors[0])
	require.NotEmpty(t, check.RunID)

	rec = do(t, h, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]state.Run](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, check.RunID, runs[0].ID)

	rec = do(t, h, http.MethodGet, "/api/runs/"+check.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[RunDetail](t, rec)
	assert.Equal(t, state.RunStatusFailed, detail.Run.Status)
	require.Len(t, detail.Files, 2)
	assert.Equal(t, "a.leap", detail.Files[0].Path)

	rec = do(t, h, http.MethodPost, "/api/check?changed=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a.leap"}, decode[CheckResponse](t, rec).Skipped)
}

func TestRuns_Errors(t *testing.T) {
	e := newTestEngine(t, nil)
	h := NewServer(Config{Engine: e}).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/runs?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/runs?limit=0", "").Code)

	rec := do(t, h, http.MethodGet, "/api/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// =============================================================================
// Streaming and lifecycle
// =============================================================================

func readEvent(t *testing.T, r *bufio.Reader) (string, Event) {
	t.Helper()
	var name string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var ev Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
			return name, ev
		}
	}
}

func TestEvents(t *testing.T) {
	e := newTestEngine(t, map[string]string{"a.leap": "x = 1\n"})
	s := NewServer(Config{Engine: e})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	r := bufio.NewReader(resp.Body)
	require.Eventually(t, func() bool { return s.Notifier().Len() == 1 }, time.Second, 10*time.Millisecond)

	check, err := http.Post(ts.URL+"/api/check", "application/json", nil)
	require.NoError(t, err)
	_ = check.Body.Close()

	name, ev := readEvent(t, r)
	assert.Equal(t, "check", name)
	assert.Equal(t, state.RunStatusPassed, ev.Status)
	assert.Equal(t, []string{"a.leap"}, ev.Paths)
	assert.NotEmpty(t, ev.RunID)
}

func TestServeListener_Shutdown(t *testing.T) {
	s := NewServer(Config{Logger: testutil.NewTestLogger(t)})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeListener_WatchBroadcastsChecks(t *testing.T) {
	e := newTestEngine(t, map[string]string{"a.leap": "x = 1\n"})
	s := NewServer(Config{Engine: e, Watch: true, Logger: testutil.NewTestLogger(t)})
	ch := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(ch)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()
	defer func() {
		cancel()
		<-done
	}()

	target := filepath.Join(e.SourceDir(), "b.leap")
	var got Event
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is up and reports the change.
		_ = os.WriteFile(target, []byte("y = @\n"), 0o600)
		select {
		case got = <-ch:
			return true
		case <-time.After(150 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"b.leap"}, got.Paths)
	assert.Equal(t, state.RunStatusFailed, got.Status)
	assert.Equal(t, 1, got.Errors)
}
