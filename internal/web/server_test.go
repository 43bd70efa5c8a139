package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cognicore/kinship/pkg/kinship"
	"github.com/cognicore/kinship/pkg/kinship/config"
	"github.com/cognicore/kinship/pkg/kinship/factstore/simple"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T) *kinship.Engine {
	t.Helper()
	s := simple.New()
	require.NoError(t, s.LoadFacts(`
father_of(jacob, thabo).
male(jacob).
male(thabo).
brother_of(thabo, lerato).
`))
	e := kinship.New(kinship.Options{Store: s})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func unlimited() config.Server {
	cfg := config.Default().Server
	cfg.RatePerSecond = 0
	return cfg
}

func TestIndexGet(t *testing.T) {
	h := NewServer(newEngine(t), unlimited(), nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="question"`)
	assert.NotContains(t, rec.Body.String(), `class="answer"`)
}

func TestIndexPostRendersAnswer(t *testing.T) {
	h := NewServer(newEngine(t), unlimited(), nil).Handler()

	form := url.Values{"question": {"Who is Thabo's father?"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	// html/template escapes the apostrophe.
	assert.Contains(t, rec.Body.String(), "Ntate Jacob is Thabo&#39;s father.")
}

func TestIndexEscapesInput(t *testing.T) {
	h := NewServer(newEngine(t), unlimited(), nil).Handler()

	form := url.Values{"question": {"<script>alert(1)</script>"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "Sorry, I don&#39;t understand the question.")
}

func TestIndexRejectsOtherMethodsAndPaths(t *testing.T) {
	h := NewServer(newEngine(t), unlimited(), nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func decodeAsk(t *testing.T, rec *httptest.ResponseRecorder) askResponse {
	t.Helper()
	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAPIAsk(t *testing.T) {
	h := NewServer(newEngine(t), unlimited(), nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ask?q="+url.QueryEscape("Is Thabo a brother of Lerato?"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAsk(t, rec)
	assert.Equal(t, "Yes, Ntate Thabo is Lerato's brother.", resp.Answer)
	assert.Equal(t, "Is Thabo a brother of Lerato?", resp.Question)
	assert.Equal(t, rec.Header().Get("X-Request-Id"), resp.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"What time is it?"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, kinship.Fallback, decodeAsk(t, rec).Answer)
}

func TestAPIAskErrors(t *testing.T) {
	h := NewServer(newEngine(t), unlimited(), nil).Handler()

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"missing question", httptest.NewRequest(http.MethodGet, "/api/ask", nil), http.StatusBadRequest},
		{"bad json", httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{")), http.StatusBadRequest},
		{"bad method", httptest.NewRequest(http.MethodPut, "/api/ask", nil), http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default().Server
	cfg.RatePerSecond = 0.001
	cfg.Burst = 2
	h := NewServer(newEngine(t), cfg, nil).Handler()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ask?q=hello", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health checks are never limited.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := unlimited()
	cfg.MaxConns = 2
	srv := NewServer(newEngine(t), cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/ask?q=" + url.QueryEscape("who is thabo's father"))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ntate Jacob is Thabo's father.")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeReportsListenerErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	err = NewServer(newEngine(t), unlimited(), nil).Serve(context.Background(), ln)
	assert.Error(t, err)
}
