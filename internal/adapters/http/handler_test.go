package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/guideon/internal/adapters/http"
	"github.com/PabloGalante/guideon/internal/adapters/auth"
	"github.com/PabloGalante/guideon/internal/adapters/llm"
	"github.com/PabloGalante/guideon/internal/adapters/storage/memory"
	"github.com/PabloGalante/guideon/internal/app/conversation"
	"github.com/PabloGalante/guideon/internal/app/history"
	"github.com/PabloGalante/guideon/internal/app/rotation"
	"github.com/PabloGalante/guideon/internal/domain"
	"github.com/PabloGalante/guideon/internal/observability"
)

type tokenVerifier map[string]domain.UserID

func (v tokenVerifier) VerifyIDToken(_ context.Context, token string) (domain.UserID, error) {
	if uid, ok := v[token]; ok {
		return uid, nil
	}
	return "", auth.ErrUnauthenticated
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (l stubLimiter) Allow(context.Context, string) (bool, error) {
	return l.allowed, l.err
}

func newTestServer(t *testing.T, opts httpadapter.Options) http.Handler {
	t.Helper()

	content := memory.NewContentStore(
		domain.ThemedItem{ID: "q1", Kind: domain.KindQuote, Text: "This too shall pass", Themes: []string{"hope"}, Source: "Persian adage"},
		domain.ThemedItem{ID: "v1", Kind: domain.KindVerse, Text: "Be still", Themes: []string{"peace"}, Reference: "Psalm 46:10", Translation: "NIV"},
	)
	chats := memory.NewChatLogStore()

	svc := conversation.NewService(conversation.Deps{
		LLM:      llm.NewMockLLM(),
		Content:  content,
		Selector: rotation.NewSelector(memory.NewRotationStore(), nil),
		Recorder: history.NewRecorder(chats, nil),
		Reader:   history.NewReader(chats, nil),
		Metrics:  opts.Metrics,
	})

	if opts.Verifier == nil {
		opts.Verifier = auth.NewStaticVerifier("")
	}
	return httpadapter.NewServer(svc, opts)
}

func do(t *testing.T, srv http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{})

	w := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPreflightAndMethod(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{CORSOrigin: "https://app.example"})

	w := do(t, srv, http.MethodOptions, "/api/generateQuoteInterpretation", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, srv, http.MethodGet, "/api/generateQuoteInterpretation", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decode(t, w)["error"])
}

func TestRelayQuote(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{})

	w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation",
		`{"theme":"Hope","message":"rough week","askForQuote":true}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	quote := body["quote"].(map[string]any)
	assert.Equal(t, "This too shall pass", quote["text"])
	assert.Equal(t, "Persian adage", quote["source"])
	assert.Equal(t, "hope", quote["theme"])
	assert.NotEmpty(t, body["interpretation"])
}

func TestRelayVerse(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{})

	w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation",
		`{"theme":"peace","message":"anxious","askForVerse":true}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	verse := decode(t, w)["verse"].(map[string]any)
	assert.Equal(t, "Be still", verse["text"])
	assert.Equal(t, "Psalm 46:10", verse["reference"])
	assert.Equal(t, "NIV", verse["translation"])
	assert.Equal(t, "peace", verse["theme"])
}

func TestRelayChat(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{})

	w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation",
		`{"theme":"hope","message":"hello","history":[{"role":"assistant","content":"hi there"}]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Contains(t, body["reply"], `"hello"`)
	assert.NotContains(t, body, "quote")
}

func TestRelayErrors(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{})

	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed", `{"theme":`, http.StatusBadRequest, "Missing theme or message"},
		{"missing message", `{"theme":"hope"}`, http.StatusBadRequest, "Missing theme or message"},
		{"no quotes", `{"theme":"anger","message":"m","askForQuote":true}`, http.StatusNotFound, "No quotes for theme: anger"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decode(t, w)["error"])
		})
	}
}

func TestRelayRequiresToken(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{Verifier: tokenVerifier{"good": "u1"}})
	body := `{"theme":"hope","message":"hi"}`

	w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", body, "Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", body, "Authorization", "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRelayRateLimit(t *testing.T) {
	metrics := observability.NewMetrics()
	body := `{"theme":"hope","message":"hi"}`

	srv := newTestServer(t, httpadapter.Options{Limiter: stubLimiter{allowed: false}, Metrics: metrics})
	w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	srv = newTestServer(t, httpadapter.Options{Limiter: stubLimiter{err: errors.New("redis down")}})
	w = do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", body)
	assert.Equal(t, http.StatusOK, w.Code, "limiter failure lets the request through")
}

func TestHistoryAfterRelay(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{Verifier: tokenVerifier{"a": "u1", "b": "u2"}})

	w := do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation",
		`{"theme":"hope","message":"hi"}`, "Authorization", "Bearer a")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/api/history?limitDays=3", "", "Authorization", "Bearer a")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	logs := decode(t, w)["logs"].([]any)
	require.Len(t, logs, 1)
	msgs := logs[0].(map[string]any)["messages"].([]any)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "hi", first["content"])
	assert.Equal(t, false, first["encrypted"])

	w = do(t, srv, http.MethodGet, "/api/history", "", "Authorization", "Bearer b")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["logs"])

	w = do(t, srv, http.MethodGet, "/api/history?day=yesterday", "", "Authorization", "Bearer a")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, httpadapter.Options{Metrics: observability.NewMetrics()})

	do(t, srv, http.MethodPost, "/api/generateQuoteInterpretation", `{"theme":"hope","message":"hi"}`)
	w := do(t, srv, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `guideon_requests_total{mode="chat",outcome="ok"} 1`)
}
