package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/guideon/internal/adapters/llm"
	"github.com/PabloGalante/guideon/internal/domain"
)

func TestDeepSeekGenerateReply(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  take a breath  "}}]}`))
	}))
	defer srv.Close()

	client, err := llm.NewDeepSeekClient(llm.DeepSeekConfig{
		BaseURL:     srv.URL + "/",
		APIKey:      "sk-test",
		Temperature: 0.7,
		MaxTokens:   400,
	})
	require.NoError(t, err)

	reply, err := client.GenerateReply(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be kind"},
		{Role: domain.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "take a breath", reply)

	assert.Equal(t, "deepseek-chat", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
	assert.EqualValues(t, 400, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "be kind"}, msgs[0])
}

func TestDeepSeekErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		ctype  string
		body   string
		want   string
	}{
		"api error":     {http.StatusUnauthorized, "application/json", `{"error":{"message":"bad key","type":"auth"}}`, "bad key"},
		"plain error":   {http.StatusBadGateway, "text/plain", `upstream down`, "502"},
		"no choices":    {http.StatusOK, "application/json", `{"choices":[]}`, "no choices"},
		"empty content": {http.StatusOK, "application/json", `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`, "empty text"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.ctype)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, err := llm.NewDeepSeekClient(llm.DeepSeekConfig{BaseURL: srv.URL, APIKey: "sk-test"})
			require.NoError(t, err)

			_, err = client.GenerateReply(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDeepSeekRequiresKey(t *testing.T) {
	_, err := llm.NewDeepSeekClient(llm.DeepSeekConfig{})
	assert.Error(t, err)
}

func TestMockLLMEchoesLastUserMessage(t *testing.T) {
	reply, err := llm.NewMockLLM().GenerateReply(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "ok"},
		{Role: domain.RoleUser, Content: "second"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply, `"second"`)
}
