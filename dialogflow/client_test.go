package dialogflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokenSource struct {
	token string
	err   error
	calls int
}

func (s *staticTokenSource) Token(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func newTestClient(baseURL string, tokens TokenSource) *Client {
	return NewClient(Config{
		ProjectID:    "proj",
		Location:     "us-central1",
		AgentID:      "agent-1",
		LanguageCode: "en-US",
		Timeout:      5 * time.Second,
		BaseURL:      baseURL,
	}, tokens, log.New(io.Discard))
}

func agentReply(text string) map[string]any {
	return map[string]any{
		"queryResult": map[string]any{
			"responseMessages": []any{
				map[string]any{"text": map[string]any{"text": []string{text}}},
			},
		},
	}
}

func TestDetectBuildsExpectedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, sonic.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, sonic.ConfigDefault.NewEncoder(w).Encode(agentReply("Sure, happy to help!")))
	}))
	defer ts.Close()

	tokens := &staticTokenSource{token: "test-token"}
	client := newTestClient(ts.URL, tokens)

	reply, err := client.Detect(context.Background(), DetectParams{
		AdvertiserName: "Acme Shoes",
		SessionID:      "session-42",
		Message:        "Where is my order?",
		Prompt:         "You are the Acme assistant.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sure, happy to help!", reply)

	assert.Equal(t, "/v3/projects/proj/locations/us-central1/agents/agent-1/sessions/session-42:detectIntent", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, 1, tokens.calls, "token is obtained per call")

	queryInput, ok := gotBody["queryInput"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "en-US", queryInput["languageCode"])

	text, ok := queryInput["text"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "You are the Acme assistant.\n\nAdvertiser:Acme Shoes\n\n Query:Where is my order?", text["text"])

	queryParams, ok := gotBody["queryParams"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, queryParams["parameters"])
}

func TestDetectDefaultSession(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(agentReply("hi"))
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, &staticTokenSource{token: "t"})

	_, err := client.Detect(context.Background(), DetectParams{Message: "hello"})
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/sessions/default-session:detectIntent")
}

func TestDetectFallbackOnUnexpectedShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"queryResult":{}}`))
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, &staticTokenSource{token: "t"})

	reply, err := client.Detect(context.Background(), DetectParams{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "No response from agent.", reply)
}

func TestDetectMissingFieldsPrefix(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(agentReply("OK"))
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, &staticTokenSource{token: "t"})

	reply, err := client.Detect(context.Background(), DetectParams{
		Message:       "hello",
		MissingFields: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Missing Fields: OK", reply)
}

func TestDetectUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, &staticTokenSource{token: "t"})

	_, err := client.Detect(context.Background(), DetectParams{Message: "hello"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDetectCredentialError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request should reach the NLU endpoint without a token")
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, &staticTokenSource{err: errors.New("denied")})

	_, err := client.Detect(context.Background(), DetectParams{Message: "hello"})
	assert.ErrorIs(t, err, ErrCredential)
}
