package summarize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	return `{
		"id": "gen-1",
		"object": "chat.completion",
		"model": "deepseek/deepseek-r1:free",
		"choices": [
			{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": ` + mustJSON(content) + `}}
		]
	}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	var gotRequest map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotRequest)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("<h2>Summary</h2><ul><li>Complaint: headache</li></ul>")))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	summary, err := client.Summarize(context.Background(), "system prompt", "patient reports headache")
	require.NoError(t, err)

	assert.Equal(t, "<h2>Summary</h2><ul><li>Complaint: headache</li></ul>", summary)

	// Deterministic sampling and bounded output
	assert.Equal(t, float64(0), gotRequest["temperature"])
	assert.Equal(t, float64(8000), gotRequest["max_tokens"])
	assert.Equal(t, "```", gotRequest["stop"])

	// Two-message conversation: system prompt then transcript
	messages, ok := gotRequest["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)

	system := messages[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "system prompt", system["content"])

	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "TRANSCRIPT:\n\npatient reports headache", user["content"])
}

func TestSummarizeMissingContentSoftFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("")))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	summary, err := client.Summarize(context.Background(), "system", "transcript")
	require.NoError(t, err)
	assert.Equal(t, NoSummaryPlaceholder, summary)
}

func TestSummarizeNoChoicesSoftFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "gen-2", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	summary, err := client.Summarize(context.Background(), "system", "transcript")
	require.NoError(t, err)
	assert.Equal(t, NoSummaryPlaceholder, summary)
}
