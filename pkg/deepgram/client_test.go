package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestTranscribe(t *testing.T) {
	var gotAuth, gotContentType, gotQuery string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"patient reports mild headache"}]}]}}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	transcript, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "en-US")
	require.NoError(t, err)

	assert.Equal(t, "patient reports mild headache", transcript)
	assert.Equal(t, "Token test-key", gotAuth)
	assert.Equal(t, "audio/webm", gotContentType)
	assert.Equal(t, "language=en-US&model=whisper", gotQuery)
	assert.Equal(t, []byte("audio-bytes"), gotBody)
}

func TestTranscribeEmptyChannels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	transcript, err := client.Transcribe(context.Background(), []byte("audio"), "es")
	require.NoError(t, err)
	assert.Empty(t, transcript)
}

func TestTranscribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient("wrong-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), []byte("audio"), "en-US")
	assert.ErrorContains(t, err, "status 401")
}
