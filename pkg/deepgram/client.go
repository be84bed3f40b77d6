// Package deepgram is a minimal client for the Deepgram pre-recorded
// transcription API.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://api.deepgram.com/v1"

// Client sends raw audio bytes to Deepgram and extracts the transcript.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Deepgram client. The API key must be non-empty.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram API key is not configured")
	}

	client := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      "whisper",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// listenResponse mirrors the subset of the Deepgram response we consume:
// the first alternative of the first channel.
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe posts the audio bytes to the listen endpoint with the given
// language tag and returns the transcript. An empty transcript is returned
// as-is; the caller decides whether that is an error.
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	endpoint := fmt.Sprintf("%s/listen?language=%s&model=%s", c.baseURL, url.QueryEscape(language), url.QueryEscape(c.model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "audio/webm")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call transcription service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("transcription service returned status %d: %s", resp.StatusCode, body)
	}

	var parsed listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}
