package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfill/config"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  {\"mapping\":{}}\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.LLMConfig{
		OpenAIAPIKey: "sk-test",
		OpenAIModel:  "gpt-4.1-mini",
		OpenAIURL:    srv.URL,
		MaxTokens:    1000,
	})

	out, err := client.Complete(context.Background(), "fill this")

	require.NoError(t, err)
	assert.Equal(t, `{"mapping":{}}`, out)
	assert.Equal(t, "gpt-4.1-mini", got["model"])
	assert.EqualValues(t, 1000, got["max_tokens"])
	require.Contains(t, got, "temperature")
	assert.InDelta(t, 0, got["temperature"], 1e-6)
	messages := got["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "fill this", messages[0].(map[string]interface{})["content"])
}

func TestOpenAIClient_CompleteSendsConfiguredTemperature(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.LLMConfig{OpenAIAPIKey: "sk", OpenAIModel: "gpt-4.1-mini", OpenAIURL: srv.URL, Temperature: 0.7})

	_, err := client.Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
}

func TestOpenAIClient_CompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.LLMConfig{OpenAIAPIKey: "bad", OpenAIModel: "gpt-4.1-mini", OpenAIURL: srv.URL})

	_, err := client.Complete(context.Background(), "fill this")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func newTestGeminiClient(url string, cfg config.LLMConfig) *GeminiClient {
	c := NewGeminiClient(cfg)
	c.endpoint = url
	return c
}

func TestGeminiClient_CompleteWithAPIKey(t *testing.T) {
	var got GeminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" {\"mapping\":{\"id:a\":\"1\"}} "}]}}]}`))
	}))
	defer srv.Close()

	client := newTestGeminiClient(srv.URL, config.LLMConfig{GeminiAPIKey: "g-key", GeminiModel: "gemini-1.5-pro", MaxTokens: 1000})

	out, err := client.Complete(context.Background(), "fill this")

	require.NoError(t, err)
	assert.Equal(t, `{"mapping":{"id:a":"1"}}`, out)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "fill this", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 1000, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiClient_CompleteWithDefaultCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer adc-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	client := newTestGeminiClient(srv.URL, config.LLMConfig{GeminiModel: "gemini-1.5-pro"})
	client.accessToken = func(context.Context) (string, error) { return "adc-token", nil }

	out, err := client.Complete(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGeminiClient_CredentialsFailure(t *testing.T) {
	client := newTestGeminiClient("http://127.0.0.1:0", config.LLMConfig{GeminiModel: "gemini-1.5-pro"})
	client.accessToken = func(context.Context) (string, error) { return "", errors.New("no credentials") }

	_, err := client.Complete(context.Background(), "p")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusForbidden, `{"error":{"message":"quota"}}`, "Gemini API error"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "no predictions returned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := newTestGeminiClient(srv.URL, config.LLMConfig{GeminiAPIKey: "k", GeminiModel: "gemini-1.5-pro"})
			_, err := client.Complete(context.Background(), "p")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
