package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaCompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "Hi", req.Prompt)

		json.NewEncoder(w).Encode(map[string]any{"response": "Hello there!", "done": true})
	}))
	defer server.Close()

	c := NewOllamaCompleter(server.URL, "test-model", 0, 0)
	resp, err := c.Complete(context.Background(), "Hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", resp)
	assert.True(t, c.Availability().Available)
}

func TestOllamaCompleter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaCompleter(server.URL, "test", 0, 0).Complete(context.Background(), "test")
	assert.Error(t, err)
}

func TestOllamaCompleter_DefaultValues(t *testing.T) {
	c := NewOllamaCompleter("", "", 0, 0)
	assert.Equal(t, "http://localhost:11434", c.baseURL)
	assert.Equal(t, "llama3.2", c.model)
}
