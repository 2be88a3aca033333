package parser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

func TestSidecarExtractor_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "fake pdf", string(body))
		w.Write([]byte(`{"pages":["Hello from PDF","  ","Second page"]}`))
	}))
	defer server.Close()

	doc, err := NewSidecarExtractor(server.URL, time.Second).Extract(context.Background(), []byte("fake pdf"))
	require.NoError(t, err)

	assert.Equal(t, 3, doc.PageCount)
	pages := collect(doc)
	require.Len(t, pages, 2)
	assert.Equal(t, entities.Page{Number: 1, Text: "Hello from PDF"}, pages[0])
	assert.Equal(t, entities.Page{Number: 3, Text: "Second page"}, pages[1])
}

func TestSidecarExtractor_SingleTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"whole document","pages":[]}`))
	}))
	defer server.Close()

	doc, err := NewSidecarExtractor(server.URL, 0).Extract(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []entities.Page{{Number: 1, Text: "whole document"}}, collect(doc))
}

func TestSidecarExtractor_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"parsing failed","pages":[]}`))
	}))
	defer server.Close()

	_, err := NewSidecarExtractor(server.URL, 0).Extract(context.Background(), []byte("bad"))
	assert.True(t, entities.IsExtractionError(err))
}

func TestSidecarExtractor_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := NewSidecarExtractor(server.URL, 0).Extract(context.Background(), []byte("x"))
	assert.True(t, entities.IsExtractionError(err))
}

func TestSidecarExtractor_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	ex := NewSidecarExtractor(url, time.Second)
	_, err := ex.Extract(context.Background(), []byte("x"))
	assert.True(t, entities.IsExtractionError(err))
	assert.False(t, ex.Healthy(context.Background()))
}

func TestSidecarExtractor_CanceledRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pages":["late"]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSidecarExtractor(server.URL, time.Second).Extract(ctx, []byte("x"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, entities.IsExtractionError(err))
}

func TestSidecarExtractor_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, NewSidecarExtractor(server.URL, 0).Healthy(context.Background()))
}

func TestSidecarExtractor_DefaultURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8081", NewSidecarExtractor("", 0).serviceURL)
}
