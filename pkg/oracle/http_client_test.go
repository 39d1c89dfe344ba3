package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photolink/coappear/pkg/config"
)

func TestHTTPImageSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Elon Musk photo", body["query"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []ImageResult{
				{ImageURL: "https://x/img.jpg", ThumbnailURL: "https://x/thumb.jpg", ContextURL: "https://x/page", Title: "photo"},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPImageSearch(config.OracleConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	results, err := client.Search(context.Background(), "Elon Musk photo")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://x/img.jpg", results[0].ImageURL)
}

func TestHTTPFaceRecognizerSendsAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"detections": []Detection{{Name: "Elon Musk", Confidence: 91}},
		})
	}))
	defer server.Close()

	client := NewHTTPFaceRecognizer(config.OracleConfig{BaseURL: server.URL, APIKey: "secret-key", Timeout: 5 * time.Second})
	detections, err := client.Recognize(context.Background(), "https://x/img.jpg")
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestHTTPVisionFilterPropagatesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewHTTPVisionFilter(config.OracleConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	_, err := client.IsSingleScene(context.Background(), "https://x/img.jpg")
	assert.Error(t, err)
}
