package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsTooSmall(t *testing.T) {
	assert.ErrorIs(t, validate([]byte{0xFF, 0xD8, 0xFF}), ErrImageTooSmall)
}

func TestValidateRejectsTooLarge(t *testing.T) {
	body := make([]byte, maxImageBytes+1)
	copy(body, []byte{0xFF, 0xD8, 0xFF})
	assert.ErrorIs(t, validate(body), ErrImageTooLarge)
}

func TestValidateRejectsHTMLBody(t *testing.T) {
	body := make([]byte, 200)
	copy(body, []byte("<!DOCTYPE html><html><body>not an image</body></html>"))
	assert.ErrorIs(t, validate(body), ErrHTMLBody)
}

func TestValidateRejectsUnrecognisedMagicBytes(t *testing.T) {
	body := make([]byte, 200)
	copy(body, []byte("this is plainly not an image file at all"))
	assert.ErrorIs(t, validate(body), ErrUnrecognisedImage)
}

func TestValidateAcceptsJPEG(t *testing.T) {
	body := make([]byte, 200)
	copy(body, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	assert.NoError(t, validate(body))
}

func TestValidateAcceptsPNG(t *testing.T) {
	body := make([]byte, 200)
	copy(body, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	assert.NoError(t, validate(body))
}

func TestFetchSetsBrowserUserAgentAndHostReferer(t *testing.T) {
	var gotUA, gotReferer string
	body := make([]byte, 200)
	copy(body, []byte{0xFF, 0xD8, 0xFF})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	fetcher := NewImageFetcher(5 * time.Second)
	got, err := fetcher.Fetch(context.Background(), server.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Contains(t, gotUA, "Mozilla")
	assert.Contains(t, gotReferer, server.URL)
}
