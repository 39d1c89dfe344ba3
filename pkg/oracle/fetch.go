package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	minImageBytes = 100
	maxImageBytes = 10 * 1024 * 1024
)

// ErrImageTooSmall, ErrImageTooLarge, ErrUnrecognisedImage are the
// rejection reasons spec.md §4.2 step 1 enumerates.
var (
	ErrImageTooSmall     = errors.New("oracle: image body smaller than 100 bytes")
	ErrImageTooLarge     = errors.New("oracle: image body larger than 10MB")
	ErrUnrecognisedImage = errors.New("oracle: image body is not a recognised JPEG/PNG/GIF/WEBP")
	ErrHTMLBody          = errors.New("oracle: response body looks like HTML, not an image")
)

var magicBytes = []struct {
	prefix []byte
}{
	{[]byte{0xFF, 0xD8, 0xFF}},             // JPEG
	{[]byte{0x89, 0x50, 0x4E, 0x47}},       // PNG
	{[]byte("GIF87a")},                     // GIF
	{[]byte("GIF89a")},                     // GIF
	{[]byte("RIFF")},                       // WEBP (RIFF....WEBP)
}

// ImageFetcher fetches candidate image bytes with a browser-like
// user-agent and a Referer derived from the image's own host, then
// validates the body per spec.md §4.2 step 1.
type ImageFetcher struct {
	client *http.Client
}

// NewImageFetcher builds a fetcher with the given per-call timeout.
func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	return &ImageFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads imageURL and validates it, returning the raw bytes on
// success.
func (f *ImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("parse image url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return body, validate(body)
}

func validate(body []byte) error {
	if len(body) < minImageBytes {
		return ErrImageTooSmall
	}
	if len(body) > maxImageBytes {
		return ErrImageTooLarge
	}
	if looksLikeHTML(body) {
		return ErrHTMLBody
	}
	if !hasRecognisedMagicBytes(body) {
		return ErrUnrecognisedImage
	}
	return nil
}

func looksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<html")) || bytes.Contains(lower, []byte("<!doctype"))
}

func hasRecognisedMagicBytes(body []byte) bool {
	for _, m := range magicBytes {
		if bytes.HasPrefix(body, m.prefix) {
			return true
		}
	}
	return false
}
