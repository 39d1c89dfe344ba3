// Package oracle implements the HTTP clients for the three external
// oracles spec.md §1 names — ImageSearch, FaceRecognizer, VisionFilter —
// plus the image-fetch/validate step of the verification pipeline and a
// background health monitor for all configured oracle endpoints.
package oracle

import "context"

// ImageResult is one hit from an ImageSearch query (spec.md §1).
type ImageResult struct {
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ContextURL   string `json:"contextUrl"`
	Title        string `json:"title"`
}

// Detection is one face FaceRecognizer reports in an image.
type Detection struct {
	Name       string  `json:"name"`
	Confidence int     `json:"confidence"` // 0..100
	BBox       [4]int  `json:"bbox"`       // x, y, w, h
}

// SceneResult is VisionFilter's verdict on whether an image is a single,
// non-composite scene.
type SceneResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// ImageSearch searches the public web for photographs matching a query.
type ImageSearch interface {
	Search(ctx context.Context, query string) ([]ImageResult, error)
}

// FaceRecognizer identifies people appearing in an image.
type FaceRecognizer interface {
	Recognize(ctx context.Context, imageURL string) ([]Detection, error)
}

// VisionFilter rejects composite/collage images before they are spent
// against the recognition budget.
type VisionFilter interface {
	IsSingleScene(ctx context.Context, imageURL string) (SceneResult, error)
}
