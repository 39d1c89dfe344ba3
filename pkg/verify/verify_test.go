package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/planner"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (s stubFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	if s.body == nil && s.err == nil {
		return []byte{0xFF, 0xD8, 0xFF}, nil
	}
	return s.body, s.err
}

type stubVision struct {
	result oracle.SceneResult
	err    error
}

func (s stubVision) IsSingleScene(ctx context.Context, imageURL string) (oracle.SceneResult, error) {
	return s.result, s.err
}

type stubRecognizer struct {
	detections []oracle.Detection
	err        error
}

func (s stubRecognizer) Recognize(ctx context.Context, imageURL string) ([]oracle.Detection, error) {
	return s.detections, s.err
}

func TestDetectionsPropagatesFetchError(t *testing.T) {
	p := New(stubFetcher{err: errors.New("unreachable")}, stubVision{}, stubRecognizer{}, nil, nil, 0, nil)
	_, res := p.Detections(context.Background(), Image{ImageURL: "https://example.test/img.jpg"})
	assert.Equal(t, StatusError, res.Status)
}

func TestDetectionsRejectsCollage(t *testing.T) {
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: false, Reason: "composite"}}, stubRecognizer{}, nil, nil, 0, nil)
	_, res := p.Detections(context.Background(), Image{ImageURL: "https://example.test/img.jpg"})
	assert.Equal(t, StatusCollage, res.Status)
}

func TestDetectionsPropagatesRecognizerError(t *testing.T) {
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: true}}, stubRecognizer{err: errors.New("boom")}, nil, nil, 0, nil)
	_, res := p.Detections(context.Background(), Image{ImageURL: "https://example.test/img.jpg"})
	assert.Equal(t, StatusError, res.Status)
}

func TestVerifyPairAcceptsBothAboveThreshold(t *testing.T) {
	detections := []oracle.Detection{
		{Name: "Tom Hanks", Confidence: 95},
		{Name: "Rita Wilson", Confidence: 88},
	}
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: true}}, stubRecognizer{detections: detections}, nil, nil, 80, nil)
	res := p.VerifyPair(context.Background(), Image{ImageURL: "https://example.test/img.jpg"}, "Tom Hanks", "Rita Wilson", nil)
	assert.Equal(t, StatusEvidence, res.Status)
	assert.Equal(t, 88, res.Score) // min(95, 88)
}

func TestVerifyPairRejectsWhenOneBelowThreshold(t *testing.T) {
	detections := []oracle.Detection{
		{Name: "Tom Hanks", Confidence: 95},
		{Name: "Rita Wilson", Confidence: 40},
	}
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: true}}, stubRecognizer{detections: detections}, nil, nil, 80, nil)
	res := p.VerifyPair(context.Background(), Image{ImageURL: "https://example.test/img.jpg"}, "Tom Hanks", "Rita Wilson", nil)
	assert.Equal(t, StatusNoMatch, res.Status)
}

func TestVerifyPairFallsBackToPlannerWhenOneUnidentified(t *testing.T) {
	detections := []oracle.Detection{{Name: "Tom Hanks", Confidence: 95}}
	stubLLM := stubCompleter{
		response: `{"personAFound":true,"personAConfidence":95,"personBFound":true,"personBConfidence":85,"togetherInScene":true,"overallConfidence":85}`,
	}
	pl := planner.New(stubLLM, nil)
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: true}}, stubRecognizer{detections: detections}, pl, nil, 80, nil)
	budget := &stubBudget{hasBudget: true}
	res := p.VerifyPair(context.Background(), Image{ImageURL: "https://example.test/img.jpg"}, "Tom Hanks", "Rita Wilson", budget)
	assert.Equal(t, StatusEvidence, res.Status)
	assert.Equal(t, 85, res.Score)
	assert.Equal(t, 1, budget.calls, "planner fallback call must be charged against llmBudget")
}

func TestVerifyPairPlannerFallbackRejectsWhenNotTogether(t *testing.T) {
	detections := []oracle.Detection{{Name: "Tom Hanks", Confidence: 95}}
	stubLLM := stubCompleter{
		response: `{"personAFound":true,"personAConfidence":95,"personBFound":false,"togetherInScene":false}`,
	}
	pl := planner.New(stubLLM, nil)
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: true}}, stubRecognizer{detections: detections}, pl, nil, 80, nil)
	budget := &stubBudget{hasBudget: true}
	res := p.VerifyPair(context.Background(), Image{ImageURL: "https://example.test/img.jpg"}, "Tom Hanks", "Rita Wilson", budget)
	assert.Equal(t, StatusNoMatch, res.Status)
	assert.Equal(t, 1, budget.calls)
}

func TestVerifyPairSkipsPlannerFallbackWhenBudgetExhausted(t *testing.T) {
	detections := []oracle.Detection{{Name: "Tom Hanks", Confidence: 95}}
	stubLLM := stubCompleter{
		response: `{"personAFound":true,"personAConfidence":95,"personBFound":true,"personBConfidence":85,"togetherInScene":true,"overallConfidence":85}`,
	}
	pl := planner.New(stubLLM, nil)
	p := New(stubFetcher{}, stubVision{result: oracle.SceneResult{Valid: true}}, stubRecognizer{detections: detections}, pl, nil, 80, nil)
	budget := &stubBudget{hasBudget: false}
	res := p.VerifyPair(context.Background(), Image{ImageURL: "https://example.test/img.jpg"}, "Tom Hanks", "Rita Wilson", budget)
	assert.Equal(t, StatusNoMatch, res.Status)
	assert.Equal(t, 0, budget.calls, "must not call the planner once llmBudget is exhausted")
}

type stubCompleter struct{ response string }

func (s stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

type stubBudget struct {
	hasBudget bool
	calls     int
}

func (b *stubBudget) HasLLMBudget() bool { return b.hasBudget }
func (b *stubBudget) UseLLM()            { b.calls++ }
