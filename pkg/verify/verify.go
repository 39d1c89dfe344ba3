// Package verify implements the per-image verification pipeline from
// spec.md §4.2: fetch, single-scene filter, face recognition, name
// matching against the two target names, and an optional planner
// fallback when one target isn't directly recognised.
package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/photolink/coappear/pkg/confidence"
	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/planner"
)

// Threshold is the default minimum recognition confidence for a detection
// to count toward a verified pair (spec.md §4.2, τ=80).
const Threshold = 80

// Status enumerates image_result's outcome categories (spec.md §4.2).
type Status string

const (
	StatusEvidence Status = "evidence"
	StatusNoMatch  Status = "no_match"
	StatusCollage  Status = "collage"
	StatusError    Status = "error"
)

// Result is the outcome of verifying one image against two target names.
type Result struct {
	Status      Status
	Reason      string
	Celebrities []string
	Score       int // min(confA, confB); only meaningful when Status == StatusEvidence
}

// Image is the record the candidate/search layer passes in (spec.md §4.2).
type Image struct {
	ImageURL     string
	ThumbnailURL string
	ContextURL   string
	Title        string
}

// LLMBudget is the subset of run.Run's budget accounting the pipeline
// needs to charge the planner fallback call against (spec.md §4.4 "each
// call counts against llmBudget"), declared here to avoid an import of
// pkg/run. *run.Run satisfies it directly.
type LLMBudget interface {
	HasLLMBudget() bool
	UseLLM()
}

// Fetcher is the subset of oracle.ImageFetcher the pipeline needs —
// declared here so tests can substitute a stub without hitting the
// network (spec.md §4.2 step 1 only uses the fetch to validate the body,
// the bytes themselves aren't passed any further).
type Fetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// Pipeline wires the oracles and planner fallback together.
type Pipeline struct {
	fetcher    Fetcher
	vision     oracle.VisionFilter
	recognizer oracle.FaceRecognizer
	planner    *planner.Planner
	aliases    *identity.AliasTable
	threshold  int
	logger     *slog.Logger
}

// New builds a verification Pipeline. planner may be nil, in which case
// the verifyCelebritiesInImage fallback step (§4.2 step 4) is skipped.
func New(fetcher Fetcher, vision oracle.VisionFilter, recognizer oracle.FaceRecognizer, p *planner.Planner, aliases *identity.AliasTable, threshold int, logger *slog.Logger) *Pipeline {
	if threshold <= 0 {
		threshold = Threshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{fetcher: fetcher, vision: vision, recognizer: recognizer, planner: p, aliases: aliases, threshold: threshold, logger: logger}
}

// Detections runs steps 1-3 of §4.2 (fetch, single-scene filter, face
// recognition) without target matching, for use by the candidate engine
// which needs raw detections rather than a pair verdict.
func (p *Pipeline) Detections(ctx context.Context, img Image) ([]oracle.Detection, Result) {
	if _, err := p.fetcher.Fetch(ctx, img.ImageURL); err != nil {
		return nil, Result{Status: StatusError, Reason: err.Error()}
	}

	scene, err := p.vision.IsSingleScene(ctx, img.ImageURL)
	if err != nil {
		return nil, Result{Status: StatusError, Reason: fmt.Sprintf("vision filter: %v", err)}
	}
	if !scene.Valid {
		return nil, Result{Status: StatusCollage, Reason: scene.Reason}
	}

	detections, err := p.recognizer.Recognize(ctx, img.ImageURL)
	if err != nil {
		return nil, Result{Status: StatusError, Reason: fmt.Sprintf("face recognizer: %v", err)}
	}
	return detections, Result{Status: StatusEvidence}
}

// VerifyPair runs the full §4.2 pipeline for an image against two target
// names, as used by the orchestrator's VerifyEdge sub-procedure. budget
// may be nil, in which case the step 4 planner fallback is skipped
// entirely (there is no one to charge the call against).
func (p *Pipeline) VerifyPair(ctx context.Context, img Image, personA, personB string, budget LLMBudget) Result {
	detections, pre := p.Detections(ctx, img)
	if pre.Status != StatusEvidence {
		return pre
	}

	names := detectionNames(detections)
	confA, foundA := bestConfidenceFor(detections, personA, p.aliases)
	confB, foundB := bestConfidenceFor(detections, personB, p.aliases)

	if foundA && foundB && confA >= p.threshold && confB >= p.threshold {
		return Result{Status: StatusEvidence, Celebrities: names, Score: confidence.ImageScore(confA, confB)}
	}

	// Step 4 fallback: one party unidentified directly. Ask the planner
	// to arbitrate, accepting only if both are found together in scene.
	if p.planner != nil && (!foundA || !foundB) && budget != nil && budget.HasLLMBudget() {
		budget.UseLLM()
		sv := p.planner.VerifyCelebritiesInImage(ctx, img.ImageURL, personA, personB)
		if sv.TogetherInScene && sv.PersonAFound && sv.PersonBFound &&
			sv.PersonAConfidence >= float64(p.threshold) && sv.PersonBConfidence >= float64(p.threshold) {
			return Result{
				Status:      StatusEvidence,
				Celebrities: names,
				Score:       confidence.ImageScore(int(sv.PersonAConfidence), int(sv.PersonBConfidence)),
			}
		}
	}

	return Result{Status: StatusNoMatch, Reason: "both targets not confidently identified", Celebrities: names}
}

func detectionNames(detections []oracle.Detection) []string {
	names := make([]string, len(detections))
	for i, d := range detections {
		names[i] = d.Name
	}
	return names
}

// bestConfidenceFor returns the highest recognition confidence among
// detections whose name matches target, per the §4.3 name-matching rules.
func bestConfidenceFor(detections []oracle.Detection, target string, aliases *identity.AliasTable) (int, bool) {
	best := 0
	found := false
	for _, d := range detections {
		if !identity.Matches(d.Name, target, aliases) {
			continue
		}
		found = true
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	return best, found
}
