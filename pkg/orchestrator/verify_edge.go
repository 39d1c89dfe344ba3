package orchestrator

import (
	"context"
	"fmt"

	"github.com/photolink/coappear/pkg/confidence"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/run"
	"github.com/photolink/coappear/pkg/verify"
)

// verifiedEvidence is one accepted image's contribution to a pair's edge.
type verifiedEvidence struct {
	imageURL, thumbnailURL, contextURL string
	score                              int
}

// VerifyEdge attempts to confirm a direct co-appearance between p and q
// (spec.md §4.1 VerifyEdge sub-procedure): generate up to two verification
// queries, search, run the §4.2 pipeline over returned images, accumulate
// evidence, early-stopping once enough accepted images exist or the
// budget runs out. Returns nil if no image was accepted.
func (o *Orchestrator) VerifyEdge(ctx context.Context, r *run.Run, log eventSink, p, q string) *run.VerifiedEdge {
	queries := verificationQueries(p, q)
	if len(queries) > o.cfg.VerifyEdgeMaxQueries {
		queries = queries[:o.cfg.VerifyEdgeMaxQueries]
	}

	var evidence []verifiedEvidence

	for _, query := range queries {
		if r.Budgets().Exhausted() {
			break
		}
		if !r.Budgets().HasSearchBudget() {
			continue
		}
		r.UseSearch()
		results, err := o.search.Search(ctx, query)
		if err != nil {
			o.logger.Warn("image search failed", "query", query, "error", err)
			continue
		}

		for _, img := range capImages(results, o.cfg.ImagesPerQuery) {
			if len(evidence) >= o.cfg.VerifyEdgeEarlyStop {
				break
			}
			if !r.Budgets().HasRecogBudget() {
				break
			}
			r.UseRecog()

			res := o.pipeline.VerifyPair(ctx, verify.Image{
				ImageURL: img.ImageURL, ThumbnailURL: img.ThumbnailURL,
				ContextURL: img.ContextURL, Title: img.Title,
			}, p, q, r)

			log.Publish(events.TypeImageResult, fmt.Sprintf("checked image for %s / %s", p, q), imageResultData(img, res))

			if res.Status == "evidence" {
				evidence = append(evidence, verifiedEvidence{
					imageURL: img.ImageURL, thumbnailURL: img.ThumbnailURL,
					contextURL: img.ContextURL, score: res.Score,
				})
			}

			if len(evidence) >= o.cfg.VerifyEdgeEarlyStop {
				break
			}
		}

		if len(evidence) >= o.cfg.VerifyEdgeEarlyStop {
			break
		}
	}

	if len(evidence) == 0 {
		return nil
	}

	best := evidence[0]
	conf := 0
	for _, e := range evidence {
		conf = confidence.AccumulateEdge(conf, e.score)
		if e.score > best.score {
			best = e
		}
	}

	return &run.VerifiedEdge{From: p, To: q, Confidence: conf, BestURL: best.imageURL}
}

// verificationQueries builds the (at most 2) queries used to verify a
// direct pair, per spec.md §4.1.
func verificationQueries(p, q string) []string {
	return []string{p + " " + q, p + " and " + q}
}

func capImages(results []oracle.ImageResult, max int) []oracle.ImageResult {
	if len(results) > max {
		return results[:max]
	}
	return results
}
