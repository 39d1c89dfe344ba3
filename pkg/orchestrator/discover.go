package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/photolink/coappear/pkg/candidate"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/planner"
	"github.com/photolink/coappear/pkg/run"
)

// discoveryState is the in-progress S2/S3 context for the current frontier.
type discoveryState struct {
	research  *planner.Research
	suggested []planner.BridgeCandidate
}

// research runs S2 Research (optional): only attempted when a planner is
// configured (spec.md §9 "Planner polymorphism" feature-probe).
func (o *Orchestrator) research(ctx context.Context, r *run.Run, log eventSink, personA, personB string) discoveryState {
	if o.planner == nil || !r.Budgets().HasLLMBudget() {
		return discoveryState{}
	}

	r.UseLLM()
	res := o.planner.ResearchConnection(ctx, personA, personB)
	log.Publish(events.TypeResearch, res.Summary, events.Data{Reasoning: res.Reasoning})

	var suggested []planner.BridgeCandidate
	if r.Budgets().HasLLMBudget() {
		r.UseLLM()
		suggested = o.planner.SuggestBridgeCandidates(ctx, personA, personB, r.Path())
	}

	return discoveryState{research: &res, suggested: suggested}
}

// buildQueryPlan assembles S3's ordered query list: suggested-bridge
// queries first, then planner-generated queries, then a fixed fallback.
func (o *Orchestrator) buildQueryPlan(ctx context.Context, r *run.Run, frontier, target string, ds discoveryState) []string {
	var queries []string

	for _, s := range ds.suggested {
		if stringSliceContains(r.FailedCandidates(), s.Name) {
			continue
		}
		queries = append(queries, frontier+" "+s.Name)
	}

	if o.planner != nil && r.Budgets().HasLLMBudget() {
		r.UseLLM()
		if ds.research != nil {
			queries = append(queries, o.planner.GenerateSmartQueries(ctx, frontier, target, ds.research)...)
		} else {
			queries = append(queries, o.planner.GenerateFrontierQueries(ctx, frontier, target)...)
		}
	}

	queries = append(queries, frontier+" photo", frontier+" with")
	return dedupeStrings(queries)
}

// discover runs S3: search the query plan, analyse every returned image
// for co-appearing faces (bounded fan-out per spec.md §5), and aggregate
// into a candidate list. Stops early once the configured number of
// distinct high-confidence candidates has been seen.
func (o *Orchestrator) discover(ctx context.Context, r *run.Run, log eventSink, frontier string, queries []string) []candidate.Candidate {
	var (
		mu       sync.Mutex
		analyses []candidate.Analysis
	)

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
		images := capImages(results, o.cfg.ImagesPerQuery)

		g, gctx := errgroup.WithContext(ctx)
		sem := make(chan struct{}, o.cfg.ImagesPerQuery)

		for _, img := range images {
			img := img
			if !r.Budgets().HasRecogBudget() {
				break
			}
			r.UseRecog()

			g.Go(func() error {
				sem <- struct{}{}
				defer func() { <-sem }()

				detections, res := o.pipeline.Detections(gctx, toVerifyImage(img))
				mu.Lock()
				if res.Status == "evidence" {
					analyses = append(analyses, candidate.Analysis{Detections: detections, ContextURL: img.ContextURL})
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		mu.Lock()
		candidates := candidate.Aggregate(frontier, r.Path(), analyses, o.aliases)
		mu.Unlock()

		log.Publish(events.TypeCandidateDiscovery, fmt.Sprintf("discovered %d candidates near %s", len(candidates), frontier), events.Data{
			Frontier:   frontier,
			Candidates: candidateNames(candidates),
		})

		if earlyStopReached(candidates, o.cfg.EarlyStopCandidates, o.cfg.EarlyStopConfidence) {
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	return candidate.Aggregate(frontier, r.Path(), analyses, o.aliases)
}

func earlyStopReached(candidates []candidate.Candidate, minCount, minConfidence int) bool {
	count := 0
	for _, c := range candidates {
		if c.BestCoappearConfidence >= minConfidence {
			count++
		}
	}
	return count >= minCount
}

func candidateNames(candidates []candidate.Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return names
}

func stringSliceContains(items []string, target string) bool {
	for _, i := range items {
		if i == target {
			return true
		}
	}
	return false
}

func dedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, i := range items {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}
