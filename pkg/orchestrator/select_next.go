package orchestrator

import (
	"context"

	"github.com/photolink/coappear/pkg/candidate"
	"github.com/photolink/coappear/pkg/planner"
	"github.com/photolink/coappear/pkg/run"
)

// selectNext runs S4: choose up to maxNextCandidates names from the
// aggregated candidate list to expand next. Delegates to the planner when
// one is configured and budget remains; otherwise falls back to the
// candidate engine's own confidence/count ordering (spec.md §9 "Planner
// polymorphism").
func (o *Orchestrator) selectNext(ctx context.Context, r *run.Run, frontier, target string, candidates []candidate.Candidate) planner.Selection {
	if o.planner != nil && r.Budgets().HasLLMBudget() {
		r.UseLLM()
		return o.planner.SelectNextExpansion(ctx, planner.SelectNextExpansionInput{
			Frontier:         frontier,
			Target:           target,
			Candidates:       toPlannerCandidates(candidates),
			FailedCandidates: r.FailedCandidates(),
			SearchBudgetLeft: r.Budgets().SearchRemaining(),
			RecogBudgetLeft:  r.Budgets().RecogRemaining(),
		})
	}

	return basicSelectNext(candidates, r.FailedCandidates())
}

// basicSelectNext is the deterministic fallback: the single best-ranked
// candidate not already known to have failed.
func basicSelectNext(candidates []candidate.Candidate, failed []string) planner.Selection {
	var best *candidate.Candidate
	for i := range candidates {
		c := &candidates[i]
		if stringSliceContains(failed, c.Name) {
			continue
		}
		if best == nil || c.BestCoappearConfidence > best.BestCoappearConfidence ||
			(c.BestCoappearConfidence == best.BestCoappearConfidence && c.CoappearCount > best.CoappearCount) {
			best = c
		}
	}
	if best == nil {
		return planner.Selection{Stop: true, Reason: "no remaining candidates"}
	}
	return planner.Selection{
		NextCandidates: []string{best.Name},
		Narration:      "selected the highest-confidence unverified candidate",
	}
}

func toPlannerCandidates(candidates []candidate.Candidate) []planner.Candidate {
	out := make([]planner.Candidate, len(candidates))
	for i, c := range candidates {
		urls := make([]string, 0, len(c.EvidenceContextURLs))
		for u := range c.EvidenceContextURLs {
			urls = append(urls, u)
		}
		out[i] = planner.Candidate{
			Name:                   c.Name,
			CoappearCount:          c.CoappearCount,
			BestCoappearConfidence: float64(c.BestCoappearConfidence),
			EvidenceContextURLs:    urls,
		}
	}
	return out
}
