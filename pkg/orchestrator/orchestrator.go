package orchestrator

import (
	"context"
	"fmt"

	"github.com/photolink/coappear/pkg/confidence"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/run"
)

// Investigate drives the full S0-S7 state machine for r, publishing every
// observable transition to log and every persisted edge to the graph
// store and global broadcaster (spec.md §4.1).
func (o *Orchestrator) Investigate(ctx context.Context, r *run.Run, log eventSink) Result {
	personA, personB := r.PersonA, r.PersonB

	// S0 Init
	log.Publish(events.TypeStepStart, "checking for a direct connection", events.Data{StepID: events.StepDirectCheck, StepStatus: events.StepStatusRunning})

	// S1 DirectAttempt
	if edge := o.VerifyEdge(ctx, r, log, personA, personB); edge != nil {
		o.persistEdge(ctx, r, log, *edge)
		r.Advance(personB, *edge)
		return o.success(r, log)
	}
	log.Publish(events.TypeStepComplete, "no direct connection found", events.Data{StepID: events.StepDirectCheck, StepStatus: events.StepStatusFailed})

	if r.Budgets().Exhausted() {
		return o.failure(r, log, "search or recognition budget exhausted before any bridge could be explored")
	}

	// S2 Research (optional)
	ds := o.research(ctx, r, log, personA, personB)

	for r.HopDepth() < o.cfg.HopLimit {
		if ctx.Err() != nil {
			return o.cancelled(r, log, ctx.Err())
		}
		if r.Budgets().Exhausted() {
			return o.failure(r, log, "search or recognition budget exhausted")
		}

		frontier := r.Frontier()

		// S3 Discover
		log.Publish(events.TypeStepStart, fmt.Sprintf("searching for bridges from %s", frontier), events.Data{StepID: events.StepFindBridges, StepStatus: events.StepStatusRunning, Frontier: frontier})
		queries := o.buildQueryPlan(ctx, r, frontier, personB, ds)
		candidates := o.discover(ctx, r, log, frontier, queries)
		ds = discoveryState{} // research/suggestions only apply to the first frontier

		if len(candidates) == 0 {
			return o.failure(r, log, fmt.Sprintf("no candidates discovered from %s", frontier))
		}

		// S4 SelectNext
		sel := o.selectNext(ctx, r, frontier, personB, candidates)
		log.Publish(events.TypeLLMSelection, sel.Narration, events.Data{Candidates: sel.NextCandidates, Reason: sel.Reason})
		if sel.Stop || len(sel.NextCandidates) == 0 {
			return o.failure(r, log, orFallback(sel.Reason, "planner selected no further candidates"))
		}

		advanced := false
		for _, c := range sel.NextCandidates {
			if r.Budgets().Exhausted() {
				break
			}

			// S5 Verify & Bridge
			edge := o.VerifyEdge(ctx, r, log, frontier, c)
			if edge == nil {
				r.AddFailedCandidate(c)
				log.Publish(events.TypeStepComplete, fmt.Sprintf("could not verify %s", c), events.Data{StepID: events.StepVerifyBridge, StepStatus: events.StepStatusFailed, FromPerson: frontier, ToPerson: c})
				continue
			}

			o.persistEdge(ctx, r, log, *edge)
			r.Advance(c, *edge)
			log.Publish(events.TypeStepComplete, fmt.Sprintf("verified %s → %s", frontier, c), events.Data{StepID: events.StepVerifyBridge, StepStatus: events.StepStatusDone, FromPerson: frontier, ToPerson: c})
			log.Publish(events.TypePathUpdate, "path updated", events.Data{Path: r.Path(), HopDepth: r.HopDepth()})

			if finalEdge := o.VerifyEdge(ctx, r, log, c, personB); finalEdge != nil {
				o.persistEdge(ctx, r, log, *finalEdge)
				r.Advance(personB, *finalEdge)
				return o.success(r, log)
			}

			advanced = true
			break
		}

		if !advanced {
			return o.failure(r, log, fmt.Sprintf("every candidate from %s failed verification", frontier))
		}
	}

	return o.failure(r, log, fmt.Sprintf("hop limit (%d) reached without finding %s", o.cfg.HopLimit, personB))
}

func orFallback(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// persistEdge commits a verified edge to the graph store and broadcasts
// the delta to global graph subscribers (spec.md §4.5, §4.6).
func (o *Orchestrator) persistEdge(ctx context.Context, r *run.Run, log eventSink, edge run.VerifiedEdge) {
	e, err := o.store.UpsertEdge(ctx, edge.From, edge.To, edge.Confidence, edge.BestURL, "", "")
	if err != nil {
		o.logger.Error("failed to persist edge", "from", edge.From, "to", edge.To, "error", err)
		return
	}

	log.Publish(events.TypeEvidence, fmt.Sprintf("%s and %s appear together", edge.From, edge.To), events.Data{
		FromPerson: edge.From, ToPerson: edge.To,
		Edge: map[string]any{"confidence": e.Confidence, "bestEvidenceUrl": e.BestEvidenceURL},
	})

	o.broadcast.Publish(events.EdgeUpdate{
		Source: identity.NodeIDForName(edge.From), Target: identity.NodeIDForName(edge.To),
		Confidence: e.Confidence, ContextURL: e.ContextURL,
	})
}

func (o *Orchestrator) success(r *run.Run, log eventSink) Result {
	r.Finish(run.StatusSuccess, "")
	path := r.Path()
	edges := r.VerifiedEdges()

	confs := make([]int, len(edges))
	steps := make([]Step, len(edges))
	for i, e := range edges {
		confs[i] = e.Confidence
		steps[i] = Step{From: e.From, To: e.To, Confidence: e.Confidence, BestURL: e.BestURL}
	}

	bottleneck, cumulative := 100, 1.0
	if len(confs) > 0 {
		bottleneck = confidence.Bottleneck(confs)
		cumulative = confidence.Cumulative(confs)
	}

	log.Publish(events.TypeFinal, "connection found", events.Data{
		Path: path, HopDepth: r.HopDepth(),
		Result: map[string]any{"bottleneck": bottleneck, "cumulative": cumulative},
	})

	return Result{Status: StatusSuccess, Path: path, Steps: steps, Bottleneck: bottleneck, Cumulative: cumulative}
}

func (o *Orchestrator) failure(r *run.Run, log eventSink, reason string) Result {
	r.Finish(run.StatusFailed, reason)
	log.Publish(events.TypeNoPath, reason, events.Data{Reason: reason, HopDepth: r.HopDepth(), Path: r.Path()})
	return Result{Status: StatusNoPath, Reason: reason, HopsReached: r.HopDepth(), Path: r.Path()}
}

func (o *Orchestrator) cancelled(r *run.Run, log eventSink, err error) Result {
	reason := "investigation cancelled or timed out"
	r.Finish(run.StatusFailed, reason)
	log.Publish(events.TypeError, reason, events.Data{Category: "timeout", Reason: err.Error()})
	return Result{Status: StatusError, Reason: reason, ErrorCategory: "timeout"}
}
