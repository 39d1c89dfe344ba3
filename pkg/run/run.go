// Package run holds the Investigation run state (spec.md §3) and an
// in-memory Manager tracking every run by ID, adapted from the teacher's
// session manager (one record per in-flight conversation) into one record
// per in-flight investigation.
package run

import (
	"context"
	"sync"
	"time"
)

// Status is a run's lifecycle state (spec.md §3).
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Budgets tracks per-tier call quotas and usage (spec.md §4.1 budget policy).
type Budgets struct {
	SearchUsed, SearchMax int
	RecogUsed, RecogMax   int
	LLMUsed, LLMMax       int
}

// HasSearchBudget reports whether another ImageSearch call is allowed.
func (b Budgets) HasSearchBudget() bool { return b.SearchUsed < b.SearchMax }

// HasRecogBudget reports whether another FaceRecognizer call is allowed.
func (b Budgets) HasRecogBudget() bool { return b.RecogUsed < b.RecogMax }

// HasLLMBudget reports whether another Planner call is allowed.
func (b Budgets) HasLLMBudget() bool { return b.LLMUsed < b.LLMMax }

// Exhausted reports the orchestrator's global terminal condition: either
// searchBudget or recognitionBudget exhausted (spec.md §4.1).
func (b Budgets) Exhausted() bool {
	return !b.HasSearchBudget() || !b.HasRecogBudget()
}

// SearchRemaining reports how many ImageSearch calls are left.
func (b Budgets) SearchRemaining() int { return b.SearchMax - b.SearchUsed }

// RecogRemaining reports how many FaceRecognizer calls are left.
func (b Budgets) RecogRemaining() int { return b.RecogMax - b.RecogUsed }

// VerifiedEdge is one confirmed co-appearance, returned by VerifyEdge
// (spec.md §4.1).
type VerifiedEdge struct {
	From, To   string
	Confidence int
	BestURL    string
}

// Run is one investigation between a specific (A, B) pair (spec.md §3, §9).
type Run struct {
	ID        string
	PersonA   string
	PersonB   string
	CreatedAt time.Time
	UpdatedAt time.Time

	mu               sync.RWMutex
	frontier         string
	path             []string
	verifiedEdges    []VerifiedEdge
	failedCandidates []string
	hopDepth         int
	budgets          Budgets
	status           Status
	errorReason      string
	cancel           context.CancelFunc
}

// New creates a Run in the running state with the frontier at personA.
func New(id, personA, personB string, budgets Budgets) *Run {
	now := time.Now()
	return &Run{
		ID:        id,
		PersonA:   personA,
		PersonB:   personB,
		CreatedAt: now,
		UpdatedAt: now,
		frontier:  personA,
		path:      []string{personA},
		budgets:   budgets,
		status:    StatusRunning,
	}
}

// SetCancel stores the cancel function used to abort this run's goroutine.
func (r *Run) SetCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = cancel
}

// Cancel aborts the run's processing, if still running.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil || r.status != StatusRunning {
		return false
	}
	r.cancel()
	return true
}

// Frontier returns the current expansion frontier.
func (r *Run) Frontier() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frontier
}

// Path returns a copy of the verified path so far.
func (r *Run) Path() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.path))
	copy(out, r.path)
	return out
}

// FailedCandidates returns a copy of the current frontier's failed list.
func (r *Run) FailedCandidates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.failedCandidates))
	copy(out, r.failedCandidates)
	return out
}

// HopDepth returns the number of verified hops so far.
func (r *Run) HopDepth() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hopDepth
}

// Budgets returns a copy of the current budget counters.
func (r *Run) Budgets() Budgets {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.budgets
}

// HasLLMBudget reports whether another Planner call is allowed for this
// run. Alongside UseLLM, this satisfies verify.LLMBudget so the
// verification pipeline can charge its own planner fallback call
// without importing pkg/run.
func (r *Run) HasLLMBudget() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.budgets.HasLLMBudget()
}

// UseSearch atomically decrements the search budget by one call.
func (r *Run) UseSearch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets.SearchUsed++
	r.UpdatedAt = time.Now()
}

// UseRecog atomically decrements the recognition budget by one call.
func (r *Run) UseRecog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets.RecogUsed++
	r.UpdatedAt = time.Now()
}

// UseLLM atomically decrements the planner budget by one call.
func (r *Run) UseLLM() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets.LLMUsed++
	r.UpdatedAt = time.Now()
}

// AddFailedCandidate records a candidate that failed verification at the
// current frontier.
func (r *Run) AddFailedCandidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedCandidates = append(r.failedCandidates, name)
	r.UpdatedAt = time.Now()
}

// Advance pushes a newly verified hop onto the path, records the edge,
// resets the failed-candidate list for the new frontier, and increments
// hopDepth (spec.md §4.1 S5).
func (r *Run) Advance(next string, edge VerifiedEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append(r.path, next)
	r.verifiedEdges = append(r.verifiedEdges, edge)
	r.failedCandidates = nil
	r.frontier = next
	r.hopDepth++
	r.UpdatedAt = time.Now()
}

// VerifiedEdges returns a copy of every edge verified so far.
func (r *Run) VerifiedEdges() []VerifiedEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]VerifiedEdge, len(r.verifiedEdges))
	copy(out, r.verifiedEdges)
	return out
}

// Finish marks the run terminal with the given status and, for failure,
// a reason.
func (r *Run) Finish(status Status, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.errorReason = reason
	r.UpdatedAt = time.Now()
}

// Snapshot is a point-in-time, lock-free view of a Run for status reporting.
type Snapshot struct {
	ID        string
	PersonA   string
	PersonB   string
	Status    Status
	Error     string
	Path      []string
	HopDepth  int
	Budgets   Budgets
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot returns a safe copy of the run's current state.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path := make([]string, len(r.path))
	copy(path, r.path)
	return Snapshot{
		ID: r.ID, PersonA: r.PersonA, PersonB: r.PersonB,
		Status: r.status, Error: r.errorReason,
		Path: path, HopDepth: r.hopDepth, Budgets: r.budgets,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}
