package ratelimit

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/photolink/coappear/pkg/identity"
)

// Admission coalesces concurrent run-creation requests for the same pair
// (spec.md §4.7 "singleflight per (A,B)") so two clients racing to start
// "Tom Hanks" / "Kevin Bacon" at the same instant share one cache lookup
// (and, on a cache miss, one freshly-created Run) instead of each
// triggering independent work. The singleflight.Group coalesces the brief
// admission check itself; Claim/Release track the pair for the much
// longer lifetime of the investigation that follows, so a request
// arriving after the check has already returned still attaches to the
// in-flight run rather than starting a second one.
type Admission struct {
	group singleflight.Group

	mu      sync.Mutex
	runByID map[string]string
}

// NewAdmission builds an empty Admission coalescer.
func NewAdmission() *Admission {
	return &Admission{runByID: make(map[string]string)}
}

// Claim registers runID as the in-flight run for (personA, personB) if
// none is already registered. claimed is false when another run already
// owns the pair, in which case existing is its run ID.
func (a *Admission) Claim(personA, personB, runID string) (existing string, claimed bool) {
	key := PairKey(personA, personB)
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.runByID[key]; ok {
		return id, false
	}
	a.runByID[key] = runID
	return "", true
}

// Release frees the pair so a future request may start a new run.
func (a *Admission) Release(personA, personB string) {
	key := PairKey(personA, personB)
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.runByID, key)
}

// PairKey returns the canonical (order-independent) key for a pair of
// names, so (A,B) and (B,A) coalesce onto the same singleflight call.
func PairKey(personA, personB string) string {
	a, b := identity.Normalise(personA), identity.Normalise(personB)
	if a > b {
		a, b = b, a
	}
	return a + "|" + strings.TrimSpace(b)
}

// Do runs fn for the given pair, ensuring only one concurrent call per
// pair key executes; concurrent callers for the same pair block on and
// share the first call's result.
func (a *Admission) Do(personA, personB string, fn func() (any, error)) (any, error, bool) {
	return a.group.Do(PairKey(personA, personB), fn)
}
