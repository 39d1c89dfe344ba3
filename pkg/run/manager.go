package run

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks every in-flight and recently-finished Run in memory.
type Manager struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewManager creates an empty run Manager.
func NewManager() *Manager {
	return &Manager{runs: make(map[string]*Run)}
}

// Create starts a new Run for (personA, personB) and registers it.
func (m *Manager) Create(personA, personB string, budgets Budgets) *Run {
	r := New(uuid.New().String(), personA, personB, budgets)

	m.mu.Lock()
	m.runs[r.ID] = r
	m.mu.Unlock()

	return r
}

// Get retrieves a run by ID.
func (m *Manager) Get(runID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return r, nil
}

// Delete removes a run, typically after its event log's TTL has elapsed.
func (m *Manager) Delete(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, runID)
}

// Snapshot returns a point-in-time list of every tracked run.
func (m *Manager) Snapshot() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.Snapshot())
	}
	return out
}

// FinishedBefore returns the IDs of every run whose status is terminal and
// whose last update predates the cutoff, for use by the cleanup sweep.
func (m *Manager) FinishedBefore(isExpired func(Snapshot) bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, r := range m.runs {
		snap := r.Snapshot()
		if snap.Status != StatusRunning && isExpired(snap) {
			ids = append(ids, id)
		}
	}
	return ids
}
