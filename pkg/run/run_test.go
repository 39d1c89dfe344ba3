package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsAtPersonAWithRunningStatus(t *testing.T) {
	r := New("id1", "Tom Hanks", "Kevin Bacon", Budgets{SearchMax: 20, RecogMax: 100, LLMMax: 15})
	assert.Equal(t, "Tom Hanks", r.Frontier())
	assert.Equal(t, []string{"Tom Hanks"}, r.Path())
	assert.Equal(t, StatusRunning, r.Snapshot().Status)
}

func TestAdvanceUpdatesFrontierPathAndResetsFailedCandidates(t *testing.T) {
	r := New("id1", "Tom Hanks", "Kevin Bacon", Budgets{})
	r.AddFailedCandidate("Dead End")
	r.Advance("Bridge Person", VerifiedEdge{From: "Tom Hanks", To: "Bridge Person", Confidence: 90})

	assert.Equal(t, "Bridge Person", r.Frontier())
	assert.Equal(t, []string{"Tom Hanks", "Bridge Person"}, r.Path())
	assert.Empty(t, r.FailedCandidates())
	assert.Equal(t, 1, r.HopDepth())
	require.Len(t, r.VerifiedEdges(), 1)
}

func TestBudgetsExhaustedWhenEitherSearchOrRecogHitsMax(t *testing.T) {
	r := New("id1", "A", "B", Budgets{SearchMax: 2, RecogMax: 10})
	r.UseSearch()
	r.UseSearch()
	assert.True(t, r.Budgets().Exhausted())
}

func TestBudgetsNotExhaustedWhileLLMAloneIsSpent(t *testing.T) {
	r := New("id1", "A", "B", Budgets{SearchMax: 5, RecogMax: 5, LLMMax: 1})
	r.UseLLM()
	assert.False(t, r.Budgets().Exhausted())
}

func TestFinishSetsTerminalStatusAndReason(t *testing.T) {
	r := New("id1", "A", "B", Budgets{})
	r.Finish(StatusFailed, "budget exhausted")
	snap := r.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "budget exhausted", snap.Error)
}

func TestCancelOnlySucceedsOnceWhileRunning(t *testing.T) {
	r := New("id1", "A", "B", Budgets{})
	called := false
	r.SetCancel(func() { called = true })
	assert.True(t, r.Cancel())
	assert.True(t, called)

	r.Finish(StatusSuccess, "")
	assert.False(t, r.Cancel())
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager()
	r := m.Create("Tom Hanks", "Kevin Bacon", Budgets{SearchMax: 20})
	got, err := m.Get(r.ID)
	require.NoError(t, err)
	assert.Same(t, r, got)
}

func TestManagerGetUnknownIDErrors(t *testing.T) {
	m := NewManager()
	_, err := m.Get("nonexistent")
	assert.Error(t, err)
}

func TestManagerFinishedBeforeOnlyReturnsTerminalRuns(t *testing.T) {
	m := NewManager()
	running := m.Create("A", "B", Budgets{})
	finished := m.Create("C", "D", Budgets{})
	finished.Finish(StatusSuccess, "")

	ids := m.FinishedBefore(func(Snapshot) bool { return true })
	require.Len(t, ids, 1)
	assert.Equal(t, finished.ID, ids[0])
	assert.NotEqual(t, running.ID, ids[0])
}
