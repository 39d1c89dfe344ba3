package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/photolink/coappear/pkg/candidate"
)

func TestBasicSelectNextPicksHighestRankedUnfailedCandidate(t *testing.T) {
	candidates := []candidate.Candidate{
		{Name: "Low", BestCoappearConfidence: 60, CoappearCount: 1},
		{Name: "High", BestCoappearConfidence: 95, CoappearCount: 3},
	}
	sel := basicSelectNext(candidates, nil)
	assert.Equal(t, []string{"High"}, sel.NextCandidates)
	assert.False(t, sel.Stop)
}

func TestBasicSelectNextSkipsFailedCandidates(t *testing.T) {
	candidates := []candidate.Candidate{
		{Name: "High", BestCoappearConfidence: 95},
		{Name: "Second", BestCoappearConfidence: 90},
	}
	sel := basicSelectNext(candidates, []string{"High"})
	assert.Equal(t, []string{"Second"}, sel.NextCandidates)
}

func TestBasicSelectNextStopsWhenAllCandidatesFailed(t *testing.T) {
	candidates := []candidate.Candidate{{Name: "Only", BestCoappearConfidence: 90}}
	sel := basicSelectNext(candidates, []string{"Only"})
	assert.True(t, sel.Stop)
}

func TestToPlannerCandidatesPreservesFields(t *testing.T) {
	candidates := []candidate.Candidate{
		{Name: "A", CoappearCount: 2, BestCoappearConfidence: 88, EvidenceContextURLs: map[string]struct{}{"https://x": {}}},
	}
	out := toPlannerCandidates(candidates)
	assert.Equal(t, "A", out[0].Name)
	assert.Equal(t, 2, out[0].CoappearCount)
	assert.Equal(t, 88.0, out[0].BestCoappearConfidence)
	assert.Equal(t, []string{"https://x"}, out[0].EvidenceContextURLs)
}
