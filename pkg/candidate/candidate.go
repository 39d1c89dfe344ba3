// Package candidate implements the aggregation step from spec.md §4.3:
// turning a set of per-image face-recognition analyses at the current
// frontier into a ranked list of co-appearing candidates.
package candidate

import (
	"sort"

	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/oracle"
)

// Threshold is the minimum recognition confidence a detection must meet
// to be credited (spec.md §4.3, same τ as verification).
const Threshold = 80

// Candidate is one person observed co-appearing with the frontier.
type Candidate struct {
	Name                   string
	CoappearCount          int
	BestCoappearConfidence int
	EvidenceContextURLs    map[string]struct{}
}

// Analysis is one image's detections plus the context it was found in.
type Analysis struct {
	Detections []oracle.Detection
	ContextURL string
}

// Aggregate builds the candidate list for a frontier across a batch of
// analyses, excluding the frontier itself and anyone already on the path.
func Aggregate(frontier string, pathSoFar []string, analyses []Analysis, aliases *identity.AliasTable) []Candidate {
	excluded := append([]string{frontier}, pathSoFar...)

	byNormalisedName := make(map[string]*Candidate)
	for _, a := range analyses {
		if !frontierDetected(a.Detections, frontier, aliases) {
			continue
		}
		for _, d := range a.Detections {
			if d.Confidence < Threshold {
				continue
			}
			if matchesAny(d.Name, excluded, aliases) {
				continue
			}
			credit(byNormalisedName, d, a.ContextURL, aliases)
		}
	}

	candidates := make([]Candidate, 0, len(byNormalisedName))
	for _, c := range byNormalisedName {
		candidates = append(candidates, *c)
	}
	sortCandidates(candidates)
	return candidates
}

func frontierDetected(detections []oracle.Detection, frontier string, aliases *identity.AliasTable) bool {
	for _, d := range detections {
		if d.Confidence >= Threshold && identity.Matches(d.Name, frontier, aliases) {
			return true
		}
	}
	return false
}

func matchesAny(name string, targets []string, aliases *identity.AliasTable) bool {
	for _, t := range targets {
		if identity.Matches(name, t, aliases) {
			return true
		}
	}
	return false
}

// credit folds one detection into the candidate it matches, deduplicating
// by the §4.3 name-matching rules rather than exact string equality so
// "Tom Hanks" and "Hanks Tom" accumulate into the same record.
func credit(byNormalisedName map[string]*Candidate, d oracle.Detection, contextURL string, aliases *identity.AliasTable) {
	key := identity.Normalise(d.Name)
	for existingKey, c := range byNormalisedName {
		if existingKey == key || identity.Matches(d.Name, c.Name, aliases) {
			c.CoappearCount++
			if d.Confidence > c.BestCoappearConfidence {
				c.BestCoappearConfidence = d.Confidence
			}
			if contextURL != "" {
				c.EvidenceContextURLs[contextURL] = struct{}{}
			}
			return
		}
	}

	c := &Candidate{
		Name:                   d.Name,
		CoappearCount:          1,
		BestCoappearConfidence: d.Confidence,
		EvidenceContextURLs:    map[string]struct{}{},
	}
	if contextURL != "" {
		c.EvidenceContextURLs[contextURL] = struct{}{}
	}
	byNormalisedName[key] = c
}

// sortCandidates orders by bestCoappearConfidence desc, then
// coappearCount desc (spec.md §4.3).
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].BestCoappearConfidence != candidates[j].BestCoappearConfidence {
			return candidates[i].BestCoappearConfidence > candidates[j].BestCoappearConfidence
		}
		return candidates[i].CoappearCount > candidates[j].CoappearCount
	})
}
