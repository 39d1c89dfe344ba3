package planner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/photolink/coappear/pkg/identity"
)

// Planner wraps a Completer with the schema-bound-call-plus-fallback shape
// described by every entry point in §4.4.
type Planner struct {
	llm    Completer
	logger *slog.Logger
}

// New builds a Planner around the given completion backend.
func New(llm Completer, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{llm: llm, logger: logger}
}

// call runs prompt through the LLM and decodes the first JSON object in the
// response into out. Every caller treats a non-nil error as "use the
// fallback" — the specific reason is only logged.
func (p *Planner) call(ctx context.Context, entryPoint, prompt string, out any) error {
	raw, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		p.logger.Warn("planner call failed", "entry_point", entryPoint, "error", err)
		return err
	}
	if err := extractJSON(raw, out); err != nil {
		p.logger.Warn("planner response failed schema validation", "entry_point", entryPoint, "error", err)
		return err
	}
	return nil
}

// --- parseQuery ---------------------------------------------------------

var connectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*connect\s+(.+?)\s+to\s+(.+?)\s*$`),
	regexp.MustCompile(`(?i)^\s*how\s+is\s+(.+?)\s+connected\s+to\s+(.+?)\s*\??\s*$`),
	regexp.MustCompile(`(?i)^\s*(.+?)\s+to\s+(.+?)\s*$`),
	regexp.MustCompile(`(?i)^\s*(.+?)\s+and\s+(.+?)\s*$`),
}

// ParseQuery extracts two person names from a free-text query.
func (p *Planner) ParseQuery(ctx context.Context, text string) ParsedQuery {
	var out ParsedQuery
	prompt := fmt.Sprintf(
		"Extract two person names from this query and return JSON {personA, personB, isValid, confidence, reason}.\nQuery: %s",
		text)
	if err := p.call(ctx, "parseQuery", prompt, &out); err == nil && out.PersonA != "" && out.PersonB != "" {
		return out
	}
	return fallbackParseQuery(text)
}

func fallbackParseQuery(text string) ParsedQuery {
	for _, re := range connectPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		a, b := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if a == "" || b == "" {
			continue
		}
		return ParsedQuery{PersonA: a, PersonB: b, IsValid: true, Confidence: 50, Reason: "regex fallback"}
	}
	return ParsedQuery{IsValid: false, Reason: "no recognisable 'X to Y' pattern"}
}

// --- researchConnection --------------------------------------------------

// ResearchConnection gathers background on how two people might connect.
func (p *Planner) ResearchConnection(ctx context.Context, personA, personB string) Research {
	var out Research
	prompt := fmt.Sprintf(
		"Research a plausible real-world connection between %q and %q. Return JSON "+
			"{summary, industries[], eventTypes[], bridgeTypes[], suggestedQueries[], confidence, reasoning}.",
		personA, personB)
	if err := p.call(ctx, "researchConnection", prompt, &out); err == nil {
		return out
	}
	return Research{
		Summary:          fmt.Sprintf("no research available for %s / %s", personA, personB),
		SuggestedQueries: []string{personA + " " + personB, personA + " and " + personB + " together"},
		Confidence:       0,
		Reasoning:        "fallback: planner unavailable",
	}
}

// --- suggestBridgeCandidates ---------------------------------------------

// SuggestBridgeCandidates asks for people who might bridge A and B.
func (p *Planner) SuggestBridgeCandidates(ctx context.Context, personA, personB string, exclude []string) []BridgeCandidate {
	var out struct {
		Candidates []BridgeCandidate `json:"candidates"`
	}
	prompt := fmt.Sprintf(
		"Suggest people who might connect %q and %q, excluding %v. Return JSON "+
			"{candidates: [{name, reasoning, connectionToA, connectionToB, confidence}]}, at most %d entries.",
		personA, personB, exclude, maxSuggestedBridgeCandidates)
	if err := p.call(ctx, "suggestBridgeCandidates", prompt, &out); err != nil {
		return nil
	}
	if len(out.Candidates) > maxSuggestedBridgeCandidates {
		out.Candidates = out.Candidates[:maxSuggestedBridgeCandidates]
	}
	return out.Candidates
}

// --- rankCandidatesStrategically -----------------------------------------

// RankCandidatesStrategically orders candidates by strategic value toward target.
func (p *Planner) RankCandidatesStrategically(ctx context.Context, frontier, target string, candidates []Candidate, research *Research) Ranking {
	var out Ranking
	prompt := fmt.Sprintf(
		"Given frontier person %q, target person %q, and candidates %+v (research: %+v), "+
			"rank candidates by likelihood of leading toward the target. Return JSON "+
			"{rankedCandidates: [{name, rank, confidence, reasoning}], strategy, hypothesis}.",
		frontier, target, candidates, research)
	if err := p.call(ctx, "rankCandidatesStrategically", prompt, &out); err == nil && len(out.RankedCandidates) > 0 {
		return out
	}
	return fallbackRanking(candidates)
}

func fallbackRanking(candidates []Candidate) Ranking {
	sorted := append([]Candidate(nil), candidates...)
	sortCandidatesByConfidenceThenCount(sorted)

	ranked := make([]RankedCandidate, len(sorted))
	for i, c := range sorted {
		ranked[i] = RankedCandidate{Name: c.Name, Rank: i + 1, Confidence: c.BestCoappearConfidence, Reasoning: "fallback: sorted by coappearance strength"}
	}
	return Ranking{RankedCandidates: ranked, Strategy: "fallback", Hypothesis: "no research available"}
}

func sortCandidatesByConfidenceThenCount(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].BestCoappearConfidence != candidates[j].BestCoappearConfidence {
			return candidates[i].BestCoappearConfidence > candidates[j].BestCoappearConfidence
		}
		return candidates[i].CoappearCount > candidates[j].CoappearCount
	})
}

// --- generateSmartQueries / generateFrontierQueries -----------------------

// GenerateSmartQueries generates search queries given research context.
func (p *Planner) GenerateSmartQueries(ctx context.Context, personA, personB string, research *Research) []string {
	var out struct {
		Queries []string `json:"queries"`
	}
	prompt := fmt.Sprintf("Generate image search queries to verify a connection between %q and %q, given research %+v. Return JSON {queries: [string]}.", personA, personB, research)
	if err := p.call(ctx, "generateSmartQueries", prompt, &out); err == nil && len(out.Queries) > 0 {
		return out.Queries
	}
	return []string{personA + " " + personB, personA + " and " + personB + " event"}
}

// GenerateFrontierQueries generates search queries for the current frontier node.
func (p *Planner) GenerateFrontierQueries(ctx context.Context, frontier, target string) []string {
	var out struct {
		Queries []string `json:"queries"`
	}
	prompt := fmt.Sprintf("Generate image search queries likely to surface people appearing alongside %q, useful for reaching %q. Return JSON {queries: [string]}.", frontier, target)
	if err := p.call(ctx, "generateFrontierQueries", prompt, &out); err == nil && len(out.Queries) > 0 {
		return out.Queries
	}
	return []string{frontier + " photos", frontier + " event"}
}

// --- selectNextExpansion --------------------------------------------------

// SelectNextExpansion chooses up to 2 candidates to expand next. The output
// is rejected unless nextCandidates is non-empty and every name matches
// (normalised) one of the provided candidates — in that case the caller's
// deterministic fallback runs instead.
func (p *Planner) SelectNextExpansion(ctx context.Context, in SelectNextExpansionInput) Selection {
	var out Selection
	prompt := fmt.Sprintf(
		"Frontier %q, target %q, candidates %+v, failed %v, search budget left %d, recognition budget left %d. "+
			"Choose at most %d candidates to pursue next and up to %d search queries. Return JSON "+
			"{nextCandidates: [string], searchQueries: [string], narration, stop, reason}.",
		in.Frontier, in.Target, in.Candidates, in.FailedCandidates, in.SearchBudgetLeft, in.RecogBudgetLeft,
		maxNextCandidates, maxSearchQueries)

	if err := p.call(ctx, "selectNextExpansion", prompt, &out); err == nil && validSelection(out, in.Candidates) {
		return out
	}
	return fallbackSelectNextExpansion(in)
}

func validSelection(sel Selection, candidates []Candidate) bool {
	if sel.Stop {
		return true
	}
	if len(sel.NextCandidates) == 0 {
		return false
	}
	for _, name := range sel.NextCandidates {
		if !candidateNamesInclude(candidates, name) {
			return false
		}
	}
	return true
}

func candidateNamesInclude(candidates []Candidate, name string) bool {
	normalised := identity.Normalise(name)
	for _, c := range candidates {
		if identity.Normalise(c.Name) == normalised {
			return true
		}
	}
	return false
}

func fallbackSelectNextExpansion(in SelectNextExpansionInput) Selection {
	eligible := make([]Candidate, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		if !stringSliceContainsNormalised(in.FailedCandidates, c.Name) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return Selection{Stop: true, Reason: "no eligible candidates remain"}
	}
	sortCandidatesByConfidenceThenCount(eligible)

	top := eligible[0]
	return Selection{
		NextCandidates: []string{top.Name},
		SearchQueries:  []string{top.Name + " " + in.Target},
		Narration:      fmt.Sprintf("fallback: pursuing %s (strongest remaining candidate)", top.Name),
	}
}

func stringSliceContainsNormalised(names []string, target string) bool {
	normalised := identity.Normalise(target)
	for _, n := range names {
		if identity.Normalise(n) == normalised {
			return true
		}
	}
	return false
}

// --- verifyCelebritiesInImage ---------------------------------------------

// VerifyCelebritiesInImage asks the planner to arbitrate an ambiguous image
// when the face recognizer alone couldn't confirm both targets.
func (p *Planner) VerifyCelebritiesInImage(ctx context.Context, imageURL, personA, personB string) SceneVerification {
	var out SceneVerification
	prompt := fmt.Sprintf(
		"Look at the image at %s and determine whether %q and %q both appear together. Return JSON "+
			"{personAFound, personAConfidence, personBFound, personBConfidence, togetherInScene, overallConfidence, notes}.",
		imageURL, personA, personB)
	if err := p.call(ctx, "verifyCelebritiesInImage", prompt, &out); err != nil {
		return SceneVerification{Notes: "fallback: planner unavailable, treated as unverified"}
	}
	return out
}

// --- isSingleScene ----------------------------------------------------------

// IsSingleScene asks whether an image depicts a single scene rather than a
// collage/composite. This is a thin planner-backed alternative used only
// when no dedicated VisionFilter oracle result is available.
func (p *Planner) IsSingleScene(ctx context.Context, imageURL string) (bool, string) {
	var out struct {
		IsSingleScene bool   `json:"isSingleScene"`
		Reason        string `json:"reason"`
	}
	prompt := fmt.Sprintf("Does the image at %s depict a single photographic scene (not a collage/composite)? Return JSON {isSingleScene, reason}.", imageURL)
	if err := p.call(ctx, "isSingleScene", prompt, &out); err != nil {
		return true, "fallback: assumed single scene, planner unavailable"
	}
	return out.IsSingleScene, out.Reason
}
