// Package planner adapts a schema-bound LLM into the set of strategic
// decisions the orchestrator needs: parsing a free-text query, researching a
// connection, proposing bridge candidates, ranking them, generating search
// queries, picking the next expansion, and arbitrating ambiguous verification
// images. Every entry point follows the same shape: call the LLM with a
// timeout and size limit, extract the first JSON object from the response,
// validate it against the expected fields, and fall back to a deterministic
// heuristic on any failure.
package planner

// ParsedQuery is the result of parseQuery.
type ParsedQuery struct {
	PersonA    string  `json:"personA"`
	PersonB    string  `json:"personB"`
	IsValid    bool    `json:"isValid"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Research is the result of researchConnection.
type Research struct {
	Summary          string   `json:"summary"`
	Industries       []string `json:"industries"`
	EventTypes       []string `json:"eventTypes"`
	BridgeTypes      []string `json:"bridgeTypes"`
	SuggestedQueries []string `json:"suggestedQueries"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
}

// BridgeCandidate is one suggestion returned by suggestBridgeCandidates.
type BridgeCandidate struct {
	Name             string  `json:"name"`
	Reasoning        string  `json:"reasoning"`
	ConnectionToA    string  `json:"connectionToA"`
	ConnectionToB    string  `json:"connectionToB"`
	Confidence       float64 `json:"confidence"`
}

// maxSuggestedBridgeCandidates caps suggestBridgeCandidates output (§4.4).
const maxSuggestedBridgeCandidates = 10

// RankedCandidate is one entry in a rankCandidatesStrategically result.
type RankedCandidate struct {
	Name       string  `json:"name"`
	Rank       int     `json:"rank"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Ranking is the result of rankCandidatesStrategically.
type Ranking struct {
	RankedCandidates []RankedCandidate `json:"rankedCandidates"`
	Strategy         string            `json:"strategy"`
	Hypothesis       string            `json:"hypothesis"`
}

// Candidate is the input shape the orchestrator's candidate engine produces
// and that selectNextExpansion/rankCandidatesStrategically consume.
type Candidate struct {
	Name                   string   `json:"name"`
	CoappearCount          int      `json:"coappearCount"`
	BestCoappearConfidence float64  `json:"bestCoappearConfidence"`
	EvidenceContextURLs    []string `json:"evidenceContextUrls"`
}

// Selection is the result of selectNextExpansion.
type Selection struct {
	NextCandidates []string `json:"nextCandidates"`
	SearchQueries  []string `json:"searchQueries"`
	Narration      string   `json:"narration"`
	Stop           bool     `json:"stop"`
	Reason         string   `json:"reason,omitempty"`
}

// maxNextCandidates and maxSearchQueries bound selectNextExpansion's output (§4.4).
const (
	maxNextCandidates = 2
	maxSearchQueries  = 4
)

// SceneVerification is the result of verifyCelebritiesInImage.
type SceneVerification struct {
	PersonAFound        bool    `json:"personAFound"`
	PersonAConfidence   float64 `json:"personAConfidence"`
	PersonBFound        bool    `json:"personBFound"`
	PersonBConfidence   float64 `json:"personBConfidence"`
	TogetherInScene     bool    `json:"togetherInScene"`
	OverallConfidence   float64 `json:"overallConfidence"`
	Notes               string  `json:"notes,omitempty"`
}

// SelectNextExpansionInput bundles the state selectNextExpansion reasons over.
type SelectNextExpansionInput struct {
	Frontier         string
	Target           string
	Candidates       []Candidate
	FailedCandidates []string
	Research         *Research
	SearchBudgetLeft int
	RecogBudgetLeft  int
}
