// Package orchestrator implements the investigation state machine from
// spec.md §4.1: direct attempt, optional research, discovery, candidate
// selection, bridge verification, success/failure — driven by the
// verification pipeline, candidate engine, and planner adapter, and
// persisted through the graph store as it goes.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/graph"
	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/planner"
	"github.com/photolink/coappear/pkg/verify"
)

// edgeStore is the narrow slice of graph.Store the orchestrator needs,
// declared here so tests can substitute an in-memory fake rather than
// standing up a real database.
type edgeStore interface {
	UpsertEdge(ctx context.Context, aName, bName string, conf int, bestURL, bestThumb, contextURL string) (*graph.Edge, error)
}

// Config holds the orchestrator's tunable limits (spec.md §6 env keys).
type Config struct {
	HopLimit       int // default 6
	Threshold      int // default 80 (τ)
	ImagesPerQuery int // default 5, also the fan-out cap (spec.md §5)

	// EarlyStopCandidates/EarlyStopConfidence implement S3's "once ≥2
	// distinct candidates at ≥90 confidence exist" discovery early stop.
	EarlyStopCandidates  int
	EarlyStopConfidence  int
	VerifyEdgeMaxQueries int // up to 2, per VerifyEdge sub-procedure
	VerifyEdgeEarlyStop  int // early-stop at 3 accepted images
}

// DefaultConfig mirrors spec.md §6's recognised defaults.
func DefaultConfig() Config {
	return Config{
		HopLimit:             6,
		Threshold:            80,
		ImagesPerQuery:       5,
		EarlyStopCandidates:  2,
		EarlyStopConfidence:  90,
		VerifyEdgeMaxQueries: 2,
		VerifyEdgeEarlyStop:  3,
	}
}

// Status is the terminal outcome of an investigation (spec.md §4.1).
type Status string

const (
	StatusSuccess Status = "success"
	StatusNoPath  Status = "no_path"
	StatusError   Status = "error"
)

// Step is one hop of a successful path result.
type Step struct {
	From, To     string
	Confidence   int
	BestURL      string
	ThumbnailURL string
	ContextURL   string
}

// Result is the orchestrator's public contract return value
// (spec.md §4.1: `investigate(A,B) → Result`).
type Result struct {
	Status        Status
	Path          []string
	Steps         []Step
	Bottleneck    int
	Cumulative    float64
	Reason        string
	ErrorCategory string
	HopsReached   int
}

// Orchestrator drives one investigation's state machine. It holds no
// per-run mutable state itself — that lives on the run.Run passed to
// Investigate — so one Orchestrator value is shared safely across
// concurrently-running investigations (spec.md §5 "no shared mutable
// orchestrator state").
type Orchestrator struct {
	store     edgeStore
	search    oracle.ImageSearch
	pipeline  *verify.Pipeline
	planner   *planner.Planner // nil => "basic" planner, no research/ranking
	aliases   *identity.AliasTable
	broadcast *events.GraphBroadcaster
	cfg       Config
	logger    *slog.Logger
}

// New builds an Orchestrator. planner may be nil (spec.md §9 "Planner
// polymorphism" — the orchestrator degrades to fixed-query/top-candidate
// behaviour when no intelligent planner is configured).
func New(store edgeStore, search oracle.ImageSearch, pipeline *verify.Pipeline, p *planner.Planner, aliases *identity.AliasTable, broadcast *events.GraphBroadcaster, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{store: store, search: search, pipeline: pipeline, planner: p, aliases: aliases, broadcast: broadcast, cfg: cfg, logger: logger}
}
