package api

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/photolink/coappear/pkg/config"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/graph"
	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/orchestrator"
	"github.com/photolink/coappear/pkg/ratelimit"
	"github.com/photolink/coappear/pkg/run"
	"github.com/photolink/coappear/pkg/verify"
)

// fakeGraphStore is an in-memory graphReader for handler tests.
type fakeGraphStore struct {
	full      *graph.FullGraph
	stats     *graph.Stats
	path      graph.PathResult
	pathErr   error
	names     map[string]string
	statsErr  error
	fullErr   error
}

func (f *fakeGraphStore) GetFullGraph(ctx context.Context) (*graph.FullGraph, error) {
	if f.fullErr != nil {
		return nil, f.fullErr
	}
	if f.full == nil {
		return &graph.FullGraph{}, nil
	}
	return f.full, nil
}

func (f *fakeGraphStore) GetStats(ctx context.Context) (*graph.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats == nil {
		return &graph.Stats{}, nil
	}
	return f.stats, nil
}

func (f *fakeGraphStore) FindPath(ctx context.Context, fromID, toID string) (graph.PathResult, error) {
	return f.path, f.pathErr
}

func (f *fakeGraphStore) NodeNames(ctx context.Context, ids []string) (map[string]string, error) {
	return f.names, nil
}

// fakeEdgeStore satisfies orchestrator's edgeStore interface without a
// database, for tests that never actually drive an investigation.
type fakeEdgeStore struct{}

func (fakeEdgeStore) UpsertEdge(ctx context.Context, aName, bName string, conf int, bestURL, bestThumb, contextURL string) (*graph.Edge, error) {
	return &graph.Edge{}, nil
}

type fakeImageSearch struct{}

func (fakeImageSearch) Search(ctx context.Context, query string) ([]oracle.ImageResult, error) {
	return nil, nil
}

type fakeVisionFilter struct{}

func (fakeVisionFilter) IsSingleScene(ctx context.Context, imageURL string) (oracle.SceneResult, error) {
	return oracle.SceneResult{Valid: true}, nil
}

type fakeFaceRecognizer struct{}

func (fakeFaceRecognizer) Recognize(ctx context.Context, imageURL string) ([]oracle.Detection, error) {
	return nil, nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) { return nil, nil }

// newTestServer builds a Server with fakes wired in for every oracle/store
// collaborator, suitable for exercising the HTTP layer without a database
// or live oracle endpoints.
func newTestServer(t *testing.T, gs graphReader) *Server {
	t.Helper()

	aliases, err := identity.NewAliasTable()
	require.NoError(t, err)

	pipeline := verify.New(fakeFetcher{}, fakeVisionFilter{}, fakeFaceRecognizer{}, nil, aliases, 80, slog.Default())
	orch := orchestrator.New(fakeEdgeStore{}, fakeImageSearch{}, pipeline, nil, aliases,
		events.NewGraphBroadcaster(), orchestrator.DefaultConfig(), slog.Default())

	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		Budgets:        config.BudgetConfig{Search: 20, Recog: 100, LLM: 15},
	}

	return NewServer(cfg, orch, nil, run.NewManager(), events.NewLogStore(time.Hour),
		gs, events.NewGraphBroadcaster(), ratelimit.New(1000, time.Hour, nil))
}
