package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/photolink/coappear/pkg/identity"
)

// newTestStore spins up a throwaway Postgres container, migrates it, and
// returns a Store against it. Skips with t.Skip when Docker is
// unavailable, matching the teacher's integration-test convention.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed test in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("coappear"),
		postgres.WithUsername("coappear"),
		postgres.WithPassword("coappear"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		t.Skipf("docker unavailable, skipping integration test: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := OpenDB(ctx, DefaultDBConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db)
}

func TestUpsertEdgeIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertEdge(ctx, "Elon Musk", "Beyonce", 92, "u1", "t1", "c1")
	require.NoError(t, err)
	edge1, err := store.UpsertEdge(ctx, "Elon Musk", "Beyonce", 92, "u1", "t1", "c1")
	require.NoError(t, err)

	assert := require.New(t)
	assert.Equal(92, edge1.Confidence)
}

func TestUpsertEdgeConfidenceIsRunningMax(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertEdge(ctx, "A", "B", 60, "low.jpg", "low-thumb", "low-ctx")
	require.NoError(t, err)

	edge, err := store.UpsertEdge(ctx, "A", "B", 45, "ignored.jpg", "ignored-thumb", "ignored-ctx")
	require.NoError(t, err)
	require.Equal(t, 60, edge.Confidence, "lower observation must not decrease confidence")
	require.Equal(t, "low.jpg", edge.BestEvidenceURL, "best evidence must not be replaced by a lower-score observation")

	edge, err = store.UpsertEdge(ctx, "A", "B", 92, "high.jpg", "high-thumb", "high-ctx")
	require.NoError(t, err)
	require.Equal(t, 92, edge.Confidence)
	require.Equal(t, "high.jpg", edge.BestEvidenceURL)
}

func TestUpsertEdgeSamePairEitherOrderResolvesToSameID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e1, err := store.UpsertEdge(ctx, "Alice", "Bob", 80, "", "", "")
	require.NoError(t, err)
	e2, err := store.UpsertEdge(ctx, "Bob", "Alice", 80, "", "", "")
	require.NoError(t, err)

	require.Equal(t, e1.ID, e2.ID)
}

func TestUpsertEdgeRejectsSelfLoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertEdge(ctx, "Alice", "Alice", 90, "", "", "")
	require.ErrorIs(t, err, ErrSelfLoop)
}

func TestFindPathTrivialSameNode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	node, err := store.UpsertNode(ctx, "Alice", "")
	require.NoError(t, err)

	result, err := store.FindPath(ctx, node.ID, node.ID)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, 0, result.Hops)
	require.Equal(t, 100, result.MinConfidence)
}

func TestFindPathViaDatabase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertEdge(ctx, "Alice", "Mallory", 95, "", "", "")
	require.NoError(t, err)
	_, err = store.UpsertEdge(ctx, "Mallory", "Bob", 88, "", "", "")
	require.NoError(t, err)

	aliceID := identity.NodeIDForName("Alice")
	bobID := identity.NodeIDForName("Bob")

	result, err := store.FindPath(ctx, aliceID, bobID)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, 2, result.Hops)
	require.Equal(t, 88, result.MinConfidence)
}

func TestNodeNamesResolvesIDsToDisplayNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice, err := store.UpsertNode(ctx, "Alice", "")
	require.NoError(t, err)
	bob, err := store.UpsertNode(ctx, "Bob", "")
	require.NoError(t, err)

	names, err := store.NodeNames(ctx, []string{alice.ID, bob.ID})
	require.NoError(t, err)
	require.Equal(t, "Alice", names[alice.ID])
	require.Equal(t, "Bob", names[bob.ID])
}

func TestNodeNamesEmptyInputReturnsEmptyMap(t *testing.T) {
	store := newTestStore(t)

	names, err := store.NodeNames(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, names)
}
