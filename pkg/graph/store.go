// Package graph implements the persistent social graph and its BFS
// shortest-path engine (spec.md §4.6).
package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/bun"

	"github.com/photolink/coappear/pkg/identity"
)

// ErrSelfLoop is returned by UpsertEdge when a==b.
var ErrSelfLoop = errors.New("graph: self-loop edges are not allowed")

// Store persists Nodes and Edges and answers shortest-path queries. It is
// one of the two process-wide singletons allowed by spec.md §9.
type Store struct {
	db *bun.DB

	pathCacheMu sync.Mutex
	pathCache   map[pathCacheKey]PathResult
	adjVersion  uint64 // bumped on every successful upsert, invalidating the cache
}

type pathCacheKey struct {
	from, to string
	version  uint64
}

// NewStore wraps an already-migrated bun.DB.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db, pathCache: make(map[pathCacheKey]PathResult)}
}

// UpsertNode inserts a Person or no-ops if one already exists for the
// normalised name, upgrading the thumbnail if one is newly provided.
func (s *Store) UpsertNode(ctx context.Context, name, thumbnailURL string) (*Node, error) {
	return upsertNode(ctx, s.db, name, thumbnailURL)
}

// upsertNode runs the node upsert against any bun.IDB (a *bun.DB or a
// bun.Tx), so UpsertEdge can create both endpoint nodes in the same
// transaction as the edge insert.
func upsertNode(ctx context.Context, db bun.IDB, name, thumbnailURL string) (*Node, error) {
	normalised := identity.Normalise(name)
	id := identity.NodeID(normalised)

	node := &Node{
		ID:             id,
		Name:           name,
		NormalisedName: normalised,
		ThumbnailURL:   thumbnailURL,
	}

	_, err := db.NewInsert().
		Model(node).
		On("CONFLICT (id) DO UPDATE").
		Set("thumbnail_url = CASE WHEN EXCLUDED.thumbnail_url <> '' THEN EXCLUDED.thumbnail_url ELSE nodes.thumbnail_url END").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert node: %w", err)
	}

	if err := db.NewSelect().Model(node).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("read back node: %w", err)
	}
	return node, nil
}

// UpsertEdge records a Co-appearance observation, creating both endpoint
// nodes on demand if they don't already exist (spec.md §4.6) before the
// edge insert, since edges.source_id/target_id carry a NOT NULL foreign
// key into nodes. Confidence becomes max(old,new); the best-evidence
// triple is replaced iff the new confidence strictly exceeds the old
// (spec.md §3, §4.6). Node creation and the edge upsert happen in one
// transaction so a crash between the two never leaves a dangling edge.
func (s *Store) UpsertEdge(ctx context.Context, aName, bName string, conf int, bestURL, bestThumb, contextURL string) (*Edge, error) {
	aID := identity.NodeIDForName(aName)
	bID := identity.NodeIDForName(bName)
	if aID == bID {
		return nil, ErrSelfLoop
	}

	sourceID, targetID := aID, bID
	sourceName, targetName := aName, bName
	if sourceID > targetID {
		sourceID, targetID = targetID, sourceID
		sourceName, targetName = targetName, sourceName
	}
	edgeID := sourceID + ":" + targetID

	edge := &Edge{
		ID:              edgeID,
		SourceID:        sourceID,
		TargetID:        targetID,
		Confidence:      conf,
		BestEvidenceURL: bestURL,
		BestThumbnail:   bestThumb,
		ContextURL:      contextURL,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := upsertNode(ctx, tx, sourceName, ""); err != nil {
			return fmt.Errorf("upsert source node: %w", err)
		}
		if _, err := upsertNode(ctx, tx, targetName, ""); err != nil {
			return fmt.Errorf("upsert target node: %w", err)
		}

		_, err := tx.NewInsert().
			Model(edge).
			On("CONFLICT (id) DO UPDATE").
			Set("confidence = GREATEST(edges.confidence, EXCLUDED.confidence)").
			Set(`best_evidence_url = CASE WHEN EXCLUDED.confidence > edges.confidence THEN EXCLUDED.best_evidence_url ELSE edges.best_evidence_url END`).
			Set(`best_thumbnail = CASE WHEN EXCLUDED.confidence > edges.confidence THEN EXCLUDED.best_thumbnail ELSE edges.best_thumbnail END`).
			Set(`context_url = CASE WHEN EXCLUDED.confidence > edges.confidence THEN EXCLUDED.context_url ELSE edges.context_url END`).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert edge: %w", err)
		}

		if err := tx.NewSelect().Model(edge).Where("id = ?", edgeID).Scan(ctx); err != nil {
			return fmt.Errorf("read back edge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pathCacheMu.Lock()
	s.adjVersion++
	s.pathCacheMu.Unlock()

	return edge, nil
}

// FullGraph is the §6 `/graph` snapshot shape.
type FullGraph struct {
	Nodes []*Node
	Edges []*Edge
}

// GetFullGraph returns every node and edge currently persisted.
func (s *Store) GetFullGraph(ctx context.Context) (*FullGraph, error) {
	var nodes []*Node
	if err := s.db.NewSelect().Model(&nodes).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	var edges []*Edge
	if err := s.db.NewSelect().Model(&edges).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	return &FullGraph{Nodes: nodes, Edges: edges}, nil
}

// Stats is the §6 `/graph/stats` summary shape.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	AvgConfidence float64
}

// GetStats summarises the graph's size and average edge confidence.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	nodeCount, err := s.db.NewSelect().Model((*Node)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	edgeCount, err := s.db.NewSelect().Model((*Edge)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}

	stats := &Stats{NodeCount: nodeCount, EdgeCount: edgeCount}
	if edgeCount == 0 {
		return stats, nil
	}

	var avg sql.NullFloat64
	if err := s.db.NewSelect().Model((*Edge)(nil)).ColumnExpr("AVG(confidence)").Scan(ctx, &avg); err != nil {
		return nil, fmt.Errorf("average confidence: %w", err)
	}
	stats.AvgConfidence = avg.Float64
	return stats, nil
}

// PathStep is one hop of a resolved path.
type PathStep struct {
	From, To     string
	Confidence   int
	Thumbnail    string
	ContextURL   string
}

// PathResult is the §4.6 `findPath` result shape.
type PathResult struct {
	Found         bool
	Path          []string // node ids, including endpoints
	Steps         []PathStep
	Hops          int
	MinConfidence int
}

// FindPath returns the shortest (by hop count) path between two node ids
// via unweighted BFS over the undirected adjacency, with a deterministic
// tie-break (lowest node id first) for a given adjacency snapshot.
// Results are cached until the next successful UpsertEdge invalidates
// them (spec.md §4.7's "cached lookup first").
func (s *Store) FindPath(ctx context.Context, fromID, toID string) (PathResult, error) {
	if fromID == toID {
		exists, err := s.nodeExists(ctx, fromID)
		if err != nil {
			return PathResult{}, err
		}
		if !exists {
			return PathResult{Found: false}, nil
		}
		return PathResult{Found: true, Path: []string{fromID}, Hops: 0, MinConfidence: 100}, nil
	}

	s.pathCacheMu.Lock()
	version := s.adjVersion
	key := pathCacheKey{from: fromID, to: toID, version: version}
	if cached, ok := s.pathCache[key]; ok {
		s.pathCacheMu.Unlock()
		return cached, nil
	}
	s.pathCacheMu.Unlock()

	var edges []*Edge
	if err := s.db.NewSelect().Model(&edges).Scan(ctx); err != nil {
		return PathResult{}, fmt.Errorf("load edges for BFS: %w", err)
	}

	result := bfsShortestPath(edges, fromID, toID)

	s.pathCacheMu.Lock()
	if version == s.adjVersion {
		s.pathCache[key] = result
	}
	s.pathCacheMu.Unlock()

	return result, nil
}

func (s *Store) nodeExists(ctx context.Context, id string) (bool, error) {
	count, err := s.db.NewSelect().Model((*Node)(nil)).Where("id = ?", id).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("check node exists: %w", err)
	}
	return count > 0, nil
}

// NodeNames resolves canonical node IDs (as returned by FindPath) back to
// their display names, for callers presenting a path to a client.
func (s *Store) NodeNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var nodes []*Node
	if err := s.db.NewSelect().Model(&nodes).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("resolve node names: %w", err)
	}
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.ID] = n.Name
	}
	return names, nil
}

func bfsShortestPath(edges []*Edge, fromID, toID string) PathResult {
	type adjEntry struct {
		neighbor   string
		confidence int
		thumbnail  string
		contextURL string
	}
	adjacency := make(map[string][]adjEntry)
	addEdge := func(a, b string, e *Edge) {
		adjacency[a] = append(adjacency[a], adjEntry{
			neighbor:   b,
			confidence: e.Confidence,
			thumbnail:  e.BestThumbnail,
			contextURL: e.ContextURL,
		})
	}
	for _, e := range edges {
		addEdge(e.SourceID, e.TargetID, e)
		addEdge(e.TargetID, e.SourceID, e)
	}
	for _, neighbors := range adjacency {
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].neighbor < neighbors[j].neighbor })
	}

	type queueItem struct {
		node string
	}
	visited := map[string]bool{fromID: true}
	parent := make(map[string]adjEntry)
	queue := []queueItem{{node: fromID}}

	found := false
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.node == toID {
			found = true
			break
		}
		for _, entry := range adjacency[cur.node] {
			if visited[entry.neighbor] {
				continue
			}
			visited[entry.neighbor] = true
			parent[entry.neighbor] = adjEntry{neighbor: cur.node, confidence: entry.confidence, thumbnail: entry.thumbnail, contextURL: entry.contextURL}
			queue = append(queue, queueItem{node: entry.neighbor})
		}
	}

	if !found {
		return PathResult{Found: false}
	}

	var path []string
	var steps []PathStep
	node := toID
	for node != fromID {
		p := parent[node]
		steps = append([]PathStep{{From: p.neighbor, To: node, Confidence: p.confidence, Thumbnail: p.thumbnail, ContextURL: p.contextURL}}, steps...)
		path = append([]string{node}, path...)
		node = p.neighbor
	}
	path = append([]string{fromID}, path...)

	minConf := 100
	for _, st := range steps {
		if st.Confidence < minConf {
			minConf = st.Confidence
		}
	}

	return PathResult{
		Found:         true,
		Path:          path,
		Steps:         steps,
		Hops:          len(steps),
		MinConfidence: minConf,
	}
}
