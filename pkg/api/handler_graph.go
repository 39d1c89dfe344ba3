package api

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// graphSnapshotHandler handles GET /graph.
func (s *Server) graphSnapshotHandler(c *echo.Context) error {
	full, err := s.graphStore.GetFullGraph(c.Request().Context())
	if err != nil {
		return mapError(err)
	}

	resp := &GraphSnapshotResponse{
		Nodes: make([]GraphNode, len(full.Nodes)),
		Edges: make([]GraphEdge, len(full.Edges)),
	}
	for i, n := range full.Nodes {
		resp.Nodes[i] = GraphNode{ID: n.ID, Name: n.Name, ThumbnailURL: n.ThumbnailURL}
	}
	for i, e := range full.Edges {
		resp.Edges[i] = GraphEdge{
			ID: e.ID, Source: e.SourceID, Target: e.TargetID, Confidence: e.Confidence,
			ThumbnailURL: e.BestThumbnail, ContextURL: e.ContextURL, EvidenceURL: e.BestEvidenceURL,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// graphStatsHandler handles GET /graph/stats.
func (s *Server) graphStatsHandler(c *echo.Context) error {
	stats, err := s.graphStore.GetStats(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, &GraphStatsResponse{
		NodeCount: stats.NodeCount, EdgeCount: stats.EdgeCount, AvgConfidence: stats.AvgConfidence,
	})
}

// graphPathHandler handles GET /graph/path?from=&to=.
func (s *Server) graphPathHandler(c *echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" || to == "" {
		return httpError(http.StatusBadRequest, CategoryValidation, "from and to are required")
	}

	result, err := s.graphStore.FindPath(c.Request().Context(), from, to)
	if err != nil {
		return mapError(err)
	}

	resp := &GraphPathResponse{Found: result.Found, Path: result.Path, Hops: result.Hops, MinConfidence: result.MinConfidence}
	resp.Steps = make([]GraphPathStep, len(result.Steps))
	for i, step := range result.Steps {
		resp.Steps[i] = GraphPathStep{
			From: step.From, To: step.To, Confidence: step.Confidence,
			Thumbnail: step.Thumbnail, ContextURL: step.ContextURL,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// graphWSHandler handles GET /graph/ws: a process-wide feed of every
// edge upserted anywhere, independent of any single run (spec.md §6).
func (s *Server) graphWSHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return nil
	}
	defer conn.CloseNow()

	id, deregister := s.connManager.Register()
	defer deregister()
	_ = id

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	go pumpIncoming(ctx, conn, cancel, func() {
		_ = writeWS(ctx, conn, wsMessage{Type: "pong"})
	})

	ch, unsubscribe := s.broadcast.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeWS(ctx, conn, wsMessage{Type: "edge_update", Data: update}); err != nil {
				return nil
			}
		}
	}
}
