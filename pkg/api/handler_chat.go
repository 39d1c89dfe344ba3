package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/photolink/coappear/pkg/confidence"
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/graph"
	"github.com/photolink/coappear/pkg/identity"
	"github.com/photolink/coappear/pkg/run"
)

// parseQueryHandler handles POST /chat/parse.
func (s *Server) parseQueryHandler(c *echo.Context) error {
	var req ParseQueryRequest
	if err := c.Bind(&req); err != nil {
		return httpError(http.StatusBadRequest, CategoryValidation, "malformed request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return httpError(http.StatusBadRequest, CategoryValidation, "text is required")
	}

	if s.planner != nil {
		parsed := s.planner.ParseQuery(c.Request().Context(), req.Text)
		return c.JSON(http.StatusOK, &ParseQueryResponse{
			PersonA: parsed.PersonA, PersonB: parsed.PersonB,
			IsValid: parsed.IsValid, Confidence: parsed.Confidence, Reason: parsed.Reason,
		})
	}

	a, b, ok := basicSplitNames(req.Text)
	if !ok {
		return c.JSON(http.StatusOK, &ParseQueryResponse{
			IsValid: false, Reason: "could not identify two names; expected a form like \"A and B\"",
		})
	}
	return c.JSON(http.StatusOK, &ParseQueryResponse{PersonA: a, PersonB: b, IsValid: true, Confidence: 0.6})
}

// basicSplitNames is the no-planner fallback for parseQueryHandler: split
// on the first occurrence of a connective word, consistent with the
// orchestrator's own "basic" degraded-mode philosophy (spec.md §9
// "Planner polymorphism").
func basicSplitNames(text string) (a, b string, ok bool) {
	for _, sep := range []string{" and ", " & ", ", "} {
		if idx := strings.Index(text, sep); idx > 0 {
			a = strings.TrimSpace(text[:idx])
			b = strings.TrimSpace(text[idx+len(sep):])
			if a != "" && b != "" {
				return a, b, true
			}
		}
	}
	return "", "", false
}

// startRunHandler handles POST /chat/query.
func (s *Server) startRunHandler(c *echo.Context) error {
	var req StartRunRequest
	if err := c.Bind(&req); err != nil {
		return httpError(http.StatusBadRequest, CategoryValidation, "malformed request body")
	}
	req.PersonA = strings.TrimSpace(req.PersonA)
	req.PersonB = strings.TrimSpace(req.PersonB)
	if req.PersonA == "" || req.PersonB == "" {
		return httpError(http.StatusBadRequest, CategoryValidation, "personA and personB are required")
	}
	if identity.NodeIDForName(req.PersonA) == identity.NodeIDForName(req.PersonB) {
		return httpError(http.StatusBadRequest, CategoryValidation, "personA and personB must be different people")
	}

	// Cached-path-first: a previously-verified pair resolves instantly
	// without spending any oracle budget (spec.md §4.7).
	cached, err := s.graphStore.FindPath(c.Request().Context(),
		identity.NodeIDForName(req.PersonA), identity.NodeIDForName(req.PersonB))
	if err == nil && cached.Found && cached.Hops > 0 {
		r := s.runs.Create(req.PersonA, req.PersonB, run.Budgets{})
		log := s.logs.Create(r.ID)
		names, nameErr := s.graphStore.NodeNames(c.Request().Context(), cached.Path)
		if nameErr != nil {
			names = map[string]string{}
		}
		publishCachedResult(log, cached, names)
		r.Finish(run.StatusSuccess, "")
		return c.JSON(http.StatusOK, &StartRunResponse{RunID: r.ID, Status: "started", PersonA: req.PersonA, PersonB: req.PersonB})
	}

	r := s.runs.Create(req.PersonA, req.PersonB, run.Budgets{
		SearchMax: s.cfg.Budgets.Search, RecogMax: s.cfg.Budgets.Recog, LLMMax: s.cfg.Budgets.LLM,
	})

	if existing, claimed := s.admission.Claim(req.PersonA, req.PersonB, r.ID); !claimed {
		s.runs.Delete(r.ID)
		return c.JSON(http.StatusOK, &StartRunResponse{RunID: existing, Status: "started", PersonA: req.PersonA, PersonB: req.PersonB})
	}

	log := s.logs.Create(r.ID)
	ctx, cancel := context.WithCancel(context.Background())
	r.SetCancel(cancel)

	go func() {
		defer s.admission.Release(req.PersonA, req.PersonB)
		defer cancel()
		s.orchestrator.Investigate(ctx, r, log)
	}()

	return c.JSON(http.StatusOK, &StartRunResponse{RunID: r.ID, Status: "started", PersonA: req.PersonA, PersonB: req.PersonB})
}

// publishCachedResult emits a single final event for a run resolved
// straight from a previously-persisted path, mirroring the shape
// Orchestrator.success produces so clients don't need a separate
// code path for the cached case. names resolves the path's canonical
// node IDs back to display names; an ID is kept as-is if its name is
// unavailable.
func publishCachedResult(log *events.RunLog, path graph.PathResult, names map[string]string) {
	confs := make([]int, len(path.Steps))
	for i, step := range path.Steps {
		confs[i] = step.Confidence
	}
	displayPath := make([]string, len(path.Path))
	for i, id := range path.Path {
		if name, ok := names[id]; ok {
			displayPath[i] = name
		} else {
			displayPath[i] = id
		}
	}
	log.Publish(events.TypeFinal, "connection found", events.Data{
		Path: displayPath, HopDepth: path.Hops,
		Result: map[string]any{"bottleneck": confidence.Bottleneck(confs), "cumulative": confidence.Cumulative(confs)},
	})
}

// pollEventsHandler handles GET /chat/events/:runId.
func (s *Server) pollEventsHandler(c *echo.Context) error {
	runID := c.Param("runId")
	log := s.logs.Get(runID)
	if log == nil {
		return httpError(http.StatusNotFound, CategoryValidation, "unknown run id")
	}

	cursor := 0
	if v := c.QueryParam("cursor"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cursor = n
		}
	}

	evs, complete := log.Snapshot(cursor)
	nextCursor := cursor
	if len(evs) > 0 {
		nextCursor = evs[len(evs)-1].Index + 1
	}

	return c.JSON(http.StatusOK, &EventsPollResponse{
		RunID: runID, Events: evs, Complete: complete, Cursor: nextCursor,
	})
}

// runStatusHandler handles GET /chat/status/:runId.
func (s *Server) runStatusHandler(c *echo.Context) error {
	runID := c.Param("runId")
	r, err := s.runs.Get(runID)
	if err != nil {
		return httpError(http.StatusNotFound, CategoryValidation, "unknown run id")
	}

	snap := r.Snapshot()
	resp := &RunStatusResponse{ID: snap.ID, Status: string(snap.Status), Error: snap.Error}
	if snap.Status != run.StatusRunning {
		resp.Output = map[string]any{"path": snap.Path, "hopDepth": snap.HopDepth}
	}
	return c.JSON(http.StatusOK, resp)
}
