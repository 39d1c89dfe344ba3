package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// streamEventsHandler handles GET /chat/stream/:runId: a long-lived
// text/event-stream reply that replays history from ?cursor= and then
// follows live events until the run's terminal event, per SPEC_FULL.md
// §6 ("SSE implemented by hand over http.Flusher").
func (s *Server) streamEventsHandler(c *echo.Context) error {
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

	resp := c.Response()
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	id, deregister := s.connManager.Register()
	defer deregister()
	_ = id

	ch, unsubscribe := log.Subscribe(ctx, cursor)
	defer unsubscribe()

	for re := range ch {
		if re.Complete {
			fmt.Fprint(resp, "event: complete\ndata: {}\n\n")
			resp.Flush()
			return nil
		}
		body, err := json.Marshal(re.Event)
		if err != nil {
			continue
		}
		fmt.Fprintf(resp, "data: %s\n\n", body)
		resp.Flush()
	}
	return nil
}

// runWSHandler handles GET /chat/ws/:runId: the WebSocket equivalent of
// streamEventsHandler, following handler_ws.go's "upgrade, then delegate"
// shape but serving this run's own event log instead of the connection
// manager's generic pump.
func (s *Server) runWSHandler(c *echo.Context) error {
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

	ch, unsubscribe := log.Subscribe(ctx, cursor)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case re, ok := <-ch:
			if !ok {
				return nil
			}
			if re.Complete {
				_ = writeWS(ctx, conn, wsMessage{Type: "complete"})
				_ = conn.Close(websocket.StatusNormalClosure, "run complete")
				return nil
			}
			idx := re.Event.Index
			if err := writeWS(ctx, conn, wsMessage{Type: "event", Data: re.Event, Index: &idx}); err != nil {
				return nil
			}
		}
	}
}
