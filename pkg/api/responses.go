package api

import "github.com/photolink/coappear/pkg/events"

// ParseQueryResponse is the response for POST /chat/parse.
type ParseQueryResponse struct {
	PersonA    string  `json:"personA"`
	PersonB    string  `json:"personB"`
	IsValid    bool    `json:"isValid"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// StartRunResponse is the response for POST /chat/query.
type StartRunResponse struct {
	RunID   string `json:"runId"`
	Status  string `json:"status"`
	PersonA string `json:"A"`
	PersonB string `json:"B"`
}

// EventsPollResponse is the response for GET /chat/events/:runId.
type EventsPollResponse struct {
	RunID    string         `json:"runId"`
	Events   []events.Event `json:"events"`
	Complete bool           `json:"complete"`
	Cursor   int            `json:"cursor"`
}

// RunStatusResponse is the response for GET /chat/status/:runId.
type RunStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Output any    `json:"output,omitempty"`
}

// GraphNode is one entry in GraphSnapshotResponse.Nodes.
type GraphNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// GraphEdge is one entry in GraphSnapshotResponse.Edges.
type GraphEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Confidence   int    `json:"confidence"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	ContextURL   string `json:"contextUrl,omitempty"`
	EvidenceURL  string `json:"evidenceUrl,omitempty"`
}

// GraphSnapshotResponse is the response for GET /graph.
type GraphSnapshotResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphStatsResponse is the response for GET /graph/stats.
type GraphStatsResponse struct {
	NodeCount     int     `json:"nodeCount"`
	EdgeCount     int     `json:"edgeCount"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// GraphPathStep is one hop in a GraphPathResponse.
type GraphPathStep struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Confidence int    `json:"confidence"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	ContextURL string `json:"contextUrl,omitempty"`
}

// GraphPathResponse is the response for GET /graph/path.
type GraphPathResponse struct {
	Found         bool            `json:"found"`
	Path          []string        `json:"path,omitempty"`
	Steps         []GraphPathStep `json:"steps,omitempty"`
	Hops          int             `json:"hops"`
	MinConfidence int             `json:"minConfidence,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RateLimitErrorResponse is the 429 body spec.md §7 requires.
type RateLimitErrorResponse struct {
	Error     string `json:"error"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt"`
}
