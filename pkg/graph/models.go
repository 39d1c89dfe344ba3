package graph

import (
	"time"

	"github.com/uptrace/bun"
)

// Node is a Person in the social graph (spec.md §3).
type Node struct {
	bun.BaseModel `bun:"table:nodes,alias:n"`

	ID             string    `bun:"id,pk"`
	Name           string    `bun:"name,notnull"`
	NormalisedName string    `bun:"normalised_name,notnull"`
	FirstSeenAt    time.Time `bun:"first_seen_at,notnull,default:now()"`
	ThumbnailURL   string    `bun:"thumbnail_url"`
}

// Edge is a verified Co-appearance (spec.md §3). SourceID/TargetID are
// always stored as the canonically sorted pair (spec.md §4.6).
type Edge struct {
	bun.BaseModel `bun:"table:edges,alias:e"`

	ID              string    `bun:"id,pk"`
	SourceID        string    `bun:"source_id,notnull"`
	TargetID        string    `bun:"target_id,notnull"`
	Confidence      int       `bun:"confidence,notnull"`
	BestEvidenceURL string    `bun:"best_evidence_url"`
	BestThumbnail   string    `bun:"best_thumbnail"`
	ContextURL      string    `bun:"context_url"`
	DiscoveredAt    time.Time `bun:"discovered_at,notnull,default:now()"`
}
