package graphmodel

import (
	"time"

	"github.com/google/uuid"
)

// EdgeKind records why two nodes are connected.
type EdgeKind string

const (
	EdgeHyperlink  EdgeKind = "hyperlink"
	EdgeHistory    EdgeKind = "history"
	EdgeUserGrouped EdgeKind = "user_grouped"
)

// TraversalTrigger classifies how a history edge's traversal was initiated.
type TraversalTrigger string

const (
	TraversalBack    TraversalTrigger = "back"
	TraversalForward TraversalTrigger = "forward"
	TraversalUnknown TraversalTrigger = "unknown"
)

// Traversal is one append-only visit record on a history edge.
type Traversal struct {
	At      time.Time
	Trigger TraversalTrigger
}

// Edge connects two nodes. Traversals records append-only visit history for
// history-kind edges (AppendTraversal intents).
type Edge struct {
	ID     uuid.UUID
	From   uuid.UUID
	To     uuid.UUID
	Kind   EdgeKind
	Weight float64

	Traversals []Traversal

	CreatedAt time.Time
}
