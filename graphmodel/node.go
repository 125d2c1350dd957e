// Package graphmodel defines the node/edge/workspace data shapes the
// reducer mutates and the workbench renders. Adapted from the teacher's
// graph.Node/graph.Link visualization model (graph/models.go), generalized
// from attestation-derived nodes to browser-shell nodes addressed by a
// stable UUID with an explicit lifecycle state.
package graphmodel

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleState is a node's position in the Cold/Warm/Active state machine.
type LifecycleState string

const (
	Cold   LifecycleState = "cold"
	Warm   LifecycleState = "warm"
	Active LifecycleState = "active"
)

// DemoteCause and PromoteCause record why a lifecycle transition happened;
// they travel with the intent payload (not just internal state) so replays
// stay deterministic.
type PromoteCause string

const (
	CauseUserSelect      PromoteCause = "user_select"
	CauseActiveTileVisible PromoteCause = "active_tile_visible"
	CauseRestore         PromoteCause = "restore"
	CauseSelectedPrewarm PromoteCause = "selected_prewarm"
	CauseReactivate      PromoteCause = "reactivate"
)

type DemoteCause string

const (
	CauseWorkspaceRetention DemoteCause = "workspace_retention"
	CauseActiveLRUEviction  DemoteCause = "active_lru_eviction"
	CauseMemoryWarning      DemoteCause = "memory_pressure_warning"
	CauseExplicitClose      DemoteCause = "explicit_close"
	CauseNodeRemoval        DemoteCause = "node_removal"
	CauseMemoryCritical     DemoteCause = "memory_pressure_critical"
	CauseWarmLRUEviction    DemoteCause = "warm_lru_eviction"
)

// AddressKind distinguishes how a node's URL should be interpreted (used
// by the omnibar and the protocol registry).
type AddressKind string

const (
	AddressKindHttp   AddressKind = "http"
	AddressKindFile   AddressKind = "file"
	AddressKindCustom AddressKind = "custom"
)

// Position is a node's last-known canvas coordinate, owned by the reducer
// and written by MoveNode/CommitDivergentView rather than the renderer.
type Position struct {
	X, Y float64
}

// History is a node's navigation history: an ordered list of visited URLs
// and the index of the currently displayed entry, mirrored from the
// embedded engine's own back/forward list.
type History struct {
	Entries []string
	Index   int
}

// NodeSessionState preserves in-page state (scroll offset, unsubmitted form
// input) across a Warm/Cold demotion and restore so the pane looks
// unchanged to the user after the engine is recreated.
type NodeSessionState struct {
	ScrollX, ScrollY float64
	FormDraft        map[string]string
}

// BackpressureState tracks engine-creation retry/cooldown per node, per
// spec.md §4.2's exact field set.
type BackpressureState struct {
	RetryCount    int
	PendingProbe  *PendingProbe
	CooldownUntil time.Time
	CooldownStep  int
}

type PendingProbe struct {
	EngineID  string
	StartedAt time.Time
}

// CrashState records a WebViewCrashed event on a node until the user
// reactivates it.
type CrashState struct {
	Reason      string
	HasBacktrace bool
	BlockedAt   time.Time
}

// Node is an entity in the graph: a web page, addressed by a stable UUID
// that never changes even as its URL, title, or lifecycle state do.
type Node struct {
	ID      uuid.UUID
	Key     string // stable human-referenceable key, independent of ID
	URL     string
	Title   string
	Address AddressKind
	MimeHint string

	Lifecycle  LifecycleState
	ActivationSeq uint64 // incremented on every promotion; drives LRU ordering
	WarmSeq       uint64 // Warm-LRU's own sequence, per spec.md §4.2

	LastPromoteCause PromoteCause
	LastDemoteCause  DemoteCause

	Pinned bool
	Tags   []string

	Position      Position
	LastVisitedAt time.Time
	History       History
	Thumbnail     []byte
	Favicon       []byte
	Session       *NodeSessionState

	Backpressure BackpressureState
	Crash        *CrashState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ColdRestoreURL resolves the URL a Cold node should restore to: the
// node's current history position if it has traversal history, otherwise
// its own URL. Lives here (rather than in lifecycle, which already
// imports reducer) so the reducer can call it directly without an import
// cycle; lifecycle.ColdRestoreURL forwards to this for its own callers.
func ColdRestoreURL(node *Node, historyEntries []string, historyIndex int) string {
	if len(historyEntries) == 0 {
		return node.URL
	}
	idx := historyIndex
	if idx >= len(historyEntries) {
		idx = len(historyEntries) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return historyEntries[idx]
}

// IsProtected reports whether n should be excluded from LRU eviction:
// visible-active panes and the single pre-warmed selected node.
func IsProtected(n *Node, activeVisible map[uuid.UUID]bool, prewarmedSelected uuid.UUID) bool {
	if activeVisible[n.ID] {
		return true
	}
	return n.ID == prewarmedSelected
}
