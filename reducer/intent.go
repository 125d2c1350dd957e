// Package reducer is the sole writer of workspace state: ApplyIntents
// drains an ordered batch of Intent values and advances state from the data
// the intents carry. No handler reads the filesystem. Two handlers fill a
// missing input themselves: AddNode (also used for the node an
// EngineCreated intent materializes) takes uuid.New when NodeID is nil and
// time.Now when Time is zero, and AddEdge takes uuid.New when EdgeID is nil,
// which the AddEdge derived from EngineCreated always leaves nil. Replaying
// such an intent does not reproduce the same ids or timestamps.
package reducer

import (
	"time"

	"github.com/google/uuid"

	"github.com/teranos/graphshell/graphmodel"
)

// Source identifies which producer queued an intent, carried through from
// the control panel's QueuedIntent envelope.
type Source string

const (
	SourceLocalUI          Source = "local_ui"
	SourceServoDelegate     Source = "servo_delegate"
	SourceMemoryMonitor     Source = "memory_monitor"
	SourceModLoader         Source = "mod_loader"
	SourcePrefetchScheduler Source = "prefetch_scheduler"
	SourceP2pSync           Source = "p2p_sync"
	SourceRestore           Source = "restore"
)

// Kind tags which operation an Intent carries. Go has no native sum type,
// so Intent carries a Kind discriminator plus a set of shared fields
// (NodeID, Str1, Float, ...) whose meaning depends on that Kind.
type Kind string

const (
	KindAddNode            Kind = "add_node"
	KindRemoveNode         Kind = "remove_node"
	KindMoveNode           Kind = "move_node"
	KindPinNode            Kind = "pin_node"
	KindTagNode            Kind = "tag_node"
	KindUntagNode          Kind = "untag_node"
	KindUpdateNodeURL      Kind = "update_node_url"
	KindUpdateNodeTitle    Kind = "update_node_title"
	KindUpdateNodeMimeHint Kind = "update_node_mime_hint"
	KindUpdateNodeAddressKind Kind = "update_node_address_kind"

	KindAddEdge         Kind = "add_edge"
	KindRemoveEdge       Kind = "remove_edge"
	KindAppendTraversal Kind = "append_traversal"

	KindSelectReplace Kind = "select_replace"
	KindSelectAdd     Kind = "select_add"
	KindSelectRemove  Kind = "select_remove"
	KindSelectToggle  Kind = "select_toggle"

	KindViewCreate          Kind = "view_create"
	KindViewDestroy         Kind = "view_destroy"
	KindViewSetLens         Kind = "view_set_lens"
	KindViewSetLayout       Kind = "view_set_layout_mode"
	KindCommitDivergentView Kind = "commit_divergent_view"

	KindPaneOpen     Kind = "pane_open"
	KindPaneOpenTool Kind = "pane_open_tool"
	KindPaneFocus    Kind = "pane_focus"
	KindPaneSplit    Kind = "pane_split"
	KindPaneDetach   Kind = "pane_detach"
	KindPaneClose    Kind = "pane_close"

	KindPromoteActive     Kind = "promote_active"
	KindDemoteWarm        Kind = "demote_warm"
	KindDemoteCold        Kind = "demote_cold"
	KindMarkBlocked       Kind = "mark_blocked"
	KindClearBlocked      Kind = "clear_blocked"
	KindEngineProbeStarted Kind = "engine_probe_started"
	KindUnmapEngine       Kind = "unmap_engine"

	KindCameraFit          Kind = "camera_fit"
	KindCameraZoomIn       Kind = "camera_zoom_in"
	KindCameraZoomOut      Kind = "camera_zoom_out"
	KindCameraZoomReset    Kind = "camera_zoom_reset"
	KindCameraZoomSelected Kind = "camera_zoom_to_selected"

	KindPhysicsToggle Kind = "physics_toggle"

	KindSetMemoryPressureStatus Kind = "set_memory_pressure_status"

	KindModActivated  Kind = "mod_activated"
	KindModLoadFailed Kind = "mod_load_failed"

	KindEngineCreated       Kind = "engine_created"
	KindEngineURLChanged    Kind = "engine_url_changed"
	KindEngineTitleChanged  Kind = "engine_title_changed"
	KindEngineHistoryChanged Kind = "engine_history_changed"
	KindEngineCrashed       Kind = "engine_crashed"

	KindSyncNow              Kind = "sync_now"
	KindForgetDevice         Kind = "forget_device"
	KindApplyRemoteLogEntries Kind = "apply_remote_log_entries"

	KindSetPersistenceEnabled Kind = "set_persistence_enabled"

	KindUndo Kind = "undo"
	KindRedo Kind = "redo"

	KindClearGraph Kind = "clear_graph"
)

// Intent is one entry in a batch passed to ApplyIntents. Each Kind's
// handler reads the subset of the fields below that it needs; the rest
// stay zero.
type Intent struct {
	Kind   Kind
	Source Source

	NodeID   uuid.UUID
	EdgeID   uuid.UUID
	ParentID uuid.UUID // e.g. engine-created child's parent engine

	Str1, Str2 string
	Strs       []string
	Float      float64
	Float2     float64 // second numeric component, e.g. MoveNode's Y to Float's X
	Bool       bool
	Time       time.Time

	PromoteCause graphmodel.PromoteCause
	DemoteCause  graphmodel.DemoteCause

	SyncedIntents []byte // opaque gob blob for ApplyRemoteLogEntries
}

// IsWorkspaceModifying reports whether applying kind should mark the
// current workspace dirty (graph mutation or pin toggle), per spec.md §4.1
// step 3.
func IsWorkspaceModifying(k Kind) bool {
	switch k {
	case KindAddNode, KindRemoveNode, KindAddEdge, KindRemoveEdge,
		KindAppendTraversal, KindPinNode, KindUpdateNodeURL, KindUpdateNodeTitle,
		KindUpdateNodeMimeHint, KindUpdateNodeAddressKind, KindTagNode, KindUntagNode,
		KindClearGraph, KindMoveNode, KindCommitDivergentView:
		return true
	default:
		return false
	}
}

// isEngineCreation reports whether k is a "creation" event that must be
// grouped first within a batch (spec.md §4.1 step 2 / §4.4).
func isEngineCreation(k Kind) bool {
	return k == KindEngineCreated || k == KindAddNode
}

// isReversible reports whether k should push an undo checkpoint.
func isReversible(k Kind) bool {
	switch k {
	case KindAddNode, KindRemoveNode, KindAddEdge, KindRemoveEdge,
		KindPinNode, KindUpdateNodeURL, KindUpdateNodeTitle, KindTagNode, KindUntagNode,
		KindClearGraph, KindMoveNode, KindCommitDivergentView:
		return true
	default:
		return false
	}
}
