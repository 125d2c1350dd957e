package graphmodel

import "github.com/google/uuid"

// reservedWorkspaceNames are excluded from user-facing workspace listings
// per spec.md §4.7 (e.g. the scratch workspace used for ungrouped panes).
var reservedWorkspaceNames = map[string]bool{
	"__scratch__": true,
	"__trash__":   true,
}

// IsReservedWorkspace reports whether name is an internal workspace that
// should never be shown to the user.
func IsReservedWorkspace(name string) bool {
	return reservedWorkspaceNames[name]
}

// WorkspacePreferences are per-workspace display/behavior toggles that
// persist across sessions.
type WorkspacePreferences struct {
	ShowThumbnails    bool
	ShowFavicons      bool
	AutoArrangeLayout bool
}

const defaultViewID = "primary"

// Workspace is a named collection of nodes with a persisted pane-tree
// layout (the tree itself lives in the workbench package; Workspace tracks
// membership, activation recency for keep-latest-N pruning, the node
// selection state, and the set of views over this workspace's graph).
type Workspace struct {
	Name         string
	Members      map[uuid.UUID]bool
	LastActivated int64 // unix nanos; monotonic ordering for keep-latest-N

	// Selected is the graph's multi-select set; PrimarySelected is the
	// single member treated as the anchor for single-target operations
	// (e.g. the node the inspector shows).
	Selected        map[uuid.UUID]bool
	PrimarySelected uuid.UUID

	// TabSelected is the pane tree's independent selection set (e.g. for a
	// shift-click range select across tabs), anchored at TabAnchor.
	TabSelected map[uuid.UUID]bool
	TabAnchor   uuid.UUID

	Views      map[string]*View
	ActiveView string

	PhysicsEnabled bool
	Preferences    WorkspacePreferences
}

// NewWorkspace creates an empty workspace with a single default Canonical
// view and physics running.
func NewWorkspace(name string) *Workspace {
	view := NewView(defaultViewID)
	return &Workspace{
		Name:           name,
		Members:        make(map[uuid.UUID]bool),
		Selected:       make(map[uuid.UUID]bool),
		TabSelected:    make(map[uuid.UUID]bool),
		Views:          map[string]*View{view.ID: view},
		ActiveView:     view.ID,
		PhysicsEnabled: true,
	}
}

// ActiveViewOf returns ws's active view, creating the default one if its
// Views map is missing it (defensive against a workspace decoded from an
// older snapshot format).
func ActiveViewOf(ws *Workspace) *View {
	if ws.Views == nil {
		ws.Views = make(map[string]*View)
	}
	if ws.ActiveView == "" {
		ws.ActiveView = defaultViewID
	}
	v, ok := ws.Views[ws.ActiveView]
	if !ok {
		v = NewView(ws.ActiveView)
		ws.Views[ws.ActiveView] = v
	}
	return v
}

// MembershipIndex maps a node id to the set of non-reserved workspace
// names that contain it. Built by scanning all workspace layouts.
type MembershipIndex map[uuid.UUID]map[string]bool

// BuildMembershipIndex scans workspaces (excluding reserved ones), pruning
// references to node ids not present in existingNodes, and returns the
// node -> {workspace names} index described by spec.md §4.7's
// build_membership_index_from_layouts.
func BuildMembershipIndex(workspaces []*Workspace, existingNodes map[uuid.UUID]bool) MembershipIndex {
	idx := make(MembershipIndex)
	for _, ws := range workspaces {
		if IsReservedWorkspace(ws.Name) {
			continue
		}
		for nodeID := range ws.Members {
			if !existingNodes[nodeID] {
				continue
			}
			if idx[nodeID] == nil {
				idx[nodeID] = make(map[string]bool)
			}
			idx[nodeID][ws.Name] = true
		}
	}
	return idx
}

// PruneEmptyNamedWorkspaces returns the subset of workspaces that still
// reference at least one node in existingNodes, per spec.md §4.7's
// prune_empty_named_workspaces.
func PruneEmptyNamedWorkspaces(workspaces []*Workspace, existingNodes map[uuid.UUID]bool) []*Workspace {
	var kept []*Workspace
	for _, ws := range workspaces {
		if IsReservedWorkspace(ws.Name) {
			kept = append(kept, ws)
			continue
		}
		hasLiveMember := false
		for nodeID := range ws.Members {
			if existingNodes[nodeID] {
				hasLiveMember = true
				break
			}
		}
		if hasLiveMember {
			kept = append(kept, ws)
		}
	}
	return kept
}

// KeepLatestNamedWorkspaces retains the keep most-recently-activated
// non-reserved workspaces, dropping the rest. Reserved workspaces are
// always kept.
func KeepLatestNamedWorkspaces(workspaces []*Workspace, keep int) []*Workspace {
	var reserved, named []*Workspace
	for _, ws := range workspaces {
		if IsReservedWorkspace(ws.Name) {
			reserved = append(reserved, ws)
		} else {
			named = append(named, ws)
		}
	}

	for i := 0; i < len(named); i++ {
		for j := i + 1; j < len(named); j++ {
			if named[j].LastActivated > named[i].LastActivated {
				named[i], named[j] = named[j], named[i]
			}
		}
	}

	if keep < len(named) {
		named = named[:keep]
	}

	return append(reserved, named...)
}
