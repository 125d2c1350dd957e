package reducer

import (
	"github.com/google/uuid"

	"github.com/teranos/graphshell/graphmodel"
	"github.com/teranos/graphshell/workbench"
)

// MemoryPressureStatus mirrors the OS-reported pressure level the memory
// monitor worker samples (spec.md §4.2's backpressure inputs).
type MemoryPressureStatus string

const (
	MemoryNormal   MemoryPressureStatus = "normal"
	MemoryWarning  MemoryPressureStatus = "warning"
	MemoryCritical MemoryPressureStatus = "critical"
)

// checkpoint is a coarse snapshot of the nodes, edges and workspaces,
// pushed onto State.undo before a batch containing a reversible intent is
// applied. The pane tree is not part of it, so undoing a RemoveNode does
// not reopen the node's pane. Simpler than per-field diffs and cheap enough at this graph
// scale (the teacher's own undo stacks in am/ use the same whole-snapshot
// approach for config edits).
type checkpoint struct {
	nodes      map[uuid.UUID]*graphmodel.Node
	edges      map[uuid.UUID]*graphmodel.Edge
	workspaces map[string]*graphmodel.Workspace
}

// State is the sole mutable home of workspace data. Only ApplyIntents may
// write to it. Selection, camera, and physics state live on the active
// graphmodel.Workspace rather than here, since spec'd selection/view state
// is per-workspace, not global to the process.
type State struct {
	Nodes      map[uuid.UUID]*graphmodel.Node
	Edges      map[uuid.UUID]*graphmodel.Edge
	Workspaces map[string]*graphmodel.Workspace

	ActiveWorkspace string

	Panes *workbench.Tree

	MemoryPressure MemoryPressureStatus
	PersistenceOn  bool

	Dirty bool

	undo []checkpoint
	redo []checkpoint
}

// NewState returns an empty workspace state with the permanent graph pane
// as its sole tile and physics running by default.
func NewState() *State {
	scratch := graphmodel.NewWorkspace("__scratch__")
	return &State{
		Nodes:           make(map[uuid.UUID]*graphmodel.Node),
		Edges:           make(map[uuid.UUID]*graphmodel.Edge),
		Workspaces:      map[string]*graphmodel.Workspace{scratch.Name: scratch},
		ActiveWorkspace: scratch.Name,
		Panes:           workbench.NewTree(),
		MemoryPressure:  MemoryNormal,
	}
}

// activeWorkspace returns the currently active workspace, creating it if
// ApplyIntents is ever handed a state whose ActiveWorkspace name has no
// backing entry yet (e.g. freshly switched to an unsaved named workspace).
func (s *State) activeWorkspace() *graphmodel.Workspace {
	ws, ok := s.Workspaces[s.ActiveWorkspace]
	if !ok {
		ws = graphmodel.NewWorkspace(s.ActiveWorkspace)
		s.Workspaces[s.ActiveWorkspace] = ws
	}
	return ws
}

func cloneWorkspace(ws *graphmodel.Workspace) *graphmodel.Workspace {
	clone := *ws
	clone.Members = make(map[uuid.UUID]bool, len(ws.Members))
	for id := range ws.Members {
		clone.Members[id] = true
	}
	clone.Selected = make(map[uuid.UUID]bool, len(ws.Selected))
	for id := range ws.Selected {
		clone.Selected[id] = true
	}
	clone.TabSelected = make(map[uuid.UUID]bool, len(ws.TabSelected))
	for id := range ws.TabSelected {
		clone.TabSelected[id] = true
	}
	clone.Views = make(map[string]*graphmodel.View, len(ws.Views))
	for id, v := range ws.Views {
		vclone := *v
		vclone.ShadowPositions = make(map[uuid.UUID]graphmodel.Position, len(v.ShadowPositions))
		for nid, pos := range v.ShadowPositions {
			vclone.ShadowPositions[nid] = pos
		}
		clone.Views[id] = &vclone
	}
	return &clone
}

func (s *State) snapshot() checkpoint {
	nodes := make(map[uuid.UUID]*graphmodel.Node, len(s.Nodes))
	for id, n := range s.Nodes {
		clone := *n
		clone.Tags = append([]string(nil), n.Tags...)
		clone.History.Entries = append([]string(nil), n.History.Entries...)
		nodes[id] = &clone
	}
	edges := make(map[uuid.UUID]*graphmodel.Edge, len(s.Edges))
	for id, e := range s.Edges {
		clone := *e
		clone.Traversals = append([]graphmodel.Traversal(nil), e.Traversals...)
		edges[id] = &clone
	}
	workspaces := make(map[string]*graphmodel.Workspace, len(s.Workspaces))
	for name, ws := range s.Workspaces {
		workspaces[name] = cloneWorkspace(ws)
	}
	return checkpoint{nodes: nodes, edges: edges, workspaces: workspaces}
}

func (s *State) restore(c checkpoint) {
	s.Nodes = c.nodes
	s.Edges = c.edges
	s.Workspaces = c.workspaces
	s.Dirty = true
}

// Undo pops the most recent checkpoint and restores it, pushing the
// pre-undo state onto the redo stack.
func (s *State) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	last := len(s.undo) - 1
	c := s.undo[last]
	s.undo = s.undo[:last]
	s.redo = append(s.redo, s.snapshot())
	s.restore(c)
	return true
}

// Redo reapplies the most recently undone checkpoint.
func (s *State) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	last := len(s.redo) - 1
	c := s.redo[last]
	s.redo = s.redo[:last]
	s.undo = append(s.undo, s.snapshot())
	s.restore(c)
	return true
}
