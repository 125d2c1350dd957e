package reducer

import (
	"time"

	"github.com/google/uuid"

	"github.com/teranos/graphshell/graphmodel"
	"github.com/teranos/graphshell/logger"
	"github.com/teranos/graphshell/workbench"
)

// ApplyIntents drains batch in five steps: drop intents that fail
// validation against current state, reorder engine-creation intents to the
// front (so every later intent can assume its node already exists), push
// one undo checkpoint if any remaining intent is reversible, apply each
// remaining intent in order, and finally run any derived intents the
// applied batch produced (e.g. the hyperlink AddEdge an EngineCreated
// intent emits toward its opener) back through the same pipeline.
func ApplyIntents(s *State, batch []Intent) {
	// willExist accounts for nodes a creation intent in this same batch is
	// about to materialize, so a dependent intent ordered before its
	// creation intent (e.g. PinNode before the EngineCreated it targets)
	// still validates — the reorder pass below is what actually makes that
	// forward reference safe to apply.
	willExist := make(map[uuid.UUID]bool, len(s.Nodes))
	for id := range s.Nodes {
		willExist[id] = true
	}
	for _, in := range batch {
		if in.Kind == KindAddNode || in.Kind == KindEngineCreated {
			willExist[in.NodeID] = true
		}
	}

	valid := make([]Intent, 0, len(batch))
	for _, in := range batch {
		if isValid(willExist, s, in) {
			valid = append(valid, in)
		} else {
			logger.Warnw("dropping invalid intent", "kind", in.Kind, "source", in.Source)
		}
	}

	ordered := make([]Intent, 0, len(valid))
	for _, in := range valid {
		if isEngineCreation(in.Kind) {
			ordered = append(ordered, in)
		}
	}
	for _, in := range valid {
		if !isEngineCreation(in.Kind) {
			ordered = append(ordered, in)
		}
	}

	reversiblePending := false
	for _, in := range ordered {
		if isReversible(in.Kind) && !reversiblePending {
			s.undo = append(s.undo, s.snapshot())
			s.redo = nil
			reversiblePending = true
		}
	}

	var derived []Intent
	for _, in := range ordered {
		if IsWorkspaceModifying(in.Kind) {
			s.Dirty = true
		}
		derived = append(derived, applyOne(s, in)...)
	}

	if len(derived) > 0 {
		ApplyIntents(s, derived)
	}
}

// isValid reports whether in can be applied given current state: intents
// that reference a node or edge id must find it present (or about to
// exist via a creation intent in the same batch — see willExist),
// except for the intents that create one.
func isValid(willExist map[uuid.UUID]bool, s *State, in Intent) bool {
	switch in.Kind {
	case KindAddNode, KindEngineCreated, KindSyncNow, KindForgetDevice,
		KindApplyRemoteLogEntries, KindUndo, KindRedo, KindClearGraph,
		KindSetMemoryPressureStatus, KindSetPersistenceEnabled, KindPhysicsToggle,
		KindCameraFit, KindCameraZoomIn, KindCameraZoomOut, KindCameraZoomReset,
		KindModActivated, KindModLoadFailed,
		KindViewCreate, KindViewDestroy, KindViewSetLens, KindViewSetLayout, KindCommitDivergentView:
		return true
	case KindAddEdge:
		return willExist[in.NodeID] && willExist[in.ParentID]
	case KindRemoveEdge:
		return s.Edges[in.EdgeID] != nil
	case KindAppendTraversal:
		return s.Edges[in.EdgeID] != nil
	case KindPaneOpen, KindPaneOpenTool, KindPaneFocus, KindPaneSplit, KindPaneDetach, KindPaneClose,
		KindCameraZoomSelected:
		return true
	default:
		return willExist[in.NodeID]
	}
}

func applyOne(s *State, in Intent) []Intent {
	switch in.Kind {
	case KindAddNode:
		return applyAddNode(s, in)
	case KindRemoveNode:
		return applyRemoveNode(s, in)
	case KindMoveNode:
		active := s.activeWorkspace()
		view := graphmodel.ActiveViewOf(active)
		if view.LayoutMode == graphmodel.Divergent {
			if view.ShadowPositions == nil {
				view.ShadowPositions = make(map[uuid.UUID]graphmodel.Position)
			}
			view.ShadowPositions[in.NodeID] = graphmodel.Position{X: in.Float, Y: in.Float2}
		} else {
			s.Nodes[in.NodeID].Position = graphmodel.Position{X: in.Float, Y: in.Float2}
		}
	case KindPinNode:
		s.Nodes[in.NodeID].Pinned = in.Bool
	case KindTagNode:
		n := s.Nodes[in.NodeID]
		if !containsStr(n.Tags, in.Str1) {
			n.Tags = append(n.Tags, in.Str1)
		}
	case KindUntagNode:
		n := s.Nodes[in.NodeID]
		n.Tags = removeStr(n.Tags, in.Str1)
	case KindUpdateNodeURL:
		s.Nodes[in.NodeID].URL = in.Str1
		s.Nodes[in.NodeID].UpdatedAt = in.Time
	case KindUpdateNodeTitle:
		s.Nodes[in.NodeID].Title = in.Str1
	case KindUpdateNodeMimeHint:
		s.Nodes[in.NodeID].MimeHint = in.Str1
	case KindUpdateNodeAddressKind:
		s.Nodes[in.NodeID].Address = graphmodel.AddressKind(in.Str1)

	case KindAddEdge:
		return applyAddEdge(s, in)
	case KindRemoveEdge:
		delete(s.Edges, in.EdgeID)
	case KindAppendTraversal:
		e := s.Edges[in.EdgeID]
		trigger := graphmodel.TraversalTrigger(in.Str1)
		if trigger == "" {
			trigger = graphmodel.TraversalUnknown
		}
		e.Traversals = append(e.Traversals, graphmodel.Traversal{At: in.Time, Trigger: trigger})

	case KindSelectReplace:
		ws := s.activeWorkspace()
		ws.Selected = map[uuid.UUID]bool{in.NodeID: true}
		ws.PrimarySelected = in.NodeID
	case KindSelectAdd:
		ws := s.activeWorkspace()
		ws.Selected[in.NodeID] = true
		if ws.PrimarySelected == uuid.Nil {
			ws.PrimarySelected = in.NodeID
		}
	case KindSelectRemove:
		ws := s.activeWorkspace()
		delete(ws.Selected, in.NodeID)
		if ws.PrimarySelected == in.NodeID {
			ws.PrimarySelected = uuid.Nil
		}
	case KindSelectToggle:
		ws := s.activeWorkspace()
		if ws.Selected[in.NodeID] {
			delete(ws.Selected, in.NodeID)
			if ws.PrimarySelected == in.NodeID {
				ws.PrimarySelected = uuid.Nil
			}
		} else {
			ws.Selected[in.NodeID] = true
			if ws.PrimarySelected == uuid.Nil {
				ws.PrimarySelected = in.NodeID
			}
		}

	case KindViewCreate:
		ws := s.activeWorkspace()
		if ws.Views == nil {
			ws.Views = make(map[string]*graphmodel.View)
		}
		if _, exists := ws.Views[in.Str1]; !exists {
			ws.Views[in.Str1] = graphmodel.NewView(in.Str1)
		}
	case KindViewDestroy:
		ws := s.activeWorkspace()
		delete(ws.Views, in.Str1)
		if ws.ActiveView == in.Str1 {
			ws.ActiveView = ""
			graphmodel.ActiveViewOf(ws) // re-creates the default view
		}
	case KindViewSetLens:
		if v, ok := s.activeWorkspace().Views[in.Str1]; ok {
			v.Lens = in.Str2
		}
	case KindViewSetLayout:
		if v, ok := s.activeWorkspace().Views[in.Str1]; ok {
			v.LayoutMode = graphmodel.LayoutMode(in.Str2)
		}
	case KindCommitDivergentView:
		if v, ok := s.activeWorkspace().Views[in.Str1]; ok {
			graphmodel.CommitDivergentView(v, s.Nodes)
		}

	case KindPaneOpen:
		s.Panes.OpenOrFocusNodePane(in.NodeID, workbench.SplitMode(in.Str1))
	case KindPaneOpenTool:
		s.Panes.OpenOrFocusToolPane(workbench.ToolSurface(in.Str1))
	case KindPaneFocus:
		s.Panes.OpenOrFocusNodePane(in.NodeID, workbench.Tab)
	case KindPaneClose:
		_ = s.Panes.RemoveNodePaneForNode(in.NodeID)
		s.Panes.EnsureActiveTile()
	case KindPaneSplit, KindPaneDetach:
		// Geometry-driven operations invoked directly against *workbench.Tree
		// by the UI layer; the intent variants exist for scripted/replayed
		// scenarios (tests, remote sync) where no pointer coordinates exist.
		return nil

	case KindPromoteActive:
		n := s.Nodes[in.NodeID]
		if in.PromoteCause == graphmodel.CauseRestore {
			n.URL = graphmodel.ColdRestoreURL(n, n.History.Entries, n.History.Index)
		}
		n.Lifecycle = graphmodel.Active
		n.ActivationSeq++
		n.LastPromoteCause = in.PromoteCause
	case KindDemoteWarm:
		n := s.Nodes[in.NodeID]
		n.Lifecycle = graphmodel.Warm
		n.WarmSeq++
		n.LastDemoteCause = in.DemoteCause
	case KindDemoteCold:
		n := s.Nodes[in.NodeID]
		n.Lifecycle = graphmodel.Cold
		n.LastDemoteCause = in.DemoteCause
	case KindMarkBlocked:
		n := s.Nodes[in.NodeID]
		n.Backpressure.CooldownUntil = in.Time
		n.Backpressure.CooldownStep = int(in.Float)
		n.Backpressure.RetryCount = 0
		n.Backpressure.PendingProbe = nil
	case KindClearBlocked:
		n := s.Nodes[in.NodeID]
		n.Backpressure = graphmodel.BackpressureState{}
	case KindEngineProbeStarted:
		n := s.Nodes[in.NodeID]
		n.Backpressure.PendingProbe = &graphmodel.PendingProbe{EngineID: in.Str1, StartedAt: in.Time}
		n.Backpressure.RetryCount++
	case KindUnmapEngine:
		s.Nodes[in.NodeID].Backpressure.PendingProbe = nil

	case KindCameraFit, KindCameraZoomSelected:
		// Computed by the renderer from current node positions; the reducer
		// leaves state unchanged.
	case KindCameraZoomIn:
		graphmodel.ActiveViewOf(s.activeWorkspace()).Camera.Zoom *= 1.2
	case KindCameraZoomOut:
		graphmodel.ActiveViewOf(s.activeWorkspace()).Camera.Zoom /= 1.2
	case KindCameraZoomReset:
		graphmodel.ActiveViewOf(s.activeWorkspace()).Camera.Zoom = 1.0

	case KindPhysicsToggle:
		ws := s.activeWorkspace()
		ws.PhysicsEnabled = !ws.PhysicsEnabled

	case KindSetMemoryPressureStatus:
		s.MemoryPressure = MemoryPressureStatus(in.Str1)

	case KindModActivated, KindModLoadFailed:
		// Recorded by the mod registry directly; nothing in graph state
		// changes.

	case KindEngineCreated:
		return applyEngineCreated(s, in)
	case KindEngineURLChanged:
		s.Nodes[in.NodeID].URL = in.Str1
	case KindEngineTitleChanged:
		s.Nodes[in.NodeID].Title = in.Str1
	case KindEngineHistoryChanged:
		n := s.Nodes[in.NodeID]
		n.History.Entries = append([]string(nil), in.Strs...)
		n.History.Index = int(in.Float)
		n.LastVisitedAt = in.Time
	case KindEngineCrashed:
		s.Nodes[in.NodeID].Crash = &graphmodel.CrashState{
			Reason: in.Str1, HasBacktrace: in.Bool, BlockedAt: in.Time,
		}
		s.Nodes[in.NodeID].Lifecycle = graphmodel.Cold

	case KindSyncNow, KindForgetDevice, KindApplyRemoteLogEntries:
		// Handled by the sync worker directly against the persistence layer;
		// the reducer only ever sees the resulting node/edge intents it
		// replays through ApplyRemoteLogEntries's unpacked batch, not this
		// marker itself.

	case KindSetPersistenceEnabled:
		s.PersistenceOn = in.Bool

	case KindUndo:
		s.Undo()
	case KindRedo:
		s.Redo()

	case KindClearGraph:
		s.Nodes = make(map[uuid.UUID]*graphmodel.Node)
		s.Edges = make(map[uuid.UUID]*graphmodel.Edge)
		for _, ws := range s.Workspaces {
			ws.Members = make(map[uuid.UUID]bool)
			ws.Selected = make(map[uuid.UUID]bool)
			ws.TabSelected = make(map[uuid.UUID]bool)
			ws.PrimarySelected = uuid.Nil
			ws.TabAnchor = uuid.Nil
		}
		s.Panes = workbench.NewTree()
	}
	return nil
}

func applyAddNode(s *State, in Intent) []Intent {
	id := in.NodeID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := in.Time
	if now.IsZero() {
		now = time.Now()
	}
	s.Nodes[id] = &graphmodel.Node{
		ID:        id,
		Key:       in.Str2,
		URL:       in.Str1,
		Address:   graphmodel.AddressKindHttp,
		Lifecycle: graphmodel.Cold,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func applyRemoveNode(s *State, in Intent) []Intent {
	delete(s.Nodes, in.NodeID)
	for id, e := range s.Edges {
		if e.From == in.NodeID || e.To == in.NodeID {
			delete(s.Edges, id)
		}
	}
	for _, ws := range s.Workspaces {
		delete(ws.Members, in.NodeID)
		delete(ws.Selected, in.NodeID)
		delete(ws.TabSelected, in.NodeID)
		if ws.PrimarySelected == in.NodeID {
			ws.PrimarySelected = uuid.Nil
		}
		if ws.TabAnchor == in.NodeID {
			ws.TabAnchor = uuid.Nil
		}
		for _, v := range ws.Views {
			delete(v.ShadowPositions, in.NodeID)
		}
	}
	_ = s.Panes.RemoveNodePaneForNode(in.NodeID)
	s.Panes.EnsureActiveTile()
	return nil
}

func applyAddEdge(s *State, in Intent) []Intent {
	for _, e := range s.Edges {
		if e.From == in.NodeID && e.To == in.ParentID && e.Kind == graphmodel.EdgeKind(in.Str1) {
			return nil // duplicate hyperlink/history edges never accumulate
		}
	}
	id := in.EdgeID
	if id == uuid.Nil {
		id = uuid.New()
	}
	s.Edges[id] = &graphmodel.Edge{
		ID:        id,
		From:      in.NodeID,
		To:        in.ParentID,
		Kind:      graphmodel.EdgeKind(in.Str1),
		Weight:    1,
		CreatedAt: in.Time,
	}
	return nil
}

// applyEngineCreated materializes the node an engine was created for (if it
// doesn't already exist from a prior AddNode) and links it to its opener
// via a hyperlink edge, preserving the creation-before-reference invariant
// spec.md §4.4 requires of the semantic pipeline.
func applyEngineCreated(s *State, in Intent) []Intent {
	if s.Nodes[in.NodeID] == nil {
		applyAddNode(s, Intent{NodeID: in.NodeID, Str1: in.Str1, Time: in.Time})
	}
	s.Nodes[in.NodeID].Lifecycle = graphmodel.Warm

	var derived []Intent
	if in.ParentID != uuid.Nil && s.Nodes[in.ParentID] != nil {
		derived = append(derived, Intent{
			Kind: KindAddEdge, Source: in.Source,
			NodeID: in.ParentID, ParentID: in.NodeID,
			Str1: string(graphmodel.EdgeHyperlink), Time: in.Time,
		})
	}
	return derived
}

func containsStr(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

func removeStr(ss []string, v string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
