package workbench

import "github.com/google/uuid"

// GroupedEdgeSignal is returned by MoveNodeTab when a tab-group move should
// produce a CreateUserGroupedEdge intent; the reducer translates this into
// the actual intent since workbench has no dependency on the intent types.
type GroupedEdgeSignal struct {
	From uuid.UUID
	To   uuid.UUID
}

// OpenOrFocusNodePane opens a pane for key in mode, or focuses it if a pane
// for key already exists (spec.md §4.3: opening an existing pane focuses
// rather than duplicating).
func (t *Tree) OpenOrFocusNodePane(nodeID uuid.UUID, mode SplitMode) {
	id := NodePane(nodeID)
	if existing, _, _ := t.findLeaf(id); existing != nil {
		t.focused = &id
		t.focusAncestorTabs(id)
		return
	}

	switch mode {
	case SplitHorizontal, SplitVertical:
		t.openSplit(id, mode)
	default:
		t.openTab(id)
	}
	t.focused = &id
}

// openSplit adds a pane to the root linear container if one exists with
// the matching orientation; otherwise wraps root and the new pane in a
// fresh linear container.
func (t *Tree) openSplit(id PaneID, mode SplitMode) {
	want := Horizontal
	if mode == SplitVertical {
		want = Vertical
	}

	if t.Root.Kind == ContainerLinear && t.Root.Orientation == want {
		t.Root.Children = append(t.Root.Children, wrapInTab(leaf(id)))
		return
	}

	newLeaf := wrapInTab(leaf(id))
	t.Root = &Node{
		Kind:        ContainerLinear,
		Orientation: want,
		Children:    []*Node{t.Root, newLeaf},
	}
}

// openTab wraps the current root and the new pane in a tab container —
// every leaf ends up under a tab container so every pane exposes a local
// tab strip.
func (t *Tree) openTab(id PaneID) {
	if t.Root.Kind == ContainerTab {
		t.Root.Children = append(t.Root.Children, leaf(id))
		t.Root.ActiveChild = len(t.Root.Children) - 1
		return
	}
	t.Root = &Node{
		Kind:        ContainerTab,
		Children:    []*Node{t.Root, leaf(id)},
		ActiveChild: 1,
	}
}

func wrapInTab(n *Node) *Node {
	return &Node{Kind: ContainerTab, Children: []*Node{n}}
}

func (t *Tree) focusAncestorTabs(id PaneID) {
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		if n.Pane != nil {
			return n.Pane.Equal(id)
		}
		for i, c := range n.Children {
			if walk(c) {
				if n.Kind == ContainerTab {
					n.ActiveChild = i
				}
				return true
			}
		}
		return false
	}
	walk(t.Root)
}

// OpenOrFocusToolPane opens a tab pane for the given built-in tool surface,
// or focuses it if already open — tool panes never split, only tab.
func (t *Tree) OpenOrFocusToolPane(surface ToolSurface) {
	id := ToolPane(surface)
	if existing, _, _ := t.findLeaf(id); existing != nil {
		t.focused = &id
		t.focusAncestorTabs(id)
		return
	}
	t.openTab(id)
	t.focused = &id
}

// RemoveNodePaneForNode closes the pane for nodeID; a node with no open
// pane leaves the tree unchanged. If the pane is the tree's only leaf, the
// graph pane takes its place. It never returns ErrLastGraphPane, since a
// node pane is never the graph pane.
func (t *Tree) RemoveNodePaneForNode(nodeID uuid.UUID) error {
	id := NodePane(nodeID)
	return t.remove(id)
}

func (t *Tree) remove(id PaneID) error {
	found, parent, idx := t.findLeaf(id)
	if found == nil {
		return nil
	}
	if parent == nil {
		// id is the tree root itself.
		if id.IsGraph {
			return ErrLastGraphPane
		}
		t.Root = leaf(GraphPane())
		gp := GraphPane()
		t.focused = &gp
		return nil
	}

	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	if parent.ActiveChild >= len(parent.Children) {
		parent.ActiveChild = len(parent.Children) - 1
	}
	t.pruneEmptyContainers()

	if t.focused != nil && t.focused.Equal(id) {
		t.focused = nil
	}
	return nil
}

// pruneEmptyContainers walks the tree bottom-up, dropping containers left
// with zero children. A linear container left with exactly one child is
// spliced out (its child takes its place), since a split needs at least
// two sides to mean anything; a tab container with one child is kept as
// is — every leaf pane keeps its own tab strip even when it's the only
// tab in it.
func (t *Tree) pruneEmptyContainers() {
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Pane != nil {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
		kept := n.Children[:0]
		for _, c := range n.Children {
			if c.Pane != nil || len(c.Children) > 0 {
				kept = append(kept, c)
			}
		}
		n.Children = kept
		if n.ActiveChild >= len(n.Children) {
			n.ActiveChild = len(n.Children) - 1
		}
		if n.Kind == ContainerLinear && len(n.Children) == 1 {
			*n = *n.Children[0]
		}
	}
	if t.Root.Pane == nil {
		walk(t.Root)
	}
}

// DetachNodeToSplit pulls nodeID out of its current tab group into a new
// split pane, triggered when a tab drag release lands outside the
// tab-strip band by more than the configured margin.
func (t *Tree) DetachNodeToSplit(nodeID uuid.UUID, releaseYPx, tabStripBottomPx float64) bool {
	if releaseYPx-tabStripBottomPx < t.detachMarginPx {
		return false
	}
	id := NodePane(nodeID)
	if err := t.remove(id); err != nil {
		return false
	}
	t.openSplit(id, SplitHorizontal)
	return true
}

// EnsureActiveTile guarantees at least one active selection exists after
// any pane removal; if no node pane remains, focus returns to a graph pane.
func (t *Tree) EnsureActiveTile() {
	if t.focused != nil {
		return
	}
	var first *PaneID
	var walk func(n *Node)
	walk = func(n *Node) {
		if first != nil {
			return
		}
		if n.Pane != nil {
			first = n.Pane
			return
		}
		idx := n.ActiveChild
		if idx < 0 || idx >= len(n.Children) {
			idx = 0
		}
		if idx < len(n.Children) {
			walk(n.Children[idx])
		}
	}
	walk(t.Root)
	t.focused = first
}

// ActiveNodePaneRects returns the node ids of all panes currently visible
// in an active tab position (used to drive active-tile-visible promotion).
func (t *Tree) ActiveNodePaneRects() []uuid.UUID {
	var out []uuid.UUID
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Pane != nil {
			if !n.Pane.IsGraph && n.Pane.Tool == "" {
				out = append(out, n.Pane.NodeID)
			}
			return
		}
		if n.Kind == ContainerTab {
			if n.ActiveChild >= 0 && n.ActiveChild < len(n.Children) {
				walk(n.Children[n.ActiveChild])
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

// tabGroupOf returns the tab container that directly owns pane id, if any.
func (t *Tree) tabGroupOf(id PaneID) *Node {
	_, parent, _ := t.findLeaf(id)
	if parent != nil && parent.Kind == ContainerTab {
		return parent
	}
	return nil
}

// MoveNodeTab moves nodeID from its current tab group into destGroup's
// tabs. If the destination already contains another node pane, a
// GroupedEdgeSignal is returned for the caller to translate into a
// CreateUserGroupedEdge intent; same-group moves and moves into empty
// groups return nil.
func (t *Tree) MoveNodeTab(nodeID uuid.UUID, destGroup *Node) *GroupedEdgeSignal {
	id := NodePane(nodeID)
	srcGroup := t.tabGroupOf(id)
	if srcGroup == destGroup {
		return nil
	}

	var anchor uuid.UUID
	hasAnchor := false
	for _, c := range destGroup.Children {
		if c.Pane != nil && !c.Pane.IsGraph && c.Pane.Tool == "" {
			anchor = c.Pane.NodeID
			hasAnchor = true
			break
		}
	}

	if err := t.remove(id); err != nil {
		return nil
	}
	destGroup.Children = append(destGroup.Children, leaf(id))
	destGroup.ActiveChild = len(destGroup.Children) - 1

	if !hasAnchor {
		return nil
	}
	return &GroupedEdgeSignal{From: nodeID, To: anchor}
}

// PruneMissing removes any node pane whose id is not present in live.
func (t *Tree) PruneMissing(live map[uuid.UUID]bool) {
	var walk func(n *Node) bool // true if n should be kept
	walk = func(n *Node) bool {
		if n.Pane != nil {
			return n.Pane.IsGraph || n.Pane.Tool != "" || live[n.Pane.NodeID]
		}
		kept := n.Children[:0]
		for _, c := range n.Children {
			if walk(c) {
				kept = append(kept, c)
			}
		}
		n.Children = kept
		if n.Kind == ContainerLinear && len(n.Children) == 1 {
			*n = *n.Children[0]
		}
		return len(n.Children) > 0 || n.Pane != nil
	}
	if !walk(t.Root) {
		t.Root = leaf(GraphPane())
	}
	t.EnsureActiveTile()
}
