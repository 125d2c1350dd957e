// Package workbench implements the hierarchical tiling pane tree: a tree of
// linear (split) and tab containers whose leaves are node panes or the
// permanent graph pane.
package workbench

import (
	"github.com/google/uuid"

	"github.com/teranos/graphshell/errors"
)

// SplitMode selects how a new pane is inserted relative to the current root.
type SplitMode string

const (
	Tab             SplitMode = "tab"
	SplitHorizontal SplitMode = "split_horizontal"
	SplitVertical   SplitMode = "split_vertical"
)

// ContainerKind distinguishes a tab strip, a linear (split) container, or a
// grid container from one another.
type ContainerKind string

const (
	ContainerTab    ContainerKind = "tab"
	ContainerLinear ContainerKind = "linear"
	ContainerGrid   ContainerKind = "grid"
)

// Orientation applies to linear containers.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// ToolSurface identifies which built-in utility surface a Tool leaf shows.
type ToolSurface string

const (
	ToolDiagnostics          ToolSurface = "diagnostics"
	ToolHistoryManager       ToolSurface = "history_manager"
	ToolAccessibilityInspector ToolSurface = "accessibility_inspector"
	ToolSettings             ToolSurface = "settings"
)

// RenderMode hints how a node pane's content should be composited onto the
// canvas, independent of which viewer backend produced it.
type RenderMode string

const (
	CompositedTexture RenderMode = "composited_texture"
	NativeOverlay     RenderMode = "native_overlay"
	EmbeddedEgui      RenderMode = "embedded_egui"
	Placeholder       RenderMode = "placeholder"
)

// PaneID identifies a leaf pane: a node pane (node id, optionally overriding
// the registry-resolved viewer and its composite mode), the permanent graph
// pane, or a built-in tool surface.
type PaneID struct {
	NodeID  uuid.UUID
	IsGraph bool

	Tool ToolSurface // non-empty selects the Tool leaf variant

	// ViewerOverride, when non-empty, names a registries.ViewerRegistry
	// entry to use instead of the one the protocol registry would resolve
	// for the node's address. RenderMode hints how to composite it.
	ViewerOverride string
	RenderMode     RenderMode
}

func GraphPane() PaneID { return PaneID{IsGraph: true} }
func NodePane(id uuid.UUID) PaneID { return PaneID{NodeID: id} }
func ToolPane(surface ToolSurface) PaneID { return PaneID{Tool: surface} }

func (p PaneID) Equal(other PaneID) bool {
	return p.IsGraph == other.IsGraph && p.NodeID == other.NodeID && p.Tool == other.Tool
}

// Node is one element of the pane tree: either a leaf (Pane set) or a
// container (Kind set, Children populated).
type Node struct {
	Kind        ContainerKind
	Orientation Orientation
	Children    []*Node
	Pane        *PaneID // non-nil for leaves
	ActiveChild int     // index into Children selected in a tab container
}

func leaf(p PaneID) *Node { return &Node{Pane: &p} }

// Tree is the hierarchical tiling tree for one workspace's active layout.
type Tree struct {
	Root *Node

	// focused is the currently focused leaf's pane id.
	focused *PaneID

	detachMarginPx float64
}

// NewTree creates a tree whose sole pane is the permanent graph pane.
func NewTree() *Tree {
	root := leaf(GraphPane())
	gp := GraphPane()
	return &Tree{Root: root, focused: &gp, detachMarginPx: 24}
}

// FocusedNodeKey returns the currently focused pane, or nil if none.
func (t *Tree) FocusedNodeKey() *PaneID { return t.focused }

// findLeaf locates the leaf node for pane id, and its parent container (nil
// if id is the tree root itself).
func (t *Tree) findLeaf(id PaneID) (leafNode, parent *Node, idxInParent int) {
	var walk func(n, p *Node, idx int) (*Node, *Node, int)
	walk = func(n, p *Node, idx int) (*Node, *Node, int) {
		if n.Pane != nil {
			if n.Pane.Equal(id) {
				return n, p, idx
			}
			return nil, nil, -1
		}
		for i, c := range n.Children {
			if found, fp, fi := walk(c, n, i); found != nil {
				return found, fp, fi
			}
		}
		return nil, nil, -1
	}
	return walk(t.Root, nil, -1)
}

// ErrLastGraphPane is returned when closing would leave zero panes — the
// graph pane is never closable.
var ErrLastGraphPane = errors.New("workbench: cannot remove the last remaining graph pane")
