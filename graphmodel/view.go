package graphmodel

import (
	"time"

	"github.com/google/uuid"
)

// Camera is a view's canvas viewport.
type Camera struct {
	X, Y, Zoom float64
}

// LayoutMode distinguishes a view that shares node positions with every
// other view (Canonical) from one that holds its own shadow positions
// until they're folded back via CommitDivergentView (Divergent).
type LayoutMode string

const (
	Canonical LayoutMode = "canonical"
	Divergent LayoutMode = "divergent"
)

// View is one workspace's per-view session state: its own camera, lens
// (rendering/grouping mode), layout mode, and — while Divergent — a set of
// shadow node positions that haven't yet been committed back to the shared
// graph.
type View struct {
	ID              string
	Camera          Camera
	Lens            string
	LayoutMode      LayoutMode
	ShadowPositions map[uuid.UUID]Position
}

// NewView creates a view in Canonical layout mode with a default camera.
func NewView(id string) *View {
	return &View{ID: id, Camera: Camera{Zoom: 1}, LayoutMode: Canonical}
}

// CommitDivergentView folds a view's shadow positions into the shared node
// positions and resets it to Canonical, discarding the shadow set.
func CommitDivergentView(view *View, nodes map[uuid.UUID]*Node) {
	for id, pos := range view.ShadowPositions {
		if n := nodes[id]; n != nil {
			n.Position = pos
		}
	}
	view.ShadowPositions = nil
	view.LayoutMode = Canonical
}

// GraphView is the renderable projection of the graph sent to the canvas.
// Adapted from the teacher's graph.Graph visualization model (graph/models.go):
// same Nodes/Links/Meta shape, generalized from attestation-typed nodes to
// lifecycle-stated browser nodes.
type GraphView struct {
	Nodes []ViewNode `json:"nodes"`
	Links []ViewLink `json:"links"`
	Meta  ViewMeta   `json:"meta"`
}

// ViewNode is one rendered graph node.
type ViewNode struct {
	ID        uuid.UUID      `json:"id"`
	Label     string         `json:"label"`
	Lifecycle LifecycleState `json:"lifecycle"`
	Pinned    bool           `json:"pinned"`
	Group     int            `json:"group,omitempty"`
}

// ViewLink is one rendered graph edge.
type ViewLink struct {
	Source uuid.UUID `json:"source"`
	Target uuid.UUID `json:"target"`
	Kind   EdgeKind  `json:"kind"`
	Weight float64   `json:"value"`
}

// ViewMeta carries render-time statistics alongside the graph.
type ViewMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	TotalNodes  int       `json:"total_nodes"`
	TotalEdges  int       `json:"total_edges"`
}

// BuildView projects nodes and edges into a GraphView. Visibility and
// layout are the workbench's concern; this only shapes data for the wire.
func BuildView(nodes []*Node, edges []*Edge) GraphView {
	view := GraphView{
		Nodes: make([]ViewNode, 0, len(nodes)),
		Links: make([]ViewLink, 0, len(edges)),
		Meta: ViewMeta{
			GeneratedAt: time.Now(),
			TotalNodes:  len(nodes),
			TotalEdges:  len(edges),
		},
	}
	for _, n := range nodes {
		view.Nodes = append(view.Nodes, ViewNode{
			ID:        n.ID,
			Label:     n.Title,
			Lifecycle: n.Lifecycle,
			Pinned:    n.Pinned,
		})
	}
	for _, e := range edges {
		view.Links = append(view.Links, ViewLink{
			Source: e.From,
			Target: e.To,
			Kind:   e.Kind,
			Weight: e.Weight,
		})
	}
	return view
}
