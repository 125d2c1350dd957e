package workbench

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTree_StartsWithSoleGraphPane(t *testing.T) {
	tr := NewTree()
	assert.True(t, tr.Root.Pane.IsGraph)
	assert.Equal(t, GraphPane(), *tr.FocusedNodeKey())
}

func TestOpenOrFocusNodePane_SplitAddsAdjacentPane(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	tr.OpenOrFocusNodePane(a, SplitHorizontal)

	require.Equal(t, ContainerLinear, tr.Root.Kind)
	require.Len(t, tr.Root.Children, 2)
	assert.Equal(t, a, tr.FocusedNodeKey().NodeID)
}

func TestOpenOrFocusNodePane_ReopeningExistingFocusesInstead(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	b := uuid.New()
	tr.OpenOrFocusNodePane(a, SplitHorizontal)
	tr.OpenOrFocusNodePane(b, SplitHorizontal)
	require.Len(t, tr.Root.Children, 3)

	tr.OpenOrFocusNodePane(a, SplitHorizontal)
	assert.Len(t, tr.Root.Children, 3, "reopening must not duplicate the pane")
	assert.Equal(t, a, tr.FocusedNodeKey().NodeID)
}

func TestRemoveNodePaneForNode_LastGraphPaneIsProtected(t *testing.T) {
	tr := NewTree()
	err := tr.remove(GraphPane())
	assert.ErrorIs(t, err, ErrLastGraphPane)
}

func TestRemoveNodePaneForNode_FallsBackToGraphPaneWhenEmptied(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	tr.OpenOrFocusNodePane(a, SplitHorizontal)

	require.NoError(t, tr.RemoveNodePaneForNode(a))
	tr.EnsureActiveTile()
	assert.True(t, tr.FocusedNodeKey().IsGraph)
}

func TestActiveNodePaneRects_OnlyCountsVisibleTabSelection(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	b := uuid.New()
	tr.OpenOrFocusNodePane(a, Tab)
	tr.OpenOrFocusNodePane(b, Tab)

	rects := tr.ActiveNodePaneRects()
	require.Len(t, rects, 1)
	assert.Equal(t, b, rects[0])
}

func TestMoveNodeTab_CrossGroupMoveSignalsGroupedEdge(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	b := uuid.New()
	tr.OpenOrFocusNodePane(a, SplitHorizontal)
	tr.OpenOrFocusNodePane(b, SplitHorizontal)

	destGroup := tr.tabGroupOf(NodePane(a))
	require.NotNil(t, destGroup)

	signal := tr.MoveNodeTab(b, destGroup)
	require.NotNil(t, signal)
	assert.Equal(t, b, signal.From)
	assert.Equal(t, a, signal.To)
}

func TestMoveNodeTab_SameGroupMoveSignalsNothing(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	b := uuid.New()
	tr.OpenOrFocusNodePane(a, Tab)
	tr.OpenOrFocusNodePane(b, Tab)

	group := tr.tabGroupOf(NodePane(a))
	signal := tr.MoveNodeTab(a, group)
	assert.Nil(t, signal)
}

func TestOpenOrFocusToolPane_ReopeningExistingFocusesInstead(t *testing.T) {
	tr := NewTree()
	tr.OpenOrFocusToolPane(ToolDiagnostics)
	require.Equal(t, ContainerTab, tr.Root.Kind)
	require.Len(t, tr.Root.Children, 2)

	tr.OpenOrFocusToolPane(ToolSettings)
	require.Len(t, tr.Root.Children, 3)

	tr.OpenOrFocusToolPane(ToolDiagnostics)
	assert.Len(t, tr.Root.Children, 3, "reopening must not duplicate the tool pane")
	assert.Equal(t, ToolDiagnostics, tr.FocusedNodeKey().Tool)
}

func TestPruneMissing_RemovesDeadNodePanesAndKeepsGraphPane(t *testing.T) {
	tr := NewTree()
	a := uuid.New()
	b := uuid.New()
	tr.OpenOrFocusNodePane(a, SplitHorizontal)
	tr.OpenOrFocusNodePane(b, SplitHorizontal)

	tr.PruneMissing(map[uuid.UUID]bool{a: true})

	rects := tr.ActiveNodePaneRects()
	assert.Contains(t, rects, a)
	assert.NotContains(t, rects, b)
}
