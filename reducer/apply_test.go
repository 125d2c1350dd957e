package reducer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/graphshell/graphmodel"
)

func TestApplyIntents_AddNodeThenRemoveEdgeCleanup(t *testing.T) {
	s := NewState()
	a := uuid.New()
	b := uuid.New()

	ApplyIntents(s, []Intent{
		{Kind: KindAddNode, NodeID: a, Str1: "https://a.example"},
		{Kind: KindAddNode, NodeID: b, Str1: "https://b.example"},
		{Kind: KindAddEdge, NodeID: a, ParentID: b, Str1: string(graphmodel.EdgeHyperlink)},
	})

	require.Len(t, s.Nodes, 2)
	require.Len(t, s.Edges, 1)

	ApplyIntents(s, []Intent{{Kind: KindRemoveNode, NodeID: a}})

	assert.Len(t, s.Nodes, 1)
	assert.Empty(t, s.Edges, "edges touching a removed node must be dropped too")
}

func TestApplyIntents_InvalidIntentIsDropped(t *testing.T) {
	s := NewState()
	ghost := uuid.New()

	ApplyIntents(s, []Intent{{Kind: KindPinNode, NodeID: ghost, Bool: true}})

	assert.Empty(t, s.Nodes)
}

func TestApplyIntents_EngineCreatedOrdersBeforeDependentIntents(t *testing.T) {
	s := NewState()
	parent := uuid.New()
	child := uuid.New()
	ApplyIntents(s, []Intent{{Kind: KindAddNode, NodeID: parent, Str1: "https://parent.example"}})

	ApplyIntents(s, []Intent{
		// Pin arrives before the engine-created intent in the batch; the
		// reorder step must still apply EngineCreated first so Pin's node
		// exists by the time it runs.
		{Kind: KindPinNode, NodeID: child, Bool: true},
		{Kind: KindEngineCreated, NodeID: child, ParentID: parent, Str1: "https://child.example"},
	})

	require.NotNil(t, s.Nodes[child])
	assert.True(t, s.Nodes[child].Pinned)
	assert.Equal(t, graphmodel.Warm, s.Nodes[child].Lifecycle)

	var foundEdge bool
	for _, e := range s.Edges {
		if e.From == parent && e.To == child {
			foundEdge = true
		}
	}
	assert.True(t, foundEdge, "engine creation from a parent must emit a hyperlink edge")
}

func TestApplyIntents_UndoRestoresPriorSnapshot(t *testing.T) {
	s := NewState()
	a := uuid.New()
	ApplyIntents(s, []Intent{{Kind: KindAddNode, NodeID: a, Str1: "https://a.example"}})
	require.Len(t, s.Nodes, 1)

	ApplyIntents(s, []Intent{{Kind: KindRemoveNode, NodeID: a}})
	require.Empty(t, s.Nodes)

	ApplyIntents(s, []Intent{{Kind: KindUndo}})
	assert.Len(t, s.Nodes, 1)
}

func TestApplyIntents_SelectToggle(t *testing.T) {
	s := NewState()
	a := uuid.New()
	ApplyIntents(s, []Intent{
		{Kind: KindAddNode, NodeID: a, Str1: "https://a.example"},
		{Kind: KindSelectToggle, NodeID: a},
	})
	assert.True(t, s.Workspaces[s.ActiveWorkspace].Selected[a])

	ApplyIntents(s, []Intent{{Kind: KindSelectToggle, NodeID: a}})
	assert.False(t, s.Workspaces[s.ActiveWorkspace].Selected[a])
}

func TestApplyIntents_PaneCloseNeverEmptiesTree(t *testing.T) {
	s := NewState()
	a := uuid.New()
	ApplyIntents(s, []Intent{
		{Kind: KindAddNode, NodeID: a, Str1: "https://a.example"},
		{Kind: KindPaneOpen, NodeID: a, Str1: string("split_horizontal")},
	})
	ApplyIntents(s, []Intent{{Kind: KindPaneClose, NodeID: a}})

	assert.True(t, s.Panes.FocusedNodeKey().IsGraph)
}
