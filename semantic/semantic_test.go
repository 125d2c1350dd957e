package semantic

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/graphshell/reducer"
)

func TestProcess_CreationPrecedesReferenceWithinABatch(t *testing.T) {
	parent := uuid.New()
	child := uuid.New()
	now := time.Now()

	events := []GraphSemanticEvent{
		{Seq: 1, Kind: EventURLChanged, EngineID: child, URL: "https://child.example/2", At: now},
		{Seq: 2, Kind: EventCreateNewWebView, EngineID: child, ParentEngineID: parent, URL: "https://child.example/1", At: now},
		{Seq: 3, Kind: EventPageTitleChanged, EngineID: parent, Title: "Parent Tab", At: now},
	}

	res := Process(events)
	require.Len(t, res.Intents, 3)

	assert.Equal(t, reducer.KindEngineCreated, res.Intents[0].Kind, "the creation intent must come first even though it arrived second")
	assert.Equal(t, child, res.Intents[0].NodeID)

	var sawCreation bool
	for _, in := range res.Intents {
		if in.Kind == reducer.KindEngineCreated && in.NodeID == child {
			sawCreation = true
		}
		if in.NodeID == child && in.Kind != reducer.KindEngineCreated {
			assert.True(t, sawCreation, "a reference to child must not precede its creation intent")
		}
	}
}

func TestProcess_CollectsCreatedChildIDsInOrder(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	parent := uuid.New()

	res := Process([]GraphSemanticEvent{
		{Seq: 1, Kind: EventCreateNewWebView, EngineID: first, ParentEngineID: parent},
		{Seq: 2, Kind: EventCreateNewWebView, EngineID: second, ParentEngineID: parent},
	})

	assert.Equal(t, []uuid.UUID{first, second}, res.CreatedChildIDs)
}

func TestProcess_MarksBothParentAndChildResponsiveOnCreation(t *testing.T) {
	parent := uuid.New()
	child := uuid.New()

	res := Process([]GraphSemanticEvent{
		{Seq: 1, Kind: EventCreateNewWebView, EngineID: child, ParentEngineID: parent},
	})

	assert.ElementsMatch(t, []uuid.UUID{child, parent}, res.ResponsiveEngineIDs)
}

func TestProcess_NonCreationEventMarksItsEngineResponsive(t *testing.T) {
	engine := uuid.New()

	res := Process([]GraphSemanticEvent{
		{Seq: 1, Kind: EventURLChanged, EngineID: engine, URL: "https://example.com"},
	})

	assert.Equal(t, []uuid.UUID{engine}, res.ResponsiveEngineIDs)
}

func TestProcess_WebViewCrashedCarriesReasonAndBacktraceFlag(t *testing.T) {
	engine := uuid.New()

	res := Process([]GraphSemanticEvent{
		{Seq: 1, Kind: EventWebViewCrashed, EngineID: engine, CrashReason: "renderer_oom", HasBacktrace: true},
	})

	require.Len(t, res.Intents, 1)
	assert.Equal(t, reducer.KindEngineCrashed, res.Intents[0].Kind)
	assert.Equal(t, "renderer_oom", res.Intents[0].Str1)
	assert.True(t, res.Intents[0].Bool)
}

func TestProcess_EmptyBatchProducesNoIntents(t *testing.T) {
	res := Process(nil)
	assert.Empty(t, res.Intents)
	assert.Empty(t, res.CreatedChildIDs)
	assert.Empty(t, res.ResponsiveEngineIDs)
}
