package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/graphmodel"
	"github.com/teranos/graphshell/reducer"
)

func testConfig() am.LifecycleConfig {
	return am.LifecycleConfig{
		ConfirmationWindow: 2 * time.Second,
		ProbeTimeout:        8 * time.Second,
		MaxRetries:          3,
		CooldownMin:         1 * time.Second,
		CooldownMax:         30 * time.Second,
		CooldownFactor:      2,
		MaxActiveEngines:    4,
	}
}

func TestClassifyProbe(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, ProbeConfirmed, ClassifyProbe(cfg, 100*time.Millisecond, false, true), "a responsive signal confirms regardless of elapsed time")
	assert.Equal(t, ProbeConfirmed, ClassifyProbe(cfg, 3*time.Second, true, false), "an engine alive past the confirmation window confirms without a responsive signal")
	assert.Equal(t, ProbePending, ClassifyProbe(cfg, 1*time.Second, true, false))
	assert.Equal(t, ProbeTimedOut, ClassifyProbe(cfg, 9*time.Second, false, false))
}

func TestEnsureEngineForNode_NonActiveNodeClearsBackpressure(t *testing.T) {
	n := &graphmodel.Node{ID: uuid.New(), Lifecycle: graphmodel.Warm}
	n.Backpressure.RetryCount = 2

	intents := EnsureEngineForNode(testConfig(), n, time.Now(), true, false, false)
	require.Len(t, intents, 1)
	assert.Equal(t, reducer.KindClearBlocked, intents[0].Kind)
}

func TestEnsureEngineForNode_StartsProbeWhenNoneIsPending(t *testing.T) {
	n := &graphmodel.Node{ID: uuid.New(), Lifecycle: graphmodel.Active}

	intents := EnsureEngineForNode(testConfig(), n, time.Now(), true, false, false)
	require.Len(t, intents, 1)
	assert.Equal(t, reducer.KindEngineProbeStarted, intents[0].Kind)
	assert.NotEmpty(t, intents[0].Str1, "a fresh engine id must be assigned")
}

func TestEnsureEngineForNode_ArmsCooldownAfterMaxRetries(t *testing.T) {
	n := &graphmodel.Node{ID: uuid.New(), Lifecycle: graphmodel.Active}
	n.Backpressure.RetryCount = 3

	now := time.Now()
	intents := EnsureEngineForNode(testConfig(), n, now, true, false, false)
	require.Len(t, intents, 1)
	assert.Equal(t, reducer.KindMarkBlocked, intents[0].Kind)
	assert.True(t, intents[0].Time.After(now))
	assert.Equal(t, float64(1), intents[0].Float, "first cooldown arms at step 1")
}

func TestEnsureEngineForNode_RespectsActiveCooldown(t *testing.T) {
	n := &graphmodel.Node{ID: uuid.New(), Lifecycle: graphmodel.Active}
	cooldownUntil := time.Now().Add(5 * time.Second)
	n.Backpressure.CooldownUntil = cooldownUntil
	n.Backpressure.CooldownStep = 2

	intents := EnsureEngineForNode(testConfig(), n, time.Now(), true, false, false)
	require.Len(t, intents, 1, "a node still cooling down should not retry, but should re-emit MarkBlocked")
	assert.Equal(t, reducer.KindMarkBlocked, intents[0].Kind)
	assert.Equal(t, cooldownUntil, intents[0].Time, "retry_at stays pinned to the existing cooldown deadline")
	assert.Equal(t, float64(2), intents[0].Float, "cooldown step is not advanced by a mid-cooldown ensure call")
}

func TestEnsureEngineForNode_CapabilityGateDisablesCreation(t *testing.T) {
	n := &graphmodel.Node{ID: uuid.New(), Lifecycle: graphmodel.Active}

	intents := EnsureEngineForNode(testConfig(), n, time.Now(), false, false, false)
	assert.Empty(t, intents, "a mod disabling viewer:webview must suppress engine creation entirely")
}

func TestEnsureEngineForNode_LiveMappingClearsBackpressure(t *testing.T) {
	n := &graphmodel.Node{ID: uuid.New(), Lifecycle: graphmodel.Active}
	n.Backpressure.RetryCount = 1

	intents := EnsureEngineForNode(testConfig(), n, time.Now(), true, true, true)
	require.Len(t, intents, 1)
	assert.Equal(t, reducer.KindClearBlocked, intents[0].Kind)
}

func TestReconcileBackpressure_ConfirmedClearsState(t *testing.T) {
	id := uuid.New()
	n := &graphmodel.Node{ID: id, Lifecycle: graphmodel.Active}
	n.Backpressure.PendingProbe = &graphmodel.PendingProbe{EngineID: "e1", StartedAt: time.Now().Add(-3 * time.Second)}

	nodes := map[uuid.UUID]*graphmodel.Node{id: n}
	intents := ReconcileBackpressure(testConfig(), nodes, time.Now(),
		func(uuid.UUID) bool { return true }, func(uuid.UUID) bool { return false })

	require.Len(t, intents, 1)
	assert.Equal(t, reducer.KindClearBlocked, intents[0].Kind)
}

func TestReconcileBackpressure_TimedOutUnmapsAndArmsCooldownAtMaxRetries(t *testing.T) {
	id := uuid.New()
	n := &graphmodel.Node{ID: id, Lifecycle: graphmodel.Active}
	n.Backpressure.PendingProbe = &graphmodel.PendingProbe{EngineID: "e1", StartedAt: time.Now().Add(-9 * time.Second)}
	n.Backpressure.RetryCount = 3

	nodes := map[uuid.UUID]*graphmodel.Node{id: n}
	intents := ReconcileBackpressure(testConfig(), nodes, time.Now(),
		func(uuid.UUID) bool { return false }, func(uuid.UUID) bool { return false })

	require.Len(t, intents, 2)
	assert.Equal(t, reducer.KindUnmapEngine, intents[0].Kind)
	assert.Equal(t, reducer.KindMarkBlocked, intents[1].Kind)
}

func TestReconcileBackpressure_TimedOutAloneDoesNotArmCooldown(t *testing.T) {
	id := uuid.New()
	n := &graphmodel.Node{ID: id, Lifecycle: graphmodel.Active}
	n.Backpressure.PendingProbe = &graphmodel.PendingProbe{EngineID: "e1", StartedAt: time.Now().Add(-9 * time.Second)}
	n.Backpressure.RetryCount = 1

	nodes := map[uuid.UUID]*graphmodel.Node{id: n}
	intents := ReconcileBackpressure(testConfig(), nodes, time.Now(),
		func(uuid.UUID) bool { return false }, func(uuid.UUID) bool { return false })

	require.Len(t, intents, 1, "a single timeout alone must never arm cooldown")
	assert.Equal(t, reducer.KindUnmapEngine, intents[0].Kind)
}

func TestColdRestoreURL(t *testing.T) {
	n := &graphmodel.Node{URL: "https://fallback.example"}

	assert.Equal(t, "https://fallback.example", ColdRestoreURL(n, nil, 0))
	assert.Equal(t, "https://b.example", ColdRestoreURL(n, []string{"https://a.example", "https://b.example"}, 1))
	assert.Equal(t, "https://b.example", ColdRestoreURL(n, []string{"https://a.example", "https://b.example"}, 9), "an out-of-range index clamps to the last entry")
}

func TestPressureAdjustedLimit(t *testing.T) {
	assert.Equal(t, 4, PressureAdjustedLimit(4, reducer.MemoryNormal))
	assert.Equal(t, 3, PressureAdjustedLimit(4, reducer.MemoryWarning))
	assert.Equal(t, 1, PressureAdjustedLimit(1, reducer.MemoryWarning), "warning never collapses below 1")
	assert.Equal(t, 1, PressureAdjustedLimit(4, reducer.MemoryCritical))
	assert.Equal(t, 4, PressureAdjustedLimit(4, reducer.MemoryPressureStatus("unknown")))
}

func TestEvictActiveOverflow_EvictsOldestUnprotectedFirst(t *testing.T) {
	oldest := uuid.New()
	middle := uuid.New()
	newest := uuid.New()
	protected := uuid.New()

	nodes := map[uuid.UUID]*graphmodel.Node{
		oldest:    {ID: oldest, Lifecycle: graphmodel.Active, ActivationSeq: 1},
		middle:    {ID: middle, Lifecycle: graphmodel.Active, ActivationSeq: 2},
		newest:    {ID: newest, Lifecycle: graphmodel.Active, ActivationSeq: 3},
		protected: {ID: protected, Lifecycle: graphmodel.Active, ActivationSeq: 0},
	}

	evicted := EvictActiveOverflow(nodes, map[uuid.UUID]bool{protected: true}, 2)
	require.Len(t, evicted, 1)
	assert.Equal(t, oldest, evicted[0])
}

func TestEvictActiveOverflow_NoEvictionUnderLimit(t *testing.T) {
	id := uuid.New()
	nodes := map[uuid.UUID]*graphmodel.Node{id: {ID: id, Lifecycle: graphmodel.Active, ActivationSeq: 1}}

	assert.Empty(t, EvictActiveOverflow(nodes, nil, 4))
}

func TestCanAutoPromote(t *testing.T) {
	n := &graphmodel.Node{}
	assert.True(t, CanAutoPromote(n))

	n.Crash = &graphmodel.CrashState{Reason: "renderer_killed"}
	assert.False(t, CanAutoPromote(n), "a crash-blocked node must not auto-promote until reactivated")
}
