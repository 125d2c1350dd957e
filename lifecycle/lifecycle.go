// Package lifecycle owns the Cold/Warm/Active state machine's decision
// logic: probe classification, engine-creation backpressure, LRU eviction
// ordering, and the memory-pressure-adjusted active-tile limit. Every
// function here is pure — it reads the current graph state and emits the
// intents the reducer should apply; it never mutates a *graphmodel.Node
// directly, keeping the reducer the sole writer of workspace state.
package lifecycle

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/graphmodel"
	"github.com/teranos/graphshell/reducer"
)

// maxCooldownStep caps the exponential-backoff doubling; spec.md §4.2.
const maxCooldownStep = 8

// ProbeClassification is the outcome of evaluating a pending engine probe.
type ProbeClassification string

const (
	ProbeConfirmed ProbeClassification = "confirmed"
	ProbePending   ProbeClassification = "pending"
	ProbeTimedOut  ProbeClassification = "timed_out"
)

// ClassifyProbe evaluates a pending probe's elapsed duration against the
// confirmation window and probe timeout. A responsive signal (the engine
// reported a UrlChanged/PageTitleChanged delegate event) always confirms;
// absent that, an engine that has existed past the confirmation window is
// also treated as confirmed, so a slow-but-alive engine isn't killed out
// from under a user who is already looking at it.
func ClassifyProbe(cfg am.LifecycleConfig, elapsed time.Duration, containsEngine, hasResponsiveSignal bool) ProbeClassification {
	if hasResponsiveSignal || (containsEngine && elapsed >= cfg.ConfirmationWindow) {
		return ProbeConfirmed
	}
	if elapsed >= cfg.ProbeTimeout {
		return ProbeTimedOut
	}
	return ProbePending
}

// EnsureEngineForNode computes the intents needed to get an Active node a
// live, confirmed engine, honoring engine-creation backpressure. node must
// reflect the committed state (post previous ApplyIntents call); mapping
// reports whether an engine is currently mapped and, if so, whether it is
// still alive.
func EnsureEngineForNode(cfg am.LifecycleConfig, node *graphmodel.Node, now time.Time, capabilityAllowed bool, mappingExists, mappingAlive bool) []reducer.Intent {
	if node.Lifecycle != graphmodel.Active {
		if hasBackpressureState(node) {
			return []reducer.Intent{clearBlockedIntent(node.ID)}
		}
		return nil
	}

	if !capabilityAllowed {
		// A mod has disabled webview creation entirely; leave the node
		// Active with no engine rather than fighting the mod's decision
		// every reconcile.
		return nil
	}

	if mappingExists && mappingAlive {
		if hasBackpressureState(node) {
			return []reducer.Intent{clearBlockedIntent(node.ID)}
		}
		return nil
	}

	if now.Before(node.Backpressure.CooldownUntil) {
		return []reducer.Intent{{
			Kind:   reducer.KindMarkBlocked,
			Source: reducer.SourcePrefetchScheduler,
			NodeID: node.ID,
			Time:   node.Backpressure.CooldownUntil,
			Float:  float64(node.Backpressure.CooldownStep),
		}}
	}

	if node.Backpressure.PendingProbe == nil && node.Backpressure.RetryCount < cfg.MaxRetries {
		return []reducer.Intent{{
			Kind:   reducer.KindEngineProbeStarted,
			Source: reducer.SourcePrefetchScheduler,
			NodeID: node.ID,
			Str1:   uuid.NewString(),
			Time:   now,
		}}
	}

	if node.Backpressure.RetryCount >= cfg.MaxRetries {
		cooldown, step := armCooldown(cfg, now, node.Backpressure.CooldownStep)
		return []reducer.Intent{{
			Kind:   reducer.KindMarkBlocked,
			Source: reducer.SourcePrefetchScheduler,
			NodeID: node.ID,
			Time:   cooldown,
			Float:  float64(step),
		}}
	}

	return nil
}

// ReconcileBackpressure re-classifies every node with a pending probe and
// returns the intents the classification implies, per spec.md §4.2.
func ReconcileBackpressure(cfg am.LifecycleConfig, nodes map[uuid.UUID]*graphmodel.Node, now time.Time, containsEngine, responsive func(nodeID uuid.UUID) bool) []reducer.Intent {
	var out []reducer.Intent
	for id, n := range nodes {
		probe := n.Backpressure.PendingProbe
		if probe == nil {
			continue
		}
		elapsed := now.Sub(probe.StartedAt)
		switch ClassifyProbe(cfg, elapsed, containsEngine(id), responsive(id)) {
		case ProbeConfirmed:
			out = append(out, clearBlockedIntent(id))
		case ProbeTimedOut:
			out = append(out, reducer.Intent{
				Kind: reducer.KindUnmapEngine, Source: reducer.SourcePrefetchScheduler, NodeID: id,
			})
			if n.Backpressure.RetryCount >= cfg.MaxRetries {
				cooldown, step := armCooldown(cfg, now, n.Backpressure.CooldownStep)
				out = append(out, reducer.Intent{
					Kind: reducer.KindMarkBlocked, Source: reducer.SourcePrefetchScheduler, NodeID: id,
					Time: cooldown, Float: float64(step),
				})
			}
		case ProbePending:
			// still waiting; nothing to emit yet.
		}
	}
	return out
}

func hasBackpressureState(n *graphmodel.Node) bool {
	b := n.Backpressure
	return b.RetryCount != 0 || b.PendingProbe != nil || !b.CooldownUntil.IsZero() || b.CooldownStep != 0
}

func clearBlockedIntent(nodeID uuid.UUID) reducer.Intent {
	return reducer.Intent{Kind: reducer.KindClearBlocked, Source: reducer.SourcePrefetchScheduler, NodeID: nodeID}
}

// armCooldown computes the next cooldown deadline using exponential
// backoff: the wait is CooldownMin * CooldownFactor^(step-1), capped at
// CooldownMax, with step itself capped at maxCooldownStep.
func armCooldown(cfg am.LifecycleConfig, now time.Time, prevStep int) (time.Time, int) {
	step := prevStep + 1
	if step > maxCooldownStep {
		step = maxCooldownStep
	}
	wait := cfg.CooldownMin
	for i := 1; i < step; i++ {
		wait = time.Duration(float64(wait) * cfg.CooldownFactor)
		if wait >= cfg.CooldownMax {
			wait = cfg.CooldownMax
			break
		}
	}
	return now.Add(wait), step
}

// ColdRestoreURL resolves the URL a Cold node should restore to. The real
// logic lives in graphmodel (apply.go needs it too, and cannot import this
// package without a cycle); this forwards for lifecycle's own callers.
func ColdRestoreURL(node *graphmodel.Node, historyEntries []string, historyIndex int) string {
	return graphmodel.ColdRestoreURL(node, historyEntries, historyIndex)
}

// PressureAdjustedLimit collapses the configured active-tile limit under
// memory pressure: Normal keeps base, Warning trims by one (floor 1),
// Critical collapses to a single active engine, Unknown is treated as
// Normal (no pressure signal available, so no collapse is applied).
func PressureAdjustedLimit(base int, level reducer.MemoryPressureStatus) int {
	switch level {
	case reducer.MemoryWarning:
		if base-1 < 1 {
			return 1
		}
		return base - 1
	case reducer.MemoryCritical:
		return 1
	default:
		return base
	}
}

// CanAutoPromote reports whether node is eligible for an automatic
// promotion (active-tile-visible, selected-prewarm, restore). A node left
// in crash-blocked state by a WebViewCrashed event is excluded until the
// user explicitly reactivates it.
func CanAutoPromote(node *graphmodel.Node) bool {
	return node.Crash == nil
}

// EvictActiveOverflow returns, in LRU order (oldest ActivationSeq first),
// the ids of Active, unprotected nodes that exceed limit.
func EvictActiveOverflow(nodes map[uuid.UUID]*graphmodel.Node, protected map[uuid.UUID]bool, limit int) []uuid.UUID {
	return evictOverflow(nodes, protected, limit, graphmodel.Active, func(n *graphmodel.Node) uint64 { return n.ActivationSeq })
}

// EvictWarmOverflow mirrors EvictActiveOverflow using each node's
// independent Warm-LRU sequence.
func EvictWarmOverflow(nodes map[uuid.UUID]*graphmodel.Node, protected map[uuid.UUID]bool, limit int) []uuid.UUID {
	return evictOverflow(nodes, protected, limit, graphmodel.Warm, func(n *graphmodel.Node) uint64 { return n.WarmSeq })
}

func evictOverflow(nodes map[uuid.UUID]*graphmodel.Node, protected map[uuid.UUID]bool, limit int, state graphmodel.LifecycleState, seqOf func(*graphmodel.Node) uint64) []uuid.UUID {
	var candidates []uuid.UUID
	for id, n := range nodes {
		if n.Lifecycle != state || protected[id] {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) <= limit {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := seqOf(nodes[candidates[i]]), seqOf(nodes[candidates[j]])
		if si != sj {
			return si < sj
		}
		return candidates[i].String() < candidates[j].String()
	})
	return candidates[:len(candidates)-limit]
}
