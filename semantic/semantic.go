// Package semantic converts ordered engine delegate callbacks into the
// intent batches the reducer applies, preserving the invariant that a
// newly created engine's creation intent always precedes any intent that
// references it within the same batch — spec.md §4.4.
package semantic

import (
	"time"

	"github.com/google/uuid"

	"github.com/teranos/graphshell/reducer"
)

// EventKind enumerates the delegate callbacks an embedded engine reports.
type EventKind string

const (
	EventURLChanged       EventKind = "url_changed"
	EventHistoryChanged    EventKind = "history_changed"
	EventPageTitleChanged EventKind = "page_title_changed"
	EventCreateNewWebView EventKind = "create_new_web_view"
	EventWebViewCrashed   EventKind = "web_view_crashed"
)

// GraphSemanticEvent is one delegate callback, tagged with its arrival
// sequence so relative order within a kind is preserved through
// partitioning.
type GraphSemanticEvent struct {
	Seq  uint64
	Kind EventKind

	// EngineID is the engine the event pertains to; for
	// EventCreateNewWebView it is the id assigned to the new child engine.
	EngineID uuid.UUID
	// ParentEngineID is the opener engine, set only for
	// EventCreateNewWebView.
	ParentEngineID uuid.UUID

	URL   string
	Title string

	HistoryEntries []string
	HistoryIndex   int

	CrashReason  string
	HasBacktrace bool

	At time.Time
}

// Result is the output of Process: the intent batch in apply order, the
// ids of engines created in this batch (in creation order), and the set
// of engine ids that reported any signal at all this batch (used by
// lifecycle.ClassifyProbe's hasResponsiveSignal input).
type Result struct {
	Intents       []reducer.Intent
	CreatedChildIDs []uuid.UUID
	ResponsiveEngineIDs []uuid.UUID
}

// Process partitions events into creation events and others — preserving
// relative order within each partition — then converts creation events
// first so every later intent in the batch can assume its engine's node
// already exists.
func Process(events []GraphSemanticEvent) Result {
	var creations, others []GraphSemanticEvent
	for _, e := range events {
		if e.Kind == EventCreateNewWebView {
			creations = append(creations, e)
		} else {
			others = append(others, e)
		}
	}

	var res Result
	responsive := make(map[uuid.UUID]bool)

	markResponsive := func(id uuid.UUID) {
		if id == uuid.Nil || responsive[id] {
			return
		}
		responsive[id] = true
		res.ResponsiveEngineIDs = append(res.ResponsiveEngineIDs, id)
	}

	for _, e := range creations {
		res.Intents = append(res.Intents, reducer.Intent{
			Kind:     reducer.KindEngineCreated,
			Source:   reducer.SourceServoDelegate,
			NodeID:   e.EngineID,
			ParentID: e.ParentEngineID,
			Str1:     e.URL,
			Time:     e.At,
		})
		res.CreatedChildIDs = append(res.CreatedChildIDs, e.EngineID)
		markResponsive(e.EngineID)
		markResponsive(e.ParentEngineID)
	}

	for _, e := range others {
		switch e.Kind {
		case EventURLChanged:
			res.Intents = append(res.Intents, reducer.Intent{
				Kind: reducer.KindEngineURLChanged, Source: reducer.SourceServoDelegate,
				NodeID: e.EngineID, Str1: e.URL, Time: e.At,
			})
		case EventPageTitleChanged:
			res.Intents = append(res.Intents, reducer.Intent{
				Kind: reducer.KindEngineTitleChanged, Source: reducer.SourceServoDelegate,
				NodeID: e.EngineID, Str1: e.Title, Time: e.At,
			})
		case EventHistoryChanged:
			res.Intents = append(res.Intents, reducer.Intent{
				Kind: reducer.KindEngineHistoryChanged, Source: reducer.SourceServoDelegate,
				NodeID: e.EngineID, Strs: e.HistoryEntries, Float: float64(e.HistoryIndex), Time: e.At,
			})
		case EventWebViewCrashed:
			res.Intents = append(res.Intents, reducer.Intent{
				Kind: reducer.KindEngineCrashed, Source: reducer.SourceServoDelegate,
				NodeID: e.EngineID, Str1: e.CrashReason, Bool: e.HasBacktrace, Time: e.At,
			})
		}
		markResponsive(e.EngineID)
	}

	return res
}
