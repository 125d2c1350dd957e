package persistence

import (
	"bytes"
	"encoding/gob"

	"github.com/teranos/graphshell/errors"
	"github.com/teranos/graphshell/reducer"
	"github.com/teranos/graphshell/verse"
)

// IntentQueue is the subset of the control panel's queued-intent channel
// the applier needs: a non-blocking way to hand remotely-sourced intents
// back into the reducer's single-writer loop.
type IntentQueue interface {
	Enqueue(source reducer.Source, intents []reducer.Intent) error
}

// Applier implements verse.IntentApplier by decoding each SyncedIntent's
// opaque gob blob back into a reducer.Intent batch and handing it to the
// control panel's queue tagged with reducer.SourceP2pSync, in the order the
// sync worker passes them. Neither the applier nor the worker reorders by a
// SyncedIntent's Causes.
type Applier struct {
	queue IntentQueue
}

// NewApplier wraps queue for use as a verse.IntentApplier.
func NewApplier(queue IntentQueue) *Applier {
	return &Applier{queue: queue}
}

func (a *Applier) ApplyRemoteLogEntries(workspaceID string, intents []verse.SyncedIntent) error {
	var batch []reducer.Intent
	for _, in := range intents {
		var decoded []reducer.Intent
		dec := gob.NewDecoder(bytes.NewReader(in.LogEntry))
		if err := dec.Decode(&decoded); err != nil {
			return errors.Wrapf(err, "decode synced intent from %s seq %d", in.AuthoredBy, in.Sequence)
		}
		batch = append(batch, decoded...)
	}
	if len(batch) == 0 {
		return nil
	}
	return a.queue.Enqueue(reducer.SourceP2pSync, batch)
}
