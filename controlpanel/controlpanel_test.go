package controlpanel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/reducer"
)

func TestPanel_EnqueueAndDrainPending(t *testing.T) {
	p := New(context.Background(), am.ControlPanelConfig{QueueCapacity: 4}, nil)

	require.NoError(t, p.Enqueue(reducer.SourceLocalUI, []reducer.Intent{{Kind: reducer.KindAddNode}}))
	require.NoError(t, p.Enqueue(reducer.SourceMemoryMonitor, []reducer.Intent{{Kind: reducer.KindSetMemoryPressureStatus}}))

	drained := p.DrainPending()
	require.Len(t, drained, 2)
	assert.Equal(t, reducer.SourceLocalUI, drained[0].Source)
	assert.Empty(t, p.DrainPending(), "drain should be non-blocking and exhaustive")
}

func TestPanel_TryEnqueueDropsWhenFull(t *testing.T) {
	p := New(context.Background(), am.ControlPanelConfig{QueueCapacity: 1}, nil)

	assert.True(t, p.TryEnqueue(reducer.SourceMemoryMonitor, []reducer.Intent{{Kind: reducer.KindSetMemoryPressureStatus}}))
	assert.False(t, p.TryEnqueue(reducer.SourceMemoryMonitor, []reducer.Intent{{Kind: reducer.KindSetMemoryPressureStatus}}), "second send should drop, not block")
}

func TestPanel_ShutdownWaitsForWorkers(t *testing.T) {
	p := New(context.Background(), am.ControlPanelConfig{QueueCapacity: 4, ShutdownTimeout: time.Second}, nil)

	finished := make(chan struct{})
	p.Spawn(func(ctx context.Context) {
		<-ctx.Done()
		close(finished)
	})

	require.NoError(t, p.Shutdown(context.Background()))
	select {
	case <-finished:
	default:
		t.Fatal("worker should have observed cancellation before Shutdown returned")
	}
}

func TestPanel_ShutdownTimesOut(t *testing.T) {
	p := New(context.Background(), am.ControlPanelConfig{QueueCapacity: 4, ShutdownTimeout: 10 * time.Millisecond}, nil)

	p.Spawn(func(ctx context.Context) {
		<-time.After(time.Second)
	})

	err := p.Shutdown(context.Background())
	assert.Error(t, err)
}
