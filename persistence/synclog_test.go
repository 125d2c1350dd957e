package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbtest "github.com/teranos/graphshell/internal/testing"
	"github.com/teranos/graphshell/verse"
)

func TestSyncLog_RecordAndReplay(t *testing.T) {
	conn := dbtest.CreateTestDB(t)

	log := NewSyncLog(conn)

	vv, err := log.VersionVector("workspace-a")
	require.NoError(t, err)
	assert.Empty(t, vv)

	intents := []verse.SyncedIntent{
		{AuthoredBy: "peer-1", Sequence: 1, LogEntry: []byte("a"), RecordedAt: time.Now()},
		{AuthoredBy: "peer-1", Sequence: 2, LogEntry: []byte("b"), RecordedAt: time.Now()},
	}
	require.NoError(t, log.Record("workspace-a", intents))

	vv, err = log.VersionVector("workspace-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), vv["peer-1"])

	all, err := log.Intents("workspace-a", verse.VersionVector{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	newer, err := log.Intents("workspace-a", verse.VersionVector{"peer-1": 1})
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, int64(2), newer[0].Sequence)

	// Re-recording the same intents is idempotent.
	require.NoError(t, log.Record("workspace-a", intents))
	all, err = log.Intents("workspace-a", verse.VersionVector{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
