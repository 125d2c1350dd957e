package persistence

import (
	"database/sql"

	"github.com/teranos/graphshell/am"
)

// Layer bundles the storage backends a running shell needs: the
// journal/snapshot/workspace file store, the SQLite-backed trust store,
// and the SQLite-backed sync log. Constructed once at startup and handed
// to the control panel and sync worker.
type Layer struct {
	Store     *Store
	TrustStore *TrustStore
	SyncLog   *SyncLog
}

// Open constructs a Layer rooted at dataDir, using db for the trust/sync
// tables. db is expected to already have migrations applied
// (db.OpenWithMigrations).
func Open(dataDir string, cfg am.PersistenceConfig, db *sql.DB) (*Layer, error) {
	store, err := NewStore(dataDir, cfg)
	if err != nil {
		return nil, err
	}
	return &Layer{
		Store:      store,
		TrustStore: NewTrustStore(db),
		SyncLog:    NewSyncLog(db),
	}, nil
}
