package persistence

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/teranos/graphshell/errors"
	"github.com/teranos/graphshell/verse"
)

// SyncLog is the SQLite-backed implementation of verse.LocalLog, grounded
// in the sync_logs/synced_intents tables db/migrate.go provisions.
type SyncLog struct {
	db *sql.DB
}

// NewSyncLog wraps an already-migrated database handle.
func NewSyncLog(db *sql.DB) *SyncLog {
	return &SyncLog{db: db}
}

func (l *SyncLog) VersionVector(workspaceID string) (verse.VersionVector, error) {
	var raw string
	err := l.db.QueryRow(
		"SELECT version_vector_json FROM sync_logs WHERE workspace_id = ?", workspaceID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return verse.VersionVector{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read version vector")
	}

	vv := verse.VersionVector{}
	if err := json.Unmarshal([]byte(raw), &vv); err != nil {
		return nil, errors.Wrap(err, "decode version vector")
	}
	return vv, nil
}

func (l *SyncLog) Intents(workspaceID string, since verse.VersionVector) ([]verse.SyncedIntent, error) {
	rows, err := l.db.Query(
		`SELECT authored_by, sequence, log_entry, causality_json, recorded_at
		 FROM synced_intents WHERE workspace_id = ? ORDER BY sequence ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "read intents")
	}
	defer rows.Close()

	var out []verse.SyncedIntent
	for rows.Next() {
		var authoredBy string
		var sequence int64
		var logEntry []byte
		var causalityJSON string
		var recordedAt int64

		if err := rows.Scan(&authoredBy, &sequence, &logEntry, &causalityJSON, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "scan intent row")
		}

		if sequence <= since[verse.PeerID(authoredBy)] {
			continue
		}

		var causes []string
		if err := json.Unmarshal([]byte(causalityJSON), &causes); err != nil {
			causes = nil
		}

		out = append(out, verse.SyncedIntent{
			AuthoredBy: verse.PeerID(authoredBy),
			Sequence:   sequence,
			LogEntry:   logEntry,
			Causes:     causes,
			RecordedAt: time.Unix(recordedAt, 0).UTC(),
		})
	}
	return out, nil
}

// MergeVersionVector advances the stored version vector to the pointwise
// max of its current value and vector, independent of any intents recorded
// alongside it.
func (l *SyncLog) MergeVersionVector(workspaceID string, vector verse.VersionVector) error {
	vv, err := l.VersionVector(workspaceID)
	if err != nil {
		return err
	}
	vv.Merge(vector)

	vvJSON, err := json.Marshal(vv)
	if err != nil {
		return errors.Wrap(err, "marshal version vector")
	}

	_, err = l.db.Exec(
		`INSERT INTO sync_logs (workspace_id, version_vector_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(workspace_id) DO UPDATE SET version_vector_json = excluded.version_vector_json, updated_at = excluded.updated_at`,
		workspaceID, string(vvJSON), time.Now().Unix(),
	)
	return errors.Wrap(err, "merge version vector")
}

func (l *SyncLog) Record(workspaceID string, intents []verse.SyncedIntent) error {
	if len(intents) == 0 {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin record tx")
	}
	defer tx.Rollback()

	var raw string
	vv := verse.VersionVector{}
	err = tx.QueryRow("SELECT version_vector_json FROM sync_logs WHERE workspace_id = ?", workspaceID).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "read version vector")
	}
	if err == nil {
		if err := json.Unmarshal([]byte(raw), &vv); err != nil {
			return errors.Wrap(err, "decode version vector")
		}
	}

	for _, in := range intents {
		causes, err := json.Marshal(in.Causes)
		if err != nil {
			return errors.Wrap(err, "marshal causality")
		}

		_, err = tx.Exec(
			`INSERT INTO synced_intents (workspace_id, authored_by, sequence, log_entry, causality_json, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(workspace_id, authored_by, sequence) DO NOTHING`,
			workspaceID, string(in.AuthoredBy), in.Sequence, in.LogEntry, string(causes), in.RecordedAt.Unix(),
		)
		if err != nil {
			return errors.Wrap(err, "insert synced intent")
		}

		if in.Sequence > vv[in.AuthoredBy] {
			vv[in.AuthoredBy] = in.Sequence
		}
	}

	vvJSON, err := json.Marshal(vv)
	if err != nil {
		return errors.Wrap(err, "marshal version vector")
	}

	_, err = tx.Exec(
		`INSERT INTO sync_logs (workspace_id, version_vector_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(workspace_id) DO UPDATE SET version_vector_json = excluded.version_vector_json, updated_at = excluded.updated_at`,
		workspaceID, string(vvJSON), time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "update sync log")
	}

	return errors.Wrap(tx.Commit(), "commit record tx")
}
