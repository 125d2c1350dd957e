// Package persistence backs the sync worker's trust/grant store and
// sync log with SQLite, and the graph journal/snapshot/workspace bundles
// with the filesystem, per spec.md §4.7.
package persistence

import (
	"database/sql"
	"time"

	"github.com/teranos/graphshell/errors"
	"github.com/teranos/graphshell/verse"
)

// TrustStore is the SQLite-backed implementation of verse.TrustStore,
// grounded in db/connection.go's WAL-mode SQLite access pattern.
type TrustStore struct {
	db *sql.DB
}

// NewTrustStore wraps an already-migrated database handle.
func NewTrustStore(db *sql.DB) *TrustStore {
	return &TrustStore{db: db}
}

func (s *TrustStore) IsTrusted(peer verse.PeerID) bool {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM trusted_peers WHERE node_id = ?)", string(peer),
	).Scan(&exists)
	return err == nil && exists
}

func (s *TrustStore) Grant(peer verse.PeerID, workspaceID string) (verse.Grant, bool) {
	var access string
	err := s.db.QueryRow(
		"SELECT access FROM workspace_grants WHERE peer_node_id = ? AND workspace_id = ?",
		string(peer), workspaceID,
	).Scan(&access)
	if err != nil {
		return verse.Grant{}, false
	}
	return verse.Grant{Peer: peer, WorkspaceID: workspaceID, Access: verse.Access(access)}, true
}

func (s *TrustStore) PutGrant(g verse.Grant) error {
	_, err := s.db.Exec(
		`INSERT INTO workspace_grants (peer_node_id, workspace_id, access) VALUES (?, ?, ?)
		 ON CONFLICT(peer_node_id, workspace_id) DO UPDATE SET access = excluded.access`,
		string(g.Peer), g.WorkspaceID, string(g.Access),
	)
	return errors.Wrap(err, "put grant")
}

func (s *TrustStore) RevokeAccess(peer verse.PeerID) error {
	_, err := s.db.Exec("DELETE FROM workspace_grants WHERE peer_node_id = ?", string(peer))
	return errors.Wrap(err, "revoke access")
}

func (s *TrustStore) Peers() []verse.TrustedPeer {
	rows, err := s.db.Query("SELECT node_id, display_name, added_at, last_seen FROM trusted_peers")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var peers []verse.TrustedPeer
	for rows.Next() {
		var id, name string
		var addedAt, lastSeen int64
		if err := rows.Scan(&id, &name, &addedAt, &lastSeen); err != nil {
			continue
		}
		peers = append(peers, verse.TrustedPeer{
			ID:          verse.PeerID(id),
			DisplayName: name,
			AddedAt:     time.Unix(addedAt, 0).UTC(),
			LastSeen:    time.Unix(lastSeen, 0).UTC(),
		})
	}
	return peers
}

// AddTrustedPeer inserts or refreshes a trusted peer's record, defaulting
// its role to "member" when first seen.
func (s *TrustStore) AddTrustedPeer(peer verse.PeerID, displayName string) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(
		`INSERT INTO trusted_peers (node_id, display_name, role, added_at, last_seen) VALUES (?, ?, 'member', ?, ?)
		 ON CONFLICT(node_id) DO UPDATE SET last_seen = excluded.last_seen`,
		string(peer), displayName, now, now,
	)
	return errors.Wrap(err, "add trusted peer")
}

// Forget removes a peer and all of its workspace grants (cascades via the
// trusted_peers foreign key).
func (s *TrustStore) Forget(peer verse.PeerID) error {
	_, err := s.db.Exec("DELETE FROM trusted_peers WHERE node_id = ?", string(peer))
	return errors.Wrap(err, "forget peer")
}
