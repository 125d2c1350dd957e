package verse

import (
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/teranos/graphshell/errors"
)

// Conn abstracts the transport so tests can run the protocol over an
// in-memory channel pair instead of a real WebSocket.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// LocalLog is the per-workspace intent log and version vector the sync
// worker reconciles against. Implemented by the persistence package.
type LocalLog interface {
	VersionVector(workspaceID string) (VersionVector, error)
	Intents(workspaceID string, since VersionVector) ([]SyncedIntent, error)
	Record(workspaceID string, intents []SyncedIntent) error
	// MergeVersionVector advances the stored version vector to the
	// pointwise max of its current value and vector, independent of any
	// intents recorded this session. Needed because Record only advances
	// the vector entries backed by intents it was actually given — a
	// compacted or ahead-of-its-log remote can report vector entries the
	// reconcile round never transmits intents for.
	MergeVersionVector(workspaceID string, vector VersionVector) error
}

// IntentApplier injects remotely-sourced intents into the reducer via the
// control panel's channel, in the order it is given them.
type IntentApplier interface {
	ApplyRemoteLogEntries(workspaceID string, intents []SyncedIntent) error
}

// Peer runs one reconciliation session with a remote graphshell instance.
// The protocol is symmetric: both ends run Reconcile concurrently and
// neither is privileged.
type Peer struct {
	conn    Conn
	remote  PeerID
	log     LocalLog
	trust   TrustStore
	applier IntentApplier
	zlog    *zap.SugaredLogger

	sent     int
	received int
}

// NewPeer creates a sync peer for a single reconciliation session with remote.
func NewPeer(conn Conn, remote PeerID, log LocalLog, trust TrustStore, applier IntentApplier, zlog *zap.SugaredLogger) *Peer {
	return &Peer{conn: conn, remote: remote, log: log, trust: trust, applier: applier, zlog: zlog}
}

// Reconcile exchanges version vectors for workspaceID, applies intents the
// remote has that we lack, and sends back intents the remote lacks.
func (p *Peer) Reconcile(workspaceID string) (sent, received int, err error) {
	local, err := p.log.VersionVector(workspaceID)
	if err != nil {
		return 0, 0, errors.Wrap(err, "read local version vector")
	}

	outbound, err := p.log.Intents(workspaceID, VersionVector{})
	if err != nil {
		return 0, 0, errors.Wrap(err, "read local intents")
	}

	// Confirm the peer is trusted and holds some grant for this workspace
	// before exchanging anything with it at all.
	if err := CheckAccess(p.trust, p.remote, workspaceID, false); err != nil {
		if p.zlog != nil {
			p.zlog.Warnw("rejecting sync session", "peer", string(p.remote), "workspace", workspaceID, "error", err.Error())
		}
		return 0, 0, err
	}

	// The local vector is exchanged alongside the full local intent log:
	// with only one round trip available, the sender cannot yet know
	// which of its own intents the remote lacks, so it ships everything
	// and lets the remote filter the delta against its own vector (the
	// toApply computation below).
	if err := p.send(SyncUnit{WorkspaceID: workspaceID, VersionVector: local, Intents: outbound}); err != nil {
		return 0, 0, errors.Wrap(err, "send local sync unit")
	}

	var remote SyncUnit
	if err := p.recv(&remote); err != nil {
		return 0, 0, errors.Wrap(err, "receive remote sync unit")
	}

	if err := CheckAccess(p.trust, p.remote, workspaceID, len(remote.Intents) > 0); err != nil {
		return 0, 0, err
	}

	var toApply []SyncedIntent
	for _, in := range remote.Intents {
		if in.Sequence > local[in.AuthoredBy] {
			toApply = append(toApply, in)
		}
	}
	if len(toApply) > 0 {
		if err := p.applier.ApplyRemoteLogEntries(workspaceID, toApply); err != nil {
			return 0, 0, errors.Wrap(err, "apply remote log entries")
		}
	}
	if err := p.log.Record(workspaceID, toApply); err != nil {
		return 0, 0, errors.Wrap(err, "persist remote intents")
	}
	p.received = len(toApply)

	merged := local.Clone()
	merged.Merge(remote.VersionVector)
	if err := p.log.MergeVersionVector(workspaceID, merged); err != nil {
		return 0, 0, errors.Wrap(err, "merge version vector")
	}

	var needed []SyncedIntent
	for _, out := range outbound {
		if out.Sequence > remote.VersionVector[out.AuthoredBy] {
			needed = append(needed, out)
		}
	}
	p.sent = len(needed)

	return p.sent, p.received, nil
}

func (p *Peer) send(unit SyncUnit) error { return p.conn.WriteJSON(unit) }
func (p *Peer) recv(unit *SyncUnit) error { return p.conn.ReadJSON(unit) }

// snapshotDigest computes the domain-separated integrity hash used to
// verify an optional WorkspaceSnapshot before applying it as a fast-forward.
func snapshotDigest(payload []byte) string {
	h := sha256.New()
	h.Write([]byte("graphshell-snapshot:"))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySnapshot checks snap's payload against its recorded digest before
// the caller applies it as a fast-forward in place of replaying the log.
func VerifySnapshot(snap WorkspaceSnapshot, expectedDigest string) bool {
	return snapshotDigest(snap.Payload) == expectedDigest
}
