// Package verse implements the P2P delta sync worker: bidirectional exchange
// of per-workspace intent logs between trusted graphshell peers.
package verse

import "time"

// PeerID identifies a peer by the base58 encoding of its Ed25519 public key.
type PeerID string

// VersionVector tracks the highest sequence number seen from each author.
// Merge is pointwise max, never decreasing either side's knowledge.
type VersionVector map[PeerID]uint64

// Merge folds other into v, keeping the larger sequence per author.
func (v VersionVector) Merge(other VersionVector) {
	for author, seq := range other {
		if seq > v[author] {
			v[author] = seq
		}
	}
}

// Clone returns an independent copy.
func (v VersionVector) Clone() VersionVector {
	out := make(VersionVector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// SyncedIntent is one entry in a workspace's intent log, as exchanged on
// the wire. LogEntry is the gob-encoded, already-applied mutation; Causes
// records the node ids this intent depends on having been created first
// (creation-before-reference ordering, mirrors spec.md §4.4).
type SyncedIntent struct {
	AuthoredBy PeerID    `json:"authored_by"`
	Sequence   uint64    `json:"sequence"`
	LogEntry   []byte    `json:"log_entry"`
	Causes     []string  `json:"causes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WorkspaceSnapshot is an optional full-state fallback included in a
// SyncUnit when the receiving peer's vector is far enough behind that
// replaying the delta log would be wasteful. Opaque to the protocol layer.
type WorkspaceSnapshot struct {
	TakenAt time.Time `json:"taken_at"`
	Payload []byte    `json:"payload"`
}

// SyncUnit is the single message exchanged in each direction of a sync
// stream. Payloads are JSON-marshaled then flate-compressed; unitMaxBytes
// caps the compressed size.
type SyncUnit struct {
	WorkspaceID   string             `json:"workspace_id"`
	VersionVector VersionVector      `json:"version_vector"`
	Intents       []SyncedIntent     `json:"intents"`
	Snapshot      *WorkspaceSnapshot `json:"snapshot,omitempty"`
}

// unitMaxBytes caps the compressed size of a single SyncUnit on the wire.
const unitMaxBytes = 1 << 20 // 1 MiB

// Access describes what a trusted peer may do in a given workspace.
type Access string

const (
	AccessReadOnly  Access = "read_only"
	AccessReadWrite Access = "read_write"
)

// Grant binds a peer's access level to one workspace.
type Grant struct {
	Peer        PeerID
	WorkspaceID string
	Access      Access
}

// TrustedPeer is an entry in the trust store.
type TrustedPeer struct {
	ID          PeerID
	DisplayName string
	AddedAt     time.Time
	LastSeen    time.Time
}
