package verse

import "github.com/teranos/graphshell/errors"

// ErrNoGrant is returned when a peer has no access entry for a workspace.
var ErrNoGrant = errors.New("verse: no grant for peer/workspace")

// ErrReadOnly is returned when a read-only peer attempts to push intents.
var ErrReadOnly = errors.New("verse: peer has read-only access")

// ErrUntrustedPeer is returned when the remote peer id is not in the trust store.
var ErrUntrustedPeer = errors.New("verse: peer is not trusted")

// TrustStore resolves peer trust and per-workspace grants. Implemented by
// the persistence package's SQLite-backed store; verse only depends on
// this interface to stay decoupled from the storage layer.
type TrustStore interface {
	IsTrusted(peer PeerID) bool
	Grant(peer PeerID, workspaceID string) (Grant, bool)
	PutGrant(g Grant) error
	RevokeAccess(peer PeerID) error
	Peers() []TrustedPeer
}

// CheckAccess resolves the peer's grant for workspaceID and rejects if
// missing, or if the payload carries intents but the grant is read-only.
func CheckAccess(store TrustStore, peer PeerID, workspaceID string, hasIntents bool) error {
	if !store.IsTrusted(peer) {
		return ErrUntrustedPeer
	}
	grant, ok := store.Grant(peer, workspaceID)
	if !ok {
		return ErrNoGrant
	}
	if hasIntents && grant.Access == AccessReadOnly {
		return ErrReadOnly
	}
	return nil
}
