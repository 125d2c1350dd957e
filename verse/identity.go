package verse

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/mr-tron/base58"

	"github.com/teranos/graphshell/errors"
)

// identityFile is the OS-keychain stand-in: graphshell runs headless, so
// there is no keychain to bind to outside a GUI shell (spec.md §1 excludes
// one). The identity blob lives under the data directory instead, written
// with the same atomic-rename discipline as a graph snapshot.
const identityFile = "identity.json"

// identityBlob is the on-disk, OS-keychain-stand-in representation of a
// peer's Ed25519 keypair.
type identityBlob struct {
	PrivateKey string    `json:"private_key"` // base64
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Identity is this node's P2P signing identity.
type Identity struct {
	Public     ed25519.PublicKey
	private    ed25519.PrivateKey
	DeviceName string
	CreatedAt  time.Time
}

// ID returns the peer id: the base58 encoding of the public key, matching
// how the teacher's own node-identity scheme renders public keys.
func (i Identity) ID() PeerID {
	return PeerID(base58.Encode(i.Public))
}

// LoadOrCreateIdentity reads the identity blob from dataDir, generating and
// persisting a new Ed25519 keypair on first launch.
func LoadOrCreateIdentity(dataDir, deviceName string) (Identity, error) {
	path := filepath.Join(dataDir, identityFile)

	if b, err := os.ReadFile(path); err == nil {
		var blob identityBlob
		if err := json.Unmarshal(b, &blob); err != nil {
			return Identity{}, errors.Wrap(err, "parse identity blob")
		}
		raw, err := base64.StdEncoding.DecodeString(blob.PrivateKey)
		if err != nil {
			return Identity{}, errors.Wrap(err, "decode identity private key")
		}
		priv := ed25519.PrivateKey(raw)
		return Identity{
			Public:     priv.Public().(ed25519.PublicKey),
			private:    priv,
			DeviceName: blob.DeviceName,
			CreatedAt:  blob.CreatedAt,
		}, nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, errors.Wrap(err, "generate identity keypair")
	}

	id := Identity{Public: pub, private: priv, DeviceName: deviceName, CreatedAt: time.Now()}

	blob := identityBlob{
		PrivateKey: base64.StdEncoding.EncodeToString(priv),
		DeviceName: deviceName,
		CreatedAt:  id.CreatedAt,
	}
	b, err := json.Marshal(blob)
	if err != nil {
		return Identity{}, errors.Wrap(err, "marshal identity blob")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return Identity{}, errors.Wrap(err, "create data directory")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return Identity{}, errors.Wrap(err, "write identity blob")
	}
	if err := os.Rename(tmp, path); err != nil {
		return Identity{}, errors.Wrap(err, "persist identity blob")
	}

	return id, nil
}

// Sign signs msg with the identity's private key.
func (i Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(i.private, msg)
}
