package domain

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MasterKey is the root of the envelope encryption hierarchy. It is supplied
// once at process start from an external secret source (environment in
// development, a KMS keeper in production) and is used exclusively to wrap and
// unwrap KEKs. It never encrypts a secret payload directly.
type MasterKey struct {
	ID  string
	Key []byte
}

// MasterKeyChain holds the process's master keys with one designated active.
//
// Multiple keys allow rotation: old keys remain available to unwrap KEKs they
// encrypted while new KEKs are wrapped with the active key. The chain is an
// explicit resource handle passed into the key hierarchy at construction, not
// ambient global state; Close must be called at shutdown to zero key material.
//
// Thread safety: reads go through sync.Map; the chain is effectively immutable
// after load.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// ActiveMasterKeyID returns the ID of the master key used to wrap new KEKs.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Get retrieves a master key by ID. Used to unwrap KEKs encrypted with
// non-active keys during rotation windows.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Close zeroes all key material and resets the chain. Call at process
// shutdown or on failed initialization.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(key, value any) bool {
		if mk, ok := value.(*MasterKey); ok {
			Zero(mk.Key)
		}
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// NewMasterKeyChain builds a chain from already-decrypted key material. Each
// key must be exactly 32 bytes and the active ID must name one of the given
// keys. On any error every key is zeroed before returning.
func NewMasterKeyChain(activeID string, keys []*MasterKey) (*MasterKeyChain, error) {
	if activeID == "" {
		ZeroMasterKeys(keys)
		return nil, ErrActiveMasterKeyIDNotSet
	}
	if len(keys) == 0 {
		return nil, ErrMasterKeysNotSet
	}

	mkc := &MasterKeyChain{activeID: activeID}
	for _, mk := range keys {
		if len(mk.Key) != 32 {
			ZeroMasterKeys(keys)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be 32 bytes, got %d",
				ErrInvalidKeySize,
				mk.ID,
				len(mk.Key),
			)
		}
		mkc.keys.Store(mk.ID, mk)
	}

	if _, ok := mkc.Get(activeID); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: %s", ErrActiveMasterKeyNotFound, activeID)
	}

	return mkc, nil
}

// ZeroMasterKeys zeroes the key material of every key in the slice. Loaders
// call it on partially built key sets when construction fails.
func ZeroMasterKeys(keys []*MasterKey) {
	for _, mk := range keys {
		Zero(mk.Key)
	}
}

// LoadMasterKeyChainFromEnv loads master keys from environment variables:
//
//	MASTER_KEYS="key1:base64(32 bytes),key2:base64(32 bytes)"
//	ACTIVE_MASTER_KEY_ID="key2"
//
// Each key must decode to exactly 32 bytes. On any error the partially built
// chain is closed so no key material survives a failed startup. The caller
// must treat an error here as fatal: the vault must not serve operations
// without its root key.
func LoadMasterKeyChainFromEnv() (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := &MasterKeyChain{activeID: active}

	parts := strings.SplitSeq(raw, ",")
	for part := range parts {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		key, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		if len(key) != 32 {
			Zero(key)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be 32 bytes, got %d",
				ErrInvalidKeySize,
				id,
				len(key),
			)
		}
		keyCopy := make([]byte, 32)
		copy(keyCopy, key)
		mkc.keys.Store(id, &MasterKey{ID: id, Key: keyCopy})
		Zero(key)
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}
