package auth

import "crypto/subtle"

// KeyStore holds the static API key allow list
type KeyStore struct {
	owners map[string]string
}

// NewKeyStore creates a key store from a key -> owner mapping
func NewKeyStore(keys map[string]string) *KeyStore {
	owners := make(map[string]string, len(keys))
	for key, owner := range keys {
		owners[key] = owner
	}
	return &KeyStore{owners: owners}
}

// Verify checks a presented API key against the allow list and returns
// the owner it identifies. Comparison is constant time per candidate key
// so a match cannot be probed byte by byte.
func (s *KeyStore) Verify(presented string) (string, bool) {
	var (
		owner string
		found bool
	)
	for key, keyOwner := range s.owners {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			owner = keyOwner
			found = true
		}
	}
	return owner, found
}
