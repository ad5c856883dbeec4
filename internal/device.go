package internal

import "crypto/sha256"

// HashBindingValue fingerprints a client attribute (IP or User-Agent) for storage in
// a session. The zero hash means "not recorded".
func HashBindingValue(v string) [32]byte {
	if v == "" {
		return [32]byte{}
	}
	return sha256.Sum256([]byte(v))
}
