package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. encoding/json sorts map keys, so
// equal values hash equally.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return Hash(data), nil
}

// key joins a readable prefix with a digest of parts.
func key(prefix string, parts ...any) string {
	digest, err := HashJSON(parts)
	if err != nil {
		// Key parts are plain option structs; they always marshal.
		panic(err)
	}
	return prefix + ":" + digest
}
