package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds "prefix:<sha256>" from the JSON encoding of parts. Model
// keys hash the registry hash with the resolve options, graph keys the
// model hash with the render options.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the lower-case hex SHA-256 of data. The pipeline uses it
// to fingerprint serialized models for graph keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
