// Package cache stores resolved models between runs.
//
// Resolution of a full registry is cheap but not free, and the browse,
// graph and serve commands all start from the same resolved model. The
// pipeline stores that model under a key derived from the registry bytes
// and the options that influence resolution, so a cached entry can never be
// served for a different input.
//
// # Backends
//
//   - [NullCache]: caching disabled (--no-cache)
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [RedisCache]: shared cache for several machines or CI runners
//
// # Keys
//
// Keys are produced by a [Keyer]. [DefaultKeyer] hashes its inputs;
// [ScopedKeyer] adds a namespace prefix so one Redis instance can serve
// several projects.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ModelKeyOpts are the options that change the resolved model.
type ModelKeyOpts struct {
	VersionPattern string   `json:"version_pattern"`
	ExcludeAPIs    []string `json:"exclude_apis"`
	FeatureStructs bool     `json:"feature_structs"`
	SchemaRevision int      `json:"schema_revision"`
}

// GraphKeyOpts are the options that change a rendered dependency graph.
type GraphKeyOpts struct {
	Version      string `json:"version"`
	Format       string `json:"format"`
	Detailed     bool   `json:"detailed"`
	HidePromoted bool   `json:"hide_promoted"`
	Focus        string `json:"focus"`
}

// Keyer produces cache keys.
type Keyer interface {
	// ModelKey identifies a resolved model by registry hash and options.
	ModelKey(registryHash string, opts ModelKeyOpts) string

	// GraphKey identifies a rendered dependency graph.
	GraphKey(modelHash string, opts GraphKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ModelKey returns "model:<sha256>".
func (DefaultKeyer) ModelKey(registryHash string, opts ModelKeyOpts) string {
	return hashKey("model", registryHash, opts)
}

// GraphKey returns "graph:<sha256>".
func (DefaultKeyer) GraphKey(modelHash string, opts GraphKeyOpts) string {
	return hashKey("graph", modelHash, opts)
}

var _ Keyer = DefaultKeyer{}
