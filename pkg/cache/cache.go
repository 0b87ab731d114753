// Package cache provides content-addressed caching for pipeline results.
//
// Synthesis is deterministic, so a diagram is fully identified by the hash
// of its declaration plus an options digest, and a rendered artifact by the
// hash of its diagram plus the format. The Keyer turns those content hashes
// into namespaced cache keys; Cache implementations store the bytes.
//
// Three backends cover the deployment modes: FileCache for the CLI,
// RedisCache for the shared API server, NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTLs.
// Implementations must treat missing and expired entries identically: a
// miss, not an error.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}

// Keyer derives cache keys from content hashes. Implementations must be
// deterministic: the same inputs always produce the same key.
type Keyer interface {
	// HTTPKey generates a key for API response caching.
	HTTPKey(namespace, key string) string

	// DiagramKey generates a key for one synthesis result, identified by
	// the declaration hash and a digest of the synthesis options.
	DiagramKey(declHash, optsHash string) string

	// ArtifactKey generates a key for one rendered artifact of a diagram.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render settings that distinguish artifacts of the
// same diagram.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Detailed bool    `json:"detailed,omitempty"`
	PNGScale float64 `json:"png_scale,omitempty"`
}

// DefaultKeyer is the standard key derivation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for API response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// DiagramKey generates a key for one synthesis result.
func (k *DefaultKeyer) DiagramKey(declHash, optsHash string) string {
	return hashKey("diagram", declHash, optsHash)
}

// ArtifactKey generates a key for one rendered artifact.
func (k *DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
