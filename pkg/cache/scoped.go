package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. The API
// server uses it to keep its entries apart from CLI entries when both share
// one Redis instance.
//
// Example usage:
//
//	// Server-owned keys
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
//
//	// CLI-owned keys
//	cliKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for API response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// DiagramKey generates a prefixed key for synthesis results.
func (k *ScopedKeyer) DiagramKey(declHash, optsHash string) string {
	return k.prefix + k.inner.DiagramKey(declHash, optsHash)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(diagramHash, opts)
}
