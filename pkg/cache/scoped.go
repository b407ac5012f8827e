package cache

// ScopedKeyer wraps a Keyer with a prefix so that several projects can
// share one cache backend without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ci:vulkan-sdk:")
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

// ModelKey generates a prefixed key for resolved model caching.
func (k *ScopedKeyer) ModelKey(registryHash string, opts ModelKeyOpts) string {
	return k.prefix + k.inner.ModelKey(registryHash, opts)
}

// GraphKey generates a prefixed key for graph caching.
func (k *ScopedKeyer) GraphKey(modelHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(modelHash, opts)
}
