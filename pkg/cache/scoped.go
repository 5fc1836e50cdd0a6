package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Deployments serving several workspaces from one Redis instance give each
// workspace its own namespace without touching pipeline call sites.
//
// Example usage:
//
//	// Workspace-specific keys
//	wsKeyer := NewScopedKeyer(NewDefaultKeyer(), "ws:abc123:")
//
//	// Shared keys for public documents
//	globalKeyer := NewDefaultKeyer()
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

// DocumentKey generates a prefixed key for document caching.
func (k *ScopedKeyer) DocumentKey(contentHash string) string {
	return k.prefix + k.inner.DocumentKey(contentHash)
}

// CollapseKey generates a prefixed key for smart-collapse decisions.
func (k *ScopedKeyer) CollapseKey(documentHash string, opts CollapseKeyOpts) string {
	return k.prefix + k.inner.CollapseKey(documentHash, opts)
}

// SnapshotKey generates a prefixed key for rendered snapshots.
func (k *ScopedKeyer) SnapshotKey(stateHash string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(stateHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
