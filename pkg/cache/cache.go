// Package cache provides caching interfaces and implementations for Foldview.
//
// The cache stores expensive intermediate results keyed by content hashes:
// loaded graph documents, smart-collapse decisions, and rendered snapshots.
// Three backends are provided:
//
//   - FileCache: on-disk cache for CLI usage
//   - MemoryCache: in-process cache for tests and the embedded server
//   - RedisCache: shared cache for multi-instance deployments
//
// Keys are generated through the Keyer interface so that every layer of the
// pipeline agrees on the key schema, and so deployments can isolate tenants
// with ScopedKeyer without touching call sites.
package cache

import (
	"context"
	"time"
)

// TTL constants for different data types.
const (
	// DocumentTTL applies to parsed graph documents keyed by content hash.
	// Content-addressed entries never go stale, but bounding them keeps the
	// cache from growing without limit.
	DocumentTTL = 7 * 24 * time.Hour

	// CollapseTTL applies to smart-collapse decisions. These depend only on
	// the document hash and the budget, so they are long-lived too.
	CollapseTTL = 7 * 24 * time.Hour

	// SnapshotTTL applies to rendered artifacts (DOT, SVG). Renders are cheap
	// to redo relative to their size, so they expire first.
	SnapshotTTL = 24 * time.Hour
)

// Cache is the interface for caching backends.
// Get returns (data, hit, error): a miss is not an error.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores a value with the given TTL. A non-positive TTL means the
	// entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CollapseKeyOpts are the parameters that shape a smart-collapse decision.
type CollapseKeyOpts struct {
	Budget             float64 `json:"budget"`
	NodeArea           float64 `json:"node_area"`
	CollapsedFootprint float64 `json:"collapsed_footprint"`
	Padding            float64 `json:"padding"`
}

// SnapshotKeyOpts are the parameters that shape a rendered snapshot.
type SnapshotKeyOpts struct {
	Format string `json:"format"` // "dot", "svg"
	Style  string `json:"style"`
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// DocumentKey generates a key for a parsed document, from the SHA-256
	// hash of its serialized form.
	DocumentKey(contentHash string) string

	// CollapseKey generates a key for a smart-collapse decision over the
	// document with the given hash.
	CollapseKey(documentHash string, opts CollapseKeyOpts) string

	// SnapshotKey generates a key for a rendered snapshot of the visible
	// state with the given hash.
	SnapshotKey(stateHash string, opts SnapshotKeyOpts) string
}

// DefaultKeyer is the standard key schema.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key of the form "doc:<hash>".
func (k *DefaultKeyer) DocumentKey(contentHash string) string {
	return "doc:" + contentHash
}

// CollapseKey hashes the options into the key so that changing the budget or
// the cost model never reuses a stale decision.
func (k *DefaultKeyer) CollapseKey(documentHash string, opts CollapseKeyOpts) string {
	return hashKey("collapse", documentHash, opts)
}

// SnapshotKey hashes the options into the key.
func (k *DefaultKeyer) SnapshotKey(stateHash string, opts SnapshotKeyOpts) string {
	return hashKey("snapshot", stateHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
