package refbundle

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/nextstrain-go/nextclade-go/internal/duckdb"
)

// AnalyzerCache is a content-addressed cache of serialized per-query
// analysis results, keyed by the bundle identity plus the raw query bytes.
// Sort-and-analyze mode consults it before re-running the pipeline on a
// sequence it has already analyzed against the same bundle (spec §5).
type AnalyzerCache struct {
	store    *duckdb.Store
	bundleID string
	// runID tags every row this process inserts, so a batch's rows can be
	// traced back to the run that produced them.
	runID string
	group singleflight.Group
}

// NewAnalyzerCache wraps store for one bundle. Every run gets a fresh ID.
func NewAnalyzerCache(store *duckdb.Store, bundleID string) *AnalyzerCache {
	return &AnalyzerCache{store: store, bundleID: bundleID, runID: uuid.NewString()}
}

// RunID returns the ID tagging this run's inserts.
func (c *AnalyzerCache) RunID() string { return c.runID }

// Key derives the content address of one query under this bundle.
func (c *AnalyzerCache) Key(seq []byte) string {
	h := sha256.New()
	h.Write([]byte(c.bundleID))
	h.Write([]byte{0})
	h.Write(seq)
	return hex.EncodeToString(h.Sum(nil))
}

// GetOrCompute returns the cached result JSON for seq, or runs compute,
// stores its output, and returns it. Concurrent callers with the same
// content key share a single compute call (singleflight get-or-insert,
// spec §9: "avoid locking around whole-map operations").
func (c *AnalyzerCache) GetOrCompute(name string, seq []byte, compute func() (string, error)) (resultJSON string, cached bool, err error) {
	key := c.Key(seq)

	if row, ok, err := c.store.Lookup(key); err != nil {
		return "", false, err
	} else if ok {
		return row.ResultJSON, true, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another process may have inserted
		// between our lookup and now.
		if row, ok, err := c.store.Lookup(key); err != nil {
			return "", err
		} else if ok {
			return row.ResultJSON, nil
		}
		out, err := compute()
		if err != nil {
			return "", err
		}
		if err := c.store.Insert(duckdb.CachedResult{
			ContentHash: key,
			RunID:       c.runID,
			RefBundleID: c.bundleID,
			SeqName:     name,
			ResultJSON:  out,
		}); err != nil {
			return "", err
		}
		return out, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), shared, nil
}

// Registry is a concurrent ordered map with get-or-insert semantics,
// holding one lazily built value per dataset key — the per-dataset analyzer
// cache of sort-and-analyze mode (spec §5). Keys preserve first-insert
// order; builds for the same key are coalesced so the map lock is never
// held across a build.
type Registry[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	order   []string
	group   singleflight.Group
}

// NewRegistry constructs an empty registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{entries: make(map[string]V)}
}

// Get returns the value for key, if built.
func (r *Registry[V]) Get(key string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// GetOrBuild returns the value for key, building it at most once across
// concurrent callers.
func (r *Registry[V]) GetOrBuild(key string, build func() (V, error)) (V, error) {
	if v, ok := r.Get(key); ok {
		return v, nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.Get(key); ok {
			return v, nil
		}
		built, err := build()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.entries[key] = built
		r.order = append(r.order, key)
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Keys returns every built key in first-insert order.
func (r *Registry[V]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedKeys returns every built key in lexicographic order, the stable
// iteration order batch summaries use.
func (r *Registry[V]) SortedKeys() []string {
	keys := r.Keys()
	sort.Strings(keys)
	return keys
}
