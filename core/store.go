package core

// An external key-value interface (§6), consumed by the archive manager.
// A caching layer may front it with a fixed-
// capacity LRU; a metrics wrapper reports totals and weighted-average
// latencies.

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ContentStore is the external key-value interface the archive manager is
// built against. The proof and witness caches use golang-lru directly, not
// a ContentStore.
type ContentStore interface {
	StoreBytes(key string, value []byte) error
	Contains(key string) (bool, error)
	GetBytes(key string) ([]byte, error)
	Remove(key string) error
	Clear() error
	Len() (int, error)
}

// MemoryStore is an in-process ContentStore, the default for tests and for
// single-node operation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) StoreBytes(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryStore) Contains(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MemoryStore) GetBytes(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

func (m *MemoryStore) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data), nil
}

// CachingStore fronts a backing ContentStore with a fixed-capacity LRU,
// so repeated reads of hot content-addressed keys avoid the backing store.
type CachingStore struct {
	backing ContentStore
	cache   *lru.Cache[string, []byte]
}

// NewCachingStore wraps backing with an LRU of the given capacity.
func NewCachingStore(backing ContentStore, capacity int) (*CachingStore, error) {
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &CachingStore{backing: backing, cache: c}, nil
}

func (c *CachingStore) StoreBytes(key string, value []byte) error {
	if err := c.backing.StoreBytes(key, value); err != nil {
		return err
	}
	c.cache.Add(key, value)
	return nil
}

func (c *CachingStore) Contains(key string) (bool, error) {
	if c.cache.Contains(key) {
		return true, nil
	}
	return c.backing.Contains(key)
}

func (c *CachingStore) GetBytes(key string) ([]byte, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.backing.GetBytes(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *CachingStore) Remove(key string) error {
	c.cache.Remove(key)
	return c.backing.Remove(key)
}

func (c *CachingStore) Clear() error {
	c.cache.Purge()
	return c.backing.Clear()
}

func (c *CachingStore) Len() (int, error) { return c.backing.Len() }

// MetricsStore wraps a ContentStore reporting call totals and the mean
// latency over all calls per operation, for CLI/ops visibility.
type MetricsStore struct {
	mu      sync.Mutex
	backing ContentStore
	calls   map[string]uint64
	avgNS   map[string]float64
}

func NewMetricsStore(backing ContentStore) *MetricsStore {
	return &MetricsStore{backing: backing, calls: make(map[string]uint64), avgNS: make(map[string]float64)}
}

func (m *MetricsStore) record(op string, start time.Time) {
	elapsed := float64(time.Since(start).Nanoseconds())
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.calls[op]
	m.avgNS[op] = (m.avgNS[op]*float64(n) + elapsed) / float64(n+1)
	m.calls[op]++
}

// Stats returns a snapshot of {op: {calls, avg_ns}}.
func (m *MetricsStore) Stats() map[string]struct {
	Calls uint64
	AvgNS float64
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct {
		Calls uint64
		AvgNS float64
	}, len(m.calls))
	for op, n := range m.calls {
		out[op] = struct {
			Calls uint64
			AvgNS float64
		}{Calls: n, AvgNS: m.avgNS[op]}
	}
	return out
}

func (m *MetricsStore) StoreBytes(key string, value []byte) error {
	defer m.record("store_bytes", time.Now())
	return m.backing.StoreBytes(key, value)
}

func (m *MetricsStore) Contains(key string) (bool, error) {
	defer m.record("contains", time.Now())
	return m.backing.Contains(key)
}

func (m *MetricsStore) GetBytes(key string) ([]byte, error) {
	defer m.record("get_bytes", time.Now())
	return m.backing.GetBytes(key)
}

func (m *MetricsStore) Remove(key string) error {
	defer m.record("remove", time.Now())
	return m.backing.Remove(key)
}

func (m *MetricsStore) Clear() error {
	defer m.record("clear", time.Now())
	return m.backing.Clear()
}

func (m *MetricsStore) Len() (int, error) {
	defer m.record("len", time.Now())
	return m.backing.Len()
}
