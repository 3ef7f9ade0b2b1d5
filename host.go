package lattice

import (
	"github.com/ethereum/go-ethereum/common"
)

// HostStore is the flat key-value interface the host runtime exposes to
// a contract. Every operation is a metered host call; the storage cell
// layer exists to minimize how many of them one logical mutation costs.
//
// The host serializes calls to a contract instance, so implementations
// are accessed single-threaded within one call's lifetime.
type HostStore interface {
	// GetStorage returns the cell contents under key, or false if no
	// cell was ever written there.
	GetStorage(key common.Hash) ([]byte, bool)

	// SetStorage writes the cell contents under key, replacing any prior
	// value.
	SetStorage(key common.Hash, value []byte)

	// ClearStorage removes the cell under key. Clearing an absent cell
	// is a no-op.
	ClearStorage(key common.Hash)
}

// StoreStats counts host storage operations. The memory store keeps
// these so tests can assert on how many metered calls an operation
// costs.
type StoreStats struct {
	Reads  int
	Writes int
	Clears int
}

// MemoryStore is a map-backed HostStore for tests and examples. It is
// not safe for concurrent use; the execution model is single-threaded
// per call.
type MemoryStore struct {
	cells map[common.Hash][]byte
	stats StoreStats
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cells: make(map[common.Hash][]byte)}
}

// GetStorage implements HostStore.
func (m *MemoryStore) GetStorage(key common.Hash) ([]byte, bool) {
	m.stats.Reads++
	v, ok := m.cells[key]
	return v, ok
}

// SetStorage implements HostStore. The value is copied.
func (m *MemoryStore) SetStorage(key common.Hash, value []byte) {
	m.stats.Writes++
	buf := make([]byte, len(value))
	copy(buf, value)
	m.cells[key] = buf
}

// ClearStorage implements HostStore.
func (m *MemoryStore) ClearStorage(key common.Hash) {
	m.stats.Clears++
	delete(m.cells, key)
}

// Len returns the number of populated cells.
func (m *MemoryStore) Len() int {
	return len(m.cells)
}

// Stats returns the operation counters accumulated so far.
func (m *MemoryStore) Stats() StoreStats {
	return m.stats
}

// ResetStats zeroes the operation counters without touching cells.
func (m *MemoryStore) ResetStats() {
	m.stats = StoreStats{}
}

// Snapshot returns a deep copy of all cells, for before/after
// comparisons in tests.
func (m *MemoryStore) Snapshot() map[common.Hash][]byte {
	snap := make(map[common.Hash][]byte, len(m.cells))
	for k, v := range m.cells {
		buf := make([]byte, len(v))
		copy(buf, v)
		snap[k] = buf
	}
	return snap
}
