package lattice

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestMemoryStore(t *testing.T) {
	key := common.HexToHash("0x01")

	t.Run("get on empty store", func(t *testing.T) {
		store := NewMemoryStore()
		if _, ok := store.GetStorage(key); ok {
			t.Error("Expected absent cell")
		}
	})

	t.Run("set then get", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetStorage(key, []byte{1, 2, 3})
		v, ok := store.GetStorage(key)
		if !ok {
			t.Fatal("Expected cell to exist")
		}
		if !bytes.Equal(v, []byte{1, 2, 3}) {
			t.Errorf("Expected [1 2 3], got %v", v)
		}
	})

	t.Run("set copies the value", func(t *testing.T) {
		store := NewMemoryStore()
		buf := []byte{1, 2, 3}
		store.SetStorage(key, buf)
		buf[0] = 9
		v, _ := store.GetStorage(key)
		if v[0] != 1 {
			t.Error("Store aliased the caller's buffer")
		}
	})

	t.Run("clear removes the cell", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetStorage(key, []byte{1})
		store.ClearStorage(key)
		if _, ok := store.GetStorage(key); ok {
			t.Error("Expected cell to be gone")
		}
		if store.Len() != 0 {
			t.Errorf("Expected empty store, got %d cells", store.Len())
		}
	})

	t.Run("empty value is distinct from absent", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetStorage(key, nil)
		if _, ok := store.GetStorage(key); !ok {
			t.Error("Explicitly written empty cell reported as absent")
		}
	})

	t.Run("counts operations", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetStorage(key, []byte{1})
		store.GetStorage(key)
		store.GetStorage(key)
		store.ClearStorage(key)

		stats := store.Stats()
		if stats.Writes != 1 || stats.Reads != 2 || stats.Clears != 1 {
			t.Errorf("Unexpected stats: %+v", stats)
		}

		store.ResetStats()
		if store.Stats() != (StoreStats{}) {
			t.Error("Expected zeroed stats after reset")
		}
	})

	t.Run("snapshot is a deep copy", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetStorage(key, []byte{1, 2})
		snap := store.Snapshot()
		snap[key][0] = 9
		v, _ := store.GetStorage(key)
		if v[0] != 1 {
			t.Error("Snapshot aliased store contents")
		}
	})
}
