package badgerstore

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	lattice "github.com/branched-services/go-lattice"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", WithInMemory())
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestStoreBasicOperations(t *testing.T) {
	store := openInMemory(t)
	key := common.HexToHash("0x01")

	t.Run("absent before write", func(t *testing.T) {
		if _, ok := store.GetStorage(key); ok {
			t.Error("Expected absent cell")
		}
	})

	t.Run("set then get", func(t *testing.T) {
		store.SetStorage(key, []byte{1, 2, 3})
		v, ok := store.GetStorage(key)
		if !ok || !bytes.Equal(v, []byte{1, 2, 3}) {
			t.Errorf("Expected [1 2 3], got (%v, %v)", v, ok)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		store.SetStorage(key, []byte{9})
		v, _ := store.GetStorage(key)
		if !bytes.Equal(v, []byte{9}) {
			t.Errorf("Expected [9], got %v", v)
		}
	})

	t.Run("clear", func(t *testing.T) {
		store.ClearStorage(key)
		if _, ok := store.GetStorage(key); ok {
			t.Error("Expected cell gone after clear")
		}
	})

	t.Run("clear absent is a no-op", func(t *testing.T) {
		store.ClearStorage(common.HexToHash("0xFF"))
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	key := common.HexToHash("0x02")

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	store.SetStorage(key, []byte("persisted"))
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Expected store to reopen, got %v", err)
	}
	defer reopened.Close()

	v, ok := reopened.GetStorage(key)
	if !ok || string(v) != "persisted" {
		t.Errorf("Expected persisted value, got (%q, %v)", v, ok)
	}
}

func TestStorePrefixIsolation(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, WithPrefix([]byte("instance-a/")))
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	store.SetStorage(common.HexToHash("0x03"), []byte{1})
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	other, err := Open(dir, WithPrefix([]byte("instance-b/")))
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	defer other.Close()

	if _, ok := other.GetStorage(common.HexToHash("0x03")); ok {
		t.Error("Prefixed instances leaked cells into each other")
	}
}

func TestStoreDrivesLazyCells(t *testing.T) {
	store := openInMemory(t)
	key := lattice.FieldKey(lattice.RootKey, "counter")

	env := lattice.NewEnv(store)
	cell := lattice.NewLazy(env, key, lattice.Uint64())
	cell.Set(7)
	env.Flush()

	env2 := lattice.NewEnv(store)
	v, ok, err := lattice.NewLazy(env2, key, lattice.Uint64()).Get()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ok || v != 7 {
		t.Errorf("Expected Some(7), got (%d, %v)", v, ok)
	}
}
