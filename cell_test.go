package lattice

import (
	"testing"
)

func TestLazyGet(t *testing.T) {
	t.Run("fresh cell is absent, not an error", func(t *testing.T) {
		env := NewEnv(NewMemoryStore())
		cell := NewLazy(env, FieldKey(RootKey, "value"), Uint64())

		_, ok, err := cell.Get()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ok {
			t.Error("Expected fresh cell to be absent")
		}
	})

	t.Run("reads through a store reload cycle", func(t *testing.T) {
		store := NewMemoryStore()
		key := FieldKey(RootKey, "value")

		// First call: write.
		env := NewEnv(store)
		cell := NewLazy(env, key, Uint64())
		cell.Set(41)
		env.Flush()

		// Second call: fresh env over the persisted store.
		env2 := NewEnv(store)
		cell2 := NewLazy(env2, key, Uint64())
		v, ok, err := cell2.Get()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !ok || v != 41 {
			t.Errorf("Expected Some(41), got (%d, %v)", v, ok)
		}
	})

	t.Run("caches after first read", func(t *testing.T) {
		store := NewMemoryStore()
		key := FieldKey(RootKey, "value")
		store.SetStorage(key, Uint64().EncodeToBytes(5))
		store.ResetStats()

		env := NewEnv(store)
		cell := NewLazy(env, key, Uint64())
		for i := 0; i < 3; i++ {
			if _, _, err := cell.Get(); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
		}
		if store.Stats().Reads != 1 {
			t.Errorf("Expected exactly 1 host read, got %d", store.Stats().Reads)
		}
	})

	t.Run("surfaces decode error on codec mismatch", func(t *testing.T) {
		store := NewMemoryStore()
		key := FieldKey(RootKey, "value")
		store.SetStorage(key, []byte{1}) // too short for uint64

		env := NewEnv(store)
		cell := NewLazy(env, key, Uint64())
		if _, _, err := cell.Get(); err == nil {
			t.Error("Expected decode error")
		}
	})

	t.Run("GetOr falls back when absent", func(t *testing.T) {
		env := NewEnv(NewMemoryStore())
		cell := NewLazy(env, FieldKey(RootKey, "value"), Uint64())
		v, err := cell.GetOr(7)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if v != 7 {
			t.Errorf("Expected fallback 7, got %d", v)
		}
	})
}

func TestLazySet(t *testing.T) {
	t.Run("buffers until flush", func(t *testing.T) {
		store := NewMemoryStore()
		env := NewEnv(store)
		key := FieldKey(RootKey, "value")
		cell := NewLazy(env, key, Uint64())

		cell.Set(10)
		if store.Stats().Writes != 0 {
			t.Error("Set reached the host store before flush")
		}

		env.Flush()
		if store.Stats().Writes != 1 {
			t.Errorf("Expected 1 host write after flush, got %d", store.Stats().Writes)
		}
		v, _ := PullPacked(store, key, Uint64())
		if v != 10 {
			t.Errorf("Expected 10 in store, got %d", v)
		}
	})

	t.Run("unread unmodified cell costs nothing", func(t *testing.T) {
		store := NewMemoryStore()
		env := NewEnv(store)
		_ = NewLazy(env, FieldKey(RootKey, "value"), Uint64())
		env.Flush()
		if store.Stats() != (StoreStats{}) {
			t.Errorf("Expected zero host operations, got %+v", store.Stats())
		}
	})

	t.Run("last set wins with one write", func(t *testing.T) {
		store := NewMemoryStore()
		env := NewEnv(store)
		key := FieldKey(RootKey, "value")
		cell := NewLazy(env, key, Uint64())

		cell.Set(1)
		cell.Set(2)
		cell.Set(3)
		env.Flush()

		if store.Stats().Writes != 1 {
			t.Errorf("Expected 1 write, got %d", store.Stats().Writes)
		}
		v, _ := PullPacked(store, key, Uint64())
		if v != 3 {
			t.Errorf("Expected 3, got %d", v)
		}
	})

	t.Run("set without prior read skips the host read", func(t *testing.T) {
		store := NewMemoryStore()
		env := NewEnv(store)
		cell := NewLazy(env, FieldKey(RootKey, "value"), Uint64())
		cell.Set(1)
		env.Flush()
		if store.Stats().Reads != 0 {
			t.Errorf("Expected 0 reads, got %d", store.Stats().Reads)
		}
	})
}

func TestLazyClear(t *testing.T) {
	store := NewMemoryStore()
	key := FieldKey(RootKey, "value")
	store.SetStorage(key, Uint64().EncodeToBytes(5))

	env := NewEnv(store)
	cell := NewLazy(env, key, Uint64())
	cell.Clear()
	env.Flush()

	if _, ok := store.GetStorage(key); ok {
		t.Error("Expected cell to be cleared from the store")
	}
}

func TestLazyTake(t *testing.T) {
	t.Run("returns value and clears", func(t *testing.T) {
		store := NewMemoryStore()
		key := FieldKey(RootKey, "value")
		store.SetStorage(key, Uint64().EncodeToBytes(5))

		env := NewEnv(store)
		cell := NewLazy(env, key, Uint64())

		v, ok, err := cell.Take()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !ok || v != 5 {
			t.Errorf("Expected Some(5), got (%d, %v)", v, ok)
		}

		if _, ok, _ := cell.Get(); ok {
			t.Error("Expected cell to be empty after take")
		}

		env.Flush()
		if _, ok := store.GetStorage(key); ok {
			t.Error("Expected cleared cell in store after flush")
		}
	})

	t.Run("take on absent cell", func(t *testing.T) {
		env := NewEnv(NewMemoryStore())
		cell := NewLazy(env, FieldKey(RootKey, "value"), Uint64())
		_, ok, err := cell.Take()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ok {
			t.Error("Expected absent")
		}
	})
}

func TestLazyFlushIdempotent(t *testing.T) {
	store := NewMemoryStore()
	env := NewEnv(store)
	cell := NewLazy(env, FieldKey(RootKey, "value"), Uint64())
	cell.Set(1)

	env.Flush()
	env.Flush()
	cell.Flush()

	if store.Stats().Writes != 1 {
		t.Errorf("Expected 1 write across repeated flushes, got %d", store.Stats().Writes)
	}
}
