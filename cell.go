package lattice

import (
	"github.com/ethereum/go-ethereum/common"
)

// Lazy is a single logical value stored at one derived key. The value
// is loaded from the host store on first access, cached for the rest of
// the call, and written back only if mutated — reading a cell that is
// never touched costs zero host operations, and a cell that is only
// read costs exactly one.
//
// Absence is the expected steady state of a cell that was never written:
// Get reports it as (zero, false, nil), never as an error.
type Lazy[T any] struct {
	env   *Env
	key   common.Hash
	codec ValueCodec[T]

	loaded  bool // cache holds the cell's logical state
	present bool // cell logically holds a value
	dirty   bool // cache diverges from the store
	tracked bool // registered with the env for flush
	value   T
}

// NewLazy binds a lazy cell to a derived key for the duration of one
// call. The same key must always be bound with the same codec, or
// decoding fails on the next load.
func NewLazy[T any](env *Env, key common.Hash, codec ValueCodec[T]) *Lazy[T] {
	return &Lazy[T]{env: env, key: key, codec: codec}
}

// Key returns the storage key the cell lives under.
func (l *Lazy[T]) Key() common.Hash {
	return l.key
}

// load pulls the cell from the host store into the cache once per call.
func (l *Lazy[T]) load() error {
	if l.loaded {
		return nil
	}
	raw, ok := l.env.Store().GetStorage(l.key)
	l.loaded = true
	if !ok {
		l.present = false
		return nil
	}
	v, err := l.codec.DecodeFromBytes(raw)
	if err != nil {
		l.loaded = false
		return err
	}
	l.value = v
	l.present = true
	return nil
}

// Get returns the cell's value and whether one is present. A fresh cell
// under an unwritten key returns (zero, false, nil). A decode error
// means the cell holds bytes the codec cannot read, i.e. the key was
// bound with a different codec at some point.
func (l *Lazy[T]) Get() (T, bool, error) {
	if err := l.load(); err != nil {
		var zero T
		return zero, false, err
	}
	if !l.present {
		var zero T
		return zero, false, nil
	}
	return l.value, true, nil
}

// GetOr returns the cell's value, or fallback when the cell is absent.
func (l *Lazy[T]) GetOr(fallback T) (T, error) {
	v, ok, err := l.Get()
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return v, nil
}

// Set replaces the cell's value. The write is buffered and reaches the
// host store on Flush, which the dispatch layer invokes on every exit
// path of the call.
func (l *Lazy[T]) Set(v T) {
	l.value = v
	l.present = true
	l.loaded = true
	l.markDirty()
}

// Clear removes the cell's value. Like Set, the removal is buffered
// until Flush.
func (l *Lazy[T]) Clear() {
	var zero T
	l.value = zero
	l.present = false
	l.loaded = true
	l.markDirty()
}

// Take returns the current value, if any, and clears the cell.
func (l *Lazy[T]) Take() (T, bool, error) {
	v, ok, err := l.Get()
	if err != nil {
		return v, false, err
	}
	if ok {
		l.Clear()
	}
	return v, ok, nil
}

func (l *Lazy[T]) markDirty() {
	l.dirty = true
	if !l.tracked && l.env != nil {
		l.env.trackDirty(l)
		l.tracked = true
	}
}

// Flush writes the cached state back to the host store if it diverged.
// A no-op for clean cells, so calling it repeatedly is safe.
func (l *Lazy[T]) Flush() {
	if !l.dirty {
		return
	}
	if l.present {
		l.env.Store().SetStorage(l.key, l.codec.EncodeToBytes(l.value))
	} else {
		l.env.Store().ClearStorage(l.key)
	}
	l.dirty = false
}
