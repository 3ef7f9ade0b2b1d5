package lattice

import (
	"github.com/ethereum/go-ethereum/common"
)

// Mapping is an indexed collection where every entry lives under its own
// storage key, derived from the mapping's root key and the encoded
// index. Reading, writing, or removing one entry is O(1) host
// operations and never touches sibling entries.
//
// There is no implicit enumeration: the mapping does not track which
// indexes exist. Callers needing membership must track it themselves,
// e.g. in a separate Lazy cell holding a count or index list.
type Mapping[K, V any] struct {
	env      *Env
	root     common.Hash
	keyCodec ValueCodec[K]
	valCodec ValueCodec[V]
}

// NewMapping binds a mapping to its layout-derived root key for the
// duration of one call.
func NewMapping[K, V any](env *Env, root common.Hash, keyCodec ValueCodec[K], valCodec ValueCodec[V]) Mapping[K, V] {
	return Mapping[K, V]{env: env, root: root, keyCodec: keyCodec, valCodec: valCodec}
}

// Root returns the mapping's root key. Entry keys are derived from it;
// no cell is stored under the root itself.
func (m Mapping[K, V]) Root() common.Hash {
	return m.root
}

// entryKey derives the storage key of one entry.
func (m Mapping[K, V]) entryKey(index K) common.Hash {
	enc := NewEncoder()
	m.keyCodec.Encode(enc, index)
	return EntryKey(m.root, enc.Bytes())
}

// Get returns the value at index, or false if the entry does not exist.
func (m Mapping[K, V]) Get(index K) (V, bool, error) {
	raw, ok := m.env.Store().GetStorage(m.entryKey(index))
	if !ok {
		var zero V
		return zero, false, nil
	}
	v, err := m.valCodec.DecodeFromBytes(raw)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return v, true, nil
}

// Insert writes value at index and returns the previous value, if any.
// Costs one host read plus one host write; use Put when the previous
// value is not needed.
func (m Mapping[K, V]) Insert(index K, value V) (V, bool, error) {
	key := m.entryKey(index)
	var prev V
	had := false
	if raw, ok := m.env.Store().GetStorage(key); ok {
		v, err := m.valCodec.DecodeFromBytes(raw)
		if err != nil {
			var zero V
			return zero, false, err
		}
		prev = v
		had = true
	}
	m.env.Store().SetStorage(key, m.valCodec.EncodeToBytes(value))
	return prev, had, nil
}

// Put writes value at index without reading the previous entry: exactly
// one host write.
func (m Mapping[K, V]) Put(index K, value V) {
	m.env.Store().SetStorage(m.entryKey(index), m.valCodec.EncodeToBytes(value))
}

// Remove deletes the entry at index and returns the value it held, if
// any.
func (m Mapping[K, V]) Remove(index K) (V, bool, error) {
	key := m.entryKey(index)
	var prev V
	had := false
	if raw, ok := m.env.Store().GetStorage(key); ok {
		v, err := m.valCodec.DecodeFromBytes(raw)
		if err != nil {
			var zero V
			return zero, false, err
		}
		prev = v
		had = true
	}
	if had {
		m.env.Store().ClearStorage(key)
	}
	return prev, had, nil
}

// Delete removes the entry at index without reading it: at most one
// host clear.
func (m Mapping[K, V]) Delete(index K) {
	m.env.Store().ClearStorage(m.entryKey(index))
}

// Contains reports whether an entry exists at index. The cell contents
// are never decoded, so a corrupt entry still probes as present.
func (m Mapping[K, V]) Contains(index K) bool {
	_, ok := m.env.Store().GetStorage(m.entryKey(index))
	return ok
}
