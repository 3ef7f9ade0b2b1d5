package lattice

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Packed access: the whole value is serialized into one cell. Packed
// values carry no internal storage keys — a type is packed precisely
// when none of its reachable fields is a Lazy cell or Mapping. That
// property is structural and fixed at layout construction, where the
// field is registered with PackedField rather than LazyField or
// MappingField; it is never a runtime choice.
//
// Decomposed values are the complement: structs whose layout-bearing
// fields are Lazy cells and Mappings bound to independently derived
// keys. There is no whole-struct pull or push for them — each nested
// cell loads and flushes itself, so mutating one field touches exactly
// that field's cell.

// PushPacked encodes value and writes it into the single cell at key.
func PushPacked[T any](store HostStore, key common.Hash, codec ValueCodec[T], value T) {
	store.SetStorage(key, codec.EncodeToBytes(value))
}

// PullPacked reads and decodes the cell at key. An absent cell is
// reported as ErrStorageAbsent: use PullPackedOrZero for types whose
// zero value is a sensible default, so an explicit write of the zero
// value stays distinguishable from no write at all.
func PullPacked[T any](store HostStore, key common.Hash, codec ValueCodec[T]) (T, error) {
	raw, ok := store.GetStorage(key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("lattice: pull packed %s: %w", key.Hex(), ErrStorageAbsent)
	}
	return codec.DecodeFromBytes(raw)
}

// PullPackedOrZero reads and decodes the cell at key, returning the
// type's zero value when the cell is absent.
func PullPackedOrZero[T any](store HostStore, key common.Hash, codec ValueCodec[T]) (T, error) {
	raw, ok := store.GetStorage(key)
	if !ok {
		var zero T
		return zero, nil
	}
	return codec.DecodeFromBytes(raw)
}

// ClearPacked removes the cell at key. Removal is explicit; cells are
// never implicitly destroyed.
func ClearPacked(store HostStore, key common.Hash) {
	store.ClearStorage(key)
}
