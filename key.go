package lattice

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"
)

// Storage keys are 32-byte values (common.Hash) under which one cell of
// bytes lives in the host key-value store. Keys for fields and mapping
// entries are derived with keyed BLAKE3 under distinct domain keys, so
// two distinct logical paths within one contract collide only with
// cryptographically negligible probability.

// RootKey is the well-known key of the contract root: all zero. Layouts
// rooted here are reproducible across compilations absent explicit
// overrides.
var RootKey = common.Hash{}

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain separation
// ensures the same input bytes produce different keys in different
// contexts. The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes, so the keys stay inspectable in hex dumps.
// These are fixed constants: changing them re-keys every deployed
// contract's storage.
type domainKey [32]byte

var (
	fieldDomainKey = domainKey{
		'l', 'a', 't', 't', 'i', 'c', 'e', '.', 's', 't', 'o', 'r', 'a', 'g', 'e', '.',
		'f', 'i', 'e', 'l', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	entryDomainKey = domainKey{
		'l', 'a', 't', 't', 'i', 'c', 'e', '.', 's', 't', 'o', 'r', 'a', 'g', 'e', '.',
		'e', 'n', 't', 'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// FieldKey derives the storage key of a named field under a parent key.
// Top-level contract fields use RootKey as the parent; nested
// layout-bearing fields chain from their container's key. The field name
// is part of the hash input, so renaming a field moves its storage —
// pin the key with a manual override to keep old data readable.
func FieldKey(parent common.Hash, name string) common.Hash {
	return deriveKey(fieldDomainKey, parent[:], []byte(name))
}

// EntryKey derives the storage key of one mapping entry from the
// mapping's root key and the codec-encoded index. Distinct indexes
// produce distinct encodings (the codec is bijective), so distinct
// entries get distinct keys.
func EntryKey(root common.Hash, encodedIndex []byte) common.Hash {
	return deriveKey(entryDomainKey, root[:], encodedIndex)
}

// ManualKey pins a literal storage key, bypassing derivation. Authors
// use this to preserve a layout across contract versions, e.g. for
// in-place upgrades of deployed code. Keeping manual keys collision-free
// is the author's responsibility; the layout builder only catches exact
// duplicates within one layout.
func ManualKey(key [32]byte) common.Hash {
	return common.Hash(key)
}

// ManualKeyHex is ManualKey for a hex string (with or without 0x
// prefix). It returns an error if the string is not exactly 32 bytes.
func ManualKeyHex(s string) (common.Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("lattice: manual key: %w", err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("lattice: manual key: want %d bytes, got %d",
			common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// MustManualKeyHex is like ManualKeyHex but panics on error. Use only
// with compile-time constant keys.
func MustManualKeyHex(s string) common.Hash {
	k, err := ManualKeyHex(s)
	if err != nil {
		panic(err)
	}
	return k
}

// deriveKey computes the keyed BLAKE3 hash of the concatenated parts
// under the given domain key.
func deriveKey(key domainKey, parts ...[]byte) common.Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("lattice: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	for _, p := range parts {
		hasher.Write(p)
	}
	var out common.Hash
	copy(out[:], hasher.Sum(nil))
	return out
}
