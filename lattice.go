// Package lattice implements the storage-layout and message-dispatch core
// of a smart-contract execution model.
//
// Lattice maps strongly-typed contract state onto the flat key-value store
// exposed by a host runtime, and routes incoming binary call payloads to
// the correct handler via a deterministic selector scheme. This library
// provides:
//   - A compact binary codec for primitive and composite values
//   - Deterministic storage-key derivation with domain separation
//   - Packed and decomposed storage cells, including single-value lazy
//     cells and O(1) indexed mappings
//   - A selector-keyed dispatch table with construction-time collision
//     detection
//   - A layout reporter for external metadata tooling
//
// # Basic Usage
//
// Declare a layout, bind storage cells, register handlers, and dispatch:
//
//	layout := lattice.NewLayout()
//	valueKey := layout.LazyField("value")
//
//	store := lattice.NewMemoryStore()
//
//	inc := lattice.Func0("inc()", lattice.Unit(),
//	    func(env *lattice.Env) (struct{}, error) {
//	        cell := lattice.NewLazy(env, valueKey, lattice.Uint64())
//	        v, _, err := cell.Get()
//	        if err != nil {
//	            return struct{}{}, err
//	        }
//	        cell.Set(v + 1)
//	        return struct{}{}, nil
//	    })
//
//	contract, err := lattice.NewContract(store, layout, []lattice.Handler{inc})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Route a call payload: 4-byte selector followed by encoded arguments.
//	out, err := contract.Dispatch(lattice.SelectorOf("inc()").Bytes())
//
// # Storage Model
//
// Every storage cell lives under a fixed 32-byte key in the host store.
// Two strategies exist:
//
//   - Packed: the whole value is serialized into one cell. Used for values
//     with no internal storage indirection.
//
//   - Decomposed: each field or entry occupies its own independently
//     derived key. Lazy cells and mappings are the two indirection
//     primitives; touching one entry never materializes its siblings.
//
// Which strategy a field uses is fixed when the layout is constructed,
// never chosen at call time.
//
// # Key Derivation
//
// Field and entry keys are derived with keyed BLAKE3 under distinct domain
// keys, so two different logical paths collide only with cryptographically
// negligible probability. Authors may pin literal keys to preserve a
// layout across contract upgrades; pinned keys bypass hashing and their
// uniqueness is the author's responsibility, though the layout builder
// still rejects exact duplicates at construction time.
//
// # Dispatch
//
// A selector is the first four bytes of the Keccak-256 digest of the
// normalized handler signature, e.g. "transfer(address,uint64)". The
// dispatch table is closed at construction: duplicate selectors fail
// contract construction rather than a live call.
//
// # Call Safety
//
// Call payloads originate from untrusted callers. The decoder rejects
// truncated and over-long inputs with typed errors, unknown selectors are
// reported without touching storage, and dirty cells are flushed on every
// exit path once a handler has started executing.
package lattice
