package lattice

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
)

// Strategy identifies how a field's value maps onto storage cells.
type Strategy uint8

const (
	// StrategyPacked serializes the whole value into one cell.
	StrategyPacked Strategy = iota

	// StrategyLazy stores a single value under one derived key with
	// load-on-read, flush-on-exit semantics.
	StrategyLazy

	// StrategyMapping stores each entry under a key derived from the
	// field's root key and the entry's encoded index.
	StrategyMapping
)

// String returns the strategy name used in layout reports.
func (s Strategy) String() string {
	switch s {
	case StrategyPacked:
		return "packed"
	case StrategyLazy:
		return "lazy"
	case StrategyMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// EntryRuleKeyedBlake3 identifies the mapping entry-key derivation rule:
// keyed BLAKE3 under the entry domain key over root || encoded index.
// External tooling uses the identifier to recompute entry keys.
const EntryRuleKeyedBlake3 = "blake3-keyed/entry-v1"

// FieldLayout describes one registered field: its path, storage
// strategy, and the key its cells hang off.
type FieldLayout struct {
	// Name is the field's path segment under the layout root.
	Name string `cbor:"name"`

	// Strategy is how the field's value maps onto cells.
	Strategy Strategy `cbor:"strategy"`

	// Key is the field's derived (or pinned) storage key. For mappings
	// it is the root that entry keys are derived from, not a populated
	// cell.
	Key common.Hash `cbor:"key"`

	// Manual is true when the key was pinned by the author instead of
	// derived.
	Manual bool `cbor:"manual,omitempty"`

	// EntryRule identifies the entry-key derivation rule for mapping
	// fields; empty otherwise.
	EntryRule string `cbor:"entryRule,omitempty"`
}

// Layout assigns storage keys to a contract's root-level fields at
// static layout-construction time. Field order and names are part of
// the derivation input, so reordering or renaming fields across
// versions moves storage — deployed data then needs an explicit
// migration or pinned keys.
//
// The layout doubles as the layout reporter: Report reads back the very
// keys registration derived, so the report can never diverge from what
// the cells use at runtime.
type Layout struct {
	root   common.Hash
	fields []FieldLayout
	byKey  map[common.Hash]string
	err    error
}

// NewLayout starts a layout at the well-known all-zero root key.
func NewLayout() *Layout {
	return NewLayoutAt(RootKey)
}

// NewLayoutAt starts a layout at an explicit root key, for contracts
// that carve a subspace out of a shared store.
func NewLayoutAt(root common.Hash) *Layout {
	return &Layout{
		root:  root,
		byKey: make(map[common.Hash]string),
	}
}

// Root returns the layout's root key.
func (l *Layout) Root() common.Hash {
	return l.root
}

// Err returns the first key collision detected during registration, if
// any. Contract construction refuses a layout with a pending error.
func (l *Layout) Err() error {
	return l.err
}

// PackedField registers a packed field and returns its derived key.
func (l *Layout) PackedField(name string) common.Hash {
	return l.register(name, StrategyPacked, FieldKey(l.root, name), false)
}

// LazyField registers a single-value lazy field and returns its derived
// key.
func (l *Layout) LazyField(name string) common.Hash {
	return l.register(name, StrategyLazy, FieldKey(l.root, name), false)
}

// MappingField registers an indexed mapping field and returns its
// derived root key.
func (l *Layout) MappingField(name string) common.Hash {
	return l.register(name, StrategyMapping, FieldKey(l.root, name), false)
}

// PinnedField registers a field under an author-pinned literal key
// instead of a derived one. The override table is the layout itself:
// pinned keys are recorded next to derived ones and checked for exact
// duplicates, but cross-version compatibility is never inferred.
func (l *Layout) PinnedField(name string, key [32]byte, strategy Strategy) common.Hash {
	return l.register(name, strategy, ManualKey(key), true)
}

// register records a field and collision-checks its key. The first
// collision is latched in l.err; registration keeps returning keys so
// callers can finish wiring before construction fails fast.
func (l *Layout) register(name string, strategy Strategy, key common.Hash, manual bool) common.Hash {
	if prior, exists := l.byKey[key]; exists {
		if l.err == nil {
			l.err = &KeyCollisionError{Key: key, First: prior, Second: name}
		}
		return key
	}
	l.byKey[key] = name

	f := FieldLayout{
		Name:     name,
		Strategy: strategy,
		Key:      key,
		Manual:   manual,
	}
	if strategy == StrategyMapping {
		f.EntryRule = EntryRuleKeyedBlake3
	}
	l.fields = append(l.fields, f)
	return key
}

// Fields returns the registered fields in declaration order.
func (l *Layout) Fields() []FieldLayout {
	out := make([]FieldLayout, len(l.fields))
	copy(out, l.fields)
	return out
}

// LayoutDescription is the structural storage-layout report consumed by
// external metadata tooling: for each field, its path, strategy, and
// the exact key the storage cells use at runtime.
type LayoutDescription struct {
	Root   common.Hash   `cbor:"root"`
	Fields []FieldLayout `cbor:"fields"`
}

// Report produces the layout description. The keys come straight from
// the registration records, which were derived by the same FieldKey and
// ManualKey calls the runtime cells are bound with.
func (l *Layout) Report() LayoutDescription {
	return LayoutDescription{
		Root:   l.root,
		Fields: l.Fields(),
	}
}

// FieldByName returns the layout record of a named field.
func (d LayoutDescription) FieldByName(name string) (FieldLayout, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}

// layoutEncMode is the CBOR encoder for layout reports, configured with
// Core Deterministic Encoding so the same layout always serializes to
// identical bytes. Hash keys serialize as hex text via MarshalText.
var layoutEncMode cbor.EncMode

// layoutDecMode mirrors the encoder: Hash keys round-trip through their
// hex text form.
var layoutDecMode cbor.DecMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.TextMarshaler = cbor.TextMarshalerTextString
	// LayoutDescription itself implements encoding.BinaryMarshaler as its
	// public serialization entry point. The mode must encode it as a plain
	// struct, not call back into that method.
	opts.BinaryMarshaler = cbor.BinaryMarshalerNone
	var err error
	layoutEncMode, err = opts.EncMode()
	if err != nil {
		panic("lattice: CBOR encoder initialization failed: " + err.Error())
	}
	layoutDecMode, err = cbor.DecOptions{
		TextUnmarshaler:   cbor.TextUnmarshalerTextString,
		BinaryUnmarshaler: cbor.BinaryUnmarshalerNone,
	}.DecMode()
	if err != nil {
		panic("lattice: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalBinary serializes the report as deterministic CBOR for
// transport to metadata tooling. The structural facts, not this
// particular serialization, are the contract with consumers.
func (d LayoutDescription) MarshalBinary() ([]byte, error) {
	return layoutEncMode.Marshal(d)
}

// UnmarshalBinary decodes a report produced by MarshalBinary.
func (d *LayoutDescription) UnmarshalBinary(data []byte) error {
	return layoutDecMode.Unmarshal(data, d)
}
