package lattice

import (
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
)

// SelectorSize is the width of the selector prefix on every call
// payload.
const SelectorSize = 4

// Selector is the short fixed-width identifier that routes a call
// payload to a handler: the first four bytes of the Keccak-256 digest
// of the handler's normalized signature.
type Selector [SelectorSize]byte

// SelectorOf derives the selector of a normalized signature, e.g.
// "transfer(address,uint64)". The signature is name plus the ordered
// argument type identifiers with no spaces; two handlers differing in
// name or argument types derive different selectors except with
// negligible probability.
func SelectorOf(signature string) Selector {
	var s Selector
	copy(s[:], crypto.Keccak256([]byte(signature))[:SelectorSize])
	return s
}

// Bytes returns the selector as a slice, the form it takes as a payload
// prefix.
func (s Selector) Bytes() []byte {
	return s[:]
}

// Hex returns the selector as 0x-prefixed hex.
func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

// RawHandler is the uniform shape every handler compiles down to: it
// decodes its arguments from the payload remainder and returns the
// encoded result. Prefer the typed Func adapters, which also enforce
// full payload consumption before running any logic.
type RawHandler func(env *Env, dec *Decoder) ([]byte, error)

// Handler is one registered dispatch target. Handlers are immutable;
// the Constructor modifier returns a copy.
type Handler struct {
	signature   string
	selector    Selector
	constructor bool
	fn          RawHandler
}

// NewHandler builds a handler from a normalized signature and a raw
// handler function. The raw function is responsible for rejecting
// trailing payload bytes itself.
func NewHandler(signature string, fn RawHandler) Handler {
	return Handler{
		signature: signature,
		selector:  SelectorOf(signature),
		fn:        fn,
	}
}

// Signature returns the normalized signature the selector was derived
// from.
func (h Handler) Signature() string {
	return h.signature
}

// Selector returns the handler's routing selector.
func (h Handler) Selector() Selector {
	return h.selector
}

// IsConstructor reports whether the handler is dispatched through
// Instantiate rather than Dispatch.
func (h Handler) IsConstructor() bool {
	return h.constructor
}

// Constructor marks the handler as a constructor: routable only while
// the contract is uninstantiated, via Instantiate. Returns a copy.
func (h Handler) Constructor() Handler {
	h.constructor = true
	return h
}

// Func0 adapts a no-argument function into a handler.
func Func0[R any](signature string, result ValueCodec[R], fn func(*Env) (R, error)) Handler {
	return NewHandler(signature, func(env *Env, dec *Decoder) ([]byte, error) {
		if err := dec.Finish(); err != nil {
			return nil, err
		}
		r, err := fn(env)
		if err != nil {
			return nil, err
		}
		return result.EncodeToBytes(r), nil
	})
}

// Func1 adapts a one-argument function into a handler. The argument is
// decoded from the payload remainder, which must then be exhausted.
func Func1[A, R any](signature string, arg ValueCodec[A], result ValueCodec[R], fn func(*Env, A) (R, error)) Handler {
	return NewHandler(signature, func(env *Env, dec *Decoder) ([]byte, error) {
		a, err := arg.Decode(dec)
		if err != nil {
			return nil, err
		}
		if err := dec.Finish(); err != nil {
			return nil, err
		}
		r, err := fn(env, a)
		if err != nil {
			return nil, err
		}
		return result.EncodeToBytes(r), nil
	})
}

// Func2 adapts a two-argument function into a handler.
func Func2[A, B, R any](signature string, argA ValueCodec[A], argB ValueCodec[B], result ValueCodec[R], fn func(*Env, A, B) (R, error)) Handler {
	return NewHandler(signature, func(env *Env, dec *Decoder) ([]byte, error) {
		a, err := argA.Decode(dec)
		if err != nil {
			return nil, err
		}
		b, err := argB.Decode(dec)
		if err != nil {
			return nil, err
		}
		if err := dec.Finish(); err != nil {
			return nil, err
		}
		r, err := fn(env, a, b)
		if err != nil {
			return nil, err
		}
		return result.EncodeToBytes(r), nil
	})
}

// Func3 adapts a three-argument function into a handler.
func Func3[A, B, C, R any](signature string, argA ValueCodec[A], argB ValueCodec[B], argC ValueCodec[C], result ValueCodec[R], fn func(*Env, A, B, C) (R, error)) Handler {
	return NewHandler(signature, func(env *Env, dec *Decoder) ([]byte, error) {
		a, err := argA.Decode(dec)
		if err != nil {
			return nil, err
		}
		b, err := argB.Decode(dec)
		if err != nil {
			return nil, err
		}
		c, err := argC.Decode(dec)
		if err != nil {
			return nil, err
		}
		if err := dec.Finish(); err != nil {
			return nil, err
		}
		r, err := fn(env, a, b, c)
		if err != nil {
			return nil, err
		}
		return result.EncodeToBytes(r), nil
	})
}

// Contract routes call payloads to handlers against one contract
// instance's storage. The dispatch table is closed at construction and
// collision-checked there: a selector or storage-key collision prevents
// the contract from being built at all.
type Contract struct {
	store        HostStore
	layout       *Layout
	table        map[Selector]Handler
	constructors int
	instantiated bool
	cfg          contractConfig
}

// NewContract builds the dispatch table over a host store and a layout.
// Construction fails fast on layout key collisions and handler selector
// collisions — the two invariant violations that must never reach a
// live call. A contract with no constructors is born instantiated.
func NewContract(store HostStore, layout *Layout, handlers []Handler, opts ...ContractOption) (*Contract, error) {
	if err := layout.Err(); err != nil {
		return nil, err
	}

	c := &Contract{
		store:  store,
		layout: layout,
		table:  make(map[Selector]Handler, len(handlers)),
		cfg:    defaultContractConfig(),
	}
	for _, opt := range opts {
		opt(&c.cfg)
	}

	for _, h := range handlers {
		if prior, exists := c.table[h.selector]; exists {
			return nil, &SelectorCollisionError{
				Selector: h.selector,
				First:    prior.signature,
				Second:   h.signature,
			}
		}
		c.table[h.selector] = h
		if h.constructor {
			c.constructors++
		}
	}

	c.instantiated = c.constructors == 0 || c.cfg.instantiated
	return c, nil
}

// Layout returns the contract's storage layout.
func (c *Contract) Layout() *Layout {
	return c.layout
}

// Instantiated reports whether a constructor has run (or the contract
// needed none).
func (c *Contract) Instantiated() bool {
	return c.instantiated
}

// HasSelector reports whether a handler is registered for the selector.
func (c *Contract) HasSelector(s Selector) bool {
	_, ok := c.table[s]
	return ok
}

// Signatures returns the normalized signatures of all registered
// handlers, constructors included.
func (c *Contract) Signatures() []string {
	sigs := make([]string, 0, len(c.table))
	for _, h := range c.table {
		sigs = append(sigs, h.signature)
	}
	return sigs
}

// Instantiate routes a deployment payload to a constructor. It may
// succeed at most once; afterwards only Dispatch accepts calls.
func (c *Contract) Instantiate(payload []byte) ([]byte, error) {
	if c.constructors == 0 {
		return nil, ErrNoConstructor
	}
	if c.instantiated {
		return nil, ErrAlreadyInstantiated
	}
	out, err := c.route(payload, true)
	if err != nil {
		return nil, err
	}
	c.instantiated = true
	return out, nil
}

// Dispatch routes one message payload: the selector prefix picks the
// handler, the remainder decodes as the argument tuple, and the encoded
// result comes back. Unknown selectors and malformed arguments reject
// the call with storage untouched; once the handler starts, dirty cells
// are flushed on success and error paths alike.
func (c *Contract) Dispatch(payload []byte) ([]byte, error) {
	if !c.instantiated {
		return nil, ErrNotInstantiated
	}
	return c.route(payload, false)
}

// route is the shared selector-lookup and invocation path.
func (c *Contract) route(payload []byte, constructor bool) ([]byte, error) {
	if len(payload) > c.cfg.maxPayload {
		return nil, ErrPayloadTooLarge
	}
	if len(payload) < SelectorSize {
		return nil, &DecodeError{Offset: 0, Want: "selector", Err: ErrTruncated}
	}

	var sel Selector
	copy(sel[:], payload[:SelectorSize])

	h, ok := c.table[sel]
	if !ok || h.constructor != constructor {
		// A constructor selector on a live contract (or vice versa) is
		// as unroutable as a selector that was never registered.
		return nil, &UnknownSelectorError{Selector: sel}
	}

	env := NewEnv(c.store)
	// Argument decoding happens inside the handler before any state
	// mutation, so a decode failure flushes an empty dirty set and the
	// store is untouched. After mutation begins, the deferred flush
	// guarantees no logically-committed write is dropped on any exit
	// path.
	defer env.Flush()

	out, err := h.fn(env, NewDecoder(payload[SelectorSize:]))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			// Malformed call data surfaces as-is; only the handler's own
			// logic errors get wrapped with the signature.
			return nil, err
		}
		return nil, &HandlerError{Signature: h.signature, Err: err}
	}
	return out, nil
}
