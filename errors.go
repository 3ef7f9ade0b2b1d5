// Package lattice implements the storage-layout and message-dispatch core
// of a smart-contract execution model.
package lattice

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrStorageAbsent indicates a packed pull found no cell under the key.
	ErrStorageAbsent = errors.New("lattice: storage cell absent")

	// ErrAlreadyInstantiated indicates a constructor was dispatched on a
	// contract that has already been instantiated.
	ErrAlreadyInstantiated = errors.New("lattice: contract already instantiated")

	// ErrNotInstantiated indicates a message was dispatched before any
	// constructor ran.
	ErrNotInstantiated = errors.New("lattice: contract not instantiated")

	// ErrNoConstructor indicates Instantiate was called on a contract that
	// declares no constructors.
	ErrNoConstructor = errors.New("lattice: contract has no constructors")

	// ErrPayloadTooLarge indicates a call payload exceeded the configured
	// size limit.
	ErrPayloadTooLarge = errors.New("lattice: call payload exceeds size limit")

	// ErrTruncated indicates the decoder ran out of input bytes. It is
	// always wrapped in a DecodeError carrying the offset.
	ErrTruncated = errors.New("lattice: truncated input")

	// ErrTrailingBytes indicates undecoded bytes remained after the last
	// expected argument. It is always wrapped in a DecodeError.
	ErrTrailingBytes = errors.New("lattice: trailing bytes after value")
)

// DecodeError indicates malformed call data or cell contents. It is
// recoverable: the call is rejected, the execution environment survives.
type DecodeError struct {
	Offset int    // byte offset at which decoding failed
	Want   string // description of the value being decoded
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("lattice: decode %s at offset %d: %v", e.Want, e.Offset, e.Err)
	}
	return fmt.Sprintf("lattice: decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownSelectorError indicates a call payload carried a selector with no
// registered handler. The host must treat the call as rejected; storage is
// left untouched.
type UnknownSelectorError struct {
	Selector Selector
}

func (e *UnknownSelectorError) Error() string {
	return fmt.Sprintf("lattice: unknown selector %s", e.Selector.Hex())
}

// SelectorCollisionError indicates two handlers derived the same selector.
// This is a construction-time invariant violation: the contract must not
// be built.
type SelectorCollisionError struct {
	Selector Selector
	First    string // signature of the handler registered first
	Second   string // signature of the colliding handler
}

func (e *SelectorCollisionError) Error() string {
	return fmt.Sprintf("lattice: selector collision %s between %q and %q",
		e.Selector.Hex(), e.First, e.Second)
}

// KeyCollisionError indicates two layout fields resolved to the same
// storage key. Like selector collisions it is fatal at construction:
// a colliding layout silently corrupts state and must never go live.
type KeyCollisionError struct {
	Key    common.Hash
	First  string // field registered first under the key
	Second string // colliding field
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("lattice: storage key collision %s between field %q and field %q",
		e.Key.Hex(), e.First, e.Second)
}

// HandlerError wraps an error returned by a handler's own logic, keeping
// the handler signature for the caller.
type HandlerError struct {
	Signature string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("lattice: handler %q: %v", e.Signature, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
