package lattice

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodeErrorFormatting(t *testing.T) {
	t.Run("with want", func(t *testing.T) {
		err := &DecodeError{Offset: 12, Want: "uint64", Err: ErrTruncated}
		msg := err.Error()
		if !strings.Contains(msg, "uint64") || !strings.Contains(msg, "12") {
			t.Errorf("Message missing context: %q", msg)
		}
	})

	t.Run("without want", func(t *testing.T) {
		err := &DecodeError{Offset: 3, Err: ErrTruncated}
		if !strings.Contains(err.Error(), "offset 3") {
			t.Errorf("Message missing offset: %q", err.Error())
		}
	})

	t.Run("unwraps to sentinel", func(t *testing.T) {
		err := &DecodeError{Offset: 0, Err: ErrTruncated}
		if !errors.Is(err, ErrTruncated) {
			t.Error("Expected errors.Is to find ErrTruncated")
		}
	})

	t.Run("nested unwrap", func(t *testing.T) {
		inner := &DecodeError{Offset: 4, Want: "uint32", Err: ErrTruncated}
		outer := &DecodeError{Offset: 0, Want: "slice element 2", Err: inner}
		if !errors.Is(outer, ErrTruncated) {
			t.Error("Expected errors.Is to traverse nested decode errors")
		}
		var de *DecodeError
		if !errors.As(outer, &de) {
			t.Error("Expected errors.As to match")
		}
	})
}

func TestUnknownSelectorErrorFormatting(t *testing.T) {
	err := &UnknownSelectorError{Selector: Selector{0xAB, 0xCD, 0xEF, 0x01}}
	if !strings.Contains(err.Error(), "0xabcdef01") {
		t.Errorf("Message missing selector: %q", err.Error())
	}
}

func TestSelectorCollisionErrorFormatting(t *testing.T) {
	err := &SelectorCollisionError{
		Selector: SelectorOf("a()"),
		First:    "a()",
		Second:   "b()",
	}
	msg := err.Error()
	if !strings.Contains(msg, `"a()"`) || !strings.Contains(msg, `"b()"`) {
		t.Errorf("Message missing signatures: %q", msg)
	}
}

func TestKeyCollisionErrorFormatting(t *testing.T) {
	err := &KeyCollisionError{
		Key:    common.HexToHash("0x01"),
		First:  "owner",
		Second: "shadow",
	}
	msg := err.Error()
	if !strings.Contains(msg, `"owner"`) || !strings.Contains(msg, `"shadow"`) {
		t.Errorf("Message missing field names: %q", msg)
	}
}

func TestHandlerErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("insufficient balance")
	err := &HandlerError{Signature: "transfer(string,u64)", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "transfer(string,u64)") {
		t.Errorf("Message missing signature: %q", err.Error())
	}
}

func TestSentinelPrefixes(t *testing.T) {
	// All package errors share the lattice: prefix so callers can spot
	// the origin in wrapped chains.
	for _, err := range []error{
		ErrStorageAbsent,
		ErrAlreadyInstantiated,
		ErrNotInstantiated,
		ErrNoConstructor,
		ErrPayloadTooLarge,
		ErrTruncated,
		ErrTrailingBytes,
	} {
		if !strings.HasPrefix(err.Error(), "lattice: ") {
			t.Errorf("Sentinel missing prefix: %q", err.Error())
		}
	}
}
