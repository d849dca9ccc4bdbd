package bytecode

import (
	"fmt"
	"strconv"
)

type ValueKind int

const (
	KindNone ValueKind = iota
	KindInt
	KindBool
)

// String returns the name of the kind
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "Integer64"
	case KindBool:
		return "Boolean"
	default:
		return "None"
	}
}

// Value is a runtime value: a 64-bit signed integer, a boolean, or none.
// Values are copied, never shared.
type Value struct {
	Kind ValueKind `cbor:"1,keyasint"`
	I64  int64     `cbor:"2,keyasint,omitempty"`
	Bool bool      `cbor:"3,keyasint,omitempty"`
}

// None is the unit value
var None = Value{Kind: KindNone}

// NewInt creates a new integer Value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, I64: i}
}

// NewBool creates a new boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// String renders the value as a string.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "none"
	}
}

// GoString renders the value with its kind, e.g. Integer64(4)
func (v Value) GoString() string {
	switch v.Kind {
	case KindInt, KindBool:
		return fmt.Sprintf("%s(%s)", v.Kind, v.String())
	default:
		return "None"
	}
}

// AsInt64 returns the integer payload, or false for non-integer values.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsBool returns the boolean payload, or false for non-boolean values.
func (v Value) AsBool() (b bool, ok bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// IsZero reports whether v is exactly Integer64(0)
func (v Value) IsZero() bool {
	return v.Kind == KindInt && v.I64 == 0
}
