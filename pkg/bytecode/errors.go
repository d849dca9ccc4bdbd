package bytecode

import "errors"

// Execution error taxonomy. Callers match with errors.Is; the engine wraps
// these with the offending opcode or name.
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrUnknownByteCode = errors.New("unknown byte code")
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNoReturnOpcode is reserved and never produced by the engine.
	ErrNoReturnOpcode = errors.New("no return opcode")
)
