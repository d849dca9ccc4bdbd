package assembler

import (
	"bytevm/pkg/bytecode"
	"bytevm/pkg/lexer"
)

type blockKind int

const (
	blockProgram blockKind = iota
	blockLoopCondition
	blockLoopCode
	blockFunction
	blockSpawn
)

// String returns the mnemonic that opened a block of this kind
func (k blockKind) String() string {
	switch k {
	case blockLoopCondition, blockLoopCode:
		return "LOOP"
	case blockFunction:
		return "FUNC"
	case blockSpawn:
		return "SPAWN"
	default:
		return "program"
	}
}

// block is one level of the context stack: the kind of block being
// assembled and the sequence it owns.
type block struct {
	kind  blockKind
	seq   []bytecode.Instruction // instructions flushed into this block so far
	cond  []bytecode.Instruction // finished loop condition, set at LOOP_START
	name  string                 // function name (FUNC)
	names []string               // forwarded parameter names (SPAWN)
	pos   lexer.Position         // where the block was opened
}
