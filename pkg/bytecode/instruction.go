package bytecode

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type Opcode string

// List of opcodes. The value of each opcode is its textual mnemonic.
const (
	OpLoadVal          Opcode = "LOAD_VAL"
	OpWriteVar         Opcode = "WRITE_VAR"
	OpReadVar          Opcode = "READ_VAR"
	OpAdd              Opcode = "ADD"
	OpSubtract         Opcode = "SUBTRACT"
	OpMultiply         Opcode = "MULTIPLY"
	OpDivide           Opcode = "DIVIDE"
	OpLessThan         Opcode = "LESS_THAN"
	OpLessThanEqual    Opcode = "LESS_THAN_EQUAL"
	OpGreaterThan      Opcode = "GREATER_THAN"
	OpGreaterThanEqual Opcode = "GREATER_THAN_EQUAL"
	OpLoop             Opcode = "LOOP"
	OpFunctionCall     Opcode = "FUNC_CALL"
	OpPrint            Opcode = "PRINT"
	OpPrintLn          Opcode = "PRINT_LN"
	OpSleep            Opcode = "SLEEP"
	OpSpawn            Opcode = "SPAWN"
	OpMutex            Opcode = "MUTEX" // reserved: no mnemonic assembles to it and the engine has no case for it
	OpChannel          Opcode = "CHANNEL"
	OpSendChannel      Opcode = "SEND_CHANNEL"
	OpReceiveChannel   Opcode = "RECEIVE_CHANNEL"
	OpReturn           Opcode = "RETURN"
	OpReturnValue      Opcode = "RETURN_VALUE"
)

// String returns the mnemonic of the opcode
func (o Opcode) String() string {
	return string(o)
}

// Instruction is one node of the instruction tree. Which operand fields are
// meaningful depends on Op:
//
//	LOAD_VAL, SLEEP            Int
//	WRITE_VAR, READ_VAR,
//	PRINT, PRINT_LN, MUTEX,
//	SEND_CHANNEL,
//	RECEIVE_CHANNEL            Name
//	CHANNEL                    Name (send half), Peer (receive half)
//	FUNC_CALL                  Name, Names
//	SPAWN                      Body, Names
//	LOOP                       Cond, Body
type Instruction struct {
	Op    Opcode        `cbor:"1,keyasint"`
	Int   int64         `cbor:"2,keyasint,omitempty"`
	Name  string        `cbor:"3,keyasint,omitempty"`
	Peer  string        `cbor:"4,keyasint,omitempty"`
	Names []string      `cbor:"5,keyasint,omitempty"`
	Cond  []Instruction `cbor:"6,keyasint,omitempty"`
	Body  []Instruction `cbor:"7,keyasint,omitempty"`
}

// String returns a single-line representation of the instruction.
// Nested blocks are summarised by their length.
func (i Instruction) String() string {
	switch i.Op {
	case OpLoadVal, OpSleep:
		return fmt.Sprintf("%s %d", i.Op, i.Int)
	case OpWriteVar, OpReadVar, OpPrint, OpPrintLn, OpMutex, OpSendChannel, OpReceiveChannel:
		return fmt.Sprintf("%s %s", i.Op, i.Name)
	case OpChannel:
		return fmt.Sprintf("%s %s %s", i.Op, i.Name, i.Peer)
	case OpFunctionCall:
		return strings.TrimSpace(fmt.Sprintf("%s %s %s", i.Op, i.Name, strings.Join(i.Names, " ")))
	case OpSpawn:
		return strings.TrimSpace(fmt.Sprintf("%s [%d] %s", i.Op, len(i.Body), strings.Join(i.Names, " ")))
	case OpLoop:
		return fmt.Sprintf("%s [%d] [%d]", i.Op, len(i.Cond), len(i.Body))
	default:
		return string(i.Op)
	}
}

// Functions maps a function name to its body. It is never mutated after
// assembly, so frames and goroutines share it without copying.
type Functions map[string][]Instruction

// Program is the output of the assembler and the input of the interpreter.
type Program struct {
	Entry     []Instruction `cbor:"1,keyasint"`
	Functions Functions     `cbor:"2,keyasint"`
}

// Dump writes the instruction tree in its textual form, indenting nested blocks
func (p *Program) Dump(w io.Writer) {
	names := make([]string, 0, len(p.Functions))
	for name := range p.Functions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "FUNC %s\n", name)
		dumpBlock(w, p.Functions[name], 1)
		fmt.Fprintln(w, "FUNC_END")
	}
	dumpBlock(w, p.Entry, 0)
}

func dumpBlock(w io.Writer, code []Instruction, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, in := range code {
		switch in.Op {
		case OpLoop:
			fmt.Fprintf(w, "%sLOOP\n", indent)
			dumpBlock(w, in.Cond, depth+1)
			fmt.Fprintf(w, "%sLOOP_START\n", indent)
			dumpBlock(w, in.Body, depth+1)
			fmt.Fprintf(w, "%sLOOP_END\n", indent)
		case OpSpawn:
			fmt.Fprintf(w, "%s%s\n", indent, strings.TrimSpace("SPAWN "+strings.Join(in.Names, " ")))
			dumpBlock(w, in.Body, depth+1)
			fmt.Fprintf(w, "%sSPAWN_END\n", indent)
		default:
			fmt.Fprintf(w, "%s%s\n", indent, in)
		}
	}
}
