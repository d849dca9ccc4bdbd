package assembler

import (
	"fmt"
	"strconv"

	"bytevm/pkg/bytecode"
	"bytevm/pkg/lexer"
)

// operand shapes of the non-structural mnemonics
type operands int

const (
	noOperand operands = iota
	intOperand
	nameOperand
	twoNames
	nameAndNames
)

var mnemonics = map[string]struct {
	op    bytecode.Opcode
	shape operands
}{
	"LOAD_VAL":           {bytecode.OpLoadVal, intOperand},
	"WRITE_VAR":          {bytecode.OpWriteVar, nameOperand},
	"READ_VAR":           {bytecode.OpReadVar, nameOperand},
	"ADD":                {bytecode.OpAdd, noOperand},
	"SUBTRACT":           {bytecode.OpSubtract, noOperand},
	"MULTIPLY":           {bytecode.OpMultiply, noOperand},
	"DIVIDE":             {bytecode.OpDivide, noOperand},
	"LESS_THAN":          {bytecode.OpLessThan, noOperand},
	"LESS_THAN_EQUAL":    {bytecode.OpLessThanEqual, noOperand},
	"GREATER_THAN":       {bytecode.OpGreaterThan, noOperand},
	"GREATER_THAN_EQUAL": {bytecode.OpGreaterThanEqual, noOperand},
	"RETURN":             {bytecode.OpReturn, noOperand},
	"RETURN_VALUE":       {bytecode.OpReturnValue, noOperand},
	"PRINT":              {bytecode.OpPrint, nameOperand},
	"PRINT_LN":           {bytecode.OpPrintLn, nameOperand},
	"SLEEP":              {bytecode.OpSleep, intOperand},
	"FUNC_CALL":          {bytecode.OpFunctionCall, nameAndNames},
	"CHANNEL":            {bytecode.OpChannel, twoNames},
	"SEND_CHANNEL":       {bytecode.OpSendChannel, nameOperand},
	"RECEIVE_CHANNEL":    {bytecode.OpReceiveChannel, nameOperand},
}

// decode turns one non-structural line into an instruction. known is
// false for mnemonics outside the instruction set.
func (a *Assembler) decode(mnemonic string, args []lexer.Token) (in bytecode.Instruction, known bool, err error) {
	m, ok := mnemonics[mnemonic]
	if !ok {
		return in, false, nil
	}

	in.Op = m.op
	switch m.shape {
	case intOperand:
		if len(args) < 1 {
			return in, true, fmt.Errorf("missing integer operand")
		}
		n, err := strconv.ParseInt(args[0].Lexeme, 10, 64)
		if err != nil || args[0].Type != lexer.NUM {
			return in, true, fmt.Errorf("expected integer operand, got %q", args[0].Lexeme)
		}
		if m.op == bytecode.OpSleep && n < 0 {
			return in, true, fmt.Errorf("negative duration %d", n)
		}
		in.Int = n

	case nameOperand:
		if len(args) < 1 {
			return in, true, fmt.Errorf("missing name operand")
		}
		in.Name = a.symbols.Intern(args[0].Lexeme)

	case twoNames:
		if len(args) < 2 {
			return in, true, fmt.Errorf("expected send and receive names")
		}
		in.Name = a.symbols.Intern(args[0].Lexeme)
		in.Peer = a.symbols.Intern(args[1].Lexeme)

	case nameAndNames:
		if len(args) < 1 {
			return in, true, fmt.Errorf("missing function name")
		}
		in.Name = a.symbols.Intern(args[0].Lexeme)
		in.Names = a.names(args[1:])
	}

	return in, true, nil
}
