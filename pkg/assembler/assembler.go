// Package assembler turns line-oriented bytecode text into a nested
// instruction tree and a function table.
package assembler

import (
	"fmt"
	"os"
	"strings"

	"bytevm/pkg/bytecode"
	"bytevm/pkg/lexer"
	"bytevm/pkg/stack"
)

// Assembler routes decoded instructions into the block currently being
// built. Structural mnemonics (LOOP, FUNC, SPAWN and their terminators)
// push and pop the context stack; every other mnemonic appends one
// instruction to the pending buffer, which is flushed into the current
// block whenever the context changes.
type Assembler struct {
	symbols *bytecode.SymbolTable

	ctx     *stack.Stack[*block] // enclosing blocks
	cur     *block               // block being assembled
	pending []bytecode.Instruction

	functions bytecode.Functions

	line   string // source text of the current line, for diagnostics
	errors []*Diagnostic
}

type Option func(*Assembler)

// WithSymbols shares an intern table between assemblers, so that names
// from every script of a run are interned once.
func WithSymbols(st *bytecode.SymbolTable) Option {
	return func(a *Assembler) { a.symbols = st }
}

// New creates a new Assembler instance
func New(opts ...Option) *Assembler {
	a := &Assembler{}
	for _, o := range opts {
		o(a)
	}

	if a.symbols == nil {
		a.symbols = bytecode.NewSymbolTable()
	}

	return a
}

// Symbols returns the intern table holding every name seen so far
func (a *Assembler) Symbols() *bytecode.SymbolTable {
	return a.symbols
}

// Assemble builds a program from script text. Unknown mnemonics are
// skipped; malformed lines are recorded as diagnostics and the first one
// is returned as the error.
func (a *Assembler) Assemble(src string) (*bytecode.Program, error) {
	a.reset()

	lines := strings.Split(src, "\n")
	l := lexer.NewLexer(src)
	for {
		tokens, lineNo, ok := l.NextLine()
		if !ok {
			break
		}
		if len(tokens) == 0 {
			continue
		}

		a.line = strings.TrimRight(lines[lineNo-1], "\r")
		a.assembleLine(tokens)
	}

	a.flush()
	for a.cur.kind != blockProgram {
		a.addError(a.cur.pos, a.cur.kind.String(), "block is never closed")
		a.cur, _ = a.ctx.Pop()
	}

	prog := &bytecode.Program{
		Entry:     a.cur.seq,
		Functions: a.functions,
	}

	if len(a.errors) > 0 {
		return prog, a.errors[0]
	}
	return prog, nil
}

// reset prepares the assembler for a new script
func (a *Assembler) reset() {
	a.ctx = stack.NewStack[*block]()
	a.cur = &block{kind: blockProgram}
	a.pending = nil
	a.functions = make(bytecode.Functions)
	a.errors = nil
	a.line = ""
}

// flush moves the pending buffer into the current block
func (a *Assembler) flush() {
	a.cur.seq = append(a.cur.seq, a.pending...)
	a.pending = nil
}

// enter pushes the current block and makes b current
func (a *Assembler) enter(b *block) {
	a.flush()
	a.ctx.Push(a.cur)
	a.cur = b
}

// leave flushes into the current block, restores the enclosing one and
// returns the finished block
func (a *Assembler) leave() *block {
	a.flush()
	done := a.cur
	a.cur, _ = a.ctx.Pop()
	return done
}

func (a *Assembler) assembleLine(tokens []lexer.Token) {
	head := tokens[0]
	args := tokens[1:]

	switch head.Lexeme {
	case "LOOP":
		a.enter(&block{kind: blockLoopCondition, pos: head.Pos})

	case "LOOP_START":
		if a.cur.kind != blockLoopCondition {
			a.addError(head.Pos, head.Lexeme, "not inside a loop condition")
			return
		}
		a.flush()
		a.cur.cond = a.cur.seq
		a.cur.seq = nil
		a.cur.kind = blockLoopCode

	case "LOOP_END":
		if a.cur.kind != blockLoopCode {
			a.addError(head.Pos, head.Lexeme, "no matching LOOP_START")
			return
		}
		done := a.leave()
		a.pending = append(a.pending, bytecode.Instruction{
			Op:   bytecode.OpLoop,
			Cond: done.cond,
			Body: done.seq,
		})

	case "FUNC":
		if len(args) < 1 {
			a.addError(head.Pos, head.Lexeme, "missing function name")
			return
		}
		a.enter(&block{kind: blockFunction, name: a.symbols.Intern(args[0].Lexeme), pos: head.Pos})

	case "FUNC_END":
		if a.cur.kind != blockFunction {
			a.addError(head.Pos, head.Lexeme, "no matching FUNC")
			return
		}
		done := a.leave()
		a.functions[done.name] = done.seq

	case "SPAWN":
		a.enter(&block{kind: blockSpawn, names: a.names(args), pos: head.Pos})

	case "SPAWN_END":
		if a.cur.kind != blockSpawn {
			a.addError(head.Pos, head.Lexeme, "no matching SPAWN")
			return
		}
		done := a.leave()
		a.pending = append(a.pending, bytecode.Instruction{
			Op:    bytecode.OpSpawn,
			Body:  done.seq,
			Names: done.names,
		})

	default:
		in, known, err := a.decode(head.Lexeme, args)
		if !known {
			return
		}
		if err != nil {
			a.addError(head.Pos, head.Lexeme, "%v", err)
			return
		}
		a.pending = append(a.pending, in)
	}
}

// names interns every token
func (a *Assembler) names(tokens []lexer.Token) []string {
	if len(tokens) == 0 {
		return nil
	}

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, a.symbols.Intern(tok.Lexeme))
	}
	return out
}

// Assemble builds a program from script text with a fresh symbol table
func Assemble(src string) (*bytecode.Program, error) {
	return New().Assemble(src)
}

// AssembleFile reads and assembles the script at path
func AssembleFile(path string, opts ...Option) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	prog, err := New(opts...).Assemble(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}
