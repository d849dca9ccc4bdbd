package interpreter

import (
	"io"
	"maps"
	"os"
	"time"

	"bytevm/pkg/bytecode"

	"github.com/charmbracelet/log"
)

// Interpreter executes instruction trees produced by the assembler. It
// holds no per-run state, so one Interpreter may run many programs.
type Interpreter struct {
	out       io.Writer           // output writer for PRINT and PRINT_LN
	logger    *log.Logger         // sink for soft errors and tracing
	sleep     func(time.Duration) // blocks the calling goroutine
	sleepUnit time.Duration       // duration of SLEEP 1
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print statements
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithLogger sets the logger soft errors are reported to
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithSleeper replaces time.Sleep for SLEEP instructions
func WithSleeper(fn func(time.Duration)) Option {
	return func(i *Interpreter) { i.sleep = fn }
}

// WithSleepUnit sets the duration of one SLEEP step (default one second)
func WithSleepUnit(d time.Duration) Option {
	return func(i *Interpreter) { i.sleepUnit = d }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{
		sleep:     time.Sleep,
		sleepUnit: time.Second,
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}
	if it.logger == nil {
		it.logger = log.Default()
	}

	return it
}

// Execute runs code in a new frame built from the given stack, variables,
// parameters and function table. It returns the frame's result and its
// final variables; on a hard error the variables are empty.
//
// The initial stack and variables are copied. Endpoints are moved out of
// params as the code forwards them.
func (it *Interpreter) Execute(code []bytecode.Instruction, st []bytecode.Value, vars Vars, params Params, funcs bytecode.Functions) (bytecode.Value, Vars, error) {
	if funcs == nil {
		funcs = make(bytecode.Functions)
	}

	f := newFrame(append([]bytecode.Value(nil), st...), maps.Clone(vars), params, funcs, it.logger)
	r := it.exec(f, code)
	if r.hard {
		return bytecode.None, Vars{}, r.err
	}

	return r.value, r.vars, r.err
}

// Run executes a program's entry sequence in an empty top-level frame
func (it *Interpreter) Run(p *bytecode.Program) (bytecode.Value, Vars, error) {
	return it.Execute(p.Entry, nil, nil, nil, p.Functions)
}

// Execute runs code with a default interpreter writing to stdout
func Execute(code []bytecode.Instruction, st []bytecode.Value, vars Vars, params Params, funcs bytecode.Functions) (bytecode.Value, Vars, error) {
	return NewInterpreter().Execute(code, st, vars, params, funcs)
}
