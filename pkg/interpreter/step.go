package interpreter

import (
	"fmt"
	"time"

	"bytevm/pkg/bytecode"

	"github.com/google/uuid"
)

// result is what a frame reports to whoever started it. A hard result
// aborts every enclosing frame and carries no variables.
type result struct {
	value bytecode.Value
	vars  Vars
	err   error
	hard  bool
}

func abort(err error) result {
	return result{value: bytecode.None, err: err, hard: true}
}

// exec scans code in frame f. Soft errors are logged and the scan moves on
// to the next instruction; hard errors end it immediately.
func (it *Interpreter) exec(f *Frame, code []bytecode.Instruction) result {
	for _, in := range code {
		var soft error

		switch in.Op {
		case bytecode.OpLoadVal:
			f.stack.Push(bytecode.NewInt(in.Int))

		case bytecode.OpWriteVar:
			v, ok := f.stack.Pop()
			if !ok {
				return abort(fmt.Errorf("%s %s: %w", in.Op, in.Name, bytecode.ErrStackUnderflow))
			}
			f.vars[in.Name] = v

		case bytecode.OpReadVar:
			v, ok := f.vars[in.Name]
			if !ok {
				return abort(fmt.Errorf("%s %s: unbound variable: %w", in.Op, in.Name, bytecode.ErrStackUnderflow))
			}
			f.stack.Push(v)

		case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply:
			soft = arith(f, in.Op)

		case bytecode.OpDivide:
			top, ok := f.stack.Peek()
			switch {
			case !ok:
				soft = bytecode.ErrStackUnderflow
			case top.IsZero():
				soft = bytecode.ErrDivisionByZero
			default:
				soft = arith(f, in.Op)
			}

		case bytecode.OpLessThan, bytecode.OpLessThanEqual, bytecode.OpGreaterThan, bytecode.OpGreaterThanEqual:
			soft = compare(f, in.Op)

		case bytecode.OpPrint, bytecode.OpPrintLn:
			it.print(f, in)

		case bytecode.OpSleep:
			it.sleep(time.Duration(in.Int) * it.sleepUnit)

		case bytecode.OpReturn:
			return result{value: bytecode.None, vars: Vars{}}

		case bytecode.OpReturnValue:
			v, ok := f.stack.Pop()
			if !ok {
				return abort(fmt.Errorf("%s: empty stack: %w", in.Op, bytecode.ErrUnknownByteCode))
			}
			return result{value: v, vars: Vars{}}

		case bytecode.OpLoop:
			if r := it.loop(f, in); r.hard {
				return r
			}

		case bytecode.OpFunctionCall:
			if r := it.call(f, in); r.hard {
				return r
			}

		case bytecode.OpSpawn:
			if r := it.spawn(f, in); r.hard {
				return r
			}

		case bytecode.OpChannel:
			tx, rx := NewChannel()
			f.channels[in.Name] = tx
			f.channels[in.Peer] = rx

		case bytecode.OpSendChannel:
			ep, ok := f.params[in.Name]
			if !ok || ep == nil || ep.Kind() != SendEnd {
				return abort(fmt.Errorf("%s %s: %w", in.Op, in.Name, bytecode.ErrChannelNotFound))
			}
			v, ok := f.stack.Pop()
			if !ok {
				return abort(fmt.Errorf("%s %s: %w", in.Op, in.Name, bytecode.ErrStackUnderflow))
			}
			n, ok := v.AsInt64()
			if !ok {
				return abort(fmt.Errorf("%s %s: cannot send %#v: %w", in.Op, in.Name, v, bytecode.ErrUnknownByteCode))
			}
			ep.Send(n)

		case bytecode.OpReceiveChannel:
			ep, ok := f.params[in.Name]
			if !ok || ep == nil || ep.Kind() != ReceiveEnd {
				return abort(fmt.Errorf("%s %s: %w", in.Op, in.Name, bytecode.ErrChannelNotFound))
			}
			f.stack.Push(bytecode.NewInt(ep.Receive()))

		default:
			soft = fmt.Errorf("unsupported opcode %q: %w", in.Op, bytecode.ErrStackUnderflow)
		}

		if soft != nil {
			f.log.Error("Instruction failed", "op", in.Op, "error", soft)
		}
	}

	v, ok := f.stack.Pop()
	if !ok {
		return result{value: bytecode.None, vars: f.vars, err: fmt.Errorf("no value left on the stack: %w", bytecode.ErrUnknownByteCode)}
	}
	return result{value: v, vars: f.vars}
}

// operands returns the top two stack values without popping them, failing
// when either is missing or not an integer
func operands(f *Frame) (a, b int64, err error) {
	top, ok1 := f.stack.PeekN(0)
	next, ok2 := f.stack.PeekN(1)
	if !ok1 || !ok2 {
		return 0, 0, bytecode.ErrStackUnderflow
	}

	a, ok1 = top.AsInt64()
	b, ok2 = next.AsInt64()
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("operands %#v, %#v: %w", next, top, bytecode.ErrUnknownByteCode)
	}
	return a, b, nil
}

// arith pops a then b and pushes b op a. The stack is unchanged on failure.
func arith(f *Frame, op bytecode.Opcode) error {
	a, b, err := operands(f)
	if err != nil {
		return err
	}
	f.stack.Pop()
	f.stack.Pop()

	var r int64
	switch op {
	case bytecode.OpAdd:
		r = b + a
	case bytecode.OpSubtract:
		r = b - a
	case bytecode.OpMultiply:
		r = b * a
	case bytecode.OpDivide:
		r = b / a
	}
	f.stack.Push(bytecode.NewInt(r))
	return nil
}

// compare pops a then b and pushes the boolean b op a
func compare(f *Frame, op bytecode.Opcode) error {
	a, b, err := operands(f)
	if err != nil {
		return err
	}
	f.stack.Pop()
	f.stack.Pop()

	var r bool
	switch op {
	case bytecode.OpLessThan:
		r = b < a
	case bytecode.OpLessThanEqual:
		r = b <= a
	case bytecode.OpGreaterThan:
		r = b > a
	case bytecode.OpGreaterThanEqual:
		r = b >= a
	}
	f.stack.Push(bytecode.NewBool(r))
	return nil
}

// print writes "<name> = Kind(value)" to the output writer
func (it *Interpreter) print(f *Frame, in bytecode.Instruction) {
	v, ok := f.vars[in.Name]
	if !ok {
		f.log.Warn("Printing unbound variable", "name", in.Name)
		v = bytecode.None
	}

	format := "%s = %#v"
	if in.Op == bytecode.OpPrintLn {
		format += "\n"
	}
	if _, err := fmt.Fprintf(it.out, format, in.Name, v); err != nil {
		f.log.Warn("Print failed", "name", in.Name, "error", err)
	}
}

// loop runs the condition and the body in fresh sub-frames until the
// condition reports false. Each sub-frame's variables replace f's.
func (it *Interpreter) loop(f *Frame, in bytecode.Instruction) result {
	for {
		cond := it.exec(f.child(nil), in.Cond)
		if cond.err != nil {
			return abort(fmt.Errorf("%s condition: %w", in.Op, cond.err))
		}
		f.vars = cond.vars

		b, ok := cond.value.AsBool()
		if !ok {
			f.log.Warn("Loop condition is not a boolean, leaving loop", "value", fmt.Sprintf("%#v", cond.value))
			return result{}
		}
		if !b {
			return result{}
		}

		body := it.exec(f.child(nil), in.Body)
		if body.hard {
			return abort(fmt.Errorf("%s body: %w", in.Op, body.err))
		}
		f.vars = body.vars
	}
}

// call runs a function body in a sub-frame and pushes its value. The
// callee's variable changes are discarded.
func (it *Interpreter) call(f *Frame, in bytecode.Instruction) result {
	code, ok := f.funcs[in.Name]
	if !ok {
		return abort(fmt.Errorf("%s %s: unknown function: %w", in.Op, in.Name, bytecode.ErrUnknownByteCode))
	}

	params, err := moveEndpoints(f.params, in.Names)
	if err != nil {
		return abort(fmt.Errorf("%s %s: %w", in.Op, in.Name, err))
	}

	r := it.exec(f.child(params), code)
	if r.err != nil {
		return abort(fmt.Errorf("%s %s: %w", in.Op, in.Name, r.err))
	}

	f.stack.Push(r.value)
	return result{}
}

// spawn runs the body on a new goroutine and blocks until it reports back
// through a one-slot rendezvous channel.
func (it *Interpreter) spawn(f *Frame, in bytecode.Instruction) result {
	params, err := moveEndpoints(f.channels, in.Names)
	if err != nil {
		return abort(fmt.Errorf("%s: %w", in.Op, err))
	}

	child := f.child(params)
	child.log = f.log.With("thread", uuid.NewString())
	child.log.Debug("Spawning thread", "params", in.Names)

	done := make(chan result, 1)
	go func() {
		done <- it.exec(child, in.Body)
	}()

	r := <-done
	if r.err != nil {
		return abort(fmt.Errorf("%s: %w", in.Op, r.err))
	}

	f.stack.Push(r.value)
	return result{}
}
