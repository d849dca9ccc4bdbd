package interpreter

import (
	"fmt"
	"maps"

	"bytevm/pkg/bytecode"
	"bytevm/pkg/stack"

	"github.com/charmbracelet/log"
)

// Vars is a frame's variable map.
type Vars map[string]bytecode.Value

// Params maps names to channel endpoints. It is used both for a frame's
// parameter map and for its local channel table.
type Params map[string]*Endpoint

// Frame is one activation of the engine. Frames never share a stack or a
// variable map; child frames receive copies.
type Frame struct {
	stack    *stack.Stack[bytecode.Value]
	vars     Vars
	params   Params // endpoints forwarded by the caller
	channels Params // endpoints declared by CHANNEL in this frame
	funcs    bytecode.Functions
	log      *log.Logger
}

// newFrame creates a frame owning the given stack and variables
func newFrame(st []bytecode.Value, vars Vars, params Params, funcs bytecode.Functions, logger *log.Logger) *Frame {
	if vars == nil {
		vars = make(Vars)
	}
	if params == nil {
		params = make(Params)
	}

	return &Frame{
		stack:    stack.NewStack(st...),
		vars:     vars,
		params:   params,
		channels: make(Params),
		funcs:    funcs,
		log:      logger,
	}
}

// child creates a sub-frame with an empty stack and a copy of f's variables
func (f *Frame) child(params Params) *Frame {
	return newFrame(nil, maps.Clone(f.vars), params, f.funcs, f.log)
}

// moveEndpoints removes the named endpoints from src and returns them as a
// new parameter map. src is left untouched if any name is missing or
// named twice.
func moveEndpoints(src Params, names []string) (Params, error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: %s forwarded twice", bytecode.ErrChannelNotFound, name)
		}
		seen[name] = true

		if ep, ok := src[name]; !ok || ep == nil {
			return nil, fmt.Errorf("%w: %s", bytecode.ErrChannelNotFound, name)
		}
	}

	moved := make(Params, len(names))
	for _, name := range names {
		moved[name] = src[name]
		delete(src, name)
	}
	return moved, nil
}
