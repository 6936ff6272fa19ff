package vm

import (
	"fmt"
	"math"

	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/pkg/object"
)

// VM executes one chunk at a time. Execution is synchronous and
// non-reentrant per instance; re-entry from a capability callback
// builds a fresh machine from the closure's captured state.
type VM struct {
	globals map[string]object.Object
	handler DispatchFunc

	stack []object.Object
}

// New creates a machine over the given global environment and dispatch
// handler.
func New(globals map[string]object.Object, handler DispatchFunc) *VM {
	return &VM{globals: globals, handler: handler}
}

// unwind carries an error out through foreign (capability) stack
// frames. Anything else that panics is a domain error from monad code
// and propagates unchanged.
type unwind struct {
	err error
}

// RunChunk executes a stand-alone chunk (the driver that materializes
// the first source value).
func (vm *VM) RunChunk(c *Chunk) (object.Object, error) {
	locals := make([]object.Object, len(c.VarNames))
	return vm.run(c, locals)
}

// NewClosure binds a unit to captured defaults and this machine's
// globals and handler.
func (vm *VM) NewClosure(u *Unit, defaults []object.Object) *Closure {
	return &Closure{Unit: u, Defaults: defaults, Globals: vm.globals, Handler: vm.handler}
}

// Call invokes a closure with the single incoming value. Safe to call
// from capability implementations at any depth.
func Call(cl *Closure, arg object.Object) (object.Object, error) {
	machine := New(cl.Globals, cl.Handler)
	locals := make([]object.Object, len(cl.Unit.LocalNames))
	locals[0] = arg
	copy(locals[1:], cl.Defaults)
	return machine.run(cl.Unit.Chunk, locals)
}

func (vm *VM) run(c *Chunk, locals []object.Object) (object.Object, error) {
	ip := 0
	vm.stack = vm.stack[:0]

	for ip < len(c.Code) {
		in := DecodeAt(c, ip)
		line := c.Lines[ip]
		ip = in.Next

		switch in.Op {
		case OpConst:
			vm.push(c.Constants[in.Arg])
		case OpNil:
			vm.push(object.NIL)
		case OpTrue:
			vm.push(object.TRUE)
		case OpFalse:
			vm.push(object.FALSE)
		case OpPop:
			vm.pop()

		case OpGetLocal:
			v := locals[in.Arg]
			if v == nil {
				v = object.NIL
			}
			vm.push(v)
		case OpSetLocal:
			locals[in.Arg] = vm.pop()
		case OpGetGlobal:
			name := c.Constants[in.Arg].(*object.String).Value
			v, ok := vm.globals[name]
			if !ok {
				return nil, vm.runtimeErr(c, line, "undefined name %q", name)
			}
			vm.push(v)

		case OpUnpack:
			v := vm.pop()
			tup, ok := v.(*object.Tuple)
			if !ok {
				return nil, vm.runtimeErr(c, line, "cannot destructure %s into %d names", v.Inspect(), in.Arg)
			}
			if len(tup.Elements) != in.Arg {
				return nil, vm.runtimeErr(c, line, "pattern expects %d values, got %d", in.Arg, len(tup.Elements))
			}
			for i := len(tup.Elements) - 1; i >= 0; i-- {
				vm.push(tup.Elements[i])
			}
		case OpMakeTuple:
			vm.push(&object.Tuple{Elements: vm.popN(in.Arg)})
		case OpMakeList:
			vm.push(&object.List{Elements: vm.popN(in.Arg)})

		case OpAdd, OpSub, OpMul, OpDiv, OpMod,
			OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			right := vm.pop()
			left := vm.pop()
			res := binaryOp(in.Op, left, right)
			if errObj, ok := res.(*object.Error); ok {
				return nil, vm.runtimeErr(c, line, "%s", errObj.Message)
			}
			vm.push(res)

		case OpNot:
			vm.push(object.FromBool(!object.IsTruthy(vm.pop())))
		case OpNeg:
			switch v := vm.pop().(type) {
			case *object.Integer:
				vm.push(&object.Integer{Value: -v.Value})
			case *object.Float:
				vm.push(&object.Float{Value: -v.Value})
			default:
				return nil, vm.runtimeErr(c, line, "cannot negate %s", v.Inspect())
			}
		case OpAnd:
			right := vm.pop()
			left := vm.pop()
			vm.push(object.FromBool(object.IsTruthy(left) && object.IsTruthy(right)))
		case OpOr:
			right := vm.pop()
			left := vm.pop()
			vm.push(object.FromBool(object.IsTruthy(left) || object.IsTruthy(right)))

		case OpJump:
			ip = in.Next + in.Arg
		case OpJumpIfFalse:
			if !object.IsTruthy(vm.pop()) {
				ip = in.Next + in.Arg
			}
		case OpJumpIfTrue:
			if object.IsTruthy(vm.pop()) {
				ip = in.Next + in.Arg
			}

		case OpCall:
			args := vm.popN(in.Arg)
			callee := vm.pop()
			fn, ok := callee.(*object.Builtin)
			if !ok {
				return nil, vm.runtimeErr(c, line, "%s is not callable", callee.Inspect())
			}
			res := fn.Fn(args...)
			if errObj, ok := res.(*object.Error); ok {
				return nil, vm.runtimeErr(c, line, "%s: %s", fn.Name, errObj.Message)
			}
			vm.push(res)

		case OpClosure:
			unit, ok := c.Constants[in.Arg].(*Unit)
			if !ok {
				return nil, vm.internalErr(c, line, "closure constant %d is not a unit", in.Arg)
			}
			defaults := vm.popN(in.Arg2)
			vm.push(vm.NewClosure(unit, defaults))

		case OpDispatch:
			opName := c.Constants[in.Arg].(*object.String).Value
			cl, ok := vm.pop().(*Closure)
			if !ok {
				return nil, vm.internalErr(c, line, "dispatch without closure")
			}
			value := vm.pop()
			res, err := dispatch(vm.handler, opName, value, cl)
			if err != nil {
				return nil, err
			}
			vm.push(res)

		case OpReturn:
			return vm.pop(), nil

		case OpGetIter, OpIterNext, OpYield, OpLoopIfFalse, OpLoopIfTrue:
			// Canonical markers only exist in the lowered form; a
			// generated unit or driver must never contain them.
			return nil, vm.internalErr(c, line, "canonical marker %s reached at runtime", OpcodeNames[in.Op])

		default:
			return nil, vm.internalErr(c, line, "unknown opcode %d", in.Op)
		}
	}
	return nil, vm.internalErr(c, 0, "chunk ended without RETURN")
}

// dispatch routes one capability request through the handler,
// converting callback errors that crossed foreign frames back into
// ordinary error returns.
func dispatch(handler DispatchFunc, op string, value object.Object, cl *Closure) (res object.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			if u, ok := r.(*unwind); ok {
				res, err = nil, u.err
				return
			}
			panic(r)
		}
	}()
	return handler(op, value, func(v object.Object) object.Object {
		out, cerr := Call(cl, v)
		if cerr != nil {
			panic(&unwind{err: cerr})
		}
		return out
	})
}

func binaryOp(op Opcode, left, right object.Object) object.Object {
	switch op {
	case OpEq:
		return object.FromBool(object.Equals(left, right))
	case OpNe:
		return object.FromBool(!object.Equals(left, right))
	}

	if ls, ok := left.(*object.String); ok {
		if rs, ok := right.(*object.String); ok {
			return stringOp(op, ls.Value, rs.Value)
		}
	}

	lf, lok := numeric(left)
	rf, rok := numeric(right)
	if !lok || !rok {
		return object.Errorf("unsupported operands %s and %s for %s",
			left.Inspect(), right.Inspect(), OpcodeNames[op])
	}

	li, lInt := left.(*object.Integer)
	ri, rInt := right.(*object.Integer)
	if lInt && rInt {
		return intOp(op, li.Value, ri.Value)
	}
	return floatOp(op, lf, rf)
}

func numeric(v object.Object) (float64, bool) {
	switch n := v.(type) {
	case *object.Integer:
		return float64(n.Value), true
	case *object.Float:
		return n.Value, true
	}
	return 0, false
}

func intOp(op Opcode, a, b int64) object.Object {
	switch op {
	case OpAdd:
		return &object.Integer{Value: a + b}
	case OpSub:
		return &object.Integer{Value: a - b}
	case OpMul:
		return &object.Integer{Value: a * b}
	case OpDiv:
		if b == 0 {
			return object.Errorf("division by zero")
		}
		return &object.Integer{Value: a / b}
	case OpMod:
		if b == 0 {
			return object.Errorf("division by zero")
		}
		return &object.Integer{Value: a % b}
	case OpLt:
		return object.FromBool(a < b)
	case OpLe:
		return object.FromBool(a <= b)
	case OpGt:
		return object.FromBool(a > b)
	case OpGe:
		return object.FromBool(a >= b)
	}
	return object.Errorf("bad integer operation %s", OpcodeNames[op])
}

func floatOp(op Opcode, a, b float64) object.Object {
	switch op {
	case OpAdd:
		return &object.Float{Value: a + b}
	case OpSub:
		return &object.Float{Value: a - b}
	case OpMul:
		return &object.Float{Value: a * b}
	case OpDiv:
		if b == 0 {
			return object.Errorf("division by zero")
		}
		return &object.Float{Value: a / b}
	case OpMod:
		if b == 0 {
			return object.Errorf("division by zero")
		}
		return &object.Float{Value: math.Mod(a, b)}
	case OpLt:
		return object.FromBool(a < b)
	case OpLe:
		return object.FromBool(a <= b)
	case OpGt:
		return object.FromBool(a > b)
	case OpGe:
		return object.FromBool(a >= b)
	}
	return object.Errorf("bad float operation %s", OpcodeNames[op])
}

func stringOp(op Opcode, a, b string) object.Object {
	switch op {
	case OpAdd:
		return &object.String{Value: a + b}
	case OpLt:
		return object.FromBool(a < b)
	case OpLe:
		return object.FromBool(a <= b)
	case OpGt:
		return object.FromBool(a > b)
	case OpGe:
		return object.FromBool(a >= b)
	}
	return object.Errorf("bad string operation %s", OpcodeNames[op])
}

func (vm *VM) push(v object.Object) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() object.Object {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// popN pops n values preserving their push order.
func (vm *VM) popN(n int) []object.Object {
	out := make([]object.Object, n)
	copy(out, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return out
}

func (vm *VM) runtimeErr(c *Chunk, line int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return &diagnostics.Error{Code: diagnostics.ErrR001, Line: line, Message: msg}
}

func (vm *VM) internalErr(c *Chunk, line int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return &diagnostics.Error{Code: diagnostics.ErrG001, Line: line, Message: msg}
}
