package vm

import (
	"strings"
	"testing"

	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/pkg/object"
)

func runChunk(t *testing.T, c *Chunk) object.Object {
	t.Helper()
	machine := New(nil, nil)
	result, err := machine.RunChunk(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		build func(c *Chunk)
		want  object.Object
	}{
		{
			"integer add",
			func(c *Chunk) {
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 2}), 1)
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 3}), 1)
				c.WriteOp(OpAdd, 1)
			},
			&object.Integer{Value: 5},
		},
		{
			"mixed promotion",
			func(c *Chunk) {
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 1}), 1)
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Float{Value: 0.5}), 1)
				c.WriteOp(OpAdd, 1)
			},
			&object.Float{Value: 1.5},
		},
		{
			"float modulo",
			func(c *Chunk) {
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Float{Value: 7.5}), 1)
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 2}), 1)
				c.WriteOp(OpMod, 1)
			},
			&object.Float{Value: 1.5},
		},
		{
			"string concat",
			func(c *Chunk) {
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.String{Value: "a"}), 1)
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.String{Value: "b"}), 1)
				c.WriteOp(OpAdd, 1)
			},
			&object.String{Value: "ab"},
		},
		{
			"comparison",
			func(c *Chunk) {
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 2}), 1)
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 3}), 1)
				c.WriteOp(OpLt, 1)
			},
			object.TRUE,
		},
		{
			"negate and not",
			func(c *Chunk) {
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: 4}), 1)
				c.WriteOp(OpNeg, 1)
				c.WriteOp(OpConst, 1)
				c.WriteU16(c.AddConstant(&object.Integer{Value: -4}), 1)
				c.WriteOp(OpEq, 1)
				c.WriteOp(OpNot, 1)
			},
			object.FALSE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChunk("<test>")
			tt.build(c)
			c.WriteOp(OpReturn, 1)
			got := runChunk(t, c)
			if !object.Equals(got, tt.want) {
				t.Errorf("result = %s, want %s", got.Inspect(), tt.want.Inspect())
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	c := NewChunk("<test>")
	c.WriteOp(OpConst, 3)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 1}), 3)
	c.WriteOp(OpConst, 3)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 0}), 3)
	c.WriteOp(OpDiv, 3)
	c.WriteOp(OpReturn, 3)

	machine := New(nil, nil)
	_, err := machine.RunChunk(c)
	if diagnostics.CodeOf(err) != diagnostics.ErrR001 {
		t.Fatalf("err = %v, want %s", err, diagnostics.ErrR001)
	}
	var de *diagnostics.Error
	if !errorsAs(err, &de) || de.Line != 3 {
		t.Fatalf("err line = %v, want 3", err)
	}

	// Modulo by a zero float fails the same way.
	c2 := NewChunk("<test>")
	c2.WriteOp(OpConst, 1)
	c2.WriteU16(c2.AddConstant(&object.Float{Value: 1.5}), 1)
	c2.WriteOp(OpConst, 1)
	c2.WriteU16(c2.AddConstant(&object.Float{Value: 0}), 1)
	c2.WriteOp(OpMod, 1)
	c2.WriteOp(OpReturn, 1)
	if _, err := machine.RunChunk(c2); diagnostics.CodeOf(err) != diagnostics.ErrR001 {
		t.Fatalf("float mod zero err = %v, want %s", err, diagnostics.ErrR001)
	}
}

func errorsAs(err error, target **diagnostics.Error) bool {
	de, ok := err.(*diagnostics.Error)
	if ok {
		*target = de
	}
	return ok
}

func TestForwardJumps(t *testing.T) {
	// false ? 1 : 2 via JUMP_IF_FALSE / JUMP.
	c := NewChunk("<test>")
	c.WriteOp(OpFalse, 1)
	c.WriteOp(OpJumpIfFalse, 1)
	elseJump := c.Len()
	c.WriteU16(0xFFFF, 1)
	c.WriteOp(OpConst, 1)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 1}), 1)
	c.WriteOp(OpJump, 1)
	endJump := c.Len()
	c.WriteU16(0xFFFF, 1)
	patch(c, elseJump)
	c.WriteOp(OpConst, 1)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 2}), 1)
	patch(c, endJump)
	c.WriteOp(OpReturn, 1)

	got := runChunk(t, c)
	if !object.Equals(got, &object.Integer{Value: 2}) {
		t.Errorf("result = %s, want 2", got.Inspect())
	}
}

func patch(c *Chunk, operand int) {
	dist := c.Len() - (operand + 2)
	c.Code[operand] = byte(dist >> 8)
	c.Code[operand+1] = byte(dist)
}

func TestUnpackOrder(t *testing.T) {
	// Destructuring (10, 20) must bind the first element first.
	c := NewChunk("<test>")
	c.VarNames = []string{"a", "b"}
	c.WriteOp(OpConst, 1)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 10}), 1)
	c.WriteOp(OpConst, 1)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 20}), 1)
	c.WriteOp(OpMakeTuple, 1)
	c.Write(2, 1)
	c.WriteOp(OpUnpack, 1)
	c.Write(2, 1)
	c.WriteOp(OpSetLocal, 1)
	c.Write(0, 1)
	c.WriteOp(OpSetLocal, 1)
	c.Write(1, 1)
	c.WriteOp(OpGetLocal, 1)
	c.Write(0, 1)
	c.WriteOp(OpReturn, 1)

	got := runChunk(t, c)
	if !object.Equals(got, &object.Integer{Value: 10}) {
		t.Errorf("first bound local = %s, want 10", got.Inspect())
	}
}

func TestGlobalsAndCalls(t *testing.T) {
	double := &object.Builtin{
		Name: "double",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return object.Errorf("double expects 1 argument")
			}
			n := args[0].(*object.Integer)
			return &object.Integer{Value: n.Value * 2}
		},
	}

	c := NewChunk("<test>")
	c.WriteOp(OpGetGlobal, 1)
	c.WriteU16(c.AddConstant(&object.String{Value: "double"}), 1)
	c.WriteOp(OpConst, 1)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 21}), 1)
	c.WriteOp(OpCall, 1)
	c.Write(1, 1)
	c.WriteOp(OpReturn, 1)

	machine := New(map[string]object.Object{"double": double}, nil)
	got, err := machine.RunChunk(c)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !object.Equals(got, &object.Integer{Value: 42}) {
		t.Errorf("result = %s, want 42", got.Inspect())
	}

	// Unknown global.
	c2 := NewChunk("<test>")
	c2.WriteOp(OpGetGlobal, 1)
	c2.WriteU16(c2.AddConstant(&object.String{Value: "missing"}), 1)
	c2.WriteOp(OpReturn, 1)
	if _, err := machine.RunChunk(c2); diagnostics.CodeOf(err) != diagnostics.ErrR001 {
		t.Errorf("unknown global err = %v, want %s", err, diagnostics.ErrR001)
	}
}

func TestClosureDefaults(t *testing.T) {
	// Unit computing .0 + captured.
	unit := &Unit{
		Name:       "<test.unit>",
		Params:     []string{".0", "captured"},
		LocalNames: []string{".0", "captured"},
		Chunk:      NewChunk("<test>"),
	}
	unit.Chunk.WriteOp(OpGetLocal, 1)
	unit.Chunk.Write(0, 1)
	unit.Chunk.WriteOp(OpGetLocal, 1)
	unit.Chunk.Write(1, 1)
	unit.Chunk.WriteOp(OpAdd, 1)
	unit.Chunk.WriteOp(OpReturn, 1)

	machine := New(nil, nil)
	cl := machine.NewClosure(unit, []object.Object{&object.Integer{Value: 40}})
	got, err := Call(cl, &object.Integer{Value: 2})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !object.Equals(got, &object.Integer{Value: 42}) {
		t.Errorf("result = %s, want 42", got.Inspect())
	}
}

func TestDispatchUnwindsCallbackErrors(t *testing.T) {
	// Unit that fails at runtime: nil + 1.
	unit := &Unit{
		Name:       "<test.bad>",
		Params:     []string{".0"},
		LocalNames: []string{".0"},
		Chunk:      NewChunk("<test>"),
	}
	unit.Chunk.WriteOp(OpNil, 1)
	unit.Chunk.WriteOp(OpConst, 1)
	unit.Chunk.WriteU16(unit.Chunk.AddConstant(&object.Integer{Value: 1}), 1)
	unit.Chunk.WriteOp(OpAdd, 1)
	unit.Chunk.WriteOp(OpReturn, 1)

	handler := func(op string, value object.Object, fn func(object.Object) object.Object) (object.Object, error) {
		return fn(value), nil
	}
	machine := New(nil, handler)
	cl := machine.NewClosure(unit, nil)

	_, err := dispatch(handler, OpNameMap, &object.Integer{Value: 1}, cl)
	if diagnostics.CodeOf(err) != diagnostics.ErrR001 {
		t.Fatalf("err = %v, want %s", err, diagnostics.ErrR001)
	}
}

func TestDispatchRepanicsForeignPanics(t *testing.T) {
	handler := func(op string, value object.Object, fn func(object.Object) object.Object) (object.Object, error) {
		panic("domain failure")
	}
	defer func() {
		if r := recover(); r != "domain failure" {
			t.Fatalf("recovered %v, want the handler's panic", r)
		}
	}()
	dispatch(handler, OpNameMap, object.NIL, nil)
	t.Fatal("dispatch did not propagate the panic")
}

func TestDisassemble(t *testing.T) {
	c := NewChunk("<test>")
	c.VarNames = []string{".0"}
	c.WriteOp(OpGetLocal, 1)
	c.Write(0, 1)
	c.WriteOp(OpConst, 1)
	c.WriteU16(c.AddConstant(&object.Integer{Value: 7}), 1)
	c.WriteOp(OpAdd, 1)
	c.WriteOp(OpReturn, 1)

	out := Disassemble(c, "<main>")
	for _, want := range []string{"== <main> ==", "GET_LOCAL", "(.0)", "CONST", "'7'", "ADD", "RETURN"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}
