package compile

import (
	"github.com/internetimagery/donot/internal/ast"
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/vm"
	"github.com/internetimagery/donot/pkg/object"
)

// Lower flattens a comprehension into two chunks. The driver evaluates
// the first clause's source in the global environment. The body is the
// canonical loop form the chain parser consumes: an element-request
// prologue per binding clause, guard conditions terminated by backward
// jumps, and the result expression terminated by a yield marker.
func Lower(comp *ast.Comprehension, file string) (driver, body *vm.Chunk, err error) {
	first, ok := comp.Clauses[0].(*ast.ForClause)
	if !ok {
		return nil, nil, diagnostics.NewError(diagnostics.ErrP002,
			comp.Clauses[0].GetToken(), "expression must begin with a binding clause")
	}

	dl := &lowerer{chunk: vm.NewChunk(file)}
	if err := dl.compileExpr(first.Source); err != nil {
		return nil, nil, err
	}
	dl.chunk.WriteOp(vm.OpReturn, first.GetToken().Line)

	bl := &lowerer{chunk: vm.NewChunk(file), locals: true}
	bl.chunk.VarNames = []string{".0"}

	line := first.GetToken().Line
	bl.chunk.WriteOp(vm.OpGetLocal, line)
	bl.chunk.Write(0, line)
	loopTarget := bl.chunk.Len()
	bl.chunk.WriteOp(vm.OpIterNext, line)
	if err := bl.emitBinds(first.Pattern); err != nil {
		return nil, nil, err
	}

	for _, clause := range comp.Clauses[1:] {
		switch cl := clause.(type) {
		case *ast.IfClause:
			if err := bl.emitGuard(cl, loopTarget); err != nil {
				return nil, nil, err
			}
		case *ast.ForClause:
			if err := bl.compileExpr(cl.Source); err != nil {
				return nil, nil, err
			}
			cline := cl.GetToken().Line
			bl.chunk.WriteOp(vm.OpGetIter, cline)
			loopTarget = bl.chunk.Len()
			bl.chunk.WriteOp(vm.OpIterNext, cline)
			if err := bl.emitBinds(cl.Pattern); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := bl.compileExpr(comp.Result); err != nil {
		return nil, nil, err
	}
	bl.chunk.WriteOp(vm.OpYield, comp.Result.GetToken().Line)

	return dl.chunk, bl.chunk, nil
}

type lowerer struct {
	chunk  *vm.Chunk
	locals bool
}

// define returns the slot for name, creating one when the name has not
// been bound before. Rebinding an existing name reuses its slot, which
// gives later clauses shadowing semantics.
func (lw *lowerer) define(name string) int {
	if slot := lw.chunk.SlotOf(name); slot >= 0 {
		return slot
	}
	lw.chunk.VarNames = append(lw.chunk.VarNames, name)
	return len(lw.chunk.VarNames) - 1
}

// emitBinds stores the value on top of the stack into the pattern's
// names. Tuple patterns unpack first-element-on-top, so nested
// patterns consume the stack in declaration order.
func (lw *lowerer) emitBinds(pat ast.Pattern) error {
	line := pat.GetToken().Line
	switch p := pat.(type) {
	case *ast.IdentifierPattern:
		slot := lw.define(p.Value)
		lw.chunk.WriteOp(vm.OpSetLocal, line)
		lw.chunk.Write(byte(slot), line)
		return nil
	case *ast.TuplePattern:
		lw.chunk.WriteOp(vm.OpUnpack, line)
		lw.chunk.Write(byte(len(p.Elements)), line)
		for _, el := range p.Elements {
			if err := lw.emitBinds(el); err != nil {
				return err
			}
		}
		return nil
	}
	return diagnostics.NewError(diagnostics.ErrP003, pat.GetToken(),
		"unsupported binding pattern")
}

// emitGuard compiles a guard condition and the backward jump that
// requests the next element when the guard rejects. A top-level "!" is
// folded into the jump polarity.
func (lw *lowerer) emitGuard(cl *ast.IfClause, loopTarget int) error {
	cond := cl.Cond
	op := vm.OpLoopIfFalse
	if pre, ok := cond.(*ast.PrefixExpression); ok && pre.Operator == "!" {
		cond = pre.Right
		op = vm.OpLoopIfTrue
	}
	if err := lw.compileExpr(cond); err != nil {
		return err
	}
	line := cl.GetToken().Line
	lw.chunk.WriteOp(op, line)
	lw.chunk.WriteU16(lw.chunk.Len()+2-loopTarget, line)
	return nil
}

func (lw *lowerer) compileExpr(e ast.Expression) error {
	line := e.GetToken().Line
	switch expr := e.(type) {
	case *ast.IntegerLiteral:
		lw.emitConstant(&object.Integer{Value: expr.Value}, line)
	case *ast.FloatLiteral:
		lw.emitConstant(&object.Float{Value: expr.Value}, line)
	case *ast.StringLiteral:
		lw.emitConstant(&object.String{Value: expr.Value}, line)
	case *ast.BooleanLiteral:
		if expr.Value {
			lw.chunk.WriteOp(vm.OpTrue, line)
		} else {
			lw.chunk.WriteOp(vm.OpFalse, line)
		}
	case *ast.NilLiteral:
		lw.chunk.WriteOp(vm.OpNil, line)

	case *ast.Identifier:
		if lw.locals {
			if slot := lw.chunk.SlotOf(expr.Value); slot >= 0 {
				lw.chunk.WriteOp(vm.OpGetLocal, line)
				lw.chunk.Write(byte(slot), line)
				return nil
			}
		}
		idx := lw.chunk.AddConstant(&object.String{Value: expr.Value})
		lw.chunk.WriteOp(vm.OpGetGlobal, line)
		lw.chunk.WriteU16(idx, line)

	case *ast.TupleLiteral:
		for _, el := range expr.Elements {
			if err := lw.compileExpr(el); err != nil {
				return err
			}
		}
		lw.chunk.WriteOp(vm.OpMakeTuple, line)
		lw.chunk.Write(byte(len(expr.Elements)), line)
	case *ast.ListLiteral:
		for _, el := range expr.Elements {
			if err := lw.compileExpr(el); err != nil {
				return err
			}
		}
		lw.chunk.WriteOp(vm.OpMakeList, line)
		lw.chunk.Write(byte(len(expr.Elements)), line)

	case *ast.PrefixExpression:
		if err := lw.compileExpr(expr.Right); err != nil {
			return err
		}
		switch expr.Operator {
		case "-":
			lw.chunk.WriteOp(vm.OpNeg, line)
		case "!":
			lw.chunk.WriteOp(vm.OpNot, line)
		default:
			return diagnostics.NewError(diagnostics.ErrP001, expr.Token,
				"unknown prefix operator %q", expr.Operator)
		}

	case *ast.InfixExpression:
		if err := lw.compileExpr(expr.Left); err != nil {
			return err
		}
		if err := lw.compileExpr(expr.Right); err != nil {
			return err
		}
		op, ok := infixOps[expr.Operator]
		if !ok {
			return diagnostics.NewError(diagnostics.ErrP001, expr.Token,
				"unknown operator %q", expr.Operator)
		}
		lw.chunk.WriteOp(op, line)

	case *ast.CallExpression:
		if err := lw.compileExpr(expr.Function); err != nil {
			return err
		}
		for _, arg := range expr.Arguments {
			if err := lw.compileExpr(arg); err != nil {
				return err
			}
		}
		lw.chunk.WriteOp(vm.OpCall, line)
		lw.chunk.Write(byte(len(expr.Arguments)), line)

	case *ast.ConditionalExpression:
		if err := lw.compileExpr(expr.Cond); err != nil {
			return err
		}
		elseJump := lw.emitJump(vm.OpJumpIfFalse, line)
		if err := lw.compileExpr(expr.Then); err != nil {
			return err
		}
		endJump := lw.emitJump(vm.OpJump, line)
		lw.patchJump(elseJump)
		if err := lw.compileExpr(expr.Else); err != nil {
			return err
		}
		lw.patchJump(endJump)

	default:
		return diagnostics.NewError(diagnostics.ErrP001, e.GetToken(),
			"cannot compile expression %s", e.String())
	}
	return nil
}

var infixOps = map[string]vm.Opcode{
	"+":  vm.OpAdd,
	"-":  vm.OpSub,
	"*":  vm.OpMul,
	"/":  vm.OpDiv,
	"%":  vm.OpMod,
	"==": vm.OpEq,
	"!=": vm.OpNe,
	"<":  vm.OpLt,
	"<=": vm.OpLe,
	">":  vm.OpGt,
	">=": vm.OpGe,
	"&&": vm.OpAnd,
	"||": vm.OpOr,
}

func (lw *lowerer) emitConstant(v object.Object, line int) {
	idx := lw.chunk.AddConstant(v)
	lw.chunk.WriteOp(vm.OpConst, line)
	lw.chunk.WriteU16(idx, line)
}

// emitJump writes a forward jump with a placeholder operand and
// returns the operand offset for patching.
func (lw *lowerer) emitJump(op vm.Opcode, line int) int {
	lw.chunk.WriteOp(op, line)
	operand := lw.chunk.Len()
	lw.chunk.WriteU16(0xFFFF, line)
	return operand
}

// patchJump points the jump at operand to the current end of code.
func (lw *lowerer) patchJump(operand int) {
	dist := lw.chunk.Len() - (operand + 2)
	lw.chunk.Code[operand] = byte(dist >> 8)
	lw.chunk.Code[operand+1] = byte(dist)
}
