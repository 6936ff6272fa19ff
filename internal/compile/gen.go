package compile

import (
	"fmt"

	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/vm"
	"github.com/internetimagery/donot/pkg/object"
)

// Generate rewrites a structural chain into executable units. Every
// binding level becomes one callback unit (flat_map for inner levels,
// map for the last) plus one filter unit per guard; the returned root
// unit takes the materialized first source and wires the levels
// together through capability dispatch.
//
// Names read by a level but bound by an enclosing one travel as
// default parameters: each closure captures them from its parent's
// locals at creation time.
func Generate(chain *Inputs, body *vm.Chunk) (*vm.Unit, error) {
	g := &generator{body: body}
	lp, err := g.buildLevel(chain)
	if err != nil {
		return nil, err
	}
	if len(lp.frees) > 0 {
		return nil, diagnostics.Newf(diagnostics.ErrG001,
			"unresolved names %v at the outermost level", lp.frees)
	}

	line := 0
	if len(body.Lines) > 0 {
		line = body.Lines[0]
	}
	root := vm.NewChunk(body.File)
	root.VarNames = []string{".0"}
	root.WriteOp(vm.OpGetLocal, line)
	root.Write(0, line)
	if err := g.emitParts(root, lp, line); err != nil {
		return nil, err
	}
	root.WriteOp(vm.OpReturn, line)

	return &vm.Unit{
		Name:       "<do>",
		Params:     []string{".0"},
		LocalNames: root.VarNames,
		Chunk:      root,
	}, nil
}

type generator struct {
	body *vm.Chunk
	seq  int
}

// levelParts holds the generated artifacts for one binding level.
type levelParts struct {
	filters     []*vm.Unit
	filterFrees [][]string

	op        string // flat_map or map
	unit      *vm.Unit
	unitFrees []string

	line  int
	frees []string // names this level needs from its parent
}

func (g *generator) buildLevel(in *Inputs) (*levelParts, error) {
	var guards []*Guard
	node := in.Next
	for {
		gd, ok := node.(*Guard)
		if !ok {
			break
		}
		guards = append(guards, gd)
		node = gd.Next
	}

	lp := &levelParts{}

	switch term := node.(type) {
	case *MapExpr:
		lp.op = vm.OpNameMap
		lp.line = g.lineAt(term.Expr)
		lp.unitFrees = subtract(g.readsOf(term.Expr), in.Names)
		unit, err := g.makeUnit(vm.OpNameMap, lp.unitFrees, in, func(dst *vm.Chunk) error {
			if err := g.copySpan(dst, term.Expr); err != nil {
				return err
			}
			dst.WriteOp(vm.OpReturn, g.lineAt(term.Expr))
			return nil
		})
		if err != nil {
			return nil, err
		}
		lp.unit = unit

	case *FlatMapExpr:
		child, err := g.buildLevel(term.Next)
		if err != nil {
			return nil, err
		}
		lp.op = vm.OpNameFlatMap
		lp.line = g.lineAt(term.Expr)
		lp.unitFrees = subtract(union(g.readsOf(term.Expr), child.frees), in.Names)
		unit, err := g.makeUnit(vm.OpNameFlatMap, lp.unitFrees, in, func(dst *vm.Chunk) error {
			if err := g.copySpan(dst, term.Expr); err != nil {
				return err
			}
			if err := g.emitParts(dst, child, child.line); err != nil {
				return err
			}
			dst.WriteOp(vm.OpReturn, g.lineAt(term.Expr))
			return nil
		})
		if err != nil {
			return nil, err
		}
		lp.unit = unit

	default:
		return nil, diagnostics.Newf(diagnostics.ErrG001,
			"binding clause is not followed by a source or result")
	}

	for _, gd := range guards {
		frees := subtract(g.readsOf(gd.Cond), in.Names)
		negate := gd.Negate
		cond := gd.Cond
		unit, err := g.makeUnit(vm.OpNameFilter, frees, in, func(dst *vm.Chunk) error {
			if err := g.copySpan(dst, cond); err != nil {
				return err
			}
			if negate {
				dst.WriteOp(vm.OpNot, g.lineAt(cond))
			}
			dst.WriteOp(vm.OpReturn, g.lineAt(cond))
			return nil
		})
		if err != nil {
			return nil, err
		}
		lp.filters = append(lp.filters, unit)
		lp.filterFrees = append(lp.filterFrees, frees)
		lp.frees = union(lp.frees, frees)
	}

	lp.frees = union(lp.frees, lp.unitFrees)
	return lp, nil
}

// makeUnit builds one callback unit: parameter layout ".0" plus the
// captured frees, then the level's pattern binding, then the body
// supplied by emit.
func (g *generator) makeUnit(kind string, frees []string, in *Inputs, emit func(*vm.Chunk) error) (*vm.Unit, error) {
	g.seq++
	name := fmt.Sprintf("<do.%s.%d>", kind, g.seq)

	chunk := vm.NewChunk(g.body.File)
	chunk.VarNames = append([]string{".0"}, frees...)

	line := g.lineAt(in.Bind)
	chunk.WriteOp(vm.OpGetLocal, line)
	chunk.Write(0, line)
	if err := g.copySpan(chunk, in.Bind); err != nil {
		return nil, err
	}
	if err := emit(chunk); err != nil {
		return nil, err
	}

	return &vm.Unit{
		Name:       name,
		Params:     append([]string{".0"}, frees...),
		LocalNames: chunk.VarNames,
		Chunk:      chunk,
	}, nil
}

// emitParts wires one level's dispatch sequence. The level's monadic
// source must be on top of the stack; filters run before the binding
// operation, each capturing its free names from dst's locals.
func (g *generator) emitParts(dst *vm.Chunk, lp *levelParts, line int) error {
	for i, filter := range lp.filters {
		if err := g.emitDispatch(dst, filter, lp.filterFrees[i], vm.OpNameFilter, line); err != nil {
			return err
		}
	}
	return g.emitDispatch(dst, lp.unit, lp.unitFrees, lp.op, line)
}

func (g *generator) emitDispatch(dst *vm.Chunk, unit *vm.Unit, frees []string, op string, line int) error {
	for _, name := range frees {
		slot := dst.SlotOf(name)
		if slot < 0 {
			return diagnostics.Newf(diagnostics.ErrG001,
				"captured name %q has no slot in %s", name, unit.Name)
		}
		dst.WriteOp(vm.OpGetLocal, line)
		dst.Write(byte(slot), line)
	}
	unitIdx := dst.AddConstant(unit)
	dst.WriteOp(vm.OpClosure, line)
	dst.WriteU16(unitIdx, line)
	dst.Write(byte(len(frees)), line)

	opIdx := dst.AddConstant(&object.String{Value: op})
	dst.WriteOp(vm.OpDispatch, line)
	dst.WriteU16(opIdx, line)
	return nil
}

// copySpan transplants body instructions into dst, renumbering local
// slots by name, re-pooling constants and keeping relative jumps
// as-is. Jumps must land inside the span.
func (g *generator) copySpan(dst *vm.Chunk, span Span) error {
	cur := vm.NewCursor(g.body)
	cur.Reset(span.Start)
	for cur.Pos() < span.End {
		in, ok := cur.Next()
		if !ok {
			return diagnostics.Newf(diagnostics.ErrG001,
				"span [%d,%d) runs past the end of the stream", span.Start, span.End)
		}
		line := g.body.Lines[in.Offset]

		switch in.Op {
		case vm.OpGetLocal, vm.OpSetLocal:
			name := g.body.VarNames[in.Arg]
			slot := g.defineIn(dst, name)
			dst.WriteOp(in.Op, line)
			dst.Write(byte(slot), line)

		case vm.OpConst, vm.OpGetGlobal:
			idx := dst.AddConstant(g.body.Constants[in.Arg])
			dst.WriteOp(in.Op, line)
			dst.WriteU16(idx, line)

		case vm.OpJump, vm.OpJumpIfFalse, vm.OpJumpIfTrue:
			if in.Next+in.Arg > span.End {
				return diagnostics.Newf(diagnostics.ErrG001,
					"jump at %d escapes its expression", in.Offset)
			}
			dst.WriteOp(in.Op, line)
			dst.WriteU16(in.Arg, line)

		case vm.OpLoopIfFalse, vm.OpLoopIfTrue,
			vm.OpGetIter, vm.OpIterNext, vm.OpYield:
			return diagnostics.Newf(diagnostics.ErrG001,
				"marker %s inside an expression span", vm.OpcodeNames[in.Op])

		default:
			dst.WriteOp(in.Op, line)
			for off := in.Offset + 1; off < in.Next; off++ {
				dst.Write(g.body.Code[off], line)
			}
		}
	}
	return nil
}

func (g *generator) defineIn(dst *vm.Chunk, name string) int {
	if slot := dst.SlotOf(name); slot >= 0 {
		return slot
	}
	dst.VarNames = append(dst.VarNames, name)
	return len(dst.VarNames) - 1
}

// readsOf collects the local names a span reads, in first-use order.
func (g *generator) readsOf(span Span) []string {
	var names []string
	cur := vm.NewCursor(g.body)
	cur.Reset(span.Start)
	for cur.Pos() < span.End {
		in, ok := cur.Next()
		if !ok {
			break
		}
		if in.Op != vm.OpGetLocal {
			continue
		}
		name := g.body.VarNames[in.Arg]
		if name == ".0" || contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (g *generator) lineAt(span Span) int {
	if span.Start < len(g.body.Lines) {
		return g.body.Lines[span.Start]
	}
	return 0
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, n := range b {
		if !contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func subtract(names, bound []string) []string {
	var out []string
	for _, n := range names {
		if !contains(bound, n) {
			out = append(out, n)
		}
	}
	return out
}
