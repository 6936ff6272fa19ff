package compile

import (
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/vm"
)

// ParseChain recovers the clause structure from a canonical body
// chunk. The stream must follow the grammar
//
//	chain  = prologue bind* segment
//	segment = guard segment
//	        | source GET_ITER prologue bind* segment
//	        | result YIELD
//
// where a guard is an expression terminated by a conditional backward
// jump whose target resolves to a binding-clause prologue.
func ParseChain(body *vm.Chunk) (*Inputs, error) {
	p := &chainParser{chunk: body, cur: vm.NewCursor(body)}

	in, err := p.parsePrologue(true)
	if err != nil {
		return nil, err
	}
	return in, nil
}

type chainParser struct {
	chunk *vm.Chunk
	cur   *vm.Cursor
}

// parsePrologue consumes the binding-clause prologue and its bind
// instructions. The first clause reads the incoming value; nested
// clauses resume right after a GET_ITER.
func (p *chainParser) parsePrologue(first bool) (*Inputs, error) {
	if first {
		in, ok := p.cur.Next()
		if !ok || in.Op != vm.OpGetLocal || in.Arg != 0 {
			return nil, diagnostics.Newf(diagnostics.ErrS001,
				"stream does not begin with the incoming-value load")
		}
	}
	next, ok := p.cur.Next()
	if !ok || next.Op != vm.OpIterNext {
		return nil, diagnostics.Newf(diagnostics.ErrS001,
			"binding clause lacks its element-request prologue")
	}

	inputs := &Inputs{}
	inputs.Bind.Start = p.cur.Pos()
	for {
		pos := p.cur.Pos()
		in, ok := p.cur.Next()
		if !ok {
			return nil, diagnostics.Newf(diagnostics.ErrS003,
				"stream ended inside a binding clause")
		}
		switch in.Op {
		case vm.OpSetLocal:
			inputs.Names = append(inputs.Names, p.chunk.VarNames[in.Arg])
		case vm.OpUnpack:
			// Part of a destructuring pattern; names come from the
			// stores that follow.
		default:
			inputs.Bind.End = pos
			p.cur.Reset(pos)
			node, err := p.parseSegment()
			if err != nil {
				return nil, err
			}
			inputs.Next = node
			return inputs, nil
		}
	}
}

// parseSegment consumes one expression segment and classifies it by
// its terminator: a backward conditional jump makes it a guard, a
// GET_ITER makes it a nested source, a YIELD makes it the result.
func (p *chainParser) parseSegment() (Node, error) {
	start := p.cur.Pos()
	for {
		pos := p.cur.Pos()
		in, ok := p.cur.Next()
		if !ok {
			return nil, diagnostics.Newf(diagnostics.ErrS003,
				"stream ended before the result expression")
		}
		switch {
		case vm.IsBackwardJump(in.Op):
			if !p.targetsPrologue(in.Next - in.Arg) {
				return nil, diagnostics.Newf(diagnostics.ErrS002,
					"backward jump at %d does not return to a binding clause", pos)
			}
			next, err := p.parseSegment()
			if err != nil {
				return nil, err
			}
			return &Guard{
				Cond:   Span{Start: start, End: pos},
				Negate: in.Op == vm.OpLoopIfTrue,
				Next:   next,
			}, nil

		case in.Op == vm.OpGetIter:
			nested, err := p.parsePrologue(false)
			if err != nil {
				return nil, err
			}
			return &FlatMapExpr{
				Expr: Span{Start: start, End: pos},
				Next: nested,
			}, nil

		case in.Op == vm.OpYield:
			if p.cur.Pos() != p.chunk.Len() {
				return nil, diagnostics.Newf(diagnostics.ErrS002,
					"instructions remain after the result expression")
			}
			return &MapExpr{Expr: Span{Start: start, End: pos}}, nil

		case in.Op == vm.OpIterNext:
			return nil, diagnostics.Newf(diagnostics.ErrS002,
				"element request at %d outside a binding clause", pos)
		}
	}
}

// targetsPrologue resolves offset through unconditional jump chains
// and reports whether it lands on an element-request prologue.
func (p *chainParser) targetsPrologue(offset int) bool {
	for hops := 0; hops < 64; hops++ {
		if offset < 0 || offset >= p.chunk.Len() {
			return false
		}
		in := vm.DecodeAt(p.chunk, offset)
		if in.Op == vm.OpJump {
			offset = in.Next + in.Arg
			continue
		}
		return in.Op == vm.OpIterNext
	}
	return false
}
