// Package compile turns a comprehension into executable units. It
// works in three steps: Lower flattens the AST into a driver chunk and
// a canonical body chunk, ParseChain recovers the clause structure
// from the body's instruction stream, and Generate rewrites the chain
// into independent map/flat_map/filter units.
package compile

// Span is a half-open byte range [Start, End) into the body chunk.
type Span struct {
	Start int
	End   int
}

// Node is one link in the structural chain recovered from the body.
type Node interface {
	node()
}

// Inputs is a binding clause: the prologue that requests the next
// element and binds it to the clause's pattern.
type Inputs struct {
	// Names are the pattern's bound names in binding order.
	Names []string

	// Bind covers the unpack/store instructions after the prologue.
	Bind Span

	// Next is the rest of the chain: guards, then either a nested
	// source or the final value.
	Next Node
}

// Guard is a filtering clause. Cond covers the condition expression;
// Negate is set when the stream keeps elements for which the
// condition is false.
type Guard struct {
	Cond   Span
	Negate bool
	Next   Node
}

// FlatMapExpr introduces a nested binding level: Expr covers the
// instructions producing the nested source value.
type FlatMapExpr struct {
	Expr Span
	Next *Inputs
}

// MapExpr terminates the chain: Expr covers the instructions
// producing the final yielded value.
type MapExpr struct {
	Expr Span
}

func (*Inputs) node()      {}
func (*Guard) node()       {}
func (*FlatMapExpr) node() {}
func (*MapExpr) node()     {}
