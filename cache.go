package donot

import (
	"sync"
	"sync/atomic"

	"github.com/internetimagery/donot/internal/compile"
	"github.com/internetimagery/donot/internal/vm"
)

// unitCache maps Expr handles to their generated top-level unit.
// Entries are immutable; concurrent compiles of the same handle race
// benignly and the first stored entry wins.
var unitCache sync.Map

// parseCache memoizes Parse by source text for Eval. Failed parses are
// not stored.
var parseCache sync.Map

// compiles counts chain-parse + generate runs, for tests asserting
// that repeated evaluation does not recompile.
var compiles atomic.Int64

func compiled(expr *Expr) (*vm.Unit, error) {
	if cached, ok := unitCache.Load(expr.id); ok {
		return cached.(*vm.Unit), nil
	}
	chain, err := compile.ParseChain(expr.body)
	if err != nil {
		return nil, err
	}
	unit, err := compile.Generate(chain, expr.body)
	if err != nil {
		return nil, err
	}
	compiles.Add(1)
	stored, _ := unitCache.LoadOrStore(expr.id, unit)
	return stored.(*vm.Unit), nil
}

func parseCached(src string) (*Expr, error) {
	if cached, ok := parseCache.Load(src); ok {
		return cached.(*Expr), nil
	}
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	stored, _ := parseCache.LoadOrStore(src, expr)
	return stored.(*Expr), nil
}
