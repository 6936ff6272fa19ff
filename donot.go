// Package donot rewrites comprehension expressions over monadic
// values into chains of map, flat_map and filter calls.
//
// An expression reads like a generator comprehension:
//
//	total, err := donot.Eval(
//		"x + y for x in just(1) for y in just(2)",
//		donot.Env{},
//	)
//
// The text is parsed once, lowered to a canonical instruction stream,
// and rewritten into independent callback units; evaluation drives the
// units through whichever capability interface the values expose.
package donot

import (
	"strings"

	"github.com/google/uuid"

	"github.com/internetimagery/donot/internal/compile"
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/lexer"
	"github.com/internetimagery/donot/internal/parser"
	"github.com/internetimagery/donot/internal/vm"
	"github.com/internetimagery/donot/pkg/monad"
	"github.com/internetimagery/donot/pkg/object"
)

// Env supplies the global names an expression may reference. The monad
// constructor builtins (just, nothing, ok, fail, list, ask) are always
// visible; Env entries shadow them.
type Env map[string]object.Object

// Expr is a parsed expression. The zero value is invalid; obtain one
// from Parse.
type Expr struct {
	id     uuid.UUID
	source string
	driver *vm.Chunk
	body   *vm.Chunk
}

// Source returns the expression text.
func (e *Expr) Source() string { return e.source }

// Parse lexes, parses and lowers src into an expression handle.
func Parse(src string) (*Expr, error) {
	p := parser.New(lexer.New(src))
	comp, err := p.ParseComprehension()
	if err != nil {
		return nil, err
	}
	driver, body, err := compile.Lower(comp, "<do>")
	if err != nil {
		return nil, err
	}
	return &Expr{
		id:     uuid.New(),
		source: src,
		driver: driver,
		body:   body,
	}, nil
}

// Do evaluates a parsed expression against env. The rewritten form is
// compiled on first use and cached for the lifetime of the process.
func Do(expr *Expr, env Env, opts ...Option) (object.Object, error) {
	if expr == nil || expr.body == nil {
		return nil, diagnostics.Newf(diagnostics.ErrU001,
			"not a parsed do-expression")
	}
	unit, err := compiled(expr)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	globals := mergeEnv(env)
	machine := vm.New(globals, o.handler)

	source, err := machine.RunChunk(expr.driver)
	if err != nil {
		return nil, err
	}
	return vm.Call(machine.NewClosure(unit, nil), source)
}

// Eval parses src (memoized by text) and evaluates it against env.
// Helpers that build the same expression repeatedly compile it once.
func Eval(src string, env Env, opts ...Option) (object.Object, error) {
	expr, err := parseCached(src)
	if err != nil {
		return nil, err
	}
	return Do(expr, env, opts...)
}

// Disassemble renders the expression's driver, lowered body and
// generated units as an instruction listing.
func Disassemble(expr *Expr) (string, error) {
	if expr == nil || expr.body == nil {
		return "", diagnostics.Newf(diagnostics.ErrU001,
			"not a parsed do-expression")
	}
	unit, err := compiled(expr)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(vm.Disassemble(expr.driver, "<driver>"))
	sb.WriteByte('\n')
	sb.WriteString(vm.Disassemble(expr.body, "<body>"))
	sb.WriteByte('\n')
	sb.WriteString(vm.Disassemble(unit.Chunk, unit.Name))
	return sb.String(), nil
}

func mergeEnv(env Env) map[string]object.Object {
	globals := monad.Builtins()
	for name, value := range env {
		globals[name] = value
	}
	return globals
}
