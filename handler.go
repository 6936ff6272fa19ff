package donot

import (
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/vm"
	"github.com/internetimagery/donot/pkg/object"
)

// FlatMapper is the one capability every monadic value must expose.
type FlatMapper interface {
	FlatMap(fn func(object.Object) object.Object) object.Object
}

// Mapper lets a value service the final-result rewrite directly.
type Mapper interface {
	Map(fn func(object.Object) object.Object) object.Object
}

// Filterer lets a value service guard clauses. Values without it
// reject expressions containing guards.
type Filterer interface {
	Filter(fn func(object.Object) object.Object) object.Object
}

// Handler services one rewritten operation. op is "map", "flat_map" or
// "filter"; value is the monadic value the operation applies to; fn
// runs the compiled callback against one element.
type Handler = vm.DispatchFunc

// Option adjusts evaluation.
type Option func(*options)

type options struct {
	handler Handler
}

// WithHandler replaces the default capability dispatch.
func WithHandler(h Handler) Option {
	return func(o *options) { o.handler = h }
}

func buildOptions(opts []Option) *options {
	o := &options{handler: defaultHandler}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// defaultHandler routes operations through the value's capability
// interfaces. A value with no FlatMap at all is outside the protocol;
// a value inside the protocol that lacks the requested operation gets
// an error naming both.
func defaultHandler(op string, value object.Object, fn func(object.Object) object.Object) (object.Object, error) {
	switch op {
	case vm.OpNameFlatMap:
		if m, ok := value.(FlatMapper); ok {
			return m.FlatMap(fn), nil
		}
	case vm.OpNameMap:
		if m, ok := value.(Mapper); ok {
			return m.Map(fn), nil
		}
	case vm.OpNameFilter:
		if m, ok := value.(Filterer); ok {
			return m.Filter(fn), nil
		}
	default:
		return nil, diagnostics.Newf(diagnostics.ErrU003,
			"unknown operation %q", op)
	}

	if _, ok := value.(FlatMapper); !ok {
		return nil, diagnostics.Newf(diagnostics.ErrU002,
			"%s does not implement the monad protocol", value.Inspect())
	}
	return nil, diagnostics.Newf(diagnostics.ErrU003,
		"%s does not support %q", value.Inspect(), op)
}
