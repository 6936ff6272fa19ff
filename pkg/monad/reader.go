package monad

import (
	"github.com/internetimagery/donot/pkg/object"
)

// Reader defers to an environment supplied at the end: composing
// builds a bigger function, Run applies it. There is no Filter; a
// rejected reader has nothing meaningful to produce.
type Reader struct {
	run func(env object.Object) object.Object
}

// NewReader wraps a function of the environment.
func NewReader(run func(env object.Object) object.Object) *Reader {
	return &Reader{run: run}
}

// Ask is the reader that returns the environment itself.
func Ask() *Reader {
	return &Reader{run: func(env object.Object) object.Object { return env }}
}

func (r *Reader) Type() object.ObjectType { return "READER" }
func (r *Reader) Inspect() string         { return "<reader>" }

// Run applies the composed computation to env.
func (r *Reader) Run(env object.Object) object.Object {
	return r.run(env)
}

func (r *Reader) Map(fn func(object.Object) object.Object) object.Object {
	return &Reader{run: func(env object.Object) object.Object {
		return fn(r.run(env))
	}}
}

func (r *Reader) FlatMap(fn func(object.Object) object.Object) object.Object {
	return &Reader{run: func(env object.Object) object.Object {
		next := fn(r.run(env)).(*Reader)
		return next.run(env)
	}}
}
