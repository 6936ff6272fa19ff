// Package monad provides ready-made monadic containers that speak the
// map/flat_map/filter capability protocol, plus the builtins that
// construct them from inside expressions.
package monad

import (
	"github.com/internetimagery/donot/pkg/object"
)

// Maybe carries either one value or nothing. Nothing absorbs every
// subsequent operation.
type Maybe struct {
	value object.Object
	ok    bool
}

// Just wraps a present value.
func Just(v object.Object) *Maybe { return &Maybe{value: v, ok: true} }

// Nothing is the absent value.
func Nothing() *Maybe { return &Maybe{} }

func (m *Maybe) Type() object.ObjectType { return "MAYBE" }

func (m *Maybe) Inspect() string {
	if !m.ok {
		return "Nothing"
	}
	return "Just(" + m.value.Inspect() + ")"
}

// Get returns the carried value and whether one is present.
func (m *Maybe) Get() (object.Object, bool) { return m.value, m.ok }

func (m *Maybe) Map(fn func(object.Object) object.Object) object.Object {
	if !m.ok {
		return m
	}
	return Just(fn(m.value))
}

func (m *Maybe) FlatMap(fn func(object.Object) object.Object) object.Object {
	if !m.ok {
		return m
	}
	return fn(m.value)
}

func (m *Maybe) Filter(fn func(object.Object) object.Object) object.Object {
	if !m.ok {
		return m
	}
	if object.IsTruthy(fn(m.value)) {
		return m
	}
	return Nothing()
}

func (m *Maybe) Equal(other object.Object) bool {
	o, ok := other.(*Maybe)
	if !ok {
		return false
	}
	if m.ok != o.ok {
		return false
	}
	return !m.ok || object.Equals(m.value, o.value)
}
