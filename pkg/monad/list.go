package monad

import (
	"fmt"

	"github.com/internetimagery/donot/pkg/object"
)

// List is the nondeterminism monad: every operation applies to each
// element, and flat_map concatenates the per-element lists.
type List struct {
	Elements []object.Object
}

// NewList builds a list over the given elements.
func NewList(elements ...object.Object) *List {
	return &List{Elements: elements}
}

func (l *List) Type() object.ObjectType { return "LIST_MONAD" }

func (l *List) Inspect() string {
	out := "list("
	for i, el := range l.Elements {
		if i > 0 {
			out += ", "
		}
		out += el.Inspect()
	}
	return out + ")"
}

func (l *List) Map(fn func(object.Object) object.Object) object.Object {
	out := make([]object.Object, len(l.Elements))
	for i, el := range l.Elements {
		out[i] = fn(el)
	}
	return &List{Elements: out}
}

func (l *List) FlatMap(fn func(object.Object) object.Object) object.Object {
	var out []object.Object
	for _, el := range l.Elements {
		res := fn(el)
		inner, ok := res.(*List)
		if !ok {
			panic(fmt.Errorf("list flat_map callback produced %s, want a list", res.Inspect()))
		}
		out = append(out, inner.Elements...)
	}
	return &List{Elements: out}
}

func (l *List) Filter(fn func(object.Object) object.Object) object.Object {
	var out []object.Object
	for _, el := range l.Elements {
		if object.IsTruthy(fn(el)) {
			out = append(out, el)
		}
	}
	return &List{Elements: out}
}

func (l *List) Equal(other object.Object) bool {
	o, ok := other.(*List)
	if !ok || len(l.Elements) != len(o.Elements) {
		return false
	}
	for i, el := range l.Elements {
		if !object.Equals(el, o.Elements[i]) {
			return false
		}
	}
	return true
}
