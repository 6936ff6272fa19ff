package monad

import (
	"testing"

	"github.com/internetimagery/donot/pkg/object"
)

func integer(v int64) object.Object { return &object.Integer{Value: v} }

func addOne(v object.Object) object.Object {
	return integer(v.(*object.Integer).Value + 1)
}

func TestMaybe(t *testing.T) {
	got := Just(integer(1)).Map(addOne)
	if !object.Equals(got, Just(integer(2))) {
		t.Errorf("map = %s, want Just(2)", got.Inspect())
	}

	got = Just(integer(1)).FlatMap(func(v object.Object) object.Object {
		return Just(addOne(v))
	})
	if !object.Equals(got, Just(integer(2))) {
		t.Errorf("flat_map = %s, want Just(2)", got.Inspect())
	}

	got = Nothing().Map(func(object.Object) object.Object {
		t.Fatal("map callback ran on Nothing")
		return nil
	})
	if !object.Equals(got, Nothing()) {
		t.Errorf("map on Nothing = %s", got.Inspect())
	}

	keep := Just(integer(5)).Filter(func(v object.Object) object.Object {
		return object.FromBool(v.(*object.Integer).Value > 3)
	})
	if !object.Equals(keep, Just(integer(5))) {
		t.Errorf("passing filter = %s, want Just(5)", keep.Inspect())
	}
	drop := Just(integer(1)).Filter(func(v object.Object) object.Object {
		return object.FromBool(v.(*object.Integer).Value > 3)
	})
	if !object.Equals(drop, Nothing()) {
		t.Errorf("failing filter = %s, want Nothing", drop.Inspect())
	}
}

func TestResult(t *testing.T) {
	got := Ok(integer(1)).Map(addOne)
	if !object.Equals(got, Ok(integer(2))) {
		t.Errorf("map = %s, want Ok(2)", got.Inspect())
	}

	cause := &object.String{Value: "boom"}
	got = Fail(cause).Map(func(object.Object) object.Object {
		t.Fatal("map callback ran on Fail")
		return nil
	})
	if !object.Equals(got, Fail(cause)) {
		t.Errorf("map on Fail = %s", got.Inspect())
	}

	got = Ok(integer(1)).FlatMap(func(v object.Object) object.Object {
		return Fail(cause)
	})
	if !object.Equals(got, Fail(cause)) {
		t.Errorf("flat_map to Fail = %s", got.Inspect())
	}
}

func TestListMonad(t *testing.T) {
	doubled := NewList(integer(1), integer(2)).Map(func(v object.Object) object.Object {
		return integer(v.(*object.Integer).Value * 2)
	})
	if !object.Equals(doubled, NewList(integer(2), integer(4))) {
		t.Errorf("map = %s", doubled.Inspect())
	}

	crossed := NewList(integer(1), integer(2)).FlatMap(func(v object.Object) object.Object {
		n := v.(*object.Integer).Value
		return NewList(integer(n*10), integer(n*10+1))
	})
	if !object.Equals(crossed, NewList(integer(10), integer(11), integer(20), integer(21))) {
		t.Errorf("flat_map = %s", crossed.Inspect())
	}

	evens := NewList(integer(1), integer(2), integer(3), integer(4)).Filter(func(v object.Object) object.Object {
		return object.FromBool(v.(*object.Integer).Value%2 == 0)
	})
	if !object.Equals(evens, NewList(integer(2), integer(4))) {
		t.Errorf("filter = %s", evens.Inspect())
	}
}

func TestListFlatMapRequiresLists(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("flat_map to a non-list did not panic")
		}
	}()
	NewList(integer(1)).FlatMap(func(v object.Object) object.Object {
		return integer(1)
	})
}

func TestReader(t *testing.T) {
	doubledEnv := Ask().Map(func(v object.Object) object.Object {
		return integer(v.(*object.Integer).Value * 2)
	}).(*Reader)
	if got := doubledEnv.Run(integer(21)); !object.Equals(got, integer(42)) {
		t.Errorf("run = %s, want 42", got.Inspect())
	}

	// Both reads see the same environment.
	both := Ask().FlatMap(func(a object.Object) object.Object {
		return Ask().Map(func(b object.Object) object.Object {
			return &object.Tuple{Elements: []object.Object{a, b}}
		})
	}).(*Reader)
	got := both.Run(integer(7))
	want := &object.Tuple{Elements: []object.Object{integer(7), integer(7)}}
	if !object.Equals(got, want) {
		t.Errorf("run = %s, want %s", got.Inspect(), want.Inspect())
	}
}

func TestBuiltins(t *testing.T) {
	builtins := Builtins()
	for _, name := range []string{"just", "nothing", "ok", "fail", "list", "ask"} {
		if _, ok := builtins[name]; !ok {
			t.Errorf("builtin %q missing", name)
		}
	}

	just := builtins["just"].(*object.Builtin)
	if got := just.Fn(integer(1)); !object.Equals(got, Just(integer(1))) {
		t.Errorf("just(1) = %s", got.Inspect())
	}
	if got := just.Fn(); got.Type() != object.ERROR_OBJ {
		t.Errorf("just() = %s, want arity error", got.Inspect())
	}
}
