package monad

import (
	"github.com/internetimagery/donot/pkg/object"
)

// Result carries a value or the reason there is none. It deliberately
// has no Filter: a guard over a Result has no failure value to invent.
type Result struct {
	value object.Object
	cause object.Object
	ok    bool
}

// Ok wraps a successful value.
func Ok(v object.Object) *Result { return &Result{value: v, ok: true} }

// Fail wraps a failure cause.
func Fail(cause object.Object) *Result { return &Result{cause: cause} }

func (r *Result) Type() object.ObjectType { return "RESULT" }

func (r *Result) Inspect() string {
	if !r.ok {
		return "Fail(" + r.cause.Inspect() + ")"
	}
	return "Ok(" + r.value.Inspect() + ")"
}

// Get returns the value and whether the result succeeded.
func (r *Result) Get() (object.Object, bool) { return r.value, r.ok }

// Cause returns the failure cause, nil on success.
func (r *Result) Cause() object.Object {
	if r.ok {
		return nil
	}
	return r.cause
}

func (r *Result) Map(fn func(object.Object) object.Object) object.Object {
	if !r.ok {
		return r
	}
	return Ok(fn(r.value))
}

func (r *Result) FlatMap(fn func(object.Object) object.Object) object.Object {
	if !r.ok {
		return r
	}
	return fn(r.value)
}

func (r *Result) Equal(other object.Object) bool {
	o, ok := other.(*Result)
	if !ok {
		return false
	}
	if r.ok != o.ok {
		return false
	}
	if r.ok {
		return object.Equals(r.value, o.value)
	}
	return object.Equals(r.cause, o.cause)
}
