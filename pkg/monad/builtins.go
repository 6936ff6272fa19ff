package monad

import (
	"github.com/internetimagery/donot/pkg/object"
)

// Builtins returns the constructor functions expressions can call to
// build monadic values without leaving the source text.
func Builtins() map[string]object.Object {
	return map[string]object.Object{
		"just": &object.Builtin{
			Name: "just",
			Fn: func(args ...object.Object) object.Object {
				if len(args) != 1 {
					return object.Errorf("just expects 1 argument, got %d", len(args))
				}
				return Just(args[0])
			},
		},
		"nothing": &object.Builtin{
			Name: "nothing",
			Fn: func(args ...object.Object) object.Object {
				if len(args) != 0 {
					return object.Errorf("nothing expects no arguments, got %d", len(args))
				}
				return Nothing()
			},
		},
		"ok": &object.Builtin{
			Name: "ok",
			Fn: func(args ...object.Object) object.Object {
				if len(args) != 1 {
					return object.Errorf("ok expects 1 argument, got %d", len(args))
				}
				return Ok(args[0])
			},
		},
		"fail": &object.Builtin{
			Name: "fail",
			Fn: func(args ...object.Object) object.Object {
				if len(args) != 1 {
					return object.Errorf("fail expects 1 argument, got %d", len(args))
				}
				return Fail(args[0])
			},
		},
		"list": &object.Builtin{
			Name: "list",
			Fn: func(args ...object.Object) object.Object {
				return NewList(args...)
			},
		},
		"ask": &object.Builtin{
			Name: "ask",
			Fn: func(args ...object.Object) object.Object {
				if len(args) != 0 {
					return object.Errorf("ask expects no arguments, got %d", len(args))
				}
				return Ask()
			},
		},
	}
}
