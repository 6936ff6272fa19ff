// Package object defines the runtime values that flow through compiled
// do-expressions: primitives, tuples, lists and host builtins. Monadic
// values participate by implementing Object alongside their capability
// methods.
package object

import (
	"fmt"
	"strconv"
	"strings"
)

type ObjectType string

const (
	INTEGER_OBJ ObjectType = "INTEGER"
	FLOAT_OBJ   ObjectType = "FLOAT"
	BOOLEAN_OBJ ObjectType = "BOOLEAN"
	STRING_OBJ  ObjectType = "STRING"
	NIL_OBJ     ObjectType = "NIL"
	TUPLE_OBJ   ObjectType = "TUPLE"
	LIST_OBJ    ObjectType = "LIST"
	BUILTIN_OBJ ObjectType = "BUILTIN"
	ERROR_OBJ   ObjectType = "ERROR"
)

// Object is the interface every runtime value satisfies.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Equaler lets a value define its own equality (monads use this so
// Just(1) == Just(1) even though they are distinct pointers).
type Equaler interface {
	Equal(other Object) bool
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return strconv.Quote(s.Value) }

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

// Shared singletons; comparisons may rely on pointer identity.
var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NIL   = &Nil{}
)

// FromBool returns the shared TRUE or FALSE singleton.
func FromBool(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.Inspect()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Builtin wraps a host Go function so it can be called from an
// expression. A builtin signals failure by returning *Error.
type Builtin struct {
	Name string
	Fn   func(args ...Object) Object
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "<builtin " + b.Name + ">" }

// Error is a runtime evaluation failure produced inside an expression
// (bad operand types, wrong builtin arity). The VM converts it to a Go
// error when it surfaces.
type Error struct {
	Message string
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "error: " + e.Message }

// Errorf builds an *Error.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsTruthy follows the usual rules: nil and false are falsy, zero
// numbers and empty strings/collections are falsy, everything else is
// truthy.
func IsTruthy(obj Object) bool {
	switch v := obj.(type) {
	case *Nil:
		return false
	case *Boolean:
		return v.Value
	case *Integer:
		return v.Value != 0
	case *Float:
		return v.Value != 0
	case *String:
		return v.Value != ""
	case *Tuple:
		return len(v.Elements) > 0
	case *List:
		return len(v.Elements) > 0
	default:
		return true
	}
}
