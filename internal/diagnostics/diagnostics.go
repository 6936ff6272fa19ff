// Package diagnostics defines the error codes and error type shared by
// the lexer, parser, compiler and runtime.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/internetimagery/donot/internal/token"
)

// Code classifies an error. The leading letter gives the stage:
// L lexical, P parse, S structural (chain parser), G generator, U usage.
type Code string

const (
	ErrL001 Code = "L001" // illegal character or unterminated literal

	ErrP001 Code = "P001" // unexpected token
	ErrP002 Code = "P002" // expression has no binding clause
	ErrP003 Code = "P003" // malformed binding pattern
	ErrP004 Code = "P004" // conditional expression missing else branch

	ErrS001 Code = "S001" // instruction stream lacks the binding-clause prologue
	ErrS002 Code = "S002" // unexpected instruction inside a binding clause
	ErrS003 Code = "S003" // instruction stream ended before the result expression

	ErrG001 Code = "G001" // generator met a node or instruction outside the grammar

	ErrU001 Code = "U001" // argument is not a valid do-expression
	ErrU002 Code = "U002" // value does not expose the capability interface
	ErrU003 Code = "U003" // requested operation not exposed by the value

	ErrR001 Code = "R001" // runtime evaluation error inside an expression
)

// Error carries a code, an optional source position and a message.
type Error struct {
	Code    Code
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d:%d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an Error positioned at tok.
func NewError(code Code, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

// Newf builds an Error with no source position.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the diagnostic code from err, or "" if err is not ours.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsUsage reports whether err is a caller-facing usage error rather than
// an internal consistency failure.
func IsUsage(err error) bool {
	switch CodeOf(err) {
	case ErrU001, ErrU002, ErrU003:
		return true
	}
	return false
}
