// Package ast defines the syntax tree for the restricted do-expression
// grammar: a result expression followed by binding clauses ("for x in
// src") and guard clauses ("if cond").
package ast

import (
	"strings"

	"github.com/internetimagery/donot/internal/token"
)

type Node interface {
	GetToken() token.Token
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

// Comprehension is the root: <result> for <pat> in <src> {for|if}...
type Comprehension struct {
	Token   token.Token // first token of the result expression
	Result  Expression
	Clauses []Clause
}

func (c *Comprehension) GetToken() token.Token { return c.Token }
func (c *Comprehension) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(c.Result.String())
	for _, cl := range c.Clauses {
		sb.WriteString(" ")
		sb.WriteString(cl.String())
	}
	sb.WriteString(")")
	return sb.String()
}

type Clause interface {
	Node
	clauseNode()
}

// ForClause binds a pattern from a source expression.
type ForClause struct {
	Token   token.Token // the 'for' token
	Pattern Pattern
	Source  Expression
}

func (f *ForClause) clauseNode()           {}
func (f *ForClause) GetToken() token.Token { return f.Token }
func (f *ForClause) String() string {
	return "for " + f.Pattern.String() + " in " + f.Source.String()
}

// IfClause is a short-circuit guard.
type IfClause struct {
	Token token.Token // the 'if' token
	Cond  Expression
}

func (i *IfClause) clauseNode()           {}
func (i *IfClause) GetToken() token.Token { return i.Token }
func (i *IfClause) String() string        { return "if " + i.Cond.String() }

// Patterns

type Pattern interface {
	Node
	patternNode()
	// Names returns the leaf identifiers bound by the pattern, in
	// binding order.
	Names() []string
}

type IdentifierPattern struct {
	Token token.Token
	Value string
}

func (p *IdentifierPattern) patternNode()          {}
func (p *IdentifierPattern) GetToken() token.Token { return p.Token }
func (p *IdentifierPattern) String() string        { return p.Value }
func (p *IdentifierPattern) Names() []string       { return []string{p.Value} }

type TuplePattern struct {
	Token    token.Token // the '(' token
	Elements []Pattern
}

func (p *TuplePattern) patternNode()          {}
func (p *TuplePattern) GetToken() token.Token { return p.Token }
func (p *TuplePattern) String() string {
	parts := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (p *TuplePattern) Names() []string {
	var names []string
	for _, e := range p.Elements {
		names = append(names, e.Names()...)
	}
	return names
}

// Expressions

type Identifier struct {
	Token token.Token
	Value string
}

func (e *Identifier) expressionNode()       {}
func (e *Identifier) GetToken() token.Token { return e.Token }
func (e *Identifier) String() string        { return e.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (e *IntegerLiteral) expressionNode()       {}
func (e *IntegerLiteral) GetToken() token.Token { return e.Token }
func (e *IntegerLiteral) String() string        { return e.Token.Lexeme }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (e *FloatLiteral) expressionNode()       {}
func (e *FloatLiteral) GetToken() token.Token { return e.Token }
func (e *FloatLiteral) String() string        { return e.Token.Lexeme }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()       {}
func (e *StringLiteral) GetToken() token.Token { return e.Token }
func (e *StringLiteral) String() string        { return `"` + e.Value + `"` }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (e *BooleanLiteral) expressionNode()       {}
func (e *BooleanLiteral) GetToken() token.Token { return e.Token }
func (e *BooleanLiteral) String() string        { return e.Token.Lexeme }

type NilLiteral struct {
	Token token.Token
}

func (e *NilLiteral) expressionNode()       {}
func (e *NilLiteral) GetToken() token.Token { return e.Token }
func (e *NilLiteral) String() string        { return "nil" }

type TupleLiteral struct {
	Token    token.Token // the '(' token
	Elements []Expression
}

func (e *TupleLiteral) expressionNode()       {}
func (e *TupleLiteral) GetToken() token.Token { return e.Token }
func (e *TupleLiteral) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type ListLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (e *ListLiteral) expressionNode()       {}
func (e *ListLiteral) GetToken() token.Token { return e.Token }
func (e *ListLiteral) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (e *PrefixExpression) expressionNode()       {}
func (e *PrefixExpression) GetToken() token.Token { return e.Token }
func (e *PrefixExpression) String() string {
	return "(" + e.Operator + e.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *InfixExpression) expressionNode()       {}
func (e *InfixExpression) GetToken() token.Token { return e.Token }
func (e *InfixExpression) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

type CallExpression struct {
	Token     token.Token // the '(' token
	Function  Expression
	Arguments []Expression
}

func (e *CallExpression) expressionNode()       {}
func (e *CallExpression) GetToken() token.Token { return e.Token }
func (e *CallExpression) String() string {
	parts := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		parts[i] = a.String()
	}
	return e.Function.String() + "(" + strings.Join(parts, ", ") + ")"
}

// ConditionalExpression is the Python-style "then if cond else other".
type ConditionalExpression struct {
	Token token.Token // the 'if' token
	Then  Expression
	Cond  Expression
	Else  Expression
}

func (e *ConditionalExpression) expressionNode()       {}
func (e *ConditionalExpression) GetToken() token.Token { return e.Token }
func (e *ConditionalExpression) String() string {
	return "(" + e.Then.String() + " if " + e.Cond.String() + " else " + e.Else.String() + ")"
}
