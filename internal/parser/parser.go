// Package parser implements a Pratt parser for the do-expression
// grammar:
//
//	<result-expr> for <pattern> in <source-expr> { for ... | if <cond-expr> }*
//
// Clause expressions terminate at the next top-level 'for' or 'if'
// keyword; a conditional expression ("a if c else b") is only admitted
// in result position or inside parentheses, mirroring the comprehension
// grammar this notation is modeled on.
package parser

import (
	"strconv"

	"github.com/internetimagery/donot/internal/ast"
	"github.com/internetimagery/donot/internal/diagnostics"
	"github.com/internetimagery/donot/internal/lexer"
	"github.com/internetimagery/donot/internal/token"
)

const (
	_ int = iota
	LOWEST
	TERNARY     // a if c else b
	OR          // ||
	AND         // &&
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	CALL        // f(x)
)

var precedences = map[token.Type]int{
	token.IF:      TERNARY,
	token.OR:      OR,
	token.AND:     AND,
	token.EQ:      EQUALS,
	token.NE:      EQUALS,
	token.LT:      LESSGREATER,
	token.LE:      LESSGREATER,
	token.GT:      LESSGREATER,
	token.GE:      LESSGREATER,
	token.PLUS:    SUM,
	token.MINUS:   SUM,
	token.STAR:    PRODUCT,
	token.SLASH:   PRODUCT,
	token.PERCENT: PRODUCT,
	token.LPAREN:  CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	// clauseDepth > 0 while parsing a clause source or guard
	// condition; groupDepth > 0 inside parens/brackets/arguments.
	// A bare 'if' is a clause boundary, not a ternary, when we are at
	// clause level outside any grouping.
	clauseDepth int
	groupDepth  int

	errors []*diagnostics.Error

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.INT:      p.parseIntegerLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBooleanLiteral,
		token.FALSE:    p.parseBooleanLiteral,
		token.NIL:      p.parseNilLiteral,
		token.BANG:     p.parsePrefixExpression,
		token.MINUS:    p.parsePrefixExpression,
		token.LPAREN:   p.parseGroupedOrTuple,
		token.LBRACKET: p.parseListLiteral,
	}
	p.infixParseFns = map[token.Type]infixParseFn{
		token.PLUS:    p.parseInfixExpression,
		token.MINUS:   p.parseInfixExpression,
		token.STAR:    p.parseInfixExpression,
		token.SLASH:   p.parseInfixExpression,
		token.PERCENT: p.parseInfixExpression,
		token.EQ:      p.parseInfixExpression,
		token.NE:      p.parseInfixExpression,
		token.LT:      p.parseInfixExpression,
		token.LE:      p.parseInfixExpression,
		token.GT:      p.parseInfixExpression,
		token.GE:      p.parseInfixExpression,
		token.AND:     p.parseInfixExpression,
		token.OR:      p.parseInfixExpression,
		token.LPAREN:  p.parseCallExpression,
		token.IF:      p.parseConditionalExpression,
	}

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

// ParseComprehension parses the whole input as one do-expression.
func (p *Parser) ParseComprehension() (*ast.Comprehension, error) {
	comp := &ast.Comprehension{Token: p.curToken}

	comp.Result = p.parseExpression(LOWEST)
	if comp.Result == nil {
		return nil, p.firstError()
	}

	if !p.peekTokenIs(token.FOR) {
		p.addError(diagnostics.ErrP002, p.peekToken,
			"do-expression requires at least one 'for <pattern> in <source>' clause")
		return nil, p.firstError()
	}

	for p.peekTokenIs(token.FOR) || p.peekTokenIs(token.IF) {
		p.nextToken()
		var cl ast.Clause
		if p.curTokenIs(token.FOR) {
			cl = p.parseForClause()
		} else {
			cl = p.parseIfClause()
		}
		if cl == nil {
			return nil, p.firstError()
		}
		comp.Clauses = append(comp.Clauses, cl)
	}

	if !p.peekTokenIs(token.EOF) {
		p.addError(diagnostics.ErrP001, p.peekToken,
			"unexpected %q after do-expression", p.peekToken.Lexeme)
		return nil, p.firstError()
	}
	return comp, nil
}

func (p *Parser) parseForClause() ast.Clause {
	forTok := p.curToken
	p.nextToken()

	pattern := p.parsePattern()
	if pattern == nil {
		return nil
	}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()

	p.clauseDepth++
	source := p.parseExpression(LOWEST)
	p.clauseDepth--
	if source == nil {
		return nil
	}
	return &ast.ForClause{Token: forTok, Pattern: pattern, Source: source}
}

func (p *Parser) parseIfClause() ast.Clause {
	ifTok := p.curToken
	p.nextToken()

	p.clauseDepth++
	cond := p.parseExpression(LOWEST)
	p.clauseDepth--
	if cond == nil {
		return nil
	}
	return &ast.IfClause{Token: ifTok, Cond: cond}
}

func (p *Parser) parsePattern() ast.Pattern {
	switch p.curToken.Type {
	case token.IDENT:
		return &ast.IdentifierPattern{Token: p.curToken, Value: p.curToken.Lexeme}
	case token.LPAREN:
		pat := &ast.TuplePattern{Token: p.curToken}
		for {
			p.nextToken()
			elem := p.parsePattern()
			if elem == nil {
				return nil
			}
			pat.Elements = append(pat.Elements, elem)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		if len(pat.Elements) < 2 {
			p.addError(diagnostics.ErrP003, pat.Token,
				"tuple pattern needs at least two elements")
			return nil
		}
		return pat
	default:
		p.addError(diagnostics.ErrP003, p.curToken,
			"cannot bind to %q, expected a name or tuple pattern", p.curToken.Lexeme)
		return nil
	}
}

// Expression parsing

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError(diagnostics.ErrP001, p.curToken,
			"unexpected %q in expression", p.curToken.Lexeme)
		return nil
	}
	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) peekPrecedence() int {
	// An 'if' at clause level outside grouping starts a guard clause,
	// never a ternary.
	if p.peekToken.Type == token.IF && p.clauseDepth > 0 && p.groupDepth == 0 {
		return LOWEST
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	v, err := strconv.ParseInt(p.curToken.Lexeme, 10, 64)
	if err != nil {
		p.addError(diagnostics.ErrP001, p.curToken, "cannot parse %q as integer", p.curToken.Lexeme)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	v, err := strconv.ParseFloat(p.curToken.Lexeme, 64)
	if err != nil {
		p.addError(diagnostics.ErrP001, p.curToken, "cannot parse %q as float", p.curToken.Lexeme)
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Lexeme}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Lexeme,
	}
	prec := precedences[expr.Token.Type]
	p.nextToken()
	expr.Right = p.parseExpression(prec)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseGroupedOrTuple() ast.Expression {
	lparen := p.curToken
	p.groupDepth++
	defer func() { p.groupDepth-- }()

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TupleLiteral{Token: lparen}
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if !p.peekTokenIs(token.COMMA) {
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return first
	}

	tuple := &ast.TupleLiteral{Token: lparen, Elements: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		tuple.Elements = append(tuple.Elements, elem)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return tuple
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}
	p.groupDepth++
	defer func() { p.groupDepth-- }()

	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return list
	}
	p.nextToken()
	elem := p.parseExpression(LOWEST)
	if elem == nil {
		return nil
	}
	list.Elements = append(list.Elements, elem)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elem = p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		list.Elements = append(list.Elements, elem)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return list
}

func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Function: fn}
	p.groupDepth++
	defer func() { p.groupDepth-- }()

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return call
	}
	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	call.Arguments = append(call.Arguments, arg)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		arg = p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		call.Arguments = append(call.Arguments, arg)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return call
}

// parseConditionalExpression handles "then if cond else other". The
// condition itself excludes nested bare ternaries; the else branch
// admits them, making chains right-associative.
func (p *Parser) parseConditionalExpression(then ast.Expression) ast.Expression {
	expr := &ast.ConditionalExpression{Token: p.curToken, Then: then}
	p.nextToken()

	expr.Cond = p.parseExpression(TERNARY)
	if expr.Cond == nil {
		return nil
	}
	if !p.peekTokenIs(token.ELSE) {
		p.addError(diagnostics.ErrP004, p.peekToken,
			"conditional expression requires an else branch")
		return nil
	}
	p.nextToken()
	p.nextToken()
	expr.Else = p.parseExpression(LOWEST)
	if expr.Else == nil {
		return nil
	}
	return expr
}

// Token helpers

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == token.ILLEGAL {
		p.addError(diagnostics.ErrL001, p.peekToken, "illegal token %q", p.peekToken.Lexeme)
	}
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(diagnostics.ErrP001, p.peekToken,
		"expected %q, got %q", string(t), p.peekToken.Lexeme)
	return false
}

func (p *Parser) addError(code diagnostics.Code, tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewError(code, tok, format, args...))
}

func (p *Parser) firstError() error {
	if len(p.errors) > 0 {
		return p.errors[0]
	}
	return diagnostics.Newf(diagnostics.ErrP001, "parse failed")
}
