package parser

import (
	"strconv"

	"github.com/nalathethird/numantics/pkg/numantics/ast"
	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
	"github.com/nalathethird/numantics/pkg/numantics/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	SUM     // + or -
	PRODUCT // * or /
	PREFIX  // -X or +X
	POWER   // X ^ Y (right associative)
	POSTFIX // X%
	CALL    // sqrt(X)
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.CARET:    POWER,
	lexer.PERCENT:  POSTFIX,
	lexer.LPAREN:   CALL,
}

// Parser represents the parser
type Parser struct {
	l *lexer.Lexer

	input  string
	errors []*perrors.CalcError

	prevToken lexer.Token
	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new parser instance for input
func New(input string) *Parser {
	p := &Parser{
		l:     lexer.New(input),
		input: input,
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.PLUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpression)
	p.registerInfix(lexer.SLASH, p.parseInfixExpression)
	p.registerInfix(lexer.CARET, p.parsePowerExpression)
	p.registerInfix(lexer.PERCENT, p.parsePostfixExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns parser errors as strings (convenience method for tests).
func (p *Parser) Errors() []string {
	result := make([]string, len(p.errors))
	for i, err := range p.errors {
		result[i] = err.String()
	}
	return result
}

// StructuredErrors returns parser errors as CalcError values.
func (p *Parser) StructuredErrors() []*perrors.CalcError {
	return p.errors
}

// Err returns the first parse error, or nil.
func (p *Parser) Err() *perrors.CalcError {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[0]
}

// addError records a catalog error.
// Only the first error is recorded - subsequent errors are usually cascading noise.
func (p *Parser) addError(code string, column int, data map[string]any) {
	if len(p.errors) > 0 {
		return
	}
	p.errors = append(p.errors, perrors.NewWithColumn(code, column, data).WithInput(p.input))
}

// addIllegal records the lexer's description of an illegal character.
func (p *Parser) addIllegal(tok lexer.Token) {
	if len(p.errors) > 0 {
		return
	}
	err := perrors.NewSimple(perrors.ClassParse, tok.Literal)
	err.Column = tok.Column
	p.errors = append(p.errors, err.WithInput(p.input))
}

// registerPrefix registers a prefix parse function
func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers an infix parse function
func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken advances prevToken, curToken, and peekToken
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseExpression parses the whole input as a single expression.
// It returns nil when any error was recorded.
func (p *Parser) ParseExpression() ast.Expression {
	if p.curTokenIs(lexer.EOF) {
		p.addError("PARSE-0002", p.curToken.Column, map[string]any{"Token": "end of input"})
		return nil
	}

	exp := p.parseExpression(LOWEST)
	if len(p.errors) > 0 {
		return nil
	}

	if !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		p.unexpected(p.curToken)
		return nil
	}

	return exp
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected(p.curToken)
		return nil
	}

	leftExp := prefix()

	for leftExp != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("PARSE-0003", p.curToken.Column, map[string]any{"Literal": p.curToken.Literal})
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

// parsePowerExpression parses '^' with right associativity, so 2^3^2 is 2^(3^2).
func (p *Parser) parsePowerExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	p.nextToken()
	expression.Right = p.parseExpression(POWER - 1)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parsePostfixExpression(left ast.Expression) ast.Expression {
	return &ast.PostfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return exp
}

// parseCallExpression parses 'name(arg)'. Only identifiers can be called;
// '2(3)' is rejected instead of being read as implicit multiplication.
func (p *Parser) parseCallExpression(left ast.Expression) ast.Expression {
	fn, ok := left.(*ast.Identifier)
	if !ok {
		p.addError("PARSE-0005", p.curToken.Column, map[string]any{
			"Name": left.String(),
			"Left": left.String(),
		})
		return nil
	}

	call := &ast.CallExpression{Token: p.curToken, Function: fn}

	p.nextToken()
	call.Argument = p.parseExpression(LOWEST)
	if call.Argument == nil {
		return nil
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return call
}

// Helper functions
func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	switch {
	case p.peekTokenIs(lexer.ILLEGAL):
		p.addIllegal(p.peekToken)
	case t == lexer.RPAREN && p.peekTokenIs(lexer.EOF):
		p.addError("PARSE-0004", p.peekToken.Column, nil)
	default:
		p.addError("PARSE-0001", p.peekToken.Column, map[string]any{
			"Expected": "'" + t.String() + "'",
			"Got":      literalOrName(p.peekToken),
		})
	}
}

// unexpected records an error for a token that cannot appear where it is.
func (p *Parser) unexpected(tok lexer.Token) {
	switch tok.Type {
	case lexer.ILLEGAL:
		p.addIllegal(tok)
	case lexer.RPAREN:
		p.addError("PARSE-0004", tok.Column, nil)
	case lexer.EOF:
		p.addError("PARSE-0002", tok.Column, map[string]any{"Token": "end of input"})
	default:
		p.addError("PARSE-0002", tok.Column, map[string]any{"Token": tok.Literal})
	}
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func literalOrName(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of input"
	}
	return tok.Literal
}

// Parse is a convenience wrapper that parses input and returns the
// expression or the first error.
func Parse(input string) (ast.Expression, *perrors.CalcError) {
	p := New(input)
	exp := p.ParseExpression()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return exp, nil
}
