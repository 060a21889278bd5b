package ast

import (
	"bytes"

	"github.com/nalathethird/numantics/pkg/numantics/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// NumberLiteral represents numeric literals such as 42 or 0.5
type NumberLiteral struct {
	Token lexer.Token // the lexer.NUMBER token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// Identifier represents a bare name. Only function names are meaningful,
// and only in call position.
type Identifier struct {
	Token lexer.Token // the lexer.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// PrefixExpression represents unary expressions like '-x'
type PrefixExpression struct {
	Token    lexer.Token // the prefix token, e.g. -
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(pe.Operator)
	out.WriteString(pe.Right.String())
	out.WriteString(")")

	return out.String()
}

// InfixExpression represents binary expressions like 'x + y' and 'x ^ y'
type InfixExpression struct {
	Token    lexer.Token // the operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

// PostfixExpression represents 'x%'
type PostfixExpression struct {
	Token    lexer.Token // the postfix token, e.g. %
	Left     Expression
	Operator string
}

func (pe *PostfixExpression) expressionNode()      {}
func (pe *PostfixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PostfixExpression) String() string {
	return "(" + pe.Left.String() + pe.Operator + ")"
}

// CallExpression represents a unary function call like 'sqrt(16)'
type CallExpression struct {
	Token    lexer.Token // the '(' token
	Function *Identifier
	Argument Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	var out bytes.Buffer

	out.WriteString(ce.Function.String())
	out.WriteString("(")
	out.WriteString(ce.Argument.String())
	out.WriteString(")")

	return out.String()
}

// Walk calls fn for node and each of its descendants in depth-first
// order, stopping early if fn returns false.
func Walk(node Expression, fn func(Expression) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *PrefixExpression:
		Walk(n.Right, fn)
	case *InfixExpression:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *PostfixExpression:
		Walk(n.Left, fn)
	case *CallExpression:
		Walk(n.Function, fn)
		Walk(n.Argument, fn)
	}
}
