// Package evaluator computes the value of a parsed expression.
//
// All arithmetic is float64. Function results are rounded to FunctionPlaces
// before use, and a final value is rounded to ResultPlaces by FormatResult.
package evaluator

import (
	"fmt"
	"math"

	"github.com/nalathethird/numantics/pkg/numantics/ast"
	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
)

// Tracer receives one line per evaluation step. A nil Tracer is silent.
type Tracer func(format string, args ...any)

// Evaluator walks an expression tree.
type Evaluator struct {
	trace Tracer
}

// New creates an evaluator that reports each step to trace.
func New(trace Tracer) *Evaluator {
	return &Evaluator{trace: trace}
}

// Eval evaluates node without tracing.
func Eval(node ast.Expression) (float64, *perrors.CalcError) {
	return New(nil).Eval(node)
}

// Eval evaluates node. Failures are returned, never panicked.
func (e *Evaluator) Eval(node ast.Expression) (float64, *perrors.CalcError) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		return node.Value, nil

	case *ast.Identifier:
		if IsFunction(node.Value) {
			return 0, perrors.NewWithColumn("UNDEF-0002", node.Token.Column, map[string]any{"Name": node.Value})
		}
		return 0, perrors.NewUndefinedFunction(node.Value, node.Token.Column, FunctionNames())

	case *ast.PrefixExpression:
		right, err := e.Eval(node.Right)
		if err != nil {
			return 0, err
		}
		return evalPrefixExpression(node.Operator, right), nil

	case *ast.InfixExpression:
		left, err := e.Eval(node.Left)
		if err != nil {
			return 0, err
		}
		right, err := e.Eval(node.Right)
		if err != nil {
			return 0, err
		}
		return e.evalInfixExpression(node, left, right)

	case *ast.PostfixExpression:
		left, err := e.Eval(node.Left)
		if err != nil {
			return 0, err
		}
		value := left / 100
		e.tracef("Percent: %s%% = %s", FormatNumber(left), FormatNumber(value))
		return value, nil

	case *ast.CallExpression:
		return e.evalCallExpression(node)

	case nil:
		return 0, perrors.New("PARSE-0002", map[string]any{"Token": "end of input"})

	default:
		return 0, perrors.NewSimple(perrors.ClassEvaluation, fmt.Sprintf("cannot evaluate %T", node))
	}
}

func (e *Evaluator) tracef(format string, args ...any) {
	if e.trace != nil {
		e.trace(format, args...)
	}
}

func evalPrefixExpression(operator string, right float64) float64 {
	if operator == "-" {
		return -right
	}
	return right
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression, left, right float64) (float64, *perrors.CalcError) {
	var result float64

	switch node.Operator {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return 0, perrors.NewWithColumn("CALC-0005", node.Token.Column, nil)
		}
		result = left / right
	case "^":
		result = math.Pow(left, right)
		e.tracef("Power: %s^%s = %s", FormatNumber(left), FormatNumber(right), FormatNumber(result))
	default:
		return 0, perrors.NewSimple(perrors.ClassEvaluation, "unknown operator: "+node.Operator)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, perrors.NewWithColumn("CALC-0001", node.Token.Column, map[string]any{
			"Operation": FormatNumber(left) + " " + node.Operator + " " + FormatNumber(right),
		})
	}

	return result, nil
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpression) (float64, *perrors.CalcError) {
	name := node.Function.Value
	fn, ok := Lookup(name)
	if !ok {
		return 0, perrors.NewUndefinedFunction(name, node.Function.Token.Column, FunctionNames())
	}

	arg, err := e.Eval(node.Argument)
	if err != nil {
		return 0, err
	}

	result, ok := fn.Apply(arg)
	if !ok {
		return 0, perrors.NewWithColumn("CALC-0004", node.Function.Token.Column, map[string]any{
			"Function": name,
			"Argument": FormatNumber(arg),
		})
	}

	e.tracef("Function: %s(%s) = %s", name, FormatNumber(arg), FormatNumber(result))
	return result, nil
}

// Calls returns the names of the functions called in node, in the order
// they appear.
func Calls(node ast.Expression) []string {
	var names []string
	ast.Walk(node, func(n ast.Expression) bool {
		if call, ok := n.(*ast.CallExpression); ok {
			names = append(names, call.Function.Value)
		}
		return true
	})
	return names
}
