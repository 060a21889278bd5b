// Package numantics evaluates arithmetic typed inline into a text field.
//
// Evaluate normalizes the raw text, decides whether it is an expression at
// all, and computes it with one of two engines:
//
//	EngineAST      tokenizer, Pratt parser and tree evaluator (default)
//	EngineRewrite  the legacy staged string-rewriting engine
//
// Evaluate never panics and keeps no state between calls, so it is safe
// for concurrent use.
package numantics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nalathethird/numantics/pkg/numantics/ast"
	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
	"github.com/nalathethird/numantics/pkg/numantics/evaluator"
	"github.com/nalathethird/numantics/pkg/numantics/lexer"
	"github.com/nalathethird/numantics/pkg/numantics/normalize"
	"github.com/nalathethird/numantics/pkg/numantics/parser"
	"github.com/nalathethird/numantics/pkg/numantics/rewrite"
)

// DefaultMaxInputLength is the longest input Evaluate accepts, in bytes.
const DefaultMaxInputLength = 1024

// Engine selects the evaluation strategy.
type Engine string

const (
	EngineAST     Engine = "ast"
	EngineRewrite Engine = "rewrite"
)

// ParseEngine converts a name to an Engine. The empty string is EngineAST.
func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(name))) {
	case "", EngineAST:
		return EngineAST, nil
	case EngineRewrite:
		return EngineRewrite, nil
	}
	return "", fmt.Errorf("unknown engine %q (expected %q or %q)", name, EngineAST, EngineRewrite)
}

// Kind is the outcome of an evaluation. The zero Kind is NotAnExpression,
// so a Result that was never filled in does not report success.
type Kind int

const (
	NotAnExpression Kind = iota
	Evaluated
	Failed
)

func (k Kind) String() string {
	switch k {
	case Evaluated:
		return "evaluated"
	case NotAnExpression:
		return "not_an_expression"
	case Failed:
		return "failed"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Options control a single evaluation.
type Options struct {
	AllowStringFields bool // evaluate fields that hold free text
	RoundToInteger    bool // round the result to the nearest integer, halves away from zero
	StringField       bool // the input comes from a free-text field
	Verbose           bool // log each step to Logger

	Engine         Engine // "" means EngineAST
	MaxRewrites    int    // rewrite engine loop cap; 0 scales with the input
	MaxInputLength int    // 0 means DefaultMaxInputLength

	Logger Logger // nil discards output
}

// Result is the outcome of Evaluate.
type Result struct {
	Kind       Kind               `json:"kind"`
	Value      string             `json:"value,omitempty"`
	Input      string             `json:"input"`
	Normalized string             `json:"normalized,omitempty"`
	Err        *perrors.CalcError `json:"error,omitempty"`
}

// OK reports whether the result carries a value.
func (r Result) OK() bool {
	return r.Kind == Evaluated
}

// ToJSON returns the result as JSON bytes.
func (r Result) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// Evaluate computes raw and returns its replacement text, or reports that
// raw is not an expression, or that evaluation failed.
func Evaluate(raw string, opts Options) Result {
	res := Result{Input: raw}
	log := opts.Logger
	if log == nil {
		log = NullLogger()
	}

	if opts.StringField && !opts.AllowStringFields {
		res.Kind = NotAnExpression
		return res
	}

	limit := opts.MaxInputLength
	if limit <= 0 {
		limit = DefaultMaxInputLength
	}
	if len(raw) > limit {
		res.Kind = Failed
		res.Err = perrors.New("CALC-0007", map[string]any{"Length": len(raw), "Limit": limit})
		return res
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || isPlainNumber(trimmed) {
		res.Kind = NotAnExpression
		return res
	}

	engine, err := ParseEngine(string(opts.Engine))
	if err != nil {
		res.Kind = Failed
		res.Err = perrors.NewSimple(perrors.ClassEvaluation, err.Error())
		return res
	}

	if engine == EngineRewrite {
		res.Normalized = rewrite.Prepare(raw)
	} else {
		res.Normalized = normalize.Normalize(raw)
	}

	if !IsExpression(res.Normalized) {
		res.Kind = NotAnExpression
		return res
	}

	var trace evaluator.Tracer
	if opts.Verbose {
		trace = func(format string, args ...any) { Infof(log, format, args...) }
		Infof(log, "Normalized: '%s' => '%s'", raw, res.Normalized)
	}

	var value float64
	var cerr *perrors.CalcError
	switch engine {
	case EngineRewrite:
		value, cerr = rewrite.Evaluate(res.Normalized, rewrite.Options{
			MaxRewrites: opts.MaxRewrites,
			Trace:       trace,
		})
	default:
		value, cerr = evaluateTree(res.Normalized, trace)
	}

	if cerr != nil {
		res.Kind = Failed
		res.Err = cerr
		if opts.Verbose {
			Infof(log, "Failed with %s: %s", cerr.Code, cerr.Message)
		}
		return res
	}

	res.Kind = Evaluated
	res.Value = evaluator.FormatResult(value, opts.RoundToInteger)
	if opts.Verbose && opts.RoundToInteger {
		Infof(log, "Rounded %s to %s", evaluator.FormatResult(value, false), res.Value)
	}
	return res
}

func evaluateTree(normalized string, trace evaluator.Tracer) (float64, *perrors.CalcError) {
	exp, err := parser.Parse(normalized)
	if err != nil {
		return 0, err
	}
	value, err := evaluator.New(trace).Eval(exp)
	if err != nil && err.Column > 0 && err.Input == "" {
		err = err.WithInput(normalized)
	}
	return value, err
}

// Parse normalizes raw and parses it without evaluating.
func Parse(raw string) (ast.Expression, *perrors.CalcError) {
	return parser.Parse(normalize.Normalize(raw))
}

// Check reports the first syntax error in raw, or nil. Text that is not
// an expression has no syntax errors.
func Check(raw string) *perrors.CalcError {
	normalized := normalize.Normalize(raw)
	if isPlainNumber(strings.TrimSpace(raw)) || !IsExpression(normalized) {
		return nil
	}
	_, err := parser.Parse(normalized)
	return err
}

// IsExpression reports whether normalized text contains an arithmetic
// operator or a call to a known function.
func IsExpression(normalized string) bool {
	tokens := lexer.Tokenize(normalized)
	for i, tok := range tokens {
		if tok.Type.IsOperator() {
			return true
		}
		if tok.Type == lexer.IDENT && i+1 < len(tokens) && tokens[i+1].Type == lexer.LPAREN && evaluator.IsFunction(tok.Literal) {
			return true
		}
	}
	return false
}

// isPlainNumber reports whether s already is a decimal numeral, such as
// a previous result.
func isPlainNumber(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !(ch >= '0' && ch <= '9') && ch != '.' && ch != '-' && ch != '+' {
			return false
		}
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
