package parser

import (
	"testing"

	"github.com/nalathethird/numantics/pkg/numantics/ast"
)

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"10 / 2 / 5", "((10 / 2) / 5)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(-(2 ^ 2))"},
		{"2 ^ -1", "(2 ^ (-1))"},
		{"50%", "(50%)"},
		{"200 * 50%", "(200 * (50%))"},
		{"-50%", "(-(50%))"},
		{"sqrt(16) + 1", "(sqrt(16) + 1)"},
		{"sqrt(sqrt(16))", "sqrt(sqrt(16))"},
		{"2 * sin(30 + 60)", "(2 * sin((30 + 60)))"},
		{"+5 - -3", "((+5) - (-3))"},
		{"2^(1+2)", "(2 ^ (1 + 2))"},
		{".5 * 4", "(.5 * 4)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			exp, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if exp.String() != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, exp.String())
			}
		})
	}
}

func TestCallExpressionParsing(t *testing.T) {
	exp, err := Parse("log10(1000)")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	call, ok := exp.(*ast.CallExpression)
	if !ok {
		t.Fatalf("exp is not *ast.CallExpression. got=%T", exp)
	}
	if call.Function.Value != "log10" {
		t.Errorf("function name = %q, want log10", call.Function.Value)
	}
	lit, ok := call.Argument.(*ast.NumberLiteral)
	if !ok {
		t.Fatalf("argument is not *ast.NumberLiteral. got=%T", call.Argument)
	}
	if lit.Value != 1000 {
		t.Errorf("argument = %v, want 1000", lit.Value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		code   string
		column int
	}{
		{"(1 + 2", "PARSE-0004", 7},
		{"1 + 2)", "PARSE-0004", 6},
		{")", "PARSE-0004", 1},
		{"sqrt(4", "PARSE-0004", 7},
		{"1 +", "PARSE-0002", 4},
		{"* 2", "PARSE-0002", 1},
		{"1 2", "PARSE-0002", 3},
		{"", "PARSE-0002", 1},
		{"2(3)", "PARSE-0005", 2},
		{"(1)(2)", "PARSE-0005", 4},
		{"sqrt(4 5)", "PARSE-0001", 8},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			exp, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error, got %v", exp)
			}
			if err.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", err.Code, tt.code, err.Message)
			}
			if err.Column != tt.column {
				t.Errorf("column = %d, want %d", err.Column, tt.column)
			}
			if err.Input != tt.input {
				t.Errorf("input = %q, want %q", err.Input, tt.input)
			}
		})
	}
}

func TestIllegalCharacterError(t *testing.T) {
	_, err := Parse("2 $ 3")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !err.IsParseError() {
		t.Errorf("expected a parse error, got class %q", err.Class)
	}
	if err.Message != "unexpected character '$'" {
		t.Errorf("message = %q", err.Message)
	}
	if err.Column != 3 {
		t.Errorf("column = %d, want 3", err.Column)
	}
}

func TestOnlyFirstErrorRecorded(t *testing.T) {
	p := New("(1 + ) * (")
	p.ParseExpression()
	if len(p.Errors()) != 1 {
		t.Errorf("expected exactly one error, got %v", p.Errors())
	}
	if len(p.StructuredErrors()) != 1 {
		t.Errorf("expected exactly one structured error, got %d", len(p.StructuredErrors()))
	}
}
