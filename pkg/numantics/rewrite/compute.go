package rewrite

import (
	"math"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
)

var literalPattern = regexp.MustCompile(`\d*\.?\d+`)

// Compute evaluates a reduced expression: digits, '.', '+', '-', '*',
// '/', '(' and ')' only. Anything else is a malformed operand.
func Compute(s string) (float64, *perrors.CalcError) {
	if s == "" {
		return 0, perrors.New("CALC-0002", map[string]any{"Operand": s})
	}
	if bad := strings.IndexFunc(s, func(r rune) bool { return !isReduced(r) }); bad >= 0 {
		return 0, perrors.New("CALC-0002", map[string]any{"Operand": s[bad:]})
	}
	if strings.Contains(s, "**") {
		return 0, perrors.New("CALC-0003", map[string]any{"Expression": s, "Reason": "unexpected '*'"})
	}

	// Every literal is made a float so integer overflow and integer
	// division never come into play.
	source := literalPattern.ReplaceAllStringFunc(s, func(lit string) string {
		if strings.HasPrefix(lit, ".") {
			lit = "0" + lit
		}
		if !strings.Contains(lit, ".") {
			lit += ".0"
		}
		return lit
	})

	program, err := expr.Compile(source, expr.AsFloat64())
	if err != nil {
		return 0, perrors.New("CALC-0003", map[string]any{"Expression": s, "Reason": firstLine(err.Error())})
	}

	out, err := expr.Run(program, nil)
	if err != nil {
		return 0, perrors.New("CALC-0003", map[string]any{"Expression": s, "Reason": firstLine(err.Error())})
	}

	v, ok := out.(float64)
	if !ok {
		return 0, perrors.New("CALC-0003", map[string]any{"Expression": s, "Reason": "result is not a number"})
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, perrors.New("CALC-0001", map[string]any{"Operation": s})
	}
	return v, nil
}

func isReduced(r rune) bool {
	switch r {
	case '.', '+', '-', '*', '/', '(', ')':
		return true
	}
	return r >= '0' && r <= '9'
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
