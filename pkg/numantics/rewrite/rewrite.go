// Package rewrite is the legacy string-rewriting engine.
//
// The expression is reduced in fixed stages: whitespace removal,
// normalization, function calls, percentages, exponentiation, and finally
// a generic compute over the remaining digits, '.', '+', '-', '*', '/',
// '(' and ')'. Each stage replaces text in place, so its quirks are
// textual: the left operand of '^' must be a plain literal, and '^' chains
// reduce left to right.
package rewrite

import (
	"strings"
	"unicode"

	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
	"github.com/nalathethird/numantics/pkg/numantics/normalize"
)

// Options control a single evaluation.
type Options struct {
	// MaxRewrites caps each rewriting loop. 0 caps a loop at one more than
	// the length of the text it works on: every rewrite consumes a '(',
	// '%' or '^', so well-formed input never reaches that cap.
	MaxRewrites int

	// Trace receives one line per rewrite when set.
	Trace func(format string, args ...any)
}

func (o Options) limit(s string) int {
	if o.MaxRewrites <= 0 {
		return len(s) + 1
	}
	return o.MaxRewrites
}

func (o Options) tracef(format string, args ...any) {
	if o.Trace != nil {
		o.Trace(format, args...)
	}
}

// Prepare strips whitespace from raw and normalizes it.
func Prepare(raw string) string {
	return normalize.Normalize(StripWhitespace(raw))
}

// StripWhitespace removes every whitespace character.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Evaluate reduces an already prepared expression to a number.
func Evaluate(expression string, opts Options) (float64, *perrors.CalcError) {
	s, err := ResolveFunctions(expression, opts)
	if err != nil {
		return 0, err
	}
	return reduce(s, opts)
}

// reduce runs the stages after function resolution. Function arguments
// and parenthesized exponents go through it as well.
func reduce(s string, opts Options) (float64, *perrors.CalcError) {
	s, err := ResolvePercentages(s, opts)
	if err != nil {
		return 0, err
	}

	s, err = ResolvePowers(s, opts)
	if err != nil {
		return 0, err
	}

	opts.tracef("Compute: %s", s)
	return Compute(s)
}
