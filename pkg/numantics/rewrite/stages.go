package rewrite

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
	"github.com/nalathethird/numantics/pkg/numantics/evaluator"
)

// callPattern matches the innermost call of any known function. Longer
// names come first in the alternation so "asin(" is never read as "sin(".
var callPattern = func() *regexp.Regexp {
	names := evaluator.FunctionNames()
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for i, name := range names {
		names[i] = regexp.QuoteMeta(name)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\(([^()]+)\)`)
}()

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)%`)

// ResolveFunctions replaces each function call with its value, innermost
// first, until no call is left.
func ResolveFunctions(s string, opts Options) (string, *perrors.CalcError) {
	limit := opts.limit(s)

	for n := 0; ; n++ {
		loc := callPattern.FindStringSubmatchIndex(s)
		if loc == nil {
			return s, nil
		}
		if n >= limit {
			return s, perrors.New("CALC-0006", map[string]any{"Stage": "function resolution", "Limit": limit})
		}

		name := s[loc[2]:loc[3]]
		argText := s[loc[4]:loc[5]]

		arg, err := operand(argText, opts)
		if err != nil {
			return s, err
		}

		fn, _ := evaluator.Lookup(name)
		result, ok := fn.Apply(arg)
		if !ok {
			return s, perrors.New("CALC-0004", map[string]any{
				"Function": name,
				"Argument": evaluator.FormatNumber(arg),
			})
		}

		value := evaluator.FormatNumber(result)
		opts.tracef("Function: %s(%s) = %s", name, argText, value)
		s = s[:loc[0]] + value + s[loc[1]:]
	}
}

// operand reads text as a number, falling back to evaluating it.
func operand(text string, opts Options) (float64, *perrors.CalcError) {
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	return reduce(text, opts)
}

// ResolvePercentages turns each "N%" into the literal value N/100. A '*'
// is inserted when the percentage directly follows a digit, '.' or ')'.
func ResolvePercentages(s string, opts Options) (string, *perrors.CalcError) {
	limit := opts.limit(s)

	for n := 0; ; n++ {
		loc := percentPattern.FindStringSubmatchIndex(s)
		if loc == nil {
			return s, nil
		}
		if n >= limit {
			return s, perrors.New("CALC-0006", map[string]any{"Stage": "percentage", "Limit": limit})
		}

		number := s[loc[2]:loc[3]]
		v, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return s, perrors.New("CALC-0002", map[string]any{"Operand": number + "%"})
		}

		value := evaluator.FormatNumber(v / 100)
		if loc[0] > 0 {
			switch prev := s[loc[0]-1]; {
			case isDigit(prev), prev == '.', prev == ')':
				value = "*" + value
			}
		}

		opts.tracef("Percent: %s%% = %s", number, value)
		s = s[:loc[0]] + value + s[loc[1]:]
	}
}

// ResolvePowers reduces "a^b" pairs from the left. The left operand is
// scanned back over digits, '.' and a sign that does not follow a digit or
// ')'. The right operand is a signed literal or one parenthesized group.
// The loop stops, leaving '^' in place, when the left operand is not a
// plain literal or the right operand is missing.
func ResolvePowers(s string, opts Options) (string, *perrors.CalcError) {
	limit := opts.limit(s)

	for n := 0; ; n++ {
		idx := strings.IndexByte(s, '^')
		if idx < 0 {
			return s, nil
		}
		if n >= limit {
			return s, perrors.New("CALC-0006", map[string]any{"Stage": "exponentiation", "Limit": limit})
		}

		start := findNumberStart(s, idx)
		left, err := strconv.ParseFloat(s[start:idx], 64)
		if err != nil {
			return s, nil
		}

		end, rightText, grouped := findNumberEnd(s, idx+1)
		if rightText == "" {
			return s, nil
		}

		var right float64
		if grouped {
			v, cerr := reduce(rightText, opts)
			if cerr != nil {
				return s, cerr
			}
			right = v
		} else {
			v, perr := strconv.ParseFloat(rightText, 64)
			if perr != nil {
				return s, perrors.New("CALC-0002", map[string]any{"Operand": rightText})
			}
			right = v
		}

		result := math.Pow(left, right)
		if math.IsNaN(result) || math.IsInf(result, 0) {
			return s, perrors.New("CALC-0001", map[string]any{
				"Operation": evaluator.FormatNumber(left) + "^" + evaluator.FormatNumber(right),
			})
		}

		value := evaluator.FormatNumber(result)
		opts.tracef("Power: %s^%s = %s", s[start:idx], s[idx+1:end], value)
		s = s[:start] + value + s[end:]
	}
}

// findNumberStart returns the index where the literal ending just before
// pos begins.
func findNumberStart(s string, pos int) int {
	start := pos
	for start > 0 && (isDigit(s[start-1]) || s[start-1] == '.') {
		start--
	}
	if start > 0 && s[start-1] == '-' {
		if start-1 == 0 || !(isDigit(s[start-2]) || s[start-2] == ')') {
			start--
		}
	}
	return start
}

// findNumberEnd scans the right operand starting at pos. For a
// parenthesized group, text is the group's contents.
func findNumberEnd(s string, pos int) (end int, text string, grouped bool) {
	if pos < len(s) && s[pos] == '(' {
		depth := 0
		for i := pos; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return i + 1, s[pos+1 : i], true
				}
			}
		}
		return pos, "", false
	}

	end = pos
	if end < len(s) && s[end] == '-' {
		end++
	}
	for end < len(s) && (isDigit(s[end]) || s[end] == '.') {
		end++
	}
	if end == pos || s[pos:end] == "-" {
		return pos, "", false
	}
	return end, s[pos:end], false
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
