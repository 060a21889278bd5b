// Package normalize rewrites shorthand notation into plain arithmetic.
//
// Two substitutions are made, in order: the constant name "pi" becomes its
// decimal value, then each standalone shorthand letter becomes its
// operator. A letter is standalone when neither neighbour is an ASCII
// letter, so "3x2" is "3*2" while "max" and "sqrt" are untouched.
package normalize

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Shorthand maps a single letter to the operator it stands for.
type Shorthand struct {
	Letter   byte
	Operator byte
	Meaning  string
}

// Constant is a named value substituted before evaluation.
type Constant struct {
	Name  string
	Value float64
}

var shorthands = []Shorthand{
	{Letter: 'x', Operator: '*', Meaning: "multiply"},
	{Letter: 'd', Operator: '/', Meaning: "divide"},
	{Letter: 'a', Operator: '+', Meaning: "add"},
	{Letter: 's', Operator: '-', Meaning: "subtract"},
}

var constants = []Constant{
	{Name: "pi", Value: math.Pi},
}

// Shorthands returns the shorthand letters in lookup order.
func Shorthands() []Shorthand {
	out := make([]Shorthand, len(shorthands))
	copy(out, shorthands)
	return out
}

// Constants returns the named constants, ordered by name.
func Constants() []Constant {
	out := make([]Constant, len(constants))
	copy(out, constants)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Normalize applies constant and shorthand substitution to raw.
// Everything else, whitespace included, is left as it is.
func Normalize(raw string) string {
	s := raw
	for _, c := range constants {
		s = strings.ReplaceAll(s, c.Name, strconv.FormatFloat(c.Value, 'f', -1, 64))
	}
	return replaceShorthands(s)
}

func replaceShorthands(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		ch := s[i]
		op, ok := operatorFor(ch)
		if ok && !letterAt(s, i-1) && !letterAt(s, i+1) {
			b.WriteByte(op)
			continue
		}
		b.WriteByte(ch)
	}

	return b.String()
}

func operatorFor(ch byte) (byte, bool) {
	for _, sh := range shorthands {
		if sh.Letter == ch {
			return sh.Operator, true
		}
	}
	return 0, false
}

// letterAt reports whether s[i] exists and is an ASCII letter. Neighbours
// are judged on the original text, so "xx" keeps both letters.
func letterAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	ch := s[i]
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
