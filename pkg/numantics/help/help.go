// Package help describes the functions, operators, shorthand letters and
// constants the evaluator understands. It backs `numantics describe` and
// the REPL's :help command.
package help

import (
	"fmt"
	"strings"

	perrors "github.com/nalathethird/numantics/pkg/numantics/errors"
	"github.com/nalathethird/numantics/pkg/numantics/evaluator"
	"github.com/nalathethird/numantics/pkg/numantics/normalize"
)

// Topics lists the keyword topics accepted by DescribeTopic.
var Topics = []string{"functions", "operators", "shorthand", "constants"}

// TopicResult represents the help output for a topic
type TopicResult struct {
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Example     string  `json:"example,omitempty"`
	Entries     []Entry `json:"entries,omitempty"`
}

// Entry is one line of a list topic
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// DescribeTopic returns help information for the given topic: one of
// Topics, or a function name.
func DescribeTopic(topic string) (*TopicResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("no topic specified (try: %s, sqrt)", strings.Join(Topics, ", "))
	}

	switch strings.ToLower(topic) {
	case "functions":
		return describeFunctions(), nil
	case "operators":
		return describeOperators(), nil
	case "shorthand":
		return describeShorthand(), nil
	case "constants":
		return describeConstants(), nil
	}

	if fn, ok := evaluator.Lookup(topic); ok {
		return &TopicResult{
			Kind:        "function",
			Name:        fn.Name,
			Description: fn.Description,
			Example:     fn.Example,
		}, nil
	}

	return nil, unknownTopicError(topic)
}

func describeFunctions() *TopicResult {
	fns := evaluator.Functions()
	entries := make([]Entry, len(fns))
	for i, fn := range fns {
		entries[i] = Entry{Name: fn.Name + "(x)", Description: fn.Description, Example: fn.Example}
	}
	return &TopicResult{
		Kind:        "function-list",
		Name:        "functions",
		Description: "Functions take one argument. Angles are in degrees; results are rounded to 10 decimal places.",
		Entries:     entries,
	}
}

func describeOperators() *TopicResult {
	return &TopicResult{
		Kind:        "operator-list",
		Name:        "operators",
		Description: "Listed from tightest to loosest binding. Results are rounded to 7 decimal places.",
		Entries: []Entry{
			{Name: "( )", Description: "Grouping", Example: "(1+2)*3 = 9"},
			{Name: "%", Description: "Percent: the value divided by 100", Example: "200*50% = 100"},
			{Name: "^", Description: "Power, right associative", Example: "2^3^2 = 512"},
			{Name: "-x +x", Description: "Sign", Example: "-2^2 = -4"},
			{Name: "* /", Description: "Multiply, divide", Example: "10/4 = 2.5"},
			{Name: "+ -", Description: "Add, subtract", Example: "5-8 = -3"},
		},
	}
}

func describeShorthand() *TopicResult {
	shorthands := normalize.Shorthands()
	entries := make([]Entry, len(shorthands))
	for i, sh := range shorthands {
		entries[i] = Entry{
			Name:        string(sh.Letter),
			Description: fmt.Sprintf("%s (%c)", sh.Meaning, sh.Operator),
		}
	}
	entries[0].Example = "3x(1a1) = 6"
	entries[1].Example = "10d2 = 5"
	return &TopicResult{
		Kind:        "shorthand-list",
		Name:        "shorthand",
		Description: "A shorthand letter counts only when no letter is next to it, so function names are safe.",
		Entries:     entries,
	}
}

func describeConstants() *TopicResult {
	consts := normalize.Constants()
	entries := make([]Entry, len(consts))
	for i, c := range consts {
		entries[i] = Entry{Name: c.Name, Description: evaluator.FormatNumber(c.Value), Example: "2*" + c.Name + " = 6.2831853"}
	}
	return &TopicResult{
		Kind:        "constant-list",
		Name:        "constants",
		Description: "Constants are replaced by their value before anything else, so write 2*pi rather than 2pi.",
		Entries:     entries,
	}
}

// unknownTopicError generates a helpful error for unknown topics
func unknownTopicError(topic string) error {
	candidates := append(append([]string{}, Topics...), evaluator.FunctionNames()...)
	suggestions := perrors.FindTopMatches(strings.ToLower(topic), candidates, 3)

	if len(suggestions) > 0 {
		return fmt.Errorf("unknown topic: %s\nDid you mean: %s?", topic, strings.Join(suggestions, ", "))
	}

	return fmt.Errorf("unknown topic: %s\nTry: %s, or a function name such as sqrt", topic, strings.Join(Topics, ", "))
}
