// Package errors provides structured error types for the numantics evaluator.
//
// CalcError is a single error type for parse failures, malformed operands and
// evaluation failures, carrying enough metadata for display, JSON output and
// programmatic handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse      ErrorClass = "parse"      // Syntax errors
	ClassOperand    ErrorClass = "operand"    // An operand could not be read as a number
	ClassEvaluation ErrorClass = "evaluation" // The compute step failed
	ClassUndefined  ErrorClass = "undefined"  // Unknown function or constant
	ClassLimit      ErrorClass = "limit"      // Input or rewrite limits exceeded
)

// CalcError represents any error from parsing or evaluating an expression.
type CalcError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "CALC-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	Input   string         `json:"input,omitempty"` // Expression the column refers to
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *CalcError) String() string {
	var sb strings.Builder

	if e.Column > 0 {
		sb.WriteString(fmt.Sprintf("column %d: ", e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display, with a
// pointer under the offending column when the input is known.
func (e *CalcError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Syntax error")
	default:
		sb.WriteString("Evaluation error")
	}

	if e.Column > 0 {
		sb.WriteString(fmt.Sprintf(": column %d\n  ", e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	if e.Input != "" && e.Column > 0 && e.Column <= len(e.Input)+1 {
		sb.WriteString("\n    ")
		sb.WriteString(e.Input)
		sb.WriteString("\n    ")
		sb.WriteString(strings.Repeat(" ", e.Column-1))
		sb.WriteString("^")
	}

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *CalcError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithColumn returns a copy of the error with the column set.
func (e *CalcError) WithColumn(column int) *CalcError {
	copy := *e
	copy.Column = column
	return &copy
}

// WithInput returns a copy of the error that refers to input.
func (e *CalcError) WithInput(input string) *CalcError {
	copy := *e
	copy.Input = input
	return &copy
}

// IsParseError returns true if this is a syntax error.
func (e *CalcError) IsParseError() bool {
	return e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Parse errors (PARSE-0xxx)
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "unbalanced parentheses",
		Hints:    []string{"every '(' needs a matching ')'"},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "'{{.Name}}' is not a function call",
		Hints:    []string{"use an explicit operator: {{.Left}}*(...)"},
	},

	// Evaluation errors (CALC-0xxx)
	"CALC-0001": {
		Class:    ClassEvaluation,
		Template: "{{.Operation}} produced a non-finite result",
	},
	"CALC-0002": {
		Class:    ClassOperand,
		Template: "malformed operand '{{.Operand}}'",
	},
	"CALC-0003": {
		Class:    ClassEvaluation,
		Template: "could not evaluate '{{.Expression}}': {{.Reason}}",
	},
	"CALC-0004": {
		Class:    ClassOperand,
		Template: "{{.Function}}({{.Argument}}) is undefined",
	},
	"CALC-0005": {
		Class:    ClassEvaluation,
		Template: "division by zero",
	},
	"CALC-0006": {
		Class:    ClassLimit,
		Template: "{{.Stage}} did not settle after {{.Limit}} rewrites",
	},
	"CALC-0007": {
		Class:    ClassLimit,
		Template: "input is {{.Length}} bytes long, the limit is {{.Limit}}",
	},

	// Undefined names (UNDEF-0xxx)
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "unknown function '{{.Name}}'",
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "'{{.Name}}' is a function and needs an argument",
		Hints:    []string{"{{.Name}}(...)"},
	},
}

// New creates a CalcError from the catalog.
// Unknown codes produce a generic evaluation error carrying the code.
func New(code string, data map[string]any) *CalcError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &CalcError{
			Class:   ClassEvaluation,
			Code:    code,
			Message: fmt.Sprintf("unknown error %s", code),
			Data:    data,
		}
	}

	var hints []string
	for _, h := range def.Hints {
		hints = append(hints, renderTemplate(h, data))
	}

	return &CalcError{
		Class:   def.Class,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Hints:   hints,
		Data:    data,
	}
}

// NewWithColumn creates a CalcError from the catalog at a column.
func NewWithColumn(code string, column int, data map[string]any) *CalcError {
	err := New(code, data)
	err.Column = column
	return err
}

// NewSimple creates an error without the catalog.
func NewSimple(class ErrorClass, message string) *CalcError {
	return &CalcError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// threshold returns the largest edit distance worth suggesting for input.
// Short words (1-3): 1 edit, medium words (4-6): 2 edits, longer: 3.
func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise empty string.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	// Don't suggest if distance is 0 (exact match) or over threshold
	if bestDistance <= 0 || bestDistance > threshold(input) {
		return ""
	}

	return bestMatch
}

// FindTopMatches returns up to n candidates within the threshold, closest first.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	type match struct {
		value    string
		distance int
	}

	inputLower := strings.ToLower(input)
	var matches []match
	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if dist > 0 {
			matches = append(matches, match{candidate, dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	limit := threshold(input)
	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		if matches[i].distance <= limit {
			result = append(result, matches[i].value)
		}
	}
	return result
}

// NewUndefinedFunction creates an unknown-function error with an optional
// "Did you mean" hint drawn from the known function names.
func NewUndefinedFunction(name string, column int, known []string) *CalcError {
	err := NewWithColumn("UNDEF-0001", column, map[string]any{"Name": name})

	if suggestion := FindClosestMatch(name, known); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
