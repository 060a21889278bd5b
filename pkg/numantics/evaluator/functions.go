package evaluator

import (
	"math"
	"sort"

	"golang.org/x/text/cases"
)

// FunctionPlaces is the number of decimal places a function result is
// rounded to before it takes part in the rest of the expression.
const FunctionPlaces = 10

// Function describes one named unary function.
type Function struct {
	Name        string
	Description string
	Example     string
	Fn          func(float64) float64
}

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

var functions = map[string]*Function{
	"sqrt": {
		Name:        "sqrt",
		Description: "Square root",
		Example:     "sqrt(16) = 4",
		Fn:          math.Sqrt,
	},
	"sin": {
		Name:        "sin",
		Description: "Sine of an angle in degrees",
		Example:     "sin(90) = 1",
		Fn:          func(x float64) float64 { return math.Sin(x * degToRad) },
	},
	"cos": {
		Name:        "cos",
		Description: "Cosine of an angle in degrees",
		Example:     "cos(60) = 0.5",
		Fn:          func(x float64) float64 { return math.Cos(x * degToRad) },
	},
	"tan": {
		Name:        "tan",
		Description: "Tangent of an angle in degrees",
		Example:     "tan(45) = 1",
		Fn:          func(x float64) float64 { return math.Tan(x * degToRad) },
	},
	"asin": {
		Name:        "asin",
		Description: "Inverse sine, in degrees",
		Example:     "asin(1) = 90",
		Fn:          func(x float64) float64 { return math.Asin(x) * radToDeg },
	},
	"acos": {
		Name:        "acos",
		Description: "Inverse cosine, in degrees",
		Example:     "acos(0) = 90",
		Fn:          func(x float64) float64 { return math.Acos(x) * radToDeg },
	},
	"atan": {
		Name:        "atan",
		Description: "Inverse tangent, in degrees",
		Example:     "atan(1) = 45",
		Fn:          func(x float64) float64 { return math.Atan(x) * radToDeg },
	},
	"log10": {
		Name:        "log10",
		Description: "Base-10 logarithm",
		Example:     "log10(1000) = 3",
		Fn:          math.Log10,
	},
	"log": {
		Name:        "log",
		Description: "Natural logarithm (same as ln)",
		Example:     "log(1) = 0",
		Fn:          math.Log,
	},
	"ln": {
		Name:        "ln",
		Description: "Natural logarithm",
		Example:     "ln(1) = 0",
		Fn:          math.Log,
	},
	"abs": {
		Name:        "abs",
		Description: "Absolute value",
		Example:     "abs(-5) = 5",
		Fn:          math.Abs,
	},
	"floor": {
		Name:        "floor",
		Description: "Largest integer not greater than the argument",
		Example:     "floor(2.7) = 2",
		Fn:          math.Floor,
	},
	"ceil": {
		Name:        "ceil",
		Description: "Smallest integer not less than the argument",
		Example:     "ceil(2.1) = 3",
		Fn:          math.Ceil,
	},
}

// Lookup finds a function by name, ignoring case.
func Lookup(name string) (*Function, bool) {
	// cases.Caser is stateful, so each lookup gets its own.
	fn, ok := functions[cases.Fold().String(name)]
	return fn, ok
}

// IsFunction reports whether name is a known function, ignoring case.
func IsFunction(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// FunctionNames returns the known function names in alphabetical order.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Functions returns every function, ordered by name.
func Functions() []*Function {
	names := FunctionNames()
	out := make([]*Function, len(names))
	for i, name := range names {
		out[i] = functions[name]
	}
	return out
}

// Apply calls the function and rounds the result to FunctionPlaces.
// ok is false when the result is not a finite number.
func (f *Function) Apply(arg float64) (result float64, ok bool) {
	v := f.Fn(arg)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, false
	}
	return RoundAwayFromZero(v, FunctionPlaces), true
}
