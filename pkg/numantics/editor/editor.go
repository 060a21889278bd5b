// Package editor applies evaluation to a text field when editing finishes.
//
// The host tells the editor what kind of value the field holds. Integer
// fields always receive whole numbers; string fields are only touched when
// the config allows it. A successful result replaces the field text, and
// anything else leaves the field exactly as typed.
package editor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nalathethird/numantics/config"
	"github.com/nalathethird/numantics/pkg/numantics/numantics"
)

// FieldKind is the type of value a field edits.
type FieldKind int

const (
	Unknown FieldKind = iota
	String
	Integer
	Float
)

func (k FieldKind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	}
	return "unknown"
}

// ParseFieldKind converts a name such as "int" or "string" to a FieldKind.
func ParseFieldKind(name string) (FieldKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unknown":
		return Unknown, nil
	case "string", "str", "text":
		return String, nil
	case "integer", "int", "long", "short", "byte", "uint", "ulong", "ushort", "sbyte":
		return Integer, nil
	case "float", "double", "decimal":
		return Float, nil
	}
	return Unknown, fmt.Errorf("unknown field kind %q", name)
}

// Field is a text field being edited.
type Field struct {
	Kind FieldKind
	Text string
}

// Action says what Finish did to a field.
type Action int

const (
	Unchanged  Action = iota // field left as typed
	Committed                // evaluated result written
	Overridden               // configured override written
)

func (a Action) String() string {
	switch a {
	case Committed:
		return "committed"
	case Overridden:
		return "overridden"
	}
	return "unchanged"
}

// Outcome describes one Finish call.
type Outcome struct {
	Action Action
	Before string
	After  string
	Result numantics.Result // zero (NotAnExpression) when evaluation did not run
}

// Editor holds the live configuration. It is safe for concurrent use, and
// SetConfig may be called while fields are being finished.
type Editor struct {
	mu     sync.RWMutex
	cfg    *config.Config
	logger numantics.Logger
}

// New creates an editor. A nil cfg means config.Defaults(); a nil logger
// discards output.
func New(cfg *config.Config, logger numantics.Logger) *Editor {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = numantics.NullLogger()
	}
	return &Editor{cfg: cfg, logger: logger}
}

// Config returns the current configuration.
func (e *Editor) Config() *config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig replaces the configuration.
func (e *Editor) SetConfig(cfg *config.Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

// Update applies fn to a copy of the configuration and installs the copy.
func (e *Editor) Update(fn func(*config.Config)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg.Clone()
	fn(cfg)
	e.cfg = cfg
}

// Options returns the evaluation options for a field of the given kind.
func (e *Editor) Options(kind FieldKind) numantics.Options {
	return optionsFor(e.Config(), kind, e.logger)
}

func optionsFor(cfg *config.Config, kind FieldKind, logger numantics.Logger) numantics.Options {
	return numantics.Options{
		AllowStringFields: cfg.IncludeStrings,
		RoundToInteger:    cfg.RoundResults || kind == Integer,
		StringField:       kind == String,
		Verbose:           cfg.VerboseLogging,
		Engine:            numantics.Engine(cfg.Engine),
		MaxRewrites:       cfg.MaxRewrites,
		MaxInputLength:    cfg.MaxInputLength,
		Logger:            logger,
	}
}

// Finish runs when editing of field finishes. On success the field text is
// replaced; otherwise it is left untouched.
func (e *Editor) Finish(field *Field) Outcome {
	if field == nil {
		return Outcome{Action: Unchanged}
	}

	cfg := e.Config()
	out := Outcome{Action: Unchanged, Before: field.Text, After: field.Text}
	verbose := cfg.VerboseLogging

	if !cfg.EnableMath {
		if verbose {
			numantics.Infof(e.logger, "Math evaluation is disabled in config")
		}
		return out
	}

	if verbose {
		numantics.Infof(e.logger, "Input text: '%s'", field.Text)
	}

	if strings.TrimSpace(field.Text) == "" {
		if verbose {
			numantics.Infof(e.logger, "Text is empty or whitespace, skipping")
		}
		return out
	}

	if verbose {
		numantics.Infof(e.logger, "Detected field type: %s", field.Kind)
	}

	if field.Kind == String && !cfg.IncludeStrings {
		if verbose {
			numantics.Infof(e.logger, "Editing string field but include_strings is disabled, skipping")
		}
		return out
	}

	compact := strings.ReplaceAll(field.Text, " ", "")

	if replacement, ok := cfg.Overrides[compact]; ok {
		numantics.Infof(e.logger, "OVERRIDE - '%s' => '%s'", compact, replacement)
		field.Text = replacement
		out.Action = Overridden
		out.After = replacement
		return out
	}

	res := numantics.Evaluate(field.Text, optionsFor(cfg, field.Kind, e.logger))
	out.Result = res

	switch res.Kind {
	case numantics.Evaluated:
		numantics.Infof(e.logger, "SUCCESS - Evaluated '%s' => '%s'", compact, res.Value)
		field.Text = res.Value
		out.Action = Committed
		out.After = res.Value
		if verbose {
			numantics.Infof(e.logger, "Updated field text to '%s'", res.Value)
		}
	case numantics.Failed:
		numantics.Warnf(e.logger, "Expression evaluation failed for '%s': %s", field.Text, res.Err.Message)
	default:
		if verbose {
			numantics.Infof(e.logger, "Not a math expression: '%s'", field.Text)
		}
	}

	return out
}
