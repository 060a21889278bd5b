package editor

import (
	"strings"
	"sync"
	"testing"

	"github.com/nalathethird/numantics/config"
	"github.com/nalathethird/numantics/pkg/numantics/numantics"
)

func newTestEditor(t *testing.T, modify func(*config.Config)) (*Editor, *numantics.BufferedLogger) {
	t.Helper()
	cfg := config.Defaults()
	if modify != nil {
		modify(cfg)
	}
	logger := numantics.NewBufferedLogger()
	return New(cfg, logger), logger
}

func TestFinishCommitsResult(t *testing.T) {
	ed, logger := newTestEditor(t, nil)

	field := &Field{Kind: Float, Text: "3x(1a1)"}
	out := ed.Finish(field)

	if out.Action != Committed {
		t.Fatalf("action = %s, want committed", out.Action)
	}
	if field.Text != "6" {
		t.Errorf("field text = %q, want 6", field.Text)
	}
	if out.Before != "3x(1a1)" || out.After != "6" {
		t.Errorf("outcome = %+v", out)
	}
	if !strings.Contains(logger.String(), "[INFO] SUCCESS - Evaluated '3x(1a1)' => '6'") {
		t.Errorf("missing success line:\n%s", logger.String())
	}
}

func TestFinishLeavesFieldOnFailure(t *testing.T) {
	ed, logger := newTestEditor(t, nil)

	for _, text := range []string{"2^", "sqrt(", "1/0"} {
		field := &Field{Kind: Float, Text: text}
		out := ed.Finish(field)
		if out.Action != Unchanged {
			t.Errorf("%q: action = %s", text, out.Action)
		}
		if field.Text != text {
			t.Errorf("%q: field changed to %q", text, field.Text)
		}
	}

	if !strings.Contains(logger.String(), "[WARN] Expression evaluation failed for '1/0': division by zero") {
		t.Errorf("missing warning:\n%s", logger.String())
	}
}

func TestFinishMasterSwitch(t *testing.T) {
	ed, _ := newTestEditor(t, func(cfg *config.Config) { cfg.EnableMath = false })

	field := &Field{Kind: Float, Text: "2+2"}
	out := ed.Finish(field)
	if out.Action != Unchanged || field.Text != "2+2" {
		t.Errorf("disabled editor changed the field: %+v", out)
	}
	if out.Result.OK() {
		t.Error("skipped field reports a successful result")
	}
}

func TestFinishStringFields(t *testing.T) {
	ed, _ := newTestEditor(t, nil)

	field := &Field{Kind: String, Text: "2+2"}
	ed.Finish(field)
	if field.Text != "2+2" {
		t.Errorf("string field evaluated without include_strings: %q", field.Text)
	}

	ed.Update(func(cfg *config.Config) { cfg.IncludeStrings = true })
	ed.Finish(field)
	if field.Text != "4" {
		t.Errorf("string field with include_strings = %q, want 4", field.Text)
	}
}

func TestFinishIntegerFieldsRound(t *testing.T) {
	ed, _ := newTestEditor(t, nil)

	intField := &Field{Kind: Integer, Text: "5*0.5"}
	ed.Finish(intField)
	if intField.Text != "3" {
		t.Errorf("integer field = %q, want 3", intField.Text)
	}

	floatField := &Field{Kind: Float, Text: "5*0.5"}
	ed.Finish(floatField)
	if floatField.Text != "2.5" {
		t.Errorf("float field = %q, want 2.5", floatField.Text)
	}

	ed.Update(func(cfg *config.Config) { cfg.RoundResults = true })
	floatField.Text = "5*0.5"
	ed.Finish(floatField)
	if floatField.Text != "3" {
		t.Errorf("float field with round_results = %q, want 3", floatField.Text)
	}
}

func TestFinishOverrides(t *testing.T) {
	ed, logger := newTestEditor(t, func(cfg *config.Config) {
		cfg.Overrides["2+2"] = "5"
	})

	field := &Field{Kind: Float, Text: "2 + 2"}
	out := ed.Finish(field)
	if out.Action != Overridden || field.Text != "5" {
		t.Errorf("override not applied: %+v, text %q", out, field.Text)
	}
	if !strings.Contains(logger.String(), "OVERRIDE - '2+2' => '5'") {
		t.Errorf("missing override line:\n%s", logger.String())
	}

	// Overrides respect the string-field policy
	field = &Field{Kind: String, Text: "2+2"}
	if out := ed.Finish(field); out.Action != Unchanged {
		t.Errorf("override applied to a string field: %+v", out)
	}
}

func TestFinishNotAnExpression(t *testing.T) {
	ed, logger := newTestEditor(t, func(cfg *config.Config) { cfg.VerboseLogging = true })

	for _, text := range []string{"42", "   ", "hello"} {
		field := &Field{Kind: Float, Text: text}
		if out := ed.Finish(field); out.Action != Unchanged || field.Text != text {
			t.Errorf("%q: %+v", text, out)
		}
	}
	if !strings.Contains(logger.String(), "Not a math expression: 'hello'") {
		t.Errorf("missing verbose line:\n%s", logger.String())
	}
}

func TestFinishNilField(t *testing.T) {
	ed, _ := newTestEditor(t, nil)
	if out := ed.Finish(nil); out.Action != Unchanged {
		t.Errorf("nil field: %+v", out)
	}
}

func TestParseFieldKind(t *testing.T) {
	tests := map[string]FieldKind{
		"":       Unknown,
		"int":    Integer,
		"Long":   Integer,
		"double": Float,
		"string": String,
	}
	for name, want := range tests {
		got, err := ParseFieldKind(name)
		if err != nil || got != want {
			t.Errorf("ParseFieldKind(%q) = %s, %v", name, got, err)
		}
	}
	if _, err := ParseFieldKind("color"); err == nil {
		t.Error("ParseFieldKind(color) should fail")
	}
}

func TestConcurrentFinishAndSetConfig(t *testing.T) {
	ed, _ := newTestEditor(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				field := &Field{Kind: Float, Text: "1+1"}
				ed.Finish(field)
				if field.Text != "2" {
					t.Errorf("got %q", field.Text)
					return
				}
			}
		}()
		go func(engine string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ed.Update(func(cfg *config.Config) { cfg.Engine = engine })
			}
		}([]string{"ast", "rewrite"}[i%2])
	}
	wg.Wait()
}
