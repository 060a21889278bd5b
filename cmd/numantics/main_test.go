package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nalathethird/numantics/config"
	"github.com/nalathethird/numantics/pkg/numantics/repl"
)

func noEnv(string) string { return "" }

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	chdirForTest(t, t.TempDir())
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, noEnv)
	return stdout.String(), stderr.String(), err
}

func TestEvalFlag(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"-e", "3x(1a1)"}, "6"},
		{[]string{"--eval", "200*50%"}, "100"},
		{[]string{"-e", "sqrt(16)"}, "4"},
		{[]string{"--round", "-e", "5*0.5"}, "3"},
		{[]string{"--field", "int", "-e", "5*0.5"}, "3"},
		{[]string{"--engine", "rewrite", "-e", "2^3^2"}, "64"},
		{[]string{"-e", "hello"}, "hello"},
	}

	for _, tt := range tests {
		stdout, _, err := runCLI(t, "", tt.args...)
		if err != nil {
			t.Errorf("%v: unexpected error: %v", tt.args, err)
			continue
		}
		if got := strings.TrimSpace(stdout); got != tt.expected {
			t.Errorf("%v: expected %q, got %q", tt.args, tt.expected, got)
		}
	}
}

func TestEvalFailureLeavesText(t *testing.T) {
	stdout, stderr, err := runCLI(t, "", "-e", "1/0")
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	if strings.TrimSpace(stdout) != "1/0" {
		t.Errorf("expected original text, got %q", stdout)
	}
	if !strings.Contains(stderr, "division by zero") {
		t.Errorf("expected division error on stderr, got %q", stderr)
	}
}

func TestStringFields(t *testing.T) {
	stdout, _, _ := runCLI(t, "", "--field", "string", "-e", "2+2")
	if strings.TrimSpace(stdout) != "2+2" {
		t.Errorf("string field should be left alone, got %q", stdout)
	}

	stdout, _, _ = runCLI(t, "", "--field", "string", "--strings", "-e", "2+2")
	if strings.TrimSpace(stdout) != "4" {
		t.Errorf("expected 4 with --strings, got %q", stdout)
	}
}

func TestStdinBatch(t *testing.T) {
	input := "1+1\n\nplain text\n10d4\n"
	stdout, _, err := runCLI(t, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "2\nplain text\n2.5\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestFileBatchReportsLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fields.txt")
	if err := os.WriteFile(path, []byte("2*3\n(1+2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := runCLI(t, "", path)
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	if stdout != "6\n(1+2\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, path+":2:") {
		t.Errorf("expected line reference in %q", stderr)
	}
}

func TestJSONOutput(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--json", "-e", "2+2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"kind":"evaluated"`) || !strings.Contains(stdout, `"value":"4"`) {
		t.Errorf("unexpected JSON %q", stdout)
	}

	stdout, _, _ = runCLI(t, "", "--json", "-e", "1/0")
	if !strings.Contains(stdout, `"code":"CALC-0005"`) {
		t.Errorf("expected error code in %q", stdout)
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	os.WriteFile(good, []byte("1+2\nsqrt(4)\nnot math\n"), 0644)
	os.WriteFile(bad, []byte("1+2\n2*(3\n"), 0644)

	stdout, _, err := runCLI(t, "", "--check", good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "ok: 1 file(s)") {
		t.Errorf("unexpected output %q", stdout)
	}

	_, stderr, err := runCLI(t, "", "--check", bad)
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	if !strings.Contains(stderr, bad+":2:") {
		t.Errorf("expected location in %q", stderr)
	}

	if _, _, err := runCLI(t, "", "--check"); err == nil {
		t.Error("expected error without files")
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "numantics.yaml")
	cfg := "round_results: true\noverrides:\n  \"2+2\": \"fish\"\n"
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, "2 + 2\n1/3\n", "--config", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "fish\n0\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "numantics.yaml")
	os.WriteFile(path, []byte("engine: abacus\n"), 0644)

	_, _, err := runCLI(t, "", "--config", path, "-e", "1+1")
	if err == nil || !strings.Contains(err.Error(), "engine") {
		t.Errorf("expected engine error, got %v", err)
	}

	_, _, err = runCLI(t, "", "--engine", "abacus", "-e", "1+1")
	if err == nil {
		t.Error("expected error for unknown engine flag")
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	_, stderr, err := runCLI(t, "", "-v", "-e", "sqrt(16)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "[INFO] Function: sqrt(16) = 4") {
		t.Errorf("expected trace in %q", stderr)
	}
}

func TestDescribe(t *testing.T) {
	stdout, _, err := runCLI(t, "", "describe", "sqrt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "sqrt(x)") {
		t.Errorf("unexpected output %q", stdout)
	}

	stdout, _, err = runCLI(t, "", "describe", "--json", "shorthand")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"kind": "shorthand-list"`) {
		t.Errorf("unexpected JSON %q", stdout)
	}

	if _, _, err := runCLI(t, "", "describe"); err == nil {
		t.Error("expected usage error without topic")
	}

	_, _, err = runCLI(t, "", "describe", "sqr")
	if err == nil || !strings.Contains(err.Error(), "sqrt") {
		t.Errorf("expected suggestion, got %v", err)
	}
}

func TestVersionAndHelp(t *testing.T) {
	stdout, _, _ := runCLI(t, "", "--version")
	if !strings.Contains(stdout, "numantics version") {
		t.Errorf("unexpected version output %q", stdout)
	}

	stdout, _, _ = runCLI(t, "", "-h")
	if !strings.Contains(stdout, "Usage:") {
		t.Errorf("unexpected help output %q", stdout)
	}
}

func TestReloadKeepsFlagSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "numantics.yaml")
	if err := os.WriteFile(path, []byte("engine: ast\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFile(path, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	cli := settings{round: true}
	cli.apply(cfg)

	var out bytes.Buffer
	session := repl.NewSession(cfg, &out)

	session.Handle("5*0.5")
	if out.String() != "3\n" {
		t.Fatalf("expected 3 before reload, got %q", out.String())
	}

	reloaded := make(chan struct{}, 4)
	onChange := reloadInto(session, cli)
	watcher, err := config.NewWatcher(path, noEnv, func(c *config.Config) {
		onChange(c)
		reloaded <- struct{}{}
	}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("engine: ast\ninclude_strings: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	got := session.Editor().Config()
	if !got.RoundResults {
		t.Error("--round was dropped by the reload")
	}
	if !got.IncludeStrings {
		t.Error("the reloaded file was not installed")
	}

	out.Reset()
	session.Handle("5*0.5")
	if out.String() != "3\n" {
		t.Errorf("expected 3 after reload, got %q", out.String())
	}
}

func TestSettingsApply(t *testing.T) {
	cfg := config.Defaults()
	settings{engine: "rewrite", strings: true, verbose: true}.apply(cfg)
	if cfg.Engine != "rewrite" || !cfg.IncludeStrings || !cfg.VerboseLogging || cfg.RoundResults {
		t.Errorf("unexpected config after apply: %+v", cfg)
	}

	// Unset flags leave the file's values alone
	cfg = config.Defaults()
	cfg.RoundResults = true
	settings{}.apply(cfg)
	if !cfg.RoundResults || cfg.Engine != "ast" {
		t.Errorf("empty settings changed the config: %+v", cfg)
	}
}

func TestJSONForSkippedField(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--json", "--field", "string", "-e", "2+2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"kind":"not_an_expression"`) || !strings.Contains(stdout, `"input":"2+2"`) {
		t.Errorf("unexpected JSON %q", stdout)
	}
}

func TestDiagnosticsAreTagged(t *testing.T) {
	_, stderr, _ := runCLI(t, "", "-e", "1/0")
	if !strings.HasPrefix(stderr, "[ERROR] -e:1: ") {
		t.Errorf("expected an [ERROR] line, got %q", stderr)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "numantics.yaml")
	os.WriteFile(path, []byte("include_strings: true\n"), 0644)
	_, stderr, _ = runCLI(t, "", "--config", path, "-e", "1+1")
	if !strings.Contains(stderr, "[WARN] ") {
		t.Errorf("expected a [WARN] line for include_strings, got %q", stderr)
	}
}

// chdirForTest changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
