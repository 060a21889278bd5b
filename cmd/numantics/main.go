package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nalathethird/numantics/config"
	"github.com/nalathethird/numantics/pkg/numantics/editor"
	"github.com/nalathethird/numantics/pkg/numantics/help"
	"github.com/nalathethird/numantics/pkg/numantics/numantics"
	"github.com/nalathethird/numantics/pkg/numantics/repl"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

// errFailed reports that some input failed after its diagnostics were printed.
var errFailed = errors.New("one or more expressions failed")

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	if len(args) > 0 && args[0] == "describe" {
		return describeCommand(args[1:], stdout)
	}

	flags := flag.NewFlagSet("numantics", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printUsage(stderr) }

	var (
		evalExpr    = flags.String("e", "", "Evaluate an expression")
		configPath  = flags.String("config", "", "Path to config file")
		engine      = flags.String("engine", "", "Evaluation engine: ast or rewrite")
		fieldKind   = flags.String("field", "float", "Field kind: float, integer or string")
		round       = flags.Bool("round", false, "Round results to integers")
		strs        = flags.Bool("strings", false, "Evaluate string fields")
		verbose     = flags.Bool("v", false, "Log each evaluation step to stderr")
		jsonOut     = flags.Bool("json", false, "Print results as JSON")
		check       = flags.Bool("check", false, "Check syntax without evaluating")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)
	flags.StringVar(evalExpr, "eval", "", "Evaluate an expression")
	flags.BoolVar(verbose, "verbose", false, "Log each evaluation step to stderr")
	flags.BoolVar(showHelp, "h", false, "Show help")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "numantics version %s\n", Version)
		return nil
	}

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cli := settings{engine: *engine, round: *round, strings: *strs, verbose: *verbose}
	cli.apply(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	diag := numantics.WriterLogger(stderr)
	for _, warning := range config.Warnings(cfg) {
		numantics.Warnf(diag, "%s", warning)
	}

	kind, err := editor.ParseFieldKind(*fieldKind)
	if err != nil {
		return err
	}

	logger := numantics.NullLogger()
	if cfg.VerboseLogging {
		logger = numantics.WriterLogger(stderr)
	}
	ed := editor.New(cfg, logger)

	switch {
	case *evalExpr != "":
		return evalLines(ed, kind, []source{{name: "-e", r: strings.NewReader(*evalExpr)}}, *jsonOut, stdout, diag)

	case *check:
		files := flags.Args()
		if len(files) == 0 {
			return errors.New("--check requires at least one file")
		}
		return checkFiles(files, stdout, diag)

	case flags.NArg() > 0:
		sources, closeAll, err := openFiles(flags.Args())
		if err != nil {
			return err
		}
		defer closeAll()
		return evalLines(ed, kind, sources, *jsonOut, stdout, diag)

	case isTerminal(stdin):
		return startREPL(ctx, cfg, cli, stdout, stderr, getenv)

	default:
		return evalLines(ed, kind, []source{{name: "stdin", r: stdin}}, *jsonOut, stdout, diag)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `numantics - inline arithmetic evaluator version %s

Usage:
  numantics                       Start interactive REPL
  numantics -e "expr"             Evaluate one expression
  numantics [options] <file>...   Evaluate each line of each file
  numantics --check <file>...     Check syntax without evaluating
  numantics describe <topic>      Show help for functions, operators, shorthand, constants

Options:
  -e, --eval <expr>     Evaluate an expression
  --config <path>       Config file (default: $NUMANTICS_CONFIG, ./numantics.yaml,
                        ~/.config/numantics/numantics.yaml)
  --engine <name>       ast (default) or rewrite
  --field <kind>        float (default), integer or string
  --round               Round results to integers
  --strings             Evaluate string fields
  -v, --verbose         Log each evaluation step to stderr
  --json                Print results as JSON
  -h, --help            Show this help message
  --version             Show version information

Examples:
  numantics -e "3x(1a1)"          6
  numantics -e "200*50%%"          100
  numantics --round -e "5*0.5"    3
  echo "sqrt(16)" | numantics     4
`, Version)
}

// settings holds the options given as flags. They win over the config
// file, including every version of it reloaded while the REPL runs.
type settings struct {
	engine  string
	round   bool
	strings bool
	verbose bool
}

func (s settings) apply(cfg *config.Config) {
	if s.engine != "" {
		cfg.Engine = s.engine
	}
	if s.round {
		cfg.RoundResults = true
	}
	if s.strings {
		cfg.IncludeStrings = true
	}
	if s.verbose {
		cfg.VerboseLogging = true
	}
}

type source struct {
	name string
	r    io.Reader
}

func openFiles(paths []string) ([]source, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening %s: %w", path, err)
		}
		files = append(files, f)
		sources = append(sources, source{name: path, r: f})
	}
	return sources, closeAll, nil
}

// evalLines treats each non-empty line as a finished field and prints its
// final text. Lines that fail are printed unchanged and reported to diag.
func evalLines(ed *editor.Editor, kind editor.FieldKind, sources []source, jsonOut bool, stdout io.Writer, diag numantics.Logger) error {
	failed := false

	for _, src := range sources {
		scanner := bufio.NewScanner(src.r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			text := scanner.Text()
			if strings.TrimSpace(text) == "" {
				continue
			}

			field := &editor.Field{Kind: kind, Text: text}
			outcome := ed.Finish(field)

			if outcome.Result.Kind == numantics.Failed && outcome.Action == editor.Unchanged {
				failed = true
				numantics.Errorf(diag, "%s:%d: %s", src.name, lineNo, outcome.Result.Err.PrettyString())
			}

			if jsonOut {
				if err := writeJSON(stdout, text, outcome); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(stdout, field.Text)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading %s: %w", src.name, err)
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

func writeJSON(w io.Writer, text string, outcome editor.Outcome) error {
	res := outcome.Result
	res.Input = text
	if outcome.Action == editor.Overridden {
		res.Kind = numantics.Evaluated
		res.Value = outcome.After
	}
	data, err := res.ToJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// checkFiles parses every expression line and reports syntax errors
func checkFiles(files []string, stdout io.Writer, diag numantics.Logger) error {
	problems := 0

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		for i, text := range strings.Split(string(data), "\n") {
			if cerr := numantics.Check(text); cerr != nil {
				problems++
				numantics.Errorf(diag, "%s:%d:%d: %s", path, i+1, cerr.Column, cerr.Message)
			}
		}
	}

	if problems > 0 {
		diag.LogLine(fmt.Sprintf("%d syntax error(s)", problems))
		return errFailed
	}
	fmt.Fprintf(stdout, "ok: %d file(s)\n", len(files))
	return nil
}

// describeCommand implements 'numantics describe [--json] <topic>'
func describeCommand(args []string, stdout io.Writer) error {
	jsonOutput := false
	var topic string

	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if topic == "" {
		return fmt.Errorf("usage: numantics describe [--json] <topic>\n\nTopics:\n  %s\n  <function>   help for one function (sqrt, sin, log10, ...)",
			strings.Join(help.Topics, "\n  "))
	}

	result, err := help.DescribeTopic(topic)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := help.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	fmt.Fprint(stdout, help.FormatText(result, 80))
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// startREPL runs the interactive shell, reloading the config file while it runs
func startREPL(ctx context.Context, cfg *config.Config, cli settings, stdout, stderr io.Writer, getenv func(string) string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	session := repl.NewSession(cfg, stdout)
	diag := numantics.WriterLogger(stderr)

	if cfg.Path != "" {
		watcher, err := config.NewWatcher(cfg.Path, getenv, reloadInto(session, cli), stderr, stderr)
		if err != nil {
			numantics.Warnf(diag, "config reload disabled: %v", err)
		} else {
			defer watcher.Close()
			if err := watcher.Start(ctx); err != nil {
				numantics.Warnf(diag, "config reload disabled: %v", err)
			}
		}
	}

	session.Run(Version)
	return nil
}

// reloadInto returns the watcher callback for session. Flag settings are
// applied to each reloaded config before the session installs it.
func reloadInto(session *repl.Session, cli settings) func(*config.Config) {
	return func(cfg *config.Config) {
		cli.apply(cfg)
		session.Reload(cfg)
	}
}
