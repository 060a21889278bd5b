// Package repl is an interactive calculator shell. Each line is treated as
// a field whose editing just finished, so it behaves exactly like an
// edited field in the host.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"

	"github.com/nalathethird/numantics/config"
	"github.com/nalathethird/numantics/pkg/numantics/editor"
	"github.com/nalathethird/numantics/pkg/numantics/evaluator"
	"github.com/nalathethird/numantics/pkg/numantics/help"
	"github.com/nalathethird/numantics/pkg/numantics/numantics"
)

const PROMPT = "= "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
█▄░█ █░█ █▀▄▀█ ▄▀█ █▄░█ ▀█▀ █ █▀▀ █▀
█░▀█ █▄█ █░▀░█ █▀█ █░▀█ ░█░ █ █▄▄ ▄█ `

var commandWords = []string{
	":help", ":round", ":strings", ":engine", ":verbose", ":config",
	":field", ":describe", ":tree", "exit", "quit",
}

// Session evaluates REPL lines against an editor. It holds no terminal
// state, so it can be driven from tests.
type Session struct {
	editor *editor.Editor
	logs   *numantics.BufferedLogger
	out    io.Writer
	kind   editor.FieldKind

	// Settings changed by commands, reapplied on Reload
	mu     sync.Mutex
	pinned map[string]func(*config.Config)
}

// NewSession creates a session with its own editor over cfg.
func NewSession(cfg *config.Config, out io.Writer) *Session {
	logs := numantics.NewBufferedLogger()
	return &Session{
		editor: editor.New(cfg, logs),
		logs:   logs,
		out:    out,
		kind:   editor.Float,
		pinned: map[string]func(*config.Config){},
	}
}

// Editor returns the session's editor.
func (s *Session) Editor() *editor.Editor {
	return s.editor
}

// Reload installs a reloaded config. Settings changed with :round,
// :strings, :verbose and :engine during the session stay in effect.
func (s *Session) Reload(cfg *config.Config) {
	s.mu.Lock()
	for _, set := range s.pinned {
		set(cfg)
	}
	s.mu.Unlock()
	s.editor.SetConfig(cfg)
}

func (s *Session) pin(name string, set func(*config.Config)) {
	s.mu.Lock()
	s.pinned[name] = set
	s.mu.Unlock()
}

// Start starts the REPL with line editing, history, and tab completion.
func Start(cfg *config.Config, out io.Writer, version string) {
	s := NewSession(cfg, out)
	s.Run(version)
}

// Run reads lines from the terminal until exit.
func (s *Session) Run(version string) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	historyFile := s.editor.Config().REPL.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".numantics_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(s.out, "%s", LOGO)
	fmt.Fprintln(s.out, "v", version)
	fmt.Fprintln(s.out, "")
	fmt.Fprintln(s.out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(s.out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(s.out, "Type ':help' for REPL commands")
	fmt.Fprintln(s.out, "")

	var inputBuffer strings.Builder

	for {
		prompt := s.editor.Config().REPL.Prompt
		if prompt == "" {
			prompt = PROMPT
		}
		if inputBuffer.Len() > 0 {
			prompt = CONTINUATION_PROMPT
		}

		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(s.out, "^C (cleared)")
				} else {
					fmt.Fprintln(s.out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(s.out, "Error reading input: %v\n", err)
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString(" ")
		}
		inputBuffer.WriteString(input)

		full := inputBuffer.String()
		if needsMoreInput(full) {
			continue
		}
		inputBuffer.Reset()

		if strings.TrimSpace(full) != "" {
			line.AppendHistory(full)
		}

		if quit := s.Handle(full); quit {
			fmt.Fprintln(s.out, "Goodbye!")
			return
		}
	}
}

// Handle processes one complete line and reports whether the user asked
// to quit.
func (s *Session) Handle(input string) bool {
	trimmed := strings.TrimSpace(input)

	switch {
	case trimmed == "exit" || trimmed == "quit":
		return true
	case trimmed == "":
		return false
	case strings.HasPrefix(trimmed, ":"):
		s.handleCommand(trimmed)
		return false
	}

	field := &editor.Field{Kind: s.kind, Text: input}
	outcome := s.editor.Finish(field)
	s.flushLogs()

	switch outcome.Action {
	case editor.Committed, editor.Overridden:
		fmt.Fprintln(s.out, outcome.After)
	default:
		switch {
		case outcome.Result.Kind == numantics.Failed && outcome.Result.Err != nil:
			fmt.Fprintln(s.out, outcome.Result.Err.PrettyString())
		case outcome.Result.Kind == numantics.NotAnExpression:
			fmt.Fprintln(s.out, "(not an expression)")
		default:
			fmt.Fprintln(s.out, "(unchanged)")
		}
	}
	return false
}

// flushLogs prints captured log lines when verbose logging is on
func (s *Session) flushLogs() {
	lines := s.logs.Drain()
	if !s.editor.Config().VerboseLogging {
		return
	}
	for _, line := range lines {
		fmt.Fprintln(s.out, line)
	}
}

// handleCommand handles REPL meta-commands that start with ':'
func (s *Session) handleCommand(cmd string) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?       Show this help")
		fmt.Fprintln(s.out, "  :round              Toggle rounding results to integers")
		fmt.Fprintln(s.out, "  :strings            Toggle evaluation of string fields")
		fmt.Fprintln(s.out, "  :verbose            Toggle step-by-step logging")
		fmt.Fprintln(s.out, "  :engine [ast|rewrite]  Show or set the evaluation engine")
		fmt.Fprintln(s.out, "  :field [kind]       Show or set the field kind (float, integer, string)")
		fmt.Fprintln(s.out, "  :config             Show the current configuration")
		fmt.Fprintln(s.out, "  :describe <topic>   Describe functions, operators, shorthand, constants or a function")
		fmt.Fprintln(s.out, "  :tree <expr>        Show how an expression is parsed")
		fmt.Fprintln(s.out, "  exit, quit          Exit the REPL")

	case ":round":
		s.toggle("round_results", func(c *config.Config) *bool { return &c.RoundResults })

	case ":strings":
		s.toggle("include_strings", func(c *config.Config) *bool { return &c.IncludeStrings })

	case ":verbose":
		s.toggle("verbose_logging", func(c *config.Config) *bool { return &c.VerboseLogging })

	case ":engine":
		if arg == "" {
			fmt.Fprintf(s.out, "engine: %s\n", s.editor.Config().Engine)
			return
		}
		engine, err := numantics.ParseEngine(arg)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		set := func(c *config.Config) { c.Engine = string(engine) }
		s.editor.Update(set)
		s.pin("engine", set)
		fmt.Fprintf(s.out, "engine: %s\n", engine)

	case ":field":
		if arg != "" {
			kind, err := editor.ParseFieldKind(arg)
			if err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return
			}
			s.kind = kind
		}
		fmt.Fprintf(s.out, "field: %s\n", s.kind)

	case ":config":
		s.printConfig()

	case ":describe", ":d":
		result, err := help.DescribeTopic(arg)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		io.WriteString(s.out, help.FormatText(result, 80))

	case ":tree":
		exp, err := numantics.Parse(arg)
		if err != nil {
			fmt.Fprintln(s.out, err.PrettyString())
			return
		}
		fmt.Fprintln(s.out, exp.String())
		if calls := evaluator.Calls(exp); len(calls) > 0 {
			fmt.Fprintf(s.out, "calls: %s\n", strings.Join(calls, ", "))
		}

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", name)
	}
}

func (s *Session) toggle(name string, field func(*config.Config) *bool) {
	var now bool
	s.editor.Update(func(c *config.Config) {
		p := field(c)
		*p = !*p
		now = *p
	})
	s.pin(name, func(c *config.Config) { *field(c) = now })
	state := "OFF"
	if now {
		state = "ON"
	}
	fmt.Fprintf(s.out, "%s %s\n", name, state)
}

func (s *Session) printConfig() {
	cfg := s.editor.Config()
	if cfg.Path != "" {
		fmt.Fprintf(s.out, "# %s\n", cfg.Path)
	} else {
		fmt.Fprintln(s.out, "# defaults (no config file)")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.out.Write(data)
}

// filterCompletions returns completion suggestions for the word being typed
func filterCompletions(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	// Complete the trailing run of letters, digits and ':'
	start := len(line)
	for start > 0 && isWordChar(line[start-1]) {
		start--
	}
	prefix, word := line[:start], line[start:]
	if word == "" {
		return nil
	}

	var candidates []string
	if start == 0 {
		candidates = append(candidates, commandWords...)
	}
	if strings.HasPrefix(prefix, ":describe ") || strings.HasPrefix(prefix, ":d ") {
		candidates = append(candidates, help.Topics...)
	}
	candidates = append(candidates, evaluator.FunctionNames()...)

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			matches = append(matches, prefix+c)
		}
	}
	sort.Strings(matches)
	return matches
}

func isWordChar(ch byte) bool {
	return ch == ':' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// needsMoreInput checks if the input has unclosed parentheses
func needsMoreInput(input string) bool {
	parenCount := 0
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '(':
			parenCount++
		case ')':
			parenCount--
		}
	}
	return parenCount > 0
}
