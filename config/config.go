package config

// Config represents the complete numantics configuration
type Config struct {
	Path    string `yaml:"-"` // File the config was loaded from ("" for defaults)
	BaseDir string `yaml:"-"` // Directory containing config file, for resolving relative paths

	EnableMath     bool   `yaml:"enable_math"`      // Master switch for evaluation (default: true)
	IncludeStrings bool   `yaml:"include_strings"`  // Evaluate free-text (string) fields too
	RoundResults   bool   `yaml:"round_results"`    // Round results to the nearest integer, halves away from zero
	VerboseLogging bool   `yaml:"verbose_logging"`  // Log every evaluation step
	Engine         string `yaml:"engine"`           // "ast" (default) or "rewrite"
	MaxRewrites    int    `yaml:"max_rewrites"`     // Cap for each rewrite engine loop (default 0: input length)
	MaxInputLength int    `yaml:"max_input_length"` // Longest accepted input in bytes (default: 1024)

	// Overrides maps an input (compared with all spaces removed) to fixed
	// replacement text, e.g. "2+2": "5".
	Overrides map[string]string `yaml:"overrides"`

	REPL REPLConfig `yaml:"repl"`
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	HistoryFile string `yaml:"history_file"` // Line history (default: numantics_history in the temp dir)
	Prompt      string `yaml:"prompt"`       // Prompt text (default: "= ")
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		EnableMath:     true,
		IncludeStrings: false,
		RoundResults:   false,
		VerboseLogging: false,
		Engine:         "ast",
		MaxRewrites:    0,
		MaxInputLength: 1024,
		Overrides:      map[string]string{},
		REPL: REPLConfig{
			Prompt: "= ",
		},
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := *c
	out.Overrides = make(map[string]string, len(c.Overrides))
	for k, v := range c.Overrides {
		out.Overrides[k] = v
	}
	return &out
}
