package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nalathethird/numantics/pkg/numantics/numantics"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "NUMANTICS_CONFIG"

// FileName is the config file name searched for in the working directory.
const FileName = "numantics.yaml"

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load finds and loads the configuration.
// If path is empty, it is taken from NUMANTICS_CONFIG, then ./numantics.yaml,
// then ~/.config/numantics/numantics.yaml. When no file is found the
// defaults are returned.
func Load(path string, getenv func(string) string) (*Config, error) {
	resolved, err := resolveConfigPath(path, getenv)
	if err != nil {
		return nil, err
	}
	if resolved == "" {
		return Defaults(), nil
	}
	return LoadFile(resolved, getenv)
}

// LoadFile loads the configuration from a specific file.
func LoadFile(path string, getenv func(string) string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Overrides == nil {
		cfg.Overrides = map[string]string{}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	cfg.Path = absPath
	cfg.BaseDir = filepath.Dir(absPath)

	if cfg.REPL.HistoryFile != "" && !filepath.IsAbs(cfg.REPL.HistoryFile) {
		cfg.REPL.HistoryFile = filepath.Join(cfg.BaseDir, cfg.REPL.HistoryFile)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// resolveConfigPath returns the config file to load, or "" when none exists.
// An explicitly named file (argument or NUMANTICS_CONFIG) must exist.
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit == "" {
		explicit = getenv(EnvConfigPath)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	candidates := []string{FileName}
	if home := getenv("HOME"); home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", "numantics", FileName))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
	}

	return "", nil
}

// interpolateEnv replaces ${VAR} and ${VAR:-default} with environment values
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if value := getenv(string(parts[1])); value != "" {
			return []byte(value)
		}
		return parts[2]
	})
}

// Validate checks the config for values that cannot work. All problems
// are reported together.
func Validate(cfg *Config) error {
	var errs []string

	if _, err := numantics.ParseEngine(cfg.Engine); err != nil {
		errs = append(errs, "engine: "+err.Error())
	}
	if cfg.MaxRewrites < 0 {
		errs = append(errs, fmt.Sprintf("max_rewrites: must not be negative, got %d", cfg.MaxRewrites))
	}
	if cfg.MaxInputLength < 0 {
		errs = append(errs, fmt.Sprintf("max_input_length: must not be negative, got %d", cfg.MaxInputLength))
	}
	for key := range cfg.Overrides {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, "overrides: empty key")
			break
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// Warnings returns advisory messages about a valid but surprising config.
func Warnings(cfg *Config) []string {
	var warnings []string

	if !cfg.EnableMath {
		warnings = append(warnings, "enable_math is off: no field will be evaluated")
	}
	if cfg.IncludeStrings {
		warnings = append(warnings, "include_strings is on: free-text fields that look like arithmetic will be replaced")
	}
	keys := make([]string, 0, len(cfg.Overrides))
	for key := range cfg.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.ContainsAny(key, " \t") {
			warnings = append(warnings, fmt.Sprintf("override %q contains spaces and will never match (inputs are compared with spaces removed)", key))
		}
	}
	if cfg.MaxRewrites > 0 && cfg.MaxRewrites < 8 && strings.EqualFold(cfg.Engine, "rewrite") {
		warnings = append(warnings, fmt.Sprintf("max_rewrites is %d: longer expressions will fail", cfg.MaxRewrites))
	}

	return warnings
}
