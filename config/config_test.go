package config

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValidate_UnknownEngine(t *testing.T) {
	yamlData := `
engine: quantum
max_rewrites: -1
`
	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(yamlData), cfg); err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown engine")
	}
	if !strings.HasPrefix(err.Error(), "configuration errors:\n  - engine: ") {
		t.Errorf("Unexpected error message: %v", err)
	}
	if !strings.Contains(err.Error(), "\n  - max_rewrites: must not be negative, got -1") {
		t.Errorf("Expected both problems reported, got: %v", err)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestOverridesParse(t *testing.T) {
	yamlData := `
overrides:
  "2+2": "5"
  "9+10": "21"
`
	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(yamlData), cfg); err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	if cfg.Overrides["2+2"] != "5" || cfg.Overrides["9+10"] != "21" {
		t.Errorf("Unexpected overrides: %v", cfg.Overrides)
	}
}

func TestClone(t *testing.T) {
	cfg := Defaults()
	cfg.Overrides["1+1"] = "3"

	clone := cfg.Clone()
	clone.Overrides["1+1"] = "11"
	clone.RoundResults = true

	if cfg.Overrides["1+1"] != "3" {
		t.Error("Clone shares the overrides map")
	}
	if cfg.RoundResults {
		t.Error("Clone shares fields")
	}
}
