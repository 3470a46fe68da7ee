package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelsConfig represents the structure of the models.yaml file.
// Per-model presentation and artifact overrides that are awkward as env vars.
type ModelsConfig struct {
	Models []ModelConfig `yaml:"models"`
	// Default is the kind pre-selected on the form.
	Default string `yaml:"default"`
}

// ModelConfig describes one model kind.
type ModelConfig struct {
	Kind    string `yaml:"kind"`              // "ensemble" or "time-series"
	Label   string `yaml:"label,omitempty"`   // Display name on the form
	Path    string `yaml:"path,omitempty"`    // Overrides *_MODEL_PATH
	Caption string `yaml:"caption,omitempty"` // Shown under the result
}

// LoadModelsConfig loads the models file at path.
// Returns nil without error if the file doesn't exist.
func LoadModelsConfig(path string) (*ModelsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Models file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg ModelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for _, m := range cfg.Models {
		if m.Kind == "" {
			return nil, fmt.Errorf("%s: model entry without kind", path)
		}
		if seen[m.Kind] {
			return nil, fmt.Errorf("%s: duplicate model kind %q", path, m.Kind)
		}
		seen[m.Kind] = true
	}

	return &cfg, nil
}

// GetModel finds a model entry by kind.
func (c *ModelsConfig) GetModel(kind string) *ModelConfig {
	if c == nil {
		return nil
	}
	for i := range c.Models {
		if c.Models[i].Kind == kind {
			return &c.Models[i]
		}
	}
	return nil
}

// DefaultKind returns the kind pre-selected on the form, or fallback.
func (c *ModelsConfig) DefaultKind(fallback string) string {
	if c == nil || c.Default == "" {
		return fallback
	}
	return c.Default
}

// Normalize rewrites every kind (and the default) through canonical, so
// aliases resolve to one entry. Fails on unknown or duplicate kinds.
func (c *ModelsConfig) Normalize(canonical func(string) (string, error)) error {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	for i := range c.Models {
		kind, err := canonical(c.Models[i].Kind)
		if err != nil {
			return err
		}
		if seen[kind] {
			return fmt.Errorf("duplicate model kind %q", kind)
		}
		seen[kind] = true
		c.Models[i].Kind = kind
	}
	if c.Default != "" {
		kind, err := canonical(c.Default)
		if err != nil {
			return fmt.Errorf("default: %w", err)
		}
		c.Default = kind
	}
	return nil
}
