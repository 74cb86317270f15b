// Package config handles reading and writing .leonard/config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .leonard/config.yaml.
type Config struct {
	Version  int         `yaml:"version"`
	Relay    RelayConfig `yaml:"relay"`
	Producer AgentConfig `yaml:"producer"`
	Reviewer AgentConfig `yaml:"reviewer"`
	LogFile  string      `yaml:"log_file"`
}

// RelayConfig controls the relay loop.
type RelayConfig struct {
	MaxTurns        int    `yaml:"max_turns"`         // 0 = unlimited
	MaxForwardBytes int    `yaml:"max_forward_bytes"` // 0 = no cap
	StripANSI       bool   `yaml:"strip_ansi"`
	ContextFile     string `yaml:"context_file"`
}

// AgentConfig describes how to launch one agent CLI.
type AgentConfig struct {
	Binary    string   `yaml:"binary"`
	EnvKey    string   `yaml:"env_key"`
	ExtraArgs []string `yaml:"extra_args"`
}

const configDir = ".leonard"
const configFile = "config.yaml"

// Path returns the config file path for the project rooted at dir.
func Path(dir string) string {
	return filepath.Join(dir, configDir, configFile)
}

// ReadConfig reads .leonard/config.yaml from the given directory.
// Fields missing from the file keep their default values.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Load is ReadConfig, except that a missing file yields the defaults.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// WriteConfig writes cfg to .leonard/config.yaml in the given directory.
// Creates the .leonard/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Relay: RelayConfig{
			MaxTurns:        10,
			MaxForwardBytes: 100000,
			StripANSI:       true,
			ContextFile:     "leonard.md",
		},
		Producer: AgentConfig{
			Binary:    "claude",
			EnvKey:    "ANTHROPIC_API_KEY",
			ExtraArgs: []string{},
		},
		Reviewer: AgentConfig{
			Binary:    "codex",
			EnvKey:    "OPENAI_API_KEY",
			ExtraArgs: []string{},
		},
	}
}
