// Package config handles campusmate configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/campusmate/config.yaml, /etc/campusmate/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "campusmate", "config.yaml"))
	}

	paths = append(paths, "/etc/campusmate/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all campusmate configuration.
type Config struct {
	Ollama   OllamaConfig `yaml:"ollama"`
	Canvas   CanvasConfig `yaml:"canvas"`
	Search   SearchConfig `yaml:"search"`
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`

	// HistoryLimit is the number of recent messages included in the
	// model context each turn. Default: 6.
	HistoryLimit int `yaml:"history_limit"`
}

// OllamaConfig defines the model backend settings.
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// CanvasConfig defines Canvas LMS API access.
type CanvasConfig struct {
	// BaseURL is the institution's Canvas root,
	// e.g. https://youruniversity.instructure.com
	BaseURL string `yaml:"base_url" envconfig:"CANVAS_BASE_URL"`
	Token   string `yaml:"token" envconfig:"CANVAS_API_TOKEN"`
}

// SearchConfig defines web search API access.
type SearchConfig struct {
	SerpAPIKey string `yaml:"serpapi_key" envconfig:"SERPAPI_KEY"`
}

// Load reads configuration from a YAML file and applies environment
// overrides for credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration. Environment overrides still
// apply, so a missing config file is not fatal.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "qwen3:4b",
		},
		DataDir:      ".",
		HistoryLimit: 6,
	}
}

// FromEnv returns the default configuration with environment overrides
// applied. Used when no config file is present.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the loaded values.
// Credentials commonly live in the environment rather than on disk.
func (c *Config) applyEnv() error {
	if err := envconfig.Process("", &c.Canvas); err != nil {
		return fmt.Errorf("canvas env: %w", err)
	}
	if err := envconfig.Process("", &c.Search); err != nil {
		return fmt.Errorf("search env: %w", err)
	}
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		c.Ollama.URL = url
	}
	return nil
}

// DatabasePath returns the SQLite database location under DataDir.
func (c *Config) DatabasePath() string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "campusmate.db")
}
