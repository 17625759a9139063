package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
ollama:
  url: http://model-host:11434
  model: llama3.2
canvas:
  base_url: https://school.instructure.com
  token: secret
data_dir: /var/lib/campusmate
log_level: debug
history_limit: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if cfg.Ollama.URL != "http://model-host:11434" || cfg.Ollama.Model != "llama3.2" {
		t.Errorf("Ollama = %+v", cfg.Ollama)
	}
	if cfg.Canvas.BaseURL != "https://school.instructure.com" || cfg.Canvas.Token != "secret" {
		t.Errorf("Canvas = %+v", cfg.Canvas)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
	}
	if got := cfg.DatabasePath(); got != filepath.Join("/var/lib/campusmate", "campusmate.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
}

func TestLoadDefaultsPreserved(t *testing.T) {
	path := writeConfig(t, `log_level: warn`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.Model != "qwen3:4b" {
		t.Errorf("default model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("default url = %q", cfg.Ollama.URL)
	}
	if cfg.HistoryLimit != 6 {
		t.Errorf("default history limit = %d", cfg.HistoryLimit)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CANVAS_TOKEN", "tok-from-env")
	path := writeConfig(t, `
canvas:
  base_url: https://school.instructure.com
  token: ${TEST_CANVAS_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Token != "tok-from-env" {
		t.Errorf("Token = %q, want value expanded from environment", cfg.Canvas.Token)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CANVAS_API_TOKEN", "env-wins")
	t.Setenv("SERPAPI_KEY", "serp-key")
	path := writeConfig(t, `
canvas:
  token: file-value
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Token != "env-wins" {
		t.Errorf("Token = %q, env var should override the file", cfg.Canvas.Token)
	}
	if cfg.Search.SerpAPIKey != "serp-key" {
		t.Errorf("SerpAPIKey = %q", cfg.Search.SerpAPIKey)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.URL != "http://gpu-box:11434" {
		t.Errorf("Ollama.URL = %q", cfg.Ollama.URL)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	if _, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("explicit missing config should error")
	}
}

func TestFindConfigExplicit(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(): %v", err)
	}
	if got != path {
		t.Errorf("FindConfig() = %q, want %q", got, path)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
