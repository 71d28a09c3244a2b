package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load with no files: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if !cfg.History.Enabled {
		t.Error("history not enabled by default")
	}
	if cfg.Demo.TickRate != 30 || cfg.Demo.Particles != 64 {
		t.Errorf("demo defaults = %+v", cfg.Demo)
	}
}

func TestLoadMissingFilesAreNotErrors(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.json"), filepath.Join(dir, "also-nope.json"))
	if err != nil {
		t.Fatalf("missing files treated as error: %v", err)
	}
	if cfg.Demo.TickRate != 30 {
		t.Errorf("defaults not applied: %+v", cfg.Demo)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()

	// Global bumps the tick rate and disables history.
	global := writeConfig(t, dir, "global.json", `{
		"log_level": "debug",
		"history": {"enabled": false},
		"demo": {"tick_rate": 60, "particles": 64}
	}`)
	// Project overrides the tick rate only; global's other values survive.
	project := writeConfig(t, dir, "project.json", `{
		"demo": {"tick_rate": 120, "particles": 64}
	}`)

	cfg, err := Load(global, project)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Demo.TickRate != 120 {
		t.Errorf("tick rate = %d, want project's 120", cfg.Demo.TickRate)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want global's debug", cfg.LogLevel)
	}
	if cfg.History.Enabled {
		t.Error("global history override lost")
	}
	if cfg.History.Path == "" {
		t.Error("default history path lost during merge")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeConfig(t, dir, "bad.json", `{"log_level": `)

	if _, err := Load(bad, ""); err == nil {
		t.Fatal("malformed global config accepted")
	}
	if _, err := Load("", bad); err == nil {
		t.Fatal("malformed project config accepted")
	}
}
