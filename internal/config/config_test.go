package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anas-shakeel/go-chromakey/internal/bmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chromakey.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Report || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Rules) != 0 {
		t.Errorf("Rules = %v, want none", cfg.Rules)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
report: false
preview: true
digest: true
rules:
  - name: blue-screen
    expr: "blue > 200 && red < 50 && green < 50"
  - expr: "green == 255"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Report || !cfg.Preview || !cfg.Digest {
		t.Errorf("flags = report %v preview %v digest %v", cfg.Report, cfg.Preview, cfg.Digest)
	}

	rules, err := cfg.KeyRules()
	if err != nil {
		t.Fatalf("KeyRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}
	if rules[0].Name() != "blue-screen" || rules[1].Name() != "rule2" {
		t.Errorf("names = %q, %q", rules[0].Name(), rules[1].Name())
	}
	if !rules[0].Match(bmp.Pixel{B: 250, G: 10, R: 10}) {
		t.Error("blue-screen rule should match a blue pixel")
	}
	if rules[1].Match(bmp.Pixel{G: 254}) {
		t.Error("rule2 should not match green 254")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"empty rule", "rules:\n  - name: x\n    expr: \"\"\n"},
		{"unknown variable", "rules:\n  - expr: \"alpha > 3\"\n"},
		{"not boolean", "rules:\n  - expr: \"red + 1\"\n"},
		{"unknown key", "colour: green\n"},
		{"not yaml", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("Load() should fail for %q", tt.content)
			}
		})
	}
}

func TestKeyRulesNoneConfigured(t *testing.T) {
	rules, err := Default().KeyRules()
	if err != nil || rules != nil {
		t.Errorf("KeyRules() = %v, %v; want nil, nil", rules, err)
	}
}
