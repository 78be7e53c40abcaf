package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SelectedProvider != "gemini" || cfg.Engine.Workers != 4 || cfg.Engine.Trials != 10000 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	cfg.SetAPIKey("gemini", "secret-key-1234")
	cfg.SelectedModel = "gemini-1.5-pro"
	cfg.Engine.Variant = "simulated"
	cfg.Engine.RiskModel = "/etc/grc/model.yaml"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	path := filepath.Join(home, dirName, "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetAPIKey("gemini") != "secret-key-1234" || loaded.SelectedModel != "gemini-1.5-pro" {
		t.Errorf("unexpected provider settings %+v", loaded)
	}
	if loaded.Engine.Variant != "simulated" || loaded.Engine.RiskModel != "/etc/grc/model.yaml" {
		t.Errorf("unexpected engine settings %+v", loaded.Engine)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := os.MkdirAll(filepath.Join(home, dirName), 0700); err != nil {
		t.Fatal(err)
	}
	body := "engine:\n  workers: 12\n"
	if err := os.WriteFile(filepath.Join(home, dirName, "config.yaml"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 12 || cfg.Engine.Trials != 10000 || cfg.SelectedProvider != "gemini" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Providers == nil {
		t.Error("expected providers map to be initialized")
	}
}

func TestGetAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "from-env")
	cfg := Default()

	if got := cfg.GetAPIKey("gemini"); got != "from-env" {
		t.Errorf("expected env fallback, got %q", got)
	}
	cfg.SetAPIKey("gemini", "from-file")
	if got := cfg.GetAPIKey("gemini"); got != "from-file" {
		t.Errorf("expected stored key to win, got %q", got)
	}
	if got := cfg.GetAPIKey("openai"); got != "" {
		t.Errorf("expected no key for openai, got %q", got)
	}
}

func TestMasked(t *testing.T) {
	cases := map[string]string{
		"":           "(not set)",
		"abc":        "****",
		"abcdefgh12": "******gh12",
	}
	for in, want := range cases {
		if got := Masked(in); got != want {
			t.Errorf("Masked(%q) = %q, want %q", in, got, want)
		}
	}
}
