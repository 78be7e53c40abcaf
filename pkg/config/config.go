package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const dirName = ".grc-engine"

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// EngineConfig holds defaults for quantify flags that were not set.
type EngineConfig struct {
	Workers   int    `yaml:"workers"`
	Trials    int    `yaml:"trials"`
	Seed      int64  `yaml:"seed"`
	Variant   string `yaml:"variant"`
	Aggregate string `yaml:"aggregate"`
	RiskModel string `yaml:"risk_model"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	Engine           EngineConfig              `yaml:"engine"`
}

// Default is the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SelectedProvider: "gemini",
		SelectedModel:    "gemini-1.5-flash",
		Providers:        make(map[string]ProviderConfig),
		Engine: EngineConfig{
			Workers:   4,
			Trials:    10000,
			Seed:      1,
			Variant:   "deterministic",
			Aggregate: "mean",
		},
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, dirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// LoadConfig reads the user config. Fields missing from the file keep their defaults.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600: the file holds API keys
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

// GetAPIKey returns the stored key, falling back to GOOGLE_API_KEY for gemini.
func (c *Config) GetAPIKey(provider string) string {
	if key := c.Providers[provider].APIKey; key != "" {
		return key
	}
	if strings.EqualFold(provider, "gemini") {
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

// Masked hides all but the last four characters of a key.
func Masked(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
