// Package config loads server configuration from an optional YAML file
// and the OBSIDIAN_* environment variables. Environment values override
// the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything needed to reach the Obsidian Local REST API
// and the access policy restricting what the agent may read.
type Config struct {
	Protocol  string `yaml:"protocol"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"`
	VerifySSL bool   `yaml:"verify_ssl"`
	// Whitelist is the list of path patterns the agent may read.
	// Empty means unrestricted.
	Whitelist []string `yaml:"whitelist"`
}

// Default returns the configuration matching the Local REST API
// plugin's defaults.
func Default() Config {
	return Config{
		Protocol: "https",
		Host:     "127.0.0.1",
		Port:     27124,
	}
}

// Load builds the configuration from the file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("OBSIDIAN_API_KEY is required")
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OBSIDIAN_PROTOCOL"); v != "" {
		cfg.Protocol = v
	}
	if v := os.Getenv("OBSIDIAN_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("OBSIDIAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("OBSIDIAN_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v, ok := os.LookupEnv("OBSIDIAN_WHITELIST"); ok {
		cfg.Whitelist = splitPatterns(v)
	}
}

func splitPatterns(value string) []string {
	var patterns []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
