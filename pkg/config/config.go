// Package config loads the node configuration from a YAML file.
package config

import (
	"crypto/tls"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full node configuration.
type Config struct {
	Token TokenConfig `yaml:"token"`
	DB    DBConfig    `yaml:"db"`
	API   APIConfig   `yaml:"api"`
	Log   LogConfig   `yaml:"log"`
}

// TokenConfig fixes the token identity and its supply. TotalSupply is
// read once at ledger initialization and never changes afterwards.
type TokenConfig struct {
	Name        string `yaml:"name"`
	Symbol      string `yaml:"symbol"`
	TotalSupply uint64 `yaml:"total_supply"`
}

type DBConfig struct {
	File string `yaml:"file"`
}

type APIConfig struct {
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Token: TokenConfig{
			Name:        "AncapToken",
			Symbol:      "ANCT",
			TotalSupply: 21_000_000,
		},
		DB: DBConfig{
			File: "ledger.db",
		},
		API: APIConfig{
			Listen: ":8080",
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path and overlays it on the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// TLSConfig loads the TLS configuration with certificates. It returns
// nil when no certificate pair is configured, meaning plain HTTP.
func (c APIConfig) TLSConfig() (*tls.Config, error) {
	if c.TLSCert == "" && c.TLSKey == "" {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.TLSCert, c.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificates: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
