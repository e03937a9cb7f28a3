// Package config loads the gateway's YAML configuration surface
// (spec.md §6) and applies the documented environment overrides,
// mirroring the original `_load_config` / `_apply_env_overrides` pair
// in `_examples/original_source/ib_simulator/config.py`.
package config

import (
	"fmt"
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"
)

// Environment is one named {host, port} pair under server.environments.
type Environment struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Server is the server.* section.
type Server struct {
	Host         string                 `yaml:"host"`
	Port         int                    `yaml:"port"`
	MaxClients   int                    `yaml:"max_clients"`
	BufferSize   int                    `yaml:"buffer_size"`
	Environments map[string]Environment `yaml:"environments"`
}

// Protocol is the protocol.* section.
type Protocol struct {
	Version                 int    `yaml:"version"`
	Encoding                string `yaml:"encoding"`
	MessageRateLimit        int    `yaml:"message_rate_limit"`
	SyntheticHistoricalData bool   `yaml:"synthetic_historical_data"`
}

// Database is the database.* section.
type Database struct {
	Path string `yaml:"path"`
}

// Account is one entry of authentication.accounts[].
type Account struct {
	AccountID      string  `yaml:"account_id"`
	Username       string  `yaml:"username"`
	Password       string  `yaml:"password"`
	AccountType    string  `yaml:"account_type"`
	BaseCurrency   string  `yaml:"base_currency"`
	InitialBalance float64 `yaml:"initial_balance"`
}

// Authentication is the authentication.* section.
type Authentication struct {
	Accounts []Account `yaml:"accounts"`
}

// Market is the market.* section.
type Market struct {
	Symbols      []string `yaml:"symbols"`
	TickInterval float64  `yaml:"tick_interval"`
	SnapshotPath string   `yaml:"snapshot_path"`
}

// Config is the complete recognized configuration surface of spec.md §6.
type Config struct {
	Server         Server         `yaml:"server"`
	Protocol       Protocol       `yaml:"protocol"`
	Database       Database       `yaml:"database"`
	Authentication Authentication `yaml:"authentication"`
	Market         Market         `yaml:"market"`
}

// Default returns the built-in defaults the original config.py falls
// back to when no file is supplied.
func Default() Config {
	return Config{
		Server: Server{
			Host:       "127.0.0.1",
			Port:       7497,
			MaxClients: 32,
			BufferSize: 4096,
		},
		Protocol: Protocol{
			Version:          176,
			Encoding:         "latin-1",
			MessageRateLimit: 50,
		},
		Market: Market{
			TickInterval: 1.0,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// IB_SIM_HOST / IB_SIM_PORT / IB_SIM_DB_PATH environment overrides,
// exactly as spec.md §6 lists them.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("IB_SIM_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("IB_SIM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dbPath := os.Getenv("IB_SIM_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
}

// ResolveEnvironment applies server.environments.<name> over the base
// server.host/port, matching the original's local/docker/network
// environment switch (main.py's --env flag).
func (c Config) ResolveEnvironment(name string) (host string, port int) {
	if env, ok := c.Server.Environments[name]; ok {
		if env.Host != "" {
			c.Server.Host = env.Host
		}
		if env.Port != 0 {
			c.Server.Port = env.Port
		}
	}
	return c.Server.Host, c.Server.Port
}
