// Package config handles configuration for the CLI client, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the FileKeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - SessionPath: file caching the token pair between invocations.
//   - OutputDir: where downloaded files land; "." keeps them next to the caller.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerEndpointAddr string
	SessionPath        string
	OutputDir          string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:3001"
	c.SessionPath = ".filekeeper-session.json"
	c.OutputDir = "."
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
