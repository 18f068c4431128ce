// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the userdir server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret used to verify bearer tokens (HS256).
//   - AccessFile: YAML file with the role policy and operator accounts.
//   - RedisAddr / CacheTTL: optional public-view cache. Empty address disables it.
//   - HashTime / HashMemoryKiB / HashThreads: argon2id cost parameters.
type Config struct {
	EndpointAddrGRPC string
	DatabaseDSN      string
	SecretKey        string
	AccessFile       string
	RedisAddr        string
	CacheTTL         time.Duration
	HashTime         uint32
	HashMemoryKiB    uint32
	HashThreads      uint8
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey is empty, so bearer tokens are rejected until one is set.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.AccessFile = "access.yaml"
	c.RedisAddr = ""
	c.CacheTTL = 30 * time.Second
	c.HashTime = 1
	c.HashMemoryKiB = 64 * 1024
	c.HashThreads = 4
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
