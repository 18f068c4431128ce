package config

import "time"

// Config holds runtime settings for the userdir CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the server gRPC endpoint.
//   - Operator: operator name for Basic credentials; the password is prompted.
//   - BearerToken: externally issued token, used instead of Operator when set.
//   - RequestTimeout: deadline applied to each call.
//   - Args: the command and its arguments, left over after flag parsing.
type Config struct {
	ServerEndpointAddr string
	Operator           string
	BearerToken        string
	RequestTimeout     time.Duration
	Args               []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Operator = ""
	c.BearerToken = ""
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
