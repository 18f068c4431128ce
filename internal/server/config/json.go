package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/userdir/internal/flagx"
	"github.com/dmitrijs2005/userdir/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. CacheTTL
// uses timex.Duration so both "30s" and integer nanoseconds are accepted.
// Pointers tell an absent key apart from a zero value.
type JsonConfig struct {
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string         `json:"database_dsn"`
	SecretKey        *string         `json:"secret_key"`
	AccessFile       *string         `json:"access_file"`
	RedisAddr        *string         `json:"redis_addr"`
	CacheTTL         *timex.Duration `json:"cache_ttl"`
	HashTime         *uint32         `json:"hash_time"`
	HashMemoryKiB    *uint32         `json:"hash_memory_kib"`
	HashThreads      *uint8          `json:"hash_threads"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Keys absent from the file keep their current value.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.AccessFile, c.AccessFile)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.HashTime, c.HashTime)
	set(&config.HashMemoryKiB, c.HashMemoryKiB)
	set(&config.HashThreads, c.HashThreads)
	if c.CacheTTL != nil {
		config.CacheTTL = c.CacheTTL.Duration
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
