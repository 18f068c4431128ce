package config

import (
	"flag"
	"os"
	"time"
)

// parseFlags populates Config from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the server
//	-u string   operator name
//	-k string   bearer token
//	-w int      request timeout, seconds
//	-c string   JSON config file (consumed by parseJson)
//
// Parsing stops at the first non-flag argument; it and everything after it
// end up in Config.Args.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.Operator, "u", cfg.Operator, "operator name")
	fs.StringVar(&cfg.BearerToken, "k", cfg.BearerToken, "bearer token")
	timeout := fs.Int("w", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	var ignored string
	fs.StringVar(&ignored, "c", "", "path to config file (short)")
	fs.StringVar(&ignored, "config", "", "path to config file")

	if err := fs.Parse(os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.Args = fs.Args()
}
