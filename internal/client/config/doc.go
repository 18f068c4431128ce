// Package config loads settings for the userdir admin CLI: built-in
// defaults, then an optional JSON file (-c / -config), then flags.
package config
