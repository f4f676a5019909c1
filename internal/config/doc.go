// Package config resolves the process configuration from a YAML file and
// command-line flags with precedence: CLI flags > YAML config. No defaults are
// synthesized for the listener addresses; a value missing from both sources
// stays at its zero value.
package config
