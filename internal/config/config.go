package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no -c/--conf flag is given.
const DefaultPath = "conf/configuration.yml"

// Configuration holds the bind targets of the primary and health-check
// listeners. It is read-only once resolved.
type Configuration struct {
	Bind            string `yaml:"bind"`
	Port            int    `yaml:"port"`
	HealthcheckBind string `yaml:"healthcheckBind"`
	HealthcheckPort int    `yaml:"healthcheckPort"`
}

// PrimaryAddr returns the primary listener target as host:port.
func (c Configuration) PrimaryAddr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// HealthcheckAddr returns the health-check listener target as host:port.
func (c Configuration) HealthcheckAddr() string {
	return net.JoinHostPort(c.HealthcheckBind, strconv.Itoa(c.HealthcheckPort))
}

// Resolve parses args and loads the configuration file they point at.
// Precedence: CLI flags > YAML config. Values are not range checked.
func Resolve(args []string) (Configuration, error) {
	overrides, err := ParseArgs(args)
	if err != nil {
		return Configuration{}, err
	}
	return Load(overrides)
}

// Load reads the configuration file and applies the CLI overrides on top of it.
func Load(overrides *CLIOverrides) (Configuration, error) {
	path := DefaultPath
	if overrides != nil && overrides.ConfigFile != "" {
		path = overrides.ConfigFile
	}

	cfg, err := loadFromFile(path)
	if err != nil {
		return Configuration{}, err
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}
	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (Configuration, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Configuration{}, &Error{Kind: FileNotFound, Path: path, Err: err}
		}
		return Configuration{}, &Error{Kind: FileUnreadable, Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, &Error{Kind: FileUnreadable, Path: path, Err: fmt.Errorf("read file: %w", err)}
	}

	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, &Error{Kind: SchemaInvalid, Path: path, Err: fmt.Errorf("parse YAML: %w", err)}
	}
	return cfg, nil
}

// applyCLIOverrides applies each flag to its own field only.
func applyCLIOverrides(cfg *Configuration, overrides *CLIOverrides) {
	if overrides.Bind != nil {
		cfg.Bind = *overrides.Bind
	}
	if overrides.Port != nil {
		cfg.Port = *overrides.Port
	}
	if overrides.HealthcheckBind != nil {
		cfg.HealthcheckBind = *overrides.HealthcheckBind
	}
	if overrides.HealthcheckPort != nil {
		cfg.HealthcheckPort = *overrides.HealthcheckPort
	}
}
