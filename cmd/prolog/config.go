package main

import (
	"fmt"
	"os"

	"github.com/mailstepcz/prolog"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the command. Flags override its values.
type Config struct {
	// Rules are files with rules in Prolog syntax.
	Rules []string `yaml:"rules"`
	// Facts are YAML fact files.
	Facts []string `yaml:"facts"`
	// Sexpr are files with rules written as symbolic expressions.
	Sexpr []string `yaml:"sexpr"`
	// SQL is an optional SQL fact source.
	SQL *SQLConfig `yaml:"sql"`
	Log LogConfig  `yaml:"log"`
	// Trace prints the spans of solved queries to stderr.
	Trace bool `yaml:"trace"`
}

// SQLConfig describes the SQL fact source.
type SQLConfig struct {
	Driver    string               `yaml:"driver"`
	DSN       string               `yaml:"dsn"`
	Relations []prolog.SQLRelation `yaml:"relations"`
}

// LogConfig sets up logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{Log: LogConfig{Level: "warn", Format: "text"}}
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}
	if cfg.SQL != nil && cfg.SQL.Driver == "" {
		cfg.SQL.Driver = "postgres"
	}
	return cfg, nil
}
