// Package config handles loading of the application settings and of the
// JSON catalog files the migration project is normalized against.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the application. Values come from an
// optional YAML file and are overridden by OMINIDECK_* environment variables
// (populated from .env in main.go).
type Config struct {
	ProjectFile     string `yaml:"project_file"`
	SchemaDir       string `yaml:"schema_dir"`
	EligibilityFile string `yaml:"eligibility_file"`
	DomainStatsFile string `yaml:"domain_stats_file"`

	LogFile string `yaml:"log_file"`
	LogMode string `yaml:"log_mode"`

	ListenAddr string `yaml:"listen_addr"`
	Author     string `yaml:"author"`

	// Staging replica used by "stats collect".
	SQLDriver     string `yaml:"sql_driver"`
	SQLConnString string `yaml:"sql_connection_string"`

	// Publish target.
	MongoConnString string `yaml:"mongo_connection_string"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		ProjectFile:     "data/migration_project.json",
		SchemaDir:       "metadata/otm/tables",
		EligibilityFile: "metadata/otm/migration_project_eligibility.json",
		DomainStatsFile: "metadata/otm/domain_table_statistics.json",
		LogMode:         "dev",
		ListenAddr:      "127.0.0.1:8090",
		SQLDriver:       "sqlserver",
		MongoDatabase:   "ominideck",
		MongoCollection: "migration_items",
	}
}

var envBindings = []struct {
	name string
	set  func(*Config, string)
}{
	{"OMINIDECK_PROJECT_FILE", func(c *Config, v string) { c.ProjectFile = v }},
	{"OMINIDECK_SCHEMA_DIR", func(c *Config, v string) { c.SchemaDir = v }},
	{"OMINIDECK_ELIGIBILITY_FILE", func(c *Config, v string) { c.EligibilityFile = v }},
	{"OMINIDECK_DOMAIN_STATS_FILE", func(c *Config, v string) { c.DomainStatsFile = v }},
	{"OMINIDECK_LOG_FILE", func(c *Config, v string) { c.LogFile = v }},
	{"OMINIDECK_LOG_MODE", func(c *Config, v string) { c.LogMode = v }},
	{"OMINIDECK_LISTEN_ADDR", func(c *Config, v string) { c.ListenAddr = v }},
	{"OMINIDECK_AUTHOR", func(c *Config, v string) { c.Author = v }},
	{"OMINIDECK_SQL_DRIVER", func(c *Config, v string) { c.SQLDriver = v }},
	{"SQL_CONNECTION_STRING", func(c *Config, v string) { c.SQLConnString = v }},
	{"MONGO_CONNECTION_STRING", func(c *Config, v string) { c.MongoConnString = v }},
	{"OMINIDECK_MONGO_DATABASE", func(c *Config, v string) { c.MongoDatabase = v }},
	{"OMINIDECK_MONGO_COLLECTION", func(c *Config, v string) { c.MongoCollection = v }},
}

// LoadConfig builds the configuration: defaults, then the YAML file named by
// OMINIDECK_CONFIG (if any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("OMINIDECK_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	for _, b := range envBindings {
		if v := strings.TrimSpace(os.Getenv(b.name)); v != "" {
			b.set(cfg, v)
		}
	}

	if cfg.ProjectFile == "" {
		return nil, fmt.Errorf("project file path is empty")
	}
	if cfg.Author == "" {
		cfg.Author = os.Getenv("USER")
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return nil
}

// RequireSQL checks the settings "stats collect" depends on.
func (c *Config) RequireSQL() error {
	if c.SQLConnString == "" {
		return fmt.Errorf("SQL_CONNECTION_STRING environment variable not set")
	}
	return nil
}

// RequireMongo checks the settings "publish" depends on.
func (c *Config) RequireMongo() error {
	if c.MongoConnString == "" {
		return fmt.Errorf("MONGO_CONNECTION_STRING environment variable not set")
	}
	return nil
}
