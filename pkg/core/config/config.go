package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable pointing at the config file
const EnvVar = "NETPLANE_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	Control  ControlConfig  `toml:"control" yaml:"control"`
	Audit    AuditConfig    `toml:"audit" yaml:"audit"`
	GRPC     GRPCConfig     `toml:"grpc" yaml:"grpc"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
	Console  ConsoleConfig  `toml:"console" yaml:"console"`
	DNSCache DNSCacheConfig `toml:"dns_cache" yaml:"dns_cache"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name" yaml:"name"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
}

// ControlConfig holds command pipeline settings
type ControlConfig struct {
	// ModifyEnabled is a pointer so an absent key keeps the default
	ModifyEnabled  *bool `toml:"modify_enabled" yaml:"modify_enabled"`
	MaxLineLength  int   `toml:"max_line_length" yaml:"max_line_length"`
	QueueWarnDepth int   `toml:"queue_warn_depth" yaml:"queue_warn_depth"`
}

// Modifiable reports whether mutating commands are accepted
func (c ControlConfig) Modifiable() bool {
	return c.ModifyEnabled == nil || *c.ModifyEnabled
}

// AuditConfig holds command audit trail settings
type AuditConfig struct {
	// Enabled defaults to true when absent
	Enabled   *bool    `toml:"enabled" yaml:"enabled"`
	Path      string   `toml:"path" yaml:"path"`
	Retention Duration `toml:"retention" yaml:"retention"`
}

// Recording reports whether executed commands are written to the audit
// store
func (a AuditConfig) Recording() bool {
	return a.Enabled == nil || *a.Enabled
}

// GRPCConfig holds the remote control API listener
type GRPCConfig struct {
	Host       string `toml:"host" yaml:"host"`
	Port       int    `toml:"port" yaml:"port"`
	Reflection bool   `toml:"reflection" yaml:"reflection"`
}

// Address returns host:port
func (g GRPCConfig) Address() string { return fmt.Sprintf("%s:%d", g.Host, g.Port) }

// MetricsConfig holds the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Host    string `toml:"host" yaml:"host"`
	Port    int    `toml:"port" yaml:"port"`
	Path    string `toml:"path" yaml:"path"`
}

// Address returns host:port
func (m MetricsConfig) Address() string { return fmt.Sprintf("%s:%d", m.Host, m.Port) }

// ConsoleConfig holds interactive shell and console settings
type ConsoleConfig struct {
	HistoryFile string `toml:"history_file" yaml:"history_file"`
	Prompt      string `toml:"prompt" yaml:"prompt"`
}

// DNSCacheConfig holds resolver cache settings
type DNSCacheConfig struct {
	TTL           Duration `toml:"ttl" yaml:"ttl"`
	MaxItems      int      `toml:"max_items" yaml:"max_items"`
	SweepInterval Duration `toml:"sweep_interval" yaml:"sweep_interval"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml", "":
		_, err = toml.Decode(string(data), &cfg)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Expand environment variables in path fields
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads configuration from NETPLANE_CONFIG or the default
// locations. With no file anywhere it returns the defaults.
func LoadFromEnv() (*Config, string, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"./configs/netplane.toml",
			"./netplane.toml",
			"./netplane.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/netplane/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), "", nil
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "netplane"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "console"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}

	// Control
	if c.Control.MaxLineLength == 0 {
		c.Control.MaxLineLength = 4096
	}
	if c.Control.QueueWarnDepth == 0 {
		c.Control.QueueWarnDepth = 1000
	}

	// Audit
	if c.Audit.Path == "" {
		c.Audit.Path = filepath.Join(c.General.DataDir, "audit.db")
	}
	if c.Audit.Retention.Duration == 0 {
		c.Audit.Retention.Duration = 30 * 24 * time.Hour
	}

	// gRPC
	if c.GRPC.Host == "" {
		c.GRPC.Host = "127.0.0.1"
	}
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 16309
	}

	// Metrics
	if c.Metrics.Host == "" {
		c.Metrics.Host = "127.0.0.1"
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 16310
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	// Console
	if c.Console.HistoryFile == "" {
		c.Console.HistoryFile = filepath.Join(c.General.DataDir, "shell_history")
	}
	if c.Console.Prompt == "" {
		c.Console.Prompt = "netplane> "
	}

	// DNS cache
	if c.DNSCache.TTL.Duration == 0 {
		c.DNSCache.TTL.Duration = time.Minute
	}
	if c.DNSCache.MaxItems == 0 {
		c.DNSCache.MaxItems = 10000
	}
	if c.DNSCache.SweepInterval.Duration == 0 {
		c.DNSCache.SweepInterval.Duration = 10 * time.Second
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Audit.Path = os.ExpandEnv(c.Audit.Path)
	c.Console.HistoryFile = os.ExpandEnv(c.Console.HistoryFile)
}
