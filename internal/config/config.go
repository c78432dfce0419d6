package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/pulseboard/internal/metrics"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Session   SessionConfig   `yaml:"session"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AllowedOrigins lists browser origins allowed by CORS. Empty allows any.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// MaxConns caps the connection pool; 0 keeps the driver default.
	MaxConns int32 `yaml:"max_conns"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DashboardConfig tunes how views are computed.
type DashboardConfig struct {
	// Timezone is an IANA zone name or a fixed offset such as "+05:30".
	Timezone   string `yaml:"timezone"`
	GapMinutes int    `yaml:"gap_minutes"`
	MaxTicks   int    `yaml:"max_ticks"`
}

type SessionConfig struct {
	StateDir string `yaml:"state_dir"`
}

// MCPConfig controls the streamable-HTTP MCP endpoint at /mcp.
type MCPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DefaultEmail string `yaml:"default_email"`
}

// DefaultTimezone is used when dashboard.timezone is unset.
const DefaultTimezone = "+05:30"

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location resolves the configured timezone.
func (d DashboardConfig) Location() (*time.Location, error) {
	return metrics.LoadLocation(d.Timezone)
}

// GapThreshold returns the chart gap threshold.
func (d DashboardConfig) GapThreshold() time.Duration {
	return time.Duration(d.GapMinutes) * time.Minute
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix PULSEBOARD_ and underscore-separated paths:
//
//	PULSEBOARD_SERVER_HOST, PULSEBOARD_SERVER_PORT,
//	PULSEBOARD_DB_HOST, PULSEBOARD_DB_PORT, PULSEBOARD_DB_NAME,
//	PULSEBOARD_DB_USER, PULSEBOARD_DB_PASSWORD, PULSEBOARD_DB_SSLMODE,
//	PULSEBOARD_AUTH_API_KEY, PULSEBOARD_TAILSCALE_ENABLED,
//	PULSEBOARD_DASHBOARD_TIMEZONE, PULSEBOARD_SESSION_STATE_DIR,
//	PULSEBOARD_MCP_ENABLED, PULSEBOARD_MCP_DEFAULT_EMAIL
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PULSEBOARD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PULSEBOARD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PULSEBOARD_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PULSEBOARD_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PULSEBOARD_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PULSEBOARD_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PULSEBOARD_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PULSEBOARD_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PULSEBOARD_DB_MAX_CONNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Database.MaxConns = int32(n)
		}
	}
	if v := os.Getenv("PULSEBOARD_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("PULSEBOARD_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("PULSEBOARD_DASHBOARD_TIMEZONE"); v != "" {
		cfg.Dashboard.Timezone = v
	}
	if v := os.Getenv("PULSEBOARD_SESSION_STATE_DIR"); v != "" {
		cfg.Session.StateDir = v
	}
	if v := os.Getenv("PULSEBOARD_MCP_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.MCP.Enabled = enabled
		}
	}
	if v := os.Getenv("PULSEBOARD_MCP_DEFAULT_EMAIL"); v != "" {
		cfg.MCP.DefaultEmail = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Dashboard.Timezone == "" {
		cfg.Dashboard.Timezone = DefaultTimezone
	}
	if cfg.Dashboard.GapMinutes == 0 {
		cfg.Dashboard.GapMinutes = int(metrics.DefaultGapThreshold / time.Minute)
	}
	if cfg.Dashboard.MaxTicks == 0 {
		cfg.Dashboard.MaxTicks = metrics.DefaultMaxTicks
	}
	if cfg.Session.StateDir == "" {
		cfg.Session.StateDir = "state"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "pulseboard"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := c.Dashboard.Location(); err != nil {
		return fmt.Errorf("dashboard.timezone: %w", err)
	}
	if c.Dashboard.GapMinutes < 0 {
		return fmt.Errorf("dashboard.gap_minutes must be positive")
	}
	if c.Dashboard.MaxTicks < 0 {
		return fmt.Errorf("dashboard.max_ticks must be positive")
	}
	return nil
}
