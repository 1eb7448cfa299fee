package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/identity"
	"github.com/dmitrijs2005/reportkeeper/internal/session"
)

const (
	DesktopKeyFileName = "desktopHQ.json"
	PendingDirName     = "pending"
	ExportDirName      = "export"
)

// Config holds runtime settings for the reportkeeper client.
type Config struct {
	ServerEndpointAddr    string        `env:"SERVER_ADDR"`
	DataDir               string        `env:"DATA_DIR"`
	SessionTimeoutMinutes int           `env:"SESSION_TIMEOUT_MINUTES"`
	OnlineCheckInterval   time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT"`
	ResendMaxRetries      uint64        `env:"RESEND_MAX_RETRIES"`
	ResendRatePerSecond   float64       `env:"RESEND_RATE"`
	LogLevel              string        `env:"LOG_LEVEL"`
	LogFormat             string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataDir = defaultDataDir()
	c.SessionTimeoutMinutes = session.DefaultTimeoutMinutes
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.ResendMaxRetries = 3
	c.ResendRatePerSecond = 2
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then REPORTKEEPER_* environment variables, then flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionTimeout is the inactivity timeout. It is not validated here; the
// session timer rejects non-positive values.
func (c *Config) SessionTimeout() time.Duration {
	return session.TimeoutFromMinutes(c.SessionTimeoutMinutes)
}

func (c *Config) KeyVaultPath() string {
	return filepath.Join(c.DataDir, identity.VaultFileName)
}

func (c *Config) DesktopKeyPath() string {
	return filepath.Join(c.DataDir, DesktopKeyFileName)
}

func (c *Config) ExportPath() string {
	return filepath.Join(c.DataDir, ExportDirName, identity.ExportFileName)
}

func (c *Config) PendingDir() string {
	return filepath.Join(c.DataDir, PendingDirName)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "reportkeeper")
	}
	return ".reportkeeper"
}
