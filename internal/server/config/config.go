package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the collector.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the gRPC endpoint.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Empty means
//     a random per-process secret, so tokens do not survive a restart.
//   - AccessTokenValidityDuration: lifetime of an issued access token.
//   - AllowedAccounts: account ids that may obtain a token; empty admits all.
//   - BulletinDir: where uploaded bulletins land when no bucket is set.
//   - S3*: object storage settings; a non-empty S3Bucket enables S3.
type Config struct {
	EndpointAddrGRPC            string        `env:"ADDR"`
	SecretKey                   string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"TOKEN_TTL"`
	AllowedAccounts             []string      `env:"ALLOWED_ACCOUNTS" envSeparator:","`
	BulletinDir                 string        `env:"BULLETIN_DIR"`
	S3RootUser                  string        `env:"S3_ROOT_USER"`
	S3RootPassword              string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket                    string        `env:"S3_BUCKET"`
	S3Region                    string        `env:"S3_REGION"`
	S3BaseEndpoint              string        `env:"S3_BASE_ENDPOINT"`
	LogLevel                    string        `env:"LOG_LEVEL"`
	LogFormat                   string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates c with development defaults. They are insecure
// and must be overridden outside a local setup.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.AllowedAccounts = nil
	c.BulletinDir = "bulletins"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then REPORTKEEPER_COLLECTOR_* environment variables, then flags.
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

// UseS3 reports whether bulletins go to object storage.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}
