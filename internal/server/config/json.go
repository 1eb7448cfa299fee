package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/reportkeeper/internal/flagx"
	"github.com/dmitrijs2005/reportkeeper/internal/timex"
)

// JsonConfig is the file form of Config. Absent fields keep their current
// value.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	AllowedAccounts             []string        `json:"allowed_accounts"`
	BulletinDir                 *string         `json:"bulletin_dir"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	LogLevel                    *string         `json:"log_level"`
	LogFormat                   *string         `json:"log_format"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIf(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	setIf(&cfg.SecretKey, jc.SecretKey)
	setIf(&cfg.BulletinDir, jc.BulletinDir)
	setIf(&cfg.S3RootUser, jc.S3RootUser)
	setIf(&cfg.S3RootPassword, jc.S3RootPassword)
	setIf(&cfg.S3Bucket, jc.S3Bucket)
	setIf(&cfg.S3Region, jc.S3Region)
	setIf(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	if jc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.AllowedAccounts != nil {
		cfg.AllowedAccounts = jc.AllowedAccounts
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
