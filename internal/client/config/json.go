package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/reportkeeper/internal/flagx"
	"github.com/dmitrijs2005/reportkeeper/internal/timex"
)

// JsonConfig is the file form of Config. Absent fields keep their current
// value; durations accept "3s" or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr    *string         `json:"server_endpoint_addr"`
	DataDir               *string         `json:"data_dir"`
	SessionTimeoutMinutes *int            `json:"session_timeout_minutes"`
	OnlineCheckInterval   *timex.Duration `json:"online_check_interval"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	ResendMaxRetries      *uint64         `json:"resend_max_retries"`
	ResendRatePerSecond   *float64        `json:"resend_rate_per_second"`
	LogLevel              *string         `json:"log_level"`
	LogFormat             *string         `json:"log_format"`
}

// parseJSON overlays cfg with the file named by -c/-config in args, if any.
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

	setIf(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setIf(&cfg.DataDir, jc.DataDir)
	setIf(&cfg.SessionTimeoutMinutes, jc.SessionTimeoutMinutes)
	setIf(&cfg.ResendMaxRetries, jc.ResendMaxRetries)
	setIf(&cfg.ResendRatePerSecond, jc.ResendRatePerSecond)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
