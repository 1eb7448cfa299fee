// Package config loads runtime configuration for the reportkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables prefixed with REPORTKEEPER_.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   address:port of the server
//	-i int      online status check interval (seconds)
//	-t int      session timeout (minutes)
//	-d string   data directory
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "data_dir": "/var/lib/reportkeeper",
//	  "session_timeout_minutes": 7,
//	  "online_check_interval": "3s",
//	  "request_timeout": "30s",
//	  "resend_max_retries": 3,
//	  "resend_rate_per_second": 2,
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// The session timeout is read once when a session starts.
package config
