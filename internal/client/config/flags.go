package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-a string   address and port of the server
//	-i int      online check interval (seconds)
//	-t int      session timeout (minutes)
//	-d string   data directory
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-t", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.IntVar(&cfg.SessionTimeoutMinutes, "t", cfg.SessionTimeoutMinutes, "session timeout (in minutes)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
