package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/reportkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/reportkeeper/internal/client/cli"
	"github.com/dmitrijs2005/reportkeeper/internal/client/config"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	app := cli.NewApp(cfg, log)

	if err := app.Run(ctx); err != nil {
		log.Error(ctx, "client stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
