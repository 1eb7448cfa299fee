package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/reportkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/reportkeeper/internal/server"
	"github.com/dmitrijs2005/reportkeeper/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	app, err := server.NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
