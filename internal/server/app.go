// Package server wires and runs the development collector: configuration,
// bulletin storage, the collector service and its gRPC endpoint.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/dmitrijs2005/reportkeeper/internal/server/bulletins"
	"github.com/dmitrijs2005/reportkeeper/internal/server/collector"
	"github.com/dmitrijs2005/reportkeeper/internal/server/config"

	gs "github.com/dmitrijs2005/reportkeeper/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	collector *collector.Service
	secret    string
}

// NewApp builds the collector for c, logging to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, w)

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("bulletin store init error: %w", err)
	}

	secret, err := tokenSecret(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("token secret: %w", err)
	}
	if c.SecretKey == "" {
		logger.Warn(ctx, "no secret key configured, using an ephemeral one")
	}

	svc := collector.NewService(store, secret, c.AccessTokenValidityDuration, c.AllowedAccounts, logger)

	return &App{config: c, logger: logger, collector: svc, secret: secret}, nil
}

func tokenSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return common.MakeRandHexString(32)
}

func newStore(ctx context.Context, c *config.Config) (bulletins.Store, error) {
	if !c.UseS3() {
		return bulletins.NewDirStore(c.BulletinDir), nil
	}
	return bulletins.NewS3Store(ctx, bulletins.S3Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.collector, app.secret)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		return err
	}
	return nil
}
