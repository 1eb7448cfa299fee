package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/client/config"
	"github.com/dmitrijs2005/reportkeeper/internal/client/rpc"
	"github.com/dmitrijs2005/reportkeeper/internal/guard"
	"github.com/dmitrijs2005/reportkeeper/internal/identity"
	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/dmitrijs2005/reportkeeper/internal/metrics"
	"github.com/dmitrijs2005/reportkeeper/internal/netx"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/dmitrijs2005/reportkeeper/internal/pending"
	"github.com/dmitrijs2005/reportkeeper/internal/session"
	"github.com/dmitrijs2005/reportkeeper/internal/synctask"
	"github.com/prometheus/client_golang/prometheus"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// dialerFactory builds a dialer that sends creds with every call.
type dialerFactory func(creds rpc.Credentials) rpc.Dialer

type App struct {
	config *config.Config
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	store    *identity.Store
	timer    *session.Timer
	guard    *guard.Guard
	outbox   *pending.Queue
	runner   *synctask.Runner
	watcher  *synctask.Runner
	registry *prometheus.Registry
	dialFor  dialerFactory
	now      func() time.Time

	mu             sync.Mutex
	mode           Mode
	token          string
	desktopTrusted bool
}

// NewApp wires the client components for cfg.
func NewApp(cfg *config.Config, log logging.Logger) *App {
	dialFor := func(creds rpc.Credentials) rpc.Dialer {
		return rpc.NewDialer(creds, cfg.RequestTimeout)
	}
	return newApp(cfg, log, dialFor, bufio.NewReader(os.Stdin), os.Stdout)
}

func newApp(cfg *config.Config, log logging.Logger, dialFor dialerFactory, reader *bufio.Reader, out io.Writer) *App {
	a := &App{
		config:   cfg,
		log:      log,
		reader:   reader,
		out:      out,
		guard:    guard.New(log),
		outbox:   pending.NewQueue(cfg.PendingDir()),
		registry: prometheus.NewRegistry(),
		dialFor:  dialFor,
		store:    identity.NewStore(nil),
		now:      time.Now,
	}

	a.timer = session.New(session.ObserverFunc(a.onSessionLocked),
		session.WithLogger(log),
		session.WithClock(func() time.Time { return a.now() }),
	)

	online := netx.NewInterfaceChecker()
	a.runner = synctask.New(a.dial, a.timer, synctask.SinkFunc(a.deliver),
		synctask.WithEndpoint(cfg.ServerEndpointAddr),
		synctask.WithOutbox(a.outbox),
		synctask.WithConnectivity(netx.CheckerFunc(func() bool {
			return a.Mode() != ModeOffline && online.Available()
		})),
		synctask.WithLogger(log.With("component", "sync")),
		synctask.WithMetrics(metrics.NewSync(a.registry)),
		synctask.WithRetry(cfg.ResendMaxRetries, 500*time.Millisecond),
		synctask.WithUploadRate(cfg.ResendRatePerSecond),
	)
	a.watcher = synctask.New(a.dial, a.timer, synctask.SinkFunc(a.onProbe),
		synctask.WithLogger(logging.NewNop()),
	)
	return a
}

// dial opens a client carrying the current account id and access token,
// when there are any.
func (a *App) dial(endpoint string) (rpc.Client, error) {
	id, _ := a.store.PublicKeyString()
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()
	return a.dialFor(rpc.Credentials{AccountID: id, AccessToken: token})(endpoint)
}

// Run unlocks the identity and serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	printlnFn("Welcome to reportkeeper (type 'help' for commands)")

	if err := a.Login(ctx); err != nil {
		return err
	}
	if err := a.timer.Arm(a.config.SessionTimeout()); err != nil {
		return err
	}
	a.verifyDesktopKey(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
	return nil
}

// Close stops background work and wipes the identity from memory.
func (a *App) Close() {
	a.timer.Disarm()
	a.watcher.Close()
	a.runner.Close()
	a.store.Clear()
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

func (a *App) setToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *App) hasToken() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != ""
}

func (a *App) isLocked() bool { return a.timer.IsLocked() }

func (a *App) busy() bool { return a.timer.ExpirySuppressed() }

// touch resets the inactivity countdown.
func (a *App) touch() { a.timer.OnInteraction() }

// StartOnlineStatusWatcher probes the server every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task := a.watcher.ProbeConnectivity(ctx, a.config.ServerEndpointAddr)
			if _, err := task.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Warn(ctx, "probe wait failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// onProbe updates the mode from watcher probes. Refused probes say nothing
// about the server and are ignored.
func (a *App) onProbe(o outcome.Outcome) {
	switch o.Kind {
	case outcome.ConnectivityOk:
		a.setMode(ModeOnline)
	case outcome.ConnectivityDown:
		a.setMode(ModeOffline)
	}
}
