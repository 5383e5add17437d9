package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kidzy-family/kidzy/internal/api"
	"github.com/kidzy-family/kidzy/internal/app/auth"
	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/health"
	"github.com/kidzy-family/kidzy/internal/infra/sqlite"
)

// Daemon is the core Kidzy runtime. It wires together all services.
type Daemon struct {
	Config Config
	Log    *slog.Logger
	DB     *sqlite.DB
	Store  *household.Store
	Auth   *auth.Authenticator
	Roller *engagement.Roller
	Health *health.Checker
	Server *api.Server
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, NewLogger(cfg, os.Stderr))
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, log *slog.Logger) (*Daemon, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sqlite.Open(cfg.Storage.Dir, sqlite.Options{
		MaxSnapshotBytes: cfg.Storage.MaxSnapshotBytes,
		Logger:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	loc := cfg.Location()
	reducer := household.NewReducer()
	reducer.Clock = func() time.Time { return time.Now().In(loc) }

	store, err := household.NewStore(context.Background(), db, reducer, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open household: %w", err)
	}

	limiter := auth.NewLimiter(db, cfg.Lockout(), nil)
	authn := auth.NewAuthenticator(store, limiter, log)
	roller := engagement.NewRoller()

	checker := health.NewChecker(db, cfg.Storage.Dir, store, log)
	checker.SetInterval(cfg.HealthInterval())

	srv := api.NewServer(store, authn, roller, log)
	srv.SetHealth(checker)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config: cfg,
		Log:    log.With("component", "daemon"),
		DB:     db,
		Store:  store,
		Auth:   authn,
		Roller: roller,
		Health: checker,
		Server: srv,
	}, nil
}

// Addr is the listen address from the API section.
func (d *Daemon) Addr() string {
	return net.JoinHostPort(d.Config.API.Host, strconv.Itoa(d.Config.API.Port))
}

// Serve runs the HTTP server and the health loop until ctx is cancelled or
// the process receives SIGINT/SIGTERM, then shuts both down.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", d.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return d.serveOn(ctx, ln)
}

func (d *Daemon) serveOn(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Health.Run(ctx)
		return nil
	})

	g.Go(func() error {
		d.Log.Info("serving", "addr", ln.Addr().String(), "metrics", d.Config.Telemetry.Prometheus)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		d.Log.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
