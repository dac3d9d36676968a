package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/labor-calculator/account"
	"github.com/warp/labor-calculator/api"
	"github.com/warp/labor-calculator/config"
	"github.com/warp/labor-calculator/logging"
	"github.com/warp/labor-calculator/metrics"
	"github.com/warp/labor-calculator/session"
	"github.com/warp/labor-calculator/store/sqlite"
)

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard and JSON API",
		Long: `Starts the HTTP server. Configuration comes from --env-file, CONFIG_FILE
and the process environment; API_URL and SESSION_SECRET are required.

On SIGINT/SIGTERM the server stops accepting connections and waits up to
30s for in-flight requests.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		printViolations(cmd, err)
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = log

	store, closeStore, err := openSessionStore(cfg.SessionStoreDSN)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer closeStore()

	accounts, err := account.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	m := metrics.New()
	sessions := session.NewManager(store, session.Options{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	})

	h, err := api.NewHandler(api.Deps{
		Config:   cfg,
		Accounts: accounts,
		Sessions: sessions,
		Metrics:  m,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.String("api_url", cfg.APIURL),
			zap.String("session_store", cfg.SessionStoreDSN))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sessions.RunSweeper(gctx, sweepInterval, func(n int, err error) {
			if err != nil {
				log.Warn("session sweep", zap.Error(err))
				return
			}
			m.SessionsSwept.Add(float64(n))
			if n > 0 {
				log.Debug("expired sessions removed", zap.Int("count", n))
			}
		})
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// openSessionStore returns the in-process store for config.MemoryStoreDSN
// and a sqlite store for anything else.
func openSessionStore(dsn string) (session.Store, func() error, error) {
	if dsn == config.MemoryStoreDSN {
		return session.NewMemory(), func() error { return nil }, nil
	}
	s, err := sqlite.New(dsn)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
