package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pairchat/internal/retention"
	"pairchat/pkg/api"
	"pairchat/pkg/config"
	"pairchat/pkg/logger"
	"pairchat/pkg/store"
	"pairchat/pkg/telemetry"
	"pairchat/pkg/utils"
)

// App owns the process-level pieces: the store, the HTTP server and the
// retention runner.
type App struct {
	cfg           *config.Config
	st            *store.Pebble
	srv           *http.Server
	stopRetention func()
}

// New validates the configuration, opens the store and assembles the
// HTTP server. The server is not listening yet; call Run.
func New(cfg *config.Config) (*App, error) {
	if cfg.Server.DBPath == "" {
		return nil, fmt.Errorf("app: db_path is required")
	}
	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", telemetry.Handler())
	mux.Handle("/v1/", api.NewRouter(st, cfg))

	a := &App{
		cfg: cfg,
		st:  st,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	return a, nil
}

// Run starts the retention runner and serves HTTP until ctx is
// cancelled, then shuts everything down in order: server, retention,
// store.
func (a *App) Run(ctx context.Context) error {
	stop, err := retention.Start(ctx, a.st, a.cfg.Retention)
	if err != nil {
		if cerr := a.st.Close(); cerr != nil {
			logger.Warn("store_close_error", "err", cerr)
		}
		return err
	}
	a.stopRetention = stop

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		logger.Info("shutdown_started")
		a.shutdown()
		return nil
	}
}

func (a *App) shutdown() {
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutCtx); err != nil {
		logger.Warn("server_shutdown_error", "err", err)
	}
	if a.stopRetention != nil {
		a.stopRetention()
	}
	if err := a.st.Close(); err != nil {
		logger.Warn("store_close_error", "err", err)
	}
	logger.Info("shutdown_complete")
}
