package buildcmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rsdtools/releaselink/internal/handlers"
	"github.com/rsdtools/releaselink/internal/store"
)

const (
	shutdownTimeout       = 5 * time.Second
	defaultReloadInterval = 30 * time.Second
)

// NewServeCmd creates the serve command
func NewServeCmd(env *Env) *cobra.Command {
	var bind string
	var dbPath string
	var reload time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lookup API over the saved catalog",
		Long: `Loads the saved catalog into memory and answers lookups over HTTP.

Routes:
  GET /api/lookup?artist=&title=[&explain=1]
  GET /api/releases?artist=[&limit=]
  GET /api/build
  GET /healthcheck

The database is polled for a newer build, which replaces the served catalog
without a restart.`,
		Example: `  # Serve on the configured address (default :8888)
  releaselink serve

  # Serve on a custom address
  releaselink serve --bind 127.0.0.1:3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if !env.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			return executeServe(cmd.Context(), firstNonEmpty(dbPath, cfg.Output.Database), firstNonEmpty(bind, cfg.Server.Bind), reload)
		},
	}

	cmd.Flags().StringVarP(&bind, "bind", "b", "", "Address to listen on (overrides server.bind)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (overrides output.database)")
	cmd.Flags().DurationVar(&reload, "reload-interval", defaultReloadInterval, "How often to check for a newer build (0 disables)")

	return cmd
}

func loadCatalog(ctx context.Context, dbPath string) (*handlers.Catalog, error) {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	build, err := st.LatestBuild(ctx)
	if err != nil {
		return nil, err
	}
	records, err := st.LoadReleases(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := st.LoadTables(ctx)
	if err != nil {
		return nil, err
	}
	return &handlers.Catalog{Build: build, Releases: records, Tables: tables}, nil
}

// reloadIfChanged swaps in the latest build when its ID differs from the one
// h serves. It reports whether a swap happened.
func reloadIfChanged(ctx context.Context, h *handlers.Handler, dbPath string) (bool, error) {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return false, err
	}
	latest, err := st.LatestBuild(ctx)
	_ = st.Close()
	if err != nil {
		return false, err
	}
	if latest.ID == h.BuildID() {
		return false, nil
	}

	cat, err := loadCatalog(ctx, dbPath)
	if err != nil {
		return false, err
	}
	h.Swap(cat)
	slog.Info("reloaded catalog", "build", cat.Build.ID, "releases", len(cat.Releases))
	return true, nil
}

func watchBuilds(ctx context.Context, h *handlers.Handler, dbPath string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reloadIfChanged(ctx, h, dbPath); err != nil && ctx.Err() == nil {
				slog.Warn("catalog reload failed", "err", err)
			}
		}
	}
}

func executeServe(ctx context.Context, dbPath, addr string, reload time.Duration) error {
	cat, err := loadCatalog(ctx, dbPath)
	if err != nil {
		return err
	}
	slog.Info("loaded catalog", "build", cat.Build.ID, "releases", len(cat.Releases),
		"image_keys", cat.Tables.Images.Len(), "id_keys", cat.Tables.IDs.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := handlers.New(cat)
	if reload > 0 {
		go watchBuilds(ctx, h, dbPath, reload)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handlers.Router(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("lookup API available", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "err", err)
			return err
		}
		slog.Info("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
