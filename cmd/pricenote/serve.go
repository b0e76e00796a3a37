package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/use-agent/pricenote/api"
	"github.com/use-agent/pricenote/cache"
	"github.com/use-agent/pricenote/cleaner"
	"github.com/use-agent/pricenote/notes"
	"github.com/use-agent/pricenote/scraper"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notes web app and the price API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			gin.DefaultWriter = a.stderr

			slog.Info("pricenote starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
				"backend", cfg.Browser.Backend,
				"fetchMode", cfg.Engine.FetchMode,
			)

			// ── 1. Initialise scraper (browser starts lazily) ───────────────
			sc := scraper.New(cfg)
			defer sc.Close()

			// ── 2. Open the note store ──────────────────────────────────────
			store, err := notes.Open(cmd.Context(), cfg.Notes.DBPath)
			if err != nil {
				return fmt.Errorf("open note store: %w", err)
			}
			defer store.Close()
			slog.Info("note store ready", "path", cfg.Notes.DBPath)

			// ── 3. Initialise clipper and cache ─────────────────────────────
			clipper := cleaner.NewClipper(sc.HTTP(), cfg.Scraper.DefaultTimeout)
			cc := cache.New(cfg.Cache.MaxEntries)
			defer cc.Stop()

			// ── 4. Setup router ─────────────────────────────────────────────
			router, err := api.NewRouter(cfg, sc, store, clipper, cc, time.Now())
			if err != nil {
				return err
			}

			// ── 5. Start HTTP server ────────────────────────────────────────
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			// ── 6. Graceful shutdown ────────────────────────────────────────
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("HTTP server: %w", err)
				}
			case <-ctx.Done():
				slog.Info("shutdown signal received")
			}

			// Give in-flight requests 5 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}

			// Deferred closes drain the browser and the database.
			slog.Info("pricenote stopped")
			return nil
		},
	}
}
