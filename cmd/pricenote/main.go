// Command pricenote checks product prices and keeps a small knowledge base.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/models"
)

// app carries state shared by subcommands. The factories are swapped out
// in tests.
type app struct {
	cfg             *config.Config
	stdout, stderr  io.Writer
	newPriceService func(cfg *config.Config) priceService
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pricenote",
		Short:         "Product price checker and personal knowledge base",
		Long:          "pricenote reads the displayed price off product pages with a headless browser and serves a small SQLite-backed notes app.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			initLogger(cfg.Log, a.stderr)
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(newPriceCmd(a), newServeCmd(a), newNotesCmd(a))
	return root
}

func main() {
	a := &app{
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		newPriceService: defaultPriceService,
	}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", humanError(err))
		os.Exit(1)
	}
}

// humanError drops error codes and wrapped causes from typed errors.
func humanError(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// initLogger configures slog based on the LogConfig. Logs always go to w
// (stderr) so command output on stdout stays machine readable.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
