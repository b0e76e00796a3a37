package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/models"
	"github.com/use-agent/pricenote/scraper"
)

type priceService interface {
	FetchPrice(ctx context.Context, req *models.PriceRequest) (*scraper.PriceResult, error)
	Close()
}

func defaultPriceService(cfg *config.Config) priceService {
	return scraper.New(cfg)
}

func newPriceCmd(a *app) *cobra.Command {
	var (
		timeoutMs int
		mode      string
		backend   string
		stealth   bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "price <url>",
		Short: "Print the displayed price of a product page",
		Long: "Loads the page, waits for it to render and prints the text of the first " +
			"visible, non-empty element among the configured price selectors.",
		Example: "  pricenote price https://www.amazon.com/dp/B0EXAMPLE --timeout-ms 45000",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if backend != "" {
				cfg.Browser.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if mode == "" {
				mode = cfg.Engine.FetchMode
			}
			if timeoutMs <= 0 {
				return fmt.Errorf("--timeout-ms must be positive, got %d", timeoutMs)
			}
			// The command line is the one place an explicit timeout may
			// exceed the server's ceiling.
			if d := time.Duration(timeoutMs) * time.Millisecond; d > cfg.Scraper.MaxTimeout {
				cfg.Scraper.MaxTimeout = d
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sc := a.newPriceService(&cfg)
			defer sc.Close()

			res, err := sc.FetchPrice(ctx, &models.PriceRequest{
				URL:       args[0],
				TimeoutMs: timeoutMs,
				FetchMode: mode,
				Stealth:   stealth,
			})
			if err != nil {
				return err
			}

			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", res.Price, res.Selector, res.EngineUsed)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Price)
			return nil
		},
	}

	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 30000, "Navigation timeout in milliseconds")
	cmd.Flags().StringVar(&mode, "mode", "", "Fetch mode: browser, http or auto (default from PRICENOTE_FETCH_MODE)")
	cmd.Flags().StringVar(&backend, "backend", "", "Browser backend: rod or chromedp (default from PRICENOTE_BROWSER_BACKEND)")
	cmd.Flags().BoolVar(&stealth, "stealth", false, "Enable anti-bot-detection evasions")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the matching selector and engine")
	return cmd
}
