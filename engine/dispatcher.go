package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/pricenote/locator"
)

// Dispatcher tries engines one after another, cheapest first, until one of
// them yields a price. Engines are never run concurrently: like the selector
// list, the engine list is a priority order.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *HostMemory
}

// NewDispatcher creates a Dispatcher. Before engines[i] starts, the
// dispatcher waits escalationDelays[i]; missing delays are zero.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *HostMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Dispatch locates a price using the engine chain.
//
// The engine remembered for the URL's host runs first. Otherwise each
// engine runs in order; a navigation failure or locator.ErrNotFound moves
// on to the next one. When all engines fail the error wraps
// locator.ErrNotFound if any engine loaded the page, else the last
// navigation error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest, loc *locator.Locator) (*Outcome, error) {
	host := hostOf(req.URL)
	tried := ""
	loaded := false
	var lastErr error

	if remembered := d.memory.Get(host); remembered != "" {
		for _, eng := range d.engines {
			if eng.Name() != remembered {
				continue
			}
			slog.Debug("host memory hit", "host", host, "engine", remembered)
			out, err := Run(ctx, eng, req, loc)
			if err == nil {
				return out, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			slog.Info("remembered engine failed, running full chain",
				"host", host, "engine", remembered, "error", err)
			d.memory.Forget(host)
			tried = remembered
			loaded = errors.Is(err, locator.ErrNotFound)
			lastErr = err
			break
		}
	}

	for i, eng := range d.engines {
		if eng.Name() == tried {
			continue
		}
		if delay := d.escalationDelays[i]; delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		slog.Debug("engine starting", "engine", eng.Name(), "url", req.URL)
		out, err := Run(ctx, eng, req, loc)
		if err == nil {
			slog.Info("engine found price", "engine", out.EngineName, "url", req.URL)
			d.memory.Set(host, out.EngineName)
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}

		slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
		if errors.Is(err, locator.ErrNotFound) {
			loaded = true
		}
		lastErr = err
	}

	if loaded {
		return nil, fmt.Errorf("dispatcher: %d engines tried: %w", len(d.engines), locator.ErrNotFound)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: no engine configured for %s", req.URL)
	}
	return nil, lastErr
}

// hostOf parses the hostname from a URL string.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
