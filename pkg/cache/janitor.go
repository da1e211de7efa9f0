package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// janitor periodically sweeps expired entries from the registry's
// disk-backed instances, so a cache that is rarely read does not
// accumulate stale files forever. Sweep cycles are paced by a rate
// limiter: if the interval is configured aggressively short, maintenance
// still cannot monopolize disk I/O.
type janitor struct {
	registry *Registry
	interval time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger

	shutdown chan struct{}
	done     chan struct{}
}

func newJanitor(registry *Registry, cfg JanitorConfig, logger *slog.Logger) *janitor {
	return &janitor{
		registry: registry,
		interval: cfg.Interval.Std(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.SweepsPerSecond), 1),
		logger:   logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// start launches the sweep loop. The loop exits when ctx is canceled or
// stop is called.
func (j *janitor) start(ctx context.Context) {
	go j.run(ctx)
}

func (j *janitor) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.shutdown:
			return
		case <-ticker.C:
			if err := j.limiter.Wait(ctx); err != nil {
				return
			}
			counts := j.registry.CleanupAllExpired(ctx)
			total := 0
			for _, n := range counts {
				total += n
			}
			if total > 0 {
				j.logger.Info("Janitor sweep removed expired entries", "counts", counts)
			} else {
				j.logger.Debug("Janitor sweep found nothing expired")
			}
		}
	}
}

// stop terminates the sweep loop and waits for it to exit.
func (j *janitor) stop() {
	select {
	case <-j.shutdown:
		// already stopped
	default:
		close(j.shutdown)
	}
	<-j.done
}
