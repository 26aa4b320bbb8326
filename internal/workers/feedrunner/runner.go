// Package feedrunner periodically refreshes the aggregated news feeds.
package feedrunner

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Refresher pulls all configured feed sources once, reporting the number
// of newly stored items.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Run refreshes feeds on a fixed interval until ctx is cancelled. The
// first refresh happens immediately so a fresh deployment is not empty
// for a whole interval.
func Run(ctx context.Context, refresher Refresher, interval time.Duration, logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	refresh := func() {
		start := time.Now()
		saved, err := refresher.Refresh(ctx)
		if err != nil {
			logger.Warn("feed refresh incomplete", "saved", saved, "err", err)
			return
		}
		logger.Info("feed refresh done", "saved", saved, "took", time.Since(start).Round(time.Millisecond))
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
