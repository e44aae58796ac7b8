package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const discoveryRunTimeout = 2 * time.Minute

// DiscoveryRunner invokes correlation discovery on a periodic schedule.
// Discovery itself is serialized inside DiscoveryService; the runner only
// owns the ticker lifecycle.
type DiscoveryRunner struct {
	discovery *DiscoveryService
	logger    *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewDiscoveryRunner(discovery *DiscoveryService, interval time.Duration, logger *zap.Logger) *DiscoveryRunner {
	return &DiscoveryRunner{
		discovery: discovery,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start runs discovery on a periodic schedule in a background goroutine.
func (r *DiscoveryRunner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("discovery runner started", zap.Duration("interval", r.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), discoveryRunTimeout)
				if _, err := r.discovery.RunCorrelationDiscovery(ctx); err != nil {
					r.logger.Error("scheduled discovery run failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("discovery runner stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the runner.
func (r *DiscoveryRunner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}
