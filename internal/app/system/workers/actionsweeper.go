// internal/app/system/workers/actionsweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Expirer drops staged actions that are past their TTL.
// *lifecycle.Controller satisfies it.
type Expirer interface {
	ExpireStale(ctx context.Context) int
}

// ActionSweeper is a background worker that removes expired staged actions
// from the confirmation gate.
type ActionSweeper struct {
	gate     Expirer
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewActionSweeper creates a sweeper that runs every interval.
func NewActionSweeper(gate Expirer, logger *zap.Logger, interval time.Duration) *ActionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ActionSweeper{
		gate:     gate,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ActionSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("action sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ActionSweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("action sweeper stopped")
}

func (w *ActionSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *ActionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	if n := w.gate.ExpireStale(ctx); n > 0 {
		w.log.Info("expired staged actions", zap.Int("count", n))
	}
}
