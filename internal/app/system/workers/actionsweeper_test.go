package workers_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/system/workers"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
}

func (c *countingExpirer) ExpireStale(context.Context) int {
	c.calls.Add(1)
	return 1
}

func TestActionSweeper_Sweeps(t *testing.T) {
	exp := &countingExpirer{}
	w := workers.NewActionSweeper(exp, zap.NewNop(), 5*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for exp.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if exp.calls.Load() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", exp.calls.Load())
	}

	after := exp.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if exp.calls.Load() != after {
		t.Error("sweeper kept running after Stop")
	}
}

func TestActionSweeper_StopIsIdempotent(t *testing.T) {
	w := workers.NewActionSweeper(&countingExpirer{}, zap.NewNop(), time.Hour)
	w.Start()
	w.Stop()
	w.Stop()
}
