package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/finalapps/orbit/internal/observability"
	"github.com/finalapps/orbit/internal/service"
)

// SweepWorker runs the deadline sweep on a fixed cadence.
type SweepWorker struct {
	lifecycle *service.LifecycleService
	metrics   *observability.Metrics
	interval  time.Duration
	logger    *zap.Logger
	done      chan struct{}
}

// NewSweepWorker creates the worker.
func NewSweepWorker(lifecycle *service.LifecycleService, metrics *observability.Metrics, interval time.Duration, logger *zap.Logger) *SweepWorker {
	return &SweepWorker{
		lifecycle: lifecycle,
		metrics:   metrics,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops when
// ctx is cancelled or Stop is called.
func (w *SweepWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the loop to exit.
func (w *SweepWorker) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *SweepWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepWorker) sweep(ctx context.Context) {
	report, err := w.lifecycle.SweepDeadlines(ctx, time.Now())
	if err != nil {
		w.logger.Error("deadline sweep failed", zap.Error(err))
		return
	}

	w.metrics.RecordSweep("escalated", report.Escalated)
	w.metrics.RecordSweep("reassigned", report.Reassigned)
	w.metrics.RecordSweep("missed", report.Missed)
	w.metrics.RecordSweep("retried", report.Retried)
	w.metrics.RecordSweep("failed", report.Failed)

	if report.Scanned > 0 || report.Retried > 0 || report.Failed > 0 {
		w.logger.Info("deadline sweep complete",
			zap.Int("scanned", report.Scanned),
			zap.Int("escalated", report.Escalated),
			zap.Int("reassigned", report.Reassigned),
			zap.Int("missed", report.Missed),
			zap.Int("retried", report.Retried),
			zap.Int("failed", report.Failed))
	}
}
