package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/admingate/internal/metrics"
)

// CleanupTask removes stale records of one kind and reports how many it removed
type CleanupTask struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// CleanupManager periodically runs hygiene tasks such as purging expired
// ledger records and session revocations. Tasks never change what a live
// record means; they only reclaim storage.
type CleanupManager struct {
	tasks    []CleanupTask
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// DefaultCleanupInterval is used when a non-positive interval is configured
const DefaultCleanupInterval = 10 * time.Minute

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(tasks []CleanupTask, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *CleanupManager {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupManager{
		tasks:    tasks,
		logger:   logger,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs every task immediately and then on each tick until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce runs each task a single time. A failing task does not stop the others.
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	for _, task := range cm.tasks {
		taskCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		removed, err := task.Run(taskCtx)
		cancel()

		if err != nil {
			cm.logger.Error("cleanup task failed",
				slog.String("task", task.Name),
				slog.Any("error", err))
			continue
		}

		cm.metrics.ObservePurged(task.Name, removed)
		if removed > 0 {
			cm.logger.Info("cleanup task completed",
				slog.String("task", task.Name),
				slog.Int64("rows_deleted", removed))
		}
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
