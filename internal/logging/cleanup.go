package logging

import (
	"context"
	"log/slog"
	"time"
)

const DefaultRetention = 30 * 24 * time.Hour

// PruneOnce deletes system logs older than retention as of now.
func PruneOnce(ctx context.Context, store LogStore, retention time.Duration, now time.Time) (int64, error) {
	deleted, err := store.DeleteBefore(ctx, now.Add(-retention))
	if err != nil {
		slog.Error("log cleanup failed", "error", err)
		return 0, err
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
	return deleted, nil
}

// StartCleanup prunes system logs every interval until done is closed.
func StartCleanup(store LogStore, retention, interval time.Duration, done chan struct{}) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				_, _ = PruneOnce(ctx, store, retention, time.Now())
				cancel()
			case <-done:
				return
			}
		}
	}()
}
