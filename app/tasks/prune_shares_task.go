package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jornt/medialog/app/database"
)

// PruneSharesTask deletes share links whose expiry has passed. Expired links
// already answer 410; this keeps the table from accumulating dead rows.
type PruneSharesTask struct {
	Task
	shareRepo database.ShareRepository
}

func NewPruneSharesTask(shareRepo database.ShareRepository) *PruneSharesTask {
	return &PruneSharesTask{
		Task:      NewTask(TaskTypePruneShares, "shares"),
		shareRepo: shareRepo,
	}
}

func (t *PruneSharesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	deleted, err := t.shareRepo.DeleteExpired(time.Now())
	if err != nil {
		slog.Error("Task failed", "type", "PruneShares", "error", err)
		return fmt.Errorf("failed to prune expired shares: %w", err)
	}

	if deleted > 0 {
		slog.Info("Task completed",
			"type", "PruneShares",
			"deleted", deleted,
			"duration", t.GetDuration())
	}

	return nil
}
