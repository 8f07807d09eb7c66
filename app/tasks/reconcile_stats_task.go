package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/database"
	"github.com/jornt/medialog/app/stats"
)

// ReconcileStatsTask rebuilds the rating aggregates of a media item from its
// review rows. Aggregates are maintained transactionally on every review
// write, so a rebuild normally finds nothing to fix; it exists to heal drift
// after manual database surgery or partial restores.
type ReconcileStatsTask struct {
	Task
	MediaID    string
	mediaRepo  database.MediaRepository
	reviewRepo database.ReviewRepository
	cache      cache.CacheInterface
}

func NewReconcileStatsTask(mediaID string, mediaRepo database.MediaRepository,
	reviewRepo database.ReviewRepository, statsCache cache.CacheInterface) *ReconcileStatsTask {
	return &ReconcileStatsTask{
		Task:       NewTask(TaskTypeReconcileStats, mediaID),
		MediaID:    mediaID,
		mediaRepo:  mediaRepo,
		reviewRepo: reviewRepo,
		cache:      statsCache,
	}
}

func (t *ReconcileStatsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	media, err := t.mediaRepo.GetMedia(t.MediaID)
	if err != nil {
		return fmt.Errorf("failed to load media item: %w", err)
	}
	if media == nil {
		slog.Debug("Media item gone, skipping reconcile", "media_id", t.MediaID)
		return nil
	}

	ratings, err := t.reviewRepo.ListRatingsForMedia(t.MediaID)
	if err != nil {
		slog.Error("Task failed", "type", "ReconcileStats", "media_id", t.MediaID, "error", err)
		return fmt.Errorf("failed to list ratings: %w", err)
	}

	rebuilt, err := stats.FromRatings(ratings)
	if err != nil {
		return fmt.Errorf("failed to rebuild aggregates: %w", err)
	}

	if rebuilt == media.Ratings && len(ratings) == media.ReviewCount {
		slog.Debug("Aggregates already consistent", "media_id", t.MediaID)
		return nil
	}

	if err := t.mediaRepo.ReplaceRatings(t.MediaID, rebuilt, len(ratings)); err != nil {
		slog.Error("Task failed", "type", "ReconcileStats", "media_id", t.MediaID, "error", err)
		return fmt.Errorf("failed to replace aggregates: %w", err)
	}

	if err := t.cache.Delete(cache.MediaStatsKey(t.MediaID)); err != nil {
		slog.Debug("Failed to invalidate media stats cache", "media_id", t.MediaID, "error", err)
	}

	slog.Info("Task completed",
		"type", "ReconcileStats",
		"media_id", t.MediaID,
		"rating_count", rebuilt.Count,
		"duration", t.GetDuration())

	return nil
}
