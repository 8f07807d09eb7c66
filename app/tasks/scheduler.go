package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jornt/medialog/app/atproto"
	"github.com/jornt/medialog/app/cache"
	"github.com/jornt/medialog/app/cfg"
	"github.com/jornt/medialog/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Sessions whose access token expires within this window get a refresh task.
const refreshWindow = 30 * time.Minute

// Aggregate reconciliation is a safety net, not a hot path.
const reconcileInterval = time.Hour

type Scheduler struct {
	sessionRepo   database.SessionRepository
	mediaRepo     database.MediaRepository
	reviewRepo    database.ReviewRepository
	shareRepo     database.ShareRepository
	client        atproto.ClientInterface
	cache         cache.CacheInterface
	interval      time.Duration
	workerCount   int
	lastReconcile time.Time
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(sessionRepo database.SessionRepository, mediaRepo database.MediaRepository,
	reviewRepo database.ReviewRepository, shareRepo database.ShareRepository,
	client atproto.ClientInterface, statsCache cache.CacheInterface) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		sessionRepo: sessionRepo,
		mediaRepo:   mediaRepo,
		reviewRepo:  reviewRepo,
		shareRepo:   shareRepo,
		client:      client,
		cache:       statsCache,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

// Stop cancels the scheduler context and waits for the workers. The task
// queue is left open because detached retry goroutines may still call
// EnqueueTask; they bail out via the cancelled context instead.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	s.enqueueSessionRefreshes()

	if err := s.EnqueueTask(NewPruneSharesTask(s.shareRepo)); err != nil {
		slog.Warn("Failed to enqueue PruneSharesTask", "error", err)
	}

	if time.Since(s.lastReconcile) >= reconcileInterval {
		s.lastReconcile = time.Now()
		s.enqueueReconciles()
	}
}

func (s *Scheduler) enqueueSessionRefreshes() {
	cutoff := time.Now().Add(refreshWindow)

	sessions, err := s.sessionRepo.GetSessionsExpiringBefore(cutoff, 100)
	if err != nil {
		slog.Warn("Failed to list expiring sessions", "error", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	slog.Debug("Scheduling session refreshes", "count", len(sessions))

	for _, session := range sessions {
		task := NewRefreshSessionTask(session.ID, s.client, s.sessionRepo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue RefreshSessionTask", "session_id", session.ID, "error", err)
		}
	}
}

func (s *Scheduler) enqueueReconciles() {
	mediaIDs, err := s.mediaRepo.ListMediaIDs()
	if err != nil {
		slog.Warn("Failed to list media items for reconciliation", "error", err)
		return
	}
	if len(mediaIDs) == 0 {
		return
	}

	slog.Debug("Scheduling aggregate reconciliation", "count", len(mediaIDs))

	for _, mediaID := range mediaIDs {
		task := NewReconcileStatsTask(mediaID, s.mediaRepo, s.reviewRepo, s.cache)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ReconcileStatsTask", "media_id", mediaID, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
