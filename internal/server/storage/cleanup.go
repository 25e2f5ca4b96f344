package storage

import (
	"context"
	"time"

	"nospace/internal/logging"
	"nospace/internal/server/database"
	"nospace/internal/server/metrics"

	"go.uber.org/zap"
)

// ExpiredRecords is the part of the analysis repository the cleanup loop needs.
type ExpiredRecords interface {
	GetExpired(ctx context.Context) ([]*database.Analysis, error)
	Delete(ctx context.Context, id string) error
}

// CleanupService periodically removes expired analyses from both
// the database and transcript storage.
type CleanupService struct {
	repo     ExpiredRecords
	store    Store
	interval time.Duration
	done     chan struct{}
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(repo ExpiredRecords, store Store, interval time.Duration) *CleanupService {
	return &CleanupService{
		repo:     repo,
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup loop in a background goroutine.
func (cs *CleanupService) Start(ctx context.Context) {
	logging.Info("cleanup service started", zap.Duration("interval", cs.interval))

	go func() {
		defer close(cs.done)

		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		// Run once immediately on start
		cs.runCleanup(ctx)

		for {
			select {
			case <-ticker.C:
				cs.runCleanup(ctx)
			case <-ctx.Done():
				logging.Info("cleanup service stopping")
				return
			}
		}
	}()
}

// Wait blocks until the cleanup service has fully stopped.
func (cs *CleanupService) Wait() {
	<-cs.done
}

func (cs *CleanupService) runCleanup(ctx context.Context) {
	logging.Debug("running cleanup cycle")

	expired, err := cs.repo.GetExpired(ctx)
	if err != nil {
		logging.Error("failed to get expired analyses", zap.Error(err))
		return
	}

	if len(expired) == 0 {
		logging.Debug("no expired analyses to clean up")
		return
	}

	var cleaned, failed int
	for _, a := range expired {
		if err := cs.store.Delete(a.ID); err != nil {
			logging.Error("failed to delete transcript",
				zap.String("analysis_id", a.ID),
				zap.Error(err),
			)
			failed++
			continue
		}

		if err := cs.repo.Delete(ctx, a.ID); err != nil {
			logging.Error("failed to delete db record",
				zap.String("analysis_id", a.ID),
				zap.Error(err),
			)
			failed++
			continue
		}

		cleaned++
		logging.Info("cleaned up expired analysis",
			zap.String("analysis_id", a.ID),
			zap.String("filename", a.Filename),
			zap.Time("expired_at", a.ExpiresAt),
		)
	}

	metrics.RecordCleanup(cleaned, failed)
	logging.Info("cleanup cycle complete",
		zap.Int("cleaned", cleaned),
		zap.Int("failed", failed),
		zap.Int("total_expired", len(expired)),
	)
}
