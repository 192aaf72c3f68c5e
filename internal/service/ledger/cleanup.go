package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/store"
)

// CleanupPending fails every transaction still PENDING past maxAge. Records
// normally commit in a terminal status; a PENDING record older than the
// cutoff was abandoned mid-flight and will never complete. Returns the
// number of records failed.
func (s *Service) CleanupPending(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)

	var failed int
	err := s.withOpDeadline(ctx, "pending cleanup", func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			stale, err := tx.Transactions().ListPendingOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			for _, txn := range stale {
				if err := tx.Transactions().UpdateStatus(ctx, txn.TransactionID, domain.TransactionStatusFailed); err != nil {
					return err
				}
			}
			failed = len(stale)
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("CleanupPending: %w", err)
	}

	if failed > 0 {
		logging.FromContext(ctx).Info("stale pending transactions failed",
			"count", failed,
			"cutoff", cutoff,
		)
	}
	return failed, nil
}

// RunCleanupLoop sweeps stale pending transactions every interval until ctx
// ends. Intended to run in its own goroutine from main.
func (s *Service) RunCleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	log := logging.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupPending(ctx, maxAge); err != nil {
				log.Error("pending cleanup failed", "error", err)
			}
		}
	}
}
