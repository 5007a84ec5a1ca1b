// internal/repository/snapshot_repo.go
package repository

import (
	"context"
	"time"

	"marketplace-ledger/internal/domain"
)

// SnapshotRepository defines the interface for balance snapshot persistence.
// Snapshots are insert-only; there is deliberately no update operation.
type SnapshotRepository interface {
	// CreateSnapshot inserts a snapshot. Returns false when a snapshot for
	// the same (date, period_type) already exists, leaving the existing row
	// untouched; creation is idempotent by construction.
	CreateSnapshot(ctx context.Context, q DBExecutor, snapshot *domain.BalanceSnapshot) (bool, error)
	// GetSnapshotByDate retrieves the snapshot for an exact (date, period) key.
	GetSnapshotByDate(ctx context.Context, q DBExecutor, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, error)
	// GetLatestSnapshot retrieves the most recent snapshot for a period type.
	GetLatestSnapshot(ctx context.Context, q DBExecutor, period domain.PeriodType) (*domain.BalanceSnapshot, error)
}
