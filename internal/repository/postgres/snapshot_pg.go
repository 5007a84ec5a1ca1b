// internal/repository/postgres/snapshot_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/util"

	"github.com/jmoiron/sqlx"
)

// SnapshotRepository implements repository.SnapshotRepository for PostgreSQL.
type SnapshotRepository struct {
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) repository.SnapshotRepository {
	return &SnapshotRepository{}
}

const snapshotColumns = `id, snapshot_date, period_type, total_balance, total_revenue, total_withdrawals, total_pending_withdrawals, additional_data, created_at`

// CreateSnapshot inserts a snapshot. ON CONFLICT DO NOTHING makes creation
// idempotent under concurrent scheduler invocations: the loser of the race
// simply sees no inserted row and the existing snapshot stays untouched.
func (r *SnapshotRepository) CreateSnapshot(ctx context.Context, q repository.DBExecutor, snapshot *domain.BalanceSnapshot) (bool, error) {
	query := `INSERT INTO balance_snapshots (snapshot_date, period_type, total_balance, total_revenue, total_withdrawals, total_pending_withdrawals, additional_data, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              ON CONFLICT (snapshot_date, period_type) DO NOTHING
              RETURNING id`
	err := q.QueryRowContext(ctx, query,
		snapshot.Date,
		snapshot.PeriodType,
		snapshot.TotalBalance,
		snapshot.TotalRevenue,
		snapshot.TotalWithdrawals,
		snapshot.TotalPendingWithdrawals,
		snapshot.AdditionalData,
		snapshot.CreatedAt,
	).Scan(&snapshot.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict: a snapshot for this (date, period) already exists.
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s snapshot for %s: %w", snapshot.PeriodType, snapshot.Date.Format("2006-01-02"), err)
	}
	return true, nil
}

// GetSnapshotByDate retrieves the snapshot for an exact (date, period) key.
func (r *SnapshotRepository) GetSnapshotByDate(ctx context.Context, q repository.DBExecutor, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, error) {
	var snapshot domain.BalanceSnapshot
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots WHERE snapshot_date = $1 AND period_type = $2`
	err := q.GetContext(ctx, &snapshot, query, date, period)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s snapshot for %s: %w", period, date.Format("2006-01-02"), err)
	}
	return &snapshot, nil
}

// GetLatestSnapshot retrieves the most recent snapshot for a period type.
func (r *SnapshotRepository) GetLatestSnapshot(ctx context.Context, q repository.DBExecutor, period domain.PeriodType) (*domain.BalanceSnapshot, error) {
	var snapshot domain.BalanceSnapshot
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots WHERE period_type = $1 ORDER BY snapshot_date DESC LIMIT 1`
	err := q.GetContext(ctx, &snapshot, query, period)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest %s snapshot: %w", period, err)
	}
	return &snapshot, nil
}
