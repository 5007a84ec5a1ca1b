// internal/service/snapshot_engine.go
package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
)

// SnapshotEngine computes and persists point-in-time rollups of system-wide
// financial totals. Creation is idempotent per (date, period) key, so
// repeated or overlapping scheduler invocations are safe.
type SnapshotEngine interface {
	// CreateSnapshot aggregates the ledger store and persists a snapshot for
	// (date, period). A zero date defaults to now; the date is normalized to
	// the start of its period. Returns created=false with the existing
	// snapshot when one already exists for the key.
	CreateSnapshot(ctx context.Context, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, bool, error)
	// GetLatest returns the most recent snapshot for the period type.
	GetLatest(ctx context.Context, period domain.PeriodType) (*domain.BalanceSnapshot, error)
	// GetByDate returns the snapshot for an exact (date, period) key.
	GetByDate(ctx context.Context, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, error)
}

type snapshotEngine struct {
	dbExecutor     repository.DBExecutor
	accountingRepo repository.AccountingRepository
	snapshotRepo   repository.SnapshotRepository
}

// NewSnapshotEngine creates a new SnapshotEngine.
func NewSnapshotEngine(
	dbExecutor repository.DBExecutor,
	accountingRepo repository.AccountingRepository,
	snapshotRepo repository.SnapshotRepository,
) SnapshotEngine {
	return &snapshotEngine{
		dbExecutor:     dbExecutor,
		accountingRepo: accountingRepo,
		snapshotRepo:   snapshotRepo,
	}
}

// CreateSnapshot computes the five reporting totals from accounting
// transactions and persists them under the (date, period) key.
//
// total_balance is total deposits minus approved withdrawals; refund and
// settlement transaction types are bookkeeping reclassifications of amounts
// already counted and stay out of the formula.
func (e *snapshotEngine) CreateSnapshot(ctx context.Context, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, bool, error) {
	if !domain.ValidPeriod(period) {
		return nil, false, fmt.Errorf("create snapshot: unknown period type %q", period)
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	date = domain.PeriodStart(period, date)

	totals, err := e.accountingRepo.AggregateTotals(ctx, e.dbExecutor)
	if err != nil {
		return nil, false, fmt.Errorf("create snapshot: %w", err)
	}
	pending, err := e.accountingRepo.SumPendingWithdrawals(ctx, e.dbExecutor)
	if err != nil {
		return nil, false, fmt.Errorf("create snapshot: %w", err)
	}

	snapshot := &domain.BalanceSnapshot{
		Date:                    date,
		PeriodType:              period,
		TotalBalance:            totals.TotalDeposits.Sub(totals.TotalWithdrawals),
		TotalRevenue:            totals.TotalRevenue,
		TotalWithdrawals:        totals.TotalWithdrawals,
		TotalPendingWithdrawals: pending,
		AdditionalData:          domain.ExtraData{"total_deposits": totals.TotalDeposits},
		CreatedAt:               time.Now().UTC(),
	}

	created, err := e.snapshotRepo.CreateSnapshot(ctx, e.dbExecutor, snapshot)
	if err != nil {
		return nil, false, fmt.Errorf("create snapshot: %w", err)
	}
	if !created {
		existing, err := e.snapshotRepo.GetSnapshotByDate(ctx, e.dbExecutor, period, date)
		if err != nil {
			return nil, false, fmt.Errorf("create snapshot: fetch existing: %w", err)
		}
		return existing, false, nil
	}
	return snapshot, true, nil
}

// GetLatest returns the most recent snapshot for the period type.
func (e *snapshotEngine) GetLatest(ctx context.Context, period domain.PeriodType) (*domain.BalanceSnapshot, error) {
	return e.snapshotRepo.GetLatestSnapshot(ctx, e.dbExecutor, period)
}

// GetByDate returns the snapshot for an exact (date, period) key.
func (e *snapshotEngine) GetByDate(ctx context.Context, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, error) {
	return e.snapshotRepo.GetSnapshotByDate(ctx, e.dbExecutor, period, domain.PeriodStart(period, date))
}
