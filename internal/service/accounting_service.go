// internal/service/accounting_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketplace-ledger/internal/cache"
	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/util"
	"marketplace-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// AccountingService orchestrates the accounting transaction state machine,
// withdrawal request creation, and the cached reporting views.
type AccountingService interface {
	// GetBalanceSummary returns the reporting summary for a period. It never
	// fails: on any internal error it logs and returns a zero-valued summary
	// so dashboards degrade instead of erroring.
	GetBalanceSummary(ctx context.Context, period domain.PeriodType) domain.BalanceSummary
	// GetRevenueChart returns the monthly fee-revenue series for a 6 or 12
	// month window, degrading to an empty series on failure.
	GetRevenueChart(ctx context.Context, months int) []domain.RevenuePoint

	// ApproveTransaction, RejectTransaction and SettleTransaction apply the
	// state machine inside a database transaction. ok=false with a nil error
	// means the transaction was not in the required source state; a
	// concurrent admin already acted on it.
	ApproveTransaction(ctx context.Context, txID, adminID int64, trackingCode string) (bool, error)
	RejectTransaction(ctx context.Context, txID, adminID int64, reason string) (bool, error)
	SettleTransaction(ctx context.Context, txID, adminID int64, trackingCode string) (bool, error)

	// Withdrawal request creation records a pending accounting transaction.
	// It never moves wallet balances; balance movement happens at settlement
	// time in the surrounding application logic.
	CreateUserWithdrawalRequest(ctx context.Context, userID int64, amount decimal.Decimal, bankAccount, note string) (*domain.AccountingTransaction, error)
	CreateProviderWithdrawalRequest(ctx context.Context, providerID int64, amount decimal.Decimal, bankAccount, note string) (*domain.AccountingTransaction, error)

	GetTransaction(ctx context.Context, id int64) (*domain.AccountingTransaction, error)
	ListTransactions(ctx context.Context, filter repository.ListFilter, limit, offset int) ([]repository.AccountingListRow, int64, error)
}

type accountingService struct {
	dbBeginner     db.DBTxBeginner
	dbExecutor     repository.DBExecutor
	accountingRepo repository.AccountingRepository
	partyRepo      repository.PartyRepository
	snapshots      SnapshotEngine
	summaryCache   cache.Cache
	summaryTTL     time.Duration
	logger         *slog.Logger
	beginTx        db.BeginTxFunc
	commitTx       db.CommitTxFunc
	rollbackTx     db.RollbackTxFunc
}

// NewAccountingService creates a new instance of AccountingService.
func NewAccountingService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountingRepo repository.AccountingRepository,
	partyRepo repository.PartyRepository,
	snapshots SnapshotEngine,
	summaryCache cache.Cache,
	summaryTTL time.Duration,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) AccountingService {
	return &accountingService{
		dbBeginner:     dbBeginner,
		dbExecutor:     dbExecutor,
		accountingRepo: accountingRepo,
		partyRepo:      partyRepo,
		snapshots:      snapshots,
		summaryCache:   summaryCache,
		summaryTTL:     summaryTTL,
		logger:         logger,
		beginTx:        beginTx,
		commitTx:       commitTx,
		rollbackTx:     rollbackTx,
	}
}

// invalidateCaches clears the enumerated reporting keys. Best effort: a cache
// failure is logged, never surfaced, since the store remains the source of
// truth.
func (s *accountingService) invalidateCaches(ctx context.Context) {
	if err := s.summaryCache.Delete(ctx, cache.InvalidationSet()...); err != nil {
		s.logger.Error("Failed to invalidate reporting caches", "error", err)
	}
}

// transition runs one state-machine step inside a database transaction. The
// domain mutation decides the target state; the repository compare-and-set on
// the prior status guards against concurrent admins. Cache invalidation
// happens only after a successful commit.
func (s *accountingService) transition(ctx context.Context, op string, txID int64, mutate func(*domain.AccountingTransaction) bool) (bool, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return false, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return false, fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	accountingTx, err := s.accountingRepo.GetTransactionByID(ctx, txExecutor, txID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to get accounting transaction %d: %w", op, txID, err)
	}

	fromStatus := accountingTx.Status
	if !mutate(accountingTx) {
		// Wrong source state: someone else already acted. Not an error.
		return false, nil
	}

	applied, err := s.accountingRepo.UpdateStatus(ctx, txExecutor, accountingTx, fromStatus)
	if err != nil {
		return false, fmt.Errorf("%s: failed to update accounting transaction %d: %w", op, txID, err)
	}
	if !applied {
		return false, nil
	}

	if err := s.commitTx(txController); err != nil {
		return false, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.invalidateCaches(ctx)
	return true, nil
}

// ApproveTransaction moves a pending transaction to approved.
func (s *accountingService) ApproveTransaction(ctx context.Context, txID, adminID int64, trackingCode string) (bool, error) {
	return s.transition(ctx, "approve", txID, func(t *domain.AccountingTransaction) bool {
		return t.Approve(adminID, trackingCode)
	})
}

// RejectTransaction moves a pending transaction to rejected with a reason.
func (s *accountingService) RejectTransaction(ctx context.Context, txID, adminID int64, reason string) (bool, error) {
	return s.transition(ctx, "reject", txID, func(t *domain.AccountingTransaction) bool {
		return t.Reject(adminID, reason)
	})
}

// SettleTransaction moves an approved transaction to settled, confirming the
// payout left the platform.
func (s *accountingService) SettleTransaction(ctx context.Context, txID, adminID int64, trackingCode string) (bool, error) {
	return s.transition(ctx, "settle", txID, func(t *domain.AccountingTransaction) bool {
		return t.Settle(adminID, trackingCode)
	})
}

// CreateUserWithdrawalRequest records a pending withdraw_user transaction for
// an existing user.
func (s *accountingService) CreateUserWithdrawalRequest(ctx context.Context, userID int64, amount decimal.Decimal, bankAccount, note string) (*domain.AccountingTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}
	if _, err := s.partyRepo.GetUserByID(ctx, s.dbExecutor, userID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("create user withdrawal request: %w", err)
	}

	accountingTx := domain.NewUserWithdrawalRequest(userID, amount, bankAccount, note)
	if err := s.accountingRepo.CreateTransaction(ctx, s.dbExecutor, accountingTx); err != nil {
		return nil, fmt.Errorf("create user withdrawal request: %w", err)
	}

	s.invalidateCaches(ctx)
	return accountingTx, nil
}

// CreateProviderWithdrawalRequest records a pending withdraw_provider
// transaction for an existing service provider.
func (s *accountingService) CreateProviderWithdrawalRequest(ctx context.Context, providerID int64, amount decimal.Decimal, bankAccount, note string) (*domain.AccountingTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}
	if _, err := s.partyRepo.GetProviderByID(ctx, s.dbExecutor, providerID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrProviderNotFound
		}
		return nil, fmt.Errorf("create provider withdrawal request: %w", err)
	}

	accountingTx := domain.NewProviderWithdrawalRequest(providerID, amount, bankAccount, note)
	if err := s.accountingRepo.CreateTransaction(ctx, s.dbExecutor, accountingTx); err != nil {
		return nil, fmt.Errorf("create provider withdrawal request: %w", err)
	}

	s.invalidateCaches(ctx)
	return accountingTx, nil
}

// GetTransaction retrieves one accounting transaction.
func (s *accountingService) GetTransaction(ctx context.Context, id int64) (*domain.AccountingTransaction, error) {
	accountingTx, err := s.accountingRepo.GetTransactionByID(ctx, s.dbExecutor, id)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return accountingTx, nil
}

// ListTransactions retrieves a filtered, paginated listing with joined
// display fields.
func (s *accountingService) ListTransactions(ctx context.Context, filter repository.ListFilter, limit, offset int) ([]repository.AccountingListRow, int64, error) {
	rows, totalCount, err := s.accountingRepo.ListTransactions(ctx, s.dbExecutor, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return rows, totalCount, nil
}

// GetBalanceSummary serves the cached summary when fresh, otherwise rebuilds
// it from the latest snapshot (creating one if the period has none yet) and
// the previous period's snapshot for trend percentages.
func (s *accountingService) GetBalanceSummary(ctx context.Context, period domain.PeriodType) domain.BalanceSummary {
	if !domain.ValidPeriod(period) {
		period = domain.PeriodDaily
	}

	key := cache.SummaryKey(period)
	if cached, err := s.summaryCache.Get(ctx, key); err == nil {
		var summary domain.BalanceSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return summary
		}
		s.logger.Warn("Discarding undecodable cached summary", "key", key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Error("Summary cache read failed", "key", key, "error", err)
	}

	summary, err := s.buildBalanceSummary(ctx, period)
	if err != nil {
		s.logger.Error("Failed to build balance summary, serving zero values",
			"period", period, "error", err)
		return domain.ZeroBalanceSummary(period)
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := s.summaryCache.Set(ctx, key, string(encoded), s.summaryTTL); err != nil {
			s.logger.Error("Summary cache write failed", "key", key, "error", err)
		}
	}
	return summary
}

func (s *accountingService) buildBalanceSummary(ctx context.Context, period domain.PeriodType) (domain.BalanceSummary, error) {
	snapshot, err := s.snapshots.GetLatest(ctx, period)
	if errors.Is(err, util.ErrNotFound) {
		snapshot, _, err = s.snapshots.CreateSnapshot(ctx, period, time.Time{})
	}
	if err != nil {
		return domain.BalanceSummary{}, err
	}

	previousBalance := decimal.Zero
	previousRevenue := decimal.Zero
	previousDate := domain.PreviousPeriodDate(period, snapshot.Date)
	previous, err := s.snapshots.GetByDate(ctx, period, previousDate)
	switch {
	case err == nil:
		previousBalance = previous.TotalBalance
		previousRevenue = previous.TotalRevenue
	case errors.Is(err, util.ErrNotFound):
		// No prior snapshot: growth stays zero.
	default:
		return domain.BalanceSummary{}, err
	}

	return domain.BalanceSummary{
		Period:                  period,
		SnapshotDate:            snapshot.Date,
		TotalBalance:            snapshot.TotalBalance,
		TotalRevenue:            snapshot.TotalRevenue,
		TotalWithdrawals:        snapshot.TotalWithdrawals,
		TotalPendingWithdrawals: snapshot.TotalPendingWithdrawals,
		BalanceGrowth:           domain.GrowthPercent(snapshot.TotalBalance, previousBalance),
		RevenueGrowth:           domain.GrowthPercent(snapshot.TotalRevenue, previousRevenue),
	}, nil
}

// GetRevenueChart serves the cached monthly fee-revenue series for a 6 or 12
// month window, degrading to an empty series on failure.
func (s *accountingService) GetRevenueChart(ctx context.Context, months int) []domain.RevenuePoint {
	if months != 12 {
		months = 6
	}

	key := cache.RevenueChartKey(months)
	if cached, err := s.summaryCache.Get(ctx, key); err == nil {
		var points []domain.RevenuePoint
		if err := json.Unmarshal([]byte(cached), &points); err == nil {
			return points
		}
		s.logger.Warn("Discarding undecodable cached chart", "key", key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Error("Chart cache read failed", "key", key, "error", err)
	}

	now := time.Now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	points, err := s.accountingRepo.MonthlyRevenue(ctx, s.dbExecutor, since)
	if err != nil {
		s.logger.Error("Failed to compute revenue chart, serving empty series",
			"months", months, "error", err)
		return []domain.RevenuePoint{}
	}

	if encoded, err := json.Marshal(points); err == nil {
		if err := s.summaryCache.Set(ctx, key, string(encoded), s.summaryTTL); err != nil {
			s.logger.Error("Chart cache write failed", "key", key, "error", err)
		}
	}
	return points
}
