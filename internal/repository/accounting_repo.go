// internal/repository/accounting_repo.go
package repository

import (
	"context"
	"time"

	"marketplace-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// AccountingTotals is the aggregate over approved and settled accounting
// transactions used by the balance snapshot engine. Pending and rejected rows
// never count toward these sums.
type AccountingTotals struct {
	TotalDeposits    decimal.Decimal `db:"total_deposits"`
	TotalWithdrawals decimal.Decimal `db:"total_withdrawals"`
	TotalRevenue     decimal.Decimal `db:"total_revenue"`
}

// ListFilter narrows a transaction listing. Nil fields mean no filtering.
type ListFilter struct {
	Status *domain.AccountingStatus
	Type   *domain.AccountingType
}

// AccountingListRow is one row of a transaction listing with the joined
// user/provider display name for the admin panel.
type AccountingListRow struct {
	domain.AccountingTransaction
	PartyName *string `db:"party_name"`
}

// AccountingRepository defines the interface for accounting transaction data
// operations.
type AccountingRepository interface {
	// CreateTransaction inserts a new pending accounting transaction.
	CreateTransaction(ctx context.Context, q DBExecutor, tx *domain.AccountingTransaction) error
	// GetTransactionByID retrieves a transaction by id.
	GetTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.AccountingTransaction, error)
	// ListTransactions retrieves a filtered, paginated listing, newest first,
	// along with the total row count.
	ListTransactions(ctx context.Context, q DBExecutor, filter ListFilter, limit, offset int) ([]AccountingListRow, int64, error)
	// UpdateStatus persists a state transition as a compare-and-set: the row
	// is only written when its status still equals fromStatus. Returns false
	// when a concurrent caller already moved the transaction on.
	UpdateStatus(ctx context.Context, q DBExecutor, tx *domain.AccountingTransaction, fromStatus domain.AccountingStatus) (bool, error)
	// AggregateTotals computes the snapshot sums over approved/settled rows.
	AggregateTotals(ctx context.Context, q DBExecutor) (*AccountingTotals, error)
	// SumPendingWithdrawals sums withdraw_user/withdraw_provider amounts still
	// in pending status.
	SumPendingWithdrawals(ctx context.Context, q DBExecutor) (decimal.Decimal, error)
	// MonthlyRevenue returns per-month fee revenue over approved/settled rows
	// since the given time, oldest month first.
	MonthlyRevenue(ctx context.Context, q DBExecutor, since time.Time) ([]domain.RevenuePoint, error)
}
