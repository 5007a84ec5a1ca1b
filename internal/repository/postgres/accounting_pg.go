// internal/repository/postgres/accounting_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// AccountingRepository implements repository.AccountingRepository for PostgreSQL.
type AccountingRepository struct {
}

// NewAccountingRepository creates a new AccountingRepository.
func NewAccountingRepository(db *sqlx.DB) repository.AccountingRepository {
	return &AccountingRepository{}
}

const accountingColumns = `id, user_id, provider_id, type, amount, status, bank_account, tracking_code, reference_id, audit_trail, approved_by, rejection_reason, created_at, updated_at`

// CreateTransaction inserts a new accounting transaction.
func (r *AccountingRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, tx *domain.AccountingTransaction) error {
	query := `INSERT INTO accounting_transactions (user_id, provider_id, type, amount, status, bank_account, tracking_code, reference_id, audit_trail, approved_by, rejection_reason, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		tx.UserID,
		tx.ProviderID,
		tx.Type,
		tx.Amount,
		tx.Status,
		tx.BankAccount,
		tx.TrackingCode,
		tx.ReferenceID,
		tx.AuditTrail,
		tx.ApprovedBy,
		tx.RejectionReason,
		tx.CreatedAt,
		tx.UpdatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("failed to create accounting transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves an accounting transaction by id.
func (r *AccountingRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.AccountingTransaction, error) {
	var tx domain.AccountingTransaction
	query := `SELECT ` + accountingColumns + ` FROM accounting_transactions WHERE id = $1`
	err := q.GetContext(ctx, &tx, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get accounting transaction %d: %w", id, err)
	}
	return &tx, nil
}

// ListTransactions retrieves a filtered, paginated listing with the joined
// user/provider display name, newest first, plus the total row count.
func (r *AccountingRepository) ListTransactions(ctx context.Context, q repository.DBExecutor, filter repository.ListFilter, limit, offset int) ([]repository.AccountingListRow, int64, error) {
	conds := []string{}
	args := []interface{}{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("t.type = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows := []repository.AccountingListRow{}
	query := fmt.Sprintf(`
		SELECT t.id, t.user_id, t.provider_id, t.type, t.amount, t.status, t.bank_account, t.tracking_code,
		       t.reference_id, t.audit_trail, t.approved_by, t.rejection_reason, t.created_at, t.updated_at,
		       COALESCE(u.name, p.name) AS party_name
		FROM accounting_transactions t
		LEFT JOIN users u ON u.id = t.user_id
		LEFT JOIN service_providers p ON p.id = t.provider_id
		%s
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	err := q.SelectContext(ctx, &rows, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounting transactions: %w", err)
	}

	var totalCount int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM accounting_transactions t%s`, where)
	err = q.GetContext(ctx, &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count accounting transactions: %w", err)
	}

	return rows, totalCount, nil
}

// UpdateStatus persists a state transition as a compare-and-set. The WHERE
// clause on the prior status makes the read-check-write sequence atomic with
// respect to concurrent approvals; zero rows affected means a concurrent
// caller already moved the transaction on.
func (r *AccountingRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, tx *domain.AccountingTransaction, fromStatus domain.AccountingStatus) (bool, error) {
	query := `UPDATE accounting_transactions
              SET status = $1, tracking_code = $2, audit_trail = $3, approved_by = $4, rejection_reason = $5, updated_at = $6
              WHERE id = $7 AND status = $8`
	result, err := q.ExecContext(ctx, query,
		tx.Status,
		tx.TrackingCode,
		tx.AuditTrail,
		tx.ApprovedBy,
		tx.RejectionReason,
		tx.UpdatedAt,
		tx.ID,
		fromStatus,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update status of accounting transaction %d: %w", tx.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for accounting transaction %d: %w", tx.ID, err)
	}
	return rowsAffected > 0, nil
}

// AggregateTotals computes the snapshot sums. Only approved and settled rows
// count; refund and settlement types stay out of the balance formula, which
// mirrors how the totals have always been reported.
func (r *AccountingRepository) AggregateTotals(ctx context.Context, q repository.DBExecutor) (*repository.AccountingTotals, error) {
	var totals repository.AccountingTotals
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'deposit' THEN amount END), 0) AS total_deposits,
			COALESCE(SUM(CASE WHEN type IN ('withdraw_user', 'withdraw_provider') THEN amount END), 0) AS total_withdrawals,
			COALESCE(SUM(CASE WHEN type = 'fee' THEN amount END), 0) AS total_revenue
		FROM accounting_transactions
		WHERE status IN ('approved', 'settled')`
	err := q.GetContext(ctx, &totals, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate accounting totals: %w", err)
	}
	return &totals, nil
}

// SumPendingWithdrawals sums withdrawal amounts still awaiting a decision.
func (r *AccountingRepository) SumPendingWithdrawals(ctx context.Context, q repository.DBExecutor) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM accounting_transactions
		WHERE type IN ('withdraw_user', 'withdraw_provider') AND status = 'pending'`
	err := q.GetContext(ctx, &sum, query)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending withdrawals: %w", err)
	}
	return sum, nil
}

// MonthlyRevenue returns per-month fee revenue since the given time.
func (r *AccountingRepository) MonthlyRevenue(ctx context.Context, q repository.DBExecutor, since time.Time) ([]domain.RevenuePoint, error) {
	points := []domain.RevenuePoint{}
	query := `
		SELECT date_trunc('month', created_at) AS month, COALESCE(SUM(amount), 0) AS revenue
		FROM accounting_transactions
		WHERE type = 'fee' AND status IN ('approved', 'settled') AND created_at >= $1
		GROUP BY date_trunc('month', created_at)
		ORDER BY month ASC`
	err := q.SelectContext(ctx, &points, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly revenue: %w", err)
	}
	return points, nil
}
