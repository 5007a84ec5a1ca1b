// internal/repository/postgres/entry_pg.go
package postgres

import (
	"context"
	"fmt"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// EntryRepository implements repository.EntryRepository for PostgreSQL.
type EntryRepository struct {
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *sqlx.DB) repository.EntryRepository {
	return &EntryRepository{}
}

// CreateEntry appends a new ledger entry using the provided DBExecutor.
func (r *EntryRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	query := `INSERT INTO wallet_transactions (wallet_id, amount, type, description, reference_type, reference_id, balance_after, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		entry.WalletID,
		entry.Amount,
		entry.Type,
		entry.Description,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.BalanceAfter,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry for wallet %d: %w", entry.WalletID, err)
	}
	return nil
}

// GetEntriesByWalletID retrieves a paginated ledger for a wallet along with
// the total entry count.
func (r *EntryRepository) GetEntriesByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	entries := []domain.LedgerEntry{}

	query := `
		SELECT id, wallet_id, amount, type, description, reference_type, reference_id, balance_after, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &entries, query, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries for wallet %d: %w", walletID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`
	err = q.GetContext(ctx, &totalCount, countQuery, walletID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries for wallet %d: %w", walletID, err)
	}

	return entries, totalCount, nil
}

// SumEntryAmounts sums all non-gift entry amounts for a wallet. Gift entries
// track the separate gift balance and are excluded from the reconciliation
// against the primary balance.
func (r *EntryRepository) SumEntryAmounts(ctx context.Context, q repository.DBExecutor, walletID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE wallet_id = $1 AND type <> $2`
	err := q.GetContext(ctx, &sum, query, walletID, domain.EntryTypeGift)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger entries for wallet %d: %w", walletID, err)
	}
	return sum, nil
}
