// internal/repository/entry_repo.go
package repository

import (
	"context"

	"marketplace-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// EntryRepository defines the interface for wallet ledger entry operations.
// Entries are append-only; there are no update or delete operations.
type EntryRepository interface {
	// CreateEntry appends a new ledger entry using the provided DBExecutor.
	CreateEntry(ctx context.Context, q DBExecutor, entry *domain.LedgerEntry) error
	// GetEntriesByWalletID retrieves a paginated ledger for a wallet, newest
	// first, along with the total entry count.
	GetEntriesByWalletID(ctx context.Context, q DBExecutor, walletID int64, limit, offset int) ([]domain.LedgerEntry, int64, error)
	// SumEntryAmounts returns the sum of all entry amounts for a wallet,
	// used to reconcile the ledger against the wallet's current balance.
	SumEntryAmounts(ctx context.Context, q DBExecutor, walletID int64) (decimal.Decimal, error)
}
