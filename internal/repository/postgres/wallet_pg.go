// internal/repository/postgres/wallet_pg.go
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

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct {
	// Stateless; methods receive a DBExecutor directly so they run on either
	// a connection or an open transaction.
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

const walletColumns = `id, user_id, balance, gift_balance, total_deposit, total_withdrawal, total_spent, is_active, created_at, updated_at`

// CreateWallet inserts a new wallet using the provided DBExecutor. When a
// wallet already exists for the user (a concurrent transaction created it
// first), the insert is a no-op and util.ErrDuplicateEntry is returned so the
// caller can fall back to loading the existing row.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, balance, gift_balance, total_deposit, total_withdrawal, total_spent, is_active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              ON CONFLICT (user_id) DO NOTHING
              RETURNING id`
	err := q.QueryRowContext(ctx, query,
		wallet.UserID,
		wallet.Balance,
		wallet.GiftBalance,
		wallet.TotalDeposit,
		wallet.TotalWithdrawal,
		wallet.TotalSpent,
		wallet.IsActive,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	).Scan(&wallet.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create wallet for user %d: %w", wallet.UserID, err)
	}
	return nil
}

// GetWalletByUserID retrieves a user's wallet using the provided DBExecutor.
func (r *WalletRepository) GetWalletByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	err := q.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}
	return &wallet, nil
}

// GetWalletByUserIDForUpdate retrieves a user's wallet with FOR UPDATE, so
// the row stays locked until the enclosing transaction finishes. Two
// concurrent spends on the same wallet serialize here instead of both passing
// the balance check.
func (r *WalletRepository) GetWalletByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet for user %d: %w", userID, err)
	}
	return &wallet, nil
}

// SaveBalances persists the wallet's balances and running totals.
func (r *WalletRepository) SaveBalances(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `UPDATE wallets
              SET balance = $1, gift_balance = $2, total_deposit = $3, total_withdrawal = $4, total_spent = $5, updated_at = $6
              WHERE id = $7`
	result, err := q.ExecContext(ctx, query,
		wallet.Balance,
		wallet.GiftBalance,
		wallet.TotalDeposit,
		wallet.TotalWithdrawal,
		wallet.TotalSpent,
		time.Now().UTC(),
		wallet.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save balances for wallet %d: %w", wallet.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after saving wallet %d: %w", wallet.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when saving wallet %d: %w", wallet.ID, util.ErrWalletNotFound)
	}
	return nil
}
