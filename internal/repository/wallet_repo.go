// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"marketplace-ledger/internal/domain"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet using the provided DBExecutor. Returns
	// util.ErrDuplicateEntry when the user already has a wallet.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByUserID retrieves a user's wallet.
	GetWalletByUserID(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// GetWalletByUserIDForUpdate retrieves a user's wallet holding a row-level
	// lock for the duration of the enclosing transaction, serializing
	// concurrent balance mutations on the same wallet.
	GetWalletByUserIDForUpdate(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// SaveBalances persists the wallet's balances and running totals. The
	// caller must hold the row lock acquired by GetWalletByUserIDForUpdate.
	SaveBalances(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
}
