// internal/repository/party_repo.go
package repository

import (
	"context"

	"marketplace-ledger/internal/domain"
)

// PartyRepository covers the user/provider lookups the ledger core needs
// before recording withdrawal requests against them.
type PartyRepository interface {
	// GetUserByID retrieves a user or util.ErrNotFound.
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// GetProviderByID retrieves a service provider or util.ErrNotFound.
	GetProviderByID(ctx context.Context, q DBExecutor, id int64) (*domain.ServiceProvider, error)
}
