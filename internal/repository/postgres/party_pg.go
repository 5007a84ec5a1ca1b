// internal/repository/postgres/party_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/util"

	"github.com/jmoiron/sqlx"
)

// PartyRepository implements repository.PartyRepository for PostgreSQL.
type PartyRepository struct {
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(db *sqlx.DB) repository.PartyRepository {
	return &PartyRepository{}
}

// GetUserByID retrieves a user by id using the provided DBExecutor.
func (r *PartyRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`
	err := q.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetProviderByID retrieves a service provider by id using the provided DBExecutor.
func (r *PartyRepository) GetProviderByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.ServiceProvider, error) {
	var provider domain.ServiceProvider
	query := `SELECT id, name, created_at FROM service_providers WHERE id = $1`
	err := q.GetContext(ctx, &provider, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service provider %d: %w", id, err)
	}
	return &provider, nil
}
