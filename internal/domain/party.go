// internal/domain/party.go
package domain

import "time"

// User is the minimal user record the ledger core needs: existence checks for
// withdrawal requests and display fields for transaction listings.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ServiceProvider is the minimal provider record, mirroring User.
type ServiceProvider struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
