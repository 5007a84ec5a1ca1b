// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet represents a user's wallet. Balance mutations go through the wallet
// service only; the running totals are monotonically non-decreasing.
type Wallet struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`                   // Primary spendable funds, never negative
	GiftBalance     decimal.Decimal `db:"gift_balance" json:"gift_balance"`         // Promotional/referral funds, tracked separately
	TotalDeposit    decimal.Decimal `db:"total_deposit" json:"total_deposit"`       // Lifetime sum of deposits
	TotalWithdrawal decimal.Decimal `db:"total_withdrawal" json:"total_withdrawal"` // Lifetime sum of withdrawals
	TotalSpent      decimal.Decimal `db:"total_spent" json:"total_spent"`           // Lifetime sum of order payments
	IsActive        bool            `db:"is_active" json:"is_active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a new Wallet instance with all totals zeroed.
func NewWallet(userID int64) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:          userID,
		Balance:         decimal.Zero,
		GiftBalance:     decimal.Zero,
		TotalDeposit:    decimal.Zero,
		TotalWithdrawal: decimal.Zero,
		TotalSpent:      decimal.Zero,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
