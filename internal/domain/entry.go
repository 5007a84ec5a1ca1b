// internal/domain/entry.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType defines the kind of a wallet ledger entry.
type EntryType string

const (
	EntryTypeDeposit    EntryType = "deposit"
	EntryTypeWithdrawal EntryType = "withdrawal"
	EntryTypePayment    EntryType = "payment"
	EntryTypeRefund     EntryType = "refund"
	EntryTypeAdjustment EntryType = "adjustment"
	EntryTypeGift       EntryType = "gift"
)

// LedgerEntry is an append-only wallet transaction record. Amount is signed:
// positive for credits, negative for debits. Entries are immutable once
// created and the sum of a wallet's entry amounts reconciles with its balance.
type LedgerEntry struct {
	ID            int64           `db:"id" json:"id"`
	WalletID      int64           `db:"wallet_id" json:"wallet_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Type          EntryType       `db:"type" json:"type"`
	Description   string          `db:"description" json:"description"`
	ReferenceType *string         `db:"reference_type" json:"reference_type"` // e.g. "order", "gift_card"
	ReferenceID   *int64          `db:"reference_id" json:"reference_id"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"` // Wallet balance immediately after this entry
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// EntryReference identifies the source entity an entry is tagged with.
type EntryReference struct {
	Type string
	ID   int64
}

// NewLedgerEntry creates a new LedgerEntry instance.
func NewLedgerEntry(walletID int64, amount decimal.Decimal, entryType EntryType, description string, ref *EntryReference, balanceAfter decimal.Decimal) *LedgerEntry {
	entry := &LedgerEntry{
		WalletID:     walletID,
		Amount:       amount,
		Type:         entryType,
		Description:  description,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now().UTC(),
	}
	if ref != nil {
		refType := ref.Type
		refID := ref.ID
		entry.ReferenceType = &refType
		entry.ReferenceID = &refID
	}
	return entry
}
