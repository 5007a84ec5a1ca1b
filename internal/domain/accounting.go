// internal/domain/accounting.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountingType defines the kind of an accounting transaction.
type AccountingType string

const (
	AccountingTypeWithdrawUser     AccountingType = "withdraw_user"
	AccountingTypeWithdrawProvider AccountingType = "withdraw_provider"
	AccountingTypeDeposit          AccountingType = "deposit"
	AccountingTypeFee              AccountingType = "fee"
	AccountingTypeRefund           AccountingType = "refund"
	AccountingTypeSettlement       AccountingType = "settlement"
)

// AccountingStatus defines the approval state of an accounting transaction.
// Transitions are one-directional: pending -> approved -> settled, or
// pending -> rejected.
type AccountingStatus string

const (
	AccountingStatusPending  AccountingStatus = "pending"
	AccountingStatusApproved AccountingStatus = "approved"
	AccountingStatusRejected AccountingStatus = "rejected"
	AccountingStatusSettled  AccountingStatus = "settled"
)

// Audit actions recorded on the transaction's audit trail.
const (
	AuditActionRequested = "requested"
	AuditActionApproved  = "approved"
	AuditActionRejected  = "rejected"
	AuditActionSettled   = "settled"
)

// AuditEvent is one tagged entry of a transaction's append-only audit trail.
type AuditEvent struct {
	Action  string    `json:"action"`
	ActorID int64     `json:"actor_id"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

// AuditTrail is the ordered list of audit events, stored as a JSONB column.
type AuditTrail []AuditEvent

// Value implements driver.Valuer for JSONB storage.
func (a AuditTrail) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (a *AuditTrail) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported audit trail source type %T", src)
	}
}

// AccountingTransaction is a money-movement request carrying its own approval
// state machine. Amount is immutable after creation; creation never moves any
// wallet balance.
type AccountingTransaction struct {
	ID              int64            `db:"id" json:"id"`
	UserID          *int64           `db:"user_id" json:"user_id"`         // Set for user-side transactions
	ProviderID      *int64           `db:"provider_id" json:"provider_id"` // Set for provider-side transactions
	Type            AccountingType   `db:"type" json:"type"`
	Amount          decimal.Decimal  `db:"amount" json:"amount"`
	Status          AccountingStatus `db:"status" json:"status"`
	BankAccount     string           `db:"bank_account" json:"bank_account"`
	TrackingCode    *string          `db:"tracking_code" json:"tracking_code"`
	ReferenceID     string           `db:"reference_id" json:"reference_id"`
	AuditTrail      AuditTrail       `db:"audit_trail" json:"audit_trail"`
	ApprovedBy      *int64           `db:"approved_by" json:"approved_by"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// NewUserWithdrawalRequest creates a pending withdraw_user transaction.
func NewUserWithdrawalRequest(userID int64, amount decimal.Decimal, bankAccount, note string) *AccountingTransaction {
	tx := newAccountingTransaction(AccountingTypeWithdrawUser, amount, bankAccount, note)
	tx.UserID = &userID
	tx.AuditTrail = AuditTrail{{Action: AuditActionRequested, ActorID: userID, At: tx.CreatedAt, Note: note}}
	return tx
}

// NewProviderWithdrawalRequest creates a pending withdraw_provider transaction.
func NewProviderWithdrawalRequest(providerID int64, amount decimal.Decimal, bankAccount, note string) *AccountingTransaction {
	tx := newAccountingTransaction(AccountingTypeWithdrawProvider, amount, bankAccount, note)
	tx.ProviderID = &providerID
	tx.AuditTrail = AuditTrail{{Action: AuditActionRequested, ActorID: providerID, At: tx.CreatedAt, Note: note}}
	return tx
}

func newAccountingTransaction(txType AccountingType, amount decimal.Decimal, bankAccount, note string) *AccountingTransaction {
	now := time.Now().UTC()
	return &AccountingTransaction{
		Type:        txType,
		Amount:      amount,
		Status:      AccountingStatusPending,
		BankAccount: bankAccount,
		ReferenceID: uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanApprove reports whether the transaction is in a state approve may act on.
func (t *AccountingTransaction) CanApprove() bool {
	return t.Status == AccountingStatusPending
}

// CanReject reports whether the transaction is in a state reject may act on.
func (t *AccountingTransaction) CanReject() bool {
	return t.Status == AccountingStatusPending
}

// CanSettle reports whether the transaction is in a state settle may act on.
func (t *AccountingTransaction) CanSettle() bool {
	return t.Status == AccountingStatusApproved
}

// Approve marks the transaction approved by adminID. Returns false without
// mutating anything when the transaction is not pending; concurrent admins
// racing on the same request is expected, not an error. The database
// compare-and-set is the authoritative guard.
func (t *AccountingTransaction) Approve(adminID int64, trackingCode string) bool {
	if !t.CanApprove() {
		return false
	}
	now := time.Now().UTC()
	t.Status = AccountingStatusApproved
	t.ApprovedBy = &adminID
	if trackingCode != "" {
		t.TrackingCode = &trackingCode
	}
	t.AuditTrail = append(t.AuditTrail, AuditEvent{Action: AuditActionApproved, ActorID: adminID, At: now})
	t.UpdatedAt = now
	return true
}

// Reject marks the transaction rejected by adminID with a reason.
// Same no-op-on-wrong-state contract as Approve.
func (t *AccountingTransaction) Reject(adminID int64, reason string) bool {
	if !t.CanReject() {
		return false
	}
	now := time.Now().UTC()
	t.Status = AccountingStatusRejected
	t.RejectionReason = &reason
	t.AuditTrail = append(t.AuditTrail, AuditEvent{Action: AuditActionRejected, ActorID: adminID, At: now, Note: reason})
	t.UpdatedAt = now
	return true
}

// Settle marks an approved transaction settled, confirming the money has
// actually left the platform. Same no-op-on-wrong-state contract as Approve.
func (t *AccountingTransaction) Settle(adminID int64, trackingCode string) bool {
	if !t.CanSettle() {
		return false
	}
	now := time.Now().UTC()
	t.Status = AccountingStatusSettled
	if trackingCode != "" {
		t.TrackingCode = &trackingCode
	}
	t.AuditTrail = append(t.AuditTrail, AuditEvent{Action: AuditActionSettled, ActorID: adminID, At: now})
	t.UpdatedAt = now
	return true
}
