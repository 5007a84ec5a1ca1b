// internal/domain/accounting_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewWithdrawalRequests(t *testing.T) {
	amount := decimal.NewFromInt(5000)

	t.Run("UserRequest", func(t *testing.T) {
		tx := NewUserWithdrawalRequest(7, amount, "IR-000123", "weekly payout")

		assert.Equal(t, AccountingTypeWithdrawUser, tx.Type)
		assert.Equal(t, AccountingStatusPending, tx.Status)
		assert.Equal(t, int64(7), *tx.UserID)
		assert.Nil(t, tx.ProviderID)
		assert.True(t, tx.Amount.Equal(amount))
		assert.NotEmpty(t, tx.ReferenceID)
		assert.Len(t, tx.AuditTrail, 1)
		assert.Equal(t, AuditActionRequested, tx.AuditTrail[0].Action)
		assert.Equal(t, "weekly payout", tx.AuditTrail[0].Note)
	})

	t.Run("ProviderRequest", func(t *testing.T) {
		tx := NewProviderWithdrawalRequest(12, amount, "IR-000456", "")

		assert.Equal(t, AccountingTypeWithdrawProvider, tx.Type)
		assert.Equal(t, int64(12), *tx.ProviderID)
		assert.Nil(t, tx.UserID)
	})

	t.Run("DistinctReferenceIDs", func(t *testing.T) {
		a := NewUserWithdrawalRequest(1, amount, "IR-1", "")
		b := NewUserWithdrawalRequest(1, amount, "IR-1", "")
		assert.NotEqual(t, a.ReferenceID, b.ReferenceID)
	})
}

func TestStateMachine(t *testing.T) {
	newPending := func() *AccountingTransaction {
		return NewUserWithdrawalRequest(1, decimal.NewFromInt(100), "IR-1", "")
	}

	t.Run("FullLifecycle", func(t *testing.T) {
		tx := newPending()

		assert.True(t, tx.Approve(10, "TRK-A"))
		assert.Equal(t, AccountingStatusApproved, tx.Status)
		assert.Equal(t, int64(10), *tx.ApprovedBy)
		assert.Equal(t, "TRK-A", *tx.TrackingCode)

		assert.True(t, tx.Settle(10, "TRK-B"))
		assert.Equal(t, AccountingStatusSettled, tx.Status)
		assert.Equal(t, "TRK-B", *tx.TrackingCode)

		// requested, approved, settled
		assert.Len(t, tx.AuditTrail, 3)
		assert.Equal(t, AuditActionApproved, tx.AuditTrail[1].Action)
		assert.Equal(t, AuditActionSettled, tx.AuditTrail[2].Action)
	})

	t.Run("Rejection", func(t *testing.T) {
		tx := newPending()

		assert.True(t, tx.Reject(10, "duplicate request"))
		assert.Equal(t, AccountingStatusRejected, tx.Status)
		assert.Equal(t, "duplicate request", *tx.RejectionReason)
		assert.Equal(t, "duplicate request", tx.AuditTrail[1].Note)
	})

	t.Run("TerminalStatesAreFinal", func(t *testing.T) {
		tx := newPending()
		tx.Reject(10, "no")

		assert.False(t, tx.Approve(11, "TRK"))
		assert.False(t, tx.Settle(11, "TRK"))
		assert.Equal(t, AccountingStatusRejected, tx.Status)
		assert.Len(t, tx.AuditTrail, 2)
	})

	t.Run("ApprovedCannotBeRejected", func(t *testing.T) {
		tx := newPending()
		tx.Approve(10, "TRK")

		assert.False(t, tx.Reject(11, "too late"))
		assert.Equal(t, AccountingStatusApproved, tx.Status)
		assert.Nil(t, tx.RejectionReason)
	})

	t.Run("SettleBeforeApproveIsNoOp", func(t *testing.T) {
		tx := newPending()

		assert.False(t, tx.Settle(10, "TRK"))
		assert.Equal(t, AccountingStatusPending, tx.Status)
		assert.Len(t, tx.AuditTrail, 1)
	})

	t.Run("EmptyTrackingCodeLeftNil", func(t *testing.T) {
		tx := newPending()

		assert.True(t, tx.Approve(10, ""))
		assert.Nil(t, tx.TrackingCode)
	})
}

func TestAuditTrailRoundTrip(t *testing.T) {
	tx := NewUserWithdrawalRequest(5, decimal.NewFromInt(200), "IR-9", "note")
	tx.Approve(10, "TRK")

	raw, err := tx.AuditTrail.Value()
	assert.NoError(t, err)

	var decoded AuditTrail
	assert.NoError(t, decoded.Scan(raw))
	assert.Equal(t, tx.AuditTrail[0].Action, decoded[0].Action)
	assert.Equal(t, tx.AuditTrail[1].ActorID, decoded[1].ActorID)
}

func TestNilAuditTrailStoresEmptyArray(t *testing.T) {
	var trail AuditTrail
	raw, err := trail.Value()
	assert.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
}
