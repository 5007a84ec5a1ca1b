// internal/domain/snapshot.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType defines the cadence a balance snapshot belongs to.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

// ValidPeriod reports whether p is a known period type.
func ValidPeriod(p PeriodType) bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// ExtraData holds structured snapshot extras (e.g. total_deposits), stored as
// a JSONB column.
type ExtraData map[string]decimal.Decimal

// Value implements driver.Valuer for JSONB storage.
func (e ExtraData) Value() (driver.Value, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (e *ExtraData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported extra data source type %T", src)
	}
}

// BalanceSnapshot is an immutable point-in-time rollup of system-wide
// financial totals. At most one snapshot exists per (date, period_type) pair;
// snapshots are only ever created, never updated.
type BalanceSnapshot struct {
	ID                      int64           `db:"id" json:"id"`
	Date                    time.Time       `db:"snapshot_date" json:"date"`
	PeriodType              PeriodType      `db:"period_type" json:"period_type"`
	TotalBalance            decimal.Decimal `db:"total_balance" json:"total_balance"`
	TotalRevenue            decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	TotalWithdrawals        decimal.Decimal `db:"total_withdrawals" json:"total_withdrawals"`
	TotalPendingWithdrawals decimal.Decimal `db:"total_pending_withdrawals" json:"total_pending_withdrawals"`
	AdditionalData          ExtraData       `db:"additional_data" json:"additional_data"`
	CreatedAt               time.Time       `db:"created_at" json:"created_at"`
}

// SnapshotDate normalizes t to midnight UTC so invocations within the same
// day collapse onto one snapshot key.
func SnapshotDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodStart normalizes t to the start of its period: midnight UTC for
// daily, the first of the month for monthly, January 1st for yearly. Both
// snapshot creation and previous-period lookups key on these dates, so a
// monthly snapshot triggered mid-month lands on the same key the next
// month's growth computation asks for.
func PeriodStart(period PeriodType, t time.Time) time.Time {
	t = SnapshotDate(t)
	switch period {
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// PreviousPeriodDate returns the snapshot date of the period preceding date:
// the previous calendar day, the first of the previous month, or the first of
// the previous year.
func PreviousPeriodDate(period PeriodType, date time.Time) time.Time {
	start := PeriodStart(period, date)
	switch period {
	case PeriodMonthly:
		return start.AddDate(0, -1, 0)
	case PeriodYearly:
		return start.AddDate(-1, 0, 0)
	default:
		return start.AddDate(0, 0, -1)
	}
}

// GrowthPercent computes (current - previous) / previous * 100 rounded to two
// decimals. Returns zero when previous is zero to avoid division by zero.
func GrowthPercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}
