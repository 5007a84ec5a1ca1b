// internal/domain/reporting.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSummary is the reporting view over the latest snapshot of a period,
// with growth percentages against the previous period's snapshot. It is a
// derived, cacheable read model and must never authorize money movement.
type BalanceSummary struct {
	Period                  PeriodType      `json:"period"`
	SnapshotDate            time.Time       `json:"snapshot_date"`
	TotalBalance            decimal.Decimal `json:"total_balance"`
	TotalRevenue            decimal.Decimal `json:"total_revenue"`
	TotalWithdrawals        decimal.Decimal `json:"total_withdrawals"`
	TotalPendingWithdrawals decimal.Decimal `json:"total_pending_withdrawals"`
	BalanceGrowth           decimal.Decimal `json:"balance_growth"`
	RevenueGrowth           decimal.Decimal `json:"revenue_growth"`
}

// ZeroBalanceSummary is the degraded summary returned when aggregation fails;
// dashboards stay available instead of erroring.
func ZeroBalanceSummary(period PeriodType) BalanceSummary {
	return BalanceSummary{
		Period:                  period,
		TotalBalance:            decimal.Zero,
		TotalRevenue:            decimal.Zero,
		TotalWithdrawals:        decimal.Zero,
		TotalPendingWithdrawals: decimal.Zero,
		BalanceGrowth:           decimal.Zero,
		RevenueGrowth:           decimal.Zero,
	}
}

// RevenuePoint is one month of fee revenue for the dashboard chart.
type RevenuePoint struct {
	Month   time.Time       `db:"month" json:"month"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}
