// internal/cache/keys.go
package cache

import "marketplace-ledger/internal/domain"

// The cached reporting views use a fixed, enumerated key set. Mutating
// operations clear exactly these keys; there is no pattern-based flush.
const (
	KeySummaryDaily   = "balance_summary:daily"
	KeySummaryMonthly = "balance_summary:monthly"
	KeySummaryYearly  = "balance_summary:yearly"
	KeyRevenueChart6  = "revenue_chart:6"
	KeyRevenueChart12 = "revenue_chart:12"
)

// SummaryKey returns the summary cache key for a period type.
func SummaryKey(period domain.PeriodType) string {
	switch period {
	case domain.PeriodMonthly:
		return KeySummaryMonthly
	case domain.PeriodYearly:
		return KeySummaryYearly
	default:
		return KeySummaryDaily
	}
}

// RevenueChartKey returns the chart cache key for a month window.
func RevenueChartKey(months int) string {
	if months == 12 {
		return KeyRevenueChart12
	}
	return KeyRevenueChart6
}

// InvalidationSet is every key a state-mutating accounting operation can
// affect.
func InvalidationSet() []string {
	return []string{
		KeySummaryDaily,
		KeySummaryMonthly,
		KeySummaryYearly,
		KeyRevenueChart6,
		KeyRevenueChart12,
	}
}
