package models

import "github.com/shopspring/decimal"

// UncategorizedLabel is the histogram key for subscriptions without a category.
const UncategorizedLabel = "Uncategorized"

// CategoryCount is one bucket of the dashboard category histogram.
type CategoryCount struct {
	Category string
	Count    int
}

// KPISnapshot is the dashboard summary. It is recomputed from scratch on
// every load and never updated incrementally.
type KPISnapshot struct {
	Total int

	// MonthlySpend is the sum of per-month normalized amounts, rounded to 2 places.
	MonthlySpend decimal.Decimal

	// UpcomingCount counts renewals 0..7 days from today.
	UpcomingCount int

	// OverdueCount counts renewals dated before today.
	OverdueCount int

	// CategoryHistogram is sorted by count descending, ties in first-seen order.
	CategoryHistogram []CategoryCount

	// Truncated is set when the server reported more subscriptions than were
	// aggregated. The snapshot then describes only the fetched subset.
	Truncated bool
}

// RenewalStatus classifies a subscription's next billing date relative to today.
type RenewalStatus int

const (
	RenewalUnknown RenewalStatus = iota
	RenewalOverdue
	RenewalSoon
	RenewalScheduled
)

func (r RenewalStatus) String() string {
	switch r {
	case RenewalOverdue:
		return "Overdue"
	case RenewalSoon:
		return "Renewing soon"
	case RenewalScheduled:
		return "Scheduled"
	default:
		return "Unknown"
	}
}
