// Package dashboard derives the KPI summary shown on the dashboard.
package dashboard

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/subtrack/internal/models"
)

// UpcomingWindowDays is how far ahead a renewal counts as upcoming.
const UpcomingWindowDays = 7

var monthsPerYear = decimal.NewFromInt(12)

// MonthlyCost normalizes a subscription's amount to a per-month cost.
// Periods containing "month" are already monthly, periods containing "year"
// are divided by 12, and anything else is treated as monthly.
func MonthlyCost(sub *models.Subscription) decimal.Decimal {
	amount := decimal.NewFromFloat(sub.Amount)
	period := strings.ToLower(string(sub.BillingPeriod))
	switch {
	case strings.Contains(period, "month"):
		return amount
	case strings.Contains(period, "year"):
		return amount.Div(monthsPerYear)
	default:
		return amount
	}
}

// DaysUntil returns the whole-day difference between the subscription's
// next billing date and today, both taken at local midnight in today's
// location. ok is false when the date is absent or unparsable.
func DaysUntil(sub *models.Subscription, today time.Time) (days int, ok bool) {
	due, ok := parseDate(sub.NextBillingDate, today.Location())
	if !ok {
		return 0, false
	}
	// Compare calendar dates in UTC so DST transitions cannot shift the count.
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24), true
}

// RenewalStatusOf classifies the subscription's next billing date.
func RenewalStatusOf(sub *models.Subscription, today time.Time) models.RenewalStatus {
	days, ok := DaysUntil(sub, today)
	switch {
	case !ok:
		return models.RenewalUnknown
	case days < 0:
		return models.RenewalOverdue
	case days <= UpcomingWindowDays:
		return models.RenewalSoon
	default:
		return models.RenewalScheduled
	}
}

// Aggregate computes the KPI snapshot of subs as of today.
// It always recomputes from scratch.
func Aggregate(subs []models.Subscription, today time.Time) models.KPISnapshot {
	snapshot := models.KPISnapshot{
		Total:             len(subs),
		CategoryHistogram: []models.CategoryCount{},
	}

	spend := decimal.Zero
	index := make(map[string]int)

	for i := range subs {
		sub := &subs[i]

		spend = spend.Add(MonthlyCost(sub))

		switch RenewalStatusOf(sub, today) {
		case models.RenewalOverdue:
			snapshot.OverdueCount++
		case models.RenewalSoon:
			snapshot.UpcomingCount++
		}

		category := string(sub.Category)
		if category == "" {
			category = models.UncategorizedLabel
		}
		if at, seen := index[category]; seen {
			snapshot.CategoryHistogram[at].Count++
		} else {
			index[category] = len(snapshot.CategoryHistogram)
			snapshot.CategoryHistogram = append(snapshot.CategoryHistogram, models.CategoryCount{Category: category, Count: 1})
		}
	}

	// Stable sort keeps first-seen order among equal counts.
	slices.SortStableFunc(snapshot.CategoryHistogram, func(a, b models.CategoryCount) int {
		return b.Count - a.Count
	})

	snapshot.MonthlySpend = spend.Round(2)
	return snapshot
}

// parseDate accepts YYYY-MM-DD, falling back to RFC 3339 timestamps.
func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(models.DateLayout, raw, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}
