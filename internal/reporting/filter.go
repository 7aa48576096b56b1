// Package reporting derives read-only views from stored transactions.
// Nothing here touches the database.
package reporting

import (
	"strings"
	"time"

	"pharmacy_backend/internal/models"
)

// WindowStart is the earliest timestamp inside a rolling window of days ending at now.
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Filter selects transactions by free text, status and a rolling day window.
// Zero fields do not filter.
type Filter struct {
	Search string
	Status models.TransactionStatus
	Days   int
	Now    time.Time
}

// FromQuery builds a Filter from the HTTP filter parameters.
func FromQuery(f models.TransactionFilters, now time.Time) Filter {
	return Filter{Search: f.Search, Status: f.Status, Days: f.Days, Now: now}
}

// Match reports whether a single transaction passes the filter.
func (f Filter) Match(t models.Transaction) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		customer := ""
		if t.CustomerName != nil {
			customer = strings.ToLower(*t.CustomerName)
		}
		if !strings.Contains(strings.ToLower(t.TransactionID), q) && !strings.Contains(customer, q) {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Days > 0 {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		if t.CreatedAt.Before(WindowStart(now, f.Days)) {
			return false
		}
	}
	return true
}

// Apply returns the matching transactions in their original order.
func (f Filter) Apply(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
