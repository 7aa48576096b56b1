package reporting

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"pharmacy_backend/internal/models"
)

// Summarize aggregates txns. Revenue, average and median cover completed
// sales only; Count and ItemsSold cover everything passed in.
func Summarize(txns []models.Transaction, now time.Time) (models.TransactionSummary, error) {
	summary := models.TransactionSummary{
		Revenue: decimal.Zero,
		Average: decimal.Zero,
		Median:  decimal.Zero,
	}
	summary.Count = len(txns)

	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	amounts := make(stats.Float64Data, 0, len(txns))
	for _, t := range txns {
		summary.ItemsSold += t.ItemCount()
		if t.Status != models.TransactionStatusCompleted {
			continue
		}
		summary.CompletedCount++
		summary.Revenue = summary.Revenue.Add(t.TotalAmount)
		amounts = append(amounts, t.TotalAmount.InexactFloat64())
		if !t.CreatedAt.Before(startOfDay) {
			summary.CompletedToday++
		}
	}

	if summary.CompletedCount == 0 {
		return summary, nil
	}

	summary.Average = summary.Revenue.Div(decimal.NewFromInt(int64(summary.CompletedCount))).Round(2)

	median, err := amounts.Median()
	if err != nil {
		return summary, err
	}
	summary.Median = decimal.NewFromFloat(median).Round(2)
	return summary, nil
}
