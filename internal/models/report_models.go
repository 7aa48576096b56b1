package models

import "github.com/shopspring/decimal"

// TransactionSummary aggregates a filtered set of transactions.
// Revenue, Average and Median only count completed sales.
type TransactionSummary struct {
	Count          int             `json:"count"`
	CompletedCount int             `json:"completedCount"`
	CompletedToday int             `json:"completedToday"`
	ItemsSold      int             `json:"itemsSold"`
	Revenue        decimal.Decimal `json:"revenue"`
	Average        decimal.Decimal `json:"average"`
	Median         decimal.Decimal `json:"median"`
}

// InventoryAlert is one product flagged by the stock alert scan.
type InventoryAlert struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Reason    string `json:"reason"` // "low_stock" or "expiring"
	Stock     int    `json:"stock"`
	MinStock  int    `json:"minStock"`
	DaysLeft  int    `json:"daysLeft"`
}
