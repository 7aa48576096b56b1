package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BillingStatus is the payment state shown on a bill.
type BillingStatus string

const (
	BillingStatusPaid     BillingStatus = "Paid"
	BillingStatusPending  BillingStatus = "Pending"
	BillingStatusRefunded BillingStatus = "Refunded"
)

func (s BillingStatus) Valid() bool {
	switch s {
	case BillingStatusPaid, BillingStatusPending, BillingStatusRefunded:
		return true
	}
	return false
}

// BillingItem is a free-text invoice line.
type BillingItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// BillingItems is stored as a JSONB column.
type BillingItems []BillingItem

// Sum is the exact total of quantity x price over all lines.
func (b BillingItems) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (b BillingItems) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b)
}

func (b *BillingItems) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*b = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into BillingItems", src)
	}
	return json.Unmarshal(data, b)
}

// Billing is an invoice record.
type Billing struct {
	ID            int64           `json:"id" db:"id"`
	Customer      string          `json:"customer" db:"customer"`
	Items         BillingItems    `json:"items" db:"items"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"paymentMethod" db:"payment_method"`
	Status        BillingStatus   `json:"status" db:"status"`
	Date          time.Time       `json:"date" db:"date"`
}
