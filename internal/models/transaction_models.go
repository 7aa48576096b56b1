package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is a display-only label; it drives no workflow.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusRefunded  TransactionStatus = "Refunded"
)

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusPending, TransactionStatusRefunded:
		return true
	}
	return false
}

// Payment methods accepted at the till.
const (
	PaymentMethodCash      = "cash"
	PaymentMethodCard      = "card"
	PaymentMethodInsurance = "insurance"
	PaymentMethodDigital   = "digital"
)

// TransactionItem is one sold line. Price is the snapshot at time of sale;
// ProductName is resolved for display only.
type TransactionItem struct {
	ProductID   int64           `json:"productId" db:"product_id"`
	ProductName string          `json:"productName,omitempty" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// LineTotal is quantity × price.
func (i TransactionItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumLineTotals adds up quantity × price over items.
func SumLineTotals(items []TransactionItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Transaction is an immutable record of one completed sale.
type Transaction struct {
	ID            int64             `json:"id" db:"id"`
	TransactionID string            `json:"transactionId" db:"transaction_id"`
	Items         []TransactionItem `json:"items"`
	TotalAmount   decimal.Decimal   `json:"totalAmount" db:"total_amount"`
	CustomerName  *string           `json:"customerName,omitempty" db:"customer_name"`
	CashierName   *string           `json:"cashierName,omitempty" db:"cashier_name"`
	PaymentMethod *string           `json:"paymentMethod,omitempty" db:"payment_method"`
	Status        TransactionStatus `json:"status" db:"status"`
	BranchID      *int64            `json:"branchId,omitempty" db:"branch_id"`
	RecordedBy    *int64            `json:"recordedBy,omitempty" db:"recorded_by"`
	CreatedAt     time.Time         `json:"date" db:"created_at"`
}

// ItemCount is the sum of quantities.
func (t Transaction) ItemCount() int {
	n := 0
	for _, it := range t.Items {
		n += it.Quantity
	}
	return n
}

// TransactionFilters defines the available filters for querying transactions.
type TransactionFilters struct {
	Search string            `form:"search"` // matches transaction id or customer name
	Status TransactionStatus `form:"status"`
	Days   int               `form:"days"` // rolling window; 0 means no window
	Limit  int               `form:"limit"`
}
