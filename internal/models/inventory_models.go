package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are emitted as JSON numbers (5.99), not strings ("5.99").
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is an inventory record. Stock never goes below zero.
type Product struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Category   string          `json:"category" db:"category"`
	Stock      int             `json:"stock" db:"stock"`
	MinStock   int             `json:"minStock" db:"min_stock"` // reorder threshold
	Price      decimal.Decimal `json:"price" db:"price"`
	Supplier   string          `json:"supplier" db:"supplier"`
	ExpiryDate time.Time       `json:"expiryDate" db:"expiry_date"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsLowStock reports whether stock is at or below the reorder threshold.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// ExpiresWithin reports whether the product expires before now+window.
func (p Product) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !p.ExpiryDate.After(now.Add(window))
}

// MarshalJSON adds the derived lowStock flag.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		LowStock bool `json:"lowStock"`
	}{product(p), p.IsLowStock()})
}

// ProductPatch carries the parsed subset of fields for a partial update.
// Nil means "leave unchanged".
type ProductPatch struct {
	Name       *string
	Category   *string
	Stock      *int
	MinStock   *int
	Price      *decimal.Decimal
	Supplier   *string
	ExpiryDate *time.Time
}

// Apply merges the patch into p.
func (pp ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.MinStock != nil {
		p.MinStock = *pp.MinStock
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Supplier != nil {
		p.Supplier = *pp.Supplier
	}
	if pp.ExpiryDate != nil {
		p.ExpiryDate = *pp.ExpiryDate
	}
}

// Stock movement types.
const (
	MovementTypeSale       = "sale"
	MovementTypeAdjustment = "adjustment"
	MovementTypeRestock    = "restock"
)

// StockMovement represents a change in stock for a product.
type StockMovement struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"productId" db:"product_id"`
	ProductName     string    `json:"productName,omitempty"`
	MovementType    string    `json:"movementType" db:"movement_type"`
	QuantityChanged int       `json:"quantityChanged" db:"quantity_changed"`
	StockAfter      int       `json:"stockAfter" db:"stock_after"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	TransactionID   *string   `json:"transactionId,omitempty" db:"transaction_id"`
	UserID          *int64    `json:"userId,omitempty" db:"user_id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}
