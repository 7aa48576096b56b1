// Package pos holds the point-of-sale cart and its checkout against a
// transaction recorder.
package pos

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"pharmacy_backend/internal/models"
)

// DefaultCustomer labels sales without a customer name.
const DefaultCustomer = "Walk-in Customer"

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCheckoutInFlight = errors.New("checkout already in progress")
)

// Line is one cart entry. Price and Stock are captured when the product is
// first added and are not refreshed.
type Line struct {
	ProductID int64
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Stock     int
}

// LineTotal is quantity × price.
func (l Line) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderItem is the wire form of a cart line.
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order is the payload submitted to a Recorder.
type Order struct {
	TransactionID string          `json:"transactionId"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CustomerName  string          `json:"customerName"`
	CashierName   string          `json:"cashierName,omitempty"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Recorder persists a completed order.
type Recorder interface {
	Record(ctx context.Context, order Order) (*models.Transaction, error)
}

// Session is a single till's cart. It is safe for concurrent use. While a
// checkout is in flight the cart is frozen: edits are ignored and a second
// checkout fails with ErrCheckoutInFlight.
type Session struct {
	mu          sync.Mutex
	lines       []Line
	customer    string
	recorder    Recorder
	ids         *IDGenerator
	checkingOut bool
}

// NewSession creates an empty cart that checks out through recorder.
func NewSession(recorder Recorder, ids *IDGenerator) *Session {
	return &Session{recorder: recorder, ids: ids}
}

func (s *Session) find(productID int64) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddLine puts one more unit of p in the cart. A new line starts at 1.
// requestedQty is accepted for call-site symmetry but each call adds a single
// unit. Nothing happens once the line has reached p's stock; the return value
// reports whether the cart changed.
func (s *Session) AddLine(p models.Product, requestedQty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return false
	}

	if i := s.find(p.ID); i >= 0 {
		if s.lines[i].Quantity >= s.lines[i].Stock {
			return false
		}
		s.lines[i].Quantity++
		return true
	}

	if p.Stock < 1 {
		return false
	}
	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  1,
		Price:     p.Price,
		Stock:     p.Stock,
	})
	return true
}

// SetQuantity replaces a line's quantity. Zero removes the line; quantities
// above the captured stock, negative values and unknown products are ignored.
func (s *Session) SetQuantity(productID int64, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return false
	}

	i := s.find(productID)
	if i < 0 || qty < 0 {
		return false
	}
	if qty == 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return true
	}
	if qty > s.lines[i].Stock {
		return false
	}
	s.lines[i].Quantity = qty
	return true
}

// RemoveLine drops a product from the cart.
func (s *Session) RemoveLine(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return
	}
	if i := s.find(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

// Total sums quantity × snapshot price.
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Session) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// ItemCount sums quantities.
func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the cart in insertion order.
func (s *Session) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// SetCustomer sets the customer label used when Checkout is given none.
func (s *Session) SetCustomer(name string) {
	s.mu.Lock()
	s.customer = name
	s.mu.Unlock()
}

func (s *Session) Customer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// Checkout submits the cart. On success the cart and customer label are
// cleared and the stored transaction is returned. On failure the cart is left
// as it was and the recorder's error is returned unchanged.
func (s *Session) Checkout(ctx context.Context, customer, cashier, paymentMethod string) (*models.Transaction, error) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}
	if s.checkingOut {
		s.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}

	customer = strings.TrimSpace(customer)
	if customer == "" {
		customer = strings.TrimSpace(s.customer)
	}
	if customer == "" {
		customer = DefaultCustomer
	}
	paymentMethod = strings.ToLower(strings.TrimSpace(paymentMethod))
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}

	order := Order{
		TransactionID: s.ids.Next(),
		Items:         make([]OrderItem, len(s.lines)),
		TotalAmount:   s.totalLocked(),
		CustomerName:  customer,
		CashierName:   strings.TrimSpace(cashier),
		PaymentMethod: paymentMethod,
	}
	for i, l := range s.lines {
		order.Items[i] = OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price}
	}
	s.checkingOut = true
	s.mu.Unlock()

	txn, err := s.recorder.Record(ctx, order)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkingOut = false
	if err != nil {
		return nil, err
	}
	s.lines = nil
	s.customer = ""
	return txn, nil
}
