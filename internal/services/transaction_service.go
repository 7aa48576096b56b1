package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/reporting"
	"pharmacy_backend/internal/repositories"
	"pharmacy_backend/pkg/utils"
)

const (
	DefaultRecentSales = 10
	MaxRecentSales     = 100
)

// --- Data Transfer Objects (DTOs) ---

// RecordTransactionItem is one submitted cart line.
type RecordTransactionItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// RecordTransactionRequest DTO. TotalAmount is a pointer so an absent total
// can be told apart from zero.
type RecordTransactionRequest struct {
	TransactionID string                   `json:"transactionId"`
	Items         []RecordTransactionItem  `json:"items"`
	TotalAmount   *decimal.Decimal         `json:"totalAmount"`
	CustomerName  *string                  `json:"customerName"`
	CashierName   *string                  `json:"cashierName"`
	PaymentMethod *string                  `json:"paymentMethod"`
	Status        models.TransactionStatus `json:"status"`
	Date          *time.Time               `json:"date"`
}

// Actor is the authenticated user recording a sale.
type Actor struct {
	UserID   int64
	BranchID *int64
}

// --- TransactionService Interface ---
type TransactionService interface {
	Record(ctx context.Context, req RecordTransactionRequest, actor *Actor) (*models.Transaction, error)
	Get(ctx context.Context, transactionID string) (*models.Transaction, error)
	List(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, error)
	Recent(ctx context.Context, limit int) ([]models.Transaction, error)
	Summary(ctx context.Context, filters models.TransactionFilters) (*models.TransactionSummary, error)
}

type transactionService struct {
	txnRepo       repositories.TransactionRepository
	inventoryRepo repositories.InventoryRepository
	movementRepo  repositories.StockMovementRepository
	db            *sql.DB
	now           func() time.Time
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(
	txnRepo repositories.TransactionRepository,
	inventoryRepo repositories.InventoryRepository,
	movementRepo repositories.StockMovementRepository,
	db *sql.DB,
) TransactionService {
	return &transactionService{
		txnRepo:       txnRepo,
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		db:            db,
		now:           time.Now,
	}
}

func validPaymentMethod(m string) bool {
	switch m {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodInsurance, models.PaymentMethodDigital:
		return true
	}
	return false
}

func (s *transactionService) validate(req *RecordTransactionRequest) error {
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.TransactionID == "" {
		return missingField("transactionId")
	}
	if len(req.Items) == 0 {
		return missingField("items")
	}
	if req.TotalAmount == nil {
		return missingField("totalAmount")
	}
	if req.TotalAmount.IsNegative() {
		return invalidField("totalAmount", "totalAmount must be a non-negative number")
	}
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return invalidField("items", "items[%d].productId is required", i)
		}
		if item.Quantity < 1 {
			return invalidField("items", "items[%d].quantity must be at least 1", i)
		}
		if item.Price.IsNegative() {
			return invalidField("items", "items[%d].price must be a non-negative number", i)
		}
	}
	if req.Status == "" {
		req.Status = models.TransactionStatusCompleted
	}
	if !req.Status.Valid() {
		return invalidField("status", "status must be one of Completed, Pending, Refunded")
	}
	if req.PaymentMethod != nil {
		method := strings.ToLower(strings.TrimSpace(*req.PaymentMethod))
		if !validPaymentMethod(method) {
			return invalidField("paymentMethod", "paymentMethod must be one of cash, card, insurance, digital")
		}
		req.PaymentMethod = &method
	}
	return nil
}

// Record persists a completed sale. Stock is checked and decremented for every
// line in the same database transaction that stores the record, so either the
// whole sale lands or nothing changes.
func (s *transactionService) Record(ctx context.Context, req RecordTransactionRequest, actor *Actor) (*models.Transaction, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	items := make([]models.TransactionItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.TransactionItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
	}

	computed := models.SumLineTotals(items).Round(2)
	if !req.TotalAmount.Round(2).Equal(computed) {
		return nil, fmt.Errorf("%w: submitted %s, items sum to %s", ErrTotalMismatch, req.TotalAmount.StringFixed(2), computed.StringFixed(2))
	}

	// A product may appear on several lines; lock each once, in id order.
	requested := make(map[int64]int)
	for _, it := range items {
		requested[it.ProductID] += it.Quantity
	}
	productIDs := make([]int64, 0, len(requested))
	for id := range requested {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID *int64
	txn := &models.Transaction{
		TransactionID: req.TransactionID,
		TotalAmount:   computed,
		CustomerName:  utils.NewNullString(utils.DerefString(req.CustomerName)),
		CashierName:   utils.NewNullString(utils.DerefString(req.CashierName)),
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		CreatedAt:     s.now(),
	}
	if req.Date != nil && !req.Date.IsZero() {
		txn.CreatedAt = *req.Date
	}
	if actor != nil {
		uid := actor.UserID
		userID = &uid
		txn.RecordedBy = userID
		txn.BranchID = actor.BranchID
	}

	names := make(map[int64]string, len(productIDs))
	for _, id := range productIDs {
		product, err := s.inventoryRepo.LockProduct(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, id)
			}
			return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
		}
		names[id] = product.Name

		qty := requested[id]
		if product.Stock < qty {
			return nil, &InsufficientStockError{ProductID: id, Name: product.Name, Requested: qty, Available: product.Stock}
		}

		newStock, err := s.inventoryRepo.UpdateStock(ctx, tx, id, -qty)
		if err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, &InsufficientStockError{ProductID: id, Name: product.Name, Requested: qty, Available: product.Stock}
			}
			return nil, fmt.Errorf("failed to update stock for product %d: %w", id, err)
		}

		transactionID := txn.TransactionID
		movement := &models.StockMovement{
			ProductID:       id,
			MovementType:    models.MovementTypeSale,
			QuantityChanged: -qty,
			StockAfter:      newStock,
			TransactionID:   &transactionID,
			UserID:          userID,
		}
		if _, err := s.movementRepo.CreateMovement(ctx, tx, movement); err != nil {
			return nil, fmt.Errorf("failed to record sale movement for product %d: %w", id, err)
		}
	}

	if _, err := s.txnRepo.CreateTransaction(ctx, tx, txn); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, txn.TransactionID)
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	for i := range items {
		items[i].ProductName = names[items[i].ProductID]
	}
	if err := s.txnRepo.CreateTransactionItems(ctx, tx, txn.ID, items); err != nil {
		return nil, fmt.Errorf("failed to create transaction items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	txn.Items = items

	utils.LogInfo("Transaction recorded", map[string]interface{}{
		"transaction_id": txn.TransactionID,
		"total":          txn.TotalAmount.StringFixed(2),
		"items":          txn.ItemCount(),
	})
	return txn, nil
}

func (s *transactionService) Get(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetTransactionByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (s *transactionService) query(filters models.TransactionFilters) (repositories.TransactionQuery, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return repositories.TransactionQuery{}, invalidField("status", "status must be one of Completed, Pending, Refunded")
	}
	if filters.Days < 0 {
		return repositories.TransactionQuery{}, invalidField("days", "days must be a non-negative number")
	}
	q := repositories.TransactionQuery{
		Search: strings.TrimSpace(filters.Search),
		Status: filters.Status,
		Limit:  filters.Limit,
	}
	if filters.Days > 0 {
		q.Since = reporting.WindowStart(s.now(), filters.Days)
	}
	return q, nil
}

// List returns transactions newest first, narrowed by filters.
func (s *transactionService) List(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, error) {
	q, err := s.query(filters)
	if err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// Recent returns the latest sales. limit defaults to DefaultRecentSales and is capped at MaxRecentSales.
func (s *transactionService) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentSales
	}
	if limit > MaxRecentSales {
		limit = MaxRecentSales
	}
	txns, err := s.txnRepo.ListTransactions(ctx, repositories.TransactionQuery{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sales: %w", err)
	}
	return txns, nil
}

// Summary loads the day window from storage once and narrows it by search
// and status in memory before aggregating.
func (s *transactionService) Summary(ctx context.Context, filters models.TransactionFilters) (*models.TransactionSummary, error) {
	q, err := s.query(filters)
	if err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListTransactions(ctx, repositories.TransactionQuery{Since: q.Since})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for summary: %w", err)
	}

	now := s.now()
	matched := reporting.FromQuery(filters, now).Apply(txns)
	summary, err := reporting.Summarize(matched, now)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	return &summary, nil
}
