package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/repositories"
	"pharmacy_backend/pkg/utils"
)

// productFieldOrder is the order in which required fields are checked on create,
// so the first missing one is the one reported.
var productFieldOrder = []string{"name", "category", "stock", "minStock", "price", "supplier", "expiryDate"}

const errMsgNumbers = "Stock, minStock, and price must be numbers"

// AdjustStockRequest DTO
type AdjustStockRequest struct {
	QuantityChange int     `json:"quantityChange"`
	MovementType   string  `json:"movementType"` // adjustment (default) or restock
	Reason         *string `json:"reason"`
}

// --- InventoryService Interface ---
type InventoryService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, fields map[string]interface{}) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, fields map[string]interface{}, userID *int64) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListLowStock(ctx context.Context) ([]models.Product, error)
	ListExpiring(ctx context.Context, days int) ([]models.Product, error)
	AdjustStock(ctx context.Context, id int64, req AdjustStockRequest, userID *int64) (*models.StockMovement, error)
	ListMovements(ctx context.Context, productID *int64, movementType string, limit int) ([]models.StockMovement, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	movementRepo  repositories.StockMovementRepository
	db            *sql.DB
	now           func() time.Time
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(inventoryRepo repositories.InventoryRepository, movementRepo repositories.StockMovementRepository, db *sql.DB) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		db:            db,
		now:           time.Now,
	}
}

// isMissing treats absent keys, JSON null and blank strings alike. Zero is a value.
func isMissing(fields map[string]interface{}, key string) bool {
	v, ok := fields[key]
	if !ok || v == nil {
		return true
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return true
	}
	return false
}

func parseWholeNumber(v interface{}) (int, bool) {
	n, err := utils.ToWholeNumber(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseText(fields map[string]interface{}, key string) (string, error) {
	s, err := cast.ToStringE(fields[key])
	if err != nil {
		return "", invalidField(key, "%s must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

// parseProductPatch validates whichever of the known fields are present.
// With requireAll set every field must be present, checked in productFieldOrder.
func parseProductPatch(fields map[string]interface{}, requireAll bool) (models.ProductPatch, error) {
	var patch models.ProductPatch

	for _, key := range productFieldOrder {
		_, present := fields[key]
		if isMissing(fields, key) {
			if requireAll {
				return patch, missingField(key)
			}
			if present {
				return patch, invalidField(key, "%s cannot be empty", key)
			}
		}
	}

	if _, ok := fields["name"]; ok {
		name, err := parseText(fields, "name")
		if err != nil {
			return patch, err
		}
		patch.Name = &name
	}
	if _, ok := fields["category"]; ok {
		category, err := parseText(fields, "category")
		if err != nil {
			return patch, err
		}
		patch.Category = &category
	}
	if _, ok := fields["supplier"]; ok {
		supplier, err := parseText(fields, "supplier")
		if err != nil {
			return patch, err
		}
		patch.Supplier = &supplier
	}

	// numeric checks first, then sign checks, so "abc" never reads as negative
	if v, ok := fields["stock"]; ok {
		n, valid := parseWholeNumber(v)
		if !valid {
			return patch, invalidField("stock", errMsgNumbers)
		}
		patch.Stock = &n
	}
	if v, ok := fields["minStock"]; ok {
		n, valid := parseWholeNumber(v)
		if !valid {
			return patch, invalidField("minStock", errMsgNumbers)
		}
		patch.MinStock = &n
	}
	if v, ok := fields["price"]; ok {
		price, err := utils.ToDecimal(v)
		if err != nil {
			return patch, invalidField("price", errMsgNumbers)
		}
		patch.Price = &price
	}

	if patch.Stock != nil && *patch.Stock < 0 {
		return patch, invalidField("stock", "stock must be a non-negative number")
	}
	if patch.MinStock != nil && *patch.MinStock < 0 {
		return patch, invalidField("minStock", "minStock must be a non-negative number")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return patch, invalidField("price", "price must be a non-negative number")
	}
	if patch.Price != nil {
		rounded := patch.Price.Round(2)
		patch.Price = &rounded
	}

	if v, ok := fields["expiryDate"]; ok {
		raw, err := cast.ToStringE(v)
		if err != nil {
			return patch, invalidField("expiryDate", "Invalid expiryDate")
		}
		expiry, err := dateparse.ParseAny(strings.TrimSpace(raw))
		if err != nil {
			return patch, invalidField("expiryDate", "Invalid expiryDate")
		}
		patch.ExpiryDate = &expiry
	}

	return patch, nil
}

func (s *inventoryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.inventoryRepo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.inventoryRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, fields map[string]interface{}) (*models.Product, error) {
	patch, err := parseProductPatch(fields, true)
	if err != nil {
		return nil, err
	}

	product := &models.Product{}
	patch.Apply(product)

	if _, err := s.inventoryRepo.CreateProduct(ctx, s.db, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	utils.LogInfo("Product created", map[string]interface{}{"product_id": product.ID, "name": product.Name, "stock": product.Stock})
	return product, nil
}

// UpdateProduct applies a partial update. A stock change is logged as an adjustment movement.
func (s *inventoryService) UpdateProduct(ctx context.Context, id int64, fields map[string]interface{}, userID *int64) (*models.Product, error) {
	patch, err := parseProductPatch(fields, false)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := s.inventoryRepo.LockProduct(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product for update: %w", err)
	}

	previousStock := product.Stock
	patch.Apply(product)

	if err := s.inventoryRepo.UpdateProduct(ctx, tx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if delta := product.Stock - previousStock; delta != 0 {
		reason := "manual edit"
		movement := &models.StockMovement{
			ProductID:       product.ID,
			MovementType:    models.MovementTypeAdjustment,
			QuantityChanged: delta,
			StockAfter:      product.Stock,
			Reason:          &reason,
			UserID:          userID,
		}
		if _, err := s.movementRepo.CreateMovement(ctx, tx, movement); err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return product, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.inventoryRepo.DeleteProduct(ctx, s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	utils.LogInfo("Product deleted", map[string]interface{}{"product_id": id})
	return nil
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.inventoryRepo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// ListExpiring returns products whose expiry falls within the next days days,
// already-expired ones included.
func (s *inventoryService) ListExpiring(ctx context.Context, days int) ([]models.Product, error) {
	if days < 0 {
		return nil, invalidField("days", "days must be a non-negative number")
	}
	cutoff := s.now().AddDate(0, 0, days)
	products, err := s.inventoryRepo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring products: %w", err)
	}
	return products, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, id int64, req AdjustStockRequest, userID *int64) (*models.StockMovement, error) {
	if req.QuantityChange == 0 {
		return nil, invalidField("quantityChange", "quantityChange must not be zero")
	}
	movementType := req.MovementType
	if movementType == "" {
		movementType = models.MovementTypeAdjustment
	}
	if movementType != models.MovementTypeAdjustment && movementType != models.MovementTypeRestock {
		return nil, invalidField("movementType", "movementType must be adjustment or restock")
	}
	if movementType == models.MovementTypeRestock && req.QuantityChange < 0 {
		return nil, invalidField("quantityChange", "restock quantity must be positive")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newStock, err := s.inventoryRepo.UpdateStock(ctx, tx, id, req.QuantityChange)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repositories.ErrInsufficientStock):
			return nil, fmt.Errorf("%w: adjustment of %d would make stock negative", ErrInsufficientStock, req.QuantityChange)
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	movement := &models.StockMovement{
		ProductID:       id,
		MovementType:    movementType,
		QuantityChanged: req.QuantityChange,
		StockAfter:      newStock,
		Reason:          req.Reason,
		UserID:          userID,
	}
	if _, err := s.movementRepo.CreateMovement(ctx, tx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return movement, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID *int64, movementType string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	movements, err := s.movementRepo.GetMovements(ctx, productID, movementType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}
