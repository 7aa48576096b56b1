package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pharmacy_backend/internal/models"
)

// InventoryRepository defines the interface for product database operations.
type InventoryRepository interface {
	CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// LockProduct reads a product with FOR UPDATE; executor must be a *sql.Tx.
	LockProduct(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListLowStock(ctx context.Context) ([]models.Product, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Product, error)
	UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error
	UpdateStock(ctx context.Context, executor SQLExecutor, id int64, quantityChange int) (int, error) // Returns new stock level
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const productColumns = `id, name, category, stock, min_stock, price, supplier, expiry_date, created_at, updated_at`

func scanProduct(s scanner) (models.Product, error) {
	var p models.Product
	err := s.Scan(&p.ID, &p.Name, &p.Category, &p.Stock, &p.MinStock, &p.Price,
		&p.Supplier, &p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *inventoryRepository) CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO inventory_items
	          (name, category, stock, min_stock, price, supplier, expiry_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRowContext(ctx, query,
		product.Name, product.Category, product.Stock, product.MinStock, product.Price,
		product.Supplier, product.ExpiryDate, currentTime, currentTime,
	).Scan(&product.ID)
	if err != nil {
		if isCheckViolation(err) {
			return 0, fmt.Errorf("%w: product %q violates a non-negative constraint: %v", ErrDatabaseError, product.Name, err)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime
	return product.ID, nil
}

func (r *inventoryRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM inventory_items WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return &p, nil
}

func (r *inventoryRepository) LockProduct(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM inventory_items WHERE id = $1 FOR UPDATE`
	p, err := scanProduct(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking product ID %d: %v", ErrDatabaseError, id, err)
	}
	return &p, nil
}

func (r *inventoryRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM inventory_items ORDER BY name, id`)
}

func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM inventory_items WHERE stock <= min_stock ORDER BY stock, name`)
}

func (r *inventoryRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM inventory_items WHERE expiry_date <= $1 ORDER BY expiry_date, name`, cutoff)
}

func (r *inventoryRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]models.Product, error) {
	products := []models.Product{}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *inventoryRepository) UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	query := `UPDATE inventory_items SET
	            name = $1, category = $2, stock = $3, min_stock = $4, price = $5,
	            supplier = $6, expiry_date = $7, updated_at = $8
	          WHERE id = $9`
	product.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		product.Name, product.Category, product.Stock, product.MinStock, product.Price,
		product.Supplier, product.ExpiryDate, product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStock applies quantityChange. The WHERE guard keeps stock from going
// negative even without a prior lock.
func (r *inventoryRepository) UpdateStock(ctx context.Context, executor SQLExecutor, id int64, quantityChange int) (int, error) {
	var newStock int
	query := `UPDATE inventory_items
	          SET stock = stock + $1, updated_at = $2
	          WHERE id = $3 AND stock + $1 >= 0
	          RETURNING stock`
	err := executor.QueryRowContext(ctx, query, quantityChange, time.Now(), id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			checkErr := executor.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1)`, id).Scan(&exists)
			if checkErr != nil {
				return 0, fmt.Errorf("%w: checking product ID %d: %v", ErrDatabaseError, id, checkErr)
			}
			if !exists {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: product ID %d cannot change by %d", ErrInsufficientStock, id, quantityChange)
		}
		return 0, fmt.Errorf("%w: updating stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}
