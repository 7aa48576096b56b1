package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pharmacy_backend/internal/models"
)

// StockMovementRepository records and lists stock changes.
type StockMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(ctx context.Context, productID *int64, movementType string, limit int) ([]models.StockMovement, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	          (product_id, movement_type, quantity_changed, stock_after, reason, transaction_id, user_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		movement.ProductID, movement.MovementType, movement.QuantityChanged, movement.StockAfter,
		movement.Reason, movement.TransactionID, movement.UserID, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(ctx context.Context, productID *int64, movementType string, limit int) ([]models.StockMovement, error) {
	movements := []models.StockMovement{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.product_id, COALESCE(ii.name, ''), sm.movement_type, sm.quantity_changed,
	    sm.stock_after, sm.reason, sm.transaction_id, sm.user_id, sm.created_at
	  FROM stock_movements sm
	  LEFT JOIN inventory_items ii ON sm.product_id = ii.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if productID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *productID)
		argCount++
	}
	if movementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, movementType)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY sm.created_at DESC, sm.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.MovementType, &m.QuantityChanged,
			&m.StockAfter, &m.Reason, &m.TransactionID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, nil
}
