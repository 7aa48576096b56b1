package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pharmacy_backend/internal/models"
)

// BillingRepository stores invoices.
type BillingRepository interface {
	CreateBilling(ctx context.Context, executor SQLExecutor, billing *models.Billing) (int64, error)
	ListBillings(ctx context.Context, status models.BillingStatus) ([]models.Billing, error)
}

type billingRepository struct {
	db *sql.DB
}

// NewBillingRepository creates a new instance of BillingRepository.
func NewBillingRepository(db *sql.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) CreateBilling(ctx context.Context, executor SQLExecutor, billing *models.Billing) (int64, error) {
	query := `INSERT INTO billings (customer, items, total, payment_method, status, date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if billing.Date.IsZero() {
		billing.Date = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		billing.Customer, billing.Items, billing.Total, billing.PaymentMethod, billing.Status, billing.Date,
	).Scan(&billing.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating billing: %v", ErrDatabaseError, err)
	}
	return billing.ID, nil
}

func (r *billingRepository) ListBillings(ctx context.Context, status models.BillingStatus) ([]models.Billing, error) {
	billings := []models.Billing{}
	query := `SELECT id, customer, items, total, payment_method, status, date FROM billings`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing billings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Billing
		if err := rows.Scan(&b.ID, &b.Customer, &b.Items, &b.Total, &b.PaymentMethod, &b.Status, &b.Date); err != nil {
			return nil, fmt.Errorf("%w: scanning billing: %v", ErrDatabaseError, err)
		}
		billings = append(billings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating billings: %v", ErrDatabaseError, err)
	}
	return billings, nil
}
