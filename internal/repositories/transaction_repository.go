package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"pharmacy_backend/internal/models"
)

// TransactionQuery narrows ListTransactions. Zero values mean "no filter".
type TransactionQuery struct {
	Search string // substring of transaction_id or customer_name, case-insensitive
	Status models.TransactionStatus
	Since  time.Time
	Limit  int
}

// likeEscaper makes user search text literal inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// TransactionRepository persists sales. There is no update or delete path.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, executor SQLExecutor, txn *models.Transaction) (int64, error)
	CreateTransactionItems(ctx context.Context, executor SQLExecutor, transactionPK int64, items []models.TransactionItem) error
	GetTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `t.id, t.transaction_id, t.total_amount, t.customer_name, t.cashier_name,
	    t.payment_method, t.status, t.branch_id, t.recorded_by, t.created_at`

func scanTransaction(s scanner) (models.Transaction, error) {
	var t models.Transaction
	err := s.Scan(&t.ID, &t.TransactionID, &t.TotalAmount, &t.CustomerName, &t.CashierName,
		&t.PaymentMethod, &t.Status, &t.BranchID, &t.RecordedBy, &t.CreatedAt)
	return t, err
}

func (r *transactionRepository) CreateTransaction(ctx context.Context, executor SQLExecutor, txn *models.Transaction) (int64, error) {
	query := `INSERT INTO transactions
	            (transaction_id, total_amount, customer_name, cashier_name, payment_method,
	             status, branch_id, recorded_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	if txn.Status == "" {
		txn.Status = models.TransactionStatusCompleted
	}
	err := executor.QueryRowContext(ctx, query,
		txn.TransactionID, txn.TotalAmount, txn.CustomerName, txn.CashierName, txn.PaymentMethod,
		txn.Status, txn.BranchID, txn.RecordedBy, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: transaction %q already recorded (constraint: %s)", ErrDuplicateKey, txn.TransactionID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating transaction: %v", ErrDatabaseError, err)
	}
	return txn.ID, nil
}

func (r *transactionRepository) CreateTransactionItems(ctx context.Context, executor SQLExecutor, transactionPK int64, items []models.TransactionItem) error {
	query := `INSERT INTO transaction_items (transaction_pk, position, product_id, product_name, quantity, price)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for i, item := range items {
		if _, err := executor.ExecContext(ctx, query, transactionPK, i, item.ProductID, item.ProductName, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("%w: creating transaction item %d (product %d): %v", ErrDatabaseError, i, item.ProductID, err)
		}
	}
	return nil
}

func (r *transactionRepository) GetTransactionByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.transaction_id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting transaction %q: %v", ErrDatabaseError, transactionID, err)
	}
	itemsByPK, err := r.itemsFor(ctx, []int64{t.ID})
	if err != nil {
		return nil, err
	}
	t.Items = itemsByPK[t.ID]
	return &t, nil
}

func (r *transactionRepository) ListTransactions(ctx context.Context, q TransactionQuery) ([]models.Transaction, error) {
	transactions := []models.Transaction{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + transactionColumns + ` FROM transactions t`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(t.transaction_id ILIKE $%d ESCAPE '\' OR t.customer_name ILIKE $%d ESCAPE '\')`, argCount, argCount))
		args = append(args, "%"+likeEscaper.Replace(q.Search)+"%")
		argCount++
	}
	if q.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argCount))
		args = append(args, q.Status)
		argCount++
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("t.created_at >= $%d", argCount))
		args = append(args, q.Since)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY t.created_at DESC, t.id DESC")
	if q.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning transaction: %v", ErrDatabaseError, err)
		}
		transactions = append(transactions, t)
		ids = append(ids, t.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transactions: %v", ErrDatabaseError, err)
	}
	if len(ids) == 0 {
		return transactions, nil
	}

	itemsByPK, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range transactions {
		transactions[i].Items = itemsByPK[transactions[i].ID]
	}
	return transactions, nil
}

// itemsFor loads line items for the given transaction keys. The name stored
// at sale time wins; rows written before it was kept fall back to the live
// product name, or empty once the product is gone.
func (r *transactionRepository) itemsFor(ctx context.Context, pks []int64) (map[int64][]models.TransactionItem, error) {
	query := `SELECT ti.transaction_pk, ti.product_id, COALESCE(ti.product_name, ii.name, ''), ti.quantity, ti.price
	          FROM transaction_items ti
	          LEFT JOIN inventory_items ii ON ti.product_id = ii.id
	          WHERE ti.transaction_pk = ANY($1)
	          ORDER BY ti.transaction_pk, ti.position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(pks))
	if err != nil {
		return nil, fmt.Errorf("%w: getting transaction items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := make(map[int64][]models.TransactionItem, len(pks))
	for rows.Next() {
		var pk int64
		var item models.TransactionItem
		if err := rows.Scan(&pk, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("%w: scanning transaction item: %v", ErrDatabaseError, err)
		}
		result[pk] = append(result[pk], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transaction items: %v", ErrDatabaseError, err)
	}
	return result, nil
}
