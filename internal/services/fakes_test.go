package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/repositories"
)

// newMockDB returns a sqlmock-backed *sql.DB. Only the transaction boundary
// (Begin/Commit/Rollback) hits it; repositories are faked in memory.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

type fakeInventoryRepo struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	nextID   int64
	locked   []int64
}

func newFakeInventory(products ...models.Product) *fakeInventoryRepo {
	f := &fakeInventoryRepo{products: map[int64]*models.Product{}}
	for i := range products {
		p := products[i]
		f.products[p.ID] = &p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeInventoryRepo) stockOf(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func (f *fakeInventoryRepo) CreateProduct(_ context.Context, _ repositories.SQLExecutor, product *models.Product) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	product.ID = f.nextID
	cp := *product
	f.products[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeInventoryRepo) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeInventoryRepo) LockProduct(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Product, error) {
	f.mu.Lock()
	f.locked = append(f.locked, id)
	f.mu.Unlock()
	return f.GetProductByID(ctx, id)
}

func (f *fakeInventoryRepo) list(keep func(models.Product) bool) []models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.products {
		if keep(*p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeInventoryRepo) ListProducts(context.Context) ([]models.Product, error) {
	return f.list(func(models.Product) bool { return true }), nil
}

func (f *fakeInventoryRepo) ListLowStock(context.Context) ([]models.Product, error) {
	return f.list(models.Product.IsLowStock), nil
}

func (f *fakeInventoryRepo) ListExpiringBefore(_ context.Context, cutoff time.Time) ([]models.Product, error) {
	return f.list(func(p models.Product) bool { return !p.ExpiryDate.After(cutoff) }), nil
}

func (f *fakeInventoryRepo) UpdateProduct(_ context.Context, _ repositories.SQLExecutor, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[product.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *product
	f.products[cp.ID] = &cp
	return nil
}

func (f *fakeInventoryRepo) DeleteProduct(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeInventoryRepo) UpdateStock(_ context.Context, _ repositories.SQLExecutor, id int64, quantityChange int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if p.Stock+quantityChange < 0 {
		return 0, repositories.ErrInsufficientStock
	}
	p.Stock += quantityChange
	return p.Stock, nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []models.StockMovement
}

func (f *fakeMovementRepo) CreateMovement(_ context.Context, _ repositories.SQLExecutor, m *models.StockMovement) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, *m)
	return m.ID, nil
}

func (f *fakeMovementRepo) GetMovements(_ context.Context, productID *int64, movementType string, limit int) ([]models.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.StockMovement{}
	for i := len(f.movements) - 1; i >= 0 && len(out) < limit; i-- {
		m := f.movements[i]
		if productID != nil && m.ProductID != *productID {
			continue
		}
		if movementType != "" && m.MovementType != movementType {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type fakeTxnRepo struct {
	mu    sync.Mutex
	txns  []models.Transaction
	lastQ repositories.TransactionQuery
}

func (f *fakeTxnRepo) CreateTransaction(_ context.Context, _ repositories.SQLExecutor, txn *models.Transaction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.txns {
		if existing.TransactionID == txn.TransactionID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	txn.ID = int64(len(f.txns) + 1)
	f.txns = append(f.txns, *txn)
	return txn.ID, nil
}

func (f *fakeTxnRepo) CreateTransactionItems(_ context.Context, _ repositories.SQLExecutor, pk int64, items []models.TransactionItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.txns {
		if f.txns[i].ID == pk {
			f.txns[i].Items = append([]models.TransactionItem(nil), items...)
		}
	}
	return nil
}

func (f *fakeTxnRepo) GetTransactionByTransactionID(_ context.Context, transactionID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.TransactionID == transactionID {
			cp := t
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTxnRepo) ListTransactions(_ context.Context, q repositories.TransactionQuery) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ = q
	out := []models.Transaction{}
	for i := len(f.txns) - 1; i >= 0; i-- {
		t := f.txns[i]
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(t.TransactionID), strings.ToLower(q.Search)) {
			continue
		}
		if !q.Since.IsZero() && t.CreatedAt.Before(q.Since) {
			continue
		}
		out = append(out, t)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

type fakeAuthRepo struct {
	mu    sync.Mutex
	users []models.User
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = int64(len(f.users) + 1)
	f.users = append(f.users, *user)
	return user.ID, nil
}

func (f *fakeAuthRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAuthRepo) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := u
			cp.PasswordHash = ""
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeBillingRepo struct {
	billings []models.Billing
}

func (f *fakeBillingRepo) CreateBilling(_ context.Context, _ repositories.SQLExecutor, b *models.Billing) (int64, error) {
	b.ID = int64(len(f.billings) + 1)
	if b.Date.IsZero() {
		b.Date = time.Now()
	}
	f.billings = append(f.billings, *b)
	return b.ID, nil
}

func (f *fakeBillingRepo) ListBillings(_ context.Context, status models.BillingStatus) ([]models.Billing, error) {
	out := []models.Billing{}
	for _, b := range f.billings {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}
