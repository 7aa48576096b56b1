package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy_backend/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type txnFixture struct {
	svc   *transactionService
	inv   *fakeInventoryRepo
	moves *fakeMovementRepo
	txns  *fakeTxnRepo
}

func newTxnFixture(t *testing.T, now time.Time) (*txnFixture, func() (expectCommit func(), expectRollback func())) {
	t.Helper()
	db, mock := newMockDB(t)
	f := &txnFixture{
		inv: newFakeInventory(
			models.Product{ID: 1, Name: "Paracetamol", Stock: 10, Price: dec("5.99")},
			models.Product{ID: 2, Name: "Vitamin D3", Stock: 1, Price: dec("15.99")},
		),
		moves: &fakeMovementRepo{},
		txns:  &fakeTxnRepo{},
	}
	f.svc = NewTransactionService(f.txns, f.inv, f.moves, db).(*transactionService)
	f.svc.now = func() time.Time { return now }
	return f, func() (func(), func()) {
		return func() { mock.ExpectBegin(); mock.ExpectCommit() },
			func() { mock.ExpectBegin(); mock.ExpectRollback() }
	}
}

func paracetamolAndVitaminD() RecordTransactionRequest {
	return RecordTransactionRequest{
		TransactionID: "TXN1700000000001",
		Items: []RecordTransactionItem{
			{ProductID: 1, Quantity: 2, Price: dec("5.99")},
			{ProductID: 2, Quantity: 1, Price: dec("15.99")},
		},
		TotalAmount: decPtr("27.97"),
	}
}

func TestRecordPersistsSaleAndDecrementsStock(t *testing.T) {
	now := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	f, expect := newTxnFixture(t, now)
	commit, _ := expect()
	commit()

	branch := int64(4)
	txn, err := f.svc.Record(context.Background(), paracetamolAndVitaminD(), &Actor{UserID: 9, BranchID: &branch})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if txn.ID == 0 || txn.TransactionID != "TXN1700000000001" {
		t.Fatalf("unexpected identity %+v", txn)
	}
	if !txn.TotalAmount.Equal(dec("27.97")) {
		t.Errorf("TotalAmount = %s, want 27.97", txn.TotalAmount)
	}
	if txn.Status != models.TransactionStatusCompleted {
		t.Errorf("Status = %q, want Completed", txn.Status)
	}
	if !txn.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want server time %v", txn.CreatedAt, now)
	}
	if *txn.RecordedBy != 9 || *txn.BranchID != 4 {
		t.Errorf("actor not attached: recordedBy=%v branch=%v", txn.RecordedBy, txn.BranchID)
	}
	if txn.Items[0].ProductName != "Paracetamol" || txn.Items[1].ProductName != "Vitamin D3" {
		t.Errorf("product names not resolved: %+v", txn.Items)
	}
	if f.inv.stockOf(1) != 8 || f.inv.stockOf(2) != 0 {
		t.Errorf("stock = %d/%d, want 8/0", f.inv.stockOf(1), f.inv.stockOf(2))
	}
	if len(f.moves.movements) != 2 || f.moves.movements[0].MovementType != models.MovementTypeSale {
		t.Errorf("expected two sale movements, got %+v", f.moves.movements)
	}
	if len(f.txns.txns) != 1 || len(f.txns.txns[0].Items) != 2 {
		t.Fatalf("transaction not stored with items: %+v", f.txns.txns)
	}
	if stored := f.txns.txns[0].Items; stored[0].ProductName != "Paracetamol" || stored[1].ProductName != "Vitamin D3" {
		t.Errorf("product names not stored with the sale: %+v", stored)
	}
}

func TestRecordAggregatesRepeatedProductAndLocksInOrder(t *testing.T) {
	f, expect := newTxnFixture(t, time.Now())
	commit, _ := expect()
	commit()

	req := RecordTransactionRequest{
		TransactionID: "TXN2",
		Items: []RecordTransactionItem{
			{ProductID: 2, Quantity: 1, Price: dec("15.99")},
			{ProductID: 1, Quantity: 1, Price: dec("5.99")},
			{ProductID: 1, Quantity: 3, Price: dec("5.99")},
		},
		TotalAmount: decPtr("39.95"),
	}
	if _, err := f.svc.Record(context.Background(), req, nil); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(f.inv.locked) != 2 || f.inv.locked[0] != 1 || f.inv.locked[1] != 2 {
		t.Fatalf("lock order = %v, want [1 2]", f.inv.locked)
	}
	if f.inv.stockOf(1) != 6 {
		t.Fatalf("stock = %d, want 6", f.inv.stockOf(1))
	}
}

func TestRecordToleratesFloatNoiseInTotal(t *testing.T) {
	f, expect := newTxnFixture(t, time.Now())
	commit, _ := expect()
	commit()

	req := paracetamolAndVitaminD()
	req.TotalAmount = decPtr("27.970000000000002")
	txn, err := f.svc.Record(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !txn.TotalAmount.Equal(dec("27.97")) {
		t.Fatalf("TotalAmount = %s, want 27.97", txn.TotalAmount)
	}
}

func TestRecordValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RecordTransactionRequest)
		wantErr error
		wantMsg string
	}{
		{"missing transaction id", func(r *RecordTransactionRequest) { r.TransactionID = " " }, ErrValidation, "Missing field: transactionId"},
		{"empty items", func(r *RecordTransactionRequest) { r.Items = nil }, ErrValidation, "Missing field: items"},
		{"missing total", func(r *RecordTransactionRequest) { r.TotalAmount = nil }, ErrValidation, "Missing field: totalAmount"},
		{"zero quantity", func(r *RecordTransactionRequest) { r.Items[0].Quantity = 0 }, ErrValidation, ""},
		{"negative price", func(r *RecordTransactionRequest) { r.Items[0].Price = dec("-1") }, ErrValidation, ""},
		{"unknown status", func(r *RecordTransactionRequest) { r.Status = "Voided" }, ErrValidation, ""},
		{"unknown payment method", func(r *RecordTransactionRequest) { m := "barter"; r.PaymentMethod = &m }, ErrValidation, ""},
		{"total mismatch", func(r *RecordTransactionRequest) { r.TotalAmount = decPtr("20.00") }, ErrTotalMismatch, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTxnFixture(t, time.Now())
			req := paracetamolAndVitaminD()
			tt.mutate(&req)

			_, err := f.svc.Record(context.Background(), req, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Fatalf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if len(f.txns.txns) != 0 || f.inv.stockOf(1) != 10 {
				t.Fatal("rejected request must not write anything")
			}
		})
	}
}

func TestRecordInsufficientStock(t *testing.T) {
	f, expect := newTxnFixture(t, time.Now())
	_, rollback := expect()
	rollback()

	req := RecordTransactionRequest{
		TransactionID: "TXN3",
		Items:         []RecordTransactionItem{{ProductID: 2, Quantity: 2, Price: dec("15.99")}},
		TotalAmount:   decPtr("31.98"),
	}
	_, err := f.svc.Record(context.Background(), req, nil)

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !errors.Is(err, ErrInsufficientStock) || stockErr.Available != 1 || stockErr.Requested != 2 {
		t.Fatalf("unexpected error detail %+v", stockErr)
	}
	if f.inv.stockOf(2) != 1 || len(f.moves.movements) != 0 || len(f.txns.txns) != 0 {
		t.Fatal("insufficient stock must not write anything")
	}
}

func TestRecordUnknownProduct(t *testing.T) {
	f, expect := newTxnFixture(t, time.Now())
	_, rollback := expect()
	rollback()

	req := RecordTransactionRequest{
		TransactionID: "TXN4",
		Items:         []RecordTransactionItem{{ProductID: 42, Quantity: 1, Price: dec("1.00")}},
		TotalAmount:   decPtr("1.00"),
	}
	if _, err := f.svc.Record(context.Background(), req, nil); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestRecordDuplicateTransactionID(t *testing.T) {
	f, expect := newTxnFixture(t, time.Now())
	commit, rollback := expect()
	commit()
	rollback()

	req := RecordTransactionRequest{
		TransactionID: "TXN5",
		Items:         []RecordTransactionItem{{ProductID: 1, Quantity: 1, Price: dec("5.99")}},
		TotalAmount:   decPtr("5.99"),
	}
	if _, err := f.svc.Record(context.Background(), req, nil); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	if _, err := f.svc.Record(context.Background(), req, nil); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
}

func TestRecordKeepsClientDate(t *testing.T) {
	f, expect := newTxnFixture(t, time.Now())
	commit, _ := expect()
	commit()

	when := time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)
	req := paracetamolAndVitaminD()
	req.Date = &when
	txn, err := f.svc.Record(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !txn.CreatedAt.Equal(when) {
		t.Fatalf("CreatedAt = %v, want %v", txn.CreatedAt, when)
	}
}

func TestRecentClampsLimit(t *testing.T) {
	f, _ := newTxnFixture(t, time.Now())

	tests := []struct{ in, want int }{{0, 10}, {-5, 10}, {25, 25}, {1000, 100}}
	for _, tt := range tests {
		if _, err := f.svc.Recent(context.Background(), tt.in); err != nil {
			t.Fatalf("Recent(%d) error = %v", tt.in, err)
		}
		if f.txns.lastQ.Limit != tt.want {
			t.Errorf("Recent(%d) limit = %d, want %d", tt.in, f.txns.lastQ.Limit, tt.want)
		}
	}
}

func TestListTranslatesDaysToWindow(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	f, _ := newTxnFixture(t, now)

	_, err := f.svc.List(context.Background(), models.TransactionFilters{Search: " alice ", Status: models.TransactionStatusCompleted, Days: 7})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	q := f.txns.lastQ
	if q.Search != "alice" || q.Status != models.TransactionStatusCompleted || !q.Since.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("unexpected query %+v", q)
	}

	if _, err := f.svc.List(context.Background(), models.TransactionFilters{Status: "Voided"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestGetAndSummary(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	f, expect := newTxnFixture(t, now)
	commit, _ := expect()
	commit()

	if _, err := f.svc.Record(context.Background(), paracetamolAndVitaminD(), nil); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := f.svc.Get(context.Background(), "TXN1700000000001")
	if err != nil || got.TransactionID != "TXN1700000000001" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if _, err := f.svc.Get(context.Background(), "missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	summary, err := f.svc.Summary(context.Background(), models.TransactionFilters{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Count != 1 || summary.CompletedToday != 1 || !summary.Revenue.Equal(dec("27.97")) {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestSummaryNarrowsInMemory(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	f, expect := newTxnFixture(t, now)
	commit, _ := expect()

	alice := "Alice Smith"
	sales := []RecordTransactionRequest{
		{TransactionID: "TXN-A", CustomerName: &alice, Items: []RecordTransactionItem{{ProductID: 1, Quantity: 1, Price: dec("5.99")}}, TotalAmount: decPtr("5.99")},
		{TransactionID: "TXN-B", Status: models.TransactionStatusPending, Items: []RecordTransactionItem{{ProductID: 1, Quantity: 2, Price: dec("5.99")}}, TotalAmount: decPtr("11.98")},
	}
	for _, sale := range sales {
		commit()
		if _, err := f.svc.Record(context.Background(), sale, nil); err != nil {
			t.Fatalf("Record(%s) error = %v", sale.TransactionID, err)
		}
	}

	summary, err := f.svc.Summary(context.Background(), models.TransactionFilters{Search: "alice", Days: 7})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Count != 1 || !summary.Revenue.Equal(dec("5.99")) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	q := f.txns.lastQ
	if q.Search != "" || q.Status != "" || !q.Since.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("only the day window belongs in the query, got %+v", q)
	}

	summary, err = f.svc.Summary(context.Background(), models.TransactionFilters{Status: models.TransactionStatusPending})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Count != 1 || summary.CompletedCount != 0 {
		t.Fatalf("unexpected pending summary %+v", summary)
	}

	if _, err := f.svc.Summary(context.Background(), models.TransactionFilters{Days: -1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative days, got %v", err)
	}
}
