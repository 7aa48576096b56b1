package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy_backend/internal/models"
)

func validProductFields() map[string]interface{} {
	return map[string]interface{}{
		"name":       "Paracetamol 500mg",
		"category":   "Analgesics",
		"stock":      float64(120),
		"minStock":   float64(20),
		"price":      5.99,
		"supplier":   "MediSupply Ltd",
		"expiryDate": "2027-01-31",
	}
}

func TestParseProductPatchReportsFirstMissingField(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]interface{})
		wantMsg string
	}{
		{"missing name", func(f map[string]interface{}) { delete(f, "name") }, "Missing field: name"},
		{"blank category", func(f map[string]interface{}) { f["category"] = "  " }, "Missing field: category"},
		{"null stock", func(f map[string]interface{}) { f["stock"] = nil }, "Missing field: stock"},
		{"missing minStock and supplier", func(f map[string]interface{}) { delete(f, "minStock"); delete(f, "supplier") }, "Missing field: minStock"},
		{"missing expiryDate", func(f map[string]interface{}) { delete(f, "expiryDate") }, "Missing field: expiryDate"},
		{"non-numeric stock", func(f map[string]interface{}) { f["stock"] = "lots" }, "Stock, minStock, and price must be numbers"},
		{"fractional minStock", func(f map[string]interface{}) { f["minStock"] = 2.5 }, "Stock, minStock, and price must be numbers"},
		{"non-numeric price", func(f map[string]interface{}) { f["price"] = "cheap" }, "Stock, minStock, and price must be numbers"},
		{"boolean stock", func(f map[string]interface{}) { f["stock"] = true }, "Stock, minStock, and price must be numbers"},
		{"hex stock", func(f map[string]interface{}) { f["stock"] = "0x10" }, "Stock, minStock, and price must be numbers"},
		{"negative stock", func(f map[string]interface{}) { f["stock"] = float64(-1) }, "stock must be a non-negative number"},
		{"negative price", func(f map[string]interface{}) { f["price"] = -0.01 }, "price must be a non-negative number"},
		{"bad date", func(f map[string]interface{}) { f["expiryDate"] = "not a date" }, "Invalid expiryDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validProductFields()
			tt.mutate(fields)

			_, err := parseProductPatch(fields, true)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Fatalf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseProductPatchAcceptsZeroAndNumericStrings(t *testing.T) {
	fields := validProductFields()
	fields["stock"] = float64(0)
	fields["minStock"] = "5"
	fields["price"] = "12.50"

	patch, err := parseProductPatch(fields, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *patch.Stock != 0 || *patch.MinStock != 5 {
		t.Fatalf("stock/minStock = %d/%d, want 0/5", *patch.Stock, *patch.MinStock)
	}
	for raw, want := range map[string]int{"010": 10, "08": 8, " 42 ": 42, "7.0": 7} {
		patch, err := parseProductPatch(map[string]interface{}{"stock": raw}, false)
		if err != nil {
			t.Fatalf("stock %q: unexpected error: %v", raw, err)
		}
		if *patch.Stock != want {
			t.Fatalf("stock %q = %d, want %d", raw, *patch.Stock, want)
		}
	}
	if !patch.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("price = %s, want 12.5", patch.Price)
	}
	want := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	if !patch.ExpiryDate.Equal(want) {
		t.Fatalf("expiryDate = %v, want %v", patch.ExpiryDate, want)
	}
}

func TestCreateProduct(t *testing.T) {
	db, _ := newMockDB(t)
	inv := newFakeInventory()
	svc := NewInventoryService(inv, &fakeMovementRepo{}, db)

	product, err := svc.CreateProduct(context.Background(), validProductFields())
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if product.ID == 0 || product.Name != "Paracetamol 500mg" || product.Stock != 120 {
		t.Fatalf("unexpected product %+v", product)
	}
	if !product.Price.Equal(decimal.RequireFromString("5.99")) {
		t.Fatalf("price = %s, want 5.99", product.Price)
	}
}

func TestUpdateProductMergesAndRecordsStockChange(t *testing.T) {
	db, mock := newMockDB(t)
	inv := newFakeInventory(models.Product{ID: 7, Name: "Vitamin D3", Category: "Supplements", Stock: 10, MinStock: 5, Price: decimal.RequireFromString("15.99")})
	moves := &fakeMovementRepo{}
	svc := NewInventoryService(inv, moves, db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	userID := int64(3)
	updated, err := svc.UpdateProduct(context.Background(), 7, map[string]interface{}{"stock": float64(4), "supplier": "Acme"}, &userID)
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if updated.Name != "Vitamin D3" || updated.Supplier != "Acme" || updated.Stock != 4 {
		t.Fatalf("unexpected merge result %+v", updated)
	}
	if len(moves.movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(moves.movements))
	}
	m := moves.movements[0]
	if m.MovementType != models.MovementTypeAdjustment || m.QuantityChanged != -6 || m.StockAfter != 4 || *m.UserID != 3 {
		t.Fatalf("unexpected movement %+v", m)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewInventoryService(newFakeInventory(), &fakeMovementRepo{}, db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.UpdateProduct(context.Background(), 99, map[string]interface{}{"name": "x"}, nil)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestUpdateProductRejectsBlankProvidedField(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewInventoryService(newFakeInventory(), &fakeMovementRepo{}, db)

	_, err := svc.UpdateProduct(context.Background(), 1, map[string]interface{}{"name": ""}, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	db, _ := newMockDB(t)
	inv := newFakeInventory(models.Product{ID: 1, Name: "Ibuprofen"})
	svc := NewInventoryService(inv, &fakeMovementRepo{}, db)

	if err := svc.DeleteProduct(context.Background(), 1); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if err := svc.DeleteProduct(context.Background(), 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("second delete: expected ErrProductNotFound, got %v", err)
	}
}

func TestListExpiring(t *testing.T) {
	db, _ := newMockDB(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := newFakeInventory(
		models.Product{ID: 1, Name: "Soon", ExpiryDate: now.AddDate(0, 0, 10)},
		models.Product{ID: 2, Name: "Later", ExpiryDate: now.AddDate(0, 3, 0)},
		models.Product{ID: 3, Name: "Expired", ExpiryDate: now.AddDate(0, 0, -1)},
	)
	svc := NewInventoryService(inv, &fakeMovementRepo{}, db).(*inventoryService)
	svc.now = func() time.Time { return now }

	products, err := svc.ListExpiring(context.Background(), 30)
	if err != nil {
		t.Fatalf("ListExpiring() error = %v", err)
	}
	if len(products) != 2 || products[0].Name != "Soon" || products[1].Name != "Expired" {
		t.Fatalf("unexpected expiring products %+v", products)
	}
}

func TestAdjustStock(t *testing.T) {
	t.Run("restock records movement", func(t *testing.T) {
		db, mock := newMockDB(t)
		inv := newFakeInventory(models.Product{ID: 1, Stock: 2})
		moves := &fakeMovementRepo{}
		svc := NewInventoryService(inv, moves, db)

		mock.ExpectBegin()
		mock.ExpectCommit()

		m, err := svc.AdjustStock(context.Background(), 1, AdjustStockRequest{QuantityChange: 48, MovementType: models.MovementTypeRestock}, nil)
		if err != nil {
			t.Fatalf("AdjustStock() error = %v", err)
		}
		if m.StockAfter != 50 || inv.stockOf(1) != 50 || len(moves.movements) != 1 {
			t.Fatalf("unexpected result movement=%+v stock=%d", m, inv.stockOf(1))
		}
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		db, mock := newMockDB(t)
		inv := newFakeInventory(models.Product{ID: 1, Stock: 2})
		moves := &fakeMovementRepo{}
		svc := NewInventoryService(inv, moves, db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.AdjustStock(context.Background(), 1, AdjustStockRequest{QuantityChange: -3}, nil)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if inv.stockOf(1) != 2 || len(moves.movements) != 0 {
			t.Fatal("stock or movements changed on rejected adjustment")
		}
	})

	t.Run("zero change is invalid", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := NewInventoryService(newFakeInventory(), &fakeMovementRepo{}, db)

		_, err := svc.AdjustStock(context.Background(), 1, AdjustStockRequest{}, nil)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}
