package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/repositories"
)

// CreateBillingRequest DTO
type CreateBillingRequest struct {
	Customer      string               `json:"customer"`
	Items         []models.BillingItem `json:"items"`
	Total         *decimal.Decimal     `json:"total"`
	PaymentMethod string               `json:"paymentMethod"`
	Status        models.BillingStatus `json:"status"`
	Date          *time.Time           `json:"date"`
}

// --- BillingService Interface ---
type BillingService interface {
	Create(ctx context.Context, req CreateBillingRequest) (*models.Billing, error)
	List(ctx context.Context, status models.BillingStatus) ([]models.Billing, error)
}

type billingService struct {
	billingRepo repositories.BillingRepository
	db          *sql.DB
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(billingRepo repositories.BillingRepository, db *sql.DB) BillingService {
	return &billingService{billingRepo: billingRepo, db: db}
}

func (s *billingService) Create(ctx context.Context, req CreateBillingRequest) (*models.Billing, error) {
	switch {
	case strings.TrimSpace(req.Customer) == "":
		return nil, missingField("customer")
	case len(req.Items) == 0:
		return nil, missingField("items")
	case req.Total == nil:
		return nil, missingField("total")
	case strings.TrimSpace(req.PaymentMethod) == "":
		return nil, missingField("paymentMethod")
	case req.Status == "":
		return nil, missingField("status")
	}
	if !req.Status.Valid() {
		return nil, invalidField("status", "status must be one of Paid, Pending, Refunded")
	}
	if req.Total.IsNegative() {
		return nil, invalidField("total", "total must be a non-negative number")
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, invalidField("items", "items[%d].name is required", i)
		}
		if it.Quantity < 1 {
			return nil, invalidField("items", "items[%d].quantity must be at least 1", i)
		}
		if it.Price.IsNegative() {
			return nil, invalidField("items", "items[%d].price must be a non-negative number", i)
		}
	}

	computed := models.BillingItems(req.Items).Sum().Round(2)
	if !req.Total.Round(2).Equal(computed) {
		return nil, fmt.Errorf("%w: submitted %s, items sum to %s", ErrTotalMismatch, req.Total.StringFixed(2), computed.StringFixed(2))
	}

	billing := &models.Billing{
		Customer:      strings.TrimSpace(req.Customer),
		Items:         models.BillingItems(req.Items),
		Total:         req.Total.Round(2),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Status:        req.Status,
	}
	if req.Date != nil {
		billing.Date = *req.Date
	}

	if _, err := s.billingRepo.CreateBilling(ctx, s.db, billing); err != nil {
		return nil, fmt.Errorf("failed to create billing: %w", err)
	}
	return billing, nil
}

func (s *billingService) List(ctx context.Context, status models.BillingStatus) ([]models.Billing, error) {
	if status != "" && !status.Valid() {
		return nil, invalidField("status", "status must be one of Paid, Pending, Refunded")
	}
	billings, err := s.billingRepo.ListBillings(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list billings: %w", err)
	}
	return billings, nil
}
