package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/services"
)

type BillingHandler struct {
	billingService services.BillingService
}

func NewBillingHandler(bs services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

func (h *BillingHandler) CreateBilling(c *gin.Context) {
	var req services.CreateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "CreateBilling", err)
		return
	}
	billing, err := h.billingService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateBilling", "Failed to create billing")
		return
	}
	c.JSON(http.StatusCreated, billing)
}

// ListBillings takes an optional ?status=Paid|Pending|Refunded.
func (h *BillingHandler) ListBillings(c *gin.Context) {
	billings, err := h.billingService.List(c.Request.Context(), models.BillingStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err, "ListBillings", "Failed to fetch billings")
		return
	}
	c.JSON(http.StatusOK, billings)
}
