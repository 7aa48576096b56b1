package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/pkg/utils"
)

// ListMovements returns the stock ledger, newest first.
// Query: product_id, movement_type, limit (default 100, max 500).
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var productID *int64
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid product_id format")
			return
		}
		productID = &id
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	movements, err := h.inventoryService.ListMovements(c.Request.Context(), productID, c.Query("movement_type"), limit)
	if err != nil {
		respondServiceError(c, err, "ListMovements", "Failed to fetch stock movements")
		return
	}
	c.JSON(http.StatusOK, movements)
}
