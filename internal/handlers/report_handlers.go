package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TransactionSummary returns count, revenue, average and median for the
// same filters ListTransactions accepts.
func (h *TransactionHandler) TransactionSummary(c *gin.Context) {
	filters, ok := bindFilters(c)
	if !ok {
		return
	}
	summary, err := h.transactionService.Summary(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "TransactionSummary", "Failed to build summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
