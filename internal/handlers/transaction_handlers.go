package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/middleware"
	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/reporting"
	"pharmacy_backend/internal/services"
	"pharmacy_backend/pkg/utils"
)

// TransactionHandler records and reads sales.
type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(ts services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: ts}
}

// RecordTransaction stores a checkout. Stock is decremented in the same write.
func (h *TransactionHandler) RecordTransaction(c *gin.Context) {
	var req services.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCheckoutBindError(c, err)
		return
	}

	var actor *services.Actor
	if id, ok := middleware.IdentityFrom(c); ok {
		actor = &services.Actor{UserID: id.UserID, BranchID: id.BranchID}
	}

	txn, err := h.transactionService.Record(c.Request.Context(), req, actor)
	if err != nil {
		respondServiceError(c, err, "RecordTransaction", "Failed to record transaction")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// respondCheckoutBindError picks the field a checkout body failed on. Typed
// fields fail with *json.UnmarshalTypeError; decimal amounts and the date
// fail inside their own decoders, which leave no field name behind.
func respondCheckoutBindError(c *gin.Context, err error) {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var timeErr *time.ParseError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		utils.RespondValidationFailed(c, fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
	case errors.As(err, &timeErr):
		utils.RespondValidationFailed(c, "date must be an RFC 3339 timestamp")
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		respondBadPayload(c, "RecordTransaction", err)
	default:
		utils.RespondValidationFailed(c, "totalAmount and item prices must be numbers")
	}
}

func bindFilters(c *gin.Context) (models.TransactionFilters, bool) {
	var filters models.TransactionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, "Invalid query parameters")
		return filters, false
	}
	if filters.Days < 0 || filters.Limit < 0 {
		utils.RespondValidationFailed(c, "days and limit must be non-negative integers")
		return filters, false
	}
	return filters, true
}

// ListTransactions supports ?search=&status=&days=&limit=, newest first.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	filters, ok := bindFilters(c)
	if !ok {
		return
	}
	txns, err := h.transactionService.List(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListTransactions", "Failed to fetch transactions")
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txn, err := h.transactionService.Get(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		respondServiceError(c, err, "GetTransaction", "Failed to fetch transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// RecentSales takes ?limit= (default 10, capped at 100).
func (h *TransactionHandler) RecentSales(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.DefaultRecentSales)
	if !ok {
		return
	}
	txns, err := h.transactionService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "RecentSales", "Failed to fetch recent sales")
		return
	}
	c.JSON(http.StatusOK, txns)
}

// ExportTransactions streams the filtered list as CSV.
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	filters, ok := bindFilters(c)
	if !ok {
		return
	}
	txns, err := h.transactionService.List(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ExportTransactions", "Failed to export transactions")
		return
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := reporting.WriteCSV(c.Writer, txns); err != nil {
		utils.LogError(err, "ExportTransactions: writing CSV")
	}
}
