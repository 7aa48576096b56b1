package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/middleware"
	"pharmacy_backend/internal/services"
	"pharmacy_backend/pkg/utils"
)

// respondServiceError maps service sentinels onto HTTP responses.
// Anything unrecognised becomes a 500 carrying fallback as its message.
func respondServiceError(c *gin.Context, err error, op, fallback string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.RespondValidationFailed(c, validationErr.Message)
	case errors.Is(err, services.ErrTotalMismatch):
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrProductNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found", err.Error()))
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Transaction not found", ""))
	case errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User profile not found", ""))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, err.Error(), ""))
	case errors.Is(err, services.ErrDuplicateTransaction):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Transaction already recorded", err.Error()))
	case errors.Is(err, services.ErrEmailExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists", ""))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password", ""))
	default:
		utils.LogError(err, op)
		utils.RespondInternalError(c, fallback, err)
		return
	}
	utils.LogDebug(op, map[string]interface{}{"error": err.Error()})
}

func respondBadPayload(c *gin.Context, op string, err error) {
	utils.LogError(err, op+": Failed to bind JSON")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
}

// parseIDParam reads a positive int64 path parameter, answering 400 itself on failure.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format", ""))
		return 0, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		utils.RespondValidationFailed(c, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func currentUserID(c *gin.Context) *int64 {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil
	}
	return &id.UserID
}
