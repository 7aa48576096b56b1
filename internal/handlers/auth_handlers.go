package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/middleware"
	"pharmacy_backend/internal/services"
	"pharmacy_backend/pkg/utils"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Signup handles user registration.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "Signup", err)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Signup", "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "Login", err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Login", "Failed to login")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), id.UserID)
	if err != nil {
		respondServiceError(c, err, "GetCurrentUser: userID "+utils.Int64ToStr(id.UserID), "Failed to retrieve user profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"branchId":  user.BranchID,
		"home":      user.Role.HomePath(),
		"createdAt": user.CreatedAt,
	})
}
