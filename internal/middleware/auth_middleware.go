package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/pkg/utils"
)

const identityKey = "identity"

// Identity is the authenticated caller, taken from a verified token.
type Identity struct {
	UserID   int64
	Email    string
	Role     models.Role
	BranchID *int64
}

// IdentityFrom returns the identity set by AuthMiddleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// SetIdentity stores id on the request context. Exposed for handler tests.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

func unauthorized(c *gin.Context, message string) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, message, ""))
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(tokens *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			unauthorized(c, "Invalid authorization header format. Use Bearer <token>")
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrMissingToken) {
				unauthorized(c, "Authorization header required")
				return
			}
			unauthorized(c, "Invalid or expired token")
			return
		}

		role, err := models.ParseRole(claims.Role)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		SetIdentity(c, Identity{UserID: claims.UserID, Email: claims.Email, Role: role, BranchID: claims.BranchID})
		c.Next()
	}
}

// RoleAuthMiddleware lets the request through only if the caller holds one of allowedRoles.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	names := make([]string, len(allowedRoles))
	for i, r := range allowedRoles {
		names[i] = r.String()
	}
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "User role not found. Ensure AuthMiddleware runs first.", ""))
			return
		}

		for _, r := range allowedRoles {
			if id.Role == r {
				c.Next()
				return
			}
		}

		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource. Required roles: "+strings.Join(names, ", "), ""))
	}
}
