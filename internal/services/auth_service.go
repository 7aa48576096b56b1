package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/internal/repositories"
	"pharmacy_backend/pkg/utils"
)

const MinPasswordLength = 6

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest DTO
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	BranchID *int64 `json:"branchId"`
}

// LoginResponse DTO. Home is the dashboard path for the user's role.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	BranchID  *int64      `json:"branchId"`
	Home      string      `json:"home"`
}

// --- AuthService Interface ---
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
	tokens   *utils.JWTManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB, tokens *utils.JWTManager) AuthService {
	return &authService{
		authRepo: authRepo,
		db:       db,
		tokens:   tokens,
	}
}

// Signup handles the business logic for user registration.
func (s *authService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	switch {
	case utils.IsEmpty(req.Name):
		return nil, missingField("name")
	case utils.IsEmpty(req.Email):
		return nil, missingField("email")
	case req.Password == "":
		return nil, missingField("password")
	case utils.IsEmpty(req.Role):
		return nil, missingField("role")
	}
	if !utils.IsValidEmail(req.Email) {
		return nil, invalidField("email", "Invalid email address")
	}
	if !utils.IsValidPasswordLength(req.Password, MinPasswordLength) {
		return nil, invalidField("password", "Password must be at least %d characters", MinPasswordLength)
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, invalidField("role", "Role must be admin or manager")
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashedPasswordBytes),
		Role:         role,
		BranchID:     req.BranchID,
	}

	if _, err := s.authRepo.CreateUser(ctx, s.db, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user.PasswordHash = "" // Ensure hash is not returned
	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role.String()})
	return user, nil
}

// Login checks credentials and issues an access token.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if utils.IsEmpty(req.Email) {
		return nil, missingField("email")
	}
	if req.Password == "" {
		return nil, missingField("password")
	}

	user, err := s.authRepo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role.String(), user.BranchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		BranchID:  user.BranchID,
		Home:      user.Role.HomePath(),
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = "" // Ensure password hash is not exposed
	return user, nil
}
