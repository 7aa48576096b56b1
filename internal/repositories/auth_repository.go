package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmacy_backend/internal/models"
)

// AuthRepository defines the interface for user account database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error) // includes PasswordHash
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user. user.PasswordHash must already be hashed.
// Emails are stored lower-cased so the unique constraint is case-insensitive.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (name, email, password_hash, role, branch_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := executor.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.BranchID, currentTime, currentTime,
	).Scan(&user.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime
	return user.ID, nil
}

const userColumns = `id, name, email, password_hash, role, branch_id, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	user := &models.User{}
	err := s.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.BranchID, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// FindUserByEmail retrieves a user, with password hash, for login.
func (r *authRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}
	return user, nil
}

// FindUserByID retrieves a user profile. PasswordHash is left empty.
func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}
