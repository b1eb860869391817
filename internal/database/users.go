package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, provider_id, name, email_verified, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.ProviderID,
		&user.Name,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByProviderID retrieves a user by the identity provider's subject
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE provider_id = $1`, providerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by provider ID: %w", err)
	}
	return user, nil
}

// UpsertFromClaims returns the user for the token subject, creating it on first
// sight and refreshing email and name when they change at the provider.
func (r *UserRepository) UpsertFromClaims(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	if claims == nil || claims.Sub == "" {
		return nil, fmt.Errorf("claims missing subject")
	}
	var name *string
	if claims.Name != "" {
		n := claims.Name
		name = &n
	}

	query := `
		INSERT INTO users (id, email, provider_id, name, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $5)
		ON CONFLICT (provider_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = COALESCE(EXCLUDED.name, users.name),
		    updated_at = CASE
		        WHEN users.email IS DISTINCT FROM EXCLUDED.email
		          OR (EXCLUDED.name IS NOT NULL AND users.name IS DISTINCT FROM EXCLUDED.name)
		        THEN EXCLUDED.updated_at
		        ELSE users.updated_at
		    END
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, uuid.New(), claims.Email, claims.Sub, name, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}
