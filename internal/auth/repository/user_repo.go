package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByExternalID retrieves a profile by the identity provider's id.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	const q = `
		SELECT external_id, email, display_name, photo_url, role, organization,
		       preferences, created_at, updated_at, last_login_at
		FROM users
		WHERE external_id = $1
	`

	var user domain.User
	var preferencesJSON []byte
	var email, displayName, photoURL, organization sql.NullString
	var lastLoginAt sql.NullTime

	err := r.db.QueryRowContext(ctx, q, externalID).Scan(
		&user.ExternalID,
		&email,
		&displayName,
		&photoURL,
		&user.Role,
		&organization,
		&preferencesJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Email = nullable(email)
	user.DisplayName = nullable(displayName)
	user.PhotoURL = nullable(photoURL)
	user.Organization = nullable(organization)
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	user.Preferences = make(map[string]interface{})
	if len(preferencesJSON) > 0 {
		_ = json.Unmarshal(preferencesJSON, &user.Preferences)
	}

	return &user, nil
}

// Create inserts a profile. A row already created for the same id by the
// identity middleware is completed in place.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const q = `
		INSERT INTO users (external_id, email, display_name, photo_url, role, organization, preferences)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE
		SET email = COALESCE(EXCLUDED.email, users.email),
		    display_name = COALESCE(EXCLUDED.display_name, users.display_name),
		    photo_url = EXCLUDED.photo_url,
		    role = EXCLUDED.role,
		    organization = EXCLUDED.organization,
		    preferences = EXCLUDED.preferences,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, q,
		user.ExternalID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.Role,
		user.Organization,
		preferencesJSON(user.Preferences),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const q = `
		UPDATE users
		SET email = $2, display_name = $3, photo_url = $4, role = $5, organization = $6,
		    preferences = $7, updated_at = NOW()
		WHERE external_id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, q,
		user.ExternalID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.Role,
		user.Organization,
		preferencesJSON(user.Preferences),
	).Scan(&user.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, externalID string) error {
	const q = `UPDATE users SET last_login_at = NOW() WHERE external_id = $1`

	res, err := r.db.ExecContext(ctx, q, externalID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func preferencesJSON(p map[string]interface{}) string {
	if p == nil {
		return "{}"
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}
