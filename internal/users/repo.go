package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the user directory. The notification workers resolve recipient
// contact details from it by external id.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type UpsertUser struct {
	ExternalID  string
	Email       string
	DisplayName string
}

func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.ExternalID == "" {
		return "", fmt.Errorf("external id required")
	}

	const q = `
insert into users (external_id, email, display_name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (external_id) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  updated_at = now()
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.ExternalID, u.Email, u.DisplayName).Scan(&id); err != nil {
		return "", fmt.Errorf("ensure user: %w", err)
	}
	return id, nil
}
