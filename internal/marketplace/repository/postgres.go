package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
)

const projectColumns = `id, owner_id, title, description, budget, status, selected_bid_id, deadline, last_reminder_sent_date, created_at, updated_at`

// ProjectRepository persists projects, bids and deliverables in Postgres.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p        domain.Project
		selected sql.NullString
		reminded sql.NullTime
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Budget, &p.Status,
		&selected, &p.Deadline, &reminded, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if selected.Valid {
		p.SelectedBidID = &selected.String
	}
	if reminded.Valid {
		p.LastReminderSentDate = &reminded.Time
	}
	return &p, nil
}

// CreateProject inserts a new PENDING project.
func (r *ProjectRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = domain.StatusPending
	}

	const q = `
INSERT INTO projects (id, owner_id, title, description, budget, status, deadline)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	err := r.db.QueryRowContext(ctx, q, p.ID, p.OwnerID, p.Title, p.Description, p.Budget, p.Status, p.Deadline).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("project %s not found", id)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// SwapStatus moves the project to next only if its stored status still
// equals expected. A non-empty selectedBidID is written in the same
// statement. Zero matched rows means another writer got there first.
func (r *ProjectRepository) SwapStatus(ctx context.Context, projectID string, expected, next domain.Status, selectedBidID string) (*domain.Project, error) {
	q := `
UPDATE projects
SET status = $3,
    selected_bid_id = COALESCE(NULLIF($4, ''), selected_bid_id),
    updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + projectColumns + `;`

	p, err := scanProject(r.db.QueryRowContext(ctx, q, projectID, expected, next, selectedBidID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Conflictf("project %s is no longer %s", projectID, expected)
		}
		return nil, fmt.Errorf("swap project status: %w", err)
	}
	return p, nil
}

// CreateBid inserts an immutable bid. A missing project surfaces as the
// foreign key violation.
func (r *ProjectRepository) CreateBid(ctx context.Context, b *domain.Bid) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	const q = `
INSERT INTO bids (id, project_id, seller_id, amount, duration_days, message)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q, b.ID, b.ProjectID, b.SellerID, b.Amount, b.DurationDays, b.Message).
		Scan(&b.CreatedAt)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.NotFoundf("project %s not found", b.ProjectID)
		}
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetBid(ctx context.Context, id string) (*domain.Bid, error) {
	const q = `
SELECT id, project_id, seller_id, amount, duration_days, message, created_at
FROM bids
WHERE id = $1;
`
	var b domain.Bid
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.ProjectID, &b.SellerID, &b.Amount, &b.DurationDays, &b.Message, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("bid %s not found", id)
		}
		return nil, fmt.Errorf("get bid: %w", err)
	}
	return &b, nil
}

func (r *ProjectRepository) ListBids(ctx context.Context, projectID string) ([]domain.Bid, error) {
	const q = `
SELECT id, project_id, seller_id, amount, duration_days, message, created_at
FROM bids
WHERE project_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Bid, 0, 8)
	for rows.Next() {
		var b domain.Bid
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.SellerID, &b.Amount, &b.DurationDays, &b.Message, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) CreateDeliverable(ctx context.Context, d *domain.Deliverable) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	statuses := make([]string, 0, 2)
	for _, s := range domain.UploadStatuses() {
		statuses = append(statuses, string(s))
	}

	// Inserts only while the project still accepts uploads.
	const q = `
INSERT INTO deliverables (id, project_id, uploader_id, artifact_url, note)
SELECT $1, p.id, $3, $4, $5
FROM projects p
WHERE p.id = $2 AND p.status = ANY($6)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q, d.ID, d.ProjectID, d.UploaderID, d.ArtifactURL, d.Note, pq.Array(statuses)).
		Scan(&d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conflictf("project %s is not accepting deliverables", d.ProjectID)
	}
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.NotFoundf("project %s not found", d.ProjectID)
		}
		return fmt.Errorf("insert deliverable: %w", err)
	}
	return nil
}

func (r *ProjectRepository) ListDeliverables(ctx context.Context, projectID string) ([]domain.Deliverable, error) {
	const q = `
SELECT id, project_id, uploader_id, artifact_url, note, created_at
FROM deliverables
WHERE project_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Deliverable, 0, 4)
	for rows.Next() {
		var d domain.Deliverable
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.UploaderID, &d.ArtifactURL, &d.Note, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDueForReminder returns non-terminal projects whose deadline falls in
// (from, until] and that have not been reminded on or after day.
func (r *ProjectRepository) ListDueForReminder(ctx context.Context, from, until, day time.Time) ([]domain.ReminderTarget, error) {
	const q = `
SELECT p.id, p.title, p.owner_id, COALESCE(b.seller_id, ''), p.deadline
FROM projects p
LEFT JOIN bids b ON b.id = p.selected_bid_id
WHERE p.status <> 'COMPLETED'
  AND p.deadline > $1 AND p.deadline <= $2
  AND (p.last_reminder_sent_date IS NULL OR p.last_reminder_sent_date < $3)
ORDER BY p.deadline ASC;
`
	rows, err := r.db.QueryContext(ctx, q, from, until, day)
	if err != nil {
		return nil, fmt.Errorf("list due projects: %w", err)
	}
	defer rows.Close()

	var out []domain.ReminderTarget
	for rows.Next() {
		var t domain.ReminderTarget
		if err := rows.Scan(&t.ProjectID, &t.Title, &t.OwnerID, &t.SellerID, &t.Deadline); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkReminderSent stamps day on the project unless it already carries day
// or a later date. It reports whether the stamp was written.
func (r *ProjectRepository) MarkReminderSent(ctx context.Context, projectID string, day time.Time) (bool, error) {
	const q = `
UPDATE projects
SET last_reminder_sent_date = $2
WHERE id = $1
  AND (last_reminder_sent_date IS NULL OR last_reminder_sent_date < $2);
`
	res, err := r.db.ExecContext(ctx, q, projectID, day)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
