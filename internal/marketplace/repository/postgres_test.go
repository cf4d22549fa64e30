package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
)

var projectCols = []string{
	"id", "owner_id", "title", "description", "budget", "status", "selected_bid_id",
	"deadline", "last_reminder_sent_date", "created_at", "updated_at",
}

func setupProjectRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewProjectRepository(db), mock, db
}

func TestProjectRepository_CreateProject(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	deadline := time.Now().Add(72 * time.Hour)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs(sqlmock.AnyArg(), "buyer-1", "Logo", "", 250.0, "PENDING", deadline).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &domain.Project{OwnerID: "buyer-1", Title: "Logo", Budget: 250, Deadline: deadline}
	require.NoError(t, repo.CreateProject(context.Background(), p))

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_GetProject(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	ctx := context.Background()
	now := time.Now()

	t.Run("found with selection", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM projects WHERE id = \$1`).
			WithArgs("p1").
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow("p1", "buyer-1", "Logo", "d", 100.0, "IN_PROGRESS", "bid-1", now, now, now, now))

		p, err := repo.GetProject(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, p.Status)
		require.NotNil(t, p.SelectedBidID)
		assert.Equal(t, "bid-1", *p.SelectedBidID)
		assert.NotNil(t, p.LastReminderSentDate)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM projects WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetProject(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_SwapStatus(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	ctx := context.Background()
	now := time.Now()

	t.Run("writes when status matches", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects\s+SET status = \$3`).
			WithArgs("p1", "PENDING", "IN_PROGRESS", "bid-1").
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow("p1", "buyer-1", "Logo", "", 100.0, "IN_PROGRESS", "bid-1", now, nil, now, now))

		p, err := repo.SwapStatus(ctx, "p1", domain.StatusPending, domain.StatusInProgress, "bid-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, p.Status)
		assert.Equal(t, "bid-1", *p.SelectedBidID)
		assert.Nil(t, p.LastReminderSentDate)
	})

	t.Run("zero rows is a conflict", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects\s+SET status = \$3`).
			WithArgs("p1", "PENDING", "IN_PROGRESS", "bid-2").
			WillReturnRows(sqlmock.NewRows(projectCols))

		_, err := repo.SwapStatus(ctx, "p1", domain.StatusPending, domain.StatusInProgress, "bid-2")
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE projects\s+SET status = \$3`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.SwapStatus(ctx, "p1", domain.StatusInProgress, domain.StatusCompleted, "")
		require.Error(t, err)
		assert.Equal(t, domain.Kind(""), domain.KindOf(err))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CreateBid(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("inserts", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bids`).
			WithArgs(sqlmock.AnyArg(), "p1", "seller-1", 90.0, 5, "hi").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		b := &domain.Bid{ProjectID: "p1", SellerID: "seller-1", Amount: 90, DurationDays: 5, Message: "hi"}
		require.NoError(t, repo.CreateBid(ctx, b))
		assert.NotEmpty(t, b.ID)
	})

	t.Run("missing project", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO bids`).
			WillReturnError(&pq.Error{Code: "23503"})

		err := repo.CreateBid(ctx, &domain.Bid{ProjectID: "nope", SellerID: "s", Amount: 1, DurationDays: 1})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListBids(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, project_id, seller_id, amount, duration_days, message, created_at\s+FROM bids`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "seller_id", "amount", "duration_days", "message", "created_at"}).
			AddRow("b1", "p1", "s1", 10.0, 3, "", now).
			AddRow("b2", "p1", "s1", 12.0, 2, "again", now))

	bids, err := repo.ListBids(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, "s1", bids[1].SellerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_GetBidNotFound(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM bids\s+WHERE id = \$1`).WithArgs("b9").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBid(context.Background(), "b9")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Deliverables(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO deliverables`).
		WithArgs(sqlmock.AnyArg(), "p1", "seller-1", "s3://bucket/v1.zip", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	d := &domain.Deliverable{ProjectID: "p1", UploaderID: "seller-1", ArtifactURL: "s3://bucket/v1.zip"}
	require.NoError(t, repo.CreateDeliverable(ctx, d))
	assert.NotEmpty(t, d.ID)

	mock.ExpectQuery(`FROM deliverables`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "uploader_id", "artifact_url", "note", "created_at"}).
			AddRow(d.ID, "p1", "seller-1", "s3://bucket/v1.zip", "", now))

	list, err := repo.ListDeliverables(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_CreateDeliverableOnClosedProject(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO deliverables .+\s+FROM projects p\s+WHERE p.id = \$2 AND p.status = ANY\(\$6\)`).
		WithArgs(sqlmock.AnyArg(), "p1", "seller-1", "s3://late.zip", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	err := repo.CreateDeliverable(context.Background(), &domain.Deliverable{
		ProjectID: "p1", UploaderID: "seller-1", ArtifactURL: "s3://late.zip",
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_Reminders(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	ctx := context.Background()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	until := now.Add(48 * time.Hour)
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM projects p\s+LEFT JOIN bids b`).
		WithArgs(now, until, day).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "seller_id", "deadline"}).
			AddRow("p1", "Logo", "buyer-1", "seller-1", now.Add(24*time.Hour)).
			AddRow("p2", "Site", "buyer-2", "", now.Add(30*time.Hour)))

	targets, err := repo.ListDueForReminder(ctx, now, until, day)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "seller-1", targets[0].SellerID)
	assert.Empty(t, targets[1].SellerID)

	mock.ExpectExec(`UPDATE projects\s+SET last_reminder_sent_date = \$2`).
		WithArgs("p1", day).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.MarkReminderSent(ctx, "p1", day)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE projects\s+SET last_reminder_sent_date = \$2`).
		WithArgs("p1", day).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.MarkReminderSent(ctx, "p1", day)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
