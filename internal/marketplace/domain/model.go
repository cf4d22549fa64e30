package domain

import "time"

// Project is a buyer's posted job. Status and SelectedBidID are only ever
// changed through the lifecycle service.
type Project struct {
	ID                   string     `json:"id"`
	OwnerID              string     `json:"owner_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Budget               float64    `json:"budget"`
	Status               Status     `json:"status"`
	SelectedBidID        *string    `json:"selected_bid_id,omitempty"`
	Deadline             time.Time  `json:"deadline"`
	LastReminderSentDate *time.Time `json:"last_reminder_sent_date,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasSelection reports whether a seller has been picked.
func (p *Project) HasSelection() bool {
	return p.SelectedBidID != nil && *p.SelectedBidID != ""
}

// Bid is immutable once submitted. A seller may place several bids on the
// same project.
type Bid struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	SellerID     string    `json:"seller_id"`
	Amount       float64   `json:"amount"`
	DurationDays int       `json:"duration_days"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// Deliverable records one uploaded artifact. The artifact itself lives in
// external storage; only its locator is kept.
type Deliverable struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	UploaderID  string    `json:"uploader_id"`
	ArtifactURL string    `json:"artifact_url"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReminderTarget is a project due for a deadline reminder together with the
// parties to notify. SellerID is empty while the project is still PENDING.
type ReminderTarget struct {
	ProjectID string
	Title     string
	OwnerID   string
	SellerID  string
	Deadline  time.Time
}

type CreateProjectRequest struct {
	OwnerID     string
	Title       string
	Description string
	Budget      float64
	Deadline    time.Time
}

type SubmitBidRequest struct {
	ProjectID    string
	SellerID     string
	Amount       float64
	DurationDays int
	Message      string
}

type Artifact struct {
	URL  string
	Note string
}
