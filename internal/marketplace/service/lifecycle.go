package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/logging"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/notify"
)

// Store is the durable source of projects, bids and deliverables.
// SwapStatus must be a compare-and-swap on the status column.
type Store interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	SwapStatus(ctx context.Context, projectID string, expected, next domain.Status, selectedBidID string) (*domain.Project, error)

	CreateBid(ctx context.Context, b *domain.Bid) error
	GetBid(ctx context.Context, id string) (*domain.Bid, error)
	ListBids(ctx context.Context, projectID string) ([]domain.Bid, error)

	CreateDeliverable(ctx context.Context, d *domain.Deliverable) error
	ListDeliverables(ctx context.Context, projectID string) ([]domain.Deliverable, error)
}

// Lifecycle owns project status transitions and the single-selection rule.
type Lifecycle struct {
	store    Store
	notifier notify.Dispatcher
	now      func() time.Time
}

func NewLifecycle(store Store, notifier notify.Dispatcher) *Lifecycle {
	return &Lifecycle{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateProject opens a project for bidding.
func (s *Lifecycle) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	req.Title = strings.TrimSpace(req.Title)
	switch {
	case req.OwnerID == "":
		return nil, domain.Validationf("owner is required")
	case req.Title == "":
		return nil, domain.Validationf("title is required")
	case req.Budget <= 0:
		return nil, domain.Validationf("budget must be positive")
	case !req.Deadline.After(s.now()):
		return nil, domain.Validationf("deadline must be in the future")
	}

	p := &domain.Project{
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      domain.StatusPending,
		Deadline:    req.Deadline.UTC(),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Lifecycle) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if id == "" {
		return nil, domain.Validationf("project id is required")
	}
	return s.store.GetProject(ctx, id)
}

// SubmitBid records a bid on a PENDING project. Repeat bids by the same
// seller are accepted.
func (s *Lifecycle) SubmitBid(ctx context.Context, req domain.SubmitBidRequest) (*domain.Bid, error) {
	switch {
	case req.ProjectID == "" || req.SellerID == "":
		return nil, domain.Validationf("project and seller are required")
	case req.Amount <= 0:
		return nil, domain.Validationf("amount must be positive")
	case req.DurationDays <= 0:
		return nil, domain.Validationf("duration must be at least one day")
	}

	p, err := s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.StatusPending {
		return nil, domain.Conflictf("project is no longer accepting bids (status %s)", p.Status)
	}
	if p.OwnerID == req.SellerID {
		return nil, domain.Validationf("buyers cannot bid on their own project")
	}

	b := &domain.Bid{
		ProjectID:    req.ProjectID,
		SellerID:     req.SellerID,
		Amount:       req.Amount,
		DurationDays: req.DurationDays,
		Message:      req.Message,
	}
	if err := s.store.CreateBid(ctx, b); err != nil {
		return nil, err
	}

	s.dispatch(ctx, "submit_bid",
		notify.NewIntent(notify.EventBidReceived, p.OwnerID, p.ID, map[string]string{
			"bid_id":    b.ID,
			"seller_id": b.SellerID,
			"title":     p.Title,
		}))
	return b, nil
}

func (s *Lifecycle) ListBids(ctx context.Context, projectID string) ([]domain.Bid, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListBids(ctx, projectID)
}

// SelectSeller commits the project to bidID. Of several concurrent calls on
// the same PENDING project exactly one succeeds; the rest get a conflict.
// An empty actorID skips the ownership check.
func (s *Lifecycle) SelectSeller(ctx context.Context, actorID, projectID, bidID string) (*domain.Project, error) {
	if projectID == "" || bidID == "" {
		return nil, domain.Validationf("project id and bid id are required")
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actorID != "" && actorID != p.OwnerID {
		return nil, domain.Forbiddenf("only the project owner can select a seller")
	}
	next, err := domain.Transition(p.Status, domain.EventSelectSeller)
	if err != nil {
		return nil, err
	}

	bid, err := s.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.ProjectID != projectID {
		return nil, domain.Validationf("bid %s does not belong to project %s", bidID, projectID)
	}

	updated, err := s.store.SwapStatus(ctx, projectID, p.Status, next, bidID)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).WithField("project_id", projectID).WithField("bid_id", bidID).
		Info("seller selected")

	data := map[string]string{"bid_id": bidID, "title": p.Title}
	s.dispatch(ctx, "select_seller",
		notify.NewIntent(notify.EventSellerSelected, bid.SellerID, projectID, data),
		notify.NewIntent(notify.EventSellerSelected, p.OwnerID, projectID, data),
	)
	return updated, nil
}

// UploadDeliverable records an artifact without changing the status.
func (s *Lifecycle) UploadDeliverable(ctx context.Context, actorID, projectID string, artifact domain.Artifact) (*domain.Deliverable, error) {
	artifact.URL = strings.TrimSpace(artifact.URL)
	if projectID == "" || artifact.URL == "" {
		return nil, domain.Validationf("project id and artifact url are required")
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := domain.Transition(p.Status, domain.EventUploadDeliverable); err != nil {
		return nil, err
	}

	var sellerID string
	if p.HasSelection() {
		bid, err := s.store.GetBid(ctx, *p.SelectedBidID)
		if err != nil {
			return nil, fmt.Errorf("load selected bid: %w", err)
		}
		sellerID = bid.SellerID
	}
	if actorID != "" && actorID != sellerID {
		return nil, domain.Forbiddenf("only the selected seller can upload deliverables")
	}

	uploader := actorID
	if uploader == "" {
		uploader = sellerID
	}
	d := &domain.Deliverable{
		ProjectID:   projectID,
		UploaderID:  uploader,
		ArtifactURL: artifact.URL,
		Note:        artifact.Note,
	}
	if err := s.store.CreateDeliverable(ctx, d); err != nil {
		return nil, err
	}

	s.dispatch(ctx, "upload_deliverable",
		notify.NewIntent(notify.EventDeliverableUploaded, p.OwnerID, projectID, map[string]string{
			"deliverable_id": d.ID,
			"title":          p.Title,
		}))
	return d, nil
}

func (s *Lifecycle) ListDeliverables(ctx context.Context, projectID string) ([]domain.Deliverable, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListDeliverables(ctx, projectID)
}

// CompleteProject closes the project. COMPLETED is terminal.
func (s *Lifecycle) CompleteProject(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	if projectID == "" {
		return nil, domain.Validationf("project id is required")
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actorID != "" && actorID != p.OwnerID {
		return nil, domain.Forbiddenf("only the project owner can complete it")
	}
	next, err := domain.Transition(p.Status, domain.EventComplete)
	if err != nil {
		return nil, err
	}
	if !p.HasSelection() {
		return nil, domain.Conflictf("no seller has been selected")
	}

	updated, err := s.store.SwapStatus(ctx, projectID, p.Status, next, "")
	if err != nil {
		return nil, err
	}

	intents := []notify.Intent{
		notify.NewIntent(notify.EventProjectCompleted, p.OwnerID, projectID, map[string]string{"title": p.Title}),
	}
	if bid, err := s.store.GetBid(ctx, *p.SelectedBidID); err == nil {
		intents = append(intents,
			notify.NewIntent(notify.EventProjectCompleted, bid.SellerID, projectID, map[string]string{"title": p.Title}))
	} else {
		logging.FromContext(ctx).WithError(err).WithField("project_id", projectID).
			Warn("selected bid lookup failed; seller not notified")
	}
	s.dispatch(ctx, "complete_project", intents...)

	return updated, nil
}

// dispatch is best-effort: the state change has already been written and
// is never rolled back for a delivery failure.
func (s *Lifecycle) dispatch(ctx context.Context, operation string, intents ...notify.Intent) {
	if s.notifier == nil {
		return
	}
	if err := notify.DispatchAll(ctx, s.notifier, intents...); err != nil {
		logging.FromContext(ctx).
			WithError(domain.TransientDelivery(err)).
			WithField("operation", operation).
			Warn("notification dispatch failed")
	}
}
