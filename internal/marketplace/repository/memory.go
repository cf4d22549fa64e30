package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
)

// MemoryStore is a process-local store with the same semantics as
// ProjectRepository. A single mutex makes every method atomic, which gives
// SwapStatus the same compare-and-swap behaviour as the conditional UPDATE.
type MemoryStore struct {
	mu           sync.Mutex
	projects     map[string]*domain.Project
	bids         map[string]*domain.Bid
	deliverables map[string][]domain.Deliverable
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:     make(map[string]*domain.Project),
		bids:         make(map[string]*domain.Bid),
		deliverables: make(map[string][]domain.Deliverable),
		now:          time.Now,
	}
}

func copyProject(p *domain.Project) *domain.Project {
	cp := *p
	if p.SelectedBidID != nil {
		id := *p.SelectedBidID
		cp.SelectedBidID = &id
	}
	if p.LastReminderSentDate != nil {
		d := *p.LastReminderSentDate
		cp.LastReminderSentDate = &d
	}
	return &cp
}

func (m *MemoryStore) CreateProject(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
	now := m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.projects[p.ID] = copyProject(p)
	return nil
}

func (m *MemoryStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, domain.NotFoundf("project %s not found", id)
	}
	return copyProject(p), nil
}

func (m *MemoryStore) SwapStatus(_ context.Context, projectID string, expected, next domain.Status, selectedBidID string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok || p.Status != expected {
		return nil, domain.Conflictf("project %s is no longer %s", projectID, expected)
	}
	p.Status = next
	if selectedBidID != "" {
		id := selectedBidID
		p.SelectedBidID = &id
	}
	p.UpdatedAt = m.now()
	return copyProject(p), nil
}

func (m *MemoryStore) CreateBid(_ context.Context, b *domain.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[b.ProjectID]; !ok {
		return domain.NotFoundf("project %s not found", b.ProjectID)
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = m.now()
	cp := *b
	m.bids[b.ID] = &cp
	return nil
}

func (m *MemoryStore) GetBid(_ context.Context, id string) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bids[id]
	if !ok {
		return nil, domain.NotFoundf("bid %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) ListBids(_ context.Context, projectID string) ([]domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Bid, 0, 8)
	for _, b := range m.bids {
		if b.ProjectID == projectID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateDeliverable(_ context.Context, d *domain.Deliverable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[d.ProjectID]
	if !ok {
		return domain.NotFoundf("project %s not found", d.ProjectID)
	}
	if _, err := domain.Transition(p.Status, domain.EventUploadDeliverable); err != nil {
		return domain.Conflictf("project %s is not accepting deliverables", d.ProjectID)
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = m.now()
	m.deliverables[d.ProjectID] = append(m.deliverables[d.ProjectID], *d)
	return nil
}

func (m *MemoryStore) ListDeliverables(_ context.Context, projectID string) ([]domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Deliverable, len(m.deliverables[projectID]))
	copy(out, m.deliverables[projectID])
	return out, nil
}

func (m *MemoryStore) ListDueForReminder(_ context.Context, from, until, day time.Time) ([]domain.ReminderTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ReminderTarget
	for _, p := range m.projects {
		if p.Status.Terminal() {
			continue
		}
		if !p.Deadline.After(from) || p.Deadline.After(until) {
			continue
		}
		if p.LastReminderSentDate != nil && !p.LastReminderSentDate.Before(day) {
			continue
		}
		t := domain.ReminderTarget{
			ProjectID: p.ID,
			Title:     p.Title,
			OwnerID:   p.OwnerID,
			Deadline:  p.Deadline,
		}
		if p.HasSelection() {
			if b, ok := m.bids[*p.SelectedBidID]; ok {
				t.SellerID = b.SellerID
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (m *MemoryStore) MarkReminderSent(_ context.Context, projectID string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok {
		return false, nil
	}
	if p.LastReminderSentDate != nil && !p.LastReminderSentDate.Before(day) {
		return false, nil
	}
	d := day
	p.LastReminderSentDate = &d
	return true, nil
}
