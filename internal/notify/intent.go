package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Event string

const (
	EventBidReceived         Event = "bid_received"
	EventSellerSelected      Event = "seller_selected"
	EventDeliverableUploaded Event = "deliverable_uploaded"
	EventProjectCompleted    Event = "project_completed"
	EventDeadlineReminder    Event = "deadline_reminder"
)

// Intent asks the external delivery side to tell RecipientID about Event.
// Rendering and the delivery channel (email, push) are decided downstream.
type Intent struct {
	ID          string            `json:"id"`
	Event       Event             `json:"event"`
	RecipientID string            `json:"recipient_id"`
	ProjectID   string            `json:"project_id"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func NewIntent(ev Event, recipientID, projectID string, data map[string]string) Intent {
	return Intent{
		ID:          uuid.New().String(),
		Event:       ev,
		RecipientID: recipientID,
		ProjectID:   projectID,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
}

// Dispatcher hands intents to the delivery side. Implementations must not
// retry inline.
type Dispatcher interface {
	Dispatch(ctx context.Context, in Intent) error
}

// DispatchAll sends every intent and joins the failures. Intents with an
// empty recipient are skipped.
func DispatchAll(ctx context.Context, d Dispatcher, intents ...Intent) error {
	var errs []error
	for _, in := range intents {
		if in.RecipientID == "" {
			continue
		}
		if err := d.Dispatch(ctx, in); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
