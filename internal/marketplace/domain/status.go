package domain

type Status string

const (
	StatusPending          Status = "PENDING"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusInReview         Status = "IN_REVIEW"
	StatusChangesRequested Status = "CHANGES_REQUESTED"
	StatusCompleted        Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusInReview, StatusChangesRequested, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// UploadStatuses are the statuses in which deliverables are accepted.
func UploadStatuses() []Status {
	return []Status{StatusInProgress, StatusChangesRequested}
}

func acceptsUploads(s Status) bool {
	for _, u := range UploadStatuses() {
		if s == u {
			return true
		}
	}
	return false
}

// Event is an action that may move a project between statuses.
type Event string

const (
	EventSelectSeller      Event = "select_seller"
	EventUploadDeliverable Event = "upload_deliverable"
	EventComplete          Event = "complete"
)

// Transition returns the status a project moves to when ev is applied in
// status from. Guards that depend on data other than the status (bid
// ownership, selection presence) are checked by the caller.
func Transition(from Status, ev Event) (Status, error) {
	if from.Terminal() {
		return "", Conflictf("project is %s; no further changes accepted", from)
	}

	switch ev {
	case EventSelectSeller:
		if from == StatusPending {
			return StatusInProgress, nil
		}
		return "", Conflictf("a seller has already been selected (status %s)", from)

	case EventUploadDeliverable:
		if acceptsUploads(from) {
			return from, nil
		}
		return "", Conflictf("deliverables cannot be uploaded while project is %s", from)

	case EventComplete:
		if from == StatusInProgress || from == StatusInReview {
			return StatusCompleted, nil
		}
		if from == StatusPending {
			return "", Conflictf("no seller has been selected")
		}
		return "", Conflictf("project cannot be completed while %s", from)
	}

	return "", Validationf("unknown event %q", ev)
}
