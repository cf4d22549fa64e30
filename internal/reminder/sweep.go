package reminder

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/notify"
)

// ErrSweepInFlight is returned when a sweep is requested while another one
// is still running. The request is dropped, not queued.
var ErrSweepInFlight = errors.New("reminder sweep already in progress")

type Store interface {
	ListDueForReminder(ctx context.Context, from, until, day time.Time) ([]domain.ReminderTarget, error)
	MarkReminderSent(ctx context.Context, projectID string, day time.Time) (bool, error)
}

type Report struct {
	Day      time.Time `json:"day"`
	Due      int       `json:"due"`
	Reminded int       `json:"reminded"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	DryRun   bool      `json:"dry_run"`
}

// Sweeper sends one deadline reminder per project per calendar day.
type Sweeper struct {
	store     Store
	notifier  notify.Dispatcher
	lookahead time.Duration
	loc       *time.Location
	now       func() time.Time
	log       *logrus.Entry
	running   atomic.Bool
	dryRun    bool
}

func NewSweeper(store Store, notifier notify.Dispatcher, lookahead time.Duration, loc *time.Location, log *logrus.Logger) *Sweeper {
	if loc == nil {
		loc = time.UTC
	}
	return &Sweeper{
		store:     store,
		notifier:  notifier,
		lookahead: lookahead,
		loc:       loc,
		now:       time.Now,
		log:       log.WithField("component", "reminder"),
	}
}

// WithClock replaces the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// WithDryRun makes Run list due projects without sending or stamping.
func (s *Sweeper) WithDryRun(dry bool) *Sweeper {
	s.dryRun = dry
	return s
}

// Day returns midnight of t's calendar day in the sweeper's location.
func (s *Sweeper) Day(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}

// Run performs one sweep. A project is stamped only after its reminder was
// handed to the dispatcher, so a failed dispatch is retried by a later sweep.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, ErrSweepInFlight
	}
	defer s.running.Store(false)

	now := s.now()
	day := s.Day(now)
	rep := Report{Day: day, DryRun: s.dryRun}

	targets, err := s.store.ListDueForReminder(ctx, now, now.Add(s.lookahead), day)
	if err != nil {
		return rep, err
	}
	rep.Due = len(targets)

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		entry := s.log.WithField("project_id", t.ProjectID)

		if s.dryRun {
			entry.WithField("deadline", t.Deadline).Info("reminder due (dry run)")
			continue
		}

		// A partial failure leaves the project unstamped, so recipients that
		// were reached get the reminder again on the retry.
		if err := notify.DispatchAll(ctx, s.notifier, reminderIntents(t)...); err != nil {
			entry.WithError(domain.TransientDelivery(err)).Warn("reminder dispatch failed; will retry next sweep")
			rep.Failed++
			continue
		}

		stamped, err := s.store.MarkReminderSent(ctx, t.ProjectID, day)
		switch {
		case err != nil:
			entry.WithError(err).Error("stamp reminder date")
			rep.Failed++
		case !stamped:
			// another sweeper already stamped today
			rep.Skipped++
		default:
			rep.Reminded++
		}
	}

	s.log.WithFields(logrus.Fields{
		"day":      day.Format("2006-01-02"),
		"due":      rep.Due,
		"reminded": rep.Reminded,
		"skipped":  rep.Skipped,
		"failed":   rep.Failed,
	}).Info("reminder sweep finished")
	return rep, nil
}

func reminderIntents(t domain.ReminderTarget) []notify.Intent {
	data := map[string]string{
		"title":    t.Title,
		"deadline": t.Deadline.UTC().Format(time.RFC3339),
	}
	intents := []notify.Intent{
		notify.NewIntent(notify.EventDeadlineReminder, t.OwnerID, t.ProjectID, data),
	}
	if t.SellerID != "" {
		intents = append(intents, notify.NewIntent(notify.EventDeadlineReminder, t.SellerID, t.ProjectID, data))
	}
	return intents
}
