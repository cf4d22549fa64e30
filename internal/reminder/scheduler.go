package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Scheduler struct {
	cron     *cron.Cron
	sweeper  *Sweeper
	schedule string
	timeout  time.Duration
	log      *logrus.Entry
}

// NewScheduler runs sweeper on schedule, a standard five-field cron expression or
// a descriptor such as @daily, evaluated in loc.
func NewScheduler(sweeper *Sweeper, schedule string, loc *time.Location, log *logrus.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	entry := log.WithField("component", "reminder-cron")
	cl := cronLogger{entry}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  10 * time.Minute,
		log:      entry,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("schedule reminder sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("reminder scheduler started")
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("reminder scheduler stop timed out")
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sweeper.Run(ctx); err != nil {
		if errors.Is(err, ErrSweepInFlight) {
			s.log.Info("previous sweep still running; skipped")
			return
		}
		s.log.WithError(err).Error("reminder sweep failed")
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	e *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.e.WithFields(kv(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.e.WithFields(kv(keysAndValues)).WithError(err).Error(msg)
}

func kv(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
