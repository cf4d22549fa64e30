package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogDispatcher only logs intents. Used when no Redis is configured.
type LogDispatcher struct {
	log *logrus.Logger
}

func NewLogDispatcher(log *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, in Intent) error {
	d.log.WithFields(logrus.Fields{
		"intent_id":  in.ID,
		"event":      in.Event,
		"recipient":  in.RecipientID,
		"project_id": in.ProjectID,
	}).Info("notification intent")
	return nil
}
