// internal/scheduler/scheduler.go
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/user/storynest/internal/state"
)

// Handler is the callback invoked when a scheduled reminder fires.
type Handler func(sessionKey, prompt string)

// Scheduler evaluates cron expressions from the reminder store and fires reminders
// through a handler callback.
type Scheduler struct {
	store   *state.ReminderStore
	handler Handler
	cron    *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a new Scheduler backed by the given reminder store. The handler
// is called each time a scheduled reminder fires.
func New(store *state.ReminderStore, handler Handler) *Scheduler {
	return &Scheduler{
		store:   store,
		handler: handler,
		cron:    cron.New(cron.WithParser(cronParser)),
	}
}

// Start loads reminders from the store, registers enabled reminders that have a
// schedule as cron entries, and starts the cron ticker.
func (s *Scheduler) Start() error {
	reminders, err := s.store.List()
	if err != nil {
		return err
	}

	for _, reminder := range reminders {
		if reminder.Schedule == "" || !reminder.Enabled {
			continue
		}

		// Capture loop variables for the closure.
		sessionKey := reminder.SessionKey
		prompt := reminder.Prompt
		schedule := reminder.Schedule
		name := reminder.Name

		_, err := s.cron.AddFunc(schedule, func() {
			slog.Info("cron firing reminder", "name", name, "session_key", sessionKey)
			s.handler(sessionKey, prompt)
		})
		if err != nil {
			slog.Error("invalid cron schedule", "name", name, "schedule", schedule, "error", err)
			continue
		}
		slog.Info("scheduled reminder", "name", name, "schedule", schedule)
	}

	s.cron.Start()
	return nil
}

// Reload stops the existing cron, creates a new one, and calls Start() again.
func (s *Scheduler) Reload() error {
	s.cron.Stop()
	s.cron = cron.New(cron.WithParser(cronParser))
	return s.Start()
}

// Stop stops the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
