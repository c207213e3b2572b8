package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"golang.org/x/sync/singleflight"
)

type CollaborationFinder interface {
	Find(ctx context.Context, f CollaborationFilter) ([]models.CollaborationDetail, error)
}

type SweepNotifier interface {
	Reminder(ctx context.Context, d *models.CollaborationDetail, r workflow.Reminder) DispatchResult
	Exception(ctx context.Context, d *models.CollaborationDetail, exc *workflow.Exception) DispatchResult
}

const (
	StepReminder24h    = "reminder_24h"
	StepReminder1h     = "reminder_1h"
	StepNoShow         = "no_show"
	StepStalled        = "stalled"
	StepMissedDeadline = "missed_deadline"
)

type StepSummary struct {
	Name    string `json:"name"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

func (s *StepSummary) count(o Outcome) {
	switch o {
	case OutcomeSent:
		s.Sent++
	case OutcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

type SweepSummary struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Steps      []StepSummary `json:"steps"`
	Errors     []string      `json:"errors"`
}

func (s *SweepSummary) Totals() StepSummary {
	total := StepSummary{Name: "total"}
	for _, step := range s.Steps {
		total.Sent += step.Sent
		total.Skipped += step.Skipped
		total.Failed += step.Failed
	}
	return total
}

// SweepService scans collaborations for time-based conditions and sends
// reminders and exception alerts.
type SweepService struct {
	finder     CollaborationFinder
	notifier   SweepNotifier
	sent       NotificationLogger
	thresholds workflow.Thresholds
	dedup      workflow.DedupPolicy
	group      singleflight.Group
}

func NewSweepService(finder CollaborationFinder, notifier SweepNotifier, sent NotificationLogger, thresholds workflow.Thresholds, dedup workflow.DedupPolicy) *SweepService {
	return &SweepService{
		finder:     finder,
		notifier:   notifier,
		sent:       sent,
		thresholds: thresholds,
		dedup:      dedup,
	}
}

// Run performs one sweep at now. Calls made while a sweep is in flight wait
// for it and receive its summary instead of starting another, even when they
// asked for a different now. SweepSummary.StartedAt holds the instant that was
// actually evaluated.
func (s *SweepService) Run(ctx context.Context, now time.Time) (*SweepSummary, error) {
	v, err, _ := s.group.Do("sweep", func() (any, error) {
		return s.run(ctx, now), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SweepSummary), nil
}

type sweepStep struct {
	name   string
	filter CollaborationFilter
	handle func(ctx context.Context, d *models.CollaborationDetail, now time.Time) (Outcome, bool)
}

func (s *SweepService) run(ctx context.Context, now time.Time) *SweepSummary {
	log.Printf("sweep: starting at %s", now.UTC().Format(time.RFC3339))
	summary := &SweepSummary{StartedAt: now, Errors: []string{}}

	for _, step := range s.steps(now) {
		result := StepSummary{Name: step.name}
		items, err := s.finder.Find(ctx, step.filter)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", step.name, err)
			log.Printf("sweep: query failed: %s", msg)
			summary.Errors = append(summary.Errors, msg)
			summary.Steps = append(summary.Steps, result)
			continue
		}
		for i := range items {
			if outcome, ok := step.handle(ctx, &items[i], now); ok {
				result.count(outcome)
			}
		}
		summary.Steps = append(summary.Steps, result)
	}

	summary.FinishedAt = time.Now()
	total := summary.Totals()
	log.Printf("sweep: finished: sent=%d skipped=%d failed=%d errors=%d",
		total.Sent, total.Skipped, total.Failed, len(summary.Errors))
	return summary
}

func (s *SweepService) steps(now time.Time) []sweepStep {
	scheduled := []workflow.Status{workflow.StatusScheduled}

	noShowCutoff := workflow.NoShowCutoff(now, s.thresholds)
	stalledCutoff := workflow.StalledCutoff(now, s.thresholds)
	editingCutoff := workflow.EditingCutoff(now, s.thresholds)

	return []sweepStep{
		s.reminderStep(StepReminder24h, workflow.Reminder24h, now),
		s.reminderStep(StepReminder1h, workflow.Reminder1h, now),
		{
			name:   StepNoShow,
			filter: CollaborationFilter{Statuses: scheduled, ScheduledBefore: &noShowCutoff},
			handle: s.exceptionHandler(workflow.ExceptionNoShow),
		},
		{
			name:   StepStalled,
			filter: CollaborationFilter{Statuses: workflow.StalledStatuses(), UpdatedBefore: &stalledCutoff},
			handle: s.exceptionHandler(workflow.ExceptionStalled),
		},
		{
			name:   StepMissedDeadline,
			filter: CollaborationFilter{Statuses: []workflow.Status{workflow.StatusEditing}, RecordedBefore: &editingCutoff},
			handle: s.exceptionHandler(workflow.ExceptionMissedDeadline),
		},
	}
}

func (s *SweepService) reminderStep(name string, r workflow.Reminder, now time.Time) sweepStep {
	w := workflow.ReminderWindow(r, now)
	return sweepStep{
		name: name,
		filter: CollaborationFilter{
			Statuses:        []workflow.Status{workflow.StatusScheduled},
			ScheduledFrom:   &w.From,
			ScheduledBefore: &w.To,
		},
		handle: func(ctx context.Context, d *models.CollaborationDetail, now time.Time) (Outcome, bool) {
			if !s.allowed(ctx, d, workflow.KindReminder, ReminderVariant(r, d.ScheduledDate), now) {
				return OutcomeSkipped, true
			}
			return s.notifier.Reminder(ctx, d, r).Outcome, true
		},
	}
}

// exceptionHandler re-checks each candidate with the detector; rows whose
// exception is of another class belong to a different step.
func (s *SweepService) exceptionHandler(want workflow.ExceptionType) func(context.Context, *models.CollaborationDetail, time.Time) (Outcome, bool) {
	return func(ctx context.Context, d *models.CollaborationDetail, now time.Time) (Outcome, bool) {
		exc := workflow.DetectException(d.Timeline(), now, s.thresholds)
		if exc == nil || exc.Type != want {
			return "", false
		}
		if !s.allowed(ctx, d, workflow.KindForException(exc.Type), "", now) {
			return OutcomeSkipped, true
		}
		return s.notifier.Exception(ctx, d, exc).Outcome, true
	}
}

// allowed consults the dedup marker. Lookup errors fail open.
// Reminders go out once per slot whatever the configured mode; the mode only
// governs repeated exception alerts.
func (s *SweepService) allowed(ctx context.Context, d *models.CollaborationDetail, kind workflow.Kind, variant string, now time.Time) bool {
	policy := s.dedup
	if kind == workflow.KindReminder {
		policy = workflow.DedupPolicy{Mode: workflow.DedupOnce}
	}
	if policy.Mode == workflow.DedupNone {
		return true
	}
	last, err := s.sent.LastSent(ctx, d.ID, kind, variant)
	if err != nil {
		log.Printf("sweep: dedup lookup for collaboration %s failed: %v", d.ID, err)
		return true
	}
	return policy.Allows(last, now)
}
