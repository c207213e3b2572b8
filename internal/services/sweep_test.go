package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeFinder struct {
	mu    sync.Mutex
	calls []CollaborationFilter
	find  func(f CollaborationFilter) ([]models.CollaborationDetail, error)
}

func (f *fakeFinder) Find(_ context.Context, filter CollaborationFilter) ([]models.CollaborationDetail, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filter)
	f.mu.Unlock()
	if f.find == nil {
		return nil, nil
	}
	return f.find(filter)
}

type sweepCall struct {
	ID       uuid.UUID
	Reminder workflow.Reminder
	Kind     workflow.Kind
}

type fakeSweepNotifier struct {
	mu      sync.Mutex
	outcome Outcome
	calls   []sweepCall
}

func (n *fakeSweepNotifier) Reminder(_ context.Context, d *models.CollaborationDetail, r workflow.Reminder) DispatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sweepCall{ID: d.ID, Reminder: r, Kind: workflow.KindReminder})
	return DispatchResult{Role: workflow.RoleGuest, Outcome: n.result()}
}

func (n *fakeSweepNotifier) Exception(_ context.Context, d *models.CollaborationDetail, exc *workflow.Exception) DispatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sweepCall{ID: d.ID, Kind: workflow.KindForException(exc.Type)})
	return DispatchResult{Role: workflow.RoleHost, Outcome: n.result()}
}

func (n *fakeSweepNotifier) result() Outcome {
	if n.outcome == "" {
		return OutcomeSent
	}
	return n.outcome
}

func sweepDetail(status workflow.Status, mutate func(c *models.Collaboration)) models.CollaborationDetail {
	d := testDetail(status)
	d.UpdatedAt = sweepNow
	if mutate != nil {
		mutate(&d.Collaboration)
	}
	return *d
}

func at(t time.Time) *time.Time { return &t }

// stepOf identifies which sweep step issued a filter.
func stepOf(f CollaborationFilter) string {
	switch {
	case f.ScheduledFrom != nil && f.ScheduledFrom.Sub(sweepNow) == 24*time.Hour:
		return StepReminder24h
	case f.ScheduledFrom != nil:
		return StepReminder1h
	case f.ScheduledBefore != nil:
		return StepNoShow
	case f.UpdatedBefore != nil:
		return StepStalled
	case f.RecordedBefore != nil:
		return StepMissedDeadline
	}
	return ""
}

func stepNamed(t *testing.T, s *SweepSummary, name string) StepSummary {
	t.Helper()
	for _, step := range s.Steps {
		if step.Name == name {
			return step
		}
	}
	t.Fatalf("step %s missing", name)
	return StepSummary{}
}

func TestSweepService_Run_AllSteps(t *testing.T) {
	reminder24 := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) { c.ScheduledDate = at(sweepNow.Add(24*time.Hour + 30*time.Minute)) })
	reminder1 := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) { c.ScheduledDate = at(sweepNow.Add(90 * time.Minute)) })
	noShow := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) { c.ScheduledDate = at(sweepNow.Add(-48 * time.Hour)) })
	stalled := sweepDetail(workflow.StatusInvited, func(c *models.Collaboration) { c.UpdatedAt = sweepNow.Add(-10 * 24 * time.Hour) })
	overdue := sweepDetail(workflow.StatusEditing, func(c *models.Collaboration) { c.RecordedDate = at(sweepNow.Add(-20 * 24 * time.Hour)) })

	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		switch stepOf(f) {
		case StepReminder24h:
			return []models.CollaborationDetail{reminder24}, nil
		case StepReminder1h:
			return []models.CollaborationDetail{reminder1}, nil
		case StepNoShow:
			return []models.CollaborationDetail{noShow}, nil
		case StepStalled:
			return []models.CollaborationDetail{stalled}, nil
		case StepMissedDeadline:
			return []models.CollaborationDetail{overdue}, nil
		}
		return nil, nil
	}}
	notifier := &fakeSweepNotifier{}
	svc := NewSweepService(finder, notifier, newFakeNotificationLog(), workflow.DefaultThresholds(), workflow.DedupPolicy{Mode: workflow.DedupNone})

	summary, err := svc.Run(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Empty(t, summary.Errors)
	require.Len(t, summary.Steps, 5)
	assert.Equal(t, []string{StepReminder24h, StepReminder1h, StepNoShow, StepStalled, StepMissedDeadline},
		[]string{summary.Steps[0].Name, summary.Steps[1].Name, summary.Steps[2].Name, summary.Steps[3].Name, summary.Steps[4].Name})
	assert.Equal(t, 5, summary.Totals().Sent)
	assert.Equal(t, []sweepCall{
		{ID: reminder24.ID, Reminder: workflow.Reminder24h, Kind: workflow.KindReminder},
		{ID: reminder1.ID, Reminder: workflow.Reminder1h, Kind: workflow.KindReminder},
		{ID: noShow.ID, Kind: workflow.KindNoShow},
		{ID: stalled.ID, Kind: workflow.KindStalled},
		{ID: overdue.ID, Kind: workflow.KindMissedDeadline},
	}, notifier.calls)
}

func TestSweepService_Run_Filters(t *testing.T) {
	finder := &fakeFinder{}
	svc := NewSweepService(finder, &fakeSweepNotifier{}, newFakeNotificationLog(), workflow.DefaultThresholds(), workflow.DedupPolicy{})

	_, err := svc.Run(context.Background(), sweepNow)
	require.NoError(t, err)

	require.Len(t, finder.calls, 5)
	day := finder.calls[0]
	assert.Equal(t, []workflow.Status{workflow.StatusScheduled}, day.Statuses)
	assert.Equal(t, sweepNow.Add(24*time.Hour), *day.ScheduledFrom)
	assert.Equal(t, sweepNow.Add(25*time.Hour), *day.ScheduledBefore)

	hour := finder.calls[1]
	assert.Equal(t, sweepNow.Add(time.Hour), *hour.ScheduledFrom)
	assert.Equal(t, sweepNow.Add(2*time.Hour), *hour.ScheduledBefore)

	assert.Equal(t, sweepNow.Add(-24*time.Hour), *finder.calls[2].ScheduledBefore)
	assert.Equal(t, workflow.StalledStatuses(), finder.calls[3].Statuses)
	assert.Equal(t, sweepNow.Add(-7*24*time.Hour), *finder.calls[3].UpdatedBefore)
	assert.Equal(t, []workflow.Status{workflow.StatusEditing}, finder.calls[4].Statuses)

	for _, f := range finder.calls {
		for _, s := range f.Statuses {
			assert.False(t, workflow.IsTerminal(s))
		}
	}
}

func TestSweepService_Run_QueryFailureContinues(t *testing.T) {
	stalled := sweepDetail(workflow.StatusIntakeCompleted, func(c *models.Collaboration) { c.UpdatedAt = sweepNow.Add(-30 * 24 * time.Hour) })
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		switch stepOf(f) {
		case StepReminder24h:
			return nil, errors.New("connection reset")
		case StepStalled:
			return []models.CollaborationDetail{stalled}, nil
		}
		return nil, nil
	}}
	notifier := &fakeSweepNotifier{}
	svc := NewSweepService(finder, notifier, newFakeNotificationLog(), workflow.DefaultThresholds(), workflow.DedupPolicy{})

	summary, err := svc.Run(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, []string{"reminder_24h: connection reset"}, summary.Errors)
	assert.Equal(t, 1, stepNamed(t, summary, StepStalled).Sent)
	assert.Len(t, finder.calls, 5)
}

func TestSweepService_Run_FailuresCounted(t *testing.T) {
	noShow := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) { c.ScheduledDate = at(sweepNow.Add(-72 * time.Hour)) })
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		if stepOf(f) == StepNoShow {
			return []models.CollaborationDetail{noShow, noShow}, nil
		}
		return nil, nil
	}}
	svc := NewSweepService(finder, &fakeSweepNotifier{outcome: OutcomeFailed}, newFakeNotificationLog(), workflow.DefaultThresholds(), workflow.DedupPolicy{})

	summary, err := svc.Run(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, StepSummary{Name: StepNoShow, Failed: 2}, stepNamed(t, summary, StepNoShow))
}

func TestSweepService_Run_SkipsRowsOfAnotherClass(t *testing.T) {
	// Scheduled in the past and untouched for weeks: a no-show, not a stall.
	both := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) {
		c.ScheduledDate = at(sweepNow.Add(-72 * time.Hour))
		c.UpdatedAt = sweepNow.Add(-30 * 24 * time.Hour)
	})
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		if stepOf(f) == StepStalled {
			return []models.CollaborationDetail{both}, nil
		}
		return nil, nil
	}}
	notifier := &fakeSweepNotifier{}
	svc := NewSweepService(finder, notifier, newFakeNotificationLog(), workflow.DefaultThresholds(), workflow.DedupPolicy{})

	summary, err := svc.Run(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, StepSummary{Name: StepStalled}, stepNamed(t, summary, StepStalled))
	assert.Empty(t, notifier.calls)
}

func TestSweepService_Run_Dedup(t *testing.T) {
	stalled := sweepDetail(workflow.StatusInvited, func(c *models.Collaboration) { c.UpdatedAt = sweepNow.Add(-10 * 24 * time.Hour) })
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		if stepOf(f) == StepStalled {
			return []models.CollaborationDetail{stalled}, nil
		}
		return nil, nil
	}}

	tests := []struct {
		name     string
		policy   workflow.DedupPolicy
		lastSent *time.Time
		sent     int
		skipped  int
	}{
		{"none always sends", workflow.DedupPolicy{Mode: workflow.DedupNone}, at(sweepNow.Add(-time.Hour)), 1, 0},
		{"once suppresses repeat", workflow.DedupPolicy{Mode: workflow.DedupOnce}, at(sweepNow.Add(-30 * 24 * time.Hour)), 0, 1},
		{"once sends first", workflow.DedupPolicy{Mode: workflow.DedupOnce}, nil, 1, 0},
		{"interval too soon", workflow.DedupPolicy{Mode: workflow.DedupInterval, Interval: 24 * time.Hour}, at(sweepNow.Add(-time.Hour)), 0, 1},
		{"interval elapsed", workflow.DedupPolicy{Mode: workflow.DedupInterval, Interval: 24 * time.Hour}, at(sweepNow.Add(-25 * time.Hour)), 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent := newFakeNotificationLog()
			if tt.lastSent != nil {
				sent.last[logKey{stalled.ID, workflow.KindStalled, ""}] = *tt.lastSent
			}
			svc := NewSweepService(finder, &fakeSweepNotifier{}, sent, workflow.DefaultThresholds(), tt.policy)

			summary, err := svc.Run(context.Background(), sweepNow)

			require.NoError(t, err)
			step := stepNamed(t, summary, StepStalled)
			assert.Equal(t, tt.sent, step.Sent)
			assert.Equal(t, tt.skipped, step.Skipped)
		})
	}
}

// loggingSweepNotifier writes the dedup marker the way NotificationService does.
type loggingSweepNotifier struct {
	fakeSweepNotifier
	log *fakeNotificationLog
	now time.Time
}

func (n *loggingSweepNotifier) Reminder(ctx context.Context, d *models.CollaborationDetail, r workflow.Reminder) DispatchResult {
	n.log.mu.Lock()
	n.log.last[logKey{d.ID, workflow.KindReminder, ReminderVariant(r, d.ScheduledDate)}] = n.now
	n.log.mu.Unlock()
	return n.fakeSweepNotifier.Reminder(ctx, d, r)
}

func TestSweepService_Run_ReminderSentOncePerSlot(t *testing.T) {
	slot := sweepNow.Add(24*time.Hour + 50*time.Minute)
	upcoming := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) { c.ScheduledDate = at(slot) })
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		if f.ScheduledFrom == nil {
			return nil, nil
		}
		if (workflow.Window{From: *f.ScheduledFrom, To: *f.ScheduledBefore}).Contains(slot) {
			return []models.CollaborationDetail{upcoming}, nil
		}
		return nil, nil
	}}

	for _, policy := range []workflow.DedupPolicy{
		{Mode: workflow.DedupNone},
		{Mode: workflow.DedupInterval, Interval: time.Minute},
	} {
		t.Run(string(policy.Mode), func(t *testing.T) {
			sent := newFakeNotificationLog()
			notifier := &loggingSweepNotifier{log: sent, now: sweepNow}
			svc := NewSweepService(finder, notifier, sent, workflow.DefaultThresholds(), policy)

			first, err := svc.Run(context.Background(), sweepNow)
			require.NoError(t, err)
			second, err := svc.Run(context.Background(), sweepNow.Add(20*time.Minute))
			require.NoError(t, err)

			assert.Equal(t, 1, stepNamed(t, first, StepReminder24h).Sent)
			assert.Equal(t, 0, stepNamed(t, second, StepReminder24h).Sent)
			assert.Equal(t, 1, stepNamed(t, second, StepReminder24h).Skipped)
			assert.Len(t, notifier.calls, 1)
		})
	}
}

func TestSweepService_Run_RescheduledSlotGetsNewReminder(t *testing.T) {
	sent := newFakeNotificationLog()
	d := sweepDetail(workflow.StatusScheduled, func(c *models.Collaboration) { c.ScheduledDate = at(sweepNow.Add(24*time.Hour + 10*time.Minute)) })
	sent.last[logKey{d.ID, workflow.KindReminder, ReminderVariant(workflow.Reminder24h, at(sweepNow.Add(48*time.Hour)))}] = sweepNow.Add(-24 * time.Hour)
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		if stepOf(f) == StepReminder24h {
			return []models.CollaborationDetail{d}, nil
		}
		return nil, nil
	}}
	svc := NewSweepService(finder, &fakeSweepNotifier{}, sent, workflow.DefaultThresholds(), workflow.DedupPolicy{Mode: workflow.DedupNone})

	summary, err := svc.Run(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, 1, stepNamed(t, summary, StepReminder24h).Sent)
}

func TestSweepService_Run_DedupLookupFailsOpen(t *testing.T) {
	overdue := sweepDetail(workflow.StatusEditing, func(c *models.Collaboration) { c.RecordedDate = at(sweepNow.Add(-15 * 24 * time.Hour)) })
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		if stepOf(f) == StepMissedDeadline {
			return []models.CollaborationDetail{overdue}, nil
		}
		return nil, nil
	}}
	sent := newFakeNotificationLog()
	sent.lookupErr = errors.New("db down")
	svc := NewSweepService(finder, &fakeSweepNotifier{}, sent, workflow.DefaultThresholds(), workflow.DedupPolicy{Mode: workflow.DedupOnce})

	summary, err := svc.Run(context.Background(), sweepNow)

	require.NoError(t, err)
	assert.Equal(t, 1, stepNamed(t, summary, StepMissedDeadline).Sent)
}

func TestSweepService_Run_ConcurrentCallsShareRun(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	entered := make(chan struct{})
	finder := &fakeFinder{find: func(f CollaborationFilter) ([]models.CollaborationDetail, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return nil, nil
	}}
	svc := NewSweepService(finder, &fakeSweepNotifier{}, newFakeNotificationLog(), workflow.DefaultThresholds(), workflow.DedupPolicy{})

	results := make(chan *SweepSummary, 2)
	go func() {
		s, _ := svc.Run(context.Background(), sweepNow)
		results <- s
	}()
	<-entered
	go func() {
		s, _ := svc.Run(context.Background(), sweepNow.Add(20*time.Minute))
		results <- s
	}()
	// give the second caller time to join the in-flight run
	time.Sleep(50 * time.Millisecond)
	close(release)

	first, second := <-results, <-results
	assert.Same(t, first, second)
	assert.Equal(t, sweepNow, first.StartedAt)
	assert.Len(t, finder.calls, 5)
}

func TestSweepSummary_Totals(t *testing.T) {
	s := &SweepSummary{Steps: []StepSummary{
		{Name: StepReminder24h, Sent: 2, Skipped: 1},
		{Name: StepStalled, Sent: 1, Failed: 3},
	}}

	assert.Equal(t, StepSummary{Name: "total", Sent: 3, Skipped: 1, Failed: 3}, s.Totals())
}
