package workflow

import (
	"fmt"
	"strings"
	"time"
)

// Reminder identifies which pre-recording reminder a guest receives.
type Reminder string

const (
	Reminder24h Reminder = "24h"
	Reminder1h  Reminder = "1h"
)

// Window is a half-open [From, To) interval.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// ReminderWindow returns the slice of scheduled dates that qualify for a
// reminder on a sweep at now. Windows are one hour wide so an hourly sweep
// sees each recording in exactly one run.
func ReminderWindow(r Reminder, now time.Time) Window {
	lead := 24 * time.Hour
	if r == Reminder1h {
		lead = time.Hour
	}
	return Window{From: now.Add(lead), To: now.Add(lead + time.Hour)}
}

// NoShowCutoff: scheduled recordings dated before this are no-shows.
func NoShowCutoff(now time.Time, th Thresholds) time.Time {
	return now.Add(-th.normalized().NoShowAfter)
}

// StalledCutoff: early-stage collaborations not updated since this are stalled.
func StalledCutoff(now time.Time, th Thresholds) time.Time {
	return now.Add(-th.normalized().StalledAfter)
}

// EditingCutoff: editing collaborations recorded before this are overdue.
func EditingCutoff(now time.Time, th Thresholds) time.Time {
	return now.Add(-th.normalized().EditingDeadline)
}

// StalledStatuses are the statuses the stalled rule applies to.
func StalledStatuses() []Status {
	return []Status{StatusInvited, StatusIntakeCompleted}
}

type DedupMode string

const (
	// DedupNone re-alerts on every sweep while the condition holds.
	DedupNone DedupMode = "none"
	// DedupOnce alerts a single time per collaboration and kind.
	DedupOnce DedupMode = "once"
	// DedupInterval alerts at most once per Interval.
	DedupInterval DedupMode = "interval"
)

func ParseDedupMode(raw string) (DedupMode, error) {
	switch m := DedupMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "", DedupNone:
		return DedupNone, nil
	case DedupOnce, DedupInterval:
		return m, nil
	default:
		return "", fmt.Errorf("unknown dedup mode %q", raw)
	}
}

// DedupPolicy decides whether a repeated sweep alert may be sent again.
type DedupPolicy struct {
	Mode     DedupMode
	Interval time.Duration
}

// Allows reports whether an alert may go out given when the previous one was
// sent (nil when never).
func (p DedupPolicy) Allows(lastSentAt *time.Time, now time.Time) bool {
	if lastSentAt == nil {
		return true
	}
	switch p.Mode {
	case DedupOnce:
		return false
	case DedupInterval:
		return now.Sub(*lastSentAt) >= p.Interval
	default:
		return true
	}
}
