package workflow

import (
	"fmt"
	"time"
)

type ExceptionType string

const (
	ExceptionStalled        ExceptionType = "stalled"
	ExceptionNoShow         ExceptionType = "no_show"
	ExceptionMissedDeadline ExceptionType = "missed_deadline"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Exception struct {
	Type     ExceptionType
	Message  string
	Severity Severity
}

// Thresholds are the policy windows behind each exception class.
type Thresholds struct {
	NoShowAfter     time.Duration
	StalledAfter    time.Duration
	EditingDeadline time.Duration
}

const day = 24 * time.Hour

func DefaultThresholds() Thresholds {
	return Thresholds{
		NoShowAfter:     24 * time.Hour,
		StalledAfter:    7 * day,
		EditingDeadline: 14 * day,
	}
}

// normalized fills zero fields with the defaults.
func (t Thresholds) normalized() Thresholds {
	d := DefaultThresholds()
	if t.NoShowAfter <= 0 {
		t.NoShowAfter = d.NoShowAfter
	}
	if t.StalledAfter <= 0 {
		t.StalledAfter = d.StalledAfter
	}
	if t.EditingDeadline <= 0 {
		t.EditingDeadline = d.EditingDeadline
	}
	return t
}

// Timeline is the subset of a collaboration the time-based rules look at.
type Timeline struct {
	Status        Status
	ScheduledDate *time.Time
	RecordedDate  *time.Time
	UpdatedAt     time.Time
}

// DetectException applies the rules in precedence order and returns the first
// match, or nil. At most one exception is reported per call.
func DetectException(t Timeline, now time.Time, th Thresholds) *Exception {
	th = th.normalized()

	if !t.Status.Valid() {
		reportUnknownStatus(t.Status)
		return nil
	}

	if t.Status == StatusScheduled && t.ScheduledDate != nil {
		if t.ScheduledDate.Before(now) && now.Sub(*t.ScheduledDate) > th.NoShowAfter {
			return &Exception{
				Type:     ExceptionNoShow,
				Message:  "Recording was scheduled but not completed",
				Severity: SeverityError,
			}
		}
	}

	if t.Status == StatusInvited || t.Status == StatusIntakeCompleted {
		if elapsed := now.Sub(t.UpdatedAt); elapsed > th.StalledAfter {
			return &Exception{
				Type:     ExceptionStalled,
				Message:  fmt.Sprintf("No activity for %d days", WholeDays(elapsed)),
				Severity: SeverityWarning,
			}
		}
	}

	if t.Status == StatusEditing && t.RecordedDate != nil {
		if elapsed := now.Sub(*t.RecordedDate); elapsed > th.EditingDeadline {
			return &Exception{
				Type:     ExceptionMissedDeadline,
				Message:  fmt.Sprintf("Editing overdue: recorded %d days ago", WholeDays(elapsed)),
				Severity: SeverityWarning,
			}
		}
	}

	return nil
}

// WholeDays truncates d to complete days.
func WholeDays(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / day)
}
