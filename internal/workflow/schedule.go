package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRescheduleLimit  = errors.New("reschedule limit reached")
	ErrRescheduleCutoff = errors.New("too close to the recording to reschedule")
	ErrNotSchedulable   = errors.New("collaboration cannot be scheduled in its current status")
	ErrSlotInPast       = errors.New("recording slot must be in the future")
)

const (
	DefaultMaxReschedules        = 2
	DefaultRescheduleCutoffHours = 24
)

// ReschedulePolicy is the workspace-level limit on guest rescheduling.
type ReschedulePolicy struct {
	MaxReschedules        int
	RescheduleCutoffHours int
}

// ScheduleRequest describes a guest picking a recording slot.
type ScheduleRequest struct {
	Status          Status
	CurrentDate     *time.Time
	RescheduleCount int
	NewDate         time.Time
}

// CheckSchedule decides whether the guest may pick a slot now. It returns
// reschedule=true when the collaboration already has a slot.
func CheckSchedule(req ScheduleRequest, policy ReschedulePolicy, now time.Time) (reschedule bool, err error) {
	if !req.NewDate.After(now) {
		return req.Status == StatusScheduled, ErrSlotInPast
	}
	switch req.Status {
	case StatusIntakeCompleted:
		return false, nil
	case StatusScheduled:
	default:
		return false, ErrNotSchedulable
	}

	if req.RescheduleCount >= policy.MaxReschedules {
		return true, fmt.Errorf("%w: maximum reschedules (%d) reached, contact the host", ErrRescheduleLimit, policy.MaxReschedules)
	}
	if req.CurrentDate != nil {
		cutoff := now.Add(time.Duration(policy.RescheduleCutoffHours) * time.Hour)
		if req.CurrentDate.Before(cutoff) {
			return true, fmt.Errorf("%w: cannot reschedule within %d hours of the recording", ErrRescheduleCutoff, policy.RescheduleCutoffHours)
		}
	}
	return true, nil
}

// RemainingReschedules never goes below zero.
func RemainingReschedules(policy ReschedulePolicy, count int) int {
	if n := policy.MaxReschedules - count; n > 0 {
		return n
	}
	return 0
}

// IntakeSatisfied is the completion signal for invited -> intake_completed:
// a profile with a bio, linked to the guest who is acting.
func IntakeSatisfied(bio string, profileUserID *uuid.UUID, actorID uuid.UUID) bool {
	if strings.TrimSpace(bio) == "" || profileUserID == nil {
		return false
	}
	return *profileUserID == actorID
}
