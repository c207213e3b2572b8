// Package workflow holds the collaboration state machine: the status registry,
// the transition table, who is responsible at each step, time-based exception
// detection and the notification policy. Everything here is pure and safe for
// concurrent use.
package workflow

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

type Status string

const (
	StatusInvited         Status = "invited"
	StatusIntakeCompleted Status = "intake_completed"
	StatusScheduled       Status = "scheduled"
	StatusRecorded        Status = "recorded"
	StatusEditing         Status = "editing"
	StatusReady           Status = "ready"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

var (
	ErrUnknownStatus     = errors.New("unknown collaboration status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// lifecycle is the canonical order; cancelled is the side exit.
var lifecycle = []Status{
	StatusInvited,
	StatusIntakeCompleted,
	StatusScheduled,
	StatusRecorded,
	StatusEditing,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

var labels = map[Status]string{
	StatusInvited:         "Invited",
	StatusIntakeCompleted: "Intake Completed",
	StatusScheduled:       "Scheduled",
	StatusRecorded:        "Recorded",
	StatusEditing:         "Editing",
	StatusReady:           "Ready",
	StatusCompleted:       "Completed",
	StatusCancelled:       "Cancelled",
}

var transitions = map[Status][]Status{
	StatusInvited:         {StatusIntakeCompleted, StatusCancelled},
	StatusIntakeCompleted: {StatusScheduled, StatusCancelled},
	StatusScheduled:       {StatusRecorded, StatusCancelled},
	StatusRecorded:        {StatusEditing, StatusCancelled},
	StatusEditing:         {StatusReady, StatusCancelled},
	StatusReady:           {StatusCompleted, StatusCancelled},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(lifecycle))
	copy(out, lifecycle)
	return out
}

func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Label returns the display label, or the raw value for unknown statuses.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus validates a raw value read from storage or a request body.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValidTransition reports whether from -> to is an edge of the transition
// table. Self transitions and anything leaving a terminal status are invalid.
func IsValidTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s in one step.
func AllowedTransitions(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// TransitionError describes a rejected status change together with the
// statuses that would have been accepted.
type TransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	if !e.From.Valid() {
		return fmt.Sprintf("cannot move from %s to %s: %s is not a known status", e.From, e.To, e.From)
	}
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot move from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot move from %s to %s: allowed %s", e.From, e.To, strings.Join(allowed, ", "))
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// CheckTransition returns nil for a legal edge and a *TransitionError otherwise.
func CheckTransition(from, to Status) error {
	if IsValidTransition(from, to) {
		return nil
	}
	return &TransitionError{From: from, To: to, Allowed: AllowedTransitions(from)}
}

type StatusOption struct {
	Value Status
	Label string
}

func StatusOptions() []StatusOption {
	opts := make([]StatusOption, len(lifecycle))
	for i, s := range lifecycle {
		opts[i] = StatusOption{Value: s, Label: labels[s]}
	}
	return opts
}

func reportUnknownStatus(s Status) {
	log.Printf("workflow: unknown collaboration status %q (data integrity)", string(s))
}
