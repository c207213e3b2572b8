package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Triggers are ORed flags: at most one email per party per transition.
type Triggers struct {
	NotifyGuest  bool
	NotifyHost   bool
	NotifyEditor bool
}

func (t Triggers) Any() bool {
	return t.NotifyGuest || t.NotifyHost || t.NotifyEditor
}

// Roles lists the flagged recipients in a stable order.
func (t Triggers) Roles() []Role {
	var roles []Role
	if t.NotifyGuest {
		roles = append(roles, RoleGuest)
	}
	if t.NotifyHost {
		roles = append(roles, RoleHost)
	}
	if t.NotifyEditor {
		roles = append(roles, RoleEditor)
	}
	return roles
}

// DecideNotifications picks who hears about old -> new. It does not consult
// the transition table, but refuses no-op changes and anything leaving a
// terminal status on its own.
func DecideNotifications(oldStatus, newStatus Status) Triggers {
	if oldStatus == newStatus || IsTerminal(oldStatus) {
		return Triggers{}
	}

	var t Triggers
	switch ResolveResponsibility(newStatus).Party {
	case PartyGuest:
		t.NotifyGuest = true
	case PartyHost:
		t.NotifyHost = true
	case PartyEditor:
		t.NotifyEditor = true
	}

	switch newStatus {
	case StatusRecorded, StatusReady, StatusCompleted:
		t.NotifyGuest = true
	}
	switch newStatus {
	case StatusIntakeCompleted, StatusScheduled:
		t.NotifyHost = true
	}
	if newStatus == StatusReady {
		t.NotifyHost = true
	}
	return t
}

// Kind names a notification; each kind has exactly one template.
type Kind string

const (
	KindStatusChange   Kind = "status_change"
	KindReminder       Kind = "reminder"
	KindStalled        Kind = "stalled"
	KindNoShow         Kind = "no_show"
	KindMissedDeadline Kind = "missed_deadline"
)

func Kinds() []Kind {
	return []Kind{KindStatusChange, KindReminder, KindStalled, KindNoShow, KindMissedDeadline}
}

// KindForException maps an exception class to its alert template.
func KindForException(t ExceptionType) Kind {
	switch t {
	case ExceptionNoShow:
		return KindNoShow
	case ExceptionMissedDeadline:
		return KindMissedDeadline
	default:
		return KindStalled
	}
}

// Payload is the structured data handed to a template.
type Payload struct {
	CollaborationID uuid.UUID
	OldStatus       Status
	NewStatus       Status
	WaitingOn       Party
	ActionRequired  string
	ScheduledDate   *time.Time
}

func NewStatusChangePayload(id uuid.UUID, oldStatus, newStatus Status, scheduledDate *time.Time) Payload {
	r := ResolveResponsibility(newStatus)
	return Payload{
		CollaborationID: id,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
		WaitingOn:       r.Party,
		ActionRequired:  r.Action,
		ScheduledDate:   scheduledDate,
	}
}
