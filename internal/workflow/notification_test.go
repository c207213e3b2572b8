package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDecideNotifications(t *testing.T) {
	tests := []struct {
		from, to Status
		want     Triggers
	}{
		{StatusInvited, StatusIntakeCompleted, Triggers{NotifyGuest: true, NotifyHost: true}},
		{StatusIntakeCompleted, StatusScheduled, Triggers{NotifyHost: true}},
		{StatusScheduled, StatusRecorded, Triggers{NotifyGuest: true, NotifyEditor: true}},
		{StatusRecorded, StatusEditing, Triggers{NotifyEditor: true}},
		{StatusEditing, StatusReady, Triggers{NotifyGuest: true, NotifyHost: true}},
		{StatusReady, StatusCompleted, Triggers{NotifyGuest: true}},
		{StatusInvited, StatusCancelled, Triggers{}},
		{StatusEditing, StatusCancelled, Triggers{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, DecideNotifications(tt.from, tt.to))
		})
	}
}

func TestDecideNotifications_NoOp(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.Equal(t, Triggers{}, DecideNotifications(s, s), s)
	}
}

func TestDecideNotifications_TerminalGuard(t *testing.T) {
	for _, to := range AllStatuses() {
		assert.Equal(t, Triggers{}, DecideNotifications(StatusCompleted, to), to)
		assert.Equal(t, Triggers{}, DecideNotifications(StatusCancelled, to), to)
	}
}

func TestDecideNotifications_BypassesTransitionTable(t *testing.T) {
	// not a legal edge, but the policy still answers for callers that skip validation
	got := DecideNotifications(StatusInvited, StatusReady)

	assert.Equal(t, Triggers{NotifyGuest: true, NotifyHost: true}, got)
}

func TestTriggers_Roles(t *testing.T) {
	tr := Triggers{NotifyGuest: true, NotifyEditor: true}

	assert.True(t, tr.Any())
	assert.Equal(t, []Role{RoleGuest, RoleEditor}, tr.Roles())
	assert.False(t, Triggers{}.Any())
	assert.Empty(t, Triggers{}.Roles())
}

func TestKindForException(t *testing.T) {
	assert.Equal(t, KindNoShow, KindForException(ExceptionNoShow))
	assert.Equal(t, KindStalled, KindForException(ExceptionStalled))
	assert.Equal(t, KindMissedDeadline, KindForException(ExceptionMissedDeadline))
}

func TestKinds_Unique(t *testing.T) {
	seen := map[Kind]bool{}
	for _, k := range Kinds() {
		assert.False(t, seen[k], k)
		seen[k] = true
	}
	assert.Len(t, seen, 5)
}

func TestNewStatusChangePayload(t *testing.T) {
	id := uuid.New()
	when := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)

	p := NewStatusChangePayload(id, StatusIntakeCompleted, StatusScheduled, &when)

	assert.Equal(t, id, p.CollaborationID)
	assert.Equal(t, StatusIntakeCompleted, p.OldStatus)
	assert.Equal(t, StatusScheduled, p.NewStatus)
	assert.Equal(t, PartyHost, p.WaitingOn)
	assert.Equal(t, "Complete recording", p.ActionRequired)
	assert.Equal(t, &when, p.ScheduledDate)
}
