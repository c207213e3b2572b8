package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllStatuses_LifecycleOrder(t *testing.T) {
	assert.Equal(t, []Status{
		StatusInvited, StatusIntakeCompleted, StatusScheduled, StatusRecorded,
		StatusEditing, StatusReady, StatusCompleted, StatusCancelled,
	}, AllStatuses())
}

func TestAllStatuses_ReturnsCopy(t *testing.T) {
	s := AllStatuses()
	s[0] = "tampered"

	assert.Equal(t, StatusInvited, AllStatuses()[0])
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, err := ParseStatus("delivered")

	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "Intake Completed", StatusIntakeCompleted.Label())
	assert.Equal(t, "Ready", StatusReady.Label())
	assert.Equal(t, "bogus", Status("bogus").Label())
}

func TestIsValidTransition_Table(t *testing.T) {
	legal := map[Status][]Status{
		StatusInvited:         {StatusIntakeCompleted, StatusCancelled},
		StatusIntakeCompleted: {StatusScheduled, StatusCancelled},
		StatusScheduled:       {StatusRecorded, StatusCancelled},
		StatusRecorded:        {StatusEditing, StatusCancelled},
		StatusEditing:         {StatusReady, StatusCancelled},
		StatusReady:           {StatusCompleted, StatusCancelled},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := false
			for _, allowed := range legal[from] {
				if allowed == to {
					want = true
				}
			}
			assert.Equal(t, want, IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsValidTransition_NoSelfTransition(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.False(t, IsValidTransition(s, s), s)
	}
}

func TestIsValidTransition_TerminalHasNoExits(t *testing.T) {
	for _, to := range AllStatuses() {
		assert.False(t, IsValidTransition(StatusCompleted, to))
		assert.False(t, IsValidTransition(StatusCancelled, to))
	}
	assert.Empty(t, AllowedTransitions(StatusCompleted))
	assert.Empty(t, AllowedTransitions(StatusCancelled))
}

func TestIsValidTransition_ScheduledToEditing(t *testing.T) {
	assert.False(t, IsValidTransition(StatusScheduled, StatusEditing))
	assert.ElementsMatch(t, []Status{StatusRecorded, StatusCancelled}, AllowedTransitions(StatusScheduled))
}

func TestIsValidTransition_UnknownStatus(t *testing.T) {
	assert.False(t, IsValidTransition("bogus", StatusCancelled))
	assert.Empty(t, AllowedTransitions("bogus"))
}

func TestCheckTransition_Valid(t *testing.T) {
	assert.NoError(t, CheckTransition(StatusRecorded, StatusEditing))
}

func TestCheckTransition_Invalid(t *testing.T) {
	err := CheckTransition(StatusScheduled, StatusEditing)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusScheduled, te.From)
	assert.Equal(t, StatusEditing, te.To)
	assert.Equal(t, []Status{StatusRecorded, StatusCancelled}, te.Allowed)
	assert.Contains(t, err.Error(), "allowed recorded, cancelled")
}

func TestCheckTransition_FromTerminal(t *testing.T) {
	err := CheckTransition(StatusCompleted, StatusCancelled)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "completed is terminal")
}

func TestCheckTransition_FromUnknown(t *testing.T) {
	err := CheckTransition(Status("bogus"), StatusScheduled)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "bogus is not a known status")
	assert.NotContains(t, err.Error(), "terminal")
}

func TestStatusOptions(t *testing.T) {
	opts := StatusOptions()

	require.Len(t, opts, 8)
	assert.Equal(t, StatusOption{Value: StatusInvited, Label: "Invited"}, opts[0])
	assert.Equal(t, StatusOption{Value: StatusCancelled, Label: "Cancelled"}, opts[7])
}
