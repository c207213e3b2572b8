package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Host ")
	require.NoError(t, err)
	assert.Equal(t, RoleHost, r)

	_, err = ParseRole("admin")
	assert.Error(t, err)
}

func TestResolveRoleAction_GuestInvited(t *testing.T) {
	a := ResolveRoleAction(StatusInvited, RoleGuest)

	assert.True(t, a.HasAction)
	assert.Equal(t, "Complete Your Profile", a.Title)
	assert.Contains(t, a.Description, "intake form")
	assert.Empty(t, a.WaitingOnLabel)
}

func TestResolveRoleAction_HasActionMatchesResponsibility(t *testing.T) {
	for _, s := range AllStatuses() {
		for _, role := range []Role{RoleHost, RoleGuest, RoleEditor} {
			a := ResolveRoleAction(s, role)
			want := ResolveResponsibility(s).Party == role.Party()
			assert.Equal(t, want, a.HasAction, "%s/%s", role, s)
			if a.HasAction {
				assert.NotEmpty(t, a.Title)
				assert.NotEmpty(t, a.Description)
				assert.Empty(t, a.WaitingOnLabel)
			}
		}
	}
}

func TestResolveRoleAction_WaitingLabelWhenNotResponsible(t *testing.T) {
	a := ResolveRoleAction(StatusEditing, RoleGuest)

	assert.False(t, a.HasAction)
	assert.Equal(t, "Waiting on editor to complete editing", a.WaitingOnLabel)
}

func TestResolveRoleAction_HostDistinguishesGuestSteps(t *testing.T) {
	invited := ResolveRoleAction(StatusInvited, RoleHost)
	intake := ResolveRoleAction(StatusIntakeCompleted, RoleHost)

	assert.False(t, invited.HasAction)
	assert.False(t, intake.HasAction)
	assert.Equal(t, "Waiting on guest to complete intake", invited.WaitingOnLabel)
	assert.Equal(t, "Waiting on guest to schedule the recording", intake.WaitingOnLabel)
	assert.NotEqual(t, invited.WaitingOnLabel, intake.WaitingOnLabel)
}

func TestResolveRoleAction_TerminalIsEmpty(t *testing.T) {
	for _, role := range []Role{RoleHost, RoleGuest, RoleEditor} {
		assert.Equal(t, RoleAction{}, ResolveRoleAction(StatusCompleted, role))
		assert.Equal(t, RoleAction{}, ResolveRoleAction(StatusCancelled, role))
	}
}

func TestResolveRoleAction_UnknownIsEmpty(t *testing.T) {
	assert.Equal(t, RoleAction{}, ResolveRoleAction("bogus", RoleHost))
}

func TestResolveRoleAction_Idempotent(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.Equal(t, ResolveRoleAction(s, RoleEditor), ResolveRoleAction(s, RoleEditor))
	}
}

func TestResolveRoleAction_NonTerminalAlwaysHasSomething(t *testing.T) {
	for _, s := range AllStatuses() {
		if IsTerminal(s) {
			continue
		}
		for _, role := range []Role{RoleHost, RoleGuest, RoleEditor} {
			a := ResolveRoleAction(s, role)
			assert.True(t, a.HasAction || a.WaitingOnLabel != "", "%s/%s", role, s)
		}
	}
}
