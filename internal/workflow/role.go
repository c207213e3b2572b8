package workflow

import (
	"fmt"
	"strings"
)

// Role is the viewer's relationship to a collaboration.
type Role string

const (
	RoleHost   Role = "host"
	RoleGuest  Role = "guest"
	RoleEditor Role = "editor"
)

func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleHost, RoleGuest, RoleEditor:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) Party() Party {
	switch r {
	case RoleHost:
		return PartyHost
	case RoleGuest:
		return PartyGuest
	case RoleEditor:
		return PartyEditor
	}
	return PartyNone
}

// RoleAction is what a particular viewer should see for a collaboration.
// HasAction and WaitingOnLabel are never both set; terminal statuses set neither.
type RoleAction struct {
	HasAction      bool
	Title          string
	Description    string
	WaitingOnLabel string
}

type roleStatus struct {
	role   Role
	status Status
}

type actionCopy struct {
	title       string
	description string
}

var actionCopies = map[roleStatus]actionCopy{
	{RoleGuest, StatusInvited}: {
		title:       "Complete Your Profile",
		description: "Fill out the intake form so your host can prepare for the conversation.",
	},
	{RoleGuest, StatusIntakeCompleted}: {
		title:       "Schedule Your Recording",
		description: "Pick a date and time that works for your recording session.",
	},
	{RoleHost, StatusScheduled}: {
		title:       "Complete the Recording",
		description: "Record the session with your guest, then mark it as recorded.",
	},
	{RoleHost, StatusReady}: {
		title:       "Publish Content",
		description: "Editing is finished. Review the final cut and publish it.",
	},
	{RoleEditor, StatusRecorded}: {
		title:       "Start Editing",
		description: "A new recording is ready. Begin editing when you can.",
	},
	{RoleEditor, StatusEditing}: {
		title:       "Finish Editing",
		description: "Wrap up the edit and mark the content as ready for the host.",
	},
}

var waitingLabels = map[roleStatus]string{
	{RoleHost, StatusInvited}:         "Waiting on guest to complete intake",
	{RoleHost, StatusIntakeCompleted}: "Waiting on guest to schedule the recording",
	{RoleHost, StatusRecorded}:        "Waiting on editor to begin editing",
	{RoleHost, StatusEditing}:         "Waiting on editor to complete editing",

	{RoleGuest, StatusScheduled}: "Waiting on host to complete the recording",
	{RoleGuest, StatusRecorded}:  "Waiting on editor to begin editing",
	{RoleGuest, StatusEditing}:   "Waiting on editor to complete editing",
	{RoleGuest, StatusReady}:     "Waiting on host to publish",

	{RoleEditor, StatusInvited}:         "Waiting on guest to complete intake",
	{RoleEditor, StatusIntakeCompleted}: "Waiting on guest to schedule the recording",
	{RoleEditor, StatusScheduled}:       "Waiting on host to complete the recording",
	{RoleEditor, StatusReady}:           "Waiting on host to publish",
}

// ResolveRoleAction derives the viewer-specific call to action from the
// responsibility table.
func ResolveRoleAction(s Status, role Role) RoleAction {
	if IsTerminal(s) {
		return RoleAction{}
	}
	r := ResolveResponsibility(s)
	if r.Party == PartyNone {
		return RoleAction{}
	}

	key := roleStatus{role: role, status: s}
	if r.Party == role.Party() {
		c, ok := actionCopies[key]
		if !ok {
			c = actionCopy{title: r.Action, description: r.Action}
		}
		return RoleAction{HasAction: true, Title: c.title, Description: c.description}
	}

	label, ok := waitingLabels[key]
	if !ok {
		label = "Waiting on " + strings.ToLower(r.Label)
	}
	return RoleAction{WaitingOnLabel: label}
}
