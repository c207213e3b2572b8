package workflow

// Party is whoever must act for a collaboration to move forward.
type Party string

const (
	PartyGuest  Party = "guest"
	PartyHost   Party = "host"
	PartyEditor Party = "editor"
	PartyNone   Party = "none"
)

type Responsibility struct {
	Party  Party
	Label  string
	Action string
}

var responsibilities = map[Status]Responsibility{
	StatusInvited:         {Party: PartyGuest, Label: "Guest", Action: "Complete intake form"},
	StatusIntakeCompleted: {Party: PartyGuest, Label: "Guest", Action: "Schedule recording"},
	StatusScheduled:       {Party: PartyHost, Label: "Host", Action: "Complete recording"},
	StatusRecorded:        {Party: PartyEditor, Label: "Editor", Action: "Begin editing"},
	StatusEditing:         {Party: PartyEditor, Label: "Editor", Action: "Finish editing"},
	StatusReady:           {Party: PartyHost, Label: "Host", Action: "Publish content"},
	StatusCompleted:       {Party: PartyNone, Label: "Complete", Action: "All done"},
	StatusCancelled:       {Party: PartyNone, Label: "Cancelled", Action: "No action needed"},
}

var unknownResponsibility = Responsibility{Party: PartyNone, Label: "Unknown", Action: "No action needed"}

// ResolveResponsibility is the one place that answers "who is this waiting on".
// Unknown statuses fail closed to PartyNone and are reported.
func ResolveResponsibility(s Status) Responsibility {
	r, ok := responsibilities[s]
	if !ok {
		reportUnknownStatus(s)
		return unknownResponsibility
	}
	return r
}

// NextActionForRole returns the action text when role is the responsible party.
func NextActionForRole(s Status, role Role) (string, bool) {
	r := ResolveResponsibility(s)
	if r.Party != role.Party() {
		return "", false
	}
	return r.Action, true
}
