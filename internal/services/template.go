package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/workflow"
)

// TemplateData is everything a notification template may reference.
type TemplateData struct {
	Kind          workflow.Kind
	Recipient     workflow.Role
	RecipientName string
	WorkspaceName string
	Title         string
	GuestName     string
	Payload       workflow.Payload
	Reminder      workflow.Reminder
	Exception     *workflow.Exception
	// InviteToken points a guest at the intake page instead of the dashboard.
	InviteToken string
}

type emailView struct {
	TemplateData
	Greeting      string
	StatusLabel   string
	Action        workflow.RoleAction
	ScheduledDate string
	Timeframe     string
	Checklist     bool
	AlertTitle    string
	AlertSummary  string
	Link          string
}

var exceptionCopy = map[workflow.Kind][2]string{
	workflow.KindStalled:        {"Stalled Collaboration", "This collaboration has had no activity for an extended period."},
	workflow.KindNoShow:         {"Missed Recording Session", "The scheduled recording session was not completed."},
	workflow.KindMissedDeadline: {"Editing Deadline Overdue", "The editing deadline has passed without completion."},
}

const emailTemplates = `
{{define "footer"}}<p><a href="{{.Link}}">Open collaboration</a></p>
<hr><p style="color:#888;font-size:12px">This alert was sent from Flowaborate.</p>{{end}}

{{define "status_change"}}<html><body>
<h2>{{.Title}}</h2>
<p>Hi {{.Greeting}},</p>
<p>The collaboration with {{.GuestName}} for {{.WorkspaceName}} is now <strong>{{.StatusLabel}}</strong>.</p>
{{if .Action.HasAction}}<h3>{{.Action.Title}}</h3><p>{{.Action.Description}}</p>
{{else if .Action.WaitingOnLabel}}<p>{{.Action.WaitingOnLabel}}.</p>{{end}}
{{if .ScheduledDate}}<p>Recording: {{.ScheduledDate}}</p>{{end}}
{{template "footer" .}}
</body></html>{{end}}

{{define "reminder"}}<html><body>
<h2>Your recording is {{.Timeframe}}</h2>
<p>Hi {{.Greeting}},</p>
<p>Your recording for {{.WorkspaceName}} is scheduled for {{.ScheduledDate}}.</p>
{{if .Checklist}}<ul>
<li>Test your microphone and camera</li>
<li>Find a quiet space</li>
<li>Have water nearby</li>
<li>Review your talking points</li>
</ul>{{end}}
{{template "footer" .}}
</body></html>{{end}}

{{define "alert"}}<html><body>
<h2>{{.AlertTitle}}</h2>
<p>{{.AlertSummary}}</p>
<p><strong>{{.Title}}</strong> with {{.GuestName}} ({{.WorkspaceName}})</p>
{{with .Exception}}<p>{{.Message}}</p>{{end}}
{{template "footer" .}}
</body></html>{{end}}
`

// TemplateService renders the one template each notification kind maps to.
type TemplateService struct {
	appURL string
	tmpl   *template.Template
}

func NewTemplateService(appURL string) *TemplateService {
	return &TemplateService{
		appURL: strings.TrimRight(appURL, "/"),
		tmpl:   template.Must(template.New("email").Parse(emailTemplates)),
	}
}

func (s *TemplateService) Render(data TemplateData) (subject, body string, err error) {
	view := s.view(data)

	var name string
	switch data.Kind {
	case workflow.KindStatusChange:
		name, subject = "status_change", statusChangeSubject(view)
	case workflow.KindReminder:
		name = "reminder"
		when := "Tomorrow"
		if data.Reminder == workflow.Reminder1h {
			when = "Soon"
		}
		subject = fmt.Sprintf("Reminder: Recording %s - %s", when, view.WorkspaceName)
	case workflow.KindStalled, workflow.KindNoShow, workflow.KindMissedDeadline:
		name = "alert"
		subject = fmt.Sprintf("%s: %s - %s", view.AlertTitle, view.GuestName, view.WorkspaceName)
	default:
		return "", "", fmt.Errorf("no template for notification kind %q", data.Kind)
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", data.Kind, err)
	}
	return subject, buf.String(), nil
}

func (s *TemplateService) view(data TemplateData) emailView {
	v := emailView{TemplateData: data}
	v.GuestName = orDefault(data.GuestName, "Guest")
	v.WorkspaceName = orDefault(data.WorkspaceName, "Podcast")
	v.Title = orDefault(data.Title, "Collaboration")
	v.Greeting = orDefault(data.RecipientName, defaultName(data.Recipient))
	if data.Kind == workflow.KindStatusChange {
		v.StatusLabel = data.Payload.NewStatus.Label()
		v.Action = workflow.ResolveRoleAction(data.Payload.NewStatus, data.Recipient)
	}
	if data.Payload.ScheduledDate != nil {
		v.ScheduledDate = data.Payload.ScheduledDate.UTC().Format(time.RFC1123)
	}
	if data.Reminder == workflow.Reminder1h {
		v.Timeframe = "in 1 hour"
	} else {
		v.Timeframe = "tomorrow"
		v.Checklist = true
	}
	if c, ok := exceptionCopy[data.Kind]; ok {
		v.AlertTitle, v.AlertSummary = c[0], c[1]
	}
	if data.InviteToken != "" && data.Recipient == workflow.RoleGuest {
		v.Link = fmt.Sprintf("%s/invite/%s", s.appURL, data.InviteToken)
	} else {
		v.Link = fmt.Sprintf("%s/collaborations/%s", s.appURL, data.Payload.CollaborationID)
	}
	return v
}

func statusChangeSubject(v emailView) string {
	newStatus := v.Payload.NewStatus
	switch v.Recipient {
	case workflow.RoleGuest:
		if newStatus == workflow.StatusCompleted {
			return fmt.Sprintf("Completed: %s", v.WorkspaceName)
		}
		if v.Action.HasAction {
			return fmt.Sprintf("Action Required: %s - %s", v.Action.Title, v.WorkspaceName)
		}
		return fmt.Sprintf("Update: %s - %s", v.StatusLabel, v.WorkspaceName)
	case workflow.RoleEditor:
		if newStatus == workflow.StatusRecorded {
			return fmt.Sprintf("New Content Ready: %s - %s", v.GuestName, v.WorkspaceName)
		}
	}
	headline := v.StatusLabel
	if v.Action.HasAction {
		headline = v.Action.Title
	}
	return fmt.Sprintf("%s: %s - %s", v.GuestName, headline, v.WorkspaceName)
}

func defaultName(r workflow.Role) string {
	switch r {
	case workflow.RoleGuest:
		return "Guest"
	case workflow.RoleEditor:
		return "Editor"
	}
	return "Host"
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
