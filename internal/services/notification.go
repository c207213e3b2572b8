package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

type Mailer interface {
	IsConfigured() bool
	Send(ctx context.Context, to, subject, body string) error
}

type NotificationLogger interface {
	LastSent(ctx context.Context, collaborationID uuid.UUID, kind workflow.Kind, variant string) (*time.Time, error)
	Record(ctx context.Context, collaborationID uuid.UUID, kind workflow.Kind, variant, recipient string) error
}

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type DispatchResult struct {
	Role      workflow.Role
	Recipient string
	Outcome   Outcome
	Err       error
}

// NotificationService renders and sends transactional email. Failures are
// logged and reported in the result, never returned as errors.
type NotificationService struct {
	mailer    Mailer
	templates *TemplateService
	sent      NotificationLogger
}

func NewNotificationService(mailer Mailer, templates *TemplateService, sent NotificationLogger) *NotificationService {
	return &NotificationService{mailer: mailer, templates: templates, sent: sent}
}

// StatusChanged emails every party the trigger policy selects for old -> new.
func (s *NotificationService) StatusChanged(ctx context.Context, d *models.CollaborationDetail, oldStatus, newStatus workflow.Status) []DispatchResult {
	triggers := workflow.DecideNotifications(oldStatus, newStatus)
	payload := workflow.NewStatusChangePayload(d.ID, oldStatus, newStatus, d.ScheduledDate)

	var results []DispatchResult
	for _, role := range triggers.Roles() {
		data := s.baseData(d, workflow.KindStatusChange, role, payload)
		if newStatus == workflow.StatusInvited {
			data.InviteToken = d.InviteToken
		}
		results = append(results, s.deliver(ctx, d, role, data, string(newStatus)))
	}
	return results
}

func (s *NotificationService) Reminder(ctx context.Context, d *models.CollaborationDetail, r workflow.Reminder) DispatchResult {
	payload := workflow.NewStatusChangePayload(d.ID, d.Status, d.Status, d.ScheduledDate)
	data := s.baseData(d, workflow.KindReminder, workflow.RoleGuest, payload)
	data.Reminder = r
	return s.deliver(ctx, d, workflow.RoleGuest, data, ReminderVariant(r, d.ScheduledDate))
}

// ReminderVariant keys a reminder to the slot it announces, so a rescheduled
// recording gets fresh reminders.
func ReminderVariant(r workflow.Reminder, scheduledDate *time.Time) string {
	if scheduledDate == nil {
		return string(r)
	}
	return string(r) + "@" + scheduledDate.UTC().Format("20060102T1504Z")
}

// Exception alerts the host about a detected exception.
func (s *NotificationService) Exception(ctx context.Context, d *models.CollaborationDetail, exc *workflow.Exception) DispatchResult {
	kind := workflow.KindForException(exc.Type)
	payload := workflow.NewStatusChangePayload(d.ID, d.Status, d.Status, d.ScheduledDate)
	data := s.baseData(d, kind, workflow.RoleHost, payload)
	data.Exception = exc
	return s.deliver(ctx, d, workflow.RoleHost, data, "")
}

func (s *NotificationService) baseData(d *models.CollaborationDetail, kind workflow.Kind, role workflow.Role, payload workflow.Payload) TemplateData {
	return TemplateData{
		Kind:          kind,
		Recipient:     role,
		RecipientName: d.Participants.NameFor(role),
		WorkspaceName: d.WorkspaceName,
		Title:         d.Title,
		GuestName:     d.Participants.GuestName,
		Payload:       payload,
	}
}

func (s *NotificationService) deliver(ctx context.Context, d *models.CollaborationDetail, role workflow.Role, data TemplateData, variant string) DispatchResult {
	to := d.Participants.EmailFor(role)
	result := DispatchResult{Role: role, Recipient: to}
	if to == "" || !s.mailer.IsConfigured() {
		result.Outcome = OutcomeSkipped
		return result
	}

	subject, body, err := s.templates.Render(data)
	if err == nil {
		err = s.mailer.Send(ctx, to, subject, body)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("notify: %s for collaboration %s to %s failed: %v", data.Kind, d.ID, role, err)
		}
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	if err := s.sent.Record(ctx, d.ID, data.Kind, variant, to); err != nil {
		log.Printf("notify: failed to record %s for collaboration %s: %v", data.Kind, d.ID, err)
	}
	result.Outcome = OutcomeSent
	return result
}
