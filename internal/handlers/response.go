package handlers

import (
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// collaborationView renders a collaboration for one viewer. Exceptions and
// the invite link are only shown to hosts.
type collaborationView struct {
	now        time.Time
	thresholds workflow.Thresholds
	appURL     string
}

func (v collaborationView) render(d *models.CollaborationDetail, role workflow.Role) dto.CollaborationResponse {
	r := workflow.ResolveResponsibility(d.Status)
	resp := dto.CollaborationResponse{
		ID:              d.ID,
		WorkspaceID:     d.WorkspaceID,
		WorkspaceName:   d.WorkspaceName,
		HostID:          d.HostID,
		EditorID:        d.EditorID,
		GuestProfileID:  d.GuestProfileID,
		GuestEmail:      d.GuestEmail,
		GuestName:       d.Participants.GuestName,
		Title:           d.Title,
		Status:          string(d.Status),
		StatusLabel:     d.Status.Label(),
		ScheduledDate:   d.ScheduledDate,
		PrepDate:        d.PrepDate,
		RecordedDate:    d.RecordedDate,
		DeliveryDate:    d.DeliveryDate,
		RescheduleCount: d.RescheduleCount,
		Notes:           d.Notes,
		Role:            string(role),
		Responsibility: dto.ResponsibilityResponse{
			Party:  string(r.Party),
			Label:  r.Label,
			Action: r.Action,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	action := workflow.ResolveRoleAction(d.Status, role)
	resp.Action = &dto.RoleActionResponse{
		HasAction:   action.HasAction,
		Title:       action.Title,
		Description: action.Description,
		WaitingOn:   action.WaitingOnLabel,
	}

	switch role {
	case workflow.RoleHost:
		if exc := workflow.DetectException(d.Timeline(), v.now, v.thresholds); exc != nil {
			resp.Exception = &dto.ExceptionResponse{
				Type:     string(exc.Type),
				Message:  exc.Message,
				Severity: string(exc.Severity),
			}
		}
		if d.Status == workflow.StatusInvited && d.InviteToken != "" {
			resp.InviteURL = v.appURL + "/invite/" + d.InviteToken
		}
	case workflow.RoleGuest:
		if d.Status == workflow.StatusScheduled {
			remaining := workflow.RemainingReschedules(d.Policy, d.RescheduleCount)
			resp.RemainingReschedules = &remaining
		}
	}
	return resp
}

func statusStrings(statuses []workflow.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func writeTransitionError(c *drift.Context, terr *workflow.TransitionError) {
	_ = c.JSON(422, map[string]any{
		"code":           "INVALID_TRANSITION",
		"message":        terr.Error(),
		"current_status": terr.From,
		"allowed":        statusStrings(terr.Allowed),
	})
}

func writeStatusConflict(c *drift.Context, current workflow.Status) {
	_ = c.JSON(409, map[string]any{
		"code":           "STATUS_CONFLICT",
		"message":        "collaboration has been modified by another user",
		"current_status": current,
		"retryable":      true,
	})
}
