package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// InviteHandler serves the guest side of an invite link.
type InviteHandler struct {
	collaborationService CollaborationServiceInterface
	notifier             NotifierInterface
	thresholds           workflow.Thresholds
	now                  func() time.Time
}

func NewInviteHandler(collaborationService CollaborationServiceInterface, notifier NotifierInterface, thresholds workflow.Thresholds) *InviteHandler {
	return &InviteHandler{
		collaborationService: collaborationService,
		notifier:             notifier,
		thresholds:           thresholds,
		now:                  time.Now,
	}
}

// View is public: anyone holding the token may see who invited them.
func (h *InviteHandler) View(c *drift.Context) {
	d, err := h.collaborationService.GetByInviteToken(context.Background(), c.Param("token"))
	if err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			c.NotFound("invite not found")
			return
		}
		c.InternalServerError("failed to get invite")
		return
	}

	_ = c.JSON(200, dto.InviteResponse{
		CollaborationID: d.ID,
		Title:           d.Title,
		WorkspaceName:   d.WorkspaceName,
		HostName:        d.Participants.HostName,
		GuestEmail:      d.GuestEmail,
		Status:          string(d.Status),
		IntakeOpen:      d.Status == workflow.StatusInvited,
		ScheduledDate:   d.ScheduledDate,
	})
}

func (h *InviteHandler) SubmitIntake(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.IntakeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		req.Email = middleware.GetUserEmail(c)
	}

	ctx := context.Background()
	result, err := h.collaborationService.CompleteIntake(ctx, c.Param("token"), userID, services.IntakeInput{
		Name:       req.Name,
		Email:      req.Email,
		Bio:        req.Bio,
		Topics:     req.Topics,
		WebsiteURL: req.WebsiteURL,
	})
	if err != nil {
		var terr *workflow.TransitionError
		var conflict *services.StatusConflictError
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			c.NotFound("invite not found")
		case errors.Is(err, services.ErrNotParticipant):
			c.Forbidden("this invite belongs to another guest")
		case errors.As(err, &terr):
			writeTransitionError(c, terr)
		case errors.As(err, &conflict):
			writeStatusConflict(c, conflict.Current)
		default:
			c.InternalServerError("failed to save intake")
		}
		return
	}

	d, err := h.collaborationService.GetDetail(ctx, result.Collaboration.ID)
	if err != nil {
		c.InternalServerError("failed to load collaboration")
		return
	}

	if result.Transitioned {
		go h.notifier.StatusChanged(context.Background(), d, workflow.StatusInvited, workflow.StatusIntakeCompleted)
	}

	view := collaborationView{now: h.now(), thresholds: h.thresholds}
	p := result.Profile
	_ = c.JSON(200, dto.IntakeResponse{
		Collaboration: view.render(d, workflow.RoleGuest),
		Profile: dto.GuestProfileResponse{
			ID:         p.ID,
			Name:       p.Name,
			Email:      p.Email,
			Bio:        p.Bio,
			Topics:     p.Topics,
			WebsiteURL: p.WebsiteURL,
		},
		Transitioned: result.Transitioned,
	})
}
