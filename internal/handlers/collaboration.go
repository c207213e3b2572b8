package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type CollaborationHandler struct {
	collaborationService CollaborationServiceInterface
	workspaceService     WorkspaceServiceInterface
	notifier             NotifierInterface
	thresholds           workflow.Thresholds
	appURL               string
	now                  func() time.Time
}

func NewCollaborationHandler(
	collaborationService CollaborationServiceInterface,
	workspaceService WorkspaceServiceInterface,
	notifier NotifierInterface,
	thresholds workflow.Thresholds,
	appURL string,
) *CollaborationHandler {
	return &CollaborationHandler{
		collaborationService: collaborationService,
		workspaceService:     workspaceService,
		notifier:             notifier,
		thresholds:           thresholds,
		appURL:               strings.TrimRight(appURL, "/"),
		now:                  time.Now,
	}
}

func (h *CollaborationHandler) view() collaborationView {
	return collaborationView{now: h.now(), thresholds: h.thresholds, appURL: h.appURL}
}

// notify runs detached from the request; delivery never changes the response.
func (h *CollaborationHandler) notify(d *models.CollaborationDetail, oldStatus, newStatus workflow.Status) {
	go h.notifier.StatusChanged(context.Background(), d, oldStatus, newStatus)
}

// load resolves the collaboration and the caller's role in it. Non-participants
// get a 404 so ids cannot be enumerated.
func (h *CollaborationHandler) load(c *drift.Context) (*models.CollaborationDetail, workflow.Role, uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return nil, "", uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid collaboration id")
		return nil, "", uuid.Nil, false
	}

	d, err := h.collaborationService.GetDetail(context.Background(), id)
	if err != nil {
		if errors.Is(err, services.ErrCollaborationNotFound) {
			c.NotFound("collaboration not found")
			return nil, "", uuid.Nil, false
		}
		c.InternalServerError("failed to get collaboration")
		return nil, "", uuid.Nil, false
	}

	role, ok := d.RoleOf(userID)
	if !ok {
		c.NotFound("collaboration not found")
		return nil, "", uuid.Nil, false
	}
	return d, role, userID, true
}

func (h *CollaborationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	items, err := h.collaborationService.ListForUser(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to list collaborations")
		return
	}

	view := h.view()
	response := make([]dto.CollaborationResponse, len(items))
	for i := range items {
		response[i] = view.render(&items[i].CollaborationDetail, items[i].Role)
	}

	_ = c.JSON(200, response)
}

func (h *CollaborationHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	ctx := context.Background()

	isHost, err := h.workspaceService.IsHost(ctx, workspaceID, userID)
	if err != nil {
		c.InternalServerError("failed to check workspace access")
		return
	}
	if !isHost {
		c.Forbidden("only hosts can create collaborations")
		return
	}

	var req dto.CreateCollaborationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	req.GuestEmail = strings.TrimSpace(req.GuestEmail)
	req.Title = strings.TrimSpace(req.Title)
	if req.GuestEmail == "" || !strings.Contains(req.GuestEmail, "@") {
		c.BadRequest("a valid guest_email is required")
		return
	}
	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}

	if req.EditorID != nil {
		role, err := h.workspaceService.MemberRole(ctx, workspaceID, *req.EditorID)
		if err != nil || role == workflow.RoleGuest {
			c.BadRequest("editor must be a member of the workspace")
			return
		}
	}

	created, err := h.collaborationService.Create(ctx, services.CreateCollaborationParams{
		WorkspaceID: workspaceID,
		HostID:      userID,
		EditorID:    req.EditorID,
		GuestEmail:  req.GuestEmail,
		Title:       req.Title,
		Notes:       req.Notes,
	})
	if err != nil {
		c.InternalServerError("failed to create collaboration")
		return
	}

	d, err := h.collaborationService.GetDetail(ctx, created.ID)
	if err != nil {
		c.InternalServerError("failed to load collaboration")
		return
	}

	h.notify(d, "", d.Status)

	_ = c.JSON(201, h.view().render(d, workflow.RoleHost))
}

func (h *CollaborationHandler) Get(c *drift.Context) {
	d, role, _, ok := h.load(c)
	if !ok {
		return
	}

	_ = c.JSON(200, h.view().render(d, role))
}

func (h *CollaborationHandler) Transitions(c *drift.Context) {
	d, _, _, ok := h.load(c)
	if !ok {
		return
	}

	_ = c.JSON(200, dto.TransitionsResponse{
		Current: string(d.Status),
		Allowed: statusStrings(workflow.AllowedTransitions(d.Status)),
	})
}

func (h *CollaborationHandler) History(c *drift.Context) {
	d, _, _, ok := h.load(c)
	if !ok {
		return
	}

	entries, err := h.collaborationService.History(context.Background(), d.ID)
	if err != nil {
		c.InternalServerError("failed to get status history")
		return
	}

	response := make([]dto.StatusHistoryResponse, len(entries))
	for i, e := range entries {
		response[i] = dto.StatusHistoryResponse{
			ID:        e.ID,
			NewStatus: string(e.NewStatus),
			ChangedBy: e.ChangedBy,
			Notes:     e.Notes,
			CreatedAt: e.CreatedAt,
		}
		if e.OldStatus != nil {
			old := string(*e.OldStatus)
			response[i].OldStatus = &old
		}
	}

	_ = c.JSON(200, response)
}

func (h *CollaborationHandler) UpdateStatus(c *drift.Context) {
	d, role, userID, ok := h.load(c)
	if !ok {
		return
	}
	if role != workflow.RoleHost {
		c.Forbidden("only the host can change the status")
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	next, err := workflow.ParseStatus(req.Status)
	if err != nil {
		c.BadRequest("invalid status")
		return
	}

	expected := d.Status
	if req.ExpectedStatus != "" {
		expected, err = workflow.ParseStatus(req.ExpectedStatus)
		if err != nil {
			c.BadRequest("invalid expected_status")
			return
		}
		if expected != d.Status {
			writeStatusConflict(c, d.Status)
			return
		}
	}

	updated, err := h.collaborationService.UpdateStatus(context.Background(), d.ID, expected, next, userID, req.Notes)
	if err != nil {
		var terr *workflow.TransitionError
		var conflict *services.StatusConflictError
		switch {
		case errors.As(err, &terr):
			writeTransitionError(c, terr)
		case errors.As(err, &conflict):
			writeStatusConflict(c, conflict.Current)
		case errors.Is(err, services.ErrCollaborationNotFound):
			c.NotFound("collaboration not found")
		default:
			c.InternalServerError("failed to update status")
		}
		return
	}

	d.Collaboration = *updated
	h.notify(d, expected, next)

	_ = c.JSON(200, h.view().render(d, role))
}

func (h *CollaborationHandler) Schedule(c *drift.Context) {
	d, role, userID, ok := h.load(c)
	if !ok {
		return
	}
	if role != workflow.RoleGuest {
		c.Forbidden("only the guest can schedule the recording")
		return
	}

	var req dto.ScheduleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.ScheduledDate.IsZero() {
		c.BadRequest("scheduled_date is required")
		return
	}

	previous := d.Status
	result, err := h.collaborationService.Schedule(context.Background(), d, userID, req.ScheduledDate, req.PrepDate, h.now())
	if err != nil {
		var conflict *services.StatusConflictError
		switch {
		case errors.Is(err, workflow.ErrRescheduleLimit):
			_ = c.JSON(422, map[string]any{"code": "RESCHEDULE_LIMIT", "message": err.Error()})
		case errors.Is(err, workflow.ErrRescheduleCutoff):
			_ = c.JSON(422, map[string]any{"code": "RESCHEDULE_CUTOFF", "message": err.Error()})
		case errors.Is(err, workflow.ErrNotSchedulable):
			_ = c.JSON(422, map[string]any{"code": "NOT_SCHEDULABLE", "message": err.Error(), "current_status": d.Status})
		case errors.Is(err, workflow.ErrSlotInPast):
			c.BadRequest("scheduled_date must be in the future")
		case errors.As(err, &conflict):
			writeStatusConflict(c, conflict.Current)
		case errors.Is(err, services.ErrCollaborationNotFound):
			c.NotFound("collaboration not found")
		default:
			c.InternalServerError("failed to schedule recording")
		}
		return
	}

	d.Collaboration = *result.Collaboration
	if !result.Rescheduled {
		h.notify(d, previous, d.Status)
	}

	_ = c.JSON(200, dto.ScheduleResponse{
		Collaboration: h.view().render(d, role),
		Rescheduled:   result.Rescheduled,
	})
}
