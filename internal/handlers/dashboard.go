package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type DashboardHandler struct {
	collaborationService CollaborationServiceInterface
	thresholds           workflow.Thresholds
	appURL               string
	now                  func() time.Time
}

func NewDashboardHandler(collaborationService CollaborationServiceInterface, thresholds workflow.Thresholds, appURL string) *DashboardHandler {
	return &DashboardHandler{
		collaborationService: collaborationService,
		thresholds:           thresholds,
		appURL:               appURL,
		now:                  time.Now,
	}
}

// Get groups the caller's collaborations by what they need from them. The
// optional role query parameter limits the board to one role.
func (h *DashboardHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var only workflow.Role
	if raw := c.QueryParam("role"); raw != "" {
		role, err := workflow.ParseRole(raw)
		if err != nil {
			c.BadRequest("role must be host, guest or editor")
			return
		}
		only = role
	}

	items, err := h.collaborationService.ListForUser(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to list collaborations")
		return
	}

	now := h.now()
	view := collaborationView{now: now, thresholds: h.thresholds, appURL: h.appURL}
	response := dto.DashboardResponse{
		Role:           string(only),
		NeedsAttention: []dto.CollaborationResponse{},
		MyActions:      []dto.CollaborationResponse{},
		Waiting:        []dto.CollaborationResponse{},
		Done:           []dto.CollaborationResponse{},
	}

	for i := range items {
		item := &items[i]
		if only != "" && item.Role != only {
			continue
		}
		bucket, _ := workflow.Triage(item.Timeline(), item.Role, now, h.thresholds)
		rendered := view.render(&item.CollaborationDetail, item.Role)
		switch bucket {
		case workflow.BucketNeedsAttention:
			response.NeedsAttention = append(response.NeedsAttention, rendered)
		case workflow.BucketMyAction:
			response.MyActions = append(response.MyActions, rendered)
		case workflow.BucketWaiting:
			response.Waiting = append(response.Waiting, rendered)
		default:
			response.Done = append(response.Done, rendered)
		}
	}

	_ = c.JSON(200, response)
}
