package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type WorkspaceHandler struct {
	workspaceService WorkspaceServiceInterface
	userService      UserServiceInterface
}

func NewWorkspaceHandler(workspaceService WorkspaceServiceInterface, userService UserServiceInterface) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		userService:      userService,
	}
}

func workspaceResponse(w *models.Workspace, role workflow.Role) dto.WorkspaceResponse {
	return dto.WorkspaceResponse{
		ID:                    w.ID,
		Name:                  w.Name,
		OwnerID:               w.OwnerID,
		Role:                  string(role),
		MaxReschedules:        w.MaxReschedules,
		RescheduleCutoffHours: w.RescheduleCutoffHours,
	}
}

func (h *WorkspaceHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		c.BadRequest("name is required")
		return
	}

	workspace, err := h.workspaceService.Create(context.Background(), strings.TrimSpace(req.Name), userID)
	if err != nil {
		c.InternalServerError("failed to create workspace")
		return
	}

	_ = c.JSON(201, workspaceResponse(workspace, workflow.RoleHost))
}

func (h *WorkspaceHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaces, roles, err := h.workspaceService.GetUserWorkspaces(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get workspaces")
		return
	}

	response := make([]dto.WorkspaceResponse, len(workspaces))
	for i := range workspaces {
		response[i] = workspaceResponse(&workspaces[i], roles[i])
	}

	_ = c.JSON(200, response)
}

// requireHost parses the workspace id and checks the caller hosts it.
func (h *WorkspaceHandler) requireHost(c *drift.Context) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, false
	}

	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return uuid.Nil, false
	}

	isHost, err := h.workspaceService.IsHost(context.Background(), workspaceID, userID)
	if err != nil {
		c.InternalServerError("failed to check workspace access")
		return uuid.Nil, false
	}
	if !isHost {
		c.Forbidden("only hosts can manage the workspace")
		return uuid.Nil, false
	}
	return workspaceID, true
}

func (h *WorkspaceHandler) UpdatePolicy(c *drift.Context) {
	workspaceID, ok := h.requireHost(c)
	if !ok {
		return
	}

	var req dto.UpdatePolicyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := context.Background()
	current, err := h.workspaceService.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, services.ErrWorkspaceNotFound) {
			c.NotFound("workspace not found")
			return
		}
		c.InternalServerError("failed to get workspace")
		return
	}

	policy := current.ReschedulePolicy()
	if req.MaxReschedules != nil {
		policy.MaxReschedules = *req.MaxReschedules
	}
	if req.RescheduleCutoffHours != nil {
		policy.RescheduleCutoffHours = *req.RescheduleCutoffHours
	}

	workspace, err := h.workspaceService.UpdatePolicy(ctx, workspaceID, policy)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPolicy) {
			c.BadRequest(err.Error())
			return
		}
		c.InternalServerError("failed to update workspace")
		return
	}

	_ = c.JSON(200, workspaceResponse(workspace, workflow.RoleHost))
}

// AddMember adds an existing user as editor or co-host. Guests join through
// invite links, not membership.
func (h *WorkspaceHandler) AddMember(c *drift.Context) {
	workspaceID, ok := h.requireHost(c)
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	role, err := workflow.ParseRole(req.Role)
	if err != nil || role == workflow.RoleGuest {
		c.BadRequest("role must be host or editor")
		return
	}

	ctx := context.Background()
	user, err := h.userService.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to find user")
		return
	}

	if err := h.workspaceService.AddMember(ctx, workspaceID, user.ID, role); err != nil {
		c.InternalServerError("failed to add member")
		return
	}

	_ = c.JSON(201, map[string]any{"user_id": user.ID, "role": role})
}
