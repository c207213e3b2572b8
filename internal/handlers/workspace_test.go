package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/dimitrije/flowaborate-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupWorkspaceTest(t *testing.T) (*testutil.MockWorkspaceService, *testutil.MockUserService, *services.JWTService, http.Handler) {
	t.Helper()
	workspaces := new(testutil.MockWorkspaceService)
	users := new(testutil.MockUserService)
	jwtSvc := newTestJWTService()
	handler := NewWorkspaceHandler(workspaces, users)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/workspaces", handler.List)
	app.Post("/workspaces", handler.Create)
	app.Patch("/workspaces/:workspaceId/policy", handler.UpdatePolicy)
	app.Post("/workspaces/:workspaceId/members", handler.AddMember)
	return workspaces, users, jwtSvc, app
}

func testWorkspace(ownerID uuid.UUID) *models.Workspace {
	return &models.Workspace{
		ID:                    uuid.New(),
		Name:                  "The Show",
		OwnerID:               ownerID,
		MaxReschedules:        workflow.DefaultMaxReschedules,
		RescheduleCutoffHours: workflow.DefaultRescheduleCutoffHours,
	}
}

func TestWorkspaceHandler_Create(t *testing.T) {
	workspaces, _, jwtSvc, app := setupWorkspaceTest(t)
	userID := uuid.New()
	ws := testWorkspace(userID)

	workspaces.On("Create", mock.Anything, "The Show", userID).Return(ws, nil)

	rec := doRequest(t, app, jwtSvc, http.MethodPost, "/workspaces", userID, dto.CreateWorkspaceRequest{Name: "  The Show "})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[dto.WorkspaceResponse](t, rec)
	assert.Equal(t, ws.ID, resp.ID)
	assert.Equal(t, "host", resp.Role)
	assert.Equal(t, 2, resp.MaxReschedules)
	assert.Equal(t, 24, resp.RescheduleCutoffHours)
	workspaces.AssertExpectations(t)
}

func TestWorkspaceHandler_Create_MissingName(t *testing.T) {
	workspaces, _, jwtSvc, app := setupWorkspaceTest(t)

	rec := doRequest(t, app, jwtSvc, http.MethodPost, "/workspaces", uuid.New(), dto.CreateWorkspaceRequest{Name: " "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	workspaces.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkspaceHandler_List(t *testing.T) {
	workspaces, _, jwtSvc, app := setupWorkspaceTest(t)
	userID := uuid.New()
	own := testWorkspace(userID)
	other := testWorkspace(uuid.New())

	workspaces.On("GetUserWorkspaces", mock.Anything, userID).Return(
		[]models.Workspace{*own, *other},
		[]workflow.Role{workflow.RoleHost, workflow.RoleEditor},
		nil,
	)

	rec := doRequest(t, app, jwtSvc, http.MethodGet, "/workspaces", userID, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[[]dto.WorkspaceResponse](t, rec)
	if assert.Len(t, resp, 2) {
		assert.Equal(t, "host", resp[0].Role)
		assert.Equal(t, "editor", resp[1].Role)
	}
}

func TestWorkspaceHandler_UpdatePolicy_Partial(t *testing.T) {
	workspaces, _, jwtSvc, app := setupWorkspaceTest(t)
	userID := uuid.New()
	ws := testWorkspace(userID)
	updated := *ws
	updated.MaxReschedules = 0
	zero := 0

	workspaces.On("IsHost", mock.Anything, ws.ID, userID).Return(true, nil)
	workspaces.On("GetByID", mock.Anything, ws.ID).Return(ws, nil)
	workspaces.On("UpdatePolicy", mock.Anything, ws.ID, workflow.ReschedulePolicy{MaxReschedules: 0, RescheduleCutoffHours: 24}).Return(&updated, nil)

	rec := doRequest(t, app, jwtSvc, http.MethodPatch, "/workspaces/"+ws.ID.String()+"/policy", userID,
		dto.UpdatePolicyRequest{MaxReschedules: &zero})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[dto.WorkspaceResponse](t, rec)
	assert.Equal(t, 0, resp.MaxReschedules)
	assert.Equal(t, 24, resp.RescheduleCutoffHours)
	workspaces.AssertExpectations(t)
}

func TestWorkspaceHandler_UpdatePolicy_Invalid(t *testing.T) {
	workspaces, _, jwtSvc, app := setupWorkspaceTest(t)
	userID := uuid.New()
	ws := testWorkspace(userID)
	negative := -1

	workspaces.On("IsHost", mock.Anything, ws.ID, userID).Return(true, nil)
	workspaces.On("GetByID", mock.Anything, ws.ID).Return(ws, nil)
	workspaces.On("UpdatePolicy", mock.Anything, ws.ID, mock.Anything).Return(nil, services.ErrInvalidPolicy)

	rec := doRequest(t, app, jwtSvc, http.MethodPatch, "/workspaces/"+ws.ID.String()+"/policy", userID,
		dto.UpdatePolicyRequest{RescheduleCutoffHours: &negative})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkspaceHandler_UpdatePolicy_NotHost(t *testing.T) {
	workspaces, _, jwtSvc, app := setupWorkspaceTest(t)
	userID := uuid.New()
	workspaceID := uuid.New()

	workspaces.On("IsHost", mock.Anything, workspaceID, userID).Return(false, nil)

	rec := doRequest(t, app, jwtSvc, http.MethodPatch, "/workspaces/"+workspaceID.String()+"/policy", userID,
		dto.UpdatePolicyRequest{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWorkspaceHandler_AddMember(t *testing.T) {
	workspaces, users, jwtSvc, app := setupWorkspaceTest(t)
	hostID := uuid.New()
	workspaceID := uuid.New()
	editor := &models.User{ID: uuid.New(), Email: "editor@example.com", Name: "Eddie"}

	workspaces.On("IsHost", mock.Anything, workspaceID, hostID).Return(true, nil)
	users.On("GetByEmail", mock.Anything, "editor@example.com").Return(editor, nil)
	workspaces.On("AddMember", mock.Anything, workspaceID, editor.ID, workflow.RoleEditor).Return(nil)

	rec := doRequest(t, app, jwtSvc, http.MethodPost, "/workspaces/"+workspaceID.String()+"/members", hostID,
		dto.AddMemberRequest{Email: "editor@example.com", Role: "editor"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	workspaces.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestWorkspaceHandler_AddMember_Errors(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		userErr error
		code    int
	}{
		{"guest role", "guest", nil, http.StatusBadRequest},
		{"unknown role", "producer", nil, http.StatusBadRequest},
		{"unknown user", "editor", services.ErrUserNotFound, http.StatusNotFound},
		{"lookup failure", "host", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workspaces, users, jwtSvc, app := setupWorkspaceTest(t)
			hostID := uuid.New()
			workspaceID := uuid.New()

			workspaces.On("IsHost", mock.Anything, workspaceID, hostID).Return(true, nil)
			if tt.userErr != nil {
				users.On("GetByEmail", mock.Anything, "someone@example.com").Return(nil, tt.userErr)
			}

			rec := doRequest(t, app, jwtSvc, http.MethodPost, "/workspaces/"+workspaceID.String()+"/members", hostID,
				dto.AddMemberRequest{Email: "someone@example.com", Role: tt.role})

			assert.Equal(t, tt.code, rec.Code)
			workspaces.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
