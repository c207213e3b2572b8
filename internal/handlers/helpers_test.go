package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(userID, email)
	require.NoError(t, err)
	return token
}

// doRequest sends body as JSON with a bearer token for userID. A nil userID
// sends no Authorization header.
func doRequest(t *testing.T, app http.Handler, jwtSvc *services.JWTService, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+generateTestToken(t, jwtSvc, userID, "user@example.com"))
	}

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type testCast struct {
	host   uuid.UUID
	guest  uuid.UUID
	editor uuid.UUID
}

func newTestCast() testCast {
	return testCast{host: uuid.New(), guest: uuid.New(), editor: uuid.New()}
}

func (tc testCast) detail(status workflow.Status) *models.CollaborationDetail {
	editor := tc.editor
	guest := tc.guest
	profile := uuid.New()
	return &models.CollaborationDetail{
		Collaboration: models.Collaboration{
			ID:             uuid.New(),
			WorkspaceID:    uuid.New(),
			HostID:         tc.host,
			EditorID:       &editor,
			GuestProfileID: &profile,
			GuestEmail:     "guest@example.com",
			Title:          "Episode 12",
			Status:         status,
			InviteToken:    "tok-123",
			CreatedAt:      testNow.Add(-48 * time.Hour),
			UpdatedAt:      testNow.Add(-time.Hour),
		},
		WorkspaceName: "The Show",
		Policy:        workflow.ReschedulePolicy{MaxReschedules: 2, RescheduleCutoffHours: 24},
		GuestUserID:   &guest,
		Participants: models.CollaborationParticipants{
			HostEmail:   "host@example.com",
			HostName:    "Hana Host",
			GuestEmail:  "guest@example.com",
			GuestName:   "Gus Guest",
			EditorEmail: "editor@example.com",
			EditorName:  "Eddie Editor",
		},
	}
}
