package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/tests/testutil"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func sweepApp(svc *testutil.MockSweepService) http.Handler {
	app := drift.New()
	internal := app.Group("/internal")
	internal.Use(middleware.CronKeyAuth("cron-secret"))
	internal.Post("/sweep", NewSweepHandler(svc).Run)
	return app
}

func postSweep(app http.Handler, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestSweepHandler_Run(t *testing.T) {
	svc := new(testutil.MockSweepService)
	summary := &services.SweepSummary{Steps: []services.StepSummary{
		{Name: services.StepReminder24h, Sent: 2},
		{Name: services.StepNoShow, Sent: 1, Skipped: 1},
	}}
	svc.On("Run", mock.Anything, mock.Anything).Return(summary, nil)

	rec := postSweep(sweepApp(svc), "cron-secret")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), services.StepReminder24h)
	svc.AssertExpectations(t)
}

func TestSweepHandler_Run_WrongSecret(t *testing.T) {
	svc := new(testutil.MockSweepService)

	rec := postSweep(sweepApp(svc), "guess")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestSweepHandler_Run_Failure(t *testing.T) {
	svc := new(testutil.MockSweepService)
	svc.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	rec := postSweep(sweepApp(svc), "cron-secret")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
