package handlers

import (
	"context"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

type SweepHandler struct {
	sweepService SweepServiceInterface
}

func NewSweepHandler(sweepService SweepServiceInterface) *SweepHandler {
	return &SweepHandler{sweepService: sweepService}
}

// Run triggers one exception sweep for an external scheduler.
func (h *SweepHandler) Run(c *drift.Context) {
	summary, err := h.sweepService.Run(context.Background(), time.Now())
	if err != nil {
		c.InternalServerError("sweep failed")
		return
	}

	_ = c.JSON(200, summary)
}
