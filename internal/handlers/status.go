package handlers

import (
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/dimitrije/flowaborate-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// ListStatuses exposes the status registry so clients do not keep their own copy.
func ListStatuses(c *drift.Context) {
	statuses := workflow.AllStatuses()
	response := make([]dto.StatusResponse, len(statuses))
	for i, s := range statuses {
		r := workflow.ResolveResponsibility(s)
		response[i] = dto.StatusResponse{
			Value:       string(s),
			Label:       s.Label(),
			Party:       string(r.Party),
			WaitingOn:   r.Label,
			Action:      r.Action,
			Terminal:    workflow.IsTerminal(s),
			Transitions: statusStrings(workflow.AllowedTransitions(s)),
		}
	}

	_ = c.JSON(200, response)
}
