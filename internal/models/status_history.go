package models

import (
	"time"

	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

// StatusHistoryEntry is one row of the append-only audit log.
type StatusHistoryEntry struct {
	ID              uuid.UUID        `json:"id"`
	CollaborationID uuid.UUID        `json:"collaboration_id"`
	OldStatus       *workflow.Status `json:"old_status,omitempty"`
	NewStatus       workflow.Status  `json:"new_status"`
	ChangedBy       *uuid.UUID       `json:"changed_by,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type NotificationLogEntry struct {
	ID              uuid.UUID     `json:"id"`
	CollaborationID uuid.UUID     `json:"collaboration_id"`
	Kind            workflow.Kind `json:"kind"`
	Variant         string        `json:"variant"`
	Recipient       string        `json:"recipient"`
	SentAt          time.Time     `json:"sent_at"`
}
