package services

import (
	"context"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/database"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

// NotificationLogService stores delivered notifications. The sweep reads the
// latest row per (collaboration, kind, variant) as its dedup marker.
type NotificationLogService struct {
	db *database.DB
}

func NewNotificationLogService(db *database.DB) *NotificationLogService {
	return &NotificationLogService{db: db}
}

// LastSent returns nil when nothing matching was ever delivered.
func (s *NotificationLogService) LastSent(ctx context.Context, collaborationID uuid.UUID, kind workflow.Kind, variant string) (*time.Time, error) {
	var sentAt *time.Time
	err := s.db.Pool.QueryRow(ctx, `
		SELECT MAX(sent_at) FROM notification_log
		WHERE collaboration_id = $1 AND kind = $2 AND variant = $3
	`, collaborationID, string(kind), variant).Scan(&sentAt)
	if err != nil {
		return nil, err
	}
	return sentAt, nil
}

func (s *NotificationLogService) Record(ctx context.Context, collaborationID uuid.UUID, kind workflow.Kind, variant, recipient string) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO notification_log (collaboration_id, kind, variant, recipient)
		VALUES ($1, $2, $3, $4)
	`, collaborationID, string(kind), variant, recipient)
	return err
}

func (s *NotificationLogService) List(ctx context.Context, collaborationID uuid.UUID) ([]models.NotificationLogEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, collaboration_id, kind, variant, recipient, sent_at
		FROM notification_log
		WHERE collaboration_id = $1
		ORDER BY sent_at DESC
	`, collaborationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.NotificationLogEntry
	for rows.Next() {
		var e models.NotificationLogEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.CollaborationID, &kind, &e.Variant, &e.Recipient, &e.SentAt); err != nil {
			return nil, err
		}
		e.Kind = workflow.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
