package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/database"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrCollaborationNotFound = errors.New("collaboration not found")
	ErrStatusConflict        = errors.New("status conflict: collaboration has been modified")
	ErrInviteNotFound        = errors.New("invite not found")
	ErrNotParticipant        = errors.New("user is not a participant of this collaboration")
)

// StatusConflictError reports the status found when a conditional write lost a race.
type StatusConflictError struct {
	Current workflow.Status
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("status conflict: collaboration is now %s", e.Current)
}

func (e *StatusConflictError) Unwrap() error {
	return ErrStatusConflict
}

const inviteTokenBytes = 24

// GenerateInviteToken returns an opaque, URL-safe invite token.
func GenerateInviteToken() string {
	b := make([]byte, inviteTokenBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

type CreateCollaborationParams struct {
	WorkspaceID uuid.UUID
	HostID      uuid.UUID
	EditorID    *uuid.UUID
	GuestEmail  string
	Title       string
	Notes       *string
}

// CollaborationFilter narrows Find. Zero fields do not filter.
type CollaborationFilter struct {
	Statuses        []workflow.Status
	WorkspaceID     *uuid.UUID
	ScheduledFrom   *time.Time
	ScheduledBefore *time.Time
	UpdatedBefore   *time.Time
	RecordedBefore  *time.Time
}

// RoleCollaboration is a collaboration as seen by one participant.
type RoleCollaboration struct {
	models.CollaborationDetail
	Role workflow.Role
}

type IntakeInput struct {
	Name       string
	Email      string
	Bio        string
	Topics     []string
	WebsiteURL *string
}

type IntakeResult struct {
	Collaboration *models.Collaboration
	Profile       *models.GuestProfile
	Transitioned  bool
}

type ScheduleResult struct {
	Collaboration *models.Collaboration
	Rescheduled   bool
}

type CollaborationService struct {
	db *database.DB
}

func NewCollaborationService(db *database.DB) *CollaborationService {
	return &CollaborationService{db: db}
}

const collaborationColumns = `id, workspace_id, host_id, editor_id, guest_profile_id, guest_email, title, status::text,
	scheduled_date, prep_date, recorded_date, delivery_date, reschedule_count, invite_token, notes,
	created_at, updated_at`

const detailColumns = `
	SELECT c.id, c.workspace_id, c.host_id, c.editor_id, c.guest_profile_id, c.guest_email, c.title, c.status::text,
	       c.scheduled_date, c.prep_date, c.recorded_date, c.delivery_date, c.reschedule_count, c.invite_token, c.notes,
	       c.created_at, c.updated_at,
	       w.name, w.max_reschedules, w.reschedule_cutoff_hours, gp.user_id,
	       h.email, h.name, COALESCE(gp.email, c.guest_email), COALESCE(gp.name, ''),
	       COALESCE(e.email, ''), COALESCE(e.name, '')`

const detailFrom = `
	FROM collaborations c
	JOIN workspaces w ON w.id = c.workspace_id
	JOIN users h ON h.id = c.host_id
	LEFT JOIN users e ON e.id = c.editor_id
	LEFT JOIN guest_profiles gp ON gp.id = c.guest_profile_id`

const detailSelect = detailColumns + detailFrom

func scanCollaboration(row pgx.Row) (*models.Collaboration, error) {
	var c models.Collaboration
	var status string
	if err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.HostID, &c.EditorID, &c.GuestProfileID, &c.GuestEmail, &c.Title, &status,
		&c.ScheduledDate, &c.PrepDate, &c.RecordedDate, &c.DeliveryDate, &c.RescheduleCount, &c.InviteToken, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = models.StatusFromDB(status)
	return &c, nil
}

func scanDetail(row pgx.Row, extra ...any) (*models.CollaborationDetail, error) {
	var d models.CollaborationDetail
	var status string
	dest := []any{
		&d.ID, &d.WorkspaceID, &d.HostID, &d.EditorID, &d.GuestProfileID, &d.GuestEmail, &d.Title, &status,
		&d.ScheduledDate, &d.PrepDate, &d.RecordedDate, &d.DeliveryDate, &d.RescheduleCount, &d.InviteToken, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
		&d.WorkspaceName, &d.Policy.MaxReschedules, &d.Policy.RescheduleCutoffHours, &d.GuestUserID,
		&d.Participants.HostEmail, &d.Participants.HostName, &d.Participants.GuestEmail, &d.Participants.GuestName,
		&d.Participants.EditorEmail, &d.Participants.EditorName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	d.Status = models.StatusFromDB(status)
	return &d, nil
}

func (s *CollaborationService) Create(ctx context.Context, p CreateCollaborationParams) (*models.Collaboration, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanCollaboration(tx.QueryRow(ctx, `
		INSERT INTO collaborations (workspace_id, host_id, editor_id, guest_email, title, notes, invite_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+collaborationColumns,
		p.WorkspaceID, p.HostID, p.EditorID, p.GuestEmail, p.Title, p.Notes, GenerateInviteToken()))
	if err != nil {
		return nil, fmt.Errorf("failed to create collaboration: %w", err)
	}

	if err := insertHistory(ctx, tx, c.ID, nil, c.Status, &p.HostID, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

func (s *CollaborationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	c, err := scanCollaboration(s.db.Pool.QueryRow(ctx,
		`SELECT `+collaborationColumns+` FROM collaborations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollaborationNotFound
	}
	return c, err
}

func (s *CollaborationService) GetDetail(ctx context.Context, id uuid.UUID) (*models.CollaborationDetail, error) {
	d, err := scanDetail(s.db.Pool.QueryRow(ctx, detailSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCollaborationNotFound
	}
	return d, err
}

func (s *CollaborationService) GetByInviteToken(ctx context.Context, token string) (*models.CollaborationDetail, error) {
	if token == "" {
		return nil, ErrInviteNotFound
	}
	d, err := scanDetail(s.db.Pool.QueryRow(ctx, detailSelect+` WHERE c.invite_token = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	return d, err
}

// Find is the read-many-by-filter query used by the sweep.
func (s *CollaborationService) Find(ctx context.Context, f CollaborationFilter) ([]models.CollaborationDetail, error) {
	var where []string
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("c.status::text = ANY($%d)", statuses)
	}
	if f.WorkspaceID != nil {
		add("c.workspace_id = $%d", *f.WorkspaceID)
	}
	if f.ScheduledFrom != nil {
		add("c.scheduled_date >= $%d", *f.ScheduledFrom)
	}
	if f.ScheduledBefore != nil {
		add("c.scheduled_date < $%d", *f.ScheduledBefore)
	}
	if f.UpdatedBefore != nil {
		add("c.updated_at < $%d", *f.UpdatedBefore)
	}
	if f.RecordedBefore != nil {
		add("c.recorded_date < $%d", *f.RecordedBefore)
	}

	query := detailSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.scheduled_date NULLS LAST, c.created_at"

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CollaborationDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// ListForUser returns every collaboration userID takes part in, with the
// role they play in each.
func (s *CollaborationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]RoleCollaboration, error) {
	rows, err := s.db.Pool.Query(ctx, detailColumns+`,
		       CASE WHEN c.host_id = $1 THEN 'host' WHEN c.editor_id = $1 THEN 'editor' ELSE 'guest' END`+detailFrom+`
		WHERE c.host_id = $1 OR c.editor_id = $1 OR gp.user_id = $1
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoleCollaboration
	for rows.Next() {
		var role string
		d, err := scanDetail(rows, &role)
		if err != nil {
			return nil, err
		}
		out = append(out, RoleCollaboration{CollaborationDetail: *d, Role: workflow.Role(role)})
	}
	return out, rows.Err()
}

// UpdateStatus moves a collaboration from expected to next. The write only
// lands if the row still holds expected, and the history row is written in
// the same transaction.
func (s *CollaborationService) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next workflow.Status, actorID uuid.UUID, notes *string) (*models.Collaboration, error) {
	if err := workflow.CheckTransition(expected, next); err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := transition(ctx, tx, id, expected, next)
	if err != nil {
		return nil, s.checkStatusConflict(ctx, id, expected, err)
	}

	if err := insertHistory(ctx, tx, id, &expected, next, &actorID, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

func transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next workflow.Status) (*models.Collaboration, error) {
	return scanCollaboration(tx.QueryRow(ctx, `
		UPDATE collaborations
		SET status = $1,
		    recorded_date = CASE WHEN $2 THEN NOW() ELSE recorded_date END,
		    delivery_date = CASE WHEN $3 THEN NOW() ELSE delivery_date END,
		    updated_at = NOW()
		WHERE id = $4 AND status::text = $5
		RETURNING `+collaborationColumns,
		string(next), next == workflow.StatusRecorded, next == workflow.StatusCompleted, id, string(expected)))
}

func insertHistory(ctx context.Context, tx pgx.Tx, id uuid.UUID, oldStatus *workflow.Status, newStatus workflow.Status, actorID *uuid.UUID, notes *string) error {
	var old *string
	if oldStatus != nil {
		o := string(*oldStatus)
		old = &o
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO status_history (collaboration_id, old_status, new_status, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, id, old, string(newStatus), actorID, notes)
	if err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

func (s *CollaborationService) checkStatusConflict(ctx context.Context, id uuid.UUID, expected workflow.Status, originalErr error) error {
	if !errors.Is(originalErr, pgx.ErrNoRows) {
		return originalErr
	}
	var current string
	err := s.db.Pool.QueryRow(ctx, `SELECT status::text FROM collaborations WHERE id = $1`, id).Scan(&current)
	if err != nil {
		return ErrCollaborationNotFound
	}
	if workflow.Status(current) != expected {
		return &StatusConflictError{Current: models.StatusFromDB(current)}
	}
	return originalErr
}

// Schedule books or moves the recording slot for a guest. First booking moves
// intake_completed to scheduled; a reschedule keeps the status and spends one
// of the workspace's reschedules.
func (s *CollaborationService) Schedule(ctx context.Context, d *models.CollaborationDetail, actorID uuid.UUID, date time.Time, prepDate *time.Time, now time.Time) (*ScheduleResult, error) {
	reschedule, err := workflow.CheckSchedule(workflow.ScheduleRequest{
		Status:          d.Status,
		CurrentDate:     d.ScheduledDate,
		RescheduleCount: d.RescheduleCount,
		NewDate:         date,
	}, d.Policy, now)
	if err != nil {
		return nil, err
	}

	if reschedule {
		c, err := scanCollaboration(s.db.Pool.QueryRow(ctx, `
			UPDATE collaborations
			SET scheduled_date = $1, prep_date = $2, reschedule_count = reschedule_count + 1, updated_at = NOW()
			WHERE id = $3 AND status::text = $4 AND reschedule_count = $5
			RETURNING `+collaborationColumns,
			date, prepDate, d.ID, string(workflow.StatusScheduled), d.RescheduleCount))
		if err != nil {
			err = s.checkStatusConflict(ctx, d.ID, workflow.StatusScheduled, err)
			if errors.Is(err, pgx.ErrNoRows) {
				// status unchanged, the reschedule count moved
				err = &StatusConflictError{Current: workflow.StatusScheduled}
			}
			return nil, err
		}
		return &ScheduleResult{Collaboration: c, Rescheduled: true}, nil
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanCollaboration(tx.QueryRow(ctx, `
		UPDATE collaborations
		SET status = $1, scheduled_date = $2, prep_date = $3, updated_at = NOW()
		WHERE id = $4 AND status::text = $5
		RETURNING `+collaborationColumns,
		string(workflow.StatusScheduled), date, prepDate, d.ID, string(workflow.StatusIntakeCompleted)))
	if err != nil {
		return nil, s.checkStatusConflict(ctx, d.ID, workflow.StatusIntakeCompleted, err)
	}

	from := workflow.StatusIntakeCompleted
	if err := insertHistory(ctx, tx, d.ID, &from, workflow.StatusScheduled, &actorID, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &ScheduleResult{Collaboration: c}, nil
}

// CompleteIntake stores the guest's profile, links it to the collaboration and,
// once the profile is complete, moves invited to intake_completed.
func (s *CollaborationService) CompleteIntake(ctx context.Context, token string, actorID uuid.UUID, in IntakeInput) (*IntakeResult, error) {
	d, err := s.GetByInviteToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckTransition(d.Status, workflow.StatusIntakeCompleted); err != nil {
		return nil, err
	}
	if d.GuestUserID != nil && *d.GuestUserID != actorID {
		return nil, ErrNotParticipant
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p models.GuestProfile
	topics := in.Topics
	if topics == nil {
		topics = []string{}
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO guest_profiles (user_id, name, email, bio, topics, website_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, bio = EXCLUDED.bio,
		    topics = EXCLUDED.topics, website_url = EXCLUDED.website_url, updated_at = NOW()
		RETURNING id, user_id, name, email, bio, topics, website_url, created_at, updated_at
	`, actorID, in.Name, in.Email, nullableString(strings.TrimSpace(in.Bio)), topics, in.WebsiteURL).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Bio, &p.Topics, &p.WebsiteURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save guest profile: %w", err)
	}

	c, err := scanCollaboration(tx.QueryRow(ctx, `
		UPDATE collaborations SET guest_profile_id = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+collaborationColumns, p.ID, d.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to link guest profile: %w", err)
	}

	result := &IntakeResult{Collaboration: c, Profile: &p}
	if workflow.IntakeSatisfied(p.BioText(), p.UserID, actorID) {
		c, err = transition(ctx, tx, d.ID, workflow.StatusInvited, workflow.StatusIntakeCompleted)
		if err != nil {
			return nil, s.checkStatusConflict(ctx, d.ID, workflow.StatusInvited, err)
		}
		from := workflow.StatusInvited
		if err := insertHistory(ctx, tx, d.ID, &from, workflow.StatusIntakeCompleted, &actorID, nil); err != nil {
			return nil, err
		}
		result.Collaboration = c
		result.Transitioned = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (s *CollaborationService) History(ctx context.Context, id uuid.UUID) ([]models.StatusHistoryEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, collaboration_id, old_status::text, new_status::text, changed_by, notes, created_at
		FROM status_history WHERE collaboration_id = $1
		ORDER BY created_at DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.StatusHistoryEntry
	for rows.Next() {
		var e models.StatusHistoryEntry
		var oldStatus *string
		var newStatus string
		if err := rows.Scan(&e.ID, &e.CollaborationID, &oldStatus, &newStatus, &e.ChangedBy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if oldStatus != nil {
			o := models.StatusFromDB(*oldStatus)
			e.OldStatus = &o
		}
		e.NewStatus = models.StatusFromDB(newStatus)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
