package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// EventRepository handles the append-only approval audit trail. There is
// deliberately no update or delete operation.
type EventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

// Create appends one audit record
func (r *EventRepository) Create(tx *sql.Tx, event *models.ApprovalEvent) error {
	event.CreatedAt = time.Now().UTC()

	result, err := conn(r.db, tx).Exec(`
		INSERT INTO approval_events (
			subject_type, subject_id, actor_role, actor_sub_role,
			decision, comments, next_stages, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, event.SubjectType, event.SubjectID, event.ActorRole, event.ActorSubRole,
		event.Decision, event.Comments, event.NextStages, event.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create approval event", zap.Error(err))
		return fmt.Errorf("failed to create approval event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = id
	return nil
}

// ListBySubject retrieves the full audit trail for a subject in timestamp
// order (a point-in-time snapshot)
func (r *EventRepository) ListBySubject(subjectType workflow.SubjectType, subjectID int64) ([]*models.ApprovalEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, subject_type, subject_id, actor_role, actor_sub_role,
			decision, comments, next_stages, created_at
		FROM approval_events
		WHERE subject_type = ? AND subject_id = ?
		ORDER BY created_at ASC, id ASC
	`, subjectType, subjectID)
	if err != nil {
		r.logger.Error("Failed to list approval events",
			zap.String("subject_type", subjectType.String()),
			zap.Int64("subject_id", subjectID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list approval events: %w", err)
	}
	defer rows.Close()

	var events []*models.ApprovalEvent
	for rows.Next() {
		var e models.ApprovalEvent
		if err := rows.Scan(&e.ID, &e.SubjectType, &e.SubjectID, &e.ActorRole,
			&e.ActorSubRole, &e.Decision, &e.Comments, &e.NextStages, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
