package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// StageRepository handles parallel approval stage database operations
type StageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStageRepository creates a new stage repository
func NewStageRepository(db *sql.DB, logger *zap.Logger) *StageRepository {
	return &StageRepository{db: db, logger: logger}
}

// Create creates one pending stage record
func (r *StageRepository) Create(tx *sql.Tx, stage *models.ApprovalStage) error {
	stage.CreatedAt = time.Now().UTC()
	stage.Status = models.StagePending

	result, err := conn(r.db, tx).Exec(`
		INSERT INTO approval_stages (subject_type, subject_id, role, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, stage.SubjectType, stage.SubjectID, stage.Role, stage.Status, stage.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create approval stage",
			zap.String("subject_type", stage.SubjectType.String()),
			zap.Int64("subject_id", stage.SubjectID),
			zap.Error(err))
		return fmt.Errorf("failed to create approval stage: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	stage.ID = id
	return nil
}

// ListBySubject retrieves all stage records for a subject
func (r *StageRepository) ListBySubject(tx *sql.Tx, subjectType workflow.SubjectType, subjectID int64) ([]*models.ApprovalStage, error) {
	rows, err := conn(r.db, tx).Query(`
		SELECT id, subject_type, subject_id, role, status, decided_at, created_at
		FROM approval_stages
		WHERE subject_type = ? AND subject_id = ?
		ORDER BY id ASC
	`, subjectType, subjectID)
	if err != nil {
		r.logger.Error("Failed to list approval stages",
			zap.String("subject_type", subjectType.String()),
			zap.Int64("subject_id", subjectID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list approval stages: %w", err)
	}
	defer rows.Close()

	var stages []*models.ApprovalStage
	for rows.Next() {
		var s models.ApprovalStage
		var decidedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.SubjectType, &s.SubjectID, &s.Role,
			&s.Status, &decidedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval stage: %w", err)
		}
		if decidedAt.Valid {
			s.DecidedAt = &decidedAt.Time
		}
		stages = append(stages, &s)
	}
	return stages, rows.Err()
}

// DeleteBySubject clears a subject's stage records. Used when a revision
// request dissolves an in-flight fan-out so a later resubmission can fan
// out afresh; the audit trail keeps the full decision history.
func (r *StageRepository) DeleteBySubject(tx *sql.Tx, subjectType workflow.SubjectType, subjectID int64) error {
	_, err := conn(r.db, tx).Exec(`
		DELETE FROM approval_stages WHERE subject_type = ? AND subject_id = ?
	`, subjectType, subjectID)
	if err != nil {
		r.logger.Error("Failed to delete approval stages",
			zap.String("subject_type", subjectType.String()),
			zap.Int64("subject_id", subjectID),
			zap.Error(err))
		return fmt.Errorf("failed to delete approval stages: %w", err)
	}
	return nil
}

// Decide records a stage's approval or rejection. The pending-only guard
// stops a second decision on an already-resolved branch.
func (r *StageRepository) Decide(tx *sql.Tx, id int64, status string) error {
	result, err := conn(r.db, tx).Exec(`
		UPDATE approval_stages SET status = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`, status, time.Now().UTC(), id, models.StagePending)
	if err != nil {
		r.logger.Error("Failed to decide approval stage", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to decide approval stage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConflict
	}
	return nil
}
