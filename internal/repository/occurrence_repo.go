package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
)

// OccurrenceRepository handles occurrence database operations
type OccurrenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOccurrenceRepository creates a new occurrence repository
func NewOccurrenceRepository(db *sql.DB, logger *zap.Logger) *OccurrenceRepository {
	return &OccurrenceRepository{db: db, logger: logger}
}

// Create creates a new occurrence
func (r *OccurrenceRepository) Create(tx *sql.Tx, occ *models.Occurrence) error {
	occ.CreatedAt = time.Now().UTC()

	result, err := conn(r.db, tx).Exec(`
		INSERT INTO occurrences (
			series_id, ref_code, title, scheduled_start_date,
			scheduled_end_date, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, occ.SeriesID, occ.RefCode, occ.Title, occ.ScheduledStartDate,
		occ.ScheduledEndDate, occ.Status, occ.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create occurrence", zap.Error(err))
		return fmt.Errorf("failed to create occurrence: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	occ.ID = id
	return nil
}

// GetByID retrieves an occurrence by ID, or nil if it does not exist
func (r *OccurrenceRepository) GetByID(tx *sql.Tx, id int64) (*models.Occurrence, error) {
	var occ models.Occurrence
	err := conn(r.db, tx).QueryRow(`
		SELECT id, series_id, ref_code, title, scheduled_start_date,
			scheduled_end_date, status, created_at
		FROM occurrences WHERE id = ?
	`, id).Scan(&occ.ID, &occ.SeriesID, &occ.RefCode, &occ.Title,
		&occ.ScheduledStartDate, &occ.ScheduledEndDate, &occ.Status, &occ.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get occurrence by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}
	return &occ, nil
}

// ListBySeries retrieves all occurrences of a series in schedule order
func (r *OccurrenceRepository) ListBySeries(seriesID int64) ([]*models.Occurrence, error) {
	rows, err := r.db.Query(`
		SELECT id, series_id, ref_code, title, scheduled_start_date,
			scheduled_end_date, status, created_at
		FROM occurrences
		WHERE series_id = ?
		ORDER BY scheduled_start_date ASC, id ASC
	`, seriesID)
	if err != nil {
		r.logger.Error("Failed to list occurrences", zap.Int64("series_id", seriesID), zap.Error(err))
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []*models.Occurrence
	for rows.Next() {
		var occ models.Occurrence
		if err := rows.Scan(&occ.ID, &occ.SeriesID, &occ.RefCode, &occ.Title,
			&occ.ScheduledStartDate, &occ.ScheduledEndDate, &occ.Status, &occ.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan occurrence: %w", err)
		}
		occurrences = append(occurrences, &occ)
	}
	return occurrences, rows.Err()
}

// UpdateStatus writes the workflow status mirrored onto the occurrence
func (r *OccurrenceRepository) UpdateStatus(tx *sql.Tx, id int64, status string) error {
	_, err := conn(r.db, tx).Exec(`UPDATE occurrences SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		r.logger.Error("Failed to update occurrence status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update occurrence status: %w", err)
	}
	return nil
}
