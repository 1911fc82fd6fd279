package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
)

// SeriesRepository handles event series database operations
type SeriesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSeriesRepository creates a new series repository
func NewSeriesRepository(db *sql.DB, logger *zap.Logger) *SeriesRepository {
	return &SeriesRepository{db: db, logger: logger}
}

// Create creates a new event series
func (r *SeriesRepository) Create(tx *sql.Tx, series *models.EventSeries) error {
	series.CreatedAt = time.Now().UTC()

	result, err := conn(r.db, tx).Exec(`
		INSERT INTO event_series (ref_code, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`, series.RefCode, series.Name, series.Description, series.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create series", zap.Error(err))
		return fmt.Errorf("failed to create series: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	series.ID = id
	return nil
}

// GetByID retrieves a series by ID, or nil if it does not exist
func (r *SeriesRepository) GetByID(id int64) (*models.EventSeries, error) {
	var series models.EventSeries
	err := r.db.QueryRow(`
		SELECT id, ref_code, name, description, created_at
		FROM event_series WHERE id = ?
	`, id).Scan(&series.ID, &series.RefCode, &series.Name, &series.Description, &series.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get series by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	return &series, nil
}

// List retrieves all series, newest first
func (r *SeriesRepository) List(limit, offset int) ([]*models.EventSeries, error) {
	rows, err := r.db.Query(`
		SELECT id, ref_code, name, description, created_at
		FROM event_series
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list series", zap.Error(err))
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	var series []*models.EventSeries
	for rows.Next() {
		var s models.EventSeries
		if err := rows.Scan(&s.ID, &s.RefCode, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		series = append(series, &s)
	}
	return series, rows.Err()
}
