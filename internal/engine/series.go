package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// SeriesInput holds the fields for creating an event series
type SeriesInput struct {
	Name        string
	Description string
}

// OccurrenceInput holds the fields for scheduling an occurrence
type OccurrenceInput struct {
	Title     string
	StartDate time.Time
	EndDate   time.Time
}

// CreateSeries creates a new mega-event series
func (e *Engine) CreateSeries(ctx context.Context, input SeriesInput) (*models.EventSeries, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: series name is required", workflow.ErrValidation)
	}

	series := &models.EventSeries{
		RefCode:     uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}

	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return e.series.Create(tx, series)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Created event series",
		zap.Int64("series_id", series.ID),
		zap.String("name", series.Name))
	return series, nil
}

// GetSeries returns a series with its occurrences
func (e *Engine) GetSeries(ctx context.Context, id int64) (*models.EventSeries, error) {
	series, err := e.series.GetByID(id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("%w: series %d", workflow.ErrNotFound, id)
	}

	occurrences, err := e.occurrences.ListBySeries(id)
	if err != nil {
		return nil, err
	}
	series.Occurrences = occurrences
	return series, nil
}

// ListSeries returns all series, newest first
func (e *Engine) ListSeries(ctx context.Context, limit, offset int) ([]*models.EventSeries, error) {
	return e.series.List(limit, offset)
}

// GetOccurrence retrieves one occurrence
func (e *Engine) GetOccurrence(ctx context.Context, id int64) (*models.Occurrence, error) {
	occ, err := e.occurrences.GetByID(nil, id)
	if err != nil {
		return nil, err
	}
	if occ == nil {
		return nil, fmt.Errorf("%w: occurrence %d", workflow.ErrNotFound, id)
	}
	return occ, nil
}

// CreateOccurrence schedules a new occurrence of a series. The occurrence
// starts in draft status; its status thereafter only mirrors the approval
// workflow.
func (e *Engine) CreateOccurrence(ctx context.Context, seriesID int64, input OccurrenceInput) (*models.Occurrence, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: occurrence title is required", workflow.ErrValidation)
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end date must not precede start date", workflow.ErrValidation)
	}

	series, err := e.series.GetByID(seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("%w: series %d", workflow.ErrNotFound, seriesID)
	}

	occ := &models.Occurrence{
		SeriesID:           seriesID,
		RefCode:            uuid.NewString(),
		Title:              strings.TrimSpace(input.Title),
		ScheduledStartDate: input.StartDate,
		ScheduledEndDate:   input.EndDate,
		Status:             workflow.ProposalDraft.String(),
	}

	err = e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return e.occurrences.Create(tx, occ)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Created occurrence",
		zap.Int64("occurrence_id", occ.ID),
		zap.Int64("series_id", seriesID),
		zap.String("title", occ.Title))
	return occ, nil
}
