package models

import "time"

// EventSeries represents a recurring mega-event series
type EventSeries struct {
	ID          int64         `json:"id"`
	RefCode     string        `json:"ref_code"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	Occurrences []*Occurrence `json:"occurrences,omitempty"`
}

// Occurrence represents one scheduled instance of a mega-event series.
// Its status mirrors the proposal/expense workflow status and is updated
// only by the approval engine. Occurrences are never deleted, only
// superseded by new occurrences in the same series.
type Occurrence struct {
	ID                 int64     `json:"id"`
	SeriesID           int64     `json:"series_id"`
	RefCode            string    `json:"ref_code"`
	Title              string    `json:"title"`
	ScheduledStartDate time.Time `json:"scheduled_start_date"`
	ScheduledEndDate   time.Time `json:"scheduled_end_date"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}
