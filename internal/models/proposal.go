package models

import (
	"time"

	"github.com/hostelhq/mega-events/internal/workflow"
)

// Proposal is the event plan submitted for approval. Exactly one proposal
// exists per occurrence; edits mutate it in place while the status allows.
type Proposal struct {
	ID           int64 `json:"id"`
	OccurrenceID int64 `json:"occurrence_id"`

	// ProposalDetails holds programme metadata as a JSON blob
	ProposalDetails string `json:"proposal_details"`

	// Source-of-funds breakdown. TotalExpectedIncome is always the sum of
	// these four fields, recomputed server-side on every write.
	FundingSponsorship  float64 `json:"funding_sponsorship"`
	FundingInstitute    float64 `json:"funding_institute"`
	FundingRegistration float64 `json:"funding_registration"`
	FundingOther        float64 `json:"funding_other"`

	// RegistrationFees holds the fee schedule per participant category (JSON)
	RegistrationFees string `json:"registration_fees"`

	TotalExpectedIncome float64 `json:"total_expected_income"`
	TotalExpenditure    float64 `json:"total_expenditure"`

	Status workflow.ProposalStatus `json:"status"`

	// Documents holds supporting document URLs (JSON array)
	Documents string `json:"documents"`

	// Version backs the optimistic concurrency check on status transitions
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpectedIncome returns the sum of the four source-of-funds fields
func (p *Proposal) ExpectedIncome() float64 {
	return p.FundingSponsorship + p.FundingInstitute + p.FundingRegistration + p.FundingOther
}
