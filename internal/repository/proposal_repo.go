package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// ProposalRepository handles proposal database operations
type ProposalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *sql.DB, logger *zap.Logger) *ProposalRepository {
	return &ProposalRepository{db: db, logger: logger}
}

// Create creates a new proposal
func (r *ProposalRepository) Create(tx *sql.Tx, p *models.Proposal) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	result, err := conn(r.db, tx).Exec(`
		INSERT INTO proposals (
			occurrence_id, proposal_details, funding_sponsorship,
			funding_institute, funding_registration, funding_other,
			registration_fees, total_expected_income, total_expenditure,
			status, documents, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.OccurrenceID, p.ProposalDetails, p.FundingSponsorship,
		p.FundingInstitute, p.FundingRegistration, p.FundingOther,
		p.RegistrationFees, p.TotalExpectedIncome, p.TotalExpenditure,
		p.Status, p.Documents, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create proposal", zap.Error(err))
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByOccurrenceID retrieves the proposal owned by an occurrence, or nil
func (r *ProposalRepository) GetByOccurrenceID(tx *sql.Tx, occurrenceID int64) (*models.Proposal, error) {
	var p models.Proposal
	err := conn(r.db, tx).QueryRow(`
		SELECT id, occurrence_id, proposal_details, funding_sponsorship,
			funding_institute, funding_registration, funding_other,
			registration_fees, total_expected_income, total_expenditure,
			status, documents, version, created_at, updated_at
		FROM proposals WHERE occurrence_id = ?
	`, occurrenceID).Scan(&p.ID, &p.OccurrenceID, &p.ProposalDetails,
		&p.FundingSponsorship, &p.FundingInstitute, &p.FundingRegistration,
		&p.FundingOther, &p.RegistrationFees, &p.TotalExpectedIncome,
		&p.TotalExpenditure, &p.Status, &p.Documents, &p.Version,
		&p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get proposal", zap.Int64("occurrence_id", occurrenceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return &p, nil
}

// Update rewrites the submitter-editable fields. The version check makes a
// concurrent status transition lose gracefully instead of silently racing.
func (r *ProposalRepository) Update(tx *sql.Tx, p *models.Proposal) error {
	result, err := conn(r.db, tx).Exec(`
		UPDATE proposals SET
			proposal_details = ?, funding_sponsorship = ?, funding_institute = ?,
			funding_registration = ?, funding_other = ?, registration_fees = ?,
			total_expected_income = ?, total_expenditure = ?, documents = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, p.ProposalDetails, p.FundingSponsorship, p.FundingInstitute,
		p.FundingRegistration, p.FundingOther, p.RegistrationFees,
		p.TotalExpectedIncome, p.TotalExpenditure, p.Documents,
		time.Now().UTC(), p.ID, p.Version)
	if err != nil {
		r.logger.Error("Failed to update proposal", zap.Int64("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConflict
	}
	p.Version++
	return nil
}

// UpdateStatus transitions the proposal, guarded by the optimistic version.
// Zero affected rows means a concurrent decision won the race.
func (r *ProposalRepository) UpdateStatus(tx *sql.Tx, id int64, status workflow.ProposalStatus, expectedVersion int64) error {
	result, err := conn(r.db, tx).Exec(`
		UPDATE proposals SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, status, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update proposal status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update proposal status: %w", err)
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
