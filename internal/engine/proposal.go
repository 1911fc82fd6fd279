package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/authz"
	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
	"github.com/hostelhq/mega-events/pkg/utils"
)

// ProposalInput holds the submitter-editable proposal fields. The expected
// income total is never taken from the caller; it is recomputed from the
// four source-of-funds fields on every write.
type ProposalInput struct {
	ProposalDetails     string
	FundingSponsorship  float64
	FundingInstitute    float64
	FundingRegistration float64
	FundingOther        float64
	RegistrationFees    string
	TotalExpenditure    float64
	Documents           string
}

func (in ProposalInput) validate() error {
	for _, amount := range []float64{
		in.FundingSponsorship, in.FundingInstitute,
		in.FundingRegistration, in.FundingOther, in.TotalExpenditure,
	} {
		if err := utils.ValidateAmount(amount); err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
	}
	return nil
}

func (in ProposalInput) apply(p *models.Proposal) {
	p.ProposalDetails = in.ProposalDetails
	p.FundingSponsorship = in.FundingSponsorship
	p.FundingInstitute = in.FundingInstitute
	p.FundingRegistration = in.FundingRegistration
	p.FundingOther = in.FundingOther
	p.RegistrationFees = in.RegistrationFees
	p.TotalExpenditure = in.TotalExpenditure
	p.Documents = in.Documents
	p.TotalExpectedIncome = p.ExpectedIncome()
}

// CreateProposal creates the proposal owned by an occurrence, in draft
// status. Exactly one proposal may exist per occurrence.
func (e *Engine) CreateProposal(ctx context.Context, occurrenceID int64, input ProposalInput) (*models.Proposal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	proposal := &models.Proposal{
		OccurrenceID: occurrenceID,
		Status:       workflow.ProposalDraft,
	}
	input.apply(proposal)

	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		occ, err := e.occurrences.GetByID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if occ == nil {
			return fmt.Errorf("%w: occurrence %d", workflow.ErrNotFound, occurrenceID)
		}

		existing, err := e.proposals.GetByOccurrenceID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: a proposal already exists for this occurrence", workflow.ErrValidation)
		}

		if err := e.proposals.Create(tx, proposal); err != nil {
			return err
		}
		return e.occurrences.UpdateStatus(tx, occurrenceID, proposal.Status.String())
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Created proposal",
		zap.Int64("proposal_id", proposal.ID),
		zap.Int64("occurrence_id", occurrenceID))
	return proposal, nil
}

// UpdateProposal mutates the proposal in place. Permitted only while the
// submitter holds control (draft or revision_requested).
func (e *Engine) UpdateProposal(ctx context.Context, occurrenceID int64, input ProposalInput) (*models.Proposal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var proposal *models.Proposal
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		p, err := e.loadProposal(tx, occurrenceID)
		if err != nil {
			return err
		}
		if !p.Status.IsEditable() {
			return fmt.Errorf("%w: proposal can only be edited in %s or %s status",
				workflow.ErrForbidden, workflow.ProposalDraft, workflow.ProposalRevisionRequested)
		}

		input.apply(p)
		if err := e.proposals.Update(tx, p); err != nil {
			return err
		}
		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

// SubmitProposal moves a draft into the approval chain, or re-enters a
// revised proposal. First submission goes to the President; resubmission
// after a revision request re-enters at Student Affairs, since the
// President-level review happens once per submission.
func (e *Engine) SubmitProposal(ctx context.Context, occurrenceID int64, actor authz.Actor) (*models.Proposal, error) {
	var proposal *models.Proposal
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		p, err := e.loadProposal(tx, occurrenceID)
		if err != nil {
			return err
		}

		var next workflow.ProposalStatus
		var decision workflow.Decision
		switch p.Status {
		case workflow.ProposalDraft:
			next = workflow.ProposalPendingPresident
			decision = workflow.DecisionSubmitted
		case workflow.ProposalRevisionRequested:
			next = workflow.ProposalPendingStudentAffairs
			decision = workflow.DecisionResubmitted
		default:
			return fmt.Errorf("%w: proposal cannot be submitted while %s", workflow.ErrForbidden, p.Status)
		}

		if err := e.proposals.UpdateStatus(tx, p.ID, next, p.Version); err != nil {
			return err
		}

		event := &models.ApprovalEvent{
			SubjectType:  workflow.SubjectProposal,
			SubjectID:    p.ID,
			ActorRole:    actor.Role,
			ActorSubRole: actor.SubRole,
			Decision:     decision,
		}
		if err := e.events.Create(tx, event); err != nil {
			return err
		}
		if err := e.occurrences.UpdateStatus(tx, p.OccurrenceID, next.String()); err != nil {
			return err
		}

		p.Status = next
		p.Version++
		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Proposal submitted",
		zap.Int64("proposal_id", proposal.ID),
		zap.String("status", proposal.Status.String()))
	return proposal, nil
}

// ApproveProposal records an approval at the proposal's current stage.
// At the Student Affairs stage nextStages selects the parallel review
// branches; in the parallel phase stageName lets a Super Admin name the
// branch being decided.
func (e *Engine) ApproveProposal(ctx context.Context, occurrenceID int64, actor authz.Actor, comments string, nextStages []string, stageName string) (*models.Proposal, error) {
	return e.decideProposal(ctx, occurrenceID, actor, workflow.DecisionApproved, comments, nextStages, stageName)
}

// RejectProposal rejects the proposal. Rejection is terminal; a new
// occurrence must be created to retry.
func (e *Engine) RejectProposal(ctx context.Context, occurrenceID int64, actor authz.Actor, comments string, stageName string) (*models.Proposal, error) {
	return e.decideProposal(ctx, occurrenceID, actor, workflow.DecisionRejected, comments, nil, stageName)
}

// RequestProposalRevision hands control back to the submitter
func (e *Engine) RequestProposalRevision(ctx context.Context, occurrenceID int64, actor authz.Actor, comments string) (*models.Proposal, error) {
	return e.decideProposal(ctx, occurrenceID, actor, workflow.DecisionRevisionRequested, comments, nil, "")
}

// GetProposal returns the proposal with its fan-out stage records
func (e *Engine) GetProposal(ctx context.Context, occurrenceID int64) (*models.Proposal, []*models.ApprovalStage, error) {
	proposal, err := e.proposals.GetByOccurrenceID(nil, occurrenceID)
	if err != nil {
		return nil, nil, err
	}
	if proposal == nil {
		return nil, nil, fmt.Errorf("%w: no proposal for occurrence %d", workflow.ErrNotFound, occurrenceID)
	}

	stages, err := e.stages.ListBySubject(nil, workflow.SubjectProposal, proposal.ID)
	if err != nil {
		return nil, nil, err
	}
	return proposal, stages, nil
}

func (e *Engine) loadProposal(tx *sql.Tx, occurrenceID int64) (*models.Proposal, error) {
	p, err := e.proposals.GetByOccurrenceID(tx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: no proposal for occurrence %d", workflow.ErrNotFound, occurrenceID)
	}
	return p, nil
}

func (e *Engine) decideProposal(ctx context.Context, occurrenceID int64, actor authz.Actor, decision workflow.Decision, comments string, nextStages []string, stageName string) (*models.Proposal, error) {
	if decision != workflow.DecisionApproved {
		if err := utils.ValidateComment(comments, minCommentLength); err != nil {
			return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
	}

	var proposal *models.Proposal
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		p, err := e.loadProposal(tx, occurrenceID)
		if err != nil {
			return err
		}

		if _, actionable := workflow.RequiredProposalApprover(p.Status); !actionable {
			return fmt.Errorf("%w: no decision possible while proposal is %s", workflow.ErrForbidden, p.Status)
		}

		var (
			next         workflow.ProposalStatus
			decidedStage *models.ApprovalStage
			nextStagesJS string
		)

		if p.Status.InParallelPhase() {
			all, err := e.stages.ListBySubject(tx, workflow.SubjectProposal, p.ID)
			if err != nil {
				return err
			}
			open := openStages(all)

			decidedStage, err = resolveStage(open, actor.SubRole, actor.IsSuperAdmin(), stageName)
			if err != nil {
				return err
			}
			if err := authz.CheckCeiling(actor, p.TotalExpenditure); err != nil {
				return err
			}

			next, err = e.decideProposalStage(tx, p, all, decidedStage, decision)
			if err != nil {
				return err
			}
		} else {
			required, _ := workflow.RequiredProposalApprover(p.Status)
			if err := authz.CheckRole(actor, required); err != nil {
				return err
			}
			if err := authz.CheckCeiling(actor, p.TotalExpenditure); err != nil {
				return err
			}

			next, nextStagesJS, err = e.decideProposalLinear(tx, p, decision, nextStages)
			if err != nil {
				return err
			}
		}

		if err := e.proposals.UpdateStatus(tx, p.ID, next, p.Version); err != nil {
			return err
		}

		event := &models.ApprovalEvent{
			SubjectType:  workflow.SubjectProposal,
			SubjectID:    p.ID,
			ActorRole:    actor.Role,
			ActorSubRole: actor.SubRole,
			Decision:     decision,
			Comments:     comments,
			NextStages:   nextStagesJS,
		}
		if err := e.events.Create(tx, event); err != nil {
			return err
		}
		if err := e.occurrences.UpdateStatus(tx, p.OccurrenceID, next.String()); err != nil {
			return err
		}

		p.Status = next
		p.Version++
		proposal = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Proposal decision recorded",
		zap.Int64("proposal_id", proposal.ID),
		zap.String("decision", decision.String()),
		zap.String("status", proposal.Status.String()),
		zap.String("actor_role", actor.Role),
		zap.String("actor_sub_role", actor.SubRole))
	return proposal, nil
}

// decideProposalLinear handles the president and student-affairs stages.
// A student-affairs approval fans out into parallel stage records; the
// selection is invalid anywhere else in the chain.
func (e *Engine) decideProposalLinear(tx *sql.Tx, p *models.Proposal, decision workflow.Decision, nextStages []string) (workflow.ProposalStatus, string, error) {
	switch decision {
	case workflow.DecisionRejected:
		return workflow.ProposalRejected, "", nil

	case workflow.DecisionRevisionRequested:
		return workflow.ProposalRevisionRequested, "", nil

	case workflow.DecisionApproved:
		if p.Status == workflow.ProposalPendingPresident {
			if len(nextStages) > 0 {
				return "", "", fmt.Errorf("%w: next stages may only be selected at the student affairs stage", workflow.ErrValidation)
			}
			return workflow.ProposalPendingStudentAffairs, "", nil
		}

		// Student Affairs fan-out
		roles, err := parseNextStages(nextStages)
		if err != nil {
			return "", "", err
		}
		for _, role := range roles {
			stage := &models.ApprovalStage{
				SubjectType: workflow.SubjectProposal,
				SubjectID:   p.ID,
				Role:        role,
			}
			if err := e.stages.Create(tx, stage); err != nil {
				return "", "", err
			}
		}

		status, _ := workflow.ProposalStageStatus(roles[0])
		js, err := json.Marshal(roles)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal next stages: %w", err)
		}
		return status, string(js), nil
	}

	return "", "", fmt.Errorf("%w: unknown decision %q", workflow.ErrValidation, decision)
}

// decideProposalStage resolves one parallel branch. The terminal
// aggregation runs here, inside the caller's transaction, so only the true
// last branch performs the proposal_approved transition.
func (e *Engine) decideProposalStage(tx *sql.Tx, p *models.Proposal, all []*models.ApprovalStage, stage *models.ApprovalStage, decision workflow.Decision) (workflow.ProposalStatus, error) {
	switch decision {
	case workflow.DecisionRejected:
		// First rejection wins regardless of sibling branches.
		if err := e.stages.Decide(tx, stage.ID, models.StageRejected); err != nil {
			return "", err
		}
		return workflow.ProposalRejected, nil

	case workflow.DecisionRevisionRequested:
		// A revision dissolves the fan-out; resubmission re-enters at
		// Student Affairs and may fan out afresh.
		if err := e.stages.DeleteBySubject(tx, workflow.SubjectProposal, p.ID); err != nil {
			return "", err
		}
		return workflow.ProposalRevisionRequested, nil

	case workflow.DecisionApproved:
		if err := e.stages.Decide(tx, stage.ID, models.StageApproved); err != nil {
			return "", err
		}
		stage.Status = models.StageApproved

		remaining := openStages(all)
		if len(remaining) == 0 {
			if !allStagesApproved(all) {
				return workflow.ProposalRejected, nil
			}
			return workflow.ProposalApproved, nil
		}
		status, _ := workflow.ProposalStageStatus(remaining[0].Role)
		return status, nil
	}

	return "", fmt.Errorf("%w: unknown decision %q", workflow.ErrValidation, decision)
}
