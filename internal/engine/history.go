package engine

import (
	"context"
	"fmt"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// ProposalHistory returns the full audit trail of an occurrence's proposal
// in timestamp order
func (e *Engine) ProposalHistory(ctx context.Context, occurrenceID int64) ([]*models.ApprovalEvent, error) {
	proposal, err := e.proposals.GetByOccurrenceID(nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, fmt.Errorf("%w: no proposal for occurrence %d", workflow.ErrNotFound, occurrenceID)
	}
	return e.events.ListBySubject(workflow.SubjectProposal, proposal.ID)
}

// ExpenseHistory returns the full audit trail of an occurrence's expense
// report in timestamp order
func (e *Engine) ExpenseHistory(ctx context.Context, occurrenceID int64) ([]*models.ApprovalEvent, error) {
	expense, err := e.expenses.GetByOccurrenceID(nil, occurrenceID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: no expense report for occurrence %d", workflow.ErrNotFound, occurrenceID)
	}
	return e.events.ListBySubject(workflow.SubjectExpense, expense.ID)
}

// AwaitingProposalApprovers resolves the role(s) currently expected to act
// on a proposal, so clients never re-derive the status-to-approver mapping.
// In the parallel phase every open branch is awaited; nil means no action
// is possible.
func AwaitingProposalApprovers(status workflow.ProposalStatus, stages []*models.ApprovalStage) []workflow.Role {
	if status.InParallelPhase() {
		var roles []workflow.Role
		for _, s := range openStages(stages) {
			roles = append(roles, s.Role)
		}
		return roles
	}
	if role, ok := workflow.RequiredProposalApprover(status); ok {
		return []workflow.Role{role}
	}
	return nil
}

// AwaitingExpenseApprovers resolves the role(s) currently expected to act
// on an expense report
func AwaitingExpenseApprovers(status workflow.ExpenseStatus, stages []*models.ApprovalStage) []workflow.Role {
	if status.InParallelPhase() {
		var roles []workflow.Role
		for _, s := range openStages(stages) {
			roles = append(roles, s.Role)
		}
		return roles
	}
	if role, ok := workflow.RequiredExpenseApprover(status); ok {
		return []workflow.Role{role}
	}
	return nil
}
