package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/authz"
	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
	"github.com/hostelhq/mega-events/pkg/utils"
)

// BillInput is one bill line of an expense report
type BillInput struct {
	Description   string
	Amount        float64
	BillNumber    string
	BillDate      *time.Time
	Vendor        string
	AttachmentURL string
}

// ExpenseInput holds the fields for filing an expense report
type ExpenseInput struct {
	Bills                  []BillInput
	EventReportDocumentURL string
	Notes                  string
}

// CreateExpense files the post-event expense report. Permitted only once
// the sibling proposal has reached proposal_approved; the report enters
// the workflow at the student-affairs stage immediately.
func (e *Engine) CreateExpense(ctx context.Context, occurrenceID int64, actor authz.Actor, input ExpenseInput) (*models.Expense, error) {
	if len(input.Bills) == 0 {
		return nil, fmt.Errorf("%w: at least one bill is required", workflow.ErrValidation)
	}
	for _, bill := range input.Bills {
		if err := utils.ValidateAmount(bill.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
	}

	expense := &models.Expense{
		OccurrenceID:           occurrenceID,
		EventReportDocumentURL: input.EventReportDocumentURL,
		Notes:                  utils.SanitizeString(input.Notes),
		Status:                 workflow.ExpensePending,
	}
	for _, bill := range input.Bills {
		expense.Bills = append(expense.Bills, &models.ExpenseBill{
			Description:   bill.Description,
			Amount:        bill.Amount,
			BillNumber:    bill.BillNumber,
			BillDate:      bill.BillDate,
			Vendor:        bill.Vendor,
			AttachmentURL: bill.AttachmentURL,
		})
	}
	expense.TotalExpenditure = expense.BillTotal()

	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		occ, err := e.occurrences.GetByID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if occ == nil {
			return fmt.Errorf("%w: occurrence %d", workflow.ErrNotFound, occurrenceID)
		}

		proposal, err := e.proposals.GetByOccurrenceID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if proposal == nil || proposal.Status != workflow.ProposalApproved {
			return fmt.Errorf("%w: proposal must be approved before filing an expense report", workflow.ErrValidation)
		}

		existing, err := e.expenses.GetByOccurrenceID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: an expense report already exists for this occurrence", workflow.ErrValidation)
		}

		if err := e.expenses.Create(tx, expense); err != nil {
			return err
		}

		event := &models.ApprovalEvent{
			SubjectType:  workflow.SubjectExpense,
			SubjectID:    expense.ID,
			ActorRole:    actor.Role,
			ActorSubRole: actor.SubRole,
			Decision:     workflow.DecisionSubmitted,
		}
		if err := e.events.Create(tx, event); err != nil {
			return err
		}
		return e.occurrences.UpdateStatus(tx, occurrenceID, expense.Status.String())
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Created expense report",
		zap.Int64("expense_id", expense.ID),
		zap.Int64("occurrence_id", occurrenceID),
		zap.Float64("total_expenditure", expense.TotalExpenditure))
	return expense, nil
}

// UpdateExpense rewrites the expense report in place, bills included.
// Permitted only before the first decision lands; unlike proposals there
// is no revision path that reopens editing.
func (e *Engine) UpdateExpense(ctx context.Context, occurrenceID int64, input ExpenseInput) (*models.Expense, error) {
	if len(input.Bills) == 0 {
		return nil, fmt.Errorf("%w: at least one bill is required", workflow.ErrValidation)
	}
	for _, bill := range input.Bills {
		if err := utils.ValidateAmount(bill.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
	}

	var expense *models.Expense
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		exp, err := e.expenses.GetByOccurrenceID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if exp == nil {
			return fmt.Errorf("%w: no expense report for occurrence %d", workflow.ErrNotFound, occurrenceID)
		}
		if !exp.Status.IsEditable() {
			return fmt.Errorf("%w: expense report can only be edited while %s",
				workflow.ErrForbidden, workflow.ExpensePending)
		}

		exp.EventReportDocumentURL = input.EventReportDocumentURL
		exp.Notes = utils.SanitizeString(input.Notes)
		exp.Bills = nil
		for _, bill := range input.Bills {
			exp.Bills = append(exp.Bills, &models.ExpenseBill{
				Description:   bill.Description,
				Amount:        bill.Amount,
				BillNumber:    bill.BillNumber,
				BillDate:      bill.BillDate,
				Vendor:        bill.Vendor,
				AttachmentURL: bill.AttachmentURL,
			})
		}
		exp.TotalExpenditure = exp.BillTotal()

		if err := e.expenses.Update(tx, exp); err != nil {
			return err
		}
		expense = exp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ApproveExpense records an approval at the expense report's current
// stage. At the entry stage nextStages selects the parallel review
// branches.
func (e *Engine) ApproveExpense(ctx context.Context, occurrenceID int64, actor authz.Actor, comments string, nextStages []string, stageName string) (*models.Expense, error) {
	return e.decideExpense(ctx, occurrenceID, actor, workflow.DecisionApproved, comments, nextStages, stageName)
}

// RejectExpense rejects the expense report. The expense workflow has no
// revision-request action; rejection is the only negative decision.
func (e *Engine) RejectExpense(ctx context.Context, occurrenceID int64, actor authz.Actor, comments string, stageName string) (*models.Expense, error) {
	return e.decideExpense(ctx, occurrenceID, actor, workflow.DecisionRejected, comments, nil, stageName)
}

// GetExpense returns the expense report with its fan-out stage records
func (e *Engine) GetExpense(ctx context.Context, occurrenceID int64) (*models.Expense, []*models.ApprovalStage, error) {
	expense, err := e.expenses.GetByOccurrenceID(nil, occurrenceID)
	if err != nil {
		return nil, nil, err
	}
	if expense == nil {
		return nil, nil, fmt.Errorf("%w: no expense report for occurrence %d", workflow.ErrNotFound, occurrenceID)
	}

	stages, err := e.stages.ListBySubject(nil, workflow.SubjectExpense, expense.ID)
	if err != nil {
		return nil, nil, err
	}
	return expense, stages, nil
}

func (e *Engine) decideExpense(ctx context.Context, occurrenceID int64, actor authz.Actor, decision workflow.Decision, comments string, nextStages []string, stageName string) (*models.Expense, error) {
	if decision == workflow.DecisionRejected {
		if err := utils.ValidateComment(comments, minCommentLength); err != nil {
			return nil, fmt.Errorf("%w: %v", workflow.ErrValidation, err)
		}
	}

	var expense *models.Expense
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		exp, err := e.expenses.GetByOccurrenceID(tx, occurrenceID)
		if err != nil {
			return err
		}
		if exp == nil {
			return fmt.Errorf("%w: no expense report for occurrence %d", workflow.ErrNotFound, occurrenceID)
		}

		if _, actionable := workflow.RequiredExpenseApprover(exp.Status); !actionable {
			return fmt.Errorf("%w: no decision possible while expense report is %s", workflow.ErrForbidden, exp.Status)
		}

		var (
			next         workflow.ExpenseStatus
			nextStagesJS string
		)

		if exp.Status.InParallelPhase() {
			all, err := e.stages.ListBySubject(tx, workflow.SubjectExpense, exp.ID)
			if err != nil {
				return err
			}

			stage, err := resolveStage(openStages(all), actor.SubRole, actor.IsSuperAdmin(), stageName)
			if err != nil {
				return err
			}
			if err := authz.CheckCeiling(actor, exp.TotalExpenditure); err != nil {
				return err
			}

			next, err = e.decideExpenseStage(tx, all, stage, decision)
			if err != nil {
				return err
			}
		} else {
			required, _ := workflow.RequiredExpenseApprover(exp.Status)
			if err := authz.CheckRole(actor, required); err != nil {
				return err
			}
			if err := authz.CheckCeiling(actor, exp.TotalExpenditure); err != nil {
				return err
			}

			next, nextStagesJS, err = e.decideExpenseEntry(tx, exp, decision, nextStages)
			if err != nil {
				return err
			}
		}

		if err := e.expenses.UpdateStatus(tx, exp.ID, next, exp.Version); err != nil {
			return err
		}

		event := &models.ApprovalEvent{
			SubjectType:  workflow.SubjectExpense,
			SubjectID:    exp.ID,
			ActorRole:    actor.Role,
			ActorSubRole: actor.SubRole,
			Decision:     decision,
			Comments:     comments,
			NextStages:   nextStagesJS,
		}
		if err := e.events.Create(tx, event); err != nil {
			return err
		}
		if err := e.occurrences.UpdateStatus(tx, exp.OccurrenceID, next.String()); err != nil {
			return err
		}

		exp.Status = next
		exp.Version++
		expense = exp
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Expense decision recorded",
		zap.Int64("expense_id", expense.ID),
		zap.String("decision", decision.String()),
		zap.String("status", expense.Status.String()),
		zap.String("actor_role", actor.Role),
		zap.String("actor_sub_role", actor.SubRole))
	return expense, nil
}

func (e *Engine) decideExpenseEntry(tx *sql.Tx, exp *models.Expense, decision workflow.Decision, nextStages []string) (workflow.ExpenseStatus, string, error) {
	switch decision {
	case workflow.DecisionRejected:
		return workflow.ExpenseRejected, "", nil

	case workflow.DecisionApproved:
		roles, err := parseNextStages(nextStages)
		if err != nil {
			return "", "", err
		}
		for _, role := range roles {
			stage := &models.ApprovalStage{
				SubjectType: workflow.SubjectExpense,
				SubjectID:   exp.ID,
				Role:        role,
			}
			if err := e.stages.Create(tx, stage); err != nil {
				return "", "", err
			}
		}

		status, _ := workflow.ExpenseStageStatus(roles[0])
		js, err := json.Marshal(roles)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal next stages: %w", err)
		}
		return status, string(js), nil
	}

	return "", "", fmt.Errorf("%w: unknown decision %q", workflow.ErrValidation, decision)
}

func (e *Engine) decideExpenseStage(tx *sql.Tx, all []*models.ApprovalStage, stage *models.ApprovalStage, decision workflow.Decision) (workflow.ExpenseStatus, error) {
	switch decision {
	case workflow.DecisionRejected:
		if err := e.stages.Decide(tx, stage.ID, models.StageRejected); err != nil {
			return "", err
		}
		return workflow.ExpenseRejected, nil

	case workflow.DecisionApproved:
		if err := e.stages.Decide(tx, stage.ID, models.StageApproved); err != nil {
			return "", err
		}
		stage.Status = models.StageApproved

		remaining := openStages(all)
		if len(remaining) == 0 {
			if !allStagesApproved(all) {
				return workflow.ExpenseRejected, nil
			}
			return workflow.ExpenseApproved, nil
		}
		status, _ := workflow.ExpenseStageStatus(remaining[0].Role)
		return status, nil
	}

	return "", fmt.Errorf("%w: unknown decision %q", workflow.ErrValidation, decision)
}
