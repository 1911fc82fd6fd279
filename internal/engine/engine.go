// Package engine implements the multi-stage approval workflow for mega
// event proposals and expense reports. Every decision is recorded in a
// single transaction: authority and ceiling checks against the current
// status, the optimistic-version status write, any fan-out stage records
// and exactly one audit event commit or roll back together.
package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/repository"
	"github.com/hostelhq/mega-events/internal/workflow"
	"github.com/hostelhq/mega-events/pkg/database"
)

// minCommentLength is the business-rule floor for rejection and
// revision-request comments
const minCommentLength = 10

// Engine orchestrates the proposal and expense approval workflows
type Engine struct {
	db          *database.DB
	series      *repository.SeriesRepository
	occurrences *repository.OccurrenceRepository
	proposals   *repository.ProposalRepository
	expenses    *repository.ExpenseRepository
	stages      *repository.StageRepository
	events      *repository.EventRepository
	logger      *zap.Logger
}

// New creates a new approval engine
func New(
	db *database.DB,
	series *repository.SeriesRepository,
	occurrences *repository.OccurrenceRepository,
	proposals *repository.ProposalRepository,
	expenses *repository.ExpenseRepository,
	stages *repository.StageRepository,
	events *repository.EventRepository,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		db:          db,
		series:      series,
		occurrences: occurrences,
		proposals:   proposals,
		expenses:    expenses,
		stages:      stages,
		events:      events,
		logger:      logger,
	}
}

// parseNextStages validates a fan-out stage selection. The set must be a
// non-empty subset of the three parallel review roles; the result is
// deduplicated and sorted by branch priority.
func parseNextStages(names []string) ([]workflow.Role, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: select at least one next approval stage", workflow.ErrValidation)
	}

	seen := make(map[workflow.Role]bool, len(names))
	var roles []workflow.Role
	for _, name := range names {
		role := workflow.Role(name)
		if !workflow.IsStageRole(role) {
			return nil, fmt.Errorf("%w: invalid approval stage %q", workflow.ErrValidation, name)
		}
		if seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}

	sort.Slice(roles, func(i, j int) bool {
		return workflow.StagePriority(roles[i]) < workflow.StagePriority(roles[j])
	})
	return roles, nil
}

// openStages filters a subject's stage records down to the undecided ones,
// in branch-priority order
func openStages(stages []*models.ApprovalStage) []*models.ApprovalStage {
	var open []*models.ApprovalStage
	for _, s := range stages {
		if s.Status == models.StagePending {
			open = append(open, s)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return workflow.StagePriority(open[i].Role) < workflow.StagePriority(open[j].Role)
	})
	return open
}

// allStagesApproved reports whether every stage record of a fan-out has
// independently recorded approval
func allStagesApproved(stages []*models.ApprovalStage) bool {
	for _, s := range stages {
		if s.Status != models.StageApproved {
			return false
		}
	}
	return len(stages) > 0
}

// resolveStage picks the open branch an actor is deciding. Regular
// approvers are matched to their own branch by sub-role. A Super Admin may
// decide any branch but must name it when more than one is open.
func resolveStage(open []*models.ApprovalStage, actorSubRole string, superAdmin bool, stageName string) (*models.ApprovalStage, error) {
	if superAdmin {
		if stageName == "" {
			if len(open) == 1 {
				return open[0], nil
			}
			return nil, fmt.Errorf("%w: specify which approval stage to decide", workflow.ErrValidation)
		}
		role := workflow.Role(stageName)
		if !workflow.IsStageRole(role) {
			return nil, fmt.Errorf("%w: invalid approval stage %q", workflow.ErrValidation, stageName)
		}
		for _, s := range open {
			if s.Role == role {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: no pending approval stage for %s", workflow.ErrValidation, role)
	}

	for _, s := range open {
		if s.Role == workflow.Role(actorSubRole) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: awaiting decision from %s", workflow.ErrForbidden, awaitingRoles(open))
}

func awaitingRoles(open []*models.ApprovalStage) string {
	if len(open) == 0 {
		return "no pending stage"
	}
	out := open[0].Role.String()
	for _, s := range open[1:] {
		out += ", " + s.Role.String()
	}
	return out
}
