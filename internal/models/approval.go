package models

import (
	"time"

	"github.com/hostelhq/mega-events/internal/workflow"
)

// Stage status constants
const (
	StagePending  = "pending"
	StageApproved = "approved"
	StageRejected = "rejected"
)

// ApprovalStage is a first-class parallel review branch created by a
// Student Affairs fan-out decision. The subject reaches its terminal
// approved status only when every stage for it is approved; a single
// rejected stage rejects the whole subject.
type ApprovalStage struct {
	ID          int64                `json:"id"`
	SubjectType workflow.SubjectType `json:"subject_type"`
	SubjectID   int64                `json:"subject_id"`
	Role        workflow.Role        `json:"role"`
	Status      string               `json:"status"`
	DecidedAt   *time.Time           `json:"decided_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ApprovalEvent is the immutable audit record of one decision. Rows are
// appended exactly once per decision and never updated or deleted.
type ApprovalEvent struct {
	ID           int64                `json:"id"`
	SubjectType  workflow.SubjectType `json:"subject_type"`
	SubjectID    int64                `json:"subject_id"`
	ActorRole    string               `json:"actor_role"`
	ActorSubRole string               `json:"actor_sub_role"`
	Decision     workflow.Decision    `json:"decision"`
	Comments     string               `json:"comments"`

	// NextStages holds the fanned-out stage roles as a JSON array; set
	// only on the Student Affairs approval that created the branches.
	NextStages string    `json:"next_stages,omitempty"`
	CreatedAt  time.Time `json:"timestamp"`
}
