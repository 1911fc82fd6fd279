// Package authz holds the capability checks the approval engine runs once
// per decision. The engine is the sole authority; any client-side gating is
// an optimistic UI hint only.
package authz

import (
	"fmt"

	"github.com/hostelhq/mega-events/internal/workflow"
)

// Actor is the authorization context of one request, resolved by the
// upstream policy store and forwarded with the request.
type Actor struct {
	Role    string
	SubRole string

	// MaxApprovalAmount is the actor's approval ceiling. Nil means the
	// actor carries no ceiling and the amount check passes unconditionally.
	MaxApprovalAmount *float64
}

// IsSuperAdmin reports whether the actor carries the top-level override
// role. Super Admin bypasses the role-match check but NOT the approval
// ceiling.
func (a Actor) IsSuperAdmin() bool {
	return workflow.Role(a.Role) == workflow.RoleSuperAdmin
}

// CanActAs reports whether the actor may record a decision requiring the
// given approver role.
func (a Actor) CanActAs(required workflow.Role) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return workflow.Role(a.SubRole) == required
}

// CheckRole returns ErrForbidden unless the actor may act as the required
// approver.
func CheckRole(actor Actor, required workflow.Role) error {
	if actor.CanActAs(required) {
		return nil
	}
	return fmt.Errorf("%w: awaiting decision from %s", workflow.ErrForbidden, required)
}

// CheckCeiling returns ErrForbidden if the subject's total monetary value
// exceeds the actor's configured approval ceiling. Super Admin is not
// exempt from this check.
func CheckCeiling(actor Actor, totalExpenditure float64) error {
	if actor.MaxApprovalAmount == nil {
		return nil
	}
	if totalExpenditure > *actor.MaxApprovalAmount {
		return fmt.Errorf("%w: amount exceeds your approval limit of %.2f",
			workflow.ErrForbidden, *actor.MaxApprovalAmount)
	}
	return nil
}
