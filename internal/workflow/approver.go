package workflow

// Role is an organizational approver role in the mega-events approval chain
type Role string

const (
	RoleSuperAdmin     Role = "Super Admin"
	RolePresident      Role = "President"
	RoleStudentAffairs Role = "Student Affairs"
	RoleJointRegistrar Role = "Joint Registrar SA"
	RoleAssociateDean  Role = "Associate Dean SA"
	RoleDean           Role = "Dean SA"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// proposalApprovers maps each proposal status to the role that must act on it.
// Draft and terminal statuses have no required approver.
var proposalApprovers = map[ProposalStatus]Role{
	ProposalPendingPresident:      RolePresident,
	ProposalPendingStudentAffairs: RoleStudentAffairs,
	ProposalPendingJointRegistrar: RoleJointRegistrar,
	ProposalPendingAssociateDean:  RoleAssociateDean,
	ProposalPendingDean:           RoleDean,
}

// expenseApprovers maps each expense status to the role that must act on it
var expenseApprovers = map[ExpenseStatus]Role{
	ExpensePending:               RoleStudentAffairs,
	ExpensePendingJointRegistrar: RoleJointRegistrar,
	ExpensePendingAssociateDean:  RoleAssociateDean,
	ExpensePendingDean:           RoleDean,
}

// RequiredProposalApprover returns the role that must decide a proposal in
// the given status. ok is false for draft and terminal statuses, where no
// action is possible.
func RequiredProposalApprover(status ProposalStatus) (Role, bool) {
	role, ok := proposalApprovers[status]
	return role, ok
}

// RequiredExpenseApprover returns the role that must decide an expense
// report in the given status. ok is false for terminal statuses.
func RequiredExpenseApprover(status ExpenseStatus) (Role, bool) {
	role, ok := expenseApprovers[status]
	return role, ok
}

// StageRoles lists the parallel review stages a Student Affairs approval may
// fan out to, in branch-priority order. While several branches are open the
// subject's scalar status reflects the highest-priority open branch.
var StageRoles = []Role{RoleJointRegistrar, RoleAssociateDean, RoleDean}

var stagePriority = map[Role]int{
	RoleJointRegistrar: 0,
	RoleAssociateDean:  1,
	RoleDean:           2,
}

// IsStageRole returns true if the role is a valid fan-out stage
func IsStageRole(r Role) bool {
	_, ok := stagePriority[r]
	return ok
}

// StagePriority returns the branch-priority index of a stage role.
// Lower values take precedence when deriving the subject's scalar status.
func StagePriority(r Role) int {
	p, ok := stagePriority[r]
	if !ok {
		return len(stagePriority)
	}
	return p
}

var proposalStageStatuses = map[Role]ProposalStatus{
	RoleJointRegistrar: ProposalPendingJointRegistrar,
	RoleAssociateDean:  ProposalPendingAssociateDean,
	RoleDean:           ProposalPendingDean,
}

var expenseStageStatuses = map[Role]ExpenseStatus{
	RoleJointRegistrar: ExpensePendingJointRegistrar,
	RoleAssociateDean:  ExpensePendingAssociateDean,
	RoleDean:           ExpensePendingDean,
}

// ProposalStageStatus returns the pending proposal status corresponding to
// an open fan-out branch owned by the given stage role.
func ProposalStageStatus(r Role) (ProposalStatus, bool) {
	s, ok := proposalStageStatuses[r]
	return s, ok
}

// ExpenseStageStatus returns the pending expense status corresponding to an
// open fan-out branch owned by the given stage role.
func ExpenseStageStatus(r Role) (ExpenseStatus, bool) {
	s, ok := expenseStageStatuses[r]
	return s, ok
}

// InParallelPhase reports whether a proposal status belongs to the fan-out
// review phase, where authority is resolved against open stage records.
func (s ProposalStatus) InParallelPhase() bool {
	switch s {
	case ProposalPendingJointRegistrar, ProposalPendingAssociateDean, ProposalPendingDean:
		return true
	}
	return false
}

// InParallelPhase reports whether an expense status belongs to the fan-out
// review phase.
func (s ExpenseStatus) InParallelPhase() bool {
	switch s {
	case ExpensePendingJointRegistrar, ExpensePendingAssociateDean, ExpensePendingDean:
		return true
	}
	return false
}
