package workflow

// SubjectType identifies which approval workflow a record belongs to
type SubjectType string

const (
	SubjectProposal SubjectType = "proposal"
	SubjectExpense  SubjectType = "expense"
)

// String returns the string representation of the subject type
func (s SubjectType) String() string {
	return string(s)
}

// ProposalStatus represents a proposal's position in the approval lifecycle
type ProposalStatus string

const (
	ProposalDraft                 ProposalStatus = "draft"
	ProposalPendingPresident      ProposalStatus = "pending_president"
	ProposalPendingStudentAffairs ProposalStatus = "pending_student_affairs"
	ProposalPendingJointRegistrar ProposalStatus = "pending_joint_registrar"
	ProposalPendingAssociateDean  ProposalStatus = "pending_associate_dean"
	ProposalPendingDean           ProposalStatus = "pending_dean"
	ProposalApproved              ProposalStatus = "proposal_approved"
	ProposalRejected              ProposalStatus = "rejected"
	ProposalRevisionRequested     ProposalStatus = "revision_requested"
)

var validProposalStatuses = map[ProposalStatus]bool{
	ProposalDraft:                 true,
	ProposalPendingPresident:      true,
	ProposalPendingStudentAffairs: true,
	ProposalPendingJointRegistrar: true,
	ProposalPendingAssociateDean:  true,
	ProposalPendingDean:           true,
	ProposalApproved:              true,
	ProposalRejected:              true,
	ProposalRevisionRequested:     true,
}

var terminalProposalStatuses = map[ProposalStatus]bool{
	ProposalApproved: true,
	ProposalRejected: true,
}

// editableProposalStatuses are the statuses in which the submitter may still
// edit the proposal. Revision requests hand control back to the submitter.
var editableProposalStatuses = map[ProposalStatus]bool{
	ProposalDraft:             true,
	ProposalRevisionRequested: true,
}

// IsValid returns true if the status is a defined proposal status
func (s ProposalStatus) IsValid() bool {
	return validProposalStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s ProposalStatus) IsTerminal() bool {
	return terminalProposalStatuses[s]
}

// IsEditable returns true if the submitter may still modify the proposal
func (s ProposalStatus) IsEditable() bool {
	return editableProposalStatuses[s]
}

// String returns the string representation of the status
func (s ProposalStatus) String() string {
	return string(s)
}

// ExpenseStatus represents an expense report's position in the approval
// lifecycle. The expense workflow has no president stage and no
// revision-request action.
type ExpenseStatus string

const (
	ExpensePending               ExpenseStatus = "pending"
	ExpensePendingJointRegistrar ExpenseStatus = "pending_joint_registrar"
	ExpensePendingAssociateDean  ExpenseStatus = "pending_associate_dean"
	ExpensePendingDean           ExpenseStatus = "pending_dean"
	ExpenseApproved              ExpenseStatus = "approved"
	ExpenseRejected              ExpenseStatus = "rejected"
)

var validExpenseStatuses = map[ExpenseStatus]bool{
	ExpensePending:               true,
	ExpensePendingJointRegistrar: true,
	ExpensePendingAssociateDean:  true,
	ExpensePendingDean:           true,
	ExpenseApproved:              true,
	ExpenseRejected:              true,
}

var terminalExpenseStatuses = map[ExpenseStatus]bool{
	ExpenseApproved: true,
	ExpenseRejected: true,
}

// editableExpenseStatuses are the statuses in which the submitter may still
// edit the expense report. Once the first decision lands, the report is
// locked; there is no revision-request path back.
var editableExpenseStatuses = map[ExpenseStatus]bool{
	ExpensePending: true,
}

// IsValid returns true if the status is a defined expense status
func (s ExpenseStatus) IsValid() bool {
	return validExpenseStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s ExpenseStatus) IsTerminal() bool {
	return terminalExpenseStatuses[s]
}

// IsEditable returns true if the submitter may still modify the report
func (s ExpenseStatus) IsEditable() bool {
	return editableExpenseStatuses[s]
}

// String returns the string representation of the status
func (s ExpenseStatus) String() string {
	return string(s)
}

// Decision represents the action an approver records on a subject
type Decision string

const (
	DecisionApproved          Decision = "approved"
	DecisionRejected          Decision = "rejected"
	DecisionRevisionRequested Decision = "revision_requested"
	DecisionSubmitted         Decision = "submitted"
	DecisionResubmitted       Decision = "resubmitted"
)

// String returns the string representation of the decision
func (d Decision) String() string {
	return string(d)
}
