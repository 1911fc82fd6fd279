package workflow

import "testing"

func TestRequiredProposalApprover(t *testing.T) {
	tests := []struct {
		status   ProposalStatus
		wantRole Role
		wantOK   bool
	}{
		{ProposalPendingPresident, RolePresident, true},
		{ProposalPendingStudentAffairs, RoleStudentAffairs, true},
		{ProposalPendingJointRegistrar, RoleJointRegistrar, true},
		{ProposalPendingAssociateDean, RoleAssociateDean, true},
		{ProposalPendingDean, RoleDean, true},
		{ProposalDraft, "", false},
		{ProposalApproved, "", false},
		{ProposalRejected, "", false},
		{ProposalRevisionRequested, "", false},
	}

	for _, tt := range tests {
		role, ok := RequiredProposalApprover(tt.status)
		if role != tt.wantRole || ok != tt.wantOK {
			t.Errorf("RequiredProposalApprover(%q) = (%q, %v), want (%q, %v)",
				tt.status, role, ok, tt.wantRole, tt.wantOK)
		}
	}
}

func TestRequiredExpenseApprover(t *testing.T) {
	tests := []struct {
		status   ExpenseStatus
		wantRole Role
		wantOK   bool
	}{
		{ExpensePending, RoleStudentAffairs, true},
		{ExpensePendingJointRegistrar, RoleJointRegistrar, true},
		{ExpensePendingAssociateDean, RoleAssociateDean, true},
		{ExpensePendingDean, RoleDean, true},
		{ExpenseApproved, "", false},
		{ExpenseRejected, "", false},
	}

	for _, tt := range tests {
		role, ok := RequiredExpenseApprover(tt.status)
		if role != tt.wantRole || ok != tt.wantOK {
			t.Errorf("RequiredExpenseApprover(%q) = (%q, %v), want (%q, %v)",
				tt.status, role, ok, tt.wantRole, tt.wantOK)
		}
	}
}

func TestIsStageRole(t *testing.T) {
	for _, r := range StageRoles {
		if !IsStageRole(r) {
			t.Errorf("IsStageRole(%q) = false, want true", r)
		}
	}
	for _, r := range []Role{RoleSuperAdmin, RolePresident, RoleStudentAffairs, Role("Registrar")} {
		if IsStageRole(r) {
			t.Errorf("IsStageRole(%q) = true, want false", r)
		}
	}
}

func TestStagePriorityOrder(t *testing.T) {
	if !(StagePriority(RoleJointRegistrar) < StagePriority(RoleAssociateDean) &&
		StagePriority(RoleAssociateDean) < StagePriority(RoleDean)) {
		t.Errorf("stage priority order broken: jr=%d ad=%d dean=%d",
			StagePriority(RoleJointRegistrar), StagePriority(RoleAssociateDean), StagePriority(RoleDean))
	}

	// Non-stage roles sort after every real stage.
	if StagePriority(RolePresident) <= StagePriority(RoleDean) {
		t.Errorf("non-stage role priority %d should exceed %d",
			StagePriority(RolePresident), StagePriority(RoleDean))
	}
}

func TestProposalStageStatus(t *testing.T) {
	tests := []struct {
		role       Role
		wantStatus ProposalStatus
		wantOK     bool
	}{
		{RoleJointRegistrar, ProposalPendingJointRegistrar, true},
		{RoleAssociateDean, ProposalPendingAssociateDean, true},
		{RoleDean, ProposalPendingDean, true},
		{RolePresident, "", false},
	}

	for _, tt := range tests {
		status, ok := ProposalStageStatus(tt.role)
		if status != tt.wantStatus || ok != tt.wantOK {
			t.Errorf("ProposalStageStatus(%q) = (%q, %v), want (%q, %v)",
				tt.role, status, ok, tt.wantStatus, tt.wantOK)
		}
	}
}

func TestExpenseStageStatus(t *testing.T) {
	tests := []struct {
		role       Role
		wantStatus ExpenseStatus
		wantOK     bool
	}{
		{RoleJointRegistrar, ExpensePendingJointRegistrar, true},
		{RoleAssociateDean, ExpensePendingAssociateDean, true},
		{RoleDean, ExpensePendingDean, true},
		{RoleStudentAffairs, "", false},
	}

	for _, tt := range tests {
		status, ok := ExpenseStageStatus(tt.role)
		if status != tt.wantStatus || ok != tt.wantOK {
			t.Errorf("ExpenseStageStatus(%q) = (%q, %v), want (%q, %v)",
				tt.role, status, ok, tt.wantStatus, tt.wantOK)
		}
	}
}
