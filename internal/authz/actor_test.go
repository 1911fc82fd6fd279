package authz

import (
	"errors"
	"testing"

	"github.com/hostelhq/mega-events/internal/workflow"
)

func ceiling(v float64) *float64 { return &v }

func TestCanActAs(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		required workflow.Role
		want     bool
	}{
		{
			name:     "matching sub-role",
			actor:    Actor{Role: "Management", SubRole: "Dean SA"},
			required: workflow.RoleDean,
			want:     true,
		},
		{
			name:     "mismatched sub-role",
			actor:    Actor{Role: "Management", SubRole: "Associate Dean SA"},
			required: workflow.RoleDean,
			want:     false,
		},
		{
			name:     "super admin acts as anyone",
			actor:    Actor{Role: "Super Admin"},
			required: workflow.RolePresident,
			want:     true,
		},
		{
			name:     "top-level role does not satisfy sub-role requirement",
			actor:    Actor{Role: "Dean SA"},
			required: workflow.RoleDean,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanActAs(tt.required); got != tt.want {
				t.Errorf("CanActAs(%q) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}
}

func TestCheckRole(t *testing.T) {
	actor := Actor{Role: "Management", SubRole: "President"}

	if err := CheckRole(actor, workflow.RolePresident); err != nil {
		t.Errorf("CheckRole matching = %v, want nil", err)
	}

	err := CheckRole(actor, workflow.RoleStudentAffairs)
	if !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("CheckRole mismatched = %v, want ErrForbidden", err)
	}
}

func TestCheckCeiling(t *testing.T) {
	tests := []struct {
		name      string
		actor     Actor
		amount    float64
		forbidden bool
	}{
		{
			name:   "no ceiling passes any amount",
			actor:  Actor{Role: "Management", SubRole: "Dean SA"},
			amount: 10_000_000,
		},
		{
			name:   "amount within ceiling",
			actor:  Actor{Role: "Management", SubRole: "Dean SA", MaxApprovalAmount: ceiling(50000)},
			amount: 50000,
		},
		{
			name:      "amount above ceiling",
			actor:     Actor{Role: "Management", SubRole: "Dean SA", MaxApprovalAmount: ceiling(50000)},
			amount:    50000.01,
			forbidden: true,
		},
		{
			name:      "super admin is not exempt from the ceiling",
			actor:     Actor{Role: "Super Admin", MaxApprovalAmount: ceiling(1000)},
			amount:    2000,
			forbidden: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCeiling(tt.actor, tt.amount)
			if tt.forbidden && !errors.Is(err, workflow.ErrForbidden) {
				t.Errorf("CheckCeiling = %v, want ErrForbidden", err)
			}
			if !tt.forbidden && err != nil {
				t.Errorf("CheckCeiling = %v, want nil", err)
			}
		})
	}
}
