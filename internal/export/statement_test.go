package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

func TestGenerateStatement(t *testing.T) {
	gen := NewStatementGenerator(Config{
		InstitutionName: "Office of Student Affairs",
		SheetName:       "Expense Statement",
	}, zap.NewNop())

	billDate := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	occ := &models.Occurrence{
		Title:              "Cultural Fest 2026",
		RefCode:            "d2c7f9a0",
		ScheduledStartDate: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC),
		ScheduledEndDate:   time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
	}
	expense := &models.Expense{
		ID:     1,
		Status: workflow.ExpenseApproved,
		Bills: []*models.ExpenseBill{
			{Position: 1, Description: "Sound system", Amount: 12000, BillNumber: "AV-114", BillDate: &billDate, Vendor: "AV Rentals"},
			{Position: 2, Description: "Catering", Amount: 30000},
		},
	}
	events := []*models.ApprovalEvent{
		{ActorRole: "Hostel Secretary", Decision: workflow.DecisionSubmitted, CreatedAt: time.Now()},
		{ActorRole: "Management", ActorSubRole: "Dean SA", Decision: workflow.DecisionApproved, CreatedAt: time.Now()},
	}

	f, err := gen.Generate(occ, expense, events)
	require.NoError(t, err)
	defer f.Close()

	sheet := "Expense Statement"
	assert.Equal(t, sheet, f.GetSheetName(f.GetActiveSheetIndex()))

	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Office of Student Affairs", get("A1"))
	assert.Equal(t, "Cultural Fest 2026", get("B4"))
	assert.Equal(t, "d2c7f9a0", get("B5"))
	assert.Equal(t, "2026-10-10 to 2026-10-12", get("B6"))
	assert.Equal(t, "approved", get("B7"))

	// Bill table starts under the header on row 9.
	assert.Equal(t, "Sound system", get("B10"))
	assert.Equal(t, "2026-10-11", get("D10"))
	assert.Equal(t, "Catering", get("B11"))

	// Grand total directly below the last bill.
	assert.Equal(t, "Total", get("E12"))
	assert.Equal(t, "42000", get("F12"))
}

func TestGenerateStatementDefaultSheetName(t *testing.T) {
	gen := NewStatementGenerator(Config{InstitutionName: "Hostel Office"}, zap.NewNop())

	occ := &models.Occurrence{Title: "Tech Summit"}
	expense := &models.Expense{Status: workflow.ExpensePending}

	f, err := gen.Generate(occ, expense, nil)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Expense Statement", f.GetSheetName(f.GetActiveSheetIndex()))
}
