// Package export renders expense reports into downloadable statements.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
)

// Config holds statement layout configuration
type Config struct {
	InstitutionName string
	SheetName       string
}

// StatementGenerator builds Excel expense statements for an occurrence
type StatementGenerator struct {
	cfg    Config
	logger *zap.Logger
}

// NewStatementGenerator creates a new statement generator
func NewStatementGenerator(cfg Config, logger *zap.Logger) *StatementGenerator {
	if cfg.SheetName == "" {
		cfg.SheetName = "Expense Statement"
	}
	return &StatementGenerator{cfg: cfg, logger: logger}
}

// Generate builds the statement workbook: event header, one row per bill,
// the grand total and the approval trail. The caller owns closing the file.
func (g *StatementGenerator) Generate(occ *models.Occurrence, expense *models.Expense, events []*models.ApprovalEvent) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := g.cfg.SheetName
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	setCell := func(cell string, value interface{}) {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			g.logger.Warn("Failed to set statement cell",
				zap.String("cell", cell), zap.Error(err))
		}
	}

	// Header block
	setCell("A1", g.cfg.InstitutionName)
	setCell("A2", "Mega Event Expense Statement")
	setCell("A4", "Event")
	setCell("B4", occ.Title)
	setCell("A5", "Occurrence Ref")
	setCell("B5", occ.RefCode)
	setCell("A6", "Period")
	setCell("B6", fmt.Sprintf("%s to %s",
		occ.ScheduledStartDate.Format("2006-01-02"),
		occ.ScheduledEndDate.Format("2006-01-02")))
	setCell("A7", "Approval Status")
	setCell("B7", expense.Status.String())

	// Bill table
	headerRow := 9
	for col, title := range []string{"#", "Description", "Bill No.", "Bill Date", "Vendor", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		setCell(cell, title)
	}

	row := headerRow + 1
	for _, bill := range expense.Bills {
		billDate := ""
		if bill.BillDate != nil {
			billDate = bill.BillDate.Format("2006-01-02")
		}
		values := []interface{}{bill.Position, bill.Description, bill.BillNumber, billDate, bill.Vendor, bill.Amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			setCell(cell, v)
		}
		row++
	}

	setCell(fmt.Sprintf("E%d", row), "Total")
	setCell(fmt.Sprintf("F%d", row), expense.BillTotal())
	row += 2

	// Approval trail
	setCell(fmt.Sprintf("A%d", row), "Approval Trail")
	row++
	for col, title := range []string{"Timestamp", "Role", "Sub-Role", "Decision", "Comments"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		setCell(cell, title)
	}
	row++
	for _, event := range events {
		values := []interface{}{
			event.CreatedAt.Format("2006-01-02 15:04:05"),
			event.ActorRole,
			event.ActorSubRole,
			event.Decision.String(),
			event.Comments,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			setCell(cell, v)
		}
		row++
	}

	for col, width := range map[string]float64{"A": 20, "B": 36, "C": 16, "D": 14, "E": 22, "F": 14} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			g.logger.Warn("Failed to set column width", zap.String("col", col), zap.Error(err))
		}
	}

	g.logger.Info("Generated expense statement",
		zap.Int64("expense_id", expense.ID),
		zap.Int("bills", len(expense.Bills)),
		zap.Int("events", len(events)))
	return f, nil
}
