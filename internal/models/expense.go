package models

import (
	"time"

	"github.com/hostelhq/mega-events/internal/workflow"
)

// Expense is the post-event expense report. Creatable only once the
// sibling proposal has reached proposal_approved.
type Expense struct {
	ID                     int64                  `json:"id"`
	OccurrenceID           int64                  `json:"occurrence_id"`
	EventReportDocumentURL string                 `json:"event_report_document_url"`
	Notes                  string                 `json:"notes"`
	TotalExpenditure       float64                `json:"total_expenditure"`
	Status                 workflow.ExpenseStatus `json:"approval_status"`
	Version                int64                  `json:"version"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
	Bills                  []*ExpenseBill         `json:"bills,omitempty"`
}

// ExpenseBill is a single bill line in an expense report
type ExpenseBill struct {
	ID            int64      `json:"id"`
	ExpenseID     int64      `json:"expense_id"`
	Position      int        `json:"position"`
	Description   string     `json:"description"`
	Amount        float64    `json:"amount"`
	BillNumber    string     `json:"bill_number"`
	BillDate      *time.Time `json:"bill_date,omitempty"`
	Vendor        string     `json:"vendor"`
	AttachmentURL string     `json:"attachment_url"`
}

// BillTotal returns the sum of all bill amounts
func (e *Expense) BillTotal() float64 {
	var total float64
	for _, b := range e.Bills {
		total += b.Amount
	}
	return total
}
