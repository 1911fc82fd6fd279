package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// ExpenseRepository handles expense report database operations
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

// Create creates an expense report together with its bill lines
func (r *ExpenseRepository) Create(tx *sql.Tx, e *models.Expense) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Version = 1

	result, err := conn(r.db, tx).Exec(`
		INSERT INTO expenses (
			occurrence_id, event_report_document_url, notes,
			total_expenditure, status, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.OccurrenceID, e.EventReportDocumentURL, e.Notes,
		e.TotalExpenditure, e.Status, e.Version, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id

	for i, bill := range e.Bills {
		bill.ExpenseID = e.ID
		bill.Position = i + 1
		res, err := conn(r.db, tx).Exec(`
			INSERT INTO expense_bills (
				expense_id, position, description, amount,
				bill_number, bill_date, vendor, attachment_url
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, bill.ExpenseID, bill.Position, bill.Description, bill.Amount,
			bill.BillNumber, bill.BillDate, bill.Vendor, bill.AttachmentURL)
		if err != nil {
			r.logger.Error("Failed to create expense bill",
				zap.Int64("expense_id", e.ID),
				zap.Int("position", bill.Position),
				zap.Error(err))
			return fmt.Errorf("failed to create expense bill: %w", err)
		}
		billID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		bill.ID = billID
	}

	return nil
}

// GetByOccurrenceID retrieves the expense report owned by an occurrence,
// with its bills loaded, or nil
func (r *ExpenseRepository) GetByOccurrenceID(tx *sql.Tx, occurrenceID int64) (*models.Expense, error) {
	var e models.Expense
	err := conn(r.db, tx).QueryRow(`
		SELECT id, occurrence_id, event_report_document_url, notes,
			total_expenditure, status, version, created_at, updated_at
		FROM expenses WHERE occurrence_id = ?
	`, occurrenceID).Scan(&e.ID, &e.OccurrenceID, &e.EventReportDocumentURL,
		&e.Notes, &e.TotalExpenditure, &e.Status, &e.Version,
		&e.CreatedAt, &e.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.Int64("occurrence_id", occurrenceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	bills, err := r.billsByExpenseID(tx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Bills = bills
	return &e, nil
}

func (r *ExpenseRepository) billsByExpenseID(tx *sql.Tx, expenseID int64) ([]*models.ExpenseBill, error) {
	rows, err := conn(r.db, tx).Query(`
		SELECT id, expense_id, position, description, amount,
			bill_number, bill_date, vendor, attachment_url
		FROM expense_bills
		WHERE expense_id = ?
		ORDER BY position ASC
	`, expenseID)
	if err != nil {
		r.logger.Error("Failed to get expense bills", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.ExpenseBill
	for rows.Next() {
		var b models.ExpenseBill
		var billDate sql.NullTime
		if err := rows.Scan(&b.ID, &b.ExpenseID, &b.Position, &b.Description,
			&b.Amount, &b.BillNumber, &billDate, &b.Vendor, &b.AttachmentURL); err != nil {
			return nil, fmt.Errorf("failed to scan expense bill: %w", err)
		}
		if billDate.Valid {
			b.BillDate = &billDate.Time
		}
		bills = append(bills, &b)
	}
	return bills, rows.Err()
}

// Update rewrites the submitter-editable fields and replaces the bill
// lines, guarded by the optimistic version.
func (r *ExpenseRepository) Update(tx *sql.Tx, e *models.Expense) error {
	result, err := conn(r.db, tx).Exec(`
		UPDATE expenses SET
			event_report_document_url = ?, notes = ?, total_expenditure = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, e.EventReportDocumentURL, e.Notes, e.TotalExpenditure,
		time.Now().UTC(), e.ID, e.Version)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConflict
	}
	e.Version++

	if _, err := conn(r.db, tx).Exec(
		`DELETE FROM expense_bills WHERE expense_id = ?`, e.ID); err != nil {
		r.logger.Error("Failed to clear expense bills", zap.Int64("expense_id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to clear expense bills: %w", err)
	}
	for i, bill := range e.Bills {
		bill.ExpenseID = e.ID
		bill.Position = i + 1
		res, err := conn(r.db, tx).Exec(`
			INSERT INTO expense_bills (
				expense_id, position, description, amount,
				bill_number, bill_date, vendor, attachment_url
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, bill.ExpenseID, bill.Position, bill.Description, bill.Amount,
			bill.BillNumber, bill.BillDate, bill.Vendor, bill.AttachmentURL)
		if err != nil {
			return fmt.Errorf("failed to create expense bill: %w", err)
		}
		billID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		bill.ID = billID
	}
	return nil
}

// UpdateStatus transitions the expense report, guarded by the optimistic
// version. Zero affected rows means a concurrent decision won the race.
func (r *ExpenseRepository) UpdateStatus(tx *sql.Tx, id int64, status workflow.ExpenseStatus, expectedVersion int64) error {
	result, err := conn(r.db, tx).Exec(`
		UPDATE expenses SET status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, status, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update expense status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update expense status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConflict
	}
	return nil
}
