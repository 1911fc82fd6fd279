package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/engine"
	"github.com/hostelhq/mega-events/internal/export"
	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

// Response is the uniform API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Handlers holds the HTTP handler dependencies
type Handlers struct {
	engine     *engine.Engine
	statements *export.StatementGenerator
	logger     *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(eng *engine.Engine, statements *export.StatementGenerator, logger *zap.Logger) *Handlers {
	return &Handlers{engine: eng, statements: statements, logger: logger}
}

type createSeriesRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type createOccurrenceRequest struct {
	Title     string `json:"title" binding:"required"`
	StartDate string `json:"scheduled_start_date" binding:"required"`
	EndDate   string `json:"scheduled_end_date" binding:"required"`
}

type proposalRequest struct {
	ProposalDetails     string  `json:"proposal_details"`
	FundingSponsorship  float64 `json:"funding_sponsorship"`
	FundingInstitute    float64 `json:"funding_institute"`
	FundingRegistration float64 `json:"funding_registration"`
	FundingOther        float64 `json:"funding_other"`
	RegistrationFees    string  `json:"registration_fees"`
	TotalExpenditure    float64 `json:"total_expenditure"`
	Documents           string  `json:"documents"`
}

func (r proposalRequest) toInput() engine.ProposalInput {
	return engine.ProposalInput{
		ProposalDetails:     r.ProposalDetails,
		FundingSponsorship:  r.FundingSponsorship,
		FundingInstitute:    r.FundingInstitute,
		FundingRegistration: r.FundingRegistration,
		FundingOther:        r.FundingOther,
		RegistrationFees:    r.RegistrationFees,
		TotalExpenditure:    r.TotalExpenditure,
		Documents:           r.Documents,
	}
}

type decisionRequest struct {
	Comments   string   `json:"comments"`
	NextStages []string `json:"next_stages"`
	Stage      string   `json:"stage"`
}

type billRequest struct {
	Description   string  `json:"description" binding:"required"`
	Amount        float64 `json:"amount"`
	BillNumber    string  `json:"bill_number"`
	BillDate      string  `json:"bill_date"`
	Vendor        string  `json:"vendor"`
	AttachmentURL string  `json:"attachment_url"`
}

type expenseRequest struct {
	Bills                  []billRequest `json:"bills" binding:"required"`
	EventReportDocumentURL string        `json:"event_report_document_url"`
	Notes                  string        `json:"notes"`
}

// proposalResponse augments the proposal with the live fan-out state so
// clients never re-derive the status-to-approver mapping
type proposalResponse struct {
	*models.Proposal
	PendingStages []*models.ApprovalStage `json:"pending_stages"`
	Awaiting      []workflow.Role         `json:"awaiting"`
}

type expenseResponse struct {
	*models.Expense
	PendingStages []*models.ApprovalStage `json:"pending_stages"`
	Awaiting      []workflow.Role         `json:"awaiting"`
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"status": "ok", "time": time.Now().UTC()},
	})
}

// CreateSeries creates a mega-event series
func (h *Handlers) CreateSeries(c *gin.Context) {
	var req createSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	series, err := h.engine.CreateSeries(c.Request.Context(), engine.SeriesInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: series})
}

// ListSeries lists series, newest first
func (h *Handlers) ListSeries(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	series, err := h.engine.ListSeries(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: series})
}

// GetSeries returns one series with its occurrences
func (h *Handlers) GetSeries(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	series, err := h.engine.GetSeries(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: series})
}

// CreateOccurrence schedules an occurrence under a series
func (h *Handlers) CreateOccurrence(c *gin.Context) {
	seriesID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req createOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		h.respondBadRequest(c, fmt.Errorf("invalid scheduled_start_date: %v", err))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		h.respondBadRequest(c, fmt.Errorf("invalid scheduled_end_date: %v", err))
		return
	}

	occ, err := h.engine.CreateOccurrence(c.Request.Context(), seriesID, engine.OccurrenceInput{
		Title:     req.Title,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: occ})
}

// GetProposal returns the occurrence's proposal with its fan-out state
func (h *Handlers) GetProposal(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.renderProposal(c, http.StatusOK, id)
}

// CreateProposal creates the occurrence's proposal in draft status
func (h *Handlers) CreateProposal(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	proposal, err := h.engine.CreateProposal(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: proposalResponse{Proposal: proposal}})
}

// UpdateProposal edits the proposal while the submitter holds control
func (h *Handlers) UpdateProposal(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	proposal, err := h.engine.UpdateProposal(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: proposalResponse{Proposal: proposal}})
}

// SubmitProposal sends a draft or revised proposal into the approval chain
func (h *Handlers) SubmitProposal(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, err := actorFromRequest(c)
	if err != nil {
		abortBadActor(c, err)
		return
	}

	if _, err := h.engine.SubmitProposal(c.Request.Context(), id, actor); err != nil {
		h.respondError(c, err)
		return
	}
	h.renderProposal(c, http.StatusOK, id)
}

// ApproveProposal records an approval at the proposal's current stage
func (h *Handlers) ApproveProposal(c *gin.Context) {
	h.decideProposal(c, func(ctx *gin.Context, id int64, actor authzActor, req decisionRequest) error {
		_, err := h.engine.ApproveProposal(ctx.Request.Context(), id, actor, req.Comments, req.NextStages, req.Stage)
		return err
	})
}

// RejectProposal records a rejection; first rejection is terminal
func (h *Handlers) RejectProposal(c *gin.Context) {
	h.decideProposal(c, func(ctx *gin.Context, id int64, actor authzActor, req decisionRequest) error {
		_, err := h.engine.RejectProposal(ctx.Request.Context(), id, actor, req.Comments, req.Stage)
		return err
	})
}

// RequestProposalRevision hands control back to the submitter
func (h *Handlers) RequestProposalRevision(c *gin.Context) {
	h.decideProposal(c, func(ctx *gin.Context, id int64, actor authzActor, req decisionRequest) error {
		_, err := h.engine.RequestProposalRevision(ctx.Request.Context(), id, actor, req.Comments)
		return err
	})
}

// GetExpense returns the occurrence's expense report with its fan-out state
func (h *Handlers) GetExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.renderExpense(c, http.StatusOK, id)
}

// CreateExpense files the post-event expense report
func (h *Handlers) CreateExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, err := actorFromRequest(c)
	if err != nil {
		abortBadActor(c, err)
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	input, ok := h.expenseInput(c, req)
	if !ok {
		return
	}

	expense, err := h.engine.CreateExpense(c.Request.Context(), id, actor, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: expenseResponse{Expense: expense}})
}

// UpdateExpense edits the report while no decision has landed yet
func (h *Handlers) UpdateExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}
	input, ok := h.expenseInput(c, req)
	if !ok {
		return
	}

	expense, err := h.engine.UpdateExpense(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenseResponse{Expense: expense}})
}

func (h *Handlers) expenseInput(c *gin.Context, req expenseRequest) (engine.ExpenseInput, bool) {
	input := engine.ExpenseInput{
		EventReportDocumentURL: req.EventReportDocumentURL,
		Notes:                  req.Notes,
	}
	for _, b := range req.Bills {
		bill := engine.BillInput{
			Description:   b.Description,
			Amount:        b.Amount,
			BillNumber:    b.BillNumber,
			Vendor:        b.Vendor,
			AttachmentURL: b.AttachmentURL,
		}
		if b.BillDate != "" {
			d, err := parseDate(b.BillDate)
			if err != nil {
				h.respondBadRequest(c, fmt.Errorf("invalid bill_date: %v", err))
				return engine.ExpenseInput{}, false
			}
			bill.BillDate = &d
		}
		input.Bills = append(input.Bills, bill)
	}
	return input, true
}

// ApproveExpense records an approval at the expense report's current stage
func (h *Handlers) ApproveExpense(c *gin.Context) {
	h.decideExpense(c, func(ctx *gin.Context, id int64, actor authzActor, req decisionRequest) error {
		_, err := h.engine.ApproveExpense(ctx.Request.Context(), id, actor, req.Comments, req.NextStages, req.Stage)
		return err
	})
}

// RejectExpense records a rejection of the expense report
func (h *Handlers) RejectExpense(c *gin.Context) {
	h.decideExpense(c, func(ctx *gin.Context, id int64, actor authzActor, req decisionRequest) error {
		_, err := h.engine.RejectExpense(ctx.Request.Context(), id, actor, req.Comments, req.Stage)
		return err
	})
}

// ExpenseStatement streams the Excel statement for the expense report
func (h *Handlers) ExpenseStatement(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	occ, err := h.engine.GetOccurrence(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	expense, _, err := h.engine.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	events, err := h.engine.ExpenseHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	f, err := h.statements.Generate(occ, expense, events)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("expense-statement-%s.xlsx", occ.RefCode)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	if _, err := f.WriteTo(c.Writer); err != nil {
		h.logger.Error("Failed to stream statement",
			zap.Int64("occurrence_id", id), zap.Error(err))
	}
}

// ApprovalHistory returns the audit trail for a proposal or an expense
// report, selected by query parameter
func (h *Handlers) ApprovalHistory(c *gin.Context) {
	proposalOcc := c.Query("proposal_occurrence_id")
	expenseOcc := c.Query("expense_occurrence_id")

	switch {
	case proposalOcc != "" && expenseOcc == "":
		id, err := strconv.ParseInt(proposalOcc, 10, 64)
		if err != nil {
			h.respondBadRequest(c, fmt.Errorf("invalid proposal_occurrence_id: %q", proposalOcc))
			return
		}
		events, err := h.engine.ProposalHistory(c.Request.Context(), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: events})

	case expenseOcc != "" && proposalOcc == "":
		id, err := strconv.ParseInt(expenseOcc, 10, 64)
		if err != nil {
			h.respondBadRequest(c, fmt.Errorf("invalid expense_occurrence_id: %q", expenseOcc))
			return
		}
		events, err := h.engine.ExpenseHistory(c.Request.Context(), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: events})

	default:
		h.respondBadRequest(c, errors.New("exactly one of proposal_occurrence_id or expense_occurrence_id is required"))
	}
}
