package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/authz"
	"github.com/hostelhq/mega-events/internal/engine"
	"github.com/hostelhq/mega-events/internal/models"
	"github.com/hostelhq/mega-events/internal/workflow"
)

type authzActor = authz.Actor

type decideFunc func(c *gin.Context, occurrenceID int64, actor authzActor, req decisionRequest) error

// decideProposal is the shared shell of every proposal decision handler:
// parse, authenticate, delegate, then render the post-decision state.
func (h *Handlers) decideProposal(c *gin.Context, decide decideFunc) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, err := actorFromRequest(c)
	if err != nil {
		abortBadActor(c, err)
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	if err := decide(c, id, actor, req); err != nil {
		h.respondError(c, err)
		return
	}
	h.renderProposal(c, http.StatusOK, id)
}

func (h *Handlers) decideExpense(c *gin.Context, decide decideFunc) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, err := actorFromRequest(c)
	if err != nil {
		abortBadActor(c, err)
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	if err := decide(c, id, actor, req); err != nil {
		h.respondError(c, err)
		return
	}
	h.renderExpense(c, http.StatusOK, id)
}

func (h *Handlers) renderProposal(c *gin.Context, status int, occurrenceID int64) {
	proposal, stages, err := h.engine.GetProposal(c.Request.Context(), occurrenceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := proposalResponse{
		Proposal: proposal,
		Awaiting: engine.AwaitingProposalApprovers(proposal.Status, stages),
	}
	for _, s := range stages {
		if s.Status == models.StagePending {
			resp.PendingStages = append(resp.PendingStages, s)
		}
	}
	c.JSON(status, Response{Success: true, Data: resp})
}

func (h *Handlers) renderExpense(c *gin.Context, status int, occurrenceID int64) {
	expense, stages, err := h.engine.GetExpense(c.Request.Context(), occurrenceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := expenseResponse{
		Expense:  expense,
		Awaiting: engine.AwaitingExpenseApprovers(expense.Status, stages),
	}
	for _, s := range stages {
		if s.Status == models.StagePending {
			resp.PendingStages = append(resp.PendingStages, s)
		}
	}
	c.JSON(status, Response{Success: true, Data: resp})
}

// respondError maps workflow sentinel errors to HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, workflow.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrConflict):
		status = http.StatusConflict
	default:
		h.logger.Error("Internal error",
			zap.String("request_id", c.GetString(ctxKeyRequestID)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal server error",
		})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondBadRequest(c, errors.New("invalid id in path"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// parseDate accepts a bare date or a full RFC 3339 timestamp
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
