package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/engine"
	"github.com/hostelhq/mega-events/internal/export"
	"github.com/hostelhq/mega-events/internal/repository"
	"github.com/hostelhq/mega-events/pkg/database"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(context.Background(), "../../migrations"))

	eng := engine.New(db,
		repository.NewSeriesRepository(db.DB, logger),
		repository.NewOccurrenceRepository(db.DB, logger),
		repository.NewProposalRepository(db.DB, logger),
		repository.NewExpenseRepository(db.DB, logger),
		repository.NewStageRepository(db.DB, logger),
		repository.NewEventRepository(db.DB, logger),
		logger)

	statements := export.NewStatementGenerator(export.Config{
		InstitutionName: "Office of Student Affairs",
	}, logger)

	return New(Config{Host: "127.0.0.1", Port: 0}, eng, statements, logger)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func asRole(role, subRole string) map[string]string {
	h := map[string]string{headerActorRole: role}
	if subRole != "" {
		h[headerActorSubRole] = subRole
	}
	return h
}

func setupOccurrenceWithDraft(t *testing.T, s *Server) int64 {
	t.Helper()

	w, resp := doJSON(t, s, http.MethodPost, "/api/v1/mega-series",
		map[string]string{"name": "Cultural Fest"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var series struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &series))

	w, resp = doJSON(t, s, http.MethodPost,
		fmt.Sprintf("/api/v1/mega-series/%d/occurrences", series.ID),
		map[string]string{
			"title":                "Cultural Fest 2026",
			"scheduled_start_date": "2026-10-10",
			"scheduled_end_date":   "2026-10-12",
		}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var occ struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &occ))

	w, _ = doJSON(t, s, http.MethodPost,
		fmt.Sprintf("/api/v1/occurrences/%d/proposal", occ.ID),
		map[string]interface{}{
			"funding_sponsorship": 40000,
			"funding_institute":   25000,
			"total_expenditure":   60000,
		}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	return occ.ID
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, resp := doJSON(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestProposalApprovalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	occID := setupOccurrenceWithDraft(t, s)
	base := fmt.Sprintf("/api/v1/occurrences/%d/proposal", occID)

	w, _ := doJSON(t, s, http.MethodPost, base+"/submit", nil,
		asRole("Hostel Secretary", ""))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, s, http.MethodPost, base+"/approve",
		map[string]interface{}{}, asRole("Management", "President"))
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, s, http.MethodPost, base+"/approve",
		map[string]interface{}{"next_stages": []string{"Joint Registrar SA", "Dean SA"}},
		asRole("Management", "Student Affairs"))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status        string `json:"status"`
		PendingStages []struct {
			Role string `json:"role"`
		} `json:"pending_stages"`
		Awaiting []string `json:"awaiting"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "pending_joint_registrar", body.Status)
	assert.Len(t, body.PendingStages, 2)
	assert.Equal(t, []string{"Joint Registrar SA", "Dean SA"}, body.Awaiting)

	w, _ = doJSON(t, s, http.MethodPost, base+"/approve",
		map[string]interface{}{}, asRole("Management", "Dean SA"))
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, s, http.MethodPost, base+"/approve",
		map[string]interface{}{}, asRole("Management", "Joint Registrar SA"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "proposal_approved", body.Status)
	assert.Empty(t, body.Awaiting)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	occID := setupOccurrenceWithDraft(t, s)
	base := fmt.Sprintf("/api/v1/occurrences/%d/proposal", occID)

	// Missing actor header.
	w, _ := doJSON(t, s, http.MethodPost, base+"/submit", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, s, http.MethodPost, base+"/submit", nil,
		asRole("Hostel Secretary", ""))
	require.Equal(t, http.StatusOK, w.Code)

	// Wrong role.
	w, resp := doJSON(t, s, http.MethodPost, base+"/approve",
		map[string]interface{}{}, asRole("Management", "Dean SA"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "awaiting decision from")

	// Short rejection comment.
	w, _ = doJSON(t, s, http.MethodPost, base+"/reject",
		map[string]interface{}{"comments": "no"}, asRole("Management", "President"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Ceiling exceeded.
	headers := asRole("Management", "President")
	headers[headerActorMaxValue] = "1000"
	w, _ = doJSON(t, s, http.MethodPost, base+"/approve",
		map[string]interface{}{}, headers)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown occurrence.
	w, _ = doJSON(t, s, http.MethodGet, "/api/v1/occurrences/9999/proposal", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed id.
	w, _ = doJSON(t, s, http.MethodGet, "/api/v1/occurrences/abc/proposal", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprovalHistoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	occID := setupOccurrenceWithDraft(t, s)
	base := fmt.Sprintf("/api/v1/occurrences/%d/proposal", occID)

	w, _ := doJSON(t, s, http.MethodPost, base+"/submit", nil,
		asRole("Hostel Secretary", ""))
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, s, http.MethodGet,
		fmt.Sprintf("/api/v1/approval-history?proposal_occurrence_id=%d", occID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []struct {
		Decision string `json:"decision"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "submitted", events[0].Decision)

	// Selector is mandatory and exclusive.
	w, _ = doJSON(t, s, http.MethodGet, "/api/v1/approval-history", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = doJSON(t, s, http.MethodGet,
		"/api/v1/approval-history?proposal_occurrence_id=1&expense_occurrence_id=1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
