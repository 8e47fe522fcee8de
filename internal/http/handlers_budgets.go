package http

import (
	"net/http"

	"gagyebu/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

type upsertBudgetRequest struct {
	PeriodType core.PeriodType `json:"period_type"`
	StartDate  core.Date       `json:"start_date"`
	CategoryID *string         `json:"category_id"`
	Amount     int64           `json:"amount"`
}

// handleUpsertBudget creates or replaces the amount for one budget slot.
func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req upsertBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	b := core.Budget{
		UserID:     uid,
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
	}
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	budget, err := s.ledger.UpsertBudget(r.Context(), b)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAnalytics(uid)
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.ledger.DeleteBudget(r.Context(), uid, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAnalytics(uid)
	w.WriteHeader(http.StatusNoContent)
}
