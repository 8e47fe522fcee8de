package http

import (
	"net/http"

	"gagyebu/internal/core"
)

type createTransactionRequest struct {
	Date       core.Date              `json:"date"`
	Place      string                 `json:"place"`
	ReceiptURL string                 `json:"receipt_url"`
	Items      []core.TransactionItem `json:"items"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "transaction needs at least one item")
		return
	}

	t := core.Transaction{
		UserID:     userID(r),
		Date:       req.Date,
		Place:      sanitizeInput(req.Place),
		ReceiptURL: req.ReceiptURL,
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	for i := range req.Items {
		req.Items[i].ProductName = sanitizeInput(req.Items[i].ProductName)
	}

	created, err := s.ledger.CreateTransaction(r.Context(), t, req.Items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateAnalytics(t.UserID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), userID(r), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.GetTransaction(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.ledger.DeleteTransaction(r.Context(), uid, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAnalytics(uid)
	w.WriteHeader(http.StatusNoContent)
}

type updateItemCategoryRequest struct {
	CategoryID *string `json:"category_id"`
}

// handleUpdateItemCategory assigns or clears (null) an item's category.
func (s *Server) handleUpdateItemCategory(w http.ResponseWriter, r *http.Request) {
	var req updateItemCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	item, err := s.ledger.UpdateItemCategory(r.Context(), uid, r.PathValue("id"), req.CategoryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAnalytics(uid)
	writeJSON(w, http.StatusOK, item)
}
