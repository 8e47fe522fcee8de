package http

import (
	"net/http"

	"gagyebu/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := sanitizeInput(req.Name)
	if err := (core.Category{Name: name}).Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cat, err := s.ledger.CreateCategory(r.Context(), userID(r), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// handleDeleteCategory removes the category. Items keep their dangling id
// and fold into the uncategorized bucket on the next aggregation.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.ledger.DeleteCategory(r.Context(), uid, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAnalytics(uid)
	w.WriteHeader(http.StatusNoContent)
}
