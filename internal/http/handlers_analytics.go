package http

import (
	"errors"
	"net/http"
	"strconv"

	"gagyebu/internal/analytics"
	"gagyebu/internal/charts"
	"gagyebu/internal/core"
	"gagyebu/internal/services"
)

// handleAnalytics serves the period report, cached per (user, window).
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	mode, err := parseModeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ref, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	// Any reference date inside the same window shares the cache entry.
	period := analytics.PeriodFor(ref, mode)
	key := uid + ":report:" + string(mode) + ":" + period.Start.String()

	if report, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.reports.Report(r.Context(), uid, ref, mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

type analyzeRequest struct {
	Mode core.PeriodType `json:"mode"`
	Date core.Date       `json:"date"`
}

type analyzeResponse struct {
	Narrative string `json:"narrative"`
}

// handleAnalyze runs the period stats through the LLM. Narratives are not
// cached; every call is a fresh model run.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = core.Monthly
	}
	if err := req.Mode.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid mode: expected weekly or monthly")
		return
	}
	ref := req.Date
	if ref.IsZero() {
		ref = core.Today()
	}

	text, err := s.reports.Narrative(r.Context(), userID(r), ref, req.Mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Narrative: text})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.trends(r)
	if err != nil {
		if status == http.StatusBadRequest {
			writeError(w, status, err.Error())
		} else {
			writeServiceError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleTrendChart renders the trend series as a PNG bar chart.
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	report, status, err := s.trends(r)
	if err != nil {
		if status == http.StatusBadRequest {
			writeError(w, status, err.Error())
		} else {
			writeServiceError(w, r, err)
		}
		return
	}

	png, err := charts.RenderTrend(report.Series)
	if errors.Is(err, charts.ErrNoData) {
		writeError(w, http.StatusNotFound, "no spending to chart")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// trends fetches the cached series for the months parameter.
func (s *Server) trends(r *http.Request) (services.TrendReport, int, error) {
	months, err := parseMonthsParam(r)
	if err != nil {
		return services.TrendReport{}, http.StatusBadRequest, err
	}

	uid := userID(r)
	ref := core.Today()
	key := uid + ":trends:" + strconv.Itoa(months) + ":" + core.NewDate(ref.Year(), int(ref.Month()), 1).String()

	if report, ok := s.trendCache.Get(key); ok {
		return report, http.StatusOK, nil
	}

	report, err := s.reports.Trends(r.Context(), uid, ref, months)
	if err != nil {
		return services.TrendReport{}, http.StatusInternalServerError, err
	}
	s.trendCache.Set(key, report)
	return report, http.StatusOK, nil
}

// handleCalendar serves per-day totals for one calendar month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ref, err := parseYearMonthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	key := uid + ":calendar:" + ref.String()

	if days, ok := s.calendarCache.Get(key); ok {
		writeJSON(w, http.StatusOK, days)
		return
	}

	days, err := s.reports.Calendar(r.Context(), uid, ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if days == nil {
		days = []services.CalendarDay{}
	}
	s.calendarCache.Set(key, days)
	writeJSON(w, http.StatusOK, days)
}
