package http

import (
	"fmt"
	"net/http"
	"strconv"

	"centime/internal/core"
	"centime/internal/services"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	period, err := parseMonthParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := s.ledger.List(r.Context(), session.UserID, period.Year, period.Month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	body, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.ledger.Create(r.Context(), session.UserID, services.CreateExpenseInput{
		Amount:      body.getString("amount"),
		TagName:     body.getString("tagName"),
		Date:        body.getString("date"),
		Description: body.getString("description"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateReports(session.UserID, expense.Date.Year())
	writeJSON(w, http.StatusOK, map[string]any{"expense": expense})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		// Unparseable ids behave like missing rows.
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	expense, err := s.ledger.Delete(r.Context(), session.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateReports(session.UserID, expense.Date.Year())
	writeJSON(w, http.StatusOK, map[string]any{"message": "expense deleted"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	period, err := parseMonthParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := core.ValidateMonth(period.Month); err != nil {
		writeServiceError(w, r, err)
		return
	}

	key := reportCacheKey(session.UserID, period.Year, period.Month)
	if report, found := s.reportCache.Get(key); found {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.ledger.Report(r.Context(), session.UserID, period.Year, period.Month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reportCache.Set(key, report)

	writeJSON(w, http.StatusOK, report)
}

func reportCacheKey(userID int64, year, month int) string {
	return fmt.Sprintf("%d|%d|%d", userID, year, month)
}

// invalidateReports drops every cached month of the user's year; the
// monthly series spans all of them.
func (s *Server) invalidateReports(userID int64, year int) {
	s.reportCache.DeletePrefix(fmt.Sprintf("%d|%d|", userID, year))
}
