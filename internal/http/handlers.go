package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
)

const handlerTimeout = 7 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHabitProgress returns the current-period standing of every active
// habit.
func (s *Server) handleHabitProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	progress, err := s.dashboard.HabitProgress(ctx, s.ownerID, referenceInstant(r))
	if err != nil {
		s.serverError(ctx, w, "habit progress", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": progress})
}

// handleCheckIn attempts one check-in. A refused quota is 409 with the
// refusal payload, not an error page: "already reached" is an expected
// outcome the UI renders.
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	habitID := r.PathValue("id")
	if habitID == "" {
		writeError(w, http.StatusBadRequest, "missing habit id")
		return
	}

	result, err := s.dashboard.CheckIn(ctx, s.ownerID, habitID, referenceInstant(r))
	if err != nil {
		if errors.Is(err, core.ErrHabitNotFound) {
			writeError(w, http.StatusNotFound, "habit not found")
			return
		}
		s.serverError(ctx, w, "check-in", err)
		return
	}
	if !result.Accepted {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleCalendar returns the calendar view for ?date=YYYY-MM-DD, defaulting
// to today. A malformed date selects today as well.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	selected := core.DateKey(r.URL.Query().Get("date"))
	view, err := s.dashboard.Calendar(ctx, s.ownerID, selected, referenceInstant(r))
	if err != nil {
		s.serverError(ctx, w, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleReview returns the period snapshot for ?period=week|month and an
// optional ?key= naming a past period.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	kind := core.PeriodKind(r.URL.Query().Get("period"))
	if kind == "" {
		kind = core.PeriodWeek
	}
	key := core.PeriodKey(r.URL.Query().Get("key"))

	snapshot, err := s.dashboard.Review(ctx, s.ownerID, kind, key, referenceInstant(r))
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedPeriodKind) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(ctx, w, "review", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// referenceInstant reads an optional ?at=RFC3339 override, so past periods
// can be inspected and tests stay deterministic. Defaults to now.
func referenceInstant(r *http.Request) time.Time {
	if at := r.URL.Query().Get("at"); at != "" {
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			return t
		}
	}
	return time.Now()
}

func (s *Server) serverError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	applog.FromContext(ctx).ErrorContext(ctx, "Handler failed",
		applog.FieldOperation, operation,
		applog.FieldError, err.Error())
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
