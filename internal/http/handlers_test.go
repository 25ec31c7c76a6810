package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/records"
	"lifeboard/internal/services"
)

const testReference = "2025-03-12T10:00:00Z"

func testServer(t *testing.T) (*records.MemoryStore, http.Handler) {
	t.Helper()
	store := records.NewMemoryStore()
	dashboard := services.NewDashboard(store, nil, services.DashboardOptions{})
	srv := NewServer("0", dashboard, "owner", applog.New(applog.DefaultConfig()))
	return store, srv.Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %s, want application/json", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	_, handler := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHabitProgressEndpoint(t *testing.T) {
	store, handler := testServer(t)
	store.SeedHabits("owner", core.Habit{ID: "h1", Name: "Gym", Period: core.PeriodWeek, TargetCount: 3, Active: true})

	rec := doRequest(t, handler, http.MethodGet, "/api/habits/progress?at="+testReference)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Habits []core.QuotaProgress `json:"habits"`
	}
	decode(t, rec, &body)
	if len(body.Habits) != 1 {
		t.Fatalf("habits = %d, want 1", len(body.Habits))
	}
	if body.Habits[0].HabitID != "h1" || body.Habits[0].Remaining != 3 {
		t.Errorf("progress = %+v, want h1 with 3 remaining", body.Habits[0])
	}
}

func TestCheckInEndpoint(t *testing.T) {
	store, handler := testServer(t)
	store.SeedHabits("owner", core.Habit{ID: "h1", Name: "Gym", Period: core.PeriodDay, TargetCount: 1, Active: true})

	// First check-in lands.
	rec := doRequest(t, handler, http.MethodPost, "/api/habits/h1/checkin?at="+testReference)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var result services.CheckInResult
	decode(t, rec, &result)
	if !result.Accepted || result.Log.Date != "2025-03-12" {
		t.Errorf("result = %+v, want accepted log for 2025-03-12", result)
	}

	// Second is refused with the quota payload, not an error page.
	rec = doRequest(t, handler, http.MethodPost, "/api/habits/h1/checkin?at="+testReference)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &result)
	if result.Accepted || result.Reason != services.ReasonQuotaReached {
		t.Errorf("result = %+v, want quota_reached refusal", result)
	}

	// Unknown habit is 404.
	rec = doRequest(t, handler, http.MethodPost, "/api/habits/nope/checkin?at="+testReference)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	store, handler := testServer(t)
	store.SeedTasks("owner", core.VideoTask{
		ID: "t1", Title: "Cut", Stage: core.StageEditing, Priority: core.PriorityHigh,
		Deadline: time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC), Status: core.TaskTodo,
	})

	rec := doRequest(t, handler, http.MethodGet, "/api/calendar?date=2025-03-12&at="+testReference)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var view core.CalendarView
	decode(t, rec, &view)
	if view.SelectedDate != "2025-03-12" {
		t.Errorf("selected = %s, want 2025-03-12", view.SelectedDate)
	}
	if len(view.MonthGrid) != 42 {
		t.Errorf("grid cells = %d, want 42", len(view.MonthGrid))
	}
	if len(view.Agenda) != 1 || view.Agenda[0].Task.ID != "t1" {
		t.Errorf("agenda = %+v, want t1", view.Agenda)
	}
	if view.Reminders.DueToday != 1 {
		t.Errorf("due today = %d, want 1", view.Reminders.DueToday)
	}
}

func TestReviewEndpoint(t *testing.T) {
	store, handler := testServer(t)
	store.SeedFinance("owner", core.FinanceRecords{
		Expenses: []core.FinanceEntry{{Date: "2025-03-10", Amount: core.Money{Cents: 500_00}}},
		Incomes:  []core.FinanceEntry{{Date: "2025-03-11", Amount: core.Money{Cents: 800_00}}},
	})

	rec := doRequest(t, handler, http.MethodGet, "/api/review?period=week&at="+testReference)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap core.PeriodSnapshot
	decode(t, rec, &snap)
	if snap.Period.Key != "2025-W11" {
		t.Errorf("period key = %s, want 2025-W11", snap.Period.Key)
	}
	if snap.Finance.Net.Cents != 300_00 {
		t.Errorf("net = %d, want 30000", snap.Finance.Net.Cents)
	}

	// Day granularity is not a review period.
	rec = doRequest(t, handler, http.MethodGet, "/api/review?period=day&at="+testReference)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// Period defaults to week.
	rec = doRequest(t, handler, http.MethodGet, "/api/review?at="+testReference)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for default period", rec.Code)
	}
}
