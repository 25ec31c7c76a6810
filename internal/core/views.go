package core

import "time"

// Derived view models. All of these are recomputed per request from raw
// records and never persisted by the aggregation core; the snapshot worker
// may store a finished PeriodSnapshot, but that is a collaborator concern.

// QuotaProgress is one habit's standing inside its current period.
type QuotaProgress struct {
	HabitID   string      `json:"habit_id"`
	Done      int         `json:"done"`
	Target    int         `json:"target"`
	Remaining int         `json:"remaining"`
	Locked    bool        `json:"locked"`
	Period    PeriodRange `json:"period"`
}

// TaskClassification flags a scheduled task against the reference instant.
// Overdue and DueToday are mutually exclusive by construction; DueSoon may
// overlap either way except with Overdue.
type TaskClassification struct {
	IsOverdue  bool `json:"is_overdue"`
	IsDueToday bool `json:"is_due_today"`
	IsDueSoon  bool `json:"is_due_soon"`
}

// DayCell is one calendar cell with its per-day counts. Cells with zero
// tasks are present and empty, never omitted.
type DayCell struct {
	Date         DateKey `json:"date"`
	TaskCount    int     `json:"task_count"`
	OverdueCount int     `json:"overdue_count"`
	IsInMonth    bool    `json:"is_in_month"`
	IsToday      bool    `json:"is_today"`
	IsSelected   bool    `json:"is_selected"`
}

// AgendaItem is one task on the selected day, carrying its classification.
type AgendaItem struct {
	Task           VideoTask          `json:"task"`
	Classification TaskClassification `json:"classification"`
}

// RemindersSummary counts urgency buckets across all non-done tasks and
// names the single most urgent one.
type RemindersSummary struct {
	Overdue      int    `json:"overdue"`
	DueToday     int    `json:"due_today"`
	DueSoon      int    `json:"due_soon"`
	MostUrgentID string `json:"most_urgent_id,omitempty"`
}

// CalendarView is the full calendar widget model: a 42-cell month grid, a
// 7-day week strip, the selected day's agenda and the reminders summary.
type CalendarView struct {
	SelectedDate DateKey          `json:"selected_date"`
	MonthGrid    []DayCell        `json:"month_grid"`
	WeekStrip    []DayCell        `json:"week_strip"`
	Agenda       []AgendaItem     `json:"agenda"`
	Unscheduled  []VideoTask      `json:"unscheduled"`
	Reminders    RemindersSummary `json:"reminders"`
}

// FinanceTotals are the period sums; Net = Income - Expense.
type FinanceTotals struct {
	Expense  Money `json:"expense"`
	Income   Money `json:"income"`
	Transfer Money `json:"transfer"`
	Net      Money `json:"net"`
}

// GoalStats counts goals done versus still active in the period.
type GoalStats struct {
	Total  int `json:"total"`
	Done   int `json:"done"`
	Active int `json:"active"`
}

// HabitStats summarizes active habits against the review range.
// CompletionRate is a rounded percentage, zero when there are no habits.
type HabitStats struct {
	Total          int `json:"total"`
	Reached        int `json:"reached"`
	CompletionRate int `json:"completion_rate"`
}

// TaskStats is the non-done pipeline histogram plus due counts.
type TaskStats struct {
	ByStage     map[Stage]int `json:"by_stage"`
	Open        int           `json:"open"`
	DueInPeriod int           `json:"due_in_period"`
	DueInWindow int           `json:"due_in_window"`
	Overdue     int           `json:"overdue"`
}

// SnapshotRef identifies one prior snapshot for the history picker.
// Placeholder entries are synthesized so the current period is always
// selectable even before its snapshot exists.
type SnapshotRef struct {
	PeriodKey   PeriodKey `json:"period_key"`
	UpdatedAt   time.Time `json:"updated_at"`
	Placeholder bool      `json:"placeholder,omitempty"`
}

// PeriodSnapshot is the weekly or monthly review: period identity, finance
// totals, goal and habit completion, the task histogram and a capped list
// of prioritized actions.
type PeriodSnapshot struct {
	Period      PeriodRange   `json:"period"`
	Finance     FinanceTotals `json:"finance"`
	Goals       GoalStats     `json:"goals"`
	Habits      HabitStats    `json:"habits"`
	Tasks       TaskStats     `json:"tasks"`
	Actions     []string      `json:"actions"`
	History     []SnapshotRef `json:"history,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}
