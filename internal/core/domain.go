package core

import (
	"errors"
	"strings"
	"time"
)

// Production pipeline stages, in order.
const (
	StageIdea      Stage = "idea"
	StageScript    Stage = "script"
	StageFilming   Stage = "filming"
	StageEditing   Stage = "editing"
	StageThumbnail Stage = "thumbnail"
	StagePublish   Stage = "publish"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	TaskTodo  TaskStatus = "todo"
	TaskDoing TaskStatus = "doing"
	TaskDone  TaskStatus = "done"
)

const (
	GoalActive GoalStatus = "active"
	GoalDone   GoalStatus = "done"
)

type (
	Stage      string
	Priority   string
	TaskStatus string
	GoalStatus string

	// Habit is a recurring quota: TargetCount check-ins per Period.
	// Read-only input to the quota tracker.
	Habit struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Period      PeriodKind `json:"period"`
		TargetCount int        `json:"target_count"`
		Active      bool       `json:"active"`
	}

	// HabitLog is one append-only, immutable check-in event. Multiple
	// entries for the same habit and day are legal and are summed.
	HabitLog struct {
		ID      string  `json:"id,omitempty"`
		HabitID string  `json:"habit_id"`
		Date    DateKey `json:"date"`
		Count   int     `json:"count"`
	}

	// Goal tracks progress toward a numeric target.
	Goal struct {
		ID           string     `json:"id"`
		Title        string     `json:"title"`
		Status       GoalStatus `json:"status"`
		TargetValue  int64      `json:"target_value"`
		CurrentValue int64      `json:"current_value"`
	}

	// VideoTask is a deadline-bearing production task. A zero Deadline
	// means the task is unscheduled.
	VideoTask struct {
		ID       string     `json:"id"`
		Title    string     `json:"title"`
		Stage    Stage      `json:"stage"`
		Priority Priority   `json:"priority"`
		Deadline time.Time  `json:"deadline,omitempty"`
		Status   TaskStatus `json:"status"`
	}

	// FinanceEntry is a dated, signed-by-bucket money movement.
	FinanceEntry struct {
		Date        DateKey `json:"date"`
		Description string  `json:"description"`
		Amount      Money   `json:"amount"`
	}

	// FinanceRecords groups the three movement buckets for a date range.
	FinanceRecords struct {
		Expenses  []FinanceEntry `json:"expenses"`
		Incomes   []FinanceEntry `json:"incomes"`
		Transfers []FinanceEntry `json:"transfers"`
	}
)

var (
	ErrInvalidDate           = errors.New("invalid date")
	ErrUnsupportedPeriodKind = errors.New("unsupported period kind")
	ErrEmptyID               = errors.New("empty id")
	ErrEmptyName             = errors.New("empty name")
	ErrHabitNotFound         = errors.New("habit not found")
)

// PipelineStages returns the six stages in production order.
func PipelineStages() []Stage {
	return []Stage{StageIdea, StageScript, StageFilming, StageEditing, StageThumbnail, StagePublish}
}

// Rank orders priorities for agenda sorting: high=3, medium=2, low=1.
// Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// IsValid reports whether the stage is one of the six pipeline stages.
func (s Stage) IsValid() bool {
	for _, stage := range PipelineStages() {
		if s == stage {
			return true
		}
	}
	return false
}

// HasDeadline reports whether the task is scheduled at all.
func (t VideoTask) HasDeadline() bool {
	return !t.Deadline.IsZero()
}

// IsDone reports whether the task left the pipeline.
func (t VideoTask) IsDone() bool {
	return t.Status == TaskDone
}

// EffectiveTarget clamps the configured target to at least one check-in, so
// a zero or negative target can never produce an always-unlocked quota.
func (h Habit) EffectiveTarget() int {
	if h.TargetCount < 1 {
		return 1
	}
	return h.TargetCount
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	if !h.Period.IsValid() {
		return ErrUnsupportedPeriodKind
	}
	return nil
}

func (l HabitLog) Validate() error {
	if strings.TrimSpace(l.HabitID) == "" {
		return ErrEmptyID
	}
	if _, ok := ParseDateKey(l.Date); !ok {
		return ErrInvalidDate
	}
	return nil
}

// IsReached reports whether the goal counts as done: either explicitly
// marked, or the measured value met a positive target.
func (g Goal) IsReached() bool {
	if g.Status == GoalDone {
		return true
	}
	return g.TargetValue > 0 && g.CurrentValue >= g.TargetValue
}
