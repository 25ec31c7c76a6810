package services

import (
	"fmt"
	"math"
	"time"

	"lifeboard/internal/core"
)

const (
	DefaultHistoryLimit = 12
	MinHistoryLimit     = 1
	MaxHistoryLimit     = 52

	maxPlanActions = 5
)

// SnapshotOptions configures the review builder. The zero value is usable.
type SnapshotOptions struct {
	DeadlineWindowHours int
	HistoryLimit        int
}

func (o SnapshotOptions) windowHours() int {
	return CalendarOptions{DeadlineWindowHours: o.DeadlineWindowHours}.windowHours()
}

func (o SnapshotOptions) historyLimit() int {
	l := o.HistoryLimit
	if l == 0 {
		l = DefaultHistoryLimit
	}
	if l < MinHistoryLimit {
		l = MinHistoryLimit
	}
	if l > MaxHistoryLimit {
		l = MaxHistoryLimit
	}
	return l
}

// RawRecords are the already-fetched inputs to one snapshot build. Fetching
// them is the caller's concern and the four reads are independent, so they
// should run concurrently before this synchronous step.
type RawRecords struct {
	Finance   core.FinanceRecords
	Goals     []core.Goal
	Habits    []core.Habit
	HabitLogs []core.HabitLog
	Tasks     []core.VideoTask
	History   []core.SnapshotRef
}

// BuildSnapshot composes the weekly or monthly review: finance totals, goal
// and habit completion, the task pipeline histogram and the capped action
// list. Day granularity is not a review period and returns
// ErrUnsupportedPeriodKind.
func BuildSnapshot(kind core.PeriodKind, key core.PeriodKey, rec RawRecords, reference time.Time, opts SnapshotOptions) (core.PeriodSnapshot, error) {
	if kind != core.PeriodWeek && kind != core.PeriodMonth {
		return core.PeriodSnapshot{}, fmt.Errorf("%w: review supports week or month, got %q", core.ErrUnsupportedPeriodKind, kind)
	}
	rng, err := core.ResolvePeriod(kind, reference, key)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}

	snap := core.PeriodSnapshot{
		Period:      rng,
		Finance:     sumFinance(rec.Finance, rng),
		Goals:       countGoals(rec.Goals),
		Habits:      countHabits(rec.Habits, rec.HabitLogs, rng),
		Tasks:       countTasks(rec.Tasks, rng, reference, opts.windowHours()),
		GeneratedAt: reference,
	}
	snap.Actions = buildPlan(snap)
	if kind == core.PeriodWeek {
		snap.History = buildHistory(rec.History, rng, reference, opts.historyLimit())
	}
	return snap, nil
}

func sumFinance(fin core.FinanceRecords, rng core.PeriodRange) core.FinanceTotals {
	sum := func(entries []core.FinanceEntry) core.Money {
		var total core.Money
		for _, e := range entries {
			if rng.Contains(e.Date) {
				total = total.Add(e.Amount)
			}
		}
		return total
	}
	t := core.FinanceTotals{
		Expense:  sum(fin.Expenses),
		Income:   sum(fin.Incomes),
		Transfer: sum(fin.Transfers),
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

func countGoals(goals []core.Goal) core.GoalStats {
	stats := core.GoalStats{Total: len(goals)}
	for _, g := range goals {
		if g.IsReached() {
			stats.Done++
		}
	}
	stats.Active = stats.Total - stats.Done
	return stats
}

// countHabits compares each active habit's log sum inside the review range
// (not its own natural quota period) to its target. The completion rate is
// a rounded percentage and zero, not NaN, without habits.
func countHabits(habits []core.Habit, logs []core.HabitLog, rng core.PeriodRange) core.HabitStats {
	stats := core.HabitStats{}
	for _, h := range habits {
		if !h.Active {
			continue
		}
		stats.Total++
		done := 0
		for _, l := range logs {
			if l.HabitID == h.ID && l.Count > 0 && rng.Contains(l.Date) {
				done += l.Count
			}
		}
		if done >= h.EffectiveTarget() {
			stats.Reached++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Reached) / float64(stats.Total) * 100))
	}
	return stats
}

func countTasks(tasks []core.VideoTask, rng core.PeriodRange, now time.Time, windowHours int) core.TaskStats {
	stats := core.TaskStats{ByStage: make(map[core.Stage]int)}
	for _, task := range tasks {
		if task.IsDone() {
			continue
		}
		stats.Open++
		stats.ByStage[task.Stage]++
		if !task.HasDeadline() {
			continue
		}
		if key, err := core.ToDateKey(task.Deadline); err == nil && rng.Contains(key) {
			stats.DueInPeriod++
		}
		c := ClassifyTask(task, now, windowHours)
		if c.IsOverdue {
			stats.Overdue++
		}
		if c.IsDueSoon {
			stats.DueInWindow++
		}
	}
	return stats
}

// planRule is one row of the release-plan decision table: a trigger and its
// message. Rules are evaluated in fixed order and the list is capped, which
// keeps the ordering contract mechanical to verify.
type planRule struct {
	fires   func(core.PeriodSnapshot) bool
	message func(core.PeriodSnapshot) string
}

var planRules = []planRule{
	{
		fires: func(s core.PeriodSnapshot) bool { return s.Tasks.Overdue > 0 },
		message: func(s core.PeriodSnapshot) string {
			return fmt.Sprintf("Clear %d overdue production task(s) before anything else", s.Tasks.Overdue)
		},
	},
	{
		fires: func(s core.PeriodSnapshot) bool { return s.Tasks.DueInPeriod > 0 },
		message: func(s core.PeriodSnapshot) string {
			return fmt.Sprintf("Finish %d task(s) due this %s", s.Tasks.DueInPeriod, s.Period.Kind)
		},
	},
	{
		fires: func(s core.PeriodSnapshot) bool { return s.Tasks.Open > 0 },
		message: func(s core.PeriodSnapshot) string {
			return fmt.Sprintf("Push the %d open task(s) one stage forward", s.Tasks.Open)
		},
	},
	{
		fires: func(s core.PeriodSnapshot) bool { return s.Goals.Active > 0 },
		message: func(s core.PeriodSnapshot) string {
			return fmt.Sprintf("Connect video progress to the %d active goal(s)", s.Goals.Active)
		},
	},
	{
		fires: func(s core.PeriodSnapshot) bool { return s.Finance.Net.IsNegative() },
		message: func(s core.PeriodSnapshot) string {
			return fmt.Sprintf("Review production cost: net %s this %s", s.Finance.Net, s.Period.Kind)
		},
	},
}

const planSteadyState = "Steady state: keep the current cadence"

func buildPlan(snap core.PeriodSnapshot) []string {
	actions := make([]string, 0, maxPlanActions)
	for _, rule := range planRules {
		if len(actions) == maxPlanActions {
			break
		}
		if rule.fires(snap) {
			actions = append(actions, rule.message(snap))
		}
	}
	if len(actions) == 0 {
		actions = append(actions, planSteadyState)
	}
	return actions
}

// buildHistory caps the fetched prior periods and guarantees the requested
// week is selectable: when absent from the fetched rows a placeholder entry
// is synthesized at the head.
func buildHistory(history []core.SnapshotRef, rng core.PeriodRange, reference time.Time, limit int) []core.SnapshotRef {
	if len(history) > limit {
		history = history[:limit]
	}
	for _, ref := range history {
		if ref.PeriodKey == rng.Key {
			return history
		}
	}
	current := core.SnapshotRef{PeriodKey: rng.Key, UpdatedAt: reference, Placeholder: true}
	out := make([]core.SnapshotRef, 0, len(history)+1)
	out = append(out, current)
	out = append(out, history...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
