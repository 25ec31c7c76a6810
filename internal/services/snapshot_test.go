package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"lifeboard/internal/core"
)

func TestBuildSnapshotRejectsDayKind(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	for i, kind := range []core.PeriodKind{core.PeriodDay, core.PeriodKind("quarter")} {
		_, err := BuildSnapshot(kind, "", RawRecords{}, reference, SnapshotOptions{})
		if !errors.Is(err, core.ErrUnsupportedPeriodKind) {
			t.Errorf("case %d: expected ErrUnsupportedPeriodKind, got %v", i, err)
		}
	}
}

func TestBuildSnapshotFinanceTotals(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	rec := RawRecords{
		Finance: core.FinanceRecords{
			Expenses: []core.FinanceEntry{
				{Date: "2025-03-10", Amount: core.Money{Cents: 300_00}},
				{Date: "2025-03-11", Amount: core.Money{Cents: 200_00}},
				// Outside the week, must not count.
				{Date: "2025-03-03", Amount: core.Money{Cents: 999_00}},
			},
			Incomes: []core.FinanceEntry{
				{Date: "2025-03-12", Amount: core.Money{Cents: 800_00}},
			},
			Transfers: []core.FinanceEntry{
				{Date: "2025-03-12", Amount: core.Money{Cents: 150_00}},
			},
		},
	}

	snap, err := BuildSnapshot(core.PeriodWeek, "", rec, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Period.Key != "2025-W11" {
		t.Errorf("period key = %s, want 2025-W11", snap.Period.Key)
	}
	if snap.Finance.Expense.Cents != 500_00 {
		t.Errorf("expense = %d, want 50000", snap.Finance.Expense.Cents)
	}
	if snap.Finance.Income.Cents != 800_00 {
		t.Errorf("income = %d, want 80000", snap.Finance.Income.Cents)
	}
	if snap.Finance.Transfer.Cents != 150_00 {
		t.Errorf("transfer = %d, want 15000", snap.Finance.Transfer.Cents)
	}
	if snap.Finance.Net.Cents != 300_00 {
		t.Errorf("net = %d, want 30000", snap.Finance.Net.Cents)
	}
}

func TestBuildSnapshotGoalAndHabitStats(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	rec := RawRecords{
		Goals: []core.Goal{
			{ID: "g1", Status: core.GoalDone},
			{ID: "g2", Status: core.GoalActive, TargetValue: 100, CurrentValue: 120},
			{ID: "g3", Status: core.GoalActive, TargetValue: 100, CurrentValue: 40},
			// A zero target never counts as reached by value.
			{ID: "g4", Status: core.GoalActive, TargetValue: 0, CurrentValue: 40},
		},
		Habits: []core.Habit{
			{ID: "h1", Name: "Gym", Period: core.PeriodWeek, TargetCount: 2, Active: true},
			{ID: "h2", Name: "Read", Period: core.PeriodWeek, TargetCount: 5, Active: true},
			{ID: "h3", Name: "Retired", Period: core.PeriodWeek, TargetCount: 1, Active: false},
		},
		HabitLogs: []core.HabitLog{
			{HabitID: "h1", Date: "2025-03-10", Count: 1},
			{HabitID: "h1", Date: "2025-03-11", Count: 1},
			{HabitID: "h2", Date: "2025-03-11", Count: 2},
		},
	}

	snap, err := BuildSnapshot(core.PeriodWeek, "", rec, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Goals.Total != 4 || snap.Goals.Done != 2 || snap.Goals.Active != 2 {
		t.Errorf("goal stats = %+v, want total 4, done 2, active 2", snap.Goals)
	}
	if snap.Habits.Total != 2 || snap.Habits.Reached != 1 {
		t.Errorf("habit stats = %+v, want total 2, reached 1", snap.Habits)
	}
	if snap.Habits.CompletionRate != 50 {
		t.Errorf("completion rate = %d, want 50", snap.Habits.CompletionRate)
	}
}

func TestBuildSnapshotZeroHabits(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	snap, err := BuildSnapshot(core.PeriodWeek, "", RawRecords{}, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Habits.CompletionRate != 0 {
		t.Errorf("completion rate without habits = %d, want 0", snap.Habits.CompletionRate)
	}
}

func TestBuildSnapshotTaskStats(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	day := func(d int, h int) time.Time { return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC) }

	rec := RawRecords{
		Tasks: []core.VideoTask{
			{ID: "t1", Stage: core.StageEditing, Deadline: day(10, 9), Status: core.TaskTodo},  // overdue, in week
			{ID: "t2", Stage: core.StageEditing, Deadline: day(14, 9), Status: core.TaskDoing}, // due soon, in week
			{ID: "t3", Stage: core.StageScript, Deadline: day(25, 9), Status: core.TaskTodo},   // later month
			{ID: "t4", Stage: core.StageIdea, Status: core.TaskTodo},                           // unscheduled
			{ID: "t5", Stage: core.StageEditing, Deadline: day(11, 9), Status: core.TaskDone},  // done, invisible
		},
	}

	snap, err := BuildSnapshot(core.PeriodWeek, "", rec, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Tasks.Open != 4 {
		t.Errorf("open = %d, want 4", snap.Tasks.Open)
	}
	if snap.Tasks.ByStage[core.StageEditing] != 2 || snap.Tasks.ByStage[core.StageScript] != 1 || snap.Tasks.ByStage[core.StageIdea] != 1 {
		t.Errorf("by stage = %+v", snap.Tasks.ByStage)
	}
	if snap.Tasks.DueInPeriod != 2 {
		t.Errorf("due in period = %d, want 2", snap.Tasks.DueInPeriod)
	}
	if snap.Tasks.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", snap.Tasks.Overdue)
	}
	if snap.Tasks.DueInWindow != 1 {
		t.Errorf("due in window = %d, want 1", snap.Tasks.DueInWindow)
	}
}

func TestBuildPlanOrderAndCap(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	// Everything fires: all five rules, in table order.
	rec := RawRecords{
		Finance: core.FinanceRecords{
			Expenses: []core.FinanceEntry{{Date: "2025-03-10", Amount: core.Money{Cents: 900_00}}},
			Incomes:  []core.FinanceEntry{{Date: "2025-03-10", Amount: core.Money{Cents: 100_00}}},
		},
		Goals: []core.Goal{{ID: "g1", Status: core.GoalActive}},
		Tasks: []core.VideoTask{
			{ID: "t1", Stage: core.StageEditing, Deadline: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), Status: core.TaskTodo},
		},
	}

	snap, err := BuildSnapshot(core.PeriodWeek, "", rec, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Actions) != 5 {
		t.Fatalf("actions = %d, want 5", len(snap.Actions))
	}
	wantPrefix := []string{"Clear 1 overdue", "Finish 1 task", "Push the 1 open", "Connect video progress", "Review production cost"}
	for i, prefix := range wantPrefix {
		if !strings.HasPrefix(snap.Actions[i], prefix) {
			t.Errorf("action %d = %q, want prefix %q", i, snap.Actions[i], prefix)
		}
	}
}

func TestBuildPlanSteadyState(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	snap, err := BuildSnapshot(core.PeriodMonth, "", RawRecords{}, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Actions) != 1 || snap.Actions[0] != planSteadyState {
		t.Errorf("actions = %v, want the single steady-state line", snap.Actions)
	}
}

func TestBuildSnapshotHistory(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	history := []core.SnapshotRef{
		{PeriodKey: "2025-W10", UpdatedAt: reference.AddDate(0, 0, -7)},
		{PeriodKey: "2025-W09", UpdatedAt: reference.AddDate(0, 0, -14)},
	}

	// Week mode, current key absent: a placeholder is synthesized at the head.
	snap, err := BuildSnapshot(core.PeriodWeek, "", RawRecords{History: history}, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.History) != 3 {
		t.Fatalf("history has %d entries, want 3", len(snap.History))
	}
	if snap.History[0].PeriodKey != "2025-W11" || !snap.History[0].Placeholder {
		t.Errorf("history head = %+v, want placeholder 2025-W11", snap.History[0])
	}

	// Current key already present: no placeholder added.
	withCurrent := append([]core.SnapshotRef{{PeriodKey: "2025-W11", UpdatedAt: reference}}, history...)
	snap, err = BuildSnapshot(core.PeriodWeek, "", RawRecords{History: withCurrent}, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.History) != 3 || snap.History[0].Placeholder {
		t.Errorf("history = %+v, want the three real entries untouched", snap.History)
	}

	// The limit caps the list even after placeholder synthesis.
	snap, err = BuildSnapshot(core.PeriodWeek, "", RawRecords{History: history}, reference, SnapshotOptions{HistoryLimit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.History) != 2 || snap.History[0].PeriodKey != "2025-W11" {
		t.Errorf("capped history = %+v, want placeholder plus 2025-W10", snap.History)
	}

	// Month mode carries no history.
	snap, err = BuildSnapshot(core.PeriodMonth, "", RawRecords{History: history}, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.History != nil {
		t.Errorf("month history = %+v, want none", snap.History)
	}
}

func TestBuildSnapshotExplicitKey(t *testing.T) {
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	snap, err := BuildSnapshot(core.PeriodMonth, "2025-02", RawRecords{}, reference, SnapshotOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Period.Key != "2025-02" {
		t.Errorf("period key = %s, want 2025-02", snap.Period.Key)
	}
	if snap.Period.Start != "2025-02-01" || snap.Period.EndExclusive != "2025-03-01" {
		t.Errorf("period range = %s..%s, want 2025-02-01..2025-03-01", snap.Period.Start, snap.Period.EndExclusive)
	}
}
