package records

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lifeboard/internal/core"
)

// MemoryStore is an in-memory Store for tests and AMQP-less local runs.
// The conditional append holds the same atomicity contract as the SQLite
// repository, just under one mutex instead of a transaction.
type MemoryStore struct {
	mu        sync.Mutex
	habits    map[string][]core.Habit
	logs      map[string][]core.HabitLog
	tasks     map[string][]core.VideoTask
	goals     map[string][]core.Goal
	finance   map[string]core.FinanceRecords
	snapshots map[string][]storedSnapshot
	nextLogID int
}

type storedSnapshot struct {
	snapshot  core.PeriodSnapshot
	updatedAt time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		habits:    make(map[string][]core.Habit),
		logs:      make(map[string][]core.HabitLog),
		tasks:     make(map[string][]core.VideoTask),
		goals:     make(map[string][]core.Goal),
		finance:   make(map[string]core.FinanceRecords),
		snapshots: make(map[string][]storedSnapshot),
	}
}

// Seed helpers for wiring fixtures; not part of the Store surface.

func (s *MemoryStore) SeedHabits(ownerID string, habits ...core.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits[ownerID] = append(s.habits[ownerID], habits...)
}

func (s *MemoryStore) SeedTasks(ownerID string, tasks ...core.VideoTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[ownerID] = append(s.tasks[ownerID], tasks...)
}

func (s *MemoryStore) SeedGoals(ownerID string, goals ...core.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[ownerID] = append(s.goals[ownerID], goals...)
}

func (s *MemoryStore) SeedFinance(ownerID string, fin core.FinanceRecords) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finance[ownerID] = fin
}

func (s *MemoryStore) ListActiveQuotas(_ context.Context, ownerID string) ([]core.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Habit
	for _, h := range s.habits[ownerID] {
		if h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetQuota(_ context.Context, ownerID, habitID string) (core.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.habits[ownerID] {
		if h.ID == habitID {
			return h, nil
		}
	}
	return core.Habit{}, fmt.Errorf("%w: %s", core.ErrHabitNotFound, habitID)
}

func (s *MemoryStore) ListQuotaLogsByDateRange(_ context.Context, ownerID string, start, endInclusive core.DateKey) ([]core.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.HabitLog
	for _, l := range s.logs[ownerID] {
		if l.Date >= start && l.Date <= endInclusive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) AppendQuotaLog(_ context.Context, ownerID string, log core.HabitLog) (core.HabitLog, error) {
	if err := log.Validate(); err != nil {
		return core.HabitLog{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(ownerID, log), nil
}

func (s *MemoryStore) AppendQuotaLogBelowTarget(_ context.Context, ownerID string, log core.HabitLog, rng core.PeriodRange, target int) (core.HabitLog, bool, error) {
	if err := log.Validate(); err != nil {
		return core.HabitLog{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	done := 0
	for _, l := range s.logs[ownerID] {
		if l.HabitID == log.HabitID && l.Count > 0 && rng.Contains(l.Date) {
			done += l.Count
		}
	}
	if done >= target {
		return core.HabitLog{}, false, nil
	}
	return s.appendLocked(ownerID, log), true, nil
}

func (s *MemoryStore) appendLocked(ownerID string, log core.HabitLog) core.HabitLog {
	s.nextLogID++
	log.ID = fmt.Sprintf("mem:%d", s.nextLogID)
	s.logs[ownerID] = append(s.logs[ownerID], log)
	return log
}

func (s *MemoryStore) ListDeadlineTasks(_ context.Context, ownerID string) ([]core.VideoTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.VideoTask(nil), s.tasks[ownerID]...), nil
}

func (s *MemoryStore) ListFinanceRecordsByDateRange(_ context.Context, ownerID string, start, endExclusive core.DateKey) (core.FinanceRecords, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inRange := func(entries []core.FinanceEntry) []core.FinanceEntry {
		var out []core.FinanceEntry
		for _, e := range entries {
			if e.Date >= start && e.Date < endExclusive {
				out = append(out, e)
			}
		}
		return out
	}
	fin := s.finance[ownerID]
	return core.FinanceRecords{
		Expenses:  inRange(fin.Expenses),
		Incomes:   inRange(fin.Incomes),
		Transfers: inRange(fin.Transfers),
	}, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, ownerID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Goal(nil), s.goals[ownerID]...), nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, ownerID string, snapshot core.PeriodSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.snapshots[ownerID]
	for i, existing := range stored {
		if existing.snapshot.Period.Kind == snapshot.Period.Kind && existing.snapshot.Period.Key == snapshot.Period.Key {
			stored[i] = storedSnapshot{snapshot: snapshot, updatedAt: snapshot.GeneratedAt}
			return nil
		}
	}
	s.snapshots[ownerID] = append(stored, storedSnapshot{snapshot: snapshot, updatedAt: snapshot.GeneratedAt})
	return nil
}

func (s *MemoryStore) ListPriorSnapshots(_ context.Context, ownerID string, kind core.PeriodKind, limit int) ([]core.SnapshotRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []core.SnapshotRef
	for _, stored := range s.snapshots[ownerID] {
		if stored.snapshot.Period.Kind != kind {
			continue
		}
		refs = append(refs, core.SnapshotRef{
			PeriodKey: stored.snapshot.Period.Key,
			UpdatedAt: stored.updatedAt,
		})
	}
	// Most recent period first.
	sort.Slice(refs, func(i, j int) bool { return refs[i].PeriodKey > refs[j].PeriodKey })
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}
