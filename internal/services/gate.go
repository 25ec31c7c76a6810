package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/records"
)

// CheckInGate serializes check-in admission per habit. The read-check-append
// sequence is a classic race: two concurrent callers can both observe
// done < target and together overshoot the quota. The gate closes it twice
// over: a single-writer lock per habit id inside this process, and the
// store's conditional append for callers outside it. The appended rows stay
// immutable either way, so the data itself is never corrupted; only the
// admission decision needs guarding.
type CheckInGate struct {
	store records.QuotaLogStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCheckInGate(store records.QuotaLogStore) *CheckInGate {
	return &CheckInGate{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (g *CheckInGate) habitLock(habitID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[habitID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[habitID] = l
	}
	return l
}

// CheckIn runs the full admission sequence for one habit: fetch the period's
// logs, arbitrate, and append through the conditional-write primitive. The
// refused outcome carries the progress that blocked it so callers can render
// "already reached".
func (g *CheckInGate) CheckIn(ctx context.Context, ownerID string, habit core.Habit, reference time.Time) (CheckInResult, error) {
	l := g.habitLock(habit.ID)
	l.Lock()
	defer l.Unlock()

	progress, err := ComputeProgress(habit, nil, reference)
	if err != nil {
		return CheckInResult{}, err
	}
	rng := progress.Period

	logs, err := g.store.ListQuotaLogsByDateRange(ctx, ownerID, rng.Start, lastDayOf(rng))
	if err != nil {
		return CheckInResult{}, fmt.Errorf("list quota logs: %w", err)
	}

	result, err := RecordCheckIn(habit, logs, reference)
	if err != nil {
		return CheckInResult{}, err
	}
	if !result.Accepted {
		return result, nil
	}

	stored, admitted, err := g.store.AppendQuotaLogBelowTarget(ctx, ownerID, result.Log, rng, habit.EffectiveTarget())
	if err != nil {
		return CheckInResult{}, fmt.Errorf("append quota log: %w", err)
	}
	if !admitted {
		// Lost a race against a writer outside this process; report the
		// same refusal the pure arbitration would have produced.
		refreshed, err := g.Progress(ctx, ownerID, habit, reference)
		if err != nil {
			return CheckInResult{}, err
		}
		return CheckInResult{Accepted: false, Reason: ReasonQuotaReached, Progress: refreshed}, nil
	}

	result.Log = stored
	result.Progress.Done += stored.Count
	result.Progress.Remaining = result.Progress.Target - result.Progress.Done
	if result.Progress.Remaining < 0 {
		result.Progress.Remaining = 0
	}
	result.Progress.Locked = result.Progress.Done >= result.Progress.Target
	return result, nil
}

// Progress fetches the period's logs and computes the habit's standing.
func (g *CheckInGate) Progress(ctx context.Context, ownerID string, habit core.Habit, reference time.Time) (core.QuotaProgress, error) {
	progress, err := ComputeProgress(habit, nil, reference)
	if err != nil {
		return core.QuotaProgress{}, err
	}
	logs, err := g.store.ListQuotaLogsByDateRange(ctx, ownerID, progress.Period.Start, lastDayOf(progress.Period))
	if err != nil {
		return core.QuotaProgress{}, fmt.Errorf("list quota logs: %w", err)
	}
	return ComputeProgress(habit, logs, reference)
}

// lastDayOf converts a half-open range end into the inclusive end key the
// log-listing port expects.
func lastDayOf(rng core.PeriodRange) core.DateKey {
	end, ok := core.ParseDateKey(rng.EndExclusive)
	if !ok {
		return rng.EndExclusive
	}
	key, err := core.ToDateKey(core.AddDays(end, -1))
	if err != nil {
		return rng.EndExclusive
	}
	return key
}
