// Package services implements the dashboard aggregations: quota tracking,
// calendar bucketing and the period review snapshot. Everything here is a
// pure function over already-fetched records; the reference instant is
// always an explicit parameter, never an ambient clock read.
package services

import (
	"time"

	"lifeboard/internal/core"
)

// ReasonQuotaReached is the refusal reason when the period quota is already
// met. Quota-reached is an expected outcome, not a fault, so it travels as a
// result value rather than an error.
const ReasonQuotaReached = "quota_reached"

// CheckInResult is the admission decision for one check-in attempt.
// Exactly two shapes occur: accepted with a new log for the caller to
// persist, or refused with a reason and the progress that blocked it.
type CheckInResult struct {
	Accepted bool               `json:"accepted"`
	Reason   string             `json:"reason,omitempty"`
	Log      core.HabitLog      `json:"log,omitempty"`
	Progress core.QuotaProgress `json:"progress"`
}

// ComputeProgress derives done/remaining/locked for the habit's own period
// around the reference instant. Log entries with non-positive counts are
// ignored so a negative row can never refund quota; a habit row with a
// broken period kind is normalized to daily rather than failing the call.
func ComputeProgress(habit core.Habit, logs []core.HabitLog, reference time.Time) (core.QuotaProgress, error) {
	kind := habit.Period
	if !kind.IsValid() {
		kind = core.PeriodDay
	}
	rng, err := core.ResolvePeriod(kind, reference, "")
	if err != nil {
		return core.QuotaProgress{}, err
	}

	done := 0
	for _, l := range logs {
		if l.HabitID != habit.ID || l.Count <= 0 {
			continue
		}
		if rng.Contains(l.Date) {
			done += l.Count
		}
	}

	target := habit.EffectiveTarget()
	remaining := target - done
	if remaining < 0 {
		remaining = 0
	}
	return core.QuotaProgress{
		HabitID:   habit.ID,
		Done:      done,
		Target:    target,
		Remaining: remaining,
		Locked:    done >= target,
		Period:    rng,
	}, nil
}

// RecordCheckIn arbitrates a new check-in against the current progress.
// When admitted, the returned log is for the caller to persist; this
// function persists nothing. A plain compute-then-append is racy under
// concurrent callers, so persistence must go through CheckInGate or the
// storage layer's conditional append.
func RecordCheckIn(habit core.Habit, logs []core.HabitLog, reference time.Time) (CheckInResult, error) {
	progress, err := ComputeProgress(habit, logs, reference)
	if err != nil {
		return CheckInResult{}, err
	}
	if progress.Locked {
		return CheckInResult{
			Accepted: false,
			Reason:   ReasonQuotaReached,
			Progress: progress,
		}, nil
	}

	key, err := core.ToDateKey(reference)
	if err != nil {
		return CheckInResult{}, err
	}
	return CheckInResult{
		Accepted: true,
		Log: core.HabitLog{
			HabitID: habit.ID,
			Date:    key,
			Count:   1,
		},
		Progress: progress,
	}, nil
}
