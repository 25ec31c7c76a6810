// Package records defines the ports the aggregation core consumes. The
// core itself never persists anything; these interfaces are the seam to
// whichever store owns the raw rows (SQLite here, in-memory for tests).
package records

import (
	"context"

	"lifeboard/internal/core"
)

type (
	// QuotaStore lists the recurring quotas (habits) for one owner.
	QuotaStore interface {
		ListActiveQuotas(ctx context.Context, ownerID string) ([]core.Habit, error)
		GetQuota(ctx context.Context, ownerID, habitID string) (core.Habit, error)
	}

	// QuotaLogStore reads and appends the append-only check-in log.
	QuotaLogStore interface {
		// ListQuotaLogsByDateRange returns all logs with start <= date <= endInclusive.
		ListQuotaLogsByDateRange(ctx context.Context, ownerID string, start, endInclusive core.DateKey) ([]core.HabitLog, error)

		// AppendQuotaLog appends unconditionally and returns the stored log.
		AppendQuotaLog(ctx context.Context, ownerID string, log core.HabitLog) (core.HabitLog, error)

		// AppendQuotaLogBelowTarget appends only if the store-computed sum of
		// counts for the habit inside [rng.Start, rng.EndExclusive) is still
		// below target at commit time. The check and the insert are one
		// atomic operation: two racing callers can never both be admitted
		// past the target. Returns admitted=false without error when the
		// quota was already met.
		AppendQuotaLogBelowTarget(ctx context.Context, ownerID string, log core.HabitLog, rng core.PeriodRange, target int) (core.HabitLog, bool, error)
	}

	// TaskStore lists deadline-bearing production tasks.
	TaskStore interface {
		ListDeadlineTasks(ctx context.Context, ownerID string) ([]core.VideoTask, error)
	}

	// FinanceStore returns the money movements inside a half-open range.
	FinanceStore interface {
		ListFinanceRecordsByDateRange(ctx context.Context, ownerID string, start, endExclusive core.DateKey) (core.FinanceRecords, error)
	}

	// GoalStore lists goals.
	GoalStore interface {
		ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
	}

	// SnapshotStore persists built review snapshots and feeds the history picker.
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, ownerID string, snapshot core.PeriodSnapshot) error
		ListPriorSnapshots(ctx context.Context, ownerID string, kind core.PeriodKind, limit int) ([]core.SnapshotRef, error)
	}

	// Store is the full collaborator surface the dashboard composes.
	Store interface {
		QuotaStore
		QuotaLogStore
		TaskStore
		FinanceStore
		GoalStore
		SnapshotStore
	}
)
