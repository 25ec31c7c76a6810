package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeboard/internal/cache"
	"lifeboard/internal/core"
	"lifeboard/internal/records"
)

// RefreshPublisher notifies interested consumers that a period's snapshot
// went stale. Nil-safe at the Dashboard level: without a bus, check-ins
// simply skip the notification.
type RefreshPublisher interface {
	PublishSnapshotRefresh(ctx context.Context, kind core.PeriodKind, key core.PeriodKey) error
}

// DashboardOptions bundles the plain configuration surface of the
// aggregations plus the view-cache sizing.
type DashboardOptions struct {
	DeadlineWindowHours int
	HistoryLimit        int
	Locale              string
	CacheSize           int
	CacheTTL            time.Duration
}

func (o DashboardOptions) withDefaults() DashboardOptions {
	if o.CacheSize == 0 {
		o.CacheSize = 128
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = time.Minute
	}
	return o
}

// Dashboard orchestrates the stores and the pure aggregations for the HTTP
// layer. Computed views are cached with an explicit TTL and invalidated on
// writes; the reference instant is always supplied by the caller so the
// whole surface stays deterministic under test.
type Dashboard struct {
	store records.Store
	gate  *CheckInGate
	bus   RefreshPublisher
	opts  DashboardOptions

	calendars *cache.TTLCache[core.CalendarView]
	snapshots *cache.TTLCache[core.PeriodSnapshot]
}

func NewDashboard(store records.Store, bus RefreshPublisher, opts DashboardOptions) *Dashboard {
	opts = opts.withDefaults()
	return &Dashboard{
		store:     store,
		gate:      NewCheckInGate(store),
		bus:       bus,
		opts:      opts,
		calendars: cache.New[core.CalendarView](opts.CacheSize, opts.CacheTTL),
		snapshots: cache.New[core.PeriodSnapshot](opts.CacheSize, opts.CacheTTL),
	}
}

// HabitProgress computes the current-period standing of every active habit.
// A habit whose progress cannot be computed is skipped rather than blanking
// the whole list.
func (d *Dashboard) HabitProgress(ctx context.Context, ownerID string, reference time.Time) ([]core.QuotaProgress, error) {
	habits, err := d.store.ListActiveQuotas(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active quotas: %w", err)
	}

	out := make([]core.QuotaProgress, 0, len(habits))
	for _, habit := range habits {
		progress, err := d.gate.Progress(ctx, ownerID, habit, reference)
		if err != nil {
			slog.WarnContext(ctx, "Skipping habit with uncomputable progress",
				"habit_id", habit.ID, "error", err)
			continue
		}
		out = append(out, progress)
	}
	return out, nil
}

// CheckIn records one check-in through the admission gate, invalidates the
// cached views and notifies the snapshot bus. The quota-reached refusal is
// a normal result, not an error.
func (d *Dashboard) CheckIn(ctx context.Context, ownerID, habitID string, reference time.Time) (CheckInResult, error) {
	habit, err := d.store.GetQuota(ctx, ownerID, habitID)
	if err != nil {
		return CheckInResult{}, fmt.Errorf("get quota %s: %w", habitID, err)
	}

	result, err := d.gate.CheckIn(ctx, ownerID, habit, reference)
	if err != nil {
		return CheckInResult{}, err
	}
	if !result.Accepted {
		return result, nil
	}

	d.snapshots.Purge()
	d.notifyRefresh(ctx, reference)
	return result, nil
}

// Calendar builds (or serves from cache) the calendar view for the selected
// day.
func (d *Dashboard) Calendar(ctx context.Context, ownerID string, selected core.DateKey, reference time.Time) (core.CalendarView, error) {
	refKey, err := core.ToDateKey(reference)
	if err != nil {
		return core.CalendarView{}, err
	}
	cacheKey := fmt.Sprintf("%s|%s|%s", ownerID, selected, refKey)
	if view, ok := d.calendars.Get(cacheKey); ok {
		return view, nil
	}

	tasks, err := d.store.ListDeadlineTasks(ctx, ownerID)
	if err != nil {
		return core.CalendarView{}, fmt.Errorf("list deadline tasks: %w", err)
	}
	view := BuildCalendarView(tasks, selected, reference, CalendarOptions{
		DeadlineWindowHours: d.opts.DeadlineWindowHours,
		Locale:              d.opts.Locale,
	})
	d.calendars.Set(cacheKey, view)
	return view, nil
}

// Review fetches the snapshot inputs concurrently and runs the synchronous
// build. The four record reads are independent, so they share an errgroup.
func (d *Dashboard) Review(ctx context.Context, ownerID string, kind core.PeriodKind, key core.PeriodKey, reference time.Time) (core.PeriodSnapshot, error) {
	if kind != core.PeriodWeek && kind != core.PeriodMonth {
		return core.PeriodSnapshot{}, fmt.Errorf("%w: review supports week or month, got %q", core.ErrUnsupportedPeriodKind, kind)
	}
	rng, err := core.ResolvePeriod(kind, reference, key)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}

	cacheKey := fmt.Sprintf("%s|%s|%s", ownerID, rng.Kind, rng.Key)
	if snap, ok := d.snapshots.Get(cacheKey); ok {
		return snap, nil
	}

	rec, err := d.fetchRawRecords(ctx, ownerID, rng, kind)
	if err != nil {
		return core.PeriodSnapshot{}, err
	}
	snap, err := BuildSnapshot(kind, rng.Key, rec, reference, SnapshotOptions{
		DeadlineWindowHours: d.opts.DeadlineWindowHours,
		HistoryLimit:        d.opts.HistoryLimit,
	})
	if err != nil {
		return core.PeriodSnapshot{}, err
	}
	d.snapshots.Set(cacheKey, snap)
	return snap, nil
}

func (d *Dashboard) fetchRawRecords(ctx context.Context, ownerID string, rng core.PeriodRange, kind core.PeriodKind) (RawRecords, error) {
	var rec RawRecords
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fin, err := d.store.ListFinanceRecordsByDateRange(ctx, ownerID, rng.Start, rng.EndExclusive)
		if err != nil {
			return fmt.Errorf("list finance records: %w", err)
		}
		rec.Finance = fin
		return nil
	})
	g.Go(func() error {
		goals, err := d.store.ListGoals(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		rec.Goals = goals
		return nil
	})
	g.Go(func() error {
		habits, err := d.store.ListActiveQuotas(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("list active quotas: %w", err)
		}
		logs, err := d.store.ListQuotaLogsByDateRange(ctx, ownerID, rng.Start, lastDayOf(rng))
		if err != nil {
			return fmt.Errorf("list quota logs: %w", err)
		}
		rec.Habits = habits
		rec.HabitLogs = logs
		return nil
	})
	g.Go(func() error {
		tasks, err := d.store.ListDeadlineTasks(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("list deadline tasks: %w", err)
		}
		rec.Tasks = tasks
		return nil
	})
	if kind == core.PeriodWeek {
		g.Go(func() error {
			history, err := d.store.ListPriorSnapshots(ctx, ownerID, kind, SnapshotOptions{HistoryLimit: d.opts.HistoryLimit}.historyLimit())
			if err != nil {
				return fmt.Errorf("list prior snapshots: %w", err)
			}
			rec.History = history
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return RawRecords{}, err
	}
	return rec, nil
}

// InvalidateViews drops every cached view, e.g. after a bulk import.
func (d *Dashboard) InvalidateViews() {
	d.calendars.Purge()
	d.snapshots.Purge()
}

func (d *Dashboard) notifyRefresh(ctx context.Context, reference time.Time) {
	if d.bus == nil {
		return
	}
	for _, kind := range []core.PeriodKind{core.PeriodWeek, core.PeriodMonth} {
		rng, err := core.ResolvePeriod(kind, reference, "")
		if err != nil {
			continue
		}
		if err := d.bus.PublishSnapshotRefresh(ctx, kind, rng.Key); err != nil {
			// Stale snapshots are recomputed on read anyway.
			slog.WarnContext(ctx, "Failed to publish snapshot refresh",
				"kind", kind, "key", rng.Key, "error", err)
		}
	}
}
