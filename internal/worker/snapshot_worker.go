// Package worker rebuilds and persists review snapshots out of band: on
// refresh messages from the dashboard and on a nightly tick for the week
// that just closed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/core"
	"lifeboard/internal/records"
	"lifeboard/internal/services"
)

// SnapshotExporter mirrors a finished snapshot somewhere external, e.g. a
// review spreadsheet. Optional.
type SnapshotExporter interface {
	AppendSnapshot(ctx context.Context, snapshot core.PeriodSnapshot) error
}

type SnapshotWorker struct {
	dashboard *services.Dashboard
	store     records.SnapshotStore
	exporter  SnapshotExporter
	ownerID   string
}

func NewSnapshotWorker(dashboard *services.Dashboard, store records.SnapshotStore, exporter SnapshotExporter, ownerID string) *SnapshotWorker {
	return &SnapshotWorker{
		dashboard: dashboard,
		store:     store,
		exporter:  exporter,
		ownerID:   ownerID,
	}
}

// HandleRefreshMessage rebuilds one period snapshot and persists it.
func (w *SnapshotWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.SnapshotRefreshMessage) error {
	reference := msg.RequestedAt
	if reference.IsZero() {
		reference = time.Now()
	}
	owner := msg.OwnerID
	if owner == "" {
		owner = w.ownerID
	}
	return w.Rebuild(ctx, owner, msg.PeriodKind, msg.PeriodKey, reference)
}

// Rebuild computes the snapshot for the named period, stores it and, when
// an exporter is configured, mirrors it out.
func (w *SnapshotWorker) Rebuild(ctx context.Context, ownerID string, kind core.PeriodKind, key core.PeriodKey, reference time.Time) error {
	snap, err := w.dashboard.Review(ctx, ownerID, kind, key, reference)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	if err := w.store.SaveSnapshot(ctx, ownerID, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if w.exporter != nil {
		if err := w.exporter.AppendSnapshot(ctx, snap); err != nil {
			// Export is mirroring only; the stored snapshot is authoritative.
			slog.WarnContext(ctx, "Snapshot export failed",
				"period_key", snap.Period.Key, "error", err)
		}
	}

	slog.InfoContext(ctx, "Snapshot rebuilt",
		"period_kind", kind,
		"period_key", snap.Period.Key)
	return nil
}

// RebuildLastWeek computes the snapshot for the week that closed before the
// reference instant. Intended for the nightly tick: the explicit reference
// keeps the run reproducible.
func (w *SnapshotWorker) RebuildLastWeek(ctx context.Context, reference time.Time) error {
	lastWeek := core.AddDays(core.StartOfWeekMonday(reference), -7)
	return w.Rebuild(ctx, w.ownerID, core.PeriodWeek, core.ISOWeekKey(lastWeek), reference)
}

// RunNightly rebuilds last week's snapshot on every tick until the context
// is done.
func (w *SnapshotWorker) RunNightly(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := w.RebuildLastWeek(ctx, now); err != nil {
				slog.ErrorContext(ctx, "Nightly snapshot rebuild failed", "error", err)
			}
		}
	}
}
