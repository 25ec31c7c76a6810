package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/core"
	"lifeboard/internal/records"
	"lifeboard/internal/services"
)

type fakeExporter struct {
	appended []core.PeriodSnapshot
	fail     bool
}

func (e *fakeExporter) AppendSnapshot(_ context.Context, snapshot core.PeriodSnapshot) error {
	if e.fail {
		return errors.New("sheet unavailable")
	}
	e.appended = append(e.appended, snapshot)
	return nil
}

func workerFixture(exporter SnapshotExporter) (*records.MemoryStore, *SnapshotWorker) {
	store := records.NewMemoryStore()
	dashboard := services.NewDashboard(store, nil, services.DashboardOptions{})
	return store, NewSnapshotWorker(dashboard, store, exporter, "owner")
}

func TestHandleRefreshMessage(t *testing.T) {
	ctx := context.Background()
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	exporter := &fakeExporter{}
	store, w := workerFixture(exporter)

	msg := &amqp.SnapshotRefreshMessage{
		OwnerID:     "owner",
		PeriodKind:  core.PeriodWeek,
		PeriodKey:   "2025-W11",
		RequestedAt: reference,
	}
	if err := w.HandleRefreshMessage(ctx, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs, err := store.ListPriorSnapshots(ctx, "owner", core.PeriodWeek, 10)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(refs) != 1 || refs[0].PeriodKey != "2025-W11" {
		t.Fatalf("stored refs = %+v, want just 2025-W11", refs)
	}

	if len(exporter.appended) != 1 {
		t.Fatalf("exported %d snapshots, want 1", len(exporter.appended))
	}
	if exporter.appended[0].Period.Key != "2025-W11" {
		t.Errorf("exported key = %s, want 2025-W11", exporter.appended[0].Period.Key)
	}
}

func TestHandleRefreshMessageDefaultsOwner(t *testing.T) {
	ctx := context.Background()
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	store, w := workerFixture(nil)

	msg := &amqp.SnapshotRefreshMessage{
		PeriodKind:  core.PeriodMonth,
		PeriodKey:   "2025-03",
		RequestedAt: reference,
	}
	if err := w.HandleRefreshMessage(ctx, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs, err := store.ListPriorSnapshots(ctx, "owner", core.PeriodMonth, 10)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("stored refs = %+v, want the worker's own owner id used", refs)
	}
}

func TestRebuildSurvivesExportFailure(t *testing.T) {
	ctx := context.Background()
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	exporter := &fakeExporter{fail: true}
	store, w := workerFixture(exporter)

	if err := w.Rebuild(ctx, "owner", core.PeriodWeek, "2025-W11", reference); err != nil {
		t.Fatalf("export failure leaked: %v", err)
	}

	refs, err := store.ListPriorSnapshots(ctx, "owner", core.PeriodWeek, 10)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(refs) != 1 {
		t.Fatal("snapshot not stored when the exporter failed")
	}
}

func TestRebuildRejectsDayKind(t *testing.T) {
	ctx := context.Background()
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	_, w := workerFixture(nil)

	if err := w.Rebuild(ctx, "owner", core.PeriodDay, "2025-03-12", reference); !errors.Is(err, core.ErrUnsupportedPeriodKind) {
		t.Fatalf("expected ErrUnsupportedPeriodKind, got %v", err)
	}
}

func TestRebuildLastWeek(t *testing.T) {
	ctx := context.Background()
	// Wednesday of 2025-W11; last week is 2025-W10.
	reference := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	store, w := workerFixture(nil)

	if err := w.RebuildLastWeek(ctx, reference); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refs, err := store.ListPriorSnapshots(ctx, "owner", core.PeriodWeek, 10)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(refs) != 1 || refs[0].PeriodKey != "2025-W10" {
		t.Fatalf("stored refs = %+v, want just 2025-W10", refs)
	}
}
