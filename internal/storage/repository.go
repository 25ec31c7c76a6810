package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements records.Store over a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ records.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListActiveQuotas(ctx context.Context, ownerID string) ([]core.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, period, target_count, active
		 FROM habits WHERE owner_id = ? AND active = 1 ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active quotas: %w", err)
	}
	defer rows.Close()

	var habits []core.Habit
	for rows.Next() {
		var h core.Habit
		var active int64
		if err := rows.Scan(&h.ID, &h.Name, &h.Period, &h.TargetCount, &active); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		h.Active = active != 0
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (r *SQLiteRepository) GetQuota(ctx context.Context, ownerID, habitID string) (core.Habit, error) {
	var h core.Habit
	var active int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, period, target_count, active
		 FROM habits WHERE owner_id = ? AND id = ?`,
		ownerID, habitID).Scan(&h.ID, &h.Name, &h.Period, &h.TargetCount, &active)
	if err == sql.ErrNoRows {
		return core.Habit{}, fmt.Errorf("%w: %s", core.ErrHabitNotFound, habitID)
	}
	if err != nil {
		return core.Habit{}, fmt.Errorf("get quota: %w", err)
	}
	h.Active = active != 0
	return h, nil
}

// CreateHabit inserts a new recurring quota.
func (r *SQLiteRepository) CreateHabit(ctx context.Context, ownerID string, h core.Habit) error {
	if err := h.Validate(); err != nil {
		return err
	}
	active := 0
	if h.Active {
		active = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO habits (id, owner_id, name, period, target_count, active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, ownerID, h.Name, h.Period, h.TargetCount, active)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListQuotaLogsByDateRange(ctx context.Context, ownerID string, start, endInclusive core.DateKey) ([]core.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, habit_id, date_key, count
		 FROM habit_logs
		 WHERE owner_id = ? AND date_key >= ? AND date_key <= ?
		 ORDER BY date_key, id`,
		ownerID, start, endInclusive)
	if err != nil {
		return nil, fmt.Errorf("list quota logs: %w", err)
	}
	defer rows.Close()

	var logs []core.HabitLog
	for rows.Next() {
		var l core.HabitLog
		var id int64
		if err := rows.Scan(&id, &l.HabitID, &l.Date, &l.Count); err != nil {
			return nil, fmt.Errorf("scan quota log: %w", err)
		}
		l.ID = strconv.FormatInt(id, 10)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *SQLiteRepository) AppendQuotaLog(ctx context.Context, ownerID string, log core.HabitLog) (core.HabitLog, error) {
	if err := log.Validate(); err != nil {
		return core.HabitLog{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO habit_logs (owner_id, habit_id, date_key, count) VALUES (?, ?, ?, ?)`,
		ownerID, log.HabitID, log.Date, log.Count)
	if err != nil {
		return core.HabitLog{}, fmt.Errorf("append quota log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.HabitLog{}, fmt.Errorf("last insert id: %w", err)
	}
	log.ID = strconv.FormatInt(id, 10)
	return log, nil
}

// AppendQuotaLogBelowTarget performs the conditional append as one INSERT
// ... SELECT ... WHERE statement, so the sum check and the insert commit
// atomically. Two racing writers can never both land past the target.
func (r *SQLiteRepository) AppendQuotaLogBelowTarget(ctx context.Context, ownerID string, log core.HabitLog, rng core.PeriodRange, target int) (core.HabitLog, bool, error) {
	if err := log.Validate(); err != nil {
		return core.HabitLog{}, false, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO habit_logs (owner_id, habit_id, date_key, count)
		 SELECT ?, ?, ?, ?
		 WHERE (SELECT COALESCE(SUM(count), 0) FROM habit_logs
		        WHERE owner_id = ? AND habit_id = ?
		          AND count > 0
		          AND date_key >= ? AND date_key < ?) < ?`,
		ownerID, log.HabitID, log.Date, log.Count,
		ownerID, log.HabitID, rng.Start, rng.EndExclusive, target)
	if err != nil {
		return core.HabitLog{}, false, fmt.Errorf("conditional append: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.HabitLog{}, false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.HabitLog{}, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.HabitLog{}, false, fmt.Errorf("last insert id: %w", err)
	}
	log.ID = strconv.FormatInt(id, 10)

	slog.InfoContext(ctx, "Check-in appended",
		"habit_id", log.HabitID,
		"date_key", log.Date,
		"period_key", rng.Key)
	return log, true, nil
}

func (r *SQLiteRepository) ListDeadlineTasks(ctx context.Context, ownerID string) ([]core.VideoTask, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, stage, priority, deadline, status
		 FROM video_tasks WHERE owner_id = ? ORDER BY deadline IS NULL, deadline, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list deadline tasks: %w", err)
	}
	defer rows.Close()

	var tasks []core.VideoTask
	for rows.Next() {
		var t core.VideoTask
		var deadline sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &t.Stage, &t.Priority, &deadline, &t.Status); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if deadline.Valid {
			t.Deadline = deadline.Time
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a production task. A zero deadline stores NULL.
func (r *SQLiteRepository) CreateTask(ctx context.Context, ownerID string, t core.VideoTask) error {
	var deadline any
	if t.HasDeadline() {
		deadline = t.Deadline
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO video_tasks (id, owner_id, title, stage, priority, deadline, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, ownerID, t.Title, t.Stage, t.Priority, deadline, t.Status)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListFinanceRecordsByDateRange(ctx context.Context, ownerID string, start, endExclusive core.DateKey) (core.FinanceRecords, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT record_type, date_key, description, amount_cents
		 FROM finance_records
		 WHERE owner_id = ? AND date_key >= ? AND date_key < ?
		 ORDER BY date_key, id`,
		ownerID, start, endExclusive)
	if err != nil {
		return core.FinanceRecords{}, fmt.Errorf("list finance records: %w", err)
	}
	defer rows.Close()

	var fin core.FinanceRecords
	for rows.Next() {
		var recordType string
		var e core.FinanceEntry
		if err := rows.Scan(&recordType, &e.Date, &e.Description, &e.Amount.Cents); err != nil {
			return core.FinanceRecords{}, fmt.Errorf("scan finance record: %w", err)
		}
		switch recordType {
		case "expense":
			fin.Expenses = append(fin.Expenses, e)
		case "income":
			fin.Incomes = append(fin.Incomes, e)
		case "transfer":
			fin.Transfers = append(fin.Transfers, e)
		}
	}
	return fin, rows.Err()
}

// AddFinanceRecord inserts one money movement.
func (r *SQLiteRepository) AddFinanceRecord(ctx context.Context, ownerID, recordType string, e core.FinanceEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO finance_records (owner_id, record_type, date_key, description, amount_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		ownerID, recordType, e.Date, e.Description, e.Amount.Cents)
	if err != nil {
		return fmt.Errorf("add finance record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, status, target_value, current_value
		 FROM goals WHERE owner_id = ? ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var g core.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.Status, &g.TargetValue, &g.CurrentValue); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// CreateGoal inserts a goal.
func (r *SQLiteRepository) CreateGoal(ctx context.Context, ownerID string, g core.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, owner_id, title, status, target_value, current_value)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, ownerID, g.Title, g.Status, g.TargetValue, g.CurrentValue)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, ownerID string, snapshot core.PeriodSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (owner_id, period_kind, period_key, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, period_kind, period_key)
		 DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		ownerID, snapshot.Period.Kind, snapshot.Period.Key, string(payload), snapshot.GeneratedAt.UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved",
		"period_kind", snapshot.Period.Kind,
		"period_key", snapshot.Period.Key)
	return nil
}

func (r *SQLiteRepository) ListPriorSnapshots(ctx context.Context, ownerID string, kind core.PeriodKind, limit int) ([]core.SnapshotRef, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT period_key, updated_at FROM snapshots
		 WHERE owner_id = ? AND period_kind = ?
		 ORDER BY period_key DESC LIMIT ?`,
		ownerID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list prior snapshots: %w", err)
	}
	defer rows.Close()

	var refs []core.SnapshotRef
	for rows.Next() {
		var ref core.SnapshotRef
		var updated time.Time
		if err := rows.Scan(&ref.PeriodKey, &updated); err != nil {
			return nil, fmt.Errorf("scan snapshot ref: %w", err)
		}
		ref.UpdatedAt = updated
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
