package services

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"lifeboard/internal/core"
)

// Deadline window and history bounds. The window flags tasks as "due soon"
// before they become overdue; values outside the clamp are configuration
// drift and are normalized in place.
const (
	DefaultDeadlineWindowHours = 72
	MinDeadlineWindowHours     = 12
	MaxDeadlineWindowHours     = 336

	monthGridCells = 42 // 6 rows x 7 columns, always fully covering the month
)

// CalendarOptions configures the aggregator. The zero value is usable.
type CalendarOptions struct {
	DeadlineWindowHours int
	// Locale drives the agenda title tiebreak. Empty means und (root collation).
	Locale string
}

func (o CalendarOptions) windowHours() int {
	h := o.DeadlineWindowHours
	if h == 0 {
		h = DefaultDeadlineWindowHours
	}
	if h < MinDeadlineWindowHours {
		h = MinDeadlineWindowHours
	}
	if h > MaxDeadlineWindowHours {
		h = MaxDeadlineWindowHours
	}
	return h
}

func (o CalendarOptions) collator() *collate.Collator {
	tag, err := language.Parse(o.Locale)
	if err != nil {
		tag = language.Und
	}
	return collate.New(tag)
}

// ClassifyTask flags one scheduled, non-done task against the reference
// instant. Overdue means the deadline already passed; due-today means the
// deadline's civil date is today's and it has not passed yet, so the two
// can never hold together. Due-soon covers the lookahead window and may
// overlap due-today.
func ClassifyTask(task core.VideoTask, now time.Time, windowHours int) core.TaskClassification {
	if !task.HasDeadline() || task.IsDone() {
		return core.TaskClassification{}
	}
	c := core.TaskClassification{}
	if task.Deadline.Before(now) {
		c.IsOverdue = true
		return c
	}
	nowKey, _ := core.ToDateKey(now)
	dueKey, _ := core.ToDateKey(task.Deadline)
	c.IsDueToday = nowKey == dueKey
	c.IsDueSoon = !task.Deadline.After(now.Add(time.Duration(windowHours) * time.Hour))
	return c
}

// BuildCalendarView buckets the tasks into a month grid, a week strip and
// the selected day's agenda, and summarizes reminders across all non-done
// tasks. An unparsable or empty selected key selects today.
func BuildCalendarView(tasks []core.VideoTask, selected core.DateKey, now time.Time, opts CalendarOptions) core.CalendarView {
	window := opts.windowHours()

	selDate, ok := core.ParseDateKey(selected)
	if !ok {
		selDate = core.StartOfDay(now)
		selected, _ = core.ToDateKey(now)
	}
	todayKey, _ := core.ToDateKey(now)

	// Bucket scheduled tasks by the deadline's civil date. Done tasks stay
	// on the grid (the day happened) but never count as overdue.
	type dayBucket struct {
		tasks   []core.VideoTask
		overdue int
	}
	buckets := make(map[core.DateKey]*dayBucket)
	var unscheduled []core.VideoTask
	for _, task := range tasks {
		if !task.HasDeadline() {
			unscheduled = append(unscheduled, task)
			continue
		}
		key, err := core.ToDateKey(task.Deadline)
		if err != nil {
			continue
		}
		b := buckets[key]
		if b == nil {
			b = &dayBucket{}
			buckets[key] = b
		}
		b.tasks = append(b.tasks, task)
		if ClassifyTask(task, now, window).IsOverdue {
			b.overdue++
		}
	}

	cell := func(day time.Time, inMonth bool) core.DayCell {
		key, _ := core.ToDateKey(day)
		c := core.DayCell{
			Date:       key,
			IsInMonth:  inMonth,
			IsToday:    key == todayKey,
			IsSelected: key == selected,
		}
		if b := buckets[key]; b != nil {
			c.TaskCount = len(b.tasks)
			c.OverdueCount = b.overdue
		}
		return c
	}

	// Month grid: 42 cells anchored at the Monday on or before the 1st, so
	// the month is fully covered whatever weekday it starts on. Empty days
	// are present cells with zero counts, never holes.
	firstOfMonth := core.StartOfMonth(selDate)
	anchor := core.StartOfWeekMonday(firstOfMonth)
	grid := make([]core.DayCell, 0, monthGridCells)
	for i := 0; i < monthGridCells; i++ {
		day := core.AddDays(anchor, i)
		grid = append(grid, cell(day, day.Month() == firstOfMonth.Month()))
	}

	// Week strip: the ISO week containing the selected day.
	monday := core.StartOfWeekMonday(selDate)
	strip := make([]core.DayCell, 0, 7)
	for i := 0; i < 7; i++ {
		day := core.AddDays(monday, i)
		strip = append(strip, cell(day, day.Month() == selDate.Month()))
	}

	// Agenda: the selected day's bucket under the strict total order of
	// overdue first, earlier deadline, higher priority, collated title.
	var agenda []core.AgendaItem
	if b := buckets[selected]; b != nil {
		agenda = make([]core.AgendaItem, 0, len(b.tasks))
		for _, task := range b.tasks {
			agenda = append(agenda, core.AgendaItem{
				Task:           task,
				Classification: ClassifyTask(task, now, window),
			})
		}
		sortAgenda(agenda, opts.collator())
	}

	return core.CalendarView{
		SelectedDate: selected,
		MonthGrid:    grid,
		WeekStrip:    strip,
		Agenda:       agenda,
		Unscheduled:  unscheduled,
		Reminders:    buildReminders(tasks, now, window),
	}
}

func sortAgenda(items []core.AgendaItem, col *collate.Collator) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Classification.IsOverdue != b.Classification.IsOverdue {
			return a.Classification.IsOverdue
		}
		if !a.Task.Deadline.Equal(b.Task.Deadline) {
			return a.Task.Deadline.Before(b.Task.Deadline)
		}
		if a.Task.Priority.Rank() != b.Task.Priority.Rank() {
			return a.Task.Priority.Rank() > b.Task.Priority.Rank()
		}
		return col.CompareString(a.Task.Title, b.Task.Title) < 0
	})
}

// buildReminders counts urgency buckets across all non-done tasks and picks
// the single most urgent id: the earliest-deadline overdue task, else the
// earliest due today, else the earliest due soon.
func buildReminders(tasks []core.VideoTask, now time.Time, windowHours int) core.RemindersSummary {
	scheduled := make([]core.VideoTask, 0, len(tasks))
	for _, task := range tasks {
		if task.IsDone() || !task.HasDeadline() {
			continue
		}
		scheduled = append(scheduled, task)
	}
	sort.Slice(scheduled, func(i, j int) bool {
		return scheduled[i].Deadline.Before(scheduled[j].Deadline)
	})

	summary := core.RemindersSummary{}
	var firstOverdue, firstDueToday, firstDueSoon string
	for _, task := range scheduled {
		c := ClassifyTask(task, now, windowHours)
		if c.IsOverdue {
			summary.Overdue++
			if firstOverdue == "" {
				firstOverdue = task.ID
			}
		}
		if c.IsDueToday {
			summary.DueToday++
			if firstDueToday == "" {
				firstDueToday = task.ID
			}
		}
		if c.IsDueSoon {
			summary.DueSoon++
			if firstDueSoon == "" {
				firstDueSoon = task.ID
			}
		}
	}
	switch {
	case firstOverdue != "":
		summary.MostUrgentID = firstOverdue
	case firstDueToday != "":
		summary.MostUrgentID = firstDueToday
	default:
		summary.MostUrgentID = firstDueSoon
	}
	return summary
}
