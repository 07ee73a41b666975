// Package reminder decides which daily notifications a store should
// receive. It is pure: the caller injects "today" and the last-run
// marker, and persists the marker advance itself. Scheduling (when to
// invoke) and delivery (where events go) live elsewhere.
package reminder

import (
	"fmt"
	"time"

	"fiado/internal/core"
)

// EventKind tags a notification event for routing and metrics.
type EventKind string

const (
	KindDueToday      EventKind = "due_today"
	KindOverdue       EventKind = "overdue"
	KindUpcoming      EventKind = "upcoming"
	KindWeeklySummary EventKind = "weekly_summary"
)

// Event is a single notification to be delivered to the store owner.
type Event struct {
	Kind  EventKind
	Title string
	Body  string
}

// Evaluation is the outcome of a daily check. ShouldRun reports whether
// the caller must emit the events and advance the last-run marker to
// today; it is true exactly once per calendar day while notifications
// are enabled, even when no event fired.
type Evaluation struct {
	ShouldRun bool
	Events    []Event
}

// Evaluate runs the once-per-day notification heuristics.
//
// Disabled settings short-circuit everything, including the marker
// advance, so the full check re-runs once notifications come back on.
// A lastRun on the same calendar day as today means the daily gate was
// already consumed.
func Evaluate(customers []core.Customer, settings core.NotificationSettings, today, lastRun time.Time) Evaluation {
	if !settings.Enabled {
		return Evaluation{}
	}
	if !lastRun.IsZero() && core.SameDay(lastRun, today) {
		return Evaluation{}
	}

	ev := Evaluation{ShouldRun: true}
	if settings.DailyReminders {
		ev.Events = append(ev.Events, dailyReminders(customers, today)...)
	}
	if settings.WeeklyReports && today.Weekday() == time.Monday {
		ev.Events = append(ev.Events, weeklySummary(customers, today))
	}
	return ev
}

// dailyReminders inspects every credit's age against the 30-day window:
// exactly 30 days old means due today, 29 days means due tomorrow, and
// anything older feeds the overdue digest.
func dailyReminders(customers []core.Customer, today time.Time) []Event {
	var (
		dueTodayCount  int
		upcomingCents  int64
		overdueCount   int
		overdueDaysMax int
	)

	for _, c := range customers {
		aging := core.ComputeAging(c.Transactions, today)
		if aging.Total.Cents <= 0 {
			continue
		}
		if aging.Overdue.Cents > 0 {
			overdueCount++
		}
		for _, t := range c.Transactions {
			if t.Type != core.Credit {
				continue
			}
			switch daysOld := core.DaysBetween(t.Date, today); {
			case daysOld == core.AgingWindowDays:
				dueTodayCount++
			case daysOld == core.AgingWindowDays-1:
				upcomingCents += t.Amount.Cents
			case daysOld > core.AgingWindowDays && daysOld > overdueDaysMax:
				overdueDaysMax = daysOld
			}
		}
	}

	var events []Event
	if dueTodayCount > 0 {
		events = append(events, Event{
			Kind:  KindDueToday,
			Title: "Vencimientos de Hoy",
			Body:  fmt.Sprintf("%d créditos vencen hoy.", dueTodayCount),
		})
	}
	if overdueCount > 0 {
		events = append(events, Event{
			Kind:  KindOverdue,
			Title: "Cartera Vencida",
			Body:  fmt.Sprintf("%d clientes tienen hasta %d días de retraso.", overdueCount, overdueDaysMax),
		})
	}
	if upcomingCents > 0 {
		events = append(events, Event{
			Kind:  KindUpcoming,
			Title: "Cobros para Mañana",
			Body:  fmt.Sprintf("Pagos próximos para mañana: %s", formatPesos(upcomingCents)),
		})
	}
	return events
}

// WeekStats aggregates the seven full calendar days before today,
// [today-7, today-1]: payments collected, customers created, and a
// current (not historical) count of overdue accounts.
type WeekStats struct {
	Collected       core.Money
	NewClients      int
	OverdueAccounts int
}

func ComputeWeekStats(customers []core.Customer, today time.Time) WeekStats {
	windowStart := startOfDay(today.AddDate(0, 0, -7))
	windowEnd := startOfDay(today) // exclusive

	var stats WeekStats
	for _, c := range customers {
		if inWindow(c.CreatedAt, windowStart, windowEnd) {
			stats.NewClients++
		}
		for _, t := range c.Transactions {
			if t.Type == core.Payment && inWindow(t.Date, windowStart, windowEnd) {
				stats.Collected.Cents += t.Amount.Cents
			}
		}
		if core.ComputeAging(c.Transactions, today).Overdue.Cents > 0 {
			stats.OverdueAccounts++
		}
	}
	return stats
}

func weeklySummary(customers []core.Customer, today time.Time) Event {
	stats := ComputeWeekStats(customers, today)
	return Event{
		Kind:  KindWeeklySummary,
		Title: "Resumen Semanal",
		Body: fmt.Sprintf("Esta semana: %s cobrados, %d nuevos clientes, %d cuentas vencidas.",
			formatPesos(stats.Collected.Cents), stats.NewClients, stats.OverdueAccounts),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func formatPesos(cents int64) string {
	m := core.Money{Cents: cents}
	return "$" + m.String()
}
