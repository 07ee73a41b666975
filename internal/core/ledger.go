package core

import "time"

// AgingWindowDays is the threshold separating "current" debt from
// "overdue" debt, counted in whole calendar days from the credit date.
const AgingWindowDays = 30

// Aging splits an outstanding balance into current and overdue buckets.
// Invariant: Current + Overdue == Total whenever Total is positive; all
// three are zero-or-negative-total otherwise. Derived, never persisted.
type Aging struct {
	Current Money `json:"current"`
	Overdue Money `json:"overdue"`
	Total   Money `json:"total"`
}

// Balance returns sum(CREDIT) - sum(PAYMENT). Input order is irrelevant
// and the slice is never mutated.
func Balance(txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		if t.Type == Credit {
			cents += t.Amount.Cents
		} else {
			cents -= t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// ComputeAging classifies the outstanding balance as of the given moment.
//
// The bucket is an approximation, not a FIFO match: "recent" is the sum of
// CREDIT amounts granted within the last AgingWindowDays calendar days,
// and whatever part of the total balance exceeds that is overdue. Payments
// shrink the total but are not matched against specific credits, so recent
// can exceed total; in that case the whole balance counts as current.
//
// A customer with zero or negative balance owes nothing and has nothing
// overdue. asOf must be injected by the caller; this function never reads
// the wall clock.
func ComputeAging(txs []Transaction, asOf time.Time) Aging {
	total := Balance(txs)
	if total.Cents <= 0 {
		return Aging{Total: total}
	}

	var recent int64
	for _, t := range txs {
		if t.Type == Credit && DaysBetween(t.Date, asOf) <= AgingWindowDays {
			recent += t.Amount.Cents
		}
	}

	if total.Cents > recent {
		return Aging{
			Current: Money{Cents: recent},
			Overdue: Money{Cents: total.Cents - recent},
			Total:   total,
		}
	}
	return Aging{Current: total, Total: total}
}

// DaysBetween returns the whole-calendar-day difference between two
// moments: a transaction timestamped today has age 0 regardless of hour.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// SameDay reports whether two moments fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
