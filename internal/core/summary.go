package core

import (
	"sort"
	"time"
)

// RecentActivityLimit bounds the activity feed in a summary.
const RecentActivityLimit = 10

// ActivityItem is a transaction annotated with its owning customer, for
// the dashboard activity feed.
type ActivityItem struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Type         TxType    `json:"type"`
	Amount       Money     `json:"amount"`
	Date         time.Time `json:"date"`
}

// FinancialSummary is the store-wide rollup shown on the dashboard.
// Derived on every query; a snapshot, never persisted.
type FinancialSummary struct {
	TotalReceivable Money          `json:"totalReceivable"`
	CurrentDebt     Money          `json:"currentDebt"`
	OverdueDebt     Money          `json:"overdueDebt"`
	ActiveCustomers int            `json:"activeCustomers"`
	RecentActivity  []ActivityItem `json:"recentActivity"`
}

// BuildSummary aggregates per-customer aging into store totals and a
// bounded most-recent-first activity feed. Customers with no positive
// balance contribute nothing to the totals but their transactions still
// appear in the feed. Inputs are not mutated.
func BuildSummary(customers []Customer, asOf time.Time) FinancialSummary {
	var s FinancialSummary
	activity := make([]ActivityItem, 0, len(customers)*4)

	for _, c := range customers {
		a := ComputeAging(c.Transactions, asOf)
		if a.Total.Cents > 0 {
			s.TotalReceivable = s.TotalReceivable.Add(a.Total)
			s.CurrentDebt = s.CurrentDebt.Add(a.Current)
			s.OverdueDebt = s.OverdueDebt.Add(a.Overdue)
		}
		if Balance(c.Transactions).Cents > 0 {
			s.ActiveCustomers++
		}
		for _, t := range c.Transactions {
			activity = append(activity, ActivityItem{
				ID:           t.ID,
				CustomerID:   c.ID,
				CustomerName: c.Name,
				Type:         t.Type,
				Amount:       t.Amount,
				Date:         t.Date,
			})
		}
	}

	// Date descending, ties keep input order.
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Date.After(activity[j].Date)
	})
	if len(activity) > RecentActivityLimit {
		activity = activity[:RecentActivityLimit]
	}
	s.RecentActivity = activity
	return s
}
