// Package sheets defines the outbound port for weekly report export.
package sheets

import (
	"context"
	"time"

	"fiado/internal/core"
)

// SummaryRow is one weekly report line for a store.
type SummaryRow struct {
	Week            time.Time
	StoreID         string
	Collected       core.Money
	NewClients      int
	OverdueAccounts int
}

// ReportWriter appends weekly summary rows to an external report.
type ReportWriter interface {
	AppendSummaryRow(ctx context.Context, row SummaryRow) (rowRef string, err error)
}
