package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"fiado/internal/session"
)

// AgingReportXLSX renders the per-customer aging breakdown as a
// spreadsheet: name, balance, current, overdue and risk badge.
func (s *LedgerService) AgingReportXLSX(ctx context.Context, sess session.Session) ([]byte, error) {
	views, err := s.ListCustomers(ctx, sess)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Cartera"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Cliente", "Saldo", "Vigente", "Vencido", "Riesgo"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, v := range views {
		values := []any{
			v.Name,
			v.Balance.Pesos(),
			v.Aging.Current.Pesos(),
			v.Aging.Overdue.Pesos(),
			v.Risk.Label(),
		}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
