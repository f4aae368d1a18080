package receipt

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	receiptsSheet = "Receipts"
	summarySheet  = "By Category"
)

var exportHeaders = []string{"Date", "Merchant", "Category", "Total", "Location", "Trip", "Status", "Receipt ID"}

// ExportReceiptsXLSX returns an XLSX workbook of the user's receipts.
// With both from and to set only receipts dated in that range are included;
// with neither set every receipt is exported.
func (s *Service) ExportReceiptsXLSX(userID, from, to string) ([]byte, error) {
	start := time.Now()

	var (
		receipts []*Receipt
		err      error
	)
	switch {
	case from == "" && to == "":
		receipts, err = s.ListReceipts(userID)
	case from == "" || to == "":
		return nil, newError(CodeInvalidArgument, "both from and to are required for a date range", nil)
	default:
		receipts, err = s.FindReceiptsInDateRange(userID, from, to)
	}
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeReceiptsSheet(f, receipts); err != nil {
		return nil, newError(CodeInternal, "building export failed", err)
	}
	if err := writeSummarySheet(f, receipts); err != nil {
		return nil, newError(CodeInternal, "building export failed", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, newError(CodeInternal, "writing export failed", err)
	}

	slog.Info("Exported receipts",
		"user_id", userID,
		"rows", len(receipts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeReceiptsSheet(f *excelize.File, receipts []*Receipt) error {
	// excelize starts with "Sheet1"
	if err := f.SetSheetName("Sheet1", receiptsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("creating money style: %w", err)
	}

	if err := f.SetSheetRow(receiptsSheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}
	if err := f.SetRowStyle(receiptsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("styling headers: %w", err)
	}

	for i, r := range receipts {
		row := []any{
			deref(r.Date),
			deref(r.Merchant),
			r.Category,
			nil,
			"",
			r.TripName,
			string(r.Status),
			r.ID,
		}
		if r.Total != nil {
			row[3] = *r.Total
		}
		if r.Location != nil {
			row[4] = r.Location.Full
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(receiptsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if len(receipts) > 0 {
		if err := f.SetCellStyle(receiptsSheet, "D2", fmt.Sprintf("D%d", len(receipts)+1), money); err != nil {
			return fmt.Errorf("styling totals: %w", err)
		}
	}

	_ = f.SetColWidth(receiptsSheet, "A", "A", 12)
	_ = f.SetColWidth(receiptsSheet, "B", "B", 32)
	_ = f.SetColWidth(receiptsSheet, "C", "C", 18)
	_ = f.SetColWidth(receiptsSheet, "D", "D", 12)
	_ = f.SetColWidth(receiptsSheet, "E", "F", 24)
	_ = f.SetColWidth(receiptsSheet, "H", "H", 38)
	return nil
}

func writeSummarySheet(f *excelize.File, receipts []*Receipt) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	totals := make(map[string]float64)
	for _, r := range receipts {
		if r.Total == nil {
			continue
		}
		category := r.Category
		if category == "" {
			category = string(r.SuggestedCategory)
		}
		totals[category] += *r.Total
	}

	categories := make([]string, 0, len(totals))
	for c := range totals {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Category", "Total"}); err != nil {
		return fmt.Errorf("writing summary headers: %w", err)
	}
	for i, c := range categories {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{c, totals[c]}); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}
	return nil
}
