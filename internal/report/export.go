package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX renders a report as a spreadsheet: a summary sheet, one row
// per island, and the debtor breakdown. Consumers hand the bytes to
// whatever delivery channel they use.
func ExportXLSX(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	islandsSheet := "islands"
	debtorsSheet := "debtors"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(islandsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(debtorsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Shift Reconciliation Report")
	_ = f.SetCellValue(summarySheet, "A3", "Station")
	_ = f.SetCellValue(summarySheet, "B3", r.StationID)
	_ = f.SetCellValue(summarySheet, "A4", "Shift")
	_ = f.SetCellValue(summarySheet, "B4", r.ShiftID)
	_ = f.SetCellValue(summarySheet, "A5", "Meter used")
	_ = f.SetCellValue(summarySheet, "B5", string(r.MeterType))
	_ = f.SetCellValue(summarySheet, "A6", "Generated")
	_ = f.SetCellValue(summarySheet, "B6", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	_ = f.SetCellValue(summarySheet, "A7", "Total sales")
	_ = f.SetCellValue(summarySheet, "B7", r.Totals.TotalSales.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A8", "Total collected")
	_ = f.SetCellValue(summarySheet, "B8", r.Totals.TotalCollected.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A9", "Overall variance")
	_ = f.SetCellValue(summarySheet, "B9", r.Totals.Variance.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A10", "Wallet balance (projected)")
	_ = f.SetCellValue(summarySheet, "B10", r.Wallet.NewBalance.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A11", "Needs review")
	_ = f.SetCellValue(summarySheet, "B11", r.HasIssues)
	if r.Notes != "" {
		_ = f.SetCellValue(summarySheet, "A13", "Notes")
		_ = f.SetCellValue(summarySheet, "B13", r.Notes)
	}

	islandHeaders := []string{"Island", "Attendants", "Sales", "Receipts", "Expenses", "Cash drops", "Debts", "Collected", "Variance", "Variance %", "Status"}
	for i, h := range islandHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(islandsSheet, cell, h)
	}
	writeIslandRow := func(rowIdx int, row IslandRow) {
		values := []any{
			row.IslandID,
			fmt.Sprintf("%v", row.Attendants),
			row.TotalSales.InexactFloat64(),
			row.Receipts.InexactFloat64(),
			row.Expenses.InexactFloat64(),
			row.CashDrops.InexactFloat64(),
			row.TotalDebts.InexactFloat64(),
			row.TotalCollected.InexactFloat64(),
			row.Variance.InexactFloat64(),
			row.VariancePct.Round(2).InexactFloat64(),
			row.Status,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
			_ = f.SetCellValue(islandsSheet, cell, v)
		}
	}
	for i, row := range r.Islands {
		writeIslandRow(i+2, row)
	}
	writeIslandRow(len(r.Islands)+2, r.Totals)

	debtorHeaders := []string{"Debtor", "Island", "Reference", "Amount", "Running total"}
	for i, h := range debtorHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(debtorsSheet, cell, h)
	}
	rowIdx := 2
	for _, d := range r.Debtors {
		for _, tx := range d.Transactions {
			_ = f.SetCellValue(debtorsSheet, fmt.Sprintf("A%d", rowIdx), d.DebtorName)
			_ = f.SetCellValue(debtorsSheet, fmt.Sprintf("B%d", rowIdx), tx.IslandID)
			_ = f.SetCellValue(debtorsSheet, fmt.Sprintf("C%d", rowIdx), tx.Reference)
			_ = f.SetCellValue(debtorsSheet, fmt.Sprintf("D%d", rowIdx), tx.Amount.InexactFloat64())
			rowIdx++
		}
		_ = f.SetCellValue(debtorsSheet, fmt.Sprintf("E%d", rowIdx-1), d.Total.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
