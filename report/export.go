package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Report"

// WriteYearReportXLSX 将年报写为 xlsx，每行一个 (月份, 类别)，末尾为合计行
func WriteYearReportXLSX(w io.Writer, r *YearReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return fmt.Errorf("data style: %w", err)
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return fmt.Errorf("summary style: %w", err)
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 14)
	_ = f.SetColWidth(exportSheet, "B", "B", 24)
	_ = f.SetColWidth(exportSheet, "C", "D", 18)

	headers := []interface{}{"Month", "Category", "Total Amount", "Transaction Count"}
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	_ = f.SetCellStyle(exportSheet, "A1", "D1", headerStyle)

	row := 2
	var count int64
	total := decimal.Zero
	for _, m := range r.Months {
		for _, c := range m.Categories {
			amount := c.TotalAmount.Round(2)
			values := []interface{}{m.Month.String(), c.Category, amount.InexactFloat64(), c.TransactionCount}
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			_ = f.SetCellStyle(exportSheet, cell, fmt.Sprintf("D%d", row), dataStyle)
			total = total.Add(amount)
			count += c.TransactionCount
			row++
		}
	}

	totals := []interface{}{"Total", "", total.InexactFloat64(), count}
	if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	_ = f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), summaryStyle)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
