package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	invoices "utility-cloud/internal/invoices/domain"
)

// BuildInvoicePDF renders a minimal PDF for an invoice.
func BuildInvoicePDF(invoice *invoices.Invoice, lines []invoices.LineItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Utility Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice: %s", invoice.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Meter: %s", invoice.MeterID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s", invoice.PeriodStart.Format("2006-01-02"), invoice.PeriodEnd.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Version: %d", invoice.Version))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", invoice.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if !invoice.IssuedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", invoice.IssuedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	if invoice.VoidReason != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Void reason: %s", invoice.VoidReason))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Consumption: %s", invoice.TotalConsumption))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount (%s): %s", invoice.Currency, invoice.TotalAmount.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Amount Paid: %s", invoice.AmountPaid.StringFixed(2)))
	pdf.Ln(8)

	// Lines table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Interval", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Consumption", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range lines {
		interval := fmt.Sprintf("%s - %s", line.IntervalStart.Format("01-02 15:04"), line.IntervalEnd.Format("01-02 15:04"))
		pdf.CellFormat(60, 6, interval, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, line.Consumption.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, line.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoiceXLSX renders a minimal XLSX for an invoice.
func BuildInvoiceXLSX(invoice *invoices.Invoice, lines []invoices.LineItem) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	linesSheet := "lines"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(linesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Utility Invoice")
	_ = f.SetCellValue(summarySheet, "A3", "Invoice")
	_ = f.SetCellValue(summarySheet, "B3", invoice.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Meter")
	_ = f.SetCellValue(summarySheet, "B4", invoice.MeterID)
	_ = f.SetCellValue(summarySheet, "A5", "Period Start")
	_ = f.SetCellValue(summarySheet, "B5", invoice.PeriodStart.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Period End")
	_ = f.SetCellValue(summarySheet, "B6", invoice.PeriodEnd.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A7", "Version")
	_ = f.SetCellValue(summarySheet, "B7", invoice.Version)
	_ = f.SetCellValue(summarySheet, "A8", "Status")
	_ = f.SetCellValue(summarySheet, "B8", invoice.Status)
	_ = f.SetCellValue(summarySheet, "A9", "Total Consumption")
	_ = f.SetCellValue(summarySheet, "B9", invoice.TotalConsumption.String())
	_ = f.SetCellValue(summarySheet, "A10", "Total Amount")
	_ = f.SetCellValue(summarySheet, "B10", invoice.TotalAmount.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A11", "Amount Paid")
	_ = f.SetCellValue(summarySheet, "B11", invoice.AmountPaid.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A12", "Currency")
	_ = f.SetCellValue(summarySheet, "B12", invoice.Currency)

	_ = f.SetCellValue(linesSheet, "A1", "Interval Start")
	_ = f.SetCellValue(linesSheet, "B1", "Interval End")
	_ = f.SetCellValue(linesSheet, "C1", "Consumption")
	_ = f.SetCellValue(linesSheet, "D1", "Amount")
	_ = f.SetCellValue(linesSheet, "E1", "Strategy")
	for i, line := range lines {
		row := i + 2
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("A%d", row), line.IntervalStart.Format(time.RFC3339))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("B%d", row), line.IntervalEnd.Format(time.RFC3339))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("C%d", row), line.Consumption.String())
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("D%d", row), line.Amount.StringFixed(2))
		_ = f.SetCellValue(linesSheet, fmt.Sprintf("E%d", row), line.Strategy)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
