package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// RenderPayslip writes a one-page A4 payslip for rec.
func RenderPayslip(w io.Writer, rec PayrollRecord, employee Employee) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+rec.Period, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employee.Name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", employee.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", rec.Period))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Pay basis: %s", rec.PayBasis))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Hours worked: %.2f (overtime %.2f)", rec.HoursWorked, rec.OvertimeHours))
	pdf.Ln(10)

	money := func(v float64) string { return fmt.Sprintf("%.2f %s", v, rec.Currency) }
	row := func(label, value string) {
		pdf.CellFormat(120, 8, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, value, "", 1, "R", false, 0, "")
	}

	row("Gross pay", money(rec.GrossPay))
	for _, line := range rec.LineItems {
		label := line.Name
		if line.Basis == DeductionPercentage {
			label = fmt.Sprintf("%s (%.2f%%)", line.Name, line.Rate)
		}
		switch line.Kind {
		case LineDeduction:
			row("  - "+label, money(-line.Amount))
		case LineBonus:
			row("  + "+label, money(line.Amount))
		}
	}
	row("Total deductions", money(rec.TotalDeductions))
	row("Total bonuses", money(rec.TotalBonuses))

	pdf.SetFont("Helvetica", "B", 12)
	row("Net pay", money(rec.NetPay))

	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated "+rec.CreatedAt.Format("2006-01-02 15:04 MST"))

	return pdf.Output(w)
}
