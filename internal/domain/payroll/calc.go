package payroll

import "math"

// ResolvePayBasis picks hourly, then monthly, then annual/12.
func ResolvePayBasis(p WageProfile) (PayBasis, error) {
	switch {
	case p.HourlyRate != nil:
		return Hourly(*p.HourlyRate), nil
	case p.MonthlySalary != nil:
		return Salaried(*p.MonthlySalary), nil
	case p.AnnualSalary != nil:
		return Salaried(*p.AnnualSalary / 12), nil
	}
	return PayBasis{}, ErrNoWageConfigured
}

func DeductionAmount(gross float64, d Deduction) float64 {
	if d.Kind == DeductionPercentage {
		return gross * d.Amount / 100
	}
	return d.Amount
}

func TotalDeductions(gross float64, deductions []Deduction) float64 {
	var total float64
	for _, d := range deductions {
		total += DeductionAmount(gross, d)
	}
	return total
}

func TotalBonuses(bonuses []Bonus) float64 {
	var total float64
	for _, b := range bonuses {
		total += b.Amount
	}
	return total
}

// MonthlyOvertime is hours beyond the monthly threshold.
func MonthlyOvertime(hours, threshold float64) float64 {
	return math.Max(0, hours-threshold)
}

func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

type Computation struct {
	Basis      BasisKind
	Gross      float64
	Deductions float64
	Bonuses    float64
	Net        float64
	Hours      float64
	Overtime   float64
	Lines      []LineItem
}

// Compute turns a pay basis and the worked hours into pay figures. Hourly
// gross is hours times rate; salaried gross is the monthly figure and hours
// are reported as policy.SalariedReportHours. Money is rounded to cents per
// line item and totals are sums of the rounded lines, so a payslip adds up.
func Compute(basis PayBasis, hours float64, deductions []Deduction, bonuses []Bonus, policy Policy) Computation {
	c := Computation{Basis: basis.Kind, Lines: make([]LineItem, 0, len(deductions)+len(bonuses))}
	switch basis.Kind {
	case BasisHourly:
		c.Hours = hours
		c.Gross = RoundMoney(hours * basis.Rate)
	default:
		c.Hours = policy.SalariedReportHours
		c.Gross = RoundMoney(basis.Rate)
	}

	for _, d := range deductions {
		amount := RoundMoney(DeductionAmount(c.Gross, d))
		c.Deductions += amount
		c.Lines = append(c.Lines, LineItem{Kind: LineDeduction, Name: d.Name, Basis: d.Kind, Rate: d.Amount, Amount: amount})
	}
	for _, b := range bonuses {
		amount := RoundMoney(b.Amount)
		c.Bonuses += amount
		c.Lines = append(c.Lines, LineItem{Kind: LineBonus, Name: b.Name, Basis: DeductionFixed, Rate: b.Amount, Amount: amount})
	}
	c.Deductions = RoundMoney(c.Deductions)
	c.Bonuses = RoundMoney(c.Bonuses)
	c.Net = RoundMoney(c.Gross - c.Deductions + c.Bonuses)
	c.Overtime = MonthlyOvertime(c.Hours, policy.MonthlyOvertimeHours)
	return c
}
