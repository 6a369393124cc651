package payroll

import "time"

// WageProfile holds at most one authoritative pay figure, chosen in the order
// hourly rate, monthly salary, annual salary.
type WageProfile struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	HourlyRate    *float64    `json:"hourlyRate,omitempty"`
	MonthlySalary *float64    `json:"monthlySalary,omitempty"`
	AnnualSalary  *float64    `json:"annualSalary,omitempty"`
	Currency      string      `json:"currency"`
	Deductions    []Deduction `json:"deductions"`
	Bonuses       []Bonus     `json:"bonuses"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type Deduction struct {
	ID            string        `json:"id"`
	WageProfileID string        `json:"wageProfileId"`
	Name          string        `json:"name"`
	Kind          DeductionKind `json:"type"`
	Amount        float64       `json:"amount"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type Bonus struct {
	ID            string    `json:"id"`
	WageProfileID string    `json:"wageProfileId"`
	Name          string    `json:"name"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PayBasis is the resolved way a user is paid. Rate is the hourly rate for
// hourly pay and the monthly-equivalent amount for salaried pay.
type PayBasis struct {
	Kind BasisKind
	Rate float64
}

func Hourly(rate float64) PayBasis {
	return PayBasis{Kind: BasisHourly, Rate: rate}
}

func Salaried(monthly float64) PayBasis {
	return PayBasis{Kind: BasisSalaried, Rate: monthly}
}

// LineItem is a deduction or bonus as it was applied when a record was built.
type LineItem struct {
	Kind   string        `json:"kind"`
	Name   string        `json:"name"`
	Basis  DeductionKind `json:"basis"`
	Rate   float64       `json:"rate"`
	Amount float64       `json:"amount"`
}

type PayrollRecord struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	WageProfileID   string     `json:"wageProfileId"`
	Period          string     `json:"period"`
	PayBasis        BasisKind  `json:"payBasis"`
	GrossPay        float64    `json:"grossPay"`
	TotalDeductions float64    `json:"totalDeductions"`
	TotalBonuses    float64    `json:"totalBonuses"`
	NetPay          float64    `json:"netPay"`
	HoursWorked     float64    `json:"hoursWorked"`
	OvertimeHours   float64    `json:"overtimeHours"`
	Currency        string     `json:"currency"`
	LineItems       []LineItem `json:"lineItems"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type WageInput struct {
	UserID        string
	HourlyRate    *float64
	MonthlySalary *float64
	AnnualSalary  *float64
	Currency      string
}

type DeductionInput struct {
	UserID string
	Name   string
	Kind   DeductionKind
	Amount float64
}

type BonusInput struct {
	UserID string
	Name   string
	Amount float64
}

type Policy struct {
	MonthlyOvertimeHours float64
	SalariedReportHours  float64
}

func DefaultPolicy() Policy {
	return Policy{MonthlyOvertimeHours: DefaultMonthlyOvertimeHours, SalariedReportHours: DefaultSalariedReportHours}
}

// Employee identifies the payee printed on a payslip.
type Employee struct {
	Name  string
	Email string
}
