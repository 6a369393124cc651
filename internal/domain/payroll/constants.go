package payroll

const (
	DefaultMonthlyOvertimeHours = 160
	DefaultSalariedReportHours  = 160
	DefaultCurrency             = "USD"
	MaxPeriodLength             = 32
	MaxNameLength               = 120
)

type DeductionKind string

const (
	DeductionFixed      DeductionKind = "fixed"
	DeductionPercentage DeductionKind = "percentage"
)

type BasisKind string

const (
	BasisHourly   BasisKind = "hourly"
	BasisSalaried BasisKind = "salaried"
)

const (
	LineDeduction = "deduction"
	LineBonus     = "bonus"
)
