package payroll

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"timekeep/internal/domain/attendance"
	"timekeep/internal/platform/apperr"
)

// HoursSource reports the hours a user worked in the payroll window.
type HoursSource interface {
	WorkedHours(ctx context.Context, userID string) (attendance.WorkSummary, error)
}

type Service struct {
	store  StoreAPI
	hours  HoursSource
	policy Policy
}

func NewService(store StoreAPI, hours HoursSource, policy Policy) *Service {
	return &Service{store: store, hours: hours, policy: policy}
}

func validAmount(v *float64) bool {
	return v == nil || *v > 0
}

func (s *Service) UpsertWage(ctx context.Context, in WageInput) (WageProfile, error) {
	if in.HourlyRate == nil && in.MonthlySalary == nil && in.AnnualSalary == nil {
		return WageProfile{}, apperr.Validation("one of hourlyRate, monthlySalary or annualSalary is required")
	}
	if !validAmount(in.HourlyRate) || !validAmount(in.MonthlySalary) || !validAmount(in.AnnualSalary) {
		return WageProfile{}, apperr.Validation("wage amounts must be positive")
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if len(in.Currency) != 3 {
		return WageProfile{}, apperr.Validation("currency must be a 3-letter code")
	}
	if _, err := s.store.Employee(ctx, in.UserID); err != nil {
		return WageProfile{}, err
	}
	return s.store.UpsertWageProfile(ctx, in)
}

func (s *Service) GetWage(ctx context.Context, userID string) (WageProfile, error) {
	return s.store.GetWageProfile(ctx, userID)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperr.Validation("name is required and must be at most 120 characters")
	}
	return name, nil
}

func (s *Service) AddDeduction(ctx context.Context, in DeductionInput) (Deduction, error) {
	name, err := validName(in.Name)
	if err != nil {
		return Deduction{}, err
	}
	switch in.Kind {
	case DeductionFixed:
		if in.Amount <= 0 {
			return Deduction{}, apperr.Validation("fixed deduction amount must be positive")
		}
	case DeductionPercentage:
		if in.Amount <= 0 || in.Amount > 100 {
			return Deduction{}, apperr.Validation("percentage deduction must be greater than 0 and at most 100")
		}
	default:
		return Deduction{}, apperr.Validation("type must be fixed or percentage")
	}
	profile, err := s.store.GetWageProfile(ctx, in.UserID)
	if err != nil {
		return Deduction{}, err
	}
	return s.store.AddDeduction(ctx, profile.ID, Deduction{Name: name, Kind: in.Kind, Amount: in.Amount})
}

func (s *Service) AddBonus(ctx context.Context, in BonusInput) (Bonus, error) {
	name, err := validName(in.Name)
	if err != nil {
		return Bonus{}, err
	}
	if in.Amount <= 0 {
		return Bonus{}, apperr.Validation("bonus amount must be positive")
	}
	profile, err := s.store.GetWageProfile(ctx, in.UserID)
	if err != nil {
		return Bonus{}, err
	}
	return s.store.AddBonus(ctx, profile.ID, Bonus{Name: name, Amount: in.Amount})
}

// GeneratePayroll computes and stores the record for (userID, period). A
// period is an opaque label; a second generation for it fails.
func (s *Service) GeneratePayroll(ctx context.Context, userID, period string) (PayrollRecord, error) {
	period = strings.TrimSpace(period)
	if period == "" || utf8.RuneCountInString(period) > MaxPeriodLength {
		return PayrollRecord{}, apperr.Validation("period is required and must be at most 32 characters")
	}
	if _, err := s.store.Employee(ctx, userID); err != nil {
		return PayrollRecord{}, err
	}

	profile, err := s.store.GetWageProfile(ctx, userID)
	if errors.Is(err, ErrWageNotFound) {
		return PayrollRecord{}, ErrNoWageConfigured
	}
	if err != nil {
		return PayrollRecord{}, err
	}
	basis, err := ResolvePayBasis(profile)
	if err != nil {
		return PayrollRecord{}, err
	}

	var hours float64
	if basis.Kind == BasisHourly {
		summary, err := s.hours.WorkedHours(ctx, userID)
		if err != nil {
			return PayrollRecord{}, err
		}
		hours = summary.Hours
	}

	c := Compute(basis, hours, profile.Deductions, profile.Bonuses, s.policy)
	return s.store.CreateRecord(ctx, PayrollRecord{
		UserID:          userID,
		WageProfileID:   profile.ID,
		Period:          period,
		PayBasis:        c.Basis,
		GrossPay:        c.Gross,
		TotalDeductions: c.Deductions,
		TotalBonuses:    c.Bonuses,
		NetPay:          c.Net,
		HoursWorked:     c.Hours,
		OvertimeHours:   c.Overtime,
		Currency:        profile.Currency,
		LineItems:       c.Lines,
	})
}

func (s *Service) ListRecords(ctx context.Context, userID string) ([]PayrollRecord, error) {
	records, err := s.store.ListRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []PayrollRecord{}
	}
	return records, nil
}

func (s *Service) GetRecord(ctx context.Context, userID, recordID string) (PayrollRecord, error) {
	return s.store.GetRecord(ctx, userID, recordID)
}

// WritePayslip renders the record's payslip as PDF to w.
func (s *Service) WritePayslip(ctx context.Context, w io.Writer, userID, recordID string) error {
	rec, err := s.store.GetRecord(ctx, userID, recordID)
	if err != nil {
		return err
	}
	employee, err := s.store.Employee(ctx, userID)
	if err != nil {
		return err
	}
	return RenderPayslip(w, rec, employee)
}
