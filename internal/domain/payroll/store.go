package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/apperr"
	"timekeep/internal/platform/querier"
)

const (
	profileColumns = `id::text, user_id::text, hourly_rate::float8, monthly_salary::float8, annual_salary::float8,
           currency, created_at, updated_at`
	recordColumns = `id::text, user_id::text, wage_profile_id::text, period, pay_basis,
           gross_pay::float8, total_deductions::float8, total_bonuses::float8, net_pay::float8,
           hours_worked, overtime_hours, currency, line_items, created_at`
)

type Store struct {
	DB      querier.Querier
	Timeout time.Duration
}

func NewStore(db querier.Querier, timeout time.Duration) *Store {
	return &Store{DB: db, Timeout: timeout}
}

func (s *Store) Employee(ctx context.Context, userID string) (Employee, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	var e Employee
	err := s.DB.QueryRow(ctx, `SELECT name, email FROM users WHERE id = $1::uuid`, userID).Scan(&e.Name, &e.Email)
	if err != nil {
		return Employee{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	return e, nil
}

func scanProfile(row pgx.Row) (WageProfile, error) {
	var p WageProfile
	err := row.Scan(&p.ID, &p.UserID, &p.HourlyRate, &p.MonthlySalary, &p.AnnualSalary, &p.Currency, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) UpsertWageProfile(ctx context.Context, in WageInput) (WageProfile, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	p, err := scanProfile(s.DB.QueryRow(ctx, `
    INSERT INTO wage_profiles (user_id, hourly_rate, monthly_salary, annual_salary, currency)
    VALUES ($1::uuid,$2,$3,$4,$5)
    ON CONFLICT (user_id) DO UPDATE
    SET hourly_rate = EXCLUDED.hourly_rate,
        monthly_salary = EXCLUDED.monthly_salary,
        annual_salary = EXCLUDED.annual_salary,
        currency = EXCLUDED.currency,
        updated_at = now()
    RETURNING `+profileColumns, in.UserID, in.HourlyRate, in.MonthlySalary, in.AnnualSalary, in.Currency))
	if err != nil {
		return WageProfile{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	p.Deductions, p.Bonuses = []Deduction{}, []Bonus{}
	return p, nil
}

func (s *Store) GetWageProfile(ctx context.Context, userID string) (WageProfile, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	p, err := scanProfile(s.DB.QueryRow(ctx, `SELECT `+profileColumns+` FROM wage_profiles WHERE user_id = $1::uuid`, userID))
	if err != nil {
		return WageProfile{}, apperr.FromDB(err, ErrWageNotFound, nil)
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id::text, wage_profile_id::text, name, kind, amount::float8, created_at
    FROM deductions WHERE wage_profile_id = $1::uuid ORDER BY created_at, id
  `, p.ID)
	if err != nil {
		return WageProfile{}, apperr.FromDB(err, nil, nil)
	}
	p.Deductions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Deduction, error) {
		var d Deduction
		var kind string
		err := row.Scan(&d.ID, &d.WageProfileID, &d.Name, &kind, &d.Amount, &d.CreatedAt)
		d.Kind = DeductionKind(kind)
		return d, err
	})
	if err != nil {
		return WageProfile{}, apperr.FromDB(err, nil, nil)
	}

	rows, err = s.DB.Query(ctx, `
    SELECT id::text, wage_profile_id::text, name, amount::float8, created_at
    FROM bonuses WHERE wage_profile_id = $1::uuid ORDER BY created_at, id
  `, p.ID)
	if err != nil {
		return WageProfile{}, apperr.FromDB(err, nil, nil)
	}
	p.Bonuses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Bonus, error) {
		var b Bonus
		err := row.Scan(&b.ID, &b.WageProfileID, &b.Name, &b.Amount, &b.CreatedAt)
		return b, err
	})
	if err != nil {
		return WageProfile{}, apperr.FromDB(err, nil, nil)
	}
	return p, nil
}

func (s *Store) AddDeduction(ctx context.Context, profileID string, d Deduction) (Deduction, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	d.WageProfileID = profileID
	err := s.DB.QueryRow(ctx, `
    INSERT INTO deductions (wage_profile_id, name, kind, amount)
    VALUES ($1::uuid,$2,$3,$4)
    RETURNING id::text, created_at
  `, profileID, d.Name, string(d.Kind), d.Amount).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return Deduction{}, apperr.FromDB(err, ErrWageNotFound, nil)
	}
	return d, nil
}

func (s *Store) AddBonus(ctx context.Context, profileID string, b Bonus) (Bonus, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	b.WageProfileID = profileID
	err := s.DB.QueryRow(ctx, `
    INSERT INTO bonuses (wage_profile_id, name, amount)
    VALUES ($1::uuid,$2,$3)
    RETURNING id::text, created_at
  `, profileID, b.Name, b.Amount).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return Bonus{}, apperr.FromDB(err, ErrWageNotFound, nil)
	}
	return b, nil
}

func scanRecord(row pgx.Row) (PayrollRecord, error) {
	var rec PayrollRecord
	var basis string
	var lines []byte
	err := row.Scan(&rec.ID, &rec.UserID, &rec.WageProfileID, &rec.Period, &basis,
		&rec.GrossPay, &rec.TotalDeductions, &rec.TotalBonuses, &rec.NetPay,
		&rec.HoursWorked, &rec.OvertimeHours, &rec.Currency, &lines, &rec.CreatedAt)
	if err != nil {
		return PayrollRecord{}, err
	}
	rec.PayBasis = BasisKind(basis)
	rec.LineItems = []LineItem{}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &rec.LineItems); err != nil {
			return PayrollRecord{}, err
		}
	}
	return rec, nil
}

func (s *Store) CreateRecord(ctx context.Context, rec PayrollRecord) (PayrollRecord, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	lines, err := json.Marshal(rec.LineItems)
	if err != nil {
		return PayrollRecord{}, err
	}
	created, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (user_id, wage_profile_id, period, pay_basis, gross_pay, total_deductions,
                                 total_bonuses, net_pay, hours_worked, overtime_hours, currency, line_items)
    VALUES ($1::uuid,$2::uuid,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    ON CONFLICT (user_id, period) DO NOTHING
    RETURNING `+recordColumns,
		rec.UserID, rec.WageProfileID, rec.Period, string(rec.PayBasis), rec.GrossPay, rec.TotalDeductions,
		rec.TotalBonuses, rec.NetPay, rec.HoursWorked, rec.OvertimeHours, rec.Currency, lines))
	if errors.Is(err, pgx.ErrNoRows) {
		return PayrollRecord{}, ErrPayrollExists
	}
	if err != nil {
		return PayrollRecord{}, apperr.FromDB(err, nil, ErrPayrollExists)
	}
	return created, nil
}

func (s *Store) ListRecords(ctx context.Context, userID string) ([]PayrollRecord, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE user_id = $1::uuid
    ORDER BY created_at DESC, id
  `, userID)
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PayrollRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	return records, nil
}

func (s *Store) GetRecord(ctx context.Context, userID, recordID string) (PayrollRecord, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE user_id = $1::uuid AND id = $2::uuid
  `, userID, recordID))
	if err != nil {
		return PayrollRecord{}, apperr.FromDB(err, ErrRecordNotFound, nil)
	}
	return rec, nil
}
