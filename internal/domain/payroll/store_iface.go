package payroll

import "context"

type StoreAPI interface {
	Employee(ctx context.Context, userID string) (Employee, error)
	UpsertWageProfile(ctx context.Context, in WageInput) (WageProfile, error)
	GetWageProfile(ctx context.Context, userID string) (WageProfile, error)
	AddDeduction(ctx context.Context, profileID string, d Deduction) (Deduction, error)
	AddBonus(ctx context.Context, profileID string, b Bonus) (Bonus, error)
	// CreateRecord inserts rec and reports ErrPayrollExists when the user
	// already has a record for the period.
	CreateRecord(ctx context.Context, rec PayrollRecord) (PayrollRecord, error)
	ListRecords(ctx context.Context, userID string) ([]PayrollRecord, error)
	GetRecord(ctx context.Context, userID, recordID string) (PayrollRecord, error)
}
