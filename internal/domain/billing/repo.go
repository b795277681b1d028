package billing

import (
	"context"
	"time"
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByPatientID(ctx context.Context, patientID string) (*Account, error)
	UpdateStatus(ctx context.Context, patientID string, status AccountStatus) (*Account, error)
}

type BillRepository interface {
	// AddCharge appends a charge to the patient's bill for the charge date,
	// creating the bill if it does not exist yet, and returns the bill with
	// its recomputed total.
	AddCharge(ctx context.Context, patientID string, amount float64, description string, chargeDate time.Time) (*Bill, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error)
	GetByPatientAndDate(ctx context.Context, patientID string, billDate time.Time) (*Bill, error)
}
