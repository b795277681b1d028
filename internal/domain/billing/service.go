package billing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	accounts AccountRepository
	bills    BillRepository
	log      zerolog.Logger
}

func NewService(accounts AccountRepository, bills BillRepository, log zerolog.Logger) *Service {
	return &Service{accounts: accounts, bills: bills, log: log}
}

// CreateAccount opens a billing account for a patient. Each patient gets at
// most one account; a second create fails with ErrAccountExists.
func (s *Service) CreateAccount(ctx context.Context, patientID, name, email string) (*Account, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if !emailRe.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidArgument, email)
	}

	a := &Account{
		AccountID: NewAccountID(),
		PatientID: patientID,
		Name:      name,
		Email:     email,
		Status:    AccountActive,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("patient_id", patientID).
		Str("account_id", a.AccountID).
		Msg("billing account created")
	return a, nil
}

// DeactivateAccount retires the patient's billing account. Inactive is
// terminal; deactivating an already inactive account is a no-op.
func (s *Service) DeactivateAccount(ctx context.Context, patientID string) (*Account, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidArgument)
	}
	a, err := s.accounts.UpdateStatus(ctx, patientID, AccountInactive)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("patient_id", patientID).
		Str("account_id", a.AccountID).
		Msg("billing account deactivated")
	return a, nil
}

// AddCharge records a charge against the patient's bill for the given date.
// The account must exist; the bill for that date is created lazily.
func (s *Service) AddCharge(ctx context.Context, patientID string, amount float64, description, chargeDate string) (*Bill, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	day, err := parseDate(chargeDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetByPatientID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.bills.AddCharge(ctx, patientID, amount, description, day)
}

func (s *Service) BillsForPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, 0, fmt.Errorf("%w: patient_id is required", ErrInvalidArgument)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) BillOnDate(ctx context.Context, patientID, billDate string) (*Bill, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidArgument)
	}
	day, err := parseDate(billDate)
	if err != nil {
		return nil, err
	}
	return s.bills.GetByPatientAndDate(ctx, patientID, day)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrInvalidArgument, s)
	}
	return t, nil
}
