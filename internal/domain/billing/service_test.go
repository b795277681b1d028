package billing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockAccountRepo struct {
	byPatient map[string]*Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{byPatient: make(map[string]*Account)}
}

func (m *mockAccountRepo) Create(ctx context.Context, a *Account) error {
	if _, ok := m.byPatient[a.PatientID]; ok {
		return ErrAccountExists
	}
	a.ID = uuid.New()
	cp := *a
	m.byPatient[a.PatientID] = &cp
	return nil
}

func (m *mockAccountRepo) GetByPatientID(ctx context.Context, patientID string) (*Account, error) {
	a, ok := m.byPatient[patientID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountRepo) UpdateStatus(ctx context.Context, patientID string, status AccountStatus) (*Account, error) {
	a, ok := m.byPatient[patientID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

type mockBillRepo struct {
	bills map[string]*Bill // keyed by patientID + "|" + date
}

func newMockBillRepo() *mockBillRepo {
	return &mockBillRepo{bills: make(map[string]*Bill)}
}

func billKey(patientID string, day time.Time) string {
	return patientID + "|" + day.Format(DateLayout)
}

func (m *mockBillRepo) AddCharge(ctx context.Context, patientID string, amount float64, description string, chargeDate time.Time) (*Bill, error) {
	key := billKey(patientID, chargeDate)
	b, ok := m.bills[key]
	if !ok {
		b = &Bill{ID: uuid.New(), PatientID: patientID, BillDate: chargeDate}
		m.bills[key] = b
	}
	b.Charges = append(b.Charges, &Charge{
		ID: uuid.New(), BillID: b.ID, Amount: amount, Description: description, ChargeDate: chargeDate,
	})
	b.TotalAmount = 0
	for _, c := range b.Charges {
		b.TotalAmount += c.Amount
	}
	return b, nil
}

func (m *mockBillRepo) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error) {
	var out []*Bill
	for _, b := range m.bills {
		if b.PatientID == patientID {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (m *mockBillRepo) GetByPatientAndDate(ctx context.Context, patientID string, billDate time.Time) (*Bill, error) {
	b, ok := m.bills[billKey(patientID, billDate)]
	if !ok {
		return nil, ErrBillNotFound
	}
	return b, nil
}

func newTestService() (*Service, *mockAccountRepo, *mockBillRepo) {
	accounts := newMockAccountRepo()
	bills := newMockBillRepo()
	return NewService(accounts, bills, zerolog.Nop()), accounts, bills
}

func TestCreateAccount(t *testing.T) {
	svc, _, _ := newTestService()

	a, err := svc.CreateAccount(context.Background(), "p-1", "Jane Roe", "jane@example.com")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if !strings.HasPrefix(a.AccountID, "BA-") {
		t.Errorf("account id %q missing BA- prefix", a.AccountID)
	}
	if a.Status != AccountActive {
		t.Errorf("status = %q, want Active", a.Status)
	}
}

func TestCreateAccount_Duplicate(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateAccount(context.Background(), "p-1", "Jane", "jane@example.com"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateAccount(context.Background(), "p-1", "Jane", "jane@example.com")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("err = %v, want ErrAccountExists", err)
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name             string
		patientID, pname string
		email            string
	}{
		{"missing patient id", "", "Jane", "jane@example.com"},
		{"missing name", "p-1", "", "jane@example.com"},
		{"bad email", "p-1", "Jane", "not-an-email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), tc.patientID, tc.pname, tc.email)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestDeactivateAccount(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateAccount(context.Background(), "p-1", "Jane", "jane@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := svc.DeactivateAccount(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if a.Status != AccountInactive {
		t.Errorf("status = %q, want Inactive", a.Status)
	}

	// Inactive is terminal, deactivating again is a no-op.
	a, err = svc.DeactivateAccount(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	if a.Status != AccountInactive {
		t.Errorf("status after second deactivate = %q, want Inactive", a.Status)
	}
}

func TestDeactivateAccount_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.DeactivateAccount(context.Background(), "missing")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestAddCharge_LazyBillAndTotal(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateAccount(context.Background(), "p-1", "Jane", "jane@example.com"); err != nil {
		t.Fatalf("create account: %v", err)
	}

	b, err := svc.AddCharge(context.Background(), "p-1", 30, "consult", "2026-03-01")
	if err != nil {
		t.Fatalf("first charge: %v", err)
	}
	if b.TotalAmount != 30 || len(b.Charges) != 1 {
		t.Fatalf("after first charge: total=%v charges=%d", b.TotalAmount, len(b.Charges))
	}

	b, err = svc.AddCharge(context.Background(), "p-1", 12.50, "lab", "2026-03-01")
	if err != nil {
		t.Fatalf("second charge: %v", err)
	}
	if b.TotalAmount != 42.50 || len(b.Charges) != 2 {
		t.Fatalf("after second charge: total=%v charges=%d", b.TotalAmount, len(b.Charges))
	}

	// A different date opens a fresh bill.
	b, err = svc.AddCharge(context.Background(), "p-1", 5, "copay", "2026-03-02")
	if err != nil {
		t.Fatalf("third charge: %v", err)
	}
	if b.TotalAmount != 5 || len(b.Charges) != 1 {
		t.Fatalf("new date bill: total=%v charges=%d", b.TotalAmount, len(b.Charges))
	}
}

func TestAddCharge_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.AddCharge(context.Background(), "p-1", -1, "x", "2026-03-01"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative amount: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.AddCharge(context.Background(), "p-1", 10, "x", "03/01/2026"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad date: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.AddCharge(context.Background(), "no-account", 10, "x", "2026-03-01"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("no account: err = %v, want ErrAccountNotFound", err)
	}
}

func TestBillOnDate(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateAccount(context.Background(), "p-1", "Jane", "jane@example.com"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := svc.AddCharge(context.Background(), "p-1", 10, "visit", "2026-03-01"); err != nil {
		t.Fatalf("add charge: %v", err)
	}

	b, err := svc.BillOnDate(context.Background(), "p-1", "2026-03-01")
	if err != nil {
		t.Fatalf("BillOnDate: %v", err)
	}
	if b.TotalAmount != 10 {
		t.Errorf("total = %v, want 10", b.TotalAmount)
	}

	if _, err := svc.BillOnDate(context.Background(), "p-1", "2026-03-09"); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("missing date: err = %v, want ErrBillNotFound", err)
	}
}
