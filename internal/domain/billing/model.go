package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for bill and charge dates.
const DateLayout = "2006-01-02"

type AccountStatus string

const (
	AccountActive   AccountStatus = "Active"
	AccountInactive AccountStatus = "Inactive"
)

// Account maps to the billing_account table. AccountID is the externally
// visible identifier handed back to the patient service.
type Account struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	AccountID string        `db:"account_id" json:"account_id"`
	PatientID string        `db:"patient_id" json:"patient_id"`
	Name      string        `db:"name" json:"name"`
	Email     string        `db:"email" json:"email"`
	Status    AccountStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// Bill collects a patient's charges for one calendar day. TotalAmount is
// maintained as the sum of the charge amounts.
type Bill struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	BillDate    time.Time `db:"bill_date" json:"bill_date"`
	TotalAmount float64   `db:"total_amount" json:"total_amount"`
	Charges     []*Charge `db:"-" json:"charges"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Charge is a single line item on a bill.
type Charge struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BillID      uuid.UUID `db:"bill_id" json:"bill_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	ChargeDate  time.Time `db:"charge_date" json:"charge_date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

var (
	ErrAccountExists   = errors.New("billing account already exists for patient")
	ErrAccountNotFound = errors.New("billing account not found")
	ErrBillNotFound    = errors.New("bill not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// NewAccountID mints an external billing account identifier.
func NewAccountID() string {
	return "BA-" + uuid.New().String()
}
