package patient

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for dates of birth and registration dates.
const DateLayout = "2006-01-02"

// Patient maps to the patient table.
type Patient struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Address        string    `db:"address" json:"address"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"-"`
	RegisteredDate time.Time `db:"registered_date" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

var (
	ErrNotFound       = errors.New("patient not found")
	ErrDuplicateEmail = errors.New("a patient with this email already exists")
	ErrValidation     = errors.New("validation failed")
)

// BillingError marks a patient operation that failed because the billing
// service could not be reached or refused the call. The patient-side write
// has already been rolled back by the time this is returned.
type BillingError struct {
	Op  string
	Err error
}

func (e *BillingError) Error() string {
	return fmt.Sprintf("billing %s failed: %v", e.Op, e.Err)
}

func (e *BillingError) Unwrap() error { return e.Err }
