package patient

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pm/patient-platform/internal/events"
	"github.com/pm/patient-platform/internal/platform/billingrpc"
	"github.com/pm/patient-platform/internal/platform/metrics"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// BillingGateway is the slice of the billing service the patient saga needs.
// billingrpc.Client satisfies it.
type BillingGateway interface {
	CreateBillingAccount(ctx context.Context, req *billingrpc.CreateAccountRequest) (*billingrpc.AccountResponse, error)
	DeactivateBillingAccount(ctx context.Context, req *billingrpc.DeactivateAccountRequest) (*billingrpc.DeactivateAccountResponse, error)
	AddCharge(ctx context.Context, req *billingrpc.AddChargeRequest) (*billingrpc.BillResponse, error)
	GetBillsByPatient(ctx context.Context, req *billingrpc.GetBillsRequest) (*billingrpc.BillsResponse, error)
	GetBillByPatientAndDate(ctx context.Context, req *billingrpc.GetBillByDateRequest) (*billingrpc.BillResponse, error)
}

// EventPublisher emits patient lifecycle events. Publish failures never fail
// the operation that produced them.
type EventPublisher interface {
	PublishPatientEvent(ctx context.Context, ev events.PatientEvent) error
}

type Service struct {
	repo    Repository
	billing BillingGateway
	events  EventPublisher
	metrics metrics.Recorder
	log     zerolog.Logger
}

func NewService(repo Repository, billing BillingGateway, publisher EventPublisher, rec metrics.Recorder, log zerolog.Logger) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{repo: repo, billing: billing, events: publisher, metrics: rec, log: log}
}

// Create registers a patient and provisions a billing account for them. If
// billing provisioning fails the patient row is removed again, so a caller
// never observes a patient without a billing account.
func (s *Service) Create(ctx context.Context, p *Patient) (*Patient, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	// Precheck for a clean conflict answer; the unique index on email is
	// still the final arbiter under races.
	taken, err := s.repo.ExistsByEmailExcluding(ctx, p.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	p.ID = uuid.New()
	if p.RegisteredDate.IsZero() {
		p.RegisteredDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	_, err = s.billing.CreateBillingAccount(ctx, &billingrpc.CreateAccountRequest{
		PatientID: p.ID.String(),
		Name:      p.Name,
		Email:     p.Email,
	})
	if err != nil {
		s.compensateCreate(ctx, p.ID)
		return nil, &BillingError{Op: "account provisioning", Err: err}
	}

	s.publish(ctx, p, events.KindCreated)

	s.log.Info().
		Str("patient_id", p.ID.String()).
		Str("email", p.Email).
		Msg("patient created")
	return p, nil
}

// compensateCreate undoes the patient insert after a failed billing call.
// A failed compensation is logged and otherwise swallowed; the billing error
// is what the caller needs to see.
func (s *Service) compensateCreate(ctx context.Context, id uuid.UUID) {
	s.metrics.CompensationRun("create")
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).
			Str("patient_id", id.String()).
			Msg("compensating delete failed, patient row may be orphaned")
		return
	}
	s.log.Warn().
		Str("patient_id", id.String()).
		Msg("billing provisioning failed, patient creation rolled back")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, nameFilter string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, nameFilter, limit, offset)
}

// Update modifies patient demographics. Billing is not involved; the account
// keeps the details it was provisioned with.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd *Patient) (*Patient, error) {
	if err := validate(upd); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByEmailExcluding(ctx, upd.Email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	p.Name = upd.Name
	p.Email = upd.Email
	p.Address = upd.Address
	p.DateOfBirth = upd.DateOfBirth
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, p, events.KindUpdated)
	return p, nil
}

// Delete removes a patient, then deactivates their billing account on a
// best-effort basis. The patient is gone either way; a failed deactivation
// is logged for manual cleanup.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if _, err := s.billing.DeactivateBillingAccount(ctx, &billingrpc.DeactivateAccountRequest{
		PatientID: id.String(),
	}); err != nil {
		s.log.Warn().Err(err).
			Str("patient_id", id.String()).
			Msg("billing account deactivation failed")
	}

	s.publish(ctx, p, events.KindDeleted)

	s.log.Info().Str("patient_id", id.String()).Msg("patient deleted")
	return nil
}

// AddCharge records a billing charge for an existing patient.
func (s *Service) AddCharge(ctx context.Context, id uuid.UUID, amount float64, description, chargeDate string) (*billingrpc.BillResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.billing.AddCharge(ctx, &billingrpc.AddChargeRequest{
		PatientID:   id.String(),
		Amount:      amount,
		Description: description,
		ChargeDate:  chargeDate,
	})
}

func (s *Service) Bills(ctx context.Context, id uuid.UUID, limit, offset int) (*billingrpc.BillsResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.billing.GetBillsByPatient(ctx, &billingrpc.GetBillsRequest{
		PatientID: id.String(),
		Limit:     limit,
		Offset:    offset,
	})
}

func (s *Service) BillOnDate(ctx context.Context, id uuid.UUID, date string) (*billingrpc.BillResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.billing.GetBillByPatientAndDate(ctx, &billingrpc.GetBillByDateRequest{
		PatientID: id.String(),
		BillDate:  date,
	})
}

// publish emits a lifecycle event. Failures are logged and counted, never
// surfaced to the caller.
func (s *Service) publish(ctx context.Context, p *Patient, kind events.EventKind) {
	ev := events.PatientEvent{
		PatientID:   p.ID.String(),
		Name:        p.Name,
		Email:       p.Email,
		DateOfBirth: p.DateOfBirth.Format(DateLayout),
		EventType:   kind,
		EmittedAt:   time.Now().UTC(),
	}
	if err := s.events.PublishPatientEvent(ctx, ev); err != nil {
		s.metrics.EventPublishFailed(kind.Label())
		s.log.Error().Err(err).
			Str("patient_id", ev.PatientID).
			Str("event_type", string(kind)).
			Msg("event publish failed")
		return
	}
	s.metrics.EventPublished(kind.Label())
}

func validate(p *Patient) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !emailRe.MatchString(p.Email) {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, p.Email)
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("%w: date_of_birth is required", ErrValidation)
	}
	if p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("%w: date_of_birth is in the future", ErrValidation)
	}
	return nil
}
