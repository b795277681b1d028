package billing

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pm/patient-platform/internal/platform/billingrpc"
)

// GRPCServer adapts Service to the billing gRPC surface.
type GRPCServer struct {
	svc *Service
	log zerolog.Logger
}

func NewGRPCServer(svc *Service, log zerolog.Logger) *GRPCServer {
	return &GRPCServer{svc: svc, log: log}
}

var _ billingrpc.BillingServer = (*GRPCServer)(nil)

func (g *GRPCServer) CreateBillingAccount(ctx context.Context, req *billingrpc.CreateAccountRequest) (*billingrpc.AccountResponse, error) {
	a, err := g.svc.CreateAccount(ctx, req.PatientID, req.Name, req.Email)
	if err != nil {
		return nil, g.toStatus(err, "create billing account")
	}
	return accountResponse(a), nil
}

func (g *GRPCServer) DeactivateBillingAccount(ctx context.Context, req *billingrpc.DeactivateAccountRequest) (*billingrpc.DeactivateAccountResponse, error) {
	a, err := g.svc.DeactivateAccount(ctx, req.PatientID)
	if err != nil {
		return nil, g.toStatus(err, "deactivate billing account")
	}
	return &billingrpc.DeactivateAccountResponse{Status: string(a.Status)}, nil
}

func (g *GRPCServer) AddCharge(ctx context.Context, req *billingrpc.AddChargeRequest) (*billingrpc.BillResponse, error) {
	b, err := g.svc.AddCharge(ctx, req.PatientID, req.Amount, req.Description, req.ChargeDate)
	if err != nil {
		return nil, g.toStatus(err, "add charge")
	}
	return billResponse(b), nil
}

func (g *GRPCServer) GetBillsByPatient(ctx context.Context, req *billingrpc.GetBillsRequest) (*billingrpc.BillsResponse, error) {
	bills, total, err := g.svc.BillsForPatient(ctx, req.PatientID, req.Limit, req.Offset)
	if err != nil {
		return nil, g.toStatus(err, "list bills")
	}
	resp := &billingrpc.BillsResponse{Total: total, Bills: make([]billingrpc.BillResponse, 0, len(bills))}
	for _, b := range bills {
		resp.Bills = append(resp.Bills, *billResponse(b))
	}
	return resp, nil
}

func (g *GRPCServer) GetBillByPatientAndDate(ctx context.Context, req *billingrpc.GetBillByDateRequest) (*billingrpc.BillResponse, error) {
	b, err := g.svc.BillOnDate(ctx, req.PatientID, req.BillDate)
	if err != nil {
		return nil, g.toStatus(err, "get bill by date")
	}
	return billResponse(b), nil
}

func (g *GRPCServer) toStatus(err error, op string) error {
	switch {
	case errors.Is(err, ErrAccountExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrBillNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		g.log.Error().Err(err).Str("op", op).Msg("billing rpc failed")
		return status.Error(codes.Internal, "internal billing error")
	}
}

func accountResponse(a *Account) *billingrpc.AccountResponse {
	return &billingrpc.AccountResponse{
		AccountID: a.AccountID,
		PatientID: a.PatientID,
		Status:    string(a.Status),
	}
}

func billResponse(b *Bill) *billingrpc.BillResponse {
	resp := &billingrpc.BillResponse{
		BillID:      b.ID.String(),
		PatientID:   b.PatientID,
		BillDate:    b.BillDate.Format(DateLayout),
		TotalAmount: b.TotalAmount,
		Charges:     make([]billingrpc.ChargeResponse, 0, len(b.Charges)),
	}
	for _, c := range b.Charges {
		resp.Charges = append(resp.Charges, billingrpc.ChargeResponse{
			ChargeID:    c.ID.String(),
			Amount:      c.Amount,
			Description: c.Description,
			ChargeDate:  c.ChargeDate.Format(DateLayout),
		})
	}
	return resp
}
