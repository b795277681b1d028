// Package billingrpc defines the gRPC surface of the billing gateway: wire
// message types, the service descriptor, and a client. Messages travel as
// JSON via a registered codec, so both sides of the wire live in this package
// without committed protoc output.
package billingrpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "billing.BillingService"

	methodCreateBillingAccount     = "/billing.BillingService/CreateBillingAccount"
	methodDeactivateBillingAccount = "/billing.BillingService/DeactivateBillingAccount"
	methodAddCharge                = "/billing.BillingService/AddCharge"
	methodGetBillsByPatient        = "/billing.BillingService/GetBillsByPatient"
	methodGetBillByPatientAndDate  = "/billing.BillingService/GetBillByPatientAndDate"
)

// CreateAccountRequest opens a billing account for a patient.
type CreateAccountRequest struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// AccountResponse is the gateway's view of a billing account.
type AccountResponse struct {
	AccountID string `json:"account_id"`
	PatientID string `json:"patient_id"`
	Status    string `json:"status"`
}

// DeactivateAccountRequest retires the billing account for a patient.
type DeactivateAccountRequest struct {
	PatientID string `json:"patient_id"`
}

// DeactivateAccountResponse reports the account status after deactivation.
type DeactivateAccountResponse struct {
	Status string `json:"status"`
}

// AddChargeRequest appends a charge to the patient's bill for the charge date.
type AddChargeRequest struct {
	PatientID   string  `json:"patient_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	ChargeDate  string  `json:"charge_date"` // YYYY-MM-DD
}

// ChargeResponse is a single line item on a bill.
type ChargeResponse struct {
	ChargeID    string  `json:"charge_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	ChargeDate  string  `json:"charge_date"`
}

// BillResponse is one day's bill for a patient, with its charges.
type BillResponse struct {
	BillID      string           `json:"bill_id"`
	PatientID   string           `json:"patient_id"`
	BillDate    string           `json:"bill_date"`
	TotalAmount float64          `json:"total_amount"`
	Charges     []ChargeResponse `json:"charges"`
}

// GetBillsRequest pages through a patient's bills.
type GetBillsRequest struct {
	PatientID string `json:"patient_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// BillsResponse is a page of bills plus the total count.
type BillsResponse struct {
	Bills []BillResponse `json:"bills"`
	Total int            `json:"total"`
}

// GetBillByDateRequest fetches the bill for one patient on one date.
type GetBillByDateRequest struct {
	PatientID string `json:"patient_id"`
	BillDate  string `json:"bill_date"` // YYYY-MM-DD
}

// BillingServer is the server-side contract. The billing domain implements it
// and maps its errors onto gRPC status codes.
type BillingServer interface {
	CreateBillingAccount(ctx context.Context, req *CreateAccountRequest) (*AccountResponse, error)
	DeactivateBillingAccount(ctx context.Context, req *DeactivateAccountRequest) (*DeactivateAccountResponse, error)
	AddCharge(ctx context.Context, req *AddChargeRequest) (*BillResponse, error)
	GetBillsByPatient(ctx context.Context, req *GetBillsRequest) (*BillsResponse, error)
	GetBillByPatientAndDate(ctx context.Context, req *GetBillByDateRequest) (*BillResponse, error)
}

// RegisterBillingServer registers srv with the gRPC registrar.
func RegisterBillingServer(s grpc.ServiceRegistrar, srv BillingServer) {
	s.RegisterService(&billingServiceDesc, srv)
}

func createBillingAccountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateAccountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BillingServer).CreateBillingAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCreateBillingAccount}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BillingServer).CreateBillingAccount(ctx, req.(*CreateAccountRequest))
	})
}

func deactivateBillingAccountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeactivateAccountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BillingServer).DeactivateBillingAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDeactivateBillingAccount}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BillingServer).DeactivateBillingAccount(ctx, req.(*DeactivateAccountRequest))
	})
}

func addChargeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddChargeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BillingServer).AddCharge(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAddCharge}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BillingServer).AddCharge(ctx, req.(*AddChargeRequest))
	})
}

func getBillsByPatientHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBillsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BillingServer).GetBillsByPatient(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetBillsByPatient}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BillingServer).GetBillsByPatient(ctx, req.(*GetBillsRequest))
	})
}

func getBillByPatientAndDateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBillByDateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BillingServer).GetBillByPatientAndDate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetBillByPatientAndDate}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BillingServer).GetBillByPatientAndDate(ctx, req.(*GetBillByDateRequest))
	})
}

var billingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BillingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateBillingAccount", Handler: createBillingAccountHandler},
		{MethodName: "DeactivateBillingAccount", Handler: deactivateBillingAccountHandler},
		{MethodName: "AddCharge", Handler: addChargeHandler},
		{MethodName: "GetBillsByPatient", Handler: getBillsByPatientHandler},
		{MethodName: "GetBillByPatientAndDate", Handler: getBillByPatientAndDateHandler},
	},
	Streams: []grpc.StreamDesc{},
}
