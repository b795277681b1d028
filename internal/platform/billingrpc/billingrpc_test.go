package billingrpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeBillingServer struct {
	createErr error
	created   []*CreateAccountRequest
}

func (f *fakeBillingServer) CreateBillingAccount(ctx context.Context, req *CreateAccountRequest) (*AccountResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &AccountResponse{AccountID: "BA-test", PatientID: req.PatientID, Status: "Active"}, nil
}

func (f *fakeBillingServer) DeactivateBillingAccount(ctx context.Context, req *DeactivateAccountRequest) (*DeactivateAccountResponse, error) {
	return &DeactivateAccountResponse{Status: "Inactive"}, nil
}

func (f *fakeBillingServer) AddCharge(ctx context.Context, req *AddChargeRequest) (*BillResponse, error) {
	return &BillResponse{
		BillID:      "bill-1",
		PatientID:   req.PatientID,
		BillDate:    req.ChargeDate,
		TotalAmount: req.Amount,
		Charges: []ChargeResponse{
			{ChargeID: "ch-1", Amount: req.Amount, Description: req.Description, ChargeDate: req.ChargeDate},
		},
	}, nil
}

func (f *fakeBillingServer) GetBillsByPatient(ctx context.Context, req *GetBillsRequest) (*BillsResponse, error) {
	return &BillsResponse{Bills: []BillResponse{{BillID: "bill-1", PatientID: req.PatientID}}, Total: 1}, nil
}

func (f *fakeBillingServer) GetBillByPatientAndDate(ctx context.Context, req *GetBillByDateRequest) (*BillResponse, error) {
	return nil, status.Error(codes.NotFound, "no bill for date")
}

func startServer(t *testing.T, srv BillingServer) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	RegisterBillingServer(s, srv)
	go func() {
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			t.Errorf("serve: %v", err)
		}
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewClientFromConn(conn, 2*time.Second)
}

func TestClient_CreateBillingAccount(t *testing.T) {
	srv := &fakeBillingServer{}
	client := startServer(t, srv)

	resp, err := client.CreateBillingAccount(context.Background(), &CreateAccountRequest{
		PatientID: "p-1",
		Name:      "Jane Roe",
		Email:     "jane@example.com",
	})
	if err != nil {
		t.Fatalf("CreateBillingAccount: %v", err)
	}
	if resp.AccountID != "BA-test" || resp.Status != "Active" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(srv.created) != 1 || srv.created[0].Email != "jane@example.com" {
		t.Fatalf("server did not receive request: %+v", srv.created)
	}
}

func TestClient_StatusCodesSurvive(t *testing.T) {
	srv := &fakeBillingServer{createErr: status.Error(codes.AlreadyExists, "account exists")}
	client := startServer(t, srv)

	_, err := client.CreateBillingAccount(context.Background(), &CreateAccountRequest{PatientID: "p-1"})
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("code = %v, want AlreadyExists", status.Code(err))
	}

	_, err = client.GetBillByPatientAndDate(context.Background(), &GetBillByDateRequest{PatientID: "p-1", BillDate: "2026-01-02"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v, want NotFound", status.Code(err))
	}
}

func TestClient_AddChargeRoundTrip(t *testing.T) {
	client := startServer(t, &fakeBillingServer{})

	bill, err := client.AddCharge(context.Background(), &AddChargeRequest{
		PatientID:   "p-1",
		Amount:      42.50,
		Description: "lab work",
		ChargeDate:  "2026-03-04",
	})
	if err != nil {
		t.Fatalf("AddCharge: %v", err)
	}
	if bill.TotalAmount != 42.50 || len(bill.Charges) != 1 {
		t.Fatalf("unexpected bill: %+v", bill)
	}
	if bill.Charges[0].Description != "lab work" {
		t.Fatalf("charge description lost: %+v", bill.Charges[0])
	}
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	in := &CreateAccountRequest{PatientID: "p-9", Name: "A", Email: "a@b.c"}
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := new(CreateAccountRequest)
	if err := c.Unmarshal(b, out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}
