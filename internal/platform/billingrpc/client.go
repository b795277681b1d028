package billingrpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client talks to the billing service over gRPC. Every call is bounded by the
// configured timeout so a slow billing backend cannot hang a patient saga.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient dials the billing service at addr. The connection is lazy; dial
// errors for an unreachable backend surface on the first call.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial billing service %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// NewClientFromConn wraps an existing connection, mainly for tests.
func NewClientFromConn(conn *grpc.ClientConn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{conn: conn, timeout: timeout}
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName))
}

func (c *Client) CreateBillingAccount(ctx context.Context, req *CreateAccountRequest) (*AccountResponse, error) {
	out := new(AccountResponse)
	if err := c.invoke(ctx, methodCreateBillingAccount, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeactivateBillingAccount(ctx context.Context, req *DeactivateAccountRequest) (*DeactivateAccountResponse, error) {
	out := new(DeactivateAccountResponse)
	if err := c.invoke(ctx, methodDeactivateBillingAccount, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddCharge(ctx context.Context, req *AddChargeRequest) (*BillResponse, error) {
	out := new(BillResponse)
	if err := c.invoke(ctx, methodAddCharge, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBillsByPatient(ctx context.Context, req *GetBillsRequest) (*BillsResponse, error) {
	out := new(BillsResponse)
	if err := c.invoke(ctx, methodGetBillsByPatient, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBillByPatientAndDate(ctx context.Context, req *GetBillByDateRequest) (*BillResponse, error) {
	out := new(BillResponse)
	if err := c.invoke(ctx, methodGetBillByPatientAndDate, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
