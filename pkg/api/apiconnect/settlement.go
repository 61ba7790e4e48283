package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService service.
const SettlementServiceName = "tripsplit.v1.SettlementService"

const (
	SettlementServiceGetBalancesProcedure         = "/tripsplit.v1.SettlementService/GetBalances"
	SettlementServiceGetSettlementProcedure       = "/tripsplit.v1.SettlementService/GetSettlement"
	SettlementServiceMarkTransactionPaidProcedure = "/tripsplit.v1.SettlementService/MarkTransactionPaid"
)

// SettlementServiceHandler is implemented by the settlement service.
type SettlementServiceHandler interface {
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	MarkTransactionPaid(context.Context, *connect.Request[api.MarkTransactionPaidRequest]) (*connect.Response[api.MarkTransactionPaidResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	routes := map[string]http.Handler{
		SettlementServiceGetBalancesProcedure:         connect.NewUnaryHandler(SettlementServiceGetBalancesProcedure, svc.GetBalances, opts...),
		SettlementServiceGetSettlementProcedure:       connect.NewUnaryHandler(SettlementServiceGetSettlementProcedure, svc.GetSettlement, opts...),
		SettlementServiceMarkTransactionPaidProcedure: connect.NewUnaryHandler(SettlementServiceMarkTransactionPaidProcedure, svc.MarkTransactionPaid, opts...),
	}
	return "/" + SettlementServiceName + "/", router(routes)
}

// SettlementServiceClient is a client for the SettlementService service.
type SettlementServiceClient interface {
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	MarkTransactionPaid(context.Context, *connect.Request[api.MarkTransactionPaidRequest]) (*connect.Response[api.MarkTransactionPaidResponse], error)
}

// NewSettlementServiceClient constructs a client for the SettlementService service.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	opts = withClientCodec(opts)
	return &settlementServiceClient{
		getBalances:         connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+SettlementServiceGetBalancesProcedure, opts...),
		getSettlement:       connect.NewClient[api.GetSettlementRequest, api.GetSettlementResponse](httpClient, baseURL+SettlementServiceGetSettlementProcedure, opts...),
		markTransactionPaid: connect.NewClient[api.MarkTransactionPaidRequest, api.MarkTransactionPaidResponse](httpClient, baseURL+SettlementServiceMarkTransactionPaidProcedure, opts...),
	}
}

type settlementServiceClient struct {
	getBalances         *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	getSettlement       *connect.Client[api.GetSettlementRequest, api.GetSettlementResponse]
	markTransactionPaid *connect.Client[api.MarkTransactionPaidRequest, api.MarkTransactionPaidResponse]
}

func (c *settlementServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *settlementServiceClient) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) MarkTransactionPaid(ctx context.Context, req *connect.Request[api.MarkTransactionPaidRequest]) (*connect.Response[api.MarkTransactionPaidResponse], error) {
	return c.markTransactionPaid.CallUnary(ctx, req)
}

// UnimplementedSettlementServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSettlementServiceHandler struct{}

func (UnimplementedSettlementServiceHandler) GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return nil, unimplemented(SettlementServiceGetBalancesProcedure)
}

func (UnimplementedSettlementServiceHandler) GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	return nil, unimplemented(SettlementServiceGetSettlementProcedure)
}

func (UnimplementedSettlementServiceHandler) MarkTransactionPaid(context.Context, *connect.Request[api.MarkTransactionPaidRequest]) (*connect.Response[api.MarkTransactionPaidResponse], error) {
	return nil, unimplemented(SettlementServiceMarkTransactionPaidProcedure)
}
