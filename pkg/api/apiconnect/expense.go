package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "tripsplit.v1.ExpenseService"

const (
	ExpenseServiceAddExpenseProcedure            = "/tripsplit.v1.ExpenseService/AddExpense"
	ExpenseServiceListExpensesProcedure          = "/tripsplit.v1.ExpenseService/ListExpenses"
	ExpenseServiceGetExpenseReportProcedure      = "/tripsplit.v1.ExpenseService/GetExpenseReport"
	ExpenseServiceMarkExpenseDetailPaidProcedure = "/tripsplit.v1.ExpenseService/MarkExpenseDetailPaid"
)

// ExpenseServiceHandler is implemented by the expense service.
type ExpenseServiceHandler interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetExpenseReport(context.Context, *connect.Request[api.GetExpenseReportRequest]) (*connect.Response[api.GetExpenseReportResponse], error)
	MarkExpenseDetailPaid(context.Context, *connect.Request[api.MarkExpenseDetailPaidRequest]) (*connect.Response[api.MarkExpenseDetailPaidResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	routes := map[string]http.Handler{
		ExpenseServiceAddExpenseProcedure:            connect.NewUnaryHandler(ExpenseServiceAddExpenseProcedure, svc.AddExpense, opts...),
		ExpenseServiceListExpensesProcedure:          connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...),
		ExpenseServiceGetExpenseReportProcedure:      connect.NewUnaryHandler(ExpenseServiceGetExpenseReportProcedure, svc.GetExpenseReport, opts...),
		ExpenseServiceMarkExpenseDetailPaidProcedure: connect.NewUnaryHandler(ExpenseServiceMarkExpenseDetailPaidProcedure, svc.MarkExpenseDetailPaid, opts...),
	}
	return "/" + ExpenseServiceName + "/", router(routes)
}

// ExpenseServiceClient is a client for the ExpenseService service.
type ExpenseServiceClient interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetExpenseReport(context.Context, *connect.Request[api.GetExpenseReportRequest]) (*connect.Response[api.GetExpenseReportResponse], error)
	MarkExpenseDetailPaid(context.Context, *connect.Request[api.MarkExpenseDetailPaidRequest]) (*connect.Response[api.MarkExpenseDetailPaidResponse], error)
}

// NewExpenseServiceClient constructs a client for the ExpenseService service.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	opts = withClientCodec(opts)
	return &expenseServiceClient{
		addExpense:            connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+ExpenseServiceAddExpenseProcedure, opts...),
		listExpenses:          connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		getExpenseReport:      connect.NewClient[api.GetExpenseReportRequest, api.GetExpenseReportResponse](httpClient, baseURL+ExpenseServiceGetExpenseReportProcedure, opts...),
		markExpenseDetailPaid: connect.NewClient[api.MarkExpenseDetailPaidRequest, api.MarkExpenseDetailPaidResponse](httpClient, baseURL+ExpenseServiceMarkExpenseDetailPaidProcedure, opts...),
	}
}

type expenseServiceClient struct {
	addExpense            *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	listExpenses          *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	getExpenseReport      *connect.Client[api.GetExpenseReportRequest, api.GetExpenseReportResponse]
	markExpenseDetailPaid *connect.Client[api.MarkExpenseDetailPaidRequest, api.MarkExpenseDetailPaidResponse]
}

func (c *expenseServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpenseReport(ctx context.Context, req *connect.Request[api.GetExpenseReportRequest]) (*connect.Response[api.GetExpenseReportResponse], error) {
	return c.getExpenseReport.CallUnary(ctx, req)
}

func (c *expenseServiceClient) MarkExpenseDetailPaid(ctx context.Context, req *connect.Request[api.MarkExpenseDetailPaidRequest]) (*connect.Response[api.MarkExpenseDetailPaidResponse], error) {
	return c.markExpenseDetailPaid.CallUnary(ctx, req)
}

// UnimplementedExpenseServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedExpenseServiceHandler struct{}

func (UnimplementedExpenseServiceHandler) AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return nil, unimplemented(ExpenseServiceAddExpenseProcedure)
}

func (UnimplementedExpenseServiceHandler) ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return nil, unimplemented(ExpenseServiceListExpensesProcedure)
}

func (UnimplementedExpenseServiceHandler) GetExpenseReport(context.Context, *connect.Request[api.GetExpenseReportRequest]) (*connect.Response[api.GetExpenseReportResponse], error) {
	return nil, unimplemented(ExpenseServiceGetExpenseReportProcedure)
}

func (UnimplementedExpenseServiceHandler) MarkExpenseDetailPaid(context.Context, *connect.Request[api.MarkExpenseDetailPaidRequest]) (*connect.Response[api.MarkExpenseDetailPaidResponse], error) {
	return nil, unimplemented(ExpenseServiceMarkExpenseDetailPaidProcedure)
}
