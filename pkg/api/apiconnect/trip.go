package apiconnect

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/tripsplit/pkg/api"
)

// TripServiceName is the fully-qualified name of the TripService service.
const TripServiceName = "tripsplit.v1.TripService"

const (
	TripServiceCreateTripProcedure        = "/tripsplit.v1.TripService/CreateTrip"
	TripServiceListTripsProcedure         = "/tripsplit.v1.TripService/ListTrips"
	TripServiceGetTripProcedure           = "/tripsplit.v1.TripService/GetTrip"
	TripServiceAddParticipantProcedure    = "/tripsplit.v1.TripService/AddParticipant"
	TripServiceRemoveParticipantProcedure = "/tripsplit.v1.TripService/RemoveParticipant"
	TripServiceCompleteTripProcedure      = "/tripsplit.v1.TripService/CompleteTrip"
	TripServiceArchiveTripProcedure       = "/tripsplit.v1.TripService/ArchiveTrip"
)

// TripServiceHandler is implemented by the trip service.
type TripServiceHandler interface {
	CreateTrip(context.Context, *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error)
	ListTrips(context.Context, *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error)
	GetTrip(context.Context, *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	CompleteTrip(context.Context, *connect.Request[api.CompleteTripRequest]) (*connect.Response[emptypb.Empty], error)
	ArchiveTrip(context.Context, *connect.Request[api.ArchiveTripRequest]) (*connect.Response[emptypb.Empty], error)
}

// NewTripServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewTripServiceHandler(svc TripServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	routes := map[string]http.Handler{
		TripServiceCreateTripProcedure:        connect.NewUnaryHandler(TripServiceCreateTripProcedure, svc.CreateTrip, opts...),
		TripServiceListTripsProcedure:         connect.NewUnaryHandler(TripServiceListTripsProcedure, svc.ListTrips, opts...),
		TripServiceGetTripProcedure:           connect.NewUnaryHandler(TripServiceGetTripProcedure, svc.GetTrip, opts...),
		TripServiceAddParticipantProcedure:    connect.NewUnaryHandler(TripServiceAddParticipantProcedure, svc.AddParticipant, opts...),
		TripServiceRemoveParticipantProcedure: connect.NewUnaryHandler(TripServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts...),
		TripServiceCompleteTripProcedure:      connect.NewUnaryHandler(TripServiceCompleteTripProcedure, svc.CompleteTrip, opts...),
		TripServiceArchiveTripProcedure:       connect.NewUnaryHandler(TripServiceArchiveTripProcedure, svc.ArchiveTrip, opts...),
	}
	return "/" + TripServiceName + "/", router(routes)
}

// TripServiceClient is a client for the TripService service.
type TripServiceClient interface {
	CreateTrip(context.Context, *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error)
	ListTrips(context.Context, *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error)
	GetTrip(context.Context, *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	CompleteTrip(context.Context, *connect.Request[api.CompleteTripRequest]) (*connect.Response[emptypb.Empty], error)
	ArchiveTrip(context.Context, *connect.Request[api.ArchiveTripRequest]) (*connect.Response[emptypb.Empty], error)
}

// NewTripServiceClient constructs a client for the TripService service.
func NewTripServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TripServiceClient {
	opts = withClientCodec(opts)
	return &tripServiceClient{
		createTrip:        connect.NewClient[api.CreateTripRequest, api.CreateTripResponse](httpClient, baseURL+TripServiceCreateTripProcedure, opts...),
		listTrips:         connect.NewClient[api.ListTripsRequest, api.ListTripsResponse](httpClient, baseURL+TripServiceListTripsProcedure, opts...),
		getTrip:           connect.NewClient[api.GetTripRequest, api.GetTripResponse](httpClient, baseURL+TripServiceGetTripProcedure, opts...),
		addParticipant:    connect.NewClient[api.AddParticipantRequest, api.AddParticipantResponse](httpClient, baseURL+TripServiceAddParticipantProcedure, opts...),
		removeParticipant: connect.NewClient[api.RemoveParticipantRequest, api.RemoveParticipantResponse](httpClient, baseURL+TripServiceRemoveParticipantProcedure, opts...),
		completeTrip:      connect.NewClient[api.CompleteTripRequest, emptypb.Empty](httpClient, baseURL+TripServiceCompleteTripProcedure, opts...),
		archiveTrip:       connect.NewClient[api.ArchiveTripRequest, emptypb.Empty](httpClient, baseURL+TripServiceArchiveTripProcedure, opts...),
	}
}

type tripServiceClient struct {
	createTrip        *connect.Client[api.CreateTripRequest, api.CreateTripResponse]
	listTrips         *connect.Client[api.ListTripsRequest, api.ListTripsResponse]
	getTrip           *connect.Client[api.GetTripRequest, api.GetTripResponse]
	addParticipant    *connect.Client[api.AddParticipantRequest, api.AddParticipantResponse]
	removeParticipant *connect.Client[api.RemoveParticipantRequest, api.RemoveParticipantResponse]
	completeTrip      *connect.Client[api.CompleteTripRequest, emptypb.Empty]
	archiveTrip       *connect.Client[api.ArchiveTripRequest, emptypb.Empty]
}

func (c *tripServiceClient) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	return c.createTrip.CallUnary(ctx, req)
}

func (c *tripServiceClient) ListTrips(ctx context.Context, req *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	return c.listTrips.CallUnary(ctx, req)
}

func (c *tripServiceClient) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	return c.getTrip.CallUnary(ctx, req)
}

func (c *tripServiceClient) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *tripServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

func (c *tripServiceClient) CompleteTrip(ctx context.Context, req *connect.Request[api.CompleteTripRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.completeTrip.CallUnary(ctx, req)
}

func (c *tripServiceClient) ArchiveTrip(ctx context.Context, req *connect.Request[api.ArchiveTripRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.archiveTrip.CallUnary(ctx, req)
}

// UnimplementedTripServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedTripServiceHandler struct{}

func (UnimplementedTripServiceHandler) CreateTrip(context.Context, *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	return nil, unimplemented(TripServiceCreateTripProcedure)
}

func (UnimplementedTripServiceHandler) ListTrips(context.Context, *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	return nil, unimplemented(TripServiceListTripsProcedure)
}

func (UnimplementedTripServiceHandler) GetTrip(context.Context, *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	return nil, unimplemented(TripServiceGetTripProcedure)
}

func (UnimplementedTripServiceHandler) AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	return nil, unimplemented(TripServiceAddParticipantProcedure)
}

func (UnimplementedTripServiceHandler) RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return nil, unimplemented(TripServiceRemoveParticipantProcedure)
}

func (UnimplementedTripServiceHandler) CompleteTrip(context.Context, *connect.Request[api.CompleteTripRequest]) (*connect.Response[emptypb.Empty], error) {
	return nil, unimplemented(TripServiceCompleteTripProcedure)
}

func (UnimplementedTripServiceHandler) ArchiveTrip(context.Context, *connect.Request[api.ArchiveTripRequest]) (*connect.Response[emptypb.Empty], error) {
	return nil, unimplemented(TripServiceArchiveTripProcedure)
}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(procedure+" is not implemented"))
}

func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

func router(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
