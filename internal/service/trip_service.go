package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

// TripService implements the Connect TripService
type TripService struct {
	apiconnect.UnimplementedTripServiceHandler
	store  storage.Store
	logger *slog.Logger
}

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.Store, logger *slog.Logger) *TripService {
	return &TripService{store: store, logger: logger}
}

// CreateTrip creates a trip owned by the caller, who becomes its first participant.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "CreateTrip", err)
	}

	trip := &models.Trip{
		Title:       req.Msg.Title,
		Destination: req.Msg.Destination,
		Description: req.Msg.Description,
		CreatedBy:   userID,
	}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, fail(ctx, s.logger, "CreateTrip", err)
	}

	s.logger.InfoContext(ctx, "Trip created", "trip_id", trip.ID, "created_by", userID)

	apiTrip, err := s.tripView(ctx, trip)
	if err != nil {
		return nil, fail(ctx, s.logger, "CreateTrip", err, "trip_id", trip.ID)
	}
	return connect.NewResponse(&api.CreateTripResponse{Trip: apiTrip}), nil
}

// ListTrips returns the trips the caller participates in, newest first.
func (s *TripService) ListTrips(ctx context.Context, req *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "ListTrips", err)
	}

	trips, err := s.store.ListTripsByParticipant(ctx, userID, req.Msg.IncludeArchived)
	if err != nil {
		return nil, fail(ctx, s.logger, "ListTrips", err, "user_id", userID)
	}

	// Fetch every roster's display names in one query
	var ids []string
	for _, trip := range trips {
		ids = append(ids, trip.Participants...)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fail(ctx, s.logger, "ListTrips", err, "user_id", userID)
	}

	result := make([]*api.Trip, len(trips))
	for i, trip := range trips {
		result[i] = toAPITrip(trip, users)
	}
	return connect.NewResponse(&api.ListTripsResponse{Trips: result}), nil
}

// GetTrip returns a trip the caller participates in.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetTrip", err)
	}

	trip, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetTrip", err, "trip_id", req.Msg.TripID)
	}

	apiTrip, err := s.tripView(ctx, trip)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetTrip", err, "trip_id", trip.ID)
	}
	return connect.NewResponse(&api.GetTripResponse{Trip: apiTrip}), nil
}

// AddParticipant adds a user to the roster. Only the creator may do so.
func (s *TripService) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "AddParticipant", err)
	}

	trip, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, "AddParticipant", err, "trip_id", req.Msg.TripID)
	}
	if err := requireCreator(trip, userID); err != nil {
		return nil, err
	}

	// A user who has signed in before keeps their own display name
	known, err := s.store.GetUsersByIDs(ctx, []string{req.Msg.UserID})
	if err != nil {
		return nil, fail(ctx, s.logger, "AddParticipant", err, "trip_id", trip.ID)
	}
	if _, ok := known[req.Msg.UserID]; !ok {
		name := req.Msg.DisplayName
		if name == "" {
			name = req.Msg.UserID
		}
		if err := s.store.UpsertUser(ctx, models.NewUser(req.Msg.UserID, name)); err != nil {
			return nil, fail(ctx, s.logger, "AddParticipant", err, "trip_id", trip.ID)
		}
	}

	if err := s.store.AddTripParticipants(ctx, trip.ID, []string{req.Msg.UserID}); err != nil {
		return nil, fail(ctx, s.logger, "AddParticipant", err, "trip_id", trip.ID)
	}
	s.logger.InfoContext(ctx, "Participant added", "trip_id", trip.ID, "user_id", req.Msg.UserID)

	return reloadTrip(ctx, s, "AddParticipant", trip.ID, func(t *api.Trip) *connect.Response[api.AddParticipantResponse] {
		return connect.NewResponse(&api.AddParticipantResponse{Trip: t})
	})
}

// RemoveParticipant removes a user with no expenses or payments from the roster.
func (s *TripService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "RemoveParticipant", err)
	}

	trip, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, "RemoveParticipant", err, "trip_id", req.Msg.TripID)
	}
	if err := requireCreator(trip, userID); err != nil {
		return nil, err
	}

	if err := s.store.RemoveTripParticipant(ctx, trip.ID, req.Msg.UserID); err != nil {
		return nil, fail(ctx, s.logger, "RemoveParticipant", err, "trip_id", trip.ID)
	}
	s.logger.InfoContext(ctx, "Participant removed", "trip_id", trip.ID, "user_id", req.Msg.UserID)

	return reloadTrip(ctx, s, "RemoveParticipant", trip.ID, func(t *api.Trip) *connect.Response[api.RemoveParticipantResponse] {
		return connect.NewResponse(&api.RemoveParticipantResponse{Trip: t})
	})
}

// CompleteTrip closes a trip to new expenses. Payments can still be recorded.
func (s *TripService) CompleteTrip(ctx context.Context, req *connect.Request[api.CompleteTripRequest]) (*connect.Response[emptypb.Empty], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if err := s.setFlag(ctx, "CompleteTrip", req.Msg.TripID, s.store.CompleteTrip); err != nil {
		return nil, err
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// ArchiveTrip hides a trip from the default listing.
func (s *TripService) ArchiveTrip(ctx context.Context, req *connect.Request[api.ArchiveTripRequest]) (*connect.Response[emptypb.Empty], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if err := s.setFlag(ctx, "ArchiveTrip", req.Msg.TripID, s.store.ArchiveTrip); err != nil {
		return nil, err
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *TripService) setFlag(ctx context.Context, op, tripID string, set func(context.Context, string) error) error {
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return fail(ctx, s.logger, op, err)
	}
	trip, err := loadTripForMember(ctx, s.store, tripID, userID)
	if err != nil {
		return fail(ctx, s.logger, op, err, "trip_id", tripID)
	}
	if err := requireCreator(trip, userID); err != nil {
		return err
	}
	if err := set(ctx, trip.ID); err != nil {
		return fail(ctx, s.logger, op, err, "trip_id", trip.ID)
	}
	s.logger.InfoContext(ctx, "Trip updated", "op", op, "trip_id", trip.ID)
	return nil
}

// tripView converts a trip, resolving participant display names.
func (s *TripService) tripView(ctx context.Context, trip *models.Trip) (*api.Trip, error) {
	users, err := s.store.GetUsersByIDs(ctx, trip.Participants)
	if err != nil {
		return nil, err
	}
	return toAPITrip(trip, users), nil
}

func reloadTrip[T any](ctx context.Context, s *TripService, op, tripID string, wrap func(*api.Trip) *connect.Response[T]) (*connect.Response[T], error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, fail(ctx, s.logger, op, err, "trip_id", tripID)
	}
	apiTrip, err := s.tripView(ctx, trip)
	if err != nil {
		return nil, fail(ctx, s.logger, op, err, "trip_id", tripID)
	}
	return wrap(apiTrip), nil
}
