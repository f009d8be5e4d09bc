package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

// Service implements the ledger service on top of a TripStore.
// Writes are last-write-wins per trip ID.
type Service struct {
	store storage.TripStore
}

// NewService creates a new Service with the given storage backend.
func NewService(store storage.TripStore) *Service {
	return &Service{store: store}
}

// NewHandler builds an HTTP handler that serves the ledger procedures.
// It returns the path on which to mount the handler and the handler itself.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PushTripProcedure, connect.NewUnaryHandler(PushTripProcedure, svc.PushTrip, opts...))
	mux.Handle(PullTripProcedure, connect.NewUnaryHandler(PullTripProcedure, svc.PullTrip, opts...))
	return "/" + ServiceName + "/", mux
}

// validateSnapshot rejects snapshots that could not have come from a valid trip.
func validateSnapshot(trip *models.Trip) error {
	if trip == nil {
		return errors.New("trip is required")
	}
	if trip.ID == "" {
		return errors.New("trip id is required")
	}
	code, err := models.NormalizeShareCode(trip.ShareCode)
	if err != nil || code != trip.ShareCode {
		return fmt.Errorf("share code %q is not valid", trip.ShareCode)
	}
	if len(trip.Participants) < models.MinParticipants {
		return fmt.Errorf("trip needs at least %d participants", models.MinParticipants)
	}
	return nil
}

// PushTrip stores the snapshot, replacing whatever was stored for the same trip.
func (s *Service) PushTrip(
	ctx context.Context,
	req *connect.Request[PushTripRequest],
) (*connect.Response[PushTripResponse], error) {
	trip := req.Msg.Trip
	if err := validateSnapshot(trip); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Info("PushTrip request received",
		"trip_id", trip.ID,
		"share_code", trip.ShareCode,
		"expenses", len(trip.Expenses),
		"device_id", middleware.GetDeviceID(ctx),
	)

	if err := s.store.PutTrip(ctx, trip); err != nil {
		if errors.Is(err, storage.ErrShareCodeTaken) {
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		}
		slog.Error("Failed to store trip", "trip_id", trip.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to store trip: %w", err))
	}

	return connect.NewResponse(&PushTripResponse{StoredAt: time.Now()}), nil
}

// PullTrip returns the latest snapshot stored under a share code.
func (s *Service) PullTrip(
	ctx context.Context,
	req *connect.Request[PullTripRequest],
) (*connect.Response[PullTripResponse], error) {
	code, err := models.NormalizeShareCode(req.Msg.ShareCode)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Info("PullTrip request received", "share_code", code, "device_id", middleware.GetDeviceID(ctx))

	trip, err := s.store.GetTripByShareCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		slog.Error("Failed to load trip", "share_code", code, "error", err)
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to load trip: %w", err))
	}

	return connect.NewResponse(&PullTripResponse{Trip: trip}), nil
}
