// Package remote implements the shared trip ledger: a connect service that
// stores whole-trip snapshots keyed by share code, and the client devices use
// to push and pull them.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/models"
)

const (
	// ServiceName is the fully-qualified name of the ledger service.
	ServiceName = "tripsplit.v1.LedgerService"

	// PushTripProcedure overwrites the stored snapshot of a trip.
	PushTripProcedure = "/tripsplit.v1.LedgerService/PushTrip"
	// PullTripProcedure fetches a snapshot by share code.
	PullTripProcedure = "/tripsplit.v1.LedgerService/PullTrip"
)

// ErrNotFound is returned by Pull when no trip uses the share code.
var ErrNotFound = errors.New("no trip found for share code")

// Error is any remote failure other than not-found: transport errors,
// timeouts, and server-side rejections.
type Error struct {
	Op   string
	Code connect.Code
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type PushTripRequest struct {
	Trip *models.Trip `json:"trip"`
}

type PushTripResponse struct {
	StoredAt time.Time `json:"stored_at"`
}

type PullTripRequest struct {
	ShareCode string `json:"share_code"`
}

type PullTripResponse struct {
	Trip *models.Trip `json:"trip"`
}

var (
	_ middleware.TripRef = (*PushTripRequest)(nil)
	_ middleware.TripRef = (*PullTripRequest)(nil)
	_ middleware.TripRef = (*PullTripResponse)(nil)
)

func tripRef(trip *models.Trip) (string, string) {
	if trip == nil {
		return "", ""
	}
	return trip.ID, trip.ShareCode
}

func (r *PushTripRequest) TripRef() (string, string)  { return tripRef(r.Trip) }
func (r *PullTripRequest) TripRef() (string, string)  { return "", r.ShareCode }
func (r *PullTripResponse) TripRef() (string, string) { return tripRef(r.Trip) }

// jsonCodec carries plain structs over connect. It registers under the
// "json" name so clients send application/json.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
