package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// TripRef is implemented by ledger messages that name a trip. Either value
// may be empty: a pull request only knows the share code.
type TripRef interface {
	TripRef() (tripID, shareCode string)
}

// tripAttrs collects trip_id and share_code from the first message that
// names them.
func tripAttrs(msgs ...any) []any {
	var tripID, shareCode string
	for _, msg := range msgs {
		ref, ok := msg.(TripRef)
		if !ok {
			continue
		}
		id, code := ref.TripRef()
		if tripID == "" {
			tripID = id
		}
		if shareCode == "" {
			shareCode = code
		}
	}

	var attrs []any
	if tripID != "" {
		attrs = append(attrs, "trip_id", tripID)
	}
	if shareCode != "" {
		attrs = append(attrs, "share_code", shareCode)
	}
	return attrs
}

// clientFault reports codes caused by what the device sent: an unknown share
// code, a taken share code, a malformed snapshot, or a missing token.
func clientFault(code connect.Code) bool {
	switch code {
	case connect.CodeNotFound, connect.CodeAlreadyExists, connect.CodeInvalidArgument, connect.CodeUnauthenticated:
		return true
	}
	return false
}

// LoggingInterceptor returns a Connect interceptor that logs every ledger RPC
// with the device and the trip it touched. Rejections caused by the device
// are logged at info; server-side failures at warn or error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			deviceID := GetDeviceID(ctx) // empty unless an auth interceptor runs first

			resp, err := next(ctx, req)

			msgs := []any{req.Any()}
			if err == nil {
				msgs = append(msgs, resp.Any())
			}
			attrs := append([]any{
				"procedure", req.Spec().Procedure,
				"device_id", deviceID,
				"peer", req.Peer().Addr,
				"duration_ms", time.Since(start).Milliseconds(),
			}, tripAttrs(msgs...)...)

			var connectErr *connect.Error
			switch {
			case err == nil:
				slog.Info("RPC ok", attrs...)
			case errors.As(err, &connectErr) && clientFault(connectErr.Code()):
				slog.Info("RPC rejected", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			case errors.As(err, &connectErr):
				slog.Warn("RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			default:
				slog.Error("RPC error", append(attrs, "error", err)...)
			}

			return resp, err
		}
	}
}
