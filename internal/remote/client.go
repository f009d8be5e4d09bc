package remote

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/models"
)

// Client pushes and pulls trip snapshots against a ledger server.
type Client struct {
	push *connect.Client[PushTripRequest, PushTripResponse]
	pull *connect.Client[PullTripRequest, PullTripResponse]
}

// NewClient creates a client for the ledger served at baseURL
// (e.g. http://localhost:8080). A non-empty token is sent as a bearer token.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	if token != "" {
		opts = append(opts, connect.WithInterceptors(bearerToken(token)))
	}

	return &Client{
		push: connect.NewClient[PushTripRequest, PushTripResponse](httpClient, baseURL+PushTripProcedure, opts...),
		pull: connect.NewClient[PullTripRequest, PullTripResponse](httpClient, baseURL+PullTripProcedure, opts...),
	}
}

// bearerToken attaches the device token to every outgoing request.
func bearerToken(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// Push overwrites the remote snapshot of trip.
func (c *Client) Push(ctx context.Context, trip *models.Trip) error {
	_, err := c.push.CallUnary(ctx, connect.NewRequest(&PushTripRequest{Trip: trip}))
	if err != nil {
		return wrapError("push", err)
	}
	return nil
}

// Pull fetches the snapshot stored under code.
// Returns ErrNotFound if the server has no trip for the code.
func (c *Client) Pull(ctx context.Context, code string) (*models.Trip, error) {
	resp, err := c.pull.CallUnary(ctx, connect.NewRequest(&PullTripRequest{ShareCode: code}))
	if err != nil {
		if connect.CodeOf(err) == connect.CodeNotFound {
			return nil, ErrNotFound
		}
		return nil, wrapError("pull", err)
	}
	if resp.Msg.Trip == nil {
		return nil, &Error{Op: "pull", Code: connect.CodeInternal, Err: errors.New("empty snapshot in response")}
	}
	return resp.Msg.Trip, nil
}

func wrapError(op string, err error) error {
	return &Error{Op: op, Code: connect.CodeOf(err), Err: err}
}
