package middleware

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/auth"
)

func TestAuthInterceptors(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("device-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name         string
		header       string
		wantDevice   string
		requireError bool
	}{
		{name: "no header", header: "", wantDevice: "", requireError: true},
		{name: "valid token", header: "Bearer " + token, wantDevice: "device-1", requireError: false},
		{name: "bad token", header: "Bearer junk", wantDevice: "", requireError: true},
		{name: "wrong scheme", header: "Basic " + token, wantDevice: "", requireError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				seen = GetDeviceID(ctx)
				return nil, nil
			}

			req := connect.NewRequest(&struct{}{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			// Optional auth never rejects
			if _, err := OptionalAuth(jwtManager)(next)(context.Background(), req); err != nil {
				t.Fatalf("OptionalAuth returned error: %v", err)
			}
			if seen != tt.wantDevice {
				t.Errorf("OptionalAuth device = %q, want %q", seen, tt.wantDevice)
			}

			seen = ""
			_, err := RequireAuth(jwtManager)(next)(context.Background(), req)
			if tt.requireError {
				if connect.CodeOf(err) != connect.CodeUnauthenticated {
					t.Errorf("RequireAuth error = %v, want unauthenticated", err)
				}
				if seen != "" {
					t.Error("RequireAuth called the handler for a rejected request")
				}
				return
			}
			if err != nil {
				t.Fatalf("RequireAuth returned error: %v", err)
			}
			if seen != tt.wantDevice {
				t.Errorf("RequireAuth device = %q, want %q", seen, tt.wantDevice)
			}
		})
	}
}
