package tripsync

import (
	"context"
	"fmt"
	"net/http"
)

// Prober reports whether the network is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber probes by sending a HEAD request to a well-known URL.
// Any HTTP response counts as reachable.
type HTTPProber struct {
	Client *http.Client
	URL    string
}

// NewHTTPProber creates a prober for url using http.DefaultClient.
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{Client: http.DefaultClient, URL: url}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.URL, err)
	}
	resp.Body.Close()
	return nil
}
