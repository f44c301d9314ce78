package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPProber reports a target reachable when it answers an HTTP GET with a
// 2xx or 3xx status. Useful for smart plugs and routers with a web UI.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

// NewHTTPProber creates a prober for url with the given client timeout.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		URL: url,
		Client: &http.Client{
			Timeout: timeout,
			// The device answering at all is what matters; don't chase redirects.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *HTTPProber) Check(ctx context.Context) Result {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return Result{Reachable: false, Message: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Result{Reachable: false, Message: err.Error(), Latency: latency}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return Result{
		Reachable: resp.StatusCode >= 200 && resp.StatusCode < 400,
		Message:   resp.Status,
		Latency:   latency,
	}
}
