package health

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// NewHTTPProber returns a Prober issuing GET endpointURL+path. Only a 2xx
// response counts as healthy. The request deadline comes from ctx.
func NewHTTPProber(hc *http.Client) ProbeFunc {
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    100,
				IdleConnTimeout: 30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		}
	}

	return func(ctx context.Context, endpointURL, path string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL+path, nil)
		if err != nil {
			return err
		}

		resp, err := hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("health check returned status %d", resp.StatusCode)
		}

		return nil
	}
}
