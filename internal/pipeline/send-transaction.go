package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/bytedance/sonic"
)

var ErrSwitchRejected = errors.New("switch rejected the transaction")

type SwitchClient interface {
	Send(ctx context.Context, endpointURL string, tx structs.Transaction) (structs.TransactionStatus, error)
}

// SimulatedClient accepts every transaction without any I/O.
type SimulatedClient struct{}

func (SimulatedClient) Send(ctx context.Context, _ string, _ structs.Transaction) (structs.TransactionStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return structs.StatusCompleted, nil
}

type sendPayload struct {
	Reference string `json:"reference"`
	structs.TransactionPayload
}

type switchResponse struct {
	Status structs.TransactionStatus `json:"status"`
}

// HTTPClient posts the payload to endpointURL+path. A 2xx response is a
// success unless its body reports {"status": "FAILED"}.
type HTTPClient struct {
	http *http.Client
	path string
}

func NewHTTPClient(path string) *HTTPClient {
	return &HTTPClient{
		path: path,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        500,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     10 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (c *HTTPClient) Send(
	ctx context.Context,
	endpointURL string,
	tx structs.Transaction,
) (structs.TransactionStatus, error) {
	body, err := sonic.ConfigFastest.Marshal(sendPayload{
		Reference:          tx.TransactionID,
		TransactionPayload: tx.Data,
	})
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL+c.path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("switch returned status %d", resp.StatusCode)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return structs.StatusCompleted, nil
	}

	var sr switchResponse
	if err := sonic.ConfigFastest.Unmarshal(raw, &sr); err != nil || sr.Status == "" {
		return structs.StatusCompleted, nil
	}

	return sr.Status, nil
}
