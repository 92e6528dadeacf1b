package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 10 * time.Second

// DeliveryError is a non-success answer from a webhook endpoint. Body is the
// response text as the endpoint sent it.
type DeliveryError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Target, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Target, e.StatusCode, e.Body)
}

// newHTTPClient returns a pooled client with the given timeout, or
// DefaultTimeout when timeout is not positive.
func newHTTPClient(timeout time.Duration) *http.Client {
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = DefaultTimeout
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c
}

// postJSON sends payload to url once. target names the endpoint in errors.
func postJSON(ctx context.Context, client *http.Client, url, target string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &DeliveryError{Target: target, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
