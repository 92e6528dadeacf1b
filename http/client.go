package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultMaxRetries is the default number of attempts for idempotent requests.
// Only attempts that got no response at all are repeated.
const DefaultMaxRetries = 3

// DefaultRetryWait is the default initial wait between retries.
const DefaultRetryWait = 500 * time.Millisecond

// Client provides common HTTP functionality for backend clients.
//
// Only GET and HEAD requests are retried, and only when the connection failed
// before any response arrived. A response of any status is the server's
// answer and is returned as is. Every other method is sent exactly once.
type Client struct {
	retrying    *retryablehttp.Client
	single      *retryablehttp.Client
	baseURL     string
	serviceName string
	logger      *slog.Logger

	// beforeRequest is called before each request (for auth headers, etc.)
	beforeRequest func(req *http.Request)
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client        *http.Client
	BaseURL       string
	ServiceName   string
	Timeout       time.Duration
	MaxRetries    int
	RetryWait     time.Duration
	Logger        *slog.Logger
	BeforeRequest func(req *http.Request)
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.Client
	if base == nil {
		base = cleanhttp.DefaultPooledClient()
		base.Timeout = DefaultTimeout
		if cfg.Timeout > 0 {
			base.Timeout = cfg.Timeout
		}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		retrying:      newRetryable(base, cfg.MaxRetries-1, cfg.RetryWait, cfg.Logger),
		single:        newRetryable(base, 0, cfg.RetryWait, cfg.Logger),
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:   cfg.ServiceName,
		logger:        cfg.Logger,
		beforeRequest: cfg.BeforeRequest,
	}
}

func newRetryable(base *http.Client, retries int, wait time.Duration, logger *slog.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = retries
	rc.RetryWaitMin = wait
	rc.RetryWaitMax = wait * 8
	rc.Logger = logger
	rc.CheckRetry = retryUnanswered
	// Hand the final response back instead of a "giving up" error so the
	// server's body can be parsed into an APIError.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc
}

// retryUnanswered retries transport failures that produced no response.
// Status codes, including 429 and 5xx, are never retried.
func retryUnanswered(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil || err == nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, nil, err)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request executes an HTTP request with a JSON body.
func (c *Client) Request(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}

	h := map[string]string{"Accept": "application/json"}
	if payload != nil {
		h["Content-Type"] = "application/json"
	}
	for k, v := range headers {
		h[k] = v
	}
	return c.do(ctx, method, path, payload, h)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, headers map[string]string) (*http.Response, error) {
	var raw any
	if payload != nil {
		raw = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, raw)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.beforeRequest != nil {
		c.beforeRequest(req.Request)
	}

	client := c.single
	if method == http.MethodGet || method == http.MethodHead {
		client = c.retrying
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s request failed: %w", c.serviceName, err)
	}
	return resp, nil
}

// Get performs a GET request and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string, result any) error {
	resp, err := c.Request(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, path, result)
}

// Post performs a POST request and decodes the response into result.
func (c *Client) Post(ctx context.Context, path string, headers map[string]string, body, result any) error {
	resp, err := c.Request(ctx, http.MethodPost, path, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, path, result)
}

// FilePart is a single file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// PostMultipart performs a multipart/form-data POST with one file part and
// decodes the response into result.
func (c *Client) PostMultipart(ctx context.Context, path string, headers map[string]string, part FilePart, result any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	ph := make(textproto.MIMEHeader)
	ph.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, part.Field, part.Filename))
	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ph.Set("Content-Type", contentType)

	w, err := mw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := w.Write(part.Data); err != nil {
		return fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	h := map[string]string{
		"Accept":       "application/json",
		"Content-Type": mw.FormDataContentType(),
	}
	for k, v := range headers {
		h[k] = v
	}

	resp, err := c.do(ctx, http.MethodPost, path, buf.Bytes(), h)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, path, result)
}

// handleResponse checks status and decodes the response body.
func (c *Client) handleResponse(resp *http.Response, path string, result any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseError(resp, path)
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}

	return nil
}

// parseError turns an error response into an APIError with the body kept verbatim.
func (c *Client) parseError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	return &APIError{
		Service:    c.serviceName,
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Endpoint:   path,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", code)
}

// BearerHeader returns the Authorization header map for a bearer credential.
// An empty credential yields no header at all.
func BearerHeader(credential string) map[string]string {
	if credential == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + credential}
}
