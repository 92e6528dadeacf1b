package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/content"
	rdhttp "github.com/randalmurphal/reviewdesk/http"
	"github.com/randalmurphal/reviewdesk/session"
)

// ServiceName labels errors from this client.
const ServiceName = "reviewdesk"

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Logger     *slog.Logger
}

// Client calls the review backend.
type Client struct {
	http   *rdhttp.Client
	logger *slog.Logger
}

// NewClient creates a backend client.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: rdhttp.NewClient(rdhttp.ClientConfig{
			BaseURL:     cfg.BaseURL,
			ServiceName: ServiceName,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
			Logger:      logger,
		}),
		logger: logger,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Me fetches the caller's profile.
func (c *Client) Me(ctx context.Context, credential string) (Me, error) {
	var me Me
	if err := c.http.Get(ctx, "/me", rdhttp.BearerHeader(credential), &me); err != nil {
		return Me{}, err
	}
	return me, nil
}

// ResolveRole implements session.RoleResolver.
func (c *Client) ResolveRole(ctx context.Context, credential string) (session.Role, error) {
	me, err := c.Me(ctx, credential)
	if err != nil {
		return session.RoleNone, err
	}
	role := session.ParseRole(me.Role)
	if !role.Known() {
		return session.RoleNone, fmt.Errorf("backend returned unknown role %q", me.Role)
	}
	return role, nil
}

// Inbox lists the items visible to the caller, in server order.
func (c *Client) Inbox(ctx context.Context, credential string) ([]content.Item, error) {
	var resp inboxResponse
	if err := c.http.Get(ctx, "/inbox", rdhttp.BearerHeader(credential), &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = []content.Item{}
	}
	c.logger.Debug("inbox fetched", "items", len(resp.Items))
	return resp.Items, nil
}

// Approve asks the backend to approve itemID.
func (c *Client) Approve(ctx context.Context, credential, itemID, comment string) error {
	return c.transition(ctx, credential, itemID, "approve", comment)
}

// Reject asks the backend to reject itemID.
func (c *Client) Reject(ctx context.Context, credential, itemID, comment string) error {
	return c.transition(ctx, credential, itemID, "reject", comment)
}

func (c *Client) transition(ctx context.Context, credential, itemID, verb, comment string) error {
	path := fmt.Sprintf("/content/%s/%s", url.PathEscape(itemID), verb)
	// The body may be the updated item or a bare acknowledgement; only the
	// status code matters since the list is re-fetched afterwards.
	return c.http.Post(ctx, path, rdhttp.BearerHeader(credential), transitionRequest{Comment: comment}, nil)
}

// AuditItemImage submits img for the content item's brand manual check.
func (c *Client) AuditItemImage(ctx context.Context, credential, itemID string, img audit.Image) (content.AuditReport, error) {
	path := fmt.Sprintf("/content/%s/audit-image", url.PathEscape(itemID))
	return c.auditImage(ctx, credential, path, content.TargetItem, itemID, img)
}

// AuditBrandImage submits img against a brand's manual directly.
func (c *Client) AuditBrandImage(ctx context.Context, credential, brandID string, img audit.Image) (content.AuditReport, error) {
	path := fmt.Sprintf("/brands/%s/audit-image", url.PathEscape(brandID))
	return c.auditImage(ctx, credential, path, content.TargetBrand, brandID, img)
}

func (c *Client) auditImage(ctx context.Context, credential, path, kind, target string, img audit.Image) (content.AuditReport, error) {
	var resp auditResponse
	err := c.http.PostMultipart(ctx, path, rdhttp.BearerHeader(credential), rdhttp.FilePart{
		Field:       "file",
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        img.Data,
	}, &resp)
	if err != nil {
		return content.AuditReport{}, err
	}
	report := resp.toReport(kind, target)
	if !report.Verdict.Valid() {
		return content.AuditReport{}, fmt.Errorf("backend returned unknown verdict %q", report.Verdict)
	}
	return report, nil
}
