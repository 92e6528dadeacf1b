package testutil

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/randalmurphal/reviewdesk/devserver"
	"github.com/randalmurphal/reviewdesk/session"
)

// DevServer is a seeded dev backend running on a loopback listener.
type DevServer struct {
	*devserver.Server

	// URL is the base URL of the running server.
	URL string

	// Seed describes the seeded accounts, brand and items.
	Seed *devserver.Seeded

	// Tokens holds a valid bearer token per role.
	Tokens map[session.Role]string
}

// TokenURL is the password-grant endpoint of the server.
func (d *DevServer) TokenURL() string {
	return d.URL + "/auth/token"
}

// StartDevServer starts a seeded dev backend that is shut down when the test
// ends. Server logs are discarded.
func StartDevServer(t *testing.T) *DevServer {
	t.Helper()

	srv, err := devserver.New(devserver.Config{
		Secret: []byte("testutil-devserver-secret-0123456789"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create devserver: %v", err)
	}
	seed, err := devserver.Seed(srv)
	if err != nil {
		t.Fatalf("failed to seed devserver: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tokens := make(map[session.Role]string, len(session.Roles))
	for _, role := range session.Roles {
		u, _ := seed.User(role)
		tok, err := srv.IssueToken(u)
		if err != nil {
			t.Fatalf("failed to mint %s token: %v", role, err)
		}
		tokens[role] = tok
	}

	return &DevServer{Server: srv, URL: ts.URL, Seed: seed, Tokens: tokens}
}
