package integrationtest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/reviewdesk/app"
	"github.com/randalmurphal/reviewdesk/config"
	"github.com/randalmurphal/reviewdesk/devserver"
	"github.com/randalmurphal/reviewdesk/notify"
	"github.com/randalmurphal/reviewdesk/session"
	"github.com/randalmurphal/reviewdesk/testutil"
	"github.com/stretchr/testify/require"
)

// settingsFor returns settings that talk to ds and keep state under dir.
func settingsFor(ds *testutil.DevServer, dir string) config.Settings {
	return config.Settings{
		APIBase:  ds.URL,
		AuthURL:  ds.TokenURL(),
		ClientID: config.AppName,
		Timeout:  5 * time.Second,
		Retries:  1,
		StateDir: dir,
	}
}

// openApp wires an App for ds with its own state directory.
func openApp(t *testing.T, s config.Settings) *app.App {
	t.Helper()
	a, err := app.Open(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return a
}

// loginAs opens an App and signs in as the seeded user holding role.
func loginAs(t *testing.T, ds *testutil.DevServer, role session.Role) *app.App {
	t.Helper()
	a := openApp(t, settingsFor(ds, t.TempDir()))
	u, ok := ds.Seed.User(role)
	require.True(t, ok, "no seeded user for %s", role)

	got, err := a.Login(testutil.TestContext(t), u.Email, devserver.SeedPassword)
	require.NoError(t, err)
	require.Equal(t, role, got)
	return a
}

// webhookSink records the events posted to it.
type webhookSink struct {
	*httptest.Server

	mu     sync.Mutex
	events []notify.Event
}

func startWebhookSink(t *testing.T) *webhookSink {
	t.Helper()
	sink := &webhookSink{}
	sink.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev notify.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sink.mu.Lock()
		sink.events = append(sink.events, ev)
		sink.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(sink.Close)
	return sink
}

func (s *webhookSink) Events() []notify.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Event(nil), s.events...)
}
