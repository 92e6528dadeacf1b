package integrationtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/randalmurphal/reviewdesk/audit"
	"github.com/randalmurphal/reviewdesk/content"
	"github.com/randalmurphal/reviewdesk/devserver"
	rderrors "github.com/randalmurphal/reviewdesk/errors"
	"github.com/randalmurphal/reviewdesk/notify"
	"github.com/randalmurphal/reviewdesk/policy"
	"github.com/randalmurphal/reviewdesk/review"
	"github.com/randalmurphal/reviewdesk/session"
	"github.com/randalmurphal/reviewdesk/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ingest submits a content item through the ingest endpoint.
func ingest(t *testing.T, ds *testutil.DevServer, body map[string]string) content.Item {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(testutil.TestContext(t), http.MethodPost, ds.URL+"/content", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set(devserver.IngestKeyHeader, ds.Seed.IngestKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var it content.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&it))
	return it
}

// TestIngestToApproval follows one item from submission to approval and
// checks what the creator and the approver see at each step.
func TestIngestToApproval(t *testing.T) {
	ds := testutil.StartDevServer(t)
	ctx := testutil.TestContext(t)

	it := ingest(t, ds, map[string]string{
		"brand_id":    ds.Seed.Brand.ID,
		"type":        string(content.TypeProductDescription),
		"input_brief": "Trail runner, fall colors",
		"output_text": "Grip that holds when the leaves come down.",
	})
	assert.Equal(t, content.StatusPending, it.Status)
	assert.Equal(t, ds.Seed.Brand.Manual.ID, it.BrandManualID)

	creator := loginAs(t, ds, session.RoleCreator)
	approver := loginAs(t, ds, session.RoleApproverA)

	// Newest first for both roles.
	assert.Equal(t, it.ID, creator.Desk.State().Items[0].ID)
	assert.Equal(t, it.ID, approver.Desk.State().Items[0].ID)

	require.NoError(t, creator.Desk.Select(it.ID))
	assert.Empty(t, creator.Desk.State().Available(), "creators are offered no review actions")

	require.NoError(t, approver.Desk.Select(it.ID))
	assert.Equal(t, []policy.Action{policy.ActionApprove, policy.ActionReject}, approver.Desk.State().Available())

	approver.Desk.SetComment("ship it")
	require.NoError(t, approver.Desk.ApproveSelected(ctx))

	st := approver.Desk.State()
	assert.Equal(t, review.NoticeApproved, st.Notice)
	assert.Empty(t, st.SelectedID)
	_, listed := content.Find(st.Items, it.ID)
	assert.False(t, listed, "approved items leave the approver inbox")
	assert.Equal(t, []string{"ship it"}, ds.Store().Comments(it.ID))

	require.NoError(t, creator.Desk.Refresh(ctx))
	mine, ok := content.Find(creator.Desk.State().Items, it.ID)
	require.True(t, ok, "creators keep seeing their own items")
	assert.Equal(t, content.StatusApproved, mine.Status)
}

// TestConcurrentReviewersConflict has two approvers act on the same item.
// The second decision is refused by the server and its text reaches the
// user unchanged.
func TestConcurrentReviewersConflict(t *testing.T) {
	ds := testutil.StartDevServer(t)
	ctx := testutil.TestContext(t)
	target := ds.Seed.Items[0].ID

	a := loginAs(t, ds, session.RoleApproverA)
	b := loginAs(t, ds, session.RoleApproverB)

	require.NoError(t, a.Desk.Approve(ctx, target, ""))

	// b still lists the item as pending.
	stale, ok := content.Find(b.Desk.State().Items, target)
	require.True(t, ok)
	require.True(t, stale.Pending())

	err := b.Desk.Reject(ctx, target, "too late")
	require.Error(t, err)
	assert.True(t, rderrors.IsTransitionError(err), "got %T: %v", err, err)

	ce := rderrors.Describe(err)
	require.NotNil(t, ce)
	assert.Equal(t, "content "+target+" is APPROVED", ce.Message)
	assert.Equal(t, err, b.Desk.State().Err)

	got, _ := ds.Store().Item(target)
	assert.Equal(t, content.StatusApproved, got.Status)
}

// TestAuditEvidence audits a non-compliant image and fetches the evidence
// copy through the returned link.
func TestAuditEvidence(t *testing.T) {
	ds := testutil.StartDevServer(t)
	ctx := testutil.TestContext(t)
	b := loginAs(t, ds, session.RoleApproverB)

	path := testutil.PNGFile(t, 1600, 400)
	img, err := audit.LoadImage(path)
	require.NoError(t, err)

	b.Desk.SetImage(&img)
	assert.Contains(t, b.Desk.State().Available(), policy.ActionAuditBrand)

	report, err := b.Desk.AuditBrand(ctx, ds.Seed.Brand.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, content.VerdictFail, report.Verdict)
	assert.NotEmpty(t, report.Violations)
	assert.Equal(t, review.NoticeAuditFail, b.Desk.State().Notice)

	require.NotEmpty(t, report.EvidenceURI)
	resp, err := http.Get(report.EvidenceURI)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, img.Data, data)
}

// TestAuditDeniedForApproverA checks both the local gate and the server.
func TestAuditDeniedForApproverA(t *testing.T) {
	ds := testutil.StartDevServer(t)
	ctx := testutil.TestContext(t)
	a := loginAs(t, ds, session.RoleApproverA)

	img := audit.NewImage("ok.png", "image/png", testutil.PNG(t, 1000, 1000))
	a.Desk.SetImage(&img)
	assert.NotContains(t, a.Desk.State().Available(), policy.ActionAuditBrand)

	_, err := a.Desk.AuditBrand(ctx, ds.Seed.Brand.ID, &img)
	require.Error(t, err)
	assert.True(t, rderrors.IsPermissionError(err), "got %T: %v", err, err)
	assert.Nil(t, a.Desk.State().Report)
}

// TestNotificationsReachWebhook checks that review outcomes are delivered
// to the configured webhook.
func TestNotificationsReachWebhook(t *testing.T) {
	ds := testutil.StartDevServer(t)
	sink := startWebhookSink(t)
	ctx := testutil.TestContext(t)

	s := settingsFor(ds, t.TempDir())
	s.NotifyWebhookURL = sink.URL
	a := openApp(t, s)
	_, err := a.Login(ctx, devserver.SeedApproverBEmail, devserver.SeedPassword)
	require.NoError(t, err)

	target := ds.Seed.Items[2]
	require.NoError(t, a.Desk.Reject(ctx, target.ID, "wrong palette"))

	img := audit.NewImage("hero.png", "image/png", testutil.PNG(t, 1000, 1000))
	_, err = a.Desk.AuditBrand(ctx, ds.Seed.Brand.ID, &img)
	require.NoError(t, err)

	var rejected, audited *notify.Event
	for _, ev := range sink.Events() {
		switch ev.Type {
		case notify.EventItemRejected:
			rejected = &ev
		case notify.EventAuditCompleted:
			audited = &ev
		}
	}
	require.NotNil(t, rejected, "events: %+v", sink.Events())
	assert.Equal(t, target.ID, rejected.ItemID)
	assert.Equal(t, target.BrandID, rejected.BrandID)
	assert.Equal(t, devserver.SeedApproverBEmail, rejected.Actor)
	assert.Equal(t, string(session.RoleApproverB), rejected.Role)
	assert.Equal(t, "wrong palette", rejected.Metadata["comment"])

	require.NotNil(t, audited)
	assert.Equal(t, ds.Seed.Brand.ID, audited.BrandID)
	assert.Equal(t, notify.SeverityInfo, audited.Severity)
	assert.Equal(t, string(content.VerdictCheck), audited.Metadata["verdict"])
}

// TestSwitchingUserResetsDesk signs a second user into the same desk. Nothing
// from the first session may carry over.
func TestSwitchingUserResetsDesk(t *testing.T) {
	ds := testutil.StartDevServer(t)
	ctx := testutil.TestContext(t)
	a := loginAs(t, ds, session.RoleApproverB)

	require.NoError(t, a.Desk.Select(ds.Seed.Items[0].ID))
	a.Desk.SetComment("draft")
	img := audit.NewImage("hero.png", "image/png", testutil.PNG(t, 1000, 1000))
	_, err := a.Desk.AuditBrand(ctx, ds.Seed.Brand.ID, &img)
	require.NoError(t, err)

	role, err := a.Login(ctx, devserver.SeedCreatorEmail, devserver.SeedPassword)
	require.NoError(t, err)
	require.Equal(t, session.RoleCreator, role)

	st := a.Desk.State()
	assert.Equal(t, devserver.SeedCreatorEmail, st.Subject)
	assert.Empty(t, st.SelectedID)
	assert.Empty(t, st.Comment)
	assert.Nil(t, st.Image)
	assert.Nil(t, st.Report)
	assert.Empty(t, st.Available())
	assert.Len(t, st.Items, len(ds.Seed.Items))
}

// TestRejectedTokenSignsOut shows that a credential the server does not
// accept never starts a session.
func TestRejectedTokenSignsOut(t *testing.T) {
	ds := testutil.StartDevServer(t)
	ctx := testutil.TestContext(t)

	s := settingsFor(ds, t.TempDir())
	s.Token = "not-a-jwt"
	a := openApp(t, s)

	role, err := a.Restore(ctx)
	require.Error(t, err)
	assert.True(t, rderrors.IsAuthError(err), "got %T: %v", err, err)
	assert.Equal(t, session.RoleNone, role)
	assert.False(t, a.Desk.State().SignedIn)
}
