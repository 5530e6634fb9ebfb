package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/cache"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/mailer"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	credentials []models.Credential
	listErr     error
}

func (f *fakeStore) GetCredential(locationID string) (*models.Credential, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) ListCredentials() ([]models.Credential, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.credentials, nil
}

func (f *fakeStore) InsertCredential(cred *models.Credential) error { return nil }

func (f *fakeStore) UpdateTokenPair(locationID, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (f *fakeStore) UpdateReceiverEmails(locationID string, emails models.EmailList) error {
	return nil
}

func (f *fakeStore) DeleteCredential(locationID string) error { return nil }

type fakeInventory struct {
	summaries map[string]*models.InventorySummary
	errs      map[string]error
}

func (f *fakeInventory) QuerySummary(ctx context.Context, locationID string) (*models.InventorySummary, error) {
	if err, ok := f.errs[locationID]; ok {
		return nil, err
	}
	return f.summaries[locationID], nil
}

type fakeSender struct {
	requests []mailer.BulkRequest
	err      error
}

func (f *fakeSender) SendBulk(ctx context.Context, req mailer.BulkRequest) (*mailer.BulkResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	results := make([]mailer.RecipientResult, 0, len(req.ReceiverEmails))
	for _, email := range req.ReceiverEmails {
		results = append(results, mailer.RecipientResult{Email: email, Success: true})
	}
	return &mailer.BulkResult{Results: results, TotalSent: len(results)}, nil
}

func newTestNotifier(
	credStore *fakeStore,
	inventory *fakeInventory,
	sender *fakeSender,
) *BatchNotifier {
	cfg := &config.Config{
		SenderEmail:  "alerts@example.com",
		EmailSubject: "Out of Stock Alert",
		ReportTTL:    time.Hour,
	}
	reports := cache.NewMemoryCache[*RunReport]()
	return NewBatchNotifier(credStore, inventory, sender, reports, cfg, metrics.NewNoopMetrics())
}

func summaryWithStock(locationID string, outOfStock int, names ...string) *models.InventorySummary {
	return &models.InventorySummary{
		LocationID:      locationID,
		TotalItems:      outOfStock + 5,
		ItemsOutOfStock: outOfStock,
		OutOfStockNames: names,
	}
}

func TestProcessAllClientsMixedOutcomes(t *testing.T) {
	credStore := &fakeStore{
		credentials: []models.Credential{
			{LocationID: "loc-a", ReceiverEmails: models.EmailList{}},
			{LocationID: "loc-b", ReceiverEmails: models.EmailList{"b@example.com"}},
			{LocationID: "loc-c", ReceiverEmails: models.EmailList{"c@example.com"}},
		},
	}
	inventory := &fakeInventory{
		summaries: map[string]*models.InventorySummary{
			"loc-b": summaryWithStock("loc-b", 0),
			"loc-c": summaryWithStock("loc-c", 2, "Shirt - Large", "Poster - A2"),
		},
	}
	sender := &fakeSender{}

	report, err := newTestNotifier(credStore, inventory, sender).
		ProcessAllClients(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, report.ProcessedLocations)
	assert.Equal(t, 1, report.EmailsSent)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.LocationsWithoutEmails)
	assert.Equal(t, 1, report.LocationsWithoutStock)
	assert.NotEmpty(t, report.RunID)

	require.Len(t, sender.requests, 1)
	assert.Equal(t, []string{"c@example.com"}, sender.requests[0].ReceiverEmails)
	assert.Contains(t, sender.requests[0].HTMLContent, "Shirt - Large")
	assert.Contains(t, sender.requests[0].HTMLContent, "Poster - A2")
}

func TestProcessAllClientsIsolatesLocationFailure(t *testing.T) {
	credStore := &fakeStore{
		credentials: []models.Credential{
			{LocationID: "loc-broken", ReceiverEmails: models.EmailList{"x@example.com"}},
			{LocationID: "loc-ok", ReceiverEmails: models.EmailList{"ok@example.com"}},
		},
	}
	inventory := &fakeInventory{
		summaries: map[string]*models.InventorySummary{
			"loc-ok": summaryWithStock("loc-ok", 1, "Mug"),
		},
		errs: map[string]error{
			"loc-broken": errors.New("inventory API returned HTTP 500"),
		},
	}
	sender := &fakeSender{}

	report, err := newTestNotifier(credStore, inventory, sender).
		ProcessAllClients(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.ProcessedLocations)
	assert.Equal(t, 1, report.EmailsSent)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "loc-broken", report.Errors[0].LocationID)
	assert.Contains(t, report.Errors[0].Error, "HTTP 500")
}

func TestProcessAllClientsListFailureAborts(t *testing.T) {
	credStore := &fakeStore{listErr: errors.New("database locked")}
	sender := &fakeSender{}

	report, err := newTestNotifier(credStore, &fakeInventory{}, sender).
		ProcessAllClients(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "failed to list credentials")
	assert.Empty(t, sender.requests)
}

func TestProcessAllClientsSendFailureRecorded(t *testing.T) {
	credStore := &fakeStore{
		credentials: []models.Credential{
			{LocationID: "loc-a", ReceiverEmails: models.EmailList{"a@example.com"}},
		},
	}
	inventory := &fakeInventory{
		summaries: map[string]*models.InventorySummary{
			"loc-a": summaryWithStock("loc-a", 1, "Mug"),
		},
	}
	sender := &fakeSender{err: errors.New("transport unreachable")}

	report, err := newTestNotifier(credStore, inventory, sender).
		ProcessAllClients(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.EmailsSent)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "transport unreachable")
}

func TestProcessAllClientsEmptyStore(t *testing.T) {
	report, err := newTestNotifier(&fakeStore{}, &fakeInventory{}, &fakeSender{}).
		ProcessAllClients(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.ProcessedLocations)
	assert.Empty(t, report.Errors)
}

func TestLastReportRoundTrip(t *testing.T) {
	n := newTestNotifier(&fakeStore{}, &fakeInventory{}, &fakeSender{})

	_, err := n.LastReport(context.Background())
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	report, err := n.ProcessAllClients(context.Background())
	require.NoError(t, err)

	got, err := n.LastReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, got.RunID)
}

func TestBuildAlertBodyEscapesNames(t *testing.T) {
	body := BuildAlertBody(summaryWithStock("loc-a", 1, "T-Shirt <XL>"))

	assert.Contains(t, body, "T-Shirt &lt;XL&gt;")
	assert.Contains(t, body, "loc-a")
}
