package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/cache"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/mailer"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/notifier"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInventory struct {
	summaries map[string]*models.InventorySummary
}

func (s *stubInventory) QuerySummary(ctx context.Context, locationID string) (*models.InventorySummary, error) {
	if summary, ok := s.summaries[locationID]; ok {
		return summary, nil
	}
	return nil, errors.New("inventory unavailable")
}

type stubSender struct{}

func (stubSender) SendBulk(ctx context.Context, req mailer.BulkRequest) (*mailer.BulkResult, error) {
	return &mailer.BulkResult{TotalSent: len(req.ReceiverEmails)}, nil
}

func newNotifyRouter(t *testing.T, inventory *stubInventory) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{
		SenderEmail:  "alerts@example.com",
		EmailSubject: "Out of Stock Alert",
		ReportTTL:    time.Hour,
	}
	n := notifier.NewBatchNotifier(
		s,
		inventory,
		stubSender{},
		cache.NewMemoryCache[*notifier.RunReport](),
		cfg,
		metrics.NewNoopMetrics(),
	)

	h := NewNotifyHandler(n)
	r := gin.New()
	r.POST("/api/notify/run", h.Run)
	r.GET("/api/notify/last-run", h.LastReport)
	return r, s
}

func TestNotifyRunEndpoint(t *testing.T) {
	inventory := &stubInventory{
		summaries: map[string]*models.InventorySummary{
			"loc-1": {
				LocationID:      "loc-1",
				TotalItems:      3,
				ItemsOutOfStock: 1,
				OutOfStockNames: []string{"Mug"},
			},
		},
	}
	r, s := newNotifyRouter(t, inventory)

	require.NoError(t, s.InsertCredential(&models.Credential{
		LocationID:     "loc-1",
		AccessToken:    "access",
		RefreshToken:   "refresh",
		ExpiresAt:      time.Now().Add(time.Hour),
		ReceiverEmails: models.EmailList{"owner@example.com"},
	}))

	w := doJSON(r, http.MethodPost, "/api/notify/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report notifier.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.ProcessedLocations)
	assert.Equal(t, 1, report.EmailsSent)
	assert.Empty(t, report.Errors)
}

func TestNotifyLastRunEndpoint(t *testing.T) {
	r, _ := newNotifyRouter(t, &stubInventory{})

	w := doJSON(r, http.MethodGet, "/api/notify/last-run", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_RUN_REPORT")

	w = doJSON(r, http.MethodPost, "/api/notify/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/notify/last-run", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report notifier.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)
}
