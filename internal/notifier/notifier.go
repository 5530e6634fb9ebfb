package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/cache"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/mailer"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"

	"github.com/google/uuid"
)

// LastRunKey is the cache key holding the most recent run report.
const LastRunKey = "notifier:last-run"

// SummaryQuerier produces an inventory summary for one location.
type SummaryQuerier interface {
	QuerySummary(ctx context.Context, locationID string) (*models.InventorySummary, error)
}

// LocationError records a per-location failure without aborting the run.
type LocationError struct {
	LocationID string `json:"locationId"`
	Error      string `json:"error"`
}

// RunReport summarizes one sweep over every stored location.
type RunReport struct {
	RunID                  string          `json:"runId"`
	StartedAt              time.Time       `json:"startedAt"`
	FinishedAt             time.Time       `json:"finishedAt"`
	ProcessedLocations     int             `json:"processedLocations"`
	EmailsSent             int             `json:"emailsSent"`
	Errors                 []LocationError `json:"errors"`
	LocationsWithoutEmails int             `json:"locationsWithoutEmails"`
	LocationsWithoutStock  int             `json:"locationsWithoutStock"`
}

// BatchNotifier walks every stored credential, queries inventory, and
// emails the configured recipients for locations with out-of-stock items.
type BatchNotifier struct {
	store     store.CredentialStore
	inventory SummaryQuerier
	sender    mailer.Sender
	reports   cache.Cache[*RunReport]
	config    *config.Config
	metrics   metrics.Recorder
}

func NewBatchNotifier(
	credStore store.CredentialStore,
	inventory SummaryQuerier,
	sender mailer.Sender,
	reports cache.Cache[*RunReport],
	cfg *config.Config,
	m metrics.Recorder,
) *BatchNotifier {
	return &BatchNotifier{
		store:     credStore,
		inventory: inventory,
		sender:    sender,
		reports:   reports,
		config:    cfg,
		metrics:   m,
	}
}

// ProcessAllClients runs one sweep. Listing failures abort the run with
// an error; everything that goes wrong for a single location lands in
// the report's Errors slice and the sweep continues.
func (b *BatchNotifier) ProcessAllClients(ctx context.Context) (*RunReport, error) {
	start := time.Now()

	credentials, err := b.store.ListCredentials()
	if err != nil {
		b.metrics.RecordBatchRun(metrics.RunResultAborted, time.Since(start))
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Errors:    []LocationError{},
	}

	log.Printf("[Notifier] Run %s started locations=%d", report.RunID, len(credentials))

	for _, cred := range credentials {
		report.ProcessedLocations++
		b.processLocation(ctx, cred, report)
	}

	report.FinishedAt = time.Now()
	b.storeReport(ctx, report)

	result := metrics.RunResultSuccess
	if len(report.Errors) > 0 {
		result = metrics.RunResultPartial
	}
	b.metrics.RecordBatchRun(result, time.Since(start))

	log.Printf(
		"[Notifier] Run %s finished processed=%d sent=%d errors=%d noEmails=%d noStockIssues=%d",
		report.RunID,
		report.ProcessedLocations,
		report.EmailsSent,
		len(report.Errors),
		report.LocationsWithoutEmails,
		report.LocationsWithoutStock,
	)

	return report, nil
}

func (b *BatchNotifier) processLocation(
	ctx context.Context,
	cred models.Credential,
	report *RunReport,
) {
	if len(cred.ReceiverEmails) == 0 {
		report.LocationsWithoutEmails++
		b.metrics.RecordLocationProcessed(metrics.LocationOutcomeNoEmails)
		log.Printf("[Notifier] Skipping location=%s: no receiver emails", cred.LocationID)
		return
	}

	summary, err := b.inventory.QuerySummary(ctx, cred.LocationID)
	if err != nil {
		report.Errors = append(report.Errors, LocationError{
			LocationID: cred.LocationID,
			Error:      err.Error(),
		})
		b.metrics.RecordLocationProcessed(metrics.LocationOutcomeError)
		log.Printf("[Notifier] Location %s failed: %v", cred.LocationID, err)
		return
	}

	if summary.ItemsOutOfStock == 0 {
		report.LocationsWithoutStock++
		b.metrics.RecordLocationProcessed(metrics.LocationOutcomeNoStock)
		return
	}

	result, err := b.sender.SendBulk(ctx, mailer.BulkRequest{
		SenderEmail:    b.config.SenderEmail,
		ReceiverEmails: cred.ReceiverEmails,
		Subject:        b.config.EmailSubject,
		HTMLContent:    BuildAlertBody(summary),
	})
	if err != nil {
		report.Errors = append(report.Errors, LocationError{
			LocationID: cred.LocationID,
			Error:      fmt.Sprintf("failed to send alert: %v", err),
		})
		b.metrics.RecordLocationProcessed(metrics.LocationOutcomeError)
		return
	}

	report.EmailsSent += result.TotalSent
	b.metrics.RecordEmailsSent(result.TotalSent, result.TotalFailed)
	b.metrics.RecordLocationProcessed(metrics.LocationOutcomeNotified)

	log.Printf(
		"[Notifier] Location %s: %d out-of-stock items, emails sent=%d failed=%d",
		cred.LocationID,
		summary.ItemsOutOfStock,
		result.TotalSent,
		result.TotalFailed,
	)
}

func (b *BatchNotifier) storeReport(ctx context.Context, report *RunReport) {
	if b.reports == nil {
		return
	}
	if err := b.reports.Set(ctx, LastRunKey, report, b.config.ReportTTL); err != nil {
		log.Printf("[Notifier] Failed to cache run report %s: %v", report.RunID, err)
	}
}

// LastReport returns the most recent run report, or cache.ErrCacheMiss
// when no run has completed within the report TTL.
func (b *BatchNotifier) LastReport(ctx context.Context) (*RunReport, error) {
	if b.reports == nil {
		return nil, cache.ErrCacheMiss
	}
	return b.reports.Get(ctx, LastRunKey)
}
