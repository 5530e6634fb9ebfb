package bootstrap

import (
	"context"
	"net/http"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/cache"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/inventory"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/mailer"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/metrics"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/notifier"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/services"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/store"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/token"

	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	ReportCache     cache.Cache[*notifier.RunReport]

	// Business layer
	CredentialService *services.CredentialService
	Refresher         *token.Refresher
	Inventory         *inventory.Service
	Mailer            *mailer.Client
	Notifier          *notifier.BatchNotifier

	// HTTP
	Router *gin.Engine
	Server *http.Server
}

// NewApplication initializes everything below the HTTP layer. Both the
// server and the one-shot notify sweep start here.
func NewApplication(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	if err := app.initializeInfrastructure(); err != nil {
		return nil, err
	}
	app.initializeBusinessLayer()

	return app, nil
}

// RunServer initializes the HTTP layer and blocks until shutdown.
func RunServer(cfg *config.Config) error {
	app, err := NewApplication(cfg)
	if err != nil {
		return err
	}

	app.initializeHTTPLayer()
	app.startWithGracefulShutdown()

	return nil
}

// RunNotify executes one batch sweep and returns its report. Intended
// for the notify subcommand driven by an external scheduler.
func RunNotify(ctx context.Context, cfg *config.Config) (*notifier.RunReport, error) {
	app, err := NewApplication(cfg)
	if err != nil {
		return nil, err
	}
	defer app.closeInfrastructure()

	return app.Notifier.ProcessAllClients(ctx)
}

// initializeInfrastructure sets up database, metrics, and the report cache
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)

	app.ReportCache, err = initializeReportCache(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.CredentialService = services.NewCredentialService(app.DB)
	app.Refresher = token.NewRefresher(app.DB, app.Config, app.MetricsRecorder)
	app.Inventory = inventory.NewService(app.Refresher, app.Config, app.MetricsRecorder)
	app.Mailer = mailer.NewClient(app.Config)
	app.Notifier = notifier.NewBatchNotifier(
		app.DB,
		app.Inventory,
		app.Mailer,
		app.ReportCache,
		app.Config,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.Router = setupRouter(app)
	app.Server = createHTTPServer(app.Config, app.Router)
}

func (app *Application) closeInfrastructure() {
	if app.ReportCache != nil {
		_ = app.ReportCache.Close()
	}
}
