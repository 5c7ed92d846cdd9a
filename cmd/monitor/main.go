package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/report-sync/internal/adapter"
	"github.com/MKhiriev/report-sync/internal/client"
	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/tui"
	"github.com/MKhiriev/report-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	log := logger.NewFileLogger("report-sync-monitor", "report-sync-monitor.log")
	cfg, err := config.GetMonitorConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	statusAdapter, err := adapter.NewHTTPStatusAdapter(*cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create status adapter")
	}

	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	ui, err := tui.New(statusAdapter, cfg.RefreshInterval, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating ui")
	}

	app, err := client.NewApp(statusAdapter, ui, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init monitor app error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err = app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("monitor run error")
	}
}
