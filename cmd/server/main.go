package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/handler"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/server"
	"github.com/MKhiriev/report-sync/internal/service"
	"github.com/MKhiriev/report-sync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("report-sync-server")
	cfg, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if err = logger.SetLevel(cfg.Log.Level); err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	storages, err := store.NewStorages(context.Background(), cfg.Storage, log.WithComponent("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer func() {
		if err := storages.Close(); err != nil {
			log.Err(err).Msg("error closing storages")
		}
	}()

	services, err := service.NewServices(storages, *cfg, buildVersion, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, services, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
