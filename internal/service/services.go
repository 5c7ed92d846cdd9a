package service

import (
	"context"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/store"
	"github.com/MKhiriev/report-sync/internal/workers"
)

type Services struct {
	*Components

	SyncService    SyncService
	RecordService  RecordService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, cfg config.StructuredConfig, version string, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(version, logger)
	if err != nil {
		return nil, err
	}

	components := NewComponents(cfg, storages.Audit, logger)

	return &Services{
		Components:     components,
		SyncService:    NewSyncService(storages.Records, components, cfg, storages.Audit, logger.WithComponent("sync")),
		RecordService:  NewRecordService(storages.Records, logger),
		AppInfoService: appInfo,
	}, nil
}

// Workers returns every background loop of the sync core.
func (s *Services) Workers() []workers.Worker {
	return append(s.Components.Workers(),
		workers.Func(s.SyncService.RunBufferSweeper),
		workers.Func(s.SyncService.RunExternalChanges),
	)
}

// Shutdown closes every live connection without keeping offline backlogs.
func (s *Services) Shutdown(ctx context.Context) {
	s.Connections.CloseAll(ctx, realtime.ReasonShutdown)
}
