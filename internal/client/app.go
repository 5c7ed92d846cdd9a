package client

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/report-sync/internal/adapter"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/tui"
)

const (
	probeBaseDelay  = 200 * time.Millisecond
	probeMaxDelay   = 2 * time.Second
	probeMaxRetries = 5
)

type App struct {
	adapter adapter.StatusAdapter
	ui      UI

	backoff func() retry.Backoff
	logger  *logger.Logger
}

func NewApp(statusAdapter adapter.StatusAdapter, ui UI, logger *logger.Logger) (*App, error) {
	if statusAdapter == nil || ui == nil {
		return nil, errors.New("monitor needs an adapter and a ui")
	}
	return &App{
		adapter: statusAdapter,
		ui:      ui,
		backoff: defaultBackoff,
		logger:  logger,
	}, nil
}

func defaultBackoff() retry.Backoff {
	b := retry.NewExponential(probeBaseDelay)
	b = retry.WithCappedDuration(probeMaxDelay, b)
	return retry.WithMaxRetries(probeMaxRetries, b)
}

// Run probes the server and shows the dashboard. An unreachable server is
// only a warning, the dashboard keeps polling and reports it.
func (a *App) Run(ctx context.Context) error {
	version, err := a.probe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn().Err(err).Str("func", "App.Run").Msg("server is not answering yet")
	} else {
		a.logger.Info().Str("server_version", version).Msg("connected to server")
	}

	err = a.ui.Run(ctx)
	if errors.Is(err, tui.ErrUserQuit) {
		return nil
	}
	return err
}

func (a *App) probe(ctx context.Context) (string, error) {
	var version string
	err := retry.Do(ctx, a.backoff(), func(ctx context.Context) error {
		v, err := a.adapter.Version(ctx)
		if err != nil {
			if errors.Is(err, adapter.ErrNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		version = v
		return nil
	})
	return version, err
}
