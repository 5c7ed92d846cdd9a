package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/report-sync/internal/config"
	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/realtime"
	"github.com/MKhiriev/report-sync/internal/utils"
	"github.com/MKhiriev/report-sync/models"
)

type httpStatusAdapter struct {
	client *utils.HTTPClient
	userID string

	logger *logger.Logger
}

// NewHTTPStatusAdapter constructs the HTTP implementation of
// [StatusAdapter]. The server URL may omit the scheme, in which case http is
// assumed.
//
// Returns an error if cfg.ServerURL is empty or cannot be parsed as a URL.
func NewHTTPStatusAdapter(cfg config.MonitorConfig, logger *logger.Logger) (StatusAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	return &httpStatusAdapter{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		userID: strings.TrimSpace(cfg.UserID),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpStatusAdapter) Status(ctx context.Context) (models.SyncStatus, error) {
	var status models.SyncStatus

	resp, err := h.request(ctx).
		SetResult(&status).
		Get("/api/sync/status")
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("status request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncStatus{}, err
	}

	return status, nil
}

func (h *httpStatusAdapter) Version(ctx context.Context) (string, error) {
	var version models.VersionResponse

	resp, err := h.request(ctx).
		SetResult(&version).
		Get("/api/version")
	if err != nil {
		return "", fmt.Errorf("version request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return version.Version, nil
}

func (h *httpStatusAdapter) DetectExternalChanges(ctx context.Context) ([]models.SyncEvent, error) {
	var changes models.ExternalChangesResponse

	resp, err := h.request(ctx).
		SetResult(&changes).
		Post("/api/sync/external")
	if err != nil {
		return nil, fmt.Errorf("external changes request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	h.logger.Debug().
		Str("func", "httpStatusAdapter.DetectExternalChanges").
		Int("changes", changes.Length).
		Msg("external change detection finished")
	return changes.Changes, nil
}

func (h *httpStatusAdapter) request(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if h.userID != "" {
		req.SetHeader(realtime.UserIDHeader, h.userID)
	}
	return req
}
