package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/report-sync/internal/logger"
	"github.com/MKhiriev/report-sync/internal/store"
	"github.com/MKhiriev/report-sync/internal/validators"
	"github.com/MKhiriev/report-sync/models"
)

type recordService struct {
	records store.RecordStore

	logger *logger.Logger
}

func NewRecordService(records store.RecordStore, logger *logger.Logger) RecordService {
	return &recordService{
		records: records,
		logger:  logger,
	}
}

func (r *recordService) GetRecord(ctx context.Context, recordID string) (models.Record, error) {
	if recordID == "" {
		return models.Record{}, validators.ErrInvalidRecordID
	}

	rec, err := r.records.Get(ctx, recordID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return models.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if err != nil {
		r.logger.Err(err).Str("func", "recordService.GetRecord").Str("record_id", recordID).Msg("failed to read record")
		return models.Record{}, err
	}
	return rec, nil
}

func (r *recordService) GetPairing(ctx context.Context, pairingKey string) ([]models.Record, error) {
	if pairingKey == "" {
		return nil, ErrEmptyPairingKey
	}

	recs, err := r.records.ListByPairingKey(ctx, pairingKey)
	if err != nil {
		r.logger.Err(err).Str("func", "recordService.GetPairing").Str("pairing_key", pairingKey).Msg("failed to list pairing")
		return nil, err
	}
	return recs, nil
}
