package brt

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agservizi/carrierbridge/internal/config"
)

// refreshConcurrency bounds parallel tracking calls per batch.
const refreshConcurrency = 4

// ParcelSource supplies the parcels whose stored status has gone stale and
// receives the refreshed results. Implemented by the booking persistence
// layer, outside this package.
type ParcelSource interface {
	// StaleParcels returns up to limit parcel IDs whose status is older
	// than staleness, skipping parcels older than maxAgeDays (0 means
	// unbounded) or whose status is not in statuses (empty means all).
	StaleParcels(ctx context.Context, staleness time.Duration, maxAgeDays int, statuses []string, limit int) ([]string, error)

	// StoreTracking persists a refreshed tracking result.
	StoreTracking(ctx context.Context, parcelID string, result *TrackingResult) error
}

// TrackingRefresher periodically refreshes stale parcel statuses through
// the tracking service. It is the only background component in this
// package; everything else stays strictly synchronous.
type TrackingRefresher struct {
	cfg      *config.Config
	tracking *TrackingService
	source   ParcelSource
	logger   *otelzap.Logger
}

// NewTrackingRefresher wires the refresher to a source and the tracking
// service.
func NewTrackingRefresher(cfg *config.Config, tracking *TrackingService, source ParcelSource, logger *otelzap.Logger) *TrackingRefresher {
	return &TrackingRefresher{cfg: cfg, tracking: tracking, source: source, logger: logger}
}

// Run ticks at the configured interval until the context is cancelled.
func (r *TrackingRefresher) Run(ctx context.Context) error {
	interval := r.cfg.TrackingInterval()
	r.logger.Info("Starting tracking refresher",
		zap.Duration("interval", interval),
		zap.Int("batch_size", r.cfg.TrackingBatchSize()),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RefreshOnce(ctx); err != nil {
				r.logger.Error("Tracking refresh pass failed", zap.Error(err))
			}
		}
	}
}

// RefreshOnce refreshes one batch of stale parcels and returns how many
// were updated. Individual parcel failures are logged and skipped; only a
// failing source aborts the pass.
func (r *TrackingRefresher) RefreshOnce(ctx context.Context) (int, error) {
	parcels, err := r.source.StaleParcels(ctx,
		r.cfg.TrackingStaleness(),
		r.cfg.TrackingMaxAgeDays(),
		r.cfg.TrackingStatusFilter(),
		r.cfg.TrackingBatchSize(),
	)
	if err != nil {
		return 0, err
	}
	if len(parcels) == 0 {
		return 0, nil
	}

	var updated int
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	results := make([]*TrackingResult, len(parcels))
	for i, parcelID := range parcels {
		i, parcelID := i, parcelID
		g.Go(func() error {
			result, err := r.tracking.TrackingByParcelID(ctx, parcelID)
			if err != nil {
				r.logger.Warn("Skipping parcel refresh",
					zap.String("parcel_id", parcelID),
					zap.Error(err),
				)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return updated, err
	}

	for i, result := range results {
		if result == nil {
			continue
		}
		if err := r.source.StoreTracking(ctx, parcels[i], result); err != nil {
			r.logger.Error("Storing refreshed tracking failed",
				zap.String("parcel_id", parcels[i]),
				zap.Error(err),
			)
			continue
		}
		updated++
	}

	r.logger.Info("Tracking refresh pass complete",
		zap.Int("candidates", len(parcels)),
		zap.Int("updated", updated),
	)
	return updated, nil
}
