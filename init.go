package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
	"github.com/agservizi/carrierbridge/pkg/brt"
)

// runtime bundles what every command needs: configuration, logging,
// metrics, and (when an OTLP endpoint is configured) tracing.
type runtime struct {
	cfg     *config.Config
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	shutdown func(context.Context) error
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: telemetry.NewMetrics(nil),
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		tracer, shutdown, err := telemetry.InitTracer(ctx, endpoint, "carrierbridge", version)
		if err != nil {
			return nil, err
		}
		rt.tracer = tracer
		rt.shutdown = shutdown
	}
	return rt, nil
}

func (r *runtime) close(ctx context.Context) {
	if r.shutdown != nil {
		_ = r.shutdown(ctx)
	}
	_ = r.logger.Sync()
}

func runTrack(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close(cmd.Context())

	service, err := brt.NewTrackingService(rt.cfg, rt.logger, rt.tracer, rt.metrics)
	if err != nil {
		return err
	}
	result, err := service.TrackingByParcelID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runPudo(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close(cmd.Context())

	flags := cmd.Flags()
	criteria := brt.PudoSearchCriteria{}
	criteria.ZIPCode, _ = flags.GetString("zip")
	criteria.City, _ = flags.GetString("city")
	criteria.CountryCode, _ = flags.GetString("country")
	criteria.Latitude, _ = flags.GetString("lat")
	criteria.Longitude, _ = flags.GetString("lng")
	criteria.MaxResults, _ = flags.GetInt("max")

	service, err := brt.NewPudoService(rt.cfg, rt.logger, rt.tracer, rt.metrics)
	if err != nil {
		return err
	}
	results, err := service.Search(cmd.Context(), criteria)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runRoute(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close(cmd.Context())

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var input brt.ShipmentInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	service, err := brt.NewShipmentService(rt.cfg, rt.logger, rt.tracer, rt.metrics)
	if err != nil {
		return err
	}
	quote, err := service.GetRoutingQuote(cmd.Context(), &input)
	if err != nil {
		return err
	}
	return printJSON(quote)
}

func runManifest(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close(cmd.Context())

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var shipments []brt.ManifestShipment
	if err := json.Unmarshal(raw, &shipments); err != nil {
		return err
	}

	service, err := brt.NewOfficialManifestService(rt.cfg, rt.logger, rt.tracer, rt.metrics)
	if err != nil {
		return err
	}
	manifest, err := service.Request(cmd.Context(), shipments)
	if err != nil {
		return err
	}
	return printJSON(manifest)
}
