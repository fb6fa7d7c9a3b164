package brt

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
)

// TrackingEvent is one normalized tracking list entry.
type TrackingEvent struct {
	Date        string
	Time        string
	Branch      string
	Code        string
	Description string
}

// TrackingResult is the normalized parcel status.
type TrackingResult struct {
	ParcelID     string
	Status       string
	DeliveryNote string
	Events       []TrackingEvent
}

// Known English carrier phrases, rendered in the caller's locale.
var trackingTranslations = map[string]string{
	"SHIPMENT NOT FOUND": "spedizione non trovata",
	"PARCEL NOT FOUND":   "collo non trovato",
	"WRONG PARCEL ID":    "identificativo collo non valido",
	"NO DATA FOUND":      "nessun dato disponibile",
}

// TrackingService fetches parcel tracking status. The tracking API uses
// plain userID/password headers instead of an API key; that is the
// carrier's convention, not ours.
type TrackingService struct {
	cfg       *config.Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// NewTrackingService builds the service on the production HTTP transport.
func NewTrackingService(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*TrackingService, error) {
	transport, err := NewHTTPTransport(HTTPTransportConfig{
		BaseURL:      cfg.RESTBaseURL(),
		API:          "tracking",
		Timeout:      cfg.RequestTimeout(),
		CABundlePath: cfg.CABundlePath(),
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}
	return NewTrackingServiceWithTransport(cfg, transport, logger, tracer), nil
}

// NewTrackingServiceWithTransport injects a custom transport.
func NewTrackingServiceWithTransport(cfg *config.Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *TrackingService {
	return &TrackingService{cfg: cfg, transport: transport, logger: logger, tracer: tracer}
}

// TrackingByParcelID fetches the status of one parcel.
func (s *TrackingService) TrackingByParcelID(ctx context.Context, parcelID string) (*TrackingResult, error) {
	const op = "parcel tracking"

	parcelID = strings.TrimSpace(parcelID)
	if parcelID == "" {
		return nil, newIntegrationError(op, "a parcel ID is required")
	}

	user, err := s.cfg.AccountUserID()
	if err != nil {
		return nil, err
	}
	password, err := s.cfg.AccountPassword()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fetching carrier tracking", zap.String("parcel_id", parcelID))

	header := http.Header{}
	header.Set("userID", user)
	header.Set("password", password)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/tracking/parcelID/" + url.PathEscape(parcelID),
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		s.logger.Error("Carrier tracking failed",
			zap.String("parcel_id", parcelID),
			zap.Int("status", res.StatusCode),
		)
		return nil, integrationError(op, res)
	}

	payload, ok := unwrapTrackingEnvelope(res.Body)
	if !ok {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}

	if em := executionMessageFromMap(payload); em != nil && em.Code < 0 {
		return nil, newIntegrationError(op, "%s", localizeTrackingMessage(em))
	}

	return normalizeTracking(parcelID, payload), nil
}

// unwrapTrackingEnvelope tries the known envelope keys in priority order,
// then falls back to recognizing a bare tracking object by its fields.
func unwrapTrackingEnvelope(body any) (map[string]any, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}

	for _, key := range []string{"parcelIDResult", "parcelIDResults", "ttParcelIdResponse"} {
		switch inner := obj[key].(type) {
		case map[string]any:
			return inner, true
		case []any:
			if len(inner) > 0 {
				if first, ok := inner[0].(map[string]any); ok {
					return first, true
				}
			}
		}
	}

	for _, marker := range []string{"parcelID", "trackingList", "bolla", "executionMessage"} {
		if _, ok := obj[marker]; ok {
			return obj, true
		}
	}
	return nil, false
}

// localizeTrackingMessage translates the small set of known English
// carrier phrases; everything else passes through unchanged.
func localizeTrackingMessage(em *ExecutionMessage) string {
	desc := strings.ToUpper(strings.TrimSpace(em.CodeDesc))
	if translated, ok := trackingTranslations[desc]; ok {
		return translated
	}
	return em.Text()
}

// normalizeTracking flattens the vendor tracking object into one result
// shape, tolerating both English and Italian field names.
func normalizeTracking(parcelID string, obj map[string]any) *TrackingResult {
	result := &TrackingResult{
		ParcelID:     firstNonEmpty(stringField(obj, "parcelID", "parcelId"), parcelID),
		Status:       stringField(obj, "status", "esitoFinale", "statoSpedizione", "descrizioneStato"),
		DeliveryNote: stringField(obj, "bolla", "deliveryNote"),
	}

	list, ok := obj["trackingList"].([]any)
	if !ok {
		list, _ = obj["eventi"].([]any)
	}
	for _, item := range list {
		event, ok := item.(map[string]any)
		if !ok {
			continue
		}
		result.Events = append(result.Events, TrackingEvent{
			Date:        stringField(event, "date", "data"),
			Time:        stringField(event, "time", "ora"),
			Branch:      stringField(event, "branch", "filiale"),
			Code:        stringField(event, "code", "codice"),
			Description: stringField(event, "description", "descrizione", "evento"),
		})
	}
	if result.Status == "" && len(result.Events) > 0 {
		result.Status = result.Events[len(result.Events)-1].Description
	}
	return result
}
