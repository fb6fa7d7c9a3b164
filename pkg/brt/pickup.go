package brt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
)

const colreqsPath = "/colreqs"

// PickupOrder is one pickup request ("colreq") to be placed with the
// carrier.
type PickupOrder struct {
	CustomerCode    string `json:"customerCode,omitempty"`
	Depot           string `json:"depot,omitempty"`
	PickupDate      string `json:"pickupDate,omitempty"`
	ReadyTime       string `json:"readyTime,omitempty"`
	ClosingTime     string `json:"closingTime,omitempty"`
	CompanyName     string `json:"companyName,omitempty"`
	Address         string `json:"address,omitempty"`
	ZIPCode         string `json:"zipCode,omitempty"`
	City            string `json:"city,omitempty"`
	Province        string `json:"province,omitempty"`
	Country         string `json:"country,omitempty"`
	ContactName     string `json:"contactName,omitempty"`
	Telephone       string `json:"telephone,omitempty"`
	EMail           string `json:"email,omitempty"`
	NumberOfParcels int    `json:"numberOfParcels,omitempty"`
	TotalWeightKG   float64 `json:"totalWeightKG,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// PickupOrderResult is the per-item outcome of a batch creation.
type PickupOrderResult struct {
	ReservationNumber string
	Raw               map[string]any
}

// PickupOrderRecord is a stored pickup request as returned by the carrier.
type PickupOrderRecord struct {
	ReservationNumber string
	Status            string
	Raw               map[string]any
}

// PickupService manages pickup requests through the carrier's ORM API.
// Every operation needs the ORM API key (or the generic REST key as
// fallback) and fails before any network call when neither is set.
type PickupService struct {
	cfg       *config.Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// NewPickupService builds the service on the production HTTP transport.
func NewPickupService(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*PickupService, error) {
	transport, err := NewHTTPTransport(HTTPTransportConfig{
		BaseURL:      cfg.ORMBaseURL(),
		API:          "orm",
		Timeout:      cfg.RequestTimeout(),
		CABundlePath: cfg.CABundlePath(),
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}
	return NewPickupServiceWithTransport(cfg, transport, logger, tracer), nil
}

// NewPickupServiceWithTransport injects a custom transport.
func NewPickupServiceWithTransport(cfg *config.Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *PickupService {
	return &PickupService{cfg: cfg, transport: transport, logger: logger, tracer: tracer}
}

func (s *PickupService) authHeader() (http.Header, error) {
	key, err := s.cfg.ORMAPIKey()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("X-Api-Key", key)
	return header, nil
}

// DecodeOrderBatch parses a JSON pickup-order batch, enforcing the
// sequential-array contract before anything reaches the network. Booking
// forms occasionally submit keyed objects instead of arrays; those are
// rejected here.
func DecodeOrderBatch(raw []byte) ([]PickupOrder, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || !strings.HasPrefix(trimmed, "[") {
		return nil, newIntegrationError("create pickup orders", "pickup orders must be a sequential array")
	}
	var orders []PickupOrder
	if err := json.Unmarshal([]byte(trimmed), &orders); err != nil {
		return nil, newIntegrationError("create pickup orders", "pickup orders must be a sequential array")
	}
	return orders, nil
}

// CreateOrders places a batch of pickup requests. The carrier answers with
// a positional array; any item carrying a non-empty errors list fails the
// whole batch.
func (s *PickupService) CreateOrders(ctx context.Context, orders []PickupOrder) ([]PickupOrderResult, error) {
	const op = "create pickup orders"

	header, err := s.authHeader()
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, newIntegrationError(op, "at least one pickup order is required")
	}

	s.logger.Info("Creating carrier pickup orders", zap.Int("count", len(orders)))

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		Path:   colreqsPath,
		Body:   orders,
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		s.logger.Error("Carrier pickup order creation failed", zap.Int("status", res.StatusCode))
		return nil, integrationError(op, res)
	}

	items, ok := res.BodyArray()
	if !ok {
		return nil, newIntegrationError(op, "unexpected response shape from carrier: expected a sequential array")
	}

	results := make([]PickupOrderResult, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, newIntegrationError(op, "unexpected item shape at position %d", i)
		}
		if msg := messagesFromErrorList(obj["errors"]); msg != "" {
			return nil, newIntegrationError(op, "order %d rejected: %s", i, msg)
		}
		results = append(results, PickupOrderResult{
			ReservationNumber: stringField(obj, "reservationNumber", "reservationNumberAlpha"),
			Raw:               obj,
		})
	}
	return results, nil
}

// CancelOrder cancels a pickup request. The carrier signals success as a
// boolean, a "true"/"false" string, or no body at all; an entirely missing
// body counts as success, matching observed carrier behavior.
func (s *PickupService) CancelOrder(ctx context.Context, reservationNumber string) (bool, error) {
	const op = "cancel pickup order"

	header, err := s.authHeader()
	if err != nil {
		return false, err
	}
	reservationNumber = strings.TrimSpace(reservationNumber)
	if reservationNumber == "" {
		return false, newIntegrationError(op, "a reservation number is required")
	}

	s.logger.Info("Cancelling carrier pickup order", zap.String("reservation", reservationNumber))

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodDelete,
		Path:   colreqsPath + "/" + url.PathEscape(reservationNumber),
		Header: header,
	})
	if err != nil {
		return false, err
	}
	if !res.OK() {
		return false, integrationError(op, res)
	}

	ok, valid := coerceCarrierBool(res.Body)
	if !valid {
		return false, newIntegrationError(op, "unexpected response shape from carrier")
	}
	return ok, nil
}

// GetOrder fetches a stored pickup request.
func (s *PickupService) GetOrder(ctx context.Context, reservationNumber string) (*PickupOrderRecord, error) {
	const op = "get pickup order"

	header, err := s.authHeader()
	if err != nil {
		return nil, err
	}
	reservationNumber = strings.TrimSpace(reservationNumber)
	if reservationNumber == "" {
		return nil, newIntegrationError(op, "a reservation number is required")
	}

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   colreqsPath + "/" + url.PathEscape(reservationNumber),
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, integrationError(op, res)
	}

	obj, ok := res.BodyObject()
	if !ok {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}
	return pickupRecordFromObject(reservationNumber, obj), nil
}

// UpdateOrder replaces a stored pickup request. The carrier answers either
// with the updated record or with a bare success flag.
func (s *PickupService) UpdateOrder(ctx context.Context, reservationNumber string, order PickupOrder) (*PickupOrderRecord, error) {
	const op = "update pickup order"

	header, err := s.authHeader()
	if err != nil {
		return nil, err
	}
	reservationNumber = strings.TrimSpace(reservationNumber)
	if reservationNumber == "" {
		return nil, newIntegrationError(op, "a reservation number is required")
	}

	s.logger.Info("Updating carrier pickup order", zap.String("reservation", reservationNumber))

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPut,
		Path:   colreqsPath + "/" + url.PathEscape(reservationNumber),
		Body:   order,
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, integrationError(op, res)
	}

	if obj, ok := res.BodyObject(); ok {
		if msg := messagesFromErrorList(obj["errors"]); msg != "" {
			return nil, newIntegrationError(op, "%s", msg)
		}
		return pickupRecordFromObject(reservationNumber, obj), nil
	}
	if ok, valid := coerceCarrierBool(res.Body); valid && ok {
		return &PickupOrderRecord{ReservationNumber: reservationNumber}, nil
	}
	return nil, newIntegrationError(op, "unexpected response shape from carrier")
}

func pickupRecordFromObject(reservationNumber string, obj map[string]any) *PickupOrderRecord {
	return &PickupOrderRecord{
		ReservationNumber: firstNonEmpty(stringField(obj, "reservationNumber"), reservationNumber),
		Status:            stringField(obj, "status", "state"),
		Raw:               obj,
	}
}

// coerceCarrierBool decodes the carrier's mixed boolean encodings: a real
// boolean, a "true"/"false" string, or a missing body (which defaults to
// true). The second return reports whether the shape was recognized.
func coerceCarrierBool(body any) (value bool, valid bool) {
	switch v := body.(type) {
	case nil:
		return true, true
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
