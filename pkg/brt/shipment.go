// Package brt is a client library for the BRT carrier REST services:
// shipment lifecycle, cost routing, parcel tracking, pickup orders, PUDO
// search, and manifest retrieval. Carrier payload quirks stay inside this
// package; callers see typed inputs, typed results, and a single
// integration error type.
package brt

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
)

// Shipment endpoints. Confirm reuses the create path with PUT, per the
// carrier contract.
const (
	shipmentPath = "/shipments/shipment"
	updatePath   = "/shipments/update"
	deletePath   = "/shipments/delete"
)

// ShipmentService drives the shipment lifecycle: create, routing quote,
// confirm, update, delete, and label reprint. It owns one transport bound
// to the REST base URL.
type ShipmentService struct {
	cfg       *config.Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// NewShipmentService builds the service on the production HTTP transport.
func NewShipmentService(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*ShipmentService, error) {
	header := http.Header{}
	if key, err := cfg.RESTAPIKey(); err == nil {
		header.Set("X-API-Key", key)
	}
	transport, err := NewHTTPTransport(HTTPTransportConfig{
		BaseURL:      cfg.RESTBaseURL(),
		API:          "rest",
		Header:       header,
		Timeout:      cfg.RequestTimeout(),
		CABundlePath: cfg.CABundlePath(),
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}
	return NewShipmentServiceWithTransport(cfg, transport, logger, tracer), nil
}

// NewShipmentServiceWithTransport injects a custom transport. Used by
// tests and by callers that stub the carrier.
func NewShipmentServiceWithTransport(cfg *config.Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *ShipmentService {
	return &ShipmentService{cfg: cfg, transport: transport, logger: logger, tracer: tracer}
}

// account assembles the credential block, failing on missing credentials
// at first use.
func (s *ShipmentService) account() (accountBlock, error) {
	user, err := s.cfg.AccountUserID()
	if err != nil {
		return accountBlock{}, err
	}
	password, err := s.cfg.AccountPassword()
	if err != nil {
		return accountBlock{}, err
	}
	return accountBlock{UserID: user, Password: password}, nil
}

// CreateShipment registers a new shipment with the carrier.
func (s *ShipmentService) CreateShipment(ctx context.Context, input *ShipmentInput) (*ShipmentResult, error) {
	const op = "create shipment"

	account, err := s.account()
	if err != nil {
		return nil, err
	}
	data, err := s.buildCreateData(input, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Creating carrier shipment",
		zap.String("network", data.Network),
		zap.String("service_type", data.ServiceType),
		zap.Int64("numeric_reference", data.NumericSenderReference),
		zap.Int("parcels", data.NumberOfParcels),
	)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		Path:   shipmentPath,
		Body:   shipmentPayload{Account: account, Data: data},
	})
	if err != nil {
		return nil, err
	}

	var envelope createEnvelope
	return s.shipmentResult(op, res, &envelope, func() *ShipmentResult { return envelope.CreateResponse })
}

// GetRoutingQuote asks the carrier which route and pricing a shipment
// would take, without creating anything.
func (s *ShipmentService) GetRoutingQuote(ctx context.Context, input *ShipmentInput) (*RoutingResult, error) {
	const op = "routing quote"

	account, err := s.account()
	if err != nil {
		return nil, err
	}
	data, err := s.buildCreateData(input, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Requesting carrier routing quote",
		zap.String("network", data.Network),
		zap.String("zip", data.ConsigneeZIPCode),
		zap.String("country", data.ConsigneeCountry),
	)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		Path:   s.cfg.RoutingEndpoint(),
		Body:   shipmentPayload{Account: account, Data: data},
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		s.logger.Error("Carrier routing quote failed", zap.Int("status", res.StatusCode))
		return nil, integrationError(op, res)
	}

	var envelope routingEnvelope
	if err := json.Unmarshal([]byte(res.RawBody), &envelope); err != nil || envelope.RoutingResponse == nil {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}
	result := envelope.RoutingResponse
	if em := result.ExecutionMessage; em != nil && em.Code < 0 {
		return nil, newIntegrationError(op, "%s", em.Text())
	}
	return result, nil
}

// ConfirmInput identifies the shipment to confirm.
type ConfirmInput struct {
	NumericSenderReference int64
	AlphanumericReference  string
	CMRCode                string
}

// ConfirmOptions tunes label generation on confirm.
type ConfirmOptions struct {
	Label      *LabelOptions
	ForceLabel bool
}

// ConfirmShipment finalizes a created shipment. The numeric sender
// reference must be positive; the alphanumeric one is silently truncated
// to the 15 characters the carrier accepts.
func (s *ShipmentService) ConfirmShipment(ctx context.Context, input ConfirmInput, opts *ConfirmOptions) (*ShipmentResult, error) {
	const op = "confirm shipment"

	if input.NumericSenderReference <= 0 {
		return nil, newIntegrationError(op, "a positive numeric sender reference is required")
	}
	account, err := s.account()
	if err != nil {
		return nil, err
	}

	confirm := &confirmData{
		NumericSenderReference: input.NumericSenderReference,
		AlphanumericReference:  truncate(input.AlphanumericReference, 15),
		CMRCode:                input.CMRCode,
	}
	if opts != nil && (opts.Label != nil || opts.ForceLabel) {
		confirm.IsLabelRequired = "1"
		confirm.LabelParameters = s.labelBlock(opts.Label)
	}

	s.logger.Info("Confirming carrier shipment",
		zap.Int64("numeric_reference", input.NumericSenderReference),
		zap.Bool("label_requested", confirm.LabelParameters != nil),
	)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPut,
		Path:   shipmentPath,
		Body:   shipmentPayload{Account: account, Confirm: confirm},
	})
	if err != nil {
		return nil, err
	}

	var envelope confirmEnvelope
	return s.shipmentResult(op, res, &envelope, func() *ShipmentResult { return envelope.ConfirmResponse })
}

// OriginalReferences identifies the shipment an update replaces.
type OriginalReferences struct {
	NumericSenderReference int64
	AlphanumericReference  string
}

// UpdateShipment replaces the attributes of an existing shipment, carrying
// the original references alongside the freshly built data block.
func (s *ShipmentService) UpdateShipment(ctx context.Context, original OriginalReferences, input *ShipmentInput) (*ShipmentResult, error) {
	const op = "update shipment"

	if original.NumericSenderReference <= 0 {
		return nil, newIntegrationError(op, "a positive original numeric sender reference is required")
	}
	account, err := s.account()
	if err != nil {
		return nil, err
	}
	data, err := s.buildCreateData(input, true)
	if err != nil {
		return nil, err
	}
	data.OriginalNumericReference = original.NumericSenderReference
	data.OriginalAlphanumericReference = truncate(original.AlphanumericReference, 15)

	s.logger.Info("Updating carrier shipment",
		zap.Int64("original_numeric_reference", original.NumericSenderReference),
	)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPut,
		Path:   updatePath,
		Body:   shipmentPayload{Account: account, Data: data},
	})
	if err != nil {
		return nil, err
	}

	var envelope updateEnvelope
	return s.shipmentResult(op, res, &envelope, func() *ShipmentResult { return envelope.UpdateResponse })
}

// DeleteInput identifies the shipment to delete.
type DeleteInput struct {
	NumericSenderReference int64
	AlphanumericReference  string
}

// DeleteShipment removes a not-yet-collected shipment.
func (s *ShipmentService) DeleteShipment(ctx context.Context, input DeleteInput) error {
	const op = "delete shipment"

	if input.NumericSenderReference <= 0 {
		return newIntegrationError(op, "a positive numeric sender reference is required")
	}
	account, err := s.account()
	if err != nil {
		return err
	}

	s.logger.Info("Deleting carrier shipment",
		zap.Int64("numeric_reference", input.NumericSenderReference),
	)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPut,
		Path:   deletePath,
		Body: shipmentPayload{Account: account, Delete: &deleteData{
			NumericSenderReference: input.NumericSenderReference,
			AlphanumericReference:  truncate(input.AlphanumericReference, 15),
		}},
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		s.logger.Error("Carrier shipment delete failed", zap.Int("status", res.StatusCode))
		return integrationError(op, res)
	}

	var envelope deleteEnvelope
	if err := json.Unmarshal([]byte(res.RawBody), &envelope); err != nil || envelope.DeleteResponse == nil {
		return newIntegrationError(op, "unexpected response shape from carrier")
	}
	if em := envelope.DeleteResponse.ExecutionMessage; em != nil && em.Code < 0 {
		return newIntegrationError(op, "%s", em.Text())
	}
	return nil
}

// ReprintShipmentLabel re-issues the labels of an already confirmed
// shipment. Confirm is idempotent on the carrier side; this forces label
// generation and insists at least one label came back.
func (s *ShipmentService) ReprintShipmentLabel(ctx context.Context, input ConfirmInput, opts *ConfirmOptions) (*ShipmentResult, error) {
	const op = "reprint label"

	if opts == nil {
		opts = &ConfirmOptions{}
	}
	opts.ForceLabel = true

	result, err := s.ConfirmShipment(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	if len(result.Labels) == 0 {
		return nil, newIntegrationError(op, "carrier returned no label for reference %d", input.NumericSenderReference)
	}
	return result, nil
}

// shipmentResult applies the shared response handling of create, confirm,
// and update: status check, envelope decode, and execution-code check.
func (s *ShipmentService) shipmentResult(op string, res *Result, envelope any, extract func() *ShipmentResult) (*ShipmentResult, error) {
	if !res.OK() {
		s.logger.Error("Carrier shipment call failed",
			zap.String("operation", op),
			zap.Int("status", res.StatusCode),
		)
		return nil, integrationError(op, res)
	}

	if err := json.Unmarshal([]byte(res.RawBody), envelope); err != nil {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}
	result := extract()
	if result == nil {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}
	if em := result.ExecutionMessage; em != nil && em.Code < 0 {
		s.logger.Error("Carrier rejected shipment call",
			zap.String("operation", op),
			zap.Int("execution_code", em.Code),
		)
		return nil, newIntegrationError(op, "%s", em.Text())
	}
	return result, nil
}
