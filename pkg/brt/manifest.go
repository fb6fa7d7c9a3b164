package brt

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
)

const (
	localManifestDir    = "manifests/local"
	officialManifestDir = "manifests/official"
)

// ManifestShipment is the slice of a confirmed shipment the manifest
// generators need.
type ManifestShipment struct {
	ParcelID               string
	NumericSenderReference int64
	AlphanumericReference  string
	ConsigneeCompanyName   string
	ConsigneeCity          string
	ConsigneeCountry       string
	NumberOfParcels        int
	WeightKG               float64
	VolumeM3               float64
}

// ManifestInfo is the header context printed on a locally built manifest.
type ManifestInfo struct {
	SenderName string
	DepotCode  string
	Date       time.Time
}

// LocalManifest describes a manifest rendered by this process.
type LocalManifest struct {
	ReferenceCode string
	RelativePath  string
	AbsolutePath  string
	GeneratedAt   time.Time
}

// OfficialManifest describes a manifest document issued by the carrier.
type OfficialManifest struct {
	ManifestNumber string
	DocumentURL    string
	PDFPath        string
	RetrievedAt    time.Time
}

// LocalManifestService renders a pickup manifest ("borderò") from the
// day's confirmed shipments, without talking to the carrier.
type LocalManifestService struct {
	cfg      *config.Config
	renderer PDFRenderer
	logger   *otelzap.Logger
}

// NewLocalManifestService builds the local generator on the given
// rendering engine.
func NewLocalManifestService(cfg *config.Config, renderer PDFRenderer, logger *otelzap.Logger) *LocalManifestService {
	return &LocalManifestService{cfg: cfg, renderer: renderer, logger: logger}
}

// Generate renders the manifest PDF and returns where it landed.
func (s *LocalManifestService) Generate(ctx context.Context, shipments []ManifestShipment, info ManifestInfo) (*LocalManifest, error) {
	const op = "local manifest"

	if len(shipments) == 0 {
		return nil, newIntegrationError(op, "at least one confirmed shipment is required")
	}

	now := time.Now()
	if info.Date.IsZero() {
		info.Date = now
	}

	token := uuid.New().String()[:8]
	reference := fmt.Sprintf("BRD-%s-%s", now.Format("20060102"), strings.ToUpper(token))
	filename := fmt.Sprintf("manifest-%s-%s.pdf", now.Format("20060102-150405"), token)
	relative := filepath.Join(localManifestDir, filename)

	absolute, err := s.ensureDocumentPath(relative)
	if err != nil {
		return nil, newIntegrationError(op, "preparing manifest directory: %v", err)
	}

	s.logger.Info("Generating local manifest",
		zap.String("reference", reference),
		zap.Int("shipments", len(shipments)),
	)

	if err := s.renderer.RenderHTML(ctx, buildManifestHTML(shipments, info, reference), absolute); err != nil {
		return nil, newIntegrationError(op, "rendering manifest PDF: %v", err)
	}

	return &LocalManifest{
		ReferenceCode: reference,
		RelativePath:  relative,
		AbsolutePath:  absolute,
		GeneratedAt:   now,
	}, nil
}

func (s *LocalManifestService) ensureDocumentPath(relative string) (string, error) {
	absolute, err := filepath.Abs(filepath.Join(s.cfg.DocumentsDir(), relative))
	if err != nil {
		return "", err
	}
	// MkdirAll tolerates a concurrent caller creating the directory first.
	if err := os.MkdirAll(filepath.Dir(absolute), 0o755); err != nil {
		return "", err
	}
	return absolute, nil
}

// buildManifestHTML lays out one row per shipment with computed totals.
func buildManifestHTML(shipments []ManifestShipment, info ManifestInfo, reference string) string {
	var totalParcels int
	var totalWeight, totalVolume float64

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;font-size:11px}table{width:100%;border-collapse:collapse}")
	b.WriteString("th,td{border:1px solid #444;padding:4px;text-align:left}tfoot td{font-weight:bold}")
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h2>Border&ograve; di consegna %s</h2>", html.EscapeString(reference))
	fmt.Fprintf(&b, "<p>Mittente: %s &mdash; Filiale: %s &mdash; Data: %s</p>",
		html.EscapeString(info.SenderName),
		html.EscapeString(info.DepotCode),
		info.Date.Format("02/01/2006"),
	)
	b.WriteString("<table><thead><tr><th>Parcel ID</th><th>Rif. numerico</th><th>Rif. alfanumerico</th>")
	b.WriteString("<th>Destinatario</th><th>Citt&agrave;</th><th>Paese</th><th>Colli</th><th>Peso (kg)</th><th>Volume (m3)</th></tr></thead><tbody>")

	for _, sh := range shipments {
		totalParcels += sh.NumberOfParcels
		totalWeight += sh.WeightKG
		totalVolume += sh.VolumeM3
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%.2f</td><td>%.3f</td></tr>",
			html.EscapeString(sh.ParcelID),
			sh.NumericSenderReference,
			html.EscapeString(sh.AlphanumericReference),
			html.EscapeString(sh.ConsigneeCompanyName),
			html.EscapeString(sh.ConsigneeCity),
			html.EscapeString(sh.ConsigneeCountry),
			sh.NumberOfParcels,
			sh.WeightKG,
			sh.VolumeM3,
		)
	}

	fmt.Fprintf(&b, "</tbody><tfoot><tr><td colspan=\"6\">Totali (%d spedizioni)</td><td>%d</td><td>%.2f</td><td>%.3f</td></tr></tfoot></table>",
		len(shipments), totalParcels, totalWeight, totalVolume)
	b.WriteString("</body></html>")
	return b.String()
}

// OfficialManifestService asks the carrier for the official manifest
// document covering a set of confirmed shipments.
type OfficialManifestService struct {
	cfg       *config.Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// NewOfficialManifestService builds the service on the production HTTP
// transport.
func NewOfficialManifestService(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*OfficialManifestService, error) {
	transport, err := NewHTTPTransport(HTTPTransportConfig{
		BaseURL:      cfg.RESTBaseURL(),
		API:          "rest",
		Timeout:      cfg.RequestTimeout(),
		CABundlePath: cfg.CABundlePath(),
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}
	return NewOfficialManifestServiceWithTransport(cfg, transport, logger, tracer), nil
}

// NewOfficialManifestServiceWithTransport injects a custom transport.
func NewOfficialManifestServiceWithTransport(cfg *config.Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *OfficialManifestService {
	return &OfficialManifestService{cfg: cfg, transport: transport, logger: logger, tracer: tracer}
}

// Request asks the carrier for the official manifest covering the given
// shipments, identified by parcel ID and/or positive numeric reference.
func (s *OfficialManifestService) Request(ctx context.Context, shipments []ManifestShipment) (*OfficialManifest, error) {
	const op = "official manifest"

	key, err := s.cfg.RESTAPIKey()
	if err != nil {
		return nil, err
	}

	parcelIDs := lo.Uniq(lo.FilterMap(shipments, func(sh ManifestShipment, _ int) (string, bool) {
		id := strings.TrimSpace(sh.ParcelID)
		return id, id != ""
	}))
	references := lo.Uniq(lo.FilterMap(shipments, func(sh ManifestShipment, _ int) (int64, bool) {
		return sh.NumericSenderReference, sh.NumericSenderReference > 0
	}))
	if len(parcelIDs) == 0 && len(references) == 0 {
		return nil, newIntegrationError(op, "no parcel IDs or numeric sender references to manifest")
	}

	s.logger.Info("Requesting official manifest",
		zap.Int("parcel_ids", len(parcelIDs)),
		zap.Int("references", len(references)),
	)

	header := http.Header{}
	header.Set("X-API-Key", key)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		Path:   s.cfg.ManifestEndpoint(),
		Body: map[string]any{
			"parcelIDs":               parcelIDs,
			"numericSenderReferences": references,
		},
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		s.logger.Error("Official manifest request failed", zap.Int("status", res.StatusCode))
		return nil, integrationError(op, res)
	}
	if em := executionMessageFromAny(res.Body); em != nil && em.Code < 0 {
		return nil, newIntegrationError(op, "%s", em.Text())
	}

	obj, ok := res.BodyObject()
	if !ok {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}

	manifest := &OfficialManifest{
		ManifestNumber: stringField(obj, "manifestNumber"),
		DocumentURL:    stringField(obj, "documentUrl", "downloadUrl"),
		RetrievedAt:    time.Now(),
	}

	if s.cfg.ShouldStoreOfficialManifestPDF() {
		// The PDF payload field name varies across carrier deployments.
		encoded := stringField(obj, "documentPdf", "pdfDocument", "pdf")
		if encoded != "" {
			path, err := s.storePDF(manifest.ManifestNumber, encoded)
			if err != nil {
				return nil, err
			}
			manifest.PDFPath = path
		}
	}
	return manifest, nil
}

var manifestNumberSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (s *OfficialManifestService) storePDF(manifestNumber, encoded string) (string, error) {
	const op = "official manifest"

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", newIntegrationError(op, "carrier returned a corrupted base64 PDF payload")
	}

	suffix := manifestNumberSanitizer.ReplaceAllString(manifestNumber, "")
	if suffix != "" {
		suffix = "-" + suffix
	}
	filename := fmt.Sprintf("manifest%s-%s-%s.pdf",
		suffix,
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:8],
	)

	absolute, err := filepath.Abs(filepath.Join(s.cfg.DocumentsDir(), officialManifestDir, filename))
	if err != nil {
		return "", newIntegrationError(op, "resolving manifest path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(absolute), 0o755); err != nil {
		return "", newIntegrationError(op, "preparing manifest directory: %v", err)
	}
	if err := os.WriteFile(absolute, data, 0o644); err != nil {
		return "", newIntegrationError(op, "storing manifest PDF: %v", err)
	}

	s.logger.Info("Stored official manifest PDF", zap.String("path", absolute))
	return absolute, nil
}
