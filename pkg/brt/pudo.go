package brt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
)

const (
	pudoByAddressPath = "/get-pudo-by-address"
	pudoByLatLngPath  = "/get-pudo-by-lat-lng"

	maxPudoResults   = 25
	minPudoRadius    = 100
	maxPudoRadius    = 50000
)

// PudoSearchCriteria selects pickup points either by coordinates (both
// latitude and longitude set) or by address (ZIP and city required).
type PudoSearchCriteria struct {
	Latitude  string
	Longitude string

	ZIPCode string
	City    string
	Address string

	// CountryCode accepts 2- or 3-letter ISO codes. Empty falls back to
	// the configured default country.
	CountryCode string

	// MaxResults is clamped to [1,25]; zero means 25.
	MaxResults int

	// RadiusMeters, when positive, is clamped to [100,50000].
	RadiusMeters int
}

// PudoResult is a normalized pickup point.
type PudoResult struct {
	ID           string
	Name         string
	Address      string
	ZIPCode      string
	City         string
	Province     string
	Country      string
	Latitude     *float64
	Longitude    *float64
	OpeningHours []string
	Distance     *float64
}

// PudoService searches pickup/drop-off points. Requires the PUDO auth
// token (or the generic REST key) before any network call.
type PudoService struct {
	cfg       *config.Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// NewPudoService builds the service on the production HTTP transport.
func NewPudoService(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*PudoService, error) {
	transport, err := NewHTTPTransport(HTTPTransportConfig{
		BaseURL:      cfg.PUDOBaseURL(),
		API:          "pudo",
		Timeout:      cfg.RequestTimeout(),
		CABundlePath: cfg.CABundlePath(),
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}
	return NewPudoServiceWithTransport(cfg, transport, logger, tracer), nil
}

// NewPudoServiceWithTransport injects a custom transport.
func NewPudoServiceWithTransport(cfg *config.Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *PudoService {
	return &PudoService{cfg: cfg, transport: transport, logger: logger, tracer: tracer}
}

// Search finds pickup points matching the criteria.
func (s *PudoService) Search(ctx context.Context, criteria PudoSearchCriteria) ([]PudoResult, error) {
	const op = "pudo search"

	token, err := s.cfg.PUDOAPIKey()
	if err != nil {
		return nil, err
	}

	country, err := s.normalizeCountry(criteria.CountryCode)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("countryCode", country)
	query.Set("max_pudo_number", strconv.Itoa(clampPudo(criteria.MaxResults, maxPudoResults, 1, maxPudoResults)))
	if criteria.RadiusMeters > 0 {
		query.Set("max_distance_search", strconv.Itoa(clampPudo(criteria.RadiusMeters, minPudoRadius, minPudoRadius, maxPudoRadius)))
	}

	var path string
	lat := strings.TrimSpace(criteria.Latitude)
	lng := strings.TrimSpace(criteria.Longitude)
	switch {
	case lat != "" && lng != "":
		path = pudoByLatLngPath
		query.Set("latitude", lat)
		query.Set("longitude", lng)
	case strings.TrimSpace(criteria.ZIPCode) != "" && strings.TrimSpace(criteria.City) != "":
		path = pudoByAddressPath
		query.Set("zipCode", strings.TrimSpace(criteria.ZIPCode))
		query.Set("city", strings.TrimSpace(criteria.City))
		if addr := strings.TrimSpace(criteria.Address); addr != "" {
			query.Set("address", addr)
		}
	default:
		return nil, newIntegrationError(op, "either coordinates or ZIP code and city are required")
	}

	s.logger.Info("Searching carrier pickup points",
		zap.String("path", path),
		zap.String("country", country),
	)

	header := http.Header{}
	header.Set("X-API-Auth", token)

	res, err := s.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		s.logger.Error("Carrier pickup point search failed", zap.Int("status", res.StatusCode))
		return nil, integrationError(op, res)
	}

	if em := executionMessageFromAny(res.Body); em != nil && em.Code < 0 {
		return nil, newIntegrationError(op, "%s", em.Text())
	}

	items, ok := unwrapPudoList(res.Body)
	if !ok {
		return nil, newIntegrationError(op, "unexpected response shape from carrier")
	}

	results := make([]PudoResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		pudo := normalizePudo(obj)
		// Items without an id are unusable and are dropped, not surfaced.
		if pudo.ID == "" {
			continue
		}
		results = append(results, pudo)
	}
	return results, nil
}

// normalizeCountry resolves the criteria country to the alpha-3 code the
// PUDO API wants.
func (s *PudoService) normalizeCountry(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		code = s.cfg.DefaultCountry()
	}
	switch len(code) {
	case 3:
		return code, nil
	case 2:
		if alpha3, ok := config.Alpha3(code); ok {
			return alpha3, nil
		}
	}
	return "", newIntegrationError("pudo search", "specify a valid country")
}

// unwrapPudoList tries the documented envelope keys, then treats the body
// itself as the item array when it already is one.
func unwrapPudoList(body any) ([]any, bool) {
	if arr, ok := body.([]any); ok {
		return arr, true
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range []string{"pudoList", "pudo"} {
		switch inner := obj[key].(type) {
		case []any:
			return inner, true
		case map[string]any:
			return []any{inner}, true
		}
	}
	return nil, false
}

func normalizePudo(obj map[string]any) PudoResult {
	result := PudoResult{
		ID:       stringField(obj, "pudoId", "id"),
		Name:     stringField(obj, "name", "pudoName", "companyName"),
		Address:  stringField(obj, "address", "address1"),
		ZIPCode:  stringField(obj, "zipCode", "zip"),
		City:     stringField(obj, "city"),
		Province: stringField(obj, "province"),
		Country:  stringField(obj, "countryCode", "country"),
	}

	if lat, ok := floatField(obj, "latitude", "lat"); ok {
		result.Latitude = &lat
	}
	if lng, ok := floatField(obj, "longitude", "lng", "lon"); ok {
		result.Longitude = &lng
	}
	if dist, ok := floatField(obj, "distance"); ok {
		result.Distance = &dist
	}
	result.OpeningHours = normalizeOpeningHours(obj)
	return result
}

var pudoWeekdays = []string{"Lun", "Mar", "Mer", "Gio", "Ven", "Sab", "Dom"}

// normalizeOpeningHours flattens opening hours into human-readable lines.
// The carrier sends either free-text strings or structured day/from/to
// objects; both shapes are supported.
func normalizeOpeningHours(obj map[string]any) []string {
	raw, ok := obj["openingHours"].([]any)
	if !ok {
		raw, ok = obj["hours"].([]any)
	}
	if !ok {
		return nil
	}

	var lines []string
	for _, item := range raw {
		switch entry := item.(type) {
		case string:
			if s := strings.TrimSpace(entry); s != "" {
				lines = append(lines, s)
			}
		case map[string]any:
			day := stringField(entry, "day", "dayOfWeek")
			if n, err := strconv.Atoi(day); err == nil && n >= 1 && n <= 7 {
				day = pudoWeekdays[n-1]
			}
			from := stringField(entry, "from", "openingTime", "open")
			to := stringField(entry, "to", "closingTime", "close")
			switch {
			case day != "" && from != "" && to != "":
				lines = append(lines, fmt.Sprintf("%s %s-%s", day, from, to))
			case from != "" && to != "":
				lines = append(lines, from+"-"+to)
			}
		}
	}
	return lines
}

func clampPudo(n, def, min, max int) int {
	if n == 0 {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
