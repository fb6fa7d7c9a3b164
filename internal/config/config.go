// Package config resolves all carrier-related settings from the environment.
//
// The configuration is loaded once at process start and is read-only after
// that. Mandatory credentials are validated lazily: a service that never
// asks for the ORM key can be built on a machine where it is not set.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ConfigurationError reports a mandatory setting that is missing or empty.
type ConfigurationError struct {
	Variable string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("carrier configuration incomplete: set environment variable %s", e.Variable)
}

// NewConfigurationError reports the named environment variable as missing.
func NewConfigurationError(variable string) *ConfigurationError {
	return &ConfigurationError{Variable: variable}
}

// settings is the raw environment surface. Numeric tunables are read as
// strings so that a garbage value degrades to the documented default
// instead of failing the whole load.
type settings struct {
	RESTBaseURL string `envconfig:"BRT_REST_BASE_URL" default:"https://api.brt.it/rest/v1"`
	ORMBaseURL  string `envconfig:"BRT_ORM_BASE_URL" default:"https://api.brt.it/orm/v1"`
	PUDOBaseURL string `envconfig:"BRT_PUDO_BASE_URL" default:"https://api.brt.it/pudo/v1"`

	AccountUserID      string `envconfig:"BRT_ACCOUNT_USER_ID"`
	AccountPassword    string `envconfig:"BRT_ACCOUNT_PASSWORD"`
	SenderCustomerCode string `envconfig:"BRT_SENDER_CUSTOMER_CODE"`
	DepartureDepot     string `envconfig:"BRT_DEPARTURE_DEPOT"`

	RESTAPIKey string `envconfig:"BRT_REST_API_KEY"`
	ORMAPIKey  string `envconfig:"BRT_ORM_API_KEY"`
	PUDOAPIKey string `envconfig:"BRT_PUDO_API_KEY"`

	CABundle string `envconfig:"BRT_CA_BUNDLE"`

	DefaultNetwork       string `envconfig:"BRT_DEFAULT_NETWORK"`
	DefaultFreightType   string `envconfig:"BRT_DEFAULT_FREIGHT_TYPE" default:"DAP"`
	DefaultServiceType   string `envconfig:"BRT_DEFAULT_SERVICE_TYPE"`
	DefaultPudoID        string `envconfig:"BRT_DEFAULT_PUDO_ID"`
	DefaultCountry       string `envconfig:"BRT_DEFAULT_COUNTRY" default:"IT"`
	PricingConditionCode string `envconfig:"BRT_PRICING_CONDITION_CODE" default:"000"`

	// Per-network pricing condition overrides, e.g. "I:001,E:010".
	NetworkPricingCodes map[string]string `envconfig:"BRT_NETWORK_PRICING_CODES"`

	LabelOutputType string `envconfig:"BRT_LABEL_OUTPUT_TYPE" default:"PDF"`
	LabelOffsetX    int    `envconfig:"BRT_LABEL_OFFSET_X" default:"0"`
	LabelOffsetY    int    `envconfig:"BRT_LABEL_OFFSET_Y" default:"0"`
	LabelBorder     bool   `envconfig:"BRT_LABEL_BORDER" default:"false"`
	LabelLogo       bool   `envconfig:"BRT_LABEL_LOGO" default:"false"`
	LabelBarcode    bool   `envconfig:"BRT_LABEL_BARCODE" default:"false"`

	AutoConfirm bool `envconfig:"BRT_AUTO_CONFIRM" default:"false"`

	AllowedCountries string `envconfig:"BRT_ALLOWED_COUNTRIES"`

	RoutingEndpoint  string `envconfig:"BRT_ROUTING_ENDPOINT" default:"/shipments/routing"`
	ManifestEndpoint string `envconfig:"BRT_MANIFEST_ENDPOINT" default:"/manifests/official"`

	ManifestEnabled  bool `envconfig:"BRT_MANIFEST_ENABLED" default:"true"`
	ManifestStorePDF bool `envconfig:"BRT_MANIFEST_STORE_PDF" default:"true"`

	DocumentsDir string `envconfig:"BRT_DOCUMENTS_DIR" default:"var/documents"`

	TrackingIntervalSeconds  string `envconfig:"BRT_TRACKING_INTERVAL_SECONDS"`
	TrackingBatchSize        string `envconfig:"BRT_TRACKING_BATCH_SIZE"`
	TrackingStalenessMinutes string `envconfig:"BRT_TRACKING_STALENESS_MINUTES"`
	TrackingMaxAgeDays       string `envconfig:"BRT_TRACKING_MAX_AGE_DAYS"`
	TrackingStatusFilter     string `envconfig:"BRT_TRACKING_STATUS_FILTER"`

	RequestTimeoutSeconds string `envconfig:"BRT_REQUEST_TIMEOUT_SECONDS"`
}

// Config holds the resolved, immutable carrier configuration.
type Config struct {
	env settings
}

// Load reads the carrier configuration from environment variables.
// It only fails on a malformed typed value; missing credentials surface
// later, from the accessor of whichever service actually needs them.
func Load() (*Config, error) {
	var env settings
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("loading carrier config: %w", err)
	}

	if env.CABundle != "" && !filepath.IsAbs(env.CABundle) {
		abs, err := filepath.Abs(env.CABundle)
		if err != nil {
			return nil, fmt.Errorf("resolving CA bundle path: %w", err)
		}
		env.CABundle = abs
	}

	env.RoutingEndpoint = normalizeEndpoint(env.RoutingEndpoint, "/shipments/routing")
	env.ManifestEndpoint = normalizeEndpoint(env.ManifestEndpoint, "/manifests/official")

	return &Config{env: env}, nil
}

func mandatory(value, variable string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", NewConfigurationError(variable)
	}
	return v, nil
}

// AccountUserID is the carrier account user. Mandatory at first use.
func (c *Config) AccountUserID() (string, error) {
	return mandatory(c.env.AccountUserID, "BRT_ACCOUNT_USER_ID")
}

// AccountPassword is the carrier account password. Mandatory at first use.
func (c *Config) AccountPassword() (string, error) {
	return mandatory(c.env.AccountPassword, "BRT_ACCOUNT_PASSWORD")
}

// SenderCustomerCode is the sender customer code. Mandatory at first use.
func (c *Config) SenderCustomerCode() (string, error) {
	return mandatory(c.env.SenderCustomerCode, "BRT_SENDER_CUSTOMER_CODE")
}

// DepartureDepot is the departure depot code. Mandatory at first use.
func (c *Config) DepartureDepot() (string, error) {
	return mandatory(c.env.DepartureDepot, "BRT_DEPARTURE_DEPOT")
}

// RESTAPIKey returns the shipment/manifest API key.
func (c *Config) RESTAPIKey() (string, error) {
	return mandatory(c.env.RESTAPIKey, "BRT_REST_API_KEY")
}

// ORMAPIKey returns the pickup-order API key, falling back to the generic
// REST key when the ORM-specific one is unset.
func (c *Config) ORMAPIKey() (string, error) {
	if key := strings.TrimSpace(c.env.ORMAPIKey); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(c.env.RESTAPIKey); key != "" {
		return key, nil
	}
	return "", NewConfigurationError("BRT_ORM_API_KEY")
}

// PUDOAPIKey returns the PUDO search auth token, falling back to the
// generic REST key when the PUDO-specific one is unset.
func (c *Config) PUDOAPIKey() (string, error) {
	if key := strings.TrimSpace(c.env.PUDOAPIKey); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(c.env.RESTAPIKey); key != "" {
		return key, nil
	}
	return "", NewConfigurationError("BRT_PUDO_API_KEY")
}

func (c *Config) RESTBaseURL() string { return strings.TrimRight(c.env.RESTBaseURL, "/") }
func (c *Config) ORMBaseURL() string  { return strings.TrimRight(c.env.ORMBaseURL, "/") }
func (c *Config) PUDOBaseURL() string { return strings.TrimRight(c.env.PUDOBaseURL, "/") }

func (c *Config) CABundlePath() string { return c.env.CABundle }

func (c *Config) DefaultNetwork() string     { return c.env.DefaultNetwork }
func (c *Config) DefaultFreightType() string { return c.env.DefaultFreightType }
func (c *Config) DefaultServiceType() string { return c.env.DefaultServiceType }
func (c *Config) DefaultPudoID() string      { return c.env.DefaultPudoID }

// DefaultCountry is the alpha-2 code assumed when a request carries none.
func (c *Config) DefaultCountry() string {
	return strings.ToUpper(strings.TrimSpace(c.env.DefaultCountry))
}

// PricingConditionCode resolves the pricing condition for a network code,
// preferring the per-network override over the global default.
func (c *Config) PricingConditionCode(network string) string {
	if network != "" {
		if code, ok := c.env.NetworkPricingCodes[network]; ok && strings.TrimSpace(code) != "" {
			return strings.TrimSpace(code)
		}
	}
	return c.env.PricingConditionCode
}

// LabelDefaults holds the configured label rendering defaults.
type LabelDefaults struct {
	OutputType string
	OffsetX    int
	OffsetY    int
	Border     bool
	Logo       bool
	Barcode    bool
}

func (c *Config) LabelDefaults() LabelDefaults {
	return LabelDefaults{
		OutputType: c.env.LabelOutputType,
		OffsetX:    c.env.LabelOffsetX,
		OffsetY:    c.env.LabelOffsetY,
		Border:     c.env.LabelBorder,
		Logo:       c.env.LabelLogo,
		Barcode:    c.env.LabelBarcode,
	}
}

func (c *Config) AutoConfirm() bool { return c.env.AutoConfirm }

// AllowedCountries parses the configured destination allow-list. Tokens are
// split on commas and semicolons, trimmed and upper-cased; known codes get
// their display name, unknown codes stand for themselves. An empty or fully
// invalid list falls back to the complete built-in table.
func (c *Config) AllowedCountries() map[string]string {
	out := map[string]string{}
	for _, token := range strings.FieldsFunc(c.env.AllowedCountries, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		code := strings.ToUpper(strings.TrimSpace(token))
		if len(code) != 2 {
			continue
		}
		if name, ok := CountryName(code); ok {
			out[code] = name
		} else {
			out[code] = code
		}
	}
	if len(out) == 0 {
		return AllCountries()
	}
	return out
}

func (c *Config) RoutingEndpoint() string  { return c.env.RoutingEndpoint }
func (c *Config) ManifestEndpoint() string { return c.env.ManifestEndpoint }

func (c *Config) ManifestEnabled() bool { return c.env.ManifestEnabled }

// ShouldStoreOfficialManifestPDF reports whether returned manifest PDFs are
// persisted to disk.
func (c *Config) ShouldStoreOfficialManifestPDF() bool { return c.env.ManifestStorePDF }

func (c *Config) DocumentsDir() string { return c.env.DocumentsDir }

// TrackingInterval is the refresher tick interval, clamped to [30s,1h].
func (c *Config) TrackingInterval() time.Duration {
	return time.Duration(clampInt(c.env.TrackingIntervalSeconds, 300, 30, 3600)) * time.Second
}

// TrackingBatchSize is the number of parcels refreshed per tick, in [1,100].
func (c *Config) TrackingBatchSize() int {
	return clampInt(c.env.TrackingBatchSize, 20, 1, 100)
}

// TrackingStaleness is how old a stored status must be before a parcel is
// refreshed again, clamped to [5m,24h].
func (c *Config) TrackingStaleness() time.Duration {
	return time.Duration(clampInt(c.env.TrackingStalenessMinutes, 60, 5, 1440)) * time.Minute
}

// TrackingMaxAgeDays caps how far back parcels are still refreshed, in
// [1,365]. The sentinel 0 means unbounded and bypasses the clamp.
func (c *Config) TrackingMaxAgeDays() int {
	raw := strings.TrimSpace(c.env.TrackingMaxAgeDays)
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n == 0 {
			return 0
		}
	}
	return clampInt(raw, 90, 1, 365)
}

// TrackingStatusFilter lists the statuses still worth refreshing.
func (c *Config) TrackingStatusFilter() []string {
	var out []string
	for _, s := range strings.Split(c.env.TrackingStatusFilter, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RequestTimeout is the per-request HTTP timeout, clamped to [5s,120s].
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(clampInt(c.env.RequestTimeoutSeconds, 30, 5, 120)) * time.Second
}

// clampInt parses raw as an integer, returning def when raw is missing or
// not a number, and the nearest bound when out of range.
func clampInt(raw string, def, min, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
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

// normalizeEndpoint forces a leading slash and strips trailing slashes.
func normalizeEndpoint(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(path, "/")
}
