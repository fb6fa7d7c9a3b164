package brt_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agservizi/carrierbridge/internal/config"
)

// testConfig builds a configuration from a working baseline plus per-test
// overrides. An override with an empty value effectively unsets the
// variable, since blank mandatory settings count as missing.
func testConfig(t *testing.T, overrides map[string]string) *config.Config {
	t.Helper()

	env := map[string]string{
		"BRT_ACCOUNT_USER_ID":      "0509907",
		"BRT_ACCOUNT_PASSWORD":     "secret",
		"BRT_SENDER_CUSTOMER_CODE": "0509907",
		"BRT_DEPARTURE_DEPOT":      "021",
		"BRT_REST_API_KEY":         "rest-key",
	}
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

// requestBody re-decodes a captured request body into a generic map, the
// same way it would look on the wire.
func requestBody(t *testing.T, body any) map[string]any {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func nested(t *testing.T, obj map[string]any, key string) map[string]any {
	t.Helper()

	inner, ok := obj[key].(map[string]any)
	require.True(t, ok, "expected %q to be an object", key)
	return inner
}
