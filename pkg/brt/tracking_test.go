package brt_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agservizi/carrierbridge/internal/telemetry"
	"github.com/agservizi/carrierbridge/pkg/brt"
)

func newTrackingService(t *testing.T, overrides map[string]string, transport brt.Transport) *brt.TrackingService {
	t.Helper()
	cfg := testConfig(t, overrides)
	return brt.NewTrackingServiceWithTransport(cfg, transport, telemetry.NopLogger(), nil)
}

func TestTrackingByParcelID(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"parcelIDResult": {
			"parcelID": "123000000001",
			"status": "DELIVERED",
			"bolla": "0123456789",
			"trackingList": [
				{"date": "25.08.2026", "time": "09:12", "branch": "MILANO", "code": "100", "description": "PARTITA"},
				{"date": "26.08.2026", "time": "11:45", "branch": "TORINO", "code": "500", "description": "CONSEGNATA"}
			]
		}
	}`))
	service := newTrackingService(t, nil, transport)

	result, err := service.TrackingByParcelID(context.Background(), "123000000001")
	require.NoError(t, err)
	assert.Equal(t, "123000000001", result.ParcelID)
	assert.Equal(t, "DELIVERED", result.Status)
	assert.Equal(t, "0123456789", result.DeliveryNote)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "MILANO", result.Events[0].Branch)
	assert.Equal(t, "CONSEGNATA", result.Events[1].Description)

	req := transport.LastRequest()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/tracking/parcelID/123000000001", req.Path)
	assert.Equal(t, "0509907", req.Header.Get("userID"))
	assert.Equal(t, "secret", req.Header.Get("password"))
}

func TestTrackingItalianFieldNames(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"ttParcelIdResponse": {
			"esitoFinale": "IN CONSEGNA",
			"eventi": [
				{"data": "26.08.2026", "ora": "08:00", "filiale": "ROMA", "codice": "300", "descrizione": "IN TRANSITO"}
			]
		}
	}`))
	service := newTrackingService(t, nil, transport)

	result, err := service.TrackingByParcelID(context.Background(), "123000000001")
	require.NoError(t, err)
	assert.Equal(t, "IN CONSEGNA", result.Status)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "ROMA", result.Events[0].Branch)
	assert.Equal(t, "IN TRANSITO", result.Events[0].Description)
}

func TestTrackingStatusFallsBackToLastEvent(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"parcelIDResult": {
			"trackingList": [
				{"description": "PARTITA"},
				{"description": "IN TRANSITO"}
			]
		}
	}`))
	service := newTrackingService(t, nil, transport)

	result, err := service.TrackingByParcelID(context.Background(), "123000000001")
	require.NoError(t, err)
	assert.Equal(t, "IN TRANSITO", result.Status)
}

func TestTrackingEnvelopeAsArray(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"parcelIDResults": [{"parcelID": "99", "status": "DELIVERED"}]
	}`))
	service := newTrackingService(t, nil, transport)

	result, err := service.TrackingByParcelID(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", result.Status)
}

func TestTrackingNotFoundIsLocalized(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"parcelIDResult": {
			"executionMessage": {"code": -11, "codeDesc": "SHIPMENT NOT FOUND"}
		}
	}`))
	service := newTrackingService(t, nil, transport)

	_, err := service.TrackingByParcelID(context.Background(), "000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spedizione non trovata")
}

func TestTrackingUnknownMessagePassesThrough(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"parcelIDResult": {
			"executionMessage": {"code": -99, "codeDesc": "SOMETHING ELSE ENTIRELY"}
		}
	}`))
	service := newTrackingService(t, nil, transport)

	_, err := service.TrackingByParcelID(context.Background(), "123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOMETHING ELSE ENTIRELY")
}

func TestTrackingRequiresParcelID(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newTrackingService(t, nil, transport)

	_, err := service.TrackingByParcelID(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parcel ID is required")
	assert.Zero(t, transport.CallCount())
}

func TestTrackingMissingCredentials(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newTrackingService(t, map[string]string{
		"BRT_ACCOUNT_USER_ID": "",
	}, transport)

	_, err := service.TrackingByParcelID(context.Background(), "123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BRT_ACCOUNT_USER_ID")
	assert.Zero(t, transport.CallCount())
}

func TestTrackingHTTPError(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(502, "Bad Gateway"))
	service := newTrackingService(t, nil, transport)

	_, err := service.TrackingByParcelID(context.Background(), "123")
	require.Error(t, err)

	var ierr *brt.IntegrationError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 502, ierr.StatusCode)
}
