package brt_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agservizi/carrierbridge/internal/config"
	"github.com/agservizi/carrierbridge/internal/telemetry"
	"github.com/agservizi/carrierbridge/pkg/brt"
)

func newPickupService(t *testing.T, overrides map[string]string, transport brt.Transport) *brt.PickupService {
	t.Helper()
	cfg := testConfig(t, overrides)
	return brt.NewPickupServiceWithTransport(cfg, transport, telemetry.NopLogger(), nil)
}

func TestDecodeOrderBatch(t *testing.T) {
	orders, err := brt.DecodeOrderBatch([]byte(`[
		{"customerCode": "0509907", "pickupDate": "2026-08-28", "numberOfParcels": 3}
	]`))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "0509907", orders[0].CustomerCode)
	assert.Equal(t, 3, orders[0].NumberOfParcels)
}

func TestDecodeOrderBatchRejectsNonArray(t *testing.T) {
	for _, raw := range []string{
		`{"order1": {"customerCode": "0509907"}}`,
		``,
		`   `,
		`not json at all`,
		`[{"numberOfParcels": "three"}]`,
	} {
		_, err := brt.DecodeOrderBatch([]byte(raw))
		require.Error(t, err, "input %q", raw)
		assert.Contains(t, err.Error(), "sequential array")
	}
}

func TestCreateOrders(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(201, `[
		{"reservationNumber": 778899, "errors": []},
		{"reservationNumberAlpha": "AB-778900"}
	]`))
	service := newPickupService(t, nil, transport)

	results, err := service.CreateOrders(context.Background(), []brt.PickupOrder{
		{CustomerCode: "0509907", PickupDate: "2026-08-28"},
		{CustomerCode: "0509907", PickupDate: "2026-08-29"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "778899", results[0].ReservationNumber)
	assert.Equal(t, "AB-778900", results[1].ReservationNumber)

	req := transport.LastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/colreqs", req.Path)
	// The ORM API authenticates with its own key header.
	assert.Equal(t, "rest-key", req.Header.Get("X-Api-Key"))
}

func TestCreateOrdersUsesORMKeyWhenSet(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(201, `[{}]`))
	service := newPickupService(t, map[string]string{
		"BRT_ORM_API_KEY": "orm-specific",
	}, transport)

	_, err := service.CreateOrders(context.Background(), []brt.PickupOrder{{}})
	require.NoError(t, err)
	assert.Equal(t, "orm-specific", transport.LastRequest().Header.Get("X-Api-Key"))
}

func TestCreateOrdersMissingKey(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newPickupService(t, map[string]string{
		"BRT_REST_API_KEY": "",
	}, transport)

	_, err := service.CreateOrders(context.Background(), []brt.PickupOrder{{}})
	require.Error(t, err)

	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "BRT_ORM_API_KEY", cerr.Variable)
	assert.Zero(t, transport.CallCount())
}

func TestCreateOrdersEmptyBatch(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newPickupService(t, nil, transport)

	_, err := service.CreateOrders(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one pickup order")
	assert.Zero(t, transport.CallCount())
}

func TestCreateOrdersItemRejected(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(201, `[
		{"reservationNumber": 778899},
		{"errors": [{"code": "C12", "message": "depot closed on the requested date"}]}
	]`))
	service := newPickupService(t, nil, transport)

	_, err := service.CreateOrders(context.Background(), []brt.PickupOrder{{}, {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order 1 rejected")
	assert.Contains(t, err.Error(), "depot closed")
}

func TestCreateOrdersNonArrayResponse(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{"unexpected": "object"}`))
	service := newPickupService(t, nil, transport)

	_, err := service.CreateOrders(context.Background(), []brt.PickupOrder{{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a sequential array")
}

func TestCancelOrder(t *testing.T) {
	tests := []struct {
		name    string
		result  *brt.Result
		want    bool
		wantErr bool
	}{
		{"boolean true", brt.JSONResult(200, `true`), true, false},
		{"boolean false", brt.JSONResult(200, `false`), false, false},
		{"string true", brt.JSONResult(200, `"true"`), true, false},
		{"string false", brt.JSONResult(200, `"FALSE"`), false, false},
		{"empty body counts as success", brt.JSONResult(200, ``), true, false},
		{"unrecognized shape", brt.JSONResult(200, `{"ok": true}`), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := brt.NewRecordingTransport(tt.result)
			service := newPickupService(t, nil, transport)

			got, err := service.CancelOrder(context.Background(), "778899")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			req := transport.LastRequest()
			assert.Equal(t, http.MethodDelete, req.Method)
			assert.Equal(t, "/colreqs/778899", req.Path)
		})
	}
}

func TestCancelOrderRequiresReservationNumber(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newPickupService(t, nil, transport)

	_, err := service.CancelOrder(context.Background(), "  ")
	require.Error(t, err)
	assert.Zero(t, transport.CallCount())
}

func TestGetOrder(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"reservationNumber": 778899,
		"status": "CONFIRMED",
		"pickupDate": "2026-08-28"
	}`))
	service := newPickupService(t, nil, transport)

	record, err := service.GetOrder(context.Background(), "778899")
	require.NoError(t, err)
	assert.Equal(t, "778899", record.ReservationNumber)
	assert.Equal(t, "CONFIRMED", record.Status)
	assert.Equal(t, "2026-08-28", record.Raw["pickupDate"])
}

func TestUpdateOrder(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"reservationNumber": 778899,
		"status": "UPDATED"
	}`))
	service := newPickupService(t, nil, transport)

	record, err := service.UpdateOrder(context.Background(), "778899", brt.PickupOrder{
		ReadyTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "UPDATED", record.Status)

	req := transport.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/colreqs/778899", req.Path)
}

func TestUpdateOrderBareSuccessFlag(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `true`))
	service := newPickupService(t, nil, transport)

	record, err := service.UpdateOrder(context.Background(), "778899", brt.PickupOrder{})
	require.NoError(t, err)
	assert.Equal(t, "778899", record.ReservationNumber)
}

func TestUpdateOrderCarrierErrors(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"errors": ["reservation already collected"]
	}`))
	service := newPickupService(t, nil, transport)

	_, err := service.UpdateOrder(context.Background(), "778899", brt.PickupOrder{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already collected")
}
