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

func newShipmentService(t *testing.T, overrides map[string]string, transport brt.Transport) *brt.ShipmentService {
	t.Helper()
	cfg := testConfig(t, overrides)
	return brt.NewShipmentServiceWithTransport(cfg, transport, telemetry.NopLogger(), nil)
}

const createOKBody = `{
	"createResponse": {
		"executionMessage": {"code": 0, "codeDesc": "OK"},
		"parcelNumberFrom": 123000000001,
		"parcelNumberTo": 123000000002,
		"arrivalTerminal": "MI",
		"arrivalDepot": "021",
		"deliveryZone": "A"
	}
}`

func TestCreateShipment(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, createOKBody))
	service := newShipmentService(t, map[string]string{
		"BRT_DEFAULT_NETWORK": "ITALIA",
	}, transport)

	result, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{
		Consignee: brt.Consignee{
			CompanyName: "Rossi SRL",
			Address:     "Via Roma 1",
			ZIPCode:     "20100",
			City:        "Milano",
			Province:    "MI",
			Country:     "it",
		},
		WeightKG:               "12,5",
		VolumeM3:               "0.01",
		NumericSenderReference: 42,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(123000000001), result.ParcelNumberFrom)
	assert.Equal(t, int64(123000000002), result.ParcelNumberTo)

	req := transport.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/shipments/shipment", req.Path)

	body := requestBody(t, req.Body)
	account := nested(t, body, "account")
	assert.Equal(t, "0509907", account["userID"])
	assert.Equal(t, "secret", account["password"])

	data := nested(t, body, "createData")
	assert.Equal(t, "I", data["network"])
	assert.Equal(t, "021", data["departureDepot"])
	assert.Equal(t, "0509907", data["senderCustomerCode"])
	assert.Equal(t, 12.5, data["weightKG"])
	assert.Equal(t, 0.01, data["volumeM3"])
	// No explicit count defaults to a single parcel.
	assert.Equal(t, float64(1), data["numberOfParcels"])
	assert.Equal(t, "IT", data["consigneeCountryAbbreviationISOAlpha2"])
	assert.Equal(t, float64(42), data["numericSenderReference"])
}

func TestCreateShipmentMissingCredentials(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newShipmentService(t, map[string]string{
		"BRT_ACCOUNT_PASSWORD": "",
	}, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{})
	require.Error(t, err)

	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "BRT_ACCOUNT_PASSWORD", cerr.Variable)
	assert.Zero(t, transport.CallCount(), "no request may leave before credentials resolve")
}

func TestCreateShipmentNegativeExecutionCode(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"createResponse": {
			"executionMessage": {"code": -3, "codeDesc": "INVALID ZIP", "message": "zip not served"}
		}
	}`))
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{})
	require.Error(t, err)

	var ierr *brt.IntegrationError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, ierr.Message, "INVALID ZIP")
}

func TestCreateShipmentHTTPError(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(500, `{"message": "internal failure"}`))
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{})
	require.Error(t, err)

	var ierr *brt.IntegrationError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 500, ierr.StatusCode)
	assert.Contains(t, ierr.Message, "internal failure")
}

func TestCreateShipmentUnexpectedShape(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{"somethingElse": {}}`))
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response shape")
}

func TestCreateShipmentCODDefaults(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, createOKBody))
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{
		CashOnDelivery: "99,90",
		IsCODMandatory: true,
	})
	require.NoError(t, err)

	data := nested(t, requestBody(t, transport.LastRequest().Body), "createData")
	assert.Equal(t, 99.90, data["cashOnDelivery"])
	assert.Equal(t, "EUR", data["codCurrency"])
	assert.Equal(t, "1", data["isCODMandatory"])
}

func TestCreateShipmentActualSenderBackfill(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, createOKBody))
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{
		ServiceType: brt.ServiceShopReturn,
		Consignee: brt.Consignee{
			CompanyName: "Bianchi SNC",
			Address:     "Via Garibaldi 5",
			ZIPCode:     "10100",
			City:        "Torino",
			Province:    "TO",
		},
	})
	require.NoError(t, err)

	data := nested(t, requestBody(t, transport.LastRequest().Body), "createData")
	assert.Equal(t, "Bianchi SNC", data["actualSenderName"])
	assert.Equal(t, "Torino", data["actualSenderCity"])
	assert.Equal(t, "IT", data["actualSenderCountryAbbreviationISOAlpha2"])
	assert.Equal(t, "1", data["isDeclaredActualSender"])
}

func TestCreateShipmentActualSenderRequired(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{
		ServiceType: brt.ServiceShopPickup,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires actual sender data")
	assert.Zero(t, transport.CallCount())
}

func TestGetRoutingQuote(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"routingResponse": {
			"executionMessage": {"code": 0},
			"arrivalTerminal": "BO",
			"deliveryZone": "B",
			"transitDays": 2
		}
	}`))
	service := newShipmentService(t, nil, transport)

	quote, err := service.GetRoutingQuote(context.Background(), &brt.ShipmentInput{
		Consignee: brt.Consignee{
			ZIPCode: "40100",
			City:    "Bologna",
			ContactName: "Mario",
		},
		Notes: "second floor",
	})
	require.NoError(t, err)
	assert.Equal(t, "BO", quote.ArrivalTerminal)
	assert.Equal(t, 2, quote.TransitDays)

	req := transport.LastRequest()
	assert.Equal(t, "/shipments/routing", req.Path)

	// The routing endpoint does not accept contact or note fields.
	data := nested(t, requestBody(t, req.Body), "createData")
	assert.NotContains(t, data, "consigneeContactName")
	assert.NotContains(t, data, "notes")
	assert.NotContains(t, data, "labelParameters")
}

func TestConfirmShipment(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"confirmResponse": {
			"executionMessage": {"code": 0},
			"seriesComplete": "1",
			"labels": {"label": [{"parcelID": "123000000001", "stream": "JVBERi0=", "outputType": "PDF"}]}
		}
	}`))
	service := newShipmentService(t, nil, transport)

	result, err := service.ConfirmShipment(context.Background(), brt.ConfirmInput{
		NumericSenderReference: 42,
		AlphanumericReference:  "ORDER-2026-000123456",
	}, &brt.ConfirmOptions{ForceLabel: true})
	require.NoError(t, err)
	require.Len(t, result.Labels, 1)
	assert.Equal(t, "123000000001", result.Labels[0].ParcelID)

	req := transport.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/shipments/shipment", req.Path)

	confirm := nested(t, requestBody(t, req.Body), "confirmData")
	assert.Equal(t, float64(42), confirm["numericSenderReference"])
	// Silently cut down to the 15 characters the carrier accepts.
	assert.Equal(t, "ORDER-2026-0001", confirm["alphanumericSenderReference1"])
	assert.Equal(t, "1", confirm["isLabelRequired"])
}

func TestConfirmShipmentRequiresPositiveReference(t *testing.T) {
	transport := brt.NewRecordingTransport()
	service := newShipmentService(t, nil, transport)

	_, err := service.ConfirmShipment(context.Background(), brt.ConfirmInput{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive numeric sender reference")
	assert.Zero(t, transport.CallCount())
}

func TestUpdateShipmentCarriesOriginalReferences(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"updateResponse": {"executionMessage": {"code": 0}}
	}`))
	service := newShipmentService(t, nil, transport)

	_, err := service.UpdateShipment(context.Background(),
		brt.OriginalReferences{NumericSenderReference: 42, AlphanumericReference: "OLDREF"},
		&brt.ShipmentInput{NumericSenderReference: 43},
	)
	require.NoError(t, err)

	req := transport.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/shipments/update", req.Path)

	data := nested(t, requestBody(t, req.Body), "createData")
	assert.Equal(t, float64(42), data["originalNumericSenderReference"])
	assert.Equal(t, "OLDREF", data["originalAlphanumericSenderReference"])
	assert.Equal(t, float64(43), data["numericSenderReference"])
}

func TestDeleteShipment(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"deleteResponse": {"executionMessage": {"code": 0, "message": "DELETED"}}
	}`))
	service := newShipmentService(t, nil, transport)

	err := service.DeleteShipment(context.Background(), brt.DeleteInput{NumericSenderReference: 42})
	require.NoError(t, err)

	req := transport.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/shipments/delete", req.Path)
}

func TestDeleteShipmentRejected(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"deleteResponse": {"executionMessage": {"code": -20, "codeDesc": "ALREADY COLLECTED"}}
	}`))
	service := newShipmentService(t, nil, transport)

	err := service.DeleteShipment(context.Background(), brt.DeleteInput{NumericSenderReference: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALREADY COLLECTED")
}

func TestReprintShipmentLabel(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"confirmResponse": {
			"executionMessage": {"code": 0},
			"labels": [{"parcelID": "123000000001", "stream": "JVBERi0=", "outputType": "ZPL"}]
		}
	}`))
	service := newShipmentService(t, nil, transport)

	result, err := service.ReprintShipmentLabel(context.Background(),
		brt.ConfirmInput{NumericSenderReference: 42}, nil)
	require.NoError(t, err)
	require.Len(t, result.Labels, 1)
	assert.Equal(t, "ZPL", result.Labels[0].OutputType)

	confirm := nested(t, requestBody(t, transport.LastRequest().Body), "confirmData")
	assert.Equal(t, "1", confirm["isLabelRequired"])
}

func TestReprintShipmentLabelWithoutLabels(t *testing.T) {
	transport := brt.NewRecordingTransport(brt.JSONResult(200, `{
		"confirmResponse": {"executionMessage": {"code": 0}}
	}`))
	service := newShipmentService(t, nil, transport)

	_, err := service.ReprintShipmentLabel(context.Background(),
		brt.ConfirmInput{NumericSenderReference: 42}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no label for reference 42")
}

func TestCreateShipmentTransportFailure(t *testing.T) {
	transport := brt.NewRecordingTransport().FailWith(&brt.TransportError{
		Op: "POST /shipments/shipment", Cause: assert.AnError,
	})
	service := newShipmentService(t, nil, transport)

	_, err := service.CreateShipment(context.Background(), &brt.ShipmentInput{})
	require.Error(t, err)

	var terr *brt.TransportError
	assert.ErrorAs(t, err, &terr)
}
