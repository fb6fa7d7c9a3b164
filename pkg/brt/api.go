package brt

import "encoding/json"

// accountBlock carries the account credentials every shipment-side payload
// must embed.
type accountBlock struct {
	UserID   string `json:"userID"`
	Password string `json:"password"`
}

// createData is the carrier-shaped shipment attribute block shared by the
// create, routing, and update payloads. Field names follow the carrier's
// REST contract, quirks included.
type createData struct {
	Network                  string `json:"network,omitempty"`
	DepartureDepot           string `json:"departureDepot,omitempty"`
	SenderCustomerCode       string `json:"senderCustomerCode,omitempty"`
	DeliveryFreightTypeCode  string `json:"deliveryFreightTypeCode,omitempty"`
	PricingConditionCode     string `json:"pricingConditionCode,omitempty"`
	ServiceType              string `json:"serviceType,omitempty"`
	PudoID                   string `json:"pudoId,omitempty"`
	ConsigneeCompanyName     string `json:"consigneeCompanyName,omitempty"`
	ConsigneeAddress         string `json:"consigneeAddress,omitempty"`
	ConsigneeZIPCode         string `json:"consigneeZIPCode,omitempty"`
	ConsigneeCity            string `json:"consigneeCity,omitempty"`
	ConsigneeProvince        string `json:"consigneeProvinceAbbreviation,omitempty"`
	ConsigneeCountry         string `json:"consigneeCountryAbbreviationISOAlpha2,omitempty"`
	ConsigneeContactName     string `json:"consigneeContactName,omitempty"`
	ConsigneeTelephone       string `json:"consigneeTelephone,omitempty"`
	ConsigneeEMail           string `json:"consigneeEMail,omitempty"`
	ConsigneeMobilePhone     string `json:"consigneeMobilePhoneNumber,omitempty"`
	IsAlertRequired          string `json:"isAlertRequired,omitempty"`
	NumberOfParcels          int    `json:"numberOfParcels"`
	WeightKG                 float64 `json:"weightKG"`
	VolumeM3                 float64 `json:"volumeM3"`
	NumberOfPallets          int    `json:"numberOfPallets,omitempty"`
	NumericSenderReference   int64  `json:"numericSenderReference,omitempty"`
	AlphanumericReference    string `json:"alphanumericSenderReference1,omitempty"`
	AlphanumericReference2   string `json:"alphanumericSenderReference2,omitempty"`
	Notes                    string `json:"notes,omitempty"`
	CashOnDelivery           float64 `json:"cashOnDelivery,omitempty"`
	CODCurrency              string `json:"codCurrency,omitempty"`
	IsCODMandatory           string `json:"isCODMandatory,omitempty"`
	CODPaymentType           string `json:"codPaymentType,omitempty"`
	InsuranceAmount          float64 `json:"insuranceAmount,omitempty"`
	InsuranceCurrency        string `json:"insuranceAmountCurrency,omitempty"`
	DeclaredParcelValue      float64 `json:"declaredParcelValue,omitempty"`
	ReturnDepot              string `json:"returnDepot,omitempty"`
	CMRCode                  string `json:"cmrCode,omitempty"`
	ActualSenderName         string `json:"actualSenderName,omitempty"`
	ActualSenderAddress      string `json:"actualSenderAddress,omitempty"`
	ActualSenderZIPCode      string `json:"actualSenderZIPCode,omitempty"`
	ActualSenderCity         string `json:"actualSenderCity,omitempty"`
	ActualSenderProvince     string `json:"actualSenderProvinceAbbreviation,omitempty"`
	ActualSenderCountry      string `json:"actualSenderCountryAbbreviationISOAlpha2,omitempty"`
	IsDeclaredActualSender   string `json:"isDeclaredActualSender,omitempty"`

	// Original references are only present on update payloads.
	OriginalNumericReference      int64  `json:"originalNumericSenderReference,omitempty"`
	OriginalAlphanumericReference string `json:"originalAlphanumericSenderReference,omitempty"`

	LabelParameters *labelParameters `json:"labelParameters,omitempty"`
}

// labelParameters is the carrier-shaped label rendering block. The carrier
// wants its booleans as "1"/"0" strings.
type labelParameters struct {
	OutputType              string `json:"outputType,omitempty"`
	OffsetX                 int    `json:"offsetX,omitempty"`
	OffsetY                 int    `json:"offsetY,omitempty"`
	IsBorderRequired        string `json:"isBorderRequired,omitempty"`
	IsLogoRequired          string `json:"isLogoRequired,omitempty"`
	IsBarcodeControlRow     string `json:"isBarcodeControlRowRequired,omitempty"`
}

// shipmentPayload wraps account credentials and shipment data the way the
// create/confirm/update endpoints expect.
type shipmentPayload struct {
	Account accountBlock `json:"account"`
	Data    *createData  `json:"createData,omitempty"`
	Confirm *confirmData `json:"confirmData,omitempty"`
	Delete  *deleteData  `json:"deleteData,omitempty"`
}

// confirmData is the reference block sent on confirm.
type confirmData struct {
	NumericSenderReference int64            `json:"numericSenderReference"`
	AlphanumericReference  string           `json:"alphanumericSenderReference1,omitempty"`
	CMRCode                string           `json:"cmrCode,omitempty"`
	IsLabelRequired        string           `json:"isLabelRequired,omitempty"`
	LabelParameters        *labelParameters `json:"labelParameters,omitempty"`
}

// deleteData is the reference-only block sent on delete.
type deleteData struct {
	NumericSenderReference int64  `json:"numericSenderReference"`
	AlphanumericReference  string `json:"alphanumericSenderReference1,omitempty"`
}

// ShipmentLabel is one rendered label returned by the carrier.
type ShipmentLabel struct {
	ParcelID   string `json:"parcelID"`
	Stream     string `json:"stream"`
	DataLength int    `json:"dataLength"`
	OutputType string `json:"outputType"`
}

// LabelSet tolerates the two label shapes seen on the wire: a plain array
// and an object wrapping the array under a "label" key.
type LabelSet []ShipmentLabel

func (s *LabelSet) UnmarshalJSON(data []byte) error {
	var plain []ShipmentLabel
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = plain
		return nil
	}
	var wrapped struct {
		Label []ShipmentLabel `json:"label"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*s = wrapped.Label
	return nil
}

// ShipmentResult is the normalized outcome of a create, confirm, or update
// call.
type ShipmentResult struct {
	ExecutionMessage *ExecutionMessage `json:"executionMessage"`
	ParcelNumberFrom int64             `json:"parcelNumberFrom"`
	ParcelNumberTo   int64             `json:"parcelNumberTo"`
	ArrivalTerminal  string            `json:"arrivalTerminal"`
	ArrivalDepot     string            `json:"arrivalDepot"`
	DeliveryZone     string            `json:"deliveryZone"`
	SeriesComplete   string            `json:"seriesComplete"`
	Labels           LabelSet          `json:"labels"`
}

// RoutingResult is the outcome of a routing quote.
type RoutingResult struct {
	ExecutionMessage *ExecutionMessage `json:"executionMessage"`
	ArrivalTerminal  string            `json:"arrivalTerminal"`
	ArrivalDepot     string            `json:"arrivalDepot"`
	DeliveryZone     string            `json:"deliveryZone"`
	Network          string            `json:"network"`
	TransitDays      int               `json:"transitDays"`
	PricingCondition string            `json:"pricingConditionCode"`
}

// DeleteResult is the outcome of a delete call.
type DeleteResult struct {
	ExecutionMessage *ExecutionMessage `json:"executionMessage"`
}

// Wire envelopes. Each operation wraps its payload under a distinct key;
// a missing key means the response shape is not the documented one.
type createEnvelope struct {
	CreateResponse *ShipmentResult `json:"createResponse"`
}

type routingEnvelope struct {
	RoutingResponse *RoutingResult `json:"routingResponse"`
}

type confirmEnvelope struct {
	ConfirmResponse *ShipmentResult `json:"confirmResponse"`
}

type updateEnvelope struct {
	UpdateResponse *ShipmentResult `json:"updateResponse"`
}

type deleteEnvelope struct {
	DeleteResponse *DeleteResult `json:"deleteResponse"`
}
