package brt

import "strings"

// Service codes that must declare who physically hands the goods to the
// carrier (shop pickup and shop return flows).
const (
	ServiceShopPickup = "B15"
	ServiceShopReturn = "R93"
)

var servicesRequiringActualSender = map[string]bool{
	ServiceShopPickup: true,
	ServiceShopReturn: true,
}

// Consignee holds the recipient fields of a shipment.
type Consignee struct {
	CompanyName string
	Address     string
	ZIPCode     string
	City        string
	Province    string
	Country     string
	ContactName string
	Telephone   string
	EMail       string
	MobilePhone string
}

// ActualSender identifies who physically hands the goods to the carrier
// when it differs from the account holder.
type ActualSender struct {
	Name     string
	Address  string
	ZIPCode  string
	City     string
	Province string
	Country  string
}

func (a ActualSender) isZero() bool {
	return strings.TrimSpace(a.Name) == "" &&
		strings.TrimSpace(a.Address) == "" &&
		strings.TrimSpace(a.ZIPCode) == "" &&
		strings.TrimSpace(a.City) == ""
}

// LabelOptions overrides the configured label defaults for one call.
type LabelOptions struct {
	OutputType string
	OffsetX    int
	OffsetY    int
	Border     bool
	Logo       bool
	Barcode    bool
}

// ShipmentInput is the caller-supplied shipment attribute set. Numeric
// quantities are strings as they arrive from the booking forms; comma
// decimals are accepted and empty values fall back to the configured
// defaults.
type ShipmentInput struct {
	Network                 string
	DepartureDepot          string
	SenderCustomerCode      string
	DeliveryFreightTypeCode string
	PricingConditionCode    string
	ServiceType             string
	PudoID                  string

	Consignee Consignee

	NumberOfParcels string
	WeightKG        string
	VolumeM3        string
	NumberOfPallets string

	NumericSenderReference int64
	AlphanumericReference  string
	AlphanumericReference2 string
	Notes                  string

	CashOnDelivery string
	CODCurrency    string
	IsCODMandatory bool
	CODPaymentType string

	InsuranceAmount     string
	InsuranceCurrency   string
	DeclaredParcelValue string
	ReturnDepot         string
	IsAlertRequired     bool

	ActualSender ActualSender

	Label *LabelOptions
}

// boolFlag renders a boolean the way the carrier wants it.
func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// buildCreateData merges caller input over the configured defaults into a
// carrier-shaped attribute block. Precedence: explicit input, per-network
// config, global config, literal fallback. withContact toggles the fields
// the routing endpoint does not accept (consignee contacts, notes, labels).
func (s *ShipmentService) buildCreateData(input *ShipmentInput, withContact bool) (*createData, error) {
	network := SanitizeNetworkCode(input.Network)
	if network == "" {
		network = SanitizeNetworkCode(s.cfg.DefaultNetwork())
	}

	depot := firstNonEmpty(input.DepartureDepot)
	if depot == "" {
		var err error
		if depot, err = s.cfg.DepartureDepot(); err != nil {
			return nil, err
		}
	}

	senderCode := firstNonEmpty(input.SenderCustomerCode)
	if senderCode == "" {
		var err error
		if senderCode, err = s.cfg.SenderCustomerCode(); err != nil {
			return nil, err
		}
	}

	serviceType := firstNonEmpty(input.ServiceType, s.cfg.DefaultServiceType())
	country := strings.ToUpper(firstNonEmpty(input.Consignee.Country, s.cfg.DefaultCountry()))

	data := &createData{
		Network:                 network,
		DepartureDepot:          depot,
		SenderCustomerCode:      senderCode,
		DeliveryFreightTypeCode: firstNonEmpty(input.DeliveryFreightTypeCode, s.cfg.DefaultFreightType()),
		PricingConditionCode:    firstNonEmpty(input.PricingConditionCode, s.cfg.PricingConditionCode(network)),
		ServiceType:             serviceType,
		PudoID:                  firstNonEmpty(input.PudoID, s.cfg.DefaultPudoID()),
		ConsigneeCompanyName:    input.Consignee.CompanyName,
		ConsigneeAddress:        input.Consignee.Address,
		ConsigneeZIPCode:        input.Consignee.ZIPCode,
		ConsigneeCity:           input.Consignee.City,
		ConsigneeProvince:       input.Consignee.Province,
		ConsigneeCountry:        country,
		NumberOfParcels:         parseCount(input.NumberOfParcels),
		WeightKG:                parseDecimal(input.WeightKG),
		VolumeM3:                parseDecimal(input.VolumeM3),
		NumericSenderReference:  input.NumericSenderReference,
		AlphanumericReference:   truncate(input.AlphanumericReference, 15),
		AlphanumericReference2:  truncate(input.AlphanumericReference2, 15),
		CashOnDelivery:          parseDecimal(input.CashOnDelivery),
		InsuranceAmount:         parseDecimal(input.InsuranceAmount),
		DeclaredParcelValue:     parseDecimal(input.DeclaredParcelValue),
		ReturnDepot:             input.ReturnDepot,
	}

	if n := parseCount(input.NumberOfPallets); input.NumberOfPallets != "" && n > 0 {
		data.NumberOfPallets = n
	}
	if data.CashOnDelivery > 0 {
		data.CODCurrency = firstNonEmpty(input.CODCurrency, "EUR")
		data.IsCODMandatory = boolFlag(input.IsCODMandatory)
		data.CODPaymentType = input.CODPaymentType
	}
	if data.InsuranceAmount > 0 {
		data.InsuranceCurrency = firstNonEmpty(input.InsuranceCurrency, "EUR")
	}

	if withContact {
		data.ConsigneeContactName = input.Consignee.ContactName
		data.ConsigneeTelephone = input.Consignee.Telephone
		data.ConsigneeEMail = input.Consignee.EMail
		data.ConsigneeMobilePhone = input.Consignee.MobilePhone
		data.Notes = input.Notes
		if input.IsAlertRequired {
			data.IsAlertRequired = "1"
		}
		if input.Label != nil || s.cfg.AutoConfirm() {
			data.LabelParameters = s.labelBlock(input.Label)
		}
	}

	if err := s.applyActualSender(data, input); err != nil {
		return nil, err
	}

	return data, nil
}

// applyActualSender enforces the shop pickup/return rule: those services
// must declare the actual sender, back-filled from the consignee when the
// caller did not provide one.
func (s *ShipmentService) applyActualSender(data *createData, input *ShipmentInput) error {
	sender := input.ActualSender
	required := servicesRequiringActualSender[data.ServiceType]

	if sender.isZero() {
		if !required {
			return nil
		}
		sender = ActualSender{
			Name:     input.Consignee.CompanyName,
			Address:  input.Consignee.Address,
			ZIPCode:  input.Consignee.ZIPCode,
			City:     input.Consignee.City,
			Province: input.Consignee.Province,
			Country:  input.Consignee.Country,
		}
	}

	if required && strings.TrimSpace(sender.Name) == "" {
		return newIntegrationError("create shipment",
			"service %s requires actual sender data and none could be assembled", data.ServiceType)
	}

	data.ActualSenderName = sender.Name
	data.ActualSenderAddress = sender.Address
	data.ActualSenderZIPCode = sender.ZIPCode
	data.ActualSenderCity = sender.City
	data.ActualSenderProvince = sender.Province
	data.ActualSenderCountry = strings.ToUpper(firstNonEmpty(sender.Country, s.cfg.DefaultCountry()))
	data.IsDeclaredActualSender = "1"
	return nil
}

// labelBlock merges explicit label options over the configured defaults.
func (s *ShipmentService) labelBlock(opt *LabelOptions) *labelParameters {
	defaults := s.cfg.LabelDefaults()
	block := &labelParameters{
		OutputType:          defaults.OutputType,
		OffsetX:             defaults.OffsetX,
		OffsetY:             defaults.OffsetY,
		IsBorderRequired:    boolFlag(defaults.Border),
		IsLogoRequired:      boolFlag(defaults.Logo),
		IsBarcodeControlRow: boolFlag(defaults.Barcode),
	}
	if opt == nil {
		return block
	}
	if opt.OutputType != "" {
		block.OutputType = opt.OutputType
	}
	if opt.OffsetX != 0 {
		block.OffsetX = opt.OffsetX
	}
	if opt.OffsetY != 0 {
		block.OffsetY = opt.OffsetY
	}
	block.IsBorderRequired = boolFlag(opt.Border)
	block.IsLogoRequired = boolFlag(opt.Logo)
	block.IsBarcodeControlRow = boolFlag(opt.Barcode)
	return block
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
