package model

import "github.com/shopspring/decimal"

// Shipment aggregates everything read from the CRM that a generated document
// can reference: the shipment record itself, the consignee account, container
// line items, and the invoice-side deposit/refund records.
// These are pure domain models with no transport-specific dependencies or tags.
type Shipment struct {
	ID               string
	Name             string
	Reference        string // invoice/packing-list number; falls back to Name
	IssuedDate       string
	PortOfOrigin     string
	FinalDestination string
	Stockyard        string
	OceanVessel      string
	BLNo             string
	Freight          string
	DepartureETD     string
	ArrivalETA       string
	RemarkNo         string
	TermsOfSales     string
	TermsOfPayment   string
	Fumigation       string
	InWords          string

	Subtotal           decimal.Decimal
	TotalPrice         decimal.Decimal
	SurchargeAmount    decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal

	Consignee       Consignee
	TotalContainers float64 // summed over bookings
	Items           []ContainerItem
	Deposits        []Deposit
	Refunds         []Refund
	Picklists       Picklists
}

// DocumentReference is the identifier stamped into generated file names.
func (s *Shipment) DocumentReference() string {
	if s.Reference != "" {
		return s.Reference
	}
	return s.Name
}

// HasDiscount reports whether the shipment carries any discount, which selects
// the discount variant of the invoice template.
func (s *Shipment) HasDiscount() bool {
	return !s.DiscountPercentage.IsZero() || !s.DiscountAmount.IsZero()
}

// Consignee is the billing account the shipment is addressed to.
type Consignee struct {
	Name              string
	BillingStreet     string
	BillingCity       string
	BillingPostalCode string
	BillingCountry    string
	Phone             string
	Fax               string
	VAT               string
}

// ContainerItem is one printable line of the shipment. Fields ending in
// "ForPrint" on the CRM side are already strings; dimensions stay numeric so
// the spreadsheet keeps them as numbers.
type ContainerItem struct {
	LineNo             string
	Description        string
	Length             float64
	Width              float64
	Height             float64
	Quantity           string
	Unit               string
	Crates             float64
	PackingPcsPerCrate string
	OrderNo            string

	SalesPrice decimal.Decimal
	ChargeUnit string
	TotalPrice decimal.Decimal

	ContainerName             string
	ContainerWeightRegulation string
	ContainerSTT              string
}

// Deposit is a receipt reconciliation deducted on the invoice.
type Deposit struct {
	PIName string
	Amount decimal.Decimal
}

// Refund is a case-backed refund shown on the invoice.
type Refund struct {
	Reason string
	Amount decimal.Decimal
}

// Picklists carries the active option sets rendered as checkbox blocks.
// They are fetched per request; an empty slice renders nothing.
type Picklists struct {
	Freight        []string
	TermsOfSales   []string
	TermsOfPayment []string
}
