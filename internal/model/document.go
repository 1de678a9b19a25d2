package model

import "time"

// DocumentKind identifies one of the supported generated document types.
// New kinds are added by registering a template spec, not by new code paths.
type DocumentKind string

const (
	KindPackingList         DocumentKind = "packing_list"
	KindInvoice             DocumentKind = "invoice"
	KindInvoiceWithDiscount DocumentKind = "invoice_with_discount"
	KindCombinedExport      DocumentKind = "combined_export"
)

// GeneratedArtifact is a rendered spreadsheet plus its canonical name.
// FileName follows {Label}_{Reference}_{Timestamp}.xlsx with second-resolution
// timestamps; two generations for the same shipment within the same second
// produce the same name.
type GeneratedArtifact struct {
	Bytes       []byte
	FileName    string
	Kind        DocumentKind
	ShipmentID  string
	GeneratedAt time.Time
}
