// Package repository defines read access to shipment data. Implementations
// live in subpackages; services depend only on these interfaces.
package repository

import (
	"context"
	"errors"

	"github.com/FOX2920/sf-api/internal/model"
)

// ErrNotFound means the shipment id does not exist in the CRM.
var ErrNotFound = errors.New("shipment not found")

// ShipmentRepository loads the full shipment aggregate needed to render
// documents: the record, consignee, container items, deposits and refunds.
type ShipmentRepository interface {
	GetShipment(ctx context.Context, id string) (*model.Shipment, error)
}

// PicklistSource resolves the active option values of a picklist field.
// Failures here degrade to empty checkbox blocks, not failed documents.
type PicklistSource interface {
	PicklistValues(ctx context.Context, objectType, field string) ([]string, error)
}
