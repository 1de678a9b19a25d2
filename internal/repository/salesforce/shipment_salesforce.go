// Package salesforce implements the shipment repository against the CRM REST
// API. Relationship fields come back as nested generic maps, so most of this
// package is typed extraction from simpleforce records.
package salesforce

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simpleforce/simpleforce"

	"github.com/FOX2920/sf-api/internal/model"
	"github.com/FOX2920/sf-api/internal/repository"
)

// querier is the slice of the CRM client this repository needs.
type querier interface {
	Query(soql string) (*simpleforce.QueryResult, error)
	Describe(objectType string) *simpleforce.SObjectMeta
}

// idPattern matches 15 or 18 character Salesforce record ids. Ids are
// interpolated into SOQL, so anything else is rejected up front.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9]{15,18}$`)

// ShipmentRepository reads shipment aggregates from the CRM.
type ShipmentRepository struct {
	client querier
}

// NewShipmentRepository wires a repository over an authenticated client.
func NewShipmentRepository(client querier) *ShipmentRepository {
	return &ShipmentRepository{client: client}
}

// GetShipment loads the shipment record plus its consignee account, container
// items, booking totals, deposits and refunds. A missing record id maps to
// repository.ErrNotFound.
func (r *ShipmentRepository) GetShipment(ctx context.Context, id string) (*model.Shipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: invalid id %q", repository.ErrNotFound, id)
	}

	record, err := r.queryOne(fmt.Sprintf(`SELECT Id, Name, Consignee__c, Invoice_Packing_list_no__c, Issued_date__c,
		Port_of_Origin__c, Final_Destination__c, Stockyard__c, Ocean_Vessel__c, B_L_No__c, Freight__c,
		Departure_Date_ETD__c, Arrival_Schedule_ETA__c, Remark_number_on_documents__c,
		Terms_of_Sales__c, Terms_of_Payment__c, Subtotal_USD__c, Fumigation__c, In_words__c,
		Total_Price_USD__c, Surcharge_amount_USD__c, Discount_Percentage__c, Discount_Amount__c
		FROM Shipment__c WHERE Id = '%s'`, id))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	sh := &model.Shipment{
		ID:               id,
		Name:             str(record, "Name"),
		Reference:        str(record, "Invoice_Packing_list_no__c"),
		IssuedDate:       str(record, "Issued_date__c"),
		PortOfOrigin:     str(record, "Port_of_Origin__c"),
		FinalDestination: str(record, "Final_Destination__c"),
		Stockyard:        str(record, "Stockyard__c"),
		OceanVessel:      str(record, "Ocean_Vessel__c"),
		BLNo:             str(record, "B_L_No__c"),
		Freight:          str(record, "Freight__c"),
		DepartureETD:     str(record, "Departure_Date_ETD__c"),
		ArrivalETA:       str(record, "Arrival_Schedule_ETA__c"),
		RemarkNo:         str(record, "Remark_number_on_documents__c"),
		TermsOfSales:     str(record, "Terms_of_Sales__c"),
		TermsOfPayment:   str(record, "Terms_of_Payment__c"),
		Fumigation:       str(record, "Fumigation__c"),
		InWords:          str(record, "In_words__c"),

		Subtotal:           dec(record, "Subtotal_USD__c"),
		TotalPrice:         dec(record, "Total_Price_USD__c"),
		SurchargeAmount:    dec(record, "Surcharge_amount_USD__c"),
		DiscountPercentage: dec(record, "Discount_Percentage__c"),
		DiscountAmount:     dec(record, "Discount_Amount__c"),
	}

	if consigneeID := str(record, "Consignee__c"); consigneeID != "" {
		consignee, err := r.fetchConsignee(consigneeID)
		if err != nil {
			return nil, err
		}
		sh.Consignee = consignee
	}

	if sh.TotalContainers, err = r.fetchContainerTotal(id); err != nil {
		return nil, err
	}
	if sh.Items, err = r.fetchItems(id); err != nil {
		return nil, err
	}
	if sh.Deposits, err = r.fetchDeposits(id); err != nil {
		return nil, err
	}
	if sh.Refunds, err = r.fetchRefunds(id); err != nil {
		return nil, err
	}
	return sh, nil
}

func (r *ShipmentRepository) fetchConsignee(accountID string) (model.Consignee, error) {
	if !idPattern.MatchString(accountID) {
		return model.Consignee{}, nil
	}
	record, err := r.queryOne(fmt.Sprintf(`SELECT Name, BillingStreet, BillingCity, BillingPostalCode,
		BillingCountry, Phone, Fax__c, VAT__c FROM Account WHERE Id = '%s'`, accountID))
	if err != nil || record == nil {
		return model.Consignee{}, err
	}
	return model.Consignee{
		Name:              str(record, "Name"),
		BillingStreet:     str(record, "BillingStreet"),
		BillingCity:       str(record, "BillingCity"),
		BillingPostalCode: str(record, "BillingPostalCode"),
		BillingCountry:    str(record, "BillingCountry"),
		Phone:             str(record, "Phone"),
		Fax:               str(record, "Fax__c"),
		VAT:               str(record, "VAT__c"),
	}, nil
}

func (r *ShipmentRepository) fetchContainerTotal(shipmentID string) (float64, error) {
	result, err := r.client.Query(fmt.Sprintf(
		`SELECT Id, Cont_Quantity__c FROM Booking__c WHERE Shipment__c = '%s'`, shipmentID))
	if err != nil {
		return 0, fmt.Errorf("query bookings: %w", err)
	}
	var total float64
	for _, rec := range result.Records {
		total += num(rec, "Cont_Quantity__c")
	}
	return total, nil
}

func (r *ShipmentRepository) fetchItems(shipmentID string) ([]model.ContainerItem, error) {
	result, err := r.client.Query(fmt.Sprintf(`SELECT Line_item_no_for_print__c, Product_Description__c,
		Length__c, Width__c, Height__c, Quantity_For_print__c, Unit_for_print__c,
		Crates__c, Packing__c, Order_No__c, Sales_Price_USD__c, Charge_Unit__c, Total_Price_USD__c,
		Container__r.Name, Container__r.Container_Weight_Regulation__c, Container__r.STT_Cont__c
		FROM Container_Item__c WHERE Shipment__c = '%s' ORDER BY Line_item_no_for_print__c`, shipmentID))
	if err != nil {
		return nil, fmt.Errorf("query container items: %w", err)
	}

	items := make([]model.ContainerItem, 0, len(result.Records))
	for _, rec := range result.Records {
		container := sub(rec, "Container__r")
		items = append(items, model.ContainerItem{
			LineNo:             str(rec, "Line_item_no_for_print__c"),
			Description:        str(rec, "Product_Description__c"),
			Length:             num(rec, "Length__c"),
			Width:              num(rec, "Width__c"),
			Height:             num(rec, "Height__c"),
			Quantity:           str(rec, "Quantity_For_print__c"),
			Unit:               str(rec, "Unit_for_print__c"),
			Crates:             num(rec, "Crates__c"),
			PackingPcsPerCrate: str(rec, "Packing__c"),
			OrderNo:            str(rec, "Order_No__c"),

			SalesPrice: dec(rec, "Sales_Price_USD__c"),
			ChargeUnit: str(rec, "Charge_Unit__c"),
			TotalPrice: dec(rec, "Total_Price_USD__c"),

			ContainerName:             str(container, "Name"),
			ContainerWeightRegulation: str(container, "Container_Weight_Regulation__c"),
			ContainerSTT:              str(container, "STT_Cont__c"),
		})
	}
	return items, nil
}

func (r *ShipmentRepository) fetchDeposits(shipmentID string) ([]model.Deposit, error) {
	result, err := r.client.Query(fmt.Sprintf(
		`SELECT Contract_PI__r.Name, Reconciled_Amount__c FROM Receipt_Reconciliation__c WHERE Invoice__c = '%s'`,
		shipmentID))
	if err != nil {
		return nil, fmt.Errorf("query deposits: %w", err)
	}

	deposits := make([]model.Deposit, 0, len(result.Records))
	for _, rec := range result.Records {
		deposits = append(deposits, model.Deposit{
			PIName: str(sub(rec, "Contract_PI__r"), "Name"),
			Amount: dec(rec, "Reconciled_Amount__c"),
		})
	}
	return deposits, nil
}

func (r *ShipmentRepository) fetchRefunds(shipmentID string) ([]model.Refund, error) {
	result, err := r.client.Query(fmt.Sprintf(
		`SELECT Reason, Refund_Amount__c FROM Case WHERE Refund_in_Shipment__c = '%s'`, shipmentID))
	if err != nil {
		return nil, fmt.Errorf("query refunds: %w", err)
	}

	refunds := make([]model.Refund, 0, len(result.Records))
	for _, rec := range result.Records {
		refunds = append(refunds, model.Refund{
			Reason: str(rec, "Reason"),
			Amount: dec(rec, "Refund_Amount__c"),
		})
	}
	return refunds, nil
}

func (r *ShipmentRepository) queryOne(soql string) (simpleforce.SObject, error) {
	result, err := r.client.Query(soql)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return result.Records[0], nil
}

// PicklistValues reads the active options of a picklist field from the object
// describe. A non-picklist or unknown field yields an empty set.
func (r *ShipmentRepository) PicklistValues(ctx context.Context, objectType, field string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta := r.client.Describe(objectType)
	if meta == nil {
		return nil, fmt.Errorf("describe %s: no metadata", objectType)
	}

	fields, ok := (*meta)["fields"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("describe %s: malformed field list", objectType)
	}
	for _, raw := range fields {
		fm, ok := raw.(map[string]interface{})
		if !ok || fm["name"] != field {
			continue
		}
		typ, _ := fm["type"].(string)
		if typ != "picklist" && typ != "multipicklist" {
			return nil, nil
		}
		options, _ := fm["picklistValues"].([]interface{})
		values := make([]string, 0, len(options))
		for _, rawOpt := range options {
			opt, ok := rawOpt.(map[string]interface{})
			if !ok {
				continue
			}
			if active, _ := opt["active"].(bool); !active {
				continue
			}
			if v, _ := opt["value"].(string); v != "" {
				values = append(values, v)
			}
		}
		return values, nil
	}
	return nil, nil
}

// str reads a string field; nil and non-string values read as "".
func str(rec map[string]interface{}, key string) string {
	if rec == nil {
		return ""
	}
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return ""
	}
}

// num reads a numeric field; nil reads as 0.
func num(rec map[string]interface{}, key string) float64 {
	if rec == nil {
		return 0
	}
	if v, ok := rec[key].(float64); ok {
		return v
	}
	return 0
}

// dec reads a numeric field as a decimal, avoiding float formatting drift in
// money amounts.
func dec(rec map[string]interface{}, key string) decimal.Decimal {
	if rec == nil {
		return decimal.Zero
	}
	switch v := rec[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// sub reads a nested relationship record.
func sub(rec map[string]interface{}, key string) map[string]interface{} {
	if rec == nil {
		return nil
	}
	if v, ok := rec[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
