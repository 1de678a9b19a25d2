package render

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FOX2920/sf-api/internal/model"
)

// TemplateSpec binds a document kind to its template resource and the
// declarative mapping tables used to populate it. Specs are static, read-only
// configuration; adding a document kind means adding an entry here and the
// matching template file, versioned together.
type TemplateSpec struct {
	Kind  model.DocumentKind
	File  string // template file, relative to the template directory
	Sheet string // preferred sheet; falls back to the first sheet
	Label string // file-name prefix, e.g. "Packing_List"

	// UppercaseOrigin renders the port of origin in capitals (invoice style).
	UppercaseOrigin bool
	// PlainTerms renders terms of sales/payment as plain text instead of
	// checkbox blocks (packing list style).
	PlainTerms bool
	// InvoiceSections enables the deposit/refund/surcharge blocks.
	InvoiceSections bool

	ItemColumns []ItemColumn
	Totals      []TotalColumn
	Checkboxes  []CheckboxField
}

// ItemColumn maps one spreadsheet column of the expanded item table to a
// line-item value. A nil value leaves the cell blank.
type ItemColumn struct {
	Col   string
	Value func(it model.ContainerItem, idx int) any
}

// TotalColumn rewrites a totals-row formula to cover the expanded item range.
type TotalColumn struct {
	Col     string
	Formula string // "SUM" or "COUNTA"
}

// CheckboxField replaces a placeholder with a checkbox block built from a
// picklist option set, marking the shipment's selected value.
type CheckboxField struct {
	Placeholder string
	Options     func(p model.Picklists) []string
	Selected    func(s *model.Shipment) string
	Uppercase   bool
}

const (
	itemTableMarker = "{{TableStart:ContainerItems}}"
	bookingsMarker  = "{{TableStart:Shipment__c.r.Bookings__r}}"

	checkedBox   = "☑"
	uncheckedBox = "☐"
)

func lineNo(it model.ContainerItem, idx int) any {
	if it.LineNo != "" {
		return it.LineNo
	}
	return strconv.Itoa(idx + 1)
}

// nz keeps zero-valued dimensions blank instead of printing 0.
func nz(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nzDec(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.InexactFloat64()
}

var packingItemColumns = []ItemColumn{
	{"A", lineNo},
	{"B", func(it model.ContainerItem, _ int) any { return it.Description }},
	{"C", func(it model.ContainerItem, _ int) any { return nz(it.Length) }},
	{"D", func(it model.ContainerItem, _ int) any { return nz(it.Width) }},
	{"E", func(it model.ContainerItem, _ int) any { return nz(it.Height) }},
	{"F", func(it model.ContainerItem, _ int) any { return it.Quantity }},
	{"G", func(it model.ContainerItem, _ int) any { return it.Unit }},
	{"H", func(it model.ContainerItem, _ int) any { return nz(it.Crates) }},
	{"I", func(it model.ContainerItem, _ int) any { return it.PackingPcsPerCrate + " pcs/crate" }},
	{"J", func(it model.ContainerItem, _ int) any { return it.ContainerWeightRegulation }},
	{"K", func(it model.ContainerItem, _ int) any { return it.ContainerName }},
	{"M", func(it model.ContainerItem, _ int) any { return it.OrderNo }},
}

var invoiceItemColumns = []ItemColumn{
	{"A", lineNo},
	{"B", func(it model.ContainerItem, _ int) any { return it.Description }},
	{"C", func(it model.ContainerItem, _ int) any { return nz(it.Length) }},
	{"D", func(it model.ContainerItem, _ int) any { return nz(it.Width) }},
	{"E", func(it model.ContainerItem, _ int) any { return nz(it.Height) }},
	{"F", func(it model.ContainerItem, _ int) any { return it.Quantity }},
	{"G", func(it model.ContainerItem, _ int) any { return it.Unit }},
	{"H", func(it model.ContainerItem, _ int) any {
		if it.ContainerSTT != "" {
			return it.ContainerSTT
		}
		return it.ContainerName
	}},
	{"I", func(it model.ContainerItem, _ int) any {
		price := ""
		if !it.SalesPrice.IsZero() {
			price = it.SalesPrice.String()
		}
		return strings.TrimSpace(price + " " + it.ChargeUnit)
	}},
	{"J", func(it model.ContainerItem, _ int) any { return nzDec(it.TotalPrice) }},
	{"K", func(it model.ContainerItem, _ int) any { return it.OrderNo }},
}

var freightCheckbox = func(upper bool) CheckboxField {
	return CheckboxField{
		Placeholder: "{{Shipment__c.Freight__c}}",
		Options:     func(p model.Picklists) []string { return p.Freight },
		Selected:    func(s *model.Shipment) string { return s.Freight },
		Uppercase:   upper,
	}
}

var invoiceCheckboxes = []CheckboxField{
	freightCheckbox(true),
	{
		Placeholder: "{{Shipment__c.Terms_of_Sales__c}}",
		Options:     func(p model.Picklists) []string { return p.TermsOfSales },
		Selected:    func(s *model.Shipment) string { return s.TermsOfSales },
		Uppercase:   true,
	},
	{
		Placeholder: "{{Shipment__c.Terms_of_Payment__c}}",
		Options:     func(p model.Picklists) []string { return p.TermsOfPayment },
		Selected:    func(s *model.Shipment) string { return s.TermsOfPayment },
		Uppercase:   true,
	},
}

var specs = map[model.DocumentKind]TemplateSpec{
	model.KindPackingList: {
		Kind:        model.KindPackingList,
		File:        "packing_list_template.xlsx",
		Sheet:       "PackingList",
		Label:       "Packing_List",
		PlainTerms:  true,
		ItemColumns: packingItemColumns,
		Totals: []TotalColumn{
			{Col: "H", Formula: "SUM"},
			{Col: "J", Formula: "SUM"},
			{Col: "K", Formula: "COUNTA"},
		},
		Checkboxes: []CheckboxField{freightCheckbox(false)},
	},
	model.KindInvoice: {
		Kind:            model.KindInvoice,
		File:            "invoice_template.xlsx",
		Sheet:           "Invoice",
		Label:           "Invoice",
		UppercaseOrigin: true,
		InvoiceSections: true,
		ItemColumns:     invoiceItemColumns,
		Checkboxes:      invoiceCheckboxes,
	},
	model.KindInvoiceWithDiscount: {
		Kind:            model.KindInvoiceWithDiscount,
		File:            "invoice_template_w_discount.xlsx",
		Sheet:           "Invoice",
		Label:           "Invoice",
		UppercaseOrigin: true,
		InvoiceSections: true,
		ItemColumns:     invoiceItemColumns,
		Checkboxes:      invoiceCheckboxes,
	},
}

func lookup(kind model.DocumentKind) (TemplateSpec, bool) {
	s, ok := specs[kind]
	return s, ok
}

// placeholderValues builds the placeholder→value table for one render.
// Placeholders claimed by checkbox fields are excluded; the checkbox pass
// owns them because it also has to turn on cell wrapping.
func placeholderValues(sh *model.Shipment, spec TemplateSpec) map[string]string {
	origin := sh.PortOfOrigin
	if spec.UppercaseOrigin {
		origin = strings.ToUpper(origin)
	}

	values := map[string]string{
		"{{Shipment__c.Consignee__r.Name}}":              sh.Consignee.Name,
		"{{Shipment__c.Consignee__r.BillingStreet}}":     sh.Consignee.BillingStreet,
		"{{Shipment__c.Consignee__r.BillingCity}}":       sh.Consignee.BillingCity,
		"{{Shipment__c.Consignee__r.BillingPostalCode}}": sh.Consignee.BillingPostalCode,
		"{{Shipment__c.Consignee__r.BillingCountry}}":    sh.Consignee.BillingCountry,
		"{{Shipment__c.Consignee__r.Phone}}":             sh.Consignee.Phone,
		"{{Shipment__c.Consignee__r.Fax__c}}":            sh.Consignee.Fax,
		"{{Shipment__c.Consignee__r.VAT__c}}":            sh.Consignee.VAT,
		"{{Shipment__c.Invoice_Packing_list_no__c}}":     sh.Reference,
		"{{Shipment__c.Issued_date__c}}":                 sh.IssuedDate,
		"{{Shipment__c.Port_of_Origin__c}}":              origin,
		"{{Shipment__c.Final_Destination__c}}":           sh.FinalDestination,
		"{{Shipment__c.Stockyard__c}}":                   sh.Stockyard,
		"{{Shipment__c.Ocean_Vessel__c}}":                sh.OceanVessel,
		"{{Shipment__c.B_L_No__c}}":                      sh.BLNo,
		"{{Shipment__c.Departure_Date_ETD__c}}":          sh.DepartureETD,
		"{{Shipment__c.Arrival_Schedule_ETA__c}}":        sh.ArrivalETA,
		"{{Shipment__c.Remark_number_on_documents__c}}":  sh.RemarkNo,
		"{{Shipment__c.Fumigation__c}}":                  sh.Fumigation,
		"{{Shipment__c.In_words__c}}":                    sh.InWords,

		`{{Shipment__c.Subtotal_USD__c\# #,##0.##}}`:    money(sh.Subtotal),
		`{{Shipment__c.Total_Price_USD__c\# #,##0.##}}`: money(sh.TotalPrice),
		"{{Shipment__c.Discount_Percentage__c}}":        discountPct(sh.DiscountPercentage),
		`{{Shipment__c.Discount_Amount__c\# #,##0.##}}`: money(sh.DiscountAmount),
	}

	if spec.PlainTerms {
		values["{{Shipment__c.Terms_of_Sales__c}}"] = sh.TermsOfSales
		values["{{Shipment__c.Terms_of_Payment__c}}"] = sh.TermsOfPayment
	}

	for _, cb := range spec.Checkboxes {
		delete(values, cb.Placeholder)
	}
	return values
}

func discountPct(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// money renders a decimal with thousand separators and two decimals,
// matching the templates' #,##0.00 display convention.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// checkboxText formats a picklist option set as a checkbox block with the
// selected value marked. Comparison is case-insensitive.
func checkboxText(options []string, selected string, uppercase bool) string {
	sel := strings.ToUpper(strings.TrimSpace(selected))
	lines := make([]string, 0, len(options))
	for _, opt := range options {
		mark := uncheckedBox
		if strings.ToUpper(opt) == sel {
			mark = checkedBox
		}
		display := opt
		if uppercase {
			display = strings.ToUpper(opt)
		}
		lines = append(lines, mark+" "+display)
	}
	return strings.Join(lines, "\n")
}
