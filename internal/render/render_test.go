package render

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FOX2920/sf-api/internal/model"
)

func writePackingTemplate(t *testing.T, dir string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("PackingList")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	require.NoError(t, f.SetCellValue("PackingList", "A1", "Consignee: {{Shipment__c.Consignee__r.Name}}"))
	require.NoError(t, f.SetCellValue("PackingList", "A2", "No: {{Shipment__c.Invoice_Packing_list_no__c}}"))
	require.NoError(t, f.SetCellValue("PackingList", "B2", "Containers: {{TableStart:Shipment__c.r.Bookings__r}}"))
	require.NoError(t, f.SetCellValue("PackingList", "A3", "{{Shipment__c.Freight__c}}"))
	require.NoError(t, f.SetCellValue("PackingList", "A4", "Vessel: {{Shipment__c.Ocean_Vessel__c}}"))
	require.NoError(t, f.SetCellValue("PackingList", "A5", "{{TableStart:ContainerItems}}"))
	require.NoError(t, f.SetCellValue("PackingList", "A6", "Total"))
	require.NoError(t, f.SetCellFormula("PackingList", "H6", "SUM(H5:H5)"))

	require.NoError(t, f.SaveAs(filepath.Join(dir, "packing_list_template.xlsx")))
}

func writeInvoiceTemplate(t *testing.T, dir, file string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Invoice")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	require.NoError(t, f.SetCellValue("Invoice", "A1", "{{Shipment__c.Consignee__r.Name}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A2", "Origin: {{Shipment__c.Port_of_Origin__c}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A3", "{{Shipment__c.Freight__c}}"))
	require.NoError(t, f.SetCellValue("Invoice", "B3", "{{Shipment__c.Terms_of_Sales__c}}"))
	require.NoError(t, f.SetCellValue("Invoice", "C3", "{{Shipment__c.Terms_of_Payment__c}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A4", "{{TableStart:ContainerItems}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A5", `Subtotal: {{Shipment__c.Subtotal_USD__c\# #,##0.##}}`))
	require.NoError(t, f.SetCellValue("Invoice", "A6", "{{TableStart:InvoiceDeposit}}"))
	require.NoError(t, f.SetCellValue("Invoice", "B6", "{{Shipment__c.r.Receipts__r.Reconciled_Amount__c}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A7", "{{TableStart:Shipment__c.r.Cases__r}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A8", "{{TableStart:Surcharges}}"))
	require.NoError(t, f.SetCellValue("Invoice", "B8", "{{Shipment__c.Surcharge_amount_USD__c}}"))
	require.NoError(t, f.SetCellValue("Invoice", "A9", "{{Shipment__c.Unknown_Optional__c}}"))

	require.NoError(t, f.SaveAs(filepath.Join(dir, file)))
}

func sampleShipment() *model.Shipment {
	return &model.Shipment{
		ID:              "a0B000000000001",
		Name:            "SH-0042",
		Reference:       "APFL240401",
		PortOfOrigin:    "Haiphong",
		OceanVessel:     "EVER GIVEN",
		Freight:         "Prepaid",
		TermsOfSales:    "FOB",
		TermsOfPayment:  "T/T",
		Subtotal:        decimal.RequireFromString("15250.50"),
		TotalContainers: 2,
		Consignee: model.Consignee{
			Name: "Acme Trading GmbH",
		},
		Items: []model.ContainerItem{
			{Description: "Granite slabs", Quantity: "120", Unit: "pcs", Crates: 10, PackingPcsPerCrate: "12", OrderNo: "PO-1", SalesPrice: decimal.RequireFromString("52.5"), ChargeUnit: "USD/pc", TotalPrice: decimal.RequireFromString("6300"), ContainerName: "TCLU1234567"},
			{Description: "Basalt tiles", Quantity: "80", Unit: "pcs", Crates: 8, PackingPcsPerCrate: "10", OrderNo: "PO-2", TotalPrice: decimal.RequireFromString("4200"), ContainerName: "TCLU7654321"},
			{Description: "Bluestone pavers", Quantity: "60", Unit: "pcs", Crates: 6, PackingPcsPerCrate: "10", OrderNo: "PO-3", TotalPrice: decimal.RequireFromString("4750.50"), ContainerSTT: "1"},
		},
		Deposits: []model.Deposit{
			{PIName: "PI-2404", Amount: decimal.RequireFromString("5000")},
		},
		Picklists: model.Picklists{
			Freight:        []string{"Prepaid", "Collect"},
			TermsOfSales:   []string{"FOB", "CIF"},
			TermsOfPayment: []string{"T/T", "L/C"},
		},
	}
}

func fixedRenderer(t *testing.T, dir string) *Renderer {
	t.Helper()
	r := New(dir)
	r.now = func() time.Time {
		return time.Date(2024, 4, 12, 9, 30, 15, 0, time.UTC)
	}
	return r
}

func TestRenderPackingList(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)

	r := fixedRenderer(t, dir)
	res, err := r.Render(model.KindPackingList, sampleShipment())
	require.NoError(t, err)

	assert.Equal(t, "Packing_List_APFL240401_2024-04-12_09-30-15.xlsx", res.Artifact.FileName)
	assert.Equal(t, model.KindPackingList, res.Artifact.Kind)

	f, err := excelize.OpenReader(bytes.NewReader(res.Artifact.Bytes))
	require.NoError(t, err)
	defer f.Close()

	got := func(cell string) string {
		v, err := f.GetCellValue("PackingList", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Consignee: Acme Trading GmbH", got("A1"))
	assert.Equal(t, "No: APFL240401", got("A2"))
	assert.Equal(t, "2", got("B2"))
	assert.Equal(t, "☑ Prepaid\n☐ Collect", got("A3"))
	assert.Equal(t, "Vessel: EVER GIVEN", got("A4"))

	// three item rows expanded from the marker row
	assert.Equal(t, "1", got("A5"))
	assert.Equal(t, "Granite slabs", got("B5"))
	assert.Equal(t, "12 pcs/crate", got("I5"))
	assert.Equal(t, "2", got("A6"))
	assert.Equal(t, "Basalt tiles", got("B6"))
	assert.Equal(t, "3", got("A7"))

	// totals row pushed down and rewritten over the expanded range
	assert.Equal(t, "Total", got("A8"))
	formula, err := f.GetCellFormula("PackingList", "H8")
	require.NoError(t, err)
	assert.Equal(t, "SUM(H5:H7)", formula)
	formula, err = f.GetCellFormula("PackingList", "K8")
	require.NoError(t, err)
	assert.Equal(t, "COUNTA(K5:K7)", formula)
}

func TestRenderInvoice(t *testing.T) {
	dir := t.TempDir()
	writeInvoiceTemplate(t, dir, "invoice_template.xlsx")

	r := fixedRenderer(t, dir)
	res, err := r.Render(model.KindInvoice, sampleShipment())
	require.NoError(t, err)

	assert.Equal(t, "Invoice_APFL240401_2024-04-12_09-30-15.xlsx", res.Artifact.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(res.Artifact.Bytes))
	require.NoError(t, err)
	defer f.Close()

	got := func(cell string) string {
		v, err := f.GetCellValue("Invoice", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Origin: HAIPHONG", got("A2"))
	assert.Equal(t, "☑ PREPAID\n☐ COLLECT", got("A3"))
	assert.Equal(t, "☑ FOB\n☐ CIF", got("B3"))
	assert.Equal(t, "☑ T/T\n☐ L/C", got("C3"))
	// invoice uses container STT where present, container name otherwise
	assert.Equal(t, "TCLU1234567", got("H4"))
	assert.Equal(t, "52.5 USD/pc", got("I4"))
	assert.Equal(t, "1", got("H6"))

	// rows below the item table shifted down by the two inserted rows
	assert.Equal(t, "Subtotal: 15,250.50", got("A7"))

	// one deposit, no refunds, no surcharge
	assert.Equal(t, "Deduct: Deposit of PI PI-2404", got("A8"))
	assert.Equal(t, "5,000.00", got("B8"))
	assert.Equal(t, "", got("A9"))
	assert.Equal(t, "", got("A10"))
	assert.Equal(t, "", got("B10"))

	// unmapped optional placeholder scrubbed to blank
	assert.Equal(t, "", got("A11"))
}

func TestRenderSelectsFirstSheetWhenNamedSheetMissing(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "{{TableStart:ContainerItems}}"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Total"))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "packing_list_template.xlsx")))
	require.NoError(t, f.Close())

	r := fixedRenderer(t, dir)
	res, err := r.Render(model.KindPackingList, sampleShipment())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Artifact.Bytes)
}

func TestRenderTemplateNotFound(t *testing.T) {
	r := fixedRenderer(t, t.TempDir())

	_, err := r.Render(model.KindInvoice, sampleShipment())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderMissingReference(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)

	sh := sampleShipment()
	sh.Reference = ""
	sh.Name = ""

	r := fixedRenderer(t, dir)
	_, err := r.Render(model.KindPackingList, sh)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestRenderReferenceFallsBackToName(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)

	sh := sampleShipment()
	sh.Reference = ""

	r := fixedRenderer(t, dir)
	res, err := r.Render(model.KindPackingList, sh)
	require.NoError(t, err)
	assert.Equal(t, "Packing_List_SH-0042_2024-04-12_09-30-15.xlsx", res.Artifact.FileName)
}

func TestRenderMissingItemMarker(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	_, err := f.NewSheet("PackingList")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("PackingList", "A1", "no marker here"))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "packing_list_template.xlsx")))
	require.NoError(t, f.Close())

	r := fixedRenderer(t, dir)
	_, err = r.Render(model.KindPackingList, sampleShipment())
	assert.ErrorIs(t, err, ErrTemplateMarker)
}

func TestRenderUnsupportedKind(t *testing.T) {
	r := fixedRenderer(t, t.TempDir())

	_, err := r.Render(model.DocumentKind("bill_of_lading"), sampleShipment())
	assert.Error(t, err)
}

func TestRenderCombined(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)
	writeInvoiceTemplate(t, dir, "invoice_template.xlsx")

	r := fixedRenderer(t, dir)
	res, err := r.RenderCombined(sampleShipment())
	require.NoError(t, err)

	assert.Equal(t, "Combined_Export_APFL240401_2024-04-12_09-30-15.xlsx", res.Artifact.FileName)
	assert.Equal(t, model.KindCombinedExport, res.Artifact.Kind)

	f, err := excelize.OpenReader(bytes.NewReader(res.Artifact.Bytes))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Packing List", "Invoice"}, f.GetSheetList())

	v, err := f.GetCellValue("Packing List", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Consignee: Acme Trading GmbH", v)

	v, err = f.GetCellValue("Invoice", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Origin: HAIPHONG", v)

	formula, err := f.GetCellFormula("Packing List", "H8")
	require.NoError(t, err)
	assert.Equal(t, "SUM(H5:H7)", formula)
}

func TestRenderCombinedPicksDiscountInvoice(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)
	writeInvoiceTemplate(t, dir, "invoice_template_w_discount.xlsx")

	sh := sampleShipment()
	sh.DiscountPercentage = decimal.RequireFromString("5")

	r := fixedRenderer(t, dir)
	res, err := r.RenderCombined(sh)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Artifact.Bytes)
}

func TestRenderCombinedWarnsOnPrintArea(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)
	writeInvoiceTemplate(t, dir, "invoice_template.xlsx")

	f, err := excelize.OpenFile(filepath.Join(dir, "packing_list_template.xlsx"))
	require.NoError(t, err)
	require.NoError(t, f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: "PackingList!$A$1:$M$40",
		Scope:    "PackingList",
	}))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	r := fixedRenderer(t, dir)
	res, err := r.RenderCombined(sampleShipment())
	require.NoError(t, err)

	// the export succeeds, the dropped print area is reported
	assert.NotEmpty(t, res.Artifact.Bytes)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "print area")
	assert.Contains(t, res.Warnings[0], "Packing List")
}

func TestRenderCombinedCopiesWideColumnWidths(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)
	writeInvoiceTemplate(t, dir, "invoice_template.xlsx")

	f, err := excelize.OpenFile(filepath.Join(dir, "packing_list_template.xlsx"))
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("PackingList", "AB1", "Remarks"))
	require.NoError(t, f.SetColWidth("PackingList", "AB", "AB", 33))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	r := fixedRenderer(t, dir)
	res, err := r.RenderCombined(sampleShipment())
	require.NoError(t, err)

	out, err := excelize.OpenReader(bytes.NewReader(res.Artifact.Bytes))
	require.NoError(t, err)
	defer out.Close()

	v, err := out.GetCellValue("Packing List", "AB1")
	require.NoError(t, err)
	assert.Equal(t, "Remarks", v)

	w, err := out.GetColWidth("Packing List", "AB")
	require.NoError(t, err)
	assert.InDelta(t, 33, w, 0.01)
}

func TestRenderIsDeterministicOverValues(t *testing.T) {
	dir := t.TempDir()
	writePackingTemplate(t, dir)

	r := fixedRenderer(t, dir)
	first, err := r.Render(model.KindPackingList, sampleShipment())
	require.NoError(t, err)
	second, err := r.Render(model.KindPackingList, sampleShipment())
	require.NoError(t, err)

	assert.Equal(t, first.Artifact.FileName, second.Artifact.FileName)
	assert.Equal(t, sheetValues(t, first.Artifact.Bytes), sheetValues(t, second.Artifact.Bytes))
}

func sheetValues(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	return rows
}

func TestMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5000", "5,000.00"},
		{"15250.5", "15,250.50"},
		{"1234567.891", "1,234,567.89"},
		{"-9876.5", "-9,876.50"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, money(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestCheckboxText(t *testing.T) {
	got := checkboxText([]string{"Prepaid", "Collect"}, "prepaid", false)
	assert.Equal(t, "☑ Prepaid\n☐ Collect", got)

	got = checkboxText([]string{"FOB", "CIF"}, "", true)
	assert.Equal(t, "☐ FOB\n☐ CIF", got)

	assert.Empty(t, checkboxText(nil, "anything", false))
}
