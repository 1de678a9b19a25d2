package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FOX2920/sf-api/internal/model"
)

const (
	combinedPackingSheet = "Packing List"
	combinedInvoiceSheet = "Invoice"
)

// RenderCombined renders the packing list and the invoice (discount variant
// when the shipment carries one) and assembles both into a single two-sheet
// workbook. Sheet-level settings that cannot be copied, such as print areas,
// are reported as warnings instead of failing the export.
func (r *Renderer) RenderCombined(sh *model.Shipment) (*Result, error) {
	packing, packingSheet, err := r.renderSheet(model.KindPackingList, sh)
	if err != nil {
		return nil, err
	}
	defer packing.Close()

	invoiceKind := model.KindInvoice
	if sh.HasDiscount() {
		invoiceKind = model.KindInvoiceWithDiscount
	}
	invoice, invoiceSheet, err := r.renderSheet(invoiceKind, sh)
	if err != nil {
		return nil, err
	}
	defer invoice.Close()

	out := excelize.NewFile()
	defer out.Close()

	var warnings []string
	for _, src := range []struct {
		file  *excelize.File
		sheet string
		dest  string
	}{
		{packing, packingSheet, combinedPackingSheet},
		{invoice, invoiceSheet, combinedInvoiceSheet},
	} {
		w, err := copySheet(src.file, src.sheet, out, src.dest)
		if err != nil {
			return nil, fmt.Errorf("copy sheet %s: %w", src.dest, err)
		}
		warnings = append(warnings, w...)
	}
	if err := out.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	return r.finish(out, "Combined_Export", model.KindCombinedExport, sh, warnings)
}

// renderSheet runs the normal pipeline for one kind but hands back the open
// workbook instead of serializing it.
func (r *Renderer) renderSheet(kind model.DocumentKind, sh *model.Shipment) (*excelize.File, string, error) {
	spec, ok := lookup(kind)
	if !ok {
		return nil, "", fmt.Errorf("unsupported document kind %q", kind)
	}
	if sh.DocumentReference() == "" {
		return nil, "", fmt.Errorf("%w: invoice/packing list number", ErrMissingField)
	}

	f, sheet, err := r.open(spec)
	if err != nil {
		return nil, "", err
	}
	if err := applySpec(f, sheet, spec, sh); err != nil {
		f.Close()
		return nil, "", err
	}
	return f, sheet, nil
}

// copySheet clones one sheet into dst cell by cell: values, formulas, styles,
// merges, column widths and row heights. Styles are re-created in dst and
// cached by source style id.
func copySheet(src *excelize.File, srcSheet string, dst *excelize.File, dstSheet string) ([]string, error) {
	if _, err := dst.NewSheet(dstSheet); err != nil {
		return nil, err
	}

	rows, err := src.GetRows(srcSheet)
	if err != nil {
		return nil, err
	}

	styleCache := map[int]int{}
	for ri, row := range rows {
		for ci := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, err
			}
			if err := copyCell(src, srcSheet, dst, dstSheet, cell, styleCache); err != nil {
				return nil, err
			}
		}
	}

	merges, err := src.GetMergeCells(srcSheet)
	if err != nil {
		return nil, err
	}
	for _, m := range merges {
		if err := dst.MergeCell(dstSheet, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return nil, err
		}
	}

	if err := copyDimensions(src, srcSheet, dst, dstSheet, rows); err != nil {
		return nil, err
	}

	var warnings []string
	for _, dn := range src.GetDefinedName() {
		if dn.Name == "_xlnm.Print_Area" && strings.Contains(dn.RefersTo, quoteSheet(srcSheet)) {
			warnings = append(warnings, fmt.Sprintf("print area for sheet %s not carried over", dstSheet))
		}
	}
	return warnings, nil
}

func copyCell(src *excelize.File, srcSheet string, dst *excelize.File, dstSheet, cell string, styleCache map[int]int) error {
	formula, err := src.GetCellFormula(srcSheet, cell)
	if err != nil {
		return err
	}
	if formula != "" {
		if err := dst.SetCellFormula(dstSheet, cell, formula); err != nil {
			return err
		}
	} else {
		raw, err := src.GetCellValue(srcSheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			return err
		}
		if raw != "" {
			ct, err := src.GetCellType(srcSheet, cell)
			if err != nil {
				return err
			}
			var v any = raw
			if ct == excelize.CellTypeNumber || ct == excelize.CellTypeUnset {
				if n, err := strconv.ParseFloat(raw, 64); err == nil {
					v = n
				}
			}
			if err := dst.SetCellValue(dstSheet, cell, v); err != nil {
				return err
			}
		}
	}

	styleID, err := src.GetCellStyle(srcSheet, cell)
	if err != nil {
		return err
	}
	if styleID == 0 {
		return nil
	}
	dstStyle, ok := styleCache[styleID]
	if !ok {
		st, err := src.GetStyle(styleID)
		if err != nil {
			return err
		}
		dstStyle, err = dst.NewStyle(st)
		if err != nil {
			return err
		}
		styleCache[styleID] = dstStyle
	}
	return dst.SetCellStyle(dstSheet, cell, cell, dstStyle)
}

// copyDimensions carries column widths and row heights over. The extent is
// the larger of the populated cell range and the sheet's dimension reference,
// so widths set on columns past the last value still transfer.
func copyDimensions(src *excelize.File, srcSheet string, dst *excelize.File, dstSheet string, rows [][]string) error {
	colCount, rowCount := 1, len(rows)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if dim, err := src.GetSheetDimension(srcSheet); err == nil {
		ref := dim
		if i := strings.IndexByte(dim, ':'); i >= 0 {
			ref = dim[i+1:]
		}
		if c, r, err := excelize.CellNameToCoordinates(ref); err == nil {
			if c > colCount {
				colCount = c
			}
			if r > rowCount {
				rowCount = r
			}
		}
	}

	for c := 1; c <= colCount; c++ {
		col, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		w, err := src.GetColWidth(srcSheet, col)
		if err != nil {
			return err
		}
		if err := dst.SetColWidth(dstSheet, col, col, w); err != nil {
			return err
		}
	}
	for r := 1; r <= rowCount; r++ {
		h, err := src.GetRowHeight(srcSheet, r)
		if err != nil {
			return err
		}
		if err := dst.SetRowHeight(dstSheet, r, h); err != nil {
			return err
		}
	}
	return nil
}

func quoteSheet(sheet string) string {
	if strings.ContainsAny(sheet, " '") {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet
}
