// Package render turns spreadsheet templates plus shipment data into finished
// workbook byte streams. Templates carry {{...}} placeholders and table
// markers; the renderer writes values only and never touches cell number
// formats, so the templates keep full control over presentation.
package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FOX2920/sf-api/internal/model"
)

var (
	// ErrTemplateNotFound means the template resource for a document kind is
	// absent from the template directory.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrMissingField means a required shipment attribute is absent; optional
	// fields render blank instead.
	ErrMissingField = errors.New("required shipment field missing")
	// ErrTemplateMarker means a template and its mapping table disagree
	// (missing item-table marker or totals row). This is a packaging defect,
	// not a data problem.
	ErrTemplateMarker = errors.New("template marker missing")
)

var placeholderRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// Result is a finished render: the artifact plus any non-fatal warnings
// collected along the way.
type Result struct {
	Artifact model.GeneratedArtifact
	Warnings []string
}

// Renderer loads templates from a directory and populates them.
// It is stateless apart from configuration and safe for concurrent use.
type Renderer struct {
	dir string
	now func() time.Time
}

// New creates a Renderer reading templates from templateDir.
func New(templateDir string) *Renderer {
	return &Renderer{dir: templateDir, now: time.Now}
}

// MissingTemplates reports which template files are absent from the template
// directory. Readiness checks use it to fail before the first generation does.
func (r *Renderer) MissingTemplates() []string {
	var missing []string
	for _, kind := range []model.DocumentKind{model.KindPackingList, model.KindInvoice, model.KindInvoiceWithDiscount} {
		spec := specs[kind]
		if _, err := os.Stat(filepath.Join(r.dir, spec.File)); err != nil {
			missing = append(missing, spec.File)
		}
	}
	return missing
}

// Render produces a single-sheet document of the given kind for the shipment.
func (r *Renderer) Render(kind model.DocumentKind, sh *model.Shipment) (*Result, error) {
	spec, ok := lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unsupported document kind %q", kind)
	}
	if sh.DocumentReference() == "" {
		return nil, fmt.Errorf("%w: invoice/packing list number", ErrMissingField)
	}

	f, sheet, err := r.open(spec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := applySpec(f, sheet, spec, sh); err != nil {
		return nil, err
	}
	return r.finish(f, spec.Label, kind, sh, nil)
}

func (r *Renderer) open(spec TemplateSpec) (*excelize.File, string, error) {
	path := filepath.Join(r.dir, spec.File)
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, "", fmt.Errorf("open template %s: %w", path, err)
	}

	sheet := spec.Sheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetList()[0]
	}
	return f, sheet, nil
}

func (r *Renderer) finish(f *excelize.File, label string, kind model.DocumentKind, sh *model.Shipment, warnings []string) (*Result, error) {
	ts := r.now()
	name := fmt.Sprintf("%s_%s_%s.xlsx", label, sh.DocumentReference(), ts.Format("2006-01-02_15-04-05"))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return &Result{
		Artifact: model.GeneratedArtifact{
			Bytes:       buf.Bytes(),
			FileName:    name,
			Kind:        kind,
			ShipmentID:  sh.ID,
			GeneratedAt: ts,
		},
		Warnings: warnings,
	}, nil
}

// applySpec runs the full population pipeline on one sheet.
func applySpec(f *excelize.File, sheet string, spec TemplateSpec, sh *model.Shipment) error {
	if err := replacePlaceholders(f, sheet, spec, sh); err != nil {
		return err
	}
	if err := applyCheckboxes(f, sheet, spec, sh); err != nil {
		return err
	}
	markerRow, n, err := expandItems(f, sheet, spec, sh)
	if err != nil {
		return err
	}
	if len(spec.Totals) > 0 {
		if err := applyTotals(f, sheet, spec, markerRow, n); err != nil {
			return err
		}
	}
	if spec.InvoiceSections {
		if err := applyInvoiceSections(f, sheet, sh); err != nil {
			return err
		}
	}
	return scrubResidual(f, sheet)
}

func replacePlaceholders(f *excelize.File, sheet string, spec TemplateSpec, sh *model.Shipment) error {
	values := placeholderValues(sh, spec)

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for ri, row := range rows {
		for ci, cv := range row {
			if !strings.Contains(cv, "{{") {
				continue
			}
			nv := cv
			for ph, val := range values {
				nv = strings.ReplaceAll(nv, ph, val)
			}
			if strings.Contains(nv, bookingsMarker) {
				nv = strconv.FormatFloat(sh.TotalContainers, 'f', -1, 64)
			}
			if nv == cv {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, nv); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyCheckboxes(f *excelize.File, sheet string, spec TemplateSpec, sh *model.Shipment) error {
	for _, cb := range spec.Checkboxes {
		text := checkboxText(cb.Options(sh.Picklists), cb.Selected(sh), cb.Uppercase)

		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for ri, row := range rows {
			for ci, cv := range row {
				if !strings.Contains(cv, cb.Placeholder) {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, strings.ReplaceAll(cv, cb.Placeholder, text)); err != nil {
					return err
				}
				if err := setWrapText(f, sheet, cell); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// expandItems duplicates the marker row (preserving its formatting) until the
// table fits every line item, then fills the mapped columns. It returns the
// 1-based first data row and the number of data rows.
func expandItems(f *excelize.File, sheet string, spec TemplateSpec, sh *model.Shipment) (int, int, error) {
	markerRow, err := findRow(f, sheet, itemTableMarker)
	if err != nil {
		return 0, 0, err
	}
	if markerRow == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrTemplateMarker, itemTableMarker)
	}

	n := len(sh.Items)
	if n < 1 {
		n = 1
	}
	for i := 1; i < n; i++ {
		if err := f.DuplicateRowTo(sheet, markerRow, markerRow+i); err != nil {
			return 0, 0, fmt.Errorf("expand item table: %w", err)
		}
	}

	for idx, it := range sh.Items {
		rowN := markerRow + idx
		for _, col := range spec.ItemColumns {
			cell := col.Col + strconv.Itoa(rowN)
			if err := f.SetCellValue(sheet, cell, col.Value(it, idx)); err != nil {
				return 0, 0, err
			}
		}
	}
	return markerRow, n, nil
}

func applyTotals(f *excelize.File, sheet string, spec TemplateSpec, markerRow, n int) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	totalRow := 0
	for i := markerRow + n; i <= len(rows); i++ {
		row := rows[i-1]
		if len(row) > 0 && strings.TrimSpace(row[0]) == "Total" {
			totalRow = i
			break
		}
	}
	if totalRow == 0 {
		return fmt.Errorf("%w: totals row", ErrTemplateMarker)
	}

	first, last := markerRow, markerRow+n-1
	for _, tc := range spec.Totals {
		formula := fmt.Sprintf("%s(%s%d:%s%d)", tc.Formula, tc.Col, first, tc.Col, last)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", tc.Col, totalRow), formula); err != nil {
			return err
		}
	}
	return nil
}

// applyInvoiceSections fills (or clears) the deposit, refund and surcharge
// blocks below the item table. Absent records clear the block; amounts are
// newline-aligned with their labels.
func applyInvoiceSections(f *excelize.File, sheet string, sh *model.Shipment) error {
	var depositText, depositAmount, refund, surchargeText, surchargeAmount string

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for ri, row := range rows {
		for ci, cv := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return err
			}
			switch {
			case strings.Contains(cv, "{{TableStart:InvoiceDeposit}}"):
				depositText = cell
			case strings.Contains(cv, "Reconciled_Amount__c"):
				depositAmount = cell
			case strings.Contains(cv, "{{TableStart:Shipment__c.r.Cases__r}}"):
				refund = cell
			case strings.Contains(cv, "{{TableStart:Surcharges}}"):
				surchargeText = cell
			case strings.Contains(cv, "Surcharge_amount_USD__c"):
				surchargeAmount = cell
			}
		}
	}

	if depositText != "" && depositAmount != "" {
		if len(sh.Deposits) > 0 {
			labels := make([]string, 0, len(sh.Deposits))
			amounts := make([]string, 0, len(sh.Deposits))
			for _, dep := range sh.Deposits {
				labels = append(labels, strings.TrimSpace("Deduct: Deposit of PI "+dep.PIName))
				amounts = append(amounts, money(dep.Amount))
			}
			if err := f.SetCellValue(sheet, depositText, strings.Join(labels, "\n")); err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, depositAmount, strings.Join(amounts, "\n")); err != nil {
				return err
			}
		} else {
			for _, cell := range []string{depositText, depositAmount} {
				if err := f.SetCellValue(sheet, cell, nil); err != nil {
					return err
				}
			}
		}
	}

	if refund != "" {
		if len(sh.Refunds) > 0 {
			lines := make([]string, 0, len(sh.Refunds))
			for _, rf := range sh.Refunds {
				line := rf.Reason
				if !rf.Amount.IsZero() {
					line = strings.TrimSpace(rf.Reason + " " + money(rf.Amount))
				}
				lines = append(lines, line)
			}
			if err := f.SetCellValue(sheet, refund, strings.Join(lines, "\n")); err != nil {
				return err
			}
		} else if err := f.SetCellValue(sheet, refund, nil); err != nil {
			return err
		}
	}

	if surchargeText != "" || surchargeAmount != "" {
		hasSurcharge := !sh.SurchargeAmount.IsZero()
		if surchargeText != "" {
			v := any(nil)
			if hasSurcharge {
				v = "Surcharge:"
			}
			if err := f.SetCellValue(sheet, surchargeText, v); err != nil {
				return err
			}
		}
		if surchargeAmount != "" {
			v := any(nil)
			if hasSurcharge {
				v = money(sh.SurchargeAmount)
			}
			if err := f.SetCellValue(sheet, surchargeAmount, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// scrubResidual blanks any placeholder tokens that survived the earlier
// passes; optional fields default to blank rather than leaking tags.
func scrubResidual(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for ri, row := range rows {
		for ci, cv := range row {
			if !strings.Contains(cv, "{{") {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return err
			}
			nv := placeholderRe.ReplaceAllString(cv, "")
			var v any = nv
			if strings.TrimSpace(nv) == "" {
				v = nil
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// findRow returns the 1-based row of the first cell containing marker, or 0.
func findRow(f *excelize.File, sheet, marker string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for ri, row := range rows {
		for _, cv := range row {
			if strings.Contains(cv, marker) {
				return ri + 1, nil
			}
		}
	}
	return 0, nil
}

// setWrapText enables wrapping on one cell without disturbing the rest of its
// style. Used for checkbox blocks, which are multi-line.
func setWrapText(f *excelize.File, sheet, cell string) error {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	st, err := f.GetStyle(styleID)
	if err != nil {
		return err
	}
	if st.Alignment == nil {
		st.Alignment = &excelize.Alignment{}
	}
	st.Alignment.WrapText = true

	newID, err := f.NewStyle(st)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, newID)
}
