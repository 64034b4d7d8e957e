// Package formatter renders pipeline results as the two-tab call sheet workbook
// and as plain-text previews.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/pkg/metadata"
)

// Sheet names.
const (
	PhoneSheet = "Phone"
	EmailSheet = "Email"
)

const (
	tableStyle     = "TableStyleMedium9"
	bodyFontSize   = 14
	phoneFontSize  = 24
	phoneColWidth  = 30
	emailColWidth  = 25
	minColWidth    = 14
	minTimezoneCol = 13
	headerPadding  = 5
	rowHeight      = 36
	linkColor      = "0563C1"
)

// ErrNilTable is returned when a sheet has no table to render.
var ErrNilTable = errors.New("workbook sheet table is nil")

// Workbook is everything needed to render the output file.
type Workbook struct {
	Phone          *models.Table
	Email          *models.Table
	PhoneColumns   []string
	AddressColumns []string
	FirstName      string
	TimezoneColumn string
	Metadata       *metadata.Metadata
}

type styles struct {
	body, header, phone, link int
}

// WriteFile renders wb to path, creating the directory if needed.
func WriteFile(path string, wb Workbook) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}

	if err := Write(out, wb); err != nil {
		out.Close()
		os.Remove(path)

		return err
	}

	return out.Close()
}

// Write renders wb as XLSX to w.
func Write(w io.Writer, wb Workbook) error {
	if wb.Phone == nil || wb.Email == nil {
		return ErrNilTable
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", PhoneSheet); err != nil {
		return fmt.Errorf("failed to name phone sheet: %w", err)
	}

	if _, err := f.NewSheet(EmailSheet); err != nil {
		return fmt.Errorf("failed to add email sheet: %w", err)
	}

	if err := writePhoneSheet(f, wb, st); err != nil {
		return err
	}

	if err := writeEmailSheet(f, wb, st); err != nil {
		return err
	}

	if wb.Metadata != nil {
		if err := f.SetDocProps(&excelize.DocProperties{
			Title:       "Cleaned leads: " + wb.Metadata.Source,
			Description: wb.Metadata.String(),
			Creator:     "leads-reformat",
			Version:     wb.Metadata.Version,
			Created:     wb.Metadata.LastModify.Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("failed to set document properties: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// ReadMetadata returns the run metadata stored in a workbook written by Write.
func ReadMetadata(path string) (*metadata.Metadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	props, err := f.GetDocProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read document properties: %w", err)
	}

	return metadata.Extract(props.Description)
}

func newStyles(f *excelize.File) (styles, error) {
	defs := []*excelize.Style{
		{Font: &excelize.Font{Size: bodyFontSize}},
		{Font: &excelize.Font{Size: bodyFontSize, Bold: true}},
		{Font: &excelize.Font{Size: phoneFontSize}},
		{Font: &excelize.Font{Size: bodyFontSize, Color: linkColor, Underline: "single"}},
	}

	ids := make([]int, len(defs))

	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, fmt.Errorf("failed to create style: %w", err)
		}

		ids[i] = id
	}

	return styles{body: ids[0], header: ids[1], phone: ids[2], link: ids[3]}, nil
}

func writePhoneSheet(f *excelize.File, wb Workbook, st styles) error {
	tbl := wb.Phone

	phone := make(map[string]bool, len(wb.PhoneColumns))
	for _, c := range wb.PhoneColumns {
		phone[c] = true
	}

	if err := writeRows(f, PhoneSheet, tbl); err != nil {
		return err
	}

	for i, col := range tbl.Header {
		var (
			width float64
			style int
		)

		switch {
		case col == wb.FirstName:
			width, style = float64(max(maxWidth(tbl, i), minColWidth)), st.body
		case phone[col]:
			width, style = phoneColWidth, st.phone
		case col == wb.TimezoneColumn && wb.TimezoneColumn != "":
			width, style = float64(max(maxWidth(tbl, i), minTimezoneCol)), 0
		default:
			width = float64(max(maxWidth(tbl, i), runewidth.StringWidth(col)+headerPadding, minColWidth))
		}

		if err := formatColumn(f, PhoneSheet, i+1, tbl.Len(), width, style); err != nil {
			return err
		}
	}

	return finishSheet(f, PhoneSheet, "PhoneTable", tbl, st)
}

func writeEmailSheet(f *excelize.File, wb Workbook, st styles) error {
	tbl := wb.Email

	address := make(map[string]bool, len(wb.AddressColumns))
	for _, c := range wb.AddressColumns {
		address[c] = true
	}

	if err := writeRows(f, EmailSheet, tbl); err != nil {
		return err
	}

	firstWidth := minColWidth
	if idx := tbl.Index(wb.FirstName); idx >= 0 {
		firstWidth = max(maxWidth(tbl, idx), minColWidth)
	}

	for i, col := range tbl.Header {
		width := float64(firstWidth)
		if i == 1 || i == 2 || address[col] {
			width = emailColWidth
		}

		if err := formatColumn(f, EmailSheet, i+1, tbl.Len(), width, st.body); err != nil {
			return err
		}

		if !address[col] {
			continue
		}

		for r, row := range tbl.Rows {
			if row[i] == "" {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}

			if err := f.SetCellHyperLink(EmailSheet, cell, "mailto:"+row[i], "External"); err != nil {
				return fmt.Errorf("failed to link %s: %w", cell, err)
			}

			if err := f.SetCellStyle(EmailSheet, cell, cell, st.link); err != nil {
				return fmt.Errorf("failed to style %s: %w", cell, err)
			}
		}
	}

	return finishSheet(f, EmailSheet, "EmailTable", tbl, st)
}

func writeRows(f *excelize.File, sheet string, tbl *models.Table) error {
	header := make([]interface{}, len(tbl.Header))
	for i, h := range tbl.Header {
		header[i] = h
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for r, row := range tbl.Rows {
		cells := make([]interface{}, len(tbl.Header))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+1, err)
		}
	}

	return nil
}

// formatColumn sets width and, when style is non-zero, the body style of data rows.
func formatColumn(f *excelize.File, sheet string, col, rows int, width float64, style int) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, name, name, width); err != nil {
		return fmt.Errorf("failed to size column %s: %w", name, err)
	}

	if style == 0 || rows == 0 {
		return nil
	}

	if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, rows+1), style); err != nil {
		return fmt.Errorf("failed to style column %s: %w", name, err)
	}

	return nil
}

func finishSheet(f *excelize.File, sheet, tableName string, tbl *models.Table, st styles) error {
	if len(tbl.Header) == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(tbl.Header), max(tbl.Len()+1, 2))
	if err != nil {
		return err
	}

	if err := f.AddTable(sheet, &excelize.Table{
		Range:     "A1:" + last,
		Name:      tableName,
		StyleName: tableStyle,
	}); err != nil {
		return fmt.Errorf("failed to add %s table: %w", sheet, err)
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(tbl.Header), 1)
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, "A1", lastHeader, st.header); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for row := 1; row <= tbl.Len()+1; row++ {
		if err := f.SetRowHeight(sheet, row, rowHeight); err != nil {
			return fmt.Errorf("failed to set %s row height: %w", sheet, err)
		}
	}

	return nil
}

// maxWidth is the widest display width in column i, header excluded.
func maxWidth(tbl *models.Table, i int) int {
	widest := 0

	for _, row := range tbl.Rows {
		if i < len(row) {
			widest = max(widest, runewidth.StringWidth(row[i]))
		}
	}

	return widest
}
