// Package export renders the staff directory as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/garnizeh/staffdir/pkg/models"
)

// SheetName is the worksheet holding the directory.
const SheetName = "Staff"

// Headers are the column titles, in column order.
var Headers = []string{
	"รหัส",
	"ชื่อ-สกุล",
	"ตำแหน่ง",
	"สังกัดโรงเรียน",
	"วิชาเอก",
	"สอนรายวิชา",
	"เบอร์ติดต่อ",
	"รูปภาพ",
}

// WriteXLSX writes one header row and one row per record to w.
func WriteXLSX(w io.Writer, records []models.Staff) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID,
			r.FullName,
			r.Position,
			r.SchoolAffiliation,
			r.MajorSubject,
			r.TeachingSubjects,
			r.ContactNumber,
			r.PhotoPath,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "G", 24); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
