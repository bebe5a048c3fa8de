package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// SheetName is the sheet exports are written to.
const SheetName = "Cards"

const defaultSheet = "Sheet1"

// WriteXLSX writes cards to a workbook with a single Cards sheet.
func WriteXLSX(w io.Writer, cards []domain.Card) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeSheetRow(f, 1, ExportHeader); err != nil {
		return err
	}
	for i, c := range cards {
		if err := writeSheetRow(f, i+2, exportRecord(c)); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// ReadXLSX reads front,back rows from the first sheet of a workbook.
func ReadXLSX(r io.Reader) (Rows, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Rows{}, domain.Validation(fmt.Sprintf("malformed xlsx: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Rows{}, domain.Validation("file is empty")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Rows{}, fmt.Errorf("failed to get rows: %w", err)
	}
	return collectRows(records)
}
