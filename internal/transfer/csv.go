package transfer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// WriteCSV writes cards with the export header.
func WriteCSV(w io.Writer, cards []domain.Card) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range cards {
		if err := cw.Write(exportRecord(c)); err != nil {
			return fmt.Errorf("failed to write card %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ReadCSV reads front,back rows.
func ReadCSV(r io.Reader) (Rows, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return Rows{}, domain.Validation(fmt.Sprintf("malformed csv: %v", err))
	}
	return collectRows(records)
}
