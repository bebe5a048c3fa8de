// Package transfer reads and writes cards as CSV and XLSX files.
//
// Exports carry the columns id, deck_id, front, back and created_at with a
// header row. Imports take two columns, front and back. A first row whose
// first cell is a known column name is treated as a header; any other
// first row is data.
package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Format is a supported file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ExportHeader is the header row of every export.
var ExportHeader = []string{"id", "deck_id", "front", "back", "created_at"}

// frontHeaders are the first-cell values that mark a header row on import.
var frontHeaders = map[string]bool{
	"front":    true,
	"question": true,
	"soru":     true,
	"on":       true,
	"ön":       true,
}

// Rows is the result of reading an import file.
type Rows struct {
	Cards   []domain.CardInput
	Skipped int
}

// FormatOf returns the format for a file name by its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	}
	return "", domain.Validation("only .csv and .xlsx files are supported")
}

// ReadFile reads an import file, choosing the format by extension.
func ReadFile(path string) (Rows, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Rows{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Rows{}, domain.NotFound("file not found: " + path)
		}
		return Rows{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if format == XLSX {
		return ReadXLSX(f)
	}
	return ReadCSV(f)
}

// WriteFile exports cards to path, choosing the format by extension.
// Missing parent directories are created.
func WriteFile(path string, cards []domain.Card) (err error) {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if format == XLSX {
		return WriteXLSX(f, cards)
	}
	return WriteCSV(f, cards)
}

// collectRows applies the header and skip rules to raw records.
func collectRows(records [][]string) (Rows, error) {
	if len(records) == 0 {
		return Rows{}, domain.Validation("file is empty")
	}
	if first := records[0]; len(first) > 0 && isHeader(first[0]) {
		records = records[1:]
	}

	var rows Rows
	for _, rec := range records {
		if len(rec) < 2 {
			rows.Skipped++
			continue
		}
		front, back := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if front == "" || back == "" {
			rows.Skipped++
			continue
		}
		rows.Cards = append(rows.Cards, domain.CardInput{Front: front, Back: back})
	}
	return rows, nil
}

func isHeader(cell string) bool {
	cell = strings.TrimPrefix(cell, "\ufeff")
	return frontHeaders[strings.ToLower(strings.TrimSpace(cell))]
}

// exportRecord is the string form of a card in export column order.
func exportRecord(c domain.Card) []string {
	created := ""
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(c.ID, 10),
		strconv.FormatInt(c.DeckID, 10),
		c.Front,
		c.Back,
		created,
	}
}
