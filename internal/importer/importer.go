// Package importer reads decks from spreadsheets (.xlsx) and CSV files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/knol"
	"github.com/xuri/excelize/v2"
)

// Options selects where card fields live in the sheet.
type Options struct {
	SheetName     string // Sheet to read; empty means the first sheet
	FrontColumn   string // Column with the card front, e.g. "A"
	BackColumn    string // Column with the card back
	ContextColumn string // Optional column with context; empty to skip
	StartRow      int    // First row to import (1-based)
}

// DefaultOptions reads fronts from A, backs from B and context from C,
// skipping a header row.
func DefaultOptions() Options {
	return Options{
		FrontColumn:   "A",
		BackColumn:    "B",
		ContextColumn: "C",
		StartRow:      2,
	}
}

// Result holds the outcome of an import.
type Result struct {
	Cards     []domain.Card
	Processed int
	Skipped   int
	Errors    []string
}

// Import reads cards from an .xlsx or .csv file. Card IDs are content hashes.
// It returns domain.ErrEmptyImport when no row produced a card.
func Import(path string, opts Options) (*Result, error) {
	var rows [][]string
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(path, opts.SheetName)
	default:
		return nil, fmt.Errorf("unsupported import format %q", ext)
	}
	if err != nil {
		return nil, err
	}

	res, err := fromRows(rows, opts)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return res, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fromRows(rows [][]string, opts Options) (*Result, error) {
	frontIdx, err := columnToIndex(opts.FrontColumn)
	if err != nil {
		return nil, err
	}
	backIdx, err := columnToIndex(opts.BackColumn)
	if err != nil {
		return nil, err
	}
	ctxIdx := -1
	if opts.ContextColumn != "" {
		if ctxIdx, err = columnToIndex(opts.ContextColumn); err != nil {
			return nil, err
		}
	}
	start := opts.StartRow
	if start < 1 {
		start = 1
	}

	res := &Result{Errors: make([]string, 0)}
	var cards []domain.Card
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < start || blank(row) {
			continue
		}
		res.Processed++

		card := domain.Card{
			Front:   cell(row, frontIdx),
			Back:    cell(row, backIdx),
			Context: cell(row, ctxIdx),
		}
		if card.Front == "" || card.Back == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: front and back are required", rowNum))
			continue
		}
		cards = append(cards, card)
	}

	res.Cards = knol.AssignIDs(cards)
	res.Skipped += len(cards) - len(res.Cards)
	if len(res.Cards) == 0 {
		return res, domain.ErrEmptyImport
	}
	return res, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnToIndex converts a column letter ("A", "AB") into a 0-based index.
func columnToIndex(col string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(col))
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", col, err)
	}
	return n - 1, nil
}
