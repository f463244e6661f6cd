package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/knol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCSV(t *testing.T) {
	path := writeCSV(t, `front,back,context
France,Paris,Europe
Japan,Tokyo

Peru,,South America
"Quoted, front",Answer
France,Paris,Europe
`)

	res, err := Import(path, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Cards, 3)

	assert.Equal(t, "France", res.Cards[0].Front)
	assert.Equal(t, "Paris", res.Cards[0].Back)
	assert.Equal(t, "Europe", res.Cards[0].Context)
	assert.Equal(t, knol.Hash(res.Cards[0]), res.Cards[0].ID)
	assert.Equal(t, "", res.Cards[1].Context)
	assert.Equal(t, "Quoted, front", res.Cards[2].Front)

	assert.Equal(t, 5, res.Processed)
	assert.Equal(t, 2, res.Skipped, "one row without a back and one duplicate")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Row 4", "csv reader skips the blank line")
}

func TestImportXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := "Vocabulary"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(sheet, "B1", "word"))
	require.NoError(t, f.SetCellValue(sheet, "D1", "meaning"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "hund"))
	require.NoError(t, f.SetCellValue(sheet, "D2", "dog"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "katze"))
	require.NoError(t, f.SetCellValue(sheet, "D3", "cat"))

	path := filepath.Join(t.TempDir(), "deck.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	res, err := Import(path, Options{SheetName: sheet, FrontColumn: "B", BackColumn: "D", StartRow: 2})
	require.NoError(t, err)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, "hund", res.Cards[0].Front)
	assert.Equal(t, "dog", res.Cards[0].Back)
	assert.Equal(t, "cat", res.Cards[1].Back)
}

func TestImportXLSX_FirstSheetByDefault(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "front"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "back"))
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	opts := DefaultOptions()
	opts.StartRow = 1
	res, err := Import(path, opts)
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
}

func TestImportErrors(t *testing.T) {
	_, err := Import("deck.json", DefaultOptions())
	assert.Error(t, err)

	_, err = Import(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	assert.Error(t, err)

	empty := writeCSV(t, "front,back\n")
	_, err = Import(empty, DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrEmptyImport)

	opts := DefaultOptions()
	opts.FrontColumn = "1"
	_, err = Import(writeCSV(t, "a,b\nc,d\n"), opts)
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	idx, err := columnToIndex("A")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = columnToIndex("AB")
	require.NoError(t, err)
	assert.Equal(t, 27, idx)
}
