package excel

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ardiansyahn/crm-backoffice/internal"
)

// ImportResult summarizes one import batch. Rows missing required
// fields are skipped and counted, never abort the batch.
type ImportResult struct {
	Valid   int
	Invalid int
}

// readRows opens the workbook and returns all rows of its first sheet.
func readRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, internal.NewValidationError("file is not a readable workbook", internal.ErrCodeValidationFailed).WithCause(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, internal.NewValidationError("workbook has no sheets", internal.ErrCodeImportEmpty)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, internal.NewValidationError("could not read sheet", internal.ErrCodeValidationFailed).WithCause(err)
	}
	if len(rows) < 2 {
		return nil, internal.NewValidationError("no data rows found", internal.ErrCodeImportEmpty)
	}
	return rows, nil
}

// cell returns the trimmed value at index i; rows from excelize are
// ragged, trailing empty cells are simply absent.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellInt64(row []string, i int) int64 {
	n, err := strconv.ParseInt(cell(row, i), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func cellDate(row []string, i int) time.Time {
	value := cell(row, i)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "01-02-06", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// normalizeChoice lowercases a free-form cell and snake-cases spaces so
// "Site Visit" matches the backend's "site_visit".
func normalizeChoice(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "_")
}

func writeSheet(w io.Writer, sheet string, rows [][]interface{}, widths []float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}
