// Package xlsx reads the occupancy input contract from Excel workbooks.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/shiftlens/shiftlens/pkg/ingest"
)

// ReadWorkbook opens a workbook and parses the occupancy table from the named
// sheet. An empty sheet name selects the workbook's first sheet.
func ReadWorkbook(path, sheet string) (*ingest.ParseResult, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer file.Close()

	if sheet == "" {
		sheet = file.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	result, err := ingest.ParseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return result, nil
}
