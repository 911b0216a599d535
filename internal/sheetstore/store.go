// Package sheetstore wraps the remote spreadsheet service the engine
// uses as its only datastore. The Store interface is the minimal
// key-range read/write surface the document engine needs; Client talks
// to Google Sheets, Memory is an in-process stand-in for dry runs and
// tests.
package sheetstore

import (
	"context"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// SheetInfo identifies one sheet (tab) inside a spreadsheet file.
type SheetInfo struct {
	ID    int64
	Title string
}

// Store is the remote document store consumed as an opaque key-range
// read/write service.
type Store interface {
	// Sheets lists all sheets of a spreadsheet file.
	Sheets(ctx context.Context, spreadsheetID string) ([]SheetInfo, error)

	// AddSheet creates a new sheet with the given grid size and returns it.
	AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) (SheetInfo, error)

	// ReadRange reads cell values from an A1 range.
	ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)

	// UpdateRange writes raw cell values into an A1 range.
	UpdateRange(ctx context.Context, spreadsheetID, updateRange string, values [][]interface{}) error

	// ClearRange blanks every cell of an A1 range.
	ClearRange(ctx context.Context, spreadsheetID, clearRange string) error

	// BatchUpdate applies structural and formatting requests in one
	// transactional batch.
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

// RangeRef builds an A1 range reference scoped to a sheet title,
// quoting the title so spaces and "№" survive.
func RangeRef(sheetTitle, ref string) string {
	return "'" + strings.ReplaceAll(sheetTitle, "'", "''") + "'!" + ref
}
