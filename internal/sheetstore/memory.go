package sheetstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/api/sheets/v4"
)

// Memory is an in-process Store used by --dry-run and by tests. It
// applies the same value semantics as the remote service: RAW writes,
// trailing-empty trimming on reads, and addSheet/updateCells requests
// from batch updates. Formatting-only requests (merges, borders,
// dimensions) are accepted and dropped.
type Memory struct {
	mu     sync.Mutex
	files  map[string]*memFile
	nextID int64
}

type memFile struct {
	sheets []*memSheet
}

type memSheet struct {
	id    int64
	title string
	rows  int64
	cols  int64
	cells map[cellKey]interface{}
}

type cellKey struct {
	row int // zero-based
	col int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memFile), nextID: 1}
}

func (m *Memory) file(spreadsheetID string) *memFile {
	f, ok := m.files[spreadsheetID]
	if !ok {
		f = &memFile{}
		m.files[spreadsheetID] = f
	}
	return f
}

func (f *memFile) byTitle(title string) *memSheet {
	for _, s := range f.sheets {
		if s.title == title {
			return s
		}
	}
	return nil
}

func (f *memFile) byID(id int64) *memSheet {
	for _, s := range f.sheets {
		if s.id == id {
			return s
		}
	}
	return nil
}

// Sheets lists the sheets of a spreadsheet file.
func (m *Memory) Sheets(ctx context.Context, spreadsheetID string) ([]SheetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.file(spreadsheetID)
	infos := make([]SheetInfo, 0, len(f.sheets))
	for _, s := range f.sheets {
		infos = append(infos, SheetInfo{ID: s.id, Title: s.title})
	}
	return infos, nil
}

// AddSheet creates a new sheet, rejecting duplicate titles the way the
// remote service does.
func (m *Memory) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) (SheetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addSheetLocked(spreadsheetID, title, rows, cols)
}

func (m *Memory) addSheetLocked(spreadsheetID, title string, rows, cols int64) (SheetInfo, error) {
	f := m.file(spreadsheetID)
	if f.byTitle(title) != nil {
		return SheetInfo{}, fmt.Errorf("a sheet with the name %q already exists", title)
	}

	s := &memSheet{
		id:    m.nextID,
		title: title,
		rows:  rows,
		cols:  cols,
		cells: make(map[cellKey]interface{}),
	}
	m.nextID++
	f.sheets = append(f.sheets, s)
	return SheetInfo{ID: s.id, Title: s.title}, nil
}

// ReadRange reads values from an A1 range, trimming trailing empty rows
// and columns like the remote service.
func (m *Memory) ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, span, err := m.resolve(spreadsheetID, readRange)
	if err != nil {
		return nil, err
	}

	lastRow := -1
	grid := make([][]interface{}, 0)
	for r := span.r1; r <= span.r2 && r < int(s.rows); r++ {
		row := make([]interface{}, 0)
		lastCol := -1
		for c := span.c1; c <= span.c2 && c < int(s.cols); c++ {
			v, ok := s.cells[cellKey{row: r, col: c}]
			if ok && v != nil && v != "" {
				lastCol = c - span.c1
			}
			row = append(row, valueOrEmpty(v))
		}
		if lastCol >= 0 {
			lastRow = r - span.r1
		}
		grid = append(grid, row[:lastCol+1])
	}
	return grid[:lastRow+1], nil
}

func valueOrEmpty(v interface{}) interface{} {
	if v == nil {
		return ""
	}
	return v
}

// UpdateRange writes raw values starting at the range anchor.
func (m *Memory) UpdateRange(ctx context.Context, spreadsheetID, updateRange string, values [][]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, span, err := m.resolve(spreadsheetID, updateRange)
	if err != nil {
		return err
	}

	for i, row := range values {
		for j, v := range row {
			s.cells[cellKey{row: span.r1 + i, col: span.c1 + j}] = v
		}
	}
	return nil
}

// ClearRange blanks every cell of the range.
func (m *Memory) ClearRange(ctx context.Context, spreadsheetID, clearRange string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, span, err := m.resolve(spreadsheetID, clearRange)
	if err != nil {
		return err
	}

	for key := range s.cells {
		if key.row >= span.r1 && key.row <= span.r2 && key.col >= span.c1 && key.col <= span.c2 {
			delete(s.cells, key)
		}
	}
	return nil
}

// BatchUpdate applies addSheet and updateCells requests; formatting-only
// requests are no-ops in memory.
func (m *Memory) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.file(spreadsheetID)
	for _, req := range requests {
		switch {
		case req.AddSheet != nil:
			props := req.AddSheet.Properties
			rows, cols := int64(1000), int64(26)
			if props.GridProperties != nil {
				rows, cols = props.GridProperties.RowCount, props.GridProperties.ColumnCount
			}
			if _, err := m.addSheetLocked(spreadsheetID, props.Title, rows, cols); err != nil {
				return err
			}
		case req.UpdateCells != nil:
			if err := applyUpdateCells(f, req.UpdateCells); err != nil {
				return err
			}
		default:
			// merges, borders, dimension and format changes carry no values
		}
	}
	return nil
}

func applyUpdateCells(f *memFile, req *sheets.UpdateCellsRequest) error {
	if req.Range == nil {
		return fmt.Errorf("updateCells without a range")
	}
	s := f.byID(req.Range.SheetId)
	if s == nil {
		return fmt.Errorf("sheet id %d: %w", req.Range.SheetId, ErrSheetNotFound)
	}

	for i, row := range req.Rows {
		for j, cell := range row.Values {
			if cell == nil || cell.UserEnteredValue == nil {
				continue
			}
			key := cellKey{
				row: int(req.Range.StartRowIndex) + i,
				col: int(req.Range.StartColumnIndex) + j,
			}
			ev := cell.UserEnteredValue
			switch {
			case ev.StringValue != nil:
				s.cells[key] = *ev.StringValue
			case ev.NumberValue != nil:
				s.cells[key] = *ev.NumberValue
			case ev.BoolValue != nil:
				s.cells[key] = *ev.BoolValue
			}
		}
	}
	return nil
}

// span is a zero-based, inclusive cell rectangle.
type span struct {
	r1, c1, r2, c2 int
}

var cellRefRe = regexp.MustCompile(`^([A-Z]+)?(\d+)?$`)

// resolve splits an A1 range into its sheet and rectangle.
func (m *Memory) resolve(spreadsheetID, a1 string) (*memSheet, span, error) {
	title, ref := splitRange(a1)
	f := m.file(spreadsheetID)

	var s *memSheet
	if title == "" {
		if len(f.sheets) == 0 {
			return nil, span{}, fmt.Errorf("spreadsheet %s has no sheets: %w", spreadsheetID, ErrSheetNotFound)
		}
		s = f.sheets[0]
	} else if s = f.byTitle(title); s == nil {
		return nil, span{}, fmt.Errorf("sheet %q: %w; requested entity was not found", title, ErrSheetNotFound)
	}

	sp, err := parseSpan(ref, s)
	if err != nil {
		return nil, span{}, err
	}
	return s, sp, nil
}

// splitRange separates the optionally quoted sheet title from the cell
// reference part.
func splitRange(a1 string) (title, ref string) {
	idx := strings.LastIndex(a1, "!")
	if idx < 0 {
		return "", a1
	}
	title, ref = a1[:idx], a1[idx+1:]
	if strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'") {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}
	return title, ref
}

func parseSpan(ref string, s *memSheet) (span, error) {
	parts := strings.SplitN(ref, ":", 2)
	r1, c1, err := parseCorner(parts[0], 0, 0)
	if err != nil {
		return span{}, err
	}
	r2, c2 := int(s.rows)-1, int(s.cols)-1
	if len(parts) == 2 {
		r2, c2, err = parseCorner(parts[1], r2, c2)
		if err != nil {
			return span{}, err
		}
	} else if parts[0] != "" {
		// single cell
		r2, c2 = r1, c1
	}
	return span{r1: r1, c1: c1, r2: r2, c2: c2}, nil
}

// parseCorner parses one corner like "A1", "G" or "300"; missing parts
// fall back to the provided defaults.
func parseCorner(ref string, defRow, defCol int) (row, col int, err error) {
	matches := cellRefRe.FindStringSubmatch(ref)
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid A1 reference %q", ref)
	}
	row, col = defRow, defCol
	if matches[1] != "" {
		col = 0
		for _, r := range matches[1] {
			col = col*26 + int(r-'A') + 1
		}
		col--
	}
	if matches[2] != "" {
		n := 0
		for _, r := range matches[2] {
			n = n*10 + int(r-'0')
		}
		row = n - 1
	}
	return row, col, nil
}
